package report

import (
	"bytes"
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"
	"unicode"

	"github.com/go-pdf/fpdf"
	"github.com/rs/zerolog"

	"github.com/zatekoja/cashflow-diagnosis/internal/domain/entities"
	"github.com/zatekoja/cashflow-diagnosis/internal/domain/providers"
	"github.com/zatekoja/cashflow-diagnosis/internal/infrastructure/observability"
	"github.com/zatekoja/cashflow-diagnosis/pkg/utils"
)

const (
	marginX       = 32.0
	marginY       = 28.0
	bodySize      = 10.0
	bodyLeading   = 14.0
	headingSize   = 12.0
	titleSize     = 18.0
	chartPtWidth  = 390.0
	qrPtSize      = 52.0
	ctaTextWidth  = 430.0
	nameColWidth  = 220.0
	scoreColWidth = 140.0
	rowHeight     = 18.0
	utf8Family    = "report"

	// The report is a single page: long text is cut to these line counts
	// and the chart shrinks into whatever height is left.
	maxTitleLines   = 2
	maxMetaLines    = 3
	maxCommentLines = 12
	minChartHeight  = 60.0
	sectionGap      = 6.0
)

// Options configures the PDF report.
type Options struct {
	Title         string
	CTAURL        string
	BrandColor    string
	LogoPath      string
	LogoURL       string
	LogoTimeout   time.Duration
	FontPaths      []string
	MaxImageWidth  int
	MaxImageHeight int
}

// PDFRenderer renders A4 diagnosis reports.
type PDFRenderer struct {
	opts Options
	logo *LogoSource

	fontOnce sync.Once
	font     *fontSet
}

var _ providers.ReportRenderer = (*PDFRenderer)(nil)

// NewPDFRenderer creates a renderer. Fonts are resolved on first use.
func NewPDFRenderer(opts Options) *PDFRenderer {
	if opts.MaxImageWidth <= 0 {
		opts.MaxImageWidth = 120
	}
	if opts.MaxImageHeight <= 0 {
		opts.MaxImageHeight = 60
	}
	var logo *LogoSource
	if opts.LogoPath != "" || opts.LogoURL != "" {
		logo = NewLogoSource(opts.LogoPath, opts.LogoURL, opts.LogoTimeout)
	}
	return &PDFRenderer{opts: opts, logo: logo}
}

func (r *PDFRenderer) fonts() *fontSet {
	r.fontOnce.Do(func() {
		r.font = loadFont(r.opts.FontPaths)
	})
	return r.font
}

// Filename returns the report file name for a company and generation time.
func Filename(company string, at time.Time) string {
	id := utils.SafeFileComponent(company)
	if id == "" {
		id = "anonymous"
	}
	return fmt.Sprintf("diagnosis_%s_%s.pdf", id, at.Format("20060102_1504"))
}

// page wraps the document with the active font family and text encoding.
type page struct {
	pdf    *fpdf.Fpdf
	family string
	bold   string
	tr     func(string) string
	left   float64
}

func newPage(fonts *fontSet, logger *zerolog.Logger) *page {
	pdf := fpdf.New("P", "pt", "A4", "")
	pdf.SetMargins(marginX, marginY, marginX)
	pdf.SetAutoPageBreak(false, marginY)

	p := &page{pdf: pdf, left: marginX}
	if fonts != nil {
		pdf.AddUTF8FontFromBytes(utf8Family, "", fonts.ttf)
		if pdf.Ok() {
			p.family = utf8Family
			p.tr = func(s string) string { return s }
			return p
		}
		logger.Warn().Err(pdf.Error()).Str("font", fonts.path).Msg("font rejected by pdf writer, using core font")
		pdf.ClearError()
	}
	p.family = "Helvetica"
	p.bold = "B"
	p.tr = pdf.UnicodeTranslatorFromDescriptor("")
	return p
}

func (p *page) heading(text string) {
	p.pdf.SetFont(p.family, p.bold, headingSize)
	p.pdf.CellFormat(0, rowHeight, p.tr(text), "", 1, "L", false, 0, "")
	p.pdf.SetFont(p.family, "", bodySize)
}

// paragraph writes text wrapped to the content width, cut to maxLines.
func (p *page) paragraph(text, align string, maxLines int) {
	p.pdf.SetFont(p.family, "", bodySize)
	p.lines(text, align, bodyLeading, maxLines)
}

func (p *page) lines(text, align string, leading float64, maxLines int) {
	pageW, _ := p.pdf.GetPageSize()
	for _, line := range p.wrap(text, pageW-2*marginX-4, maxLines) {
		p.pdf.CellFormat(0, leading, p.tr(line), "", 1, align, false, 0, "")
	}
}

// wrap breaks text into lines no wider than w in the current font, at
// spaces where possible and between any two characters otherwise. Text
// beyond maxLines is dropped and the last kept line ends with "...".
func (p *page) wrap(text string, w float64, maxLines int) []string {
	var out []string
	for _, para := range strings.Split(text, "\n") {
		runes := []rune(para)
		start, lastSpace := 0, -1
		for i := 0; i < len(runes); i++ {
			if unicode.IsSpace(runes[i]) {
				lastSpace = i
			}
			if i == start || p.pdf.GetStringWidth(p.tr(string(runes[start:i+1]))) <= w {
				continue
			}
			cut, next := i, i
			if lastSpace > start {
				cut, next = lastSpace, lastSpace+1
			}
			out = append(out, strings.TrimSpace(string(runes[start:cut])))
			start, lastSpace = next, -1
		}
		out = append(out, strings.TrimSpace(string(runes[start:])))
	}
	if maxLines > 0 && len(out) > maxLines {
		out = out[:maxLines]
		last := []rune(out[maxLines-1])
		if len(last) > 3 {
			last = last[:len(last)-3]
		}
		out[maxLines-1] = strings.TrimSpace(string(last)) + "..."
	}
	return out
}

// image places a PNG at the left margin; failures leave the page unchanged.
func (p *page) image(name string, png []byte, w, h float64, x float64) bool {
	opts := fpdf.ImageOptions{ImageType: "PNG"}
	p.pdf.RegisterImageOptionsReader(name, opts, bytes.NewReader(png))
	if !p.pdf.Ok() {
		p.pdf.ClearError()
		return false
	}
	p.pdf.ImageOptions(name, x, p.pdf.GetY(), w, h, true, opts, 0, "")
	if !p.pdf.Ok() {
		p.pdf.ClearError()
		return false
	}
	return true
}

// Render produces the PDF. Missing or broken fonts, logos and images
// degrade the document; only an encoder failure is returned.
func (r *PDFRenderer) Render(ctx context.Context, in entities.ReportInput) (*entities.ReportArtifact, error) {
	ctx, span := observability.StartSpan(ctx, "report.Render")
	defer span.End()
	logger := observability.LoggerFromContext(ctx)

	fonts := r.fonts()
	p := newPage(fonts, logger)
	pdf := p.pdf
	pdf.SetTitle(r.opts.Title, true)
	pdf.SetCreator("cashflow-diagnosis", true)
	pdf.SetCreationDate(in.GeneratedAt)
	pdf.AddPage()

	r.drawLogo(ctx, p, logger)

	pdf.SetFont(p.family, p.bold, titleSize)
	p.lines(r.opts.Title, "C", 24, maxTitleLines)
	pdf.Ln(4)

	company := in.Company
	if company == "" {
		company = "(not provided)"
	}
	p.paragraph(fmt.Sprintf("Company: %s / Date: %s / Signal: %s / Type: %s",
		company, in.GeneratedAt.Format("2006-01-02 15:04"), in.Signal.Label(), in.TypeLabel), "L", maxMetaLines)
	pdf.Ln(sectionGap)

	p.heading("Diagnosis comment")
	p.paragraph(commentText(in), "L", maxCommentLines)
	pdf.Ln(sectionGap)

	r.drawTable(p, in.Scores)
	pdf.Ln(sectionGap)

	r.drawChart(p, fonts, in.Scores, logger)

	r.drawCTA(p, logger)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		observability.RecordError(span, err)
		return nil, fmt.Errorf("failed to encode pdf: %w", err)
	}

	return &entities.ReportArtifact{
		Filename:    Filename(in.Company, in.GeneratedAt),
		ContentType: "application/pdf",
		Content:     buf.Bytes(),
	}, nil
}

// commentText is the generated narrative, or the type's static text when
// generation fell back.
func commentText(in entities.ReportInput) string {
	if strings.TrimSpace(in.Narrative) != "" {
		return in.Narrative
	}
	return in.FallbackText
}

func (r *PDFRenderer) drawLogo(ctx context.Context, p *page, logger *zerolog.Logger) {
	data, err := r.logo.Load(ctx)
	if err != nil {
		logger.Debug().Err(err).Msg("brand mark omitted")
		return
	}
	img, err := decodeImage(data)
	if err != nil {
		logger.Warn().Err(err).Msg("brand mark omitted")
		return
	}
	img = fitBox(img, r.opts.MaxImageWidth, r.opts.MaxImageHeight)
	png, err := encodePNG(img)
	if err != nil {
		logger.Warn().Err(err).Msg("brand mark omitted")
		return
	}
	b := img.Bounds()
	if p.image("logo", png, float64(b.Dx()), float64(b.Dy()), p.left) {
		p.pdf.Ln(6)
	}
}

func (r *PDFRenderer) drawTable(p *page, scores []entities.CategoryScore) {
	pdf := p.pdf
	br, bg, bb := parseHexColor(r.opts.BrandColor)
	pdf.SetDrawColor(128, 128, 128)
	pdf.SetLineWidth(0.3)
	pdf.SetTextColor(0, 0, 0)

	pdf.SetFont(p.family, p.bold, bodySize)
	pdf.SetFillColor(br, bg, bb)
	pdf.CellFormat(nameColWidth, rowHeight, p.tr("Category"), "1", 0, "L", true, 0, "")
	pdf.CellFormat(scoreColWidth, rowHeight, p.tr("Average score (0-5)"), "1", 1, "C", true, 0, "")

	pdf.SetFont(p.family, "", bodySize)
	for i, s := range scores {
		if i%2 == 0 {
			pdf.SetFillColor(245, 245, 245)
		} else {
			pdf.SetFillColor(255, 255, 255)
		}
		pdf.CellFormat(nameColWidth, rowHeight, p.tr(s.Name), "1", 0, "L", true, 0, "")
		pdf.CellFormat(scoreColWidth, rowHeight, strconv.FormatFloat(s.Score, 'f', 2, 64), "1", 1, "C", true, 0, "")
	}
}

// drawChart places the bar chart in the height left above the CTA block,
// shrinking it as needed. Below minChartHeight the chart is left out.
func (r *PDFRenderer) drawChart(p *page, fonts *fontSet, scores []entities.CategoryScore, logger *zerolog.Logger) {
	pdf := p.pdf
	_, pageH := pdf.GetPageSize()
	reserved := rowHeight + sectionGap
	if r.opts.CTAURL != "" {
		reserved += rowHeight + qrPtSize
	}
	h := min(chartPtWidth*chartHeight/chartWidth, pageH-marginY-pdf.GetY()-reserved)
	if h < minChartHeight {
		logger.Warn().Float64("available", h).Msg("no room for chart, omitting chart")
		return
	}

	p.heading("Category scores (bar chart)")
	face := fonts.face(22)
	chart, err := renderBarChart(scores, face)
	face.Close()
	if err != nil {
		logger.Warn().Err(err).Msg("chart rendering failed, omitting chart")
		return
	}
	if !p.image("chart", chart, h*chartWidth/chartHeight, h, p.left) {
		logger.Warn().Msg("chart could not be placed in report")
		return
	}
	pdf.Ln(sectionGap)
}

func (r *PDFRenderer) drawCTA(p *page, logger *zerolog.Logger) {
	if r.opts.CTAURL == "" {
		return
	}
	pdf := p.pdf
	p.heading("Next step (90-minute spot diagnosis)")

	pageW, _ := pdf.GetPageSize()
	y := pdf.GetY()

	pdf.SetFont(p.family, "", bodySize)
	pdf.SetTextColor(0, 0, 238)
	pdf.CellFormat(ctaTextWidth, qrPtSize, p.tr("Details and booking: "+r.opts.CTAURL), "", 0, "LM", false, 0, r.opts.CTAURL)
	pdf.SetTextColor(0, 0, 0)

	qr, err := qrPNG(r.opts.CTAURL)
	if err != nil {
		logger.Warn().Err(err).Msg("qr code omitted")
	} else {
		pdf.SetY(y)
		if !p.image("qr", qr, qrPtSize, qrPtSize, pageW-marginX-qrPtSize) {
			logger.Warn().Msg("qr code could not be placed in report")
		}
	}
	pdf.SetY(y + qrPtSize)
}

// parseHexColor parses "#rrggbb", defaulting to light grey.
func parseHexColor(hex string) (int, int, int) {
	hex = strings.TrimPrefix(strings.TrimSpace(hex), "#")
	if len(hex) != 6 {
		return 240, 240, 240
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return 240, 240, 240
	}
	return int(v >> 16 & 0xff), int(v >> 8 & 0xff), int(v & 0xff)
}
