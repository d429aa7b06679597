package report

import (
	"image"
	"image/color"
	"math"
	"strconv"

	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/math/fixed"

	"github.com/zatekoja/cashflow-diagnosis/internal/domain/entities"
)

const (
	chartWidth  = 1100
	chartHeight = 528
	chartMax    = 5.0
	chartTicks  = 5
	axisLabel   = "Average score (0-5)"
)

var (
	barColor   = color.RGBA{R: 0x1f, G: 0x77, B: 0xb4, A: 0xff}
	gridColor  = color.RGBA{R: 0xdd, G: 0xdd, B: 0xdd, A: 0xff}
	axisColor  = color.RGBA{R: 0x44, G: 0x44, B: 0x44, A: 0xff}
	labelColor = color.Black
)

type bar struct {
	Label string
	Score float64
	Rect  image.Rectangle
}

// layoutBars places one horizontal bar per category inside plot. Bars are
// ordered by score with the lowest at the bottom; length is proportional to
// the score on a fixed 0-5 axis.
func layoutBars(scores []entities.CategoryScore, plot image.Rectangle) []bar {
	sorted := entities.SortedAscending(scores)
	if len(sorted) == 0 {
		return nil
	}
	slot := float64(plot.Dy()) / float64(len(sorted))
	thickness := slot * 0.6

	bars := make([]bar, len(sorted))
	for i, s := range sorted {
		center := float64(plot.Max.Y) - (float64(i)+0.5)*slot
		v := math.Max(0, math.Min(chartMax, s.Score))
		length := int(math.Round(v / chartMax * float64(plot.Dx())))
		bars[i] = bar{
			Label: s.Name,
			Score: s.Score,
			Rect: image.Rect(
				plot.Min.X,
				int(math.Round(center-thickness/2)),
				plot.Min.X+length,
				int(math.Round(center+thickness/2)),
			),
		}
	}
	return bars
}

// renderBarChart draws the category scores as a PNG.
func renderBarChart(scores []entities.CategoryScore, face font.Face) ([]byte, error) {
	img := image.NewRGBA(image.Rect(0, 0, chartWidth, chartHeight))
	draw.Draw(img, img.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)

	metrics := face.Metrics()
	lineHeight := metrics.Height.Ceil()
	ascent := metrics.Ascent.Ceil()

	labelWidth := 0
	for _, s := range scores {
		if w := font.MeasureString(face, s.Name).Ceil(); w > labelWidth {
			labelWidth = w
		}
	}
	left := labelWidth + 24
	if left < 80 {
		left = 80
	}
	if left > chartWidth/2 {
		left = chartWidth / 2
	}
	plot := image.Rect(left, 24, chartWidth-40, chartHeight-2*lineHeight-28)

	for t := 0; t <= chartTicks; t++ {
		x := plot.Min.X + t*plot.Dx()/chartTicks
		fillRect(img, image.Rect(x, plot.Min.Y, x+1, plot.Max.Y), gridColor)
		tick := strconv.Itoa(t)
		w := font.MeasureString(face, tick).Ceil()
		drawText(img, face, tick, x-w/2, plot.Max.Y+8+ascent)
	}

	for _, b := range layoutBars(scores, plot) {
		fillRect(img, b.Rect, barColor)
		w := font.MeasureString(face, b.Label).Ceil()
		mid := (b.Rect.Min.Y + b.Rect.Max.Y) / 2
		drawText(img, face, b.Label, plot.Min.X-12-w, mid+ascent/2-2)
	}

	fillRect(img, image.Rect(plot.Min.X, plot.Min.Y, plot.Min.X+2, plot.Max.Y), axisColor)
	fillRect(img, image.Rect(plot.Min.X, plot.Max.Y-1, plot.Max.X, plot.Max.Y+1), axisColor)

	w := font.MeasureString(face, axisLabel).Ceil()
	drawText(img, face, axisLabel, plot.Min.X+(plot.Dx()-w)/2, plot.Max.Y+8+lineHeight+ascent+4)

	return encodePNG(img)
}

func fillRect(img *image.RGBA, r image.Rectangle, c color.Color) {
	draw.Draw(img, r, image.NewUniform(c), image.Point{}, draw.Src)
}

func drawText(img *image.RGBA, face font.Face, s string, x, y int) {
	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(labelColor),
		Face: face,
		Dot:  fixed.P(x, y),
	}
	d.DrawString(s)
}
