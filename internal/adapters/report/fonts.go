package report

import (
	"os"

	"github.com/rs/zerolog/log"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/font/opentype"
)

// fontSet is a TrueType font usable by both the PDF and the chart.
type fontSet struct {
	path   string
	ttf    []byte
	parsed *opentype.Font
}

// loadFont returns the first candidate that exists and parses, or nil.
func loadFont(paths []string) *fontSet {
	for _, p := range paths {
		data, err := os.ReadFile(p)
		if err != nil {
			continue
		}
		parsed, err := opentype.Parse(data)
		if err != nil {
			log.Warn().Err(err).Str("path", p).Msg("skipping unreadable font")
			continue
		}
		return &fontSet{path: p, ttf: data, parsed: parsed}
	}
	return nil
}

// face returns a raster face at size pixels. Without a usable font it
// falls back to the fixed basic face.
func (f *fontSet) face(size float64) font.Face {
	if f == nil {
		return basicfont.Face7x13
	}
	face, err := opentype.NewFace(f.parsed, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return basicfont.Face7x13
	}
	return face
}
