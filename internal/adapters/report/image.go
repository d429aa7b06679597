package report

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"
	"math"

	"golang.org/x/image/draw"
)

func decodeImage(data []byte) (image.Image, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}
	return img, nil
}

// fitBox downscales src to fit within maxW x maxH pixels, keeping the
// aspect ratio. It never upscales; a non-positive bound is ignored.
func fitBox(src image.Image, maxW, maxH int) image.Image {
	b := src.Bounds()
	scale := 1.0
	if maxW > 0 && b.Dx() > maxW {
		scale = float64(maxW) / float64(b.Dx())
	}
	if maxH > 0 && b.Dy() > maxH {
		scale = math.Min(scale, float64(maxH)/float64(b.Dy()))
	}
	if scale >= 1 {
		return src
	}
	w := max(1, int(math.Round(float64(b.Dx())*scale)))
	h := max(1, int(math.Round(float64(b.Dy())*scale)))
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, b, draw.Src, nil)
	return dst
}

func encodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("failed to encode png: %w", err)
	}
	return buf.Bytes(), nil
}
