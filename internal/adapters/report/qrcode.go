package report

import (
	"fmt"

	"github.com/skip2/go-qrcode"
)

const qrPixels = 256

// qrPNG encodes content as a QR code PNG with medium error correction.
func qrPNG(content string) ([]byte, error) {
	png, err := qrcode.Encode(content, qrcode.Medium, qrPixels)
	if err != nil {
		return nil, fmt.Errorf("failed to encode qr code: %w", err)
	}
	return png, nil
}
