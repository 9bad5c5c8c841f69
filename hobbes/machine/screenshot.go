package machine

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/png"
	"io"
)

// FrameToImage converts a packed 0xRRGGBBAA framebuffer slice into an
// RGBA image.
func FrameToImage(pixels []uint32, width, height int) (image.Image, error) {
	if len(pixels) < width*height {
		return nil, fmt.Errorf("incomplete frame: %d pixels for %dx%d", len(pixels), width, height)
	}

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for i, pixel := range pixels[:width*height] {
		idx := i * 4
		img.Pix[idx] = byte(pixel >> 24)
		img.Pix[idx+1] = byte(pixel >> 16)
		img.Pix[idx+2] = byte(pixel >> 8)
		img.Pix[idx+3] = byte(pixel)
	}
	return img, nil
}

// EncodePNG writes img to w as PNG.
func EncodePNG(w io.Writer, img image.Image) error {
	return png.Encode(w, img)
}

// EncodeBase64PNG returns the PNG encoding of img as a base64 string,
// the form the reasoning service expects for image content.
func EncodeBase64PNG(img image.Image) (string, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return "", fmt.Errorf("failed to encode screenshot: %w", err)
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}
