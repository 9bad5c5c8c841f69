package machine

import (
	"bytes"
	"encoding/base64"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFrameToImage(t *testing.T) {
	pixels := []uint32{
		0xFF0000FF, 0x00FF00FF,
		0x0000FFFF, 0xFFFFFFFF,
	}
	img, err := FrameToImage(pixels, 2, 2)
	require.NoError(t, err)

	r, g, b, a := img.At(0, 0).RGBA()
	assert.Equal(t, uint32(0xFFFF), r)
	assert.Equal(t, uint32(0), g)
	assert.Equal(t, uint32(0), b)
	assert.Equal(t, uint32(0xFFFF), a)

	r, g, _, _ = img.At(1, 0).RGBA()
	assert.Equal(t, uint32(0), r)
	assert.Equal(t, uint32(0xFFFF), g)
}

func TestFrameToImageIncomplete(t *testing.T) {
	_, err := FrameToImage([]uint32{0}, 2, 2)
	assert.Error(t, err)
}

func TestEncodeBase64PNG(t *testing.T) {
	pixels := make([]uint32, 4)
	for i := range pixels {
		pixels[i] = 0xFFFFFFFF
	}
	img, err := FrameToImage(pixels, 2, 2)
	require.NoError(t, err)

	encoded, err := EncodeBase64PNG(img)
	require.NoError(t, err)

	raw, err := base64.StdEncoding.DecodeString(encoded)
	require.NoError(t, err)

	decoded, err := png.Decode(bytes.NewReader(raw))
	require.NoError(t, err)
	assert.Equal(t, 2, decoded.Bounds().Dx())
	assert.Equal(t, 2, decoded.Bounds().Dy())
}

func TestParseButton(t *testing.T) {
	b, err := ParseButton("A")
	require.NoError(t, err)
	assert.Equal(t, ButtonA, b)
	assert.Equal(t, "a", b.String())

	_, err = ParseButton("turbo")
	assert.Error(t, err)
}
