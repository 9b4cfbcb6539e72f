package imaging

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/doeshing/snapask/internal/domain"
)

func pngDataURI(t *testing.T, w, h int) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x % 256), G: uint8(y % 256), B: 128, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return EncodeDataURI("image/png", buf.Bytes())
}

func decodeSize(t *testing.T, uri string) image.Point {
	t.Helper()
	raw, err := DecodeDataURI(uri)
	require.NoError(t, err)
	cfg, format, err := image.DecodeConfig(bytes.NewReader(raw))
	require.NoError(t, err)
	assert.Equal(t, "jpeg", format)
	return image.Pt(cfg.Width, cfg.Height)
}

func TestCropScalesByPixelRatio(t *testing.T) {
	src := pngDataURI(t, 800, 600)
	region := domain.Region{X: 10, Y: 20, Width: 200, Height: 150}

	out, err := NewCropper().Crop(src, region, 2)
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(out, "data:image/jpeg;base64,"))
	assert.Equal(t, image.Pt(400, 300), decodeSize(t, out))
}

func TestCropClipsToImageBounds(t *testing.T) {
	src := pngDataURI(t, 100, 100)
	out, err := NewCropper().Crop(src, domain.Region{X: 80, Y: 80, Width: 50, Height: 50}, 1)
	require.NoError(t, err)
	assert.Equal(t, image.Pt(20, 20), decodeSize(t, out))
}

func TestCropErrorsAreDecodeKind(t *testing.T) {
	tests := []struct {
		name   string
		uri    string
		region domain.Region
	}{
		{name: "not a data uri", uri: "https://example.com/a.png", region: domain.Region{Width: 20, Height: 20}},
		{name: "garbage payload", uri: "data:image/png;base64,AAAA", region: domain.Region{Width: 20, Height: 20}},
		{name: "outside bounds", uri: pngDataURI(t, 50, 50), region: domain.Region{X: 100, Y: 100, Width: 20, Height: 20}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewCropper().Crop(tt.uri, tt.region, 1)
			require.Error(t, err)
			assert.Equal(t, domain.ErrorKindDecode, domain.KindOf(err))
		})
	}
}

func TestDecodeDataURIRejectsPlainEncoding(t *testing.T) {
	_, err := DecodeDataURI("data:text/plain,hello")
	assert.Error(t, err)
}
