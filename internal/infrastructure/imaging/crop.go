// Package imaging converts between captured viewport images and the cropped
// data URIs sent for analysis.
package imaging

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/jpeg"
	_ "image/png"
	"math"
	"strings"

	"golang.org/x/image/draw"

	"github.com/doeshing/snapask/internal/domain"
	"github.com/doeshing/snapask/internal/ports"
)

// Cropper crops captured viewports and re-encodes them as JPEG.
type Cropper struct {
	Quality int
}

// NewCropper returns a Cropper using domain.CropQuality.
func NewCropper() *Cropper {
	return &Cropper{Quality: domain.CropQuality}
}

// Crop implements ports.ImageCropper. The region is given in CSS pixels and
// scaled by pixelRatio to address device pixels of the capture.
func (c *Cropper) Crop(dataURI string, region domain.Region, pixelRatio float64) (string, error) {
	raw, err := DecodeDataURI(dataURI)
	if err != nil {
		return "", domain.DecodeError("Failed to load captured image: %w", err)
	}
	src, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return "", domain.DecodeError("Failed to load captured image: %w", err)
	}

	scaled := region.Scale(pixelRatio)
	rect := image.Rect(
		int(math.Floor(scaled.X)),
		int(math.Floor(scaled.Y)),
		int(math.Round(scaled.X+scaled.Width)),
		int(math.Round(scaled.Y+scaled.Height)),
	).Add(src.Bounds().Min).Intersect(src.Bounds())
	if rect.Empty() {
		return "", domain.DecodeError("selected region %v lies outside the captured image", rect)
	}

	dst := image.NewRGBA(image.Rect(0, 0, rect.Dx(), rect.Dy()))
	draw.Copy(dst, image.Point{}, src, rect, draw.Src, nil)

	quality := c.Quality
	if quality <= 0 {
		quality = domain.CropQuality
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, dst, &jpeg.Options{Quality: quality}); err != nil {
		return "", domain.DecodeError("encode cropped image: %w", err)
	}
	return EncodeDataURI("image/jpeg", buf.Bytes()), nil
}

// EncodeDataURI renders data as a base64 data URI.
func EncodeDataURI(mime string, data []byte) string {
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(data)
}

// DecodeDataURI returns the payload of a base64 data URI.
func DecodeDataURI(uri string) ([]byte, error) {
	if !strings.HasPrefix(uri, "data:") {
		return nil, fmt.Errorf("not a data URI")
	}
	header, payload, ok := strings.Cut(uri, ",")
	if !ok {
		return nil, fmt.Errorf("data URI has no payload")
	}
	if !strings.HasSuffix(header, ";base64") {
		return nil, fmt.Errorf("data URI is not base64 encoded")
	}
	return base64.StdEncoding.DecodeString(payload)
}

var _ ports.ImageCropper = (*Cropper)(nil)
