package capture

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
)

// Downscale shrinks an encoded image by factor and returns it as JPEG.
// A factor of 1 or more, or an undecodable image, returns data unchanged
// together with factor 1 so box coordinates need no correction.
func Downscale(data []byte, factor float64) ([]byte, float64, error) {
	if factor <= 0 || factor >= 1 {
		return data, 1, nil
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return data, 1, fmt.Errorf("failed to decode frame: %w", err)
	}

	bounds := img.Bounds()
	newWidth := max(int(float64(bounds.Dx())*factor), 1)
	newHeight := max(int(float64(bounds.Dy())*factor), 1)

	resized := image.NewRGBA(image.Rect(0, 0, newWidth, newHeight))
	draw.CatmullRom.Scale(resized, resized.Bounds(), img, bounds, draw.Over, nil)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, resized, &jpeg.Options{Quality: 85}); err != nil {
		return data, 1, fmt.Errorf("failed to encode frame: %w", err)
	}

	// Effective factor from the rounded width keeps box rescaling exact.
	return buf.Bytes(), float64(newWidth) / float64(bounds.Dx()), nil
}
