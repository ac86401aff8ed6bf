package images

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/jpeg"
	_ "image/png"

	xdraw "golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

// ErrInvalidImage is returned when the payload cannot be decoded as a
// supported image format.
var ErrInvalidImage = errors.New("images: cannot decode image")

// Processor normalizes message attachments: transparency is flattened onto
// a white background, the image is bounded to MaxWidth x MaxHeight while
// preserving aspect ratio, and the result is re-encoded as JPEG. Output is
// therefore bounded in size and uniform in format regardless of input.
type Processor struct {
	MaxWidth  int
	MaxHeight int
	Quality   int
}

// NewProcessor returns a processor with the attachment defaults.
func NewProcessor() Processor {
	return Processor{MaxWidth: 800, MaxHeight: 600, Quality: 85}
}

// Normalize decodes, flattens, downsizes and re-encodes the payload.
func (p Processor) Normalize(data []byte) ([]byte, error) {
	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}

	flat := flatten(src)
	bounded := p.bound(flat)

	var out bytes.Buffer
	if err := jpeg.Encode(&out, bounded, &jpeg.Options{Quality: p.Quality}); err != nil {
		return nil, fmt.Errorf("images: encode: %w", err)
	}
	return out.Bytes(), nil
}

// flatten composites the image over a white background, discarding any
// alpha channel.
func flatten(src image.Image) *image.RGBA {
	bounds := src.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	draw.Draw(dst, dst.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)
	draw.Draw(dst, dst.Bounds(), src, bounds.Min, draw.Over)
	return dst
}

// bound downsizes so neither dimension exceeds the configured maximum,
// preserving aspect ratio. Images already within bounds pass through.
func (p Processor) bound(src *image.RGBA) image.Image {
	width := src.Bounds().Dx()
	height := src.Bounds().Dy()
	if width <= p.MaxWidth && height <= p.MaxHeight {
		return src
	}

	scaleW := float64(p.MaxWidth) / float64(width)
	scaleH := float64(p.MaxHeight) / float64(height)
	scale := scaleW
	if scaleH < scale {
		scale = scaleH
	}
	targetW := int(float64(width) * scale)
	targetH := int(float64(height) * scale)
	if targetW < 1 {
		targetW = 1
	}
	if targetH < 1 {
		targetH = 1
	}

	dst := image.NewRGBA(image.Rect(0, 0, targetW, targetH))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), src, src.Bounds(), xdraw.Src, nil)
	return dst
}
