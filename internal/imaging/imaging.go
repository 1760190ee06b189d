package imaging

import (
	"bytes"
	"image"
	"image/color"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"

	"github.com/pkg/errors"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

const (
	PageHeight         = 2400
	SeriesCoverHeight  = 1024
	ChapterCoverHeight = 512

	Quality = 90
)

// Transform decodes an image, flattens it to opaque RGB, scales it down to
// maxHeight when it is taller and encodes it as JPEG.
func Transform(data []byte, maxHeight int) ([]byte, error) {
	src, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, errors.Wrap(err, "failed to decode image")
	}

	bounds := src.Bounds()
	width, height := Dimensions(bounds.Dx(), bounds.Dy(), maxHeight)

	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(dst, dst.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)

	if width == bounds.Dx() && height == bounds.Dy() {
		draw.Draw(dst, dst.Bounds(), src, bounds.Min, draw.Over)
	} else {
		draw.CatmullRom.Scale(dst, dst.Bounds(), src, bounds, draw.Over, nil)
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, dst, &jpeg.Options{Quality: Quality}); err != nil {
		return nil, errors.Wrapf(err, "failed to encode %s image as jpeg", format)
	}

	return buf.Bytes(), nil
}

// Dimensions returns the size of an image scaled to maxHeight, keeping the
// aspect ratio. Images at or below maxHeight keep their size.
func Dimensions(width, height, maxHeight int) (int, int) {
	if maxHeight <= 0 || height <= maxHeight {
		return width, height
	}

	newWidth := int(float64(width) / float64(height) * float64(maxHeight))
	if newWidth < 1 {
		newWidth = 1
	}

	return newWidth, maxHeight
}
