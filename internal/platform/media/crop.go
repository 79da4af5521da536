package media

import (
	"bytes"
	"image"
	"image/color"
	"image/png"

	"golang.org/x/image/draw"
)

// CropTopAligned copies the top-left width x height rectangle of src onto a
// white canvas. Pages taller than the target aspect are cropped, never
// vertically centered; pages shorter than the target leave white below the
// copied rows rather than rescaling.
func CropTopAligned(src image.Image, width, height int) *image.RGBA {
	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(dst, dst.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)

	sb := src.Bounds()
	copyW := sb.Dx()
	if copyW > width {
		copyW = width
	}
	copyH := sb.Dy()
	if copyH > height {
		copyH = height
	}
	region := image.Rect(0, 0, copyW, copyH)
	draw.Draw(dst, region, src, sb.Min, draw.Src)
	return dst
}

// EncodePNG renders the image to PNG bytes.
func EncodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
