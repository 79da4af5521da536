package media

import (
	"image"
	"image/color"
	"testing"
)

// gradient where each row has a distinct color so crop alignment is provable.
func rowGradient(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		c := color.RGBA{R: uint8(y % 256), G: uint8((y * 7) % 256), B: uint8((y * 13) % 256), A: 255}
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, c)
		}
	}
	return img
}

func TestCropTopAlignedTallPage(t *testing.T) {
	// A4-ish portrait render at width 400: taller than 16:9.
	src := rowGradient(400, 566)
	dst := CropTopAligned(src, 400, 225)

	b := dst.Bounds()
	if b.Dx() != 400 || b.Dy() != 225 {
		t.Fatalf("bounds: got %dx%d", b.Dx(), b.Dy())
	}
	// Row 0 of the crop must equal row 0 of the source, not a centered slice.
	for x := 0; x < 400; x += 37 {
		if got, want := dst.RGBAAt(x, 0), src.RGBAAt(x, 0); got != want {
			t.Fatalf("row 0 pixel %d: got %v want %v", x, got, want)
		}
	}
	// Last row of the crop comes from source row 224, not 341 (the centered
	// slice's last row).
	for x := 0; x < 400; x += 37 {
		if got, want := dst.RGBAAt(x, 224), src.RGBAAt(x, 224); got != want {
			t.Fatalf("row 224 pixel %d: got %v want %v", x, got, want)
		}
	}
}

func TestCropTopAlignedShortPage(t *testing.T) {
	// Landscape page shorter than the target: copied rows on top, white below.
	src := rowGradient(400, 100)
	dst := CropTopAligned(src, 400, 225)

	if got, want := dst.RGBAAt(10, 0), src.RGBAAt(10, 0); got != want {
		t.Fatalf("row 0: got %v want %v", got, want)
	}
	white := color.RGBA{255, 255, 255, 255}
	if got := dst.RGBAAt(10, 150); got != white {
		t.Fatalf("below source rows: got %v want white", got)
	}
}

func TestCropTopAlignedWidePage(t *testing.T) {
	src := rowGradient(600, 225)
	dst := CropTopAligned(src, 400, 225)
	if b := dst.Bounds(); b.Dx() != 400 || b.Dy() != 225 {
		t.Fatalf("bounds: got %dx%d", b.Dx(), b.Dy())
	}
	// Left-aligned: pixel (0,0) comes from source (0,0).
	if got, want := dst.RGBAAt(0, 0), src.RGBAAt(0, 0); got != want {
		t.Fatalf("origin: got %v want %v", got, want)
	}
}

func TestEncodePNGRoundTrip(t *testing.T) {
	img := rowGradient(8, 8)
	data, err := EncodePNG(img)
	if err != nil {
		t.Fatalf("EncodePNG: %v", err)
	}
	if len(data) == 0 {
		t.Fatal("empty png output")
	}
}
