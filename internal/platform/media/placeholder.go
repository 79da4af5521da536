package media

import (
	"fmt"
	"hash/fnv"
	"image/color"
	"os"
	"strings"
	"unicode"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
)

var tileColors = []color.NRGBA{
	{R: 0x2f, G: 0x6f, B: 0x8f, A: 0xff},
	{R: 0x3a, G: 0x7d, B: 0x5c, A: 0xff},
	{R: 0x8a, G: 0x5a, B: 0x83, A: 0xff},
	{R: 0xb5, G: 0x6a, B: 0x3e, A: 0xff},
	{R: 0x4a, G: 0x5a, B: 0x8a, A: 0xff},
	{R: 0x6d, G: 0x4e, B: 0x42, A: 0xff},
}

// PlaceholderTile composes a flat-color tile with the file's initial letter
// and upper-cased extension for assets that have no renderable preview. The
// background color is stable for a given name. The letter is drawn only when
// a TTF is configured via THUMBNAIL_FONT; the tile alone is still a valid
// thumbnail.
func PlaceholderTile(name, ext string, width, height int) ([]byte, error) {
	dc := gg.NewContext(width, height)

	bg := tileColors[hashName(name)%uint32(len(tileColors))]
	dc.SetColor(bg)
	dc.DrawRectangle(0, 0, float64(width), float64(height))
	dc.Fill()

	// Darker footer band carrying the extension.
	dc.SetRGBA255(0, 0, 0, 64)
	dc.DrawRectangle(0, float64(height)*0.78, float64(width), float64(height)*0.22)
	dc.Fill()

	face, err := loadConfiguredFont(float64(height) * 0.42)
	if err == nil && face != nil {
		dc.SetFontFace(face)
		dc.SetColor(color.White)

		initial := initialOf(name)
		tw, th := dc.MeasureString(initial)
		dc.DrawString(initial, float64(width)/2-tw/2, float64(height)*0.45+th/2)

		small, serr := loadConfiguredFont(float64(height) * 0.14)
		if serr == nil && small != nil {
			dc.SetFontFace(small)
			label := strings.ToUpper(strings.TrimPrefix(ext, "."))
			lw, lh := dc.MeasureString(label)
			dc.DrawString(label, float64(width)/2-lw/2, float64(height)*0.89+lh/2)
		}
	}

	return EncodePNG(dc.Image())
}

func initialOf(name string) string {
	for _, r := range strings.TrimSpace(name) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return strings.ToUpper(string(r))
		}
	}
	return "?"
}

func hashName(name string) uint32 {
	h := fnv.New32a()
	_, _ = h.Write([]byte(strings.ToLower(name)))
	return h.Sum32()
}

func loadConfiguredFont(points float64) (font.Face, error) {
	path := strings.TrimSpace(os.Getenv("THUMBNAIL_FONT"))
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read font %q: %w", path, err)
	}
	ft, err := truetype.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse font %q: %w", path, err)
	}
	return truetype.NewFace(ft, &truetype.Options{Size: points}), nil
}
