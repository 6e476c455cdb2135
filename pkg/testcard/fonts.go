package testcard

import (
	"path/filepath"
	"strings"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/font/gofont/goregular"
)

// FontPaths are the system fonts tried, in order, before the built-in one.
var FontPaths = []string{
	"/usr/share/fonts/truetype/dejavu/DejaVuSans.ttf",
	"/usr/share/fonts/truetype/liberation/LiberationSans-Regular.ttf",
}

// Face is a loaded font face and where it came from.
type Face struct {
	font.Face
	Name string
	// Default is set when none of the system fonts could be loaded.
	Default bool
}

// LoadFace returns the first of paths that loads at size points, falling
// back to the built-in Go font and finally to a fixed bitmap face.
func LoadFace(size float64, paths ...string) *Face {
	for _, p := range paths {
		f, err := gg.LoadFontFace(p, size)
		if err != nil {
			continue
		}
		return &Face{Face: f, Name: strings.TrimSuffix(filepath.Base(p), filepath.Ext(p))}
	}
	if f, err := truetype.Parse(goregular.TTF); err == nil {
		return &Face{Face: truetype.NewFace(f, &truetype.Options{Size: size}), Name: "Go Regular", Default: true}
	}
	return &Face{Face: basicfont.Face7x13, Name: "Face7x13", Default: true}
}
