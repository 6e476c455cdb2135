// Package testcard renders the images pushed to the panel during bring-up.
package testcard

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"math"

	"github.com/fogleman/gg"
	qrcode "github.com/skip2/go-qrcode"
	"golang.org/x/image/font"
)

var (
	Red    = color.RGBA{255, 0, 0, 255}
	Green  = color.RGBA{0, 255, 0, 255}
	Blue   = color.RGBA{0, 0, 255, 255}
	White  = color.RGBA{255, 255, 255, 255}
	Black  = color.RGBA{0, 0, 0, 255}
	Yellow = color.RGBA{255, 255, 0, 255}
	Grey   = color.RGBA{128, 128, 128, 255}
)

// FillColors is the sequence of the color fill test.
var FillColors = []color.RGBA{Red, Green, Blue, White, Black}

// GridStep is the spacing of the pattern grid.
const GridStep = 20

// lineGap separates the lines of a text card.
const lineGap = 10

// TextLine is one line of a text card.
type TextLine struct {
	Text  string
	Color color.Color
}

// Solid returns an image of r filled with c.
func Solid(r image.Rectangle, c color.Color) *image.RGBA {
	img := image.NewRGBA(r)
	draw.Draw(img, r, &image.Uniform{c}, image.Point{}, draw.Src)
	return img
}

func newContext(r image.Rectangle, bg color.Color) *gg.Context {
	dc := gg.NewContext(r.Dx(), r.Dy())
	dc.SetColor(bg)
	dc.Clear()
	return dc
}

func rgba(dc *gg.Context) *image.RGBA {
	return dc.Image().(*image.RGBA)
}

// Text renders lines left aligned on a common column so that the first
// line is centered. The first line's top is dy pixels off the vertical
// center; the others follow every text height plus 10 pixels.
func Text(r image.Rectangle, bg color.Color, face font.Face, dy float64, lines ...TextLine) *image.RGBA {
	dc := newContext(r, bg)
	if len(lines) == 0 {
		return rgba(dc)
	}
	dc.SetFontFace(face)
	w, h := dc.MeasureString(lines[0].Text)
	x := math.Floor((float64(r.Dx()) - w) / 2)
	y := math.Floor((float64(r.Dy())-h)/2) + dy
	for i, l := range lines {
		dc.SetColor(l.Color)
		dc.DrawStringAnchored(l.Text, x, y+float64(i)*(h+lineGap), 0, 1)
	}
	return rgba(dc)
}

// Greeting is the card of the text display test.
func Greeting(r image.Rectangle, face font.Face) *image.RGBA {
	return Text(r, Black, face, 0,
		TextLine{"ST7789 Test", White},
		TextLine{"Working!", Green},
	)
}

// ConfigCard shows the configured driver and resolution on blue.
func ConfigCard(r image.Rectangle, face font.Face, driver string, w, h int) *image.RGBA {
	return Text(r, Blue, face, -20,
		TextLine{driver, White},
		TextLine{fmt.Sprintf("%dx%d", w, h), Green},
		TextLine{"Working!", Yellow},
	)
}

// Pattern draws a grey grid every GridStep pixels and a red, a green and a
// blue square along the top.
func Pattern(r image.Rectangle) *image.RGBA {
	dc := newContext(r, Black)
	wd, ht := float64(r.Dx()), float64(r.Dy())
	dc.SetColor(Grey)
	dc.SetLineWidth(1)
	for x := 0; x < r.Dx(); x += GridStep {
		dc.DrawLine(float64(x)+0.5, 0, float64(x)+0.5, ht)
	}
	for y := 0; y < r.Dy(); y += GridStep {
		dc.DrawLine(0, float64(y)+0.5, wd, float64(y)+0.5)
	}
	dc.Stroke()
	for _, sq := range []struct {
		x0, y0, x1, y1 int
		c              color.Color
	}{
		{10, 10, 50, 50, Red},
		{60, 10, 100, 50, Green},
		{110, 10, 150, 50, Blue},
	} {
		// Corners are inclusive.
		dc.DrawRectangle(float64(sq.x0), float64(sq.y0), float64(sq.x1-sq.x0+1), float64(sq.y1-sq.y0+1))
		dc.SetColor(sq.c)
		dc.Fill()
	}
	return rgba(dc)
}

// Alignment renders content as a QR code centered on white with a one
// pixel red frame on the outermost pixels, so that wrong offsets show as a
// missing or shifted edge.
func Alignment(r image.Rectangle, content string) (*image.RGBA, error) {
	q, err := qrcode.New(content, qrcode.Medium)
	if err != nil {
		return nil, err
	}
	q.DisableBorder = true
	side := r.Dx()
	if r.Dy() < side {
		side = r.Dy()
	}
	side = side * 3 / 4

	dc := newContext(r, White)
	dc.DrawImageAnchored(q.Image(side), r.Dx()/2, r.Dy()/2, 0.5, 0.5)
	img := rgba(dc)
	b := img.Bounds()
	for x := b.Min.X; x < b.Max.X; x++ {
		img.SetRGBA(x, b.Min.Y, Red)
		img.SetRGBA(x, b.Max.Y-1, Red)
	}
	for y := b.Min.Y; y < b.Max.Y; y++ {
		img.SetRGBA(b.Min.X, y, Red)
		img.SetRGBA(b.Max.X-1, y, Red)
	}
	return img, nil
}
