package st7789

import (
	"image"
	"image/color"
	"image/draw"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"periph.io/x/conn/v3/conntest"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpiotest"
	"periph.io/x/conn/v3/spi/spitest"
)

func init() {
	sleep = func(time.Duration) {}
}

type pins struct {
	dc, rst, bl *gpiotest.Pin
}

func newPins() pins {
	return pins{
		dc:  &gpiotest.Pin{N: "GPIO25", Num: 25},
		rst: &gpiotest.Pin{N: "GPIO27", Num: 27},
		bl:  &gpiotest.Pin{N: "GPIO18", Num: 18},
	}
}

func newTestDev(t *testing.T, opts *Opts) (*Device, *spitest.Record, pins) {
	t.Helper()
	record := &spitest.Record{}
	p := newPins()
	dev, err := NewSPI(record, p.dc, p.rst, p.bl, opts)
	if err != nil {
		t.Fatalf("NewSPI() failed: %v", err)
	}
	record.Ops = nil
	return dev, record, p
}

// writes flattens recorded operations into the written byte sequences.
func writes(ops []conntest.IO) [][]byte {
	out := make([][]byte, 0, len(ops))
	for _, op := range ops {
		out = append(out, op.W)
	}
	return out
}

func TestNewSPI(t *testing.T) {
	record := &spitest.Record{}
	p := newPins()
	opts := DefaultOpts
	opts.Inverse = true
	dev, err := NewSPI(record, p.dc, p.rst, p.bl, &opts)
	if err != nil {
		t.Fatalf("NewSPI() failed: %v", err)
	}

	var want [][]byte
	for _, s := range dev.initSequence() {
		want = append(want, []byte{s.cmd})
		if len(s.data) != 0 {
			want = append(want, s.data)
		}
	}
	if diff := cmp.Diff(writes(record.Ops), want); diff != "" {
		t.Errorf("init sequence difference (-got +want):\n%s", diff)
	}
	if got := writes(record.Ops)[0]; got[0] != SWRESET {
		t.Errorf("first command = 0x%02X, want SWRESET", got[0])
	}
	if p.bl.L != gpio.High {
		t.Error("backlight should be on after init")
	}
	if p.rst.L != gpio.High {
		t.Error("RST should be released after reset")
	}
	if diff := cmp.Diff(dev.String(), "st7789.Device{record, GPIO25(25), (240,240)}"); diff != "" {
		t.Errorf("String() difference (-got +want):\n%s", diff)
	}
	if dev.Mode() != ModeRGB {
		t.Errorf("Mode() = %q, want %q", dev.Mode(), ModeRGB)
	}
}

func TestNewSPIInversion(t *testing.T) {
	for _, tc := range []struct {
		name    string
		inverse bool
		want    byte
	}{
		{"normal", false, INVOFF},
		{"inverse", true, INVON},
	} {
		t.Run(tc.name, func(t *testing.T) {
			record := &spitest.Record{}
			p := newPins()
			opts := DefaultOpts
			opts.Inverse = tc.inverse
			if _, err := NewSPI(record, p.dc, nil, nil, &opts); err != nil {
				t.Fatal(err)
			}
			found := false
			for _, w := range writes(record.Ops) {
				if len(w) == 1 && (w[0] == INVON || w[0] == INVOFF) {
					found = true
					if w[0] != tc.want {
						t.Errorf("inversion command = 0x%02X, want 0x%02X", w[0], tc.want)
					}
				}
			}
			if !found {
				t.Error("no inversion command sent")
			}
		})
	}
}

func TestNewSPIErrors(t *testing.T) {
	for _, tc := range []struct {
		name string
		dc   gpio.PinOut
		opts *Opts
	}{
		{"nil dc", nil, nil},
		{"invalid dc", gpio.INVALID, nil},
		{"zero width", &gpiotest.Pin{}, &Opts{W: 0, H: 240}},
		{"negative offset", &gpiotest.Pin{}, &Opts{W: 240, H: 240, OffsetX: -1}},
		{"outside RAM", &gpiotest.Pin{}, &Opts{W: 240, H: 240, OffsetY: 100}},
	} {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := NewSPI(&spitest.Record{}, tc.dc, nil, nil, tc.opts); err == nil {
				t.Error("expected an error")
			}
		})
	}
}

func TestDisplay(t *testing.T) {
	dev, record, p := newTestDev(t, nil)

	img := image.NewRGBA(dev.Bounds())
	draw.Draw(img, img.Bounds(), &image.Uniform{color.RGBA{255, 0, 0, 255}}, image.Point{}, draw.Src)
	if err := dev.Display(img); err != nil {
		t.Fatalf("Display() failed: %v", err)
	}

	got := writes(record.Ops)
	header := [][]byte{
		{CASET}, {0x00, 0x00, 0x00, 0xEF},
		{RASET}, {0x00, 0x00, 0x00, 0xEF},
		{RAMWR},
	}
	if diff := cmp.Diff(got[:len(header)], header); diff != "" {
		t.Errorf("window difference (-got +want):\n%s", diff)
	}

	total := 0
	for _, w := range got[len(header):] {
		if len(w) > maxTxSize {
			t.Errorf("transfer of %d bytes exceeds %d", len(w), maxTxSize)
		}
		total += len(w)
	}
	if total != 240*240*2 {
		t.Errorf("sent %d pixel bytes, want %d", total, 240*240*2)
	}
	if first := got[len(header)]; first[0] != 0xF8 || first[1] != 0x00 {
		t.Errorf("first pixel = %#02x %#02x, want 0xf8 0x00", first[0], first[1])
	}
	if p.dc.L != gpio.High {
		t.Error("DC should be high after pixel data")
	}
}

func TestDisplayOffset(t *testing.T) {
	dev, record, _ := newTestDev(t, &Opts{W: 240, H: 240, OffsetX: 0, OffsetY: 80})
	if err := dev.Display(image.NewRGBA(dev.Bounds())); err != nil {
		t.Fatal(err)
	}
	got := writes(record.Ops)
	want := [][]byte{
		{CASET}, {0x00, 0x00, 0x00, 0xEF},
		{RASET}, {0x00, 0x50, 0x01, 0x3F},
	}
	if diff := cmp.Diff(got[:len(want)], want); diff != "" {
		t.Errorf("window difference (-got +want):\n%s", diff)
	}
}

func TestDisplayConvertsImages(t *testing.T) {
	dev, record, _ := newTestDev(t, &Opts{W: 2, H: 1})
	img := image.NewNRGBA(image.Rect(10, 10, 12, 11))
	img.Set(10, 10, color.NRGBA{0, 0, 255, 255})
	img.Set(11, 10, color.NRGBA{255, 255, 255, 255})
	if err := dev.Display(img); err != nil {
		t.Fatal(err)
	}
	got := writes(record.Ops)
	if diff := cmp.Diff(got[len(got)-1], []byte{0x00, 0x1F, 0xFF, 0xFF}); diff != "" {
		t.Errorf("pixel data difference (-got +want):\n%s", diff)
	}
}

func TestDisplaySizeMismatch(t *testing.T) {
	dev, record, _ := newTestDev(t, nil)
	if err := dev.Display(image.NewRGBA(image.Rect(0, 0, 128, 64))); err == nil {
		t.Error("expected an error for a mismatched image")
	}
	if len(record.Ops) != 0 {
		t.Errorf("nothing should be sent, got %d transfers", len(record.Ops))
	}
}

func TestCapabilities(t *testing.T) {
	dev, record, _ := newTestDev(t, &Opts{W: 135, H: 240, OffsetX: 52, OffsetY: 40})

	for _, tc := range []struct {
		name   string
		w, h   int
		rotate Rotation
		mode   string
	}{
		{"mode", 135, 240, NO_ROTATION, "1"},
		{"rotation", 135, 240, 4, ModeRGB},
		{"size", 240, 240, NO_ROTATION, ModeRGB},
	} {
		t.Run(tc.name, func(t *testing.T) {
			if err := dev.Capabilities(tc.w, tc.h, tc.rotate, tc.mode); err == nil {
				t.Error("expected an error")
			}
		})
	}
	if len(record.Ops) != 0 {
		t.Fatalf("rejected capabilities should not touch the bus, got %d transfers", len(record.Ops))
	}

	if err := dev.Capabilities(135, 240, ROTATION_90, ModeRGB); err != nil {
		t.Fatalf("Capabilities() failed: %v", err)
	}
	if diff := cmp.Diff(writes(record.Ops), [][]byte{{MADCTL}, {MADCTL_MX | MADCTL_MV}}); diff != "" {
		t.Errorf("MADCTL difference (-got +want):\n%s", diff)
	}
	if diff := cmp.Diff(dev.Bounds(), image.Rect(0, 0, 240, 135)); diff != "" {
		t.Errorf("Bounds() difference (-got +want):\n%s", diff)
	}
	if dev.columnOffset != 40 || dev.rowOffset != 52 {
		t.Errorf("offsets = %d,%d, want 40,52", dev.columnOffset, dev.rowOffset)
	}
}

func TestRotationBGR(t *testing.T) {
	dev, record, _ := newTestDev(t, &Opts{W: 240, H: 240, BGR: true})
	if err := dev.SetRotation(ROTATION_180); err != nil {
		t.Fatal(err)
	}
	want := [][]byte{{MADCTL}, {MADCTL_MX | MADCTL_MY | MADCTL_BGR}}
	if diff := cmp.Diff(writes(record.Ops), want); diff != "" {
		t.Errorf("MADCTL difference (-got +want):\n%s", diff)
	}
}

func TestContrast(t *testing.T) {
	dev, record, _ := newTestDev(t, nil)
	if err := dev.Contrast(255); err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(writes(record.Ops), [][]byte{{WRDISBV}, {0xFF}}); diff != "" {
		t.Errorf("Contrast() difference (-got +want):\n%s", diff)
	}
}

func TestBacklight(t *testing.T) {
	dev, _, p := newTestDev(t, nil)
	if err := dev.Backlight(false); err != nil {
		t.Fatal(err)
	}
	if p.bl.L != gpio.Low {
		t.Error("backlight should be off")
	}
	if err := dev.PowerOn(); err != nil {
		t.Fatal(err)
	}
	if p.bl.L != gpio.High {
		t.Error("backlight should be on")
	}

	record := &spitest.Record{}
	noBL, err := NewSPI(record, &gpiotest.Pin{}, nil, nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	if err := noBL.Backlight(true); err == nil {
		t.Error("expected an error without a backlight pin")
	}
}

func TestDraw(t *testing.T) {
	dev, record, _ := newTestDev(t, &Opts{W: 4, H: 2})
	green := &image.Uniform{color.RGBA{0, 255, 0, 255}}
	if err := dev.Draw(image.Rect(2, 0, 10, 10), green, image.Point{}); err != nil {
		t.Fatal(err)
	}
	got := writes(record.Ops)
	want := []byte{
		0x00, 0x00, 0x00, 0x00, 0x07, 0xE0, 0x07, 0xE0,
		0x00, 0x00, 0x00, 0x00, 0x07, 0xE0, 0x07, 0xE0,
	}
	if diff := cmp.Diff(got[len(got)-1], want); diff != "" {
		t.Errorf("Draw() pixel data difference (-got +want):\n%s", diff)
	}
}

func TestHalt(t *testing.T) {
	dev, record, p := newTestDev(t, &Opts{W: 2, H: 2})
	if err := dev.Halt(); err != nil {
		t.Fatal(err)
	}
	got := writes(record.Ops)
	if diff := cmp.Diff(got[len(got)-2:], [][]byte{make([]byte, 8), {DISPOFF}}); diff != "" {
		t.Errorf("Halt() difference (-got +want):\n%s", diff)
	}
	if p.bl.L != gpio.Low {
		t.Error("backlight should be off after Halt")
	}
}

func TestRGBATo565(t *testing.T) {
	for _, tc := range []struct {
		c    color.RGBA
		want uint16
	}{
		{color.RGBA{0, 0, 0, 255}, 0x0000},
		{color.RGBA{255, 255, 255, 255}, 0xFFFF},
		{color.RGBA{255, 0, 0, 255}, 0xF800},
		{color.RGBA{0, 255, 0, 255}, 0x07E0},
		{color.RGBA{0, 0, 255, 255}, 0x001F},
		{color.RGBA{128, 128, 128, 255}, 0x8410},
	} {
		if got := RGBATo565(tc.c); got != tc.want {
			t.Errorf("RGBATo565(%v) = 0x%04X, want 0x%04X", tc.c, got, tc.want)
		}
	}
}
