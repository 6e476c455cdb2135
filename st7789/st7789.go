// Package st7789 drives ST7789 based TFT panels over a 4-wire SPI bus.
package st7789

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"time"

	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/display"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
)

// ModeRGB is the only pixel mode the panel is driven in.
const ModeRGB = "RGB"

// Largest RAM dimension of the controller (240x320).
const ramHeight = 320

// maxTxSize is the largest single transfer accepted by spidev by default.
const maxTxSize = 4096

var sleep = time.Sleep

// DefaultOpts is the recommended default options.
var DefaultOpts = Opts{
	W:     240,
	H:     240,
	Speed: 40 * physic.MegaHertz,
}

// Opts defines the options for the device.
type Opts struct {
	W int
	H int
	// OffsetX and OffsetY position the visible area inside controller RAM.
	OffsetX int
	OffsetY int
	// BGR swaps the red and blue channels.
	BGR bool
	// Inverse turns on display inversion. Most IPS panels need it.
	Inverse bool
	// Speed is the SPI clock. Zero means DefaultOpts.Speed.
	Speed physic.Frequency
}

func (o *Opts) validate() error {
	if o.W <= 0 || o.H <= 0 {
		return fmt.Errorf("st7789: invalid size %dx%d", o.W, o.H)
	}
	if o.OffsetX < 0 || o.OffsetY < 0 {
		return fmt.Errorf("st7789: invalid offset %d,%d", o.OffsetX, o.OffsetY)
	}
	if o.W+o.OffsetX > ramHeight || o.H+o.OffsetY > ramHeight {
		return fmt.Errorf("st7789: %dx%d at offset %d,%d does not fit in controller RAM", o.W, o.H, o.OffsetX, o.OffsetY)
	}
	return nil
}

// NewSPI returns a Device that communicates over SPI to a ST7789 panel.
//
// dc is required. rst and bl are optional and may be nil; without rst
// only a software reset is issued and without bl Backlight fails.
func NewSPI(p spi.Port, dc, rst, bl gpio.PinOut, opts *Opts) (*Device, error) {
	if dc == nil || dc == gpio.INVALID {
		return nil, errors.New("st7789: a DC pin is required")
	}
	if opts == nil {
		o := DefaultOpts
		opts = &o
	}
	if err := opts.validate(); err != nil {
		return nil, err
	}
	speed := opts.Speed
	if speed == 0 {
		speed = DefaultOpts.Speed
	}
	if err := dc.Out(gpio.Low); err != nil {
		return nil, fmt.Errorf("st7789: failed to drive DC: %w", err)
	}
	c, err := p.Connect(speed, spi.Mode0, 8)
	if err != nil {
		return nil, fmt.Errorf("st7789: %w", err)
	}
	return newDev(c, opts, dc, rst, bl)
}

// Device is an open handle to the display controller.
type Device struct {
	// Communication
	c         conn.Conn
	dc        gpio.PinOut
	rst       gpio.PinOut
	backlight gpio.PinOut
	rect      image.Rectangle

	rotation                      Rotation
	width                         int
	height                        int
	rowOffsetCfg, rowOffset       int
	columnOffset, columnOffsetCfg int
	isBGR                         bool
	inverse                       bool

	// next is the frame composed by Draw.
	next *image.RGBA
	buf  []byte
}

func (d *Device) String() string {
	return fmt.Sprintf("st7789.Device{%s, %s, %s}", d.c, d.dc, d.rect.Max)
}

// Bounds implements display.Drawer. Min is guaranteed to be {0, 0}.
func (d *Device) Bounds() image.Rectangle {
	return d.rect
}

// ColorModel implements display.Drawer.
func (d *Device) ColorModel() color.Model {
	return color.RGBAModel
}

// Mode returns the pixel mode images are expected in.
func (d *Device) Mode() string {
	return ModeRGB
}

// Rotation returns the current rotation.
func (d *Device) Rotation() Rotation {
	return d.rotation
}

// Halt implements conn.Resource. It blanks the panel and turns it off.
func (d *Device) Halt() error {
	if err := d.FillScreen(color.RGBA{A: 255}); err != nil {
		return err
	}
	if err := d.command(DISPOFF); err != nil {
		return err
	}
	if d.backlight == nil {
		return nil
	}
	return d.backlight.Out(gpio.Low)
}

func newDev(c conn.Conn, opts *Opts, dc, rst, bl gpio.PinOut) (*Device, error) {
	d := &Device{
		c:               c,
		dc:              dc,
		rst:             rst,
		backlight:       bl,
		rect:            image.Rect(0, 0, opts.W, opts.H),
		rotation:        NO_ROTATION,
		width:           opts.W,
		height:          opts.H,
		columnOffsetCfg: opts.OffsetX,
		columnOffset:    opts.OffsetX,
		rowOffsetCfg:    opts.OffsetY,
		rowOffset:       opts.OffsetY,
		isBGR:           opts.BGR,
		inverse:         opts.Inverse,
	}
	if err := d.reset(); err != nil {
		return nil, err
	}
	if err := d.init(); err != nil {
		return nil, err
	}
	if d.backlight != nil {
		if err := d.backlight.Out(gpio.High); err != nil {
			return nil, fmt.Errorf("st7789: failed to turn on backlight: %w", err)
		}
	}
	return d, nil
}

func (d *Device) reset() error {
	if d.rst == nil {
		return nil
	}
	for _, l := range []gpio.Level{gpio.High, gpio.Low, gpio.High} {
		if err := d.rst.Out(l); err != nil {
			return fmt.Errorf("st7789: failed to drive RST %s: %w", l, err)
		}
		sleep(10 * time.Millisecond)
	}
	sleep(120 * time.Millisecond)
	return nil
}

type initStep struct {
	cmd   byte
	data  []byte
	delay time.Duration
}

func (d *Device) initSequence() []initStep {
	invert := byte(INVOFF)
	if d.inverse {
		invert = INVON
	}
	return []initStep{
		{cmd: SWRESET, delay: 150 * time.Millisecond},
		{cmd: MADCTL, data: []byte{d.madctl()}},
		{cmd: FRMCTR2, data: []byte{0x0C, 0x0C, 0x00, 0x33, 0x33}},
		{cmd: COLMOD, data: []byte{colorMode565}},
		{cmd: GCTRL, data: []byte{0x14}},
		{cmd: VCOMS, data: []byte{0x37}},
		{cmd: LCMCTRL, data: []byte{0x2C}},
		{cmd: VDVVRHEN, data: []byte{0x01}},
		{cmd: VRHS, data: []byte{0x12}},
		{cmd: VDVS, data: []byte{0x20}},
		{cmd: PWCTRL1, data: []byte{0xA4, 0xA1}},
		{cmd: FRCTRL2, data: []byte{0x0F}},
		{cmd: GMCTRP1, data: []byte{0xD0, 0x04, 0x0D, 0x11, 0x13, 0x2B, 0x3F, 0x54, 0x4C, 0x18, 0x0D, 0x0B, 0x1F, 0x23}},
		{cmd: GMCTRN1, data: []byte{0xD0, 0x04, 0x0C, 0x11, 0x13, 0x2C, 0x3F, 0x44, 0x51, 0x2F, 0x1F, 0x1F, 0x20, 0x23}},
		{cmd: WRCTRLD, data: []byte{0x24}},
		{cmd: WRDISBV, data: []byte{0xFF}},
		{cmd: invert},
		{cmd: SLPOUT, delay: 120 * time.Millisecond},
		{cmd: NORON},
		{cmd: DISPON, delay: 100 * time.Millisecond},
	}
}

func (d *Device) init() error {
	for _, s := range d.initSequence() {
		if err := d.command(s.cmd, s.data...); err != nil {
			return fmt.Errorf("st7789: init command 0x%02X: %w", s.cmd, err)
		}
		if s.delay != 0 {
			sleep(s.delay)
		}
	}
	return nil
}

// Capabilities checks the panel geometry and mode and applies rotate.
//
// w and h are the unrotated panel dimensions and must match the options
// the device was created with.
func (d *Device) Capabilities(w, h int, rotate Rotation, mode string) error {
	if mode != ModeRGB {
		return fmt.Errorf("st7789: unsupported mode %q", mode)
	}
	if rotate > ROTATION_270 {
		return fmt.Errorf("st7789: invalid rotation %d", rotate)
	}
	if w != d.width || h != d.height {
		return fmt.Errorf("st7789: capabilities %dx%d do not match panel %dx%d", w, h, d.width, d.height)
	}
	return d.SetRotation(rotate)
}

// Contrast sets the display brightness register.
func (d *Device) Contrast(level uint8) error {
	return d.command(WRDISBV, level)
}

// Backlight switches the backlight pin.
func (d *Device) Backlight(on bool) error {
	if d.backlight == nil {
		return errors.New("st7789: no backlight pin configured")
	}
	l := gpio.Low
	if on {
		l = gpio.High
	}
	return d.backlight.Out(l)
}

// PowerOff the display
func (d *Device) PowerOff() error {
	return d.Backlight(false)
}

// PowerOn the display
func (d *Device) PowerOn() error {
	return d.Backlight(true)
}

func (d *Device) madctl() byte {
	madctl := byte(0)
	switch d.rotation {
	case ROTATION_90:
		madctl = MADCTL_MX | MADCTL_MV
	case ROTATION_180:
		madctl = MADCTL_MX | MADCTL_MY
	case ROTATION_270:
		madctl = MADCTL_MY | MADCTL_MV
	}
	if d.isBGR {
		madctl |= MADCTL_BGR
	}
	return madctl
}

// SetRotation changes the rotation of the device (clock-wise)
func (d *Device) SetRotation(rotation Rotation) error {
	rotation %= 4
	d.rotation = rotation
	switch rotation {
	case NO_ROTATION, ROTATION_180:
		d.rect = image.Rect(0, 0, d.width, d.height)
		d.columnOffset = d.columnOffsetCfg
		d.rowOffset = d.rowOffsetCfg
	default:
		d.rect = image.Rect(0, 0, d.height, d.width)
		d.columnOffset = d.rowOffsetCfg
		d.rowOffset = d.columnOffsetCfg
	}
	d.next = nil
	return d.command(MADCTL, d.madctl())
}

// InvertColors inverts the colors of the screen
func (d *Device) InvertColors(invert bool) error {
	d.inverse = invert
	if invert {
		return d.command(INVON)
	}
	return d.command(INVOFF)
}

func (d *Device) setWindow(r image.Rectangle) error {
	x0 := r.Min.X + d.columnOffset
	x1 := r.Max.X - 1 + d.columnOffset
	y0 := r.Min.Y + d.rowOffset
	y1 := r.Max.Y - 1 + d.rowOffset
	if err := d.command(CASET, byte(x0>>8), byte(x0&0xFF), byte(x1>>8), byte(x1&0xFF)); err != nil {
		return err
	}
	if err := d.command(RASET, byte(y0>>8), byte(y0&0xFF), byte(y1>>8), byte(y1&0xFF)); err != nil {
		return err
	}
	return d.command(RAMWR)
}

// SendData sends c as pixel or parameter data, split into transfers the
// SPI driver accepts.
func (d *Device) SendData(c []byte) error {
	if err := d.dc.Out(gpio.High); err != nil {
		return err
	}
	for len(c) > 0 {
		n := len(c)
		if n > maxTxSize {
			n = maxTxSize
		}
		if err := d.c.Tx(c[:n], nil); err != nil {
			return err
		}
		c = c[n:]
	}
	return nil
}

// SendCommand sends c with DC low.
func (d *Device) SendCommand(c []byte) error {
	if err := d.dc.Out(gpio.Low); err != nil {
		return err
	}
	return d.c.Tx(c, nil)
}

func (d *Device) command(cmd byte, data ...byte) error {
	if err := d.SendCommand([]byte{cmd}); err != nil {
		return err
	}
	if len(data) == 0 {
		return nil
	}
	return d.SendData(data)
}

// RGBATo565 converts a color.RGBA to uint16 used in the display
func RGBATo565(c color.RGBA) uint16 {
	r, g, b, _ := c.RGBA()
	return uint16((r & 0xF800) +
		((g & 0xFC00) >> 5) +
		((b & 0xF800) >> 11))
}

// FillScreen fills the screen with a given color
func (d *Device) FillScreen(c color.RGBA) error {
	if err := d.setWindow(d.rect); err != nil {
		return err
	}
	c565 := RGBATo565(c)
	n := d.rect.Dx() * d.rect.Dy() * 2
	if cap(d.buf) < n {
		d.buf = make([]byte, n)
	}
	data := d.buf[:n]
	for i := 0; i < n; i += 2 {
		data[i] = byte(c565 >> 8)
		data[i+1] = byte(c565)
	}
	return d.SendData(data)
}

// Display pushes img to the panel. img must be exactly the panel size.
func (d *Device) Display(img image.Image) error {
	rect := img.Bounds()
	if rect.Size() != d.rect.Size() {
		return fmt.Errorf("st7789: image size %dx%d does not match display %dx%d", rect.Dx(), rect.Dy(), d.rect.Dx(), d.rect.Dy())
	}
	rgbaimg, ok := img.(*image.RGBA)
	if !ok {
		rgbaimg = image.NewRGBA(rect)
		draw.Draw(rgbaimg, rect, img, rect.Min, draw.Src)
	}
	if err := d.setWindow(d.rect); err != nil {
		return err
	}
	n := rect.Dx() * rect.Dy() * 2
	if cap(d.buf) < n {
		d.buf = make([]byte, n)
	}
	np := d.buf[:n]
	i := 0
	for y := rect.Min.Y; y < rect.Max.Y; y++ {
		for x := rect.Min.X; x < rect.Max.X; x++ {
			c565 := RGBATo565(rgbaimg.RGBAAt(x, y))
			np[i] = byte(c565 >> 8)
			np[i+1] = byte(c565)
			i += 2
		}
	}
	return d.SendData(np)
}

// Draw implements display.Drawer.
//
// The area outside r keeps what was last drawn through Draw.
func (d *Device) Draw(r image.Rectangle, src image.Image, sp image.Point) error {
	if d.next == nil {
		d.next = image.NewRGBA(d.rect)
	}
	r = r.Intersect(d.rect)
	if r.Empty() {
		return nil
	}
	draw.Draw(d.next, r, src, sp, draw.Src)
	return d.Display(d.next)
}

var _ display.Drawer = &Device{}
var _ fmt.Stringer = &Device{}
