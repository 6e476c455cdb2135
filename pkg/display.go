package pkg

import (
	"errors"
	"fmt"
	"image"
	"sync"

	"periph.io/x/conn/v3/driver/driverreg"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/host/v3"

	"github.com/kubesail/pibox-lcdcheck/pkg/report"
	"github.com/kubesail/pibox-lcdcheck/st7789"
)

// Panel is anything the test imagery can be shown on.
type Panel interface {
	Bounds() image.Rectangle
	Display(img image.Image) error
}

var (
	hostOnce sync.Once
	hostErr  error
)

// InitHost loads the periph host drivers once.
func InitHost() error {
	hostOnce.Do(func() {
		if _, err := host.Init(); err != nil {
			hostErr = err
			return
		}
		if _, err := driverreg.Init(); err != nil {
			hostErr = err
		}
	})
	return hostErr
}

// PinSet is the control pin wiring of a panel, in BCM numbering.
type PinSet struct {
	Name string
	DC   int
	RST  int
}

var (
	// WaveshareHAT is the wiring of the Waveshare 1.3inch IPS LCD HAT.
	WaveshareHAT = PinSet{Name: "WAVESHARE", DC: 25, RST: 27}
	// StandardPins is the common breakout wiring.
	StandardPins = PinSet{Name: "standard", DC: 24, RST: 25}
)

func (p PinSet) String() string {
	return fmt.Sprintf("%s (DC=%d, RST=%d)", p.Name, p.DC, p.RST)
}

// SPIConfig selects the bus the panel is on.
type SPIConfig struct {
	Port   int
	Device int
	Speed  physic.Frequency
}

// Name is the periph registry name of the port, e.g. SPI0.0.
func (c SPIConfig) Name() string {
	return fmt.Sprintf("SPI%d.%d", c.Port, c.Device)
}

// Opener opens a SPI port by name, like spireg.Open.
type Opener func(name string) (spi.PortCloser, error)

// PinLookup resolves a GPIO by name, like gpioreg.ByName.
type PinLookup func(name string) gpio.PinIO

// Board resolves the hardware the diagnostics talk to.
type Board struct {
	Open Opener
	Pin  PinLookup
}

// DefaultBoard uses the periph registries.
var DefaultBoard = Board{Open: spireg.Open, Pin: gpioreg.ByName}

func gpioName(n int) string {
	return fmt.Sprintf("GPIO%d", n)
}

func (b Board) pin(n int) (gpio.PinIO, error) {
	p := b.Pin(gpioName(n))
	if p == nil {
		return nil, fmt.Errorf("%s not found", gpioName(n))
	}
	return p, nil
}

// Bus is an open SPI port together with its control pins.
type Bus struct {
	Port   spi.PortCloser
	Config SPIConfig
	Pins   PinSet
	DC     gpio.PinIO
	RST    gpio.PinIO
}

// OpenSPI opens the port described by cfg and resolves the pins.
func (b Board) OpenSPI(cfg SPIConfig, pins PinSet) (*Bus, error) {
	dc, err := b.pin(pins.DC)
	if err != nil {
		return nil, fmt.Errorf("DC pin: %w", err)
	}
	rst, err := b.pin(pins.RST)
	if err != nil {
		return nil, fmt.Errorf("RST pin: %w", err)
	}
	p, err := b.Open(cfg.Name())
	if err != nil {
		return nil, fmt.Errorf("could not open %s: %w", cfg.Name(), err)
	}
	if cfg.Speed != 0 {
		if err := p.LimitSpeed(cfg.Speed); err != nil {
			p.Close()
			return nil, fmt.Errorf("could not set %s speed to %s: %w", cfg.Name(), cfg.Speed, err)
		}
	}
	return &Bus{Port: p, Config: cfg, Pins: pins, DC: dc, RST: rst}, nil
}

// Connect tries each wiring in turn and returns the first bus that opens,
// reporting every attempt. The error is the one of the last attempt.
func (b Board) Connect(rep *report.Reporter, cfg SPIConfig, wirings ...PinSet) (*Bus, error) {
	err := errors.New("no wiring to try")
	for _, w := range wirings {
		rep.Info("Trying %s configuration (DC=%d, RST=%d)...", w.Name, w.DC, w.RST)
		var bus *Bus
		bus, err = b.OpenSPI(cfg, w)
		if err == nil {
			rep.OK("SPI connection established (%s mode)", w.Name)
			return bus, nil
		}
		rep.Fail(err, "%s config failed", w.Name)
	}
	return nil, err
}

func (b *Bus) Close() error {
	return b.Port.Close()
}

// Display owns an open bus and the panel driver on it.
type Display struct {
	bus *Bus
	dev *st7789.Device
}

// NewDisplay brings up the panel on bus. backlight is the BCM number of
// the backlight pin.
func (b Board) NewDisplay(bus *Bus, backlight int, opts *st7789.Opts) (*Display, error) {
	bl, err := b.pin(backlight)
	if err != nil {
		return nil, fmt.Errorf("backlight pin: %w", err)
	}
	if opts == nil {
		return nil, errors.New("no display options")
	}
	o := *opts
	if o.Speed == 0 {
		o.Speed = bus.Config.Speed
	}
	dev, err := st7789.NewSPI(bus.Port, bus.DC, bus.RST, bl, &o)
	if err != nil {
		return nil, err
	}
	return &Display{bus: bus, dev: dev}, nil
}

func (d *Display) Close() error {
	return d.bus.Close()
}

// Device exposes the underlying driver.
func (d *Display) Device() *st7789.Device {
	return d.dev
}

func (d *Display) Bounds() image.Rectangle {
	return d.dev.Bounds()
}

func (d *Display) Mode() string {
	return d.dev.Mode()
}

func (d *Display) Display(img image.Image) error {
	return d.dev.Display(img)
}

// Configure declares the unrotated RGB geometry, sets full contrast and
// switches the backlight.
func (d *Display) Configure(backlight bool) error {
	b := d.dev.Bounds()
	if err := d.dev.Capabilities(b.Dx(), b.Dy(), st7789.NO_ROTATION, st7789.ModeRGB); err != nil {
		return err
	}
	if err := d.dev.Contrast(255); err != nil {
		return fmt.Errorf("contrast: %w", err)
	}
	if err := d.dev.Backlight(backlight); err != nil {
		return fmt.Errorf("backlight: %w", err)
	}
	return nil
}

var _ Panel = &Display{}
