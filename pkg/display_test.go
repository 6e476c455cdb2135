package pkg

import (
	"bytes"
	"errors"
	"image"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpiotest"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/conn/v3/spi/spitest"

	"github.com/kubesail/pibox-lcdcheck/pkg/report"
	"github.com/kubesail/pibox-lcdcheck/st7789"
)

type fakeBoard struct {
	pins   map[string]*gpiotest.Pin
	opened []string
	record *spitest.Record
	err    error
}

func newFakeBoard(nums ...int) *fakeBoard {
	f := &fakeBoard{pins: map[string]*gpiotest.Pin{}, record: &spitest.Record{}}
	for _, n := range nums {
		name := gpioName(n)
		f.pins[name] = &gpiotest.Pin{N: name, Num: n}
	}
	return f
}

func (f *fakeBoard) board() Board {
	return Board{
		Open: func(name string) (spi.PortCloser, error) {
			f.opened = append(f.opened, name)
			if f.err != nil {
				return nil, f.err
			}
			return f.record, nil
		},
		Pin: func(name string) gpio.PinIO {
			if p, ok := f.pins[name]; ok {
				return p
			}
			return nil
		},
	}
}

func TestOpenSPI(t *testing.T) {
	f := newFakeBoard(25, 27, 18)
	cfg := SPIConfig{Port: 0, Device: 0, Speed: 40 * physic.MegaHertz}
	bus, err := f.board().OpenSPI(cfg, WaveshareHAT)
	require.NoError(t, err)
	assert.Equal(t, []string{"SPI0.0"}, f.opened)
	assert.Equal(t, "GPIO25", bus.DC.Name())
	assert.Equal(t, "GPIO27", bus.RST.Name())
	assert.Equal(t, WaveshareHAT, bus.Pins)
	assert.NoError(t, bus.Close())
}

func TestOpenSPIErrors(t *testing.T) {
	f := newFakeBoard(25, 27)
	_, err := f.board().OpenSPI(SPIConfig{}, StandardPins)
	require.Error(t, err)
	assert.Equal(t, "DC pin: GPIO24 not found", err.Error())
	assert.Empty(t, f.opened)

	f.err = errors.New("no such port")
	_, err = f.board().OpenSPI(SPIConfig{Port: 1}, WaveshareHAT)
	require.Error(t, err)
	assert.ErrorIs(t, err, f.err)
	assert.Contains(t, err.Error(), "SPI1.0")
}

func TestNewDisplay(t *testing.T) {
	f := newFakeBoard(25, 27, 18)
	b := f.board()
	bus, err := b.OpenSPI(SPIConfig{Speed: DefaultSPISpeed}, WaveshareHAT)
	require.NoError(t, err)

	_, err = b.NewDisplay(bus, 12, &st7789.DefaultOpts)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "backlight pin")

	d, err := b.NewDisplay(bus, 18, &st7789.DefaultOpts)
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 240, 240), d.Bounds())
	assert.Equal(t, st7789.ModeRGB, d.Mode())
	assert.Equal(t, gpio.High, f.pins["GPIO18"].L, "backlight on after init")

	f.record.Ops = nil
	require.NoError(t, d.Configure(false))
	assert.Equal(t, gpio.Low, f.pins["GPIO18"].L)
	var cmds []byte
	for _, op := range f.record.Ops {
		if len(op.W) == 1 {
			cmds = append(cmds, op.W[0])
		}
	}
	// MADCTL(0x00), WRDISBV(0xFF).
	if diff := cmp.Diff([]byte{st7789.MADCTL, 0x00, st7789.WRDISBV, 0xFF}, cmds); diff != "" {
		t.Errorf("Configure() single byte writes mismatch (-want +got):\n%s", diff)
	}

	require.NoError(t, d.Display(image.NewRGBA(d.Bounds())))
	assert.Error(t, d.Display(image.NewRGBA(image.Rect(0, 0, 10, 10))))
}

func TestPinSet(t *testing.T) {
	assert.Equal(t, "WAVESHARE (DC=25, RST=27)", WaveshareHAT.String())
	assert.Equal(t, "standard (DC=24, RST=25)", StandardPins.String())
	assert.Equal(t, "SPI0.1", SPIConfig{Port: 0, Device: 1}.Name())
}

func TestConnectFallback(t *testing.T) {
	// GPIO27 is missing, the Waveshare wiring cannot be used.
	f := newFakeBoard(24, 25)
	var out bytes.Buffer
	rep := report.NewWriter(&out, false)
	bus, err := f.board().Connect(rep, SPIConfig{Speed: DefaultSPISpeed}, WaveshareHAT, StandardPins)
	require.NoError(t, err)
	assert.Equal(t, StandardPins, bus.Pins)
	assert.Equal(t, []string{"SPI0.0"}, f.opened)

	want := "   Trying WAVESHARE configuration (DC=25, RST=27)...\n" +
		"   ✗ WAVESHARE config failed: RST pin: GPIO27 not found\n" +
		"   Trying standard configuration (DC=24, RST=25)...\n" +
		"   ✓ SPI connection established (standard mode)\n"
	if diff := cmp.Diff(want, out.String()); diff != "" {
		t.Errorf("Connect() output mismatch (-want +got):\n%s", diff)
	}
}

func TestConnectAllFail(t *testing.T) {
	f := newFakeBoard(24, 25, 27)
	f.err = errors.New("/dev/spidev0.0: no such file or directory")
	var out bytes.Buffer
	_, err := f.board().Connect(report.NewWriter(&out, false), SPIConfig{}, WaveshareHAT, StandardPins)
	assert.ErrorIs(t, err, f.err)
	assert.Equal(t, []string{"SPI0.0", "SPI0.0"}, f.opened)
	assert.Contains(t, out.String(), "✗ standard config failed")
}
