package pkg

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/ini.v1"
	"periph.io/x/conn/v3/physic"

	"github.com/kubesail/pibox-lcdcheck/st7789"
)

// Keys of the display settings in the setup file.
const (
	KeyDisplay          = "conf_DISP"
	KeyConnection       = "conf_DISP_CONNECTION"
	KeyDriver           = "conf_DISP_DRIVER"
	KeySPIPort          = "conf_DISP_SPI_PORT"
	KeyResolutionX      = "conf_DISP_RESOLUTION_X"
	KeyResolutionY      = "conf_DISP_RESOLUTION_Y"
	KeyOffsetX          = "conf_DISP_OFFSET_X"
	KeyOffsetY          = "conf_DISP_OFFSET_Y"
	KeyBacklightPin     = "conf_DISP_BACKLIGHT_PIN"
	KeyBacklightEnabled = "conf_DISP_BACKLIGHT_ENABLED"
	KeyColorBGR         = "conf_DISP_COLOR_BGR"
	KeyColorInverse     = "conf_DISP_COLOR_INVERSE"
)

const (
	DriverST7789          = "ST7789"
	DriverST7789Waveshare = "ST7789 WAVESHARE"
	ConnectionSPI         = "SPI"

	// DefaultBacklightPin is used when the configured pin is not positive.
	DefaultBacklightPin = 18
	// DefaultSPISpeed is the bus clock used for every panel.
	DefaultSPISpeed = 40 * physic.MegaHertz
)

// ConfigEnv overrides the location of the setup file.
const ConfigEnv = "PIBOX_DISPLAY_CONFIG"

// DefaultConfigFile is looked up next to the executable.
const DefaultConfigFile = "config.cfg"

var (
	ErrUnsupportedDriver     = errors.New("display driver is not ST7789")
	ErrUnsupportedConnection = errors.New("display connection is not SPI")
)

// ConfigPath returns the setup file to read.
func ConfigPath() string {
	if p := os.Getenv(ConfigEnv); p != "" {
		return p
	}
	exe, err := os.Executable()
	if err != nil {
		return DefaultConfigFile
	}
	return filepath.Join(filepath.Dir(exe), DefaultConfigFile)
}

// Setup gives read access to the key=value setup file shared with the
// display daemon and the web interface.
type Setup struct {
	path string
	file *ini.File
}

// LoadSetup parses the setup file at path.
func LoadSetup(path string) (*Setup, error) {
	f, err := ini.LoadSources(ini.LoadOptions{
		IgnoreInlineComment:     true,
		SkipUnrecognizableLines: true,
	}, path)
	if err != nil {
		return nil, fmt.Errorf("could not load setup %s: %w", path, err)
	}
	return &Setup{path: path, file: f}, nil
}

func (s *Setup) Path() string {
	return s.path
}

// Lookup returns the raw value of key and whether it is present.
func (s *Setup) Lookup(key string) (string, bool) {
	k, err := s.file.Section("").GetKey(key)
	if err != nil {
		return "", false
	}
	return strings.TrimSpace(k.String()), true
}

// GetVal returns the raw value of key, empty when absent.
func (s *Setup) GetVal(key string) string {
	v, _ := s.Lookup(key)
	return v
}

// Int returns key as an integer. Absent or empty keys are 0.
func (s *Setup) Int(key string) (int, error) {
	v, ok := s.Lookup(key)
	if !ok || v == "" {
		return 0, nil
	}
	k, _ := s.file.Section("").GetKey(key)
	n, err := k.Int()
	if err != nil {
		return 0, fmt.Errorf("%s=%q is not an integer", key, v)
	}
	return n, nil
}

// Bool returns key as a boolean. Absent or empty keys are false.
func (s *Setup) Bool(key string) (bool, error) {
	v, ok := s.Lookup(key)
	if !ok || v == "" {
		return false, nil
	}
	k, _ := s.file.Section("").GetKey(key)
	b, err := k.Bool()
	if err != nil {
		return false, fmt.Errorf("%s=%q is not a boolean", key, v)
	}
	return b, nil
}

// DisplayConfig is the typed view of the conf_DISP_* settings.
type DisplayConfig struct {
	Enabled          bool
	Connection       string
	Driver           string
	SPIPort          int
	ResolutionX      int
	ResolutionY      int
	OffsetX          int
	OffsetY          int
	BacklightPin     int
	BacklightEnabled bool
	ColorBGR         bool
	ColorInverse     bool
}

// LoadDisplayConfig reads and coerces the display settings.
func LoadDisplayConfig(s *Setup) (*DisplayConfig, error) {
	c := &DisplayConfig{
		Connection: s.GetVal(KeyConnection),
		Driver:     s.GetVal(KeyDriver),
	}
	ints := []struct {
		key string
		dst *int
	}{
		{KeySPIPort, &c.SPIPort},
		{KeyResolutionX, &c.ResolutionX},
		{KeyResolutionY, &c.ResolutionY},
		{KeyOffsetX, &c.OffsetX},
		{KeyOffsetY, &c.OffsetY},
		{KeyBacklightPin, &c.BacklightPin},
	}
	for _, i := range ints {
		n, err := s.Int(i.key)
		if err != nil {
			return nil, err
		}
		*i.dst = n
	}
	bools := []struct {
		key string
		dst *bool
	}{
		{KeyDisplay, &c.Enabled},
		{KeyBacklightEnabled, &c.BacklightEnabled},
		{KeyColorBGR, &c.ColorBGR},
		{KeyColorInverse, &c.ColorInverse},
	}
	for _, b := range bools {
		v, err := s.Bool(b.key)
		if err != nil {
			return nil, err
		}
		*b.dst = v
	}
	return c, nil
}

// Validate checks the settings describe a SPI attached ST7789.
func (c *DisplayConfig) Validate() error {
	if c.Driver != DriverST7789 && c.Driver != DriverST7789Waveshare {
		return fmt.Errorf("%w: %q", ErrUnsupportedDriver, c.Driver)
	}
	if c.Connection != ConnectionSPI {
		return fmt.Errorf("%w: %q", ErrUnsupportedConnection, c.Connection)
	}
	return nil
}

// IsWaveshare reports whether the Waveshare HAT wiring is configured.
func (c *DisplayConfig) IsWaveshare() bool {
	return c.Driver == DriverST7789Waveshare
}

// Pins returns the DC/RST wiring for the configured driver.
func (c *DisplayConfig) Pins() PinSet {
	if c.IsWaveshare() {
		return WaveshareHAT
	}
	return StandardPins
}

// SPI returns the bus settings. The chip select is always device 0.
func (c *DisplayConfig) SPI() SPIConfig {
	return SPIConfig{Port: c.SPIPort, Device: 0, Speed: DefaultSPISpeed}
}

// BacklightGPIO returns the backlight pin, falling back to
// DefaultBacklightPin when none is configured.
func (c *DisplayConfig) BacklightGPIO() int {
	if c.BacklightPin > 0 {
		return c.BacklightPin
	}
	return DefaultBacklightPin
}

// Opts returns the driver options for the configured panel.
func (c *DisplayConfig) Opts() *st7789.Opts {
	return &st7789.Opts{
		W:       c.ResolutionX,
		H:       c.ResolutionY,
		OffsetX: c.OffsetX,
		OffsetY: c.OffsetY,
		BGR:     c.ColorBGR,
		Inverse: c.ColorInverse,
		Speed:   DefaultSPISpeed,
	}
}
