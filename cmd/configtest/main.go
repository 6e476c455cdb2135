// Command configtest brings up the display with the settings of the setup
// file and shows them on the panel.
package main

import (
	"errors"
	"fmt"
	"os"

	pfb "github.com/kubesail/pibox-lcdcheck/pkg"
	"github.com/kubesail/pibox-lcdcheck/pkg/report"
)

func main() {
	rep := report.New()

	setup, err := pfb.LoadSetup(pfb.ConfigPath())
	if err != nil {
		rep.Error("%v", err)
		os.Exit(1)
	}
	cfg, err := pfb.LoadDisplayConfig(setup)
	if err != nil {
		rep.Error("Invalid configuration in %s: %v", setup.Path(), err)
		os.Exit(1)
	}

	if err := pfb.ResetGPIO(pfb.ControlPins(cfg.BacklightGPIO())...); err != nil {
		fmt.Fprintf(os.Stderr, "Could not reset GPIO: %v\n", err)
	}

	rep.Title("Testing Display with Configuration")
	if h, err := pfb.Summarize(); err == nil {
		rep.Println(h.String())
	}

	rep.Section("Configuration:")
	rep.Field("Driver", cfg.Driver)
	rep.Field("Connection", cfg.Connection)
	rep.Field("Resolution", fmt.Sprintf("%dx%d", cfg.ResolutionX, cfg.ResolutionY))
	rep.Field("Offset", fmt.Sprintf("%d, %d", cfg.OffsetX, cfg.OffsetY))
	rep.Field("Backlight Pin", cfg.BacklightPin)
	rep.Field("Backlight Enabled", cfg.BacklightEnabled)

	if err := cfg.Validate(); err != nil {
		switch {
		case errors.Is(err, pfb.ErrUnsupportedDriver):
			rep.Error("Display driver is '%s', not ST7789!", cfg.Driver)
			rep.Println("Please configure the display driver in the web interface.")
		case errors.Is(err, pfb.ErrUnsupportedConnection):
			rep.Error("Connection is '%s', not SPI!", cfg.Connection)
			rep.Println("Please configure the connection type in the web interface.")
		default:
			rep.Error("%v", err)
		}
		os.Exit(1)
	}

	if err := pfb.InitHost(); err != nil {
		fmt.Fprintf(os.Stderr, "Could not load host drivers: %v\n", err)
	}
	board := pfb.DefaultBoard

	rep.Step("Initializing SPI connection...")
	bus, err := board.OpenSPI(cfg.SPI(), cfg.Pins())
	if err != nil {
		rep.Fail(err, "SPI initialization failed")
		os.Exit(1)
	}
	defer bus.Close()
	if cfg.IsWaveshare() {
		rep.OK("SPI initialized (WAVESHARE mode: DC=%d, RST=%d)", pfb.WaveshareHAT.DC, pfb.WaveshareHAT.RST)
	} else {
		rep.OK("SPI initialized (standard mode)")
	}

	rep.Step("Initializing ST7789 display...")
	d, err := board.NewDisplay(bus, cfg.BacklightGPIO(), cfg.Opts())
	if err != nil {
		rep.Fail(err, "Display initialization failed")
		bus.Close()
		os.Exit(1)
	}
	rep.OK("Display initialized: %dx%d", d.Bounds().Dx(), d.Bounds().Dy())
	rep.Info("Display mode: %s", d.Mode())

	rep.Step("Configuring display...")
	if err := d.Configure(cfg.BacklightEnabled); err != nil {
		rep.Fail(err, "Configuration failed")
	} else {
		rep.OK("Display configured")
	}

	s := &pfb.Suite{Panel: d, Report: rep}
	s.ConfigCard(cfg.Driver, cfg.ResolutionX, cfg.ResolutionY)

	rep.Banner(
		"Test completed!",
		"If you see the test image, the display hardware is working.",
		"If the display is blank, check the configuration values above.",
	)
}
