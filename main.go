// Command pibox-lcdcheck brings up a Waveshare 1.3inch IPS LCD HAT with
// fixed settings and shows a series of test cards on it.
package main

import (
	"fmt"
	"os"
	"time"

	pfb "github.com/kubesail/pibox-lcdcheck/pkg"
	"github.com/kubesail/pibox-lcdcheck/pkg/report"
	"github.com/kubesail/pibox-lcdcheck/st7789"
)

// Waveshare 1.3inch IPS LCD HAT.
const (
	spiPort      = 0
	spiDevice    = 0
	backlightPin = 18
	width        = 240
	height       = 240
)

// framebufferPanel returns the kernel framebuffer of the panel when the
// fbtft driver has claimed it, nil otherwise.
func framebufferPanel(rep *report.Reporter) pfb.Panel {
	fb, err := pfb.FindFramebuffer(pfb.SysfsGraphics)
	if err != nil || fb == "" {
		return nil
	}
	p, err := pfb.OpenFramebufferPanel("/dev/" + fb)
	if err != nil {
		rep.Fail(err, "Kernel framebuffer unusable")
		return nil
	}
	rep.Info("The kernel fb_st7789v driver owns the panel, testing through %s", p)
	return p
}

func finish(rep *report.Reporter) {
	rep.Println("")
	rep.Rule()
	rep.Println(
		"Test completed!",
		"If you see graphics on the display, the ST7789 is working correctly.",
		"If the display is blank, check:",
	)
	rep.Checklist(pfb.WiringChecklist)
	rep.Rule()

	// Keep the last card up for a bit.
	time.Sleep(2 * time.Second)
}

func main() {
	if err := pfb.ResetGPIO(pfb.ControlPins(backlightPin)...); err != nil {
		fmt.Fprintf(os.Stderr, "Could not reset GPIO: %v\n", err)
	}

	rep := report.New()
	rep.Title("ST7789 Display Test")
	if h, err := pfb.Summarize(); err == nil {
		rep.Println(h.String())
	}
	if err := pfb.InitHost(); err != nil {
		fmt.Fprintf(os.Stderr, "Could not load host drivers: %v\n", err)
	}

	board := pfb.DefaultBoard
	rep.Step("Testing SPI connection...")
	cfg := pfb.SPIConfig{Port: spiPort, Device: spiDevice, Speed: pfb.DefaultSPISpeed}
	bus, err := board.Connect(rep, cfg, pfb.WaveshareHAT, pfb.StandardPins)
	if err != nil {
		if p := framebufferPanel(rep); p != nil {
			s := &pfb.Suite{Panel: p, Report: rep}
			s.RunAll()
			finish(rep)
			return
		}
		rep.Error("Could not establish SPI connection")
		os.Exit(1)
	}
	defer bus.Close()

	rep.Step("Initializing ST7789 display...")
	opts := st7789.Opts{W: width, H: height, Speed: pfb.DefaultSPISpeed}
	d, err := board.NewDisplay(bus, backlightPin, &opts)
	if err != nil {
		rep.Fail(err, "Display initialization failed")
		rep.Error("Could not initialize display")
		bus.Close()
		os.Exit(1)
	}
	rep.OK("Display initialized: %dx%d", d.Bounds().Dx(), d.Bounds().Dy())
	rep.Info("Display mode: %s", d.Mode())

	rep.Step("Configuring display...")
	if err := d.Configure(true); err != nil {
		rep.Fail(err, "Configuration failed")
	} else {
		rep.OK("Display configured")
	}

	s := &pfb.Suite{Panel: d, Report: rep}
	s.RunAll()
	finish(rep)
}
