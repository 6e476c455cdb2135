package pkg

import (
	"fmt"

	"github.com/kubesail/pibox-lcdcheck/pkg/report"
)

// WiringChecklist is printed when the quick test leaves the panel blank.
var WiringChecklist = []report.Item{
	{Text: "SPI is enabled: sudo raspi-config -> Interface Options -> SPI -> Enable"},
	{Text: "Wiring connections (DC, RST, CS, MOSI, MISO, SCLK)"},
	{Text: "Backlight pin connection"},
	{Text: "Display resolution settings (width/height)"},
}

// MessageChecklist evaluates what the daemon needs to show a message.
// cfg is nil when the setup could not be loaded, pids is the result of the
// daemon lookup and is ignored when daemonErr is set. Items that cannot be
// checked are left Unknown.
func MessageChecklist(cfg *DisplayConfig, pids []int32, daemonErr error) []report.Item {
	status := func(ok bool) report.Status {
		if cfg == nil {
			return report.Unknown
		}
		if ok {
			return report.Pass
		}
		return report.Fail
	}
	var c DisplayConfig
	if cfg != nil {
		c = *cfg
	}
	items := []report.Item{
		{Text: "Display is enabled in config (conf_DISP=true)", Status: status(c.Enabled)},
		{Text: fmt.Sprintf("Display driver is set to '%s'", DriverST7789Waveshare), Status: status(c.Driver == DriverST7789Waveshare)},
		{Text: "Resolution is set to 240x240", Status: status(c.ResolutionX == 240 && c.ResolutionY == 240)},
		{Text: fmt.Sprintf("Connection is set to '%s'", ConnectionSPI), Status: status(c.Connection == ConnectionSPI)},
		{Text: "Display daemon is running: sudo pgrep -fa " + DaemonPattern},
	}
	if daemonErr == nil {
		if len(pids) > 0 {
			items[4].Status = report.Pass
		} else {
			items[4].Status = report.Fail
		}
	}
	return items
}
