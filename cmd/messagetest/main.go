// Command messagetest asks the display daemon to show a test message.
package main

import (
	"context"
	"os"
	"time"

	pfb "github.com/kubesail/pibox-lcdcheck/pkg"
	"github.com/kubesail/pibox-lcdcheck/pkg/message"
	"github.com/kubesail/pibox-lcdcheck/pkg/report"
)

const sendTimeout = 10 * time.Second

func testMessage() []string {
	return []string{
		message.Settings{Clear: true, Time: 5 * time.Second}.String(),
		message.Line(message.Heading, "ST7789 Display Test"),
		message.Line(message.Body, "Resolution: 240x240"),
		message.Line(message.Body, "Driver: "+pfb.DriverST7789Waveshare),
		message.Line(message.Alert, "If you see this, it works!"),
	}
}

// checklist evaluates whatever it can of the troubleshooting list.
func checklist() []report.Item {
	var cfg *pfb.DisplayConfig
	if setup, err := pfb.LoadSetup(pfb.ConfigPath()); err == nil {
		cfg, _ = pfb.LoadDisplayConfig(setup)
	}
	pids, err := pfb.FindProcesses(pfb.DaemonPattern)
	return pfb.MessageChecklist(cfg, pids, err)
}

func main() {
	rep := report.New()
	rep.Title("Sending test message to display...")

	lines := testMessage()
	rep.Section("Sending message:")
	for _, l := range lines {
		rep.Println("  " + l)
	}

	client := message.NewClient(message.SocketPath())
	ctx, cancel := context.WithTimeout(context.Background(), sendTimeout)
	err := client.Send(ctx, lines, true)
	cancel()

	rep.Println("")
	rep.Rule()
	if err != nil {
		rep.Println("Message could not be sent: " + err.Error())
	} else {
		rep.Println(
			"Message sent!",
			"The display should show the test message for 5 seconds.",
		)
	}
	rep.Println("If you don't see anything, check:")
	rep.Checklist(checklist())
	rep.Rule()

	if err != nil {
		os.Exit(1)
	}
}
