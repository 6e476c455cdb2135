package pkg

import (
	"fmt"

	"github.com/stianeikeland/go-rpio/v4"
)

// ResetGPIO returns pins to inputs with pulls disabled, undoing whatever an
// earlier run or another program left driven on them.
func ResetGPIO(pins ...int) error {
	if err := rpio.Open(); err != nil {
		return fmt.Errorf("could not open GPIO memory: %w", err)
	}
	defer rpio.Close()
	for _, n := range pins {
		p := rpio.Pin(n)
		p.Input()
		p.PullOff()
	}
	return nil
}

// ControlPins returns every BCM pin the known wirings use, for ResetGPIO.
func ControlPins(backlight int) []int {
	seen := map[int]bool{}
	var pins []int
	for _, n := range []int{WaveshareHAT.DC, WaveshareHAT.RST, StandardPins.DC, StandardPins.RST, backlight} {
		if n <= 0 || seen[n] {
			continue
		}
		seen[n] = true
		pins = append(pins, n)
	}
	return pins
}
