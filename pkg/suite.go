package pkg

import (
	"fmt"
	"time"

	"github.com/kubesail/pibox-lcdcheck/pkg/report"
	"github.com/kubesail/pibox-lcdcheck/pkg/testcard"
)

// Suite pushes the test cards to a panel. Each test is its own numbered
// step; a failing test is reported and returned, it never stops the run.
type Suite struct {
	Panel  Panel
	Report *report.Reporter
	// Pause holds a card on screen. Defaults to time.Sleep.
	Pause func(time.Duration)
}

func (s *Suite) pause(d time.Duration) {
	if s.Pause == nil {
		time.Sleep(d)
		return
	}
	s.Pause(d)
}

func (s *Suite) face(size float64) *testcard.Face {
	f := testcard.LoadFace(size, testcard.FontPaths...)
	if f.Default {
		s.Report.Info("Using default font")
	}
	return f
}

// ColorFill shows each of testcard.FillColors for a second.
func (s *Suite) ColorFill() error {
	s.Report.Step("Test 1: Color fill test...")
	r := s.Panel.Bounds()
	for _, c := range testcard.FillColors {
		s.Report.Swatch(c, "Showing (%d, %d, %d)...", c.R, c.G, c.B)
		if err := s.Panel.Display(testcard.Solid(r, c)); err != nil {
			s.Report.Fail(err, "Color fill test failed")
			return err
		}
		s.pause(time.Second)
	}
	s.Report.OK("Color fill test passed")
	return nil
}

// Text shows the greeting card for three seconds.
func (s *Suite) Text() error {
	s.Report.Step("Test 2: Text display test...")
	img := testcard.Greeting(s.Panel.Bounds(), s.face(24))
	if err := s.Panel.Display(img); err != nil {
		s.Report.Fail(err, "Text display test failed")
		return err
	}
	s.Report.OK("Text display test passed")
	s.Report.Info("You should see 'ST7789 Test' and 'Working!' on the display")
	s.pause(3 * time.Second)
	return nil
}

// Pattern shows the grid and color squares for three seconds.
func (s *Suite) Pattern() error {
	s.Report.Step("Test 3: Pattern test...")
	if err := s.Panel.Display(testcard.Pattern(s.Panel.Bounds())); err != nil {
		s.Report.Fail(err, "Pattern test failed")
		return err
	}
	s.Report.OK("Pattern test passed")
	s.Report.Info("You should see a grid pattern with colored squares")
	s.pause(3 * time.Second)
	return nil
}

// Alignment shows a QR code framed by the outermost pixels of the panel.
func (s *Suite) Alignment() error {
	s.Report.Step("Test 4: Alignment test...")
	r := s.Panel.Bounds()
	img, err := testcard.Alignment(r, fmt.Sprintf("ST7789 %dx%d", r.Dx(), r.Dy()))
	if err == nil {
		err = s.Panel.Display(img)
	}
	if err != nil {
		s.Report.Fail(err, "Alignment test failed")
		return err
	}
	s.Report.OK("Alignment test passed")
	s.Report.Info("You should see a QR code and a red line along every edge")
	s.Report.Info("A missing or doubled edge means the offsets are wrong")
	s.pause(3 * time.Second)
	return nil
}

// ConfigCard shows the configured driver and resolution.
func (s *Suite) ConfigCard(driver string, w, h int) error {
	s.Report.Step("Testing display output...")
	img := testcard.ConfigCard(s.Panel.Bounds(), s.face(20), driver, w, h)
	if err := s.Panel.Display(img); err != nil {
		s.Report.Fail(err, "Display test failed")
		return err
	}
	s.Report.OK("Test image displayed")
	s.Report.Info("You should see blue background with white/green/yellow text")
	return nil
}

// RunAll runs the quick test cards in order and returns how many failed.
func (s *Suite) RunAll() int {
	failed := 0
	for _, t := range []func() error{s.ColorFill, s.Text, s.Pattern, s.Alignment} {
		if t() != nil {
			failed++
		}
	}
	return failed
}
