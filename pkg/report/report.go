// Package report prints the step by step pass/fail output of the display
// diagnostics.
package report

import (
	"fmt"
	"image/color"
	"io"
	"os"
	"strings"

	"github.com/maruel/ansi256"
	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"
)

const ruleWidth = 50

const (
	markOK   = "✓"
	markFail = "✗"

	ansiGreen = "\033[32m"
	ansiRed   = "\033[31m"
	ansiBold  = "\033[1m"
	ansiReset = "\033[0m"
)

// Status is the outcome of a checklist item.
type Status int

const (
	Unknown Status = iota
	Pass
	Fail
)

// Item is one line of a troubleshooting checklist.
type Item struct {
	Text   string
	Status Status
}

// Reporter writes numbered steps and their results.
type Reporter struct {
	w       io.Writer
	color   bool
	palette *ansi256.Palette
	step    int
}

// New returns a Reporter on stdout, colored when stdout is a terminal.
func New() *Reporter {
	fd := os.Stdout.Fd()
	tty := isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
	return NewWriter(colorable.NewColorableStdout(), tty)
}

// NewWriter returns a Reporter on w.
func NewWriter(w io.Writer, color bool) *Reporter {
	return &Reporter{w: w, color: color, palette: ansi256.Default}
}

func (r *Reporter) paint(code, s string) string {
	if !r.color {
		return s
	}
	return code + s + ansiReset
}

// Title prints the heading of a run.
func (r *Reporter) Title(title string) {
	fmt.Fprintln(r.w, r.paint(ansiBold, title))
	r.Rule()
}

// Rule prints a separator line.
func (r *Reporter) Rule() {
	fmt.Fprintln(r.w, strings.Repeat("=", ruleWidth))
}

// Banner prints lines between two rules.
func (r *Reporter) Banner(lines ...string) {
	fmt.Fprintln(r.w)
	r.Rule()
	for _, l := range lines {
		fmt.Fprintln(r.w, l)
	}
	r.Rule()
}

// Step starts the next numbered step.
func (r *Reporter) Step(format string, args ...interface{}) {
	r.step++
	fmt.Fprintf(r.w, "\n%d. %s\n", r.step, fmt.Sprintf(format, args...))
}

// Steps returns how many steps have been started.
func (r *Reporter) Steps() int {
	return r.step
}

// Info prints a detail line of the current step.
func (r *Reporter) Info(format string, args ...interface{}) {
	fmt.Fprintf(r.w, "   %s\n", fmt.Sprintf(format, args...))
}

// OK reports the current step, or part of it, succeeded.
func (r *Reporter) OK(format string, args ...interface{}) {
	fmt.Fprintf(r.w, "   %s %s\n", r.paint(ansiGreen, markOK), fmt.Sprintf(format, args...))
}

// Fail reports a failure together with the error text.
func (r *Reporter) Fail(err error, format string, args ...interface{}) {
	fmt.Fprintf(r.w, "   %s %s: %v\n", r.paint(ansiRed, markFail), fmt.Sprintf(format, args...), err)
}

// Swatch prints a detail line followed by a block of c on color terminals.
func (r *Reporter) Swatch(c color.Color, format string, args ...interface{}) {
	s := fmt.Sprintf(format, args...)
	if r.color {
		n := color.NRGBAModel.Convert(c).(color.NRGBA)
		s += " " + r.palette.Block(n) + r.palette.Block(n) + ansiReset
	}
	fmt.Fprintf(r.w, "   %s\n", s)
}

// Section starts an unnumbered block such as "Configuration:".
func (r *Reporter) Section(title string) {
	fmt.Fprintf(r.w, "\n%s\n", title)
}

// Field prints "  name: value" under a section.
func (r *Reporter) Field(name string, value interface{}) {
	fmt.Fprintf(r.w, "  %s: %v\n", name, value)
}

// Error prints a fatal problem. The caller decides whether to exit.
func (r *Reporter) Error(format string, args ...interface{}) {
	fmt.Fprintf(r.w, "\n%s %s\n", r.paint(ansiRed, "ERROR:"), fmt.Sprintf(format, args...))
}

// Println prints lines verbatim.
func (r *Reporter) Println(lines ...string) {
	for _, l := range lines {
		fmt.Fprintln(r.w, l)
	}
}

// Checklist prints numbered items with their status when known.
func (r *Reporter) Checklist(items []Item) {
	for i, it := range items {
		mark := ""
		switch it.Status {
		case Pass:
			mark = " " + r.paint(ansiGreen, markOK)
		case Fail:
			mark = " " + r.paint(ansiRed, markFail)
		}
		fmt.Fprintf(r.w, "  %d. %s%s\n", i+1, it.Text, mark)
	}
}
