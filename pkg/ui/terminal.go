package ui

import (
	"fmt"
	"io"
	"os"
	"sync/atomic"

	"golang.org/x/term"
)

// Banner is printed by commands that talk to the API
const Banner = `
  ┌──────────────────────────────────────────┐
  │  TFT CRAWLER · challenger match harvester │
  └──────────────────────────────────────────┘
`

var (
	out          io.Writer = os.Stdout
	colorEnabled atomic.Bool
)

func init() {
	colorEnabled.Store(term.IsTerminal(int(os.Stdout.Fd())))
}

// Color functions for terminal output
var (
	Cyan    = colorize("\033[36m%s\033[0m")
	Yellow  = colorize("\033[33m%s\033[0m")
	Red     = colorize("\033[31m%s\033[0m")
	Green   = colorize("\033[32m%s\033[0m")
	Magenta = colorize("\033[35m%s\033[0m")
	Dim     = colorize("\033[2m%s\033[0m")
)

// SetColor turns ANSI colors on or off. Colors default to on only when
// stdout is a terminal.
func SetColor(enabled bool) {
	colorEnabled.Store(enabled)
}

// SetOutput redirects all Print helpers
func SetOutput(w io.Writer) {
	out = w
}

// colorize returns a function that wraps text with ANSI color codes
func colorize(colorString string) func(string) string {
	return func(text string) string {
		if !colorEnabled.Load() {
			return text
		}
		return fmt.Sprintf(colorString, text)
	}
}

// PrintBanner prints the banner
func PrintBanner() {
	fmt.Fprint(out, Cyan(Banner))
}

// PrintError prints an error message in red
func PrintError(msg string, args ...interface{}) {
	if len(args) > 0 {
		msg = fmt.Sprintf("%s: %v", msg, args[0])
	}
	fmt.Fprintln(out, Red(msg))
}

// PrintSuccess prints a success message in green
func PrintSuccess(msg string) {
	fmt.Fprintln(out, Green(msg))
}

// PrintInfo prints a labelled value
func PrintInfo(label string, value interface{}) {
	fmt.Fprintf(out, "%s: %s\n", Cyan(label), Yellow(fmt.Sprint(value)))
}

// PrintWarning prints a warning message in yellow
func PrintWarning(msg string, args ...interface{}) {
	if len(args) > 0 {
		msg = fmt.Sprintf("%s: %v", msg, args[0])
	}
	fmt.Fprintln(out, Yellow(msg))
}

// PrintHighlight prints a highlighted message in magenta
func PrintHighlight(msg string) {
	fmt.Fprintln(out, Magenta(msg))
}
