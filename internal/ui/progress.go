// Package ui renders the "checking for ..." progress lines of §7 and gates
// the debug logger behind --verbose, following the teacher's own
// mattn/go-isatty dependency plus the zerolog/fatih-color pairing shown by
// the other_examples build tool for this same kind of CLI status output.
package ui

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
)

// UI bundles the colorized status writer and the structured debug logger.
type UI struct {
	out     io.Writer
	colored bool
	Log     zerolog.Logger
}

// New builds a UI writing status lines to out. Color is enabled only when
// out is a real terminal; debug logs the way the teacher's own default
// output does, gated by verbose.
func New(out io.Writer, verbose bool) *UI {
	colored := false
	if f, ok := out.(*os.File); ok {
		colored = isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
	}
	level := zerolog.InfoLevel
	if verbose {
		level = zerolog.DebugLevel
	}
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}).
		Level(level).
		With().Timestamp().Logger()
	return &UI{out: out, colored: colored, Log: logger}
}

// Checking prints a "checking for ..." line with a colorized ok/no/value
// suffix, matching the teacher's plain fmt-to-stdout progress texture.
func (u *UI) Checking(format string, args ...any) {
	fmt.Fprintln(u.out, u.colorizeMarkers(fmt.Sprintf(format, args...)))
}

// colorizeMarkers highlights trailing "ok"/"no" markers when color is
// available; other text passes through unchanged.
func (u *UI) colorizeMarkers(line string) string {
	if !u.colored {
		return line
	}
	switch {
	case hasSuffixWord(line, "ok"):
		return trimSuffixWord(line, "ok") + color.GreenString("ok")
	case hasSuffixWord(line, "no"):
		return trimSuffixWord(line, "no") + color.RedString("no")
	default:
		return line
	}
}

func hasSuffixWord(s, word string) bool {
	return len(s) >= len(word) && s[len(s)-len(word):] == word
}

func trimSuffixWord(s, word string) string {
	return s[:len(s)-len(word)]
}

// Status prints a plain informational line (e.g. "generating makefile ..").
func (u *UI) Status(format string, args ...any) {
	fmt.Fprintf(u.out, format+"\n", args...)
}
