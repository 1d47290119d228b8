package tui

import (
	"os"

	"github.com/muesli/termenv"
	"golang.org/x/term"
)

func profile() termenv.Profile {
	return termenv.ColorProfile()
}

func colorize(p termenv.Profile, s, hex string) string {
	return termenv.String(s).Foreground(p.Color(hex)).String()
}

// Styler colors the terminal driver's output.
type Styler struct {
	p termenv.Profile
}

// NewStyler detects the terminal color profile.
func NewStyler() *Styler {
	return &Styler{p: termenv.ColorProfile()}
}

// Label renders a field label.
func (s *Styler) Label(text string) string {
	return termenv.String(text).Bold().String()
}

// Value renders a bound control value.
func (s *Styler) Value(text string) string {
	return colorize(s.p, text, "#34d399")
}

// Button renders a pressable control.
func (s *Styler) Button(text string) string {
	return termenv.String(colorize(s.p, text, "#60a5fa")).Bold().String()
}

// Dim renders secondary text (hints, raw dumps).
func (s *Styler) Dim(text string) string {
	return termenv.String(text).Faint().String()
}

// Err renders an error line.
func (s *Styler) Err(text string) string {
	return colorize(s.p, text, "#f87171")
}

// Width reports the terminal width, or fallback when stdout is not a TTY.
func Width(fallback int) int {
	if !term.IsTerminal(int(os.Stdout.Fd())) {
		return fallback
	}
	w, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || w <= 0 {
		return fallback
	}
	return w
}

// ReadPassword reads a line from the terminal without echo.
func ReadPassword() (string, error) {
	data, err := term.ReadPassword(int(os.Stdin.Fd()))
	if err != nil {
		return "", err
	}
	return string(data), nil
}
