// Package display abstracts the braille output device.
//
// The trainer itself only ever talks to the [Display] interface; whether the
// cell appears as servo-driven pins or as text in a terminal is wiring. This
// package ships the simulation device used during development and on machines
// without actuator hardware.
package display

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"

	"github.com/MrWong99/hexavox/pkg/braille"
)

// ErrClosed is returned by operations on a closed display.
var ErrClosed = errors.New("display: device is closed")

// Display is a single-cell braille output device. Implementations must be
// safe for concurrent use; SetPattern and Reset must return promptly rather
// than block on actuation.
type Display interface {
	// SetPattern raises the given cell.
	SetPattern(p braille.Pattern) error

	// Reset lowers all dots.
	Reset() error

	// Close releases the device. Further calls return ErrClosed.
	Close() error
}

// Compile-time assertion that Simulation satisfies Display.
var _ Display = (*Simulation)(nil)

// Simulation renders each cell as text on a writer. It stands in for the pin
// hardware during development and in the -simulate run mode.
type Simulation struct {
	mu      sync.Mutex
	w       io.Writer
	closed  bool
	current braille.Pattern
}

// NewSimulation returns a simulation display writing to w.
func NewSimulation(w io.Writer) *Simulation {
	return &Simulation{w: w}
}

// SetPattern prints the cell as an ASCII grid followed by the Unicode cell
// and raised dot numbers.
func (s *Simulation) SetPattern(p braille.Pattern) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	s.current = p
	_, err := fmt.Fprintf(s.w, "%s\n%c  %s\n", p.Grid(), p.Rune(), dotsLabel(p))
	return err
}

// Reset lowers all dots and prints a separating blank line.
func (s *Simulation) Reset() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	s.current = braille.Blank
	_, err := fmt.Fprintln(s.w)
	return err
}

// Current returns the pattern the display is presently showing.
func (s *Simulation) Current() braille.Pattern {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// Close marks the display closed. Closing twice is safe.
func (s *Simulation) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

func dotsLabel(p braille.Pattern) string {
	dots := p.Dots()
	if len(dots) == 0 {
		return "no dots raised"
	}
	parts := make([]string, len(dots))
	for i, d := range dots {
		parts[i] = strconv.Itoa(d)
	}
	return "dots " + strings.Join(parts, " ")
}
