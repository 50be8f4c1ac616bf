// Package braille models 6-dot braille cells for the letters a..z.
//
// A cell is two columns of three dots, numbered in the standard order: dots
// 1..3 run down the left column, dots 4..6 down the right. The package keeps
// the letter table in that notation and derives every output form (dot
// numbers, bit vector, Unicode cell, ASCII grid) from it.
package braille

import (
	"fmt"
	"unicode"
)

// Pattern is the dot state of one braille cell. Index 0..2 are dots 1..3
// (left column, top to bottom), index 3..5 are dots 4..6 (right column).
// The zero value is the blank cell.
type Pattern [6]bool

// Blank is the cell with no raised dots, used to clear a display.
var Blank Pattern

// letterDots is the standard braille alphabet in dot-number notation.
var letterDots = map[rune][]int{
	'a': {1},
	'b': {1, 2},
	'c': {1, 4},
	'd': {1, 4, 5},
	'e': {1, 5},
	'f': {1, 2, 4},
	'g': {1, 2, 4, 5},
	'h': {1, 2, 5},
	'i': {2, 4},
	'j': {2, 4, 5},
	'k': {1, 3},
	'l': {1, 2, 3},
	'm': {1, 3, 4},
	'n': {1, 3, 4, 5},
	'o': {1, 3, 5},
	'p': {1, 2, 3, 4},
	'q': {1, 2, 3, 4, 5},
	'r': {1, 2, 3, 5},
	's': {2, 3, 4},
	't': {2, 3, 4, 5},
	'u': {1, 3, 6},
	'v': {1, 2, 3, 6},
	'w': {2, 4, 5, 6},
	'x': {1, 3, 4, 6},
	'y': {1, 3, 4, 5, 6},
	'z': {1, 3, 5, 6},
}

var letters = buildPatterns()

func buildPatterns() map[rune]Pattern {
	m := make(map[rune]Pattern, len(letterDots))
	for r, dots := range letterDots {
		var p Pattern
		for _, d := range dots {
			p[d-1] = true
		}
		m[r] = p
	}
	return m
}

// ForLetter returns the cell for a letter a..z (either case). The second
// return value is false for anything outside the alphabet.
func ForLetter(r rune) (Pattern, bool) {
	p, ok := letters[unicode.ToLower(r)]
	return p, ok
}

// FromDots builds a Pattern from raised dot numbers. Dot numbers outside
// 1..6 are rejected.
func FromDots(dots ...int) (Pattern, error) {
	var p Pattern
	for _, d := range dots {
		if d < 1 || d > 6 {
			return Blank, fmt.Errorf("braille: dot number %d out of range 1..6", d)
		}
		p[d-1] = true
	}
	return p, nil
}

// Dots returns the raised dot numbers in ascending order. A blank cell
// returns an empty (non-nil) slice.
func (p Pattern) Dots() []int {
	dots := make([]int, 0, 6)
	for i, raised := range p {
		if raised {
			dots = append(dots, i+1)
		}
	}
	return dots
}

// Bits returns the cell as a 1/0 vector in dot order, the form used on the
// wire and in logs.
func (p Pattern) Bits() [6]int {
	var bits [6]int
	for i, raised := range p {
		if raised {
			bits[i] = 1
		}
	}
	return bits
}
