package braille

import (
	"fmt"
	"strings"
)

// brailleBase is the Unicode codepoint of the blank braille cell; the six
// dot bits are laid out as dot1=0x01 .. dot6=0x20 above it.
const brailleBase = 0x2800

// Rune returns the Unicode braille character for the cell (U+2800..U+283F).
func (p Pattern) Rune() rune {
	offset := 0
	for i, raised := range p {
		if raised {
			offset |= 1 << i
		}
	}
	return rune(brailleBase + offset)
}

// Binary returns the cell as a six-character "100000"-style string in dot
// order.
func (p Pattern) Binary() string {
	var b strings.Builder
	b.Grow(6)
	for _, raised := range p {
		if raised {
			b.WriteByte('1')
		} else {
			b.WriteByte('0')
		}
	}
	return b.String()
}

// Grid renders the cell as a 2x3 ASCII grid, 'O' for raised and '.' for
// lowered dots:
//
//	O .
//	O .
//	. .
func (p Pattern) Grid() string {
	return fmt.Sprintf("%c %c\n%c %c\n%c %c",
		mark(p[0]), mark(p[3]),
		mark(p[1]), mark(p[4]),
		mark(p[2]), mark(p[5]))
}

func mark(raised bool) byte {
	if raised {
		return 'O'
	}
	return '.'
}
