package opbox

import (
	"github.com/pkg/errors"
)

// SegmentPattern is the on/off state of the seven display segments in the order
// they are wired to the second register chain.
type SegmentPattern [segmentCount]bool

// Glyph names a predefined seven-segment character.
type Glyph uint8

const (
	GlyphZero Glyph = iota
	GlyphOne
	GlyphTwo
	GlyphThree
	GlyphFour
	GlyphFive
	GlyphSix
	GlyphSixTail
	GlyphSeven
	GlyphSevenTail
	GlyphEight
	GlyphNine
	GlyphA
	GlyphLowerB
	GlyphC
	GlyphLowerC
	GlyphLowerD
	GlyphE
	GlyphF
	GlyphG
	GlyphH
	GlyphLowerH
	GlyphI
	GlyphJ
	GlyphL
	GlyphLowerN
	GlyphO
	GlyphLowerO
	GlyphP
	GlyphLowerQ
	GlyphLowerR
	GlyphS
	GlyphLowerT
	GlyphU
	GlyphLowerU
	GlyphLowerY
	// GlyphCustom marks a SegmentDisplay carrying its own pattern.
	GlyphCustom
)

var glyphNames = [...]string{
	GlyphZero:      "0",
	GlyphOne:       "1",
	GlyphTwo:       "2",
	GlyphThree:     "3",
	GlyphFour:      "4",
	GlyphFive:      "5",
	GlyphSix:       "6",
	GlyphSixTail:   "6_tail",
	GlyphSeven:     "7",
	GlyphSevenTail: "7_tail",
	GlyphEight:     "8",
	GlyphNine:      "9",
	GlyphA:         "A",
	GlyphLowerB:    "b",
	GlyphC:         "C",
	GlyphLowerC:    "c",
	GlyphLowerD:    "d",
	GlyphE:         "E",
	GlyphF:         "F",
	GlyphG:         "G",
	GlyphH:         "H",
	GlyphLowerH:    "h",
	GlyphI:         "I",
	GlyphJ:         "J",
	GlyphL:         "L",
	GlyphLowerN:    "n",
	GlyphO:         "O",
	GlyphLowerO:    "o",
	GlyphP:         "P",
	GlyphLowerQ:    "q",
	GlyphLowerR:    "r",
	GlyphS:         "S",
	GlyphLowerT:    "t",
	GlyphU:         "U",
	GlyphLowerU:    "u",
	GlyphLowerY:    "y",
	GlyphCustom:    "custom",
}

func (g Glyph) String() string {
	if int(g) < len(glyphNames) {
		return glyphNames[g]
	}
	return "unknown"
}

// ParseGlyph returns the glyph with the given name as printed by Glyph.String.
// Names are case sensitive, "b" and "B" are different characters on the display.
func ParseGlyph(name string) (Glyph, error) {
	for g, n := range glyphNames {
		if n == name && Glyph(g) != GlyphCustom {
			return Glyph(g), nil
		}
	}
	return 0, errors.Errorf("unknown glyph %q", name)
}

// SegmentDisplay is what the display should show: a named glyph or a custom pattern.
type SegmentDisplay struct {
	glyph  Glyph
	custom SegmentPattern
}

// Show returns the display value for a named glyph.
func Show(g Glyph) SegmentDisplay {
	return SegmentDisplay{glyph: g}
}

// Custom returns a display value lighting exactly the segments set in p.
func Custom(p SegmentPattern) SegmentDisplay {
	return SegmentDisplay{glyph: GlyphCustom, custom: p}
}

// Glyph returns the named glyph, or GlyphCustom.
func (sd SegmentDisplay) Glyph() Glyph {
	return sd.glyph
}

// Pattern resolves the display value to its segment pattern. Only the "1" glyph has
// a known pattern on this board, every other named glyph (and any unknown value)
// blanks the display.
func (sd SegmentDisplay) Pattern() SegmentPattern {
	switch sd.glyph {
	case GlyphOne:
		return SegmentPattern{false, false, false, false, true, true, false}
	case GlyphCustom:
		return sd.custom
	default:
		return SegmentPattern{}
	}
}

func (sd SegmentDisplay) String() string {
	if sd.glyph != GlyphCustom {
		return sd.glyph.String()
	}
	return sd.custom.String()
}

// String renders the pattern as seven '0'/'1' characters.
func (p SegmentPattern) String() string {
	b := make([]byte, segmentCount)
	for i, on := range p {
		b[i] = '0'
		if on {
			b[i] = '1'
		}
	}
	return string(b)
}

// ParsePattern is the inverse of SegmentPattern.String.
func ParsePattern(s string) (p SegmentPattern, err error) {
	if len(s) != segmentCount {
		err = errors.Errorf("segment pattern %q must have %d characters", s, segmentCount)
		return
	}
	for i := range p {
		switch s[i] {
		case '1':
			p[i] = true
		case '0':
		default:
			err = errors.Errorf("segment pattern %q: invalid character %q", s, s[i])
			return
		}
	}
	return
}

// ParseSegmentDisplay accepts a glyph name or a seven character pattern.
func ParseSegmentDisplay(s string) (SegmentDisplay, error) {
	if g, err := ParseGlyph(s); err == nil {
		return Show(g), nil
	}
	p, err := ParsePattern(s)
	if err != nil {
		return SegmentDisplay{}, errors.Errorf("%q is neither a glyph nor a segment pattern", s)
	}
	return Custom(p), nil
}
