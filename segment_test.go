package opbox

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSegmentDisplayPattern(t *testing.T) {
	assert.Equal(t, SegmentPattern{false, false, false, false, true, true, false}, Show(GlyphOne).Pattern())

	for g := GlyphZero; g < GlyphCustom; g++ {
		if g == GlyphOne {
			continue
		}
		assert.Equal(t, SegmentPattern{}, Show(g).Pattern(), "glyph %s", g)
	}

	custom := SegmentPattern{true, false, true, true, false, false, true}
	assert.Equal(t, custom, Custom(custom).Pattern())
	assert.Equal(t, GlyphCustom, Custom(custom).Glyph())

	assert.Equal(t, SegmentPattern{}, Show(Glyph(200)).Pattern())
}

func TestParseGlyph(t *testing.T) {
	for g := GlyphZero; g < GlyphCustom; g++ {
		parsed, err := ParseGlyph(g.String())
		require.Nil(t, err)
		assert.Equal(t, g, parsed)
	}

	b, err := ParseGlyph("b")
	require.Nil(t, err)
	assert.Equal(t, GlyphLowerB, b)

	_, err = ParseGlyph("B")
	assert.NotNil(t, err)
	_, err = ParseGlyph("custom")
	assert.NotNil(t, err)
}

func TestParsePattern(t *testing.T) {
	p, err := ParsePattern("0000110")
	require.Nil(t, err)
	assert.Equal(t, Show(GlyphOne).Pattern(), p)
	assert.Equal(t, "0000110", p.String())
	assert.Equal(t, "0000110", Custom(p).String())
	assert.Equal(t, "1", Show(GlyphOne).String())

	_, err = ParsePattern("000011")
	assert.NotNil(t, err)
	_, err = ParsePattern("00001x0")
	assert.NotNil(t, err)
}

func TestParseSegmentDisplay(t *testing.T) {
	sd, err := ParseSegmentDisplay("1")
	require.Nil(t, err)
	assert.Equal(t, Show(GlyphOne), sd)

	sd, err = ParseSegmentDisplay("6_tail")
	require.Nil(t, err)
	assert.Equal(t, GlyphSixTail, sd.Glyph())

	sd, err = ParseSegmentDisplay("1000001")
	require.Nil(t, err)
	assert.Equal(t, Custom(SegmentPattern{true, false, false, false, false, false, true}), sd)

	_, err = ParseSegmentDisplay("x")
	assert.NotNil(t, err)
}
