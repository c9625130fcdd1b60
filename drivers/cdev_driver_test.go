package drivers

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warthog618/go-gpiosim"
)

func newSimpleton(t *testing.T, lines int) *gpiosim.Simpleton {
	t.Helper()

	s, err := gpiosim.NewSimpleton(lines)
	if err != nil {
		if s != nil {
			s.Close()
		}
		t.Skipf("gpio-sim not available: %v", err)
	}
	t.Cleanup(s.Close)
	return s
}

func TestCdevIO(t *testing.T) {
	s := newSimpleton(t, 4)

	cd := &CdevIO{Chip: s.DevPath()}
	require.Nil(t, cd.Setup(context.Background(), []uint16{3}, []uint16{0, 1, 2}))
	defer cd.Close()

	assert.True(t, cd.IsReady())
	inputs, outputs := cd.GetAllIo()
	assert.Equal(t, []uint16{3}, inputs)
	assert.Equal(t, []uint16{0, 1, 2}, outputs)

	out, err := cd.GetOutput(1)
	require.Nil(t, err)

	require.Nil(t, out.SetHigh())
	level, err := s.Level(1)
	require.Nil(t, err)
	assert.Equal(t, 1, level)

	require.Nil(t, out.SetLow())
	level, err = s.Level(1)
	require.Nil(t, err)
	assert.Equal(t, 0, level)

	in, err := cd.GetInput(3)
	require.Nil(t, err)

	require.Nil(t, s.Pulldown(3))
	high, err := in.IsHigh()
	require.Nil(t, err)
	assert.False(t, high)

	require.Nil(t, s.Pullup(3))
	high, err = in.IsHigh()
	require.Nil(t, err)
	assert.True(t, high)

	_, err = cd.GetInput(0)
	assert.NotNil(t, err)
}

func TestCdevIOInverted(t *testing.T) {
	s := newSimpleton(t, 2)

	cd := &CdevIO{Chip: s.DevPath(), InvertInputs: true, InvertOutputs: true}
	require.Nil(t, cd.Setup(context.Background(), []uint16{1}, []uint16{0}))
	defer cd.Close()

	out, _ := cd.GetOutput(0)
	require.Nil(t, out.SetHigh())
	level, err := s.Level(0)
	require.Nil(t, err)
	assert.Equal(t, 0, level)

	in, _ := cd.GetInput(1)
	require.Nil(t, s.Pullup(1))
	high, err := in.IsHigh()
	require.Nil(t, err)
	assert.False(t, high)
}

func TestCdevIOClosed(t *testing.T) {
	s := newSimpleton(t, 2)

	cd := &CdevIO{Chip: s.DevPath()}
	require.Nil(t, cd.Setup(context.Background(), []uint16{1}, []uint16{0}))
	out, _ := cd.GetOutput(0)
	require.Nil(t, cd.Close())

	assert.Equal(t, ErrNotReady, out.SetHigh())
	assert.False(t, cd.IsReady())
}
