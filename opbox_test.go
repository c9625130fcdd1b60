package opbox

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errInjected = errors.New("injected pin fault")

const (
	pinClock   = "clock"
	pinLatch   = "latch"
	pinDataOut = "data_out"
	pinDataIn  = "data_in"
)

type pinOp struct {
	pin   string
	level bool // level written, or level read for data_in
}

// bench wires the four driver pins to a model of the two register chains. Every
// pin operation is recorded; a fault can be injected on the n-th operation of one
// pin.
type bench struct {
	ops []pinOp

	failPin string
	failAt  int
	count   map[string]int

	data    bool
	clock   bool
	reg     [OutputBits]bool
	shifted []bool
	latched []OutputState

	// loopback >= 0 reads data_in from that register stage instead of the buttons
	loopback int
	buttons  InputSample
	reads    int
}

func newBench() *bench {
	return &bench{count: map[string]int{}, loopback: -1}
}

func (b *bench) failOn(pin string, n int) {
	b.failPin = pin
	b.failAt = n
	b.count = map[string]int{}
}

func (b *bench) fault(pin string) error {
	b.count[pin]++
	if pin == b.failPin && b.count[pin] == b.failAt {
		return errInjected
	}
	return nil
}

func (b *bench) write(pin string, level bool) error {
	if err := b.fault(pin); err != nil {
		return err
	}
	b.ops = append(b.ops, pinOp{pin: pin, level: level})

	switch pin {
	case pinClock:
		if level && !b.clock {
			copy(b.reg[1:], b.reg[:OutputBits-1])
			b.reg[0] = b.data
			b.shifted = append(b.shifted, b.data)
		}
		b.clock = level
	case pinDataOut:
		b.data = level
	case pinLatch:
		if level {
			// the stage furthest from the serial input holds the first bit sent
			var out OutputState
			for i := range out {
				out[i] = b.reg[OutputBits-1-i]
			}
			b.latched = append(b.latched, out)
		} else {
			b.reads = 0
		}
	}
	return nil
}

func (b *bench) read() (bool, error) {
	if err := b.fault(pinDataIn); err != nil {
		return false, err
	}
	var level bool
	if b.loopback >= 0 {
		level = b.reg[b.loopback]
	} else {
		level = b.buttons[b.reads%InputBits]
	}
	b.reads++
	b.ops = append(b.ops, pinOp{pin: pinDataIn, level: level})
	return level, nil
}

func (b *bench) reset() {
	b.ops = nil
	b.shifted = nil
	b.latched = nil
}

func (b *bench) opsOn(pin string) (ops []pinOp) {
	for _, op := range b.ops {
		if op.pin == pin {
			ops = append(ops, op)
		}
	}
	return
}

type benchOutput struct {
	b   *bench
	pin string
}

func (bo benchOutput) SetHigh() error { return bo.b.write(bo.pin, true) }
func (bo benchOutput) SetLow() error  { return bo.b.write(bo.pin, false) }

type benchInput struct {
	b *bench
}

func (bi benchInput) IsHigh() (bool, error) { return bi.b.read() }

func newOpBox(t *testing.T, b *bench) *OpBox {
	t.Helper()
	ob, err := New(benchOutput{b, pinClock}, benchOutput{b, pinLatch}, benchOutput{b, pinDataOut}, benchInput{b})
	require.Nil(t, err)
	return ob
}

// checkCycle asserts the trace holds exactly one complete cycle for state.
func checkCycle(t *testing.T, b *bench, state OutputState) {
	t.Helper()

	// latch low, 16 x (clock low, data, clock high), 8 reads, latch high
	require.Equal(t, 1+OutputBits*3+InputBits+1, len(b.ops))
	assert.Equal(t, pinOp{pinLatch, false}, b.ops[0])
	assert.Equal(t, pinOp{pinLatch, true}, b.ops[len(b.ops)-1])

	i := 1
	for bit := 0; bit < OutputBits; bit++ {
		assert.Equal(t, pinOp{pinClock, false}, b.ops[i], "bit %d", bit)
		assert.Equal(t, pinOp{pinDataOut, state[bit]}, b.ops[i+1], "bit %d", bit)
		assert.Equal(t, pinOp{pinClock, true}, b.ops[i+2], "bit %d", bit)
		i += 3
		if bit < InputBits {
			assert.Equal(t, pinDataIn, b.ops[i].pin, "bit %d", bit)
			i++
		}
	}

	assert.Equal(t, state[:], b.shifted)
	assert.Equal(t, 1, len(b.latched))
}

func TestNew(t *testing.T) {
	b := newBench()
	ob := newOpBox(t, b)

	assert.Equal(t, OutputState{}, ob.State())
	checkCycle(t, b, OutputState{})
	assert.Equal(t, 2, len(b.opsOn(pinLatch)))
	assert.Equal(t, 2*OutputBits, len(b.opsOn(pinClock)))
}

func TestNewPinFault(t *testing.T) {
	for _, pin := range []string{pinLatch, pinClock, pinDataOut, pinDataIn} {
		t.Run(pin, func(t *testing.T) {
			b := newBench()
			b.failOn(pin, 1)

			ob, err := New(benchOutput{b, pinClock}, benchOutput{b, pinLatch}, benchOutput{b, pinDataOut}, benchInput{b})
			assert.Nil(t, ob)
			assert.Same(t, errInjected, err)
		})
	}
}

func TestSetIndicator(t *testing.T) {
	b := newBench()
	ob := newOpBox(t, b)

	for _, led := range []Indicator{D1, D3, D8} {
		b.reset()
		require.Nil(t, ob.SetIndicator(led, true))
	}

	want := OutputState{}
	want[D1], want[D3], want[D8] = true, true, true
	assert.Equal(t, want, ob.State())
	checkCycle(t, b, want)
	assert.Equal(t, want, b.latched[0])
}

func TestSetIndicatorLastWriteWins(t *testing.T) {
	b := newBench()
	ob := newOpBox(t, b)

	writes := []struct {
		led Indicator
		on  bool
	}{
		{D2, true},
		{D5, true},
		{D2, false},
		{D7, true},
		{D5, false},
		{D5, true},
		{D1, true},
		{D7, false},
	}

	want := OutputState{}
	for _, w := range writes {
		require.Nil(t, ob.SetIndicator(w.led, w.on))
		want[w.led] = w.on
		assert.Equal(t, want, ob.State())
	}

	assert.Equal(t, 1+len(writes), len(b.latched))
	assert.Equal(t, want, b.latched[len(b.latched)-1])
}

func TestSetIndicatorRange(t *testing.T) {
	b := newBench()
	ob := newOpBox(t, b)
	b.reset()

	assert.Equal(t, ErrIndicatorRange, ob.SetIndicator(D8+1, true))
	assert.Empty(t, b.ops)
	assert.Equal(t, OutputState{}, ob.State())
}

func TestSetSegmentDisplay(t *testing.T) {
	b := newBench()
	ob := newOpBox(t, b)
	require.Nil(t, ob.SetIndicator(D4, true))

	b.reset()
	require.Nil(t, ob.SetSegmentDisplay(Show(GlyphOne)))

	want := OutputState{}
	want[D4] = true
	want[12], want[13] = true, true
	assert.Equal(t, want, ob.State())
	checkCycle(t, b, want)

	custom := SegmentPattern{true, true, true, true, true, true, true}
	require.Nil(t, ob.SetSegmentDisplay(Custom(custom)))
	state := ob.State()
	for i, on := range custom {
		assert.Equal(t, on, state[segmentOffset+i])
	}
	assert.False(t, state[15])
	assert.True(t, state[D4])

	require.Nil(t, ob.SetSegmentDisplay(Show(GlyphE)))
	state = ob.State()
	assert.Equal(t, make([]bool, 8), state[8:])
}

func TestReservedSharedWithDisplay(t *testing.T) {
	b := newBench()
	ob := newOpBox(t, b)

	require.Nil(t, ob.SetReserved(true))
	assert.True(t, ob.State()[8])

	require.Nil(t, ob.SetSegmentDisplay(Show(GlyphOne)))
	assert.False(t, ob.State()[8])

	require.Nil(t, ob.SetReserved(true))
	assert.True(t, ob.State()[8])
	assert.True(t, ob.State()[12])
}

func TestButton(t *testing.T) {
	b := newBench()
	b.buttons = InputSample{false, true, false, false, true, false, false, true}
	ob := newOpBox(t, b)
	require.Nil(t, ob.SetIndicator(D6, true))
	before := ob.State()

	for button := S1; button <= S8; button++ {
		b.reset()
		got, err := ob.Button(button)
		require.Nil(t, err)
		assert.Equal(t, b.buttons[button], got, "button %d", button)

		// reading re-transmits the unchanged outputs
		checkCycle(t, b, before)
		assert.Equal(t, before, ob.State())
	}

	sample, err := ob.Buttons()
	require.Nil(t, err)
	assert.Equal(t, b.buttons, sample)

	_, err = ob.Button(S8 + 1)
	assert.Equal(t, ErrButtonRange, err)
}

func TestLoopback(t *testing.T) {
	pattern := OutputState{true, false, true, true, false, false, true, false, false, true, true, false, true, false, false, true}

	t.Run("no delay", func(t *testing.T) {
		b := newBench()
		b.loopback = 0
		ob := newOpBox(t, b)
		ob.state = pattern

		sample, err := ob.Buttons()
		require.Nil(t, err)
		for i := 0; i < InputBits; i++ {
			assert.Equal(t, pattern[i], sample[i], "bit %d", i)
		}
	})

	t.Run("one stage", func(t *testing.T) {
		b := newBench()
		b.loopback = 1
		ob := newOpBox(t, b)
		ob.state = pattern

		sample, err := ob.Buttons()
		require.Nil(t, err)
		// stage 1 still holds the last bit of the previous (blank) cycle
		assert.False(t, sample[0])
		for i := 1; i < InputBits; i++ {
			assert.Equal(t, pattern[i-1], sample[i], "bit %d", i)
		}

		sample, err = ob.Buttons()
		require.Nil(t, err)
		assert.Equal(t, pattern[OutputBits-1], sample[0])
	})
}

func TestPinFaultAbortsCycle(t *testing.T) {
	t.Run("getter", func(t *testing.T) {
		b := newBench()
		ob := newOpBox(t, b)
		require.Nil(t, ob.SetIndicator(D2, true))
		before := ob.State()

		b.reset()
		b.failOn(pinClock, 5)
		_, err := ob.Button(S3)
		assert.Same(t, errInjected, err)
		assert.Equal(t, before, ob.State())

		// aborted on the 5th clock edge: no latch commit, nothing after
		assert.Empty(t, b.latched)
		assert.Equal(t, []pinOp{{pinLatch, false}}, b.opsOn(pinLatch))
		assert.Equal(t, 4, len(b.opsOn(pinClock)))
		assert.Equal(t, pinDataIn, b.ops[len(b.ops)-1].pin)
	})

	t.Run("setter keeps new state", func(t *testing.T) {
		b := newBench()
		ob := newOpBox(t, b)

		b.failOn(pinDataIn, 3)
		err := ob.SetIndicator(D5, true)
		assert.Same(t, errInjected, err)
		assert.True(t, ob.State()[D5])

		// the driver stays usable
		b.reset()
		b.failOn("", 0)
		require.Nil(t, ob.Refresh())
		checkCycle(t, b, ob.State())
	})

	t.Run("latch commit", func(t *testing.T) {
		b := newBench()
		ob := newOpBox(t, b)

		b.reset()
		b.failOn(pinLatch, 2)
		err := ob.SetSegmentDisplay(Show(GlyphOne))
		assert.Same(t, errInjected, err)
		assert.Equal(t, OutputBits, len(b.shifted))
		assert.Empty(t, b.latched)
	})
}
