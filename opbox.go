// Package opbox drives the printer operator box: eight indicator LEDs, eight push
// buttons and one seven-segment display behind two daisy-chained 8-bit shift
// registers, using four lines (clock, latch, serial data out, serial data in).
//
// The box is bit-banged: every call shifts the full 16 bit output state out and
// samples the 8 button inputs in the same cycle. An OpBox owns its pins and is not
// safe for concurrent use.
package opbox

import (
	"github.com/pkg/errors"
)

const (
	// OutputBits is the length of both register chains together.
	OutputBits = 16
	// InputBits is the width of the button chain.
	InputBits = 8

	segmentOffset = 8
	segmentCount  = 7
)

var (
	ErrIndicatorRange = errors.New("indicator index out of range")
	ErrButtonRange    = errors.New("button index out of range")
)

// DigitalOutput drives a single line high or low.
type DigitalOutput interface {
	SetHigh() error
	SetLow() error
}

// DigitalInput reads the level of a single line.
type DigitalInput interface {
	IsHigh() (bool, error)
}

// OutputState mirrors the desired level of every output bit. Bits 0-7 are the
// indicators on the first chain, bits 8-14 the display segments, bit 15 is unused.
type OutputState [OutputBits]bool

// InputSample holds the button levels captured during one cycle.
type InputSample [InputBits]bool

// Indicator addresses one of the eight indicator LEDs (D1..D8).
type Indicator uint8

const (
	D1 Indicator = iota
	D2
	D3
	D4
	D5
	D6
	D7
	D8
)

// Button addresses one of the eight push buttons (S1..S8).
type Button uint8

const (
	S1 Button = iota
	S2
	S3
	S4
	S5
	S6
	S7
	S8
)

// OpBox is the operator box driver.
type OpBox struct {
	clock   DigitalOutput
	latch   DigitalOutput
	dataOut DigitalOutput
	dataIn  DigitalInput

	state OutputState
}

// New takes ownership of the four pins, which must already be configured for their
// direction, and runs one cycle to blank all outputs. A pin error during that
// cycle is returned unchanged and no driver is returned.
func New(clock, latch, dataOut DigitalOutput, dataIn DigitalInput) (*OpBox, error) {
	ob := &OpBox{
		clock:   clock,
		latch:   latch,
		dataOut: dataOut,
		dataIn:  dataIn,
	}

	if _, err := ob.shiftAndLatch(); err != nil {
		return nil, err
	}

	return ob, nil
}

// SetIndicator switches one indicator LED and re-transmits the whole state.
func (ob *OpBox) SetIndicator(led Indicator, on bool) error {
	if led > D8 {
		return ErrIndicatorRange
	}
	ob.state[led] = on
	return ob.Refresh()
}

// SetReserved writes the ninth indicator slot of the board (D9).
//
// It shares bit 8 with the first display segment, so the next SetSegmentDisplay
// overwrites it and vice versa.
func (ob *OpBox) SetReserved(on bool) error {
	ob.state[segmentOffset] = on
	return ob.Refresh()
}

// SetSegmentDisplay shows the given glyph on the seven-segment display.
func (ob *OpBox) SetSegmentDisplay(display SegmentDisplay) error {
	pattern := display.Pattern()
	copy(ob.state[segmentOffset:segmentOffset+segmentCount], pattern[:])
	return ob.Refresh()
}

// Button runs a cycle and returns the level of one button.
func (ob *OpBox) Button(button Button) (bool, error) {
	if button > S8 {
		return false, ErrButtonRange
	}
	sample, err := ob.shiftAndLatch()
	if err != nil {
		return false, err
	}
	return sample[button], nil
}

// Buttons runs a cycle and returns all eight button levels.
func (ob *OpBox) Buttons() (InputSample, error) {
	return ob.shiftAndLatch()
}

// Refresh re-transmits the current output state.
func (ob *OpBox) Refresh() error {
	_, err := ob.shiftAndLatch()
	return err
}

// State returns a copy of the in-memory output state.
func (ob *OpBox) State() OutputState {
	return ob.state
}
