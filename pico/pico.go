//go:build tinygo

// Package pico runs the operator box straight from a microcontroller's GPIO pins.
package pico

import (
	"machine"

	"github.com/hubertat/opbox"
)

type Output struct {
	pin machine.Pin
}

func (o Output) SetHigh() error {
	o.pin.High()
	return nil
}

func (o Output) SetLow() error {
	o.pin.Low()
	return nil
}

type Input struct {
	pin machine.Pin
}

func (i Input) IsHigh() (bool, error) {
	return i.pin.Get(), nil
}

// Pins are the four machine pins wired to the box connector.
type Pins struct {
	Clock   machine.Pin
	Latch   machine.Pin
	DataOut machine.Pin
	DataIn  machine.Pin
}

// PicoType1 is the wiring used on the first pico carrier board.
func PicoType1() Pins {
	return Pins{
		Clock:   machine.GP2,
		Latch:   machine.GP3,
		DataOut: machine.GP4,
		DataIn:  machine.GP16,
	}
}

// Open configures the pins and returns a blanked box.
func Open(p Pins) (*opbox.OpBox, error) {
	for _, out := range []machine.Pin{p.Clock, p.Latch, p.DataOut} {
		out.Configure(machine.PinConfig{Mode: machine.PinOutput})
	}
	p.DataIn.Configure(machine.PinConfig{Mode: machine.PinInputPulldown})

	return opbox.New(Output{p.Clock}, Output{p.Latch}, Output{p.DataOut}, Input{p.DataIn})
}
