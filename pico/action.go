package pico

import (
	"github.com/hubertat/opbox"
)

type Action int

const (
	ActionSwitchOn Action = iota
	ActionSwitchOff
	ActionToggle
)

// Box is the part of *opbox.OpBox the bindings need.
type Box interface {
	SetIndicator(opbox.Indicator, bool) error
	Buttons() (opbox.InputSample, error)
	State() opbox.OutputState
}

// Binding applies an action to an indicator whenever its button gets pressed.
type Binding struct {
	Button    opbox.Button
	Indicator opbox.Indicator
	Action    Action
}

func (b Binding) fire(box Box) error {
	switch b.Action {
	case ActionSwitchOn:
		return box.SetIndicator(b.Indicator, true)
	case ActionSwitchOff:
		return box.SetIndicator(b.Indicator, false)
	case ActionToggle:
		return box.SetIndicator(b.Indicator, !box.State()[b.Indicator])
	}
	return nil
}

// Bindings maps buttons to indicator actions, fired on the press edge.
type Bindings struct {
	box      Box
	bindings []Binding
	last     opbox.InputSample
}

func NewBindings(box Box, bindings ...Binding) *Bindings {
	return &Bindings{box: box, bindings: bindings}
}

// ToggleEach binds every button to toggle the indicator with the same number.
func ToggleEach() []Binding {
	bindings := []Binding{}
	for i := opbox.S1; i <= opbox.S8; i++ {
		bindings = append(bindings, Binding{Button: i, Indicator: opbox.Indicator(i), Action: ActionToggle})
	}
	return bindings
}

// Sync reads the buttons once and fires the bindings of newly pressed buttons.
func (bs *Bindings) Sync() error {
	sample, err := bs.box.Buttons()
	if err != nil {
		return err
	}

	for _, b := range bs.bindings {
		if sample[b.Button] && !bs.last[b.Button] {
			if err = b.fire(bs.box); err != nil {
				return err
			}
		}
	}
	bs.last = sample
	return nil
}
