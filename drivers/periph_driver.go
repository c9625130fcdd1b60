package drivers

import (
	"context"
	"strconv"

	"github.com/pkg/errors"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/host/v3"
)

const periphDriverName = "periph"

// PeriphIO resolves pins by number through the periph.io registry, so any host
// supported by periph.io/x/host works (Raspberry Pi, BeagleBone, Allwinner, sysfs).
type PeriphIO struct {
	InvertInputs  bool
	InvertOutputs bool

	inputs  []*PeriphPin
	outputs []*PeriphPin
	isReady bool
}

type PeriphPin struct {
	number uint16
	invert bool
	pin    gpio.PinIO
	driver *PeriphIO
}

func (pp *PeriphPin) IsHigh() (bool, error) {
	if !pp.driver.isReady {
		return false, ErrNotReady
	}
	state := pp.pin.Read() == gpio.High
	if pp.invert {
		state = !state
	}
	return state, nil
}

func (pp *PeriphPin) write(state bool) error {
	if !pp.driver.isReady {
		return ErrNotReady
	}
	if pp.invert {
		state = !state
	}
	if err := pp.pin.Out(gpio.Level(state)); err != nil {
		return errors.Wrapf(err, "periph write %s", pp.pin)
	}
	return nil
}

func (pp *PeriphPin) SetHigh() error {
	return pp.write(true)
}

func (pp *PeriphPin) SetLow() error {
	return pp.write(false)
}

func lookupPeriphPin(number uint16) (gpio.PinIO, error) {
	p := gpioreg.ByName(strconv.Itoa(int(number)))
	if p == nil {
		return nil, errors.Errorf("periph pin %d not found in registry", number)
	}
	return p, nil
}

func (pd *PeriphIO) Setup(ctx context.Context, inputs []uint16, outputs []uint16) error {
	if _, err := host.Init(); err != nil {
		return errors.Wrap(err, "failed to init periph host drivers")
	}

	for _, in := range inputs {
		p, err := lookupPeriphPin(in)
		if err != nil {
			return err
		}
		if err = p.In(gpio.PullUp, gpio.NoEdge); err != nil {
			return errors.Wrapf(err, "failed to configure %s as input", p)
		}
		pd.inputs = append(pd.inputs, &PeriphPin{number: in, invert: pd.InvertInputs, pin: p, driver: pd})
	}

	for _, out := range outputs {
		p, err := lookupPeriphPin(out)
		if err != nil {
			return err
		}
		if err = p.Out(gpio.Level(pd.InvertOutputs)); err != nil {
			return errors.Wrapf(err, "failed to configure %s as output", p)
		}
		pd.outputs = append(pd.outputs, &PeriphPin{number: out, invert: pd.InvertOutputs, pin: p, driver: pd})
	}

	pd.isReady = true
	return nil
}

func (pd *PeriphIO) Close() (err error) {
	for _, out := range pd.outputs {
		out.SetLow()
	}
	pd.isReady = false
	for _, p := range append(pd.inputs, pd.outputs...) {
		if haltErr := p.pin.Halt(); haltErr != nil && err == nil {
			err = errors.Wrapf(haltErr, "failed to halt %s", p.pin)
		}
	}
	return
}

func (pd *PeriphIO) String() string {
	return periphDriverName
}

func (pd *PeriphIO) IsReady() bool {
	return pd.isReady
}

func (pd *PeriphIO) GetInput(pin uint16) (DigitalInput, error) {
	for _, in := range pd.inputs {
		if in.number == pin {
			return in, nil
		}
	}
	return nil, errors.Errorf("periph input %d not found", pin)
}

func (pd *PeriphIO) GetOutput(pin uint16) (DigitalOutput, error) {
	for _, out := range pd.outputs {
		if out.number == pin {
			return out, nil
		}
	}
	return nil, errors.Errorf("periph output %d not found", pin)
}

func (pd *PeriphIO) GetAllIo() (inputs []uint16, outputs []uint16) {
	for _, in := range pd.inputs {
		inputs = append(inputs, in.number)
	}
	for _, out := range pd.outputs {
		outputs = append(outputs, out.number)
	}
	return
}
