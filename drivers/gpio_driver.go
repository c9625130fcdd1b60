package drivers

import (
	"context"

	"github.com/pkg/errors"
	"github.com/stianeikeland/go-rpio/v4"
)

const gpioDriverName = "gpio"

// GpIO drives Raspberry Pi header pins through /dev/gpiomem.
type GpIO struct {
	inputs  []*GpInput
	outputs []*GpOutput

	InvertInputs  bool
	InvertOutputs bool

	isReady bool
}

type GpInput struct {
	pin    uint8
	invert bool
	driver *GpIO
}

type GpOutput struct {
	pin    uint8
	invert bool
	driver *GpIO
}

func (gpi *GpInput) IsHigh() (state bool, err error) {
	if !gpi.driver.isReady {
		err = ErrNotReady
		return
	}

	state = rpio.Pin(gpi.pin).Read() == rpio.High
	if gpi.invert {
		state = !state
	}
	return
}

func (gpo *GpOutput) write(state bool) error {
	if !gpo.driver.isReady {
		return ErrNotReady
	}

	if gpo.invert {
		state = !state
	}
	if state {
		rpio.Pin(gpo.pin).High()
	} else {
		rpio.Pin(gpo.pin).Low()
	}

	return nil
}

func (gpo *GpOutput) SetHigh() error {
	return gpo.write(true)
}

func (gpo *GpOutput) SetLow() error {
	return gpo.write(false)
}

func (gp *GpIO) Setup(ctx context.Context, inputs []uint16, outputs []uint16) error {
	if err := checkPins8(inputs, outputs); err != nil {
		return err
	}

	err := rpio.Open()
	if err != nil {
		return errors.Wrapf(err, "failed to Setup gpio driver for pins: %v, %v; ", inputs, outputs)
	}

	for _, inPin := range inputs {
		pin := rpio.Pin(inPin)
		pin.Input()
		pin.PullUp()
		gp.inputs = append(gp.inputs, &GpInput{pin: uint8(inPin), invert: gp.InvertInputs, driver: gp})
	}

	for _, outPin := range outputs {
		pin := rpio.Pin(outPin)
		pin.Output()
		pin.Low()
		gp.outputs = append(gp.outputs, &GpOutput{pin: uint8(outPin), invert: gp.InvertOutputs, driver: gp})
	}

	gp.isReady = true
	return nil
}

func (gp *GpIO) String() string {
	return gpioDriverName
}

func (gp *GpIO) IsReady() bool {
	return gp.isReady
}

func (gp *GpIO) Close() error {
	if !gp.isReady {
		return nil
	}
	for _, output := range gp.outputs {
		output.SetLow()
	}
	gp.isReady = false
	return rpio.Close()
}

func (gp *GpIO) GetInput(id uint16) (input DigitalInput, err error) {
	for _, in := range gp.inputs {
		if uint16(in.pin) == id {
			input = in
			return
		}
	}

	err = errors.Errorf("GpIO Input (id: %d) not found", id)
	return
}

func (gp *GpIO) GetOutput(id uint16) (output DigitalOutput, err error) {
	for _, out := range gp.outputs {
		if uint16(out.pin) == id {
			output = out
			return
		}
	}

	err = errors.Errorf("GpIO Output (id: %d) not found", id)
	return
}

func (gp *GpIO) GetAllIo() (inputs []uint16, outputs []uint16) {
	for _, input := range gp.inputs {
		inputs = append(inputs, uint16(input.pin))
	}

	for _, output := range gp.outputs {
		outputs = append(outputs, uint16(output.pin))
	}

	return
}
