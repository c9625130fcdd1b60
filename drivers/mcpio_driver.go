package drivers

import (
	"context"

	"github.com/pkg/errors"
	"github.com/racerxdl/go-mcp23017"
)

const mcpioDriverName = "mcpio"

// McpIO uses an MCP23017 port expander on an I2C bus.
type McpIO struct {
	device *mcp23017.Device

	inputs  []*McpInput
	outputs []*McpOutput
	isReady bool

	BusNo         uint8
	DevNo         uint8
	InvertInputs  bool
	InvertOutputs bool
}

type McpInput struct {
	pin    uint8
	invert bool

	driver *McpIO
}

type McpOutput struct {
	pin    uint8
	invert bool

	driver *McpIO
}

func (min *McpInput) IsHigh() (state bool, err error) {
	if !min.driver.isReady {
		err = ErrNotReady
		return
	}

	rawState, err := min.driver.device.DigitalRead(min.pin)
	if err != nil {
		err = errors.Wrapf(err, "mcp23017 read pin %d", min.pin)
		return
	}

	state = bool(rawState)
	if min.invert {
		state = !state
	}
	return
}

func (mout *McpOutput) write(state bool) (err error) {
	if !mout.driver.isReady {
		return ErrNotReady
	}

	if mout.invert {
		state = !state
	}

	err = mout.driver.device.DigitalWrite(mout.pin, mcp23017.PinLevel(state))
	if err != nil {
		err = errors.Wrapf(err, "mcp23017 write pin %d", mout.pin)
	}
	return
}

func (mout *McpOutput) SetHigh() error {
	return mout.write(true)
}

func (mout *McpOutput) SetLow() error {
	return mout.write(false)
}

func (mcp *McpIO) String() string {
	return mcpioDriverName
}

func (mcp *McpIO) IsReady() bool {
	return mcp.isReady
}

func (mcp *McpIO) Setup(ctx context.Context, inputs []uint16, outputs []uint16) (err error) {
	if err = checkPins8(inputs, outputs); err != nil {
		return
	}

	mcp.device, err = mcp23017.Open(mcp.BusNo, mcp.DevNo)
	if err != nil {
		err = errors.Wrapf(err, "failed to open mcp23017 (bus %d, dev %d)", mcp.BusNo, mcp.DevNo)
		return
	}

	for _, inputPin := range inputs {
		err = mcp.device.PinMode(uint8(inputPin), mcp23017.INPUT)
		if err != nil {
			return
		}
		err = mcp.device.SetPullUp(uint8(inputPin), true)
		if err != nil {
			return
		}
		mcp.inputs = append(mcp.inputs, &McpInput{pin: uint8(inputPin), invert: mcp.InvertInputs, driver: mcp})
	}

	for _, outputPin := range outputs {
		err = mcp.device.PinMode(uint8(outputPin), mcp23017.OUTPUT)
		if err != nil {
			return
		}
		mcp.outputs = append(mcp.outputs, &McpOutput{pin: uint8(outputPin), invert: mcp.InvertOutputs, driver: mcp})
	}

	mcp.isReady = true

	return
}

func (mcp *McpIO) GetInput(id uint16) (input DigitalInput, err error) {
	for _, in := range mcp.inputs {
		if uint16(in.pin) == id {
			input = in
			return
		}
	}

	err = errors.Errorf("mcpio input (id: %d) not found", id)
	return
}

func (mcp *McpIO) GetOutput(id uint16) (output DigitalOutput, err error) {
	for _, out := range mcp.outputs {
		if uint16(out.pin) == id {
			output = out
			return
		}
	}

	err = errors.Errorf("mcpio output (id: %d) not found", id)
	return
}

func (mcp *McpIO) Close() error {
	if mcp.device == nil {
		return nil
	}
	for _, output := range mcp.outputs {
		output.SetLow()
	}
	mcp.isReady = false
	return mcp.device.Close()
}

func (mcp *McpIO) GetAllIo() (inputs []uint16, outputs []uint16) {
	for _, input := range mcp.inputs {
		inputs = append(inputs, uint16(input.pin))
	}

	for _, output := range mcp.outputs {
		outputs = append(outputs, uint16(output.pin))
	}

	return
}
