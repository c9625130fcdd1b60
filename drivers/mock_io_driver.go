package drivers

import (
	"context"
	"fmt"
	"io"

	"github.com/pkg/errors"
)

const mockDriverName = "mock"

type MockOutput struct {
	state            bool
	pin              uint16
	driver           *MockIoDriver
	writeTo          io.Writer
	writeStateChange bool
}

func (mo *MockOutput) set(state bool) error {
	if !mo.driver.ready {
		return ErrNotReady
	}
	if mo.writeStateChange && state != mo.state {
		fmt.Fprintf(mo.writeTo, "[pin %d] state changed to %v\n", mo.pin, state)
	}
	mo.state = state
	return nil
}

func (mo *MockOutput) SetHigh() error {
	return mo.set(true)
}

func (mo *MockOutput) SetLow() error {
	return mo.set(false)
}

// State returns the level the output was last driven to.
func (mo *MockOutput) State() bool {
	return mo.state
}

type MockInput struct {
	State  bool
	pin    uint16
	driver *MockIoDriver
}

func (mi *MockInput) IsHigh() (bool, error) {
	if !mi.driver.ready {
		return false, ErrNotReady
	}
	return mi.State, nil
}

// MockIoDriver keeps all pins in memory. Handy for running the panel on a machine
// without any GPIO hardware.
type MockIoDriver struct {
	inputs  []*MockInput
	outputs []*MockOutput
	ready   bool
}

func (md *MockIoDriver) Setup(ctx context.Context, inputs []uint16, outputs []uint16) error {
	for _, inPin := range inputs {
		md.inputs = append(md.inputs, &MockInput{pin: inPin, driver: md})
	}
	for _, outPin := range outputs {
		md.outputs = append(md.outputs, &MockOutput{pin: outPin, driver: md})
	}
	md.ready = true
	return nil
}

func (md *MockIoDriver) Close() error {
	md.ready = false
	return nil
}

func (md *MockIoDriver) String() string {
	return mockDriverName
}

func (md *MockIoDriver) IsReady() bool {
	return md.ready
}

func (md *MockIoDriver) GetInput(pin uint16) (DigitalInput, error) {
	for _, input := range md.inputs {
		if pin == input.pin {
			return input, nil
		}
	}
	return nil, errors.Errorf("mock input %d not found", pin)
}

func (md *MockIoDriver) GetOutput(pin uint16) (DigitalOutput, error) {
	for _, output := range md.outputs {
		if pin == output.pin {
			return output, nil
		}
	}
	return nil, errors.Errorf("mock output %d not found", pin)
}

// SetInput sets the level reported by the given input pin.
func (md *MockIoDriver) SetInput(pin uint16, state bool) error {
	for _, input := range md.inputs {
		if pin == input.pin {
			input.State = state
			return nil
		}
	}
	return errors.Errorf("mock input %d not found", pin)
}

func (md *MockIoDriver) GetAllIo() (inputs []uint16, outputs []uint16) {
	for _, input := range md.inputs {
		inputs = append(inputs, input.pin)
	}
	for _, output := range md.outputs {
		outputs = append(outputs, output.pin)
	}
	return
}

func (md *MockIoDriver) MonitorStateChanges(writer io.Writer) {
	for _, out := range md.outputs {
		out.writeTo = writer
		out.writeStateChange = true
	}
}
