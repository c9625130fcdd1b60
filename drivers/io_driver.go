package drivers

import (
	"context"

	"github.com/pkg/errors"

	"github.com/hubertat/opbox"
)

// ErrNotReady is returned by pins whose driver was not set up or was already closed.
var ErrNotReady = errors.New("io driver not ready")

const maxPin8 = 255

type IoDriver interface {
	Setup(ctx context.Context, inputs []uint16, outputs []uint16) error
	Close() error
	String() string
	IsReady() bool
	GetInput(pin uint16) (DigitalInput, error)
	GetOutput(pin uint16) (DigitalOutput, error)
	GetAllIo() (inputs []uint16, outputs []uint16)
}

func MapAllIoDrivers() map[string]IoDriver {
	drivers := []IoDriver{
		&GpIO{},
		&McpIO{},
		&CdevIO{},
		&PeriphIO{},
		&MockIoDriver{},
	}

	mapped := make(map[string]IoDriver)
	for _, driver := range drivers {
		mapped[driver.String()] = driver
	}
	return mapped
}

type DigitalInput = opbox.DigitalInput

type DigitalOutput = opbox.DigitalOutput

// Set drives out to the given level.
func Set(out DigitalOutput, level bool) error {
	if level {
		return out.SetHigh()
	}
	return out.SetLow()
}

func checkPins8(inputs []uint16, outputs []uint16) error {
	for _, pin := range inputs {
		if pin > maxPin8 {
			return errors.Errorf("input pin %d out of range (driver takes uint8 pin)", pin)
		}
	}
	for _, pin := range outputs {
		if pin > maxPin8 {
			return errors.Errorf("output pin %d out of range (driver takes uint8 pin)", pin)
		}
	}
	return nil
}
