package drivers

import (
	"context"

	"github.com/pkg/errors"
	"github.com/warthog618/go-gpiocdev"
)

const cdevDriverName = "cdev"
const defaultCdevChip = "gpiochip0"
const defaultCdevConsumer = "opbox"

// CdevIO requests lines from a Linux GPIO character device (e.g. /dev/gpiochip0).
type CdevIO struct {
	Chip          string
	Consumer      string
	InvertInputs  bool
	InvertOutputs bool

	inputs  []*CdevLine
	outputs []*CdevLine
	isReady bool
}

// CdevLine is a single requested line, usable as input or output depending on the request.
type CdevLine struct {
	offset uint16
	line   *gpiocdev.Line
	driver *CdevIO
}

func (cl *CdevLine) IsHigh() (bool, error) {
	if !cl.driver.isReady {
		return false, ErrNotReady
	}
	v, err := cl.line.Value()
	if err != nil {
		return false, errors.Wrapf(err, "cdev read line %d", cl.offset)
	}
	return v == 1, nil
}

func (cl *CdevLine) write(v int) error {
	if !cl.driver.isReady {
		return ErrNotReady
	}
	if err := cl.line.SetValue(v); err != nil {
		return errors.Wrapf(err, "cdev write line %d", cl.offset)
	}
	return nil
}

func (cl *CdevLine) SetHigh() error {
	return cl.write(1)
}

func (cl *CdevLine) SetLow() error {
	return cl.write(0)
}

func (cd *CdevIO) chip() string {
	if len(cd.Chip) > 0 {
		return cd.Chip
	}
	return defaultCdevChip
}

func (cd *CdevIO) consumer() string {
	if len(cd.Consumer) > 0 {
		return cd.Consumer
	}
	return defaultCdevConsumer
}

func (cd *CdevIO) Setup(ctx context.Context, inputs []uint16, outputs []uint16) error {
	for _, in := range inputs {
		opts := []gpiocdev.LineReqOption{gpiocdev.AsInput, gpiocdev.WithPullUp, gpiocdev.WithConsumer(cd.consumer())}
		if cd.InvertInputs {
			opts = append(opts, gpiocdev.AsActiveLow)
		}
		l, err := gpiocdev.RequestLine(cd.chip(), int(in), opts...)
		if err != nil {
			cd.release()
			return errors.Wrapf(err, "failed to request input line %d on %s", in, cd.chip())
		}
		cd.inputs = append(cd.inputs, &CdevLine{offset: in, line: l, driver: cd})
	}

	for _, out := range outputs {
		opts := []gpiocdev.LineReqOption{gpiocdev.AsOutput(0), gpiocdev.WithConsumer(cd.consumer())}
		if cd.InvertOutputs {
			opts = append(opts, gpiocdev.AsActiveLow)
		}
		l, err := gpiocdev.RequestLine(cd.chip(), int(out), opts...)
		if err != nil {
			cd.release()
			return errors.Wrapf(err, "failed to request output line %d on %s", out, cd.chip())
		}
		cd.outputs = append(cd.outputs, &CdevLine{offset: out, line: l, driver: cd})
	}

	cd.isReady = true
	return nil
}

func (cd *CdevIO) release() (err error) {
	for _, l := range append(cd.inputs, cd.outputs...) {
		if closeErr := l.line.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}
	cd.inputs = nil
	cd.outputs = nil
	return
}

func (cd *CdevIO) Close() error {
	for _, out := range cd.outputs {
		out.SetLow()
	}
	cd.isReady = false
	return cd.release()
}

func (cd *CdevIO) String() string {
	return cdevDriverName
}

func (cd *CdevIO) IsReady() bool {
	return cd.isReady
}

func (cd *CdevIO) GetInput(pin uint16) (DigitalInput, error) {
	for _, in := range cd.inputs {
		if in.offset == pin {
			return in, nil
		}
	}
	return nil, errors.Errorf("cdev input %d not found", pin)
}

func (cd *CdevIO) GetOutput(pin uint16) (DigitalOutput, error) {
	for _, out := range cd.outputs {
		if out.offset == pin {
			return out, nil
		}
	}
	return nil, errors.Errorf("cdev output %d not found", pin)
}

func (cd *CdevIO) GetAllIo() (inputs []uint16, outputs []uint16) {
	for _, in := range cd.inputs {
		inputs = append(inputs, in.offset)
	}
	for _, out := range cd.outputs {
		outputs = append(outputs, out.offset)
	}
	return
}
