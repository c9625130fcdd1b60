// Package panel runs an operator box as a service: it owns the driver, serializes
// access to it, polls the buttons and exposes the box over HTTP, MQTT and HomeKit.
package panel

import (
	"context"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/pkg/errors"

	"github.com/hubertat/opbox"
	"github.com/hubertat/opbox/drivers"
	"github.com/hubertat/opbox/mqtt"
)

const defaultPanelName = "opbox"

// Pins are the backend pin numbers of the four box lines.
type Pins struct {
	Clock   uint16
	Latch   uint16
	DataOut uint16
	DataIn  uint16
}

func (p Pins) validate() error {
	all := []uint16{p.Clock, p.Latch, p.DataOut, p.DataIn}
	for i := range all {
		for j := i + 1; j < len(all); j++ {
			if all[i] == all[j] {
				return errors.Errorf("pin %d used for more than one line", all[i])
			}
		}
	}
	return nil
}

// Panel is both the JSON configuration and the running service.
type Panel struct {
	Name string
	Pins Pins

	// buttons pull the line low when pressed
	InvertButtons bool

	Gpio     *drivers.GpIO
	Mcp23017 *drivers.McpIO
	Cdev     *drivers.CdevIO
	Periph   *drivers.PeriphIO
	Mock     *drivers.MockIoDriver

	HkPin       string
	HkDirectory string
	HkAddress   string
	HkDebug     bool

	HttpAddr string

	MqttBroker string
	MqttPrefix string

	Influx *InfluxSink

	driver drivers.IoDriver
	box    *opbox.OpBox

	lock      sync.Mutex
	display   opbox.SegmentDisplay
	last      opbox.InputSample
	listeners []ButtonListener

	logger       *log.Logger
	mqttClient   *mqtt.MqttClient
	httpServer   *http.Server
	hkIndicators []*hkIndicator
	hkButtons    []*hkButton
}

func (p *Panel) name() string {
	if len(p.Name) > 0 {
		return p.Name
	}
	return defaultPanelName
}

func (p *Panel) selectDriver() (drivers.IoDriver, error) {
	selected := []drivers.IoDriver{}
	if p.Gpio != nil {
		selected = append(selected, p.Gpio)
	}
	if p.Mcp23017 != nil {
		selected = append(selected, p.Mcp23017)
	}
	if p.Cdev != nil {
		selected = append(selected, p.Cdev)
	}
	if p.Periph != nil {
		selected = append(selected, p.Periph)
	}
	if p.Mock != nil {
		selected = append(selected, p.Mock)
	}

	if len(selected) != 1 {
		return nil, errors.Errorf("exactly one io driver must be configured, got %d", len(selected))
	}
	return selected[0], nil
}

// Init sets up the io driver and the box. The box starts blank.
func (p *Panel) Init(ctx context.Context) error {
	p.logger = log.NewWithOptions(os.Stderr, log.Options{
		Prefix:          "Panel " + p.name() + ": ",
		Level:           log.GetLevel(),
		ReportTimestamp: true,
	})

	if err := p.Pins.validate(); err != nil {
		return err
	}

	driver, err := p.selectDriver()
	if err != nil {
		return err
	}

	err = driver.Setup(ctx, []uint16{p.Pins.DataIn}, []uint16{p.Pins.Clock, p.Pins.Latch, p.Pins.DataOut})
	if err != nil {
		return errors.Wrapf(err, "failed to setup %s driver", driver)
	}
	p.driver = driver

	clock, err := driver.GetOutput(p.Pins.Clock)
	if err != nil {
		return errors.Wrap(err, "clock pin")
	}
	latch, err := driver.GetOutput(p.Pins.Latch)
	if err != nil {
		return errors.Wrap(err, "latch pin")
	}
	dataOut, err := driver.GetOutput(p.Pins.DataOut)
	if err != nil {
		return errors.Wrap(err, "data out pin")
	}
	dataIn, err := driver.GetInput(p.Pins.DataIn)
	if err != nil {
		return errors.Wrap(err, "data in pin")
	}

	p.box, err = opbox.New(clock, latch, dataOut, dataIn)
	if err != nil {
		return errors.Wrap(err, "failed to initialize operator box")
	}
	p.display = opbox.Custom(opbox.SegmentPattern{})

	p.logger.Info("operator box ready", "driver", driver.String(), "pins", p.Pins)
	return nil
}

func (p *Panel) ready() error {
	if p.box == nil {
		return errors.New("panel not initialized")
	}
	return nil
}

func (p *Panel) SetIndicator(led opbox.Indicator, on bool) error {
	if err := p.ready(); err != nil {
		return err
	}
	p.lock.Lock()
	defer p.lock.Unlock()

	return p.mirrorHomeKit(p.box.SetIndicator(led, on))
}

func (p *Panel) SetReserved(on bool) error {
	if err := p.ready(); err != nil {
		return err
	}
	p.lock.Lock()
	defer p.lock.Unlock()

	err := p.mirrorHomeKit(p.box.SetReserved(on))
	// bit 8 is the first segment, so a changed glyph is no longer that glyph
	if p.display.Pattern() != p.segments() {
		p.display = opbox.Custom(p.segments())
	}
	return err
}

func (p *Panel) SetDisplay(display opbox.SegmentDisplay) error {
	if err := p.ready(); err != nil {
		return err
	}
	p.lock.Lock()
	defer p.lock.Unlock()

	p.display = display
	return p.mirrorHomeKit(p.box.SetSegmentDisplay(display))
}

// Button reads one button, true meaning pressed.
func (p *Panel) Button(button opbox.Button) (bool, error) {
	if err := p.ready(); err != nil {
		return false, err
	}
	p.lock.Lock()
	defer p.lock.Unlock()

	level, err := p.box.Button(button)
	if err = p.mirrorHomeKit(err); err != nil {
		return false, err
	}
	return level != p.InvertButtons, nil
}

// Buttons reads all buttons in one cycle, true meaning pressed.
func (p *Panel) Buttons() (pressed opbox.InputSample, err error) {
	if err = p.ready(); err != nil {
		return
	}
	p.lock.Lock()
	defer p.lock.Unlock()

	pressed, err = p.box.Buttons()
	if err = p.mirrorHomeKit(err); err != nil {
		return
	}
	if p.InvertButtons {
		for i := range pressed {
			pressed[i] = !pressed[i]
		}
	}
	return
}

// Snapshot is the panel state as reported over HTTP.
type Snapshot struct {
	Indicators [8]bool `json:"indicators"`
	Reserved   bool    `json:"reserved"`
	Display    string  `json:"display"`
	Segments   string  `json:"segments"`
	Buttons    [8]bool `json:"buttons"`
}

// Snapshot returns the output mirror and the last polled buttons. It does not touch
// the hardware.
func (p *Panel) Snapshot() (snap Snapshot, err error) {
	if err = p.ready(); err != nil {
		return
	}
	p.lock.Lock()
	defer p.lock.Unlock()

	state := p.box.State()
	copy(snap.Indicators[:], state[:8])
	snap.Reserved = state[8]

	snap.Segments = p.segments().String()
	snap.Display = p.display.String()
	snap.Buttons = p.last
	return
}

// segments is the display part of the output mirror. Callers hold p.lock.
func (p *Panel) segments() (pattern opbox.SegmentPattern) {
	state := p.box.State()
	copy(pattern[:], state[8:15])
	return
}

// Blank switches every indicator and segment off.
func (p *Panel) Blank() error {
	for led := opbox.D1; led <= opbox.D8; led++ {
		if err := p.SetIndicator(led, false); err != nil {
			return err
		}
	}
	return p.SetDisplay(opbox.Custom(opbox.SegmentPattern{}))
}

func (p *Panel) Close() (err error) {
	if p.box != nil {
		if blankErr := p.Blank(); blankErr != nil {
			p.logger.Warn("failed to blank panel", "err", blankErr)
		}
	}

	if p.httpServer != nil {
		ctx, cancel := context.WithTimeout(context.Background(), httpTimeout)
		defer cancel()
		if closeErr := p.httpServer.Shutdown(ctx); closeErr != nil {
			err = errors.Wrap(closeErr, "http shutdown")
		}
	}

	if p.mqttClient != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if closeErr := p.mqttClient.Disconnect(ctx); closeErr != nil && err == nil {
			err = errors.Wrap(closeErr, "mqtt disconnect")
		}
	}

	if p.Influx != nil {
		p.Influx.Close()
	}

	if p.driver != nil {
		if closeErr := p.driver.Close(); closeErr != nil && err == nil {
			err = errors.Wrapf(closeErr, "failed to close %s driver", p.driver)
		}
	}

	return
}
