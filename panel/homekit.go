package panel

import (
	"context"
	"fmt"
	"hash/fnv"

	dnslog "github.com/brutella/dnssd/log"
	"github.com/brutella/hap"
	"github.com/brutella/hap/accessory"
	"github.com/brutella/hap/characteristic"
	hklog "github.com/brutella/hap/log"
	"github.com/brutella/hap/service"
	"github.com/pkg/errors"

	"github.com/hubertat/opbox"
)

const defaultHomeKitDirectory = "./homekit"
const homeKitBridgeAuthor = "github.com/hubertat"

type hkIndicator struct {
	sw    *accessory.Switch
	fault *characteristic.StatusFault
}

func (hi *hkIndicator) sync(on bool, err error) {
	if err != nil {
		hi.fault.SetValue(characteristic.StatusFaultGeneralFault)
	} else {
		hi.fault.SetValue(characteristic.StatusFaultNoFault)
	}
	hi.sw.Switch.On.SetValue(on)
}

// mirrorHomeKit pushes the output mirror to the indicator switches after a
// cycle. Callers hold p.lock.
func (p *Panel) mirrorHomeKit(err error) error {
	if errors.Is(err, opbox.ErrIndicatorRange) || errors.Is(err, opbox.ErrButtonRange) {
		return err
	}
	state := p.box.State()
	for i, hi := range p.hkIndicators {
		hi.sync(state[i], err)
	}
	return err
}

type hkButton struct {
	ss *service.StatelessProgrammableSwitch
}

func (hb *hkButton) fire() {
	hb.ss.ProgrammableSwitchEvent.SetValue(characteristic.ProgrammableSwitchEventSinglePress)
}

// hkForwarder fires the HomeKit single press event on every press edge.
type hkForwarder struct {
	panel *Panel
}

func (hf *hkForwarder) ButtonChanged(ev ButtonEvent) {
	if !ev.Pressed || int(ev.Button) >= len(hf.panel.hkButtons) {
		return
	}
	hf.panel.hkButtons[ev.Button].fire()
}

func (p *Panel) uniqueId(kind string, index int) uint64 {
	hash := fnv.New64()
	hash.Write([]byte(fmt.Sprintf("%s_%s_%d", p.name(), kind, index)))
	return hash.Sum64()
}

// HomeKitAccessories builds one switch per indicator and one stateless
// programmable switch per button.
func (p *Panel) HomeKitAccessories(firmwareVersion string) (acc []*accessory.A) {
	indicators := []*hkIndicator{}
	buttons := []*hkButton{}

	for i := opbox.D1; i <= opbox.D8; i++ {
		led := i
		sw := accessory.NewSwitch(accessory.Info{
			Name:         fmt.Sprintf("%s D%d", p.name(), led+1),
			SerialNumber: fmt.Sprintf("indicator:%s:%d", p.name(), led+1),
			Manufacturer: homeKitBridgeAuthor,
			Firmware:     firmwareVersion,
		})
		sw.Id = p.uniqueId("Indicator", int(led))

		fault := characteristic.NewStatusFault()
		fault.SetValue(characteristic.StatusFaultNoFault)
		sw.Switch.AddC(fault.C)

		sw.Switch.On.OnValueRemoteUpdate(func(on bool) {
			if err := p.SetIndicator(led, on); err != nil {
				p.logger.Error("homekit indicator update failed", "index", led+1, "err", err)
			}
		})
		indicators = append(indicators, &hkIndicator{sw: sw, fault: fault})
		acc = append(acc, sw.A)
	}

	for i := opbox.S1; i <= opbox.S8; i++ {
		a := accessory.New(accessory.Info{
			Name:         fmt.Sprintf("%s S%d", p.name(), i+1),
			SerialNumber: fmt.Sprintf("button:%s:%d", p.name(), i+1),
			Manufacturer: homeKitBridgeAuthor,
			Firmware:     firmwareVersion,
		}, accessory.TypeProgrammableSwitch)
		a.Id = p.uniqueId("Button", int(i))

		ss := service.NewStatelessProgrammableSwitch()
		a.AddS(ss.S)
		buttons = append(buttons, &hkButton{ss: ss})
		acc = append(acc, a)
	}

	p.lock.Lock()
	defer p.lock.Unlock()

	p.hkIndicators = indicators
	p.hkButtons = buttons
	if p.box != nil {
		p.mirrorHomeKit(nil)
	}
	return
}

// StartHomeKit serves the accessories until ctx is done.
func (p *Panel) StartHomeKit(ctx context.Context, firmwareVersion string) error {
	bridge := accessory.NewBridge(accessory.Info{
		Name:         p.name(),
		Manufacturer: homeKitBridgeAuthor,
		Firmware:     firmwareVersion,
	})

	accessories := p.HomeKitAccessories(firmwareVersion)
	p.Subscribe(&hkForwarder{panel: p})

	var store hap.Store
	if len(p.HkDirectory) > 1 {
		store = hap.NewFsStore(p.HkDirectory)
	} else {
		store = hap.NewFsStore(defaultHomeKitDirectory)
	}
	hkServer, err := hap.NewServer(store, bridge.A, accessories...)
	if err != nil {
		return errors.Wrap(err, "failed to create HomeKit server")
	}
	hkServer.Pin = p.HkPin
	if len(p.HkAddress) > 0 {
		hkServer.Addr = p.HkAddress
	}

	if p.HkDebug {
		hklog.Debug.Enable()
		dnslog.Debug.Enable()
	}

	p.logger.Info("starting HomeKit server", "accessories", len(accessories))
	return hkServer.ListenAndServe(ctx)
}
