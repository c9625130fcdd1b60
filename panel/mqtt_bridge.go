package panel

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/eclipse/paho.golang/paho"
	"github.com/pkg/errors"

	"github.com/hubertat/opbox"
	"github.com/hubertat/opbox/mqtt"
)

func (p *Panel) mqttPrefix() string {
	if len(p.MqttPrefix) > 0 {
		return strings.TrimSuffix(p.MqttPrefix, "/")
	}
	return p.name()
}

type indicatorHandler struct {
	panel *Panel
}

func (ih *indicatorHandler) MqttSubscribeTopic() string {
	return ih.panel.mqttPrefix() + "/indicator/+/set"
}

// MqttHandle expects topics like <prefix>/indicator/3/set with an on/off payload.
func (ih *indicatorHandler) MqttHandle(pub *paho.Publish) {
	parts := strings.Split(pub.Topic, "/")
	if len(parts) < 3 {
		return
	}
	index, err := parseIndex(parts[len(parts)-2])
	if err != nil {
		ih.panel.logger.Warn("ignoring mqtt indicator command", "topic", pub.Topic, "err", err)
		return
	}
	on, err := parseState(strings.TrimSpace(string(pub.Payload)))
	if err != nil {
		ih.panel.logger.Warn("ignoring mqtt indicator command", "topic", pub.Topic, "err", err)
		return
	}
	if err = ih.panel.SetIndicator(opbox.Indicator(index), on); err != nil {
		ih.panel.logger.Error("failed to set indicator", "index", index+1, "err", err)
	}
}

type displayHandler struct {
	panel *Panel
}

func (dh *displayHandler) MqttSubscribeTopic() string {
	return dh.panel.mqttPrefix() + "/display/set"
}

func (dh *displayHandler) MqttHandle(pub *paho.Publish) {
	display, err := opbox.ParseSegmentDisplay(strings.TrimSpace(string(pub.Payload)))
	if err != nil {
		dh.panel.logger.Warn("ignoring mqtt display command", "err", err)
		return
	}
	if err = dh.panel.SetDisplay(display); err != nil {
		dh.panel.logger.Error("failed to set display", "display", display, "err", err)
	}
}

// buttonPublisher forwards button changes to <prefix>/button/<n>.
type buttonPublisher struct {
	prefix    string
	publisher mqtt.Publisher
	panel     *Panel
}

func (bp *buttonPublisher) ButtonChanged(ev ButtonEvent) {
	topic := fmt.Sprintf("%s/button/%d", bp.prefix, ev.Button+1)
	err := bp.publisher.Publish(topic, []byte(strconv.FormatBool(ev.Pressed)))
	if err != nil {
		bp.panel.logger.Error("failed to publish button change", "topic", topic, "err", err)
	}
}

func (p *Panel) mqttHandlers() []mqtt.MqttHandler {
	return []mqtt.MqttHandler{
		&indicatorHandler{panel: p},
		&displayHandler{panel: p},
	}
}

// InitMqtt connects to MqttBroker, subscribes to the command topics and publishes
// button changes.
func (p *Panel) InitMqtt() (err error) {
	if len(p.MqttBroker) == 0 {
		err = errors.New("mqtt broker not set")
		return
	}

	mc, err := mqtt.NewMqttClient(p.MqttBroker, p.name())
	if err != nil {
		err = errors.Wrap(err, "failed to create mqtt client")
		return
	}

	err = mc.Connect(p.mqttHandlers())
	if err != nil {
		err = errors.Wrap(err, "failed to connect to mqtt broker")
		return
	}

	p.mqttClient = mc
	p.Subscribe(&buttonPublisher{prefix: p.mqttPrefix(), publisher: mc, panel: p})
	return
}
