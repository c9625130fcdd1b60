package panel

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/charmbracelet/log"
	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/pkg/errors"
)

const defaultInfluxMeasurement = "opbox_button"
const influxWriteTimeout = 2 * time.Second

// InfluxSink records every button change as a point.
type InfluxSink struct {
	Host         string
	Token        string
	Organization string
	Bucket       string
	Measurement  string

	panelName string
	client    influxdb2.Client
	write     api.WriteAPIBlocking
	logger    *log.Logger
}

func (is *InfluxSink) measurement() string {
	if len(is.Measurement) > 0 {
		return is.Measurement
	}
	return defaultInfluxMeasurement
}

func (is *InfluxSink) Setup(panelName string) error {
	if len(is.Host) == 0 || len(is.Bucket) == 0 {
		return errors.New("influx sink needs Host and Bucket")
	}

	is.panelName = panelName
	is.logger = log.NewWithOptions(os.Stderr, log.Options{
		Prefix: "InfluxSink: ",
		Level:  log.GetLevel(),
	})
	is.client = influxdb2.NewClient(is.Host, is.Token)
	is.write = is.client.WriteAPIBlocking(is.Organization, is.Bucket)
	return nil
}

func (is *InfluxSink) ButtonChanged(ev ButtonEvent) {
	point := influxdb2.NewPoint(
		is.measurement(),
		map[string]string{
			"panel":  is.panelName,
			"button": fmt.Sprintf("S%d", ev.Button+1),
		},
		map[string]interface{}{
			"pressed": ev.Pressed,
		},
		ev.At,
	)

	ctx, cancel := context.WithTimeout(context.Background(), influxWriteTimeout)
	defer cancel()

	if err := is.write.WritePoint(ctx, point); err != nil {
		is.logger.Error("failed to write button point", "err", err)
	}
}

func (is *InfluxSink) Close() {
	if is.client != nil {
		is.client.Close()
	}
}

// InitInflux starts writing button changes to the configured InfluxDB bucket.
func (p *Panel) InitInflux() error {
	if p.Influx == nil {
		return errors.New("influx not configured")
	}
	if err := p.Influx.Setup(p.name()); err != nil {
		return errors.Wrap(err, "failed to setup influx sink")
	}
	p.Subscribe(p.Influx)
	return nil
}
