package main

import (
	"context"
	"encoding/json"
	"flag"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	"github.com/hubertat/servicemaker"

	"github.com/hubertat/opbox/panel"
)

const defaultPollInterval = "50ms"

var (
	Version string
	Build   string

	config       = flag.String("config", "config.json", "path of the configuration file")
	flagInstall  = flag.Bool("install", false, "Install service in os")
	pollInterval = flag.String("poll", defaultPollInterval, "button poll interval (time.Duration)")
	logLevel     = flag.String("log-level", "info", "log level (debug, info, warn, error)")

	opboxService = servicemaker.ServiceMaker{
		User:               "opbox",
		UserGroups:         []string{"gpio", "i2c"},
		ServicePath:        "/etc/systemd/system/opbox.service",
		ServiceDescription: "OpBox service: operator box (LEDs, buttons, 7-segment display) over HTTP, MQTT and HomeKit. github.com/hubertat/opbox",
		ExecDir:            "/srv/opbox",
		ExecName:           "opbox",
	}
)

func loadConfig(path string) (*panel.Panel, error) {
	configFile, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer configFile.Close()

	cBuff, err := io.ReadAll(configFile)
	if err != nil {
		return nil, err
	}

	p := &panel.Panel{}
	err = json.Unmarshal(cBuff, p)
	return p, err
}

func main() {
	flag.Parse()

	level, err := log.ParseLevel(*logLevel)
	if err != nil {
		log.Fatal("invalid log level", "level", *logLevel)
	}
	log.SetLevel(level)
	log.SetReportTimestamp(true)

	log.Info("opbox started", "version", Version, "build", Build)

	if *flagInstall {
		err := opboxService.InstallService()
		if err != nil {
			log.Fatal("failed to install service", "err", err)
		}
		log.Info("service installed!")
		return
	}

	pollDuration, err := time.ParseDuration(*pollInterval)
	if err != nil {
		log.Fatal("invalid poll interval", "poll", *pollInterval, "err", err)
	}

	p, err := loadConfig(*config)
	if err != nil {
		log.Fatal("can't read config file, will terminate", "config", *config, "err", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	log.Info("will init operator box...")
	err = p.Init(ctx)
	defer p.Close()
	if err != nil {
		log.Error("failed to init operator box", "err", err)
		return
	}

	if p.Mock != nil {
		p.Mock.MonitorStateChanges(os.Stdout)
	}

	if len(p.HttpAddr) > 0 {
		p.StartHttp()
	}

	if len(p.MqttBroker) > 0 {
		err = p.InitMqtt()
		if err != nil {
			log.Error("mqtt disabled", "err", err)
		}
	}

	if p.Influx != nil {
		err = p.InitInflux()
		if err != nil {
			log.Error("influx disabled", "err", err)
		}
	}

	if len(p.HkPin) == 8 {
		go p.Poll(ctx, pollDuration)

		log.Info("starting with HomeKit server")
		err = p.StartHomeKit(ctx, Version)
		if err != nil {
			log.Error("HomeKit server stopped", "err", err)
		}
		return
	}

	log.Info("HomeKit not configured, disabled")
	p.Poll(ctx, pollDuration)
}
