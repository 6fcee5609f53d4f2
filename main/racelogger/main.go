package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/jd3nn1s/racelogger"
	"github.com/jd3nn1s/racelogger/config"
	"github.com/jd3nn1s/racelogger/forwarder"
	"github.com/jd3nn1s/racelogger/sample"
	log "github.com/sirupsen/logrus"
)

var configPath = flag.String("config", "", "configuration file (.toml, .yaml or .yml)")
var testMode = flag.Bool("testmode", false, "generate test data")
var printSamples = flag.Bool("print-samples", false, "print sampled records to stdout")
var logLevel = flag.String("log-level", "", "override the configured log level")

type startable interface {
	Start(ctx context.Context) error
	Name() string
}

func main() {
	log.SetLevel(log.InfoLevel)
	flag.Parse()

	cfg := config.Default()
	if *configPath != "" {
		var err error
		cfg, err = config.Load(*configPath)
		if err != nil {
			log.Fatal("unable to load configuration: ", err)
		}
	}
	log.SetLevel(cfg.LogLevel())
	if *logLevel != "" {
		level, err := log.ParseLevel(*logLevel)
		if err != nil {
			log.Fatal("invalid log level: ", err)
		}
		log.SetLevel(level)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	rl, err := racelogger.NewLogger(cfg)
	if err != nil {
		log.Fatal("unable to create logger: ", err)
	}

	fwdCfg := cfg.Forwarder
	if fwdCfg.UDP.Server != "" {
		udp, err := forwarder.NewUDPForwarder(fwdCfg.UDP)
		if err != nil {
			log.Fatal("unable to load UDP forwarder: ", err)
		}
		defer udp.Close()
		startForwarder(ctx, udp)
		rl.AddForwarder(udp)
	}
	if fwdCfg.MQTT.Broker != "" {
		mqtt, err := forwarder.NewMQTTForwarder(fwdCfg.MQTT)
		if err != nil {
			log.Fatal("unable to load MQTT forwarder: ", err)
		}
		defer mqtt.Close()
		startForwarder(ctx, mqtt)
		rl.AddForwarder(mqtt)
	}
	if fwdCfg.CAN.Enabled {
		rl.AddForwarder(rl.CANForwarder(fwdCfg.CAN))
	}

	rl.SetTestMode(*testMode)
	rl.Start(ctx)

	var onRecord func(*sample.Record)
	if *printSamples {
		onRecord = func(r *sample.Record) {
			fmt.Printf("%+v\n", *r)
		}
	}
	if err := rl.Run(ctx, onRecord); err != nil && err != context.Canceled {
		log.Error("logger stopped: ", err)
	}
}

func startForwarder(ctx context.Context, fwd startable) {
	go func() {
		if err := fwd.Start(ctx); err != nil && err != context.Canceled {
			log.WithField("err", err).Errorf("%s forwarder stopped", fwd.Name())
		}
	}()
}
