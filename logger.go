// Package racelogger samples vehicle telemetry channels on a fixed tick and
// forwards every sampled record downstream.
package racelogger

import (
	"context"
	"sync"
	"time"

	"github.com/jd3nn1s/racelogger/config"
	"github.com/jd3nn1s/racelogger/sample"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// Logger owns the sample buffer and drives it from the tick. Reconfigure and
// Tick are serialized so a rebuild always completes before the next tick.
type Logger struct {
	mu         sync.Mutex
	cfg        *config.Config
	buffer     *sample.Buffer
	tick       uint64
	forwarders []Forwarder
	testMode   bool

	readings *Readings
	virtual  *sample.VirtualRegistry
	canBus   *canBusRetryable
}

func NewLogger(cfg *config.Config) (*Logger, error) {
	l := &Logger{
		readings: NewReadings(),
		virtual:  sample.NewVirtualRegistry(),
	}
	l.canBus = &canBusRetryable{
		cfg:     cfg.CAN,
		virtual: l.virtual,
	}
	if err := l.Reconfigure(cfg); err != nil {
		return nil, err
	}
	return l, nil
}

// Readings returns the driver reading caches sampled by the logger.
func (l *Logger) Readings() *Readings {
	return l.readings
}

func (l *Logger) SetTestMode(testMode bool) {
	l.testMode = testMode
}

func (l *Logger) AddForwarder(fwd Forwarder) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.forwarders = append(l.forwarders, fwd)
}

// CANForwarder returns a forwarder publishing cfg's channel on the CAN bus
// connection opened by Start.
func (l *Logger) CANForwarder(cfg config.CANForwardConfig) *CANForwarder {
	return &CANForwarder{
		cfg:    cfg,
		sender: l.canBus.CANBus,
	}
}

func (l *Logger) drivers() sample.Drivers {
	return sample.Drivers{
		Analog:   l.readings,
		Timer:    l.readings,
		PWM:      l.readings,
		GPIO:     l.readings,
		IMU:      l.readings,
		OBD2:     l.readings,
		Position: l.readings,
		Laps:     l.readings,
		Virtual:  l.virtual,
	}
}

// Reconfigure validates cfg and rebuilds the sample buffer from it. CAN
// channels are re-registered as virtual channels. The tick counter restarts.
func (l *Logger) Reconfigure(cfg *config.Config) error {
	if err := cfg.Validate(); err != nil {
		return errors.Wrap(err, "invalid configuration")
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	l.canBus.remap(cfg.CAN)
	l.readings.SetOBD2Config(cfg.OBD2)

	l.cfg = cfg
	l.buffer = sample.Build(cfg, l.drivers())
	l.tick = 0

	log.WithField("channels", l.buffer.Len()).
		WithField("tickHz", cfg.TickHz).
		Info("sample buffer built")
	return nil
}

// Tick samples every channel due on the current tick and forwards the
// resulting record. It returns nil when no channel was due.
func (l *Logger) Tick() *sample.Record {
	l.mu.Lock()
	defer l.mu.Unlock()

	tick := l.tick
	l.tick++

	rate := l.buffer.Populate(tick)
	if rate == config.SampleDisabled {
		return nil
	}
	r := l.buffer.Snapshot(tick, rate)
	for _, fwd := range l.forwarders {
		if err := fwd.Forward(r); err != nil {
			log.WithField("err", err).Warn("unable to forward record")
		}
	}
	return r
}

// Run ticks at the configured rate until ctx is done. Each record is passed
// to onRecord when it is not nil.
func (l *Logger) Run(ctx context.Context, onRecord func(*sample.Record)) error {
	l.mu.Lock()
	period := time.Second / time.Duration(l.cfg.TickHz)
	l.mu.Unlock()

	ticker := time.NewTicker(period)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
		if r := l.Tick(); r != nil && onRecord != nil {
			onRecord(r)
		}
	}
}

// Start launches the driver runners for the current configuration, or the
// simulated drivers in test mode.
func (l *Logger) Start(ctx context.Context) {
	l.mu.Lock()
	cfg := l.cfg
	l.mu.Unlock()

	if l.testMode {
		l.runTestMode(ctx, cfg)
		return
	}

	if cfg.ECU.Enabled {
		go runECU(ctx, cfg.ECU.PortPath, l.readings)
	}
	switch cfg.GPS.Type {
	case config.GPSSkytraq:
		go runGPS(ctx, cfg.GPS.PortPath, l.readings)
	case config.GPSNMEA:
		go runNMEA(ctx, cfg.GPS.PortPath, cfg.GPS.BaudRate, l.readings)
	}
	if cfg.CAN.Enabled {
		go runCAN(ctx, l.canBus)
	}
}
