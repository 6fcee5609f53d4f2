package racelogger

import (
	"context"
	"sync"

	"github.com/jd3nn1s/racelogger/canbus"
	"github.com/jd3nn1s/racelogger/canmap"
	"github.com/jd3nn1s/racelogger/config"
	"github.com/jd3nn1s/racelogger/sample"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// canMapping binds a configured mapping to its virtual channel.
type canMapping struct {
	mapping canmap.Mapping
	virtual int
}

type canBusRetryable struct {
	cfg     config.CANConfig
	virtual *sample.VirtualRegistry

	// mu guards the connection and the mappings. The tick goroutine reads
	// the connection while the runner reconnects.
	mu       sync.RWMutex
	c        CANBus
	mappings []canMapping
}

// to allow testing
var canBusConnect = func(driver, iface string) (CANBus, error) {
	if driver == config.CANDriverSocketCAN {
		s, err := canbus.DialSocketCAN(iface)
		if err != nil {
			return nil, err
		}
		return s, nil
	}
	c, err := canbus.Connect(iface)
	if err != nil {
		return nil, err
	}
	return c, nil
}

// registerCANChannels adds a virtual channel for every enabled CAN mapping.
func registerCANChannels(cfg config.CANConfig, virtual *sample.VirtualRegistry) []canMapping {
	var mappings []canMapping
	for _, ch := range cfg.Channels {
		if !ch.Channel.Enabled() {
			continue
		}
		mappings = append(mappings, canMapping{
			mapping: ch.Mapping,
			virtual: virtual.Add(ch.Channel),
		})
	}
	return mappings
}

func (bus *canBusRetryable) Name() string {
	return "canbus"
}

func (bus *canBusRetryable) Open() error {
	c, err := canBusConnect(bus.cfg.Driver, bus.cfg.Interface)
	bus.mu.Lock()
	bus.c = c
	bus.mu.Unlock()
	return err
}

func (bus *canBusRetryable) Close() error {
	c := bus.CANBus()
	if c == nil {
		return nil
	}
	return c.Close()
}

func (bus *canBusRetryable) Start(ctx context.Context) error {
	c := bus.CANBus()
	if c == nil {
		return errors.New("canbus is not open")
	}
	return c.Start(ctx, bus.handleFrame)
}

// remap replaces the virtual channels and the mappings feeding them in one
// step, so no frame is stored under a stale mapping.
func (bus *canBusRetryable) remap(cfg config.CANConfig) {
	bus.mu.Lock()
	defer bus.mu.Unlock()
	bus.virtual.Reset()
	bus.mappings = registerCANChannels(cfg, bus.virtual)
}

// CANBus returns the open connection, or nil.
func (bus *canBusRetryable) CANBus() CANBus {
	bus.mu.RLock()
	defer bus.mu.RUnlock()
	return bus.c
}

// handleFrame stores the value of every mapping matching the frame. One
// frame may feed several channels.
func (bus *canBusRetryable) handleFrame(f canmap.Frame) {
	bus.mu.RLock()
	defer bus.mu.RUnlock()
	for _, m := range bus.mappings {
		v, ok := canmap.MapValue(f, m.mapping)
		if !ok {
			continue
		}
		bus.virtual.Set(m.virtual, v)
	}
}

func runCAN(ctx context.Context, bus *canBusRetryable) {
	err := retry(ctx, bus)
	if err != nil {
		log.Errorf("canbus done: %v", err)
	}
}
