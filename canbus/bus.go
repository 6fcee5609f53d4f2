// Package canbus delivers received CAN frames to a handler, either through a
// brutella/can bus or a raw SocketCAN receiver.
package canbus

import (
	"context"

	"github.com/brutella/can"
	"github.com/jd3nn1s/racelogger/canmap"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// FrameHandler is called on the receiving goroutine for every frame.
type FrameHandler func(canmap.Frame)

type Bus interface {
	SubscribeFunc(can.HandlerFunc)
	ConnectAndPublish() error
	Disconnect() error
	Publish(can.Frame) error
}

// to allow testing
var newBus = func(name string) (Bus, error) {
	bus, err := can.NewBusForInterfaceWithName(name)
	if err != nil {
		return nil, err
	}
	return bus, nil
}

// Connection reads frames from a named CAN interface.
type Connection struct {
	name    string
	bus     Bus
	handler FrameHandler
}

func Connect(name string) (*Connection, error) {
	bus, err := newBus(name)
	if err != nil {
		return nil, errors.Wrapf(err, "unable to open can interface %s", name)
	}
	return &Connection{
		name: name,
		bus:  bus,
	}, nil
}

// Start subscribes handler and blocks until the bus is disconnected, either
// by Close or by ctx being done.
func (c *Connection) Start(ctx context.Context, handler FrameHandler) error {
	c.handler = handler
	c.bus.SubscribeFunc(c.handleFrame)
	log.WithField("interface", c.name).Info("CAN bus opened and subscribed")

	go func() {
		<-ctx.Done()
		log.WithField("err", ctx.Err()).Info("stopping can bus")
		if err := c.bus.Disconnect(); err != nil {
			log.WithField("err", err).Warn("unable to disconnect canbus after context")
		}
	}()

	return c.bus.ConnectAndPublish()
}

func (c *Connection) Close() error {
	if c.bus == nil {
		return errors.New("can bus not connected")
	}
	return c.bus.Disconnect()
}

// Send publishes a frame on the bus.
func (c *Connection) Send(f canmap.Frame) error {
	if c.bus == nil {
		return errors.New("can bus not connected")
	}
	return c.bus.Publish(can.Frame{
		ID:     f.ID,
		Length: f.Length,
		Data:   f.Data,
	})
}

func (c *Connection) handleFrame(frame can.Frame) {
	log.WithField("canID", frame.ID).
		WithField("length", frame.Length).
		Debug("received canbus frame")

	if c.handler == nil {
		log.WithField("canID", frame.ID).Debug("no frame handler registered")
		return
	}
	c.handler(toFrame(frame.ID, frame.Length, frame.Data))
}

func toFrame(id uint32, length uint8, data [canmap.MaxDataLength]byte) canmap.Frame {
	if length > canmap.MaxDataLength {
		length = canmap.MaxDataLength
	}
	return canmap.Frame{
		ID:     id,
		Length: length,
		Data:   data,
	}
}
