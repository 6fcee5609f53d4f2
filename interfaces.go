package racelogger

import (
	"context"

	"github.com/jd3nn1s/kw1281"
	"github.com/jd3nn1s/racelogger/canbus"
	"github.com/jd3nn1s/racelogger/canmap"
	"github.com/jd3nn1s/racelogger/sample"
	"github.com/jd3nn1s/skytraq"
)

type KW1281 interface {
	Close() error
	Start(context.Context, kw1281.Callbacks) error
}

type GPS interface {
	Close() error
	Start(context.Context, skytraq.Callbacks) error
}

// CANBus is a source of received CAN frames.
type CANBus interface {
	Close() error
	Start(context.Context, canbus.FrameHandler) error
}

// FrameSender transmits CAN frames.
type FrameSender interface {
	Send(canmap.Frame) error
}

// Forwarder receives every record that sampled at least one channel. Forward
// is called on the tick goroutine and must not block.
type Forwarder interface {
	Forward(*sample.Record) error
}
