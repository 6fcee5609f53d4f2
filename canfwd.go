package racelogger

import (
	"encoding/binary"
	"math"

	"github.com/jd3nn1s/racelogger/canmap"
	"github.com/jd3nn1s/racelogger/config"
	"github.com/jd3nn1s/racelogger/sample"
	"github.com/pkg/errors"
)

// CANForwarder publishes one channel onto the CAN bus whenever its value
// changes. The value is sent rounded as a little-endian uint16.
type CANForwarder struct {
	cfg    config.CANForwardConfig
	sender func() CANBus

	last float64
	sent bool
}

func (fwd *CANForwarder) Forward(r *sample.Record) error {
	for _, s := range r.Samples {
		if s.ChannelID != fwd.cfg.ChannelID {
			continue
		}
		if fwd.sent && s.Value == fwd.last {
			return nil
		}
		return fwd.send(s.Value)
	}
	return nil
}

func (fwd *CANForwarder) send(v float64) error {
	bus := fwd.sender()
	if bus == nil {
		return errors.New("canbus is not initialized")
	}
	sender, ok := bus.(FrameSender)
	if !ok {
		return errors.New("canbus does not support sending")
	}

	rounded := math.Round(v)
	if rounded < 0 {
		rounded = 0
	} else if rounded > math.MaxUint16 {
		rounded = math.MaxUint16
	}
	f := canmap.Frame{
		ID:     fwd.cfg.FrameID,
		Length: 2,
	}
	binary.LittleEndian.PutUint16(f.Data[0:2], uint16(rounded))
	if err := sender.Send(f); err != nil {
		return errors.Wrapf(err, "unable to send channel %d to CAN bus", fwd.cfg.ChannelID)
	}
	fwd.last = v
	fwd.sent = true
	return nil
}
