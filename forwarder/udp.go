// Package forwarder sends tick records to downstream consumers.
package forwarder

import (
	"context"
	"fmt"
	"io"
	"net"
	"sync/atomic"

	"github.com/BurntSushi/toml"
	"github.com/jd3nn1s/racelogger/config"
	"github.com/jd3nn1s/racelogger/sample"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

const (
	queueSize = 16

	// OS write buffer sized for a full buffer of channels
	writeBufChannels = 128
)

// UDPForwarder sends each record as a single datagram.
type UDPForwarder struct {
	Config config.UDPConfig

	conn    net.Conn
	fwdChan chan *sample.Record
	dropped atomic.Uint64
}

func NewUDPForwarder(cfg config.UDPConfig) (*UDPForwarder, error) {
	udp := &UDPForwarder{
		Config:  cfg,
		fwdChan: make(chan *sample.Record, queueSize),
	}
	if err := udp.connect(); err != nil {
		return nil, err
	}
	return udp, nil
}

// NewUDPForwarderFromReader reads a standalone TOML UDP configuration.
func NewUDPForwarderFromReader(configReader io.Reader) (*UDPForwarder, error) {
	cfg := config.UDPConfig{}
	if _, err := toml.NewDecoder(configReader).Decode(&cfg); err != nil {
		return nil, errors.Wrapf(err, "unable to load udp forwarder configuration")
	}
	return NewUDPForwarder(cfg)
}

func (udp *UDPForwarder) Close() error {
	return udp.conn.Close()
}

// Forward queues a record without blocking the tick. Records are dropped
// while the queue is full.
func (udp *UDPForwarder) Forward(r *sample.Record) error {
	select {
	case udp.fwdChan <- r:
	default:
		if n := udp.dropped.Add(1); n%100 == 1 {
			log.WithField("dropped", n).Warn("udp forwarder queue full, dropping records")
		}
	}
	return nil
}

func (udp *UDPForwarder) Start(ctx context.Context) error {
	for {
		select {
		case r := <-udp.fwdChan:
			if err := udp.forward(r); err != nil {
				log.WithField("err", err).Error("unable to forward record to server")
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (udp *UDPForwarder) Name() string {
	return "udp"
}

func (udp *UDPForwarder) forward(r *sample.Record) error {
	pkt, err := MarshalRecord(r)
	if err != nil {
		return err
	}
	_, err = udp.conn.Write(pkt)
	return errors.Wrap(err, "unable to write udp packet")
}

func (udp *UDPForwarder) connect() error {
	writeBufSize := maxPacketSize(writeBufChannels) * 2

	conn, err := net.Dial("udp", fmt.Sprintf("%s:%d",
		udp.Config.Server,
		udp.Config.Port))
	if err != nil {
		return errors.Wrapf(err, "unable to dial %s:%d", udp.Config.Server, udp.Config.Port)
	}
	udpConn := conn.(*net.UDPConn)
	if err = udpConn.SetWriteBuffer(writeBufSize); err != nil {
		return errors.Wrapf(err, "unable to set OS write buffer to %v", writeBufSize)
	}

	udp.conn = conn
	return nil
}
