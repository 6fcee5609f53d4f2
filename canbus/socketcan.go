package canbus

import (
	"context"
	"io"
	"net"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"go.einride.tech/can/pkg/socketcan"
)

// to allow testing
var dialSocketCAN = func(iface string) (net.Conn, error) {
	return socketcan.Dial("can", iface)
}

// SocketCAN reads raw frames from a Linux SocketCAN interface.
type SocketCAN struct {
	iface string
	conn  net.Conn
}

func DialSocketCAN(iface string) (*SocketCAN, error) {
	conn, err := dialSocketCAN(iface)
	if err != nil {
		return nil, errors.Wrapf(err, "socketcan dial %s", iface)
	}
	return &SocketCAN{
		iface: iface,
		conn:  conn,
	}, nil
}

// Start blocks delivering frames to handler until the connection fails or
// ctx is done. Remote and error frames are skipped.
func (s *SocketCAN) Start(ctx context.Context, handler FrameHandler) error {
	recv := socketcan.NewReceiver(s.conn)
	log.WithField("interface", s.iface).Info("socketcan receiver started")

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			_ = s.conn.Close()
		case <-done:
		}
	}()

	for recv.Receive() {
		if recv.HasErrorFrame() {
			log.WithField("errorFrame", recv.ErrorFrame()).Debug("socketcan error frame")
			continue
		}
		f := recv.Frame()
		if f.IsRemote {
			continue
		}
		if handler != nil {
			handler(toFrame(f.ID, f.Length, f.Data))
		}
	}

	if ctx.Err() != nil {
		return ctx.Err()
	}
	if err := recv.Err(); err != nil {
		return errors.Wrap(err, "socketcan receive")
	}
	return io.EOF
}

func (s *SocketCAN) Close() error {
	if s.conn == nil {
		return nil
	}
	return s.conn.Close()
}
