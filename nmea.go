package racelogger

import (
	"bufio"
	"context"
	"io"
	"strings"
	"time"

	nmea "github.com/adrianmo/go-nmea"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"go.bug.st/serial"
)

const (
	defaultNMEABaudRate = 9600
	knotsToKph          = 1.852
)

// to allow testing
var serialOpen = func(path string, baudRate int) (io.ReadCloser, error) {
	port, err := serial.Open(path, &serial.Mode{
		BaudRate: baudRate,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	})
	if err != nil {
		return nil, err
	}
	return port, nil
}

// nmeaRetryable reads NMEA 0183 sentences from a serial GPS. RMC sentences
// carry the position and GGA sentences the satellite count.
type nmeaRetryable struct {
	portPath string
	baudRate int
	port     io.ReadCloser
	readings *Readings
}

func (n *nmeaRetryable) Name() string {
	return "nmea"
}

func (n *nmeaRetryable) Open() error {
	baud := n.baudRate
	if baud == 0 {
		baud = defaultNMEABaudRate
	}
	port, err := serialOpen(n.portPath, baud)
	if err != nil {
		return errors.Wrapf(err, "unable to open %s", n.portPath)
	}
	n.port = port
	log.WithField("port", n.portPath).
		WithField("baud", baud).
		Info("nmea gps opened")
	return nil
}

func (n *nmeaRetryable) Close() error {
	if n.port == nil {
		return nil
	}
	err := n.port.Close()
	n.port = nil
	return err
}

func (n *nmeaRetryable) Start(ctx context.Context) error {
	port := n.port
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			_ = port.Close()
		case <-done:
		}
	}()

	scanner := bufio.NewScanner(port)
	for scanner.Scan() {
		n.handleLine(scanner.Text())
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if err := scanner.Err(); err != nil {
		return errors.Wrap(err, "nmea read")
	}
	return io.EOF
}

func (n *nmeaRetryable) handleLine(line string) {
	line = strings.TrimSpace(line)
	if !strings.HasPrefix(line, "$") {
		return
	}
	sentence, err := nmea.Parse(line)
	if err != nil {
		log.WithField("err", err).Debug("unable to parse nmea sentence")
		return
	}

	switch s := sentence.(type) {
	case nmea.RMC:
		if s.Validity != nmea.ValidRMC {
			log.Warnf("no satellite fix")
			return
		}
		n.readings.SetFix(GPSFix{
			Time:       rmcTime(s),
			Latitude:   s.Latitude,
			Longitude:  s.Longitude,
			SpeedKph:   s.Speed * knotsToKph,
			Satellites: n.readings.Satellites(),
		})
	case nmea.GGA:
		n.readings.SetSatellites(int(s.NumSatellites))
	}
}

func rmcTime(s nmea.RMC) time.Time {
	if !s.Date.Valid || !s.Time.Valid {
		return now()
	}
	return time.Date(2000+s.Date.YY, time.Month(s.Date.MM), s.Date.DD,
		s.Time.Hour, s.Time.Minute, s.Time.Second,
		s.Time.Millisecond*int(time.Millisecond), time.UTC)
}

func runNMEA(ctx context.Context, portPath string, baudRate int, readings *Readings) {
	err := retry(ctx, &nmeaRetryable{
		portPath: portPath,
		baudRate: baudRate,
		readings: readings,
	})
	if err != nil {
		log.Errorf("nmea gps done: %v", err)
	}
}
