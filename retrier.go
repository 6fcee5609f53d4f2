package racelogger

import (
	"context"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

var (
	retrySleep    = time.Second
	retryMaxSleep = 30 * time.Second
)

// Retryable is a driver connection that retry keeps open.
type Retryable interface {
	Open() error
	Close() error
	Start(ctx context.Context) error
	Name() string
}

// retry opens r and runs Start until ctx is done. After an error the
// connection is closed and reopened, backing off exponentially while Open
// keeps failing.
func retry(ctx context.Context, r Retryable) error {
	errStarting := errors.New("starting")
	err := errStarting
	delay := retrySleep
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		if err != nil {
			if err != errStarting {
				log.WithField("err", err).
					WithField("delay", delay).
					Errorf("%s: reconnecting due to error", r.Name())
				if closeErr := r.Close(); closeErr != nil {
					log.WithField("err", closeErr).Warnf("%s: unable to close", r.Name())
				}
				select {
				case <-ctx.Done():
					return ctx.Err()
				case <-time.After(delay):
				}
				delay *= 2
				if delay > retryMaxSleep {
					delay = retryMaxSleep
				}
			}
			err = r.Open()
			if err != nil {
				continue
			}
			log.Infof("%s: connected", r.Name())
			delay = retrySleep
		}
		err = r.Start(ctx)
	}
}
