package racelogger

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/jd3nn1s/skytraq"
	"github.com/stretchr/testify/assert"
)

func fixedNow(t time.Time) func() {
	origNow := now
	now = func() time.Time {
		return t
	}
	return func() {
		now = origNow
	}
}

func TestRunGPS(t *testing.T) {
	origGPSConnect := gpsConnect
	defer func() {
		gpsConnect = origGPSConnect
	}()

	stub := createGPSStub()
	gpsConnect = func(p string) (GPS, error) {
		return stub, nil
	}

	readings := NewReadings()
	gpsRetryable := &gpsRetryable{
		portName: "/dev/ttyAMA0",
		readings: readings,
	}

	// close before opening
	assert.NoError(t, gpsRetryable.Close())
	assert.NoError(t, gpsRetryable.Open())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	wg := sync.WaitGroup{}
	wg.Add(1)
	go func() {
		_ = gpsRetryable.Start(ctx)
		wg.Done()
	}()
	<-stub.startChan

	stub.fnChan <- func() {
		stub.callbacks.SoftwareVersion(skytraq.SoftwareVersion{
			Kernel:   skytraq.Version{1, 2, 3},
			ODM:      skytraq.Version{4, 5, 6},
			Revision: skytraq.Version{7, 8, 9},
		})
	}

	navData := skytraq.NavData{
		Fix:            skytraq.Fix3D,
		SatelliteCount: 7,
		Latitude:       476062095,
		Longitude:      -1223320708,
		Altitude:       4,
		VX:             300,
		VY:             400,
		VZ:             8,
		HDOP:           9,
	}

	done := make(chan struct{})
	stub.fnChan <- func() {
		stub.callbacks.NavData(navData)
		close(done)
	}
	<-done

	assert.InDelta(t, 47.6062095, readings.Latitude(), 1e-9)
	assert.InDelta(t, -122.3320708, readings.Longitude(), 1e-9)
	assert.Equal(t, 7, readings.Satellites())

	cancel()
	wg.Wait()
}

func TestNavDataFn(t *testing.T) {
	fixTime := time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)
	defer fixedNow(fixTime)()

	readings := NewReadings()
	gpsRetryable := gpsRetryable{
		readings: readings,
	}

	navData := skytraq.NavData{
		Fix:            skytraq.FixNone,
		SatelliteCount: 1,
		Latitude:       20000000,
		Longitude:      30000000,
		Altitude:       4,
		VX:             300,
		VY:             400,
		VZ:             8,
		HDOP:           9,
	}

	gpsRetryable.navDataFn(navData)
	assert.True(t, readings.LastFix().IsZero(), "no position stored as there is no fix")
	assert.Equal(t, 1, readings.Satellites(), "satellite count is kept without a fix")

	navData.Fix = skytraq.Fix3D
	gpsRetryable.navDataFn(navData)
	assert.Equal(t, 2.0, readings.Latitude())
	assert.Equal(t, 3.0, readings.Longitude())
	// 500 cm/s
	assert.InDelta(t, 18.0, readings.Speed(), 1e-9)
	assert.Equal(t, fixTime, readings.LastFix())

	navData.HDOP = maxHDOP + 1
	navData.Latitude = 50000000
	gpsRetryable.navDataFn(navData)
	assert.Equal(t, 2.0, readings.Latitude(), "position ignored with high HDOP")

	// no VY or VX is zero speed
	navData.HDOP = 0
	navData.VY = 0
	navData.VX = 0
	gpsRetryable.navDataFn(navData)
	assert.Equal(t, 0.0, readings.Speed())
	assert.Equal(t, 5.0, readings.Latitude())
}
