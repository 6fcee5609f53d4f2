package racelogger

import (
	"context"
	"math"
	"time"

	"github.com/jd3nn1s/skytraq"
	log "github.com/sirupsen/logrus"
)

const (
	// maximum horizontal dilution of precision
	maxHDOP = 500

	// skytraq reports degrees scaled by 1e7 and velocity in cm/s
	skytraqDegreeScale = 1e7
	cmPerSecToKph      = 0.036
)

// to allow testing
var now = time.Now

type gpsRetryable struct {
	portName string
	c        GPS
	readings *Readings
}

func (g *gpsRetryable) Open() error {
	c, err := gpsConnect(g.portName)
	g.c = c
	return err
}

func (g *gpsRetryable) Close() error {
	if g.c == nil {
		return nil
	}
	return g.c.Close()
}

func (g *gpsRetryable) Start(ctx context.Context) error {
	return g.c.Start(ctx, skytraq.Callbacks{
		SoftwareVersion: func(version skytraq.SoftwareVersion) {
			log.Infof("software version: %v", version)
		},
		NavData: g.navDataFn,
	})
}

func (g *gpsRetryable) Name() string {
	return "gps"
}

func (g *gpsRetryable) navDataFn(navData skytraq.NavData) {
	g.readings.SetSatellites(int(navData.SatelliteCount))
	if navData.Fix == skytraq.FixNone {
		log.Warnf("no satellite fix")
		return
	}
	if navData.HDOP > maxHDOP {
		log.WithField("HDOP", navData.HDOP).Warn("poor resolution")
		return
	}
	speed := math.Sqrt(math.Pow(float64(navData.VX), 2) +
		math.Pow(float64(navData.VY), 2))

	g.readings.SetFix(GPSFix{
		Time:       now(),
		Latitude:   float64(navData.Latitude) / skytraqDegreeScale,
		Longitude:  float64(navData.Longitude) / skytraqDegreeScale,
		SpeedKph:   speed * cmPerSecToKph,
		Satellites: int(navData.SatelliteCount),
	})
}

var gpsConnect = func(p string) (GPS, error) {
	return skytraq.Connect(p)
}

func runGPS(ctx context.Context, portName string, readings *Readings) {
	err := retry(ctx, &gpsRetryable{
		portName: portName,
		readings: readings,
	})
	if err != nil {
		log.Errorf("gps done: %v", err)
	}
}
