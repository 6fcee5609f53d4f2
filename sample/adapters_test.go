package sample

import (
	"testing"
	"time"

	"github.com/jd3nn1s/racelogger/config"
	"github.com/jd3nn1s/racelogger/scaling"
	"github.com/stretchr/testify/assert"
)

func newTestSampler(cfg *config.Config, d *driverStub) *sampler {
	return newSampler(cfg, d.drivers(NewVirtualRegistry()))
}

func TestAnalogModes(t *testing.T) {
	cfg := emptyConfig()
	cfg.ADC = []config.ADCConfig{
		{ScalingMode: config.ScalingRaw},
		{ScalingMode: config.ScalingLinear, LinearScaling: 0.25},
		{ScalingMode: config.ScalingMap, Map: scaling.Map{
			Raw:    [scaling.Bins]float64{0, 100, 200, 300, 400},
			Scaled: [scaling.Bins]float64{0, 50, 100, 150, 200},
		}},
		{ScalingMode: config.ScalingMode(99)},
	}
	d := newDriverStub()
	d.analog[0] = 1023
	d.analog[1] = 100
	d.analog[2] = 250
	d.analog[3] = 100
	s := newTestSampler(cfg, d)

	assert.InDelta(t, 5.0, s.sample(SourceAnalog, 0), 1e-9)
	assert.Equal(t, 25.0, s.sample(SourceAnalog, 1))
	assert.Equal(t, 125.0, s.sample(SourceAnalog, 2))
	assert.Equal(t, float64(ErrorValue), s.sample(SourceAnalog, 3))
}

func TestTimerModes(t *testing.T) {
	cfg := emptyConfig()
	cfg.Timer = []config.TimerConfig{
		{Mode: config.TimerRPM, Divider: 48, PulsePerRev: 2},
		{Mode: config.TimerFrequency, Divider: 48},
		{Mode: config.TimerPeriodMs, Divider: 48},
		{Mode: config.TimerPeriodUsec, Divider: 48},
	}
	d := newDriverStub()
	// 1MHz timer ticks after the divider; 10000 ticks is a 10ms period
	for i := range cfg.Timer {
		d.period[i] = 10000
	}
	s := newTestSampler(cfg, d)

	assert.Equal(t, 3000.0, s.sample(SourceTimer, 0))
	assert.Equal(t, 100.0, s.sample(SourceTimer, 1))
	assert.Equal(t, 10.0, s.sample(SourceTimer, 2))
	assert.Equal(t, 10000.0, s.sample(SourceTimer, 3))

	// no pulses
	d.period[1] = 0
	assert.Equal(t, 0.0, s.sample(SourceTimer, 1))
}

func TestTimerUnknownMode(t *testing.T) {
	cfg := emptyConfig()
	cfg.Timer = []config.TimerConfig{{Mode: config.TimerMode(7)}}
	d := newDriverStub()
	s := newTestSampler(cfg, d)
	assert.Equal(t, float64(ErrorValue), s.sample(SourceTimer, 0))
	d.period[0] = 100
	assert.Equal(t, float64(ErrorValue), s.sample(SourceTimer, 0))
}

func TestPWMModes(t *testing.T) {
	cfg := emptyConfig()
	cfg.PWM = []config.PWMConfig{
		{LoggingMode: config.PWMPeriod},
		{LoggingMode: config.PWMDuty},
		{LoggingMode: config.PWMVolts},
		{LoggingMode: config.PWMLoggingMode(5)},
	}
	d := newDriverStub()
	d.pwmPeriod = 250
	d.pwmDuty = 40
	s := newTestSampler(cfg, d)

	assert.Equal(t, 250.0, s.sample(SourcePWM, 0))
	assert.Equal(t, 40.0, s.sample(SourcePWM, 1))
	assert.InDelta(t, 2.0, s.sample(SourcePWM, 2), 1e-9)
	assert.Equal(t, float64(ErrorValue), s.sample(SourcePWM, 3))
}

func TestPassThroughSources(t *testing.T) {
	cfg := emptyConfig()
	cfg.IMU = []config.IMUConfig{{PhysicalChannel: 2}}
	d := newDriverStub()
	d.gpio[1] = true
	d.imu[2] = 0.98
	d.pids[0] = 3200
	virtual := NewVirtualRegistry()
	virtual.Add(channel(1, 1, 1))
	virtual.Set(0, 42.5)
	s := newSampler(cfg, d.drivers(virtual))

	assert.Equal(t, 0.0, s.sample(SourceGPIO, 0))
	assert.Equal(t, 1.0, s.sample(SourceGPIO, 1))
	assert.Equal(t, 0.98, s.sample(SourceIMU, 0))
	assert.Equal(t, 3200.0, s.sample(SourceOBD2, 0))
	assert.Equal(t, 42.5, s.sample(SourceVirtual, 0))
	assert.Equal(t, float64(ErrorValue), s.sample(Source(99), 0))
}

func TestGPSSelectors(t *testing.T) {
	d := newDriverStub()
	d.lat = 47.6
	d.lon = -122.3
	d.speed = 100
	d.fix = time.Date(2024, 5, 4, 13, 45, 21, 250*int(time.Millisecond), time.UTC)
	d.sats = 9
	d.distance = 1.75
	s := newTestSampler(emptyConfig(), d)

	assert.Equal(t, 47.6, s.sample(SourceGPS, GPSLatitude))
	assert.Equal(t, -122.3, s.sample(SourceGPS, GPSLongitude))
	assert.InDelta(t, 62.1371192, s.sample(SourceGPS, GPSSpeed), 1e-9)
	assert.Equal(t, 134521.25, s.sample(SourceGPS, GPSTime))
	assert.Equal(t, 9.0, s.sample(SourceGPS, GPSSatellites))
	assert.Equal(t, 1.75, s.sample(SourceGPS, GPSDistance))
	assert.Equal(t, float64(ErrorValue), s.sample(SourceGPS, 42))
}

func TestLapStatSelectors(t *testing.T) {
	d := newDriverStub()
	d.lapCount = 3
	d.lapTime = 1.5
	d.sector = 2
	d.sectorTime = 0.4
	d.predicted = 90
	d.lat = 10
	d.lon = 20
	s := newTestSampler(emptyConfig(), d)

	assert.Equal(t, 3.0, s.sample(SourceLapStat, LapCount))
	assert.Equal(t, 1.5, s.sample(SourceLapStat, LapTime))
	assert.Equal(t, 2.0, s.sample(SourceLapStat, LapSector))
	assert.Equal(t, 0.4, s.sample(SourceLapStat, LapSectorTime))
	assert.Equal(t, 1.5, s.sample(SourceLapStat, LapPredictedTime))
	assert.Equal(t, GeoPoint{Latitude: 10, Longitude: 20}, d.predictAt)
	assert.Equal(t, float64(ErrorValue), s.sample(SourceLapStat, -1))
}

func TestSourceString(t *testing.T) {
	assert.Equal(t, "analog", SourceAnalog.String())
	assert.Equal(t, "lapstat", SourceLapStat.String())
	assert.Equal(t, "unknown", Source(99).String())
}
