package sample

import (
	"time"

	"github.com/jd3nn1s/racelogger/config"
)

// driverStub implements every reader with fixed values and counts calls.
type driverStub struct {
	analog    map[int]uint32
	period    map[int]uint32
	pwmPeriod float64
	pwmDuty   float64
	gpio      map[int]bool
	imu       map[int]float64
	pids      map[int]float64

	lat, lon   float64
	speed      float64
	fix        time.Time
	sats       int
	distance   float64
	sinceFirst float64

	lapCount   int
	lapTime    float64
	sector     int
	sectorTime float64
	predicted  float64
	predictAt  GeoPoint

	calls int
}

func newDriverStub() *driverStub {
	return &driverStub{
		analog: map[int]uint32{},
		period: map[int]uint32{},
		gpio:   map[int]bool{},
		imu:    map[int]float64{},
		pids:   map[int]float64{},
	}
}

func (d *driverStub) drivers(v VirtualChannels) Drivers {
	return Drivers{
		Analog:   d,
		Timer:    d,
		PWM:      d,
		GPIO:     d,
		IMU:      d,
		OBD2:     d,
		Position: d,
		Laps:     d,
		Virtual:  v,
	}
}

func (d *driverStub) Analog(index int) uint32 {
	d.calls++
	return d.analog[index]
}

func (d *driverStub) TimerPeriod(index int) uint32 { return d.period[index] }
func (d *driverStub) PWMPeriod(int) float64         { return d.pwmPeriod }
func (d *driverStub) PWMDuty(int) float64           { return d.pwmDuty }
func (d *driverStub) GPIO(index int) bool           { return d.gpio[index] }

func (d *driverStub) IMU(index int, cfg config.IMUConfig) float64 {
	return d.imu[cfg.PhysicalChannel]
}

func (d *driverStub) PIDValue(index int) float64 { return d.pids[index] }

func (d *driverStub) Latitude() float64             { return d.lat }
func (d *driverStub) Longitude() float64            { return d.lon }
func (d *driverStub) Speed() float64                { return d.speed }
func (d *driverStub) LastFix() time.Time            { return d.fix }
func (d *driverStub) Satellites() int               { return d.sats }
func (d *driverStub) Distance() float64             { return d.distance }
func (d *driverStub) SecondsSinceFirstFix() float64 { return d.sinceFirst }

func (d *driverStub) LapCount() int           { return d.lapCount }
func (d *driverStub) LastLapTime() float64    { return d.lapTime }
func (d *driverStub) LastSector() int         { return d.sector }
func (d *driverStub) LastSectorTime() float64 { return d.sectorTime }

func (d *driverStub) PredictedTime(at GeoPoint, secondsSinceFirstFix float64) float64 {
	d.predictAt = at
	return d.predicted
}

// emptyConfig has every channel disabled.
func emptyConfig() *config.Config {
	return &config.Config{TickHz: 100}
}

func channel(id uint16, rate uint16, precision uint8) config.ChannelConfig {
	return config.ChannelConfig{ID: id, SampleRate: rate, Precision: precision}
}
