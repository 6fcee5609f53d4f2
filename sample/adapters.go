package sample

import (
	"github.com/jd3nn1s/racelogger/config"
	log "github.com/sirupsen/logrus"
)

// Source is the channel family a sample is read from.
type Source int

const (
	SourceAnalog Source = iota
	SourceIMU
	SourceTimer
	SourceGPIO
	SourcePWM
	SourceOBD2
	SourceVirtual
	SourceGPS
	SourceLapStat
)

var sourceNames = map[Source]string{
	SourceAnalog:  "analog",
	SourceIMU:     "imu",
	SourceTimer:   "timer",
	SourceGPIO:    "gpio",
	SourcePWM:     "pwm",
	SourceOBD2:    "obd2",
	SourceVirtual: "virtual",
	SourceGPS:     "gps",
	SourceLapStat: "lapstat",
}

func (s Source) String() string {
	if name, ok := sourceNames[s]; ok {
		return name
	}
	return "unknown"
}

// GPS sub-quantity selectors.
const (
	GPSLatitude = iota
	GPSLongitude
	GPSSpeed
	GPSTime
	GPSSatellites
	GPSDistance
)

// Lap statistic sub-quantity selectors.
const (
	LapCount = iota
	LapTime
	LapSector
	LapSectorTime
	LapPredictedTime
)

const (
	// ErrorValue replaces a reading whose mode or selector is not known.
	ErrorValue = -1

	// raw mode analog scaling of a 10 bit converter over 5V
	analogScaling5V   = 5.0 / 1023.0
	pwmVoltageScaling = 0.05
	kphToMph          = 0.621371192
)

// sampler reads and converts a single channel. It closes over the
// configuration snapshot the buffer was built from.
type sampler struct {
	cfg          *config.Config
	drivers      Drivers
	timerScaling []float64
}

func newSampler(cfg *config.Config, d Drivers) *sampler {
	s := &sampler{
		cfg:          cfg,
		drivers:      d,
		timerScaling: make([]float64, len(cfg.Timer)),
	}
	for i, t := range cfg.Timer {
		s.timerScaling[i] = t.Scaling()
	}
	return s
}

func (s *sampler) sample(src Source, index int) float64 {
	switch src {
	case SourceAnalog:
		return s.analog(index)
	case SourceIMU:
		return s.drivers.IMU.IMU(index, s.cfg.IMU[index])
	case SourceTimer:
		return s.timer(index)
	case SourceGPIO:
		if s.drivers.GPIO.GPIO(index) {
			return 1
		}
		return 0
	case SourcePWM:
		return s.pwm(index)
	case SourceOBD2:
		return s.drivers.OBD2.PIDValue(index)
	case SourceVirtual:
		_, v := s.drivers.Virtual.Get(index)
		return v
	case SourceGPS:
		return s.gps(index)
	case SourceLapStat:
		return s.lapStat(index)
	}
	return ErrorValue
}

func (s *sampler) analog(index int) float64 {
	c := &s.cfg.ADC[index]
	raw := float64(s.drivers.Analog.Analog(index))
	switch c.ScalingMode {
	case config.ScalingRaw:
		return raw * analogScaling5V
	case config.ScalingLinear:
		return c.LinearScaling * raw
	case config.ScalingMap:
		return c.Map.Value(raw)
	}
	log.WithField("channel", index).
		WithField("mode", c.ScalingMode).
		Debug("unknown analog scaling mode")
	return ErrorValue
}

func (s *sampler) timer(index int) float64 {
	c := &s.cfg.Timer[index]
	period := float64(s.drivers.Timer.TimerPeriod(index))
	scale := s.timerScaling[index]

	switch c.Mode {
	case config.TimerRPM, config.TimerFrequency, config.TimerPeriodMs, config.TimerPeriodUsec:
	default:
		log.WithField("channel", index).
			WithField("mode", c.Mode).
			Debug("unknown timer mode")
		return ErrorValue
	}
	if period == 0 {
		return 0
	}

	switch c.Mode {
	case config.TimerRPM:
		ppr := c.PulsePerRev
		if ppr <= 0 {
			ppr = 1
		}
		return scale / period * 60 / float64(ppr)
	case config.TimerFrequency:
		return scale / period
	case config.TimerPeriodMs:
		return period * 1000 / scale
	default:
		return period * 1000000 / scale
	}
}

func (s *sampler) pwm(index int) float64 {
	switch s.cfg.PWM[index].LoggingMode {
	case config.PWMPeriod:
		return s.drivers.PWM.PWMPeriod(index)
	case config.PWMDuty:
		return s.drivers.PWM.PWMDuty(index)
	case config.PWMVolts:
		return s.drivers.PWM.PWMDuty(index) * pwmVoltageScaling
	}
	log.WithField("channel", index).Debug("unknown pwm logging mode")
	return ErrorValue
}

func (s *sampler) gps(selector int) float64 {
	p := s.drivers.Position
	switch selector {
	case GPSLatitude:
		return p.Latitude()
	case GPSLongitude:
		return p.Longitude()
	case GPSSpeed:
		return p.Speed() * kphToMph
	case GPSTime:
		return packTime(p)
	case GPSSatellites:
		return float64(p.Satellites())
	case GPSDistance:
		return p.Distance()
	}
	log.WithField("selector", selector).Debug("unknown gps channel")
	return ErrorValue
}

// packTime encodes the time of the last fix as HHMMSS.mmm.
func packTime(p Position) float64 {
	t := p.LastFix().UTC()
	value := float64(t.Nanosecond()/1000000) / 1000
	value += float64(t.Second())
	value += float64(t.Minute()) * 100
	value += float64(t.Hour()) * 10000
	return value
}

func (s *sampler) lapStat(selector int) float64 {
	l := s.drivers.Laps
	switch selector {
	case LapCount:
		return float64(l.LapCount())
	case LapTime:
		return l.LastLapTime()
	case LapSector:
		return float64(l.LastSector())
	case LapSectorTime:
		return l.LastSectorTime()
	case LapPredictedTime:
		p := s.drivers.Position
		at := GeoPoint{Latitude: p.Latitude(), Longitude: p.Longitude()}
		// predictor works in seconds, the channel is logged in minutes
		return l.PredictedTime(at, p.SecondsSinceFirstFix()) / 60
	}
	log.WithField("selector", selector).Debug("unknown lap statistic channel")
	return ErrorValue
}
