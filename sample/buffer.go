// Package sample turns the configured channels into a flat buffer that is
// refreshed once per logging tick, each channel at its own rate.
package sample

import (
	"github.com/jd3nn1s/racelogger/config"
)

// ChannelSample is one enabled channel in a Buffer.
type ChannelSample struct {
	ChannelID uint16
	// ChannelIndex indexes the owning family's configuration, or selects the
	// sub-quantity for GPS and lap statistic channels.
	ChannelIndex int
	SampleRate   uint16
	Source       Source
	Value        Value
}

// Buffer is the ordered set of enabled channels for one configuration. It
// is built once per configuration and never modified structurally.
type Buffer struct {
	Samples []ChannelSample
	sampler *sampler
}

// Build walks the configuration and returns a buffer with an entry for every
// enabled channel: analog, IMU, timer, GPIO, PWM, OBD-II, virtual, GPS and
// finally lap statistic channels.
func Build(cfg *config.Config, d Drivers) *Buffer {
	b := &Buffer{
		sampler: newSampler(cfg, d),
	}

	for i, c := range cfg.ADC {
		b.add(c.Channel, SourceAnalog, i)
	}
	for i, c := range cfg.IMU {
		b.add(c.Channel, SourceIMU, i)
	}
	for i, c := range cfg.Timer {
		b.add(c.Channel, SourceTimer, i)
	}
	for i, c := range cfg.GPIO {
		b.add(c.Channel, SourceGPIO, i)
	}
	for i, c := range cfg.PWM {
		b.add(c.Channel, SourcePWM, i)
	}
	for i, c := range cfg.OBD2.PIDs {
		b.add(c.Channel, SourceOBD2, i)
	}
	if d.Virtual != nil {
		for i := 0; i < d.Virtual.Count(); i++ {
			c, _ := d.Virtual.Get(i)
			b.add(c, SourceVirtual, i)
		}
	}

	gps := cfg.GPS
	if gps.SampleRate != config.SampleDisabled {
		if gps.PositionEnabled {
			b.addGPS(config.GPSLatitude, gps.SampleRate, GPSLatitude)
			b.addGPS(config.GPSLongitude, gps.SampleRate, GPSLongitude)
		}
		if gps.SpeedEnabled {
			b.addGPS(config.GPSSpeed, gps.SampleRate, GPSSpeed)
		}
		if gps.TimeEnabled {
			b.addGPS(config.GPSTime, gps.SampleRate, GPSTime)
		}
		if gps.SatellitesEnabled {
			b.addGPS(config.GPSSatellites, gps.SampleRate, GPSSatellites)
		}
		if gps.DistanceEnabled {
			b.addGPS(config.GPSDistance, gps.SampleRate, GPSDistance)
		}
	}

	laps := cfg.Laps
	b.add(laps.LapCount, SourceLapStat, LapCount)
	b.add(laps.LapTime, SourceLapStat, LapTime)
	b.add(laps.Sector, SourceLapStat, LapSector)
	b.add(laps.SectorTime, SourceLapStat, LapSectorTime)
	b.add(laps.PredTime, SourceLapStat, LapPredictedTime)

	return b
}

func (b *Buffer) add(c config.ChannelConfig, src Source, index int) {
	if !c.Enabled() {
		return
	}
	b.Samples = append(b.Samples, ChannelSample{
		ChannelID:    c.ID,
		ChannelIndex: index,
		SampleRate:   c.SampleRate,
		Source:       src,
		Value:        newValue(precisionFor(c.Precision)),
	})
}

func (b *Buffer) addGPS(c config.ChannelConfig, rate uint16, selector int) {
	c.SampleRate = rate
	b.add(c, SourceGPS, selector)
}

// Populate samples every channel due on tick and returns the fastest sample
// rate among them, or config.SampleDisabled when none were due. Channels not
// due are marked as not sampled.
func (b *Buffer) Populate(tick uint64) uint16 {
	highest := config.SampleDisabled
	for i := range b.Samples {
		s := &b.Samples[i]
		if s.SampleRate == config.SampleDisabled || tick%uint64(s.SampleRate) != 0 {
			s.Value.clear()
			continue
		}
		highest = config.HigherSampleRate(s.SampleRate, highest)
		s.Value.set(b.sampler.sample(s.Source, s.ChannelIndex))
	}
	return highest
}

// Len returns the number of enabled channels.
func (b *Buffer) Len() int {
	return len(b.Samples)
}
