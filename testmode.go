package racelogger

import (
	"context"
	"math"
	"time"

	"github.com/jd3nn1s/racelogger/canmap"
	"github.com/jd3nn1s/racelogger/config"
)

const (
	testCenterLat = 47.2538
	testCenterLon = -123.1920
	testRadiusDeg = 0.005
	testLapPeriod = 90 * time.Second
)

// every calls fn each period until ctx is done.
func every(ctx context.Context, period time.Duration, fn func()) {
	go func() {
		ticker := time.NewTicker(period)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
			case <-ctx.Done():
				return
			}
			fn()
		}
	}()
}

// timerPeriod returns the period in timer counts that t reads back as rpm.
func timerPeriod(t config.TimerConfig, rpm float64) uint32 {
	if rpm <= 0 {
		return 0
	}
	ppr := t.PulsePerRev
	if ppr <= 0 {
		ppr = 1
	}
	return uint32(math.Round(t.Scaling() * 60 / (rpm * float64(ppr))))
}

// runTestMode feeds the readings with generated data in place of hardware.
func (l *Logger) runTestMode(ctx context.Context, cfg *config.Config) {
	r := l.readings
	start := now()

	angle := 0.0
	every(ctx, 100*time.Millisecond, func() {
		angle += 0.01
		r.SetFix(GPSFix{
			Time:       now(),
			Latitude:   testCenterLat + testRadiusDeg*math.Sin(angle),
			Longitude:  testCenterLon + testRadiusDeg*math.Cos(angle),
			SpeedKph:   80 + 40*math.Sin(angle*3),
			Satellites: 9,
		})
	})

	rpm := 0.0
	down := false
	every(ctx, 250*time.Millisecond, func() {
		if down {
			rpm -= 100
		} else {
			rpm += 100
		}
		if rpm >= 7000 {
			down = true
		} else if rpm <= 800 {
			down = false
		}
		r.SetPID(PIDRPM, rpm)
		r.SetPID(PIDCoolantTemp, 90)
		r.SetPID(PIDModuleVoltage, 13.8)
		for i, t := range cfg.Timer {
			r.SetTimerPeriod(i, timerPeriod(t, rpm))
		}
	})

	step := 0
	every(ctx, 50*time.Millisecond, func() {
		step++
		for i := 0; i < config.ADCChannels; i++ {
			r.SetAnalog(i, uint32((step*(i+1))%1024))
		}
		r.SetIMURaw(0, int(300*math.Sin(float64(step)/20)))
		r.SetIMURaw(1, int(300*math.Cos(float64(step)/20)))
		r.SetIMURaw(2, 1024)
		r.SetGPIO(0, step%40 < 20)
		r.SetPWM(0, 1000, float64(step%100))
	})

	lap := 0
	every(ctx, testLapPeriod/3, func() {
		elapsed := now().Sub(start)
		sector := int(elapsed/(testLapPeriod/3)) % 3
		r.SetSector(sector, testLapPeriod.Minutes()/3)
		if sector == 0 {
			lap++
			r.SetLap(lap, testLapPeriod.Minutes())
		}
	})

	if cfg.CAN.Enabled {
		value := uint32(0)
		every(ctx, time.Second, func() {
			value++
			for _, ch := range cfg.CAN.Channels {
				if f, ok := testFrame(ch.Mapping, value); ok {
					l.canBus.handleFrame(f)
				}
			}
		})
	}
}

// testFrame builds a frame carrying v in the field selected by a byte mode
// mapping.
func testFrame(m canmap.Mapping, v uint32) (canmap.Frame, bool) {
	if m.BitMode || m.Validate() != nil {
		return canmap.Frame{}, false
	}
	f := canmap.Frame{
		ID:     m.ID,
		Length: canmap.MaxDataLength,
	}
	for i := 0; i < int(m.Length); i++ {
		shift := uint(i) * 8
		if m.BigEndian {
			shift = uint(int(m.Length)-1-i) * 8
		}
		f.Data[int(m.Offset)+i] = byte(v >> shift)
	}
	return f, true
}
