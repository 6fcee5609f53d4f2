package config

import (
	"fmt"

	"github.com/jd3nn1s/racelogger/scaling"
)

// Sample rate divisors of the default 100Hz tick.
const (
	Rate100Hz uint16 = 1
	Rate50Hz  uint16 = 2
	Rate25Hz  uint16 = 4
	Rate10Hz  uint16 = 10
	Rate5Hz   uint16 = 20
	Rate1Hz   uint16 = 100
)

// Fixed identities of the GPS and lap statistic channels.
const (
	ChannelLatitude uint16 = 1000 + iota
	ChannelLongitude
	ChannelSpeed
	ChannelTime
	ChannelGPSSats
	ChannelDistance
	ChannelLapCount
	ChannelLapTime
	ChannelSector
	ChannelSectorTime
	ChannelPredTime
)

// GPS sub-channel identities in buffer order.
var (
	GPSLatitude   = ChannelConfig{ID: ChannelLatitude, Name: "Latitude", Units: "Degrees", Precision: 6}
	GPSLongitude  = ChannelConfig{ID: ChannelLongitude, Name: "Longitude", Units: "Degrees", Precision: 6}
	GPSSpeed      = ChannelConfig{ID: ChannelSpeed, Name: "Speed", Units: "MPH", Precision: 2}
	GPSTime       = ChannelConfig{ID: ChannelTime, Name: "Time", Units: "Time", Precision: 3}
	GPSSatellites = ChannelConfig{ID: ChannelGPSSats, Name: "GPSSats", Units: "", Precision: 0}
	GPSDistance   = ChannelConfig{ID: ChannelDistance, Name: "Distance", Units: "Miles", Precision: 3}
)

// Default returns a configuration with the analog, IMU and GPS channels
// logging and everything else disabled.
func Default() *Config {
	cfg := &Config{
		TickHz: 100,
		GPS: GPSConfig{
			Type:              GPSSkytraq,
			PortPath:          "/dev/ttyAMA0",
			BaudRate:          115200,
			SampleRate:        Rate10Hz,
			PositionEnabled:   true,
			SpeedEnabled:      true,
			TimeEnabled:       true,
			SatellitesEnabled: true,
			DistanceEnabled:   true,
		},
		Laps: LapConfig{
			LapCount:   ChannelConfig{ID: ChannelLapCount, Name: "LapCount", Precision: 0, SampleRate: Rate1Hz},
			LapTime:    ChannelConfig{ID: ChannelLapTime, Name: "LapTime", Units: "Min", Precision: 4, SampleRate: Rate1Hz},
			Sector:     ChannelConfig{ID: ChannelSector, Name: "Sector", Precision: 0, SampleRate: Rate1Hz},
			SectorTime: ChannelConfig{ID: ChannelSectorTime, Name: "SectorTime", Units: "Min", Precision: 4, SampleRate: Rate1Hz},
			PredTime:   ChannelConfig{ID: ChannelPredTime, Name: "PredTime", Units: "Min", Precision: 4, SampleRate: SampleDisabled},
		},
		CAN: CANConfig{
			Driver:    CANDriverBus,
			Interface: "can0",
		},
		ECU: ECUConfig{
			PortPath: "/dev/obd",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
		Forwarder: ForwarderConfig{
			MQTT: MQTTConfig{
				ClientID: "racelogger",
				Topic:    "racelogger/samples",
			},
		},
	}

	for i := 0; i < ADCChannels; i++ {
		cfg.ADC = append(cfg.ADC, ADCConfig{
			Channel: ChannelConfig{
				ID:         uint16(i + 1),
				Name:       analogName(i),
				Units:      "Volts",
				Precision:  2,
				SampleRate: Rate10Hz,
			},
			ScalingMode:   ScalingRaw,
			LinearScaling: 1,
			Map: scaling.Map{
				Raw:    [scaling.Bins]float64{0, 256, 512, 768, 1023},
				Scaled: [scaling.Bins]float64{0, 1.25, 2.5, 3.75, 5},
			},
		})
	}

	imuNames := []string{"AccelX", "AccelY", "AccelZ", "Yaw"}
	for i := 0; i < IMUChannels; i++ {
		mode := IMUAccel
		units := "G"
		if i == IMUChannels-1 {
			mode = IMUGyro
			units = "Deg/Sec"
		}
		cfg.IMU = append(cfg.IMU, IMUConfig{
			Channel: ChannelConfig{
				ID:         uint16(100 + i),
				Name:       imuNames[i],
				Units:      units,
				Precision:  2,
				SampleRate: Rate25Hz,
			},
			Mode:            mode,
			PhysicalChannel: i,
			ZeroValue:       0,
			Alpha:           1,
		})
	}

	for i := 0; i < TimerChannels; i++ {
		cfg.Timer = append(cfg.Timer, TimerConfig{
			Channel: ChannelConfig{
				ID:         uint16(200 + i),
				Name:       timerName(i),
				Units:      "RPM",
				SampleRate: SampleDisabled,
			},
			Mode:        TimerRPM,
			Divider:     128,
			PulsePerRev: 1,
		})
	}

	for i := 0; i < GPIOChannels; i++ {
		cfg.GPIO = append(cfg.GPIO, GPIOConfig{
			Channel: ChannelConfig{
				ID:         uint16(300 + i),
				Name:       gpioName(i),
				SampleRate: SampleDisabled,
			},
			Mode: GPIOInput,
		})
	}

	for i := 0; i < PWMChannels; i++ {
		cfg.PWM = append(cfg.PWM, PWMConfig{
			Channel: ChannelConfig{
				ID:         uint16(400 + i),
				Name:       pwmName(i),
				Units:      "Volts",
				Precision:  2,
				SampleRate: SampleDisabled,
			},
			LoggingMode: PWMVolts,
			Period:      100,
			Duty:        50,
		})
	}

	return cfg
}

func analogName(i int) string { return fmt.Sprintf("Analog%d", i+1) }
func timerName(i int) string  { return fmt.Sprintf("RPM%d", i+1) }
func gpioName(i int) string   { return fmt.Sprintf("GPIO%d", i+1) }
func pwmName(i int) string    { return fmt.Sprintf("PWM%d", i+1) }
