package config

import (
	"github.com/jd3nn1s/racelogger/canmap"
	"github.com/jd3nn1s/racelogger/scaling"
)

// SampleDisabled is the sample rate of a channel that is not logged.
const SampleDisabled uint16 = 0

// Channel array limits of the logger hardware.
const (
	ADCChannels   = 8
	IMUChannels   = 4
	TimerChannels = 3
	GPIOChannels  = 3
	PWMChannels   = 4
	OBD2Channels  = 20
	CANChannels   = 100
)

// HigherSampleRate returns the faster of two sample rate divisors. A smaller
// divisor samples more often and a disabled rate loses to any other.
func HigherSampleRate(a, b uint16) uint16 {
	if a == SampleDisabled {
		return b
	}
	if b == SampleDisabled || a < b {
		return a
	}
	return b
}

// ChannelConfig is the logging identity of one channel.
type ChannelConfig struct {
	ID         uint16 `toml:"id" yaml:"id"`
	Name       string `toml:"name" yaml:"name"`
	Units      string `toml:"units" yaml:"units"`
	Precision  uint8  `toml:"precision" yaml:"precision"`
	SampleRate uint16 `toml:"sample_rate" yaml:"sample_rate"`
}

// Enabled reports whether the channel is logged at all.
func (c ChannelConfig) Enabled() bool {
	return c.SampleRate != SampleDisabled
}

type ScalingMode int

const (
	ScalingRaw ScalingMode = iota
	ScalingLinear
	ScalingMap
)

type ADCConfig struct {
	Channel       ChannelConfig `toml:"channel" yaml:"channel"`
	ScalingMode   ScalingMode   `toml:"scaling_mode" yaml:"scaling_mode"`
	LinearScaling float64       `toml:"linear_scaling" yaml:"linear_scaling"`
	Map           scaling.Map   `toml:"map" yaml:"map"`
}

type IMUMode int

const (
	IMUAccel IMUMode = iota
	IMUGyro
)

type IMUConfig struct {
	Channel ChannelConfig `toml:"channel" yaml:"channel"`
	Mode    IMUMode       `toml:"mode" yaml:"mode"`
	// PhysicalChannel selects the sensor axis feeding this channel.
	PhysicalChannel int     `toml:"physical_channel" yaml:"physical_channel"`
	ZeroValue       int     `toml:"zero_value" yaml:"zero_value"`
	Alpha           float64 `toml:"alpha" yaml:"alpha"`
}

type TimerMode int

const (
	TimerRPM TimerMode = iota
	TimerFrequency
	TimerPeriodMs
	TimerPeriodUsec
)

// TimerClockHz is the timer peripheral master clock.
const TimerClockHz = 48_000_000

type TimerConfig struct {
	Channel     ChannelConfig `toml:"channel" yaml:"channel"`
	Mode        TimerMode     `toml:"mode" yaml:"mode"`
	Divider     int           `toml:"divider" yaml:"divider"`
	PulsePerRev int           `toml:"pulse_per_rev" yaml:"pulse_per_rev"`
}

// Scaling is the timer tick rate in Hz after the clock divider.
func (c TimerConfig) Scaling() float64 {
	divider := c.Divider
	if divider <= 0 {
		divider = 1
	}
	return float64(TimerClockHz) / float64(divider)
}

type GPIOMode int

const (
	GPIOInput GPIOMode = iota
	GPIOOutput
)

type GPIOConfig struct {
	Channel ChannelConfig `toml:"channel" yaml:"channel"`
	Mode    GPIOMode      `toml:"mode" yaml:"mode"`
}

type PWMLoggingMode int

const (
	PWMPeriod PWMLoggingMode = iota
	PWMDuty
	PWMVolts
)

type PWMConfig struct {
	Channel     ChannelConfig  `toml:"channel" yaml:"channel"`
	LoggingMode PWMLoggingMode `toml:"logging_mode" yaml:"logging_mode"`
	Period      int            `toml:"period" yaml:"period"`
	Duty        int            `toml:"duty" yaml:"duty"`
}

type PIDConfig struct {
	Channel ChannelConfig `toml:"channel" yaml:"channel"`
	PID     uint16        `toml:"pid" yaml:"pid"`
}

type OBD2Config struct {
	PIDs []PIDConfig `toml:"pids" yaml:"pids"`
}

// GPS receiver types.
const (
	GPSSkytraq  = "skytraq"
	GPSNMEA     = "nmea"
	GPSDisabled = "disabled"
)

type GPSConfig struct {
	Type       string `toml:"type" yaml:"type"`
	PortPath   string `toml:"port_path" yaml:"port_path"`
	BaudRate   int    `toml:"baud_rate" yaml:"baud_rate"`
	SampleRate uint16 `toml:"sample_rate" yaml:"sample_rate"`

	PositionEnabled   bool `toml:"position" yaml:"position"`
	SpeedEnabled      bool `toml:"speed" yaml:"speed"`
	TimeEnabled       bool `toml:"time" yaml:"time"`
	SatellitesEnabled bool `toml:"satellites" yaml:"satellites"`
	DistanceEnabled   bool `toml:"distance" yaml:"distance"`
}

type LapConfig struct {
	LapCount   ChannelConfig `toml:"lap_count" yaml:"lap_count"`
	LapTime    ChannelConfig `toml:"lap_time" yaml:"lap_time"`
	Sector     ChannelConfig `toml:"sector" yaml:"sector"`
	SectorTime ChannelConfig `toml:"sector_time" yaml:"sector_time"`
	PredTime   ChannelConfig `toml:"predicted_time" yaml:"predicted_time"`
}

// CANChannelConfig logs one signal extracted from CAN traffic as a virtual
// channel.
type CANChannelConfig struct {
	Channel ChannelConfig  `toml:"channel" yaml:"channel"`
	Mapping canmap.Mapping `toml:"mapping" yaml:"mapping"`
}

// CAN frame source drivers.
const (
	CANDriverBus       = "bus"
	CANDriverSocketCAN = "socketcan"
)

type CANConfig struct {
	Enabled   bool               `toml:"enabled" yaml:"enabled"`
	Driver    string             `toml:"driver" yaml:"driver"`
	Interface string             `toml:"interface" yaml:"interface"`
	Channels  []CANChannelConfig `toml:"channels" yaml:"channels"`
}

type ECUConfig struct {
	Enabled  bool   `toml:"enabled" yaml:"enabled"`
	PortPath string `toml:"port_path" yaml:"port_path"`
}

type LoggingConfig struct {
	Level string `toml:"level" yaml:"level"`
}

type ForwarderConfig struct {
	UDP  UDPConfig        `toml:"udp" yaml:"udp"`
	MQTT MQTTConfig       `toml:"mqtt" yaml:"mqtt"`
	CAN  CANForwardConfig `toml:"can" yaml:"can"`
}

type UDPConfig struct {
	Server string `toml:"server" yaml:"server"`
	Port   int    `toml:"port" yaml:"port"`
}

type MQTTConfig struct {
	Broker   string `toml:"broker" yaml:"broker"`
	ClientID string `toml:"client_id" yaml:"client_id"`
	Topic    string `toml:"topic" yaml:"topic"`
}

// CANForwardConfig publishes one logged channel back onto the CAN bus, for
// example vehicle speed for a dash display.
type CANForwardConfig struct {
	Enabled   bool   `toml:"enabled" yaml:"enabled"`
	ChannelID uint16 `toml:"channel_id" yaml:"channel_id"`
	FrameID   uint32 `toml:"frame_id" yaml:"frame_id"`
}

// Config is a complete logger configuration snapshot. It is treated as
// read-only once loaded; a change produces a new snapshot.
type Config struct {
	// TickHz is the base logging tick rate. Sample rates divide it.
	TickHz int `toml:"tick_hz" yaml:"tick_hz"`

	ADC   []ADCConfig   `toml:"adc" yaml:"adc"`
	IMU   []IMUConfig   `toml:"imu" yaml:"imu"`
	Timer []TimerConfig `toml:"timer" yaml:"timer"`
	GPIO  []GPIOConfig  `toml:"gpio" yaml:"gpio"`
	PWM   []PWMConfig   `toml:"pwm" yaml:"pwm"`
	OBD2  OBD2Config    `toml:"obd2" yaml:"obd2"`
	GPS   GPSConfig     `toml:"gps" yaml:"gps"`
	Laps  LapConfig     `toml:"laps" yaml:"laps"`
	CAN   CANConfig     `toml:"can" yaml:"can"`
	ECU   ECUConfig     `toml:"ecu" yaml:"ecu"`

	Logging   LoggingConfig   `toml:"logging" yaml:"logging"`
	Forwarder ForwarderConfig `toml:"forwarder" yaml:"forwarder"`
}
