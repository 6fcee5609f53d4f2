package config

import (
	"io"
	"os"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

type Format int

const (
	FormatTOML Format = iota
	FormatYAML
)

// FormatFromPath picks the decoder for a configuration file by extension.
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		return FormatTOML, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	}
	return 0, errors.Errorf("unknown configuration format for %s", path)
}

// Load reads and validates the configuration file at path. Settings absent
// from the file keep their Default values. A list present in the file
// replaces the default list, and its entries start from zero values.
func Load(path string) (*Config, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return nil, err
	}
	file, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "unable to open file %s", path)
	}
	defer file.Close()

	cfg, err := LoadFromReader(file, format)
	if err != nil {
		return nil, errors.Wrapf(err, "unable to load %s", path)
	}
	log.WithField("path", path).Info("loaded configuration")
	return cfg, nil
}

func LoadFromReader(r io.Reader, format Format) (*Config, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Wrap(err, "unable to read config reader")
	}
	cfg := Default()
	switch format {
	case FormatTOML:
		var raw map[string]interface{}
		if err := toml.Unmarshal(data, &raw); err != nil {
			return nil, errors.Wrap(err, "unable to decode toml configuration")
		}
		dropListedDefaults(reflect.ValueOf(cfg).Elem(), raw)
		if _, err := toml.Decode(string(data), cfg); err != nil {
			return nil, errors.Wrap(err, "unable to decode toml configuration")
		}
	case FormatYAML:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, errors.Wrap(err, "unable to decode yaml configuration")
		}
	default:
		return nil, errors.Errorf("unsupported configuration format %d", format)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// dropListedDefaults empties every default list the TOML document sets.
// The decoder would otherwise fill the existing entries, leaving default
// fields behind where YAML starts each entry from zero values.
func dropListedDefaults(v reflect.Value, raw map[string]interface{}) {
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		key := strings.Split(t.Field(i).Tag.Get("toml"), ",")[0]
		value, ok := raw[key]
		if key == "" || !ok {
			continue
		}
		field := v.Field(i)
		switch field.Kind() {
		case reflect.Slice:
			field.Set(reflect.Zero(field.Type()))
		case reflect.Struct:
			if table, ok := value.(map[string]interface{}); ok {
				dropListedDefaults(field, table)
			}
		}
	}
}

// Validate checks channel counts, modes and CAN mappings.
func (c *Config) Validate() error {
	if c.TickHz <= 0 {
		return errors.Errorf("tick_hz must be positive, got %d", c.TickHz)
	}
	limits := []struct {
		name  string
		count int
		max   int
	}{
		{"adc", len(c.ADC), ADCChannels},
		{"imu", len(c.IMU), IMUChannels},
		{"timer", len(c.Timer), TimerChannels},
		{"gpio", len(c.GPIO), GPIOChannels},
		{"pwm", len(c.PWM), PWMChannels},
		{"obd2 pids", len(c.OBD2.PIDs), OBD2Channels},
		{"can channels", len(c.CAN.Channels), CANChannels},
	}
	for _, l := range limits {
		if l.count > l.max {
			return errors.Errorf("too many %s channels: %d (max %d)", l.name, l.count, l.max)
		}
	}

	for i, t := range c.Timer {
		if t.Channel.Enabled() && t.PulsePerRev <= 0 {
			return errors.Errorf("timer %d: pulse_per_rev must be positive", i)
		}
	}
	for i, imu := range c.IMU {
		if imu.Alpha < 0 || imu.Alpha > 1 {
			return errors.Errorf("imu %d: alpha %v outside 0..1", i, imu.Alpha)
		}
	}
	for i, ch := range c.CAN.Channels {
		if err := ch.Mapping.Validate(); err != nil {
			return errors.Wrapf(err, "can channel %d (%s)", i, ch.Channel.Name)
		}
	}

	switch c.GPS.Type {
	case GPSSkytraq, GPSNMEA, GPSDisabled, "":
	default:
		return errors.Errorf("unknown gps type %q", c.GPS.Type)
	}
	switch c.CAN.Driver {
	case CANDriverBus, CANDriverSocketCAN, "":
	default:
		return errors.Errorf("unknown can driver %q", c.CAN.Driver)
	}
	return nil
}

// LogLevel returns the configured logrus level, defaulting to info.
func (c *Config) LogLevel() log.Level {
	level, err := log.ParseLevel(c.Logging.Level)
	if err != nil {
		return log.InfoLevel
	}
	return level
}
