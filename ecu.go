package racelogger

import (
	"context"

	"github.com/jd3nn1s/kw1281"
	log "github.com/sirupsen/logrus"
)

// Standard OBD-II PIDs the KW1281 measurements are published as.
const (
	PIDCoolantTemp   uint16 = 0x05
	PIDRPM           uint16 = 0x0c
	PIDSpeed         uint16 = 0x0d
	PIDIntakeAirTemp uint16 = 0x0f
	PIDThrottle      uint16 = 0x11
	PIDModuleVoltage uint16 = 0x42
)

type ecuRetryable struct {
	portName string
	c        KW1281
	readings *Readings
}

// to allow testing
var ecuConnect = func(p string) (KW1281, error) {
	return kw1281.Connect(p)
}

func (e *ecuRetryable) Name() string {
	return "ecu"
}

func (e *ecuRetryable) Open() error {
	c, err := ecuConnect(e.portName)
	e.c = c
	return err
}

func (e *ecuRetryable) Close() error {
	if e.c == nil {
		return nil
	}
	return e.c.Close()
}

func (e *ecuRetryable) Start(ctx context.Context) error {
	return e.c.Start(ctx, kw1281.Callbacks{
		ECUDetails: func(details *kw1281.ECUDetails) {
			log.WithField("partNumber", details.PartNumber).Info()
			for _, line := range details.Details {
				log.Infof("ECU: %s", line)
			}
		},
		Measurement: e.measurement,
	})
}

func (e *ecuRetryable) measurement(group kw1281.MeasurementGroup, measurements []*kw1281.Measurement) {
	for _, m := range measurements {
		if m == nil || m.MeasurementValue == nil {
			continue
		}
		var pid uint16
		switch m.Metric {
		case kw1281.MetricRPM:
			pid = PIDRPM
		case kw1281.MetricSpeed:
			pid = PIDSpeed
		case kw1281.MetricAirIntakeTemp:
			pid = PIDIntakeAirTemp
		case kw1281.MetricThrottleAngle:
			pid = PIDThrottle
		case kw1281.MetricCoolantTemp:
			pid = PIDCoolantTemp
		case kw1281.MetricBatteryVoltage:
			pid = PIDModuleVoltage
		default:
			continue
		}
		v, ok := toFloat64(m.Value)
		if !ok {
			log.WithField("metric", m.Metric).
				WithField("value", m.Value).
				Debug("unsupported measurement value type")
			continue
		}
		e.readings.SetPID(pid, v)
	}
}

func toFloat64(val interface{}) (float64, bool) {
	switch v := val.(type) {
	case int:
		return float64(v), true
	case float32:
		return float64(v), true
	case float64:
		return v, true
	}
	return 0, false
}

func runECU(ctx context.Context, portName string, readings *Readings) {
	err := retry(ctx, &ecuRetryable{
		portName: portName,
		readings: readings,
	})
	if err != nil {
		log.Errorf("ecu done: %v", err)
	}
}
