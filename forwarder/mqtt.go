package forwarder

import (
	"context"
	"encoding/json"
	"sync/atomic"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/jd3nn1s/racelogger/config"
	"github.com/jd3nn1s/racelogger/sample"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

const (
	mqttQoS            = 0
	mqttPublishTimeout = 2 * time.Second
	mqttQuiesceMillis  = 250
)

// to allow testing
var newMQTTClient = func(opts *mqtt.ClientOptions) mqtt.Client {
	return mqtt.NewClient(opts)
}

// MQTTForwarder publishes each record as a JSON document.
type MQTTForwarder struct {
	Config config.MQTTConfig

	client  mqtt.Client
	fwdChan chan *sample.Record
	dropped atomic.Uint64
}

func NewMQTTForwarder(cfg config.MQTTConfig) (*MQTTForwarder, error) {
	if cfg.Broker == "" {
		return nil, errors.New("mqtt broker not configured")
	}
	opts := mqtt.NewClientOptions().
		AddBroker(cfg.Broker).
		SetClientID(cfg.ClientID).
		SetAutoReconnect(true)

	client := newMQTTClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, errors.Wrapf(token.Error(), "mqtt connect to %s", cfg.Broker)
	}
	log.WithField("broker", cfg.Broker).Info("connected to mqtt broker")

	return &MQTTForwarder{
		Config:  cfg,
		client:  client,
		fwdChan: make(chan *sample.Record, queueSize),
	}, nil
}

func (m *MQTTForwarder) Close() error {
	m.client.Disconnect(mqttQuiesceMillis)
	return nil
}

func (m *MQTTForwarder) Forward(r *sample.Record) error {
	select {
	case m.fwdChan <- r:
	default:
		if n := m.dropped.Add(1); n%100 == 1 {
			log.WithField("dropped", n).Warn("mqtt forwarder queue full, dropping records")
		}
	}
	return nil
}

func (m *MQTTForwarder) Start(ctx context.Context) error {
	for {
		select {
		case r := <-m.fwdChan:
			if err := m.publish(r); err != nil {
				log.WithField("err", err).Error("unable to publish record")
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (m *MQTTForwarder) Name() string {
	return "mqtt"
}

func (m *MQTTForwarder) publish(r *sample.Record) error {
	payload, err := json.Marshal(r)
	if err != nil {
		return errors.Wrap(err, "unable to encode record")
	}
	token := m.client.Publish(m.Config.Topic, mqttQoS, false, payload)
	if !token.WaitTimeout(mqttPublishTimeout) {
		return errors.Errorf("timed out publishing to %s", m.Config.Topic)
	}
	return errors.Wrapf(token.Error(), "publish to %s", m.Config.Topic)
}
