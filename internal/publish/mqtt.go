// Package publish mirrors console readings and session events to MQTT.
package publish

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"device_console/internal/logger"
	"device_console/internal/models"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

// Topic suffixes under the configured prefix.
const (
	TopicTelemetry = "telemetry"
	TopicEvents    = "events"
)

const (
	connectTimeout    = 5 * time.Second
	publishTimeout    = 3 * time.Second
	disconnectQuiesce = 250 // ms
)

var ErrPublishTimeout = errors.New("mqtt publish timed out")

// Options configure the broker connection.
type Options struct {
	Broker      string
	ClientID    string
	Username    string
	Password    string
	TopicPrefix string
	QoS         byte
	Retained    bool
}

// MQTTPublisher publishes JSON payloads to <prefix>/telemetry and <prefix>/events.
type MQTTPublisher struct {
	client   mqtt.Client
	prefix   string
	qos      byte
	retained bool
	timeout  time.Duration
	log      *logger.Logger
}

// NewMQTT builds a publisher; Connect must be called before publishing.
func NewMQTT(opts Options, log *logger.Logger) (*MQTTPublisher, error) {
	if opts.Broker == "" {
		return nil, errors.New("mqtt broker is required")
	}
	if opts.QoS > 2 {
		return nil, fmt.Errorf("mqtt qos %d out of range", opts.QoS)
	}
	if log == nil {
		log = logger.Nop()
	}
	if opts.ClientID == "" {
		opts.ClientID = "device-console"
	}

	co := mqtt.NewClientOptions()
	co.AddBroker(opts.Broker)
	co.SetClientID(opts.ClientID)
	if opts.Username != "" {
		co.SetUsername(opts.Username)
	}
	if opts.Password != "" {
		co.SetPassword(opts.Password)
	}
	co.SetAutoReconnect(true)
	co.SetConnectRetry(true)
	co.SetConnectTimeout(connectTimeout)
	co.SetConnectRetryInterval(connectTimeout)
	co.SetOnConnectHandler(func(mqtt.Client) {
		log.Infow("mqtt_connected", "broker", opts.Broker)
	})
	co.SetConnectionLostHandler(func(_ mqtt.Client, err error) {
		log.Warnw("mqtt_connection_lost", "err", err)
	})

	return newPublisher(mqtt.NewClient(co), opts, log), nil
}

func newPublisher(client mqtt.Client, opts Options, log *logger.Logger) *MQTTPublisher {
	return &MQTTPublisher{
		client:   client,
		prefix:   strings.Trim(opts.TopicPrefix, "/"),
		qos:      opts.QoS,
		retained: opts.Retained,
		timeout:  publishTimeout,
		log:      log,
	}
}

// Connect starts connecting. With retry enabled it does not fail on an
// unreachable broker; it waits at most connectTimeout for the first attempt.
func (p *MQTTPublisher) Connect() error {
	token := p.client.Connect()
	if token.WaitTimeout(connectTimeout) {
		if err := token.Error(); err != nil {
			return fmt.Errorf("mqtt connect: %w", err)
		}
		return nil
	}
	p.log.Warnw("mqtt_connect_pending", "timeout", connectTimeout.String())
	return nil
}

// Close disconnects from the broker.
func (p *MQTTPublisher) Close() {
	p.client.Disconnect(disconnectQuiesce)
}

func (p *MQTTPublisher) topic(suffix string) string {
	if p.prefix == "" {
		return suffix
	}
	return p.prefix + "/" + suffix
}

func (p *MQTTPublisher) PublishReading(r models.Reading) error {
	return p.publish(p.topic(TopicTelemetry), r)
}

func (p *MQTTPublisher) PublishEvent(e models.SessionEvent) error {
	return p.publish(p.topic(TopicEvents), e)
}

func (p *MQTTPublisher) publish(topic string, payload any) error {
	b, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode %s payload: %w", topic, err)
	}
	token := p.client.Publish(topic, p.qos, p.retained, b)
	if !token.WaitTimeout(p.timeout) {
		return fmt.Errorf("%s: %w", topic, ErrPublishTimeout)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publish to %s: %w", topic, err)
	}
	return nil
}

// Nop drops everything; used when MQTT is disabled.
type Nop struct{}

func (Nop) PublishReading(models.Reading) error    { return nil }
func (Nop) PublishEvent(models.SessionEvent) error { return nil }
