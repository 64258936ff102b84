package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

// MQTTOptions configures the broker connection.
type MQTTOptions struct {
	Broker         string
	ClientID       string
	Username       string
	Password       string
	TopicPrefix    string
	QoS            byte
	PublishTimeout time.Duration
}

// MQTTPublisher publishes ingestion events under <prefix>/<household>/ingestion.
type MQTTPublisher struct {
	client  mqtt.Client
	prefix  string
	qos     byte
	timeout time.Duration
}

// NewMQTTPublisher connects to the broker.
func NewMQTTPublisher(opts MQTTOptions) (*MQTTPublisher, error) {
	if opts.Broker == "" {
		return nil, fmt.Errorf("mqtt broker address is required")
	}
	if opts.ClientID == "" {
		opts.ClientID = "energy-service"
	}
	if opts.TopicPrefix == "" {
		opts.TopicPrefix = "household_energy"
	}
	if opts.PublishTimeout <= 0 {
		opts.PublishTimeout = 5 * time.Second
	}

	clientOpts := mqtt.NewClientOptions()
	clientOpts.AddBroker(fmt.Sprintf("tcp://%s", opts.Broker))
	clientOpts.SetClientID(opts.ClientID)
	clientOpts.SetAutoReconnect(true)
	clientOpts.SetConnectRetry(true)
	clientOpts.SetConnectTimeout(10 * time.Second)
	if opts.Username != "" {
		clientOpts.SetUsername(opts.Username)
	}
	if opts.Password != "" {
		clientOpts.SetPassword(opts.Password)
	}

	client := mqtt.NewClient(clientOpts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("connecting to MQTT broker: %w", token.Error())
	}
	return newMQTTPublisher(client, opts), nil
}

func newMQTTPublisher(client mqtt.Client, opts MQTTOptions) *MQTTPublisher {
	return &MQTTPublisher{
		client:  client,
		prefix:  opts.TopicPrefix,
		qos:     opts.QoS,
		timeout: opts.PublishTimeout,
	}
}

// Topic returns the topic used for a household.
func (p *MQTTPublisher) Topic(householdID int64) string {
	return fmt.Sprintf("%s/%d/ingestion", p.prefix, householdID)
}

// Publish implements Notifier. The latest event per household is retained.
func (p *MQTTPublisher) Publish(ctx context.Context, event IngestionEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encoding event: %w", err)
	}
	token := p.client.Publish(p.Topic(event.HouseholdID), p.qos, true, payload)
	select {
	case <-token.Done():
		return token.Error()
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(p.timeout):
		return fmt.Errorf("publishing to %s: timed out after %s", p.Topic(event.HouseholdID), p.timeout)
	}
}

// Close disconnects from the broker.
func (p *MQTTPublisher) Close() {
	if p.client != nil && p.client.IsConnected() {
		p.client.Disconnect(250)
	}
}
