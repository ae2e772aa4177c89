package transport

import (
	"context"
	"fmt"
	"sync"

	"github.com/nerrad567/gray-logic-addon/internal/infrastructure/config"
	"github.com/nerrad567/gray-logic-addon/internal/infrastructure/mqtt"
)

// broker is the part of mqtt.Client the transport uses.
type broker interface {
	Subscribe(topic string, qos byte, handler mqtt.MessageHandler) error
	Publish(topic string, payload []byte, qos byte, retained bool) error
	Close() error
}

type brokerDialer func(cfg config.MQTTConfig, statusTopic string) (broker, error)

func dialBroker(cfg config.MQTTConfig, statusTopic string) (broker, error) {
	client, err := mqtt.Connect(cfg, statusTopic)
	if err != nil {
		return nil, err
	}
	return client, nil
}

// MQTT talks to the gateway through a broker. Registration is published on
// the shared register topic; after Upgrade, envelopes go to the plugin's
// out topic. Inbound envelopes arrive on the plugin's in topic.
type MQTT struct {
	cfg      config.MQTTConfig
	topics   mqtt.Topics
	pluginID string
	logger   Logger
	in       *inbox
	dial     brokerDialer

	mu       sync.Mutex
	client   broker
	outTopic string
	closed   bool
}

// NewMQTT creates an unconnected MQTT transport for pluginID.
func NewMQTT(cfg config.MQTTConfig, tcfg config.MQTTTransportConfig, pluginID string, logger Logger) *MQTT {
	if logger == nil {
		logger = noopLogger{}
	}
	return &MQTT{
		cfg:      cfg,
		topics:   mqtt.Topics{Prefix: tcfg.TopicPrefix},
		pluginID: pluginID,
		logger:   logger,
		in:       newInbox(tcfg.BufferSize),
		dial:     dialBroker,
	}
}

// Connect connects to the broker and subscribes to the plugin's in topic.
func (t *MQTT) Connect(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	client, err := t.dial(t.cfg, t.topics.PluginStatus(t.pluginID))
	if err != nil {
		return err
	}

	inTopic := t.topics.PluginIn(t.pluginID)
	if err := client.Subscribe(inTopic, byte(t.cfg.QoS), t.handle); err != nil {
		client.Close()
		return fmt.Errorf("subscribing %s: %w", inTopic, err)
	}

	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		client.Close()
		return ErrClosed
	}
	t.client = client
	t.outTopic = t.topics.Register()
	t.mu.Unlock()

	t.logger.Debug("mqtt transport connected", "in_topic", inTopic)
	return nil
}

// handle is the broker callback for the in topic.
func (t *MQTT) handle(_ string, payload []byte) error {
	msg := make([]byte, len(payload))
	copy(msg, payload)
	if !t.in.push(msg, nil) {
		return ErrClosed
	}
	return nil
}

// Upgrade moves outbound traffic from the register topic to the plugin's
// out topic. A non-empty addr names the out topic explicitly.
func (t *MQTT) Upgrade(_ context.Context, addr string) error {
	topic := addr
	if topic == "" {
		topic = t.topics.PluginOut(t.pluginID)
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return ErrClosed
	}
	t.outTopic = topic
	return nil
}

// Send publishes one envelope.
func (t *MQTT) Send(ctx context.Context, msg []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	t.mu.Lock()
	client, topic, closed := t.client, t.outTopic, t.closed
	t.mu.Unlock()

	if closed {
		return ErrClosed
	}
	if client == nil {
		return ErrNotConnected
	}
	return client.Publish(topic, msg, byte(t.cfg.QoS), false)
}

// Recv returns the next envelope from the in topic.
func (t *MQTT) Recv(ctx context.Context) ([]byte, error) {
	t.mu.Lock()
	client := t.client
	t.mu.Unlock()
	if client == nil {
		return nil, ErrNotConnected
	}
	return t.in.recv(ctx)
}

// Close disconnects from the broker.
func (t *MQTT) Close() error {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return nil
	}
	t.closed = true
	client := t.client
	t.mu.Unlock()

	t.in.close()
	if client != nil {
		return client.Close()
	}
	return nil
}
