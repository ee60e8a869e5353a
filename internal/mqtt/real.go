package mqtt

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"

	"github.com/CoryCharlton/emilys-neopixel/internal/neopixel"
)

const (
	bufferCapacity = 256
	publishTimeout = 5 * time.Second
)

// RealPublisher publishes to an actual MQTT broker. Messages published while
// the connection is down are buffered and replayed in order once the client
// reconnects; only the newest retained message per topic is kept.
type RealPublisher struct {
	client paho.Client
	topics Topics
	now    func() time.Time
	logger *slog.Logger

	mu            sync.Mutex
	connected     bool
	everConnected bool
	buffer        *outbox
}

// NewRealPublisher starts connecting to broker in the background and returns
// immediately. The client keeps retrying until Close.
func NewRealPublisher(broker, device string, logger *slog.Logger) *RealPublisher {
	p := newRealPublisher(TopicsFor(device), logger)

	will, _ := FormatSystemPayload(willEvent(p.now()))
	opts := paho.NewClientOptions().
		AddBroker(broker).
		SetClientID("emilys-neopixel-"+device).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5*time.Second).
		SetWill(p.topics.System, string(will), 1, true).
		SetOnConnectHandler(p.onConnect).
		SetConnectionLostHandler(p.onConnectionLost)

	p.client = paho.NewClient(opts)
	p.client.Connect()
	return p
}

func newRealPublisher(topics Topics, logger *slog.Logger) *RealPublisher {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "mqtt")
	return &RealPublisher{
		topics: topics,
		now:    time.Now,
		logger: logger,
		buffer: newOutbox(bufferCapacity, logger),
	}
}

func (p *RealPublisher) onConnect(c paho.Client) {
	p.mu.Lock()
	pending := p.buffer.drainAll()
	reconnect := p.everConnected
	p.connected = true
	p.everConnected = true
	// Replay under the lock so newer messages cannot overtake buffered ones.
	for _, m := range pending {
		c.Publish(m.topic, m.qos, m.retained, m.payload)
	}
	p.mu.Unlock()

	p.logger.Info("mqtt connected", "replayed", len(pending))
	if reconnect {
		if err := p.PublishSystem(SystemEvent{Timestamp: p.now(), Event: "RECONNECTED"}); err != nil {
			p.logger.Warn("publish reconnect event failed", "err", err)
		}
	}
}

func (p *RealPublisher) onConnectionLost(_ paho.Client, err error) {
	p.mu.Lock()
	p.connected = false
	p.mu.Unlock()
	p.logger.Warn("mqtt connection lost", "err", err)
}

// IsConnected reports whether the broker connection is up.
func (p *RealPublisher) IsConnected() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.connected
}

// PublishInput sends an input event at QoS 0.
func (p *RealPublisher) PublishInput(event InputEvent) error {
	payload, err := FormatInputPayload(event)
	if err != nil {
		return fmt.Errorf("format input payload: %w", err)
	}
	return p.publish(p.topics.Events, 0, false, payload)
}

// PublishState sends the display state, retained, at QoS 1.
func (p *RealPublisher) PublishState(t time.Time, state neopixel.State) error {
	payload, err := FormatStatePayload(t, state)
	if err != nil {
		return fmt.Errorf("format state payload: %w", err)
	}
	return p.publish(p.topics.State, 1, true, payload)
}

// PublishSystem sends a system lifecycle event at QoS 1.
func (p *RealPublisher) PublishSystem(event SystemEvent) error {
	payload, err := FormatSystemPayload(event)
	if err != nil {
		return fmt.Errorf("format system payload: %w", err)
	}
	return p.publish(p.topics.System, 1, event.Retained, payload)
}

func (p *RealPublisher) publish(topic string, qos byte, retained bool, payload []byte) error {
	p.mu.Lock()
	if !p.connected {
		p.buffer.push(bufferedMsg{topic: topic, payload: payload, qos: qos, retained: retained})
		p.mu.Unlock()
		return nil
	}
	p.mu.Unlock()

	token := p.client.Publish(topic, qos, retained, payload)
	if !token.WaitTimeout(publishTimeout) {
		return fmt.Errorf("publish to %s: timeout", topic)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publish to %s: %w", topic, err)
	}
	return nil
}

// Buffered returns how many messages are waiting for a connection.
func (p *RealPublisher) Buffered() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.buffer.len()
}

// Close disconnects from the broker.
func (p *RealPublisher) Close() error {
	p.client.Disconnect(1000) // 1 second quiesce
	return nil
}
