package mqtt

import (
	"errors"
	"fmt"
	"sync"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	log "github.com/sirupsen/logrus"

	"github.com/sweeney/onebutton/internal/gesture"
)

const (
	// ConnectTimeout bounds how long a connect waits for the broker.
	ConnectTimeout = 10 * time.Second
	publishTimeout = 5 * time.Second
	bufferCapacity = 256
)

// ErrBuffered is returned by RealPublisher when the broker is unreachable and
// the message was queued for delivery after reconnecting instead of sent.
var ErrBuffered = errors.New("mqtt: offline, message buffered")

// Options configures a RealPublisher.
type Options struct {
	Broker      string
	ClientID    string
	TopicPrefix string
}

// RealPublisher publishes to an actual MQTT broker.
// Messages published while the connection is down are buffered and flushed
// after reconnecting.
type RealPublisher struct {
	client paho.Client
	prefix string

	mu        sync.Mutex
	buffer    *ringBuffer
	connected bool
	connects  int
}

// NewRealPublisher creates a publisher for the given broker. If the broker is
// unreachable the client keeps retrying in the background and messages are
// buffered until the first connection succeeds.
func NewRealPublisher(opts Options) (*RealPublisher, error) {
	p := &RealPublisher{
		prefix: opts.TopicPrefix,
		buffer: newRingBuffer(bufferCapacity),
	}

	will, err := FormatSystemPayload(SystemEvent{
		Timestamp: time.Now(),
		Event:     "SHUTDOWN",
		Reason:    "MQTT_DISCONNECT",
	})
	if err != nil {
		return nil, fmt.Errorf("format will payload: %w", err)
	}

	copts := paho.NewClientOptions().
		AddBroker(opts.Broker).
		SetClientID(opts.ClientID).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5 * time.Second).
		SetWill(SystemTopic(opts.TopicPrefix), string(will), 1, true).
		SetOnConnectHandler(p.onConnect).
		SetConnectionLostHandler(p.onConnectionLost)

	p.client = paho.NewClient(copts)
	token := p.client.Connect()
	if !token.WaitTimeout(ConnectTimeout) {
		log.Printf("mqtt: broker %s not reachable yet, buffering until connected", opts.Broker)
		return p, nil
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("connect to broker: %w", err)
	}

	return p, nil
}

func (p *RealPublisher) onConnect(c paho.Client) {
	p.mu.Lock()
	p.connected = true
	p.connects++
	reconnect := p.connects > 1
	pending, dropped := p.buffer.drainAll()
	p.mu.Unlock()

	if reconnect {
		log.Printf("mqtt: reconnected")
		payload, _ := FormatSystemPayload(SystemEvent{Timestamp: time.Now(), Event: "RECONNECTED"})
		if err := p.send(SystemTopic(p.prefix), 1, false, payload); err != nil {
			log.Printf("mqtt: publish reconnected event: %v", err)
		}
	}

	if dropped > 0 {
		log.Warnf("mqtt: %d buffered messages were dropped while offline", dropped)
	}
	if len(pending) > 0 {
		log.Printf("mqtt: flushing %d buffered messages", len(pending))
	}
	for _, m := range pending {
		if err := p.send(m.topic, m.qos, m.retained, m.payload); err != nil {
			log.Printf("mqtt: flush %s: %v", m.topic, err)
		}
	}
}

func (p *RealPublisher) onConnectionLost(c paho.Client, err error) {
	p.mu.Lock()
	p.connected = false
	p.mu.Unlock()
	log.Printf("mqtt: connection lost: %v", err)
}

// Publish sends a gesture event to the MQTT broker.
// It does not wait for delivery so the polling loop is never held up by
// the network.
func (p *RealPublisher) Publish(event gesture.Event) error {
	payload, err := FormatPayload(event)
	if err != nil {
		return fmt.Errorf("format payload: %w", err)
	}

	// QoS 0 (at-most-once), not retained
	topic := EventTopic(p.prefix, event.Button)
	if p.bufferIfOffline(bufferedMsg{topic: topic, payload: payload}) {
		return ErrBuffered
	}
	token := p.client.Publish(topic, 0, false, payload)
	go func() {
		if !token.WaitTimeout(publishTimeout) {
			log.Printf("mqtt: publish %s: timeout", topic)
			return
		}
		if err := token.Error(); err != nil {
			log.Printf("mqtt: publish %s: %v", topic, err)
		}
	}()
	return nil
}

// PublishSystem sends a system lifecycle event to the MQTT broker.
func (p *RealPublisher) PublishSystem(event SystemEvent) error {
	payload, err := FormatSystemPayload(event)
	if err != nil {
		return fmt.Errorf("format system payload: %w", err)
	}

	// QoS 1 (at-least-once) - lifecycle events should be delivered
	topic := SystemTopic(p.prefix)
	if p.bufferIfOffline(bufferedMsg{topic: topic, payload: payload, qos: 1, retained: event.Retained}) {
		return ErrBuffered
	}
	if err := p.send(topic, 1, event.Retained, payload); err != nil {
		return fmt.Errorf("publish system: %w", err)
	}
	return nil
}

func (p *RealPublisher) bufferIfOffline(m bufferedMsg) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.connected {
		return false
	}
	p.buffer.push(m)
	return true
}

func (p *RealPublisher) send(topic string, qos byte, retained bool, payload []byte) error {
	token := p.client.Publish(topic, qos, retained, payload)
	if !token.WaitTimeout(publishTimeout) {
		return fmt.Errorf("publish timeout")
	}
	return token.Error()
}

// IsConnected reports whether the client currently has an open connection.
func (p *RealPublisher) IsConnected() bool {
	return p.client.IsConnectionOpen()
}

// Close disconnects from the broker.
func (p *RealPublisher) Close() error {
	p.client.Disconnect(1000) // 1 second timeout
	return nil
}
