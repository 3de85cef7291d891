package mqtt

import (
	"fmt"

	paho "github.com/eclipse/paho.mqtt.golang"
	log "github.com/sirupsen/logrus"

	"github.com/sweeney/onebutton/internal/gesture"
)

// Subscriber receives gesture events for every button under a topic prefix.
type Subscriber struct {
	client paho.Client
}

// Subscribe connects to the broker and calls handle for each gesture event.
// Malformed payloads are logged and dropped.
func Subscribe(opts Options, handle func(gesture.Event)) (*Subscriber, error) {
	topic := EventWildcard(opts.TopicPrefix)
	copts := paho.NewClientOptions().
		AddBroker(opts.Broker).
		SetClientID(opts.ClientID).
		SetAutoReconnect(true).
		SetOnConnectHandler(func(c paho.Client) {
			// Resubscribe on every (re)connect; the session is not persistent.
			token := c.Subscribe(topic, 0, func(_ paho.Client, msg paho.Message) {
				event, err := ParsePayload(msg.Payload())
				if err != nil {
					log.Printf("mqtt: bad payload on %s: %v", msg.Topic(), err)
					return
				}
				handle(event)
			})
			if token.WaitTimeout(publishTimeout) && token.Error() != nil {
				log.Printf("mqtt: subscribe %s: %v", topic, token.Error())
			}
		})

	client := paho.NewClient(copts)
	token := client.Connect()
	if !token.WaitTimeout(ConnectTimeout) {
		return nil, fmt.Errorf("connection timeout")
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("connect to broker: %w", err)
	}
	return &Subscriber{client: client}, nil
}

// Close disconnects from the broker.
func (s *Subscriber) Close() error {
	s.client.Disconnect(250)
	return nil
}
