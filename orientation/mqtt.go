package orientation

import (
	"encoding/json"
	"fmt"
	"log"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

// DefaultPoseTopic is the topic IMU producers publish poses on.
const DefaultPoseTopic = "inertial/pose"

// MQTTConfig selects the broker and topic of an MQTTSource.
type MQTTConfig struct {
	Broker   string // e.g. tcp://localhost:1883
	ClientID string
	Topic    string
	QoS      byte
	Timeout  time.Duration // connect and subscribe; 0 means 10s
}

func (c MQTTConfig) withDefaults() MQTTConfig {
	if c.ClientID == "" {
		c.ClientID = "photosphere-viewer"
	}
	if c.Topic == "" {
		c.Topic = DefaultPoseTopic
	}
	if c.Timeout <= 0 {
		c.Timeout = 10 * time.Second
	}
	return c
}

// MQTTSource subscribes to a pose topic.
type MQTTSource struct {
	*stream
	client mqtt.Client
	topic  string
}

// DialMQTT connects to the broker and subscribes to the pose topic.
func DialMQTT(cfg MQTTConfig) (*MQTTSource, error) {
	if cfg.Broker == "" {
		return nil, fmt.Errorf("mqtt: no broker")
	}
	cfg = cfg.withDefaults()

	opts := mqtt.NewClientOptions().
		AddBroker(cfg.Broker).
		SetClientID(cfg.ClientID).
		SetAutoReconnect(true).
		SetConnectionLostHandler(func(_ mqtt.Client, err error) {
			log.Printf("mqtt: connection lost: %v", err)
		})

	s := &MQTTSource{stream: newStream(), topic: cfg.Topic}
	s.client = mqtt.NewClient(opts)

	token := s.client.Connect()
	if !token.WaitTimeout(cfg.Timeout) {
		return nil, fmt.Errorf("mqtt: connect to %s: timed out", cfg.Broker)
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("mqtt: connect to %s: %w", cfg.Broker, err)
	}
	log.Printf("mqtt: connected to %s", cfg.Broker)

	token = s.client.Subscribe(cfg.Topic, cfg.QoS, s.handle)
	if !token.WaitTimeout(cfg.Timeout) || token.Error() != nil {
		err := token.Error()
		s.client.Disconnect(250)
		if err == nil {
			err = fmt.Errorf("timed out")
		}
		return nil, fmt.Errorf("mqtt: subscribe %s: %w", cfg.Topic, err)
	}
	log.Printf("mqtt: subscribed to %s", cfg.Topic)
	return s, nil
}

// handle decodes one pose message.
func (s *MQTTSource) handle(_ mqtt.Client, msg mqtt.Message) {
	var p Pose
	if err := json.Unmarshal(msg.Payload(), &p); err != nil {
		log.Printf("mqtt: pose unmarshal error on %s: %v", msg.Topic(), err)
		return
	}
	s.publish(p.Position())
}

// Close unsubscribes, disconnects and closes the sample channel.
func (s *MQTTSource) Close() error {
	if s.client != nil && s.client.IsConnected() {
		s.client.Unsubscribe(s.topic).WaitTimeout(time.Second)
		s.client.Disconnect(250)
		log.Printf("mqtt: disconnected")
	}
	s.stream.close()
	return nil
}
