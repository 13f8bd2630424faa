// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package broker

import (
	"crypto/tls"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

// ErrTimeout is returned when the broker does not acknowledge an operation
// within Options.Timeout.
var ErrTimeout = errors.New("broker: operation timed out")

// Message is an inbound publication waiting to be handled.
type Message struct {
	Topic   string
	Payload []byte
}

// Options configures a Session.
type Options struct {
	Broker    string // e.g. "ssl://example.iot.amazonaws.com:8883"
	ClientID  string
	KeepAlive time.Duration
	TLS       *tls.Config // nil for plain tcp://

	// MaxReconnectInterval caps paho's reconnect backoff.
	MaxReconnectInterval time.Duration
	// InboxSize bounds the number of undelivered inbound messages.
	InboxSize int
	// Timeout bounds connect, publish and subscribe waits.
	Timeout time.Duration
}

// Session is a persistent MQTT connection. Inbound messages are not handled
// on paho's goroutines; they are queued and drained by the caller through
// Inbox.
type Session struct {
	client  mqtt.Client
	inbox   chan Message
	timeout time.Duration

	mu     sync.Mutex
	topics []string
}

// Connect dials the broker and blocks until the session is up.
func Connect(o Options) (*Session, error) {
	s := newSession(o)

	opts := mqtt.NewClientOptions().
		AddBroker(o.Broker).
		SetClientID(o.ClientID).
		SetKeepAlive(o.KeepAlive).
		SetCleanSession(true).
		SetAutoReconnect(true).
		SetConnectTimeout(s.timeout).
		SetOnConnectHandler(s.onConnect).
		SetConnectionLostHandler(func(_ mqtt.Client, err error) {
			log.Printf("broker: connection lost: %v", err)
		})
	if o.MaxReconnectInterval > 0 {
		opts.SetMaxReconnectInterval(o.MaxReconnectInterval)
	}
	if o.TLS != nil {
		opts.SetTLSConfig(o.TLS)
	}

	s.client = mqtt.NewClient(opts)
	if err := s.wait(s.client.Connect()); err != nil {
		return nil, fmt.Errorf("broker: connect %s: %w", o.Broker, err)
	}
	log.Printf("broker: connected to %s as %s", o.Broker, o.ClientID)

	return s, nil
}

func newSession(o Options) *Session {
	size := o.InboxSize
	if size <= 0 {
		size = 16
	}
	timeout := o.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Session{
		inbox:   make(chan Message, size),
		timeout: timeout,
	}
}

// Publish sends payload with QoS 0: no acknowledgement is tracked.
func (s *Session) Publish(topic string, payload []byte) error {
	if err := s.wait(s.client.Publish(topic, 0, false, payload)); err != nil {
		return fmt.Errorf("broker: publish %s: %w", topic, err)
	}
	return nil
}

// Subscribe registers topic. Subscriptions are restored after a reconnect.
func (s *Session) Subscribe(topic string) error {
	if err := s.wait(s.client.Subscribe(topic, 0, s.deliver)); err != nil {
		return fmt.Errorf("broker: subscribe %s: %w", topic, err)
	}

	s.mu.Lock()
	s.topics = append(s.topics, topic)
	s.mu.Unlock()

	log.Printf("broker: subscribed to %s", topic)
	return nil
}

// Inbox returns the queue of received messages.
func (s *Session) Inbox() <-chan Message {
	return s.inbox
}

// Close disconnects, allowing 250ms for in-flight work.
func (s *Session) Close() {
	s.client.Disconnect(250)
}

// deliver runs on paho's goroutine; it must never block.
func (s *Session) deliver(_ mqtt.Client, m mqtt.Message) {
	msg := Message{Topic: m.Topic(), Payload: m.Payload()}
	select {
	case s.inbox <- msg:
	default:
		log.Printf("broker: inbox full, dropping message on %s", msg.Topic)
	}
}

func (s *Session) onConnect(c mqtt.Client) {
	s.mu.Lock()
	topics := append([]string(nil), s.topics...)
	s.mu.Unlock()

	for _, topic := range topics {
		token := c.Subscribe(topic, 0, s.deliver)
		if !token.WaitTimeout(s.timeout) {
			log.Printf("broker: resubscribe %s: timed out", topic)
			continue
		}
		if err := token.Error(); err != nil {
			log.Printf("broker: resubscribe %s: %v", topic, err)
			continue
		}
		log.Printf("broker: resubscribed to %s", topic)
	}
}

func (s *Session) wait(token mqtt.Token) error {
	if !token.WaitTimeout(s.timeout) {
		return ErrTimeout
	}
	return token.Error()
}
