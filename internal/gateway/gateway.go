// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"

	"github.com/relabs-tech/smartlock/internal/broker"
	"github.com/relabs-tech/smartlock/internal/device"
)

var (
	// ErrUnknownTopic is returned for accepted commands on a topic with no handler.
	ErrUnknownTopic = errors.New("gateway: no handler for topic")
	// ErrMalformedCommand is returned for payloads that are not a JSON object.
	ErrMalformedCommand = errors.New("gateway: malformed command")
)

// Transport is the pub/sub session the gateway runs on.
type Transport interface {
	Publish(topic string, payload []byte) error
	Subscribe(topic string) error
	Inbox() <-chan broker.Message
}

// Command is a decoded inbound command.
type Command struct {
	Topic  string
	ID     string
	Fields map[string]any
}

// Handler applies a command to the device state.
type Handler func(st *device.State, cmd Command) error

// Gateway routes inbound commands to handlers and publishes device state.
// All methods must be called from the goroutine that owns the state.
type Gateway struct {
	transport   Transport
	state       *device.State
	statusTopic string

	handlers   map[string]Handler
	subscribed map[string]struct{}
}

// New returns a gateway publishing state snapshots to statusTopic.
func New(t Transport, st *device.State, statusTopic string) *Gateway {
	return &Gateway{
		transport:   t,
		state:       st,
		statusTopic: statusTopic,
		handlers:    make(map[string]Handler),
		subscribed:  make(map[string]struct{}),
	}
}

// Handle registers h for topic. Registration happens at startup, before
// messages are processed.
func (g *Gateway) Handle(topic string, h Handler) {
	g.handlers[topic] = h
}

// Subscribe subscribes to topic once; repeated calls are no-ops.
func (g *Gateway) Subscribe(topic string) error {
	if _, ok := g.subscribed[topic]; ok {
		return nil
	}
	if err := g.transport.Subscribe(topic); err != nil {
		return err
	}
	g.subscribed[topic] = struct{}{}
	return nil
}

// Publish serializes snap and sends it to topic, at most once.
func (g *Gateway) Publish(topic string, snap device.Snapshot) error {
	payload, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("gateway: marshal state: %w", err)
	}
	return g.transport.Publish(topic, payload)
}

// PublishState publishes the current state to the status topic.
func (g *Gateway) PublishState() error {
	return g.Publish(g.statusTopic, g.state.Data())
}

// OnMessage authenticates and dispatches one inbound command.
//
// Commands whose id is not this device's are dropped without error. An
// accepted command is echoed by publishing the full state once its handler
// succeeds.
func (g *Gateway) OnMessage(topic string, payload []byte) error {
	var fields map[string]any
	if err := json.Unmarshal(payload, &fields); err != nil {
		return fmt.Errorf("%w on %s: %v", ErrMalformedCommand, topic, err)
	}

	id, _ := fields["id"].(string)
	if id != g.state.ID() {
		log.Printf("gateway: ignoring command on %s for another device", topic)
		return nil
	}

	h, ok := g.handlers[topic]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownTopic, topic)
	}

	if err := h(g.state, Command{Topic: topic, ID: id, Fields: fields}); err != nil {
		return fmt.Errorf("gateway: handle %s: %w", topic, err)
	}
	log.Printf("gateway: handled %s", topic)

	return g.PublishState()
}

// CheckOneMessage handles at most one queued message without blocking.
func (g *Gateway) CheckOneMessage() error {
	select {
	case m := <-g.transport.Inbox():
		return g.OnMessage(m.Topic, m.Payload)
	default:
		return nil
	}
}

// WaitForMessage blocks until one message is handled or ctx is done.
func (g *Gateway) WaitForMessage(ctx context.Context) error {
	select {
	case m := <-g.transport.Inbox():
		return g.OnMessage(m.Topic, m.Payload)
	case <-ctx.Done():
		return ctx.Err()
	}
}
