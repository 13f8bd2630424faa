// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package lock

import (
	"fmt"
	"log"
	"time"

	"github.com/relabs-tech/smartlock/internal/device"
)

// DefaultDelay is how long the door must stay closed, in fix time, before
// the bolt is thrown.
const DefaultDelay = 3 * time.Second

// DoorSensor reports whether the door is currently open.
type DoorSensor interface {
	Open() (bool, error)
}

// Actuator drives the bolt.
type Actuator interface {
	Lock() error
	Unlock() error
}

// PublishFunc sends a state snapshot to the status topic.
type PublishFunc func(device.Snapshot) error

// Controller is the auto-lock state machine. It only measures time with the
// GPS-derived st.Now; without a fix the pending timer never expires.
type Controller struct {
	sensor   DoorSensor
	actuator Actuator
	publish  PublishFunc
	delay    int64 // seconds
}

// NewController returns a Controller that locks once the door has been
// closed for delay. A delay below DefaultDelay is raised to DefaultDelay.
func NewController(sensor DoorSensor, actuator Actuator, publish PublishFunc, delay time.Duration) *Controller {
	if delay < DefaultDelay {
		delay = DefaultDelay
	}
	secs := int64(delay / time.Second)
	return &Controller{
		sensor:   sensor,
		actuator: actuator,
		publish:  publish,
		delay:    secs,
	}
}

// Evaluate runs one step of the state machine against st.
func (c *Controller) Evaluate(st *device.State) error {
	// The door sensor is ignored until a remote unlock.
	if st.Locked {
		return nil
	}

	open, err := c.sensor.Open()
	if err != nil {
		return fmt.Errorf("door sensor: %w", err)
	}

	if open != st.Open {
		if open {
			st.Open = true
		} else {
			st.Open = false
			st.LastClosed = device.CopyInt64(st.Now)
		}
		log.Printf("lock: door %s (%s)", doorWord(open), PhaseOf(st, c.delay))
	}

	if PhaseOf(st, c.delay) != ClosedExpired {
		return nil
	}

	if err := c.actuator.Lock(); err != nil {
		return fmt.Errorf("actuator lock: %w", err)
	}
	st.Locked = true
	log.Printf("lock: door closed for %ds, locked", *st.Now-*st.LastClosed)

	if err := c.publish(st.Data()); err != nil {
		return fmt.Errorf("publish lock: %w", err)
	}
	return nil
}

// Delay returns the configured auto-lock delay in seconds.
func (c *Controller) Delay() int64 {
	return c.delay
}

func doorWord(open bool) string {
	if open {
		return "opened"
	}
	return "closed"
}
