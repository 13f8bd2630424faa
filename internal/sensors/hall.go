// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package sensors

import (
	"fmt"

	"periph.io/x/conn/v3/gpio"
)

// HallSensor reads door position from a hall-effect switch wired to a
// pulled-up input: the magnet pulls the line low while the door is shut.
type HallSensor struct {
	pin gpio.PinIn
}

// OpenHallSensor configures the named GPIO as the door sensor input.
func OpenHallSensor(pinName string) (*HallSensor, error) {
	p, err := pinByName(pinName)
	if err != nil {
		return nil, fmt.Errorf("hall sensor: %w", err)
	}
	return NewHallSensor(p)
}

// NewHallSensor configures pin as a pulled-up input.
func NewHallSensor(pin gpio.PinIn) (*HallSensor, error) {
	if err := pin.In(gpio.PullUp, gpio.NoEdge); err != nil {
		return nil, fmt.Errorf("hall sensor: configure %s: %w", pin, err)
	}
	return &HallSensor{pin: pin}, nil
}

// Open reports true while the door is open.
func (h *HallSensor) Open() (bool, error) {
	return h.pin.Read() == gpio.High, nil
}
