// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package sensors

import (
	"fmt"
	"log"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/physic"
)

// Duty values are expressed on a 10-bit scale (0..DutyResolution), the
// scale the servo positions were calibrated on.
const DutyResolution = 1023

// ServoFrequency is the standard hobby servo PWM rate.
const ServoFrequency = 50 * physic.Hertz

// ServoOpts describes the bolt servo positions.
type ServoOpts struct {
	MinDuty      int // lowest duty the servo accepts
	MaxDuty      int // highest duty the servo accepts
	LockedDuty   int
	UnlockedDuty int
}

// DefaultServoOpts matches the bolt mechanism: 40 throws it, 115 retracts it.
var DefaultServoOpts = ServoOpts{
	MinDuty:      40,
	MaxDuty:      115,
	LockedDuty:   40,
	UnlockedDuty: 115,
}

// Servo drives the bolt through a PWM pin.
type Servo struct {
	pin  gpio.PinOut
	opts ServoOpts
	duty int
}

// OpenServo configures the named GPIO as the bolt servo output.
func OpenServo(pinName string, opts ServoOpts) (*Servo, error) {
	p, err := pinByName(pinName)
	if err != nil {
		return nil, fmt.Errorf("servo: %w", err)
	}
	return NewServo(p, opts)
}

// NewServo returns a servo on pin, moved to the unlocked position.
func NewServo(pin gpio.PinOut, opts ServoOpts) (*Servo, error) {
	if opts.MinDuty > opts.MaxDuty {
		return nil, fmt.Errorf("servo: min duty %d above max duty %d", opts.MinDuty, opts.MaxDuty)
	}
	s := &Servo{pin: pin, opts: opts}
	if err := s.Unlock(); err != nil {
		return nil, err
	}
	return s, nil
}

// Duty moves the servo. Values outside [MinDuty, MaxDuty] are clamped.
func (s *Servo) Duty(v int) error {
	clamped := clamp(v, s.opts.MinDuty, s.opts.MaxDuty)
	if clamped != v {
		log.Printf("servo: duty %d clamped to %d", v, clamped)
	}
	d := gpio.Duty(int64(clamped) * int64(gpio.DutyMax) / DutyResolution)
	if err := s.pin.PWM(d, ServoFrequency); err != nil {
		return fmt.Errorf("servo: pwm %d: %w", clamped, err)
	}
	s.duty = clamped
	return nil
}

// Lock throws the bolt.
func (s *Servo) Lock() error {
	return s.Duty(s.opts.LockedDuty)
}

// Unlock retracts the bolt.
func (s *Servo) Unlock() error {
	return s.Duty(s.opts.UnlockedDuty)
}

// Position returns the last applied duty on the 10-bit scale.
func (s *Servo) Position() int {
	return s.duty
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
