// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/relabs-tech/smartlock/internal/device"
)

// FixSource updates the device clock and position from the GPS.
type FixSource interface {
	UpdateFix(st *device.State) error
}

// Evaluator runs the auto-lock state machine.
type Evaluator interface {
	Evaluate(st *device.State) error
}

// CommandSource handles at most one pending remote command.
type CommandSource interface {
	CheckOneMessage() error
}

// Sink shows the rendered state somewhere. It never reports back-pressure.
type Sink interface {
	Render(text string)
}

// StageError records which step of a tick failed.
type StageError struct {
	Stage string
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// Supervisor runs the single control loop. Every piece of device state is
// read and written from the goroutine running Run.
type Supervisor struct {
	state    *device.State
	fix      FixSource
	lock     Evaluator
	commands CommandSource
	sinks    []Sink
	interval time.Duration
	faults   int
}

// NewSupervisor composes the loop stages.
func NewSupervisor(st *device.State, fix FixSource, lock Evaluator, commands CommandSource, interval time.Duration, sinks ...Sink) *Supervisor {
	return &Supervisor{
		state:    st,
		fix:      fix,
		lock:     lock,
		commands: commands,
		sinks:    sinks,
		interval: interval,
	}
}

// Run ticks until ctx is cancelled. A failing tick is logged and the loop
// carries on; nothing short of cancellation stops it.
func (s *Supervisor) Run(ctx context.Context) error {
	timer := time.NewTimer(0)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		}

		if err := s.Tick(); err != nil {
			s.faults++
			log.Printf("supervisor: tick failed (%d faults so far): %v", s.faults, err)
		}
		timer.Reset(s.interval)
	}
}

// Tick runs fix, lock, command and render in that order. The first stage
// to fail, by error or panic, ends the tick and is returned as a
// *StageError.
func (s *Supervisor) Tick() error {
	stages := []struct {
		name string
		run  func() error
	}{
		{"fix", func() error { return s.fix.UpdateFix(s.state) }},
		{"lock", func() error { return s.lock.Evaluate(s.state) }},
		{"command", s.commands.CheckOneMessage},
		{"render", s.render},
	}

	for _, stage := range stages {
		if err := guard(stage.run); err != nil {
			return &StageError{Stage: stage.name, Err: err}
		}
	}
	return nil
}

// Faults returns the number of failed ticks since start.
func (s *Supervisor) Faults() int {
	return s.faults
}

func (s *Supervisor) render() error {
	text := s.state.String()
	for _, sink := range s.sinks {
		sink.Render(text)
	}
	return nil
}

// guard converts a panic in fn into an error.
func guard(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return fn()
}
