// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package device

import (
	"fmt"
	"strings"
)

// State is the controller's current belief about the lock.
// A single instance lives for the whole process and is only touched from
// the supervisor goroutine, so it carries no locking.
//
// Optional fields are pointers; nil means "never observed".
type State struct {
	id string

	// GPS
	Now *int64   // epoch seconds from the last parsed fix
	Lat *float64 // sticky: only replaced by a valid fix
	Lng *float64

	// Door
	Locked     bool
	Open       bool
	LastClosed *int64 // fix time of the last open->closed edge while unlocked

	// Battery
	BatteryPercentage *string
}

// NewState returns an unlocked, closed state for the given device id.
func NewState(id string) *State {
	return &State{id: id}
}

// ID returns the fixed device identifier.
func (s *State) ID() string {
	return s.id
}

// Snapshot is the JSON payload published to the status topic.
type Snapshot struct {
	ID                string  `json:"id"`
	Lat               float64 `json:"lat"`
	Lng               float64 `json:"lng"`
	Locked            bool    `json:"locked"`
	UpdatedAt         int64   `json:"updated_at"`
	BatteryPercentage string  `json:"battery_percentage"`
	LastClosed        int64   `json:"last_closed"`
}

// DisplayDefaults returns the placeholder values published for fields that
// have never been observed. They are cosmetic and not sensor readings.
func DisplayDefaults() Snapshot {
	return Snapshot{
		Lat:               44.016,
		Lng:               -73.16,
		UpdatedAt:         0,
		BatteryPercentage: "69%",
		LastClosed:        0,
	}
}

// Data projects the state into a Snapshot, filling unset fields from
// DisplayDefaults.
func (s *State) Data() Snapshot {
	d := DisplayDefaults()
	snap := Snapshot{
		ID:     s.id,
		Locked: s.Locked,
	}
	snap.Lat = floatOr(s.Lat, d.Lat)
	snap.Lng = floatOr(s.Lng, d.Lng)
	snap.UpdatedAt = intOr(s.Now, d.UpdatedAt)
	snap.BatteryPercentage = stringOr(s.BatteryPercentage, d.BatteryPercentage)
	snap.LastClosed = intOr(s.LastClosed, d.LastClosed)
	return snap
}

// String renders the state for the display and log sinks.
func (s *State) String() string {
	var b strings.Builder
	b.WriteString("DeviceState:\n")
	fmt.Fprintf(&b, " now=%s\n", fmtInt(s.Now))
	fmt.Fprintf(&b, " lat=%s\n", fmtFloat(s.Lat))
	fmt.Fprintf(&b, " lng=%s\n", fmtFloat(s.Lng))
	fmt.Fprintf(&b, " locked=%t\n", s.Locked)
	fmt.Fprintf(&b, " open=%t\n", s.Open)
	fmt.Fprintf(&b, " batt=%s\n", fmtString(s.BatteryPercentage))
	fmt.Fprintf(&b, " lc=%s", fmtInt(s.LastClosed))
	return b.String()
}

// Int64 returns a pointer to a copy of v.
func Int64(v int64) *int64 { return &v }

// Float64 returns a pointer to a copy of v.
func Float64(v float64) *float64 { return &v }

// String returns a pointer to a copy of v.
func String(v string) *string { return &v }

// CopyInt64 returns an independent copy of p, or nil.
func CopyInt64(p *int64) *int64 {
	if p == nil {
		return nil
	}
	return Int64(*p)
}

func floatOr(p *float64, def float64) float64 {
	if p == nil {
		return def
	}
	return *p
}

func intOr(p *int64, def int64) int64 {
	if p == nil {
		return def
	}
	return *p
}

func stringOr(p *string, def string) string {
	if p == nil {
		return def
	}
	return *p
}

func fmtInt(p *int64) string {
	if p == nil {
		return "None"
	}
	return fmt.Sprintf("%d", *p)
}

func fmtFloat(p *float64) string {
	if p == nil {
		return "None"
	}
	return fmt.Sprintf("%.6f", *p)
}

func fmtString(p *string) string {
	if p == nil {
		return "None"
	}
	return *p
}
