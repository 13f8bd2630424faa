// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package gps

import (
	"fmt"
	"log"

	"github.com/relabs-tech/smartlock/internal/device"
)

// LineSource yields at most one pending line per call.
// ok is false when nothing complete is available yet.
type LineSource interface {
	ReadLine() (line string, ok bool, err error)
}

// FixReader turns GPS sentences into updates of the device clock and position.
type FixReader struct {
	src LineSource
}

// NewFixReader returns a FixReader reading from src.
func NewFixReader(src LineSource) *FixReader {
	return &FixReader{src: src}
}

// UpdateFix reads one line and commits it to st.
//
// Now is replaced by every parsed sentence, valid or not. Lat/Lng are only
// replaced by a valid fix and otherwise keep their last value. Malformed
// sentences are logged and skipped without touching st; only a failing
// line source is returned as an error.
func (r *FixReader) UpdateFix(st *device.State) error {
	line, ok, err := r.src.ReadLine()
	if err != nil {
		return fmt.Errorf("gps read: %w", err)
	}
	if !ok || line == "" {
		return nil
	}

	fix, err := ParseFix(line)
	if err != nil {
		log.Printf("gps: skipping sentence: %v", err)
		return nil
	}

	if fix.Valid {
		st.Lat = device.Float64(fix.Latitude)
		st.Lng = device.Float64(fix.Longitude)
	}
	st.Now = device.Int64(fix.Time)

	log.Printf("gps: fix validity=%s lat=%.6f lng=%.6f now=%d", fix.Validity, fix.Latitude, fix.Longitude, fix.Time)
	return nil
}
