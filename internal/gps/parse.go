// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package gps

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	nmea "github.com/adrianmo/go-nmea"
)

var (
	// ErrNotFix is returned for sentences that are not RMC reports.
	ErrNotFix = errors.New("gps: not an RMC sentence")
	// ErrTooFewFields is returned for RMC sentences with fewer than 3 fields.
	ErrTooFewFields = errors.New("gps: not enough fields")
	// ErrMalformed is returned when a field of an RMC sentence cannot be decoded.
	ErrMalformed = errors.New("gps: malformed sentence")
)

// checksumLen is the length of the "*hh" block that ends an NMEA sentence.
const checksumLen = 3

// ParseFix decodes a single RMC sentence such as
//
//	$GNRMC,024054.000,A,4400.6241,N,07310.8063,W,0.52,282.00,021221*hh
//
// Position is decoded as value/100 (degrees and minutes read as a single
// decimal number) with the sign flipped for S and W. Time is decoded even
// when the validity flag is not "A".
func ParseFix(line string) (Fix, error) {
	sentence, err := stripChecksum(strings.TrimSpace(line))
	if err != nil {
		return Fix{}, err
	}

	parts := strings.Split(sentence, ",")
	if !isRMC(parts[0]) {
		return Fix{}, ErrNotFix
	}
	if len(parts) < 3 {
		return Fix{}, ErrTooFewFields
	}

	fix := Fix{
		Validity: parts[2],
		Valid:    parts[2] == nmea.ValidRMC,
	}

	if fix.Valid {
		if len(parts) < 7 {
			return Fix{}, fmt.Errorf("%w: valid fix without position", ErrMalformed)
		}
		fix.Latitude, err = parseCoordinate(parts[3], parts[4], "S")
		if err != nil {
			return Fix{}, fmt.Errorf("%w: latitude: %v", ErrMalformed, err)
		}
		fix.Longitude, err = parseCoordinate(parts[5], parts[6], "W")
		if err != nil {
			return Fix{}, fmt.Errorf("%w: longitude: %v", ErrMalformed, err)
		}
	}

	hhmmss := parts[1]
	if len(hhmmss) > 6 {
		hhmmss = hhmmss[:6]
	}
	fix.Time, err = toEpoch(hhmmss, parts[len(parts)-1])
	if err != nil {
		return Fix{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	return fix, nil
}

// stripChecksum removes a trailing "*hh" block if the sentence carries one.
func stripChecksum(s string) (string, error) {
	if s == "" {
		return "", fmt.Errorf("%w: empty sentence", ErrMalformed)
	}
	i := strings.LastIndexByte(s, '*')
	if i < 0 {
		return s, nil
	}
	if i != len(s)-checksumLen || i == 0 {
		return "", fmt.Errorf("%w: bad checksum block", ErrMalformed)
	}
	return s[:i], nil
}

// isRMC accepts any talker, e.g. $GNRMC or $GPRMC.
func isRMC(head string) bool {
	return strings.HasPrefix(head, "$") && strings.HasSuffix(head, nmea.TypeRMC)
}

// parseCoordinate accepts only unsigned ddmm.mmmm digits; ParseFloat alone
// would let NaN and Inf through.
func parseCoordinate(value, hemisphere, negative string) (float64, error) {
	if !isDecimal(value) {
		return 0, fmt.Errorf("not a ddmm.mmmm value: %q", value)
	}
	v, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, err
	}
	v /= 100
	if hemisphere == negative {
		v = -v
	}
	return v, nil
}

func isDecimal(s string) bool {
	digits, dots := 0, 0
	for i := 0; i < len(s); i++ {
		switch c := s[i]; {
		case c >= '0' && c <= '9':
			digits++
		case c == '.':
			dots++
		default:
			return false
		}
	}
	return digits > 0 && dots <= 1
}

// rtcEpochOffset is the number of seconds between the Unix epoch and the
// receiver clock's origin, 2000-01-01T00:00:00Z.
const rtcEpochOffset = 946684800

var rtcOrigin = time.Date(2000, time.January, 1, 0, 0, 0, 0, time.UTC)

// toEpoch sets a clock counting from 2000-01-01 to the decoded date and time,
// reads it back, and shifts the reading onto the Unix epoch. The two-digit
// year is always 2000+yy.
func toEpoch(hhmmss, ddmmyy string) (int64, error) {
	t, err := nmea.ParseTime(hhmmss)
	if err != nil {
		return 0, err
	}
	if !t.Valid {
		return 0, errors.New("missing time")
	}
	d, err := nmea.ParseDate(ddmmyy)
	if err != nil {
		return 0, err
	}
	if !d.Valid {
		return 0, errors.New("missing date")
	}

	clock := time.Date(2000+d.YY, time.Month(d.MM), d.DD, t.Hour, t.Minute, t.Second, 0, time.UTC)
	sinceOrigin := int64(clock.Sub(rtcOrigin) / time.Second)
	return sinceOrigin + rtcEpochOffset, nil
}
