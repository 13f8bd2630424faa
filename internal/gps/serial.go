// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package gps

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log"
	"time"

	nmea "github.com/adrianmo/go-nmea"
	serial "github.com/jacobsa/go-serial/serial"
)

// maxLineLen bounds the partial-line buffer. NMEA sentences are at most 82
// characters; anything longer is line noise.
const maxLineLen = 512

// Receiver setup sent by Configure: RMC output only, one fix per second.
var DefaultCommands = []string{
	"PMTK314,0,1,0,0,0,0,0,0,0,0,0,0,0,0,0,0,0,0,0",
	"PMTK220,1000",
}

// SerialSource reads NMEA lines from a serial port without blocking the
// caller for longer than the port's inter-character timeout. Partial lines
// are kept across calls.
type SerialSource struct {
	port  io.ReadWriteCloser
	buf   []byte
	chunk []byte
}

// OpenSerial opens the GPS receiver port. timeout is rounded down to the
// 100ms granularity of the termios VTIME setting.
func OpenSerial(portName string, baudRate int, timeout time.Duration) (*SerialSource, error) {
	opts := serial.OpenOptions{
		PortName:              portName,
		BaudRate:              uint(baudRate),
		DataBits:              8,
		StopBits:              1,
		MinimumReadSize:       0,
		ParityMode:            serial.PARITY_NONE,
		InterCharacterTimeout: uint(timeout / time.Millisecond / 100 * 100),
	}
	if opts.InterCharacterTimeout == 0 {
		opts.InterCharacterTimeout = 100
	}

	port, err := serial.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("gps: open %s: %w", portName, err)
	}
	log.Printf("gps: serial port opened on %s at %d baud", portName, baudRate)

	return newSerialSource(port), nil
}

func newSerialSource(port io.ReadWriteCloser) *SerialSource {
	return &SerialSource{
		port:  port,
		chunk: make([]byte, 128),
	}
}

// ReadLine returns the next complete line with surrounding whitespace
// removed. It performs at most one read on the port.
func (s *SerialSource) ReadLine() (string, bool, error) {
	if line, ok := s.nextLine(); ok {
		return line, true, nil
	}

	n, err := s.port.Read(s.chunk)
	if n > 0 {
		s.buf = append(s.buf, s.chunk[:n]...)
	}
	if err != nil && !errors.Is(err, io.EOF) {
		return "", false, err
	}

	if line, ok := s.nextLine(); ok {
		return line, true, nil
	}
	if len(s.buf) > maxLineLen {
		log.Printf("gps: discarding %d bytes without line terminator", len(s.buf))
		s.buf = s.buf[:0]
	}
	return "", false, nil
}

func (s *SerialSource) nextLine() (string, bool) {
	i := bytes.IndexByte(s.buf, '\n')
	if i < 0 {
		return "", false
	}
	line := string(bytes.TrimSpace(s.buf[:i]))
	s.buf = s.buf[:copy(s.buf, s.buf[i+1:])]
	return line, true
}

// Configure sends PMTK commands to the receiver, each framed as
// "$<cmd>*<checksum>\r\n".
func (s *SerialSource) Configure(commands ...string) error {
	for _, cmd := range commands {
		frame := Command(cmd)
		if _, err := io.WriteString(s.port, frame); err != nil {
			return fmt.Errorf("gps: send %q: %w", cmd, err)
		}
	}
	return nil
}

// Close releases the serial port.
func (s *SerialSource) Close() error {
	return s.port.Close()
}

// Command frames a receiver command with its NMEA checksum.
func Command(cmd string) string {
	return "$" + cmd + "*" + nmea.Checksum(cmd) + "\r\n"
}
