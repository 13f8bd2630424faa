package sensors

import (
	"testing"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpiotest"
)

func TestHallSensorLevels(t *testing.T) {
	pin := &gpiotest.Pin{N: "GPIO26", Num: 26}
	h, err := NewHallSensor(pin)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if pin.P != gpio.PullUp {
		t.Errorf("expected pull-up, got %s", pin.P)
	}

	// Pull-up with no magnet present reads high: open.
	if open, _ := h.Open(); !open {
		t.Error("expected open with line high")
	}

	pin.Lock()
	pin.L = gpio.Low
	pin.Unlock()
	if open, _ := h.Open(); open {
		t.Error("expected closed with line low")
	}
}

func TestNewServoStartsUnlocked(t *testing.T) {
	pin := &gpiotest.Pin{N: "GPIO13", Num: 13}
	s, err := NewServo(pin, DefaultServoOpts)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.Position() != 115 {
		t.Errorf("expected unlocked position 115, got %d", s.Position())
	}
	if pin.F != ServoFrequency {
		t.Errorf("expected %s, got %s", ServoFrequency, pin.F)
	}
}

func TestServoLockUnlock(t *testing.T) {
	pin := &gpiotest.Pin{N: "GPIO13", Num: 13}
	s, err := NewServo(pin, DefaultServoOpts)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := s.Lock(); err != nil {
		t.Fatalf("lock: %v", err)
	}
	if s.Position() != 40 {
		t.Errorf("expected locked position 40, got %d", s.Position())
	}
	if want := gpio.Duty(40 * int64(gpio.DutyMax) / DutyResolution); pin.D != want {
		t.Errorf("expected duty %d, got %d", want, pin.D)
	}

	if err := s.Unlock(); err != nil {
		t.Fatalf("unlock: %v", err)
	}
	if s.Position() != 115 {
		t.Errorf("expected unlocked position 115, got %d", s.Position())
	}
}

func TestServoClampsDuty(t *testing.T) {
	tests := []struct {
		in, want int
	}{
		{0, 40},
		{-5, 40},
		{39, 40},
		{40, 40},
		{77, 77},
		{115, 115},
		{116, 115},
		{1023, 115},
	}

	pin := &gpiotest.Pin{N: "GPIO13", Num: 13}
	s, err := NewServo(pin, DefaultServoOpts)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for _, tt := range tests {
		if err := s.Duty(tt.in); err != nil {
			t.Errorf("duty %d: out of range must not error, got %v", tt.in, err)
		}
		if s.Position() != tt.want {
			t.Errorf("duty %d: expected %d, got %d", tt.in, tt.want, s.Position())
		}
		if !pin.D.Valid() {
			t.Errorf("duty %d: invalid pwm duty %d", tt.in, pin.D)
		}
	}
}

func TestNewServoRejectsInvertedRange(t *testing.T) {
	opts := DefaultServoOpts
	opts.MinDuty, opts.MaxDuty = 115, 40
	if _, err := NewServo(&gpiotest.Pin{N: "GPIO13"}, opts); err == nil {
		t.Error("expected error for inverted duty range")
	}
}

func TestInitHostRunsOnce(t *testing.T) {
	first := InitHost()
	if second := InitHost(); second != first {
		t.Errorf("expected the first init result to be reused, got %v then %v", first, second)
	}
}
