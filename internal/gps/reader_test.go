package gps

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/relabs-tech/smartlock/internal/device"
)

type fakeLines struct {
	lines []string
	err   error
	reads int
}

func (f *fakeLines) ReadLine() (string, bool, error) {
	f.reads++
	if f.err != nil {
		return "", false, f.err
	}
	if len(f.lines) == 0 {
		return "", false, nil
	}
	line := f.lines[0]
	f.lines = f.lines[1:]
	return line, true, nil
}

func TestUpdateFixValidSetsPositionAndTime(t *testing.T) {
	src := &fakeLines{lines: []string{"$GNRMC,024054.000,A,4400.6241,N,07310.8063,W,0.52,282.00,021221"}}
	st := device.NewState("lock")

	if err := NewFixReader(src).UpdateFix(st); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if st.Lat == nil || !near(*st.Lat, 44.006241) {
		t.Errorf("expected lat 44.006241, got %v", st.Lat)
	}
	if st.Lng == nil || !near(*st.Lng, -73.108063) {
		t.Errorf("expected lng -73.108063, got %v", st.Lng)
	}
	if exp := epoch(2021, time.December, 2, 2, 40, 54); st.Now == nil || *st.Now != exp {
		t.Errorf("expected now %d, got %v", exp, st.Now)
	}
}

func TestUpdateFixVoidKeepsPosition(t *testing.T) {
	src := &fakeLines{lines: []string{
		"$GNRMC,024054.000,A,4400.6241,N,07310.8063,W,0.52,282.00,021221",
		"$GNRMC,024627.000,V,,,,,0.41,302.99,021221",
	}}
	st := device.NewState("lock")
	r := NewFixReader(src)

	for i := 0; i < 2; i++ {
		if err := r.UpdateFix(st); err != nil {
			t.Fatalf("tick %d: unexpected error: %v", i, err)
		}
	}

	if st.Lat == nil || !near(*st.Lat, 44.006241) || st.Lng == nil || !near(*st.Lng, -73.108063) {
		t.Errorf("expected sticky position, got lat=%v lng=%v", st.Lat, st.Lng)
	}
	if exp := epoch(2021, time.December, 2, 2, 46, 27); *st.Now != exp {
		t.Errorf("expected now %d, got %d", exp, *st.Now)
	}
}

func TestUpdateFixVoidWithoutPriorPosition(t *testing.T) {
	src := &fakeLines{lines: []string{"$GNRMC,024627.000,V,,,,,0.41,302.99,021221"}}
	st := device.NewState("lock")

	if err := NewFixReader(src).UpdateFix(st); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if st.Lat != nil || st.Lng != nil {
		t.Errorf("expected no position, got lat=%v lng=%v", st.Lat, st.Lng)
	}
	if st.Now == nil {
		t.Error("expected now to be set by a void fix")
	}
}

func TestUpdateFixNoLineIsNoop(t *testing.T) {
	src := &fakeLines{}
	st := device.NewState("lock")
	st.Now = device.Int64(7)

	if err := NewFixReader(src).UpdateFix(st); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if *st.Now != 7 || st.Lat != nil {
		t.Errorf("state changed without input: %s", st)
	}
	if src.reads != 1 {
		t.Errorf("expected exactly one read, got %d", src.reads)
	}
}

func TestUpdateFixMalformedIsSkipped(t *testing.T) {
	for _, line := range []string{"*1", "$GNGGA,1,2,3", "$GNRMC,1", "garbage"} {
		st := device.NewState("lock")
		st.Now = device.Int64(7)
		st.Lat = device.Float64(1)

		err := NewFixReader(&fakeLines{lines: []string{line}}).UpdateFix(st)
		if err != nil {
			t.Errorf("%q: malformed input must not fault, got %v", line, err)
		}
		if *st.Now != 7 || *st.Lat != 1 {
			t.Errorf("%q: state changed: %s", line, st)
		}
	}
}

func TestUpdateFixNonFiniteCoordinatesKeepPosition(t *testing.T) {
	st := device.NewState("lock")
	st.Lat = device.Float64(44.006241)
	st.Lng = device.Float64(-73.108063)
	st.Now = device.Int64(7)

	src := &fakeLines{lines: []string{"$GNRMC,024054.000,A,NaN,N,Inf,W,0.52,282.00,021221"}}
	if err := NewFixReader(src).UpdateFix(st); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if *st.Lat != 44.006241 || *st.Lng != -73.108063 || *st.Now != 7 {
		t.Errorf("state changed: %s", st)
	}
	if _, err := json.Marshal(st.Data()); err != nil {
		t.Errorf("expected the snapshot to stay publishable, got %v", err)
	}
}

func TestUpdateFixSourceErrorIsReturned(t *testing.T) {
	boom := errors.New("port gone")
	err := NewFixReader(&fakeLines{err: boom}).UpdateFix(device.NewState("lock"))
	if !errors.Is(err, boom) {
		t.Errorf("expected %v, got %v", boom, err)
	}
}
