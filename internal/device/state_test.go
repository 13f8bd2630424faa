package device

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestDataUsesDefaultsForUnsetFields(t *testing.T) {
	s := NewState("lock-1")

	got := s.Data()
	want := DisplayDefaults()
	want.ID = "lock-1"

	if got != want {
		t.Errorf("expected %+v, got %+v", want, got)
	}
	if s.Lat != nil || s.Lng != nil || s.Now != nil || s.LastClosed != nil {
		t.Error("placeholders must not leak into the optional fields")
	}
}

func TestDataPrefersObservedValues(t *testing.T) {
	s := NewState("lock-1")
	s.Now = Int64(1638412854)
	s.Lat = Float64(0) // a real reading of zero is not a placeholder
	s.Lng = Float64(-73.108063)
	s.Locked = true
	s.LastClosed = Int64(1638412850)
	s.BatteryPercentage = String("80%")

	got := s.Data()
	want := Snapshot{
		ID:                "lock-1",
		Lat:               0,
		Lng:               -73.108063,
		Locked:            true,
		UpdatedAt:         1638412854,
		BatteryPercentage: "80%",
		LastClosed:        1638412850,
	}
	if got != want {
		t.Errorf("expected %+v, got %+v", want, got)
	}
}

func TestSnapshotJSONKeys(t *testing.T) {
	raw, err := json.Marshal(NewState("abc").Data())
	if err != nil {
		t.Fatal(err)
	}

	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		t.Fatal(err)
	}

	for _, key := range []string{"id", "lat", "lng", "locked", "updated_at", "battery_percentage", "last_closed"} {
		if _, ok := m[key]; !ok {
			t.Errorf("missing key %q in %s", key, raw)
		}
	}
	if len(m) != 7 {
		t.Errorf("expected 7 keys, got %d: %s", len(m), raw)
	}
}

func TestCopyInt64IsIndependent(t *testing.T) {
	if CopyInt64(nil) != nil {
		t.Fatal("expected nil copy of nil")
	}

	src := Int64(5)
	dst := CopyInt64(src)
	*src = 6
	if *dst != 5 {
		t.Errorf("expected copy to keep 5, got %d", *dst)
	}
}

func TestStringRendersUnsetFields(t *testing.T) {
	s := NewState("abc")
	s.Open = true

	out := s.String()
	for _, line := range []string{" now=None", " locked=false", " open=true", " lc=None"} {
		if !strings.Contains(out, line) {
			t.Errorf("expected %q in:\n%s", line, out)
		}
	}
}
