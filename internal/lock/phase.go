package lock

import "github.com/relabs-tech/smartlock/internal/device"

// Phase is the state-machine position derived from (Locked, Open, LastClosed).
// It is never stored.
type Phase int

const (
	Locked Phase = iota
	UnlockedOpen
	ClosedPending // closed, timer running or waiting for a fix
	ClosedExpired // closed long enough; the next Evaluate locks
)

func (p Phase) String() string {
	switch p {
	case Locked:
		return "locked"
	case UnlockedOpen:
		return "unlocked/open"
	case ClosedPending:
		return "unlocked/closed/pending"
	case ClosedExpired:
		return "unlocked/closed/expired"
	default:
		return "unknown"
	}
}

// PhaseOf derives the phase of st for an auto-lock delay in seconds.
// A missing Now or LastClosed keeps a closed door pending.
func PhaseOf(st *device.State, delay int64) Phase {
	switch {
	case st.Locked:
		return Locked
	case st.Open:
		return UnlockedOpen
	case st.Now == nil || st.LastClosed == nil:
		return ClosedPending
	case *st.Now-*st.LastClosed >= delay:
		return ClosedExpired
	default:
		return ClosedPending
	}
}
