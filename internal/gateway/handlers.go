package gateway

import (
	"fmt"

	"github.com/relabs-tech/smartlock/internal/device"
)

// Unlocker retracts the bolt.
type Unlocker interface {
	Unlock() error
}

// UnlockHandler clears the lock and retracts the bolt. LastClosed is reset
// to the current fix time so the auto-lock timer restarts instead of
// expiring on the next tick with the old closing time.
func UnlockHandler(act Unlocker) Handler {
	return func(st *device.State, _ Command) error {
		if err := act.Unlock(); err != nil {
			return fmt.Errorf("actuator unlock: %w", err)
		}
		st.Locked = false
		st.LastClosed = device.CopyInt64(st.Now)
		return nil
	}
}

// RefreshHandler accepts the command without changing state; the gateway's
// state echo is the response.
func RefreshHandler() Handler {
	return func(*device.State, Command) error {
		return nil
	}
}
