package tracking

import (
	"sync/atomic"

	"github.com/teslashibe/go-follow/internal/log"
)

// Selection values that clear the lock instead of naming an identity.
const (
	SelectionDisable   = "Disable"
	SelectionEnableAll = "Enable All"
)

// Roster answers whether an identity is enrolled.
// *gallery.Gallery satisfies it.
type Roster interface {
	Has(name string) bool
}

// LockManager holds the current pursuit target: either unlocked or locked
// onto exactly one enrolled identity. It is written by the control surface
// and read by the frame loop; every read sees either the old or the new
// state, never a torn one.
type LockManager struct {
	roster Roster
	target atomic.Pointer[string]
}

// NewLockManager creates an unlocked manager over roster.
func NewLockManager(roster Roster) *LockManager {
	return &LockManager{roster: roster}
}

// Lock targets name. A name that is not enrolled (including "") leaves the
// manager unlocked. It returns whether the manager is now locked.
func (m *LockManager) Lock(name string) bool {
	if name == "" || m.roster == nil || !m.roster.Has(name) {
		if prev := m.target.Swap(nil); prev != nil {
			log.Component("lock").Info("lock released", "previous", *prev, "requested", name)
		}
		return false
	}

	prev := m.target.Swap(&name)
	if prev == nil || *prev != name {
		log.Component("lock").Info("locked on target", "name", name)
	}
	return true
}

// Unlock clears the target.
func (m *LockManager) Unlock() {
	if prev := m.target.Swap(nil); prev != nil {
		log.Component("lock").Info("lock released", "previous", *prev)
	}
}

// Apply maps a selector value onto the lock: "Disable" and "Enable All"
// unlock, anything else attempts a lock on that name.
func (m *LockManager) Apply(selection string) bool {
	switch selection {
	case SelectionDisable, SelectionEnableAll, "":
		m.Unlock()
		return false
	default:
		return m.Lock(selection)
	}
}

// Target returns the locked identity, if any.
func (m *LockManager) Target() (string, bool) {
	p := m.target.Load()
	if p == nil {
		return "", false
	}
	return *p, true
}

// Locked reports whether a target is set.
func (m *LockManager) Locked() bool {
	return m.target.Load() != nil
}
