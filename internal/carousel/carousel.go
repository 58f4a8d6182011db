// Package carousel tracks, per PID within one provider's module, whether a
// full revolution of the OpenTV data carousel has been observed.
package carousel

import (
	"sync"
	"time"
)

type status int

const (
	statusInit status = iota
	// statusStarted preserves the numeric literal 1 used by the carousel
	// completion check in the original implementation.
	statusStarted status = 1
	statusComplete status = 2
)

const fingerprintLen = 20

type pidState struct {
	status      status
	fingerprint [fingerprintLen]byte
}

// Tracker is owned per grabber module instance, never process-wide.
type Tracker struct {
	mu       sync.Mutex
	pids     map[uint16]*pidState
	started  time.Time
	passBudget time.Duration
}

// New returns a Tracker for the given set of PIDs, all starting at INIT.
// passBudget is the maximum duration of one revolution attempt (ten minutes
// by default) after which the caller should force completion regardless of
// carousel state.
func New(pids []uint16, passBudget time.Duration) *Tracker {
	m := make(map[uint16]*pidState, len(pids))
	for _, pid := range pids {
		m[pid] = &pidState{status: statusInit}
	}
	return &Tracker{pids: m, passBudget: passBudget}
}

// Reset returns every tracked PID to INIT and marks a new pass as begun.
func (t *Tracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, s := range t.pids {
		s.status = statusInit
	}
	t.started = time.Now()
}

// Observe records one accepted section's leading 20 bytes against pid's
// state machine. header must be at least fingerprintLen bytes; shorter
// input is ignored (the caller is expected to have already applied the
// section-router's 20-byte gate). Returns true if this observation just
// completed the full revolution.
func (t *Tracker) Observe(pid uint16, header []byte) bool {
	if len(header) < fingerprintLen {
		return false
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	s, ok := t.pids[pid]
	if !ok {
		return false
	}
	var fp [fingerprintLen]byte
	copy(fp[:], header[:fingerprintLen])

	justCompleted := false
	switch s.status {
	case statusInit:
		s.status = statusStarted
		s.fingerprint = fp
	case statusStarted:
		if fp == s.fingerprint {
			s.status = statusComplete
			justCompleted = true
		}
	case statusComplete:
		// terminal for this revolution; further sections are ignored
		// until Reset begins the next pass.
	}
	return justCompleted && t.allCompleteLocked()
}

// AllComplete reports whether every tracked PID has reached COMPLETE.
func (t *Tracker) AllComplete() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.allCompleteLocked()
}

func (t *Tracker) allCompleteLocked() bool {
	if len(t.pids) == 0 {
		return false
	}
	for _, s := range t.pids {
		if s.status != statusComplete {
			return false
		}
	}
	return true
}

// BudgetExceeded reports whether the current pass has run longer than the
// configured per-pass budget (ten minutes by default), independent of
// carousel completion.
func (t *Tracker) BudgetExceeded() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.passBudget <= 0 || t.started.IsZero() {
		return false
	}
	return time.Since(t.started) > t.passBudget
}
