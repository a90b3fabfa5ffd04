// Package session owns the visibility and capture-in-flight state that
// hotkey events and completing pipeline runs both mutate. The Machine
// is the single serialization point: every transition happens under one
// mutex, so a hotkey firing while a run completes can never interleave
// into an invalid combined state.
package session

import (
	"sync"
)

type Visibility string

const (
	Visible Visibility = "visible"
	Hidden  Visibility = "hidden"
)

// State is a snapshot of the machine.
type State struct {
	Visibility      Visibility
	CaptureInFlight bool
}

// Machine arbitrates capture admission, hide/show, and panic-clear.
// Runs for the process lifetime; there is no terminal state.
//
// Each admitted run is stamped with a monotonically increasing
// generation. Panic records a discard watermark at the current
// generation: any run at or below the watermark that completes later
// has its result suppressed (logged, never displayed or dispatched).
type Machine struct {
	mu           sync.Mutex
	hidden       bool
	inFlight     bool
	inFlightGen  uint64
	lastGen      uint64
	discardBelow uint64
}

func NewMachine() *Machine {
	return &Machine{}
}

// State returns the current snapshot.
func (m *Machine) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	v := Visible
	if m.hidden {
		v = Hidden
	}
	return State{Visibility: v, CaptureInFlight: m.inFlight}
}

// Admit handles CaptureRequested. At most one run is in flight at a
// time: a request arriving while one runs is rejected, not queued, and
// the false return is the caller's rejection signal.
func (m *Machine) Admit() (gen uint64, ok bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.inFlight {
		return 0, false
	}
	m.lastGen++
	m.inFlight = true
	m.inFlightGen = m.lastGen
	return m.lastGen, true
}

// Complete handles RunCompleted for the given generation, success or
// failure alike. The machine always returns to idle; discarded reports
// whether a panic suppressed this run's result while it was in flight.
func (m *Machine) Complete(gen uint64) (discarded bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.inFlight && m.inFlightGen == gen {
		m.inFlight = false
	}
	return gen <= m.discardBelow
}

// Discarded reports whether the given run's result must be suppressed.
// Checked before dispatch and before display, so a panic that fires
// mid-run reliably drops the result no matter when it lands.
func (m *Machine) Discarded(gen uint64) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return gen <= m.discardBelow
}

// Hide suppresses the visible surface. In-flight work continues
// uninterrupted.
func (m *Machine) Hide() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hidden = true
}

// Show restores the visible surface. The in-flight flag is untouched.
func (m *Machine) Show() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hidden = false
}

// Panic transitions to Hidden·Idle from any state and stamps the
// discard watermark. An in-flight run is not killed; its eventual
// result is dropped on arrival via the watermark.
func (m *Machine) Panic() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hidden = true
	m.inFlight = false
	m.discardBelow = m.lastGen
}
