// SPDX-License-Identifier: MPL-2.0

package provision

import "fmt"

// runState tracks the progress of a single provisioning run. Transitions
// are strictly ordered; no state may be skipped and none is reversible
// within a run.
type runState int

const (
	stateUninitialized runState = iota
	stateBaseImageSelected
	stateIndexRefreshed
	statePackagesInstalled
	stateFailed
)

// String returns the state name.
func (s runState) String() string {
	switch s {
	case stateUninitialized:
		return "uninitialized"
	case stateBaseImageSelected:
		return "base-image-selected"
	case stateIndexRefreshed:
		return "index-refreshed"
	case statePackagesInstalled:
		return "packages-installed"
	case stateFailed:
		return "failed"
	default:
		return fmt.Sprintf("runState(%d)", int(s))
	}
}

// runStateMachine enforces the provisioning step order.
type runStateMachine struct {
	current runState
}

// advance moves to the next state. It panics on an out-of-order
// transition: that is a programming error in the provisioner, not a
// runtime condition a caller could handle.
func (m *runStateMachine) advance(next runState) {
	if m.current == stateFailed || next != m.current+1 || next == stateFailed {
		panic(fmt.Sprintf("invalid provisioning transition %s -> %s", m.current, next))
	}
	m.current = next
}

// fail marks the run as terminally failed. Valid from any non-terminal state.
func (m *runStateMachine) fail() {
	m.current = stateFailed
}

// state returns the current state.
func (m *runStateMachine) state() runState {
	return m.current
}
