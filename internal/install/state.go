// SPDX-License-Identifier: MPL-2.0

package install

import (
	"github.com/dotnet/sdk-sub056/internal/version"
	"github.com/dotnet/sdk-sub056/pkg/types"
)

// Install states. A fresh install visits them in declaration order,
// skipping StateSkipped.
const (
	StateResolving State = iota
	StateCheckingManifest
	StateSkipped
	StateFetching
	StateExtracting
	StateValidating
	StateCommitting
	StateDone
	StateFailed
)

const (
	// OutcomeInstalled means this call committed a new record.
	OutcomeInstalled Outcome = "installed"
	// OutcomeSkipped means the install was already recorded.
	OutcomeSkipped Outcome = "skipped"
)

type (
	// State is a step of the install state machine.
	State uint8

	// Outcome distinguishes a fresh install from an already-present one.
	Outcome string

	// Transition is reported to an Observer on every state change. Err is
	// set when To is StateFailed, and is ErrAlreadyInstalled when To is
	// StateSkipped.
	Transition struct {
		From      State
		To        State
		Root      types.InstallRoot
		Component types.Component
		Version   version.Version
		Err       error
	}

	// Observer receives state transitions. Calls happen on the installing
	// goroutine and must not block.
	Observer interface {
		OnTransition(Transition)
	}

	// ObserverFunc adapts a function to the Observer interface.
	ObserverFunc func(Transition)
)

var stateNames = [...]string{
	StateResolving:        "resolving",
	StateCheckingManifest: "checking-manifest",
	StateSkipped:          "skipped",
	StateFetching:         "fetching",
	StateExtracting:       "extracting",
	StateValidating:       "validating",
	StateCommitting:       "committing",
	StateDone:             "done",
	StateFailed:           "failed",
}

// String returns the state name.
func (s State) String() string {
	if int(s) < len(stateNames) {
		return stateNames[s]
	}
	return "unknown"
}

// Terminal reports whether no transition leaves s.
func (s State) Terminal() bool { return s == StateDone || s == StateFailed }

// OnTransition implements Observer.
func (f ObserverFunc) OnTransition(t Transition) { f(t) }

// tracker walks one install through its states and reports each step.
type tracker struct {
	state    State
	root     types.InstallRoot
	c        types.Component
	v        version.Version
	observer Observer
	log      func(msg string, kv ...any)
}

func (t *tracker) to(next State, err error) {
	tr := Transition{From: t.state, To: next, Root: t.root, Component: t.c, Version: t.v, Err: err}
	t.state = next
	if t.log != nil {
		t.log("state", "from", tr.From, "to", tr.To, "component", t.c, "version", t.v)
	}
	if t.observer != nil {
		t.observer.OnTransition(tr)
	}
}

// fail moves to StateFailed and returns err unchanged.
func (t *tracker) fail(err error) error {
	t.to(StateFailed, err)
	return err
}
