package site

import (
	"fmt"
	"slices"
)

// State is a build pipeline state.
type State string

const (
	StateLoading   State = "loading"
	StateIndexing  State = "indexing"
	StateResolving State = "resolving"
	StateRendering State = "rendering"
	StateWriting   State = "writing"
	StateDone      State = "done"
	StateFailed    State = "failed"
)

// transitions lists the states reachable from each state. The zero state is
// the build before it starts. Rendering may go straight to Done for checks
// that do not write output.
var transitions = map[State][]State{
	"":             {StateLoading},
	StateLoading:   {StateIndexing, StateFailed},
	StateIndexing:  {StateResolving, StateFailed},
	StateResolving: {StateRendering, StateFailed},
	StateRendering: {StateWriting, StateDone, StateFailed},
	StateWriting:   {StateDone, StateFailed},
}

// Terminal reports whether no transition leaves s.
func (s State) Terminal() bool { return s == StateDone || s == StateFailed }

// CanTransition reports whether from -> to is a valid transition.
func CanTransition(from, to State) bool {
	return slices.Contains(transitions[from], to)
}

type invalidTransitionError struct {
	from, to State
}

func (e *invalidTransitionError) Error() string {
	from := e.from
	if from == "" {
		from = "start"
	}
	return fmt.Sprintf("invalid build state transition %s -> %s", from, e.to)
}
