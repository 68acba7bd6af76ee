package humanize

import "fmt"

// State is the position of a session in the humanize workflow.
type State int

const (
	Idle State = iota
	Validating
	Submitting
	Polling
	Succeeded
	Failed
)

var stateNames = [...]string{"idle", "validating", "submitting", "polling", "succeeded", "failed"}

func (s State) String() string {
	if int(s) < len(stateNames) {
		return stateNames[s]
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// MarshalText renders the state name in JSON bodies.
func (s State) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// transitions lists the legal moves. Simulated runs go Submitting -> Succeeded directly.
var transitions = map[State][]State{
	Idle:       {Validating},
	Validating: {Submitting, Failed},
	Submitting: {Polling, Succeeded, Failed},
	Polling:    {Succeeded, Failed},
	Succeeded:  {Idle},
	Failed:     {Idle},
}

// CanTransition reports whether from -> to is allowed.
func CanTransition(from, to State) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// Terminal reports whether s ends a run.
func (s State) Terminal() bool { return s == Succeeded || s == Failed }
