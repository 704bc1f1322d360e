package pipeline

import "fmt"

// State is a stage in a pipeline run's lifecycle.
type State int

const (
	StateInit State = iota
	StateOpened
	StateCiphering
	StateFinalising
	StateSealed
	StateDone
	StateAborted
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateInit:
		return "INIT"
	case StateOpened:
		return "OPENED"
	case StateCiphering:
		return "CIPHERING"
	case StateFinalising:
		return "FINALISING"
	case StateSealed:
		return "SEALED"
	case StateDone:
		return "DONE"
	case StateAborted:
		return "ABORTED"
	case StateFailed:
		return "FAILED"
	default:
		return "UNKNOWN"
	}
}

var transitions = map[State][]State{
	StateInit:       {StateOpened, StateAborted, StateFailed},
	StateOpened:     {StateCiphering, StateAborted, StateFailed},
	StateCiphering:  {StateFinalising, StateAborted, StateFailed},
	StateFinalising: {StateSealed, StateAborted, StateFailed},
	StateSealed:     {StateDone, StateAborted, StateFailed},
}

// StateMachine tracks a single run's progress through INIT -> OPENED ->
// CIPHERING -> FINALISING -> SEALED -> DONE, with ABORTED and FAILED as
// terminal escape branches from any non-terminal state.
type StateMachine struct {
	current State
	emitter *Emitter
}

// NewStateMachine starts a machine in StateInit. emitter may be nil.
func NewStateMachine(emitter *Emitter) *StateMachine {
	return &StateMachine{current: StateInit, emitter: emitter}
}

func (sm *StateMachine) Current() State { return sm.current }

// Transition moves to `to` if it is reachable from the current state,
// emitting a state-changed event on success.
func (sm *StateMachine) Transition(to State) error {
	for _, allowed := range transitions[sm.current] {
		if allowed == to {
			from := sm.current
			sm.current = to
			if sm.emitter != nil {
				sm.emitter.emitStateChanged(from, to)
			}
			return nil
		}
	}
	return fmt.Errorf("pipeline: illegal transition %s -> %s", sm.current, to)
}
