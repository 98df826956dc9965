// internal/wizard/machine.go
package wizard

import (
	"context"
	"fmt"
	"time"

	"admission-checker/internal/common/logger"
)

// StateID names one step of a university wizard.
type StateID string

// Done is returned by the last state's Run.
const Done StateID = ""

// State is one node of a wizard graph. Run performs the step and names the
// next state; a terminal state ends the drive after running.
type State struct {
	ID       StateID
	Run      func(ctx context.Context) (StateID, error)
	Terminal bool
}

// Transition records one executed state.
type Transition struct {
	From     StateID
	To       StateID
	Duration time.Duration
	Err      error
}

// StepError wraps the failure of a single state.
type StepError struct {
	State StateID
	Err   error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("wizard state %q failed: %v", e.State, e.Err)
}

func (e *StepError) Unwrap() error {
	return e.Err
}

// Machine drives a per-university state graph sequentially.
type Machine struct {
	name           string
	initial        StateID
	states         map[StateID]State
	maxTransitions int
	log            logger.Logger
}

// NewMachine validates the graph: ids are unique, initial exists, and at least
// one state is terminal.
func NewMachine(name string, initial StateID, log logger.Logger, states ...State) (*Machine, error) {
	m := &Machine{
		name:           name,
		initial:        initial,
		states:         make(map[StateID]State, len(states)),
		maxTransitions: 4 * (len(states) + 1),
		log:            log.WithFields(map[string]interface{}{"wizard": name}),
	}
	terminal := false
	for _, s := range states {
		if s.ID == Done {
			return nil, fmt.Errorf("wizard %s: empty state id", name)
		}
		if _, dup := m.states[s.ID]; dup {
			return nil, fmt.Errorf("wizard %s: duplicate state %q", name, s.ID)
		}
		if s.Run == nil {
			return nil, fmt.Errorf("wizard %s: state %q has no step", name, s.ID)
		}
		terminal = terminal || s.Terminal
		m.states[s.ID] = s
	}
	if _, ok := m.states[initial]; !ok {
		return nil, fmt.Errorf("wizard %s: unknown initial state %q", name, initial)
	}
	if !terminal {
		return nil, fmt.Errorf("wizard %s: no terminal state", name)
	}
	return m, nil
}

// Drive runs states from the initial one until a terminal state completes.
// A failing state aborts the whole drive; there is no partial credit.
func (m *Machine) Drive(ctx context.Context) ([]Transition, error) {
	var trace []Transition
	current := m.initial

	for i := 0; i < m.maxTransitions; i++ {
		if err := ctx.Err(); err != nil {
			return trace, &StepError{State: current, Err: err}
		}
		state, ok := m.states[current]
		if !ok {
			return trace, &StepError{State: current, Err: fmt.Errorf("unknown state")}
		}

		started := time.Now()
		next, err := state.Run(ctx)
		tr := Transition{From: current, To: next, Duration: time.Since(started), Err: err}
		trace = append(trace, tr)

		if err != nil {
			m.log.Warn("wizard step failed", map[string]interface{}{
				logger.FieldState: string(current),
				"error":           err.Error(),
				"durationMs":      tr.Duration.Milliseconds(),
			})
			return trace, &StepError{State: current, Err: err}
		}
		if state.Terminal {
			m.log.Info("wizard reached terminal state", map[string]interface{}{
				logger.FieldState: string(current),
				"steps":           len(trace),
			})
			return trace, nil
		}

		m.log.Debug("wizard transition", map[string]interface{}{
			logger.FieldState: string(current),
			"next":            string(next),
			"durationMs":      tr.Duration.Milliseconds(),
		})
		if next == Done {
			return trace, &StepError{State: current, Err: fmt.Errorf("non-terminal state ended the wizard")}
		}
		current = next
	}
	return trace, &StepError{State: current, Err: fmt.Errorf("exceeded %d transitions", m.maxTransitions)}
}
