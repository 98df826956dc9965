package wizard

import (
	"context"
	stderrors "errors"
	"testing"

	"admission-checker/internal/common/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func step(next StateID, visited *[]StateID, id StateID) func(context.Context) (StateID, error) {
	return func(ctx context.Context) (StateID, error) {
		*visited = append(*visited, id)
		return next, nil
	}
}

func TestNewMachine_Validation(t *testing.T) {
	noop := func(ctx context.Context) (StateID, error) { return Done, nil }

	tests := []struct {
		name    string
		initial StateID
		states  []State
		wantErr string
	}{
		{
			name:    "unknown initial",
			initial: "missing",
			states:  []State{{ID: "a", Run: noop, Terminal: true}},
			wantErr: "unknown initial state",
		},
		{
			name:    "duplicate state",
			initial: "a",
			states:  []State{{ID: "a", Run: noop}, {ID: "a", Run: noop, Terminal: true}},
			wantErr: "duplicate state",
		},
		{
			name:    "no terminal",
			initial: "a",
			states:  []State{{ID: "a", Run: noop}},
			wantErr: "no terminal state",
		},
		{
			name:    "missing step",
			initial: "a",
			states:  []State{{ID: "a", Terminal: true}},
			wantErr: "has no step",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewMachine("test", tt.initial, logger.NewNoOpLogger(), tt.states...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestDrive_RunsStatesInOrder(t *testing.T) {
	var visited []StateID
	m, err := NewMachine("bgu", "landing", logger.NewTestLogger(t),
		State{ID: "landing", Run: step("form", &visited, "landing")},
		State{ID: "form", Run: step("result", &visited, "form")},
		State{ID: "result", Run: step(Done, &visited, "result"), Terminal: true},
	)
	require.NoError(t, err)

	trace, err := m.Drive(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []StateID{"landing", "form", "result"}, visited)
	require.Len(t, trace, 3)
	assert.Equal(t, StateID("form"), trace[0].To)
}

func TestDrive_StopsOnFirstFailure(t *testing.T) {
	boom := stderrors.New("element missing")
	var visited []StateID
	m, err := NewMachine("tau", "a", logger.NewTestLogger(t),
		State{ID: "a", Run: step("b", &visited, "a")},
		State{ID: "b", Run: func(ctx context.Context) (StateID, error) { return "c", boom }},
		State{ID: "c", Run: step(Done, &visited, "c"), Terminal: true},
	)
	require.NoError(t, err)

	trace, err := m.Drive(context.Background())
	require.Error(t, err)

	var stepErr *StepError
	require.ErrorAs(t, err, &stepErr)
	assert.Equal(t, StateID("b"), stepErr.State)
	assert.ErrorIs(t, err, boom)
	assert.Len(t, trace, 2)
	assert.Equal(t, []StateID{"a"}, visited)
}

func TestDrive_BoundsCycles(t *testing.T) {
	loop := func(ctx context.Context) (StateID, error) { return "a", nil }
	m, err := NewMachine("loop", "a", logger.NewNoOpLogger(),
		State{ID: "a", Run: loop},
		State{ID: "end", Run: loop, Terminal: true},
	)
	require.NoError(t, err)

	_, err = m.Drive(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "exceeded")
}

func TestDrive_CancelledContext(t *testing.T) {
	var visited []StateID
	m, err := NewMachine("huji", "a", logger.NewNoOpLogger(),
		State{ID: "a", Run: step(Done, &visited, "a"), Terminal: true},
	)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = m.Drive(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, visited)
}

func TestDrive_NonTerminalEnding(t *testing.T) {
	var visited []StateID
	m, err := NewMachine("technion", "a", logger.NewNoOpLogger(),
		State{ID: "a", Run: step(Done, &visited, "a")},
		State{ID: "b", Run: step(Done, &visited, "b"), Terminal: true},
	)
	require.NoError(t, err)

	_, err = m.Drive(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "non-terminal")
}
