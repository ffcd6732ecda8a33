package game

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wfunc/noodle-rush/internal/errors"
)

func TestPhaseMachine_FullCycle(t *testing.T) {
	ctx := context.Background()
	sm := NewPhaseMachine(nil)

	var changes []Phase
	sm.OnPhaseChange(func(from, to Phase) {
		changes = append(changes, to)
	})

	assert.Equal(t, PhaseHub, sm.Phase())
	require.NoError(t, sm.Trigger(ctx, EventRunDelivery))
	require.NoError(t, sm.Trigger(ctx, EventResultsReady))
	require.NoError(t, sm.Trigger(ctx, EventReturnToHub))

	assert.Equal(t, PhaseHub, sm.Phase())
	assert.Equal(t, []Phase{PhaseDelivering, PhaseResults, PhaseHub}, changes)
}

func TestPhaseMachine_InvalidEvent(t *testing.T) {
	ctx := context.Background()
	sm := NewPhaseMachine(nil)

	err := sm.Trigger(ctx, EventReturnToHub)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrGameStateError))
	assert.Equal(t, PhaseHub, sm.Phase())

	err = sm.Trigger(ctx, "unknown")
	assert.True(t, errors.Is(err, errors.ErrGameStateError))
}

func TestPhaseMachine_Abort(t *testing.T) {
	ctx := context.Background()
	sm := NewPhaseMachine(nil)

	require.NoError(t, sm.Trigger(ctx, EventRunDelivery))
	assert.Equal(t, []string{EventAbort, EventResultsReady}, sm.ValidEvents())
	require.NoError(t, sm.Trigger(ctx, EventAbort))
	assert.Equal(t, PhaseHub, sm.Phase())
}

func TestPhaseMachine_RequireAndReset(t *testing.T) {
	ctx := context.Background()
	sm := NewPhaseMachine(nil)

	assert.NoError(t, sm.Require(PhaseHub))
	require.NoError(t, sm.Trigger(ctx, EventRunDelivery))
	assert.True(t, errors.Is(sm.Require(PhaseHub), errors.ErrGameStateError))
	assert.True(t, sm.CanTransition(EventResultsReady))
	assert.False(t, sm.CanTransition(EventRunDelivery))

	before := sm.LastUpdate()
	sm.Reset()
	assert.Equal(t, PhaseHub, sm.Phase())
	assert.False(t, sm.LastUpdate().Before(before))
}
