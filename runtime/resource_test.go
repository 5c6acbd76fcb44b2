package runtime

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/samlaycock/nookjs/errors"
)

func TestDefaultLimitsShape(t *testing.T) {
	l := DefaultLimits(1024)
	assert.Equal(t, 2000, l.MaxCallStackDepth)
	assert.Equal(t, 10_000_000, l.MaxLoopIterations)
	assert.Equal(t, int64(1024), l.MaxMemoryBytes)
	assert.Equal(t, 256, l.AbortPollInterval)
}

func TestMeterEnterExitCallTracksDepthAndEnforcesCeiling(t *testing.T) {
	m := NewMeter(Limits{MaxCallStackDepth: 2}, context.Background())

	require.NoError(t, m.EnterCall())
	assert.Equal(t, 1, m.CallDepth())
	require.NoError(t, m.EnterCall())
	assert.Equal(t, 2, m.CallDepth())

	err := m.EnterCall()
	require.Error(t, err)
	assert.Equal(t, errors.KindMaxCallStackDepth, err.(*errors.EvalError).Kind)

	m.ExitCall()
	assert.Equal(t, 2, m.CallDepth())
}

func TestMeterExitCallNeverGoesNegative(t *testing.T) {
	m := NewMeter(Limits{}, context.Background())
	m.ExitCall()
	assert.Equal(t, 0, m.CallDepth())
}

func TestMeterTickLoopEnforcesIterationCeiling(t *testing.T) {
	m := NewMeter(Limits{MaxLoopIterations: 2}, context.Background())
	require.NoError(t, m.TickLoop())
	require.NoError(t, m.TickLoop())
	err := m.TickLoop()
	require.Error(t, err)
	assert.Equal(t, errors.KindMaxLoopIterations, err.(*errors.EvalError).Kind)
}

func TestMeterTickLoopUnboundedWhenZero(t *testing.T) {
	m := NewMeter(Limits{MaxLoopIterations: 0}, context.Background())
	for i := 0; i < 1000; i++ {
		require.NoError(t, m.TickLoop())
	}
}

func TestMeterAddMemoryEnforcesCeiling(t *testing.T) {
	m := NewMeter(Limits{MaxMemoryBytes: 100}, context.Background())
	require.NoError(t, m.AddMemory(60))
	assert.Equal(t, int64(60), m.MemoryBytes())

	err := m.AddMemory(50)
	require.Error(t, err)
	assert.Equal(t, errors.KindMaxMemory, err.(*errors.EvalError).Kind)
	// The estimate still accumulates past the ceiling; it is never reset.
	assert.Equal(t, int64(110), m.MemoryBytes())
}

func TestMeterTickNodePollsContextAtConfiguredInterval(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	m := NewMeter(Limits{AbortPollInterval: 4}, ctx)
	for i := 0; i < 3; i++ {
		require.NoError(t, m.TickNode())
	}
	err := m.TickNode()
	require.Error(t, err)
	assert.Equal(t, errors.KindAborted, err.(*errors.EvalError).Kind)
}

func TestMeterTickNodeDefaultsIntervalWhenUnset(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	m := NewMeter(Limits{}, ctx)
	for i := 0; i < 255; i++ {
		require.NoError(t, m.TickNode())
	}
	err := m.TickNode()
	require.Error(t, err)
}
