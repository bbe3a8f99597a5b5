package taskloom

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSelectQueue_PrefersIOWhenLoadsEqual(t *testing.T) {
	rt := &Runtime{ioWorkerCount: 2, computeWorkerCount: 2}
	require.Equal(t, IO, rt.selectQueue(false))
}

func TestSelectQueue_CoreVariantInvertsPreference(t *testing.T) {
	rt := &Runtime{ioWorkerCount: 2, computeWorkerCount: 2}
	require.Equal(t, Compute, rt.selectQueue(true))
}

func TestSelectQueue_FollowsTheRatioFormula(t *testing.T) {
	rt := &Runtime{ioWorkerCount: 2, computeWorkerCount: 2}
	rt.computeLoad.Store(10) // io_count*compute_load (20) > compute_count*io_load (0)

	require.Equal(t, IO, rt.selectQueue(false))
	require.Equal(t, IO, rt.selectQueue(true))
}

func TestSelectQueue_ZeroIOWorkersAlwaysCompute(t *testing.T) {
	rt := &Runtime{ioWorkerCount: 0, computeWorkerCount: 4}
	require.Equal(t, Compute, rt.selectQueue(false))
	require.Equal(t, Compute, rt.selectQueue(true))
}

func TestSelectQueue_ZeroComputeWorkersAlwaysIO(t *testing.T) {
	rt := &Runtime{ioWorkerCount: 4, computeWorkerCount: 0}
	require.Equal(t, IO, rt.selectQueue(false))
	require.Equal(t, IO, rt.selectQueue(true))
}
