package controller

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// fakeClock advances only when told to, so Pacer tests are deterministic.
type fakeClock struct{ ms float64 }

func (c *fakeClock) NowMS() float64 { return c.ms }
func (c *fakeClock) advance(ms float64) { c.ms += ms }

func TestPacerAdvanceRunsWholeTargetPeriods(t *testing.T) {
	cfg := DefaultConfig()
	clock := &fakeClock{}
	p := NewPacer(cfg, clock)

	ticks := 0
	n, err := p.Advance(cfg.TargetElapsedMS*3.5, 1.0, func() error {
		ticks++
		return nil
	})
	require.NoError(t, err)
	require.Equal(t, 3, n)
	require.Equal(t, 3, ticks)
	require.InDelta(t, cfg.TargetElapsedMS*0.5, p.remainderMS, 1e-9)
}

func TestPacerBanksRemainderAcrossCalls(t *testing.T) {
	cfg := DefaultConfig()
	clock := &fakeClock{}
	p := NewPacer(cfg, clock)

	ticks := 0
	tick := func() error { ticks++; return nil }

	_, err := p.Advance(cfg.TargetElapsedMS*0.9, 1.0, tick)
	require.NoError(t, err)
	require.Equal(t, 0, ticks)

	_, err = p.Advance(cfg.TargetElapsedMS*0.2, 1.0, tick)
	require.NoError(t, err)
	require.Equal(t, 1, ticks, "banked remainder plus new delta should cross one target period")
}

func TestPacerHigherAdjustedSpeedRunsMoreTicks(t *testing.T) {
	cfg := DefaultConfig()
	clock := &fakeClock{}
	p := NewPacer(cfg, clock)

	n, err := p.Advance(cfg.TargetElapsedMS*4, 2.0, func() error { return nil })
	require.NoError(t, err)
	require.Equal(t, 8, n, "doubling adjusted speed should halve the effective target period")
}

func TestPacerPropagatesTickError(t *testing.T) {
	cfg := DefaultConfig()
	clock := &fakeClock{}
	p := NewPacer(cfg, clock)

	boom := errBoom{}
	n, err := p.Advance(cfg.TargetElapsedMS*2, 1.0, func() error { return boom })
	require.ErrorIs(t, err, boom)
	require.Equal(t, 0, n)
}

type errBoom struct{}

func (errBoom) Error() string { return "boom" }

func TestLoadEstimatorMeanTracksRecentSamples(t *testing.T) {
	e := NewLoadEstimator(3)
	require.Equal(t, 0.0, e.Mean())

	e.Add(1)
	e.Add(2)
	e.Add(3)
	require.InDelta(t, 2.0, e.Mean(), 1e-9)

	e.Add(9) // evicts the oldest sample (1)
	require.InDelta(t, (2.0+3.0+9.0)/3.0, e.Mean(), 1e-9)
}

func TestFrameDiffRingOutlierDetection(t *testing.T) {
	r := newFrameDiffRing(5)
	for _, v := range []float64{1, 2, 1, 2} {
		r.add(v)
	}
	require.False(t, r.isOutlier(1.2))
	require.True(t, r.isOutlier(50))
}
