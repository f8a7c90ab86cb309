package controller

import "math"

// LoadEstimator keeps a rolling mean of the last N tick durations (in
// milliseconds), used to derive how loaded a controller's host is relative
// to the target tick budget.
type LoadEstimator struct {
	samples []float64
	idx     int
	filled  bool
}

// NewLoadEstimator constructs an estimator holding up to window samples.
func NewLoadEstimator(window int) *LoadEstimator {
	if window < 1 {
		window = 1
	}
	return &LoadEstimator{samples: make([]float64, window)}
}

// Add records one tick's wall-clock duration in milliseconds.
func (e *LoadEstimator) Add(durationMS float64) {
	e.samples[e.idx] = durationMS
	e.idx = (e.idx + 1) % len(e.samples)
	if e.idx == 0 {
		e.filled = true
	}
}

// Mean returns the rolling average duration, 0 until at least one sample
// has been recorded.
func (e *LoadEstimator) Mean() float64 {
	n := len(e.samples)
	if !e.filled {
		n = e.idx
	}
	if n == 0 {
		return 0
	}
	var sum float64
	for i := 0; i < n; i++ {
		sum += e.samples[i]
	}
	return sum / float64(n)
}

// Clock abstracts the monotonic wall-clock source a Pacer measures tick
// duration against. Production code uses SystemClock; tests supply a fake so
// load measurements are reproducible.
type Clock interface {
	NowMS() float64
}

// Pacer converts a wall-clock delta into a number of fixed-size simulation
// ticks, the way SPEC_FULL.md §4.5 describes: accumulate elapsed time in
// remainder_ms, spend whole target periods out of it, bank anything left
// over for next time. It also tracks recent tick cost to report current and
// safe load.
type Pacer struct {
	cfg Config

	clock                Clock
	remainderMS          float64
	frameskipRemainderMS float64
	load                 *LoadEstimator
}

// NewPacer constructs a Pacer. clock is typically controller.SystemClock{};
// tests may substitute a fake.
func NewPacer(cfg Config, clock Clock) *Pacer {
	return &Pacer{
		cfg:   cfg,
		clock: clock,
		load:  NewLoadEstimator(cfg.LoadSampleWindow),
	}
}

// Advance spends deltaMS (plus any banked remainder) on ticks of length
// TargetElapsedMS/adjustedSpeed, calling tick once per spent period. It
// returns how many ticks ran. A call never spends more real wall-clock time
// than one target period, so a slow tick function can't make Advance itself
// become the stall (the remaining elapsed time is simply banked and spent
// on the next call).
func (p *Pacer) Advance(deltaMS float64, adjustedSpeed float64, tick func() error) (int, error) {
	if adjustedSpeed <= 0 {
		adjustedSpeed = 1
	}
	targetPeriod := p.cfg.TargetElapsedMS / adjustedSpeed

	elapsed := deltaMS + p.remainderMS
	elapsed = p.applyFrameskip(elapsed, targetPeriod)

	// A tiny tolerance keeps float rounding in the repeated subtraction
	// below from dropping a tick that whole periods of elapsed time owe.
	const toleranceMS = 1e-9
	callStart := p.clock.NowMS()
	ticks := 0
	for elapsed+toleranceMS >= targetPeriod && (p.clock.NowMS()-callStart) < targetPeriod {
		tickStart := p.clock.NowMS()
		if err := tick(); err != nil {
			return ticks, err
		}
		elapsed -= targetPeriod
		ticks++
		p.load.Add(p.clock.NowMS() - tickStart)
	}
	p.remainderMS = math.Min(elapsed, targetPeriod)
	return ticks, nil
}

// maxCatchupPeriods bounds how many whole target periods a single Advance
// call will ever spend from elapsed time alone, before the excess is
// diverted into the gradual frameskip bank. It's generous enough that an
// ordinary multi-tick batch (a caller polling less often than the tick
// rate) never gets clamped, while a true stall (a debugger pause, a
// suspended process) does.
const maxCatchupPeriods = 10

// applyFrameskip clamps a runaway elapsed value to maxCatchupPeriods worth
// of target periods plus MaxFrameskipPerUpdateMS, banking the rest in
// frameskipRemainderMS and draining that bank gradually, bounded per call
// to MaxFrameskipPerUpdateMS, so a long stall is absorbed over many calls
// instead of as one enormous catch-up burst.
func (p *Pacer) applyFrameskip(elapsed, targetPeriod float64) float64 {
	maxAllowed := targetPeriod*maxCatchupPeriods + p.cfg.MaxFrameskipPerUpdateMS
	if elapsed > maxAllowed {
		p.frameskipRemainderMS += elapsed - maxAllowed
		elapsed = maxAllowed
	}
	if p.frameskipRemainderMS > 0 {
		take := math.Min(p.frameskipRemainderMS, p.cfg.MaxFrameskipPerUpdateMS)
		elapsed += take
		p.frameskipRemainderMS -= take
	}
	return elapsed
}

// CurrentLoad is the rolling mean tick duration as a fraction of the target
// period: 1.0 means ticks are exactly keeping pace, >1.0 means they're
// falling behind.
func (p *Pacer) CurrentLoad() float64 {
	return p.load.Mean() / p.cfg.TargetElapsedMS
}

// SafeLoad inflates CurrentLoad by the configured buffer factor so a
// controller starts slowing down before it's actually starved.
func (p *Pacer) SafeLoad() float64 {
	return p.CurrentLoad() * p.cfg.LoadBufferFactor
}
