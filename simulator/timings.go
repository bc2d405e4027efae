package simulator

import "time"

// timingAlpha is the exponential-moving-average smoothing factor applied
// to each substep's elapsed time (spec.md §4.4 "α = 0.9").
const timingAlpha = 0.9

// Substep name strings, fixed by spec.md §6's external step-duration map
// contract.
const (
	SubstepSimulateParticles           = "SimulateParticles"
	SubstepPushParticlesApart          = "PushParticlesApart"
	SubstepPushParticlesOutOfObstacles = "PushParticlesOutOfObstacles"
	SubstepP2GTransfer                 = "P2GTransfer"
	SubstepIncompressibilityPrep       = "IncompressibilityPrep"
	SubstepIncompressibility           = "Incompressibility"
	SubstepIncompressibilityItCount    = "Incompressibility_it_count"
	SubstepVelocityExtrapolation       = "VelocityExtrapolation"
	SubstepG2PTransfer                 = "G2PTransfer"
)

var substepOrder = []string{
	SubstepSimulateParticles,
	SubstepPushParticlesApart,
	SubstepPushParticlesOutOfObstacles,
	SubstepP2GTransfer,
	SubstepIncompressibilityPrep,
	SubstepIncompressibility,
	SubstepVelocityExtrapolation,
	SubstepG2PTransfer,
}

// Timings holds the per-substep exponential moving average of elapsed
// time, plus the most recent PCG/basic-solver iteration count (spec.md
// §4.4, §6).
type Timings struct {
	durations map[string]time.Duration
	iterCount int
}

func newTimings() Timings {
	return Timings{durations: make(map[string]time.Duration, len(substepOrder))}
}

func (t *Timings) record(name string, elapsed time.Duration) {
	prev, ok := t.durations[name]
	if !ok {
		t.durations[name] = elapsed
		return
	}
	t.durations[name] = time.Duration(timingAlpha*float64(prev) + (1-timingAlpha)*float64(elapsed))
}

// StepDurations returns a copy of the current per-substep EMA map
// (spec.md §6), keyed by the Substep* constants, plus
// Incompressibility_it_count encoded as a duration-scaled count of
// nanoseconds (matching the original's single string-keyed map that folds
// the iteration counter in alongside durations).
func (t *Timings) StepDurations() map[string]time.Duration {
	out := make(map[string]time.Duration, len(t.durations)+1)
	for k, v := range t.durations {
		out[k] = v
	}
	out[SubstepIncompressibilityItCount] = time.Duration(t.iterCount)
	return out
}
