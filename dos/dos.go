// Package dos implements the density-of-states order parameter
// abstraction of spec §4.5: a pure coordinate function over World state,
// an acceptance probability combining ΔE, ΔOP, and histogram log-DOS
// values, and an out-of-range drive-back rule. Grounded directly on
// original_source/src/DensityOfStates/DOSOrderParameter.h.
package dos

import (
	"math"

	"github.com/pthm-cable/saphron-go/histogram"
	"github.com/pthm-cable/saphron-go/world"
)

// OrderParameter is the contract every concrete DOS order parameter
// implements.
type OrderParameter interface {
	// Evaluate computes the order parameter's current value for w. Pure
	// function of world state.
	Evaluate(w *world.World) float64
	// CalcAcceptanceProbability computes P given the energy and OP
	// values before/after a proposed move, once the OP value is known to
	// be in-range (the generic out-of-range drive-back is handled by
	// AcceptanceProbability, not by implementations of this method).
	CalcAcceptanceProbability(deltaE, opBefore, opAfter float64, w *world.World) float64
}

// AcceptanceProbability wraps an OrderParameter's
// CalcAcceptanceProbability with the generic out-of-range drive-back
// rule from spec §4.5: "if OP_after is outside [min,max), accept
// unconditionally iff it moves toward the interval, else reject."
// Grounded on DOSOrderParameter::AcceptanceProbability.
func AcceptanceProbability(op OrderParameter, hist *histogram.Histogram, deltaE, opBefore, opAfter float64, w *world.World) float64 {
	if hist.Bin(opAfter) == histogram.OutOfRange {
		if opBefore < hist.Min() && opAfter > opBefore {
			return 1.0
		}
		if opBefore >= hist.Max() && opAfter < opBefore {
			return 1.0
		}
		return 0.0
	}
	return op.CalcAcceptanceProbability(deltaE, opBefore, opAfter, w)
}

// boltzmannAcceptance is the common Frenkel-Smit-style acceptance shape
// shared by ChargeFraction, RadiusOfGyration, and ParticleDistance:
// P = min(1, exp(-beta*deltaE - (hist[opAfter] - hist[opBefore]))).
func boltzmannAcceptance(hist *histogram.Histogram, beta, deltaE, opBefore, opAfter float64) float64 {
	dop := hist.ValueAt(opAfter) - hist.ValueAt(opBefore)
	p := math.Exp(-beta*deltaE - dop)
	if p > 1.0 {
		return 1.0
	}
	return p
}
