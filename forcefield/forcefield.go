// Package forcefield implements the non-bonded/bonded/electrostatic/
// constraint contracts of spec §4.2-4.3: per-pair energy/virial
// evaluators composed by a ForceFieldManager into per-particle and
// per-world energy sums, grounded on the dynamic-dispatch forcefield
// hierarchy of original_source/src/ForceFields (a family of small
// Evaluate(r) implementations looked up by species pair).
package forcefield

import (
	"github.com/pthm-cable/saphron-go/geom"
	"github.com/pthm-cable/saphron-go/species"
)

// PairResult is the (energy, virial) pair a non-bonded or electrostatic
// forcefield returns for one interacting pair, per spec §4.2: "the
// non-bonded evaluator receives the displacement vector and returns a
// (u, virial) pair."
type PairResult struct {
	Energy float64
	Virial float64
}

// Pair carries everything a pairwise forcefield might need: the
// minimum-image displacement (from p1 to p2) and each particle's
// director, since some forcefields (LebwohlLasher) are purely
// orientational rather than distance-dependent.
type Pair struct {
	R12       geom.Vec3
	Director1 geom.Vec3
	Director2 geom.Vec3
	// WorldID is the caller-assigned world id the pair was drawn from, so
	// a forcefield with a per-world cutoff list (spec §4.3) can look up
	// its own cutoff for this call instead of assuming world 0.
	WorldID int
}

// NonBonded evaluates a short-ranged pairwise potential.
type NonBonded interface {
	Evaluate(p Pair) PairResult
	// Cutoff returns the forcefield's own cutoff radius for worldID, so
	// multi-world simulations can register distinct cutoffs per world
	// (spec §4.3: "the forcefield carries a per-world cutoff list").
	Cutoff(worldID int) float64
	// TailIntegral returns the tail-correction integral contribution
	// used by ForceFieldManager's long-range correction sum. Forcefields
	// without an analytic tail return 0.
	TailIntegral(worldID int) float64
}

// Bonded evaluates an uncut pairwise potential over a stored bonded-
// neighbor list (no cutoff, no tail correction).
type Bonded interface {
	Evaluate(p Pair) PairResult
}

// Electrostatic is a NonBonded forcefield that additionally supports a
// reciprocal-space contribution and self/intramolecular corrections for
// Ewald-type decompositions (spec §4.3).
type Electrostatic interface {
	NonBonded
	// ReciprocalSpaceEnergy computes the k-space sum over every charge
	// in the world; short-range-only electrostatics (e.g. DSF) return 0.
	ReciprocalSpaceEnergy(charges []float64, positions []geom.Vec3, box geom.Mat3, volume float64) float64
	// SelfEnergy returns the per-charge self-interaction correction for
	// a single charge q (Ewald: -alpha/sqrt(pi) * q^2, in reduced units).
	SelfEnergy(q float64) float64
}

// Constraint evaluates a potential on a single particle rather than on a
// pair (spec §4.3). The interface has no whole-world method; the
// manager sums the per-particle values into the "connectivity" energy
// channel.
type Constraint interface {
	EvaluateParticle(pos geom.Vec3, charge float64) float64
}

// PairKey identifies an unordered species pair for the manager's
// registration maps.
type PairKey struct {
	A, B species.ID
}

// normalize returns k with A<=B so (a,b) and (b,a) hash identically in
// the "unique pairs" map used for tail-correction enumeration.
func (k PairKey) normalize() PairKey {
	if k.A > k.B {
		return PairKey{A: k.B, B: k.A}
	}
	return k
}
