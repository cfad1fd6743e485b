package forcefield

import (
	"math"

	"github.com/pthm-cable/saphron-go/geom"
)

// LennardJones is the classic 12-6 potential, grounded on
// original_source/src/ForceFields/LennardJonesFF.h.
type LennardJones struct {
	Epsilon float64
	Sigma   float64
	RCut    []float64 // per-world cutoff list
}

func (lj *LennardJones) Cutoff(worldID int) float64 {
	if worldID < 0 || worldID >= len(lj.RCut) {
		return lj.Sigma * 2.5
	}
	return lj.RCut[worldID]
}

// energyAt returns the unshifted 12-6 energy at separation r, used both
// by Evaluate and to compute the truncation shift at the cutoff.
func (lj *LennardJones) energyAt(r float64) float64 {
	sr6 := math.Pow(lj.Sigma/r, 6)
	return 4 * lj.Epsilon * (sr6*sr6 - sr6)
}

// Evaluate computes the truncated-shifted 12-6 potential: the raw energy
// minus its value at the forcefield's own per-world cutoff, so the
// potential (and the manager's neighbor-filtered sum built on top of it)
// vanishes continuously at r=rc per spec §8's truncated-shifted
// invariant. The shift is a constant offset and does not affect the
// virial.
func (lj *LennardJones) Evaluate(p Pair) PairResult {
	r := geom.Norm(p.R12)
	if r == 0 {
		return PairResult{}
	}
	sr6 := math.Pow(lj.Sigma/r, 6)
	energy := 4*lj.Epsilon*(sr6*sr6-sr6) - lj.energyAt(lj.Cutoff(p.WorldID))
	virial := 24 * lj.Epsilon * (sr6 - 2*sr6*sr6) / (r * r)
	return PairResult{Energy: energy, Virial: virial}
}

// TailIntegral returns the analytic long-range energy tail correction
// integral, matching LennardJonesFF::EnergyTailCorrection.
func (lj *LennardJones) TailIntegral(worldID int) float64 {
	rc := lj.Cutoff(worldID)
	sig3 := lj.Sigma * lj.Sigma * lj.Sigma
	return 4.0 / 3.0 * lj.Epsilon * sig3 * (1.0 / 3.0 * math.Pow(sig3, 3) / math.Pow(rc, 9) - sig3/math.Pow(rc, 3))
}

// PressureTailCorrection mirrors LennardJonesFF::PressureTailCorrection,
// used by the ForceFieldManager's tail pressure bookkeeping.
func (lj *LennardJones) PressureTailCorrection(worldID int) float64 {
	rc := lj.Cutoff(worldID)
	sig3 := lj.Sigma * lj.Sigma * lj.Sigma
	return 8.0 / 3.0 * lj.Epsilon * sig3 * (2.0 / 3.0 * math.Pow(sig3, 3) / math.Pow(rc, 9) - sig3/math.Pow(rc, 3))
}

// LebwohlLasher is a purely orientational nearest-neighbor interaction
// used for nematic lattice models, grounded on
// original_source/src/ForceFields/LebwohlLasherFF.h. It ignores distance
// entirely (any registered neighbor within cutoff interacts).
type LebwohlLasher struct {
	Eps   float64
	Gamma float64
	RCut  []float64
}

func (ll *LebwohlLasher) Cutoff(worldID int) float64 {
	if worldID < 0 || worldID >= len(ll.RCut) {
		return 1.5
	}
	return ll.RCut[worldID]
}

func (ll *LebwohlLasher) TailIntegral(int) float64 { return 0 }

func (ll *LebwohlLasher) Evaluate(p Pair) PairResult {
	dot := p.Director1.Dot(p.Director2)
	return PairResult{Energy: -1.0 * (ll.Eps*(1.5*dot*dot-0.5) + ll.Gamma)}
}

// DSFElectrostatic is the damped-shifted-force point-charge
// electrostatic potential, a short-range-only Electrostatic
// implementation (ReciprocalSpaceEnergy returns 0), grounded on
// original_source's DSFPointChargeFFTests.cpp fixture values.
type DSFElectrostatic struct {
	Alpha    float64
	ChargeConv float64
	RCut     []float64
}

func (d *DSFElectrostatic) Cutoff(worldID int) float64 {
	if worldID < 0 || worldID >= len(d.RCut) {
		return 10
	}
	return d.RCut[worldID]
}

func (d *DSFElectrostatic) TailIntegral(int) float64 { return 0 }

func (d *DSFElectrostatic) Evaluate(p Pair) PairResult {
	r := geom.Norm(p.R12)
	if r == 0 {
		return PairResult{}
	}
	rc := d.Cutoff(p.WorldID)
	f := d.shiftedPotential(r) - d.shiftedPotential(rc)
	return PairResult{Energy: d.ChargeConv * f}
}

func (d *DSFElectrostatic) shiftedPotential(r float64) float64 {
	return math.Erfc(d.Alpha*r) / r
}

func (d *DSFElectrostatic) ReciprocalSpaceEnergy([]float64, []geom.Vec3, geom.Mat3, float64) float64 {
	return 0
}

func (d *DSFElectrostatic) SelfEnergy(q float64) float64 {
	return -d.Alpha / math.Sqrt(math.Pi) * q * q * d.ChargeConv
}

// Harmonic is a harmonic bond potential, 0.5*k*(r-r0)^2, used for
// intramolecular bonded connectivity.
type Harmonic struct {
	K  float64
	R0 float64
}

func (h *Harmonic) Evaluate(p Pair) PairResult {
	r := geom.Norm(p.R12)
	dr := r - h.R0
	energy := 0.5 * h.K * dr * dr
	virial := h.K * dr * r
	return PairResult{Energy: energy, Virial: virial}
}

// HarmonicConstraint is a single-particle harmonic tether to a fixed
// anchor position, registered against a species as a Constraint
// contribution to the "connectivity" energy channel.
type HarmonicConstraint struct {
	K      float64
	Anchor geom.Vec3
}

func (h *HarmonicConstraint) EvaluateParticle(pos geom.Vec3, _ float64) float64 {
	d := pos.Sub(h.Anchor)
	return 0.5 * h.K * geom.NormSq(d)
}
