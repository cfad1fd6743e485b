package dos

import (
	"math"

	"github.com/pthm-cable/saphron-go/geom"
	"github.com/pthm-cable/saphron-go/histogram"
	"github.com/pthm-cable/saphron-go/particle"
	"github.com/pthm-cable/saphron-go/world"
)

// boltzmannK is the reduced-unit Boltzmann constant (kB=1), matching the
// reduced-units convention original_source's LJ/Lebwohl-Lasher example
// configs use (SimInfo::GetkB() is configurable there; the core never
// exercises a non-unity value in original_source/examples).
const boltzmannK = 1.0

func beta(w *world.World) float64 {
	if w.Temperature == 0 {
		return 0
	}
	return 1.0 / (boltzmannK * w.Temperature)
}

// WangLandau is the classic Wang-Landau order parameter: the total
// energy, with acceptance driven purely by the histogram's stored log-DOS
// values. Grounded on original_source/src/DensityOfStates/WangLandauOP.h.
type WangLandau struct {
	Hist *histogram.Histogram
}

func (wl *WangLandau) Evaluate(w *world.World) float64 {
	return w.Energy.Total()
}

func (wl *WangLandau) CalcAcceptanceProbability(_, opBefore, opAfter float64, _ *world.World) float64 {
	p := math.Exp(wl.Hist.ValueAt(opBefore) - wl.Hist.ValueAt(opAfter))
	if p > 1.0 {
		return 1.0
	}
	return p
}

func massWeightedCentroid(w *world.World, group []particle.Entity) (geom.Vec3, float64) {
	var weighted geom.Vec3
	var totalMass float64
	for _, e := range group {
		m := w.Store.Mass(e)
		weighted = weighted.Add(w.Store.Position(e).Mul(m))
		totalMass += m
	}
	if totalMass == 0 {
		return geom.Zero, 0
	}
	return weighted.Mul(1 / totalMass), totalMass
}

// ParticleDistance is the minimum-image distance between the
// mass-weighted centroids of two particle groups, grounded on
// original_source/src/DensityOfStates/ParticleDistanceOP.h (same shape
// as RgOP's centroid math, applied to two groups instead of one).
type ParticleDistance struct {
	Hist           *histogram.Histogram
	Group1, Group2 []particle.Entity
}

func (pd *ParticleDistance) Evaluate(w *world.World) float64 {
	c1, _ := massWeightedCentroid(w, pd.Group1)
	c2, _ := massWeightedCentroid(w, pd.Group2)
	d := w.ApplyMinimumImage(c2.Sub(c1))
	return geom.Norm(d)
}

func (pd *ParticleDistance) CalcAcceptanceProbability(deltaE, opBefore, opAfter float64, w *world.World) float64 {
	return boltzmannAcceptance(pd.Hist, beta(w), deltaE, opBefore, opAfter)
}

// RadiusOfGyration is R_g of a single particle group, grounded on
// original_source/src/DensityOfStates/RgOP.h.
type RadiusOfGyration struct {
	Hist  *histogram.Histogram
	Group []particle.Entity
}

func (rg *RadiusOfGyration) Evaluate(w *world.World) float64 {
	centroid, totalMass := massWeightedCentroid(w, rg.Group)
	if totalMass == 0 {
		return 0
	}
	var sum float64
	for _, e := range rg.Group {
		d := w.ApplyMinimumImage(w.Store.Position(e).Sub(centroid))
		sum += w.Store.Mass(e) * geom.NormSq(d)
	}
	return math.Sqrt(sum / totalMass)
}

func (rg *RadiusOfGyration) CalcAcceptanceProbability(deltaE, opBefore, opAfter float64, w *world.World) float64 {
	return boltzmannAcceptance(rg.Hist, beta(w), deltaE, opBefore, opAfter)
}

// ChargeFraction is |sum(q_i)/(n*q_base)| over a particle group, grounded
// on original_source/src/DensityOfStates/ChargeFractionOP.h.
type ChargeFraction struct {
	Hist      *histogram.Histogram
	Group     []particle.Entity
	BaseCharge float64
}

func (cf *ChargeFraction) Evaluate(w *world.World) float64 {
	if len(cf.Group) == 0 || cf.BaseCharge == 0 {
		return 0
	}
	var sum float64
	for _, e := range cf.Group {
		sum += w.Store.Charge(e)
	}
	frac := sum / float64(len(cf.Group)) / cf.BaseCharge
	return math.Abs(frac)
}

func (cf *ChargeFraction) CalcAcceptanceProbability(deltaE, opBefore, opAfter float64, w *world.World) float64 {
	return boltzmannAcceptance(cf.Hist, beta(w), deltaE, opBefore, opAfter)
}
