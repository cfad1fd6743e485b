package move

import (
	"github.com/pthm-cable/saphron-go/dos"
	"github.com/pthm-cable/saphron-go/forcefield"
	"github.com/pthm-cable/saphron-go/geom"
	"github.com/pthm-cable/saphron-go/histogram"
	"github.com/pthm-cable/saphron-go/particle"
	"github.com/pthm-cable/saphron-go/world"
)

// DirectorRotate (also referred to as SphereUnitVector) replaces a
// particle's director with a fresh uniform unit vector on S^2 sampled by
// the Marsaglia method, accepting with the plain Metropolis rule.
// Grounded on original_source/src/Moves/DirectorRotateMove.h.
type DirectorRotate struct {
	Base
}

// NewDirectorRotate builds a DirectorRotate move.
func NewDirectorRotate() *DirectorRotate {
	return &DirectorRotate{Base: Base{NameStr: "DirectorRotate"}}
}

func (m *DirectorRotate) Clone() Move {
	c := *m
	c.accepted, c.rejected = 0, 0
	return &c
}

func (m *DirectorRotate) perturb(w *world.World, p particle.Entity) geom.Vec3 {
	old := w.Store.Director(p)
	w.Store.SetDirector(p, w.RNG.UnitVectorVec())
	return old
}

func (m *DirectorRotate) Perform(wm *WorldManager, ffm *forcefield.Manager, override Override) {
	w, worldID, ok := wm.Random()
	if !ok {
		return
	}
	p, ok := w.RandomParticle()
	if !ok {
		return
	}
	before := ffm.EvaluateParticle(w, worldID, p)
	old := m.perturb(w, p)
	after := ffm.EvaluateParticle(w, worldID, p)
	deltaU := after.Sub(before)

	if decide(w.RNG, metropolisP(beta(w), deltaU.Total()), override) {
		w.Energy = w.Energy.Add(deltaU)
		m.recordAccept()
	} else {
		w.Store.SetDirector(p, old)
		m.recordReject()
	}
}

func (m *DirectorRotate) PerformDOS(w *world.World, worldID int, ffm *forcefield.Manager, op dos.OrderParameter, hist *histogram.Histogram, override Override) (float64, bool) {
	p, ok := w.RandomParticle()
	if !ok {
		return 0, false
	}
	before := ffm.EvaluateParticle(w, worldID, p)
	opBefore := op.Evaluate(w)
	old := m.perturb(w, p)
	after := ffm.EvaluateParticle(w, worldID, p)
	deltaU := after.Sub(before)

	w.Energy = w.Energy.Add(deltaU)
	opAfter := op.Evaluate(w)
	prob := dos.AcceptanceProbability(op, hist, deltaU.Total(), opBefore, opAfter, w)

	if decide(w.RNG, prob, override) {
		m.recordAccept()
		return opAfter, true
	}
	w.Energy = w.Energy.Sub(deltaU)
	w.Store.SetDirector(p, old)
	m.recordReject()
	return opBefore, true
}

// FlipSpin negates a particle's director, accepting with the plain
// Metropolis rule. Grounded on
// original_source/src/Moves/FlipSpinMove.h (the lattice-Ising-style
// analog used by spec §8 Scenario 1).
type FlipSpin struct {
	Base
}

// NewFlipSpin builds a FlipSpin move.
func NewFlipSpin() *FlipSpin {
	return &FlipSpin{Base: Base{NameStr: "FlipSpin"}}
}

func (m *FlipSpin) Clone() Move {
	c := *m
	c.accepted, c.rejected = 0, 0
	return &c
}

func (m *FlipSpin) perturb(w *world.World, p particle.Entity) geom.Vec3 {
	old := w.Store.Director(p)
	w.Store.SetDirector(p, old.Mul(-1))
	return old
}

func (m *FlipSpin) Perform(wm *WorldManager, ffm *forcefield.Manager, override Override) {
	w, worldID, ok := wm.Random()
	if !ok {
		return
	}
	p, ok := w.RandomParticle()
	if !ok {
		return
	}
	before := ffm.EvaluateParticle(w, worldID, p)
	old := m.perturb(w, p)
	after := ffm.EvaluateParticle(w, worldID, p)
	deltaU := after.Sub(before)

	if decide(w.RNG, metropolisP(beta(w), deltaU.Total()), override) {
		w.Energy = w.Energy.Add(deltaU)
		m.recordAccept()
	} else {
		w.Store.SetDirector(p, old)
		m.recordReject()
	}
}

func (m *FlipSpin) PerformDOS(w *world.World, worldID int, ffm *forcefield.Manager, op dos.OrderParameter, hist *histogram.Histogram, override Override) (float64, bool) {
	p, ok := w.RandomParticle()
	if !ok {
		return 0, false
	}
	before := ffm.EvaluateParticle(w, worldID, p)
	opBefore := op.Evaluate(w)
	old := m.perturb(w, p)
	after := ffm.EvaluateParticle(w, worldID, p)
	deltaU := after.Sub(before)

	w.Energy = w.Energy.Add(deltaU)
	opAfter := op.Evaluate(w)
	prob := dos.AcceptanceProbability(op, hist, deltaU.Total(), opBefore, opAfter, w)

	if decide(w.RNG, prob, override) {
		m.recordAccept()
		return opAfter, true
	}
	w.Energy = w.Energy.Sub(deltaU)
	w.Store.SetDirector(p, old)
	m.recordReject()
	return opBefore, true
}
