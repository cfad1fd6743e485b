package move

import (
	"github.com/pthm-cable/saphron-go/dos"
	"github.com/pthm-cable/saphron-go/forcefield"
	"github.com/pthm-cable/saphron-go/histogram"
	"github.com/pthm-cable/saphron-go/particle"
	"github.com/pthm-cable/saphron-go/species"
	"github.com/pthm-cable/saphron-go/world"
)

// SpeciesSwap swaps species-ids (and, if configured, mass and charge)
// between two distinct primitives, optionally restricted to a specific
// (A,B) species pair; otherwise the pair is drawn freely. Never swaps a
// particle with itself. Grounded on
// original_source/src/Moves/SpeciesSwapMove.h.
type SpeciesSwap struct {
	Base
	SwapMassCharge bool
	RestrictPair   bool
	A, B           species.ID
}

// NewSpeciesSwap builds an unrestricted SpeciesSwap move.
func NewSpeciesSwap(swapMassCharge bool) *SpeciesSwap {
	return &SpeciesSwap{Base: Base{NameStr: "SpeciesSwap"}, SwapMassCharge: swapMassCharge}
}

func (m *SpeciesSwap) Clone() Move {
	c := *m
	c.accepted, c.rejected = 0, 0
	return &c
}

// pickPair draws two distinct primitives for the swap, honoring
// RestrictPair when set.
func (m *SpeciesSwap) pickPair(w *world.World) (particle.Entity, particle.Entity, bool) {
	if m.RestrictPair {
		p1, ok := w.RandomParticleBySpecies(m.A)
		if !ok {
			return particle.Entity{}, particle.Entity{}, false
		}
		p2, ok := w.RandomParticleBySpecies(m.B)
		if !ok || p2 == p1 {
			return particle.Entity{}, particle.Entity{}, false
		}
		return p1, p2, true
	}
	p1, ok := w.RandomParticle()
	if !ok {
		return particle.Entity{}, particle.Entity{}, false
	}
	p2, ok := w.RandomParticle()
	if !ok || p2 == p1 {
		return particle.Entity{}, particle.Entity{}, false
	}
	return p1, p2, true
}

type swapState struct {
	sp1, sp2         species.ID
	mass1, mass2     float64
	charge1, charge2 float64
}

func (m *SpeciesSwap) apply(w *world.World, p1, p2 particle.Entity) swapState {
	st := swapState{
		sp1: w.Store.Species(p1), sp2: w.Store.Species(p2),
		mass1: w.Store.Mass(p1), mass2: w.Store.Mass(p2),
		charge1: w.Store.Charge(p1), charge2: w.Store.Charge(p2),
	}
	w.Store.SetSpecies(p1, st.sp2)
	w.Store.SetSpecies(p2, st.sp1)
	if m.SwapMassCharge {
		w.Store.SetCharge(p1, st.charge2)
		w.Store.SetCharge(p2, st.charge1)
	}
	return st
}

func (m *SpeciesSwap) restore(w *world.World, p1, p2 particle.Entity, st swapState) {
	w.Store.SetSpecies(p1, st.sp1)
	w.Store.SetSpecies(p2, st.sp2)
	if m.SwapMassCharge {
		w.Store.SetCharge(p1, st.charge1)
		w.Store.SetCharge(p2, st.charge2)
	}
}

func (m *SpeciesSwap) Perform(wm *WorldManager, ffm *forcefield.Manager, override Override) {
	w, worldID, ok := wm.Random()
	if !ok {
		return
	}
	p1, p2, ok := m.pickPair(w)
	if !ok {
		return
	}
	before := ffm.EvaluateParticle(w, worldID, p1).Add(ffm.EvaluateParticle(w, worldID, p2))
	st := m.apply(w, p1, p2)
	after := ffm.EvaluateParticle(w, worldID, p1).Add(ffm.EvaluateParticle(w, worldID, p2))
	deltaU := after.Sub(before)

	if decide(w.RNG, metropolisP(beta(w), deltaU.Total()), override) {
		w.Energy = w.Energy.Add(deltaU)
		m.recordAccept()
	} else {
		m.restore(w, p1, p2, st)
		m.recordReject()
	}
}

func (m *SpeciesSwap) PerformDOS(w *world.World, worldID int, ffm *forcefield.Manager, op dos.OrderParameter, hist *histogram.Histogram, override Override) (float64, bool) {
	p1, p2, ok := m.pickPair(w)
	if !ok {
		return 0, false
	}
	before := ffm.EvaluateParticle(w, worldID, p1).Add(ffm.EvaluateParticle(w, worldID, p2))
	opBefore := op.Evaluate(w)
	st := m.apply(w, p1, p2)
	after := ffm.EvaluateParticle(w, worldID, p1).Add(ffm.EvaluateParticle(w, worldID, p2))
	deltaU := after.Sub(before)

	w.Energy = w.Energy.Add(deltaU)
	opAfter := op.Evaluate(w)
	prob := dos.AcceptanceProbability(op, hist, deltaU.Total(), opBefore, opAfter, w)

	if decide(w.RNG, prob, override) {
		m.recordAccept()
		return opAfter, true
	}
	w.Energy = w.Energy.Sub(deltaU)
	m.restore(w, p1, p2, st)
	m.recordReject()
	return opBefore, true
}

// RandomIdentity reassigns a drawn particle's species to a uniformly
// random element of an allowed species list, accepting with the plain
// Metropolis rule. Grounded on
// original_source/src/Moves/RandomIdentityMove.h.
type RandomIdentity struct {
	Base
	Allowed []species.ID
}

// NewRandomIdentity builds a RandomIdentity move over the given allowed
// species list.
func NewRandomIdentity(allowed []species.ID) *RandomIdentity {
	return &RandomIdentity{Base: Base{NameStr: "RandomIdentity"}, Allowed: allowed}
}

func (m *RandomIdentity) Clone() Move {
	c := *m
	c.accepted, c.rejected = 0, 0
	return &c
}

func (m *RandomIdentity) Perform(wm *WorldManager, ffm *forcefield.Manager, override Override) {
	if len(m.Allowed) == 0 {
		return
	}
	w, worldID, ok := wm.Random()
	if !ok {
		return
	}
	p, ok := w.RandomParticle()
	if !ok {
		return
	}
	before := ffm.EvaluateParticle(w, worldID, p)
	old := w.Store.Species(p)
	w.Store.SetSpecies(p, m.Allowed[w.RNG.IntN(len(m.Allowed))])
	after := ffm.EvaluateParticle(w, worldID, p)
	deltaU := after.Sub(before)

	if decide(w.RNG, metropolisP(beta(w), deltaU.Total()), override) {
		w.Energy = w.Energy.Add(deltaU)
		m.recordAccept()
	} else {
		w.Store.SetSpecies(p, old)
		m.recordReject()
	}
}

func (m *RandomIdentity) PerformDOS(w *world.World, worldID int, ffm *forcefield.Manager, op dos.OrderParameter, hist *histogram.Histogram, override Override) (float64, bool) {
	if len(m.Allowed) == 0 {
		return 0, false
	}
	p, ok := w.RandomParticle()
	if !ok {
		return 0, false
	}
	before := ffm.EvaluateParticle(w, worldID, p)
	opBefore := op.Evaluate(w)
	old := w.Store.Species(p)
	w.Store.SetSpecies(p, m.Allowed[w.RNG.IntN(len(m.Allowed))])
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
	w.Store.SetSpecies(p, old)
	m.recordReject()
	return opBefore, true
}

// IdentityChange reassigns a drawn particle's species to a uniform
// random species in [0, NumSpecies), accepting with the plain Metropolis
// rule. Grounded on original_source/src/Moves/IdentityChangeMove.h.
type IdentityChange struct {
	Base
	NumSpecies int
}

// NewIdentityChange builds an IdentityChange move over numSpecies
// registered species.
func NewIdentityChange(numSpecies int) *IdentityChange {
	return &IdentityChange{Base: Base{NameStr: "IdentityChange"}, NumSpecies: numSpecies}
}

func (m *IdentityChange) Clone() Move {
	c := *m
	c.accepted, c.rejected = 0, 0
	return &c
}

func (m *IdentityChange) Perform(wm *WorldManager, ffm *forcefield.Manager, override Override) {
	if m.NumSpecies <= 0 {
		return
	}
	w, worldID, ok := wm.Random()
	if !ok {
		return
	}
	p, ok := w.RandomParticle()
	if !ok {
		return
	}
	before := ffm.EvaluateParticle(w, worldID, p)
	old := w.Store.Species(p)
	w.Store.SetSpecies(p, species.ID(w.RNG.IntN(m.NumSpecies)))
	after := ffm.EvaluateParticle(w, worldID, p)
	deltaU := after.Sub(before)

	if decide(w.RNG, metropolisP(beta(w), deltaU.Total()), override) {
		w.Energy = w.Energy.Add(deltaU)
		m.recordAccept()
	} else {
		w.Store.SetSpecies(p, old)
		m.recordReject()
	}
}

func (m *IdentityChange) PerformDOS(w *world.World, worldID int, ffm *forcefield.Manager, op dos.OrderParameter, hist *histogram.Histogram, override Override) (float64, bool) {
	if m.NumSpecies <= 0 {
		return 0, false
	}
	p, ok := w.RandomParticle()
	if !ok {
		return 0, false
	}
	before := ffm.EvaluateParticle(w, worldID, p)
	opBefore := op.Evaluate(w)
	old := w.Store.Species(p)
	w.Store.SetSpecies(p, species.ID(w.RNG.IntN(m.NumSpecies)))
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
	w.Store.SetSpecies(p, old)
	m.recordReject()
	return opBefore, true
}
