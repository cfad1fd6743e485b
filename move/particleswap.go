package move

import (
	"math"

	"github.com/pthm-cable/saphron-go/dos"
	"github.com/pthm-cable/saphron-go/forcefield"
	"github.com/pthm-cable/saphron-go/histogram"
	"github.com/pthm-cable/saphron-go/particle"
	"github.com/pthm-cable/saphron-go/species"
	"github.com/pthm-cable/saphron-go/world"
)

// ParticleSwap is the Gibbs-ensemble particle exchange: a random primitive
// is removed from one of two distinct worlds and inserted at a uniform
// position in the other, accepting with
// P = min(1, (N1*V2)/((N2+1)*V1) * exp(-beta*deltaU)), where world 1 is
// the donor and world 2 the receiver. A no-op (no attempt recorded) when
// the donor world has no particles of the chosen species. Grounded on
// original_source/src/Moves/ParticleSwapMove.h.
type ParticleSwap struct {
	Base
	Species []species.ID
}

// NewParticleSwap builds a ParticleSwap move over the given species list.
func NewParticleSwap(speciesList []species.ID) *ParticleSwap {
	return &ParticleSwap{Base: Base{NameStr: "ParticleSwap"}, Species: speciesList}
}

func (m *ParticleSwap) Clone() Move {
	c := *m
	c.accepted, c.rejected = 0, 0
	c.Species = append([]species.ID(nil), m.Species...)
	return &c
}

func (m *ParticleSwap) Perform(wm *WorldManager, ffm *forcefield.Manager, override Override) {
	if len(m.Species) == 0 {
		return
	}
	donor, donorID, receiver, receiverID, ok := wm.RandomTwoDistinct()
	if !ok {
		return
	}
	sp := m.Species[donor.RNG.IntN(len(m.Species))]
	n1 := donor.Composition(sp)
	if n1 == 0 {
		return
	}
	p, ok := donor.RandomParticleBySpecies(sp)
	if !ok {
		return
	}
	n2 := receiver.Composition(sp)
	v1 := donor.Box.Volume()
	v2 := receiver.Box.Volume()

	uRemoved := ffm.EvaluateParticle(donor, donorID, p)
	charge := donor.Store.Charge(p)
	mass := donor.Store.Mass(p)
	donor.Remove(p)

	pos := receiver.RNG.UniformInBox(receiver.Box.H)
	dir := receiver.RNG.UnitVectorVec()
	e := receiver.Add(pos, dir, charge, mass, sp, 0)
	uInserted := ffm.EvaluateParticle(receiver, receiverID, e)

	deltaU := uInserted.Total() - uRemoved.Total()
	p2 := clamp01((float64(n1) * v2) / (float64(n2+1) * v1) * math.Exp(-beta(donor)*deltaU))

	if decide(donor.RNG, p2, override) {
		donor.Energy = donor.Energy.Sub(uRemoved)
		receiver.Energy = receiver.Energy.Add(uInserted)
		m.recordAccept()
		return
	}
	receiver.Remove(e)
	donor.Add(donor.Store.Position(p), donor.Store.Director(p), charge, mass, sp, 0)
	m.recordReject()
}

// PerformDOS is unsupported for ParticleSwap: it inherently spans two
// worlds, while the flat-histogram path operates on a single world and
// order parameter. Returns attempted=false unconditionally.
func (m *ParticleSwap) PerformDOS(w *world.World, worldID int, ffm *forcefield.Manager, op dos.OrderParameter, hist *histogram.Histogram, override Override) (float64, bool) {
	return op.Evaluate(w), false
}

// ChargeSwap swaps charges between two distinct drawn primitives, possibly
// in different worlds, accepting with the plain Metropolis rule applied
// to the sum of both particles' local energy changes. Grounded on
// original_source/src/Moves/SpeciesSwapMove.h's charge-swap variant.
type ChargeSwap struct {
	Base
}

// NewChargeSwap builds a ChargeSwap move.
func NewChargeSwap() *ChargeSwap {
	return &ChargeSwap{Base: Base{NameStr: "ChargeSwap"}}
}

func (m *ChargeSwap) Clone() Move {
	c := *m
	c.accepted, c.rejected = 0, 0
	return &c
}

func (m *ChargeSwap) Perform(wm *WorldManager, ffm *forcefield.Manager, override Override) {
	w1, id1, p1, ok1 := m.pickOne(wm)
	if !ok1 {
		return
	}
	w2, id2, p2, ok2 := m.pickOne(wm)
	if !ok2 || (w1 == w2 && p1 == p2) {
		return
	}

	before1 := ffm.EvaluateParticle(w1, id1, p1)
	before2 := ffm.EvaluateParticle(w2, id2, p2)
	c1 := w1.Store.Charge(p1)
	c2 := w2.Store.Charge(p2)
	w1.Store.SetCharge(p1, c2)
	w2.Store.SetCharge(p2, c1)
	after1 := ffm.EvaluateParticle(w1, id1, p1)
	after2 := ffm.EvaluateParticle(w2, id2, p2)
	deltaU := after1.Sub(before1).Total() + after2.Sub(before2).Total()

	if decide(w1.RNG, metropolisP(beta(w1), deltaU), override) {
		w1.Energy = w1.Energy.Add(after1.Sub(before1))
		w2.Energy = w2.Energy.Add(after2.Sub(before2))
		m.recordAccept()
		return
	}
	w1.Store.SetCharge(p1, c1)
	w2.Store.SetCharge(p2, c2)
	m.recordReject()
}

func (m *ChargeSwap) pickOne(wm *WorldManager) (*world.World, int, particle.Entity, bool) {
	w, id, ok := wm.Random()
	if !ok {
		return nil, 0, particle.Entity{}, false
	}
	p, ok := w.RandomParticle()
	if !ok {
		return nil, 0, particle.Entity{}, false
	}
	return w, id, p, true
}

func (m *ChargeSwap) PerformDOS(w *world.World, worldID int, ffm *forcefield.Manager, op dos.OrderParameter, hist *histogram.Histogram, override Override) (float64, bool) {
	p1, ok := w.RandomParticle()
	if !ok {
		return 0, false
	}
	p2, ok := w.RandomParticle()
	if !ok || p2 == p1 {
		return 0, false
	}
	opBefore := op.Evaluate(w)
	before := ffm.EvaluateParticle(w, worldID, p1).Add(ffm.EvaluateParticle(w, worldID, p2))
	c1 := w.Store.Charge(p1)
	c2 := w.Store.Charge(p2)
	w.Store.SetCharge(p1, c2)
	w.Store.SetCharge(p2, c1)
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
	w.Store.SetCharge(p1, c1)
	w.Store.SetCharge(p2, c2)
	m.recordReject()
	return opBefore, true
}
