package move

import (
	"github.com/pthm-cable/saphron-go/dos"
	"github.com/pthm-cable/saphron-go/forcefield"
	"github.com/pthm-cable/saphron-go/histogram"
	"github.com/pthm-cable/saphron-go/particle"
	"github.com/pthm-cable/saphron-go/species"
	"github.com/pthm-cable/saphron-go/world"
)

// Translate draws a particle's displacement uniformly in [-dx/2,dx/2]^3
// and folds the resulting position, accepting with the plain Metropolis
// rule restricted to the particle's own local (neighbor-list) energy, so
// acceptance work is O(neighbors) as spec §4.4 requires. TranslatePrimitive
// is an alias: this core's particles and primitives coincide (see the
// particle package doc comment), so the two moves are identical here.
// Grounded on original_source/src/Moves/TranslateMove.h.
type Translate struct {
	Base
	Dx              float64
	RestrictSpecies bool
	Species         species.ID
}

// NewTranslate builds an unrestricted Translate move with per-axis
// displacement range dx (each component drawn in [-dx/2, dx/2)).
func NewTranslate(dx float64) *Translate {
	return &Translate{Base: Base{NameStr: "Translate"}, Dx: dx}
}

func (m *Translate) Clone() Move {
	c := *m
	c.accepted, c.rejected = 0, 0
	return &c
}

func (m *Translate) pick(w *world.World) (particle.Entity, bool) {
	if m.RestrictSpecies {
		return w.RandomParticleBySpecies(m.Species)
	}
	return w.RandomParticle()
}

func (m *Translate) Perform(wm *WorldManager, ffm *forcefield.Manager, override Override) {
	w, worldID, ok := wm.Random()
	if !ok {
		return
	}
	p, ok := m.pick(w)
	if !ok {
		return
	}

	oldPos := w.Store.Position(p)
	before := ffm.EvaluateParticle(w, worldID, p)
	disp := w.RNG.Symmetric3(m.Dx / 2)
	newPos := w.ApplyPeriodicBoundaries(oldPos.Add(disp))
	w.Store.SetPosition(p, newPos)
	after := ffm.EvaluateParticle(w, worldID, p)

	deltaU := after.Sub(before)
	p1 := metropolisP(beta(w), deltaU.Total())
	if decide(w.RNG, p1, override) {
		w.Energy = w.Energy.Add(deltaU)
		m.recordAccept()
	} else {
		w.Store.SetPosition(p, oldPos)
		m.recordReject()
	}
}

func (m *Translate) PerformDOS(w *world.World, worldID int, ffm *forcefield.Manager, op dos.OrderParameter, hist *histogram.Histogram, override Override) (float64, bool) {
	p, ok := m.pick(w)
	if !ok {
		return 0, false
	}

	oldPos := w.Store.Position(p)
	before := ffm.EvaluateParticle(w, worldID, p)
	opBefore := op.Evaluate(w)

	disp := w.RNG.Symmetric3(m.Dx / 2)
	newPos := w.ApplyPeriodicBoundaries(oldPos.Add(disp))
	w.Store.SetPosition(p, newPos)
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
	w.Store.SetPosition(p, oldPos)
	m.recordReject()
	return opBefore, true
}

// TranslatePrimitive is the alias spec §4.4 names separately; in this
// core it behaves identically to Translate.
type TranslatePrimitive = Translate

// NewTranslatePrimitive builds a TranslatePrimitive move.
func NewTranslatePrimitive(dx float64) *TranslatePrimitive {
	t := NewTranslate(dx)
	t.NameStr = "TranslatePrimitive"
	return t
}
