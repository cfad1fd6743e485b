package move

import (
	"math"

	"github.com/pthm-cable/saphron-go/dos"
	"github.com/pthm-cable/saphron-go/forcefield"
	"github.com/pthm-cable/saphron-go/geom"
	"github.com/pthm-cable/saphron-go/histogram"
	"github.com/pthm-cable/saphron-go/species"
	"github.com/pthm-cable/saphron-go/world"
)

// InsertParticle unstashes a prototype of a chosen species, places its
// centroid uniformly in the box and gives it a random orientation, and
// accepts with the grand-canonical insertion probability
// P = (V/(lambda^3*(N+1))) * exp(beta*(mu-deltaU)), clamped to 1.
// MultiInsertion gates spec §9's open question: false (default) draws
// one species per attempt; true attempts one insertion of every species
// in Species in turn. Each of those insertions is accepted or rejected on
// its own, and an accepted one is kept even if a later one is rejected;
// the attempt is recorded as accepted only when all were. Grounded on
// original_source/src/Moves/InsertParticleMove.h.
type InsertParticle struct {
	Base
	Species       []species.ID
	MultiInsertion bool
}

// NewInsertParticle builds a single-species-per-attempt InsertParticle
// move over the given species list.
func NewInsertParticle(speciesList []species.ID) *InsertParticle {
	return &InsertParticle{Base: Base{NameStr: "InsertParticle"}, Species: speciesList}
}

func (m *InsertParticle) randomOrientation(w *world.World) geom.Vec3 {
	axis := w.RNG.UnitVectorVec()
	angle := w.RNG.Uniform(-2*math.Pi, 2*math.Pi)
	return geom.RotateVec(geom.AxisAngleRotation(axis, angle), geom.Vec3{0, 0, 1})
}

// insertOne performs a single-species insertion attempt, returning
// whether it was accepted.
func (m *InsertParticle) insertOne(w *world.World, worldID int, ffm *forcefield.Manager, sp species.ID, override Override) bool {
	n := w.Composition(sp)
	thermo := w.Thermo(sp)
	if thermo.Lambda <= 0 {
		return false
	}
	pos := w.RNG.UniformInBox(w.Box.H)
	dir := m.randomOrientation(w)
	e := w.Unstash(sp, pos, dir)
	// Rebuild before evaluating this particle's insertion energy: the
	// new entity isn't bucketed until a rebuild runs, so without this a
	// sequential MultiInsertion would have each newly inserted particle
	// invisible to the next one's neighbor scan, and no later particle
	// in the world would see this one until some unrelated future move
	// happened to trigger a rebuild.
	w.CheckNeighborListUpdate()

	deltaU := ffm.EvaluateParticle(w, worldID, e)
	volume := w.Box.Volume()
	lambda3 := thermo.Lambda * thermo.Lambda * thermo.Lambda
	p := clamp01((volume / (lambda3 * float64(n+1))) * math.Exp(beta(w)*(thermo.Mu-deltaU.Total())))

	if decide(w.RNG, p, override) {
		w.Energy = w.Energy.Add(deltaU)
		w.UpdatePressure()
		return true
	}
	w.Stash(e)
	w.CheckNeighborListUpdate()
	return false
}

func (m *InsertParticle) Perform(wm *WorldManager, ffm *forcefield.Manager, override Override) {
	if len(m.Species) == 0 {
		return
	}
	w, worldID, ok := wm.Random()
	if !ok {
		return
	}
	if m.MultiInsertion {
		allAccepted := true
		for _, sp := range m.Species {
			if !m.insertOne(w, worldID, ffm, sp, override) {
				allAccepted = false
			}
		}
		if allAccepted {
			m.recordAccept()
		} else {
			m.recordReject()
		}
		return
	}
	sp := m.Species[w.RNG.IntN(len(m.Species))]
	if m.insertOne(w, worldID, ffm, sp, override) {
		m.recordAccept()
	} else {
		m.recordReject()
	}
}

func (m *InsertParticle) PerformDOS(w *world.World, worldID int, ffm *forcefield.Manager, op dos.OrderParameter, hist *histogram.Histogram, override Override) (float64, bool) {
	if len(m.Species) == 0 {
		return 0, false
	}
	sp := m.Species[w.RNG.IntN(len(m.Species))]
	thermo := w.Thermo(sp)
	if thermo.Lambda <= 0 {
		return 0, false
	}
	opBefore := op.Evaluate(w)
	n := w.Composition(sp)
	pos := w.RNG.UniformInBox(w.Box.H)
	dir := m.randomOrientation(w)
	e := w.Unstash(sp, pos, dir)
	w.CheckNeighborListUpdate()
	deltaU := ffm.EvaluateParticle(w, worldID, e)

	w.Energy = w.Energy.Add(deltaU)
	w.UpdatePressure()
	opAfter := op.Evaluate(w)
	volume := w.Box.Volume()
	lambda3 := thermo.Lambda * thermo.Lambda * thermo.Lambda
	biasedDeltaU := deltaU.Total() - thermo.Mu - math.Log(volume/(lambda3*float64(n+1)))/beta(w)
	prob := dos.AcceptanceProbability(op, hist, biasedDeltaU, opBefore, opAfter, w)

	if decide(w.RNG, prob, override) {
		m.recordAccept()
		return opAfter, true
	}
	w.Energy = w.Energy.Sub(deltaU)
	w.Stash(e)
	w.CheckNeighborListUpdate()
	w.UpdatePressure()
	m.recordReject()
	return opBefore, true
}

// DeleteParticle picks a particle of a chosen species (a no-op when the
// species count is zero), evaluates its removal deltaU = -U_particle, and
// accepts with P = (lambda^3*N/V) * exp(beta*(deltaU-mu)). On accept, the
// particle is stashed rather than freed, per spec §4.1's stash contract.
// Grounded on original_source/src/Moves/DeleteParticleMove.h.
type DeleteParticle struct {
	Base
	Species []species.ID
}

// NewDeleteParticle builds a DeleteParticle move over the given species
// list.
func NewDeleteParticle(speciesList []species.ID) *DeleteParticle {
	return &DeleteParticle{Base: Base{NameStr: "DeleteParticle"}, Species: speciesList}
}

func (m *DeleteParticle) Clone() Move {
	c := *m
	c.accepted, c.rejected = 0, 0
	return &c
}

func (m *InsertParticle) Clone() Move {
	c := *m
	c.accepted, c.rejected = 0, 0
	c.Species = append([]species.ID(nil), m.Species...)
	return &c
}

func (m *DeleteParticle) Perform(wm *WorldManager, ffm *forcefield.Manager, override Override) {
	if len(m.Species) == 0 {
		return
	}
	w, worldID, ok := wm.Random()
	if !ok {
		return
	}
	sp := m.Species[w.RNG.IntN(len(m.Species))]
	n := w.Composition(sp)
	if n == 0 {
		return
	}
	p, ok := w.RandomParticleBySpecies(sp)
	if !ok {
		return
	}
	thermo := w.Thermo(sp)
	w.CheckNeighborListUpdate()
	uParticle := ffm.EvaluateParticle(w, worldID, p)
	deltaU := world.EnergyChannels{}.Sub(uParticle)
	volume := w.Box.Volume()
	lambda3 := thermo.Lambda * thermo.Lambda * thermo.Lambda
	prob := clamp01((lambda3 * float64(n) / volume) * math.Exp(beta(w)*(deltaU.Total()-thermo.Mu)))

	if decide(w.RNG, prob, override) {
		w.Energy = w.Energy.Add(deltaU)
		w.Stash(p)
		w.CheckNeighborListUpdate()
		w.UpdatePressure()
		m.recordAccept()
	} else {
		m.recordReject()
	}
}

func (m *DeleteParticle) PerformDOS(w *world.World, worldID int, ffm *forcefield.Manager, op dos.OrderParameter, hist *histogram.Histogram, override Override) (float64, bool) {
	if len(m.Species) == 0 {
		return 0, false
	}
	sp := m.Species[w.RNG.IntN(len(m.Species))]
	n := w.Composition(sp)
	if n == 0 {
		return 0, false
	}
	p, ok := w.RandomParticleBySpecies(sp)
	if !ok {
		return 0, false
	}
	opBefore := op.Evaluate(w)
	thermo := w.Thermo(sp)
	w.CheckNeighborListUpdate()
	uParticle := ffm.EvaluateParticle(w, worldID, p)
	deltaU := world.EnergyChannels{}.Sub(uParticle)
	volume := w.Box.Volume()
	lambda3 := thermo.Lambda * thermo.Lambda * thermo.Lambda
	biasedDeltaU := deltaU.Total() - thermo.Mu - math.Log(lambda3*float64(n)/volume)/beta(w)

	w.Energy = w.Energy.Add(deltaU)
	opAfter := op.Evaluate(w)
	prob := dos.AcceptanceProbability(op, hist, biasedDeltaU, opBefore, opAfter, w)
	if decide(w.RNG, prob, override) {
		w.Stash(p)
		w.CheckNeighborListUpdate()
		w.UpdatePressure()
		m.recordAccept()
		return opAfter, true
	}
	w.Energy = w.Energy.Sub(deltaU)
	w.UpdatePressure()
	m.recordReject()
	return opBefore, true
}

// WidomInsertion performs a trial insertion without mutation, accumulating
// <exp(-beta*deltaU)> per species and reporting the excess chemical
// potential mu_ex = -kT*ln(<exp(-beta*deltaU)>/n) into the world's
// per-species thermodynamic table. Never modifies particle count.
// Grounded on original_source/src/Moves/WidomInsertionMove.h.
type WidomInsertion struct {
	Base
	Species []species.ID

	sumExp map[species.ID]float64
	trials map[species.ID]int
}

// NewWidomInsertion builds a WidomInsertion move over the given species
// list.
func NewWidomInsertion(speciesList []species.ID) *WidomInsertion {
	return &WidomInsertion{
		Base:    Base{NameStr: "WidomInsertion"},
		Species: speciesList,
		sumExp:  make(map[species.ID]float64),
		trials:  make(map[species.ID]int),
	}
}

func (m *WidomInsertion) Clone() Move {
	c := *m
	c.accepted, c.rejected = 0, 0
	c.Species = append([]species.ID(nil), m.Species...)
	c.sumExp = make(map[species.ID]float64)
	c.trials = make(map[species.ID]int)
	return &c
}

// ExcessChemicalPotential returns the Widom estimator mu_ex for species
// sp, or 0 if no trials have been recorded.
func (m *WidomInsertion) ExcessChemicalPotential(w *world.World, sp species.ID) float64 {
	n := m.trials[sp]
	if n == 0 {
		return 0
	}
	mean := m.sumExp[sp] / float64(n)
	if mean <= 0 {
		return 0
	}
	if w.Temperature == 0 {
		return 0
	}
	return -boltzmannK * w.Temperature * math.Log(mean)
}

func (m *WidomInsertion) Perform(wm *WorldManager, ffm *forcefield.Manager, override Override) {
	if len(m.Species) == 0 {
		return
	}
	w, worldID, ok := wm.Random()
	if !ok {
		return
	}
	sp := m.Species[w.RNG.IntN(len(m.Species))]
	thermo := w.Thermo(sp)
	if thermo.Lambda <= 0 {
		return
	}
	pos := w.RNG.UniformInBox(w.Box.H)
	axis := w.RNG.UnitVectorVec()
	angle := w.RNG.Uniform(-2*math.Pi, 2*math.Pi)
	dir := geom.RotateVec(geom.AxisAngleRotation(axis, angle), geom.Vec3{0, 0, 1})
	e := w.Unstash(sp, pos, dir)
	w.CheckNeighborListUpdate()
	deltaU := ffm.EvaluateParticle(w, worldID, e)
	w.Stash(e)
	w.CheckNeighborListUpdate()

	m.sumExp[sp] += math.Exp(-beta(w) * deltaU.Total())
	m.trials[sp]++
	w.SetThermo(sp, m.ExcessChemicalPotential(w, sp), thermo.Lambda)
	m.recordAccept()
}

func (m *WidomInsertion) PerformDOS(w *world.World, worldID int, ffm *forcefield.Manager, op dos.OrderParameter, hist *histogram.Histogram, override Override) (float64, bool) {
	m.Perform(&WorldManager{Worlds: []*world.World{w}, WorldID: []int{worldID}, RNG: w.RNG}, ffm, override)
	return op.Evaluate(w), true
}
