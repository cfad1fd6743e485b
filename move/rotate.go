package move

import (
	"github.com/pthm-cable/saphron-go/dos"
	"github.com/pthm-cable/saphron-go/forcefield"
	"github.com/pthm-cable/saphron-go/geom"
	"github.com/pthm-cable/saphron-go/histogram"
	"github.com/pthm-cable/saphron-go/particle"
	"github.com/pthm-cable/saphron-go/world"
)

// Rotate builds a rotation matrix about a random axis through a uniform
// angle in [-maxAngle,maxAngle] and applies it to a primitive's director
// (and, for molecule members, to every sibling's position about the
// molecule centroid and its own director), accepting with the plain
// Metropolis rule on local energy. Grounded on
// original_source/src/Moves/RotateMove.h.
type Rotate struct {
	Base
	MaxAngle float64
}

// NewRotate builds a Rotate move with the given maximum angle (radians).
func NewRotate(maxAngle float64) *Rotate {
	return &Rotate{Base: Base{NameStr: "Rotate"}, MaxAngle: maxAngle}
}

func (m *Rotate) Clone() Move {
	c := *m
	c.accepted, c.rejected = 0, 0
	return &c
}

// rotationState captures everything a rotation perturbs so it can be
// restored bit-identically on rejection.
type rotationState struct {
	dir      geom.Vec3
	memberPos map[particle.Entity]geom.Vec3
	memberDir map[particle.Entity]geom.Vec3
}

func (m *Rotate) apply(w *world.World, p particle.Entity) rotationState {
	axis := w.RNG.UnitVectorVec()
	angle := w.RNG.Symmetric(m.MaxAngle)
	rot := geom.AxisAngleRotation(axis, angle)

	st := rotationState{dir: w.Store.Director(p)}
	w.Store.SetDirector(p, geom.RotateVec(rot, st.dir))

	molID := w.Store.MoleculeOf(p)
	if molID == 0 {
		return st
	}
	mol := w.Store.Molecule(molID)
	if mol == nil {
		return st
	}
	centroid := mol.Centroid
	st.memberPos = make(map[particle.Entity]geom.Vec3, len(mol.Members))
	st.memberDir = make(map[particle.Entity]geom.Vec3, len(mol.Members))
	for _, member := range mol.Members {
		st.memberPos[member] = w.Store.Position(member)
		st.memberDir[member] = w.Store.Director(member)
		rel := w.Store.Position(member).Sub(centroid)
		w.Store.SetPosition(member, centroid.Add(geom.RotateVec(rot, rel)))
		w.Store.SetDirector(member, geom.RotateVec(rot, st.memberDir[member]))
	}
	return st
}

func (m *Rotate) restore(w *world.World, p particle.Entity, st rotationState) {
	w.Store.SetDirector(p, st.dir)
	for e, pos := range st.memberPos {
		w.Store.SetPosition(e, pos)
	}
	for e, dir := range st.memberDir {
		w.Store.SetDirector(e, dir)
	}
}

func (m *Rotate) Perform(wm *WorldManager, ffm *forcefield.Manager, override Override) {
	w, worldID, ok := wm.Random()
	if !ok {
		return
	}
	p, ok := w.RandomParticle()
	if !ok {
		return
	}
	before := ffm.EvaluateParticle(w, worldID, p)
	st := m.apply(w, p)
	after := ffm.EvaluateParticle(w, worldID, p)
	deltaU := after.Sub(before)

	if decide(w.RNG, metropolisP(beta(w), deltaU.Total()), override) {
		w.Energy = w.Energy.Add(deltaU)
		m.recordAccept()
	} else {
		m.restore(w, p, st)
		m.recordReject()
	}
}

func (m *Rotate) PerformDOS(w *world.World, worldID int, ffm *forcefield.Manager, op dos.OrderParameter, hist *histogram.Histogram, override Override) (float64, bool) {
	p, ok := w.RandomParticle()
	if !ok {
		return 0, false
	}
	before := ffm.EvaluateParticle(w, worldID, p)
	opBefore := op.Evaluate(w)
	st := m.apply(w, p)
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
	m.restore(w, p, st)
	m.recordReject()
	return opBefore, true
}
