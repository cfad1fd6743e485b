package move

import (
	"math"

	"github.com/pthm-cable/saphron-go/dos"
	"github.com/pthm-cable/saphron-go/forcefield"
	"github.com/pthm-cable/saphron-go/geom"
	"github.com/pthm-cable/saphron-go/histogram"
	"github.com/pthm-cable/saphron-go/particle"
	"github.com/pthm-cable/saphron-go/world"
)

// VolumeScale is the isobaric-ensemble box move: ln V is perturbed
// uniformly, every particle position is rescaled about the origin by the
// resulting linear factor, and the move accepts with
// P = min(1, exp(-beta*(deltaU + Pext*deltaV) + (N+1)*ln(Vnew/Vold))).
// Full rejection restores both the old volume and every particle's old
// position. Grounded on original_source/src/Moves/VolumeSwapMove.h's
// single-box scaling half.
type VolumeScale struct {
	Base
	Dv float64
}

// NewVolumeScale builds a VolumeScale move with the given ln(V) step
// half-width.
func NewVolumeScale(dv float64) *VolumeScale {
	return &VolumeScale{Base: Base{NameStr: "VolumeScale"}, Dv: dv}
}

func (m *VolumeScale) Clone() Move {
	c := *m
	c.accepted, c.rejected = 0, 0
	return &c
}

func (m *VolumeScale) propose(w *world.World) (oldVolume, newVolume float64) {
	oldVolume = w.Box.Volume()
	lnV := math.Log(oldVolume) + w.RNG.Symmetric(m.Dv)
	newVolume = math.Exp(lnV)
	return oldVolume, newVolume
}

// snapshotPositions captures every live particle's position, for
// bit-identical restore on rejection.
func snapshotPositions(w *world.World) map[particle.Entity]geom.Vec3 {
	snap := make(map[particle.Entity]geom.Vec3)
	w.Store.Each(func(e particle.Entity) {
		snap[e] = w.Store.Position(e)
	})
	return snap
}

func restorePositions(w *world.World, snap map[particle.Entity]geom.Vec3) {
	for e, pos := range snap {
		if w.Store.Alive(e) {
			w.Store.SetPosition(e, pos)
		}
	}
}

func (m *VolumeScale) Perform(wm *WorldManager, ffm *forcefield.Manager, override Override) {
	w, worldID, ok := wm.Random()
	if !ok {
		return
	}
	n := w.TotalParticles()
	before := ffm.EvaluateWorld(w, worldID)
	oldVolume, newVolume := m.propose(w)
	snap := snapshotPositions(w)

	w.SetVolume(newVolume, true)
	w.CheckNeighborListUpdate()
	after := ffm.EvaluateWorld(w, worldID)
	deltaU := after.Sub(before)
	deltaV := newVolume - oldVolume

	logTerm := float64(n+1) * math.Log(newVolume/oldVolume)
	p := clamp01(math.Exp(-beta(w)*(deltaU.Total()+w.PExternal*deltaV) + logTerm))

	if decide(w.RNG, p, override) {
		w.Energy = after
		w.UpdatePressure()
		m.recordAccept()
		return
	}
	w.SetVolume(oldVolume, false)
	restorePositions(w, snap)
	w.CheckNeighborListUpdate()
	m.recordReject()
}

func (m *VolumeScale) PerformDOS(w *world.World, worldID int, ffm *forcefield.Manager, op dos.OrderParameter, hist *histogram.Histogram, override Override) (float64, bool) {
	n := w.TotalParticles()
	before := ffm.EvaluateWorld(w, worldID)
	opBefore := op.Evaluate(w)
	oldVolume, newVolume := m.propose(w)
	snap := snapshotPositions(w)

	w.SetVolume(newVolume, true)
	w.CheckNeighborListUpdate()
	after := ffm.EvaluateWorld(w, worldID)
	deltaU := after.Sub(before)
	deltaV := newVolume - oldVolume
	logTerm := float64(n+1) * math.Log(newVolume/oldVolume)
	biasedDeltaU := deltaU.Total() + w.PExternal*deltaV - logTerm/beta(w)

	w.Energy = after
	opAfter := op.Evaluate(w)
	prob := dos.AcceptanceProbability(op, hist, biasedDeltaU, opBefore, opAfter, w)

	if decide(w.RNG, prob, override) {
		w.UpdatePressure()
		m.recordAccept()
		return opAfter, true
	}
	w.Energy = before
	w.SetVolume(oldVolume, false)
	restorePositions(w, snap)
	w.CheckNeighborListUpdate()
	m.recordReject()
	return opBefore, true
}

// VolumeSwap is the Gibbs-ensemble volume exchange: ln(V1/V2) is
// perturbed while V1+V2 is held fixed, both worlds' particles are
// rescaled, and both worlds' energies are fully re-evaluated. Accepts
// with the two-box prefactor
// P = min(1, exp(-beta*(deltaU1+deltaU2) + (N1+1)*ln(V1new/V1old) +
// (N2+1)*ln(V2new/V2old))).
// Grounded on original_source/src/Moves/VolumeSwapMove.h.
type VolumeSwap struct {
	Base
	Dv float64
}

// NewVolumeSwap builds a VolumeSwap move with the given ln-ratio step
// half-width.
func NewVolumeSwap(dv float64) *VolumeSwap {
	return &VolumeSwap{Base: Base{NameStr: "VolumeSwap"}, Dv: dv}
}

func (m *VolumeSwap) Clone() Move {
	c := *m
	c.accepted, c.rejected = 0, 0
	return &c
}

func (m *VolumeSwap) Perform(wm *WorldManager, ffm *forcefield.Manager, override Override) {
	w1, id1, w2, id2, ok := wm.RandomTwoDistinct()
	if !ok {
		return
	}
	v1Old := w1.Box.Volume()
	v2Old := w2.Box.Volume()
	total := v1Old + v2Old
	if total <= 0 {
		return
	}
	lnRatio := math.Log(v1Old/v2Old) + w1.RNG.Symmetric(m.Dv)
	ratio := math.Exp(lnRatio)
	v1New := total * ratio / (1 + ratio)
	v2New := total - v1New

	n1 := w1.TotalParticles()
	n2 := w2.TotalParticles()
	before1 := ffm.EvaluateWorld(w1, id1)
	before2 := ffm.EvaluateWorld(w2, id2)
	snap1 := snapshotPositions(w1)
	snap2 := snapshotPositions(w2)

	w1.SetVolume(v1New, true)
	w2.SetVolume(v2New, true)
	w1.CheckNeighborListUpdate()
	w2.CheckNeighborListUpdate()
	after1 := ffm.EvaluateWorld(w1, id1)
	after2 := ffm.EvaluateWorld(w2, id2)
	deltaU := after1.Sub(before1).Total() + after2.Sub(before2).Total()

	logTerm := float64(n1+1)*math.Log(v1New/v1Old) + float64(n2+1)*math.Log(v2New/v2Old)
	p := clamp01(math.Exp(-beta(w1)*deltaU + logTerm))

	if decide(w1.RNG, p, override) {
		w1.Energy = after1
		w2.Energy = after2
		w1.UpdatePressure()
		w2.UpdatePressure()
		m.recordAccept()
		return
	}
	w1.SetVolume(v1Old, false)
	w2.SetVolume(v2Old, false)
	restorePositions(w1, snap1)
	restorePositions(w2, snap2)
	w1.CheckNeighborListUpdate()
	w2.CheckNeighborListUpdate()
	m.recordReject()
}

// PerformDOS is unsupported for VolumeSwap: spec §8's flat-histogram
// scenarios run a single world, and no multi-world order parameter is
// defined in this codebase. Returns attempted=false unconditionally.
func (m *VolumeSwap) PerformDOS(w *world.World, worldID int, ffm *forcefield.Manager, op dos.OrderParameter, hist *histogram.Histogram, override Override) (float64, bool) {
	return op.Evaluate(w), false
}
