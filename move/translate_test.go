package move

import (
	"math"
	"testing"

	"github.com/pthm-cable/saphron-go/forcefield"
	"github.com/pthm-cable/saphron-go/geom"
	"github.com/pthm-cable/saphron-go/rng"
	"github.com/pthm-cable/saphron-go/species"
	"github.com/pthm-cable/saphron-go/world"
)

func newTestWorld(t *testing.T) (*world.World, species.ID) {
	t.Helper()
	box := world.NewOrthorhombicBox(10, 10, 10, [3]bool{true, true, true})
	w := world.New("test", box, 2.5, 0.3, 42)
	table := species.NewTable()
	sp := table.Register("A")
	return w, sp
}

// TestTranslateForceRejectRestoresPosition exercises the ForceReject path
// named in spec §4.4: a rejected Translate must leave the particle's
// position untouched and count only against the reject counter.
func TestTranslateForceRejectRestoresPosition(t *testing.T) {
	w, sp := newTestWorld(t)
	ffm := forcefield.NewManager([]species.ID{sp})
	if err := ffm.RegisterNonBonded(sp, sp, &forcefield.LennardJones{Epsilon: 1.0, Sigma: 1.0, RCut: []float64{2.5}}); err != nil {
		t.Fatalf("RegisterNonBonded: %v", err)
	}
	w.Add(geom.Vec3{5, 5, 5}, geom.Vec3{0, 0, 1}, 0, 1, sp, 0)
	p := w.Add(geom.Vec3{6, 5, 5}, geom.Vec3{0, 0, 1}, 0, 1, sp, 0)
	w.UpdateNeighborList()

	before := w.Store.Position(p)
	wm := NewWorldManager(rng.New(1), w)
	tr := NewTranslate(1.0)

	tr.Perform(wm, ffm, ForceReject)

	after := w.Store.Position(p)
	if math.Abs(after.X()-before.X())+math.Abs(after.Y()-before.Y())+math.Abs(after.Z()-before.Z()) > 1e-12 {
		t.Fatalf("position changed after a forced reject: before=%v after=%v", before, after)
	}
	if tr.AcceptanceRatio() != 0 {
		t.Fatalf("AcceptanceRatio() = %v, want 0 after a forced reject", tr.AcceptanceRatio())
	}
}

// TestTranslateForceAcceptMovesParticle exercises the mirror path: a
// forced accept must keep the perturbed position and count only against
// the accept counter.
func TestTranslateForceAcceptMovesParticle(t *testing.T) {
	w, sp := newTestWorld(t)
	ffm := forcefield.NewManager([]species.ID{sp})
	if err := ffm.RegisterNonBonded(sp, sp, &forcefield.LennardJones{Epsilon: 1.0, Sigma: 1.0, RCut: []float64{2.5}}); err != nil {
		t.Fatalf("RegisterNonBonded: %v", err)
	}
	w.Add(geom.Vec3{5, 5, 5}, geom.Vec3{0, 0, 1}, 0, 1, sp, 0)
	p := w.Add(geom.Vec3{6, 5, 5}, geom.Vec3{0, 0, 1}, 0, 1, sp, 0)
	w.UpdateNeighborList()

	before := w.Store.Position(p)
	wm := NewWorldManager(rng.New(1), w)
	tr := NewTranslate(1.0)

	tr.Perform(wm, ffm, ForceAccept)

	after := w.Store.Position(p)
	if math.Abs(after.X()-before.X())+math.Abs(after.Y()-before.Y())+math.Abs(after.Z()-before.Z()) == 0 {
		t.Fatalf("position unchanged after a forced accept; expected a displacement")
	}
	if tr.AcceptanceRatio() != 1 {
		t.Fatalf("AcceptanceRatio() = %v, want 1 after a forced accept", tr.AcceptanceRatio())
	}
}

// TestTranslateResetAcceptanceRatioZeroesCounters covers the Base
// bookkeeping shared by every move family.
func TestTranslateResetAcceptanceRatioZeroesCounters(t *testing.T) {
	w, sp := newTestWorld(t)
	ffm := forcefield.NewManager([]species.ID{sp})
	if err := ffm.RegisterNonBonded(sp, sp, &forcefield.LennardJones{Epsilon: 1.0, Sigma: 1.0, RCut: []float64{2.5}}); err != nil {
		t.Fatalf("RegisterNonBonded: %v", err)
	}
	w.Add(geom.Vec3{5, 5, 5}, geom.Vec3{0, 0, 1}, 0, 1, sp, 0)
	w.Add(geom.Vec3{6, 5, 5}, geom.Vec3{0, 0, 1}, 0, 1, sp, 0)
	w.UpdateNeighborList()

	wm := NewWorldManager(rng.New(1), w)
	tr := NewTranslate(1.0)
	tr.Perform(wm, ffm, ForceAccept)
	if tr.AcceptanceRatio() == 0 {
		t.Fatalf("expected a nonzero acceptance ratio before reset")
	}
	tr.ResetAcceptanceRatio()
	if tr.AcceptanceRatio() != 0 {
		t.Fatalf("AcceptanceRatio() = %v after reset, want 0", tr.AcceptanceRatio())
	}
}

// TestTranslateCloneIsIndependent ensures Clone (used to give each
// multi-walker DOS worker its own move state) doesn't share accept/reject
// counters with the original.
func TestTranslateCloneIsIndependent(t *testing.T) {
	w, sp := newTestWorld(t)
	ffm := forcefield.NewManager([]species.ID{sp})
	if err := ffm.RegisterNonBonded(sp, sp, &forcefield.LennardJones{Epsilon: 1.0, Sigma: 1.0, RCut: []float64{2.5}}); err != nil {
		t.Fatalf("RegisterNonBonded: %v", err)
	}
	w.Add(geom.Vec3{5, 5, 5}, geom.Vec3{0, 0, 1}, 0, 1, sp, 0)
	w.Add(geom.Vec3{6, 5, 5}, geom.Vec3{0, 0, 1}, 0, 1, sp, 0)
	w.UpdateNeighborList()

	wm := NewWorldManager(rng.New(1), w)
	tr := NewTranslate(1.0)
	tr.Perform(wm, ffm, ForceAccept)

	clone := tr.Clone()
	if clone.AcceptanceRatio() != 0 {
		t.Fatalf("clone AcceptanceRatio() = %v, want 0 (independent counters)", clone.AcceptanceRatio())
	}
	if tr.AcceptanceRatio() == 0 {
		t.Fatalf("original's acceptance ratio should be unaffected by cloning")
	}
}
