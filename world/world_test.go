package world

import (
	"math"
	"testing"

	"github.com/pthm-cable/saphron-go/geom"
	"github.com/pthm-cable/saphron-go/species"
)

func newTestWorld(t *testing.T) *World {
	t.Helper()
	box := NewOrthorhombicBox(10, 10, 10, [3]bool{true, true, true})
	return New("test", box, 2.5, 0.3, 42)
}

func TestApplyPeriodicBoundariesFoldsIntoPrimaryImage(t *testing.T) {
	w := newTestWorld(t)
	folded := w.ApplyPeriodicBoundaries(geom.Vec3{12, -1, 25})
	if folded.X() < 0 || folded.X() >= 10 {
		t.Fatalf("x=%v not in [0,10)", folded.X())
	}
	if folded.Y() < 0 || folded.Y() >= 10 {
		t.Fatalf("y=%v not in [0,10)", folded.Y())
	}
	if folded.Z() < 0 || folded.Z() >= 10 {
		t.Fatalf("z=%v not in [0,10)", folded.Z())
	}
}

func TestApplyMinimumImagePicksShortestPath(t *testing.T) {
	w := newTestWorld(t)
	dr := w.ApplyMinimumImage(geom.Vec3{9, 0, 0})
	if math.Abs(dr.X()-(-1)) > 1e-12 {
		t.Fatalf("dr.X = %v, want -1", dr.X())
	}
}

func TestSetVolumeRoundTrip(t *testing.T) {
	w := newTestWorld(t)
	table := species.NewTable()
	sp := table.Register("A")
	w.Add(geom.Vec3{2, 2, 2}, geom.Vec3{0, 0, 1}, 0, 1, sp, 0)

	before := w.Box.Volume()
	w.SetVolume(before*8, true)
	after := w.Box.Volume()
	if math.Abs(after-before*8) > 1e-9 {
		t.Fatalf("volume after scale = %v, want %v", after, before*8)
	}
	w.SetVolume(before, true)
	if math.Abs(w.Box.Volume()-before) > 1e-9 {
		t.Fatalf("volume after round trip = %v, want %v", w.Box.Volume(), before)
	}
}

func TestCompositionTracksAddRemove(t *testing.T) {
	w := newTestWorld(t)
	table := species.NewTable()
	sp := table.Register("A")

	e := w.Add(geom.Vec3{1, 1, 1}, geom.Vec3{0, 0, 1}, 0, 1, sp, 0)
	if w.Composition(sp) != 1 {
		t.Fatalf("composition = %d, want 1", w.Composition(sp))
	}
	w.Remove(e)
	if w.Composition(sp) != 0 {
		t.Fatalf("composition after remove = %d, want 0", w.Composition(sp))
	}
}

func TestRandomParticleBySpeciesReturnsFalseWhenAbsent(t *testing.T) {
	w := newTestWorld(t)
	table := species.NewTable()
	sp := table.Register("Ghost")
	if _, ok := w.RandomParticleBySpecies(sp); ok {
		t.Fatalf("expected ok=false for species with no particles")
	}
}

func TestNeighborListFindsParticlesWithinCutoff(t *testing.T) {
	w := newTestWorld(t)
	table := species.NewTable()
	sp := table.Register("A")

	a := w.Add(geom.Vec3{5, 5, 5}, geom.Vec3{0, 0, 1}, 0, 1, sp, 0)
	near := w.Add(geom.Vec3{5.5, 5, 5}, geom.Vec3{0, 0, 1}, 0, 1, sp, 0)
	far := w.Add(geom.Vec3{9, 5, 5}, geom.Vec3{0, 0, 1}, 0, 1, sp, 0)
	w.UpdateNeighborList()

	found := map[particleKey]bool{}
	w.EachNeighbor(a, func(n Neighbor) {
		found[particleKey(w.Store.GlobalIDOf(n.E))] = true
	})

	if !found[particleKey(w.Store.GlobalIDOf(near))] {
		t.Fatalf("expected near particle to be found as neighbor")
	}
	if found[particleKey(w.Store.GlobalIDOf(far))] {
		t.Fatalf("did not expect far particle to be found as neighbor")
	}
}

type particleKey uint64
