package particle

import (
	"math"
	"testing"

	"github.com/pthm-cable/saphron-go/geom"
	"github.com/pthm-cable/saphron-go/species"
)

func TestMoleculeCentroidIsMassWeighted(t *testing.T) {
	s := NewStore()
	table := species.NewTable()
	sp := table.Register("O")

	molID := s.CreateMolecule()
	a := s.CreatePrimitive(geom.Vec3{0, 0, 0}, geom.Vec3{0, 0, 1}, 1, 1, sp, molID)
	s.AddToMolecule(a, molID)
	b := s.CreatePrimitive(geom.Vec3{2, 0, 0}, geom.Vec3{0, 0, 1}, -1, 3, sp, molID)
	s.AddToMolecule(b, molID)

	mol := s.Molecule(molID)
	wantX := (1*0.0 + 3*2.0) / 4.0
	if math.Abs(mol.Centroid.X()-wantX) > 1e-12 {
		t.Fatalf("centroid.X = %v, want %v", mol.Centroid.X(), wantX)
	}
	if math.Abs(mol.Mass-4) > 1e-12 {
		t.Fatalf("mass = %v, want 4", mol.Mass)
	}
	if math.Abs(mol.Charge-0) > 1e-12 {
		t.Fatalf("charge = %v, want 0", mol.Charge)
	}
}

func TestMoleculeCentroidRecomputesOnPositionChange(t *testing.T) {
	s := NewStore()
	table := species.NewTable()
	sp := table.Register("X")

	molID := s.CreateMolecule()
	a := s.CreatePrimitive(geom.Vec3{}, geom.Vec3{}, 0, 1, sp, molID)
	s.AddToMolecule(a, molID)
	b := s.CreatePrimitive(geom.Vec3{}, geom.Vec3{}, 0, 1, sp, molID)
	s.AddToMolecule(b, molID)

	s.SetPosition(a, geom.Vec3{10, 0, 0})

	mol := s.Molecule(molID)
	if math.Abs(mol.Centroid.X()-5.0) > 1e-12 {
		t.Fatalf("centroid.X after move = %v, want 5", mol.Centroid.X())
	}
}

func TestRemoveDetachesFromMolecule(t *testing.T) {
	s := NewStore()
	table := species.NewTable()
	sp := table.Register("X")

	molID := s.CreateMolecule()
	a := s.CreatePrimitive(geom.Vec3{}, geom.Vec3{}, 1, 1, sp, molID)
	s.AddToMolecule(a, molID)
	b := s.CreatePrimitive(geom.Vec3{4, 0, 0}, geom.Vec3{}, 1, 1, sp, molID)
	s.AddToMolecule(b, molID)

	s.Remove(a)

	if s.Alive(a) {
		t.Fatalf("expected a to be removed")
	}
	mol := s.Molecule(molID)
	if len(mol.Members) != 1 || mol.Members[0] != b {
		t.Fatalf("expected only b to remain a member, got %v", mol.Members)
	}
	if math.Abs(mol.Centroid.X()-4) > 1e-12 {
		t.Fatalf("centroid.X after remove = %v, want 4", mol.Centroid.X())
	}
}

func TestEachEnumeratesInGlobalIDOrder(t *testing.T) {
	s := NewStore()
	table := species.NewTable()
	sp := table.Register("X")

	var created []Entity
	for i := 0; i < 50; i++ {
		created = append(created, s.CreatePrimitive(geom.Vec3{}, geom.Vec3{}, 0, 1, sp, 0))
	}

	var seen []uint64
	s.Each(func(e Entity) {
		seen = append(seen, s.GlobalIDOf(e))
	})

	if len(seen) != len(created) {
		t.Fatalf("got %d entities, want %d", len(seen), len(created))
	}
	for i := 1; i < len(seen); i++ {
		if seen[i] <= seen[i-1] {
			t.Fatalf("Each not in ascending id order at %d: %v", i, seen)
		}
	}
}

func TestBusPublishesPositionChange(t *testing.T) {
	s := NewStore()
	table := species.NewTable()
	sp := table.Register("X")
	e := s.CreatePrimitive(geom.Vec3{}, geom.Vec3{}, 0, 1, sp, 0)

	var got Event
	var fired bool
	s.Bus().Subscribe(func(ev Event) {
		if ev.Kind == PositionChanged {
			got = ev
			fired = true
		}
	})

	s.SetPosition(e, geom.Vec3{1, 2, 3})

	if !fired {
		t.Fatalf("expected PositionChanged event")
	}
	if got.NewVec.X() != 1 || got.NewVec.Y() != 2 || got.NewVec.Z() != 3 {
		t.Fatalf("unexpected new position %v", got.NewVec)
	}
}
