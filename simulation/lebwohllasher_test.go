package simulation_test

import (
	"math"
	"testing"

	"github.com/pthm-cable/saphron-go/forcefield"
	"github.com/pthm-cable/saphron-go/geom"
	"github.com/pthm-cable/saphron-go/move"
	"github.com/pthm-cable/saphron-go/rng"
	"github.com/pthm-cable/saphron-go/simulation"
	"github.com/pthm-cable/saphron-go/species"
	"github.com/pthm-cable/saphron-go/world"
)

// TestLebwohlLasherLatticeRelaxesTowardLowerEnergy exercises the
// Lebwohl-Lasher nematic lattice model spec §8 Scenario 1 describes (a
// simple-cubic lattice of orientable sites interacting only through
// LebwohlLasher), at a low enough reduced temperature that the ordered
// phase should dominate and net energy drift downward over the run.
// Grounded on original_source's example LJ/Lebwohl-Lasher configs,
// shrunk from the scenario's full 37^3 lattice to a lattice small enough
// to run as a fast unit test.
func TestLebwohlLasherLatticeRelaxesTowardLowerEnergy(t *testing.T) {
	const side = 5 // 125 lattice sites
	box := world.NewOrthorhombicBox(side, side, side, [3]bool{true, true, true})
	w := world.New("nematic", box, 1.5, 0.3, 11)
	w.Temperature = 0.5 // well below the isotropic-nematic transition

	table := species.NewTable()
	sp := table.Register("A")

	for x := 0; x < side; x++ {
		for y := 0; y < side; y++ {
			for z := 0; z < side; z++ {
				pos := geom.Vec3{float64(x) + 0.5, float64(y) + 0.5, float64(z) + 0.5}
				dir := w.RNG.UnitVectorVec()
				w.Add(pos, dir, 0, 1, sp, 0)
			}
		}
	}
	w.UpdateNeighborList()

	ffm := forcefield.NewManager([]species.ID{sp})
	if err := ffm.RegisterNonBonded(sp, sp, &forcefield.LebwohlLasher{Eps: 1.0, RCut: []float64{1.5}}); err != nil {
		t.Fatalf("RegisterNonBonded: %v", err)
	}

	mm := move.NewManager(rng.New(99))
	mm.Add(move.NewDirectorRotate(), 1.0)
	mm.Add(move.NewFlipSpin(), 0.2)

	wm := move.NewWorldManager(w.RNG, w)
	sim := simulation.NewStandardSimulation(wm, ffm, mm, table)
	sim.NotifyInterval = 0

	initial := w.Energy.Total()
	if math.IsNaN(initial) || math.IsInf(initial, 0) {
		t.Fatalf("initial energy is not finite: %v", initial)
	}

	sim.Run(20)

	final := w.Energy.Total()
	if math.IsNaN(final) || math.IsInf(final, 0) {
		t.Fatalf("final energy is not finite: %v", final)
	}
	if final > initial {
		t.Fatalf("energy rose from %v to %v over the run; expected net relaxation at low reduced temperature", initial, final)
	}

	var totalAccepted, totalAttempted float64
	for _, mv := range mm.Moves() {
		ratio := mv.AcceptanceRatio()
		if ratio < 0 || ratio > 1 {
			t.Fatalf("move %s acceptance ratio out of range: %v", mv.Name(), ratio)
		}
		totalAccepted += ratio
		totalAttempted++
	}
	if totalAttempted == 0 {
		t.Fatalf("expected at least one move to report an acceptance ratio")
	}
}
