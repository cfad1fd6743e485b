package dos

import (
	"math"
	"testing"

	"github.com/pthm-cable/saphron-go/geom"
	"github.com/pthm-cable/saphron-go/histogram"
	"github.com/pthm-cable/saphron-go/particle"
	"github.com/pthm-cable/saphron-go/species"
	"github.com/pthm-cable/saphron-go/world"
)

func newTestWorld(t *testing.T) (*world.World, species.ID) {
	t.Helper()
	box := world.NewOrthorhombicBox(20, 20, 20, [3]bool{true, true, true})
	w := world.New("test", box, 2.5, 0.3, 7)
	table := species.NewTable()
	sp := table.Register("A")
	return w, sp
}

func particlesOf(entities ...particle.Entity) []particle.Entity {
	return entities
}

func TestWangLandauEvaluateReturnsWorldEnergy(t *testing.T) {
	w, _ := newTestWorld(t)
	w.Energy.InterVDW = 3.0
	w.Energy.Bonded = 1.5
	wl := &WangLandau{Hist: histogram.New(0, 10, 5)}
	if got := wl.Evaluate(w); got != 4.5 {
		t.Fatalf("Evaluate() = %v, want 4.5", got)
	}
}

func TestWangLandauAcceptanceFavorsLowerDOS(t *testing.T) {
	hist := histogram.New(0, 10, 5)
	hist.UpdateValue(0, 0.0)
	hist.UpdateValue(1, 5.0)
	wl := &WangLandau{Hist: hist}
	w, _ := newTestWorld(t)

	// Moving from a high-DOS bin (1) to a low-DOS bin (0) should always
	// be accepted (p=1); the reverse should be heavily suppressed.
	pForward := wl.CalcAcceptanceProbability(0, 3, 1, w)
	if pForward != 1.0 {
		t.Fatalf("forward acceptance = %v, want 1.0", pForward)
	}
	pBackward := wl.CalcAcceptanceProbability(0, 1, 3, w)
	if pBackward >= 1.0 {
		t.Fatalf("backward acceptance = %v, want < 1.0", pBackward)
	}
}

func TestRadiusOfGyrationOfTwoEquidistantPoints(t *testing.T) {
	w, sp := newTestWorld(t)
	a := w.Add(geom.Vec3{9, 10, 10}, geom.Vec3{0, 0, 1}, 0, 1, sp, 0)
	b := w.Add(geom.Vec3{11, 10, 10}, geom.Vec3{0, 0, 1}, 0, 1, sp, 0)

	rg := &RadiusOfGyration{Hist: histogram.New(0, 10, 5), Group: particlesOf(a, b)}
	got := rg.Evaluate(w)
	// Two unit-mass particles 1 unit from their centroid: Rg = 1.
	if math.Abs(got-1.0) > 1e-9 {
		t.Fatalf("Rg = %v, want 1.0", got)
	}
}

func TestChargeFractionOfBalancedGroupIsZero(t *testing.T) {
	w, sp := newTestWorld(t)
	a := w.Add(geom.Vec3{1, 1, 1}, geom.Vec3{0, 0, 1}, 1.0, 1, sp, 0)
	b := w.Add(geom.Vec3{2, 2, 2}, geom.Vec3{0, 0, 1}, -1.0, 1, sp, 0)

	cf := &ChargeFraction{
		Hist:       histogram.New(0, 1, 5),
		Group:      particlesOf(a, b),
		BaseCharge: 1.0,
	}
	if got := cf.Evaluate(w); math.Abs(got) > 1e-9 {
		t.Fatalf("ChargeFraction = %v, want 0 for a charge-balanced group", got)
	}
}

func TestParticleDistanceUsesMinimumImage(t *testing.T) {
	w, sp := newTestWorld(t)
	a := w.Add(geom.Vec3{1, 10, 10}, geom.Vec3{0, 0, 1}, 0, 1, sp, 0)
	b := w.Add(geom.Vec3{19, 10, 10}, geom.Vec3{0, 0, 1}, 0, 1, sp, 0)
	pd := &ParticleDistance{
		Hist:   histogram.New(0, 10, 5),
		Group1: particlesOf(a),
		Group2: particlesOf(b),
	}
	d := pd.Evaluate(w)
	if math.Abs(d-2.0) > 1e-9 {
		t.Fatalf("minimum-image distance = %v, want 2.0", d)
	}
}
