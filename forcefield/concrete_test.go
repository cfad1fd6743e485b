package forcefield

import (
	"math"
	"testing"

	"github.com/pthm-cable/saphron-go/geom"
)

func TestLennardJonesMinimumAtTwoToOneSixthSigma(t *testing.T) {
	lj := &LennardJones{Epsilon: 1, Sigma: 1, RCut: []float64{2.5}}
	rMin := math.Pow(2, 1.0/6.0)
	r := lj.Evaluate(Pair{R12: geom.Vec3{rMin, 0, 0}})
	if r.Energy >= 0 {
		t.Fatalf("expected negative energy at potential minimum, got %v", r.Energy)
	}
	if math.Abs(r.Virial) > 1e-6 {
		t.Fatalf("expected ~zero virial (force) at the minimum, got %v", r.Virial)
	}
}

func TestLennardJonesTailCorrectionIsNegative(t *testing.T) {
	lj := &LennardJones{Epsilon: 1, Sigma: 1, RCut: []float64{2.5}}
	tail := lj.TailIntegral(0)
	if tail >= 0 {
		t.Fatalf("expected attractive (negative) tail correction, got %v", tail)
	}
}

func TestLebwohlLasherParallelDirectorsMinimizeEnergy(t *testing.T) {
	ll := &LebwohlLasher{Eps: 1, Gamma: 0}
	parallel := ll.Evaluate(Pair{Director1: geom.Vec3{0, 0, 1}, Director2: geom.Vec3{0, 0, 1}})
	perpendicular := ll.Evaluate(Pair{Director1: geom.Vec3{0, 0, 1}, Director2: geom.Vec3{1, 0, 0}})
	if parallel.Energy >= perpendicular.Energy {
		t.Fatalf("expected parallel directors (%v) to be lower energy than perpendicular (%v)", parallel.Energy, perpendicular.Energy)
	}
}

func TestPairKeyNormalizeIsOrderIndependent(t *testing.T) {
	a := PairKey{A: 1, B: 2}.normalize()
	b := PairKey{A: 2, B: 1}.normalize()
	if a != b {
		t.Fatalf("normalize not order-independent: %v vs %v", a, b)
	}
}
