package dos

import (
	"math"
	"sync"

	"gonum.org/v1/gonum/mat"

	"github.com/pthm-cable/saphron-go/geom"
	"github.com/pthm-cable/saphron-go/histogram"
	"github.com/pthm-cable/saphron-go/logging"
	"github.com/pthm-cable/saphron-go/particle"
	"github.com/pthm-cable/saphron-go/world"
)

// ElasticMode selects which component of the nematic Q-tensor's leading
// eigenvector the elastic coefficient reports, mirroring
// original_source/src/DensityOfStates/ElasticCoeffOP.h's Splay/Bend/Twist
// enum.
type ElasticMode int

const (
	Splay ElasticMode = iota
	Bend
	Twist
)

// ElasticCoeff is the Frank-Oseen elastic free-energy order parameter: a
// finite-difference derivative dni/dxj of the nematic director, computed
// from the leading eigenvector of an average Q-tensor over a slab
// (particles whose x-position falls in XRange). Grounded on
// ElasticCoeffOP.h, with the original's incremental-update-on-
// ParticleEvent pattern (ParticleObserver multiple inheritance) rendered
// as a subscription to particle.Bus, and the eig_gen/armadillo
// eigen-decomposition rendered as gonum's EigenSym (the Q-tensor is
// symmetric and traceless by construction, so a symmetric solver applies
// cleanly where the original used a general one).
type ElasticCoeff struct {
	Hist   *histogram.Histogram
	Dxj    float64
	XRange [2]float64
	Mode   ElasticMode

	store *particle.Store

	mu        sync.Mutex
	q         [3][3]float64 // running Q-tensor
	pcount    int
	eigvecCol [3]float64 // leading eigenvector, cached after each update
	decompOK  bool
}

// NewElasticCoeff builds an ElasticCoeff over w's current particles,
// subscribing to w.Store's change bus for incremental upkeep as
// positions/directors change.
func NewElasticCoeff(hist *histogram.Histogram, w *world.World, dxj float64, xrange [2]float64, mode ElasticMode) *ElasticCoeff {
	ec := &ElasticCoeff{
		Hist:   hist,
		Dxj:    dxj,
		XRange: xrange,
		Mode:   mode,
		store:  w.Store,
	}

	w.Store.Each(func(e particle.Entity) {
		pos := w.Store.Position(e)
		if ec.inRegion(pos) {
			ec.pcount++
			dir := w.Store.Director(e)
			addOuterMinusIsotropic(&ec.q, dir, 1.0)
		}
	})
	if ec.pcount > 0 {
		scaleQ(&ec.q, 3.0/(2.0*float64(ec.pcount)))
	}
	ec.updateQTensor()

	w.Store.Bus().Subscribe(ec.onEvent)
	return ec
}

func (ec *ElasticCoeff) inRegion(pos geom.Vec3) bool {
	x := pos.X()
	return x >= ec.XRange[0] && x <= ec.XRange[1]
}

// onEvent mirrors ElasticCoeffOP::ParticleUpdate: director changes inside
// the region update Q in place; position changes crossing the region
// boundary add or remove the particle's contribution with renormalization.
func (ec *ElasticCoeff) onEvent(ev particle.Event) {
	ec.mu.Lock()
	defer ec.mu.Unlock()

	switch ev.Kind {
	case particle.DirectorChanged:
		pos := ec.store.Position(ev.Entity)
		if !ec.inRegion(pos) || ec.pcount == 0 {
			return
		}
		coeff := 3.0 / (2.0 * float64(ec.pcount))
		addOuterDiff(&ec.q, ev.NewVec, ev.OldVec, coeff)
		ec.updateQTensor()
	case particle.PositionChanged:
		wasIn := ec.inRegion(ev.OldVec)
		isIn := ec.inRegion(ev.NewVec)
		if wasIn == isIn {
			return
		}
		dir := ec.store.Director(ev.Entity)
		if !wasIn && isIn {
			if ec.pcount > 0 {
				scaleQ(&ec.q, float64(ec.pcount)/float64(ec.pcount+1))
			}
			ec.pcount++
			addOuterMinusIsotropic(&ec.q, dir, 3.0/(2.0*float64(ec.pcount)))
			ec.updateQTensor()
		} else if wasIn && !isIn && ec.pcount > 1 {
			scaleQ(&ec.q, float64(ec.pcount)/float64(ec.pcount-1))
			ec.pcount--
			subOuterMinusIsotropic(&ec.q, dir, 3.0/(2.0*float64(ec.pcount)))
			ec.updateQTensor()
		}
	}
}

func addOuterMinusIsotropic(q *[3][3]float64, dir geom.Vec3, coeff float64) {
	d := [3]float64{dir.X(), dir.Y(), dir.Z()}
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			v := d[i] * d[j]
			if i == j {
				v -= 1.0 / 3.0
			}
			q[i][j] += coeff * v
		}
	}
}

func subOuterMinusIsotropic(q *[3][3]float64, dir geom.Vec3, coeff float64) {
	d := [3]float64{dir.X(), dir.Y(), dir.Z()}
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			v := d[i] * d[j]
			if i == j {
				v -= 1.0 / 3.0
			}
			q[i][j] -= coeff * v
		}
	}
}

func addOuterDiff(q *[3][3]float64, newDir, oldDir geom.Vec3, coeff float64) {
	n := [3]float64{newDir.X(), newDir.Y(), newDir.Z()}
	o := [3]float64{oldDir.X(), oldDir.Y(), oldDir.Z()}
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			q[i][j] += coeff * (n[i]*n[j] - o[i]*o[j])
		}
	}
}

func scaleQ(q *[3][3]float64, factor float64) {
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			q[i][j] *= factor
		}
	}
}

// updateQTensor performs the eigen-decomposition of the running Q-tensor
// via gonum's symmetric eigensolver and caches the eigenvector belonging
// to the largest eigenvalue. On decomposition failure (EigenSym returns
// false), the previous eigenvector is retained and Evaluate falls back to
// its last good value rather than panicking — a logged numerical
// fallback per spec §7's error taxonomy.
func (ec *ElasticCoeff) updateQTensor() {
	sym := mat.NewSymDense(3, []float64{
		ec.q[0][0], ec.q[0][1], ec.q[0][2],
		ec.q[1][0], ec.q[1][1], ec.q[1][2],
		ec.q[2][0], ec.q[2][1], ec.q[2][2],
	})
	var eig mat.EigenSym
	ok := eig.Factorize(sym, true)
	if !ok {
		logging.Logf("dos: ElasticCoeff Q-tensor eigen-decomposition failed; keeping previous eigenvector")
		return
	}
	vals := eig.Values(nil)
	var vecs mat.Dense
	eig.VectorsTo(&vecs)

	imax := 0
	for i := 1; i < len(vals); i++ {
		if vals[i] > vals[imax] {
			imax = i
		}
	}
	ec.eigvecCol = [3]float64{vecs.At(0, imax), vecs.At(1, imax), vecs.At(2, imax)}
	ec.decompOK = true
}

// Evaluate returns dni/dxj for the configured mode. Ignores its World
// argument since the order parameter tracks its own running state
// incrementally via the event bus rather than recomputing from scratch
// (matching ElasticCoeffOP::EvaluateOrderParameter's signature, which
// also ignores its World parameter).
func (ec *ElasticCoeff) Evaluate(_ *world.World) float64 {
	ec.mu.Lock()
	defer ec.mu.Unlock()
	if !ec.decompOK {
		return 0
	}
	var dni float64
	switch ec.Mode {
	case Splay, Bend:
		dni = ec.eigvecCol[0]
	case Twist:
		dni = ec.eigvecCol[1]
	}
	if ec.eigvecCol[2] < 0 {
		dni = -dni
	}
	return dni / ec.Dxj
}

func (ec *ElasticCoeff) CalcAcceptanceProbability(deltaE, opBefore, opAfter float64, w *world.World) float64 {
	return boltzmannAcceptance(ec.Hist, beta(w), deltaE, opBefore, opAfter)
}
