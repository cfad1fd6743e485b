package simulation

import (
	"sync"

	"github.com/pthm-cable/saphron-go/dos"
	"github.com/pthm-cable/saphron-go/forcefield"
	"github.com/pthm-cable/saphron-go/histogram"
	"github.com/pthm-cable/saphron-go/move"
	"github.com/pthm-cable/saphron-go/observer"
	"github.com/pthm-cable/saphron-go/world"
)

// FlatnessTarget is the default min-bin/mean-bin ratio a sweep must
// reach before the convergence factor is reduced, matching
// WangLandauEnsemble.cpp's hardcoded 0.8.
const FlatnessTarget = 0.8

// ReductionFactor is the default multiplier applied to the convergence
// factor f_log on reaching target flatness.
const ReductionFactor = 0.5

// walker is one Wang-Landau random walk: its own world, move manager,
// order parameter, and local histogram window.
type walker struct {
	World   *world.World
	WorldID int
	MoveMgr *move.Manager
	OP      dos.OrderParameter
	Hist    *histogram.Histogram
	FLog    float64

	iterations int
}

func (wk *walker) sweep(ffm *forcefield.Manager, flatnessTarget float64, afterIteration func()) {
	for wk.Hist.Flatness() < flatnessTarget {
		n := wk.World.TotalParticles()
		if n == 0 {
			n = 1
		}
		for i := 0; i < n; i++ {
			mv, ok := wk.MoveMgr.Select()
			if !ok {
				break
			}
			opAfter, attempted := mv.PerformDOS(wk.World, wk.WorldID, ffm, wk.OP, wk.Hist, move.NoOverride)
			if !attempted {
				continue
			}
			// As in StandardSimulation.iterate: re-validate the
			// neighbor list and refresh pressure after every attempted
			// move, not just at sweep boundaries.
			wk.World.CheckNeighborListUpdate()
			wk.World.UpdatePressure()
			bin := wk.Hist.Record(opAfter)
			wk.Hist.AddValue(bin, wk.FLog)
			wk.iterations++
		}
		if afterIteration != nil {
			afterIteration()
		}
	}
}

// DOSSimulation runs the Wang-Landau flat-histogram family of spec §4.6:
// one or more walkers, each owning a local histogram over a sub-interval
// of the order parameter's range, sweeping until flatness, then reducing
// the convergence factor a configured number of times. Multi-walker mode
// synchronizes at each sweep boundary by averaging overlapping histogram
// values and broadcasting, using a sync.WaitGroup barrier per spec §5's
// "explicit tasks + message-passing barriers" concurrency note. Grounded
// on original_source/src/Ensembles/WangLandauEnsemble.cpp (single walker
// sweep/iterate shape) and ParallelDOSEnsemble.cpp (thread-pool fan-out
// over walkers, joined every Sweep/Iterate call).
type DOSSimulation struct {
	FFMgr           *forcefield.Manager
	Walkers         []*walker
	Observers       []observer.Observer
	FlatnessTarget  float64
	ReductionFactor float64

	reductions int
}

// NewDOSSimulation builds a single-walker DOSSimulation over world w,
// evaluating its initial energy.
func NewDOSSimulation(w *world.World, worldID int, ffm *forcefield.Manager, mm *move.Manager, op dos.OrderParameter, hist *histogram.Histogram, fLog float64) *DOSSimulation {
	w.Energy = ffm.EvaluateWorld(w, worldID)
	w.UpdatePressure()
	return &DOSSimulation{
		FFMgr:           ffm,
		Walkers:         []*walker{{World: w, WorldID: worldID, MoveMgr: mm, OP: op, Hist: hist, FLog: fLog}},
		FlatnessTarget:  FlatnessTarget,
		ReductionFactor: ReductionFactor,
	}
}

// AddWalker registers an additional walker for multi-walker mode, each
// with its own world, move manager (independently cloned so acceptance
// counters and per-walker move state such as AcidReaction's tracked
// pairs don't cross-contaminate), order parameter, and histogram window.
func (s *DOSSimulation) AddWalker(w *world.World, worldID int, mm *move.Manager, op dos.OrderParameter, hist *histogram.Histogram, fLog float64) {
	w.Energy = s.FFMgr.EvaluateWorld(w, worldID)
	w.UpdatePressure()
	s.Walkers = append(s.Walkers, &walker{World: w, WorldID: worldID, MoveMgr: mm, OP: op, Hist: hist, FLog: fLog})
}

func (s *DOSSimulation) AddObserver(o observer.Observer) {
	s.Observers = append(s.Observers, o)
}

func (s *DOSSimulation) flatnessTarget() float64 {
	if s.FlatnessTarget > 0 {
		return s.FlatnessTarget
	}
	return FlatnessTarget
}

func (s *DOSSimulation) reductionFactor() float64 {
	if s.ReductionFactor > 0 {
		return s.ReductionFactor
	}
	return ReductionFactor
}

// Run performs the given number of convergence-factor reductions: each
// round runs every walker to its flatness target (in parallel when there
// is more than one walker), synchronizes histograms, reduces f_log, and
// notifies observers.
func (s *DOSSimulation) Run(reductions int) {
	for i := 0; i < reductions; i++ {
		s.round()
	}
}

func (s *DOSSimulation) round() {
	target := s.flatnessTarget()
	if len(s.Walkers) == 1 {
		s.Walkers[0].sweep(s.FFMgr, target, nil)
	} else {
		var wg sync.WaitGroup
		for _, wk := range s.Walkers {
			wg.Add(1)
			go func(wk *walker) {
				defer wg.Done()
				wk.sweep(s.FFMgr, target, nil)
			}(wk)
		}
		wg.Wait()
		s.syncHistograms()
	}

	for _, wk := range s.Walkers {
		wk.Hist.ResetCounts()
		wk.FLog *= s.reductionFactor()
	}
	s.reductions++
	s.notify()
}

// syncHistograms element-wise averages every walker's value channel over
// bins more than one walker covers (zero entries are excluded from the
// mean, matching spec §4.6's "mean over non-zero entries") and
// broadcasts the result back to every walker, per
// ParallelDOSEnsemble.cpp's synchronization contract.
func (s *DOSSimulation) syncHistograms() {
	if len(s.Walkers) == 0 {
		return
	}
	binCount := s.Walkers[0].Hist.BinCount()
	merged := make([]float64, binCount)
	counts := make([]int, binCount)
	for _, wk := range s.Walkers {
		values := wk.Hist.Values()
		for i, v := range values {
			if v != 0 {
				merged[i] += v
				counts[i]++
			}
		}
	}
	for i := range merged {
		if counts[i] > 0 {
			merged[i] /= float64(counts[i])
		}
	}
	for _, wk := range s.Walkers {
		values := wk.Hist.Values()
		for i := range values {
			if counts[i] > 0 {
				values[i] = merged[i]
			}
		}
		wk.Hist.SetValues(values)
	}
}

func (s *DOSSimulation) meanFlatness() float64 {
	if len(s.Walkers) == 0 {
		return 0
	}
	sum := 0.0
	for _, wk := range s.Walkers {
		sum += wk.Hist.Flatness()
	}
	return sum / float64(len(s.Walkers))
}

func (s *DOSSimulation) snapshot() observer.Snapshot {
	worlds := make([]observer.WorldSnapshot, len(s.Walkers))
	acc := make(map[string]float64)
	for i, wk := range s.Walkers {
		worlds[i] = worldSnapshot(wk.World)
		for _, mv := range wk.MoveMgr.Moves() {
			acc[mv.Name()] = mv.AcceptanceRatio()
		}
	}
	return observer.Snapshot{
		Iteration:         s.reductions,
		Worlds:            worlds,
		Acceptance:        acc,
		Flatness:          s.meanFlatness(),
		ConvergenceFactor: s.Walkers[0].FLog,
	}
}

func (s *DOSSimulation) notify() {
	snap := s.snapshot()
	for _, o := range s.Observers {
		o.Observe(snap)
	}
}
