// Package simulation implements the two simulation drivers spec §4.6
// names: a plain Metropolis loop (StandardSimulation) and a Wang-Landau
// flat-histogram family (DOSSimulation), grounded respectively on
// original_source/src/Ensembles/StandardEnsemble.h and
// WangLandauEnsemble.cpp/ParallelDOSEnsemble.cpp.
package simulation

import (
	"github.com/pthm-cable/saphron-go/forcefield"
	"github.com/pthm-cable/saphron-go/move"
	"github.com/pthm-cable/saphron-go/observer"
	"github.com/pthm-cable/saphron-go/species"
	"github.com/pthm-cable/saphron-go/world"
)

// StandardSimulation runs the weighted-random Metropolis loop of spec
// §4.6: each iteration performs MoveManager-selected moves until
// moves-per-iteration is reached, notifying observers at a configured
// interval. Any ensemble (NVT, NPT, muVT, Gibbs) falls out of which
// moves are registered, matching the reference engine's "ensemble
// depends only on moves" design.
type StandardSimulation struct {
	WorldMgr  *move.WorldManager
	FFMgr     *forcefield.Manager
	MoveMgr   *move.Manager
	Observers []observer.Observer

	// MovesPerIteration defaults to the total particle count across all
	// worlds if left at zero, per spec §4.6.
	MovesPerIteration int
	NotifyInterval    int

	iteration int
	table     *species.Table
}

// NewStandardSimulation builds a StandardSimulation over the given
// components. table is used only to render species names into observer
// snapshots; it may be nil.
func NewStandardSimulation(wm *move.WorldManager, ffm *forcefield.Manager, mm *move.Manager, table *species.Table) *StandardSimulation {
	s := &StandardSimulation{WorldMgr: wm, FFMgr: ffm, MoveMgr: mm, table: table, NotifyInterval: 1}
	for i, w := range wm.Worlds {
		w.Energy = ffm.EvaluateWorld(w, wm.WorldID[i])
		w.UpdatePressure()
	}
	return s
}

func (s *StandardSimulation) AddObserver(o observer.Observer) {
	s.Observers = append(s.Observers, o)
}

func (s *StandardSimulation) movesPerIteration() int {
	if s.MovesPerIteration > 0 {
		return s.MovesPerIteration
	}
	total := 0
	for _, w := range s.WorldMgr.Worlds {
		total += w.TotalParticles()
	}
	if total == 0 {
		return 1
	}
	return total
}

// Run performs the given number of iterations.
func (s *StandardSimulation) Run(iterations int) {
	for i := 0; i < iterations; i++ {
		s.iterate()
	}
}

func (s *StandardSimulation) iterate() {
	n := s.movesPerIteration()
	for i := 0; i < n; i++ {
		mv, ok := s.MoveMgr.Select()
		if !ok {
			break
		}
		mv.Perform(s.WorldMgr, s.FFMgr, move.NoOverride)
		// Every move may have displaced, inserted, removed, or rescaled
		// particles in any of its worlds; re-validate each world's
		// neighbor list and refresh its pressure channels before the
		// next move's energy evaluation relies on them (spec §4.1's
		// skin-rebuild contract, §3/§4.2's running E/P bookkeeping).
		for _, w := range s.WorldMgr.Worlds {
			w.CheckNeighborListUpdate()
			w.UpdatePressure()
		}
	}
	s.iteration++
	if s.NotifyInterval > 0 && s.iteration%s.NotifyInterval == 0 {
		s.notify()
	}
}

func (s *StandardSimulation) snapshot() observer.Snapshot {
	acc := make(map[string]float64)
	for _, mv := range s.MoveMgr.Moves() {
		acc[mv.Name()] = mv.AcceptanceRatio()
	}
	worlds := make([]observer.WorldSnapshot, len(s.WorldMgr.Worlds))
	for i, w := range s.WorldMgr.Worlds {
		worlds[i] = worldSnapshot(w)
	}
	return observer.Snapshot{Iteration: s.iteration, Worlds: worlds, Acceptance: acc}
}

func worldSnapshot(w *world.World) observer.WorldSnapshot {
	return observer.WorldSnapshot{
		Name:          w.Name,
		Temperature:   w.Temperature,
		Volume:        w.Box.Volume(),
		Energy:        w.Energy.Total(),
		Pressure:      w.Pressure.Total(),
		ParticleCount: w.TotalParticles(),
		Composition:   w.CompositionSnapshot(),
	}
}

func (s *StandardSimulation) notify() {
	snap := s.snapshot()
	for _, o := range s.Observers {
		o.Observe(snap)
	}
}
