// Package observer defines the read-only visitation contract a
// simulation driver notifies at configured intervals, plus the two
// reference observers spec §6 names: a console summary and a CSV writer.
// Grounded on original_source/src/Observers/{ConsoleObserver,CSVObserver}.h
// and generalized from their "visit the ensemble/world manager" shape to
// a single flat Snapshot value, since this core has no polymorphic
// Ensemble/Visitor hierarchy to walk.
package observer

import "github.com/pthm-cable/saphron-go/species"

// WorldSnapshot is one world's state at notification time.
type WorldSnapshot struct {
	Name        string
	Temperature float64
	Volume      float64
	Energy      float64
	Pressure    float64
	ParticleCount int
	Composition map[species.ID]int
}

// Snapshot is the read-only view a simulation driver hands to every
// registered Observer on each notification. Observers must not mutate
// anything reachable from it.
type Snapshot struct {
	Iteration int
	Worlds    []WorldSnapshot

	// Acceptance is the per-move-name acceptance ratio, reported by the
	// driver's MoveManager.
	Acceptance map[string]float64

	// Flatness and ConvergenceFactor are only meaningful for a DOS
	// simulation snapshot; a StandardSimulation leaves them at zero.
	Flatness          float64
	ConvergenceFactor float64
}

// Observer is notified with a Snapshot at the driver's configured
// interval. Implementations must treat the Snapshot as read-only.
type Observer interface {
	Observe(s Snapshot)
	Close() error
}
