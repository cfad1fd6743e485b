package move

import (
	"github.com/pthm-cable/saphron-go/rng"
)

// entry pairs a move with its configured weight and the cumulative weight
// bound used for selection.
type entry struct {
	move       Move
	weight     float64
	cumulative float64
}

// Manager holds a weighted set of moves and draws among them by
// cumulative weight, re-normalizing whenever the set changes. Grounded on
// original_source/src/Moves/MoveManager.h, generalized from its bare
// push/pop queue to the weighted-selection contract spec §4.6 requires
// ("MoveManager selects by cumulative weights, re-normalizing on
// add/remove") and styled after the teacher's systems.SystemRegistry
// registration pattern.
type Manager struct {
	entries []entry
	total   float64
	rng     *rng.Source
}

// NewManager builds an empty Manager drawing from the given random
// source.
func NewManager(rngSrc *rng.Source) *Manager {
	return &Manager{rng: rngSrc}
}

// Add registers a move with the given selection weight (must be > 0 to
// ever be drawn) and re-normalizes the cumulative-weight table.
func (mgr *Manager) Add(mv Move, weight float64) {
	mgr.entries = append(mgr.entries, entry{move: mv, weight: weight})
	mgr.renormalize()
}

// Remove deletes the named move, if present, and re-normalizes.
func (mgr *Manager) Remove(name string) {
	for i, e := range mgr.entries {
		if e.move.Name() == name {
			mgr.entries = append(mgr.entries[:i], mgr.entries[i+1:]...)
			mgr.renormalize()
			return
		}
	}
}

func (mgr *Manager) renormalize() {
	running := 0.0
	for i := range mgr.entries {
		running += mgr.entries[i].weight
		mgr.entries[i].cumulative = running
	}
	mgr.total = running
}

// Select draws one move with probability proportional to its configured
// weight, or ok=false if the manager holds no moves or every weight is
// zero.
func (mgr *Manager) Select() (Move, bool) {
	if mgr.total <= 0 || len(mgr.entries) == 0 {
		return nil, false
	}
	target := mgr.rng.Float64() * mgr.total
	for _, e := range mgr.entries {
		if target < e.cumulative {
			return e.move, true
		}
	}
	return mgr.entries[len(mgr.entries)-1].move, true
}

// Moves returns every registered move, in registration order.
func (mgr *Manager) Moves() []Move {
	out := make([]Move, len(mgr.entries))
	for i, e := range mgr.entries {
		out[i] = e.move
	}
	return out
}

// Clone builds an independent Manager with independently-cloned moves,
// sharing the same weights but drawing from its own random source (used
// to give each DOS multi-walker its own move set per spec §4.6).
func (mgr *Manager) Clone(rngSrc *rng.Source) *Manager {
	c := &Manager{rng: rngSrc}
	for _, e := range mgr.entries {
		c.entries = append(c.entries, entry{move: e.move.Clone(), weight: e.weight})
	}
	c.renormalize()
	return c
}
