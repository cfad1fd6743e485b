package move

import (
	"github.com/pthm-cable/saphron-go/rng"
	"github.com/pthm-cable/saphron-go/world"
)

// WorldManager is the thin multi-world container moves draw from: an
// ordered list of Worlds (each with its own caller-assigned integer id
// for ForceFieldManager lookups) plus the random source used to pick
// among them. Single-world simulations use a WorldManager of length one.
type WorldManager struct {
	Worlds  []*world.World
	WorldID []int // parallel to Worlds; the id EvaluateParticle/EvaluateWorld expect
	RNG     *rng.Source
}

// NewWorldManager builds a WorldManager over worlds, assigning each its
// index as its ForceFieldManager world id.
func NewWorldManager(rngSrc *rng.Source, worlds ...*world.World) *WorldManager {
	ids := make([]int, len(worlds))
	for i := range worlds {
		ids[i] = i
	}
	return &WorldManager{Worlds: worlds, WorldID: ids, RNG: rngSrc}
}

// Random draws a uniformly random world, or ok=false if none registered.
func (wm *WorldManager) Random() (w *world.World, id int, ok bool) {
	if len(wm.Worlds) == 0 {
		return nil, 0, false
	}
	i := wm.RNG.IntN(len(wm.Worlds))
	return wm.Worlds[i], wm.WorldID[i], true
}

// RandomTwoDistinct draws two distinct worlds by index, or ok=false if
// fewer than two are registered (spec §4.4's Gibbs/ParticleSwap moves
// "must always choose two distinct worlds").
func (wm *WorldManager) RandomTwoDistinct() (w1 *world.World, id1 int, w2 *world.World, id2 int, ok bool) {
	n := len(wm.Worlds)
	if n < 2 {
		return nil, 0, nil, 0, false
	}
	i := wm.RNG.IntN(n)
	j := wm.RNG.IntN(n - 1)
	if j >= i {
		j++
	}
	return wm.Worlds[i], wm.WorldID[i], wm.Worlds[j], wm.WorldID[j], true
}
