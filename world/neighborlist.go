package world

import (
	"github.com/pthm-cable/saphron-go/geom"
	"github.com/pthm-cable/saphron-go/particle"
)

// UpdateNeighborList rebuilds the linked-cell grid from scratch: particles
// are enumerated in id order (spec §4.1's determinism requirement, already
// guaranteed by Store.Each), rebucketed, and each particle's checkpoint is
// reset to its current position.
func (w *World) UpdateNeighborList() {
	lx, ly, lz := w.Box.Lengths()
	w.grid = NewGrid(lx, ly, lz, w.neighborRadius(), 0.5, w.Box.Periodic)
	w.Store.Each(func(e particle.Entity) {
		pos := w.Store.Position(e)
		w.grid.Insert(e, pos)
		w.Store.SetCheckpoint(e, pos)
	})
	w.neighborDirty = false
}

// CheckNeighborListUpdate triggers a full rebuild if any particle has
// drifted more than skin/2 from its checkpoint since the last rebuild, or
// if the world has been otherwise marked dirty (volume change, particle
// add/remove). Intended to be called after every move.
func (w *World) CheckNeighborListUpdate() {
	if w.neighborDirty {
		w.UpdateNeighborList()
		return
	}
	halfSkinSq := (w.Skin / 2) * (w.Skin / 2)
	needsRebuild := false
	w.Store.Each(func(e particle.Entity) {
		if needsRebuild {
			return
		}
		pos := w.Store.Position(e)
		chk := w.Store.Checkpoint(e)
		d := w.Box.MinimumImage(pos.Sub(chk))
		if geom.NormSq(d) > halfSkinSq {
			needsRebuild = true
		}
	})
	if needsRebuild {
		w.UpdateNeighborList()
	}
}

// MarkNeighborListDirty forces the next CheckNeighborListUpdate call to
// rebuild unconditionally. Volume changes and particle add/remove already
// call this internally.
func (w *World) MarkNeighborListDirty() {
	w.neighborDirty = true
}

// EachNeighbor visits every live particle within the neighbor radius of e's
// position (excluding e itself), in no particular order — callers needing
// determinism (full-world evaluation) iterate particles via Store.Each and
// only use this for the inner per-particle loop.
func (w *World) EachNeighbor(e particle.Entity, fn func(Neighbor)) {
	pos := w.Store.Position(e)
	w.grid.EachNeighbor(pos, e, w.Box, w.neighborRadius(), w.Store.Position, fn)
}
