package world

import (
	"math"

	"github.com/pthm-cable/saphron-go/geom"
	"github.com/pthm-cable/saphron-go/particle"
)

// Neighbor holds a nearby entity with precomputed spatial data, avoiding a
// second minimum-image computation in the forcefield hot path. Generalized
// from the teacher's systems.Neighbor (2D toroidal, float32) to 3D minimum
// image displacement in float64.
type Neighbor struct {
	E      particle.Entity
	D      geom.Vec3
	DistSq float64
}

// MaxQueryResults caps the number of neighbors returned by a single cell
// query, mirroring the teacher's systems.MaxQueryResults density-spike
// guard.
const MaxQueryResults = 4096

// Grid is a 3D linked-cell neighbor grid over an orthorhombic bounding box,
// generalized from the teacher's systems.SpatialGrid (a 2D toroidal grid of
// entity-slice buckets) to a 3D minimum-image grid with an explicit cell
// size derived from the cutoff radius, per spec §4.1.
type Grid struct {
	cellSize          float64
	nx, ny, nz        int
	lx, ly, lz        float64
	periodic          [3]bool
	cells             [][]particle.Entity
	offsets           [][3]int // precomputed "stripe" mask of neighboring cell offsets
}

// NewGrid builds a grid covering box dimensions (lx,ly,lz) with cells sized
// so that cutoff/kappa (kappa in [0.2,1.0]) bins particles finely enough
// that the stripe mask of adjacent cells covers the full interaction range.
func NewGrid(lx, ly, lz, cutoff, kappa float64, periodic [3]bool) *Grid {
	if kappa <= 0 {
		kappa = 1.0
	}
	cellSize := cutoff / kappa
	if cellSize <= 0 {
		cellSize = 1
	}
	nx := maxInt(1, int(lx/cellSize))
	ny := maxInt(1, int(ly/cellSize))
	nz := maxInt(1, int(lz/cellSize))

	g := &Grid{
		cellSize: cellSize,
		nx:       nx, ny: ny, nz: nz,
		lx: lx, ly: ly, lz: lz,
		periodic: periodic,
		cells:    make([][]particle.Entity, nx*ny*nz),
	}
	g.buildStripeMask(cutoff)
	return g
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

// buildStripeMask precomputes every cell offset whose minimum inter-cell
// distance is within cutoff, so rebuild only visits the cells that could
// possibly hold an interacting neighbor.
func (g *Grid) buildStripeMask(cutoff float64) {
	reach := int(math.Ceil(cutoff/g.cellSize)) + 1
	g.offsets = g.offsets[:0]
	for dx := -reach; dx <= reach; dx++ {
		for dy := -reach; dy <= reach; dy++ {
			for dz := -reach; dz <= reach; dz++ {
				if minCellDistance(dx, dy, dz, g.cellSize) <= cutoff {
					g.offsets = append(g.offsets, [3]int{dx, dy, dz})
				}
			}
		}
	}
}

// minCellDistance is the minimum possible distance between a point in cell
// (0,0,0) and a point in cell offset by (dx,dy,dz) cells.
func minCellDistance(dx, dy, dz int, cellSize float64) float64 {
	f := func(d int) float64 {
		if d == 0 {
			return 0
		}
		if d > 0 {
			return float64(d-1) * cellSize
		}
		return float64(-d-1) * cellSize
	}
	x, y, z := f(dx), f(dy), f(dz)
	return math.Sqrt(x*x + y*y + z*z)
}

// Clear empties every cell without reallocating the bucket slices.
func (g *Grid) Clear() {
	for i := range g.cells {
		g.cells[i] = g.cells[i][:0]
	}
}

// Insert buckets entity e at position pos. Positions are assumed already
// folded into the primary image.
func (g *Grid) Insert(e particle.Entity, pos geom.Vec3) {
	idx := g.cellIndex(pos)
	g.cells[idx] = append(g.cells[idx], e)
}

func (g *Grid) cellIndex(pos geom.Vec3) int {
	col := g.clampedCell(pos.X(), g.cellSize, g.nx)
	row := g.clampedCell(pos.Y(), g.cellSize, g.ny)
	dep := g.clampedCell(pos.Z(), g.cellSize, g.nz)
	return (dep*g.ny+row)*g.nx + col
}

func (g *Grid) clampedCell(v, cellSize float64, n int) int {
	c := int(v / cellSize)
	if c < 0 {
		c = 0
	} else if c >= n {
		c = n - 1
	}
	return c
}

// EachNeighbor calls fn once for every entity within cutoff of pos among the
// cells in the stripe mask of pos's own cell, with the minimum-image
// displacement (from pos to the neighbor) and squared distance precomputed.
// exclude is skipped. Stops early once MaxQueryResults entities have been
// visited, matching the teacher's QueryRadiusInto density-spike guard.
func (g *Grid) EachNeighbor(pos geom.Vec3, exclude particle.Entity, box *Box, cutoff float64, posOf func(particle.Entity) geom.Vec3, fn func(Neighbor)) {
	col := g.clampedCell(pos.X(), g.cellSize, g.nx)
	row := g.clampedCell(pos.Y(), g.cellSize, g.ny)
	dep := g.clampedCell(pos.Z(), g.cellSize, g.nz)
	cutoffSq := cutoff * cutoff

	visited := 0
	for _, off := range g.offsets {
		c := g.wrapCell(col+off[0], g.nx)
		r := g.wrapCell(row+off[1], g.ny)
		d := g.wrapCell(dep+off[2], g.nz)
		idx := (d*g.ny+r)*g.nx + c
		for _, e := range g.cells[idx] {
			if e == exclude {
				continue
			}
			other := posOf(e)
			dr := box.MinimumImage(other.Sub(pos))
			distSq := geom.NormSq(dr)
			if distSq > cutoffSq {
				continue
			}
			fn(Neighbor{E: e, D: dr, DistSq: distSq})
			visited++
			if visited >= MaxQueryResults {
				return
			}
		}
	}
}

func (g *Grid) wrapCell(c, n int) int {
	c %= n
	if c < 0 {
		c += n
	}
	return c
}
