// Package world implements the spatial container of spec §3/§4.1: an
// H-matrix periodic cell, a linked-cell neighbor list, composition
// bookkeeping, and species-keyed stash pools for insertion/deletion
// moves. Generalized from the teacher's systems.SpatialGrid (2D
// toroidal grid of entity buckets) to a 3D minimum-image grid.
package world

import (
	"math"
	"sort"

	"github.com/pthm-cable/saphron-go/geom"
	"github.com/pthm-cable/saphron-go/particle"
	"github.com/pthm-cable/saphron-go/rng"
	"github.com/pthm-cable/saphron-go/species"
)

// EnergyChannels decomposes accumulated energy into the buckets spec §3
// names: inter/intra van der Waals, inter/intra electrostatic, bonded,
// connectivity/constraint, and tail corrections. Virial and TailVirial
// ride along in the same struct since they're produced and consumed at
// exactly the same call sites as the energy channels (ForceFieldManager's
// per-pair evaluators return both in one PairResult), but are not
// themselves energy: Total() excludes them. They feed World.Pressure's
// configurational and tail channels per spec §4.2's "the virial
// contributes to the configurational pressure via w·r".
type EnergyChannels struct {
	InterVDW     float64
	IntraVDW     float64
	InterElec    float64
	IntraElec    float64
	Bonded       float64
	Connectivity float64
	Tail         float64
	Virial       float64
	TailVirial   float64
}

// Total sums every energy channel (Virial/TailVirial are not energy and
// are excluded).
func (e EnergyChannels) Total() float64 {
	return e.InterVDW + e.IntraVDW + e.InterElec + e.IntraElec + e.Bonded + e.Connectivity + e.Tail
}

// Add returns the channel-wise sum of e and o.
func (e EnergyChannels) Add(o EnergyChannels) EnergyChannels {
	return EnergyChannels{
		InterVDW:     e.InterVDW + o.InterVDW,
		IntraVDW:     e.IntraVDW + o.IntraVDW,
		InterElec:    e.InterElec + o.InterElec,
		IntraElec:    e.IntraElec + o.IntraElec,
		Bonded:       e.Bonded + o.Bonded,
		Connectivity: e.Connectivity + o.Connectivity,
		Tail:         e.Tail + o.Tail,
		Virial:       e.Virial + o.Virial,
		TailVirial:   e.TailVirial + o.TailVirial,
	}
}

// Sub returns e minus o, channel-wise.
func (e EnergyChannels) Sub(o EnergyChannels) EnergyChannels {
	return EnergyChannels{
		InterVDW:     e.InterVDW - o.InterVDW,
		IntraVDW:     e.IntraVDW - o.IntraVDW,
		InterElec:    e.InterElec - o.InterElec,
		IntraElec:    e.IntraElec - o.IntraElec,
		Bonded:       e.Bonded - o.Bonded,
		Connectivity: e.Connectivity - o.Connectivity,
		Tail:         e.Tail - o.Tail,
		Virial:       e.Virial - o.Virial,
		TailVirial:   e.TailVirial - o.TailVirial,
	}
}

// PressureTensor is the accumulated configurational + ideal pressure, with
// the tail contribution tracked separately per spec §3.
type PressureTensor struct {
	Ideal          float64
	Configurational float64
	Tail           float64
}

// Total returns the full scalar pressure.
func (p PressureTensor) Total() float64 {
	return p.Ideal + p.Configurational + p.Tail
}

// boltzmannK is the reduced-unit Boltzmann constant (kB=1), matching the
// move and dos packages' convention.
const boltzmannK = 1.0

// SpeciesThermo carries the configuration-supplied chemical potential and
// thermal wavelength for one species, used by insertion/deletion/Widom
// moves.
type SpeciesThermo struct {
	Mu     float64
	Lambda float64
}

// World is the spatial/thermodynamic container a set of moves and
// forcefields act on: one periodic box, one particle Store, one neighbor
// grid, composition and stash bookkeeping, and one private random source
// (per spec §4.1's "random draws use the world-owned random source only").
type World struct {
	Name string

	Box   *Box
	Store *particle.Store
	RNG   *rng.Source

	Temperature float64
	Energy      EnergyChannels
	Pressure    PressureTensor
	PExternal   float64 // target external pressure for NPT volume moves

	CutoffRadius float64
	Skin         float64

	grid           *Grid
	composition    map[species.ID]int
	stash          map[species.ID][]stashedParticle
	thermo         map[species.ID]SpeciesThermo
	neighborDirty  bool
}

type stashedParticle struct {
	charge float64
	mass   float64
}

// New creates an empty World with the given box and random seed.
func New(name string, box *Box, cutoff, skin float64, seed int64) *World {
	w := &World{
		Name:         name,
		Box:          box,
		Store:        particle.NewStore(),
		RNG:          rng.New(seed),
		CutoffRadius: cutoff,
		Skin:         skin,
		composition:  make(map[species.ID]int),
		stash:        make(map[species.ID][]stashedParticle),
		thermo:       make(map[species.ID]SpeciesThermo),
	}
	lx, ly, lz := box.Lengths()
	w.grid = NewGrid(lx, ly, lz, w.neighborRadius(), 0.5, box.Periodic)
	w.neighborDirty = true

	w.Store.Bus().Subscribe(func(ev particle.Event) {
		if ev.Kind == particle.SpeciesChanged {
			w.composition[species.ID(ev.OldSpecies)]--
			w.composition[species.ID(ev.NewSpecies)]++
		}
	})
	return w
}

func (w *World) neighborRadius() float64 {
	return w.CutoffRadius + w.Skin
}

// SetThermo records the chemical potential and thermal wavelength
// configured for a species, consumed by insertion/deletion/Widom moves.
func (w *World) SetThermo(sp species.ID, mu, lambda float64) {
	w.thermo[sp] = SpeciesThermo{Mu: mu, Lambda: lambda}
}

// Thermo returns the configured chemical potential/thermal wavelength for
// sp, or the zero value if none was configured.
func (w *World) Thermo(sp species.ID) SpeciesThermo {
	return w.thermo[sp]
}

// Composition returns the live count of primitives with species sp.
func (w *World) Composition(sp species.ID) int {
	return w.composition[sp]
}

// CompositionSnapshot returns a copy of the live per-species composition
// table, for observer reporting.
func (w *World) CompositionSnapshot() map[species.ID]int {
	out := make(map[species.ID]int, len(w.composition))
	for sp, n := range w.composition {
		out[sp] = n
	}
	return out
}

// TotalParticles returns the total number of live primitives.
func (w *World) TotalParticles() int {
	n := 0
	for _, c := range w.composition {
		n += c
	}
	return n
}

// Add takes ownership of a newly created primitive: assigns its position
// to the primary image, updates composition, and marks the neighbor list
// dirty (spec §4.1: "does not by itself rebuild the neighbor list").
func (w *World) Add(pos, dir geom.Vec3, charge, mass float64, sp species.ID, moleculeID int) particle.Entity {
	folded := w.Box.ApplyPeriodicBoundaries(pos)
	e := w.Store.CreatePrimitive(folded, dir, charge, mass, sp, moleculeID)
	w.composition[sp]++
	w.neighborDirty = true
	return e
}

// Remove detaches e from the world (and from its composite's member
// list), updating composition and marking the neighbor list dirty. A
// composite left with no members stays registered in the store.
func (w *World) Remove(e particle.Entity) {
	if !w.Store.Alive(e) {
		return
	}
	sp := w.Store.Species(e)
	w.Store.Remove(e)
	w.composition[sp]--
	w.neighborDirty = true
}

// Stash pulls e out of the active particle table and into the per-species
// stash pool, for later reuse by an insertion move without reallocating.
func (w *World) Stash(e particle.Entity) {
	if !w.Store.Alive(e) {
		return
	}
	sp := w.Store.Species(e)
	w.stash[sp] = append(w.stash[sp], stashedParticle{
		charge: w.Store.Charge(e),
		mass:   w.Store.Mass(e),
	})
	w.Remove(e)
}

// Unstash draws a prototype of species sp from the stash pool and
// instantiates it at pos/dir, refilling the pool with a zero-charge,
// unit-mass prototype on exhaustion (spec §4.1: "refill on exhaustion is
// permitted"). Returns the new entity.
func (w *World) Unstash(sp species.ID, pos, dir geom.Vec3) particle.Entity {
	pool := w.stash[sp]
	var proto stashedParticle
	if len(pool) == 0 {
		proto = stashedParticle{charge: 0, mass: 1}
	} else {
		proto = pool[len(pool)-1]
		w.stash[sp] = pool[:len(pool)-1]
	}
	return w.Add(pos, dir, proto.charge, proto.mass, sp, 0)
}

// RandomParticle draws a uniformly random live primitive, or the zero
// Entity (ok=false) if the world has none.
func (w *World) RandomParticle() (particle.Entity, bool) {
	var ents []particle.Entity
	w.Store.Each(func(e particle.Entity) { ents = append(ents, e) })
	if len(ents) == 0 {
		return particle.Entity{}, false
	}
	return ents[w.RNG.IntN(len(ents))], true
}

// RandomParticleBySpecies draws a uniformly random live primitive of
// species sp, or ok=false if none exist (spec §4.1: "return a null
// reference rather than aborting").
func (w *World) RandomParticleBySpecies(sp species.ID) (particle.Entity, bool) {
	var ents []particle.Entity
	w.Store.Each(func(e particle.Entity) {
		if w.Store.Species(e) == sp {
			ents = append(ents, e)
		}
	})
	if len(ents) == 0 {
		return particle.Entity{}, false
	}
	return ents[w.RNG.IntN(len(ents))], true
}

// RandomPrimitive is an alias of RandomParticle; this world's primitives
// and particles coincide since composites are not independently
// addressable entities (see particle package doc comment).
func (w *World) RandomPrimitive() (particle.Entity, bool) {
	return w.RandomParticle()
}

// RandomMolecule draws a uniformly random live composite molecule, or
// ok=false if the world has none (spec §4.1's null-reference failure
// semantics, applied to molecule-level draws used by AnnealCharge,
// AcidTitration, and AcidReaction).
func (w *World) RandomMolecule() (*particle.Molecule, bool) {
	ids := w.Store.MoleculeIDs()
	if len(ids) == 0 {
		return nil, false
	}
	sort.Ints(ids)
	id := ids[w.RNG.IntN(len(ids))]
	mol := w.Store.Molecule(id)
	if mol == nil {
		return nil, false
	}
	return mol, true
}

// UpdatePressure recomputes the world's ideal, configurational, and tail
// pressure channels from the virial sums currently accumulated in Energy,
// per spec §3 ("accumulated pressure tensor P (ideal + configurational,
// with tail correction tracked separately)") and §4.2's w·r virial
// contribution. Intended to be called whenever Energy changes, mirroring
// how Energy itself is kept current.
func (w *World) UpdatePressure() {
	volume := w.Box.Volume()
	if volume <= 0 {
		return
	}
	n := float64(w.TotalParticles())
	w.Pressure = PressureTensor{
		Ideal:           n * boltzmannK * w.Temperature / volume,
		Configurational: w.Energy.Virial / (3 * volume),
		// TailVirial is already a fully-scaled pressure correction (the
		// manager applies the 2*pi*na*nb/V tail prefactor itself, the
		// same way it scales Tail's energy counterpart), not a raw
		// virial sum needing a further volume division.
		Tail: w.Energy.TailVirial,
	}
}

// ApplyPeriodicBoundaries folds pos into the box's primary image.
func (w *World) ApplyPeriodicBoundaries(pos geom.Vec3) geom.Vec3 {
	return w.Box.ApplyPeriodicBoundaries(pos)
}

// ApplyMinimumImage folds a displacement to its nearest-image
// representative.
func (w *World) ApplyMinimumImage(dr geom.Vec3) geom.Vec3 {
	return w.Box.MinimumImage(dr)
}

// SetVolume rescales the box to newVolume. When scale is true, every
// particle's position is rescaled about the origin by the same linear
// factor; members of a composite are scaled the same way, not relative
// to its centroid. Positions are then re-folded into the box. Always
// invalidates the neighbor list, per spec §4.1.
func (w *World) SetVolume(newVolume float64, scale bool) {
	old := w.Box.Volume()
	if scale && old > 0 {
		factor := math.Cbrt(newVolume / old)
		w.Store.Each(func(e particle.Entity) {
			pos := w.Store.Position(e)
			w.Store.SetPosition(e, pos.Mul(factor))
		})
	}
	w.Box.SetVolume(newVolume)
	w.Store.Each(func(e particle.Entity) {
		w.Store.SetPosition(e, w.Box.ApplyPeriodicBoundaries(w.Store.Position(e)))
	})
	w.neighborDirty = true
}

