package particle

import (
	"sort"
	"sync/atomic"

	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/saphron-go/geom"
	"github.com/pthm-cable/saphron-go/species"
)

// Entity is the handle type used to address a primitive particle. It is
// a thin alias over ecs.Entity so callers outside this package never
// need to import mlange-42/ark directly.
type Entity = ecs.Entity

var globalID atomic.Uint64

// NextGlobalID returns the next process-wide unique particle id. Shared
// across every Store in the process, matching spec §3's "unique
// process-wide" requirement.
func NextGlobalID() uint64 {
	return globalID.Add(1)
}

// Store is the per-World arena of primitive particles: an ark ECS world
// specialized to the seven particle components, plus a side table of
// Molecules (composite groupings) and the change-event Bus.
type Store struct {
	ecsWorld *ecs.World
	idMap    *ecs.Map1[GlobalID]
	posMap   *ecs.Map1[Position]
	dirMap   *ecs.Map1[Director]
	chgMap   *ecs.Map1[Charge]
	masMap   *ecs.Map1[Mass]
	spcMap   *ecs.Map1[SpeciesComp]
	molMap   *ecs.Map1[MoleculeRef]
	creator  ecs.Map7[GlobalID, Position, Director, Charge, Mass, SpeciesComp, MoleculeRef]

	bus *Bus

	molecules      map[int]*Molecule
	nextMoleculeID int
}

// NewStore creates an empty particle arena backed by a fresh ark world.
func NewStore() *Store {
	w := ecs.NewWorld()
	return &Store{
		ecsWorld: w,
		idMap:    ecs.NewMap1[GlobalID](w),
		posMap:   ecs.NewMap1[Position](w),
		dirMap:   ecs.NewMap1[Director](w),
		chgMap:   ecs.NewMap1[Charge](w),
		masMap:   ecs.NewMap1[Mass](w),
		spcMap:   ecs.NewMap1[SpeciesComp](w),
		molMap:   ecs.NewMap1[MoleculeRef](w),
		creator: ecs.NewMap7[GlobalID, Position, Director, Charge, Mass,
			SpeciesComp, MoleculeRef](w),
		bus:       NewBus(),
		molecules: make(map[int]*Molecule),
	}
}

// Bus returns the store's change-event publisher.
func (s *Store) Bus() *Bus { return s.bus }

// CreatePrimitive adds a new primitive particle with the given initial
// state and returns its handle. moleculeID is 0 for an unaffiliated
// site.
func (s *Store) CreatePrimitive(pos, dir geom.Vec3, charge, mass float64, sp species.ID, moleculeID int) Entity {
	id := GlobalID{ID: NextGlobalID()}
	e := s.creator.NewEntity(
		&id,
		&Position{V: pos, Checkpoint: pos},
		&Director{V: dir},
		&Charge{Q: charge},
		&Mass{M: mass},
		&SpeciesComp{ID: sp},
		&MoleculeRef{ID: moleculeID},
	)
	if moleculeID != 0 {
		if mol, ok := s.molecules[moleculeID]; ok {
			mol.Members = append(mol.Members, e)
			s.recomputeMolecule(mol)
		}
	}
	return e
}

// Remove detaches a primitive from the store, removing it from its
// molecule's membership (if any) and recomputing that molecule's
// derived centroid/mass/charge.
func (s *Store) Remove(e Entity) {
	if ref := s.molMap.Get(e); ref != nil && ref.ID != 0 {
		if mol, ok := s.molecules[ref.ID]; ok {
			mol.removeMember(e)
			s.recomputeMolecule(mol)
		}
	}
	s.creator.RemoveEntity(e)
}

// Alive reports whether e still refers to a live primitive.
func (s *Store) Alive(e Entity) bool {
	return s.ecsWorld.Alive(e)
}

// GlobalIDOf returns the process-wide unique id of e.
func (s *Store) GlobalIDOf(e Entity) uint64 {
	return s.idMap.Get(e).ID
}

// Position returns e's current position.
func (s *Store) Position(e Entity) geom.Vec3 { return s.posMap.Get(e).V }

// Director returns e's current director.
func (s *Store) Director(e Entity) geom.Vec3 { return s.dirMap.Get(e).V }

// Charge returns e's current charge.
func (s *Store) Charge(e Entity) float64 { return s.chgMap.Get(e).Q }

// Mass returns e's mass.
func (s *Store) Mass(e Entity) float64 { return s.masMap.Get(e).M }

// Species returns e's species id.
func (s *Store) Species(e Entity) species.ID { return s.spcMap.Get(e).ID }

// MoleculeOf returns the molecule id e belongs to, or 0.
func (s *Store) MoleculeOf(e Entity) int { return s.molMap.Get(e).ID }

// Checkpoint returns e's neighbor-list checkpoint position.
func (s *Store) Checkpoint(e Entity) geom.Vec3 { return s.posMap.Get(e).Checkpoint }

// SetCheckpoint overwrites e's neighbor-list checkpoint position. Does
// not publish a change event since the checkpoint is bookkeeping, not
// observable particle state.
func (s *Store) SetCheckpoint(e Entity, pos geom.Vec3) {
	s.posMap.Get(e).Checkpoint = pos
}

// SetPosition overwrites e's position and publishes a PositionChanged
// event, updating the parent molecule's derived centroid/mass/charge if
// e belongs to one.
func (s *Store) SetPosition(e Entity, pos geom.Vec3) {
	p := s.posMap.Get(e)
	old := p.V
	p.V = pos
	if ref := s.molMap.Get(e); ref != nil && ref.ID != 0 {
		if mol, ok := s.molecules[ref.ID]; ok {
			s.recomputeMolecule(mol)
		}
	}
	s.bus.Publish(Event{Kind: PositionChanged, Entity: e, OldVec: old, NewVec: pos})
}

// SetDirector overwrites e's director and publishes a DirectorChanged
// event.
func (s *Store) SetDirector(e Entity, dir geom.Vec3) {
	d := s.dirMap.Get(e)
	old := d.V
	d.V = dir
	s.bus.Publish(Event{Kind: DirectorChanged, Entity: e, OldVec: old, NewVec: dir})
}

// SetCharge overwrites e's charge and publishes a ChargeChanged event,
// updating the parent molecule's cached total charge.
func (s *Store) SetCharge(e Entity, q float64) {
	c := s.chgMap.Get(e)
	old := c.Q
	c.Q = q
	if ref := s.molMap.Get(e); ref != nil && ref.ID != 0 {
		if mol, ok := s.molecules[ref.ID]; ok {
			s.recomputeMolecule(mol)
		}
	}
	s.bus.Publish(Event{Kind: ChargeChanged, Entity: e, OldScalar: old, NewScalar: q})
}

// SetSpecies reassigns e's species and publishes a SpeciesChanged event.
func (s *Store) SetSpecies(e Entity, sp species.ID) {
	c := s.spcMap.Get(e)
	old := c.ID
	c.ID = sp
	s.bus.Publish(Event{Kind: SpeciesChanged, Entity: e, OldSpecies: int(old), NewSpecies: int(sp)})
}

// EcsWorld exposes the underlying ark world for packages that need to
// build their own filters/queries over the particle component set (the
// World's neighbor-list rebuild and ForceFieldManager's full-world
// evaluation both do).
func (s *Store) EcsWorld() *ecs.World { return s.ecsWorld }

// Each calls fn once per live primitive, in id order (matching spec
// §4.1's "rebuilds enumerate particles in id order" determinism
// requirement).
func (s *Store) Each(fn func(Entity)) {
	filter := ecs.NewFilter1[Position](s.ecsWorld)
	var ents []Entity
	var ids []uint64
	q := filter.Query()
	for q.Next() {
		e := q.Entity()
		ents = append(ents, e)
		ids = append(ids, s.GlobalIDOf(e))
	}
	sort.Sort(&byGlobalID{ents: ents, ids: ids})
	for _, e := range ents {
		fn(e)
	}
}

// byGlobalID sorts two parallel slices (entities and their global ids)
// by id, giving the deterministic id-order enumeration spec §4.1 wants
// for rebuilds and full-world evaluation.
type byGlobalID struct {
	ents []Entity
	ids  []uint64
}

func (b *byGlobalID) Len() int           { return len(b.ents) }
func (b *byGlobalID) Less(i, j int) bool { return b.ids[i] < b.ids[j] }
func (b *byGlobalID) Swap(i, j int) {
	b.ents[i], b.ents[j] = b.ents[j], b.ents[i]
	b.ids[i], b.ids[j] = b.ids[j], b.ids[i]
}
