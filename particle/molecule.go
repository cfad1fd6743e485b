package particle

import "github.com/pthm-cable/saphron-go/geom"

// Molecule is a composite grouping of primitive particles: the Go
// rendering of original_source/src/Particles/Molecule.h's owning
// collection of child Particles, minus the recursive nesting (see the
// package doc comment). It is not an ark entity itself — just a side
// table entry keyed by MoleculeID — since nothing in original_source
// ever runs a forcefield, move, or order parameter over a molecule's
// component *set* the way it does over a primitive's.
type Molecule struct {
	ID      int
	Members []Entity

	// Centroid, Mass, and Charge are derived, mass-weighted sums over
	// Members, kept current by Store.recomputeMolecule on every
	// membership or per-primitive mutation (spec §3's composite
	// invariant).
	Centroid geom.Vec3
	Mass     float64
	Charge   float64
}

// removeMember deletes e from the molecule's membership list, if
// present. It does not recompute Centroid/Mass/Charge; callers recompute
// separately so a batch of removals costs one recomputation.
func (m *Molecule) removeMember(e Entity) {
	for i, mem := range m.Members {
		if mem == e {
			m.Members = append(m.Members[:i], m.Members[i+1:]...)
			return
		}
	}
}

// CreateMolecule allocates a new, initially empty Molecule and returns
// its id. Primitives join it by passing the id to CreatePrimitive, or by
// a later call to Store.AddToMolecule.
func (s *Store) CreateMolecule() int {
	s.nextMoleculeID++
	id := s.nextMoleculeID
	s.molecules[id] = &Molecule{ID: id}
	return id
}

// MoleculeIDs returns every currently live molecule id, in no particular
// order (callers needing determinism sort it themselves).
func (s *Store) MoleculeIDs() []int {
	ids := make([]int, 0, len(s.molecules))
	for id := range s.molecules {
		ids = append(ids, id)
	}
	return ids
}

// Molecule returns the molecule with the given id, or nil if none
// exists (id 0 always returns nil, matching the "unaffiliated" sentinel
// used by MoleculeRef).
func (s *Store) Molecule(id int) *Molecule {
	if id == 0 {
		return nil
	}
	return s.molecules[id]
}

// DestroyMolecule removes every member primitive of the molecule and
// deletes the molecule itself, mirroring the reference implementation's
// "children destroyed with their composite parent" lifetime rule.
func (s *Store) DestroyMolecule(id int) {
	mol, ok := s.molecules[id]
	if !ok {
		return
	}
	members := append([]Entity(nil), mol.Members...)
	for _, e := range members {
		s.creator.RemoveEntity(e)
	}
	delete(s.molecules, id)
}

// AddToMolecule joins primitive e to molecule id, updating e's
// MoleculeRef component and recomputing the molecule's derived state.
func (s *Store) AddToMolecule(e Entity, id int) {
	mol, ok := s.molecules[id]
	if !ok {
		return
	}
	ref := s.molMap.Get(e)
	if ref.ID == id {
		return
	}
	if ref.ID != 0 {
		if old, ok := s.molecules[ref.ID]; ok {
			old.removeMember(e)
			s.recomputeMolecule(old)
		}
	}
	ref.ID = id
	mol.Members = append(mol.Members, e)
	s.recomputeMolecule(mol)
}

// recomputeMolecule recalculates a molecule's mass-weighted centroid and
// its summed mass/charge from its current members, matching
// Molecule.h's CalculateCenterOfMass / UpdateCenterOfMass.
func (s *Store) recomputeMolecule(mol *Molecule) {
	if len(mol.Members) == 0 {
		mol.Centroid = geom.Zero
		mol.Mass = 0
		mol.Charge = 0
		return
	}
	var totalMass, totalCharge float64
	var weighted geom.Vec3
	for _, e := range mol.Members {
		m := s.masMap.Get(e).M
		p := s.posMap.Get(e).V
		weighted = weighted.Add(p.Mul(m))
		totalMass += m
		totalCharge += s.chgMap.Get(e).Q
	}
	if totalMass == 0 {
		mol.Centroid = geom.Zero
	} else {
		mol.Centroid = weighted.Mul(1 / totalMass)
	}
	mol.Mass = totalMass
	mol.Charge = totalCharge
}
