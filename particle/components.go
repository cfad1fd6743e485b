// Package particle models the universal simulation entity described in
// spec §3: primitive particles stored as mlange-42/ark ECS entities
// (the Go rendering of "arena-allocated particle records addressed by
// indices" from the Design Notes), grouped into composite Molecules via
// a side table, with a change-event Bus standing in for the original
// observer-subscription-on-particles pattern.
//
// The reference implementation's recursive Particle (where a composite
// can itself be a child of another composite) collapses here to two
// levels — Primitive and Molecule — because every concrete forcefield,
// move, and order parameter in original_source operates on exactly that
// depth (see src/Particles/Molecule.h); deeper nesting was never
// exercised and would only add unused generality.
package particle

import (
	"github.com/pthm-cable/saphron-go/geom"
	"github.com/pthm-cable/saphron-go/species"
)

// GlobalID is the process-wide unique integer id assigned at creation.
type GlobalID struct {
	ID uint64
}

// Position is a primitive's Cartesian position. Checkpoint rides along
// in the same component (rather than as an eighth component) so a
// primitive's full component set fits ark's Map7 creation arity, the
// widest the teacher's own code exercises (game/game.go's entityMapper).
type Position struct {
	V          geom.Vec3
	Checkpoint geom.Vec3
}

// Director is a primitive's (by convention unit-length) orientation
// vector.
type Director struct {
	V geom.Vec3
}

// Charge is a primitive's point charge.
type Charge struct {
	Q float64
}

// Mass is a primitive's mass. Always positive.
type Mass struct {
	M float64
}

// SpeciesComp is the interned species id of a primitive.
type SpeciesComp struct {
	ID species.ID
}

// MoleculeRef is the id of the Molecule a primitive belongs to, or 0 if
// the primitive is unaffiliated (a bare site with no composite parent).
type MoleculeRef struct {
	ID int
}
