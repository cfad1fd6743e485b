package particle

import (
	"sync"

	"github.com/pthm-cable/saphron-go/geom"
)

// EventKind discriminates the kind of change-event published by a
// mutating setter on a particle.
type EventKind int

const (
	// PositionChanged fires when a primitive's position is set.
	PositionChanged EventKind = iota
	// DirectorChanged fires when a primitive's director is set.
	DirectorChanged
	// ChargeChanged fires when a primitive's charge is set.
	ChargeChanged
	// SpeciesChanged fires when a primitive's species is reassigned.
	SpeciesChanged
)

// Event carries the before/after payload of a particle mutation, per
// spec §3's "notifies subscribed observers with both old and new
// values" invariant. Only the fields relevant to Kind are populated.
type Event struct {
	Kind       EventKind
	Entity     Entity
	OldVec     geom.Vec3
	NewVec     geom.Vec3
	OldScalar  float64
	NewScalar  float64
	OldSpecies int
	NewSpecies int
}

// Subscriber receives published events. Subscribers run synchronously on
// the publishing goroutine, so they must be cheap — the DOS order
// parameters that subscribe (ElasticCoeff) do incremental bookkeeping,
// not full recomputation.
type Subscriber func(Event)

// Bus is a simple synchronous publish/subscribe hub keyed by nothing
// more than registration order; subscribers filter by Entity/Kind
// themselves. Matches the Design Notes' "event bus keyed by particle id"
// guidance, simplified since subscriber counts are small (order
// parameters, not per-particle observers).
type Bus struct {
	mu   sync.Mutex
	subs []Subscriber
}

// NewBus creates an empty event bus.
func NewBus() *Bus {
	return &Bus{}
}

// Subscribe registers fn to receive all future published events.
func (b *Bus) Subscribe(fn Subscriber) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subs = append(b.subs, fn)
}

// Publish delivers e to every subscriber in registration order.
func (b *Bus) Publish(e Event) {
	b.mu.Lock()
	subs := b.subs
	b.mu.Unlock()
	for _, s := range subs {
		s(e)
	}
}
