package forcefield

import (
	"fmt"
	"math"
	"runtime"
	"sync"

	"github.com/pthm-cable/saphron-go/geom"
	"github.com/pthm-cable/saphron-go/particle"
	"github.com/pthm-cable/saphron-go/species"
	"github.com/pthm-cable/saphron-go/world"
)

// BuildError aggregates forcefield registration failures the way
// config.BuildError aggregates configuration failures (spec §7):
// registering a forcefield for an unknown species is a build-time error,
// not a runtime panic.
type BuildError struct {
	Messages []string
}

func (e *BuildError) Error() string {
	s := "forcefield: invalid registration:"
	for _, m := range e.Messages {
		s += " " + m
	}
	return s
}

func (e *BuildError) add(msg string) { e.Messages = append(e.Messages, msg) }

// sq returns x*x, used to compare a precomputed squared distance against
// a forcefield's cutoff without an extra sqrt on the hot path.
func sq(x float64) float64 { return x * x }

func (e *BuildError) orNil() error {
	if len(e.Messages) == 0 {
		return nil
	}
	return e
}

// bondedEdge is one entry of a world's stored bonded-neighbor list: an
// unordered pair of primitives that always interact via Bonded,
// regardless of distance.
type bondedEdge struct {
	A, B particle.Entity
}

// Manager composes the four forcefield families spec §4.2 names, looked
// up by species pair, into per-particle and per-world energy sums.
// Grounded on original_source/src/ForceFields/ForceFieldManager.h's dual
// symmetric/unique species-pair map design.
type Manager struct {
	known map[species.ID]bool

	nonBonded map[PairKey]NonBonded
	bonded    map[PairKey]Bonded
	electro   map[PairKey]Electrostatic
	uniquePairs []PairKey

	constraints map[species.ID][]Constraint

	electrostatic Electrostatic // the single registered electrostatic forcefield, if any

	bondedEdges map[int][]bondedEdge // per-world bonded lists, keyed by a caller-assigned world id

	// Workers bounds the goroutine pool used by EvaluateWorld's
	// intra-step data parallelism (spec §5). Zero means GOMAXPROCS.
	Workers int
}

// NewManager creates an empty ForceFieldManager aware of the given
// registered species (used to validate registrations against spec §4.2's
// "registering a forcefield for an unknown species throws a build
// error").
func NewManager(known []species.ID) *Manager {
	k := make(map[species.ID]bool, len(known))
	for _, s := range known {
		k[s] = true
	}
	return &Manager{
		known:       k,
		nonBonded:   make(map[PairKey]NonBonded),
		bonded:      make(map[PairKey]Bonded),
		electro:     make(map[PairKey]Electrostatic),
		constraints: make(map[species.ID][]Constraint),
		bondedEdges: make(map[int][]bondedEdge),
	}
}

func (m *Manager) validatePair(a, b species.ID) error {
	be := &BuildError{}
	if !m.known[a] {
		be.add(fmt.Sprintf("unknown species in pair: %d", a))
	}
	if !m.known[b] {
		be.add(fmt.Sprintf("unknown species in pair: %d", b))
	}
	return be.orNil()
}

// RegisterNonBonded binds ff to species pair (a,b) in both the symmetric
// lookup map and the unique-pairs enumeration used for tail corrections.
func (m *Manager) RegisterNonBonded(a, b species.ID, ff NonBonded) error {
	if err := m.validatePair(a, b); err != nil {
		return err
	}
	m.nonBonded[PairKey{a, b}] = ff
	m.nonBonded[PairKey{b, a}] = ff
	m.addUnique(PairKey{a, b})
	return nil
}

// RegisterBonded binds ff to species pair (a,b) for bonded evaluation.
func (m *Manager) RegisterBonded(a, b species.ID, ff Bonded) error {
	if err := m.validatePair(a, b); err != nil {
		return err
	}
	m.bonded[PairKey{a, b}] = ff
	m.bonded[PairKey{b, a}] = ff
	return nil
}

// RegisterElectrostatic registers the world's single electrostatic
// forcefield for species pair (a,b). Only one electrostatic forcefield
// is meaningful per world (it owns the reciprocal-space sum), but
// per-pair registration lets different species pairs opt out.
func (m *Manager) RegisterElectrostatic(a, b species.ID, ff Electrostatic) error {
	if err := m.validatePair(a, b); err != nil {
		return err
	}
	m.electro[PairKey{a, b}] = ff
	m.electro[PairKey{b, a}] = ff
	m.electrostatic = ff
	m.addUnique(PairKey{a, b})
	return nil
}

// RegisterConstraint adds a constraint forcefield evaluated against any
// particle of species sp.
func (m *Manager) RegisterConstraint(sp species.ID, c Constraint) error {
	if !m.known[sp] {
		be := &BuildError{}
		be.add(fmt.Sprintf("unknown species for constraint: %d", sp))
		return be
	}
	m.constraints[sp] = append(m.constraints[sp], c)
	return nil
}

// AddBond records a bonded-neighbor edge for a world (keyed by the
// caller-assigned integer world id), evaluated with no cutoff regardless
// of distance.
func (m *Manager) AddBond(worldID int, a, b particle.Entity) {
	m.bondedEdges[worldID] = append(m.bondedEdges[worldID], bondedEdge{A: a, B: b})
}

// BondedNeighbors returns every primitive directly bonded to p in the
// given world, in the order AddBond recorded them. Used by CBMC to walk a
// molecule's chain one bond step at a time.
func (m *Manager) BondedNeighbors(worldID int, p particle.Entity) []particle.Entity {
	var out []particle.Entity
	for _, edge := range m.bondedEdges[worldID] {
		switch {
		case edge.A == p:
			out = append(out, edge.B)
		case edge.B == p:
			out = append(out, edge.A)
		}
	}
	return out
}

func (m *Manager) addUnique(k PairKey) {
	nk := k.normalize()
	for _, existing := range m.uniquePairs {
		if existing == nk {
			return
		}
	}
	m.uniquePairs = append(m.uniquePairs, nk)
}

// EvaluateParticle sums every registered contribution touching particle
// p: non-bonded and electrostatic terms over p's current neighbor list,
// bonded terms over p's bonded edges, intra/inter classification by
// shared composite parent, and constraint terms for p's species. It never
// includes tail corrections: those are a whole-world quantity computed by
// EvaluateWorld, and they do not depend on individual positions, so
// single-particle ΔU move evaluation needs no tail term.
func (m *Manager) EvaluateParticle(w *world.World, worldID int, p particle.Entity) world.EnergyChannels {
	var ch world.EnergyChannels
	store := w.Store
	pos := store.Position(p)
	dir := store.Director(p)
	charge := store.Charge(p)
	sp := store.Species(p)
	molID := store.MoleculeOf(p)

	w.EachNeighbor(p, func(n world.Neighbor) {
		otherSp := store.Species(n.E)
		otherDir := store.Director(n.E)
		pair := Pair{R12: n.D, Director1: dir, Director2: otherDir, WorldID: worldID}
		sameParent := molID != 0 && store.MoleculeOf(n.E) == molID

		if nb, ok := m.nonBonded[PairKey{sp, otherSp}]; ok && n.DistSq <= sq(nb.Cutoff(worldID)) {
			r := nb.Evaluate(pair)
			if sameParent {
				ch.IntraVDW += r.Energy
			} else {
				ch.InterVDW += r.Energy
			}
			ch.Virial += r.Virial * math.Sqrt(n.DistSq)
		}
		if e, ok := m.electro[PairKey{sp, otherSp}]; ok && n.DistSq <= sq(e.Cutoff(worldID)) {
			otherCharge := store.Charge(n.E)
			var r PairResult
			if ew, ok := e.(*Ewald); ok {
				r = ew.EvaluateCharge(worldID, n.D, charge, otherCharge, sameParent)
			} else {
				r = e.Evaluate(pair)
			}
			if sameParent {
				ch.IntraElec += r.Energy
			} else {
				ch.InterElec += r.Energy
			}
			ch.Virial += r.Virial * math.Sqrt(n.DistSq)
		}
	})

	for _, edge := range m.bondedEdges[worldID] {
		var other particle.Entity
		matched := false
		if edge.A == p {
			other = edge.B
			matched = true
		} else if edge.B == p {
			other = edge.A
			matched = true
		}
		if !matched {
			continue
		}
		otherSp := store.Species(other)
		if bf, ok := m.bonded[PairKey{sp, otherSp}]; ok {
			otherPos := store.Position(other)
			r12 := w.ApplyMinimumImage(otherPos.Sub(pos))
			r := bf.Evaluate(Pair{R12: r12})
			ch.Bonded += r.Energy
			ch.Virial += r.Virial * geom.Norm(r12)
		}
	}

	for _, c := range m.constraints[sp] {
		ch.Connectivity += c.EvaluateParticle(pos, charge)
	}

	return ch
}

// EvaluateWorld sums the full-world energy: pairwise terms with j>i by
// id (spec §4.2), the complete bonded list, per-particle constraint
// terms, tail corrections over every unique registered pair, and the
// reciprocal-space electrostatic contribution when registered. The
// pairwise double loop is parallelized with a bounded worker pool and a
// reduction, per spec §5's intra-step data-parallelism allowance; no
// move may run concurrently with this call.
func (m *Manager) EvaluateWorld(w *world.World, worldID int) world.EnergyChannels {
	store := w.Store
	var ids []particle.Entity
	store.Each(func(e particle.Entity) { ids = append(ids, e) })

	n := len(ids)
	workers := m.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	if workers > n {
		workers = n
	}
	if workers < 1 {
		workers = 1
	}

	partials := make([]world.EnergyChannels, workers)
	var wg sync.WaitGroup
	chunk := (n + workers - 1) / workers
	for wk := 0; wk < workers; wk++ {
		lo := wk * chunk
		hi := lo + chunk
		if hi > n {
			hi = n
		}
		if lo >= hi {
			continue
		}
		wg.Add(1)
		go func(wk, lo, hi int) {
			defer wg.Done()
			var local world.EnergyChannels
			for i := lo; i < hi; i++ {
				pi := ids[i]
				posI := store.Position(pi)
				dirI := store.Director(pi)
				spI := store.Species(pi)
				molI := store.MoleculeOf(pi)
				chargeI := store.Charge(pi)
				idI := store.GlobalIDOf(pi)

				w.EachNeighbor(pi, func(nbr world.Neighbor) {
					if store.GlobalIDOf(nbr.E) <= idI {
						return // count each pair once, j>i by id
					}
					spJ := store.Species(nbr.E)
					dirJ := store.Director(nbr.E)
					pair := Pair{R12: nbr.D, Director1: dirI, Director2: dirJ, WorldID: worldID}
					sameParent := molI != 0 && store.MoleculeOf(nbr.E) == molI

					if nb, ok := m.nonBonded[PairKey{spI, spJ}]; ok && nbr.DistSq <= sq(nb.Cutoff(worldID)) {
						r := nb.Evaluate(pair)
						if sameParent {
							local.IntraVDW += r.Energy
						} else {
							local.InterVDW += r.Energy
						}
						local.Virial += r.Virial * math.Sqrt(nbr.DistSq)
					}
					if e, ok := m.electro[PairKey{spI, spJ}]; ok && nbr.DistSq <= sq(e.Cutoff(worldID)) {
						otherCharge := store.Charge(nbr.E)
						var r PairResult
						if ew, ok := e.(*Ewald); ok {
							r = ew.EvaluateCharge(worldID, nbr.D, chargeI, otherCharge, sameParent)
						} else {
							r = e.Evaluate(pair)
						}
						if sameParent {
							local.IntraElec += r.Energy
						} else {
							local.InterElec += r.Energy
						}
						local.Virial += r.Virial * math.Sqrt(nbr.DistSq)
					}
				})

				for _, c := range m.constraints[spI] {
					local.Connectivity += c.EvaluateParticle(posI, chargeI)
				}
			}
			partials[wk] = local
		}(wk, lo, hi)
	}
	wg.Wait()

	var total world.EnergyChannels
	for _, p := range partials {
		total = total.Add(p)
	}

	for _, edge := range m.bondedEdges[worldID] {
		spA := store.Species(edge.A)
		spB := store.Species(edge.B)
		if bf, ok := m.bonded[PairKey{spA, spB}]; ok {
			r12 := w.ApplyMinimumImage(store.Position(edge.B).Sub(store.Position(edge.A)))
			r := bf.Evaluate(Pair{R12: r12})
			total.Bonded += r.Energy
			total.Virial += r.Virial * geom.Norm(r12)
		}
	}

	// tailPressure is the interface a NonBonded forcefield optionally
	// implements to contribute an analytic long-range pressure
	// correction, matching PressureTailCorrection's energy-tail sibling
	// (spec §3's tail-correction-tracked-separately pressure channel).
	type tailPressure interface {
		PressureTailCorrection(worldID int) float64
	}

	volume := w.Box.Volume()
	for _, pk := range m.uniquePairs {
		na := float64(w.Composition(pk.A))
		nb := float64(w.Composition(pk.B))
		if ff, ok := m.nonBonded[pk]; ok {
			total.Tail += 2 * math.Pi * na * nb / volume * ff.TailIntegral(worldID)
			if pc, ok := ff.(tailPressure); ok {
				total.TailVirial += 2 * math.Pi * na * nb / volume * pc.PressureTailCorrection(worldID)
			}
		}
	}

	if m.electrostatic != nil {
		var charges []float64
		var positions []geom.Vec3
		store.Each(func(e particle.Entity) {
			q := store.Charge(e)
			charges = append(charges, q)
			positions = append(positions, store.Position(e))
			total.InterElec += m.electrostatic.SelfEnergy(q)
		})
		total.InterElec += m.electrostatic.ReciprocalSpaceEnergy(charges, positions, w.Box.H, volume)
	}

	return total
}
