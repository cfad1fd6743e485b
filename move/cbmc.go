package move

import (
	"math"

	"github.com/pthm-cable/saphron-go/dos"
	"github.com/pthm-cable/saphron-go/forcefield"
	"github.com/pthm-cable/saphron-go/geom"
	"github.com/pthm-cable/saphron-go/histogram"
	"github.com/pthm-cable/saphron-go/particle"
	"github.com/pthm-cable/saphron-go/world"
)

// CBMC regrows one randomly drawn molecule (or, for an unaffiliated
// primitive, that single bead) bond-step by bond-step using
// configurational-bias sampling: each step draws Trials candidate
// positions on a spherical shell of radius in [MinR, MaxR) about the
// previously placed bead, weights each by its Boltzmann factor, and
// accumulates the Rosenbluth weight. The chain is first retraced at its
// existing positions to get W_old, then regrown to get W_new, and the
// move accepts with P = min(1, (W_new/W_old)*exp(-beta*deltaU_external)).
// Grounded on original_source/src/Moves/CBMCMove.h.
type CBMC struct {
	Base
	Trials       int
	MinR, MaxR   float64
	StartingBead int
}

// NewCBMC builds a CBMC move with the given per-bond trial count and
// bond-length sampling range.
func NewCBMC(trials int, minR, maxR float64) *CBMC {
	return &CBMC{Base: Base{NameStr: "CBMC"}, Trials: trials, MinR: minR, MaxR: maxR}
}

func (m *CBMC) Clone() Move {
	c := *m
	c.accepted, c.rejected = 0, 0
	return &c
}

// chainOf returns the ordered bead list CBMC will regrow: a molecule's
// members (rooted at StartingBead, mod length) or, for an unaffiliated
// primitive, that primitive alone.
func (m *CBMC) chainOf(w *world.World, p particle.Entity) []particle.Entity {
	mol := w.Store.Molecule(w.Store.MoleculeOf(p))
	if mol == nil || len(mol.Members) == 0 {
		return []particle.Entity{p}
	}
	root := m.StartingBead % len(mol.Members)
	if root < 0 {
		root += len(mol.Members)
	}
	chain := make([]particle.Entity, len(mol.Members))
	copy(chain, mol.Members)
	chain[0], chain[root] = chain[root], chain[0]
	return chain
}

// placeFirstBead trials Trials positions uniformly in the box for the
// chain's root bead, selecting one by Rosenbluth weight (grow) or
// retracing the current position (retrace), and returns the running
// Rosenbluth product and the placed energy.
func (m *CBMC) placeFirstBead(w *world.World, worldID int, ffm *forcefield.Manager, bead particle.Entity, retrace bool) (rosenbluth float64, energy world.EnergyChannels) {
	trials := m.Trials
	if trials < 1 {
		trials = 1
	}
	positions := make([]geom.Vec3, trials)
	weights := make([]float64, trials)
	energies := make([]world.EnergyChannels, trials)
	current := w.Store.Position(bead)

	sum := 0.0
	for i := 0; i < trials; i++ {
		if retrace && i == 0 {
			positions[i] = current
		} else {
			positions[i] = w.RNG.UniformInBox(w.Box.H)
		}
		w.Store.SetPosition(bead, positions[i])
		energies[i] = ffm.EvaluateParticle(w, worldID, bead)
		weights[i] = math.Exp(-beta(w) * energies[i].Total())
		sum += weights[i]
	}

	if retrace {
		w.Store.SetPosition(bead, positions[0])
		return sum, energies[0]
	}
	idx := selectByWeight(w, weights, sum)
	w.Store.SetPosition(bead, positions[idx])
	return sum, energies[idx]
}

// placeBeads recursively regrows every bonded neighbor of bead not yet
// visited, sampling each trial position on a spherical shell around
// bead's (already placed) position.
func (m *CBMC) placeBeads(w *world.World, worldID int, ffm *forcefield.Manager, bead particle.Entity, visited map[particle.Entity]bool, rosenbluth *float64, energy *world.EnergyChannels, retrace bool) {
	for _, nb := range ffm.BondedNeighbors(worldID, bead) {
		if visited[nb] {
			continue
		}
		visited[nb] = true

		trials := m.Trials
		if trials < 1 {
			trials = 1
		}
		positions := make([]geom.Vec3, trials)
		weights := make([]float64, trials)
		energies := make([]world.EnergyChannels, trials)
		current := w.Store.Position(nb)
		anchor := w.Store.Position(bead)

		sum := 0.0
		for i := 0; i < trials; i++ {
			if retrace && i == 0 {
				positions[i] = current
			} else {
				r := w.RNG.Uniform(m.MinR, m.MaxR)
				dir := w.RNG.UnitVectorVec()
				positions[i] = w.Box.ApplyPeriodicBoundaries(anchor.Add(dir.Mul(r)))
			}
			w.Store.SetPosition(nb, positions[i])
			energies[i] = ffm.EvaluateParticle(w, worldID, nb)
			weights[i] = math.Exp(-beta(w) * energies[i].Total())
			sum += weights[i]
		}

		*rosenbluth *= sum
		if retrace {
			w.Store.SetPosition(nb, positions[0])
			*energy = energy.Add(energies[0])
		} else {
			idx := selectByWeight(w, weights, sum)
			w.Store.SetPosition(nb, positions[idx])
			*energy = energy.Add(energies[idx])
		}

		m.placeBeads(w, worldID, ffm, nb, visited, rosenbluth, energy, retrace)
	}
}

func selectByWeight(w *world.World, weights []float64, sum float64) int {
	if sum <= 0 {
		return 0
	}
	target := sum * w.RNG.Float64()
	running := 0.0
	for i, wt := range weights {
		running += wt
		if target < running {
			return i
		}
	}
	return len(weights) - 1
}

func (m *CBMC) regrow(w *world.World, worldID int, ffm *forcefield.Manager, chain []particle.Entity, retrace bool) (float64, world.EnergyChannels) {
	rosenbluth, energy := m.placeFirstBead(w, worldID, ffm, chain[0], retrace)
	visited := map[particle.Entity]bool{chain[0]: true}
	m.placeBeads(w, worldID, ffm, chain[0], visited, &rosenbluth, &energy, retrace)
	return rosenbluth, energy
}

func (m *CBMC) Perform(wm *WorldManager, ffm *forcefield.Manager, override Override) {
	w, worldID, ok := wm.Random()
	if !ok {
		return
	}
	p, ok := w.RandomParticle()
	if !ok {
		return
	}
	chain := m.chainOf(w, p)
	oldPos := make(map[particle.Entity]geom.Vec3, len(chain))
	for _, e := range chain {
		oldPos[e] = w.Store.Position(e)
	}

	wOld, eOld := m.regrow(w, worldID, ffm, chain, true)
	wNew, eNew := m.regrow(w, worldID, ffm, chain, false)
	deltaU := eNew.Sub(eOld)

	p2 := wNew / wOld * math.Exp(-beta(w)*deltaU.Total())
	if p2 > 1 {
		p2 = 1
	}

	if decide(w.RNG, p2, override) {
		w.Energy = w.Energy.Add(deltaU)
		m.recordAccept()
		return
	}
	for _, e := range chain {
		w.Store.SetPosition(e, oldPos[e])
	}
	w.CheckNeighborListUpdate()
	m.recordReject()
}

// PerformDOS is not implemented for CBMC: original_source/src/Moves/CBMCMove.h
// documents the histogram-biased path as unimplemented ("Still need to
// implement DOS for CBMC!"), and no flat-histogram scenario in spec §8
// exercises chain regrowth. Returns attempted=false unconditionally.
func (m *CBMC) PerformDOS(w *world.World, worldID int, ffm *forcefield.Manager, op dos.OrderParameter, hist *histogram.Histogram, override Override) (float64, bool) {
	return op.Evaluate(w), false
}
