package main

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/pthm-cable/saphron-go/config"
	"github.com/pthm-cable/saphron-go/dos"
	"github.com/pthm-cable/saphron-go/forcefield"
	"github.com/pthm-cable/saphron-go/geom"
	"github.com/pthm-cable/saphron-go/histogram"
	"github.com/pthm-cable/saphron-go/logging"
	"github.com/pthm-cable/saphron-go/move"
	"github.com/pthm-cable/saphron-go/observer"
	"github.com/pthm-cable/saphron-go/particle"
	"github.com/pthm-cable/saphron-go/rng"
	"github.com/pthm-cable/saphron-go/simulation"
	"github.com/pthm-cable/saphron-go/species"
	"github.com/pthm-cable/saphron-go/world"
)

// Simulation is the common surface cmd/saphron drives: both
// simulation.StandardSimulation and simulation.DOSSimulation satisfy it.
type Simulation interface {
	Run(iterations int)
}

// RunID is a per-process UUID written into Build's startup log line,
// per SPEC_FULL.md §6's run-identity note. The CSV observer's file names
// and rows do not include it.
var RunID = uuid.New().String()

// buildResult is everything Build assembles: the runnable driver, its
// observers (so main can Close them on exit), and the iteration count to
// run for.
type buildResult struct {
	Sim        Simulation
	Observers  []observer.Observer
	Iterations int
}

// Build translates a loaded config.Config into a fully wired simulation:
// species table, worlds and their particles, the forcefield manager, the
// move manager, the chosen driver (Standard or DOS), and observers.
// Mirrors the teacher's main.go's straight-line "load config, build
// systems, run" sequence, generalized from a single hardcoded world to
// the config-declared set spec §6 allows.
func Build(cfg *config.Config) (*buildResult, error) {
	be := &config.BuildError{}

	table := buildSpeciesTable(cfg)

	worlds, worldIDs, err := buildWorlds(cfg, table)
	if err != nil {
		return nil, err
	}

	ffm, err := buildForcefieldManager(cfg, table)
	if err != nil {
		return nil, err
	}

	logging.Logf("run %s: %d world(s), %d species", RunID, len(worlds), table.Count())

	var sim Simulation
	var iterations int

	switch cfg.Ensemble.Type {
	case "", "Standard":
		wm := move.NewWorldManager(rng.New(cfg.Ensemble.Seed), worlds...)
		mm, err := buildMoveManager(cfg.Moves, table, rng.New(cfg.Ensemble.Seed+1))
		if err != nil {
			return nil, err
		}
		std := simulation.NewStandardSimulation(wm, ffm, mm, table)
		if cfg.Ensemble.MovesPerIteration > 0 {
			std.MovesPerIteration = cfg.Ensemble.MovesPerIteration
		}
		if cfg.Ensemble.NotifyInterval > 0 {
			std.NotifyInterval = cfg.Ensemble.NotifyInterval
		}
		sim = std
		iterations = cfg.Ensemble.Sweeps

	case "DOS":
		if len(worlds) == 0 {
			be.Add("ensemble.dos: requires at least one world")
			return nil, be.OrNil()
		}
		mm, err := buildMoveManager(cfg.Moves, table, rng.New(cfg.Ensemble.Seed+1))
		if err != nil {
			return nil, err
		}
		hist := buildHistogram(cfg.Ensemble.DOS)
		op, err := buildOrderParameter(cfg.Ensemble.DOS, table, hist, worlds[0])
		if err != nil {
			return nil, err
		}
		fLog := cfg.Ensemble.DOS.Interval
		if fLog <= 0 {
			fLog = 1.0
		}
		dosSim := simulation.NewDOSSimulation(worlds[0], worldIDs[0], ffm, mm, op, hist, fLog)
		for i := 1; i < len(worlds); i++ {
			wmm, err := buildMoveManager(cfg.Moves, table, rng.New(cfg.Ensemble.Seed+1+int64(i)))
			if err != nil {
				return nil, err
			}
			wHist := buildHistogram(cfg.Ensemble.DOS)
			wOP, err := buildOrderParameter(cfg.Ensemble.DOS, table, wHist, worlds[i])
			if err != nil {
				return nil, err
			}
			dosSim.AddWalker(worlds[i], worldIDs[i], wmm, wOP, wHist, fLog)
		}
		sim = dosSim
		iterations = cfg.Ensemble.DOS.Reductions

	default:
		be.Add("ensemble.type: unknown type %q", cfg.Ensemble.Type)
		return nil, be.OrNil()
	}

	observers, err := buildObservers(cfg.Observers, table)
	if err != nil {
		return nil, err
	}
	for _, o := range observers {
		switch s := sim.(type) {
		case *simulation.StandardSimulation:
			s.AddObserver(o)
		case *simulation.DOSSimulation:
			s.AddObserver(o)
		}
	}

	return &buildResult{Sim: sim, Observers: observers, Iterations: iterations}, nil
}

func buildSpeciesTable(cfg *config.Config) *species.Table {
	table := species.NewTable()
	for _, w := range cfg.Worlds {
		for _, c := range w.Components {
			table.Register(c.Species)
		}
	}
	return table
}

func buildWorlds(cfg *config.Config, table *species.Table) ([]*world.World, []int, error) {
	be := &config.BuildError{}
	var worlds []*world.World
	var ids []int

	for i, wc := range cfg.Worlds {
		box := world.NewOrthorhombicBox(wc.Dimensions[0], wc.Dimensions[1], wc.Dimensions[2], wc.Periodic.Resolve())
		w := world.New(wc.Name, box, wc.NlistCutoff, wc.SkinThickness, wc.Seed)
		w.Temperature = wc.Temperature
		w.PExternal = wc.PressureExt

		for _, comp := range wc.Components {
			id, ok := table.Lookup(comp.Species)
			if !ok {
				be.Add("worlds[%d].components: unregistered species %q", i, comp.Species)
				continue
			}
			w.SetThermo(id, comp.Mu, comp.Lambda)
		}

		for j, p := range wc.Particles {
			id, ok := table.Lookup(p.Species)
			if !ok {
				be.Add("worlds[%d].particles[%d]: unregistered species %q", i, j, p.Species)
				continue
			}
			pos := geom.Vec3{p.Position[0], p.Position[1], p.Position[2]}
			dir := geom.Vec3{p.Director[0], p.Director[1], p.Director[2]}
			w.Add(pos, dir, p.Charge, p.Mass, id, 0)
		}

		w.UpdateNeighborList()
		worlds = append(worlds, w)
		ids = append(ids, i)
	}

	if err := be.OrNil(); err != nil {
		return nil, nil, err
	}
	return worlds, ids, nil
}

func lookupSpecies(table *species.Table, names []string) ([]species.ID, error) {
	be := &config.BuildError{}
	out := make([]species.ID, 0, len(names))
	for _, n := range names {
		id, ok := table.Lookup(n)
		if !ok {
			be.Add("unregistered species %q", n)
			continue
		}
		out = append(out, id)
	}
	return out, be.OrNil()
}

func pairSpecies(table *species.Table, names []string) (species.ID, species.ID, error) {
	ids, err := lookupSpecies(table, names)
	if err != nil {
		return 0, 0, err
	}
	if len(ids) == 1 {
		return ids[0], ids[0], nil
	}
	if len(ids) != 2 {
		return 0, 0, fmt.Errorf("species list needs 1 or 2 entries, got %d", len(ids))
	}
	return ids[0], ids[1], nil
}

func buildForcefieldManager(cfg *config.Config, table *species.Table) (*forcefield.Manager, error) {
	known := make([]species.ID, 0, table.Count())
	for i := 0; i < table.Count(); i++ {
		known = append(known, species.ID(i))
	}
	mgr := forcefield.NewManager(known)
	be := &config.BuildError{}

	for i, e := range cfg.Forcefields.NonBonded {
		ff, err := buildNonBonded(e)
		if err != nil {
			be.Add("forcefields.nonbonded[%d]: %v", i, err)
			continue
		}
		a, b, err := pairSpecies(table, e.Species)
		if err != nil {
			be.Add("forcefields.nonbonded[%d]: %v", i, err)
			continue
		}
		if err := mgr.RegisterNonBonded(a, b, ff); err != nil {
			be.Add("forcefields.nonbonded[%d]: %v", i, err)
		}
	}

	for i, e := range cfg.Forcefields.Bonded {
		ff, err := buildBonded(e)
		if err != nil {
			be.Add("forcefields.bonded[%d]: %v", i, err)
			continue
		}
		a, b, err := pairSpecies(table, e.Species)
		if err != nil {
			be.Add("forcefields.bonded[%d]: %v", i, err)
			continue
		}
		if err := mgr.RegisterBonded(a, b, ff); err != nil {
			be.Add("forcefields.bonded[%d]: %v", i, err)
		}
	}

	for i, e := range cfg.Forcefields.Electrostatic {
		ff, err := buildElectrostatic(e, cfg.Ensemble.EwaldExcludeIntramolecular)
		if err != nil {
			be.Add("forcefields.electrostatic[%d]: %v", i, err)
			continue
		}
		a, b, err := pairSpecies(table, e.Species)
		if err != nil {
			be.Add("forcefields.electrostatic[%d]: %v", i, err)
			continue
		}
		if err := mgr.RegisterElectrostatic(a, b, ff); err != nil {
			be.Add("forcefields.electrostatic[%d]: %v", i, err)
		}
	}

	for i, e := range cfg.Forcefields.Constraints {
		c, err := buildConstraint(e)
		if err != nil {
			be.Add("forcefields.constraints[%d]: %v", i, err)
			continue
		}
		ids, err := lookupSpecies(table, e.Species)
		if err != nil {
			be.Add("forcefields.constraints[%d]: %v", i, err)
			continue
		}
		for _, id := range ids {
			if err := mgr.RegisterConstraint(id, c); err != nil {
				be.Add("forcefields.constraints[%d]: %v", i, err)
			}
		}
	}

	if err := be.OrNil(); err != nil {
		return nil, err
	}
	return mgr, nil
}

func buildNonBonded(e config.ForcefieldEntry) (forcefield.NonBonded, error) {
	switch e.Type {
	case "LennardJones":
		return &forcefield.LennardJones{
			Epsilon: e.Param("epsilon", 1.0),
			Sigma:   e.Param("sigma", 1.0),
			RCut:    e.Cutoff,
		}, nil
	case "LebwohlLasher":
		return &forcefield.LebwohlLasher{
			Eps:   e.Param("eps", 1.0),
			Gamma: e.Param("gamma", 0.0),
			RCut:  e.Cutoff,
		}, nil
	default:
		return nil, fmt.Errorf("unknown nonbonded forcefield type %q", e.Type)
	}
}

func buildBonded(e config.ForcefieldEntry) (forcefield.Bonded, error) {
	switch e.Type {
	case "Harmonic":
		return &forcefield.Harmonic{
			K:  e.Param("k", 1.0),
			R0: e.Param("r0", 1.0),
		}, nil
	default:
		return nil, fmt.Errorf("unknown bonded forcefield type %q", e.Type)
	}
}

func buildElectrostatic(e config.ForcefieldEntry, excludeIntra bool) (forcefield.Electrostatic, error) {
	switch e.Type {
	case "DSFElectrostatic":
		return &forcefield.DSFElectrostatic{
			Alpha:      e.Param("alpha", 0.2),
			ChargeConv: e.Param("charge_conv", 1.0),
			RCut:       e.Cutoff,
		}, nil
	case "Ewald":
		ew := &forcefield.Ewald{
			Alpha:      e.Param("alpha", 0.2),
			Kmax:       int(e.Param("kmax", 5)),
			ChargeConv: e.Param("charge_conv", 1.0),
			RCut:       e.Cutoff,
		}
		if excludeIntra {
			ew.IsIntramolecular = func(_, _ geom.Vec3) bool { return true }
		}
		return ew, nil
	default:
		return nil, fmt.Errorf("unknown electrostatic forcefield type %q", e.Type)
	}
}

func buildConstraint(e config.ForcefieldEntry) (forcefield.Constraint, error) {
	switch e.Type {
	case "HarmonicConstraint":
		anchor := geom.Vec3{e.Param("anchor_x", 0), e.Param("anchor_y", 0), e.Param("anchor_z", 0)}
		return &forcefield.HarmonicConstraint{K: e.Param("k", 1.0), Anchor: anchor}, nil
	default:
		return nil, fmt.Errorf("unknown constraint forcefield type %q", e.Type)
	}
}

func buildMoveManager(moves []config.MoveConfig, table *species.Table, rngSrc *rng.Source) (*move.Manager, error) {
	mm := move.NewManager(rngSrc)
	be := &config.BuildError{}
	for i, mc := range moves {
		mv, err := buildMove(mc, table)
		if err != nil {
			be.Add("moves[%d]: %v", i, err)
			continue
		}
		mm.Add(mv, mc.Weight)
	}
	if err := be.OrNil(); err != nil {
		return nil, err
	}
	return mm, nil
}

func buildMove(mc config.MoveConfig, table *species.Table) (move.Move, error) {
	p := mc.Params
	speciesList := func() ([]species.ID, error) { return lookupSpecies(table, p.Species) }

	switch mc.Type {
	case "Translate":
		return move.NewTranslate(p.Dx), nil
	case "TranslatePrimitive":
		return move.NewTranslatePrimitive(p.Dx), nil
	case "Rotate":
		return move.NewRotate(p.MaxAngle), nil
	case "DirectorRotate":
		return move.NewDirectorRotate(), nil
	case "FlipSpin":
		return move.NewFlipSpin(), nil
	case "SpeciesSwap":
		sw := move.NewSpeciesSwap(p.SwapMassCharge)
		sw.RestrictPair = p.RestrictPair
		if p.RestrictPair {
			a, ok := table.Lookup(p.PairA)
			if !ok {
				return nil, fmt.Errorf("unregistered species %q", p.PairA)
			}
			b, ok := table.Lookup(p.PairB)
			if !ok {
				return nil, fmt.Errorf("unregistered species %q", p.PairB)
			}
			sw.A, sw.B = a, b
		}
		return sw, nil
	case "RandomIdentity":
		list, err := speciesList()
		if err != nil {
			return nil, err
		}
		return move.NewRandomIdentity(list), nil
	case "IdentityChange":
		return move.NewIdentityChange(p.NumSpecies), nil
	case "InsertParticle":
		list, err := speciesList()
		if err != nil {
			return nil, err
		}
		ip := move.NewInsertParticle(list)
		ip.MultiInsertion = p.MultiInsertion
		return ip, nil
	case "DeleteParticle":
		list, err := speciesList()
		if err != nil {
			return nil, err
		}
		return move.NewDeleteParticle(list), nil
	case "WidomInsertion":
		list, err := speciesList()
		if err != nil {
			return nil, err
		}
		return move.NewWidomInsertion(list), nil
	case "VolumeScale":
		return move.NewVolumeScale(p.Dv), nil
	case "VolumeSwap":
		return move.NewVolumeSwap(p.Dv), nil
	case "ParticleSwap":
		list, err := speciesList()
		if err != nil {
			return nil, err
		}
		return move.NewParticleSwap(list), nil
	case "ChargeSwap":
		return move.NewChargeSwap(), nil
	case "AnnealCharge":
		return move.NewAnnealCharge(), nil
	case "AcidTitration":
		at := move.NewAcidTitration(p.QH, p.Mu)
		at.ExcludeBondedFromTitration = p.ExcludeBondedFromTitration
		return at, nil
	case "AcidReaction":
		ion, ok := table.Lookup(p.IonSpecies)
		if !ok {
			return nil, fmt.Errorf("unregistered ion species %q", p.IonSpecies)
		}
		return move.NewAcidReaction(p.QH, p.PH, p.PKo, ion, p.IonCharge, p.IonMass), nil
	case "CBMC":
		cb := move.NewCBMC(p.Trials, p.MinR, p.MaxR)
		return cb, nil
	default:
		return nil, fmt.Errorf("unknown move type %q", mc.Type)
	}
}

func buildHistogram(dc config.DOSConfig) *histogram.Histogram {
	if dc.BinWidth > 0 {
		return histogram.NewFromWidth(dc.Min, dc.Max, dc.BinWidth)
	}
	bins := dc.BinCount
	if bins <= 0 {
		bins = 100
	}
	return histogram.New(dc.Min, dc.Max, bins)
}

func buildOrderParameter(dc config.DOSConfig, table *species.Table, hist *histogram.Histogram, w *world.World) (dos.OrderParameter, error) {
	opc := dc.OrderParameter
	switch opc.Type {
	case "", "WangLandau":
		return &dos.WangLandau{Hist: hist}, nil
	case "ParticleDistance":
		g1, err := groupEntities(table, w, opc.GroupA)
		if err != nil {
			return nil, err
		}
		g2, err := groupEntities(table, w, opc.GroupB)
		if err != nil {
			return nil, err
		}
		return &dos.ParticleDistance{Hist: hist, Group1: g1, Group2: g2}, nil
	case "RadiusOfGyration":
		g, err := groupEntities(table, w, opc.GroupA)
		if err != nil {
			return nil, err
		}
		return &dos.RadiusOfGyration{Hist: hist, Group: g}, nil
	case "ChargeFraction":
		g, err := groupEntities(table, w, opc.GroupA)
		if err != nil {
			return nil, err
		}
		return &dos.ChargeFraction{Hist: hist, Group: g, BaseCharge: opc.ChargeBase}, nil
	case "ElasticCoeff":
		var mode dos.ElasticMode
		switch opc.Mode {
		case "Bend":
			mode = dos.Bend
		case "Twist":
			mode = dos.Twist
		default:
			mode = dos.Splay
		}
		return dos.NewElasticCoeff(hist, w, opc.Dxj, opc.SlabRange, mode), nil
	default:
		return nil, fmt.Errorf("unknown order parameter type %q", opc.Type)
	}
}

// groupEntities resolves a DOS order parameter's group_a/group_b species
// names into the live particle set, by species membership — spec §6
// names groups by species list rather than explicit entity ids, since
// configuration load happens before particle entities exist.
func groupEntities(table *species.Table, w *world.World, names []string) ([]particle.Entity, error) {
	ids, err := lookupSpecies(table, names)
	if err != nil {
		return nil, err
	}
	wanted := make(map[species.ID]bool, len(ids))
	for _, id := range ids {
		wanted[id] = true
	}
	var out []particle.Entity
	w.Store.Each(func(e particle.Entity) {
		if wanted[w.Store.Species(e)] {
			out = append(out, e)
		}
	})
	return out, nil
}

func buildObservers(ocs []config.ObserverConfig, table *species.Table) ([]observer.Observer, error) {
	be := &config.BuildError{}
	var out []observer.Observer
	for i, oc := range ocs {
		switch oc.Type {
		case "console":
			out = append(out, observer.NewConsoleObserver())
		case "csv":
			prefix := oc.FilePrefix
			if prefix == "" {
				prefix = "saphron"
			}
			out = append(out, observer.NewCSVObserver(prefix, table))
		default:
			be.Add("observers[%d]: unknown type %q", i, oc.Type)
		}
	}
	if err := be.OrNil(); err != nil {
		return nil, err
	}
	return out, nil
}
