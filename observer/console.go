package observer

import "github.com/pthm-cable/saphron-go/logging"

// ConsoleObserver prints a one-line-per-world summary through the
// logging façade, grounded on
// original_source/src/Observers/ConsoleObserver.h and the teacher's
// game.Logf usage for periodic status prints.
type ConsoleObserver struct{}

// NewConsoleObserver builds a ConsoleObserver.
func NewConsoleObserver() *ConsoleObserver {
	return &ConsoleObserver{}
}

func (c *ConsoleObserver) Observe(s Snapshot) {
	logging.Logf("=== Iteration %d ===", s.Iteration)
	for _, w := range s.Worlds {
		logging.Logf("  %-12s N=%-6d T=%.4f E=%.6f P=%.6f V=%.4f",
			w.Name, w.ParticleCount, w.Temperature, w.Energy, w.Pressure, w.Volume)
	}
	for name, ratio := range s.Acceptance {
		logging.Logf("  %-20s acc=%.4f", name, ratio)
	}
	if s.ConvergenceFactor > 0 {
		logging.Logf("  flatness=%.4f convergence=%.6f", s.Flatness, s.ConvergenceFactor)
	}
}

func (c *ConsoleObserver) Close() error { return nil }
