package observer

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/gocarina/gocsv"

	"github.com/pthm-cable/saphron-go/logging"
	"github.com/pthm-cable/saphron-go/species"
)

func logWriteError(err error) {
	logging.Logf("observer: %v", err)
}

// worldRow is one CSV line of a world's state, matching the fixed-field
// style of the teacher's telemetry rows (telemetry/stats.go,
// telemetry/perf.go) with a semicolon-joined Composition column standing
// in for this core's per-config species set, which gocsv's static
// struct-to-header mapping can't express directly.
type worldRow struct {
	Iteration   int     `csv:"iteration"`
	Temperature float64 `csv:"temperature"`
	Volume      float64 `csv:"volume"`
	Energy      float64 `csv:"energy"`
	Pressure    float64 `csv:"pressure"`
	ParticleCount int   `csv:"particle_count"`
	Composition string  `csv:"composition"`
}

// CSVObserver writes one CSV file per world (named "<prefix>.<world>.csv")
// using github.com/gocarina/gocsv, matching the teacher's
// telemetry.OutputManager header-then-rows lifecycle and grounded on
// original_source/src/Observers/CSVObserver.cpp's per-world file layout.
type CSVObserver struct {
	prefix       string
	table        *species.Table
	files        map[string]*os.File
	headerWritten map[string]bool
}

// NewCSVObserver builds a CSVObserver writing "<prefix>.<world>.csv" files,
// using table to render species composition columns by name.
func NewCSVObserver(prefix string, table *species.Table) *CSVObserver {
	return &CSVObserver{
		prefix:        prefix,
		table:         table,
		files:         make(map[string]*os.File),
		headerWritten: make(map[string]bool),
	}
}

func (c *CSVObserver) fileFor(world string) (*os.File, error) {
	if f, ok := c.files[world]; ok {
		return f, nil
	}
	f, err := os.Create(fmt.Sprintf("%s.%s.csv", c.prefix, world))
	if err != nil {
		return nil, fmt.Errorf("observer: creating %s world csv: %w", world, err)
	}
	c.files[world] = f
	return f, nil
}

func (c *CSVObserver) compositionString(comp map[species.ID]int) string {
	ids := make([]species.ID, 0, len(comp))
	for id := range comp {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	parts := make([]string, 0, len(ids))
	for _, id := range ids {
		name := fmt.Sprintf("%d", id)
		if c.table != nil {
			name = c.table.Name(id)
		}
		parts = append(parts, fmt.Sprintf("%s=%d", name, comp[id]))
	}
	return strings.Join(parts, ";")
}

func (c *CSVObserver) Observe(s Snapshot) {
	for _, w := range s.Worlds {
		f, err := c.fileFor(w.Name)
		if err != nil {
			logWriteError(err)
			continue
		}
		row := []worldRow{{
			Iteration:     s.Iteration,
			Temperature:   w.Temperature,
			Volume:        w.Volume,
			Energy:        w.Energy,
			Pressure:      w.Pressure,
			ParticleCount: w.ParticleCount,
			Composition:   c.compositionString(w.Composition),
		}}
		var writeErr error
		if !c.headerWritten[w.Name] {
			writeErr = gocsv.Marshal(row, f)
			c.headerWritten[w.Name] = true
		} else {
			writeErr = gocsv.MarshalWithoutHeaders(row, f)
		}
		if writeErr != nil {
			logWriteError(writeErr)
		}
	}
}

func (c *CSVObserver) Close() error {
	var firstErr error
	for _, f := range c.files {
		if err := f.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
