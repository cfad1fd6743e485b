// Package histogram provides bounded real-valued binning with per-bin
// counts and an attached per-bin value channel (used as log-DOS storage
// by the flat-histogram simulation driver). Grounded directly on
// original_source/src/Histogram.h.
package histogram

import "math"

// OutOfRange is returned by Record and Bin when a datum falls outside
// [min, max).
const OutOfRange = -1

// Histogram is a closed-open interval [Min, Max) partitioned into
// fixed-width bins, each carrying a count and an arbitrary real "value"
// (the log density-of-states entry for Wang-Landau sampling).
type Histogram struct {
	min, max  float64
	binWidth  float64
	counts    []int
	values    []float64
	lowerOut  int
	upperOut  int
}

// New creates a histogram over [min, max) with the given number of bins.
func New(min, max float64, bins int) *Histogram {
	if bins <= 0 {
		bins = 1
	}
	return &Histogram{
		min:      min,
		max:      max,
		binWidth: (max - min) / float64(bins),
		counts:   make([]int, bins),
		values:   make([]float64, bins),
	}
}

// NewFromWidth creates a histogram over [min, max) with bins sized as
// close to binWidth as an integer bin count allows.
func NewFromWidth(min, max, binWidth float64) *Histogram {
	bins := int(math.Ceil(math.Abs(max-min) / binWidth))
	return New(min, max, bins)
}

// Min returns the lower bound of the histogram's range.
func (h *Histogram) Min() float64 { return h.min }

// Max returns the upper bound of the histogram's range.
func (h *Histogram) Max() float64 { return h.max }

// BinWidth returns the width of each bin.
func (h *Histogram) BinWidth() float64 { return h.binWidth }

// BinCount returns the number of bins.
func (h *Histogram) BinCount() int { return len(h.counts) }

// Bin returns the index datum would fall into, or OutOfRange.
func (h *Histogram) Bin(datum float64) int {
	if datum < h.min || datum >= h.max {
		return OutOfRange
	}
	bin := int((datum - h.min) / h.binWidth)
	if bin >= len(h.counts) {
		bin = len(h.counts) - 1
	}
	return bin
}

// Record increments the count of the bin containing datum and returns
// that bin's index, or OutOfRange (also bumping the appropriate outlier
// counter) if datum falls outside [min, max).
func (h *Histogram) Record(datum float64) int {
	if datum < h.min {
		h.lowerOut++
		return OutOfRange
	}
	if datum >= h.max {
		h.upperOut++
		return OutOfRange
	}
	bin := int((datum - h.min) / h.binWidth)
	if bin >= len(h.counts) {
		bin = len(h.counts) - 1
	}
	h.counts[bin]++
	return bin
}

// Value returns the value stored in bin, or -1 if bin is out of range.
func (h *Histogram) Value(bin int) float64 {
	if bin < 0 || bin >= len(h.values) {
		return -1
	}
	return h.values[bin]
}

// ValueAt returns the value of the bin datum falls into, or datum itself
// if out of range (mirrors Histogram.h's GetValue(double) fallback).
func (h *Histogram) ValueAt(datum float64) float64 {
	bin := h.Bin(datum)
	if bin == OutOfRange {
		return datum
	}
	return h.values[bin]
}

// Values returns a copy of the per-bin value slice.
func (h *Histogram) Values() []float64 {
	out := make([]float64, len(h.values))
	copy(out, h.values)
	return out
}

// SetValues overwrites the per-bin value slice. Panics if the length
// doesn't match BinCount, since this is only ever called from
// configuration round-trip / multi-walker broadcast code with a slice
// produced by this same histogram's shape.
func (h *Histogram) SetValues(values []float64) {
	if len(values) != len(h.values) {
		panic("histogram: SetValues length mismatch")
	}
	copy(h.values, values)
}

// UpdateValue sets the value of a single bin. No-op if out of range.
func (h *Histogram) UpdateValue(bin int, value float64) {
	if bin < 0 || bin >= len(h.values) {
		return
	}
	h.values[bin] = value
}

// AddValue adds delta to a single bin's value. No-op if out of range.
func (h *Histogram) AddValue(bin int, delta float64) {
	if bin < 0 || bin >= len(h.values) {
		return
	}
	h.values[bin] += delta
}

// Count returns the count stored in bin, or -1 if out of range.
func (h *Histogram) Count(bin int) int {
	if bin < 0 || bin >= len(h.counts) {
		return -1
	}
	return h.counts[bin]
}

// Counts returns a copy of the per-bin count slice.
func (h *Histogram) Counts() []int {
	out := make([]int, len(h.counts))
	copy(out, h.counts)
	return out
}

// LowerOutlierCount returns the number of Record calls below Min.
func (h *Histogram) LowerOutlierCount() int { return h.lowerOut }

// UpperOutlierCount returns the number of Record calls at or above Max.
func (h *Histogram) UpperOutlierCount() int { return h.upperOut }

// ResetCounts zeroes every bin's count (and the outlier counters) without
// touching the value channel. Used by the DOS driver on reaching target
// flatness between convergence-factor reductions.
func (h *Histogram) ResetCounts() {
	for i := range h.counts {
		h.counts[i] = 0
	}
	h.lowerOut = 0
	h.upperOut = 0
}

// Flatness returns the minimum bin count divided by the mean bin count,
// i.e. the worst-case deviation from a perfectly flat histogram. Returns
// 0 if every bin is empty.
func (h *Histogram) Flatness() float64 {
	if len(h.counts) == 0 {
		return 0
	}
	var sum float64
	for _, c := range h.counts {
		sum += float64(c)
	}
	avg := sum / float64(len(h.counts))
	if avg == 0 {
		return 0
	}
	dev := 1.0
	for _, c := range h.counts {
		ratio := float64(c) / avg
		if ratio < dev {
			dev = ratio
		}
	}
	return dev
}

// Encoding is the round-trip-safe configuration representation of a
// Histogram (spec §8's "encoding + decoding a histogram... reproduces
// bins and values exactly").
type Encoding struct {
	Min      float64   `json:"min"`
	Max      float64   `json:"max"`
	BinWidth float64   `json:"bin_width"`
	Counts   []int     `json:"counts"`
	Values   []float64 `json:"values"`
}

// Encode produces a round-trippable snapshot of the histogram.
func (h *Histogram) Encode() Encoding {
	return Encoding{
		Min:      h.min,
		Max:      h.max,
		BinWidth: h.binWidth,
		Counts:   h.Counts(),
		Values:   h.Values(),
	}
}

// Decode reconstructs a Histogram from an Encoding.
func Decode(e Encoding) *Histogram {
	h := &Histogram{
		min:      e.Min,
		max:      e.Max,
		binWidth: e.BinWidth,
		counts:   make([]int, len(e.Counts)),
		values:   make([]float64, len(e.Values)),
	}
	copy(h.counts, e.Counts)
	copy(h.values, e.Values)
	return h
}
