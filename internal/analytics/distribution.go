// Package analytics computes dashboard statistics over a data set: per-axis
// value distributions, quadrant shares, and the recommendation score.
package analytics

import (
	"sort"

	"github.com/rotisserie/eris"

	"github.com/JaimeV365/segmentor-sub003/internal/grid"
)

// Bucket is one distinct recorded value on an axis with its count.
type Bucket struct {
	Value float64 `json:"value"`
	Count int     `json:"count"`
	Share float64 `json:"share"` // fraction of total, 0.0-1.0
}

// Distribution is an ordered histogram of one axis: distinct values
// ascending, every value validated against the scale at construction.
type Distribution struct {
	scale   grid.Scale
	buckets []Bucket
	total   int
}

// NewDistribution builds the histogram for one axis. Values outside the
// scale are a data-integrity error, not something to clamp silently.
func NewDistribution(scale grid.Scale, values []float64) (*Distribution, error) {
	counts := make(map[float64]int, len(values))
	for _, v := range values {
		if !scale.Contains(v) {
			return nil, eris.Errorf("analytics: value %.2f outside scale %s", v, scale)
		}
		counts[v]++
	}

	keys := make([]float64, 0, len(counts))
	for v := range counts {
		keys = append(keys, v)
	}
	sort.Float64s(keys)

	d := &Distribution{scale: scale, total: len(values)}
	for _, v := range keys {
		share := 0.0
		if d.total > 0 {
			share = float64(counts[v]) / float64(d.total)
		}
		d.buckets = append(d.buckets, Bucket{Value: v, Count: counts[v], Share: share})
	}
	return d, nil
}

// Buckets returns the histogram entries in ascending value order.
func (d *Distribution) Buckets() []Bucket { return d.buckets }

// Total returns the number of recorded values.
func (d *Distribution) Total() int { return d.total }

// Scale returns the axis the distribution was built against.
func (d *Distribution) Scale() grid.Scale { return d.scale }

// Count returns how many values equal v.
func (d *Distribution) Count(v float64) int {
	for _, b := range d.buckets {
		if b.Value == v {
			return b.Count
		}
	}
	return 0
}

// Mean returns the arithmetic mean, 0 for an empty distribution.
func (d *Distribution) Mean() float64 {
	if d.total == 0 {
		return 0
	}
	var sum float64
	for _, b := range d.buckets {
		sum += b.Value * float64(b.Count)
	}
	return sum / float64(d.total)
}

// Median returns the middle value, averaging the two central values for an
// even count. 0 for an empty distribution.
func (d *Distribution) Median() float64 {
	if d.total == 0 {
		return 0
	}
	lower := d.valueAt((d.total - 1) / 2)
	upper := d.valueAt(d.total / 2)
	return (lower + upper) / 2
}

// valueAt returns the i-th value (0-based) of the sorted expansion of the
// histogram.
func (d *Distribution) valueAt(i int) float64 {
	seen := 0
	for _, b := range d.buckets {
		seen += b.Count
		if i < seen {
			return b.Value
		}
	}
	return 0
}

// Modes returns the most frequent values, ascending. Several values tie when
// they share the top count; empty input yields no modes.
func (d *Distribution) Modes() []float64 {
	best := 0
	for _, b := range d.buckets {
		if b.Count > best {
			best = b.Count
		}
	}
	if best == 0 {
		return nil
	}
	var modes []float64
	for _, b := range d.buckets {
		if b.Count == best {
			modes = append(modes, b.Value)
		}
	}
	return modes
}
