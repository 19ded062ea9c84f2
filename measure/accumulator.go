// Package measure defines the pluggable statistics of the resampler: value
// accumulators that capture sufficient statistics of weighted samples, and
// measurements that derive a scalar from a combination of accumulators.
package measure

import (
	"math"

	"github.com/pkg/errors"
)

// Accumulator incrementally captures a sufficient statistic of a stream of
// weighted scalar samples. Accumulators are value-semantic: Clone returns an
// independent copy and Merge folds another accumulator of the same kind in.
type Accumulator interface {
	// Add folds one sample with the given weight into the statistic.
	Add(value, weight float64)
	// Merge folds another accumulator of the same kind into this one.
	Merge(other Accumulator) error
	// Clone returns an independent copy of the accumulator.
	Clone() Accumulator
	// HasSameParameters reports whether other captures the same statistic, so
	// a single instance can serve several measurements.
	HasSameParameters(other Accumulator) bool
}

// sumAccumulator accumulates the weighted sum of samples.
type sumAccumulator struct {
	sum float64
}

// NewSumAccumulator returns an accumulator of the weighted sum of samples.
func NewSumAccumulator() Accumulator { return &sumAccumulator{} }

func (a *sumAccumulator) Add(value, weight float64) { a.sum += value * weight }

func (a *sumAccumulator) Merge(other Accumulator) error {
	o, ok := other.(*sumAccumulator)
	if !ok {
		return errors.Errorf("cannot merge %T into %T", other, a)
	}
	a.sum += o.sum
	return nil
}

func (a *sumAccumulator) Clone() Accumulator { c := *a; return &c }

func (a *sumAccumulator) HasSameParameters(other Accumulator) bool {
	_, ok := other.(*sumAccumulator)
	return ok
}

// squaredSumAccumulator accumulates the weighted sum of squared samples.
type squaredSumAccumulator struct {
	sum float64
}

// NewSquaredSumAccumulator returns an accumulator of the weighted sum of
// squared samples.
func NewSquaredSumAccumulator() Accumulator { return &squaredSumAccumulator{} }

func (a *squaredSumAccumulator) Add(value, weight float64) { a.sum += value * value * weight }

func (a *squaredSumAccumulator) Merge(other Accumulator) error {
	o, ok := other.(*squaredSumAccumulator)
	if !ok {
		return errors.Errorf("cannot merge %T into %T", other, a)
	}
	a.sum += o.sum
	return nil
}

func (a *squaredSumAccumulator) Clone() Accumulator { c := *a; return &c }

func (a *squaredSumAccumulator) HasSameParameters(other Accumulator) bool {
	_, ok := other.(*squaredSumAccumulator)
	return ok
}

// boundAccumulator tracks an extremum of the samples. Weights do not affect
// extrema; they are accepted for interface uniformity.
type boundAccumulator struct {
	max   bool
	bound float64
	seen  bool
}

// NewMinAccumulator returns an accumulator of the smallest sample.
func NewMinAccumulator() Accumulator { return &boundAccumulator{} }

// NewMaxAccumulator returns an accumulator of the largest sample.
func NewMaxAccumulator() Accumulator { return &boundAccumulator{max: true} }

func (a *boundAccumulator) Add(value, _ float64) {
	if !a.seen {
		a.bound = value
		a.seen = true
		return
	}
	if a.max {
		a.bound = math.Max(a.bound, value)
	} else {
		a.bound = math.Min(a.bound, value)
	}
}

func (a *boundAccumulator) Merge(other Accumulator) error {
	o, ok := other.(*boundAccumulator)
	if !ok || o.max != a.max {
		return errors.Errorf("cannot merge %T into %T", other, a)
	}
	if o.seen {
		a.Add(o.bound, 1)
	}
	return nil
}

func (a *boundAccumulator) Clone() Accumulator { c := *a; return &c }

func (a *boundAccumulator) HasSameParameters(other Accumulator) bool {
	o, ok := other.(*boundAccumulator)
	return ok && o.max == a.max
}

// valuesAccumulator retains every sample with its weight, for measurements
// that need the full distribution (median, entropy).
type valuesAccumulator struct {
	values  []float64
	weights []float64
}

// NewValuesAccumulator returns an accumulator retaining every weighted sample.
func NewValuesAccumulator() Accumulator { return &valuesAccumulator{} }

func (a *valuesAccumulator) Add(value, weight float64) {
	a.values = append(a.values, value)
	a.weights = append(a.weights, weight)
}

func (a *valuesAccumulator) Merge(other Accumulator) error {
	o, ok := other.(*valuesAccumulator)
	if !ok {
		return errors.Errorf("cannot merge %T into %T", other, a)
	}
	a.values = append(a.values, o.values...)
	a.weights = append(a.weights, o.weights...)
	return nil
}

func (a *valuesAccumulator) Clone() Accumulator {
	c := &valuesAccumulator{
		values:  make([]float64, len(a.values)),
		weights: make([]float64, len(a.weights)),
	}
	copy(c.values, a.values)
	copy(c.weights, a.weights)
	return c
}

func (a *valuesAccumulator) HasSameParameters(other Accumulator) bool {
	_, ok := other.(*valuesAccumulator)
	return ok
}
