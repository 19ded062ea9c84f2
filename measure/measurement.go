package measure

import (
	"math"
	"sort"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/stat"
)

// Measurement derives a scalar from a set of accumulators together with the
// sample count and accumulated weight of the region they describe.
type Measurement interface {
	// Name identifies the measurement, e.g. in CLI flags.
	Name() string
	// Accumulators returns prototype accumulators, one per statistic the
	// measurement needs, in the order Measure expects them.
	Accumulators() []Accumulator
	// CanMeasure reports whether the measurement is defined for a region with
	// the given sample count and accumulated weight.
	CanMeasure(numPoints int64, totalWeight float64) bool
	// Measure computes the scalar from accumulators laid out as returned by
	// Accumulators. It returns NaN when the measurement is undefined.
	Measure(accs []Accumulator, numPoints int64, totalWeight float64) float64
}

// FromName returns the built-in measurement with the given name.
func FromName(name string) (Measurement, error) {
	switch name {
	case "mean":
		return Mean{}, nil
	case "stddev":
		return StandardDeviation{}, nil
	case "min":
		return Min{}, nil
	case "max":
		return Max{}, nil
	case "median":
		return Median{}, nil
	case "entropy":
		return Entropy{}, nil
	default:
		return nil, errors.Errorf("unknown measurement %q", name)
	}
}

// Mean measures the weighted arithmetic mean of the samples.
type Mean struct{}

// Name returns "mean".
func (Mean) Name() string { return "mean" }

// Accumulators returns the sum prototype.
func (Mean) Accumulators() []Accumulator { return []Accumulator{NewSumAccumulator()} }

// CanMeasure needs at least one sample with positive weight.
func (Mean) CanMeasure(numPoints int64, totalWeight float64) bool {
	return numPoints >= 1 && totalWeight > 0
}

// Measure returns sum/weight.
func (m Mean) Measure(accs []Accumulator, numPoints int64, totalWeight float64) float64 {
	if !m.CanMeasure(numPoints, totalWeight) {
		return math.NaN()
	}
	return accs[0].(*sumAccumulator).sum / totalWeight
}

// StandardDeviation measures the weighted population standard deviation.
type StandardDeviation struct{}

// Name returns "stddev".
func (StandardDeviation) Name() string { return "stddev" }

// Accumulators returns the sum and squared sum prototypes.
func (StandardDeviation) Accumulators() []Accumulator {
	return []Accumulator{NewSumAccumulator(), NewSquaredSumAccumulator()}
}

// CanMeasure needs at least two samples to carry any spread.
func (StandardDeviation) CanMeasure(numPoints int64, totalWeight float64) bool {
	return numPoints >= 2 && totalWeight > 0
}

// Measure returns sqrt(E[x^2] - E[x]^2) over the weighted samples.
func (m StandardDeviation) Measure(accs []Accumulator, numPoints int64, totalWeight float64) float64 {
	if !m.CanMeasure(numPoints, totalWeight) {
		return math.NaN()
	}
	mean := accs[0].(*sumAccumulator).sum / totalWeight
	meanSq := accs[1].(*squaredSumAccumulator).sum / totalWeight
	variance := meanSq - mean*mean
	if variance < 0 {
		variance = 0
	}
	return math.Sqrt(variance)
}

// Min measures the smallest sample.
type Min struct{}

// Name returns "min".
func (Min) Name() string { return "min" }

// Accumulators returns the min bound prototype.
func (Min) Accumulators() []Accumulator { return []Accumulator{NewMinAccumulator()} }

// CanMeasure needs at least one sample.
func (Min) CanMeasure(numPoints int64, _ float64) bool { return numPoints >= 1 }

// Measure returns the tracked lower bound.
func (m Min) Measure(accs []Accumulator, numPoints int64, totalWeight float64) float64 {
	a := accs[0].(*boundAccumulator)
	if !m.CanMeasure(numPoints, totalWeight) || !a.seen {
		return math.NaN()
	}
	return a.bound
}

// Max measures the largest sample.
type Max struct{}

// Name returns "max".
func (Max) Name() string { return "max" }

// Accumulators returns the max bound prototype.
func (Max) Accumulators() []Accumulator { return []Accumulator{NewMaxAccumulator()} }

// CanMeasure needs at least one sample.
func (Max) CanMeasure(numPoints int64, _ float64) bool { return numPoints >= 1 }

// Measure returns the tracked upper bound.
func (m Max) Measure(accs []Accumulator, numPoints int64, totalWeight float64) float64 {
	a := accs[0].(*boundAccumulator)
	if !m.CanMeasure(numPoints, totalWeight) || !a.seen {
		return math.NaN()
	}
	return a.bound
}

// Median measures the weighted median of the samples.
type Median struct{}

// Name returns "median".
func (Median) Name() string { return "median" }

// Accumulators returns the value-retaining prototype.
func (Median) Accumulators() []Accumulator { return []Accumulator{NewValuesAccumulator()} }

// CanMeasure needs at least one sample.
func (Median) CanMeasure(numPoints int64, _ float64) bool { return numPoints >= 1 }

// Measure returns the empirical weighted 0.5 quantile.
func (m Median) Measure(accs []Accumulator, numPoints int64, totalWeight float64) float64 {
	a := accs[0].(*valuesAccumulator)
	if !m.CanMeasure(numPoints, totalWeight) || len(a.values) == 0 {
		return math.NaN()
	}
	values := make([]float64, len(a.values))
	weights := make([]float64, len(a.weights))
	copy(values, a.values)
	copy(weights, a.weights)
	sort.Sort(&weightedSamples{values, weights})
	return stat.Quantile(0.5, stat.Empirical, values, weights)
}

// Entropy measures the Shannon entropy of the sample distribution, estimated
// on a histogram with Sturges' bin count.
type Entropy struct{}

// Name returns "entropy".
func (Entropy) Name() string { return "entropy" }

// Accumulators returns the value-retaining prototype.
func (Entropy) Accumulators() []Accumulator { return []Accumulator{NewValuesAccumulator()} }

// CanMeasure needs at least one sample.
func (Entropy) CanMeasure(numPoints int64, _ float64) bool { return numPoints >= 1 }

// Measure bins the samples and returns stat.Entropy of the bin masses.
func (m Entropy) Measure(accs []Accumulator, numPoints int64, totalWeight float64) float64 {
	a := accs[0].(*valuesAccumulator)
	if !m.CanMeasure(numPoints, totalWeight) || len(a.values) == 0 {
		return math.NaN()
	}
	lo, hi := a.values[0], a.values[0]
	for _, v := range a.values {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	if lo == hi {
		return 0
	}
	numBins := int(math.Ceil(math.Log2(float64(len(a.values))))) + 1
	bins := make([]float64, numBins)
	var total float64
	for i, v := range a.values {
		bin := int(float64(numBins) * (v - lo) / (hi - lo))
		if bin == numBins {
			bin--
		}
		bins[bin] += a.weights[i]
		total += a.weights[i]
	}
	if total <= 0 {
		return math.NaN()
	}
	for i := range bins {
		bins[i] /= total
	}
	return stat.Entropy(bins)
}

// weightedSamples sorts values and their weights together by value.
type weightedSamples struct {
	values  []float64
	weights []float64
}

func (s *weightedSamples) Len() int           { return len(s.values) }
func (s *weightedSamples) Less(i, j int) bool { return s.values[i] < s.values[j] }
func (s *weightedSamples) Swap(i, j int) {
	s.values[i], s.values[j] = s.values[j], s.values[i]
	s.weights[i], s.weights[j] = s.weights[j], s.weights[i]
}
