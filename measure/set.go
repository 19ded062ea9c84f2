package measure

import "math"

// Set binds a primary and an optional display measurement to a shared union
// of accumulators, so that a statistic required by both is captured once per
// sample. The primary measurement's accumulators occupy the leading slots of
// the union; display accumulators are mapped onto matching union slots where
// their parameters coincide.
type Set struct {
	primary      Measurement
	display      Measurement
	prototypes   []Accumulator
	primaryCount int
	displayMap   []int
}

// NewSet builds the accumulator union for the given measurements. Either
// measurement may be nil.
func NewSet(primary, display Measurement) *Set {
	s := &Set{primary: primary, display: display}
	if primary != nil {
		for _, proto := range primary.Accumulators() {
			s.prototypes = append(s.prototypes, proto.Clone())
		}
		s.primaryCount = len(s.prototypes)
	}
	if display != nil {
		for _, proto := range display.Accumulators() {
			slot := -1
			for i, existing := range s.prototypes {
				if proto.HasSameParameters(existing) {
					slot = i
					break
				}
			}
			if slot < 0 {
				slot = len(s.prototypes)
				s.prototypes = append(s.prototypes, proto.Clone())
			}
			s.displayMap = append(s.displayMap, slot)
		}
	}
	return s
}

// HasPrimary reports whether a primary measurement is configured.
func (s *Set) HasPrimary() bool { return s.primary != nil }

// HasDisplay reports whether a display measurement is configured.
func (s *Set) HasDisplay() bool { return s.display != nil }

// Empty reports whether no measurement is configured at all.
func (s *Set) Empty() bool { return s.primary == nil && s.display == nil }

// NumAccumulators returns the size of the deduplicated union.
func (s *Set) NumAccumulators() int { return len(s.prototypes) }

// NewAccumulators returns a fresh union of accumulators cloned from the
// prototypes, laid out as MeasurePrimary and MeasureDisplay expect.
func (s *Set) NewAccumulators() []Accumulator {
	accs := make([]Accumulator, len(s.prototypes))
	for i, proto := range s.prototypes {
		accs[i] = proto.Clone()
	}
	return accs
}

// AddSample folds one weighted sample into every distinct accumulator of the
// union exactly once.
func (s *Set) AddSample(accs []Accumulator, value, weight float64) {
	for _, acc := range accs {
		acc.Add(value, weight)
	}
}

// CanMeasure reports whether every configured measurement is defined for a
// region with the given sample count and weight.
func (s *Set) CanMeasure(numPoints int64, totalWeight float64) bool {
	if s.primary != nil && !s.primary.CanMeasure(numPoints, totalWeight) {
		return false
	}
	if s.display != nil && !s.display.CanMeasure(numPoints, totalWeight) {
		return false
	}
	return true
}

// MeasurePrimary computes the primary measurement from a union of
// accumulators, NaN when no primary measurement is configured.
func (s *Set) MeasurePrimary(accs []Accumulator, numPoints int64, totalWeight float64) float64 {
	if s.primary == nil {
		return math.NaN()
	}
	return s.primary.Measure(accs[:s.primaryCount], numPoints, totalWeight)
}

// MeasureDisplay computes the display measurement from a union of
// accumulators, NaN when no display measurement is configured.
func (s *Set) MeasureDisplay(accs []Accumulator, numPoints int64, totalWeight float64) float64 {
	if s.display == nil {
		return math.NaN()
	}
	gathered := make([]Accumulator, len(s.displayMap))
	for i, slot := range s.displayMap {
		gathered[i] = accs[slot]
	}
	return s.display.Measure(gathered, numPoints, totalWeight)
}
