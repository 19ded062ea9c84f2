// Package resample converts a dataset of points or cells carrying one scalar
// attribute into an adaptive hypertree grid. The input bounds are tiled by a
// coarse lattice of trees; inside each tree a sparse multi-resolution grid of
// accumulator states is built bottom-up, then the tree is emitted top-down,
// subdividing wherever the configured policy and the aggregated data agree.
package resample

import (
	"math"

	"github.com/pkg/errors"
	"go.uber.org/multierr"

	"go.viam.com/htgrid/measure"
	"go.viam.com/htgrid/spatialmath"
)

// Config drives a resampling run.
type Config struct {
	// BranchFactor is the subdivision factor along each axis, at least 2.
	BranchFactor int
	// MaxDepth is the deepest refinement level, at least 0.
	MaxDepth int
	// Dimensions are the vertex counts of the coarse lattice, each at least 2.
	Dimensions [3]int

	// Measurement is the primary measurement driving refinement, optional.
	Measurement measure.Measurement
	// DisplayMeasurement is a second measurement emitted alongside the
	// primary one, optional.
	DisplayMeasurement measure.Measurement

	// Min, Max and InRange gate subdivision on the primary measurement: a
	// node subdivides only when InRange ? Min < value < Max : !(Min < value
	// < Max). With InRange set, Min = -Inf and Max = +Inf disable the
	// predicate; with InRange cleared, the same bounds block every subdivision.
	Min     float64
	Max     float64
	InRange bool

	// MinPointsPerSubtree is the smallest sample count a subtree needs to
	// stay subdividable, at least 1.
	MinPointsPerSubtree int64

	// NoEmptyCells forbids subdividing wherever a masked child would be
	// intersected by input geometry, so geometry never hides under a hole.
	NoEmptyCells bool

	// Extrapolate fills masked leaves by iterative neighbor averaging. Only
	// applies to point-associated inputs.
	Extrapolate bool

	// SnapTolerance inflates a grid box face a cell vertex lies on before
	// integrating, see spatialmath.DefaultSnapTolerance.
	SnapTolerance float64

	// Progress, when set, receives monotone completion ratios in [0, 1].
	Progress func(float64)

	minCache float64
	maxCache float64
}

// DefaultConfig mirrors the historical defaults of the filter.
func DefaultConfig() Config {
	return Config{
		BranchFactor:        2,
		MaxDepth:            1,
		Dimensions:          [3]int{2, 2, 2},
		Min:                 math.Inf(-1),
		Max:                 math.Inf(1),
		InRange:             true,
		MinPointsPerSubtree: 1,
		Extrapolate:         true,
		SnapTolerance:       spatialmath.DefaultSnapTolerance,
		minCache:            math.Inf(-1),
		maxCache:            math.Inf(1),
	}
}

// Validate reports every invalid setting at once.
func (c *Config) Validate() error {
	var err error
	if c.BranchFactor < 2 {
		err = multierr.Append(err, errors.Errorf("branch factor %d: must be >= 2", c.BranchFactor))
	}
	if c.MaxDepth < 0 {
		err = multierr.Append(err, errors.Errorf("max depth %d: must be >= 0", c.MaxDepth))
	}
	for _, d := range c.Dimensions {
		if d < 2 {
			err = multierr.Append(err, errors.Errorf("dimensions %v: each must be >= 2", c.Dimensions))
			break
		}
	}
	if c.MinPointsPerSubtree < 1 {
		err = multierr.Append(err, errors.Errorf("min points per subtree %d: must be >= 1", c.MinPointsPerSubtree))
	}
	if c.SnapTolerance < 0 {
		err = multierr.Append(err, errors.Errorf("snap tolerance %g: must be >= 0", c.SnapTolerance))
	}
	return err
}

// SetMinEnabled toggles the lower range bound. Disabling caches the current
// bound and opens the range; enabling restores the tighter of the cached and
// current bounds.
func (c *Config) SetMinEnabled(enabled bool) {
	if !enabled {
		if math.IsInf(c.Min, -1) {
			return
		}
		c.minCache = c.Min
		c.Min = math.Inf(-1)
		return
	}
	c.Min = math.Max(c.minCache, c.Min)
}

// SetMaxEnabled toggles the upper range bound, symmetric to SetMinEnabled.
func (c *Config) SetMaxEnabled(enabled bool) {
	if !enabled {
		if math.IsInf(c.Max, 1) {
			return
		}
		c.maxCache = c.Max
		c.Max = math.Inf(1)
		return
	}
	c.Max = math.Min(c.maxCache, c.Max)
}

// withinRange evaluates the subdivision range predicate on a value.
func (c *Config) withinRange(value float64) bool {
	inside := value > c.Min && value < c.Max
	if c.InRange {
		return inside
	}
	return !inside
}
