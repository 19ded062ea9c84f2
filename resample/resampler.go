package resample

import (
	"github.com/edaniels/golog"
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"

	"go.viam.com/htgrid/dataset"
	"go.viam.com/htgrid/htg"
	"go.viam.com/htgrid/measure"
	"go.viam.com/htgrid/spatialmath"
)

const (
	// LeavesFieldName is the cell data array counting populated finest cells
	// under each node.
	LeavesFieldName = "Number of leaves"
	// PointsFieldName is the cell data array counting contributing samples
	// under each node.
	PointsFieldName = "Number of points"
)

const dblEpsilon = 2.220446049250313e-16

// Resampler converts datasets into adaptive hypertree grids according to one
// Config. A Resampler is good for any number of Run calls; each call holds
// its own state.
type Resampler struct {
	cfg    Config
	logger golog.Logger
	set    *measure.Set

	bounds            spatialmath.Bounds
	cellDims          [3]int
	resolutionPerTree []int
	maxResolution     int
	numChildren       int

	grids []multiResGrid

	out         *htg.Grid
	scalarName  string
	displayName string
}

// New validates the configuration and returns a Resampler.
func New(cfg Config, logger golog.Logger) (*Resampler, error) {
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid resampler configuration")
	}
	return &Resampler{
		cfg:    cfg,
		logger: logger,
		set:    measure.NewSet(cfg.Measurement, cfg.DisplayMeasurement),
	}, nil
}

// Run resamples the dataset onto a fresh hypertree grid. An empty input
// yields an initialized grid with no trees.
func (r *Resampler) Run(ds dataset.Dataset) (*htg.Grid, error) {
	r.progress(0)

	out, err := htg.NewGrid(r.cfg.Dimensions, r.cfg.BranchFactor)
	if err != nil {
		return nil, err
	}

	empty := ds.NumPoints() < 1
	if ds.Association() == dataset.CellAssociation {
		empty = ds.NumCells() < 1
	}
	if empty {
		r.logger.Debug("no data to convert")
		r.progress(1)
		return out, nil
	}

	r.initialize(ds, out)

	if err := r.createMultiResolutionGrids(ds); err != nil {
		return nil, err
	}

	r.generateTrees()

	if r.cfg.Extrapolate && ds.Association() == dataset.PointAssociation && r.set.HasPrimary() {
		r.extrapolateGaps()
	}

	r.grids = nil
	r.out = nil
	r.progress(1)
	return out, nil
}

// initialize binds a run to its output grid: domain bounds, uniform
// coordinates, per-depth resolution table, and the output field layout.
func (r *Resampler) initialize(ds dataset.Dataset, out *htg.Grid) {
	r.out = out
	r.bounds = ds.Bounds()
	r.cellDims = out.CellDims()
	r.numChildren = out.NumChildren()
	out.SetUniformCoordinates(r.bounds)

	r.resolutionPerTree = make([]int, r.cfg.MaxDepth+1)
	r.resolutionPerTree[0] = 1
	for depth := 1; depth <= r.cfg.MaxDepth; depth++ {
		r.resolutionPerTree[depth] = r.resolutionPerTree[depth-1] * r.cfg.BranchFactor
	}
	r.maxResolution = r.resolutionPerTree[r.cfg.MaxDepth]

	name := ds.AttributeName()
	r.scalarName, r.displayName = "", ""
	if r.set.HasPrimary() {
		r.scalarName = name + "_measure"
		out.AddScalarField(r.scalarName)
	}
	if r.set.HasDisplay() {
		r.displayName = name
		out.AddScalarField(r.displayName)
	}
	out.AddCountField(LeavesFieldName)
	out.AddCountField(PointsFieldName)
}

func (r *Resampler) progress(ratio float64) {
	if r.cfg.Progress != nil {
		r.cfg.Progress(ratio)
	}
}

// localIndex packs local coordinates inside a tree at the given depth,
// k-fastest: idx = k + j*R + i*R².
func (r *Resampler) localIndex(i, j, k, depth int) int64 {
	res := int64(r.resolutionPerTree[depth])
	return int64(k) + int64(j)*res + int64(i)*res*res
}

// localCoordinates is the inverse of localIndex.
func (r *Resampler) localCoordinates(idx int64, depth int) (int, int, int) {
	res := int64(r.resolutionPerTree[depth])
	return int(idx / (res * res)), int((idx / res) % res), int(idx % res)
}

// boxAt returns the bounds of the grid box with local coordinates (ii,jj,kk)
// at the given depth inside tree (i,j,k).
func (r *Resampler) boxAt(i, j, k, ii, jj, kk, depth int) spatialmath.Bounds {
	res := r.resolutionPerTree[depth]
	ires := float64(i*res + ii)
	jres := float64(j*res + jj)
	kres := float64(k*res + kk)
	nx := float64(r.cellDims[0] * res)
	ny := float64(r.cellDims[1] * res)
	nz := float64(r.cellDims[2] * res)
	return spatialmath.Bounds{
		XMin: r.bounds.XMin + ires/nx*r.bounds.SizeX(),
		XMax: r.bounds.XMin + (ires+1)/nx*r.bounds.SizeX(),
		YMin: r.bounds.YMin + jres/ny*r.bounds.SizeY(),
		YMax: r.bounds.YMin + (jres+1)/ny*r.bounds.SizeY(),
		ZMin: r.bounds.ZMin + kres/nz*r.bounds.SizeZ(),
		ZMax: r.bounds.ZMin + (kres+1)/nz*r.bounds.SizeZ(),
	}
}

// boxCenter returns the center of the same grid box.
func (r *Resampler) boxCenter(i, j, k, ii, jj, kk, depth int) r3.Vector {
	res := r.resolutionPerTree[depth]
	return r3.Vector{
		X: r.bounds.XMin + (0.5+float64(i*res+ii))/float64(r.cellDims[0]*res)*r.bounds.SizeX(),
		Y: r.bounds.YMin + (0.5+float64(j*res+jj))/float64(r.cellDims[1]*res)*r.bounds.SizeY(),
		Z: r.bounds.ZMin + (0.5+float64(k*res+kk))/float64(r.cellDims[2]*res)*r.bounds.SizeZ(),
	}
}
