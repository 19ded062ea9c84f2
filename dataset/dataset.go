// Package dataset defines the input side of the resampler: datasets carrying
// points or cells with one scalar attribute, and the 3D cell types the
// geometry kernel can integrate against.
package dataset

import (
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"

	"go.viam.com/htgrid/spatialmath"
)

// Association tells whether the scalar attribute of a dataset is attached to
// its points or to its cells.
type Association int

const (
	// PointAssociation attaches one scalar per point.
	PointAssociation Association = iota
	// CellAssociation attaches one scalar per cell.
	CellAssociation
)

// Dataset is a collection of points or cells carrying one scalar attribute.
type Dataset interface {
	// Bounds returns the axis-aligned bounds of the geometry.
	Bounds() spatialmath.Bounds
	// Association tells which entities carry the scalar attribute.
	Association() Association
	// AttributeName names the scalar attribute, used for output field naming.
	AttributeName() string
	// NumPoints returns the number of points.
	NumPoints() int
	// Point returns the i-th point.
	Point(i int) r3.Vector
	// NumCells returns the number of cells.
	NumCells() int
	// Cell returns the i-th cell.
	Cell(i int) Cell
	// Value returns the scalar of the i-th point or cell per the association.
	Value(i int) float64
}

// Cell is a 3D cell of a dataset.
type Cell interface {
	// Bounds returns the axis-aligned bounds of the cell.
	Bounds() spatialmath.Bounds
	// NumPoints returns the number of vertices.
	NumPoints() int
	// Points returns the vertices.
	Points() []r3.Vector
	// EvaluatePosition reports whether x lies inside the cell, along with
	// interpolation weights when the cell supports them.
	EvaluatePosition(x r3.Vector) (bool, []float64)
}

// Data is an in-memory Dataset.
type Data struct {
	name        string
	association Association
	points      []r3.Vector
	cells       []Cell
	values      []float64
	bounds      spatialmath.Bounds
}

// NewPointData builds a point-associated dataset. points and values must have
// equal length.
func NewPointData(name string, points []r3.Vector, values []float64) (*Data, error) {
	if len(points) != len(values) {
		return nil, errors.Errorf("got %d points but %d values", len(points), len(values))
	}
	return &Data{
		name:        name,
		association: PointAssociation,
		points:      points,
		values:      values,
		bounds:      spatialmath.BoundsAroundPoints(points),
	}, nil
}

// NewCellData builds a cell-associated dataset. cells and values must have
// equal length.
func NewCellData(name string, cells []Cell, values []float64) (*Data, error) {
	if len(cells) != len(values) {
		return nil, errors.Errorf("got %d cells but %d values", len(cells), len(values))
	}
	d := &Data{
		name:        name,
		association: CellAssociation,
		cells:       cells,
		values:      values,
		bounds:      spatialmath.EmptyBounds(),
	}
	for _, c := range cells {
		for _, p := range c.Points() {
			d.bounds.Extend(p)
			d.points = append(d.points, p)
		}
	}
	return d, nil
}

// Bounds returns the bounds of the geometry.
func (d *Data) Bounds() spatialmath.Bounds { return d.bounds }

// Association tells which entities carry the scalar attribute.
func (d *Data) Association() Association { return d.association }

// AttributeName names the scalar attribute.
func (d *Data) AttributeName() string { return d.name }

// NumPoints returns the number of points.
func (d *Data) NumPoints() int { return len(d.points) }

// Point returns the i-th point.
func (d *Data) Point(i int) r3.Vector { return d.points[i] }

// NumCells returns the number of cells.
func (d *Data) NumCells() int { return len(d.cells) }

// Cell returns the i-th cell.
func (d *Data) Cell(i int) Cell { return d.cells[i] }

// Value returns the scalar of the i-th point or cell.
func (d *Data) Value(i int) float64 { return d.values[i] }
