// Command htgrid resamples a point cloud file onto an adaptive hypertree
// grid and reports or exports the result.
package main

import (
	"encoding/json"
	"math"
	"os"

	"github.com/edaniels/golog"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"
	"go.uber.org/multierr"

	"go.viam.com/htgrid/dataset"
	"go.viam.com/htgrid/htg"
	"go.viam.com/htgrid/measure"
	"go.viam.com/htgrid/resample"
)

var logger = golog.NewDevelopmentLogger("htgrid")

var app = &cli.App{
	Name:            "htgrid",
	Usage:           "resample point clouds onto adaptive hypertree grids",
	HideHelpCommand: true,
	Commands: []*cli.Command{
		{
			Name:   "resample",
			Usage:  "resample a LAS or PCD point cloud",
			Action: resampleAction,
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:     "input",
					Aliases:  []string{"i"},
					Usage:    "point cloud `FILE` (.las or .pcd)",
					Required: true,
				},
				&cli.IntSliceFlag{
					Name:  "dimensions",
					Usage: "lattice vertex counts along x,y,z",
					Value: cli.NewIntSlice(2, 2, 2),
				},
				&cli.IntFlag{
					Name:  "branch-factor",
					Usage: "subdivision factor per axis",
					Value: 2,
				},
				&cli.IntFlag{
					Name:  "max-depth",
					Usage: "deepest refinement level",
					Value: 4,
				},
				&cli.StringFlag{
					Name:  "measurement",
					Usage: "primary measurement (mean, stddev, min, max, median, entropy)",
					Value: "mean",
				},
				&cli.StringFlag{
					Name:  "display",
					Usage: "display measurement, optional",
				},
				&cli.Float64Flag{
					Name:  "min",
					Usage: "lower bound of the subdivision range predicate",
					Value: math.Inf(-1),
				},
				&cli.Float64Flag{
					Name:  "max",
					Usage: "upper bound of the subdivision range predicate",
					Value: math.Inf(1),
				},
				&cli.BoolFlag{
					Name:  "in-range",
					Usage: "subdivide inside the [min,max] range rather than outside",
					Value: true,
				},
				&cli.Int64Flag{
					Name:  "min-points",
					Usage: "minimum samples per subdividable subtree",
					Value: 1,
				},
				&cli.BoolFlag{
					Name:  "no-empty-cells",
					Usage: "forbid subdividing where geometry would be hidden by empty cells",
				},
				&cli.BoolFlag{
					Name:  "extrapolate",
					Usage: "fill masked leaves from valid neighbors",
				},
				&cli.StringFlag{
					Name:    "output",
					Aliases: []string{"o"},
					Usage:   "write the grid as JSON to `FILE`",
				},
			},
		},
	},
}

func main() {
	if err := app.Run(os.Args); err != nil {
		logger.Fatal(err)
	}
}

func resampleAction(c *cli.Context) error {
	dims := c.IntSlice("dimensions")
	if len(dims) != 3 {
		return errors.Errorf("expected 3 dimensions, got %d", len(dims))
	}

	primary, err := measure.FromName(c.String("measurement"))
	if err != nil {
		return err
	}
	var display measure.Measurement
	if name := c.String("display"); name != "" {
		if display, err = measure.FromName(name); err != nil {
			return err
		}
	}

	cfg := resample.DefaultConfig()
	cfg.Dimensions = [3]int{dims[0], dims[1], dims[2]}
	cfg.BranchFactor = c.Int("branch-factor")
	cfg.MaxDepth = c.Int("max-depth")
	cfg.Measurement = primary
	cfg.DisplayMeasurement = display
	cfg.Min = c.Float64("min")
	cfg.Max = c.Float64("max")
	cfg.InRange = c.Bool("in-range")
	cfg.MinPointsPerSubtree = c.Int64("min-points")
	cfg.NoEmptyCells = c.Bool("no-empty-cells")
	cfg.Extrapolate = c.Bool("extrapolate")

	ds, err := dataset.NewFromFile(c.String("input"), logger)
	if err != nil {
		return errors.Wrap(err, "reading input")
	}
	logger.Infow("loaded point cloud", "points", ds.NumPoints(), "bounds", ds.Bounds().String())

	r, err := resample.New(cfg, logger)
	if err != nil {
		return err
	}
	out, err := r.Run(ds)
	if err != nil {
		return errors.Wrap(err, "resampling")
	}

	printSummary(c, out)

	if path := c.String("output"); path != "" {
		if err := writeGridJSON(out, path); err != nil {
			return errors.Wrap(err, "writing output")
		}
		logger.Infow("wrote grid", "path", path)
	}
	return nil
}

func printSummary(c *cli.Context, g *htg.Grid) {
	var leaves, masked int64
	for i := 0; i < g.NumTrees(); i++ {
		tr := g.Tree(i)
		if tr == nil {
			continue
		}
		for v := 0; v < tr.NumVertices(); v++ {
			if !tr.IsLeaf(v) {
				continue
			}
			leaves++
			if g.Mask().Get(tr.GlobalIndexFromLocal(v)) {
				masked++
			}
		}
	}

	tw := table.NewWriter()
	tw.SetOutputMirror(c.App.Writer)
	tw.AppendHeader(table.Row{"trees", "nodes", "leaves", "masked leaves"})
	tw.AppendRow(table.Row{g.NumTrees(), g.NumNodes(), leaves, masked})
	tw.Render()

	fields := table.NewWriter()
	fields.SetOutputMirror(c.App.Writer)
	fields.AppendHeader(table.Row{"field", "min", "max"})
	for _, name := range g.FieldNames() {
		if values := g.ScalarField(name); values != nil {
			lo, hi := scalarRange(values)
			fields.AppendRow(table.Row{name, lo, hi})
			continue
		}
		counts := g.CountField(name)
		lo, hi := countRange(counts)
		fields.AppendRow(table.Row{name, lo, hi})
	}
	fields.Render()
}

func scalarRange(values []float64) (float64, float64) {
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, v := range values {
		if math.IsNaN(v) {
			continue
		}
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	return lo, hi
}

func countRange(values []int64) (int64, int64) {
	var lo, hi int64
	for i, v := range values {
		if i == 0 || v < lo {
			lo = v
		}
		if i == 0 || v > hi {
			hi = v
		}
	}
	return lo, hi
}

// gridJSON is the export layout: enough to rebuild the tree topology and the
// per-node fields. Undefined scalar values are exported as nulls since JSON
// cannot carry NaN.
type gridJSON struct {
	Dimensions   [3]int                `json:"dimensions"`
	BranchFactor int                   `json:"branchFactor"`
	XCoordinates []float64             `json:"xCoordinates"`
	YCoordinates []float64             `json:"yCoordinates"`
	ZCoordinates []float64             `json:"zCoordinates"`
	Trees        []treeJSON            `json:"trees"`
	ScalarFields map[string][]*float64 `json:"scalarFields"`
	CountFields  map[string][]int64    `json:"countFields"`
	Mask         []bool                `json:"mask"`
}

type treeJSON struct {
	Index       int     `json:"index"`
	GlobalStart int64   `json:"globalStart"`
	FirstChild  []int32 `json:"firstChild"`
}

func writeGridJSON(g *htg.Grid, path string) (err error) {
	out := gridJSON{
		Dimensions:   g.Dims(),
		BranchFactor: g.BranchFactor(),
		XCoordinates: g.XCoordinates(),
		YCoordinates: g.YCoordinates(),
		ZCoordinates: g.ZCoordinates(),
		ScalarFields: map[string][]*float64{},
		CountFields:  map[string][]int64{},
		Mask:         make([]bool, g.NumNodes()),
	}
	for _, name := range g.FieldNames() {
		if values := g.ScalarField(name); values != nil {
			nullable := make([]*float64, len(values))
			for i := range values {
				if !math.IsNaN(values[i]) {
					v := values[i]
					nullable[i] = &v
				}
			}
			out.ScalarFields[name] = nullable
			continue
		}
		out.CountFields[name] = g.CountField(name)
	}
	for i := range out.Mask {
		out.Mask[i] = g.Mask().Get(int64(i))
	}
	for i := 0; i < g.NumTrees(); i++ {
		tr := g.Tree(i)
		if tr == nil {
			continue
		}
		out.Trees = append(out.Trees, treeJSON{
			Index:       i,
			GlobalStart: tr.GlobalIndexStart(),
			FirstChild:  tr.FirstChildren(),
		})
	}

	//nolint:gosec
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		err = multierr.Combine(err, f.Close())
	}()
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
