package dataset

import (
	"bufio"
	"encoding/binary"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/edaniels/golog"
	"github.com/edaniels/lidario"
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"go.viam.com/utils"
)

// NewFromFile reads a point-associated dataset from a LAS or PCD file. The
// scalar attribute is the point intensity where the format carries one, 1
// otherwise.
func NewFromFile(fn string, logger golog.Logger) (*Data, error) {
	switch filepath.Ext(fn) {
	case ".las":
		return NewFromLASFile(fn, logger)
	case ".pcd":
		//nolint:gosec
		f, err := os.Open(fn)
		if err != nil {
			return nil, err
		}
		defer utils.UncheckedErrorFunc(f.Close)
		return ReadPCD(f)
	default:
		return nil, errors.Errorf("do not know how to read file %q", fn)
	}
}

// NewFromLASFile reads a point-associated dataset from a LAS file, using the
// point intensities as the scalar attribute.
func NewFromLASFile(fn string, logger golog.Logger) (*Data, error) {
	lf, err := lidario.NewLasFile(fn, "r")
	if err != nil {
		return nil, err
	}
	defer utils.UncheckedErrorFunc(lf.Close)

	points := make([]r3.Vector, 0, lf.Header.NumberPoints)
	values := make([]float64, 0, lf.Header.NumberPoints)
	for i := 0; i < lf.Header.NumberPoints; i++ {
		p, err := lf.LasPoint(i)
		if err != nil {
			return nil, err
		}
		data := p.PointData()
		points = append(points, r3.Vector{X: data.X, Y: data.Y, Z: data.Z})
		values = append(values, float64(data.Intensity))
	}
	logger.Debugf("read %d LAS points from %q", len(points), fn)
	return NewPointData("intensity", points, values)
}

// pcdHeader is the subset of a PCD header the reader needs.
type pcdHeader struct {
	fields []string
	sizes  []int
	types  []string
	points int
	binary bool
}

// ReadPCD reads a point-associated dataset from ascii or binary PCD input.
// An intensity field becomes the scalar attribute when present.
func ReadPCD(in io.Reader) (*Data, error) {
	reader := bufio.NewReader(in)
	header, err := parsePCDHeader(reader)
	if err != nil {
		return nil, err
	}

	xi, yi, zi := -1, -1, -1
	ii := -1
	for i, f := range header.fields {
		switch f {
		case "x":
			xi = i
		case "y":
			yi = i
		case "z":
			zi = i
		case "intensity":
			ii = i
		}
	}
	if xi < 0 || yi < 0 || zi < 0 {
		return nil, errors.Errorf("pcd is missing a coordinate field, got %v", header.fields)
	}

	points := make([]r3.Vector, 0, header.points)
	values := make([]float64, 0, header.points)
	record := make([]float64, len(header.fields))
	for n := 0; n < header.points; n++ {
		if header.binary {
			err = readPCDBinaryRecord(reader, header, record)
		} else {
			err = readPCDAsciiRecord(reader, header, record)
		}
		if err != nil {
			return nil, errors.Wrapf(err, "reading pcd point %d of %d", n, header.points)
		}
		points = append(points, r3.Vector{X: record[xi], Y: record[yi], Z: record[zi]})
		if ii >= 0 {
			values = append(values, record[ii])
		} else {
			values = append(values, 1)
		}
	}

	name := "intensity"
	return NewPointData(name, points, values)
}

func parsePCDHeader(reader *bufio.Reader) (*pcdHeader, error) {
	header := &pcdHeader{}
	for {
		line, err := reader.ReadString('\n')
		if err != nil {
			return nil, errors.Wrap(err, "incomplete pcd header")
		}
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		tokens := strings.Fields(line)
		key := tokens[0]
		args := tokens[1:]
		switch key {
		case "VERSION", "WIDTH", "HEIGHT", "VIEWPOINT", "COUNT":
			// Unused: POINTS carries the total and multi-count fields are not
			// supported.
		case "FIELDS":
			header.fields = args
		case "SIZE":
			header.sizes = make([]int, len(args))
			for i, a := range args {
				header.sizes[i], err = strconv.Atoi(a)
				if err != nil {
					return nil, errors.Wrapf(err, "invalid pcd SIZE %q", a)
				}
			}
		case "TYPE":
			header.types = args
		case "POINTS":
			header.points, err = strconv.Atoi(args[0])
			if err != nil {
				return nil, errors.Wrapf(err, "invalid pcd POINTS %q", args[0])
			}
		case "DATA":
			switch args[0] {
			case "ascii":
				header.binary = false
			case "binary":
				header.binary = true
			default:
				return nil, errors.Errorf("unsupported pcd data format %q", args[0])
			}
			if len(header.fields) == 0 || len(header.sizes) != len(header.fields) ||
				len(header.types) != len(header.fields) {
				return nil, errors.New("pcd header FIELDS, SIZE and TYPE are inconsistent")
			}
			return header, nil
		default:
			return nil, errors.Errorf("unknown pcd header entry %q", key)
		}
	}
}

func readPCDAsciiRecord(reader *bufio.Reader, header *pcdHeader, record []float64) error {
	line, err := reader.ReadString('\n')
	if err != nil && (!errors.Is(err, io.EOF) || strings.TrimSpace(line) == "") {
		return err
	}
	tokens := strings.Fields(line)
	if len(tokens) != len(header.fields) {
		return errors.Errorf("expected %d values per line, got %d", len(header.fields), len(tokens))
	}
	for i, tok := range tokens {
		record[i], err = strconv.ParseFloat(tok, 64)
		if err != nil {
			return err
		}
	}
	return nil
}

func readPCDBinaryRecord(reader *bufio.Reader, header *pcdHeader, record []float64) error {
	buf := make([]byte, 8)
	for i := range header.fields {
		size := header.sizes[i]
		if _, err := io.ReadFull(reader, buf[:size]); err != nil {
			return err
		}
		switch {
		case header.types[i] == "F" && size == 4:
			record[i] = float64(math.Float32frombits(binary.LittleEndian.Uint32(buf[:4])))
		case header.types[i] == "F" && size == 8:
			record[i] = math.Float64frombits(binary.LittleEndian.Uint64(buf[:8]))
		case header.types[i] == "I" && size == 4:
			record[i] = float64(int32(binary.LittleEndian.Uint32(buf[:4])))
		case header.types[i] == "U" && size == 4:
			record[i] = float64(binary.LittleEndian.Uint32(buf[:4]))
		default:
			return errors.Errorf("unsupported pcd field type %s%d", header.types[i], size)
		}
	}
	return nil
}
