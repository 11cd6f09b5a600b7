package pointcloud

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/banshee-data/sidewalk.report/internal/fsutil"
)

// ReadCSV loads a point tile exported as CSV. The header must name x, y and
// z columns; a label column is optional. Column order is free.
func ReadCSV(fsys fsutil.FileSystem, path string) (PointSet, error) {
	f, err := fsys.Open(path)
	if err != nil {
		return PointSet{}, fmt.Errorf("failed to open point file: %w", err)
	}
	defer f.Close()

	ps, err := DecodeCSV(f)
	if err != nil {
		return PointSet{}, fmt.Errorf("%s: %w", path, err)
	}
	logs.Diagf("read %d points from %s (labels=%t)", ps.Len(), path, ps.HasLabels())
	return ps, nil
}

// DecodeCSV parses CSV point records from r.
func DecodeCSV(r io.Reader) (PointSet, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	cr.ReuseRecord = true

	header, err := cr.Read()
	if err != nil {
		return PointSet{}, fmt.Errorf("failed to read header: %w", err)
	}
	col := map[string]int{"x": -1, "y": -1, "z": -1, "label": -1}
	for i, name := range header {
		name = strings.ToLower(strings.TrimSpace(name))
		if _, ok := col[name]; ok {
			col[name] = i
		}
	}
	for _, req := range []string{"x", "y", "z"} {
		if col[req] < 0 {
			return PointSet{}, fmt.Errorf("missing %q column", req)
		}
	}

	var ps PointSet
	withLabels := col["label"] >= 0
	if withLabels {
		ps.Labels = []int{}
	}
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return PointSet{}, fmt.Errorf("line %d: %w", line, err)
		}
		var p Point
		for _, f := range []struct {
			name string
			dst  *float64
		}{{"x", &p.X}, {"y", &p.Y}, {"z", &p.Z}} {
			v, err := strconv.ParseFloat(rec[col[f.name]], 64)
			if err != nil {
				return PointSet{}, fmt.Errorf("line %d: bad %s: %w", line, f.name, err)
			}
			*f.dst = v
		}
		ps.Points = append(ps.Points, p)
		if withLabels {
			l, err := strconv.Atoi(rec[col["label"]])
			if err != nil {
				return PointSet{}, fmt.Errorf("line %d: bad label: %w", line, err)
			}
			ps.Labels = append(ps.Labels, l)
		}
	}
	return ps, nil
}

// MaskColumn is a named boolean column appended by WriteCSV.
type MaskColumn struct {
	Name string
	Mask []bool
}

// WriteCSV stores ps in the layout ReadCSV accepts, followed by one 0/1
// column per mask.
func WriteCSV(fsys fsutil.FileSystem, path string, ps PointSet, masks ...MaskColumn) error {
	for _, m := range masks {
		if len(m.Mask) != ps.Len() {
			return fmt.Errorf("mask %q has %d entries for %d points", m.Name, len(m.Mask), ps.Len())
		}
	}
	f, err := fsys.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create point file: %w", err)
	}
	if err := EncodeCSV(f, ps, masks...); err != nil {
		f.Close()
		return fmt.Errorf("%s: %w", path, err)
	}
	return f.Close()
}

// EncodeCSV writes the records of WriteCSV to w.
func EncodeCSV(w io.Writer, ps PointSet, masks ...MaskColumn) error {
	cw := csv.NewWriter(w)
	header := []string{"x", "y", "z"}
	if ps.HasLabels() {
		header = append(header, "label")
	}
	for _, m := range masks {
		header = append(header, m.Name)
	}
	if err := cw.Write(header); err != nil {
		return err
	}
	rec := make([]string, len(header))
	for i, p := range ps.Points {
		rec = rec[:0]
		rec = append(rec,
			strconv.FormatFloat(p.X, 'f', -1, 64),
			strconv.FormatFloat(p.Y, 'f', -1, 64),
			strconv.FormatFloat(p.Z, 'f', -1, 64))
		if ps.HasLabels() {
			rec = append(rec, strconv.Itoa(ps.Labels[i]))
		}
		for _, m := range masks {
			if m.Mask[i] {
				rec = append(rec, "1")
			} else {
				rec = append(rec, "0")
			}
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
