// Package spectra loads and slices spectral CSV tables.
//
// A table holds one CSV file of near-infrared spectra: one row per sample,
// wavelength-named feature columns (headers that parse as floats, in
// nanometres) plus named scalar columns such as the analyte concentration.
package spectra

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"

	"gonum.org/v1/gonum/mat"
)

// Band selects a contiguous wavelength range, inclusive at both ends.
type Band struct {
	Lo float64 `json:"lo"`
	Hi float64 `json:"hi"`
}

// Table is one spectral CSV table held in memory.
type Table struct {
	Path string

	// Wavelengths holds the numeric value of each wavelength column, in
	// file order. wavelengthCols maps them back to column indices.
	Wavelengths    []float64
	wavelengthCols []int

	// scalarCols maps non-wavelength column names to column indices.
	scalarCols map[string]int

	header []string
	rows   [][]float64
}

// NumRows returns the number of samples in the table.
func (t *Table) NumRows() int { return len(t.rows) }

// ScalarColumns returns the names of the non-wavelength columns in file order.
func (t *Table) ScalarColumns() []string {
	names := make([]string, 0, len(t.scalarCols))
	for _, name := range t.header {
		if _, ok := t.scalarCols[name]; ok {
			names = append(names, name)
		}
	}
	return names
}

// LoadTable reads one spectral CSV file. Every cell must be numeric; column
// headers that parse as floats are treated as wavelength channels, all other
// headers as scalar columns.
func LoadTable(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open spectral table: %w", err)
	}
	defer f.Close()

	t, err := parseTable(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	t.Path = path
	return t, nil
}

func parseTable(r io.Reader) (*Table, error) {
	cr := csv.NewReader(r)

	header, err := cr.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("empty table")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	t := &Table{
		header:     header,
		scalarCols: make(map[string]int),
	}

	seenWavelength := make(map[float64]bool)
	for i, name := range header {
		if wl, err := strconv.ParseFloat(name, 64); err == nil {
			if seenWavelength[wl] {
				return nil, fmt.Errorf("duplicate wavelength column %s", name)
			}
			seenWavelength[wl] = true
			t.Wavelengths = append(t.Wavelengths, wl)
			t.wavelengthCols = append(t.wavelengthCols, i)
			continue
		}
		if _, dup := t.scalarCols[name]; dup {
			return nil, fmt.Errorf("duplicate column %q", name)
		}
		t.scalarCols[name] = i
	}
	if len(t.Wavelengths) == 0 {
		return nil, fmt.Errorf("no wavelength columns in header")
	}

	for line := 2; ; line++ {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read row: %w", err)
		}
		row := make([]float64, len(record))
		for i, cell := range record {
			v, err := strconv.ParseFloat(cell, 64)
			if err != nil {
				return nil, fmt.Errorf("line %d column %q: non-numeric cell %q", line, header[i], cell)
			}
			row[i] = v
		}
		t.rows = append(t.rows, row)
	}
	if len(t.rows) == 0 {
		return nil, fmt.Errorf("table has no data rows")
	}

	return t, nil
}

// LoadTables reads several CSV files and concatenates their rows. All files
// must share an identical header.
func LoadTables(paths ...string) (*Table, error) {
	if len(paths) == 0 {
		return nil, fmt.Errorf("no table paths given")
	}

	base, err := LoadTable(paths[0])
	if err != nil {
		return nil, err
	}
	for _, path := range paths[1:] {
		next, err := LoadTable(path)
		if err != nil {
			return nil, err
		}
		if !sameHeader(base.header, next.header) {
			return nil, fmt.Errorf("%s: header does not match %s", path, base.Path)
		}
		base.rows = append(base.rows, next.rows...)
	}
	return base, nil
}

func sameHeader(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// Slice selects the wavelength channels inside band and the named target
// column, producing a Dataset ready for training.
func (t *Table) Slice(band Band, target string) (*Dataset, error) {
	if band.Hi < band.Lo {
		return nil, fmt.Errorf("band hi %.1f below lo %.1f", band.Hi, band.Lo)
	}

	var cols []int
	var wavelengths []float64
	for i, wl := range t.Wavelengths {
		if wl >= band.Lo && wl <= band.Hi {
			cols = append(cols, t.wavelengthCols[i])
			wavelengths = append(wavelengths, wl)
		}
	}
	if len(cols) == 0 {
		return nil, fmt.Errorf("band [%.1f, %.1f] matches no wavelength columns", band.Lo, band.Hi)
	}

	targetCol, ok := t.scalarCols[target]
	if !ok {
		return nil, fmt.Errorf("target column %q not found", target)
	}

	x := mat.NewDense(len(t.rows), len(cols), nil)
	y := make([]float64, len(t.rows))
	for r, row := range t.rows {
		for c, col := range cols {
			x.Set(r, c, row[col])
		}
		y[r] = row[targetCol]
	}

	return NewDataset(x, y, wavelengths)
}
