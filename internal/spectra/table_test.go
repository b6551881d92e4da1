package spectra

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func writeCSV(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatalf("failed to write fixture: %v", err)
	}
	return path
}

const sampleCSV = `1100,1102,1104,1106,Moisture,Protein
0.51,0.52,0.53,0.54,9.1,12.5
0.61,0.62,0.63,0.64,9.4,13.1
0.71,0.72,0.73,0.74,9.2,11.8
`

func TestLoadTable(t *testing.T) {
	path := writeCSV(t, "cal.csv", sampleCSV)
	tab, err := LoadTable(path)
	if err != nil {
		t.Fatalf("LoadTable: %v", err)
	}

	if tab.NumRows() != 3 {
		t.Errorf("NumRows = %d, want 3", tab.NumRows())
	}
	wantWl := []float64{1100, 1102, 1104, 1106}
	if diff := cmp.Diff(wantWl, tab.Wavelengths); diff != "" {
		t.Errorf("Wavelengths mismatch (-want +got):\n%s", diff)
	}
	wantScalars := []string{"Moisture", "Protein"}
	if diff := cmp.Diff(wantScalars, tab.ScalarColumns()); diff != "" {
		t.Errorf("ScalarColumns mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadTableErrors(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr string
	}{
		{
			name:    "empty file",
			body:    "",
			wantErr: "empty table",
		},
		{
			name:    "header only",
			body:    "1100,1102,Protein\n",
			wantErr: "no data rows",
		},
		{
			name:    "no wavelength columns",
			body:    "Protein,Moisture\n12.5,9.1\n",
			wantErr: "no wavelength columns",
		},
		{
			name:    "non-numeric cell",
			body:    "1100,Protein\n0.5,abc\n",
			wantErr: "non-numeric cell",
		},
		{
			name:    "duplicate wavelength",
			body:    "1100,1100,Protein\n0.5,0.6,12.5\n",
			wantErr: "duplicate wavelength",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeCSV(t, "bad.csv", tt.body)
			_, err := LoadTable(path)
			if err == nil {
				t.Fatal("LoadTable succeeded, want error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %q, want substring %q", err, tt.wantErr)
			}
		})
	}
}

func TestLoadTablesConcatenates(t *testing.T) {
	p1 := writeCSV(t, "cal1.csv", sampleCSV)
	p2 := writeCSV(t, "cal2.csv", sampleCSV)

	tab, err := LoadTables(p1, p2)
	if err != nil {
		t.Fatalf("LoadTables: %v", err)
	}
	if tab.NumRows() != 6 {
		t.Errorf("NumRows = %d, want 6", tab.NumRows())
	}
}

func TestLoadTablesHeaderMismatch(t *testing.T) {
	p1 := writeCSV(t, "cal1.csv", sampleCSV)
	p2 := writeCSV(t, "cal2.csv", "1100,1102,Protein\n0.5,0.6,12.5\n")

	_, err := LoadTables(p1, p2)
	if err == nil || !strings.Contains(err.Error(), "header does not match") {
		t.Errorf("error = %v, want header mismatch", err)
	}
}

func TestSlice(t *testing.T) {
	path := writeCSV(t, "cal.csv", sampleCSV)
	tab, err := LoadTable(path)
	if err != nil {
		t.Fatalf("LoadTable: %v", err)
	}

	ds, err := tab.Slice(Band{Lo: 1102, Hi: 1104}, "Protein")
	if err != nil {
		t.Fatalf("Slice: %v", err)
	}

	if ds.NumSamples() != 3 || ds.NumChannels() != 2 {
		t.Fatalf("dims = %dx%d, want 3x2", ds.NumSamples(), ds.NumChannels())
	}
	if got := ds.X.At(1, 0); got != 0.62 {
		t.Errorf("X[1][0] = %v, want 0.62", got)
	}
	wantY := []float64{12.5, 13.1, 11.8}
	if diff := cmp.Diff(wantY, ds.Y); diff != "" {
		t.Errorf("Y mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]float64{1102, 1104}, ds.Wavelengths); diff != "" {
		t.Errorf("Wavelengths mismatch (-want +got):\n%s", diff)
	}
}

func TestSliceErrors(t *testing.T) {
	path := writeCSV(t, "cal.csv", sampleCSV)
	tab, err := LoadTable(path)
	if err != nil {
		t.Fatalf("LoadTable: %v", err)
	}

	if _, err := tab.Slice(Band{Lo: 2000, Hi: 2100}, "Protein"); err == nil {
		t.Error("Slice with out-of-range band succeeded, want error")
	}
	if _, err := tab.Slice(Band{Lo: 1104, Hi: 1102}, "Protein"); err == nil {
		t.Error("Slice with inverted band succeeded, want error")
	}
	if _, err := tab.Slice(Band{Lo: 1100, Hi: 1106}, "Starch"); err == nil {
		t.Error("Slice with missing target succeeded, want error")
	}
}
