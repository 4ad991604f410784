package core

import (
	"math"
	"testing"
)

func TestToPgText(t *testing.T) {
	tests := []struct {
		name       string
		input      string
		wantValid  bool
		wantString string
	}{
		{name: "segment", input: "Retail", wantValid: true, wantString: "Retail"},
		{name: "surrounded whitespace trimmed", input: "  Area Timur  ", wantValid: true, wantString: "Area Timur"},
		{name: "unicode preserved", input: "Semen Baturajá", wantValid: true, wantString: "Semen Baturajá"},
		{name: "empty string", input: "", wantValid: false},
		{name: "only spaces", input: "   ", wantValid: false},
		{name: "only tabs and newlines", input: "\t\n", wantValid: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := ToPgText(tt.input)

			if result.Valid != tt.wantValid {
				t.Errorf("ToPgText(%q).Valid = %v, want %v", tt.input, result.Valid, tt.wantValid)
				return
			}
			if tt.wantValid && result.String != tt.wantString {
				t.Errorf("ToPgText(%q).String = %q, want %q", tt.input, result.String, tt.wantString)
			}
		})
	}
}

// ----------------------------------------------------------------------------
// CleanCell Tests
// ----------------------------------------------------------------------------

func TestCleanCell(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "simple string unchanged", input: "Jatim", want: "Jatim"},
		{name: "empty string", input: "", want: ""},
		{name: "surrounded by whitespace", input: "  Jatim  ", want: "Jatim"},

		// Excel formula prefix handling
		{name: "Excel formula with quotes", input: `="Merk A"`, want: "Merk A"},
		{name: "Excel formula number as text", input: `="2024"`, want: "2024"},
		{name: "bare equals sign", input: "=SUM(A1)", want: "SUM(A1)"},

		// Quote handling
		{name: "double quotes removed", input: `"Bag"`, want: "Bag"},
		{name: "leading single quote (Excel text prefix)", input: "'2024", want: "2024"},
		{name: "whitespace and quotes", input: `  "Curah"  `, want: "Curah"},

		// BOM left on the first header by some exporters
		{name: "leading BOM", input: "\uFEFFTahun", want: "Tahun"},

		{name: "only quotes", input: `""`, want: ""},
		{name: "equals with quoted zero", input: `="0"`, want: "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CleanCell(tt.input); got != tt.want {
				t.Errorf("CleanCell(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

// ----------------------------------------------------------------------------
// MakeHeaderIndex Tests
// ----------------------------------------------------------------------------

func TestMakeHeaderIndex(t *testing.T) {
	tests := []struct {
		name   string
		header []string
		checks map[string]int // key -> expected index
	}{
		{
			name:   "history headers",
			header: []string{"Tahun", "Bulan", "Daerah"},
			checks: map[string]int{"tahun": 0, "bulan": 1, "daerah": 2},
		},
		{
			name:   "case insensitive lookup",
			header: []string{"TAHUN", "bUlAn", "Area AP"},
			checks: map[string]int{"tahun": 0, "bulan": 1, "area ap": 2},
		},
		{
			name:   "headers with quotes and whitespace cleaned",
			header: []string{`"Merk"`, "  Segment ", `="Total"`},
			checks: map[string]int{"merk": 0, "segment": 1, "total": 2},
		},
		{
			name:   "blank headers skipped",
			header: []string{"", "Merk", "  "},
			checks: map[string]int{"merk": 1},
		},
		{
			name:   "empty header",
			header: []string{},
			checks: map[string]int{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			idx := MakeHeaderIndex(tt.header)

			if len(idx) != len(tt.checks) {
				t.Errorf("MakeHeaderIndex(%v) has %d keys, want %d", tt.header, len(idx), len(tt.checks))
			}
			for key, wantPos := range tt.checks {
				gotPos, ok := idx[key]
				if !ok {
					t.Errorf("MakeHeaderIndex(%v)[%q] not found, want index %d", tt.header, key, wantPos)
					continue
				}
				if gotPos != wantPos {
					t.Errorf("MakeHeaderIndex(%v)[%q] = %d, want %d", tt.header, key, gotPos, wantPos)
				}
			}
		})
	}
}

func TestMakeHeaderIndex_DuplicateHeaders(t *testing.T) {
	// Leftmost occurrence wins, so a trailing copy of a column cannot shadow it.
	idx := MakeHeaderIndex([]string{"Merk", "Daerah", "merk"})
	if gotPos, ok := idx["merk"]; !ok || gotPos != 0 {
		t.Errorf("merk index = %d, want 0", gotPos)
	}
}

func TestFormatFloat(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{1500, "1500"},
		{0.125, "0.125"},
		{-2.5, "-2.5"},
		{0, "0"},
		{math.NaN(), ""},
	}
	for _, tt := range tests {
		if got := formatFloat(tt.in); got != tt.want {
			t.Errorf("formatFloat(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
