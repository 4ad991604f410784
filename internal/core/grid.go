package core

import (
	"fmt"
	"strings"
)

// RawGrid is an immutable, headerless 2-D grid of text cells as read from a
// worksheet. Rows may have different lengths; cells past the end of a row are
// absent and read as "".
type RawGrid struct {
	cells [][]string
	cols  int
}

// NewRawGrid copies rows into a grid. The caller may reuse rows afterwards.
func NewRawGrid(rows [][]string) RawGrid {
	g := RawGrid{cells: make([][]string, len(rows))}
	for i, row := range rows {
		g.cells[i] = append([]string(nil), row...)
		if len(row) > g.cols {
			g.cols = len(row)
		}
	}
	return g
}

// Rows returns the number of rows in the grid.
func (g RawGrid) Rows() int { return len(g.cells) }

// Cols returns the width of the widest row.
func (g RawGrid) Cols() int { return g.cols }

// Cell returns the text at (row, col), or "" when the cell is absent.
func (g RawGrid) Cell(row, col int) string {
	if row < 0 || row >= len(g.cells) || col < 0 || col >= len(g.cells[row]) {
		return ""
	}
	return g.cells[row][col]
}

// lastPopulated returns the index of the rightmost non-blank cell in row,
// or -1 if the row is blank or absent.
func (g RawGrid) lastPopulated(row int) int {
	if row < 0 || row >= len(g.cells) {
		return -1
	}
	cells := g.cells[row]
	for c := len(cells) - 1; c >= 0; c-- {
		if strings.TrimSpace(cells[c]) != "" {
			return c
		}
	}
	return -1
}

// DefaultRegionMarker is the header token that identifies the region column.
const DefaultRegionMarker = "PROVINSI"

// HeaderLayout locates the header rows of the monthly report. Rows are
// 0-based grid indices.
type HeaderLayout struct {
	ProducerRow  int
	PackageRow   int
	BrandRow     int
	HoldingRow   int
	DataStartRow int
	Marker       string
}

// DefaultHeaderLayout is the layout of the association's monthly report:
// producers on spreadsheet row 6, package types on row 7, data from row 8,
// brands on row 52 and holding companies on row 53.
func DefaultHeaderLayout() HeaderLayout {
	return HeaderLayout{
		ProducerRow:  5,
		PackageRow:   6,
		BrandRow:     51,
		HoldingRow:   52,
		DataStartRow: 7,
		Marker:       DefaultRegionMarker,
	}
}

// Validate checks that the layout is usable before any grid is scanned.
func (l HeaderLayout) Validate() error {
	rows := []struct {
		name string
		idx  int
	}{
		{"producer", l.ProducerRow},
		{"package", l.PackageRow},
		{"brand", l.BrandRow},
		{"holding", l.HoldingRow},
		{"data start", l.DataStartRow},
	}

	var problems []string
	for _, r := range rows {
		if r.idx < 0 {
			problems = append(problems, fmt.Sprintf("%s row must not be negative (got %d)", r.name, r.idx))
		}
	}
	for _, r := range rows[:4] {
		if r.idx == l.DataStartRow {
			problems = append(problems, fmt.Sprintf("%s row must differ from the data start row (%d)", r.name, r.idx))
		}
	}
	if strings.TrimSpace(l.Marker) == "" {
		problems = append(problems, "region marker must not be empty")
	}

	if len(problems) > 0 {
		return &StructureError{
			Reason: ReasonInvalidLayout,
			Detail: strings.Join(problems, "; "),
		}
	}
	return nil
}

// normalizedMarker is the marker as compared against header text.
func (l HeaderLayout) normalizedMarker() string {
	return squashUpper(l.Marker)
}

// squashUpper removes all whitespace and upper-cases s.
func squashUpper(s string) string {
	return strings.ToUpper(strings.Join(strings.Fields(s), ""))
}
