package core

import (
	"github.com/jackc/pgx/v5/pgtype"
)

// Package types accepted by the grid parser. "Curah" is read as Bulk.
const (
	PackageBag  = "Bag"
	PackageBulk = "Bulk"
)

// Order-key offsets per package type. Bulk records sort after every Bag
// record of the same region.
const (
	orderOffsetBag  = 0
	orderOffsetBulk = 100
)

// LongRecord is one unpivoted cell of the current-period report.
type LongRecord struct {
	Region      string  `json:"region"`
	PackageType string  `json:"package_type"` // PackageBag or PackageBulk
	Producer    string  `json:"producer"`
	Holding     string  `json:"holding"`
	Brand       string  `json:"brand"`
	Value       float64 `json:"value"`
	OrderKey    int     `json:"order_key"` // package offset + 1-based producer rank
}

// Period identifies the reporting month of the current spreadsheet.
type Period struct {
	Year  int `json:"year"`
	Month int `json:"month"` // 1-12
}

// Row is one line of the working table: historical rows loaded from the
// database workbook and current-period rows built from LongRecords share it.
// Segment and Area are absent (Valid=false) when no mapping supplied them.
type Row struct {
	Year        int
	Month       string // month name, e.g. "Jan", "Agt"
	MonthIndex  int
	Region      string
	Island      string
	Producer    string
	Total       float64
	PackageType string
	Country     string
	Holding     string
	Brand       string
	Segment     pgtype.Text
	Area        pgtype.Text
}

// Table is a set of rows plus the recognized columns that were present in
// its source.
type Table struct {
	Columns []string
	Rows    []Row
}

// HasColumn reports whether the table carries the named column.
func (t Table) HasColumn(name string) bool {
	for _, c := range t.Columns {
		if c == name {
			return true
		}
	}
	return false
}

// RawTable is a header row plus text rows, as read from a workbook or CSV
// file before any typing.
type RawTable struct {
	Name   string
	Header []string
	Rows   [][]string
}

// HeaderIndex maps column names (lowercase) to their position in a row.
type HeaderIndex map[string]int

// FieldType represents the expected data type of a table column.
type FieldType int

const (
	FieldText FieldType = iota
	FieldInt
	FieldNumeric
)

// FieldSpec describes one recognized column of an input table.
type FieldSpec struct {
	Name     string    // Canonical header, as written in exported workbooks
	Aliases  []string  // Other accepted headers (matched case-insensitively)
	Type     FieldType // Expected data type
	Required bool      // Column must exist in the header
}

// MetricRow is a deduplicated working-table row with its computed measures.
//
// Growth measures are nil when the group has no row at the required lag or
// when either side of the comparison is undefined. MS and MSY are NaN for
// rows whose share denominator is zero; those groups are listed in
// Result.Indeterminate.
type MetricRow struct {
	Row

	MS            float64
	MoMGrowth     *float64
	YoYGrowth     *float64
	MSYTD         float64
	YtDGrowth     *float64
	TotalBrandYtD float64
	TotalAllYtD   float64
	MSY           float64
}
