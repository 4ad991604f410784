package store

import (
	"slices"
	"strings"

	"github.com/JonMunkholm/marketshare/internal/core"
)

// TableName is the SQL table holding history rows.
const TableName = "market_share_history"

// Column pairs a SQL column with the working-table column it stores.
type Column struct {
	Name  string
	Field string
}

// Columns lists the stored columns in insert and select order.
var Columns = []Column{
	{"tahun", core.ColYear},
	{"bulan", core.ColMonth},
	{"nbulan", core.ColMonthIndex},
	{"daerah", core.ColRegion},
	{"pulau", core.ColIsland},
	{"produsen", core.ColProducer},
	{"total", core.ColTotal},
	{"kemasan", core.ColPackageType},
	{"negara", core.ColCountry},
	{"holding", core.ColHolding},
	{"merk", core.ColBrand},
	{"segment", core.ColSegment},
	{"area_ap", core.ColArea},
}

// ColumnNames returns the SQL column names.
func ColumnNames() []string {
	names := make([]string, len(Columns))
	for i, c := range Columns {
		names[i] = c.Name
	}
	return names
}

// QuoteIdentifier quotes a SQL identifier, doubling embedded quotes.
func QuoteIdentifier(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// QuotedColumns returns the quoted, comma-joined column list.
func QuotedColumns() string {
	quoted := make([]string, len(Columns))
	for i, c := range Columns {
		quoted[i] = QuoteIdentifier(c.Name)
	}
	return strings.Join(quoted, ", ")
}

// Values returns a row's values in Columns order. Segment and Area are
// pgtype.Text, which both drivers accept as SQL NULL when absent.
func Values(r core.Row) []any {
	return []any{
		r.Year, r.Month, r.MonthIndex, r.Region, r.Island, r.Producer, r.Total,
		r.PackageType, r.Country, r.Holding, r.Brand, r.Segment, r.Area,
	}
}

// ScanTargets returns pointers into r in Columns order.
func ScanTargets(r *core.Row) []any {
	return []any{
		&r.Year, &r.Month, &r.MonthIndex, &r.Region, &r.Island, &r.Producer, &r.Total,
		&r.PackageType, &r.Country, &r.Holding, &r.Brand, &r.Segment, &r.Area,
	}
}

// Periods returns the distinct (year, month) pairs of rows in ascending order.
func Periods(rows []core.Row) []core.Period {
	var out []core.Period
	for _, r := range rows {
		p := core.Period{Year: r.Year, Month: r.MonthIndex}
		if !slices.Contains(out, p) {
			out = append(out, p)
		}
	}
	slices.SortFunc(out, func(a, b core.Period) int {
		if a.Year != b.Year {
			return a.Year - b.Year
		}
		return a.Month - b.Month
	})
	return out
}

// NewTable wraps loaded rows in a working table. Segment and Area columns
// are present only when some row carries a value for them.
func NewTable(rows []core.Row) core.Table {
	columns := slices.Clone(core.BaseColumns)
	if slices.ContainsFunc(rows, func(r core.Row) bool { return r.Segment.Valid }) {
		columns = append(columns, core.ColSegment)
	}
	if slices.ContainsFunc(rows, func(r core.Row) bool { return r.Area.Valid }) {
		columns = append(columns, core.ColArea)
	}
	return core.Table{Columns: columns, Rows: rows}
}
