package core

import (
	"cmp"
	"fmt"
	"slices"
	"strconv"
)

// FinalColumns is the fixed column order of the exported result.
var FinalColumns = []string{
	ColKey, ColYear, ColMonth, ColRegion, ColIsland, ColProducer, ColTotal,
	ColPackageType, ColCountry, ColHolding, ColBrand, ColMonthIndex,
	ColMS, ColMoMGrowth, ColYoYGrowth, ColYtDGrowth,
	ColTotalBrandYtD, ColTotalAllYtD, ColMSY,
}

// FinalRow is one exported row: a metric row plus its identifier key.
type FinalRow struct {
	Key string
	MetricRow
}

// FinalTable is the ranked result handed to exporters.
type FinalTable struct {
	Columns []string
	Rows    []FinalRow
}

// RowKey is the identifier used by consumers to join or deduplicate result
// rows: year, month name, region, brand and package concatenated.
func RowKey(r Row) string {
	return strconv.Itoa(r.Year) + r.Month + r.Region + r.Brand + r.PackageType
}

// NewFinalTable orders metric rows by (year, month index, brand) and adds
// the identifier key. With includeMapping, Segment and Area follow the fixed
// columns.
func NewFinalTable(rows []MetricRow, includeMapping bool) FinalTable {
	sorted := slices.Clone(rows)
	slices.SortStableFunc(sorted, func(a, b MetricRow) int {
		return cmp.Or(
			cmp.Compare(a.Year, b.Year),
			cmp.Compare(a.MonthIndex, b.MonthIndex),
			cmp.Compare(a.Brand, b.Brand),
		)
	})

	ft := FinalTable{
		Columns: slices.Clone(FinalColumns),
		Rows:    make([]FinalRow, len(sorted)),
	}
	if includeMapping {
		ft.Columns = append(ft.Columns, MappingColumns...)
	}
	for i, r := range sorted {
		ft.Rows[i] = FinalRow{Key: RowKey(r.Row), MetricRow: r}
	}
	return ft
}

// Value returns the typed value of column for the row: string, int,
// float64 (NaN for indeterminate shares) or nil for absent values.
func (r FinalRow) Value(column string) any {
	switch column {
	case ColKey:
		return r.Key
	case ColYear:
		return r.Year
	case ColMonth:
		return r.Month
	case ColRegion:
		return r.Region
	case ColIsland:
		return r.Island
	case ColProducer:
		return r.Producer
	case ColTotal:
		return r.Total
	case ColPackageType:
		return r.PackageType
	case ColCountry:
		return r.Country
	case ColHolding:
		return r.Holding
	case ColBrand:
		return r.Brand
	case ColMonthIndex:
		return r.MonthIndex
	case ColMS:
		return r.MS
	case ColMoMGrowth:
		return optional(r.MoMGrowth)
	case ColYoYGrowth:
		return optional(r.YoYGrowth)
	case ColYtDGrowth:
		return optional(r.YtDGrowth)
	case ColTotalBrandYtD:
		return r.TotalBrandYtD
	case ColTotalAllYtD:
		return r.TotalAllYtD
	case ColMSY:
		return r.MSY
	case ColSegment:
		return optionalText(r.Segment.String, r.Segment.Valid)
	case ColArea:
		return optionalText(r.Area.String, r.Area.Valid)
	default:
		return nil
	}
}

// Values returns the row's values in the table's column order.
func (t FinalTable) Values(i int) []any {
	out := make([]any, len(t.Columns))
	for c, name := range t.Columns {
		out[c] = t.Rows[i].Value(name)
	}
	return out
}

// Strings renders row i as text, with absent and NaN values blank.
func (t FinalTable) Strings(i int) []string {
	vals := t.Values(i)
	out := make([]string, len(vals))
	for c, v := range vals {
		switch v := v.(type) {
		case nil:
		case float64:
			out[c] = formatFloat(v)
		default:
			out[c] = fmt.Sprint(v)
		}
	}
	return out
}

func optional(p *float64) any {
	if p == nil {
		return nil
	}
	return *p
}

func optionalText(s string, valid bool) any {
	if !valid {
		return nil
	}
	return s
}
