package core

import (
	"fmt"
	"math"
	"strings"
)

// Column headers of the working table, as they appear in the database
// workbook and in exported results.
const (
	ColKey           = "X"
	ColYear          = "Tahun"
	ColMonth         = "Bulan"
	ColMonthIndex    = "nbulan"
	ColRegion        = "Daerah"
	ColIsland        = "Pulau"
	ColProducer      = "Produsen"
	ColTotal         = "Total"
	ColPackageType   = "Kemasan"
	ColCountry       = "Negara"
	ColHolding       = "Holding"
	ColBrand         = "Merk"
	ColSegment       = "Segment"
	ColArea          = "Area AP"
	ColMS            = "MS"
	ColMoMGrowth     = "MoM Growth %"
	ColYoYGrowth     = "YoY Growth %"
	ColYtDGrowth     = "YtD Growth %"
	ColTotalBrandYtD = "Total Merk YtD"
	ColTotalAllYtD   = "Total All YtD"
	ColMSY           = "MSY"
)

// BaseColumns are the identity and value columns every working table has.
var BaseColumns = []string{
	ColYear, ColMonth, ColMonthIndex, ColRegion, ColIsland, ColProducer,
	ColTotal, ColPackageType, ColCountry, ColHolding, ColBrand,
}

// MappingColumns are the optional classification columns.
var MappingColumns = []string{ColSegment, ColArea}

// HistorySchema describes the database workbook. The month index may be
// omitted; it is then derived from the month name.
var HistorySchema = []FieldSpec{
	{Name: ColYear, Aliases: []string{"year"}, Type: FieldInt, Required: true},
	{Name: ColMonth, Aliases: []string{"month", "month name"}, Type: FieldText, Required: true},
	{Name: ColMonthIndex, Aliases: []string{"month index", "month_index", "monthindex"}, Type: FieldInt},
	{Name: ColRegion, Aliases: []string{"region", "provinsi"}, Type: FieldText, Required: true},
	{Name: ColIsland, Aliases: []string{"island"}, Type: FieldText, Required: true},
	{Name: ColProducer, Aliases: []string{"producer"}, Type: FieldText, Required: true},
	{Name: ColTotal, Aliases: []string{"value"}, Type: FieldNumeric, Required: true},
	{Name: ColPackageType, Aliases: []string{"package", "package type", "package_type"}, Type: FieldText, Required: true},
	{Name: ColCountry, Aliases: []string{"country"}, Type: FieldText, Required: true},
	{Name: ColHolding, Aliases: []string{"holding company"}, Type: FieldText, Required: true},
	{Name: ColBrand, Aliases: []string{"brand"}, Type: FieldText, Required: true},
	{Name: ColSegment, Type: FieldText},
	{Name: ColArea, Aliases: []string{"area"}, Type: FieldText},
}

// MappingSchema describes the mapping workbook. No column is required on its
// own; segment lookup needs brand, region and segment, area lookup needs
// region and area.
var MappingSchema = []FieldSpec{
	{Name: ColBrand, Aliases: []string{"brand"}, Type: FieldText},
	{Name: ColRegion, Aliases: []string{"region", "provinsi"}, Type: FieldText},
	{Name: ColSegment, Type: FieldText},
	{Name: ColArea, Aliases: []string{"area"}, Type: FieldText},
}

// locateFields resolves each field spec against the header. Positions of absent
// columns are -1. Required columns that are absent are returned as missing.
func locateFields(idx HeaderIndex, specs []FieldSpec) (map[string]int, []string) {
	pos := make(map[string]int, len(specs))
	var missing []string
	for _, spec := range specs {
		p := -1
		for _, name := range append([]string{spec.Name}, spec.Aliases...) {
			if i, ok := idx[strings.ToLower(name)]; ok {
				p = i
				break
			}
		}
		pos[spec.Name] = p
		if p < 0 && spec.Required {
			missing = append(missing, spec.Name)
		}
	}
	return pos, missing
}

// cellAt returns the cleaned cell at position p of row, "" when absent.
func cellAt(row []string, p int) string {
	if p < 0 || p >= len(row) {
		return ""
	}
	return CleanCell(row[p])
}

func blankRow(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

// DecodeHistory types a raw database table against HistorySchema. Fully
// blank rows are skipped.
func DecodeHistory(raw RawTable) (Table, error) {
	pos, missing := locateFields(MakeHeaderIndex(raw.Header), HistorySchema)
	if len(missing) > 0 {
		return Table{}, &ValidationError{Table: "history", Missing: missing}
	}

	columns := append([]string(nil), BaseColumns...)
	for _, c := range MappingColumns {
		if pos[c] >= 0 {
			columns = append(columns, c)
		}
	}

	var (
		rows   []Row
		totals []string
	)
	for i, rec := range raw.Rows {
		if blankRow(rec) {
			continue
		}
		line := i + 1

		year, ok := wholeNumber(cellAt(rec, pos[ColYear]))
		if !ok || year <= 0 {
			return Table{}, &ValidationError{
				Table: "history", Row: line, Column: ColYear,
				Value: cellAt(rec, pos[ColYear]), Problem: "invalid number",
			}
		}

		month := cellAt(rec, pos[ColMonth])
		monthIndex, _ := wholeNumber(cellAt(rec, pos[ColMonthIndex]))
		if monthIndex == 0 {
			monthIndex = MonthIndexFromName(month)
		}
		if monthIndex < 1 || monthIndex > 12 {
			return Table{}, &ValidationError{
				Table: "history", Row: line, Column: ColMonthIndex,
				Value: month, Problem: "invalid month",
			}
		}

		rows = append(rows, Row{
			Year:        year,
			Month:       month,
			MonthIndex:  monthIndex,
			Region:      cellAt(rec, pos[ColRegion]),
			Island:      cellAt(rec, pos[ColIsland]),
			Producer:    cellAt(rec, pos[ColProducer]),
			PackageType: cellAt(rec, pos[ColPackageType]),
			Country:     cellAt(rec, pos[ColCountry]),
			Holding:     cellAt(rec, pos[ColHolding]),
			Brand:       cellAt(rec, pos[ColBrand]),
			Segment:     ToPgText(cellAt(rec, pos[ColSegment])),
			Area:        ToPgText(cellAt(rec, pos[ColArea])),
		})
		totals = append(totals, cellAt(rec, pos[ColTotal]))
	}

	for i, v := range ToNumbers(totals) {
		rows[i].Total = v
	}
	return Table{Columns: columns, Rows: rows}, nil
}

// wholeNumber reads an integer cell. Spreadsheet exports may write integers
// as "2024.0". Blank is (0, false).
func wholeNumber(s string) (int, bool) {
	if strings.TrimSpace(s) == "" {
		return 0, false
	}
	f := ToNumber(s)
	if f != math.Trunc(f) {
		return 0, false
	}
	return int(f), true
}

// RowValues renders a working-table row for the given columns, in the same
// text form DecodeHistory reads back.
func RowValues(r Row, columns []string) []string {
	out := make([]string, len(columns))
	for i, c := range columns {
		switch c {
		case ColYear:
			out[i] = fmt.Sprint(r.Year)
		case ColMonth:
			out[i] = r.Month
		case ColMonthIndex:
			out[i] = fmt.Sprint(r.MonthIndex)
		case ColRegion:
			out[i] = r.Region
		case ColIsland:
			out[i] = r.Island
		case ColProducer:
			out[i] = r.Producer
		case ColTotal:
			out[i] = formatFloat(r.Total)
		case ColPackageType:
			out[i] = r.PackageType
		case ColCountry:
			out[i] = r.Country
		case ColHolding:
			out[i] = r.Holding
		case ColBrand:
			out[i] = r.Brand
		case ColSegment:
			out[i] = r.Segment.String
		case ColArea:
			out[i] = r.Area.String
		}
	}
	return out
}
