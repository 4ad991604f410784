package sheet

import (
	"fmt"
	"io"
	"math"

	"github.com/xuri/excelize/v2"

	"github.com/JonMunkholm/marketshare/internal/core"
)

// Sheet names used for the workbooks this package writes.
const (
	ResultSheet  = "Result"
	HistorySheet = "Database"
	UnpivotSheet = "Unpivot"
)

// ResultFileName is the download name of the result workbook.
const ResultFileName = "Data_Hasil.xlsx"

// UnpivotColumns is the header of the unpivot export.
var UnpivotColumns = []string{
	core.ColRegion, core.ColPackageType, core.ColProducer, core.ColHolding, core.ColBrand, core.ColTotal, "order",
}

// WriteFinal writes the final table to sheet "Result". Absent values and NaN
// shares become empty cells.
func WriteFinal(w io.Writer, t core.FinalTable) error {
	return write(w, ResultSheet, t.Columns, len(t.Rows), t.Values)
}

// WriteHistory writes a working table in the layout DecodeHistory reads back,
// so the merged table can serve as next month's database.
func WriteHistory(w io.Writer, t core.Table) error {
	return write(w, HistorySheet, t.Columns, len(t.Rows), func(i int) []any {
		return historyValues(t.Rows[i], t.Columns)
	})
}

// WriteRecords writes unpivoted long records in their canonical order.
func WriteRecords(w io.Writer, records []core.LongRecord) error {
	return write(w, UnpivotSheet, UnpivotColumns, len(records), func(i int) []any {
		r := records[i]
		return []any{r.Region, r.PackageType, r.Producer, r.Holding, r.Brand, r.Value, r.OrderKey}
	})
}

func historyValues(r core.Row, columns []string) []any {
	text := core.RowValues(r, columns)
	out := make([]any, len(columns))
	for i, c := range columns {
		switch c {
		case core.ColYear:
			out[i] = r.Year
		case core.ColMonthIndex:
			out[i] = r.MonthIndex
		case core.ColTotal:
			out[i] = r.Total
		default:
			out[i] = text[i]
		}
	}
	return out
}

func write(w io.Writer, sheet string, header []string, n int, row func(int) []any) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("header style: %w", err)
	}

	sw, err := f.NewStreamWriter(sheet)
	if err != nil {
		return fmt.Errorf("open stream writer: %w", err)
	}

	cells := make([]any, len(header))
	for i, h := range header {
		cells[i] = excelize.Cell{StyleID: bold, Value: h}
	}
	if err := sw.SetRow("A1", cells); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for i := 0; i < n; i++ {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := sw.SetRow(cell, cellValues(row(i))); err != nil {
			return fmt.Errorf("write row %d: %w", i+2, err)
		}
	}

	if err := sw.Flush(); err != nil {
		return fmt.Errorf("flush sheet: %w", err)
	}
	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

// cellValues replaces values a worksheet cannot hold with empty cells.
func cellValues(vals []any) []any {
	for i, v := range vals {
		if f, ok := v.(float64); ok && (math.IsNaN(f) || math.IsInf(f, 0)) {
			vals[i] = nil
		}
	}
	return vals
}
