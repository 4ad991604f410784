package core

import (
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/samber/lo"
)

// MergeResult is the combined working table plus what the merge did.
type MergeResult struct {
	Table    Table
	Replaced Period // period evicted from history, zero when none
	Evicted  int    // history rows removed by replace mode
}

// LatestPeriod returns the maximum (year, month index) among rows: the
// latest year, then the latest month within that year. ok is false when
// rows is empty.
func LatestPeriod(rows []Row) (Period, bool) {
	if len(rows) == 0 {
		return Period{}, false
	}
	latest := Period{Year: rows[0].Year, Month: rows[0].MonthIndex}
	for _, r := range rows[1:] {
		if r.Year > latest.Year || (r.Year == latest.Year && r.MonthIndex > latest.Month) {
			latest = Period{Year: r.Year, Month: r.MonthIndex}
		}
	}
	return latest, true
}

// Merge aligns history and current onto the union of their recognized
// columns and appends current after history.
//
// In replace mode every history row of the latest period found in current is
// removed first, so merging the same period again replaces it instead of
// doubling it. Row order is otherwise preserved.
func Merge(history, current Table, replace bool) MergeResult {
	present := lo.Union(history.Columns, current.Columns)
	columns := lo.Filter(append(append([]string(nil), BaseColumns...), MappingColumns...),
		func(c string, _ int) bool { return lo.Contains(present, c) })

	res := MergeResult{Table: Table{Columns: columns}}

	kept := history.Rows
	if replace {
		if p, ok := LatestPeriod(current.Rows); ok {
			kept = lo.Reject(history.Rows, func(r Row, _ int) bool {
				return r.Year == p.Year && r.MonthIndex == p.Month
			})
			res.Replaced = p
			res.Evicted = len(history.Rows) - len(kept)
		}
	}

	res.Table.Rows = make([]Row, 0, len(kept)+len(current.Rows))
	for _, r := range kept {
		res.Table.Rows = append(res.Table.Rows, project(r, history, columns))
	}
	for _, r := range current.Rows {
		res.Table.Rows = append(res.Table.Rows, project(r, current, columns))
	}
	return res
}

// project clears optional columns the source table does not carry or the
// target column set drops.
func project(r Row, src Table, columns []string) Row {
	if !src.HasColumn(ColSegment) || !lo.Contains(columns, ColSegment) {
		r.Segment = pgtype.Text{}
	}
	if !src.HasColumn(ColArea) || !lo.Contains(columns, ColArea) {
		r.Area = pgtype.Text{}
	}
	return r
}
