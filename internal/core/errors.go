package core

import (
	"errors"
	"fmt"
	"strings"
)

// StructureReason says which structural check a grid failed.
type StructureReason int

const (
	ReasonEmptySheet StructureReason = iota + 1
	ReasonEmptyPackageRow
	ReasonMissingMarker
	ReasonInvalidLayout
)

func (r StructureReason) String() string {
	switch r {
	case ReasonEmptySheet:
		return "empty sheet"
	case ReasonEmptyPackageRow:
		return "package row is empty"
	case ReasonMissingMarker:
		return "region column not found"
	case ReasonInvalidLayout:
		return "invalid header layout"
	default:
		return "unknown"
	}
}

// StructureError reports a grid that does not match the expected report
// layout. The parser returns no records alongside it.
type StructureError struct {
	Reason StructureReason
	Detail string
}

func (e *StructureError) Error() string {
	if e.Detail == "" {
		return "invalid report structure: " + e.Reason.String()
	}
	return fmt.Sprintf("invalid report structure: %s: %s", e.Reason, e.Detail)
}

// ShareGroup identifies a group whose share denominator was zero.
type ShareGroup struct {
	Measure    string // "MS" or "MSY"
	Year       int
	Month      string
	MonthIndex int
	Region     string
}

func (g ShareGroup) String() string {
	if g.Measure == MeasureMSY {
		return fmt.Sprintf("%s %d/%02d %s", g.Measure, g.Year, g.MonthIndex, g.Region)
	}
	return fmt.Sprintf("%s %d %s %s", g.Measure, g.Year, g.Month, g.Region)
}

// Share measures that can be indeterminate.
const (
	MeasureMS  = "MS"
	MeasureMSY = "MSY"
)

// IndeterminateShareError lists share groups whose total was zero. Rows of
// those groups carry NaN for the affected measure.
type IndeterminateShareError struct {
	Groups []ShareGroup
}

func (e *IndeterminateShareError) Error() string {
	const maxListed = 5
	parts := make([]string, 0, maxListed)
	for i, g := range e.Groups {
		if i == maxListed {
			parts = append(parts, fmt.Sprintf("and %d more", len(e.Groups)-maxListed))
			break
		}
		parts = append(parts, g.String())
	}
	return fmt.Sprintf("indeterminate share: %d group(s) with zero total (%s)",
		len(e.Groups), strings.Join(parts, ", "))
}

// ErrInvalidPeriod is returned for a year outside 2000-2100 or a month
// outside 1-12.
var ErrInvalidPeriod = errors.New("invalid period")

// ValidationError reports a table that does not satisfy its schema.
type ValidationError struct {
	Table   string   // "history" or "mapping"
	Missing []string // required columns absent from the header
	Row     int      // 1-based data row of a bad value, 0 if not row specific
	Column  string
	Value   string
	Problem string // e.g. "invalid number"
}

func (e *ValidationError) Error() string {
	if len(e.Missing) > 0 {
		return fmt.Sprintf("%s table: missing required column(s): %s",
			e.Table, strings.Join(e.Missing, ", "))
	}
	return fmt.Sprintf("%s table: row %d: %s %q in column %s",
		e.Table, e.Row, e.Problem, e.Value, e.Column)
}
