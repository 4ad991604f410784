package core

// convert.go holds the small conversions shared by the table decoders and
// the exporters: header indexing, cell cleanup and nullable text.

import (
	"math"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5/pgtype"
)

// ToPgText converts a string to pgtype.Text.
// Returns invalid if the string is empty or only whitespace.
func ToPgText(s string) pgtype.Text {
	s = strings.TrimSpace(s)
	if s == "" {
		return pgtype.Text{Valid: false}
	}
	return pgtype.Text{String: s, Valid: true}
}

// MakeHeaderIndex creates a HeaderIndex from a header row.
// Keys are lowercased for case-insensitive matching. When a header repeats,
// the leftmost column wins.
func MakeHeaderIndex(header []string) HeaderIndex {
	idx := make(HeaderIndex, len(header))
	for i, h := range header {
		key := strings.ToLower(CleanCell(h))
		if key == "" {
			continue
		}
		if _, dup := idx[key]; !dup {
			idx[key] = i
		}
	}
	return idx
}

// CleanCell removes common spreadsheet artifacts from a cell value:
// - Trims whitespace
// - Removes Excel formula prefix (="...")
// - Removes surrounding quotes
// - Removes a leading BOM left on the first header by some exporters
func CleanCell(s string) string {
	s = strings.TrimPrefix(s, "\uFEFF")
	s = strings.TrimSpace(s)

	// Remove leading '='
	if strings.HasPrefix(s, "=\"") && strings.HasSuffix(s, "\"") {
		s = s[2 : len(s)-1]
	} else if strings.HasPrefix(s, "=") {
		s = s[1:]
	}

	// Remove any surrounding quotes
	s = strings.Trim(s, `"'`)

	return s
}

// formatFloat renders f in the shortest form that reads back exactly.
// NaN renders as "".
func formatFloat(f float64) string {
	if math.IsNaN(f) {
		return ""
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}
