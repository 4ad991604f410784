package core

// parser.go unpivots the wide monthly report into long records.
//
// The report is a pivot: one row per region, one column per
// (producer, package type, brand) with the header text spread over fixed
// rows (see HeaderLayout). The region column is the first column whose
// producer, package or brand header contains the region marker; data columns
// follow it until a column whose first data cell is blank or "-".

import (
	"cmp"
	"slices"
	"strconv"
	"strings"
)

// columnHeader is the per-column descriptor read from the header rows.
type columnHeader struct {
	col         int
	producer    string
	packageType string
	holding     string
	brand       string
}

// Parse extracts long records from grid. It fails with *StructureError when
// the layout is invalid, the sheet or package row is empty, or no region
// column can be found; no records are returned in that case.
//
// Records are ordered by region, then order key. Within a region every Bag
// record precedes every Bulk record and producers keep their left-to-right
// order.
func Parse(grid RawGrid, layout HeaderLayout) ([]LongRecord, error) {
	if err := layout.Validate(); err != nil {
		return nil, err
	}
	if grid.Rows() == 0 || grid.Cols() == 0 {
		return nil, &StructureError{Reason: ReasonEmptySheet}
	}

	maxCol := grid.lastPopulated(layout.PackageRow)
	if maxCol < 0 {
		return nil, &StructureError{
			Reason: ReasonEmptyPackageRow,
			Detail: "no package type in grid row " + strconv.Itoa(layout.PackageRow+1),
		}
	}

	regionCol := findRegionColumn(grid, layout, maxCol)
	if regionCol < 0 {
		return nil, &StructureError{
			Reason: ReasonMissingMarker,
			Detail: "no " + layout.Marker + " header in the producer, package or brand rows",
		}
	}

	headers := readColumnHeaders(grid, layout, regionCol+1, maxCol)
	ranks := rankProducers(headers)

	var records []LongRecord
	for _, pass := range []string{PackageBag, PackageBulk} {
		offset := orderOffsetBag
		if pass == PackageBulk {
			offset = orderOffsetBulk
		}
		for _, row := range dataRows(grid, layout, regionCol) {
			region := strings.TrimSpace(grid.Cell(row, regionCol))
			for _, h := range headers {
				if h.packageType != pass {
					continue
				}
				rank, ok := ranks[h.producer]
				if !ok {
					continue
				}
				records = append(records, LongRecord{
					Region:      region,
					PackageType: h.packageType,
					Producer:    h.producer,
					Holding:     h.holding,
					Brand:       h.brand,
					Value:       ToNumber(grid.Cell(row, h.col)),
					OrderKey:    offset + rank,
				})
			}
		}
	}

	slices.SortStableFunc(records, func(a, b LongRecord) int {
		return cmp.Or(
			cmp.Compare(a.Region, b.Region),
			cmp.Compare(a.OrderKey, b.OrderKey),
		)
	})
	return records, nil
}

// findRegionColumn returns the first column up to maxCol whose producer,
// package or brand header contains the marker, ignoring case and whitespace.
func findRegionColumn(grid RawGrid, layout HeaderLayout, maxCol int) int {
	marker := layout.normalizedMarker()
	for c := 0; c <= maxCol; c++ {
		for _, r := range []int{layout.ProducerRow, layout.PackageRow, layout.BrandRow} {
			if strings.Contains(squashUpper(grid.Cell(r, c)), marker) {
				return c
			}
		}
	}
	return -1
}

// readColumnHeaders reads descriptors for data columns from first to maxCol,
// stopping at the first sentinel column.
func readColumnHeaders(grid RawGrid, layout HeaderLayout, first, maxCol int) []columnHeader {
	var headers []columnHeader
	for c := first; c <= maxCol; c++ {
		if isSentinel(grid.Cell(layout.DataStartRow, c)) {
			break
		}
		headers = append(headers, columnHeader{
			col:         c,
			producer:    strings.TrimSpace(grid.Cell(layout.ProducerRow, c)),
			packageType: NormalizePackageType(grid.Cell(layout.PackageRow, c)),
			holding:     strings.TrimSpace(grid.Cell(layout.HoldingRow, c)),
			brand:       strings.TrimSpace(grid.Cell(layout.BrandRow, c)),
		})
	}
	return headers
}

// rankProducers assigns 1-based ranks to distinct producers in first-seen
// order, counting only Bag and Bulk columns.
func rankProducers(headers []columnHeader) map[string]int {
	ranks := make(map[string]int)
	for _, h := range headers {
		if h.packageType != PackageBag && h.packageType != PackageBulk {
			continue
		}
		if _, seen := ranks[h.producer]; !seen {
			ranks[h.producer] = len(ranks) + 1
		}
	}
	return ranks
}

// dataRows returns the rows to emit, walking down from the data start row.
// Two consecutive blank region cells or a region starting with "CATATAN"
// end the walk; "TOTAL" rows are skipped.
func dataRows(grid RawGrid, layout HeaderLayout, regionCol int) []int {
	var rows []int
	blankRun := 0
	for r := layout.DataStartRow; r < grid.Rows(); r++ {
		region := strings.TrimSpace(grid.Cell(r, regionCol))
		upper := strings.ToUpper(region)
		if strings.HasPrefix(upper, "CATATAN") {
			break
		}
		if region == "" {
			blankRun++
			if blankRun >= 2 {
				break
			}
			continue
		}
		blankRun = 0
		if strings.HasPrefix(upper, "TOTAL") {
			continue
		}
		rows = append(rows, r)
	}
	return rows
}

// NormalizePackageType trims a package header and maps it onto Bag or Bulk.
// "Curah" is the Indonesian term for bulk cement. Other values are returned
// trimmed and are ignored by the parser.
func NormalizePackageType(s string) string {
	s = strings.TrimSpace(s)
	switch strings.ToLower(s) {
	case "bag":
		return PackageBag
	case "bulk", "curah":
		return PackageBulk
	default:
		return s
	}
}

func isSentinel(s string) bool {
	s = strings.TrimSpace(s)
	return s == "" || s == "-"
}
