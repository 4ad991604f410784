package core

// metrics.go computes market share and growth measures over the combined
// working table.
//
// The computation is a fixed chain of stable sorts and grouped passes:
//
//  1. Deduplicate by the identity columns (everything but Total), summing
//     Total, then order by (year, month index, region, brand).
//  2. MS = Total / sum(Total) per (year, month name, region).
//  3. Order by (brand, region, package, year, month index). MoM and YoY
//     growth are lag-1 and lag-12 changes of MS within (brand, region,
//     package).
//  4. MS_YTD is the running sum of MS within (brand, region, package, year).
//     YtD growth is its lag-12 change within (brand, region, package).
//  5. Order by (region, brand, year, month index). Total Merk YtD is the
//     running sum of Total within (region, brand, year); Total All YtD is
//     the monthly regional total accumulated within (region, year).
//     MSY = Total Merk YtD / Total All YtD.
//
// Lags are positional: the row 12 places earlier in the group, whatever its
// calendar month. Groups with gaps compare against the wrong month.

import (
	"cmp"
	"math"
	"slices"
)

// GrowthFromZero replaces the infinite change produced when the lagged value
// is exactly zero and the current value is not.
const GrowthFromZero = 1.0

const (
	lagMonth = 1
	lagYear  = 12
)

// Result holds the computed rows and the share groups that could not be
// determined.
type Result struct {
	Rows          []MetricRow
	Indeterminate []ShareGroup
}

// Err returns an *IndeterminateShareError when any share denominator was
// zero, nil otherwise.
func (r *Result) Err() error {
	if len(r.Indeterminate) == 0 {
		return nil
	}
	return &IndeterminateShareError{Groups: r.Indeterminate}
}

// identity is the deduplication key: every working-table column but Total.
type identity struct {
	Year        int
	Month       string
	MonthIndex  int
	Region      string
	Island      string
	Producer    string
	PackageType string
	Country     string
	Holding     string
	Brand       string
}

func identityOf(r Row) identity {
	return identity{
		Year:        r.Year,
		Month:       r.Month,
		MonthIndex:  r.MonthIndex,
		Region:      r.Region,
		Island:      r.Island,
		Producer:    r.Producer,
		PackageType: r.PackageType,
		Country:     r.Country,
		Holding:     r.Holding,
		Brand:       r.Brand,
	}
}

// Compute runs the metrics chain over rows. The input is not modified.
// Rows are returned ordered by (region, brand, year, month index).
func Compute(rows []Row) *Result {
	res := &Result{Rows: dedupe(rows)}
	res.Indeterminate = append(res.Indeterminate, marketShare(res.Rows)...)
	growth(res.Rows)
	res.Indeterminate = append(res.Indeterminate, yearToDateShare(res.Rows)...)
	return res
}

// dedupe sums Total over rows sharing an identity. Segment and Area come
// from the first row of each group. Output is ordered by the identity
// columns, then stably by (year, month index, region, brand).
func dedupe(rows []Row) []MetricRow {
	index := make(map[identity]int, len(rows))
	out := make([]MetricRow, 0, len(rows))
	for _, r := range rows {
		key := identityOf(r)
		if i, ok := index[key]; ok {
			out[i].Total += r.Total
			continue
		}
		index[key] = len(out)
		out = append(out, MetricRow{Row: r})
	}

	slices.SortFunc(out, func(a, b MetricRow) int {
		return cmp.Or(
			cmp.Compare(a.Year, b.Year),
			cmp.Compare(a.Month, b.Month),
			cmp.Compare(a.MonthIndex, b.MonthIndex),
			cmp.Compare(a.Region, b.Region),
			cmp.Compare(a.Island, b.Island),
			cmp.Compare(a.Producer, b.Producer),
			cmp.Compare(a.PackageType, b.PackageType),
			cmp.Compare(a.Country, b.Country),
			cmp.Compare(a.Holding, b.Holding),
			cmp.Compare(a.Brand, b.Brand),
		)
	})
	slices.SortStableFunc(out, func(a, b MetricRow) int {
		return cmp.Or(
			cmp.Compare(a.Year, b.Year),
			cmp.Compare(a.MonthIndex, b.MonthIndex),
			cmp.Compare(a.Region, b.Region),
			cmp.Compare(a.Brand, b.Brand),
		)
	})
	return out
}

type periodRegion struct {
	year   int
	month  string
	region string
}

// marketShare sets MS on every row. Rows of a group whose total is zero get
// NaN and the group is reported.
func marketShare(rows []MetricRow) []ShareGroup {
	sums := make(map[periodRegion]float64)
	for _, r := range rows {
		sums[periodRegion{r.Year, r.Month, r.Region}] += r.Total
	}

	var bad []ShareGroup
	reported := make(map[periodRegion]bool)
	for i := range rows {
		key := periodRegion{rows[i].Year, rows[i].Month, rows[i].Region}
		sum := sums[key]
		if sum == 0 {
			rows[i].MS = math.NaN()
			if !reported[key] {
				reported[key] = true
				bad = append(bad, ShareGroup{
					Measure:    MeasureMS,
					Year:       rows[i].Year,
					Month:      rows[i].Month,
					MonthIndex: rows[i].MonthIndex,
					Region:     rows[i].Region,
				})
			}
			continue
		}
		rows[i].MS = rows[i].Total / sum
	}
	return bad
}

// growth orders rows by (brand, region, package, year, month index) and sets
// MoM, YoY, MS_YTD and YtD growth.
func growth(rows []MetricRow) {
	slices.SortStableFunc(rows, func(a, b MetricRow) int {
		return cmp.Or(
			cmp.Compare(a.Brand, b.Brand),
			cmp.Compare(a.Region, b.Region),
			cmp.Compare(a.PackageType, b.PackageType),
			cmp.Compare(a.Year, b.Year),
			cmp.Compare(a.MonthIndex, b.MonthIndex),
		)
	})

	sameSeries := func(a, b *MetricRow) bool {
		return a.Brand == b.Brand && a.Region == b.Region && a.PackageType == b.PackageType
	}
	sameYear := func(a, b *MetricRow) bool {
		return sameSeries(a, b) && a.Year == b.Year
	}

	forEachGroup(rows, sameYear, func(group []MetricRow) {
		running := 0.0
		for i := range group {
			if math.IsNaN(group[i].MS) {
				group[i].MSYTD = math.NaN()
				continue
			}
			running += group[i].MS
			group[i].MSYTD = running
		}
	})

	forEachGroup(rows, sameSeries, func(group []MetricRow) {
		for i := range group {
			group[i].MoMGrowth = lagChange(group, i, lagMonth, func(r *MetricRow) float64 { return r.MS })
			group[i].YoYGrowth = lagChange(group, i, lagYear, func(r *MetricRow) float64 { return r.MS })
			group[i].YtDGrowth = lagChange(group, i, lagYear, func(r *MetricRow) float64 { return r.MSYTD })
		}
	})
}

type regionYear struct {
	region string
	year   int
}

type regionMonth struct {
	region string
	year   int
	month  int
}

// yearToDateShare orders rows by (region, brand, year, month index) and sets
// Total Merk YtD, Total All YtD and MSY.
func yearToDateShare(rows []MetricRow) []ShareGroup {
	slices.SortStableFunc(rows, func(a, b MetricRow) int {
		return cmp.Or(
			cmp.Compare(a.Region, b.Region),
			cmp.Compare(a.Brand, b.Brand),
			cmp.Compare(a.Year, b.Year),
			cmp.Compare(a.MonthIndex, b.MonthIndex),
		)
	})

	forEachGroup(rows, func(a, b *MetricRow) bool {
		return a.Region == b.Region && a.Brand == b.Brand && a.Year == b.Year
	}, func(group []MetricRow) {
		running := 0.0
		for i := range group {
			running += group[i].Total
			group[i].TotalBrandYtD = running
		}
	})

	monthly := make(map[regionMonth]float64)
	months := make(map[regionYear][]int)
	for _, r := range rows {
		key := regionMonth{r.Region, r.Year, r.MonthIndex}
		if _, seen := monthly[key]; !seen {
			ry := regionYear{r.Region, r.Year}
			months[ry] = append(months[ry], r.MonthIndex)
		}
		monthly[key] += r.Total
	}

	allYtD := make(map[regionMonth]float64, len(monthly))
	for ry, ms := range months {
		slices.Sort(ms)
		running := 0.0
		for _, m := range ms {
			key := regionMonth{ry.region, ry.year, m}
			running += monthly[key]
			allYtD[key] = running
		}
	}

	var bad []ShareGroup
	reported := make(map[regionMonth]bool)
	for i := range rows {
		key := regionMonth{rows[i].Region, rows[i].Year, rows[i].MonthIndex}
		rows[i].TotalAllYtD = allYtD[key]
		if rows[i].TotalAllYtD == 0 {
			rows[i].MSY = math.NaN()
			if !reported[key] {
				reported[key] = true
				bad = append(bad, ShareGroup{
					Measure:    MeasureMSY,
					Year:       rows[i].Year,
					Month:      rows[i].Month,
					MonthIndex: rows[i].MonthIndex,
					Region:     rows[i].Region,
				})
			}
			continue
		}
		rows[i].MSY = rows[i].TotalBrandYtD / rows[i].TotalAllYtD
	}
	return bad
}

// forEachGroup calls fn for every run of adjacent rows for which same holds
// between neighbours. fn may modify the rows of its group.
func forEachGroup(rows []MetricRow, same func(a, b *MetricRow) bool, fn func(group []MetricRow)) {
	start := 0
	for i := 1; i <= len(rows); i++ {
		if i == len(rows) || !same(&rows[i-1], &rows[i]) {
			fn(rows[start:i])
			start = i
		}
	}
}

// lagChange is the relative change of value between group[i] and the row lag
// places before it. It is nil when there is no such row or the change is
// undefined (either side NaN, or both zero). A change from zero to a nonzero
// value, or one so large it overflows to Inf, is GrowthFromZero.
func lagChange(group []MetricRow, i, lag int, value func(*MetricRow) float64) *float64 {
	if i < lag {
		return nil
	}
	return pctChange(value(&group[i]), value(&group[i-lag]))
}

func pctChange(cur, prev float64) *float64 {
	if math.IsNaN(cur) || math.IsNaN(prev) {
		return nil
	}
	if prev == 0 {
		if cur == 0 {
			return nil
		}
		v := GrowthFromZero
		return &v
	}
	v := cur/prev - 1
	if math.IsInf(v, 0) {
		v = GrowthFromZero
	}
	return &v
}
