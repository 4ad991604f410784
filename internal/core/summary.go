package core

import (
	"math"
	"slices"

	"github.com/montanaflynn/stats"
	"github.com/samber/lo"
)

// Summary describes a finished run. It is informational only.
type Summary struct {
	Rows          int      `json:"rows"`
	From          Period   `json:"from"`
	To            Period   `json:"to"`
	Regions       []string `json:"regions"`
	Brands        []string `json:"brands"`
	Indeterminate int      `json:"indeterminate"`

	// MaxShareDeviation is the largest |sum(MS) - 1| over determinate
	// (year, month, region) groups. It should be rounding noise.
	MaxShareDeviation float64 `json:"max_share_deviation"`

	// MedianMoM is the median of all present MoM growth values, 0 when none.
	MedianMoM float64 `json:"median_mom"`
}

// Summarize computes a Summary over a metrics result.
func Summarize(res *Result) Summary {
	s := Summary{
		Rows:          len(res.Rows),
		Indeterminate: len(res.Indeterminate),
	}
	if len(res.Rows) == 0 {
		return s
	}

	periods := lo.Map(res.Rows, func(r MetricRow, _ int) Period {
		return Period{Year: r.Year, Month: r.MonthIndex}
	})
	s.From = lo.MinBy(periods, func(a, b Period) bool { return periodLess(a, b) })
	s.To = lo.MaxBy(periods, func(a, b Period) bool { return periodLess(b, a) })

	s.Regions = lo.Uniq(lo.Map(res.Rows, func(r MetricRow, _ int) string { return r.Region }))
	s.Brands = lo.Uniq(lo.Map(res.Rows, func(r MetricRow, _ int) string { return r.Brand }))
	slices.Sort(s.Regions)
	slices.Sort(s.Brands)

	shareSums := make(map[periodRegion]float64)
	for _, r := range res.Rows {
		if math.IsNaN(r.MS) {
			continue
		}
		shareSums[periodRegion{r.Year, r.Month, r.Region}] += r.MS
	}
	deviations := lo.MapToSlice(shareSums, func(_ periodRegion, sum float64) float64 {
		return math.Abs(sum - 1)
	})
	if maxDev, err := stats.Max(deviations); err == nil {
		s.MaxShareDeviation = maxDev
	}

	mom := lo.FilterMap(res.Rows, func(r MetricRow, _ int) (float64, bool) {
		if r.MoMGrowth == nil {
			return 0, false
		}
		return *r.MoMGrowth, true
	})
	if median, err := stats.Median(mom); err == nil {
		s.MedianMoM = median
	}
	return s
}

func periodLess(a, b Period) bool {
	if a.Year != b.Year {
		return a.Year < b.Year
	}
	return a.Month < b.Month
}
