package core

import (
	"fmt"
)

// Year bounds accepted for the current period.
const (
	MinYear = 2000
	MaxYear = 2100
)

// Validate reports ErrInvalidPeriod for a year outside MinYear-MaxYear or a
// month outside 1-12.
func (p Period) Validate() error {
	if p.Year < MinYear || p.Year > MaxYear {
		return fmt.Errorf("%w: year %d outside %d-%d", ErrInvalidPeriod, p.Year, MinYear, MaxYear)
	}
	if p.Month < 1 || p.Month > 12 {
		return fmt.Errorf("%w: month %d outside 1-12", ErrInvalidPeriod, p.Month)
	}
	return nil
}

func (p Period) String() string {
	return fmt.Sprintf("%d-%02d", p.Year, p.Month)
}

// EnrichOptions supplies the constant columns of current-period rows.
type EnrichOptions struct {
	Country       string // DefaultCountry when empty
	DefaultIsland string // DefaultIsland when empty
}

// BuildCurrent turns parsed long records into working-table rows for period.
// Year, month, month index, country and island are filled in; OrderKey is
// dropped.
func BuildCurrent(records []LongRecord, period Period, opts EnrichOptions) (Table, error) {
	if err := period.Validate(); err != nil {
		return Table{}, err
	}
	if opts.Country == "" {
		opts.Country = DefaultCountry
	}
	if opts.DefaultIsland == "" {
		opts.DefaultIsland = DefaultIsland
	}

	month := MonthName(period.Month)
	rows := make([]Row, len(records))
	for i, rec := range records {
		rows[i] = Row{
			Year:        period.Year,
			Month:       month,
			MonthIndex:  period.Month,
			Region:      rec.Region,
			Island:      IslandFor(rec.Region, opts.DefaultIsland),
			Producer:    rec.Producer,
			Total:       rec.Value,
			PackageType: rec.PackageType,
			Country:     opts.Country,
			Holding:     rec.Holding,
			Brand:       rec.Brand,
		}
	}
	return Table{Columns: append([]string(nil), BaseColumns...), Rows: rows}, nil
}
