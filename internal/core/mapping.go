package core

import (
	"github.com/jackc/pgx/v5/pgtype"
)

type brandRegion struct {
	brand  string
	region string
}

// Mapping holds the segment and area lookups built from the mapping table.
// For duplicate keys the first row wins. A zero Mapping matches nothing.
type Mapping struct {
	segments map[brandRegion]pgtype.Text
	areas    map[string]pgtype.Text
}

// DecodeMapping builds the lookups from a raw mapping table. The segment
// lookup is built only when brand, region and segment columns are present,
// the area lookup only when region and area columns are present.
func DecodeMapping(raw RawTable) (*Mapping, error) {
	pos, _ := locateFields(MakeHeaderIndex(raw.Header), MappingSchema)
	m := &Mapping{}

	if pos[ColBrand] >= 0 && pos[ColRegion] >= 0 && pos[ColSegment] >= 0 {
		m.segments = make(map[brandRegion]pgtype.Text)
	}
	if pos[ColRegion] >= 0 && pos[ColArea] >= 0 {
		m.areas = make(map[string]pgtype.Text)
	}

	for _, rec := range raw.Rows {
		if blankRow(rec) {
			continue
		}
		region := cellAt(rec, pos[ColRegion])
		if m.segments != nil {
			key := brandRegion{brand: cellAt(rec, pos[ColBrand]), region: region}
			if _, seen := m.segments[key]; !seen {
				m.segments[key] = ToPgText(cellAt(rec, pos[ColSegment]))
			}
		}
		if m.areas != nil {
			if _, seen := m.areas[region]; !seen {
				m.areas[region] = ToPgText(cellAt(rec, pos[ColArea]))
			}
		}
	}
	return m, nil
}

// HasSegments reports whether the mapping provides a segment lookup.
func (m *Mapping) HasSegments() bool { return m != nil && m.segments != nil }

// HasAreas reports whether the mapping provides an area lookup.
func (m *Mapping) HasAreas() bool { return m != nil && m.areas != nil }

// Segment returns the segment for (brand, region). Unmatched keys are absent.
func (m *Mapping) Segment(brand, region string) pgtype.Text {
	if !m.HasSegments() {
		return pgtype.Text{}
	}
	return m.segments[brandRegion{brand: brand, region: region}]
}

// Area returns the area for region. Unmatched regions are absent.
func (m *Mapping) Area(region string) pgtype.Text {
	if !m.HasAreas() {
		return pgtype.Text{}
	}
	return m.areas[region]
}

// Apply left-joins the lookups onto t. Rows are never dropped; unmatched
// keys leave Segment or Area absent. The lookup columns are added to the
// returned table's columns when the mapping provides them.
func (m *Mapping) Apply(t Table) Table {
	out := Table{
		Columns: append([]string(nil), t.Columns...),
		Rows:    make([]Row, len(t.Rows)),
	}
	if m.HasSegments() && !out.HasColumn(ColSegment) {
		out.Columns = append(out.Columns, ColSegment)
	}
	if m.HasAreas() && !out.HasColumn(ColArea) {
		out.Columns = append(out.Columns, ColArea)
	}

	for i, r := range t.Rows {
		if m.HasSegments() {
			r.Segment = m.Segment(r.Brand, r.Region)
		}
		if m.HasAreas() {
			r.Area = m.Area(r.Region)
		}
		out.Rows[i] = r
	}
	return out
}
