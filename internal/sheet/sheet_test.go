package sheet

import (
	"bytes"
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"

	"github.com/JonMunkholm/marketshare/internal/core"
)

// workbook builds an in-memory xlsx file with the given sheets in order.
func workbook(t *testing.T, sheets map[string][][]any, order ...string) *bytes.Reader {
	t.Helper()
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	for i, name := range order {
		if i == 0 {
			if err := f.SetSheetName("Sheet1", name); err != nil {
				t.Fatalf("SetSheetName: %v", err)
			}
		} else if _, err := f.NewSheet(name); err != nil {
			t.Fatalf("NewSheet: %v", err)
		}
		for r, row := range sheets[name] {
			cell, _ := excelize.CoordinatesToCellName(1, r+1)
			vals := row
			if err := f.SetSheetRow(name, cell, &vals); err != nil {
				t.Fatalf("SetSheetRow: %v", err)
			}
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		t.Fatalf("WriteToBuffer: %v", err)
	}
	return bytes.NewReader(buf.Bytes())
}

func TestSheetNames(t *testing.T) {
	r := workbook(t, nil, "Ringkasan", "Laporan")
	names, err := SheetNames(r)
	if err != nil {
		t.Fatalf("SheetNames: %v", err)
	}
	if want := []string{"Ringkasan", "Laporan"}; !reflect.DeepEqual(names, want) {
		t.Errorf("names = %v, want %v", names, want)
	}
}

func TestReadGrid(t *testing.T) {
	sheets := map[string][][]any{
		"Ringkasan": {{"ringkasan"}},
		"Laporan": {
			{"PROVINSI", "Semen A"},
			{"Jatim", 1234.5},
			{"Bali"},
		},
	}

	tests := []struct {
		name    string
		sheet   string
		first   string
		wantErr error
	}{
		{name: "default is first sheet", sheet: "", first: "ringkasan"},
		{name: "named sheet", sheet: "Laporan", first: "PROVINSI"},
		{name: "missing sheet", sheet: "Nope", wantErr: ErrSheetNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, err := ReadGrid(workbook(t, sheets, "Ringkasan", "Laporan"), tt.sheet)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("err = %v, want %v", err, tt.wantErr)
				}
				if !strings.Contains(err.Error(), "sheet not found") {
					t.Errorf("error %q should carry the FILE003 pattern", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ReadGrid: %v", err)
			}
			if got := g.Cell(0, 0); got != tt.first {
				t.Errorf("A1 = %q, want %q", got, tt.first)
			}
		})
	}

	t.Run("raw numbers and ragged rows", func(t *testing.T) {
		g, err := ReadGrid(workbook(t, sheets, "Ringkasan", "Laporan"), "Laporan")
		if err != nil {
			t.Fatalf("ReadGrid: %v", err)
		}
		if g.Rows() != 3 || g.Cols() != 2 {
			t.Errorf("grid is %dx%d, want 3x2", g.Rows(), g.Cols())
		}
		if got := g.Cell(1, 1); got != "1234.5" {
			t.Errorf("B2 = %q, want raw 1234.5", got)
		}
		if got := g.Cell(2, 1); got != "" {
			t.Errorf("B3 = %q, want blank", got)
		}
	})

	t.Run("not a workbook", func(t *testing.T) {
		_, err := ReadGrid(strings.NewReader("plain text"), "")
		if err == nil || !strings.Contains(err.Error(), "unreadable workbook") {
			t.Errorf("err = %v, want unreadable workbook", err)
		}
	})
}

func TestReadTable(t *testing.T) {
	tests := []struct {
		name       string
		file       string
		body       string
		wantHeader []string
		wantRows   [][]string
	}{
		{
			name:       "comma csv",
			file:       "mapping.csv",
			body:       "Merk,Daerah,Segment\nA,Jatim,Retail\n",
			wantHeader: []string{"Merk", "Daerah", "Segment"},
			wantRows:   [][]string{{"A", "Jatim", "Retail"}},
		},
		{
			name:       "semicolon csv with BOM",
			file:       "MAPPING.CSV",
			body:       "\xEF\xBB\xBFMerk;Daerah\nA;Jatim\n",
			wantHeader: []string{"Merk", "Daerah"},
			wantRows:   [][]string{{"A", "Jatim"}},
		},
		{
			name:       "invalid utf-8 replaced",
			file:       "m.csv",
			body:       "Merk\nA\xff\n",
			wantHeader: []string{"Merk"},
			wantRows:   [][]string{{"A�"}},
		},
		{
			name:       "ragged rows",
			file:       "m.csv",
			body:       "a,b,c\n1\n",
			wantHeader: []string{"a", "b", "c"},
			wantRows:   [][]string{{"1"}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ReadTable(strings.NewReader(tt.body), tt.file)
			if err != nil {
				t.Fatalf("ReadTable: %v", err)
			}
			if !reflect.DeepEqual(got.Header, tt.wantHeader) {
				t.Errorf("header = %q, want %q", got.Header, tt.wantHeader)
			}
			if !reflect.DeepEqual(got.Rows, tt.wantRows) {
				t.Errorf("rows = %q, want %q", got.Rows, tt.wantRows)
			}
		})
	}

	t.Run("xlsx first sheet", func(t *testing.T) {
		r := workbook(t, map[string][][]any{
			"Data": {{"Merk", "Total"}, {"A", 10}},
		}, "Data")
		got, err := ReadTable(r, "db.xlsx")
		if err != nil {
			t.Fatalf("ReadTable: %v", err)
		}
		if got.Name != "db.xlsx" || got.Header[1] != "Total" || got.Rows[0][1] != "10" {
			t.Errorf("table = %+v", got)
		}
	})

	t.Run("unsupported extension", func(t *testing.T) {
		_, err := ReadTable(strings.NewReader(""), "db.xls")
		if !errors.Is(err, ErrUnsupportedFile) {
			t.Errorf("err = %v, want ErrUnsupportedFile", err)
		}
		if msg := core.MapError(err); msg.Code != "FILE002" {
			t.Errorf("code = %s, want FILE002", msg.Code)
		}
	})
}

func TestReadHistory(t *testing.T) {
	body := "Tahun,Bulan,Daerah,Pulau,Produsen,Total,Kemasan,Negara,Holding,Merk\n" +
		"2024,Januari,Jatim,Jawa,Semen A,\"1.500\",Bag,Domestik,Holding A,Merk A\n"

	tbl, err := ReadHistory(strings.NewReader(body), "db.csv")
	if err != nil {
		t.Fatalf("ReadHistory: %v", err)
	}
	if len(tbl.Rows) != 1 {
		t.Fatalf("rows = %d, want 1", len(tbl.Rows))
	}
	r := tbl.Rows[0]
	if r.MonthIndex != 1 || r.Total != 1500 {
		t.Errorf("row = %+v, want month index 1 and total 1500", r)
	}

	_, err = ReadHistory(strings.NewReader("Tahun,Bulan\n2024,Jan\n"), "db.csv")
	var ve *core.ValidationError
	if !errors.As(err, &ve) || len(ve.Missing) == 0 {
		t.Errorf("err = %v, want missing columns", err)
	}
}

func TestReadMapping(t *testing.T) {
	m, err := ReadMapping(strings.NewReader("Merk,Daerah,Segment\nA,Jatim,Retail\n"), "map.csv")
	if err != nil {
		t.Fatalf("ReadMapping: %v", err)
	}
	if got := m.Segment("A", "Jatim"); got.String != "Retail" {
		t.Errorf("Segment = %+v, want Retail", got)
	}
	if m.HasAreas() {
		t.Error("mapping without Area AP should report no areas")
	}
}
