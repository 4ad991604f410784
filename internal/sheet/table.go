package sheet

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/JonMunkholm/marketshare/internal/core"
)

// ErrUnsupportedFile is returned for uploads that are neither xlsx nor csv.
var ErrUnsupportedFile = errors.New("unsupported file type")

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// ReadTable loads a headed table (first row is the header) from an xlsx or
// csv file. The format is chosen from the extension of name; xlsx tables are
// read from the first sheet.
func ReadTable(r io.Reader, name string) (core.RawTable, error) {
	var (
		rows [][]string
		err  error
	)
	switch ext := strings.ToLower(filepath.Ext(name)); ext {
	case ".xlsx", ".xlsm":
		rows, err = xlsxRows(r)
	case ".csv":
		rows, err = csvRows(r)
	default:
		return core.RawTable{}, fmt.Errorf("%w: %q", ErrUnsupportedFile, ext)
	}
	if err != nil {
		return core.RawTable{}, err
	}

	t := core.RawTable{Name: name}
	if len(rows) > 0 {
		t.Header = rows[0]
		t.Rows = rows[1:]
	}
	return t, nil
}

// ReadHistory loads and decodes the historical database table.
func ReadHistory(r io.Reader, name string) (core.Table, error) {
	raw, err := ReadTable(r, name)
	if err != nil {
		return core.Table{}, err
	}
	return core.DecodeHistory(raw)
}

// ReadMapping loads and decodes the brand/region mapping table.
func ReadMapping(r io.Reader, name string) (*core.Mapping, error) {
	raw, err := ReadTable(r, name)
	if err != nil {
		return nil, err
	}
	return core.DecodeMapping(raw)
}

func xlsxRows(r io.Reader) ([][]string, error) {
	f, err := open(r)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	name, err := resolveSheet(f, "")
	if err != nil {
		return nil, err
	}
	rows, err := f.GetRows(name, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("%w: sheet %q: %w", ErrUnreadable, name, err)
	}
	return rows, nil
}

// csvRows reads a csv file after dropping a leading UTF-8 BOM. The delimiter
// is sniffed from the first line so semicolon exports from Excel also load.
// Invalid UTF-8 is replaced cell by cell.
func csvRows(r io.Reader) ([][]string, error) {
	br := bufio.NewReader(r)
	if head, _ := br.Peek(len(utf8BOM)); bytes.Equal(head, utf8BOM) {
		_, _ = br.Discard(len(utf8BOM))
	}

	cr := csv.NewReader(br)
	cr.Comma = sniffDelimiter(br)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	rows, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}
	for _, row := range rows {
		for i, cell := range row {
			row[i] = strings.ToValidUTF8(cell, "�")
		}
	}
	return rows, nil
}

func sniffDelimiter(br *bufio.Reader) rune {
	// Peek returns what it has along with ErrBufferFull for long lines.
	head, _ := br.Peek(br.Size())
	if i := bytes.IndexByte(head, '\n'); i >= 0 {
		head = head[:i]
	}
	if bytes.Count(head, []byte{';'}) > bytes.Count(head, []byte{','}) {
		return ';'
	}
	return ','
}
