// Package sheet reads and writes the spreadsheets the pipeline works with:
// the current-period report grid, the historical database and mapping
// tables, and the result workbook.
package sheet

import (
	"errors"
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/JonMunkholm/marketshare/internal/core"
)

var (
	// ErrSheetNotFound is returned when a named sheet does not exist in the workbook.
	ErrSheetNotFound = errors.New("sheet not found")
	// ErrUnreadable wraps excelize failures to open or read a workbook.
	ErrUnreadable = errors.New("unreadable workbook")
)

func open(r io.Reader) (*excelize.File, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnreadable, err)
	}
	return f, nil
}

// SheetNames lists the sheets of an xlsx workbook in tab order.
func SheetNames(r io.Reader) ([]string, error) {
	f, err := open(r)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	return f.GetSheetList(), nil
}

// ReadGrid loads one sheet of an xlsx workbook as a headerless grid.
// An empty sheet name selects the first sheet.
//
// Cells are read as raw values so numbers arrive unformatted; ragged rows
// are padded by core.NewRawGrid.
func ReadGrid(r io.Reader, sheet string) (core.RawGrid, error) {
	f, err := open(r)
	if err != nil {
		return core.RawGrid{}, err
	}
	defer func() { _ = f.Close() }()

	name, err := resolveSheet(f, sheet)
	if err != nil {
		return core.RawGrid{}, err
	}

	rows, err := f.GetRows(name, excelize.Options{RawCellValue: true})
	if err != nil {
		return core.RawGrid{}, fmt.Errorf("%w: sheet %q: %w", ErrUnreadable, name, err)
	}
	return core.NewRawGrid(rows), nil
}

func resolveSheet(f *excelize.File, sheet string) (string, error) {
	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return "", fmt.Errorf("%w: workbook has no sheets", ErrSheetNotFound)
	}
	if sheet == "" {
		return sheets[0], nil
	}
	for _, s := range sheets {
		if s == sheet {
			return s, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrSheetNotFound, sheet)
}
