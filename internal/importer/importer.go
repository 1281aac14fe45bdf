// Package importer turns an uploaded admin spreadsheet into rows of plain
// text. The first sheet (or the whole CSV file) is read, the header row is
// skipped, and the first four columns are taken as adminId, name, rank and
// areaOfWorking.
package importer

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
)

// ErrUnsupportedFormat is returned for files that are neither .xlsx nor .csv.
var ErrUnsupportedFormat = errors.New("unsupported file format (want .xlsx or .csv)")

// Row is one data row of an admin import. Line is the 1-based row number in
// the source file, counting the header as line 1.
type Row struct {
	Line          int
	AdminID       string
	Name          string
	Rank          string
	AreaOfWorking string
}

const columnCount = 4

// ReadRows parses r according to the extension of filename. Rows whose four
// columns are all blank are dropped; short rows are padded with empty values.
func ReadRows(r io.Reader, filename string) ([]Row, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".xlsx", ".xlsm":
		return readWorkbook(r)
	case ".csv":
		return readCSV(r)
	default:
		return nil, ErrUnsupportedFormat
	}
}

func readWorkbook(r io.Reader) ([]Row, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	sheet := f.GetSheetName(0)
	if sheet == "" {
		return nil, errors.New("workbook has no sheets")
	}

	records, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheet, err)
	}

	var rows []Row
	for i, record := range records {
		if i == 0 {
			continue // header
		}
		values := make([]string, columnCount)
		for col := 0; col < columnCount && col < len(record); col++ {
			values[col], err = cellText(f, sheet, col+1, i+1, record[col])
			if err != nil {
				return nil, err
			}
		}
		if row, ok := newRow(i+1, values); ok {
			rows = append(rows, row)
		}
	}
	return rows, nil
}

// cellText renders a raw cell value the way an admin typed it: numbers become
// integer text (an employee number of 1024 stored as 1024.0 reads "1024") and
// booleans become "true" or "false".
func cellText(f *excelize.File, sheet string, col, row int, raw string) (string, error) {
	if raw == "" {
		return "", nil
	}
	cell, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return "", err
	}
	typ, err := f.GetCellType(sheet, cell)
	if err != nil {
		return "", fmt.Errorf("cell %s: %w", cell, err)
	}

	switch typ {
	case excelize.CellTypeBool:
		if raw == "1" || strings.EqualFold(raw, "true") {
			return "true", nil
		}
		return "false", nil
	case excelize.CellTypeUnset, excelize.CellTypeNumber:
		if v, err := strconv.ParseFloat(raw, 64); err == nil {
			return strconv.FormatInt(int64(v), 10), nil
		}
	}
	return raw, nil
}

func readCSV(r io.Reader) ([]Row, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	var rows []Row
	for header := true; ; header = false {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv: %w", err)
		}
		if header {
			continue
		}
		line, _ := cr.FieldPos(0)
		values := make([]string, columnCount)
		copy(values, record)
		if row, ok := newRow(line, values); ok {
			rows = append(rows, row)
		}
	}
	return rows, nil
}

func newRow(line int, values []string) (Row, bool) {
	for i := range values {
		values[i] = strings.TrimSpace(values[i])
	}
	if values[0] == "" && values[1] == "" && values[2] == "" && values[3] == "" {
		return Row{}, false
	}
	return Row{
		Line:          line,
		AdminID:       values[0],
		Name:          values[1],
		Rank:          values[2],
		AreaOfWorking: values[3],
	}, true
}
