// Package report turns reservation spreadsheets into pending check-in records
// and writes the filtered set back out as a styled workbook.
package report

import (
	"bytes"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/onurcolak/checkin-dispatch-service/internal/domain"
)

var (
	ErrEmptyFile  = errors.New("file is empty")
	ErrUnreadable = errors.New("file is not a readable spreadsheet")
	ErrNoSheets   = errors.New("no worksheet found in file")
	ErrNoData     = errors.New("no data found in worksheet")
)

// Decode reads the first worksheet of an xlsx workbook. The first row is the
// header; every following non-blank row becomes a Row holding all header keys
// (cells missing from a short row default to ""). Boolean cells decode to
// bool, numeric cells to float64 (date-formatted cells keep their serial),
// ISO date cells to time.Time and everything else to string.
func Decode(data []byte) ([]domain.Row, error) {
	if len(data) == 0 {
		return nil, ErrEmptyFile
	}

	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreadable, err)
	}
	defer func() { _ = f.Close() }()

	sheet := f.GetSheetName(0)
	if sheet == "" {
		return nil, ErrNoSheets
	}

	raw, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("failed to read worksheet %q: %w", sheet, err)
	}
	if len(raw) < 2 {
		return nil, ErrNoData
	}

	headers := raw[0]
	rows := make([]domain.Row, 0, len(raw)-1)

	for r := 1; r < len(raw); r++ {
		cells := raw[r]
		if isBlank(cells) {
			continue
		}

		row := make(domain.Row, len(headers))
		for c, header := range headers {
			if header == "" {
				continue
			}
			if c >= len(cells) {
				row[header] = ""
				continue
			}
			row[header] = typedValue(f, sheet, c+1, r+1, cells[c])
		}
		rows = append(rows, row)
	}

	if len(rows) == 0 {
		return nil, ErrNoData
	}

	return rows, nil
}

func typedValue(f *excelize.File, sheet string, col, row int, value string) any {
	if value == "" {
		return ""
	}

	cell, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return value
	}

	cellType, err := f.GetCellType(sheet, cell)
	if err != nil {
		return value
	}

	switch cellType {
	case excelize.CellTypeBool:
		return value == "1" || strings.EqualFold(value, "true")
	case excelize.CellTypeDate:
		if t, ok := parseISODate(value); ok {
			return t
		}
		if serial, err := strconv.ParseFloat(value, 64); err == nil {
			return serial
		}
		return value
	case excelize.CellTypeNumber, excelize.CellTypeUnset:
		if n, err := strconv.ParseFloat(value, 64); err == nil {
			return n
		}
		return value
	default:
		return value
	}
}

func parseISODate(value string) (time.Time, bool) {
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, value); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func isBlank(cells []string) bool {
	for _, c := range cells {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
