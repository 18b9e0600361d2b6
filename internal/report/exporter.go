package report

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/onurcolak/checkin-dispatch-service/internal/domain"
	"github.com/onurcolak/checkin-dispatch-service/internal/normalize"
)

// ExportSheetName is the worksheet name of exported workbooks.
const ExportSheetName = "Check-ins Pendentes"

// XLSXContentType is the MIME type of exported workbooks.
const XLSXContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

var ErrNothingToExport = errors.New("no records to export")

const (
	wideColumnWidth   = 30
	narrowColumnWidth = 15
	evenRowFill       = "FFFFFF"
	oddRowFill        = "F3F3F3"
	headerFill        = "FFFF00"
)

// ExportFileName returns checkins_pendentes_dd-mm-yyyy_HHhMM.xlsx for now.
func ExportFileName(now time.Time) string {
	return fmt.Sprintf("checkins_pendentes_%s_%02dh%02d.xlsx", now.Format("02-01-2006"), now.Hour(), now.Minute())
}

// Export writes records to a styled workbook and returns its bytes together
// with the download file name.
func Export(records []domain.CheckInRecord, now time.Time) ([]byte, string, error) {
	if len(records) == 0 {
		return nil, "", ErrNothingToExport
	}

	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName(f.GetSheetName(0), ExportSheetName); err != nil {
		return nil, "", fmt.Errorf("failed to name worksheet: %w", err)
	}

	styles, err := newExportStyles(f)
	if err != nil {
		return nil, "", err
	}

	for i, header := range domain.ProjectedColumns {
		col, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return nil, "", err
		}

		width := float64(narrowColumnWidth)
		if header == domain.ColumnResponsible || header == domain.ColumnEstablishment {
			width = wideColumnWidth
		}
		if err := f.SetColWidth(ExportSheetName, col, col, width); err != nil {
			return nil, "", fmt.Errorf("failed to set column width: %w", err)
		}
	}

	header := make([]any, len(domain.ProjectedColumns))
	for i, h := range domain.ProjectedColumns {
		header[i] = h
	}
	if err := f.SetSheetRow(ExportSheetName, "A1", &header); err != nil {
		return nil, "", fmt.Errorf("failed to write header: %w", err)
	}

	lastCol, _ := excelize.ColumnNumberToName(len(domain.ProjectedColumns))
	if err := f.SetCellStyle(ExportSheetName, "A1", lastCol+"1", styles.header); err != nil {
		return nil, "", fmt.Errorf("failed to style header: %w", err)
	}

	for i, record := range records {
		rowNum := i + 2
		values := exportValues(record)

		for c, value := range values {
			cell, err := excelize.CoordinatesToCellName(c+1, rowNum)
			if err != nil {
				return nil, "", err
			}
			if err := f.SetCellStr(ExportSheetName, cell, value); err != nil {
				return nil, "", fmt.Errorf("failed to write cell %s: %w", cell, err)
			}
			if err := f.SetCellStyle(ExportSheetName, cell, cell, styles.forCell(i, value)); err != nil {
				return nil, "", fmt.Errorf("failed to style cell %s: %w", cell, err)
			}
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, "", fmt.Errorf("failed to write workbook: %w", err)
	}

	return buf.Bytes(), ExportFileName(now), nil
}

// exportValues re-validates both dates before they are written.
func exportValues(record domain.CheckInRecord) []string {
	values := record.Values()
	for i, column := range domain.ProjectedColumns {
		if column != domain.ColumnCheckin && column != domain.ColumnCheckout {
			continue
		}

		v := values[i]
		switch {
		case strings.TrimSpace(v) == "":
			values[i] = ""
		case normalize.IsCanonicalDate(v):
		default:
			values[i] = normalize.Date(v)
		}
	}
	return values
}

type exportStyles struct {
	header int
	// indexed by [row parity][centered]
	body [2][2]int
}

func (s exportStyles) forCell(rowIndex int, value string) int {
	centered := 0
	if value != "" && (strings.Contains(value, "/") || isNumeric(value)) {
		centered = 1
	}
	return s.body[rowIndex%2][centered]
}

func isNumeric(s string) bool {
	_, err := strconv.ParseFloat(s, 64)
	return err == nil
}

func thinBorders() []excelize.Border {
	return []excelize.Border{
		{Type: "left", Color: "000000", Style: 1},
		{Type: "top", Color: "000000", Style: 1},
		{Type: "right", Color: "000000", Style: 1},
		{Type: "bottom", Color: "000000", Style: 1},
	}
}

func newExportStyles(f *excelize.File) (exportStyles, error) {
	var styles exportStyles

	header, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true},
		Fill:      excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{headerFill}},
		Border:    thinBorders(),
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return styles, fmt.Errorf("failed to create header style: %w", err)
	}
	styles.header = header

	fills := [2]string{evenRowFill, oddRowFill}
	alignments := [2]string{"left", "center"}

	for parity, fill := range fills {
		for a, horizontal := range alignments {
			id, err := f.NewStyle(&excelize.Style{
				Fill:      excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{fill}},
				Border:    thinBorders(),
				Alignment: &excelize.Alignment{Horizontal: horizontal},
			})
			if err != nil {
				return styles, fmt.Errorf("failed to create row style: %w", err)
			}
			styles.body[parity][a] = id
		}
	}

	return styles, nil
}
