package report

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/onurcolak/checkin-dispatch-service/internal/domain"
	"github.com/onurcolak/checkin-dispatch-service/internal/normalize"
	"github.com/onurcolak/checkin-dispatch-service/pkg/logger"
)

// IsPendingCheckin reports whether a row has online check-in not done and a
// fully paid reservation. Only false, "False", 0 and "0" count as "not done".
func IsPendingCheckin(row domain.Row) bool {
	return checkinWebNotDone(row[domain.ColumnCheckinWeb]) && row[domain.ColumnPaymentStatus] == domain.PaymentStatusFull
}

func checkinWebNotDone(v any) bool {
	switch x := v.(type) {
	case bool:
		return !x
	case string:
		return x == "False" || x == "0"
	case float64:
		return x == 0
	case int:
		return x == 0
	case int64:
		return x == 0
	default:
		return false
	}
}

// MissingColumns lists the projected columns absent from the first row.
func MissingColumns(rows []domain.Row) []string {
	var missing []string
	for _, column := range domain.ProjectedColumns {
		if len(rows) == 0 {
			missing = append(missing, column)
			continue
		}
		if _, ok := rows[0][column]; !ok {
			missing = append(missing, column)
		}
	}
	return missing
}

// Project keeps the pending check-in rows and maps each one onto a
// CheckInRecord. Missing columns and bad date cells are logged and never stop
// the projection.
func Project(rows []domain.Row) []domain.CheckInRecord {
	if missing := MissingColumns(rows); len(missing) > 0 {
		logger.Warnf("Columns missing from report: %s", strings.Join(missing, ", "))
	}

	for _, column := range []string{domain.ColumnCheckinWeb, domain.ColumnPaymentStatus} {
		if len(rows) > 0 {
			if _, ok := rows[0][column]; !ok {
				logger.Warnf("Filter column %q not found in report", column)
			}
		}
	}

	records := make([]domain.CheckInRecord, 0)
	for _, row := range rows {
		if !IsPendingCheckin(row) {
			continue
		}
		records = append(records, projectRow(row))
	}

	return records
}

func projectRow(row domain.Row) domain.CheckInRecord {
	var record domain.CheckInRecord

	for _, column := range domain.ProjectedColumns {
		value, ok := row[column]
		if !ok {
			record.Set(column, "")
			continue
		}

		if column == domain.ColumnCheckin || column == domain.ColumnCheckout {
			record.Set(column, dateCell(column, value))
			continue
		}

		record.Set(column, stringCell(value))
	}

	return record
}

func dateCell(column string, v any) string {
	switch x := v.(type) {
	case time.Time:
		return normalize.FormatDate(x)
	case float64:
		return serialDate(column, x)
	case int:
		return serialDate(column, float64(x))
	case string:
		if strings.TrimSpace(x) == "" {
			return x
		}
		return normalize.Date(x)
	default:
		return stringCell(v)
	}
}

func serialDate(column string, serial float64) string {
	t, err := excelize.ExcelDateToTime(serial, false)
	if err != nil {
		logger.Warnf("Could not convert %s serial date %v: %v", column, serial, err)
		return stringCell(serial)
	}
	return normalize.FormatDate(t)
}

func stringCell(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case int:
		return strconv.Itoa(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case bool:
		return strconv.FormatBool(x)
	case time.Time:
		return normalize.FormatDate(x)
	default:
		return fmt.Sprint(x)
	}
}
