// Package normalize converts the date and phone representations found in
// reservation reports into their canonical forms.
package normalize

import (
	"regexp"
	"strings"
	"time"

	"github.com/onurcolak/checkin-dispatch-service/pkg/logger"
)

// CanonicalDateLayout is dd/mm/yyyy.
const CanonicalDateLayout = "02/01/2006"

var canonicalDate = regexp.MustCompile(`^\d{2}/\d{2}/\d{4}$`)

// Layouts tried, in order, once the dd/mm/yyyy and yyyy-mm-dd shapes have
// been ruled out.
var fallbackLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	time.RFC1123Z,
	time.RFC1123,
	"Jan 2, 2006",
	"January 2, 2006",
	"2 Jan 2006",
	"2 January 2006",
	"Mon Jan 2 2006",
	"2006/1/2",
	// Slash dates the shortcut in Date rejects are read month first.
	"1/2/06",
	"1/2/2006",
}

// Date converts s to dd/mm/yyyy. Strings already shaped like dd/mm/yyyy are
// returned unchanged, yyyy-mm-dd is reordered with zero padding, and anything
// else goes through a list of known layouts. Blank input gives "" and
// unrecognized input is returned as is.
func Date(s string) string {
	if strings.TrimSpace(s) == "" {
		return ""
	}

	if strings.Contains(s, "/") {
		if parts := strings.Split(s, "/"); len(parts) == 3 &&
			len(parts[0]) <= 2 && len(parts[1]) <= 2 && len(parts[2]) >= 4 {
			return s
		}
	}

	if strings.Contains(s, "-") {
		if parts := strings.Split(s, "-"); len(parts) == 3 && allDigits(parts[0]) && allDigits(parts[1]) && allDigits(parts[2]) {
			year, month, day := parts[0], parts[1], parts[2]
			if year == "" || month == "" || day == "" {
				return ""
			}
			return padLeft(day) + "/" + padLeft(month) + "/" + year
		}
	}

	trimmed := strings.TrimSpace(s)
	for _, layout := range fallbackLayouts {
		if t, err := time.Parse(layout, trimmed); err == nil {
			return FormatDate(t)
		}
	}

	logger.Warnf("Unrecognized date format: %q", s)
	return s
}

// FormatDate renders t as dd/mm/yyyy.
func FormatDate(t time.Time) string {
	return t.Format(CanonicalDateLayout)
}

// IsCanonicalDate reports whether s is exactly dd/mm/yyyy.
func IsCanonicalDate(s string) bool {
	return canonicalDate.MatchString(s)
}

func allDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func padLeft(s string) string {
	if len(s) < 2 {
		return strings.Repeat("0", 2-len(s)) + s
	}
	return s
}
