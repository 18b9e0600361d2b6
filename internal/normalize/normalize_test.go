package normalize

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDate(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"iso date", "2025-03-07", "07/03/2025"},
		{"iso date without padding", "2025-3-7", "07/03/2025"},
		{"canonical is unchanged", "07/03/2025", "07/03/2025"},
		{"short day and month kept as is", "7/3/2025", "7/3/2025"},
		{"empty", "", ""},
		{"blank", "   ", ""},
		{"iso date time", "2025-03-07T10:30:00", "07/03/2025"},
		{"rfc3339", "2025-03-07T10:30:00Z", "07/03/2025"},
		{"long month name", "March 7, 2025", "07/03/2025"},
		{"year first with slashes", "2025/3/7", "07/03/2025"},
		{"year first with slashes padded", "2025/03/07", "07/03/2025"},
		{"two digit year is month first", "3/7/25", "07/03/2025"},
		{"unparseable returned unchanged", "amanhã", "amanhã"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Date(tc.in))
		})
	}
}

func TestDate_Idempotent(t *testing.T) {
	once := Date("2025-12-31")
	assert.Equal(t, "31/12/2025", once)
	assert.Equal(t, once, Date(once))
}

func TestFormatDate(t *testing.T) {
	d := time.Date(2025, time.January, 5, 23, 59, 0, 0, time.UTC)
	assert.Equal(t, "05/01/2025", FormatDate(d))
}

func TestIsCanonicalDate(t *testing.T) {
	assert.True(t, IsCanonicalDate("07/03/2025"))
	assert.False(t, IsCanonicalDate("7/3/2025"))
	assert.False(t, IsCanonicalDate("07/03/2025 10:00"))
	assert.False(t, IsCanonicalDate(""))
}

func TestPhone(t *testing.T) {
	assert.Equal(t, "5511999990000", Phone("(11) 99999-0000"))
	assert.Equal(t, "5511999990000", Phone("5511999990000"))
	assert.Equal(t, "5511999990000", Phone("+55 11 99999-0000"))
	assert.Equal(t, "55", Phone(""))
}

func TestPhone_Idempotent(t *testing.T) {
	once := Phone("(21) 98888-7777")
	assert.Equal(t, once, Phone(once))
}
