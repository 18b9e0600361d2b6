package normalize

import "strings"

// CountryPrefix is prepended to numbers that do not already carry it.
const CountryPrefix = "55"

// Phone keeps only the digits of s and prepends the Brazilian country code
// when missing. Length is not validated.
func Phone(s string) string {
	var b strings.Builder
	b.Grow(len(s) + len(CountryPrefix))

	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}

	digits := b.String()
	if !strings.HasPrefix(digits, CountryPrefix) {
		return CountryPrefix + digits
	}
	return digits
}
