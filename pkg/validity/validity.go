// Package validity normalizes and formats a card's expiry ("validade").
// Values are either a month ("MM/YYYY") or an RFC 3339 timestamp; the
// default for new members is one year after issuance.
package validity

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

const (
	monthLayout = "01/2006"
	isoLayout   = "2006-01-02T15:04:05.000Z07:00"
	// Placeholder is shown when a card has no expiry.
	Placeholder = "–"
)

// Default returns now plus one year as a UTC timestamp with millisecond precision.
func Default(now time.Time) string {
	return now.AddDate(1, 0, 0).UTC().Format(isoLayout)
}

// Normalize validates raw and returns its canonical form. Empty input stays
// empty; "M/YYYY" is zero padded; dates and timestamps are kept in UTC.
func Normalize(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", nil
	}

	if month, year, ok := strings.Cut(raw, "/"); ok {
		if len(month) < 1 || len(month) > 2 || len(year) != 4 || !digits(month) || !digits(year) {
			return "", fmt.Errorf("validade %q must be MM/YYYY", raw)
		}
		m, _ := strconv.Atoi(month)
		y, _ := strconv.Atoi(year)
		if m < 1 || m > 12 {
			return "", fmt.Errorf("validade %q must be MM/YYYY", raw)
		}
		return fmt.Sprintf("%02d/%04d", m, y), nil
	}

	if t, err := time.Parse(time.RFC3339Nano, raw); err == nil {
		return t.UTC().Format(isoLayout), nil
	}
	if t, err := time.Parse(time.DateOnly, raw); err == nil {
		return t.Format(time.DateOnly), nil
	}
	return "", fmt.Errorf("validade %q must be MM/YYYY, YYYY-MM-DD or an RFC 3339 timestamp", raw)
}

func digits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// Display renders the value as it appears on a card: "MM/YYYY", or the
// placeholder when empty. Unrecognised values are shown as stored.
func Display(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Placeholder
	}
	if _, err := time.Parse(monthLayout, raw); err == nil {
		return raw
	}
	if t, err := time.Parse(time.RFC3339Nano, raw); err == nil {
		return t.UTC().Format(monthLayout)
	}
	if t, err := time.Parse(time.DateOnly, raw); err == nil {
		return t.Format(monthLayout)
	}
	return raw
}
