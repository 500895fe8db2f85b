package ccda

import (
	"fmt"
	"strings"
	"time"
)

// ParseHL7Time parses an HL7 compact time string into a time.Time.
func ParseHL7Time(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if i := strings.IndexAny(s, "+-"); i > 0 {
		s = s[:i]
	}
	switch {
	case len(s) >= 14:
		return time.Parse("20060102150405", s[:14])
	case len(s) >= 12:
		return time.Parse("200601021504", s[:12])
	case len(s) >= 8:
		return time.Parse("20060102", s[:8])
	default:
		return time.Time{}, fmt.Errorf("ccda: unrecognized time format: %s", s)
	}
}

// StorageDate converts an HL7 compact date to the YYYY-MM-DD storage form.
// Values that are empty, zero, or unparseable come back empty: absent dates
// stay absent downstream.
func StorageDate(s string) string {
	s = strings.TrimSpace(s)
	if s == "" || s == "0" {
		return ""
	}
	if strings.Contains(s, "-") && len(s) >= 10 {
		if _, err := time.Parse("2006-01-02", s[:10]); err == nil {
			return s[:10]
		}
	}
	t, err := ParseHL7Time(s)
	if err != nil {
		return ""
	}
	return t.Format("2006-01-02")
}

// StorageTime converts an HL7 compact timestamp to YYYY-MM-DD HH:MM:SS.
func StorageTime(s string) string {
	t, err := ParseHL7Time(s)
	if err != nil {
		return ""
	}
	return t.Format("2006-01-02 15:04:05")
}

// DigitsOnly strips every non-digit rune, used for phone numbers.
func DigitsOnly(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
