package agents

import (
	"regexp"
	"time"
)

var isoDatePattern = regexp.MustCompile(`\b(\d{4}-\d{2}-\d{2})\b`)

// ExtractDay returns the first ISO date (YYYY-MM-DD) mentioned in the
// question, or fallback's date when the question carries none. Strings that
// look like dates but do not parse ("2026-13-45") are ignored.
func ExtractDay(question string, fallback time.Time) string {
	for _, m := range isoDatePattern.FindAllString(question, -1) {
		if _, err := time.Parse("2006-01-02", m); err == nil {
			return m
		}
	}
	return fallback.Format("2006-01-02")
}
