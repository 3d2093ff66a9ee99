package numerator

import (
	"fmt"
	"time"
)

// Indian construction accounting uses an April-to-March fiscal year; all
// document numbering is scoped to it.

// FiscalYearStart returns the calendar year in which the fiscal year
// containing t starts. April or later belongs to the fiscal year starting
// that calendar year; January-March belong to the previous one.
func FiscalYearStart(t time.Time) int {
	t = t.UTC()
	if t.Month() >= time.April {
		return t.Year()
	}
	return t.Year() - 1
}

// FiscalYearLabel formats the fiscal year containing t as two-digit "YY-YY",
// e.g. 2025-07-15 -> "25-26".
func FiscalYearLabel(t time.Time) string {
	start := FiscalYearStart(t)
	return fmt.Sprintf("%02d-%02d", start%100, (start+1)%100)
}

// FiscalYearBounds returns the inclusive UTC bounds of the fiscal year
// containing t: April 1 00:00:00 through March 31 23:59:59.999.
func FiscalYearBounds(t time.Time) (time.Time, time.Time) {
	start := FiscalYearStart(t)
	from := time.Date(start, time.April, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(start+1, time.March, 31, 23, 59, 59, 999_000_000, time.UTC)
	return from, to
}
