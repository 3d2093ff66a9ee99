package numerator

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFiscalYearStart(t *testing.T) {
	tests := []struct {
		name string
		date time.Time
		want int
	}{
		{"april first", time.Date(2025, time.April, 1, 0, 0, 0, 0, time.UTC), 2025},
		{"march thirty-first", time.Date(2025, time.March, 31, 23, 59, 59, 0, time.UTC), 2024},
		{"mid year", time.Date(2025, time.September, 15, 0, 0, 0, 0, time.UTC), 2025},
		{"january", time.Date(2026, time.January, 10, 0, 0, 0, 0, time.UTC), 2025},
		{"december", time.Date(2025, time.December, 31, 0, 0, 0, 0, time.UTC), 2025},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FiscalYearStart(tt.date))
		})
	}
}

func TestFiscalYearLabel(t *testing.T) {
	assert.Equal(t, "25-26", FiscalYearLabel(time.Date(2025, time.July, 15, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, "24-25", FiscalYearLabel(time.Date(2025, time.February, 1, 0, 0, 0, 0, time.UTC)))
	// century boundary keeps two digits
	assert.Equal(t, "99-00", FiscalYearLabel(time.Date(1999, time.June, 1, 0, 0, 0, 0, time.UTC)))
}

func TestFiscalYearBounds(t *testing.T) {
	from, to := FiscalYearBounds(time.Date(2025, time.October, 5, 12, 0, 0, 0, time.UTC))

	assert.Equal(t, time.Date(2025, time.April, 1, 0, 0, 0, 0, time.UTC), from)
	assert.Equal(t, 2026, to.Year())
	assert.Equal(t, time.March, to.Month())
	assert.Equal(t, 31, to.Day())

	// the bounds themselves land in the same fiscal year
	assert.Equal(t, FiscalYearLabel(from), FiscalYearLabel(to))
}
