package numerator

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// Mock is an in-memory Generator for tests and seeding.
type Mock struct {
	mu   sync.Mutex
	seqs map[string]int64
}

var _ Generator = (*Mock)(nil)

// NewMock creates a mock generator.
func NewMock() *Mock {
	return &Mock{seqs: make(map[string]int64)}
}

// NextNumber returns sequential numbers per (doc type, company, FY, site).
func (m *Mock) NextNumber(_ context.Context, cfg Config, _ *Options, period time.Time) (string, error) {
	if err := cfg.Validate(); err != nil {
		return "", err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	key := fmt.Sprintf("%s_%s_%s_%s", cfg.DocType, cfg.CompanyCode, FiscalYearLabel(period), cfg.SiteCode)
	m.seqs[key]++

	padWidth := cfg.PadWidth
	if padWidth == 0 {
		padWidth = 5
	}
	return fmt.Sprintf("%s/%s/%s/%0*d", cfg.CompanyCode, FiscalYearLabel(period), cfg.SiteCode, padWidth, m.seqs[key]), nil
}
