// Package numerator provides document auto-numbering scoped to company,
// fiscal year, and site.
//
// Numbers follow the pattern COMPANY/FY/SITE/SEQ, e.g. DCTPL/25-26/MUM01/00042.
// Sequences live in a dedicated counter table (sys_sequences) bumped with an
// atomic UPSERT ... RETURNING, so two concurrent creations can never read the
// same value; the unique index on the document number column is the backstop.
package numerator

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
)

// Strategy defines the numbering generation strategy.
type Strategy int

const (
	// StrategyStrict uses UPDATE ... RETURNING for every number.
	// Guarantees sequential numbers without gaps. Use for financial
	// documents (purchase orders).
	StrategyStrict Strategy = iota

	// StrategyCached allocates ranges of numbers in memory.
	// Much faster, but may produce gaps if the application restarts.
	// Acceptable for internal documents (delivery challans).
	StrategyCached
)

// Options configuration for number generation.
type Options struct {
	Strategy Strategy
	// RangeSize is the number of IDs to allocate at once in Cached strategy.
	// Default is 50.
	RangeSize int64
}

// DefaultOptions returns standard options (Strict).
func DefaultOptions() *Options {
	return &Options{Strategy: StrategyStrict}
}

// Config holds numbering configuration for one document series.
type Config struct {
	// DocType keys the sequence (e.g. "PO", "ODC")
	DocType string

	// CompanyCode prefixes every number (e.g. "DCTPL")
	CompanyCode string

	// SiteCode scopes the sequence to one site
	SiteCode string

	// PadWidth is the minimum sequence width (default 5)
	PadWidth int
}

// Validate checks that all structural number parts are present.
func (c Config) Validate() error {
	if c.DocType == "" {
		return fmt.Errorf("numerator: doc type is required")
	}
	if c.CompanyCode == "" {
		return fmt.Errorf("numerator: company code is required")
	}
	if c.SiteCode == "" {
		return fmt.Errorf("numerator: site code is required")
	}
	return nil
}

// Generator produces document numbers. Implemented by Service; tests use Mock.
type Generator interface {
	NextNumber(ctx context.Context, cfg Config, opts *Options, period time.Time) (string, error)
}

// Querier interface for database operations.
type Querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type cachedRange struct {
	current int64
	max     int64
}

// Service provides document numbering backed by the sys_sequences table.
type Service struct {
	querier Querier

	cacheMu sync.Mutex
	ranges  map[string]*cachedRange
}

var _ Generator = (*Service)(nil)

// New creates a new numerator service.
func New(querier Querier) *Service {
	return &Service{
		querier: querier,
		ranges:  make(map[string]*cachedRange),
	}
}

// NextNumber generates the next document number for the series defined by
// cfg, scoped to the fiscal year containing period.
func (s *Service) NextNumber(ctx context.Context, cfg Config, opts *Options, period time.Time) (string, error) {
	if s == nil {
		return "", fmt.Errorf("numerator service is not initialized")
	}
	if err := cfg.Validate(); err != nil {
		return "", err
	}
	if opts == nil {
		opts = DefaultOptions()
	}

	key := s.buildKey(cfg, period)

	var num int64
	var err error
	switch opts.Strategy {
	case StrategyCached:
		num, err = s.nextCached(ctx, key, opts)
	default:
		num, err = s.nextStrict(ctx, key)
	}
	if err != nil {
		return "", err
	}

	return s.formatNumber(cfg, period, num), nil
}

// nextStrict fetches the next number directly from the DB using
// UPSERT + RETURNING. current_val always holds the last value handed out.
func (s *Service) nextStrict(ctx context.Context, key string) (int64, error) {
	var num int64
	err := s.querier.QueryRow(ctx, `
        INSERT INTO sys_sequences (key, current_val)
        VALUES ($1, 1)
        ON CONFLICT (key) DO UPDATE SET current_val = sys_sequences.current_val + 1
        RETURNING current_val
	`, key).Scan(&num)
	if err != nil {
		return 0, fmt.Errorf("strict next: %w", err)
	}
	return num, nil
}

// nextCached serves numbers from an in-memory range, reserving a new range
// from the DB when exhausted. The reserved range is (newMax-size, newMax].
func (s *Service) nextCached(ctx context.Context, key string, opts *Options) (int64, error) {
	s.cacheMu.Lock()
	defer s.cacheMu.Unlock()

	rng, exists := s.ranges[key]
	if !exists {
		rng = &cachedRange{}
		s.ranges[key] = rng
	}

	if rng.current >= rng.max {
		size := opts.RangeSize
		if size <= 0 {
			size = 50
		}

		var newMax int64
		err := s.querier.QueryRow(ctx, `
            INSERT INTO sys_sequences (key, current_val)
            VALUES ($1, $2)
            ON CONFLICT (key) DO UPDATE SET current_val = sys_sequences.current_val + $2
            RETURNING current_val
		`, key, size).Scan(&newMax)
		if err != nil {
			return 0, fmt.Errorf("reserve range: %w", err)
		}

		rng.current = newMax - size
		rng.max = newMax
	}

	rng.current++
	return rng.current, nil
}

// SetNextValue sets the counter value for a series (migration use).
func (s *Service) SetNextValue(ctx context.Context, cfg Config, period time.Time, value int64) error {
	key := s.buildKey(cfg, period)

	var result int64
	err := s.querier.QueryRow(ctx, `
		INSERT INTO sys_sequences (key, current_val)
		VALUES ($1, $2)
		ON CONFLICT (key) DO UPDATE SET current_val = $2
		RETURNING current_val
	`, key, value).Scan(&result)

	s.cacheMu.Lock()
	delete(s.ranges, key)
	s.cacheMu.Unlock()

	return err
}

// buildKey creates the sequence key. Sequences reset every fiscal year and
// are independent per site.
func (s *Service) buildKey(cfg Config, period time.Time) string {
	return fmt.Sprintf("%s_%s_%s_%s", cfg.DocType, cfg.CompanyCode, FiscalYearLabel(period), cfg.SiteCode)
}

// formatNumber renders COMPANY/FY/SITE/SEQ.
func (s *Service) formatNumber(cfg Config, period time.Time, num int64) string {
	padWidth := cfg.PadWidth
	if padWidth == 0 {
		padWidth = 5
	}
	return fmt.Sprintf("%s/%s/%s/%0*d", cfg.CompanyCode, FiscalYearLabel(period), cfg.SiteCode, padWidth, num)
}

// ParseSequence extracts the trailing sequence from a formatted number.
// Returns -1 if parsing fails.
func ParseSequence(formatted string) int64 {
	idx := strings.LastIndex(formatted, "/")
	if idx < 0 || idx == len(formatted)-1 {
		return -1
	}
	var num int64
	if _, err := fmt.Sscanf(formatted[idx+1:], "%d", &num); err != nil {
		return -1
	}
	return num
}
