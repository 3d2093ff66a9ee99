package stock

import (
	"context"
	"fmt"
	"time"

	"sitestock/internal/core/apperror"
	"sitestock/internal/core/entity"
	"sitestock/internal/core/id"
	"sitestock/internal/core/types"
	"sitestock/pkg/logger"
)

// Movement describes one physical stock movement to record. Movements are
// applied inside an ambient transaction owned by the calling document
// service; the register never opens its own.
type Movement struct {
	SiteID       id.ID
	ItemID       id.ID
	DocumentID   id.ID
	DocumentType string
	Date         time.Time

	Quantity types.Quantity
	// Rate is the unit cost. Required for receipts; for issues it is taken
	// from the balance row and ignored if set.
	Rate types.Money

	// BatchNumber and ExpiryDate are set only for expiry-tracked items.
	BatchNumber string
	ExpiryDate  time.Time
}

func (m Movement) validate() error {
	if !m.Quantity.IsPositive() {
		return apperror.NewValidation("movement quantity must be positive").
			WithDetail("item_id", m.ItemID)
	}
	if id.IsNil(m.DocumentID) {
		return apperror.NewValidation("movement document reference is required")
	}
	return nil
}

// Service provides business operations for the stock register.
// Balances are updated incrementally through the receipt/issue contract,
// never recomputed from scratch, so the weighted-average rate history is
// preserved.
type Service struct {
	repo Repository
}

// NewService creates a new stock register service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Receive records a receipt: one ledger entry plus a weighted-average
// balance update at siteID. Returns the balance after the movement.
func (s *Service) Receive(ctx context.Context, m Movement) (entity.SiteItemBalance, error) {
	if err := m.validate(); err != nil {
		return entity.SiteItemBalance{}, err
	}
	if m.Rate.IsNegative() {
		return entity.SiteItemBalance{}, apperror.NewValidation("receipt rate cannot be negative").
			WithDetail("item_id", m.ItemID)
	}

	balance, found, err := s.repo.GetBalanceForUpdate(ctx, m.SiteID, m.ItemID)
	if err != nil {
		return entity.SiteItemBalance{}, fmt.Errorf("get balance: %w", err)
	}
	if !found {
		balance = entity.NewSiteItemBalance(m.SiteID, m.ItemID)
	}

	entry := entity.NewStockEntry(
		m.DocumentID, m.DocumentType, m.Date, entity.EntryTypeReceipt,
		m.SiteID, m.ItemID, m.Quantity, m.Rate,
	)
	entry.BatchNumber = m.BatchNumber
	if err := s.repo.AppendEntries(ctx, []entity.StockEntry{entry}); err != nil {
		return entity.SiteItemBalance{}, fmt.Errorf("append ledger entry: %w", err)
	}

	balance.ApplyReceipt(m.Quantity, m.Rate)
	balance.LastEntryAt = m.Date
	if err := s.repo.SaveBalance(ctx, balance); err != nil {
		return entity.SiteItemBalance{}, fmt.Errorf("save balance: %w", err)
	}

	if m.BatchNumber != "" {
		if err := s.applyBatchReceipt(ctx, m); err != nil {
			return entity.SiteItemBalance{}, err
		}
	}

	logger.Debug(ctx, "stock received",
		"site_id", m.SiteID, "item_id", m.ItemID,
		"qty", m.Quantity, "rate", m.Rate,
	)
	return balance, nil
}

// Issue records an issue: one ledger entry plus a balance decrement at
// siteID. The balance rate is unchanged; only quantity and value move.
// Callers must have validated the quantity against current stock; the
// register clamps at zero rather than going negative.
func (s *Service) Issue(ctx context.Context, m Movement) (entity.SiteItemBalance, error) {
	if err := m.validate(); err != nil {
		return entity.SiteItemBalance{}, err
	}

	balance, found, err := s.repo.GetBalanceForUpdate(ctx, m.SiteID, m.ItemID)
	if err != nil {
		return entity.SiteItemBalance{}, fmt.Errorf("get balance: %w", err)
	}
	if !found {
		balance = entity.NewSiteItemBalance(m.SiteID, m.ItemID)
	}

	entry := entity.NewStockEntry(
		m.DocumentID, m.DocumentType, m.Date, entity.EntryTypeIssue,
		m.SiteID, m.ItemID, m.Quantity, balance.UnitRate,
	)
	entry.BatchNumber = m.BatchNumber
	if err := s.repo.AppendEntries(ctx, []entity.StockEntry{entry}); err != nil {
		return entity.SiteItemBalance{}, fmt.Errorf("append ledger entry: %w", err)
	}

	balance.ApplyIssue(m.Quantity)
	balance.LastEntryAt = m.Date
	if err := s.repo.SaveBalance(ctx, balance); err != nil {
		return entity.SiteItemBalance{}, fmt.Errorf("save balance: %w", err)
	}

	if m.BatchNumber != "" {
		if err := s.applyBatchIssue(ctx, m); err != nil {
			return entity.SiteItemBalance{}, err
		}
	}

	logger.Debug(ctx, "stock issued",
		"site_id", m.SiteID, "item_id", m.ItemID, "qty", m.Quantity,
	)
	return balance, nil
}

// applyBatchReceipt mirrors a receipt at batch granularity. An existing
// batch's expiry date is immutable: a movement citing a different date for
// the same batch number is rejected so two lots never merge silently.
func (s *Service) applyBatchReceipt(ctx context.Context, m Movement) error {
	batch, found, err := s.repo.GetBatchForUpdate(ctx, m.SiteID, m.ItemID, m.BatchNumber)
	if err != nil {
		return fmt.Errorf("get batch: %w", err)
	}
	if !found {
		batch = entity.NewSiteItemBatchBalance(m.SiteID, m.ItemID, m.BatchNumber, m.ExpiryDate)
	} else if !m.ExpiryDate.IsZero() && !batch.SameExpiry(m.ExpiryDate) {
		return apperror.NewBusinessRule(apperror.CodeBatchExpiryConflict,
			"batch expiry date does not match existing batch").
			WithDetail("batch_number", m.BatchNumber).
			WithDetail("existing_expiry", batch.ExpiryDate.Format("2006-01-02")).
			WithDetail("given_expiry", m.ExpiryDate.Format("2006-01-02"))
	}

	batch.ApplyReceipt(m.Quantity, m.Rate)
	if err := s.repo.SaveBatch(ctx, batch); err != nil {
		return fmt.Errorf("save batch: %w", err)
	}
	return nil
}

func (s *Service) applyBatchIssue(ctx context.Context, m Movement) error {
	batch, found, err := s.repo.GetBatchForUpdate(ctx, m.SiteID, m.ItemID, m.BatchNumber)
	if err != nil {
		return fmt.Errorf("get batch: %w", err)
	}
	if !found {
		return apperror.NewValidation("batch does not exist at source site").
			WithDetail("batch_number", m.BatchNumber)
	}
	if !m.ExpiryDate.IsZero() && !batch.SameExpiry(m.ExpiryDate) {
		return apperror.NewBusinessRule(apperror.CodeBatchExpiryConflict,
			"batch expiry date does not match existing batch").
			WithDetail("batch_number", m.BatchNumber).
			WithDetail("existing_expiry", batch.ExpiryDate.Format("2006-01-02")).
			WithDetail("given_expiry", m.ExpiryDate.Format("2006-01-02"))
	}
	if batch.ClosingQty < m.Quantity {
		return apperror.NewInsufficientStock(m.ItemID.String(), m.Quantity.Float64(), batch.ClosingQty.Float64()).
			WithDetail("batch_number", m.BatchNumber)
	}

	batch.ApplyIssue(m.Quantity)
	if err := s.repo.SaveBatch(ctx, batch); err != nil {
		return fmt.Errorf("save batch: %w", err)
	}
	return nil
}

// BalanceForUpdate reads the current balance under a row lock. Document
// transitions use this to validate quantities against stock that cannot
// move until their transaction commits.
func (s *Service) BalanceForUpdate(ctx context.Context, siteID, itemID id.ID) (entity.SiteItemBalance, error) {
	balance, found, err := s.repo.GetBalanceForUpdate(ctx, siteID, itemID)
	if err != nil {
		return entity.SiteItemBalance{}, fmt.Errorf("get balance for update: %w", err)
	}
	if !found {
		balance = entity.NewSiteItemBalance(siteID, itemID)
	}
	return balance, nil
}

// CheckAvailability validates that requiredQty is available at the site,
// locking the balance row for the rest of the transaction.
func (s *Service) CheckAvailability(ctx context.Context, siteID, itemID id.ID, requiredQty types.Quantity) error {
	balance, err := s.BalanceForUpdate(ctx, siteID, itemID)
	if err != nil {
		return err
	}
	if balance.ClosingStock < requiredQty {
		return apperror.NewInsufficientStock(itemID.String(), requiredQty.Float64(), balance.ClosingStock.Float64())
	}
	return nil
}

// GetBalance returns the current balance without locking.
func (s *Service) GetBalance(ctx context.Context, siteID, itemID id.ID) (entity.SiteItemBalance, error) {
	return s.repo.GetBalance(ctx, siteID, itemID)
}

// GetSiteStock returns all items with stock at a site.
func (s *Service) GetSiteStock(ctx context.Context, siteID id.ID) ([]entity.SiteItemBalance, error) {
	return s.repo.GetBalancesBySite(ctx, siteID, BalanceFilter{ExcludeZero: true})
}

// GetItemAvailability returns total quantity of an item across sites.
func (s *Service) GetItemAvailability(ctx context.Context, itemID id.ID) (types.Quantity, error) {
	balances, err := s.repo.GetBalancesByItem(ctx, itemID)
	if err != nil {
		return 0, fmt.Errorf("get balances: %w", err)
	}

	var total types.Quantity
	for _, b := range balances {
		total += b.ClosingStock
	}
	return total, nil
}

// GetBatches returns batch balances for an expiry-tracked item at a site.
func (s *Service) GetBatches(ctx context.Context, siteID, itemID id.ID) ([]entity.SiteItemBatchBalance, error) {
	return s.repo.GetBatches(ctx, siteID, itemID)
}

// GetHistory returns ledger history for an item.
func (s *Service) GetHistory(ctx context.Context, itemID id.ID, filter EntryFilter) ([]entity.StockEntry, error) {
	return s.repo.GetEntryHistory(ctx, itemID, filter)
}

// GetTurnover generates a turnover report for the period.
func (s *Service) GetTurnover(ctx context.Context, filter TurnoverFilter) (Turnover, error) {
	return s.repo.GetTurnover(ctx, filter)
}
