package challan

import (
	"context"
	"fmt"
	"time"

	"sitestock/internal/core/apperror"
	"sitestock/internal/core/appctx"
	"sitestock/internal/core/id"
	"sitestock/internal/core/tx"
	"sitestock/internal/core/types"
	"sitestock/internal/domain"
	"sitestock/internal/domain/catalogs/item"
	"sitestock/internal/domain/catalogs/site"
	"sitestock/internal/domain/registers/stock"
	"sitestock/pkg/logger"
	"sitestock/pkg/numerator"
)

// LineApproval carries the approver's quantity decision for one line.
type LineApproval struct {
	LineID   id.ID          `json:"lineId"`
	Quantity types.Quantity `json:"quantity"`
}

// BatchReceipt is one batch split reported by the receiving site.
type BatchReceipt struct {
	BatchNumber string         `json:"batchNumber"`
	ExpiryDate  time.Time      `json:"expiryDate"`
	Quantity    types.Quantity `json:"quantity"`
}

// LineAcceptance carries the receiver's quantity for one line, with the
// batch split for expiry-tracked items.
type LineAcceptance struct {
	LineID   id.ID          `json:"lineId"`
	Quantity types.Quantity `json:"quantity"`
	Batches  []BatchReceipt `json:"batches,omitempty"`
}

// Service provides business operations for outward challans.
type Service struct {
	repo        Repository
	stock       *stock.Service
	items       item.Repository
	sites       site.Repository
	numerator   numerator.Generator
	txManager   tx.Manager
	companyCode string
}

// NewService creates a new challan service.
func NewService(
	repo Repository,
	stockSvc *stock.Service,
	items item.Repository,
	sites site.Repository,
	gen numerator.Generator,
	txManager tx.Manager,
	companyCode string,
) *Service {
	return &Service{
		repo:        repo,
		stock:       stockSvc,
		items:       items,
		sites:       sites,
		numerator:   gen,
		txManager:   txManager,
		companyCode: companyCode,
	}
}

// Create creates a draft challan. Expiry tracking flags are copied from
// the item catalog onto the lines so later transitions do not depend on
// catalog edits made in between.
func (s *Service) Create(ctx context.Context, doc *OutwardChallan) error {
	doc.Status = StatusDraft
	doc.CreatedBy = appctx.GetUserID(ctx)

	if err := doc.Validate(ctx); err != nil {
		return err
	}

	itemIDs := make([]id.ID, 0, len(doc.Lines))
	for _, line := range doc.Lines {
		itemIDs = append(itemIDs, line.ItemID)
	}
	catalogItems, err := s.items.GetByIDs(ctx, itemIDs)
	if err != nil {
		return fmt.Errorf("load items: %w", err)
	}
	for i := range doc.Lines {
		it, ok := catalogItems[doc.Lines[i].ItemID]
		if !ok {
			return apperror.NewNotFound("item", doc.Lines[i].ItemID)
		}
		doc.Lines[i].ExpiryTracked = it.ExpiryTracked
		doc.Lines[i].Quantity = doc.Lines[i].ChallanQty
	}

	if doc.Number == "" {
		number, err := s.generateNumber(ctx, doc.FromSiteID, doc.Date)
		if err != nil {
			return err
		}
		doc.Number = number
	}

	err = s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.repo.Create(ctx, doc); err != nil {
			return fmt.Errorf("create document: %w", err)
		}
		if err := s.repo.SaveLines(ctx, doc.ID, doc.Lines); err != nil {
			return fmt.Errorf("save lines: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	logger.Info(ctx, "challan created",
		"id", doc.ID, "number", doc.Number,
		"from_site", doc.FromSiteID, "to_site", doc.ToSiteID,
	)
	return nil
}

func (s *Service) generateNumber(ctx context.Context, siteID id.ID, date time.Time) (string, error) {
	st, err := s.sites.GetByID(ctx, siteID)
	if err != nil {
		return "", err
	}
	if !st.HasCode() {
		return "", apperror.NewBusinessRule(apperror.CodeSiteCodeMissing,
			"site has no code assigned, cannot number document").
			WithDetail("site_id", siteID)
	}

	cfg := numerator.Config{
		DocType:     DocType,
		CompanyCode: s.companyCode,
		SiteCode:    st.Code,
	}
	number, err := s.numerator.NextNumber(ctx, cfg, &numerator.Options{Strategy: NumeratorStrategy}, date)
	if err != nil {
		return "", fmt.Errorf("generate number: %w", err)
	}
	return number, nil
}

// GetByID retrieves a challan with lines and batch splits.
func (s *Service) GetByID(ctx context.Context, docID id.ID) (*OutwardChallan, error) {
	doc, err := s.repo.GetByID(ctx, docID)
	if err != nil {
		return nil, err
	}
	if err := s.loadTableParts(ctx, doc); err != nil {
		return nil, err
	}
	return doc, nil
}

func (s *Service) loadTableParts(ctx context.Context, doc *OutwardChallan) error {
	lines, err := s.repo.GetLines(ctx, doc.ID)
	if err != nil {
		return fmt.Errorf("get lines: %w", err)
	}
	doc.Lines = lines

	batches, err := s.repo.GetLineBatches(ctx, doc.ID)
	if err != nil {
		return fmt.Errorf("get line batches: %w", err)
	}
	byLine := make(map[id.ID][]ChallanLineBatch)
	for _, b := range batches {
		byLine[b.LineID] = append(byLine[b.LineID], b)
	}
	for i := range doc.Lines {
		doc.Lines[i].Batches = byLine[doc.Lines[i].LineID]
	}
	return nil
}

// List returns challans matching the filter, headers only.
func (s *Service) List(ctx context.Context, filter ListFilter) (domain.ListResult[*OutwardChallan], error) {
	return s.repo.List(ctx, filter)
}

// Update replaces the header and lines of a draft challan.
func (s *Service) Update(ctx context.Context, doc *OutwardChallan) error {
	current, err := s.repo.GetByID(ctx, doc.ID)
	if err != nil {
		return err
	}
	if err := current.CanModify(); err != nil {
		return err
	}

	doc.Status = current.Status
	doc.CreatedBy = current.CreatedBy
	if err := doc.Validate(ctx); err != nil {
		return err
	}
	for i := range doc.Lines {
		doc.Lines[i].Quantity = doc.Lines[i].ChallanQty
	}

	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.repo.Update(ctx, doc); err != nil {
			return fmt.Errorf("update document: %w", err)
		}
		if err := s.repo.SaveLines(ctx, doc.ID, doc.Lines); err != nil {
			return fmt.Errorf("save lines: %w", err)
		}
		return nil
	})
}

// Delete soft-deletes a draft challan. Approved and accepted challans are
// part of the audit trail and cannot be removed.
func (s *Service) Delete(ctx context.Context, docID id.ID) error {
	doc, err := s.repo.GetByID(ctx, docID)
	if err != nil {
		return err
	}
	if err := doc.CanModify(); err != nil {
		return err
	}
	return s.repo.Delete(ctx, docID)
}

// Approve moves a draft challan to approved. The approver fixes the
// quantity on every line; each approved quantity must be covered by
// current stock at the source site. No stock moves yet, but the source
// balances are locked for the duration of the check so a concurrent
// transition cannot approve the same stock twice.
//
// The creator of a challan may not approve it.
func (s *Service) Approve(ctx context.Context, docID id.ID, approvals []LineApproval) (*OutwardChallan, error) {
	userID := appctx.GetUserID(ctx)
	if userID == "" {
		return nil, apperror.NewUnauthorized("user identity required for approval")
	}

	var doc *OutwardChallan
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		var err error
		doc, err = s.repo.GetForUpdate(ctx, docID)
		if err != nil {
			return err
		}

		if !doc.Status.CanTransitionTo(StatusApproved) {
			return apperror.NewInvalidState(string(doc.Status), "approve").
				WithDetail("challan_id", docID)
		}
		if doc.CreatedBy == userID {
			return apperror.NewForbidden("challan cannot be approved by its creator").
				WithDetail("challan_id", docID)
		}

		if err := s.loadTableParts(ctx, doc); err != nil {
			return err
		}

		byLine := make(map[id.ID]LineApproval, len(approvals))
		for _, a := range approvals {
			byLine[a.LineID] = a
		}

		// Validate every line before writing anything.
		for i := range doc.Lines {
			line := &doc.Lines[i]
			a, ok := byLine[line.LineID]
			if !ok {
				return apperror.NewValidation("approval quantity missing for line").
					WithDetail("line_no", line.LineNo)
			}
			if !a.Quantity.IsPositive() {
				return apperror.NewValidation("approved quantity must be positive").
					WithDetail("line_no", line.LineNo)
			}
			if err := s.stock.CheckAvailability(ctx, doc.FromSiteID, line.ItemID, a.Quantity); err != nil {
				return err
			}
		}

		for i := range doc.Lines {
			line := &doc.Lines[i]
			a := byLine[line.LineID]
			line.ApprovedQty = a.Quantity
			line.Quantity = a.Quantity
		}

		now := time.Now().UTC()
		doc.Status = StatusApproved
		doc.ApprovedBy = userID
		doc.ApprovedAt = &now

		if err := s.repo.Update(ctx, doc); err != nil {
			return fmt.Errorf("update document: %w", err)
		}
		if err := s.repo.SaveLines(ctx, doc.ID, doc.Lines); err != nil {
			return fmt.Errorf("save lines: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "challan approved", "id", docID, "number", doc.Number, "approved_by", userID)
	return doc, nil
}

// Accept moves an approved challan to accepted and records the transfer in
// the stock register: an issue at the source site and a receipt at the
// destination at the source's weighted-average rate, per line, in one
// transaction. Expiry-tracked lines must carry a batch split summing to
// the received quantity.
//
// Neither the creator nor the approver may accept.
func (s *Service) Accept(ctx context.Context, docID id.ID, acceptances []LineAcceptance) (*OutwardChallan, error) {
	userID := appctx.GetUserID(ctx)
	if userID == "" {
		return nil, apperror.NewUnauthorized("user identity required for acceptance")
	}

	var doc *OutwardChallan
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		var err error
		doc, err = s.repo.GetForUpdate(ctx, docID)
		if err != nil {
			return err
		}

		if !doc.Status.CanTransitionTo(StatusAccepted) {
			return apperror.NewInvalidState(string(doc.Status), "accept").
				WithDetail("challan_id", docID)
		}
		if doc.CreatedBy == userID {
			return apperror.NewForbidden("challan cannot be accepted by its creator").
				WithDetail("challan_id", docID)
		}
		if doc.ApprovedBy == userID {
			return apperror.NewForbidden("challan cannot be accepted by its approver").
				WithDetail("challan_id", docID)
		}

		if err := s.loadTableParts(ctx, doc); err != nil {
			return err
		}

		byLine := make(map[id.ID]LineAcceptance, len(acceptances))
		for _, a := range acceptances {
			byLine[a.LineID] = a
		}

		// Validate every line before touching the register.
		for i := range doc.Lines {
			line := &doc.Lines[i]
			a, ok := byLine[line.LineID]
			if !ok {
				return apperror.NewValidation("received quantity missing for line").
					WithDetail("line_no", line.LineNo)
			}
			if !a.Quantity.IsPositive() {
				return apperror.NewValidation("received quantity must be positive").
					WithDetail("line_no", line.LineNo)
			}
			if err := validateBatchSplit(line, a); err != nil {
				return err
			}
			if err := s.stock.CheckAvailability(ctx, doc.FromSiteID, line.ItemID, a.Quantity); err != nil {
				return err
			}
		}

		now := time.Now().UTC()

		allBatches := make([]ChallanLineBatch, 0)
		for i := range doc.Lines {
			line := &doc.Lines[i]
			a := byLine[line.LineID]
			line.ReceivedQty = a.Quantity
			line.Quantity = a.Quantity

			if err := s.transferLine(ctx, doc, line, a, now); err != nil {
				return err
			}

			for _, b := range a.Batches {
				lb := ChallanLineBatch{
					BatchID:     id.New(),
					LineID:      line.LineID,
					BatchNumber: b.BatchNumber,
					ExpiryDate:  b.ExpiryDate,
					Quantity:    b.Quantity,
				}
				line.Batches = append(line.Batches, lb)
				allBatches = append(allBatches, lb)
			}
		}

		doc.Status = StatusAccepted
		doc.AcceptedBy = userID
		doc.AcceptedAt = &now

		if err := s.repo.Update(ctx, doc); err != nil {
			return fmt.Errorf("update document: %w", err)
		}
		if err := s.repo.SaveLines(ctx, doc.ID, doc.Lines); err != nil {
			return fmt.Errorf("save lines: %w", err)
		}
		if err := s.repo.SaveLineBatches(ctx, doc.ID, allBatches); err != nil {
			return fmt.Errorf("save line batches: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "challan accepted",
		"id", docID, "number", doc.Number, "accepted_by", userID,
		"total_qty", doc.TotalQuantity(),
	)
	return doc, nil
}

// transferLine moves one line's stock: issue at the source, receipt at the
// destination at the rate the issue was valued at. For expiry-tracked
// lines each batch moves separately so batch balances mirror site
// balances on both sides. Ledger rows are dated at the acceptance time;
// a backdated challan must not write into a past period.
func (s *Service) transferLine(ctx context.Context, doc *OutwardChallan, line *ChallanLine, a LineAcceptance, at time.Time) error {
	base := stock.Movement{
		ItemID:       line.ItemID,
		DocumentID:   doc.ID,
		DocumentType: DocType,
		Date:         at,
	}

	movements := []stock.Movement{}
	if line.ExpiryTracked && len(a.Batches) > 0 {
		for _, b := range a.Batches {
			m := base
			m.Quantity = b.Quantity
			m.BatchNumber = b.BatchNumber
			m.ExpiryDate = b.ExpiryDate
			movements = append(movements, m)
		}
	} else {
		m := base
		m.Quantity = a.Quantity
		movements = append(movements, m)
	}

	for _, m := range movements {
		m.SiteID = doc.FromSiteID
		issued, err := s.stock.Issue(ctx, m)
		if err != nil {
			return err
		}

		m.SiteID = doc.ToSiteID
		m.Rate = issued.UnitRate
		if _, err := s.stock.Receive(ctx, m); err != nil {
			return err
		}
	}
	return nil
}

// validateBatchSplit checks that an expiry-tracked line carries batch
// detail and that the split sums to the received quantity within the
// two-decimal capture tolerance.
func validateBatchSplit(line *ChallanLine, a LineAcceptance) error {
	if !line.ExpiryTracked {
		if len(a.Batches) > 0 {
			return apperror.NewValidation("batch detail given for an item that is not expiry-tracked").
				WithDetail("line_no", line.LineNo)
		}
		return nil
	}

	if len(a.Batches) == 0 {
		return apperror.NewValidation("expiry-tracked item requires batch detail").
			WithDetail("line_no", line.LineNo)
	}

	var sum types.Quantity
	seen := make(map[string]bool, len(a.Batches))
	for _, b := range a.Batches {
		if b.BatchNumber == "" {
			return apperror.NewValidation("batch number is required").
				WithDetail("line_no", line.LineNo)
		}
		if seen[b.BatchNumber] {
			return apperror.NewValidation("duplicate batch number on line").
				WithDetail("line_no", line.LineNo).
				WithDetail("batch_number", b.BatchNumber)
		}
		seen[b.BatchNumber] = true
		if !b.Quantity.IsPositive() {
			return apperror.NewValidation("batch quantity must be positive").
				WithDetail("batch_number", b.BatchNumber)
		}
		sum += b.Quantity
	}

	if diff := (sum - a.Quantity).Abs(); diff >= batchQtyTolerance {
		return apperror.NewBusinessRule(apperror.CodeBatchQtyMismatch,
			"batch quantities do not sum to the received quantity").
			WithDetail("line_no", line.LineNo).
			WithDetail("batch_sum", sum).
			WithDetail("received_qty", a.Quantity)
	}
	return nil
}
