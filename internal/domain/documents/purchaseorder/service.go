package purchaseorder

import (
	"context"
	"fmt"
	"time"

	"sitestock/internal/core/apperror"
	"sitestock/internal/core/appctx"
	"sitestock/internal/core/id"
	"sitestock/internal/core/tx"
	"sitestock/internal/domain"
	"sitestock/internal/domain/catalogs/site"
	"sitestock/pkg/logger"
	"sitestock/pkg/numerator"
)

// DocType keys the purchase order number sequence.
const DocType = "PO"

// NumeratorStrategy for purchase orders. Order numbers are a financial
// reference, so no gaps: every number comes straight from the counter row.
const NumeratorStrategy = numerator.StrategyStrict

// Service provides business operations for purchase orders.
type Service struct {
	repo        Repository
	indents     IndentRepository
	sites       site.Repository
	numerator   numerator.Generator
	txManager   tx.Manager
	companyCode string
}

// NewService creates a new purchase order service.
func NewService(
	repo Repository,
	indents IndentRepository,
	sites site.Repository,
	gen numerator.Generator,
	txManager tx.Manager,
	companyCode string,
) *Service {
	return &Service{
		repo:        repo,
		indents:     indents,
		sites:       sites,
		numerator:   gen,
		txManager:   txManager,
		companyCode: companyCode,
	}
}

// Create numbers and persists a purchase order with its lines in one
// transaction, then back-links any referenced indent items.
//
// The financial year in the number comes from the server clock, not the
// document date: an order backdated into March still numbers into the
// fiscal year it was actually raised in.
func (s *Service) Create(ctx context.Context, doc *PurchaseOrder) error {
	doc.ApprovalStatus = StatusDraft
	doc.CreatedBy = appctx.GetUserID(ctx)

	if err := doc.Validate(ctx); err != nil {
		return err
	}

	st, err := s.sites.GetByID(ctx, doc.SiteID)
	if err != nil {
		return err
	}
	if !st.HasCode() {
		return apperror.NewBusinessRule(apperror.CodeSiteCodeMissing,
			"site has no code assigned, cannot number purchase order").
			WithDetail("site_id", doc.SiteID)
	}

	for i := range doc.Lines {
		if id.IsNil(doc.Lines[i].LineID) {
			doc.Lines[i].LineID = id.New()
		}
		doc.Lines[i].SerialNo = i + 1
	}

	cfg := numerator.Config{
		DocType:     DocType,
		CompanyCode: s.companyCode,
		SiteCode:    st.Code,
	}

	// The counter increment and the insert share one transaction. The
	// unique index on number is the backstop: if another writer still
	// collides, take a fresh number and try once more before giving up.
	attempt := func() error {
		return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
			number, err := s.numerator.NextNumber(ctx, cfg,
				&numerator.Options{Strategy: NumeratorStrategy}, time.Now().UTC())
			if err != nil {
				return fmt.Errorf("generate number: %w", err)
			}
			doc.Number = number

			if err := s.repo.Create(ctx, doc); err != nil {
				return err
			}
			if err := s.repo.SaveLines(ctx, doc.ID, doc.Lines); err != nil {
				return fmt.Errorf("save lines: %w", err)
			}
			return nil
		})
	}

	if err := attempt(); err != nil {
		if !apperror.IsConflict(err) {
			return err
		}
		logger.Warn(ctx, "purchase order number collision, retrying", "number", doc.Number)
		if err := attempt(); err != nil {
			if apperror.IsConflict(err) {
				return apperror.NewConflict("purchase order number collision persisted across retry").
					WithDetail("number", doc.Number)
			}
			return err
		}
	}

	s.linkIndentItems(ctx, doc)

	logger.Info(ctx, "purchase order created",
		"id", doc.ID, "number", doc.Number, "site_id", doc.SiteID,
	)
	return nil
}

// linkIndentItems points fulfilled requisition lines at the order lines
// that fulfil them. Stale or foreign references are skipped, not errors:
// the order stands on its own and traceability is best effort.
func (s *Service) linkIndentItems(ctx context.Context, doc *PurchaseOrder) {
	if doc.IndentID == nil {
		return
	}

	for _, line := range doc.Lines {
		if line.IndentItemID == nil {
			continue
		}
		linked, err := s.indents.LinkToOrderLine(ctx, *doc.IndentID, *line.IndentItemID, line.LineID)
		if err != nil {
			logger.Warn(ctx, "indent back-link failed",
				"indent_item_id", *line.IndentItemID, "error", err)
			continue
		}
		if !linked {
			logger.Debug(ctx, "indent back-link skipped, item not in indent",
				"indent_id", *doc.IndentID, "indent_item_id", *line.IndentItemID)
		}
	}
}

// GetByID retrieves a purchase order with lines.
func (s *Service) GetByID(ctx context.Context, docID id.ID) (*PurchaseOrder, error) {
	doc, err := s.repo.GetByID(ctx, docID)
	if err != nil {
		return nil, err
	}

	lines, err := s.repo.GetLines(ctx, docID)
	if err != nil {
		return nil, fmt.Errorf("get lines: %w", err)
	}
	doc.Lines = lines
	return doc, nil
}

// List returns purchase orders matching the filter, headers only.
func (s *Service) List(ctx context.Context, filter ListFilter) (domain.ListResult[*PurchaseOrder], error) {
	return s.repo.List(ctx, filter)
}

// Approve moves a draft order to approved. The creator may not approve
// their own order.
func (s *Service) Approve(ctx context.Context, docID id.ID) (*PurchaseOrder, error) {
	userID := appctx.GetUserID(ctx)
	if userID == "" {
		return nil, apperror.NewUnauthorized("user identity required for approval")
	}

	var doc *PurchaseOrder
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		var err error
		doc, err = s.repo.GetForUpdate(ctx, docID)
		if err != nil {
			return err
		}

		if doc.ApprovalStatus != StatusDraft {
			return apperror.NewInvalidState(string(doc.ApprovalStatus), "approve").
				WithDetail("purchase_order_id", docID)
		}
		if doc.CreatedBy == userID {
			return apperror.NewForbidden("purchase order cannot be approved by its creator").
				WithDetail("purchase_order_id", docID)
		}

		now := time.Now().UTC()
		doc.ApprovalStatus = StatusApproved
		doc.ApprovedBy = userID
		doc.ApprovedAt = &now

		return s.repo.Update(ctx, doc)
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "purchase order approved", "id", docID, "number", doc.Number, "approved_by", userID)
	return doc, nil
}

// Delete soft-deletes a draft order.
func (s *Service) Delete(ctx context.Context, docID id.ID) error {
	doc, err := s.repo.GetByID(ctx, docID)
	if err != nil {
		return err
	}
	if doc.ApprovalStatus != StatusDraft {
		return apperror.NewInvalidState(string(doc.ApprovalStatus), "delete").
			WithDetail("purchase_order_id", docID)
	}
	return s.repo.Delete(ctx, docID)
}
