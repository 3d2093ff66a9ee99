package challan

import (
	"context"
	"time"

	"sitestock/internal/core/id"
	"sitestock/internal/domain"
)

// Repository defines operations for outward challan documents.
type Repository interface {
	Create(ctx context.Context, doc *OutwardChallan) error
	GetByID(ctx context.Context, docID id.ID) (*OutwardChallan, error)
	GetByNumber(ctx context.Context, number string) (*OutwardChallan, error)
	Update(ctx context.Context, doc *OutwardChallan) error
	Delete(ctx context.Context, docID id.ID) error

	GetLines(ctx context.Context, docID id.ID) ([]ChallanLine, error)
	SaveLines(ctx context.Context, docID id.ID, lines []ChallanLine) error

	GetLineBatches(ctx context.Context, docID id.ID) ([]ChallanLineBatch, error)
	SaveLineBatches(ctx context.Context, docID id.ID, batches []ChallanLineBatch) error

	List(ctx context.Context, filter ListFilter) (domain.ListResult[*OutwardChallan], error)

	// GetForUpdate loads the header with a row lock. Must run inside an
	// ambient transaction.
	GetForUpdate(ctx context.Context, docID id.ID) (*OutwardChallan, error)
}

// ListFilter for filtering outward challans.
type ListFilter struct {
	domain.ListFilter

	FromSiteID *id.ID
	ToSiteID   *id.ID
	Status     *Status
	DateFrom   *time.Time
	DateTo     *time.Time
}
