package purchaseorder

import (
	"context"
	"time"

	"sitestock/internal/core/id"
	"sitestock/internal/domain"
)

// Repository defines operations for purchase order documents.
type Repository interface {
	// Create inserts the header. A unique index on number turns a
	// numbering race into a duplicate error the service can retry.
	Create(ctx context.Context, doc *PurchaseOrder) error
	GetByID(ctx context.Context, docID id.ID) (*PurchaseOrder, error)
	GetByNumber(ctx context.Context, number string) (*PurchaseOrder, error)
	Update(ctx context.Context, doc *PurchaseOrder) error
	Delete(ctx context.Context, docID id.ID) error

	GetLines(ctx context.Context, docID id.ID) ([]PurchaseOrderLine, error)
	SaveLines(ctx context.Context, docID id.ID, lines []PurchaseOrderLine) error

	List(ctx context.Context, filter ListFilter) (domain.ListResult[*PurchaseOrder], error)
	GetForUpdate(ctx context.Context, docID id.ID) (*PurchaseOrder, error)
}

// IndentRepository provides access to requisition lines for back-linking.
type IndentRepository interface {
	// GetItems returns the requisition lines of one indent.
	GetItems(ctx context.Context, indentID id.ID) ([]IndentItem, error)

	// LinkToOrderLine sets purchase_order_line_id on a requisition line.
	// Only rows that exist and belong to indentID are touched; the bool
	// reports whether a row was updated.
	LinkToOrderLine(ctx context.Context, indentID, indentItemID, orderLineID id.ID) (bool, error)
}

// ListFilter for filtering purchase orders.
type ListFilter struct {
	domain.ListFilter

	SiteID         *id.ID
	ApprovalStatus *ApprovalStatus
	DateFrom       *time.Time
	DateTo         *time.Time
}
