// Package purchaseorder provides the PurchaseOrder document: procurement
// orders with financial-year-scoped numbering and indent traceability.
package purchaseorder

import (
	"context"
	"time"

	"sitestock/internal/core/apperror"
	"sitestock/internal/core/entity"
	"sitestock/internal/core/id"
	"sitestock/internal/core/types"
)

// ApprovalStatus is the lifecycle state of a purchase order.
type ApprovalStatus string

const (
	StatusDraft    ApprovalStatus = "draft"
	StatusApproved ApprovalStatus = "approved"
)

// PurchaseOrder represents a purchase order document.
type PurchaseOrder struct {
	entity.Document

	// SiteID is the site the order is raised for; its code is part of
	// the order number.
	SiteID id.ID `db:"site_id" json:"siteId"`

	// SupplierName is the vendor, free text
	SupplierName string `db:"supplier_name" json:"supplierName"`

	// IndentID references the upstream requisition, when the order
	// originates from one.
	IndentID *id.ID `db:"indent_id" json:"indentId,omitempty"`

	ApprovalStatus ApprovalStatus `db:"approval_status" json:"approvalStatus"`
	ApprovedBy     string         `db:"approved_by" json:"approvedBy,omitempty"`
	ApprovedAt     *time.Time     `db:"approved_at" json:"approvedAt,omitempty"`

	// Totals are caller-computed, persisted verbatim
	TotalAmount types.Money `db:"total_amount" json:"totalAmount"`
	TotalTax    types.Money `db:"total_tax" json:"totalTax"`

	// Table part: ordered items
	Lines []PurchaseOrderLine `db:"-" json:"lines"`
}

// PurchaseOrderLine represents one ordered item. Discount and tax amounts
// are computed by the caller and persisted as given; the engine does not
// recompute them.
type PurchaseOrderLine struct {
	LineID   id.ID `db:"line_id" json:"lineId"`
	SerialNo int   `db:"serial_no" json:"serialNo"`

	ItemID id.ID `db:"item_id" json:"itemId"`

	Quantity types.Quantity `db:"quantity" json:"quantity"`
	Rate     types.Money    `db:"rate" json:"rate"`

	DiscountPercent types.Money `db:"discount_percent" json:"discountPercent"`
	DiscountAmount  types.Money `db:"discount_amount" json:"discountAmount"`
	TaxPercent      types.Money `db:"tax_percent" json:"taxPercent"`
	TaxAmount       types.Money `db:"tax_amount" json:"taxAmount"`
	Amount          types.Money `db:"amount" json:"amount"`

	// IndentItemID links the line back to the requisition line it fulfils.
	IndentItemID *id.ID `db:"indent_item_id" json:"indentItemId,omitempty"`
}

// IndentItem is a requisition line awaiting ordering. Once a purchase
// order line fulfils it, PurchaseOrderLineID records the link.
type IndentItem struct {
	ID       id.ID `db:"id" json:"id"`
	IndentID id.ID `db:"indent_id" json:"indentId"`
	ItemID   id.ID `db:"item_id" json:"itemId"`

	Quantity types.Quantity `db:"quantity" json:"quantity"`

	PurchaseOrderLineID *id.ID `db:"purchase_order_line_id" json:"purchaseOrderLineId,omitempty"`
}

// NewPurchaseOrder creates a draft purchase order for a site.
func NewPurchaseOrder(siteID id.ID, supplierName string) *PurchaseOrder {
	return &PurchaseOrder{
		Document:       entity.NewDocument(),
		SiteID:         siteID,
		SupplierName:   supplierName,
		ApprovalStatus: StatusDraft,
		TotalAmount:    types.ZeroMoney(),
		TotalTax:       types.ZeroMoney(),
		Lines:          make([]PurchaseOrderLine, 0),
	}
}

// Validate implements entity.Validatable.
func (p *PurchaseOrder) Validate(ctx context.Context) error {
	if err := p.Document.Validate(ctx); err != nil {
		return err
	}

	if id.IsNil(p.SiteID) {
		return apperror.NewValidation("site is required").
			WithDetail("field", "siteId")
	}
	if p.SupplierName == "" {
		return apperror.NewValidation("supplier is required").
			WithDetail("field", "supplierName")
	}
	if len(p.Lines) == 0 {
		return apperror.NewValidation("purchase order requires at least one line")
	}

	for _, line := range p.Lines {
		if id.IsNil(line.ItemID) {
			return apperror.NewValidation("line item is required").
				WithDetail("serial_no", line.SerialNo)
		}
		if !line.Quantity.IsPositive() {
			return apperror.NewValidation("line quantity must be positive").
				WithDetail("serial_no", line.SerialNo)
		}
		if line.Rate.IsNegative() {
			return apperror.NewValidation("line rate cannot be negative").
				WithDetail("serial_no", line.SerialNo)
		}
		if line.IndentItemID != nil && id.IsNil(p.IndentIDValue()) {
			return apperror.NewValidation("indent item reference requires an indent on the order").
				WithDetail("serial_no", line.SerialNo)
		}
	}

	return nil
}

// IndentIDValue returns the indent reference or the nil id.
func (p *PurchaseOrder) IndentIDValue() id.ID {
	if p.IndentID == nil {
		return id.Nil()
	}
	return *p.IndentID
}
