package dto

import (
	"time"

	"sitestock/internal/core/id"
	"sitestock/internal/core/types"
	"sitestock/internal/domain/documents/purchaseorder"
)

// PurchaseOrderLineRequest is one requested order line.
// Derived amounts are client-computed and stored as submitted; the
// service validates only sign and presence.
type PurchaseOrderLineRequest struct {
	ItemID          id.ID          `json:"itemId" binding:"required"`
	Quantity        types.Quantity `json:"quantity"`
	Rate            types.Money    `json:"rate"`
	DiscountPercent types.Money    `json:"discountPercent"`
	DiscountAmount  types.Money    `json:"discountAmount"`
	TaxPercent      types.Money    `json:"taxPercent"`
	TaxAmount       types.Money    `json:"taxAmount"`
	Amount          types.Money    `json:"amount"`
	IndentItemID    *id.ID         `json:"indentItemId"`
}

// CreatePurchaseOrderRequest for creating purchase orders.
type CreatePurchaseOrderRequest struct {
	SiteID       id.ID                      `json:"siteId" binding:"required"`
	SupplierName string                     `json:"supplierName" binding:"required"`
	IndentID     *id.ID                     `json:"indentId"`
	Date         *time.Time                 `json:"date"`
	Comment      string                     `json:"comment"`
	TotalAmount  types.Money                `json:"totalAmount"`
	TotalTax     types.Money                `json:"totalTax"`
	Lines        []PurchaseOrderLineRequest `json:"lines" binding:"required,min=1"`
}

// ToEntity converts the request to a PurchaseOrder.
func (r CreatePurchaseOrderRequest) ToEntity() *purchaseorder.PurchaseOrder {
	doc := purchaseorder.NewPurchaseOrder(r.SiteID, r.SupplierName)
	doc.IndentID = r.IndentID
	doc.Comment = r.Comment
	doc.TotalAmount = r.TotalAmount
	doc.TotalTax = r.TotalTax
	if r.Date != nil {
		doc.Date = *r.Date
	}
	for _, l := range r.Lines {
		doc.Lines = append(doc.Lines, purchaseorder.PurchaseOrderLine{
			ItemID:          l.ItemID,
			Quantity:        l.Quantity,
			Rate:            l.Rate,
			DiscountPercent: l.DiscountPercent,
			DiscountAmount:  l.DiscountAmount,
			TaxPercent:      l.TaxPercent,
			TaxAmount:       l.TaxAmount,
			Amount:          l.Amount,
			IndentItemID:    l.IndentItemID,
		})
	}
	return doc
}
