package entity

import (
	"time"

	"sitestock/internal/core/id"
	"sitestock/internal/core/types"
)

// EntryType defines movement direction for the stock ledger.
type EntryType string

const (
	// EntryTypeReceipt increases site stock
	EntryTypeReceipt EntryType = "receipt"
	// EntryTypeIssue decreases site stock
	EntryTypeIssue EntryType = "issue"
)

// StockEntry is one append-only row in the stock ledger. Entries are
// immutable: they are never updated or deleted, and the site/item balances
// are a materialized view derivable by replaying them.
type StockEntry struct {
	// LineID is unique identifier for this ledger line (UUIDv7)
	LineID id.ID `db:"line_id" json:"lineId"`

	// DocumentID is the document that produced this entry
	DocumentID id.ID `db:"document_id" json:"documentId"`

	// DocumentType is the document type (e.g. "OutwardChallan")
	DocumentType string `db:"document_type" json:"documentType"`

	// EntryDate is the business date of the movement
	EntryDate time.Time `db:"entry_date" json:"entryDate"`

	EntryType EntryType `db:"entry_type" json:"entryType"`

	// Dimensions
	SiteID id.ID `db:"site_id" json:"siteId"`
	ItemID id.ID `db:"item_id" json:"itemId"`

	// BatchNumber is set only for expiry-tracked items
	BatchNumber string `db:"batch_number" json:"batchNumber,omitempty"`

	// Resources
	Quantity types.Quantity `db:"quantity" json:"quantity"`
	UnitRate types.Money    `db:"unit_rate" json:"unitRate"`

	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}

// NewStockEntry creates a new ledger entry.
func NewStockEntry(
	documentID id.ID,
	documentType string,
	entryDate time.Time,
	entryType EntryType,
	siteID, itemID id.ID,
	quantity types.Quantity,
	unitRate types.Money,
) StockEntry {
	return StockEntry{
		LineID:       id.New(),
		DocumentID:   documentID,
		DocumentType: documentType,
		EntryDate:    entryDate,
		EntryType:    entryType,
		SiteID:       siteID,
		ItemID:       itemID,
		Quantity:     quantity,
		UnitRate:     unitRate,
		CreatedAt:    time.Now().UTC(),
	}
}

// SignedQuantity returns quantity with sign based on entry type.
// Receipt = positive, issue = negative.
func (e *StockEntry) SignedQuantity() types.Quantity {
	if e.EntryType == EntryTypeIssue {
		return e.Quantity.Neg()
	}
	return e.Quantity
}

// SiteItemBalance is the current balance of one item at one site:
// closing stock quantity, weighted-average unit rate, and closing value.
// The value is maintained incrementally, never recomputed from scratch,
// so the rate history survives across movements.
type SiteItemBalance struct {
	// Dimensions
	SiteID id.ID `db:"site_id" json:"siteId"`
	ItemID id.ID `db:"item_id" json:"itemId"`

	// Balances
	ClosingStock types.Quantity `db:"closing_stock" json:"closingStock"`
	UnitRate     types.Money    `db:"unit_rate" json:"unitRate"`
	ClosingValue types.Money    `db:"closing_value" json:"closingValue"`

	// Metadata
	LastEntryAt time.Time `db:"last_entry_at" json:"lastEntryAt"`
	UpdatedAt   time.Time `db:"updated_at" json:"updatedAt"`
}

// NewSiteItemBalance creates a zero balance for a (site, item) pair.
// Balances come into existence lazily on the first movement into a site.
func NewSiteItemBalance(siteID, itemID id.ID) SiteItemBalance {
	return SiteItemBalance{
		SiteID:       siteID,
		ItemID:       itemID,
		UnitRate:     types.ZeroMoney(),
		ClosingValue: types.ZeroMoney(),
	}
}

// ApplyReceipt increases closing stock and recomputes the unit rate as a
// quantity-weighted average: newRate = (oldValue + qty*rate) / (oldStock + qty).
// If the resulting stock is zero the rate collapses to zero.
func (b *SiteItemBalance) ApplyReceipt(qty types.Quantity, rate types.Money) {
	newStock := b.ClosingStock + qty
	newValue := b.ClosingValue.Add(rate.Mul(qty.Decimal()))

	if newStock <= 0 {
		b.ClosingStock = 0
		b.UnitRate = types.ZeroMoney()
		b.ClosingValue = types.ZeroMoney()
		return
	}

	b.UnitRate = newValue.Div(newStock.Decimal()).Round(4)
	b.ClosingStock = newStock
	b.ClosingValue = b.UnitRate.Mul(newStock.Decimal())
}

// ApplyIssue decreases closing stock, floored at zero. The rate is unchanged
// on issue; only quantity and value move. Callers must validate the issue
// against current stock before mutating (the floor only swallows float
// residue, not genuine over-issue).
func (b *SiteItemBalance) ApplyIssue(qty types.Quantity) {
	newStock := b.ClosingStock - qty
	if newStock < 0 {
		newStock = 0
	}
	b.ClosingStock = newStock
	b.ClosingValue = b.UnitRate.Mul(newStock.Decimal())
}

// SiteItemBatchBalance is the batch-level balance for expiry-tracked items,
// keyed by (site, item, batch number). The expiry date is immutable once
// the batch exists at a site.
type SiteItemBatchBalance struct {
	SiteID      id.ID  `db:"site_id" json:"siteId"`
	ItemID      id.ID  `db:"item_id" json:"itemId"`
	BatchNumber string `db:"batch_number" json:"batchNumber"`

	ExpiryDate time.Time `db:"expiry_date" json:"expiryDate"`

	ClosingQty   types.Quantity `db:"closing_qty" json:"closingQty"`
	UnitRate     types.Money    `db:"unit_rate" json:"unitRate"`
	ClosingValue types.Money    `db:"closing_value" json:"closingValue"`

	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}

// NewSiteItemBatchBalance creates a zero batch balance.
func NewSiteItemBatchBalance(siteID, itemID id.ID, batchNumber string, expiryDate time.Time) SiteItemBatchBalance {
	return SiteItemBatchBalance{
		SiteID:       siteID,
		ItemID:       itemID,
		BatchNumber:  batchNumber,
		ExpiryDate:   expiryDate,
		UnitRate:     types.ZeroMoney(),
		ClosingValue: types.ZeroMoney(),
	}
}

// ApplyReceipt applies the same weighted-average arithmetic at batch scope.
func (b *SiteItemBatchBalance) ApplyReceipt(qty types.Quantity, rate types.Money) {
	newQty := b.ClosingQty + qty
	newValue := b.ClosingValue.Add(rate.Mul(qty.Decimal()))

	if newQty <= 0 {
		b.ClosingQty = 0
		b.UnitRate = types.ZeroMoney()
		b.ClosingValue = types.ZeroMoney()
		return
	}

	b.UnitRate = newValue.Div(newQty.Decimal()).Round(4)
	b.ClosingQty = newQty
	b.ClosingValue = b.UnitRate.Mul(newQty.Decimal())
}

// ApplyIssue decreases batch quantity, floored at zero.
func (b *SiteItemBatchBalance) ApplyIssue(qty types.Quantity) {
	newQty := b.ClosingQty - qty
	if newQty < 0 {
		newQty = 0
	}
	b.ClosingQty = newQty
	b.ClosingValue = b.UnitRate.Mul(newQty.Decimal())
}

// SameExpiry reports whether the given date matches the batch's expiry date
// at day granularity. Two lots with different expiry dates must never merge
// under one batch number.
func (b *SiteItemBatchBalance) SameExpiry(date time.Time) bool {
	y1, m1, d1 := b.ExpiryDate.UTC().Date()
	y2, m2, d2 := date.UTC().Date()
	return y1 == y2 && m1 == m2 && d1 == d2
}
