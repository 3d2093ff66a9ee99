// Package item provides the Item catalog: material and asset categories
// moved between sites.
package item

import (
	"context"

	"sitestock/internal/core/entity"
)

// Item represents a catalog entry for a material or asset category.
type Item struct {
	entity.Catalog

	// Unit is the unit of measure (e.g. "kg", "bag", "nos")
	Unit string `db:"unit" json:"unit,omitempty"`

	// ExpiryTracked marks items whose stock must be tracked at batch
	// granularity (batch number + expiry date) rather than as one aggregate.
	ExpiryTracked bool `db:"expiry_tracked" json:"expiryTracked"`

	// HSNCode is the tax classification code carried onto PO lines
	HSNCode string `db:"hsn_code" json:"hsnCode,omitempty"`

	IsActive bool `db:"is_active" json:"isActive"`
}

// NewItem creates a new Item with required fields.
func NewItem(code, name string) *Item {
	return &Item{
		Catalog:  entity.NewCatalog(code, name),
		IsActive: true,
	}
}

// Validate implements entity.Validatable.
func (i *Item) Validate(ctx context.Context) error {
	return i.Catalog.Validate(ctx)
}
