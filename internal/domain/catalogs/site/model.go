// Package site provides the Site catalog: physical project locations
// holding stock and receiving purchase orders.
package site

import (
	"context"
	"regexp"

	"sitestock/internal/core/apperror"
	"sitestock/internal/core/entity"
)

var siteCodePattern = regexp.MustCompile(`^[A-Z0-9]+$`)

// Site represents a project location. The site code participates in
// document numbering and is immutable once documents reference the site.
type Site struct {
	entity.Catalog

	// Address is the physical address of the site
	Address string `db:"address" json:"address,omitempty"`

	// IsActive indicates if the site is operational
	IsActive bool `db:"is_active" json:"isActive"`
}

// NewSite creates a new Site with required fields.
func NewSite(code, name string) *Site {
	return &Site{
		Catalog:  entity.NewCatalog(code, name),
		IsActive: true,
	}
}

// Validate implements entity.Validatable.
// The code may be absent on legacy records; document numbering rejects such
// sites at PO creation time with a dedicated error instead.
func (s *Site) Validate(ctx context.Context) error {
	if err := s.Catalog.Validate(ctx); err != nil {
		return err
	}

	if s.Code != "" && !siteCodePattern.MatchString(s.Code) {
		return apperror.NewValidation("site code must be uppercase alphanumeric").
			WithDetail("field", "code").
			WithDetail("value", s.Code)
	}

	return nil
}

// HasCode reports whether the site carries a numbering code.
func (s *Site) HasCode() bool {
	return s.Code != ""
}
