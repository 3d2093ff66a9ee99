package dto

import (
	"sitestock/internal/domain/catalogs/item"
	"sitestock/internal/domain/catalogs/site"
)

// --- Site ---

// CreateSiteRequest for creating sites.
type CreateSiteRequest struct {
	Code    string `json:"code"`
	Name    string `json:"name" binding:"required"`
	Address string `json:"address"`
}

// ToEntity converts the request to a Site.
func (r CreateSiteRequest) ToEntity() *site.Site {
	s := site.NewSite(r.Code, r.Name)
	s.Address = r.Address
	return s
}

// UpdateSiteRequest for updating sites.
type UpdateSiteRequest struct {
	Name     *string `json:"name"`
	Address  *string `json:"address"`
	IsActive *bool   `json:"isActive"`
	Version  int     `json:"version" binding:"required,min=1"`
}

// ApplyTo merges the request into an existing Site. The code is
// immutable once set: it participates in document numbers.
func (r UpdateSiteRequest) ApplyTo(s *site.Site) {
	if r.Name != nil {
		s.Name = *r.Name
	}
	if r.Address != nil {
		s.Address = *r.Address
	}
	if r.IsActive != nil {
		s.IsActive = *r.IsActive
	}
	s.Version = r.Version
}

// --- Item ---

// CreateItemRequest for creating items.
type CreateItemRequest struct {
	Code          string `json:"code"`
	Name          string `json:"name" binding:"required"`
	Unit          string `json:"unit"`
	ExpiryTracked bool   `json:"expiryTracked"`
	HSNCode       string `json:"hsnCode"`
}

// ToEntity converts the request to an Item.
func (r CreateItemRequest) ToEntity() *item.Item {
	i := item.NewItem(r.Code, r.Name)
	i.Unit = r.Unit
	i.ExpiryTracked = r.ExpiryTracked
	i.HSNCode = r.HSNCode
	return i
}

// UpdateItemRequest for updating items.
type UpdateItemRequest struct {
	Name     *string `json:"name"`
	Unit     *string `json:"unit"`
	HSNCode  *string `json:"hsnCode"`
	IsActive *bool   `json:"isActive"`
	Version  int     `json:"version" binding:"required,min=1"`
}

// ApplyTo merges the request into an existing Item. ExpiryTracked is
// immutable: flipping it would strand batch balances already on ledger.
func (r UpdateItemRequest) ApplyTo(i *item.Item) {
	if r.Name != nil {
		i.Name = *r.Name
	}
	if r.Unit != nil {
		i.Unit = *r.Unit
	}
	if r.HSNCode != nil {
		i.HSNCode = *r.HSNCode
	}
	if r.IsActive != nil {
		i.IsActive = *r.IsActive
	}
	i.Version = r.Version
}
