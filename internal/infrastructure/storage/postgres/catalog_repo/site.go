package catalog_repo

import (
	"sitestock/internal/domain/catalogs/site"
	"sitestock/internal/infrastructure/storage/postgres"
)

const sitesTable = "cat_sites"

// SiteRepo implements site.Repository.
type SiteRepo struct {
	*BaseCatalogRepo[*site.Site]
}

// NewSiteRepo creates a new site repository.
func NewSiteRepo(txm *postgres.TxManager) *SiteRepo {
	return &SiteRepo{
		BaseCatalogRepo: NewBaseCatalogRepo(
			txm,
			sitesTable,
			postgres.ExtractDBColumns[site.Site](),
			func() *site.Site { return &site.Site{} },
		),
	}
}

var _ site.Repository = (*SiteRepo)(nil)
