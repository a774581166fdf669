package ports

import "altar/internal/law"

// CatalogSource hands out the catalog snapshot for one operation.
type CatalogSource interface {
	Current() *law.Catalog
}
