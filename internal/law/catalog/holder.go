package catalog

import (
	"errors"
	"sync/atomic"

	"altar/internal/law"
)

// ErrNilCatalog is returned when a nil catalog is offered to a Holder.
var ErrNilCatalog = errors.New("catalog is nil")

// Holder publishes the current catalog to concurrent readers. Readers take
// one snapshot per operation with Current; a replacement becomes visible
// atomically and never mixes rules from two catalogs.
type Holder struct {
	current atomic.Pointer[law.Catalog]
}

// NewHolder returns a holder publishing c.
func NewHolder(c *law.Catalog) (*Holder, error) {
	if c == nil {
		return nil, ErrNilCatalog
	}
	h := &Holder{}
	h.current.Store(c)
	return h, nil
}

// Current returns the published catalog.
func (h *Holder) Current() *law.Catalog {
	return h.current.Load()
}

// Replace publishes c and returns the catalog it replaced.
func (h *Holder) Replace(c *law.Catalog) (*law.Catalog, error) {
	if c == nil {
		return nil, ErrNilCatalog
	}
	return h.current.Swap(c), nil
}
