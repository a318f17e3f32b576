package refdata

import (
	"context"
	"slices"
	"sync"
)

// Cache memoises Catalog lookups for the lifetime of one request.
// It is safe for concurrent use.
type Cache struct {
	catalog Catalog

	mu    sync.Mutex
	terms map[Taxonomy][]Term
}

// NewCache wraps a catalog.
func NewCache(catalog Catalog) *Cache {
	return &Cache{
		catalog: catalog,
		terms:   make(map[Taxonomy][]Term),
	}
}

// Terms returns the terms of a taxonomy, querying the catalog on first use.
func (c *Cache) Terms(ctx context.Context, taxonomy Taxonomy) ([]Term, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if terms, ok := c.terms[taxonomy]; ok {
		return slices.Clone(terms), nil
	}
	terms, err := c.catalog.Terms(ctx, taxonomy)
	if err != nil {
		return nil, err
	}
	c.terms[taxonomy] = terms
	return slices.Clone(terms), nil
}

// Invalidate drops every memoised taxonomy.
func (c *Cache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.terms = make(map[Taxonomy][]Term)
}

// Static is an in-memory Catalog.
type Static map[Taxonomy][]Term

// Terms implements Catalog.
func (s Static) Terms(_ context.Context, taxonomy Taxonomy) ([]Term, error) {
	return slices.Clone(s[taxonomy]), nil
}
