package app

import (
	lru "github.com/hashicorp/golang-lru"

	"github.com/fd1az/arbitrage-dashboard/business/dashboard/domain"
)

// HistoryCache keeps recently viewed history pages so paging back can show
// something immediately while the page is refetched.
type HistoryCache struct {
	pages *lru.Cache
}

// NewHistoryCache creates a cache holding up to size pages.
func NewHistoryCache(size int) (*HistoryCache, error) {
	if size <= 0 {
		size = 16
	}
	c, err := lru.New(size)
	if err != nil {
		return nil, err
	}
	return &HistoryCache{pages: c}, nil
}

// Get returns the cached page for q.
func (h *HistoryCache) Get(q domain.PageQuery) (domain.TransactionPage, bool) {
	v, ok := h.pages.Get(q.Normalize())
	if !ok {
		return domain.TransactionPage{}, false
	}
	return v.(domain.TransactionPage), true
}

// Put stores page under q.
func (h *HistoryCache) Put(q domain.PageQuery, page domain.TransactionPage) {
	h.pages.Add(q.Normalize(), page)
}

// Purge drops every page. Called when the transaction total moves, since
// every page boundary may have shifted.
func (h *HistoryCache) Purge() {
	h.pages.Purge()
}

// Len returns the number of cached pages.
func (h *HistoryCache) Len() int {
	return h.pages.Len()
}
