package app

import (
	"context"
	"time"

	"github.com/stakewatch/stakewatch/internal/core"
)

type FetcherConfig struct {
	// BaseURL of the indexer node REST API.
	BaseURL string

	PageSize int
	Timeout  time.Duration
}

type FetcherService interface {
	// FetchPage returns one page of transaction envelopes matching the
	// filter expression at or above minHeight, plus the raw number of
	// items the backend put on the page. The raw count includes items
	// that failed to decode, so callers can tell a short page from a
	// full page with skipped items.
	FetchPage(ctx context.Context, filter string, minHeight uint64, page int) ([]*core.Envelope, int, error)
}

// BalanceSource reads an address's current spendable balance from the
// backend. Display data only; failures never fail a crawl.
type BalanceSource interface {
	FetchBalance(ctx context.Context, address string) ([]core.Coin, error)
}
