package app

import (
	"context"
	"time"

	"github.com/stakewatch/stakewatch/internal/core"
	"github.com/stakewatch/stakewatch/internal/lock"
)

// PriceSource supplies the quote denormalized onto new records at crawl
// time. Lookup and backfill are external concerns.
type PriceSource interface {
	CurrentPrice(ctx context.Context) float64
}

type CrawlerConfig struct {
	AccountRepo core.AccountRepository
	TxRepo      core.TxRepository

	Fetcher     FetcherService
	Interpreter InterpreterService
	Locks       *lock.Service

	Notifier NotifierService // optional
	Prices   PriceSource     // optional
	Balances BalanceSource   // optional

	PageSize   int
	SyncPeriod time.Duration
	StaleAfter time.Duration

	LockTTL      time.Duration
	FleetLockTTL time.Duration

	PageDelay      time.Duration
	GatewayDelay   time.Duration
	RateLimitDelay time.Duration
	RetryDelay     time.Duration
}

type CrawlerService interface {
	Start() error
	Stop()

	// SyncNow runs one whole-fleet pass, returning false when a pass
	// already holds the fleet lock (no queueing).
	SyncNow() bool
}
