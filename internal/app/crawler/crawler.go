package crawler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/uptrace/bun/extra/bunbig"

	"github.com/stakewatch/stakewatch/internal/app"
	"github.com/stakewatch/stakewatch/internal/core"
)

var _ app.CrawlerService = (*Service)(nil)

const fleetLockKey = "sync:fleet"

func accountLockKey(id uint64) string {
	return fmt.Sprintf("sync:account:%d", id)
}

type Service struct {
	*app.CrawlerConfig

	run  bool
	mx   sync.RWMutex
	wg   sync.WaitGroup
	stop chan struct{}
}

func NewService(cfg *app.CrawlerConfig) *Service {
	var s = new(Service)

	s.CrawlerConfig = cfg

	// validate config
	if s.PageSize <= 0 {
		s.PageSize = 100
	}
	if s.SyncPeriod <= 0 {
		s.SyncPeriod = 5 * time.Minute
	}
	if s.StaleAfter <= 0 {
		s.StaleAfter = 10 * time.Minute
	}
	if s.LockTTL <= 0 {
		s.LockTTL = 5 * time.Minute
	}
	if s.FleetLockTTL <= 0 {
		s.FleetLockTTL = 10 * time.Minute
	}
	if s.PageDelay <= 0 {
		s.PageDelay = 200 * time.Millisecond
	}
	if s.GatewayDelay <= 0 {
		s.GatewayDelay = 10 * time.Second
	}
	if s.RateLimitDelay <= 0 {
		s.RateLimitDelay = 5 * time.Second
	}
	if s.RetryDelay <= 0 {
		s.RetryDelay = 2 * time.Second
	}

	s.stop = make(chan struct{})

	return s
}

func (s *Service) running() bool {
	s.mx.RLock()
	defer s.mx.RUnlock()

	return s.run
}

func (s *Service) Start() error {
	s.mx.Lock()
	s.run = true
	s.mx.Unlock()

	s.wg.Add(1)
	go s.syncLoop()

	log.Info().
		Dur("sync_period", s.SyncPeriod).
		Int("page_size", s.PageSize).
		Msg("crawler started")

	return nil
}

func (s *Service) Stop() {
	s.mx.Lock()
	s.run = false
	s.mx.Unlock()

	close(s.stop)
	s.wg.Wait()
}

func (s *Service) syncLoop() {
	defer s.wg.Done()

	for s.running() {
		s.SyncNow()

		select {
		case <-time.After(s.SyncPeriod):
		case <-s.stop:
			return
		}
	}
}

// SyncNow runs one whole-fleet pass behind the fleet lock. A pass
// already in flight makes this a no-op: passes never queue.
func (s *Service) SyncNow() bool {
	if !s.Locks.TryAcquire(fleetLockKey, s.FleetLockTTL, "fleet sync pass") {
		log.Info().Msg("sync pass already running, skipping")
		return false
	}
	defer s.Locks.Release(fleetLockKey)

	ctx := context.Background()

	s.reapStuck(ctx)

	accounts, err := s.AccountRepo.GetIdleAccounts(ctx)
	if err != nil {
		log.Error().Err(err).Msg("list idle accounts")
		return true
	}

	for _, acc := range accounts {
		s.refreshBalance(ctx, acc)

		if err := s.crawlAccount(ctx, acc); err != nil {
			log.Error().Err(err).
				Uint64("account_id", acc.ID).
				Str("address", acc.Address).
				Msg("account crawl failed")
		}
	}

	return true
}

func (s *Service) refreshBalance(ctx context.Context, acc *core.Account) {
	if s.Balances == nil {
		return
	}

	coins, err := s.Balances.FetchBalance(ctx, acc.Address)
	if err != nil || len(coins) == 0 {
		if err != nil {
			log.Warn().Err(err).Str("address", acc.Address).Msg("refresh balance")
		}
		return
	}

	c := coins[0]
	if err := s.AccountRepo.UpdateBalance(ctx, acc.ID, (*bunbig.Int)(c.Amount), c.Denom); err != nil {
		log.Warn().Err(err).Str("address", acc.Address).Msg("store balance")
	}
}
