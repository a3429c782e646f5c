package crawler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/stakewatch/stakewatch/internal/app/interpreter"
	"github.com/stakewatch/stakewatch/internal/core"
)

// crawlAccount runs one full crawl for one account: lock, claim the
// syncing flag, then page through every filter. The flag clear and the
// lock release are unconditional, on every exit path including panics,
// so an aborted crawl can never lock the account out permanently.
func (s *Service) crawlAccount(ctx context.Context, acc *core.Account) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.Errorf("crawl panic: %v", r)
		}
	}()

	key := accountLockKey(acc.ID)
	if !s.Locks.AcquireWithRetry(ctx, key, s.LockTTL, "account crawl", 3, s.RetryDelay) {
		log.Info().Str("address", acc.Address).Msg("account lock busy, skipping crawl")
		return nil
	}
	defer s.Locks.Release(key)

	// reload: the account may have been deleted since listing
	acc, err = s.AccountRepo.GetAccount(ctx, acc.ID)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return nil
		}
		return errors.Wrap(err, "reload account")
	}

	ok, err := s.AccountRepo.SetSyncing(ctx, acc.ID)
	if err != nil {
		return errors.Wrap(err, "set syncing flag")
	}
	if !ok {
		log.Info().Str("address", acc.Address).Msg("another crawl owns this account, skipping")
		return nil
	}
	defer func() {
		if err := s.AccountRepo.ClearSyncing(context.Background(), acc.ID); err != nil {
			log.Error().Err(err).Str("address", acc.Address).Msg("clear syncing flag")
		}
	}()

	fromHeight, err := s.TxRepo.LatestHeight(ctx, acc.ID)
	if err != nil {
		return errors.Wrap(err, "resume height")
	}

	defer core.Timer(time.Now(), "crawlAccount(%s)", acc.Address)

	for _, f := range accountFilters(acc) {
		if err := s.crawlFilter(ctx, acc, f, fromHeight); err != nil {
			log.Error().Err(err).
				Str("address", acc.Address).
				Str("filter", f).
				Msg("filter crawl aborted")
		}

		// bound the reaper's staleness window to one filter's work
		if err := s.AccountRepo.UpdateHeartbeat(context.Background(), acc.ID, time.Now()); err != nil {
			log.Error().Err(err).Str("address", acc.Address).Msg("update heartbeat")
		}
	}

	return nil
}

// crawlFilter pages one query filter until a short page. The height
// cursor advances to the last envelope's height whenever it grew,
// resetting to page 1; the backend can return several pages at one
// height, so an unchanged cursor advances the page number instead.
func (s *Service) crawlFilter(ctx context.Context, acc *core.Account, filter string, fromHeight uint64) error {
	var (
		height   = fromHeight
		page     = 1
		gateway  int
		failures int
	)

	for {
		envelopes, fetched, err := s.Fetcher.FetchPage(ctx, filter, height, page)
		if err != nil {
			switch code := core.StatusCode(err); {
			case code == http.StatusTooManyRequests:
				// uncounted: rate limiting is pacing, not failure
				log.Warn().Str("filter", filter).Msg("rate limited, backing off")
				if !s.sleep(ctx, s.RateLimitDelay) {
					return ctx.Err()
				}

			case code == http.StatusBadGateway ||
				code == http.StatusServiceUnavailable ||
				code == http.StatusGatewayTimeout:
				gateway++
				if gateway >= 3 {
					return errors.Wrap(err, "gateway error budget exhausted")
				}
				if !s.sleep(ctx, s.GatewayDelay) {
					return ctx.Err()
				}

			case code == http.StatusBadRequest ||
				code == http.StatusInternalServerError ||
				code == http.StatusNotImplemented:
				// retrying cannot fix an incompatible query
				return errors.Wrap(err, "query rejected by backend")

			default:
				failures++
				if failures >= 5 {
					return errors.Wrap(err, "error budget exhausted")
				}
				if !s.sleep(ctx, s.RetryDelay) {
					return ctx.Err()
				}
			}
			continue
		}
		gateway, failures = 0, 0

		for _, env := range envelopes {
			s.indexEnvelope(ctx, acc, env)
		}

		// the raw count decides fullness: a full page with undecodable
		// items must not end the filter early
		if fetched < s.PageSize {
			return nil
		}

		last := height
		if len(envelopes) > 0 {
			last = envelopes[len(envelopes)-1].Height
		}
		if last > height {
			height = last
			page = 1
		} else {
			page++
		}

		if !s.sleep(ctx, s.PageDelay) {
			return ctx.Err()
		}
	}
}

// indexEnvelope interprets one envelope and persists a record per
// category in which it is relevant to the account.
func (s *Service) indexEnvelope(ctx context.Context, acc *core.Account, env *core.Envelope) {
	parsed := s.Interpreter.Interpret(env)

	for _, category := range []core.TxCategory{core.CategoryWallet, core.CategoryValidator} {
		rec, ok := interpreter.BuildRecord(acc, env, parsed, category)
		if !ok {
			continue
		}
		if s.Prices != nil {
			rec.Price = s.Prices.CurrentPrice(ctx)
		}
		s.persist(ctx, acc, rec)
	}
}

func (s *Service) persist(ctx context.Context, acc *core.Account, rec *core.TxRecord) {
	exists, err := s.TxRepo.RecordExists(ctx, rec.AccountID, rec.Category, rec.Hash)
	if err != nil {
		log.Error().Err(err).Str("hash", rec.Hash).Msg("record existence check")
		return
	}
	if exists {
		return
	}

	if err := s.TxRepo.AddRecord(ctx, rec); err != nil {
		// a unique violation here means a concurrent writer won the
		// race; the store's constraint is the source of truth
		log.Error().Err(err).Str("hash", rec.Hash).Msg("insert record")
		return
	}

	log.Info().
		Str("address", acc.Address).
		Str("category", string(rec.Category)).
		Str("msg_type", rec.MsgType).
		Uint64("height", rec.Height).
		Str("hash", rec.Hash).
		Msg("indexed new record")

	s.notify(acc, rec)
}

func (s *Service) notify(acc *core.Account, rec *core.TxRecord) {
	if s.Notifier == nil {
		return
	}

	switch rec.Category {
	case core.CategoryWallet:
		if acc.AlertsEnabled {
			s.Notifier.Notify(acc, rec)
		}
	case core.CategoryValidator:
		// delegations arrive batched and exec-wrapped too, so match the
		// whole family
		if strings.Contains(rec.MsgType, "Delegate") || rec.DstValidator == acc.ValidatorAddr {
			s.Notifier.Notify(acc, rec)
		}
	}
}

// sleep waits the delay out unless the context ends first.
func (s *Service) sleep(ctx context.Context, d time.Duration) bool {
	select {
	case <-time.After(d):
		return true
	case <-ctx.Done():
		return false
	}
}
