package crawler

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
)

// reapStuck force-clears accounts whose syncing flag outlived its
// heartbeat: a crashed crawl has no clean exit path, so the flag and
// the orphaned lock stay set until this sweep recovers them.
func (s *Service) reapStuck(ctx context.Context) {
	stale, err := s.AccountRepo.GetStaleSyncing(ctx, s.StaleAfter)
	if err != nil {
		log.Error().Err(err).Msg("list stale syncing accounts")
		return
	}

	for _, acc := range stale {
		age := time.Duration(0)
		if !acc.LastHeartbeat.IsZero() {
			age = time.Since(acc.LastHeartbeat)
		}

		if err := s.AccountRepo.ClearSyncing(ctx, acc.ID); err != nil {
			log.Error().Err(err).Str("address", acc.Address).Msg("reset stuck syncing flag")
			continue
		}
		s.Locks.Release(accountLockKey(acc.ID))

		log.Warn().
			Str("address", acc.Address).
			Dur("heartbeat_age", age).
			Msg("reset stuck sync")
	}
}
