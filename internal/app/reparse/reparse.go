package reparse

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/stakewatch/stakewatch/internal/app"
	"github.com/stakewatch/stakewatch/internal/app/interpreter"
	"github.com/stakewatch/stakewatch/internal/core"
)

var _ app.ReparseService = (*Service)(nil)

type Service struct {
	*app.ReparseConfig

	accounts map[uint64]*core.Account
}

func NewService(cfg *app.ReparseConfig) *Service {
	var s = new(Service)

	s.ReparseConfig = cfg

	if s.BatchSize <= 0 {
		s.BatchSize = 1000
	}

	s.accounts = map[uint64]*core.Account{}

	return s
}

// Run re-normalizes every stored record from its retained raw
// envelope, overwriting only the parsed fields. The network is never
// touched: the envelope persisted at crawl time is the input.
func (s *Service) Run(ctx context.Context) error {
	defer core.Timer(time.Now(), "reparse.Run")

	var (
		afterID uint64
		updated int
		skipped int
	)

	for {
		records, err := s.TxRepo.GetRecordsAfter(ctx, afterID, s.BatchSize)
		if err != nil {
			return errors.Wrap(err, "page records")
		}
		if len(records) == 0 {
			break
		}
		afterID = records[len(records)-1].ID

		for _, rec := range records {
			if s.reparseRecord(ctx, rec) {
				updated++
			} else {
				skipped++
			}
		}
	}

	log.Info().Int("updated", updated).Int("skipped", skipped).Msg("reparse finished")
	return nil
}

func (s *Service) reparseRecord(ctx context.Context, rec *core.TxRecord) bool {
	acc, err := s.account(ctx, rec.AccountID)
	if err != nil {
		log.Warn().Err(err).Uint64("id", rec.ID).Msg("skip record of unknown account")
		return false
	}

	env, err := core.UnmarshalEnvelope(rec.RawEnvelope)
	if err != nil {
		log.Warn().Err(err).Uint64("id", rec.ID).Msg("skip record with undecodable envelope")
		return false
	}

	parsed := s.Interpreter.Interpret(env)
	fresh, ok := interpreter.BuildRecord(acc, env, parsed, rec.Category)
	if !ok {
		// resolution rules changed underneath the record; keep the
		// stored fields rather than blanking them
		log.Warn().Uint64("id", rec.ID).Str("hash", rec.Hash).Msg("record no longer resolves, left as is")
		return false
	}

	fresh.ID = rec.ID
	// the crawl-time quote is not recomputable from the envelope
	fresh.Price = rec.Price
	if err := s.TxRepo.UpdateParsed(ctx, fresh); err != nil {
		log.Error().Err(err).Uint64("id", rec.ID).Msg("update parsed fields")
		return false
	}
	return true
}

func (s *Service) account(ctx context.Context, id uint64) (*core.Account, error) {
	if acc, ok := s.accounts[id]; ok {
		return acc, nil
	}
	acc, err := s.AccountRepo.GetAccount(ctx, id)
	if err != nil {
		return nil, err
	}
	s.accounts[id] = acc
	return acc, nil
}
