package query

import (
	"context"

	"github.com/stakewatch/stakewatch/internal/app"
	"github.com/stakewatch/stakewatch/internal/core"
	"github.com/stakewatch/stakewatch/internal/core/repository/account"
	"github.com/stakewatch/stakewatch/internal/core/repository/tx"
)

var _ app.QueryService = (*Service)(nil)

type Service struct {
	cfg *app.QueryConfig

	txRepo      core.TxRepository
	accountRepo core.AccountRepository
}

func NewService(_ context.Context, cfg *app.QueryConfig) (*Service, error) {
	var s = new(Service)

	s.cfg = cfg
	ch, pg := s.cfg.DB.CH, s.cfg.DB.PG
	s.txRepo = tx.NewRepository(ch, pg)
	s.accountRepo = account.NewRepository(pg)

	return s, nil
}

func (s *Service) AddAccount(ctx context.Context, acc *core.Account) error {
	return s.accountRepo.AddAccount(ctx, acc)
}

func (s *Service) GetAccounts(ctx context.Context, f *core.AccountFilter, offset, limit int) ([]*core.Account, error) {
	return s.accountRepo.GetAccounts(ctx, f, offset, limit)
}

func (s *Service) GetRecords(ctx context.Context, f *core.TxRecordFilter, offset, limit int) ([]*core.TxRecord, error) {
	return s.txRepo.GetRecords(ctx, f, offset, limit)
}
