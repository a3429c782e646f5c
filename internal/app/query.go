package app

import (
	"context"

	"github.com/stakewatch/stakewatch/internal/core"
	"github.com/stakewatch/stakewatch/internal/core/repository"
)

type QueryConfig struct {
	DB *repository.DB
}

type QueryService interface {
	AddAccount(ctx context.Context, acc *core.Account) error
	GetAccounts(ctx context.Context, f *core.AccountFilter, offset, limit int) ([]*core.Account, error)

	GetRecords(ctx context.Context, f *core.TxRecordFilter, offset, limit int) ([]*core.TxRecord, error)
}
