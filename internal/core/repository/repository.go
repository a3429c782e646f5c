package repository

import (
	"context"

	"github.com/pkg/errors"

	"github.com/stakewatch/stakewatch/internal/core/repository/account"
	"github.com/stakewatch/stakewatch/internal/core/repository/tx"
)

func CreateTables(ctx context.Context, db *DB) error {
	if err := account.CreateTables(ctx, db.PG); err != nil {
		return errors.Wrap(err, "account")
	}
	if err := tx.CreateTables(ctx, db.CH, db.PG); err != nil {
		return errors.Wrap(err, "tx")
	}
	return nil
}
