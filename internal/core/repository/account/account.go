package account

import (
	"context"
	"database/sql"
	"time"

	"github.com/pkg/errors"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/extra/bunbig"

	"github.com/stakewatch/stakewatch/internal/core"
)

var _ core.AccountRepository = (*Repository)(nil)

type Repository struct {
	pg *bun.DB
}

func NewRepository(_pg *bun.DB) *Repository {
	return &Repository{pg: _pg}
}

func createIndexes(ctx context.Context, pgDB *bun.DB) error {
	_, err := pgDB.NewCreateIndex().
		Model(&core.Account{}).
		Using("HASH").
		Column("validator_addr").
		Where("validator_addr IS NOT NULL").
		Exec(ctx)
	if err != nil {
		return errors.Wrap(err, "account validator addr pg create index")
	}

	_, err = pgDB.NewCreateIndex().
		Model(&core.Account{}).
		Column("currently_syncing").
		Where("currently_syncing IS TRUE").
		Exec(ctx)
	if err != nil {
		return errors.Wrap(err, "account syncing pg create index")
	}

	return nil
}

func CreateTables(ctx context.Context, pgDB *bun.DB) error {
	_, err := pgDB.NewCreateTable().
		Model(&core.Account{}).
		IfNotExists().
		Exec(ctx)
	if err != nil {
		return errors.Wrap(err, "account pg create table")
	}

	return createIndexes(ctx, pgDB)
}

func (r *Repository) AddAccount(ctx context.Context, acc *core.Account) error {
	_, err := r.pg.NewInsert().Model(acc).Exec(ctx)
	return err
}

func (r *Repository) GetAccount(ctx context.Context, id uint64) (*core.Account, error) {
	acc := new(core.Account)

	err := r.pg.NewSelect().Model(acc).Where("id = ?", id).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, core.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return acc, nil
}

func (r *Repository) GetAccounts(ctx context.Context, f *core.AccountFilter, offset, limit int) (ret []*core.Account, err error) {
	q := r.pg.NewSelect().Model(&ret)

	if f.Address != "" {
		q = q.Where("address = ?", f.Address)
	}
	if f.OnlyValidators {
		q = q.Where("validator_addr IS NOT NULL")
	}

	err = q.Order("id ASC").Offset(offset).Limit(limit).Scan(ctx)
	return ret, err
}

func (r *Repository) GetIdleAccounts(ctx context.Context) (ret []*core.Account, err error) {
	err = r.pg.NewSelect().Model(&ret).
		Where("currently_syncing IS FALSE").
		Order("id ASC").
		Scan(ctx)
	return ret, err
}

func (r *Repository) SetSyncing(ctx context.Context, id uint64) (bool, error) {
	res, err := r.pg.NewUpdate().
		Model((*core.Account)(nil)).
		Set("currently_syncing = TRUE").
		Set("last_heartbeat = ?", time.Now()).
		Where("id = ?", id).
		Where("currently_syncing IS FALSE").
		Exec(ctx)
	if err != nil {
		return false, err
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return rows > 0, nil
}

func (r *Repository) ClearSyncing(ctx context.Context, id uint64) error {
	_, err := r.pg.NewUpdate().
		Model((*core.Account)(nil)).
		Set("currently_syncing = FALSE").
		Where("id = ?", id).
		Exec(ctx)
	return err
}

func (r *Repository) UpdateHeartbeat(ctx context.Context, id uint64, at time.Time) error {
	_, err := r.pg.NewUpdate().
		Model((*core.Account)(nil)).
		Set("last_heartbeat = ?", at).
		Where("id = ?", id).
		Exec(ctx)
	return err
}

func (r *Repository) GetStaleSyncing(ctx context.Context, olderThan time.Duration) (ret []*core.Account, err error) {
	cutoff := time.Now().Add(-olderThan)

	err = r.pg.NewSelect().Model(&ret).
		Where("currently_syncing IS TRUE").
		WhereGroup(" AND ", func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.
				WhereOr("last_heartbeat IS NULL").
				WhereOr("last_heartbeat < ?", cutoff)
		}).
		Scan(ctx)
	return ret, err
}

func (r *Repository) UpdateBalance(ctx context.Context, id uint64, amount *bunbig.Int, denom string) error {
	_, err := r.pg.NewUpdate().
		Model((*core.Account)(nil)).
		Set("balance = ?", amount).
		Set("balance_denom = ?", denom).
		Where("id = ?", id).
		Exec(ctx)
	return err
}
