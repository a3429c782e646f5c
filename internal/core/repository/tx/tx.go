package tx

import (
	"context"
	"strings"

	"github.com/pkg/errors"
	"github.com/uptrace/bun"
	"github.com/uptrace/go-clickhouse/ch"

	"github.com/stakewatch/stakewatch/internal/core"
)

var _ core.TxRepository = (*Repository)(nil)

type Repository struct {
	ch *ch.DB
	pg *bun.DB
}

func NewRepository(_ch *ch.DB, _pg *bun.DB) *Repository {
	return &Repository{ch: _ch, pg: _pg}
}

func createIndexes(ctx context.Context, pgDB *bun.DB) error {
	// idempotence is enforced here, not by the pre-insert existence
	// check
	_, err := pgDB.NewCreateIndex().
		Model(&core.TxRecord{}).
		Unique().
		Column("account_id", "category", "hash").
		Exec(ctx)
	if err != nil {
		return errors.Wrap(err, "tx record identity pg create unique index")
	}

	_, err = pgDB.NewCreateIndex().
		Model(&core.TxRecord{}).
		Column("account_id", "category", "height").
		Exec(ctx)
	if err != nil {
		return errors.Wrap(err, "tx record height pg create index")
	}

	_, err = pgDB.NewCreateIndex().
		Model(&core.TxRecord{}).
		Using("BTREE").
		Column("tx_time").
		Exec(ctx)
	if err != nil {
		return errors.Wrap(err, "tx record time pg create index")
	}

	return nil
}

func CreateTables(ctx context.Context, chDB *ch.DB, pgDB *bun.DB) error {
	_, err := pgDB.ExecContext(ctx, "CREATE TYPE tx_category AS ENUM (?, ?)",
		core.CategoryWallet, core.CategoryValidator)
	if err != nil && !strings.Contains(err.Error(), "already exists") {
		return errors.Wrap(err, "tx category pg create enum")
	}

	_, err = chDB.NewCreateTable().
		IfNotExists().
		Engine("ReplacingMergeTree").
		Model(&core.TxRecord{}).
		Exec(ctx)
	if err != nil {
		return errors.Wrap(err, "tx record ch create table")
	}

	_, err = pgDB.NewCreateTable().
		Model(&core.TxRecord{}).
		IfNotExists().
		Exec(ctx)
	if err != nil {
		return errors.Wrap(err, "tx record pg create table")
	}

	return createIndexes(ctx, pgDB)
}

func (r *Repository) AddRecord(ctx context.Context, rec *core.TxRecord) error {
	_, err := r.pg.NewInsert().Model(rec).Exec(ctx)
	if err != nil {
		return err
	}
	_, err = r.ch.NewInsert().Model(rec).Exec(ctx)
	return err
}

func (r *Repository) RecordExists(ctx context.Context, accountID uint64, category core.TxCategory, hash string) (bool, error) {
	return r.pg.NewSelect().
		Model((*core.TxRecord)(nil)).
		Where("account_id = ?", accountID).
		Where("category = ?", category).
		Where("hash = ?", hash).
		Exists(ctx)
}

func (r *Repository) LatestHeight(ctx context.Context, accountID uint64) (uint64, error) {
	var height uint64

	err := r.pg.NewSelect().
		Model((*core.TxRecord)(nil)).
		ColumnExpr("COALESCE(MAX(height), 0)").
		Where("account_id = ?", accountID).
		Scan(ctx, &height)
	if err != nil {
		return 0, err
	}
	return height, nil
}

func selectRecordsFilter(q *bun.SelectQuery, f *core.TxRecordFilter) *bun.SelectQuery {
	if f.AccountID != 0 {
		q = q.Where("account_id = ?", f.AccountID)
	}
	if f.Address != "" {
		q = q.Where("account_id IN (SELECT id FROM accounts WHERE address = ?)", f.Address)
	}
	if f.Category != "" {
		q = q.Where("category = ?", f.Category)
	}
	if f.MsgType != "" {
		q = q.Where("msg_type = ?", f.MsgType)
	}
	return q
}

func (r *Repository) GetRecords(ctx context.Context, f *core.TxRecordFilter, offset, limit int) (ret []*core.TxRecord, err error) {
	order := "height DESC"
	if f.OrderBy != "" {
		order = f.OrderBy + " DESC"
	}

	err = selectRecordsFilter(r.pg.NewSelect().Model(&ret), f).
		Order(order).
		Offset(offset).Limit(limit).
		Scan(ctx)
	return ret, err
}

func (r *Repository) GetRecordsAfter(ctx context.Context, afterID uint64, limit int) (ret []*core.TxRecord, err error) {
	err = r.pg.NewSelect().Model(&ret).
		Where("id > ?", afterID).
		Order("id ASC").
		Limit(limit).
		Scan(ctx)
	return ret, err
}

func (r *Repository) UpdateParsed(ctx context.Context, rec *core.TxRecord) error {
	_, err := r.pg.NewUpdate().
		Model(rec).
		Column("msg_type", "amount", "amount_raw", "denom",
			"sender", "recipient", "delegator", "validator", "dst_validator",
			"direction").
		WherePK().
		Exec(ctx)
	if err != nil {
		return err
	}

	// re-insert the analytical twin; ReplacingMergeTree folds the fresh
	// row into the record's sorting key
	_, err = r.ch.NewInsert().Model(rec).Exec(ctx)
	return err
}
