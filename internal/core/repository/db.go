package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/pkg/errors"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/go-clickhouse/ch"
)

// DB bundles the two record stores: Postgres is the transactional
// source of truth, ClickHouse the analytical twin.
type DB struct {
	CH *ch.DB
	PG *bun.DB
}

const (
	pingAttempts = 10
	pingInterval = 3 * time.Second

	// writes come from one crawl pass at a time plus the query API
	chPoolSize = 8
)

// waitReady retries the ping over the window where a store container is
// still starting up.
func waitReady(ping func() error) (err error) {
	for i := 0; i < pingAttempts; i++ {
		if err = ping(); err == nil {
			return nil
		}
		time.Sleep(pingInterval)
	}
	return err
}

func ConnectDB(ctx context.Context, dsnCH, dsnPG string, opts ...ch.Option) (*DB, error) {
	opts = append(opts,
		ch.WithDSN(dsnCH),
		ch.WithAutoCreateDatabase(true),
		ch.WithPoolSize(chPoolSize))
	chDB := ch.Connect(opts...)

	if err := waitReady(func() error { return chDB.Ping(ctx) }); err != nil {
		return nil, errors.Wrap(err, "cannot ping ch")
	}

	pgDB := bun.NewDB(
		sql.OpenDB(pgdriver.NewConnector(
			pgdriver.WithDSN(dsnPG),
			pgdriver.WithWriteTimeout(time.Minute))),
		pgdialect.New())

	if err := waitReady(pgDB.Ping); err != nil {
		return nil, errors.Wrap(err, "cannot ping pg")
	}

	return &DB{CH: chDB, PG: pgDB}, nil
}

func (db *DB) Close() {
	_ = db.CH.Close()
	_ = db.PG.Close()
}
