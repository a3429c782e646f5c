package account

import (
	"context"
	"database/sql"
	"math/big"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/extra/bunbig"

	"github.com/stakewatch/stakewatch/internal/core"
)

var (
	pg   *bun.DB
	repo *Repository
)

func initdb(t testing.TB) {
	dsn := os.Getenv("DB_PG_URL")
	if dsn == "" {
		t.Skip("DB_PG_URL is not set")
	}

	pg = bun.NewDB(sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn))), pgdialect.New())
	require.NoError(t, pg.Ping())

	repo = NewRepository(pg)
}

func dropTables(t testing.TB) {
	_, err := pg.NewDropTable().Model((*core.Account)(nil)).IfExists().Exec(context.Background())
	require.NoError(t, err)
}

func TestRepository(t *testing.T) {
	initdb(t)

	ctx := context.Background()
	acc := &core.Account{
		Address:       "cosmos1me",
		ValidatorAddr: "cosmosvaloper1me",
		AlertsEnabled: true,
	}

	t.Run("drop tables", func(t *testing.T) {
		dropTables(t)
	})

	t.Run("create tables", func(t *testing.T) {
		require.NoError(t, CreateTables(ctx, pg))
	})

	t.Run("add account", func(t *testing.T) {
		require.NoError(t, repo.AddAccount(ctx, acc))
		require.NotZero(t, acc.ID)
	})

	t.Run("get account", func(t *testing.T) {
		got, err := repo.GetAccount(ctx, acc.ID)
		require.NoError(t, err)
		assert.Equal(t, acc.Address, got.Address)
		assert.Equal(t, acc.ValidatorAddr, got.ValidatorAddr)
		assert.True(t, got.AlertsEnabled)

		_, err = repo.GetAccount(ctx, 1<<60)
		assert.ErrorIs(t, err, core.ErrNotFound)
	})

	t.Run("get accounts filtered", func(t *testing.T) {
		wallet := &core.Account{Address: "cosmos1plain"}
		require.NoError(t, repo.AddAccount(ctx, wallet))

		got, err := repo.GetAccounts(ctx, &core.AccountFilter{OnlyValidators: true}, 0, 10)
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, acc.Address, got[0].Address)

		got, err = repo.GetAccounts(ctx, &core.AccountFilter{Address: "cosmos1plain"}, 0, 10)
		require.NoError(t, err)
		require.Len(t, got, 1)
	})

	t.Run("syncing flag compare and set", func(t *testing.T) {
		ok, err := repo.SetSyncing(ctx, acc.ID)
		require.NoError(t, err)
		require.True(t, ok)

		ok, err = repo.SetSyncing(ctx, acc.ID)
		require.NoError(t, err)
		require.False(t, ok)

		idle, err := repo.GetIdleAccounts(ctx)
		require.NoError(t, err)
		for _, a := range idle {
			assert.NotEqual(t, acc.ID, a.ID)
		}

		require.NoError(t, repo.ClearSyncing(ctx, acc.ID))

		ok, err = repo.SetSyncing(ctx, acc.ID)
		require.NoError(t, err)
		require.True(t, ok)
	})

	t.Run("stale syncing", func(t *testing.T) {
		// the flag is still set from the previous subtest
		require.NoError(t, repo.UpdateHeartbeat(ctx, acc.ID, time.Now().Add(-11*time.Minute)))

		stale, err := repo.GetStaleSyncing(ctx, 10*time.Minute)
		require.NoError(t, err)
		require.Len(t, stale, 1)
		assert.Equal(t, acc.ID, stale[0].ID)

		require.NoError(t, repo.UpdateHeartbeat(ctx, acc.ID, time.Now()))

		stale, err = repo.GetStaleSyncing(ctx, 10*time.Minute)
		require.NoError(t, err)
		assert.Empty(t, stale)

		require.NoError(t, repo.ClearSyncing(ctx, acc.ID))
	})

	t.Run("update balance", func(t *testing.T) {
		amount, _ := new(big.Int).SetString("123456789012345678901234567890", 10)
		require.NoError(t, repo.UpdateBalance(ctx, acc.ID, (*bunbig.Int)(amount), "uatom"))

		got, err := repo.GetAccount(ctx, acc.ID)
		require.NoError(t, err)
		require.NotNil(t, got.Balance)
		assert.Equal(t, "123456789012345678901234567890", got.Balance.String())
		assert.Equal(t, "uatom", got.BalanceDenom)
	})

	t.Run("drop tables", func(t *testing.T) {
		dropTables(t)
	})
}
