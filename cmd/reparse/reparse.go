package reparse

import (
	"github.com/allisson/go-env"
	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"

	"github.com/stakewatch/stakewatch/internal/app"
	"github.com/stakewatch/stakewatch/internal/app/interpreter"
	"github.com/stakewatch/stakewatch/internal/app/reparse"
	"github.com/stakewatch/stakewatch/internal/core/repository"
	"github.com/stakewatch/stakewatch/internal/core/repository/account"
	"github.com/stakewatch/stakewatch/internal/core/repository/tx"
)

var Command = &cli.Command{
	Name:  "reparse",
	Usage: "Recomputes normalized record fields from stored raw envelopes",

	Action: func(ctx *cli.Context) error {
		chURL := env.GetString("DB_CH_URL", "")
		pgURL := env.GetString("DB_PG_URL", "")

		conn, err := repository.ConnectDB(ctx.Context, chURL, pgURL)
		if err != nil {
			return errors.Wrap(err, "cannot connect to a database")
		}
		defer conn.Close()

		svc := reparse.NewService(&app.ReparseConfig{
			AccountRepo: account.NewRepository(conn.PG),
			TxRepo:      tx.NewRepository(conn.CH, conn.PG),
			Interpreter: interpreter.NewService(&app.InterpreterConfig{
				FeeCollectorAddr: env.GetString("FEE_COLLECTOR_ADDR", ""),
			}),
			BatchSize: int(env.GetInt32("REPARSE_BATCH", 1000)),
		})

		return svc.Run(ctx.Context)
	},
}
