package db

import (
	"github.com/allisson/go-env"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"

	"github.com/stakewatch/stakewatch/internal/core/repository"
)

var Command = &cli.Command{
	Name:  "db",
	Usage: "Creates tables and indexes",

	Action: func(ctx *cli.Context) error {
		chURL := env.GetString("DB_CH_URL", "")
		pgURL := env.GetString("DB_PG_URL", "")

		conn, err := repository.ConnectDB(ctx.Context, chURL, pgURL)
		if err != nil {
			return errors.Wrap(err, "cannot connect to a database")
		}
		defer conn.Close()

		if err := repository.CreateTables(ctx.Context, conn); err != nil {
			return errors.Wrap(err, "cannot create tables")
		}

		log.Info().Msg("tables created")
		return nil
	},
}
