package web

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/allisson/go-env"
	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"

	"github.com/stakewatch/stakewatch/internal/api/http"
	"github.com/stakewatch/stakewatch/internal/app"
	"github.com/stakewatch/stakewatch/internal/app/crawler"
	"github.com/stakewatch/stakewatch/internal/app/fetcher"
	"github.com/stakewatch/stakewatch/internal/app/interpreter"
	"github.com/stakewatch/stakewatch/internal/app/query"
	"github.com/stakewatch/stakewatch/internal/core/repository"
	"github.com/stakewatch/stakewatch/internal/core/repository/account"
	"github.com/stakewatch/stakewatch/internal/core/repository/tx"
	"github.com/stakewatch/stakewatch/internal/lock"
)

var Command = &cli.Command{
	Name:  "web",
	Usage: "HTTP JSON API",

	Action: func(ctx *cli.Context) error {
		chURL := env.GetString("DB_CH_URL", "")
		pgURL := env.GetString("DB_PG_URL", "")

		conn, err := repository.ConnectDB(ctx.Context, chURL, pgURL)
		if err != nil {
			return errors.Wrap(err, "cannot connect to a database")
		}

		qs, err := query.NewService(ctx.Context, &app.QueryConfig{
			DB: conn,
		})
		if err != nil {
			return err
		}

		// on-demand sync passes share the crawl machinery but no
		// periodic loop runs here
		var cs app.CrawlerService
		if baseURL := env.GetString("INDEXER_API_URL", ""); baseURL != "" {
			f := fetcher.NewService(&app.FetcherConfig{BaseURL: baseURL})
			cs = crawler.NewService(&app.CrawlerConfig{
				AccountRepo: account.NewRepository(conn.PG),
				TxRepo:      tx.NewRepository(conn.CH, conn.PG),
				Fetcher:     f,
				Interpreter: interpreter.NewService(&app.InterpreterConfig{
					FeeCollectorAddr: env.GetString("FEE_COLLECTOR_ADDR", ""),
				}),
				Locks:    lock.NewService(),
				Balances: f,
			})
		}

		srv := http.NewServer(
			env.GetString("LISTEN", "0.0.0.0:80"),
		)
		srv.RegisterRoutes(http.NewController(qs, cs))

		c := make(chan os.Signal, 1)
		signal.Notify(c, syscall.SIGINT, syscall.SIGTERM)
		go func() {
			<-c
			conn.Close()
			os.Exit(0)
		}()

		if err = srv.Run(); err != nil {
			return err
		}

		return nil
	},
}
