package crawler

import (
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/allisson/go-env"
	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"

	"github.com/stakewatch/stakewatch/internal/app"
	"github.com/stakewatch/stakewatch/internal/app/crawler"
	"github.com/stakewatch/stakewatch/internal/app/fetcher"
	"github.com/stakewatch/stakewatch/internal/app/interpreter"
	"github.com/stakewatch/stakewatch/internal/app/notifier"
	"github.com/stakewatch/stakewatch/internal/core/repository"
	"github.com/stakewatch/stakewatch/internal/core/repository/account"
	"github.com/stakewatch/stakewatch/internal/core/repository/tx"
	"github.com/stakewatch/stakewatch/internal/lock"
)

func tokenPrice() float64 {
	p, err := strconv.ParseFloat(env.GetString("TOKEN_PRICE", "0"), 64)
	if err != nil {
		return 0
	}
	return p
}

var Command = &cli.Command{
	Name:    "crawler",
	Aliases: []string{"crawl"},
	Usage:   "Periodically crawls tracked account transactions",

	Action: func(ctx *cli.Context) error {
		chURL := env.GetString("DB_CH_URL", "")
		pgURL := env.GetString("DB_PG_URL", "")

		conn, err := repository.ConnectDB(ctx.Context, chURL, pgURL)
		if err != nil {
			return errors.Wrap(err, "cannot connect to a database")
		}

		baseURL := env.GetString("INDEXER_API_URL", "")
		if baseURL == "" {
			return errors.New("INDEXER_API_URL must be set")
		}

		pageSize := int(env.GetInt32("PAGE_SIZE", 100))

		f := fetcher.NewService(&app.FetcherConfig{
			BaseURL:  baseURL,
			PageSize: pageSize,
		})

		i := interpreter.NewService(&app.InterpreterConfig{
			FeeCollectorAddr: env.GetString("FEE_COLLECTOR_ADDR", ""),
		})

		n := notifier.NewService(&app.NotifierConfig{
			WebhookURL: env.GetString("NOTIFY_WEBHOOK_URL", ""),
		})

		c := crawler.NewService(&app.CrawlerConfig{
			AccountRepo: account.NewRepository(conn.PG),
			TxRepo:      tx.NewRepository(conn.CH, conn.PG),
			Fetcher:     f,
			Interpreter: i,
			Locks:       lock.NewService(),
			Notifier:    n,
			Prices:      crawler.StaticPrice(tokenPrice()),
			Balances:    f,
			PageSize:    pageSize,
			SyncPeriod:  time.Duration(env.GetInt32("SYNC_PERIOD_SECONDS", 300)) * time.Second,
		})
		if err := c.Start(); err != nil {
			return err
		}

		done := make(chan os.Signal, 1)
		signal.Notify(done, syscall.SIGINT, syscall.SIGTERM)
		<-done

		c.Stop()
		conn.Close()

		return nil
	},
}
