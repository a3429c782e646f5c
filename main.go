package main

import (
	"fmt"
	"os"

	"github.com/allisson/go-env"
	"github.com/urfave/cli/v2"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/stakewatch/stakewatch/cmd/crawler"
	"github.com/stakewatch/stakewatch/cmd/db"
	"github.com/stakewatch/stakewatch/cmd/reparse"
	"github.com/stakewatch/stakewatch/cmd/web"
)

func init() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	level := zerolog.InfoLevel
	if env.GetBool("DEBUG_LOGS", false) {
		level = zerolog.DebugLevel
	}

	// add file and line number to log
	log.Logger = log.With().Caller().Logger().Level(level)
}

func main() {
	app := &cli.App{
		Name:  "stakewatch",
		Usage: "an account transaction indexing project",
		Commands: []*cli.Command{
			db.Command,
			crawler.Command,
			web.Command,
			reparse.Command,
		},
	}
	if err := app.Run(os.Args); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
