package main

import (
	"os"

	logging "github.com/ipfs/go-log/v2"
	"github.com/urfave/cli/v2"
)

var log = logging.Logger("boostd")

func main() {
	if err := logging.SetLogLevel("*", "info"); err != nil {
		log.Fatal(err)
	}

	app := &cli.App{
		Name:    "boostd",
		Usage:   "boost lifecycle and payment reconciliation daemon",
		Version: "1.0.0",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "config",
				Usage: "path to boostd.yaml",
				Value: "boostd.yaml",
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "debug|info|warn|error",
				Value: "info",
			},
		},
		Commands: []*cli.Command{
			cmdInitDb,
			cmdServe,
			cmdListen,
			cmdRank,
			cmdSyncBlocks,
			cmdBoostEvent,
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}
