package main

import (
	"github.com/urfave/cli/v2"

	"github.com/velora-social/boostd/initdb"
)

var cmdInitDb = &cli.Command{
	Name:  "initdb",
	Usage: "Create the boost database schema",
	Action: func(cctx *cli.Context) error {
		d, err := setup(cctx)
		if err != nil {
			return err
		}
		defer d.close()

		if err := initdb.InitDatabase(d.db); err != nil {
			return err
		}

		log.Info("database initialized")
		return nil
	},
}
