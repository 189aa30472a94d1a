package main

import (
	"github.com/urfave/cli/v2"

	"github.com/velora-social/boostd/ranking"
	"github.com/velora-social/boostd/util"
)

var cmdRank = &cli.Command{
	Name:  "rank",
	Usage: "Run one ranking pass and exit",
	Action: func(cctx *cli.Context) error {
		d, err := setup(cctx)
		if err != nil {
			return err
		}
		defer d.close()

		return ranking.NewEngine(d.dao).Run(util.ReqContext(cctx))
	},
}
