package main

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/velora-social/boostd/chain"
	"github.com/velora-social/boostd/util"
)

var cmdListen = &cli.Command{
	Name:  "listen",
	Usage: "Poll the boost contract for confirmation events",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:  "from-block",
			Usage: "hex block number to start from (default: latest)",
		},
	},
	Action: func(cctx *cli.Context) error {
		d, err := setup(cctx)
		if err != nil {
			return err
		}
		defer d.close()

		if d.cfg.BoostContractAddress == "" {
			return fmt.Errorf("boost_contract_address is not configured")
		}

		ctx := util.ReqContext(cctx)

		node := chain.NewClient(d.cfg.NodeURL)
		boosts := d.newBoostManager(node)

		listener := chain.NewListener(node)
		if fromBlock := cctx.String("from-block"); fromBlock != "" {
			listener.SetFromBlock(fromBlock)
		}

		handler := chain.NewBoostEvent(boosts, d.dao, d.cfg.BoostContractAddress)
		if err := listener.Register(handler); err != nil {
			return err
		}

		// a filter setup failure propagates up and exits non-zero
		return listener.Run(ctx)
	},
}
