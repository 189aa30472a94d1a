package main

import (
	"fmt"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/velora-social/boostd/chain"
	"github.com/velora-social/boostd/util"
)

const blockHeightKey = "eth:block_height"

var cmdSyncBlocks = &cli.Command{
	Name:  "syncblocks",
	Usage: "Sample the chain head height into the cache on an interval",
	Flags: []cli.Flag{
		&cli.IntFlag{
			Name:  "interval",
			Usage: "seconds between samples",
			Value: 15,
		},
	},
	Action: func(cctx *cli.Context) error {
		d, err := setup(cctx)
		if err != nil {
			return err
		}
		defer d.close()

		ctx := util.ReqContext(cctx)
		node := chain.NewClient(d.cfg.NodeURL)
		interval := time.Duration(cctx.Int("interval")) * time.Second

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			height, err := node.BlockNumber(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return nil
				}
				log.Warnf("block height sample failed: %v", err)
			} else {
				d.dao.CacheSet(ctx, blockHeightKey, fmt.Sprintf("%d", height), 0)
				log.Debugw("block height sampled", "height", height)
			}

			select {
			case <-ctx.Done():
				return nil
			case <-ticker.C:
			}
		}
	},
}
