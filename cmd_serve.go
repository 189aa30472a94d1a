package main

import (
	"context"
	"time"

	"github.com/urfave/cli/v2"
	"golang.org/x/sync/errgroup"

	"github.com/velora-social/boostd/chain"
	"github.com/velora-social/boostd/ranking"
	"github.com/velora-social/boostd/server"
	"github.com/velora-social/boostd/util"
)

const expireSweepInterval = 10 * time.Minute

var cmdServe = &cli.Command{
	Name:  "serve",
	Usage: "Run the HTTP API, ranking scheduler, and expiry sweeps",
	Action: func(cctx *cli.Context) error {
		d, err := setup(cctx)
		if err != nil {
			return err
		}
		defer d.close()

		ctx := util.ReqContext(cctx)

		node := chain.NewClient(d.cfg.NodeURL)
		boosts := d.newBoostManager(node)
		superminds := d.newSupermindManager()

		srv := server.NewServer(d.cfg.ListenAddr, boosts, superminds, d.newRates(), d.dao)

		scheduler := ranking.NewScheduler(
			ranking.NewEngine(d.dao),
			time.Duration(d.cfg.RankIntervalSeconds)*time.Second,
		)

		g, gctx := errgroup.WithContext(ctx)

		g.Go(func() error {
			return srv.Start()
		})

		g.Go(func() error {
			<-gctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return srv.Stop(shutdownCtx)
		})

		g.Go(func() error {
			scheduler.Start()
			<-gctx.Done()
			scheduler.Stop()
			return nil
		})

		g.Go(func() error {
			ticker := time.NewTicker(expireSweepInterval)
			defer ticker.Stop()

			for {
				select {
				case <-gctx.Done():
					return nil
				case <-ticker.C:
					if err := boosts.ExpireSweep(gctx); err != nil {
						log.Errorw("boost expire sweep failed", "err", err)
					}
					if err := superminds.ExpireSweep(gctx); err != nil {
						log.Errorw("supermind expire sweep failed", "err", err)
					}
				}
			}
		})

		return g.Wait()
	},
}
