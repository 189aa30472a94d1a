package main

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/velora-social/boostd/chain"
	"github.com/velora-social/boostd/util"
)

// cmdBoostEvent injects a confirmation outcome by hand, for boosts whose
// chain event was missed (node outage, filter gap).
var cmdBoostEvent = &cli.Command{
	Name:  "boostevent",
	Usage: "Manually resolve or fail a pending onchain boost",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:     "event-type",
			Usage:    "resolve|fail",
			Required: true,
		},
		&cli.Uint64Flag{
			Name:     "boost-guid",
			Required: true,
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
		boosts := d.newBoostManager(node)
		guid := cctx.Uint64("boost-guid")

		tx, err := d.dao.GetTransactionByBoost(ctx, guid)
		if err != nil {
			return err
		}

		switch cctx.String("event-type") {
		case "resolve":
			if err := boosts.ResolveOnchainConfirmation(ctx, guid); err != nil {
				return err
			}
			if tx != nil {
				if err := d.dao.MarkTransactionCompleted(ctx, tx.Tx); err != nil {
					return err
				}
			}
			log.Infow("boost resolved", "guid", guid)
			return nil

		case "fail":
			if err := boosts.FailOnchainConfirmation(ctx, guid); err != nil {
				return err
			}
			if tx != nil {
				if err := d.dao.MarkTransactionFailed(ctx, tx.Tx); err != nil {
					return err
				}
			}
			log.Infow("boost failed", "guid", guid)
			return nil

		default:
			return fmt.Errorf("unknown event type %q", cctx.String("event-type"))
		}
	},
}
