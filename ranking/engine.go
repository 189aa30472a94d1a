package ranking

import (
	"context"
	"time"

	logging "github.com/ipfs/go-log/v2"
	"github.com/shopspring/decimal"
	"go.uber.org/atomic"

	"github.com/velora-social/boostd/common"
	"github.com/velora-social/boostd/model"
)

var log = logging.Logger("ranking")

// Rail weights when both bid rails have active spend in a bucket. A bucket
// served by a single rail hands that rail the whole share.
var (
	cashWeight  = decimal.RequireFromString("0.67")
	tokenWeight = decimal.RequireFromString("0.33")
)

// Store is the persistence surface the engine needs.
type Store interface {
	ActiveBoostsForRanking(ctx context.Context, now time.Time) ([]*model.Boost, error)
	UpsertBoostRankings(ctx context.Context, rankings []*model.BoostRanking) error
}

// Engine recomputes delivery shares for active boosts. Shares within one
// audience bucket always sum to 1.
type Engine struct {
	store   Store
	running atomic.Bool
}

func NewEngine(store Store) *Engine {
	return &Engine{store: store}
}

// Run computes and persists one full ranking pass. Overlapping runs are
// rejected so a slow pass is never raced by the next tick.
func (e *Engine) Run(ctx context.Context) error {
	if !e.running.CAS(false, true) {
		log.Warn("ranking pass already running, skipping")
		return nil
	}
	defer e.running.Store(false)

	boosts, err := e.store.ActiveBoostsForRanking(ctx, time.Now())
	if err != nil {
		return err
	}

	rankings := Compute(boosts)
	if err := e.store.UpsertBoostRankings(ctx, rankings); err != nil {
		return err
	}

	log.Infow("ranking pass complete", "boosts", len(boosts))
	return nil
}

type bucketKey struct {
	location int
	safeOnly bool
}

// Compute derives per boost shares. Every boost competes in the open
// audience of its target location; only safe suitability boosts also
// compete in the safe audience. Within an audience the cash and token
// rails split the share 67/33, and each boost takes its daily bid's
// fraction of its rail's spend.
func Compute(boosts []*model.Boost) []*model.BoostRanking {
	buckets := make(map[bucketKey][]*model.Boost)
	for _, b := range boosts {
		open := bucketKey{location: b.TargetLocation, safeOnly: false}
		buckets[open] = append(buckets[open], b)

		if b.TargetSuitability == int(common.TargetSuitabilitySafe) {
			safe := bucketKey{location: b.TargetLocation, safeOnly: true}
			buckets[safe] = append(buckets[safe], b)
		}
	}

	shares := make(map[uint64]*model.BoostRanking, len(boosts))
	for _, b := range boosts {
		shares[b.Guid] = &model.BoostRanking{Guid: b.Guid}
	}

	for key, members := range buckets {
		for guid, share := range bucketShares(members) {
			if key.safeOnly {
				shares[guid].RankingSafe = share
			} else {
				shares[guid].RankingOpen = share
			}
		}
	}

	rankings := make([]*model.BoostRanking, 0, len(shares))
	for _, r := range shares {
		rankings = append(rankings, r)
	}
	return rankings
}

func bucketShares(members []*model.Boost) map[uint64]float64 {
	cashTotal := decimal.Zero
	tokenTotal := decimal.Zero
	for _, b := range members {
		if common.BidType(b.BidType) == common.BidTypeCash {
			cashTotal = cashTotal.Add(b.DailyBid)
		} else {
			tokenTotal = tokenTotal.Add(b.DailyBid)
		}
	}

	cashShare := cashWeight
	tokenShare := tokenWeight
	if cashTotal.IsZero() {
		tokenShare = decimal.New(1, 0)
	}
	if tokenTotal.IsZero() {
		cashShare = decimal.New(1, 0)
	}

	shares := make(map[uint64]float64, len(members))
	for _, b := range members {
		var share decimal.Decimal
		if common.BidType(b.BidType) == common.BidTypeCash {
			if cashTotal.IsZero() {
				continue
			}
			share = b.DailyBid.Div(cashTotal).Mul(cashShare)
		} else {
			if tokenTotal.IsZero() {
				continue
			}
			share = b.DailyBid.Div(tokenTotal).Mul(tokenShare)
		}
		f, _ := share.Float64()
		shares[b.Guid] = f
	}
	return shares
}
