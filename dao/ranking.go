package dao

import (
	"context"
	"time"

	"gorm.io/gorm/clause"

	"github.com/velora-social/boostd/common"
	"github.com/velora-social/boostd/model"
	"github.com/velora-social/boostd/util"
)

// ActiveBoostsForRanking returns approved boosts still inside their run
// window. The window is forward looking only: approved_timestamp +
// duration_days.
func (d *Dao) ActiveBoostsForRanking(ctx context.Context, now time.Time) ([]*model.Boost, error) {
	nowMs := now.UnixNano() / int64(time.Millisecond)
	dayMs := int64(24 * time.Hour / time.Millisecond)

	var boosts []*model.Boost
	err := d.db.WithContext(ctx).
		Where("status = ? AND approved_timestamp IS NOT NULL AND approved_timestamp + duration_days * ? > ?",
			int(common.BoostStatusApproved), dayMs, nowMs).
		Find(&boosts).Error
	return boosts, err
}

func (d *Dao) UpsertBoostRankings(ctx context.Context, rankings []*model.BoostRanking) error {
	if len(rankings) == 0 {
		return nil
	}

	now := util.NowMillis()
	for _, r := range rankings {
		r.LastUpdated = now
	}

	return d.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "guid"}},
			DoUpdates: clause.AssignmentColumns([]string{"ranking_open", "ranking_safe", "last_updated"}),
		}).
		Create(&rankings).Error
}

func (d *Dao) GetBoostRanking(ctx context.Context, guid uint64) (*model.BoostRanking, error) {
	var r model.BoostRanking
	if err := d.db.WithContext(ctx).Where("guid = ?", guid).Take(&r).Error; err != nil {
		return nil, err
	}
	return &r, nil
}
