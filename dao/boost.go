package dao

import (
	"context"
	"errors"
	"time"

	mysqldriver "github.com/go-sql-driver/mysql"
	"golang.org/x/xerrors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/velora-social/boostd/common"
	"github.com/velora-social/boostd/model"
	"github.com/velora-social/boostd/util"
)

// statusTimestampColumn maps a target status to the column set exactly once
// by the transition into it.
func statusTimestampColumn(status common.BoostStatus) string {
	switch status {
	case common.BoostStatusApproved:
		return "approved_timestamp"
	case common.BoostStatusRevoked:
		return "revoked_timestamp"
	case common.BoostStatusRejected:
		return "rejected_timestamp"
	case common.BoostStatusCompleted:
		return "completed_timestamp"
	default:
		return ""
	}
}

func (d *Dao) AddBoost(ctx context.Context, b *model.Boost) error {
	err := d.db.WithContext(ctx).Create(b).Error
	if err != nil {
		var mysqlErr *mysqldriver.MySQLError
		if errors.As(err, &mysqlErr) && mysqlErr.Number == 1062 {
			return common.Validation("Provided GUID already exists")
		}
	}
	return err
}

func (d *Dao) GetBoost(ctx context.Context, guid uint64) (*model.Boost, error) {
	var b model.Boost
	err := d.db.WithContext(ctx).Where("guid = ?", guid).Take(&b).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, common.ErrBoostNotFound
	}
	if err != nil {
		return nil, err
	}
	return &b, nil
}

// BoostExistsForEntity reports whether an ongoing boost already exists for
// the same (entity, owner) pair. Terminal boosts do not count.
func (d *Dao) BoostExistsForEntity(ctx context.Context, entityGuid, ownerGuid uint64) (bool, error) {
	nonTerminal := []int{
		int(common.BoostStatusCreated),
		int(common.BoostStatusPendingOnchainConfirmation),
		int(common.BoostStatusApproved),
	}

	var count int64
	err := d.db.WithContext(ctx).Model(&model.Boost{}).
		Where("entity_guid = ? AND owner_guid = ? AND status IN (?)", entityGuid, ownerGuid, nonTerminal).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// TransitionBoost performs the guarded status update: it succeeds only when
// the current status is exactly `from`, and stamps the transition timestamp
// in the same write. Any mismatch is common.ErrIncorrectBoostStatus.
func (d *Dao) TransitionBoost(ctx context.Context, guid uint64, from, to common.BoostStatus) error {
	updates := map[string]interface{}{
		"status": int(to),
	}
	if col := statusTimestampColumn(to); col != "" {
		updates[col] = util.NowMillis()
	}

	result := d.db.WithContext(ctx).Model(&model.Boost{}).
		Where("guid = ? AND status = ?", guid, int(from)).
		Updates(updates)
	if result.Error != nil {
		return result.Error
	}

	if result.RowsAffected != 1 {
		b, err := d.GetBoost(ctx, guid)
		if err != nil {
			return err
		}
		return xerrors.Errorf("boost %d is %s, expected %s: %w",
			guid, common.BoostStatus(b.Status), from, common.ErrIncorrectBoostStatus)
	}

	return nil
}

// ImpressionsBoostedSince sums the impressions an owner has put behind
// boosts created in the window, for the daily cap check.
func (d *Dao) ImpressionsBoostedSince(ctx context.Context, ownerGuid uint64, since int64) (int64, error) {
	var total int64
	err := d.db.WithContext(ctx).Model(&model.Boost{}).
		Select("COALESCE(SUM(impressions), 0)").
		Where("owner_guid = ? AND created_timestamp >= ? AND status NOT IN (?)",
			ownerGuid, since,
			[]int{int(common.BoostStatusFailed), int(common.BoostStatusRejected), int(common.BoostStatusRevoked)}).
		Scan(&total).Error
	return total, err
}

// AddImpressionsMet increments delivery monotonically, clamped at the
// requested impressions. Returns the updated record.
func (d *Dao) AddImpressionsMet(ctx context.Context, guid uint64, count int64) (*model.Boost, error) {
	var updated model.Boost

	err := d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var b model.Boost
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("guid = ?", guid).Take(&b).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return common.ErrBoostNotFound
			}
			return err
		}

		if common.BoostStatus(b.Status) != common.BoostStatusApproved {
			return xerrors.Errorf("boost %d is %s: %w", guid, common.BoostStatus(b.Status), common.ErrIncorrectBoostStatus)
		}

		met := b.ImpressionsMet + count
		if met > b.Impressions {
			met = b.Impressions
		}

		if err := tx.Model(&model.Boost{}).Where("guid = ?", guid).
			Update("impressions_met", met).Error; err != nil {
			return err
		}

		b.ImpressionsMet = met
		updated = b
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &updated, nil
}

func (d *Dao) ListBoostsByStatus(ctx context.Context, status common.BoostStatus, limit int) ([]*model.Boost, error) {
	var boosts []*model.Boost
	err := d.db.WithContext(ctx).
		Where("status = ?", int(status)).
		Order("created_timestamp").
		Limit(limit).
		Find(&boosts).Error
	return boosts, err
}

func (d *Dao) ListBoostsByOwner(ctx context.Context, ownerGuid uint64, limit int) ([]*model.Boost, error) {
	var boosts []*model.Boost
	err := d.db.WithContext(ctx).
		Where("owner_guid = ?", ownerGuid).
		Order("created_timestamp DESC").
		Limit(limit).
		Find(&boosts).Error
	return boosts, err
}

// ExpiredBoosts returns non-terminal boosts whose run window has lapsed:
// approved boosts past approved_timestamp + duration_days, and boosts stuck
// before approval for longer than maxAge.
func (d *Dao) ExpiredBoosts(ctx context.Context, now time.Time, maxAge time.Duration) ([]*model.Boost, error) {
	nowMs := now.UnixNano() / int64(time.Millisecond)
	stuckBefore := now.Add(-maxAge).UnixNano() / int64(time.Millisecond)
	dayMs := int64(24 * time.Hour / time.Millisecond)

	var boosts []*model.Boost
	err := d.db.WithContext(ctx).
		Where("(status = ? AND approved_timestamp + duration_days * ? < ?)"+
			" OR (status IN (?) AND created_timestamp < ?)",
			int(common.BoostStatusApproved), dayMs, nowMs,
			[]int{int(common.BoostStatusCreated), int(common.BoostStatusPendingOnchainConfirmation)}, stuckBefore).
		Find(&boosts).Error
	return boosts, err
}
