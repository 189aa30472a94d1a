package dao

import (
	"context"
	"errors"

	"golang.org/x/xerrors"
	"gorm.io/gorm"

	"github.com/velora-social/boostd/common"
	"github.com/velora-social/boostd/model"
	"github.com/velora-social/boostd/util"
)

// SupermindTx is an explicit transaction boundary held around request
// creation. It is never held across a payment gateway call longer than the
// compensation path requires.
type SupermindTx struct {
	tx *gorm.DB
}

func (d *Dao) BeginSupermindTx(ctx context.Context) (*SupermindTx, error) {
	tx := d.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return nil, tx.Error
	}
	return &SupermindTx{tx: tx}, nil
}

func (t *SupermindTx) Commit() error {
	return t.tx.Commit().Error
}

func (t *SupermindTx) Rollback() error {
	return t.tx.Rollback().Error
}

func (t *SupermindTx) AddSupermindRequest(r *model.SupermindRequest) error {
	return t.tx.Create(r).Error
}

func (d *Dao) GetSupermindRequest(ctx context.Context, guid uint64) (*model.SupermindRequest, error) {
	var r model.SupermindRequest
	err := d.db.WithContext(ctx).Where("guid = ?", guid).Take(&r).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, common.ErrSupermindNotFound
	}
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// TransitionSupermind is the guarded status update, same contract as
// TransitionBoost.
func (d *Dao) TransitionSupermind(ctx context.Context, guid uint64, from, to common.SupermindStatus) error {
	result := d.db.WithContext(ctx).Model(&model.SupermindRequest{}).
		Where("guid = ? AND status = ?", guid, int(from)).
		Updates(map[string]interface{}{
			"status":            int(to),
			"updated_timestamp": util.NowMillis(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected != 1 {
		return xerrors.Errorf("supermind %d not in status %d: %w", guid, from, common.ErrIncorrectBoostStatus)
	}
	return nil
}

func (d *Dao) ExpiredSupermindRequests(ctx context.Context, olderThan int64) ([]*model.SupermindRequest, error) {
	var requests []*model.SupermindRequest
	err := d.db.WithContext(ctx).
		Where("status = ? AND created_timestamp < ?", int(common.SupermindStatusCreated), olderThan).
		Find(&requests).Error
	return requests, err
}
