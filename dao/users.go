package dao

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/velora-social/boostd/common"
	"github.com/velora-social/boostd/model"
)

func (d *Dao) GetEntityByGuid(ctx context.Context, guid uint64) (*model.Entity, error) {
	var e model.Entity
	err := d.db.WithContext(ctx).Where("guid = ?", guid).Take(&e).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func (d *Dao) GetUserByGuid(ctx context.Context, guid uint64) (*model.User, error) {
	var u model.User
	err := d.db.WithContext(ctx).Where("guid = ?", guid).Take(&u).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, common.ErrEntityNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}
