package dao

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/velora-social/boostd/model"
)

func (d *Dao) AddTransaction(ctx context.Context, tx *model.BlockchainTransaction) error {
	return d.db.WithContext(ctx).Create(tx).Error
}

func (d *Dao) GetTransactionByTx(ctx context.Context, txHash string) (*model.BlockchainTransaction, error) {
	var tx model.BlockchainTransaction
	err := d.db.WithContext(ctx).Where("tx = ?", txHash).Take(&tx).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &tx, nil
}

func (d *Dao) GetTransactionByBoost(ctx context.Context, boostGuid uint64) (*model.BlockchainTransaction, error) {
	var tx model.BlockchainTransaction
	err := d.db.WithContext(ctx).
		Where("boost_guid = ?", boostGuid).
		Order("timestamp DESC").
		Take(&tx).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &tx, nil
}

func (d *Dao) MarkTransactionFailed(ctx context.Context, txHash string) error {
	return d.db.WithContext(ctx).Model(&model.BlockchainTransaction{}).
		Where("tx = ?", txHash).
		Update("failed", true).Error
}

func (d *Dao) MarkTransactionCompleted(ctx context.Context, txHash string) error {
	return d.db.WithContext(ctx).Model(&model.BlockchainTransaction{}).
		Where("tx = ?", txHash).
		Update("completed", true).Error
}
