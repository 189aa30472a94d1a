package dao

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/velora-social/boostd/common"
	"github.com/velora-social/boostd/model"
	"github.com/velora-social/boostd/util"
)

// DebitWallet runs the cap check and the balance transfer in one
// transaction with the wallet row locked, so two concurrent debits cannot
// both pass the cap. Returns the ledger entry on success.
func (d *Dao) DebitWallet(ctx context.Context, userGuid uint64, amount, cap decimal.Decimal, window time.Duration, txType string, boostGuid uint64) (*model.OffchainTransaction, error) {
	if amount.Sign() <= 0 {
		return nil, common.Validation("amount must be positive")
	}

	var entry *model.OffchainTransaction

	err := d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var wallet model.Wallet
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("user_guid = ?", userGuid).Take(&wallet).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return common.ErrInsufficientFunds
		}
		if err != nil {
			return err
		}

		since := util.NowMillis() - int64(window/time.Millisecond)

		var spentStr string
		if err := tx.Model(&model.OffchainTransaction{}).
			Select("COALESCE(SUM(-amount), 0)").
			Where("user_guid = ? AND amount < 0 AND timestamp >= ?", userGuid, since).
			Scan(&spentStr).Error; err != nil {
			return err
		}
		spent, err := decimal.NewFromString(spentStr)
		if err != nil {
			return err
		}

		if spent.Add(amount).GreaterThan(cap) {
			return common.ErrInsufficientFunds
		}

		if wallet.Balance.LessThan(amount) {
			return common.ErrInsufficientFunds
		}

		if err := tx.Model(&model.Wallet{}).
			Where("user_guid = ?", userGuid).
			Update("balance", wallet.Balance.Sub(amount)).Error; err != nil {
			return err
		}

		entry = &model.OffchainTransaction{
			TxID:      "oc:" + util.RandHexStr(32),
			UserGuid:  userGuid,
			Amount:    amount.Neg(),
			Type:      txType,
			BoostGuid: boostGuid,
			Timestamp: util.NowMillis(),
		}
		return tx.Create(entry).Error
	})
	if err != nil {
		return nil, err
	}

	return entry, nil
}

// CreditWallet is the symmetric refund/payout entry.
func (d *Dao) CreditWallet(ctx context.Context, userGuid uint64, amount decimal.Decimal, txType string, boostGuid uint64) (*model.OffchainTransaction, error) {
	if amount.Sign() <= 0 {
		return nil, common.Validation("amount must be positive")
	}

	var entry *model.OffchainTransaction

	err := d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var wallet model.Wallet
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("user_guid = ?", userGuid).Take(&wallet).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			wallet = model.Wallet{UserGuid: userGuid, Balance: decimal.Zero}
			if err := tx.Create(&wallet).Error; err != nil {
				return err
			}
		} else if err != nil {
			return err
		}

		if err := tx.Model(&model.Wallet{}).
			Where("user_guid = ?", userGuid).
			Update("balance", wallet.Balance.Add(amount)).Error; err != nil {
			return err
		}

		entry = &model.OffchainTransaction{
			TxID:      "oc:" + util.RandHexStr(32),
			UserGuid:  userGuid,
			Amount:    amount,
			Type:      txType,
			BoostGuid: boostGuid,
			Timestamp: util.NowMillis(),
		}
		return tx.Create(entry).Error
	})
	if err != nil {
		return nil, err
	}

	return entry, nil
}

func (d *Dao) WalletBalance(ctx context.Context, userGuid uint64) (decimal.Decimal, error) {
	var wallet model.Wallet
	err := d.db.WithContext(ctx).Where("user_guid = ?", userGuid).Take(&wallet).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return decimal.Zero, nil
	}
	if err != nil {
		return decimal.Zero, err
	}
	return wallet.Balance, nil
}

func (d *Dao) GetOffchainTransaction(ctx context.Context, txID string) (*model.OffchainTransaction, error) {
	var entry model.OffchainTransaction
	err := d.db.WithContext(ctx).Where("tx_id = ?", txID).Take(&entry).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &entry, nil
}
