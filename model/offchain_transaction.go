package model

import "github.com/shopspring/decimal"

// OffchainTransaction is one signed entry in the internal token ledger.
// Debits carry a negative amount, credits a positive one.
type OffchainTransaction struct {
	ID        uint64          `gorm:"primaryKey;autoIncrement:true"`
	TxID      string          `gorm:"uniqueIndex;type:varchar(64);column:tx_id"`
	UserGuid  uint64          `gorm:"index;column:user_guid"`
	Amount    decimal.Decimal `gorm:"type:DECIMAL(38,18)"`
	Type      string          `gorm:"type:varchar(32)"` // boost, boost_refund, supermind, ...
	BoostGuid uint64          `gorm:"index;column:boost_guid"`
	Timestamp int64           `gorm:"index"`
}

func (OffchainTransaction) TableName() string {
	return "offchain_transactions"
}
