package model

import "github.com/shopspring/decimal"

// Wallet is the per-user offchain balance row. Debits lock this row to keep
// the cap check and the transfer atomic per user.
type Wallet struct {
	UserGuid uint64          `gorm:"primaryKey;autoIncrement:false;column:user_guid"`
	Balance  decimal.Decimal `gorm:"type:DECIMAL(38,18)"`
}

func (Wallet) TableName() string {
	return "wallets"
}
