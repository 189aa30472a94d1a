package model

import "github.com/shopspring/decimal"

// BlockchainTransaction correlates an on-chain tx hash with the boost that
// submitted it. The listener resolves chain events against this record.
type BlockchainTransaction struct {
	ID            uint64          `gorm:"primaryKey;autoIncrement:true"`
	Tx            string          `gorm:"uniqueIndex;type:varchar(128)"`
	Contract      string          `gorm:"type:varchar(32)"`
	BoostGuid     uint64          `gorm:"index;column:boost_guid"`
	UserGuid      uint64          `gorm:"index;column:user_guid"`
	WalletAddress string          `gorm:"type:varchar(64);column:wallet_address"`
	Amount        decimal.Decimal `gorm:"type:DECIMAL(38,18)"`
	Completed     bool            `gorm:"type:bool;default:false"`
	Failed        bool            `gorm:"type:bool;default:false"`
	Timestamp     int64           `gorm:"index"`
}

func (BlockchainTransaction) TableName() string {
	return "blockchain_transactions"
}
