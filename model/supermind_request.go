package model

import "github.com/shopspring/decimal"

type SupermindRequest struct {
	Guid         uint64 `gorm:"primaryKey;autoIncrement:false"`
	SenderGuid   uint64 `gorm:"index;column:sender_guid"`
	ReceiverGuid uint64 `gorm:"index;column:receiver_guid"`
	ActivityGuid uint64 `gorm:"column:activity_guid"`

	Amount        decimal.Decimal `gorm:"type:DECIMAL(38,18)"`
	PaymentMethod string          `gorm:"type:varchar(16)"`
	PaymentTxID   string          `gorm:"type:varchar(128);column:payment_tx_id"`

	Status int `gorm:"index"`

	CreatedTimestamp int64  `gorm:"index"`
	UpdatedTimestamp *int64 `gorm:"default:null"`
}

func (SupermindRequest) TableName() string {
	return "supermind_requests"
}
