package model

import "github.com/shopspring/decimal"

type Boost struct {
	Guid       uint64 `gorm:"primaryKey;autoIncrement:false"`
	EntityGuid uint64 `gorm:"index;column:entity_guid"`
	OwnerGuid  uint64 `gorm:"index;column:owner_guid"`

	Bid           decimal.Decimal `gorm:"type:DECIMAL(38,18)"`
	BidType       string          `gorm:"type:varchar(16)"`
	PaymentMethod string          `gorm:"type:varchar(16)"`
	DailyBid      decimal.Decimal `gorm:"type:DECIMAL(38,18)"`
	DurationDays  int

	Impressions    int64
	ImpressionsMet int64
	Type           string `gorm:"type:varchar(16)"`
	Priority       bool   `gorm:"type:bool;default:false"`

	Status int `gorm:"index"`

	TransactionID string `gorm:"type:varchar(128);column:transaction_id"`
	Checksum      string `gorm:"type:varchar(64)"`

	TargetLocation    int `gorm:"column:target_location"`
	TargetSuitability int `gorm:"column:target_suitability"`

	// unix millis, each set exactly once by its transition
	CreatedTimestamp   int64  `gorm:"index"`
	ReviewedTimestamp  *int64 `gorm:"default:null"`
	ApprovedTimestamp  *int64 `gorm:"default:null"`
	RevokedTimestamp   *int64 `gorm:"default:null"`
	RejectedTimestamp  *int64 `gorm:"default:null"`
	CompletedTimestamp *int64 `gorm:"default:null"`
}

func (Boost) TableName() string {
	return "boosts"
}
