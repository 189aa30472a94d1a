package model

type User struct {
	Guid              uint64 `gorm:"primaryKey;autoIncrement:false"`
	Username          string `gorm:"type:varchar(64)"`
	EthWallet         string `gorm:"type:varchar(64);column:eth_wallet"`
	MerchantAccountID string `gorm:"type:varchar(64);column:merchant_account_id"`
	Admin             bool   `gorm:"type:bool;default:false"`
	NSFW              bool   `gorm:"type:bool;default:false;column:nsfw"`
}

func (User) TableName() string {
	return "users"
}
