package model

// Entity is the narrow projection of promotable content this service needs.
// Full entity persistence lives elsewhere.
type Entity struct {
	Guid        uint64 `gorm:"primaryKey;autoIncrement:false"`
	OwnerGuid   uint64 `gorm:"index;column:owner_guid"`
	Type        string `gorm:"type:varchar(32)"`
	NSFW        bool   `gorm:"type:bool;default:false;column:nsfw"`
	TimeCreated int64  `gorm:"column:time_created"`
}

func (Entity) TableName() string {
	return "entities"
}
