package model

type BoostRanking struct {
	Guid        uint64  `gorm:"primaryKey;autoIncrement:false"`
	RankingOpen float64 `gorm:"column:ranking_open"`
	RankingSafe float64 `gorm:"column:ranking_safe"`
	LastUpdated int64   `gorm:"column:last_updated"`
}

func (BoostRanking) TableName() string {
	return "boost_rankings"
}
