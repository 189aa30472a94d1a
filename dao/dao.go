package dao

import (
	"github.com/go-redis/redis/v8"
	logging "github.com/ipfs/go-log/v2"
	"gorm.io/gorm"
)

var log = logging.Logger("dao")

type Dao struct {
	db  *gorm.DB
	rds *redis.Client
}

func NewDao(db *gorm.DB, rds *redis.Client) *Dao {
	return &Dao{
		db:  db,
		rds: rds,
	}
}
