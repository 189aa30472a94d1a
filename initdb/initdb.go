package initdb

import (
	"time"

	logging "github.com/ipfs/go-log/v2"
	"golang.org/x/xerrors"
	"gorm.io/gorm"

	"github.com/velora-social/boostd/model"
)

var log = logging.Logger("initdb")

// InitDatabase creates the schema. It refuses to run against a database
// that already holds the boost tables.
func InitDatabase(db *gorm.DB) error {
	if checkExist(db) {
		return xerrors.New("database has been initialized")
	}

	return createTables(db)
}

func checkExist(db *gorm.DB) bool {
	return db.Migrator().HasTable(&model.Boost{})
}

func createTables(db *gorm.DB) error {
	startTime := time.Now()
	defer func() {
		log.Infow("createTables", "duration", time.Since(startTime).String())
	}()

	return db.AutoMigrate(
		// boost lifecycle
		&model.Boost{},
		&model.BoostRanking{},

		// payments
		&model.Wallet{},
		&model.OffchainTransaction{},
		&model.BlockchainTransaction{},

		// paid replies
		&model.SupermindRequest{},

		// platform records consumed read-mostly by validation
		&model.User{},
		&model.Entity{},
	)
}
