package main

import (
	"context"
	syslog "log"
	"os"
	"time"

	"github.com/go-redis/redis/v8"
	logging "github.com/ipfs/go-log/v2"
	"github.com/urfave/cli/v2"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/velora-social/boostd/boost"
	"github.com/velora-social/boostd/chain"
	"github.com/velora-social/boostd/config"
	"github.com/velora-social/boostd/dao"
	"github.com/velora-social/boostd/payments"
	"github.com/velora-social/boostd/supermind"
	"github.com/velora-social/boostd/util"
)

// deps is everything a command can wire from: built once per process.
type deps struct {
	cfg *config.Config
	db  *gorm.DB
	rds *redis.Client
	dao *dao.Dao
}

func setup(cctx *cli.Context) (*deps, error) {
	if err := logging.SetLogLevel("*", cctx.String("log-level")); err != nil {
		return nil, err
	}

	cfg, err := config.Load(cctx.String("config"))
	if err != nil {
		return nil, err
	}

	gormLogger := logger.New(
		syslog.New(os.Stdout, "\r\n", syslog.LstdFlags),
		logger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
		},
	)

	db, err := gorm.Open(mysql.Open(cfg.MysqlDSN), &gorm.Config{
		Logger: gormLogger,
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	if err := sqlDB.Ping(); err != nil {
		return nil, err
	}

	rds := redis.NewClient(&redis.Options{
		Addr: cfg.RedisAddr,
	})
	if _, err := rds.Ping(context.Background()).Result(); err != nil {
		return nil, err
	}

	return &deps{
		cfg: cfg,
		db:  db,
		rds: rds,
		dao: dao.NewDao(db, rds),
	}, nil
}

func (d *deps) close() {
	if sqlDB, err := d.db.DB(); err == nil {
		sqlDB.Close()
	}
	d.rds.Close()
}

func (d *deps) newRates() *payments.Rates {
	return payments.NewRates(
		d.cfg.USDRate,
		d.cfg.TokenRate,
		d.cfg.MinUSDCharge,
		d.cfg.PriorityRate,
		d.cfg.MinImpressions,
		d.cfg.MaxImpressions,
		d.dao,
		dao.BuildRatesKey(),
		time.Duration(d.cfg.RatesCacheTTLSeconds)*time.Second,
	)
}

func (d *deps) newProcessor(node *chain.Client) *payments.Processor {
	locks := util.NewLocks(d.rds)

	return payments.NewProcessor(
		payments.NewCashRail(payments.NewStripeIntents(d.cfg.StripeKey)),
		payments.NewOffchainRail(d.dao, locks, d.cfg.OffchainSpendCap),
		payments.NewOnchainRail(d.dao, node, d.cfg.BoostContractAddress, d.cfg.BoostWalletAddress),
	)
}

func (d *deps) newBoostManager(node *chain.Client) *boost.Manager {
	return boost.NewManager(
		d.dao,
		d.newProcessor(node),
		d.dao,
		d.newRates(),
		d.dao,
		d.cfg.ValidCategories,
		d.cfg.MaxDailyViews,
		d.cfg.BoostDurationDays,
	)
}

// supermindStore narrows the dao to the supermind.Store shape: the begin
// method returns the Tx interface instead of the concrete dao type.
type supermindStore struct {
	*dao.Dao
}

func (s supermindStore) BeginTx(ctx context.Context) (supermind.Tx, error) {
	return s.Dao.BeginSupermindTx(ctx)
}

func (d *deps) newSupermindManager() *supermind.Manager {
	locks := util.NewLocks(d.rds)

	return supermind.NewManager(
		supermindStore{d.dao},
		payments.NewSupermindProcessor(
			payments.NewStripeIntents(d.cfg.StripeKey),
			d.dao,
			locks,
			d.cfg.OffchainSpendCap,
		),
		d.dao,
		d.dao,
		d.cfg.SupermindExpiryDays,
	)
}
