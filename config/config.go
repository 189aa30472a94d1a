package config

import (
	"os"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

// Config is assembled once at process start and handed to each component.
// Core logic never reads viper directly.
type Config struct {
	MysqlDSN  string
	RedisAddr string

	NodeURL              string
	BoostContractAddress string
	BoostWalletAddress   string

	StripeKey string

	MinImpressions int64
	MaxImpressions int64
	MinUSDCharge   decimal.Decimal
	USDRate        decimal.Decimal
	TokenRate      decimal.Decimal
	PriorityRate   decimal.Decimal

	MaxDailyViews    int64
	OffchainSpendCap decimal.Decimal

	BoostDurationDays    int
	SupermindExpiryDays  int
	ValidCategories      []string
	ListenAddr           string
	RankIntervalSeconds  int
	RatesCacheTTLSeconds int
}

func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetConfigFile(path)
	v.SetEnvPrefix("boostd")
	v.AutomaticEnv()

	v.SetDefault("mysql_dsn", "root:123456@tcp(127.0.0.1:3306)/boostd?parseTime=true")
	v.SetDefault("redis_addr", "127.0.0.1:6379")
	v.SetDefault("node_url", "http://127.0.0.1:8545")
	v.SetDefault("listen_addr", ":8080")
	v.SetDefault("min_impressions", 100)
	v.SetDefault("max_impressions", 5000)
	v.SetDefault("min_usd_charge", "1.00")
	v.SetDefault("usd_rate", "1000")
	v.SetDefault("token_rate", "1000")
	v.SetDefault("priority_rate", "1.0")
	v.SetDefault("max_daily_views", 10000)
	v.SetDefault("offchain_spend_cap", "10")
	v.SetDefault("boost_duration_days", 1)
	v.SetDefault("supermind_expiry_days", 7)
	v.SetDefault("valid_categories", []string{})
	v.SetDefault("rank_interval_seconds", 300)
	v.SetDefault("rates_cache_ttl_seconds", 600)

	if err := v.ReadInConfig(); err != nil {
		// config file is optional, defaults + env cover a dev setup
		if !os.IsNotExist(err) {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return nil, err
			}
		}
	}

	minUSD, err := decimal.NewFromString(v.GetString("min_usd_charge"))
	if err != nil {
		return nil, err
	}
	usdRate, err := decimal.NewFromString(v.GetString("usd_rate"))
	if err != nil {
		return nil, err
	}
	tokenRate, err := decimal.NewFromString(v.GetString("token_rate"))
	if err != nil {
		return nil, err
	}
	priorityRate, err := decimal.NewFromString(v.GetString("priority_rate"))
	if err != nil {
		return nil, err
	}
	spendCap, err := decimal.NewFromString(v.GetString("offchain_spend_cap"))
	if err != nil {
		return nil, err
	}

	return &Config{
		MysqlDSN:             v.GetString("mysql_dsn"),
		RedisAddr:            v.GetString("redis_addr"),
		NodeURL:              v.GetString("node_url"),
		BoostContractAddress: v.GetString("boost_contract_address"),
		BoostWalletAddress:   v.GetString("boost_wallet_address"),
		StripeKey:            v.GetString("stripe_key"),
		MinImpressions:       v.GetInt64("min_impressions"),
		MaxImpressions:       v.GetInt64("max_impressions"),
		MinUSDCharge:         minUSD,
		USDRate:              usdRate,
		TokenRate:            tokenRate,
		PriorityRate:         priorityRate,
		MaxDailyViews:        v.GetInt64("max_daily_views"),
		OffchainSpendCap:     spendCap,
		BoostDurationDays:    v.GetInt("boost_duration_days"),
		SupermindExpiryDays:  v.GetInt("supermind_expiry_days"),
		ValidCategories:      v.GetStringSlice("valid_categories"),
		ListenAddr:           v.GetString("listen_addr"),
		RankIntervalSeconds:  v.GetInt("rank_interval_seconds"),
		RatesCacheTTLSeconds: v.GetInt("rates_cache_ttl_seconds"),
	}, nil
}
