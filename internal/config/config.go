package config

import "time"

type PostgresConfig struct {
	DSN             string        `env:"PG_DSN"`
	MaxOpenConns    int           `env:"PG_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `env:"PG_MAX_IDLE_CONNS" default:"5"`
	ConnMaxIdleTime time.Duration `env:"PG_CONN_MAX_IDLE_TIME" default:"5m"`
	ConnMaxLifetime time.Duration `env:"PG_CONN_MAX_LIFETIME" default:"30m"`
}

// LedgerConfig carries the money-movement policy knobs.
type LedgerConfig struct {
	Currency          string `env:"LEDGER_CURRENCY" default:"BBS"`
	ReferralThreshold int64  `env:"REFERRAL_THRESHOLD_AMOUNT" default:"3"`
	ReferralReward    int64  `env:"REFERRAL_REWARD_AMOUNT" default:"1"`
	RequireRecipient  bool   `env:"DONATION_REQUIRE_RECIPIENT" default:"true"`
}
