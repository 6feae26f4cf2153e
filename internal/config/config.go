package config

import (
	"time"
)

// Config is the root application configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Log      LogConfig      `yaml:"log"`
	Votes    VotesConfig    `yaml:"votes"`
	Ledger   LedgerConfig   `yaml:"ledger"`
	Callback CallbackConfig `yaml:"callback"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host            string        `yaml:"host"             env:"SERVER_HOST"             env-default:"0.0.0.0"`
	Port            int           `yaml:"port"             env:"SERVER_PORT"             env-default:"8080"`
	ReadTimeout     time.Duration `yaml:"read_timeout"     env:"SERVER_READ_TIMEOUT"     env-default:"10s"`
	WriteTimeout    time.Duration `yaml:"write_timeout"    env:"SERVER_WRITE_TIMEOUT"    env-default:"30s"`
	IdleTimeout     time.Duration `yaml:"idle_timeout"     env:"SERVER_IDLE_TIMEOUT"     env-default:"60s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"SERVER_SHUTDOWN_TIMEOUT" env-default:"10s"`
	RateLimit       int           `yaml:"rate_limit"       env:"SERVER_RATE_LIMIT"       env-default:"300"`
}

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	DSN             string        `yaml:"dsn"                env:"DATABASE_DSN"                env-required:"true"`
	MaxConns        int32         `yaml:"max_conns"          env:"DATABASE_MAX_CONNS"          env-default:"25"`
	MinConns        int32         `yaml:"min_conns"          env:"DATABASE_MIN_CONNS"          env-default:"5"`
	MaxConnLifetime time.Duration `yaml:"max_conn_lifetime"  env:"DATABASE_MAX_CONN_LIFETIME"  env-default:"1h"`
	MaxConnIdleTime time.Duration `yaml:"max_conn_idle_time" env:"DATABASE_MAX_CONN_IDLE_TIME" env-default:"30m"`
	Migrate         bool          `yaml:"migrate"            env:"DATABASE_MIGRATE"            env-default:"true"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `yaml:"level"  env:"LOG_LEVEL"  env-default:"info"`
	Format string `yaml:"format" env:"LOG_FORMAT" env-default:"json"`
}

// VotesConfig holds ballot thresholds. A ballot closes as soon as the
// running tally (approvals minus disapprovals) reaches +delta or
// -delta.
type VotesConfig struct {
	RefundDelta  int `yaml:"refund_delta"  env:"VOTES_REFUND_DELTA"  env-default:"2"`
	PromoteDelta int `yaml:"promote_delta" env:"VOTES_PROMOTE_DELTA" env-default:"2"`
}

// LedgerConfig holds money-movement settings. CommunityUserID must
// reference the community account seeded by the migrations.
type LedgerConfig struct {
	CommunityUserID      string `yaml:"community_user_id"      env:"LEDGER_COMMUNITY_USER_ID"      env-default:"00000000-0000-0000-0000-000000000001"`
	MaxTransactionAmount int64  `yaml:"max_transaction_amount" env:"LEDGER_MAX_TRANSACTION_AMOUNT" env-default:"100000"`
}

// CallbackConfig holds settings for the outgoing notification workers.
type CallbackConfig struct {
	Workers     int           `yaml:"workers"      env:"CALLBACK_WORKERS"      env-default:"4"`
	QueueSize   int           `yaml:"queue_size"   env:"CALLBACK_QUEUE_SIZE"   env-default:"256"`
	HTTPTimeout time.Duration `yaml:"http_timeout" env:"CALLBACK_HTTP_TIMEOUT" env-default:"5s"`
}
