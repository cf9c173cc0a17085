package config

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/sethvargo/go-envconfig"
)

type Config struct {
	Port      string        `env:"PORT,       default=8080"`
	Env       string        `env:"ENV,        default=development"`
	JWTSecret string        `env:"JWT_SECRET"`
	JWTTTL    time.Duration `env:"JWT_TTL,    default=24h"`
	LogLevel  string        `env:"LOG_LEVEL,  default=info"`
	UploadDir string        `env:"UPLOAD_DIR, default=uploads"`

	Mongo MongoConfig
	Redis RedisConfig
	Loan  LoanConfig
}

type MongoConfig struct {
	URI      string `env:"MONGO_URI, default=mongodb://localhost:27017"`
	Database string `env:"MONGO_DB,  default=lending_system"`
}

type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR,     default=localhost:6379"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB,       default=0"`
}

// LoanConfig carries the lending policy knobs. The annual rate is fixed
// system-wide; AutoVerifyOnApply reproduces the legacy apply-time KYC
// promotion and can be switched off without a code change.
type LoanConfig struct {
	AnnualRatePct     float64 `env:"INTEREST_ANNUAL_RATE, default=96"`
	AutoVerifyOnApply bool    `env:"AUTO_VERIFY_ON_APPLY, default=true"`
}

// Load reads configuration from environment variables using go-envconfig.
func Load(logger *slog.Logger) *Config {
	var cfg Config
	if err := envconfig.Process(context.Background(), &cfg); err != nil {
		logger.Error("Failed to load configuration", "error", err)
		panic(err)
	}
	if err := cfg.validate(); err != nil {
		logger.Error("Invalid configuration", "error", err)
		panic(err)
	}
	return &cfg
}

// validate rejects settings the amortization math cannot work with. A zero
// or negative rate would otherwise only surface on the first approval.
func (c *Config) validate() error {
	if c.Loan.AnnualRatePct <= 0 {
		return fmt.Errorf("INTEREST_ANNUAL_RATE must be positive, got %v", c.Loan.AnnualRatePct)
	}
	return nil
}
