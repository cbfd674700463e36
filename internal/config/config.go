package config

import (
	"fmt"
	"os"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

type Config struct {
	DatabaseURL    string `env:"DATABASE_URL" envDefault:"./tims.db"`
	DatabaseDriver string `env:"DATABASE_DRIVER" envDefault:"sqlite3"`
	RedisURL       string `env:"REDIS_URL"`
	CachePrefix    string `env:"CACHE_PREFIX" envDefault:"tims:"`
	LogLevel       string `env:"LOG_LEVEL" envDefault:"error"`
	ActingUser     string `env:"TIMS_USER"`
	DevMode        bool   `env:"DEV_MODE" envDefault:"true"`

	logger *logrus.Logger
}

// Load reads .env (if present) and the environment. Non-empty arguments
// override what the environment provides.
func Load(dbConn, dbDriver, devMode string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("error loading .env file: %w", err)
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("error parsing environment: %w", err)
	}

	if dbConn != "" {
		cfg.DatabaseURL = dbConn
	}
	if dbDriver != "" {
		cfg.DatabaseDriver = dbDriver
	}
	if devMode != "" {
		cfg.DevMode = devMode == "true"
	}

	switch cfg.DatabaseDriver {
	case "sqlite3", "libsql", "postgres":
	default:
		return nil, fmt.Errorf("unsupported database driver '%s'", cfg.DatabaseDriver)
	}

	return cfg, nil
}

// Logger returns a logrus logger at the configured level, built on first use.
func (c *Config) Logger() *logrus.Logger {
	if c.logger == nil {
		c.logger = logrus.New()
		c.logger.SetOutput(os.Stderr)
		c.logger.SetLevel(c.LogrusLogLevel())
	}
	return c.logger
}

func (c *Config) LogrusLogLevel() logrus.Level {
	switch c.LogLevel {
	case "silent":
		return logrus.PanicLevel
	case "error":
		return logrus.ErrorLevel
	case "warn":
		return logrus.WarnLevel
	case "info":
		return logrus.InfoLevel
	case "debug":
		return logrus.DebugLevel
	default:
		return logrus.ErrorLevel
	}
}

func (c *Config) Dump() {
	fmt.Printf("Database URL: %s\n", c.DatabaseURL)
	fmt.Printf("Database Driver: %s\n", c.DatabaseDriver)
	if c.RedisURL != "" {
		fmt.Printf("Redis URL: %s\n", c.RedisURL)
	} else {
		fmt.Println("Redis URL: (in-process cache)")
	}
	fmt.Printf("Log Level: %s\n", c.LogLevel)
}
