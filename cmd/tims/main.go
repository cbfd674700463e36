package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/pflag"

	"github.com/jesses-code-adventures/tims/internal/cache"
	"github.com/jesses-code-adventures/tims/internal/config"
	"github.com/jesses-code-adventures/tims/internal/database"
	"github.com/jesses-code-adventures/tims/internal/service"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// connectionFlags picks --db and --driver out of the arguments before cobra
// runs, since the database has to be open to build the command tree.
func connectionFlags(args []string) (string, string) {
	flags := pflag.NewFlagSet("tims", pflag.ContinueOnError)
	flags.ParseErrorsWhitelist.UnknownFlags = true
	flags.Usage = func() {}
	flags.SetOutput(io.Discard)
	dbConn := flags.String("db", "", "")
	dbDriver := flags.String("driver", "", "")
	_ = flags.Parse(args)
	return *dbConn, *dbDriver
}

func run() error {
	dbConn, dbDriver := connectionFlags(os.Args[1:])
	cfg, err := config.Load(dbConn, dbDriver, "")
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	logger := cfg.Logger()

	db, err := database.NewDB(cfg)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	ctx := context.Background()
	if err := db.Migrate(ctx); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}

	var store cache.Store = cache.NewMemoryStore()
	if cfg.RedisURL != "" {
		redisStore, err := cache.NewRedisStoreFromURL(cfg.RedisURL, cfg.CachePrefix)
		if err != nil {
			return fmt.Errorf("failed to connect to redis: %w", err)
		}
		defer redisStore.Close()
		if err := redisStore.Ping(ctx); err != nil {
			return fmt.Errorf("failed to connect to redis: %w", err)
		}
		store = redisStore
	}

	timesheetService := service.NewTimesheetService(db, store, logger)

	rootCmd := newRootCmd(timesheetService, cfg)
	return rootCmd.ExecuteContext(ctx)
}
