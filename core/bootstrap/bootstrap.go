package bootstrap

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	corecache "meatbot/core/cache"
	coreconfig "meatbot/core/config"
	coredatabase "meatbot/core/database"
	"meatbot/core/logger"
)

// Options control the generic bootstrap pipeline shared between bots.
// Database and Redis are optional; a nil section skips that subsystem.
type Options struct {
	Config   *coreconfig.Config
	Database *coredatabase.Config
	Redis    *corecache.Config

	LoggerInit   func(*coreconfig.Config) error
	Connect      func(coredatabase.Config) (*sqlx.DB, error)
	Migrate      func(coredatabase.Config) error
	ConnectCache func(context.Context, corecache.Config) (*corecache.Client, error)
}

// Result exposes infrastructure initialized by the bootstrap pipeline.
type Result struct {
	DB    *sqlx.DB
	Cache *corecache.Client
}

// Run initializes the logger, connects to the database and cache, and
// applies migrations. Subsystems without a config section are skipped.
func Run(opts Options) (*Result, error) {
	if opts.Config == nil {
		return nil, fmt.Errorf("bootstrap: nil config provided")
	}

	loggerInit := opts.LoggerInit
	if loggerInit == nil {
		loggerInit = logger.InitLogger
	}
	if err := loggerInit(opts.Config); err != nil {
		return nil, fmt.Errorf("bootstrap: logger init failed: %w", err)
	}

	res := &Result{}

	if opts.Database != nil {
		connect := opts.Connect
		if connect == nil {
			connect = coredatabase.Connect
		}
		db, err := connect(*opts.Database)
		if err != nil {
			return nil, fmt.Errorf("bootstrap: database initialization failed: %w", err)
		}

		migrate := opts.Migrate
		if migrate == nil {
			migrate = coredatabase.RunMigrations
		}
		if err := migrate(*opts.Database); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("bootstrap: migrations failed: %w", err)
		}
		res.DB = db
	}

	if opts.Redis != nil {
		connectCache := opts.ConnectCache
		if connectCache == nil {
			connectCache = corecache.Connect
		}
		cc, err := connectCache(context.Background(), *opts.Redis)
		if err != nil {
			if res.DB != nil {
				_ = res.DB.Close()
			}
			return nil, fmt.Errorf("bootstrap: cache initialization failed: %w", err)
		}
		res.Cache = cc
	}

	return res, nil
}
