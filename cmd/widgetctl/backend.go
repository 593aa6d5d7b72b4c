package main

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/mattn/go-sqlite3"

	"sitewidgets/internal/config"
	"sitewidgets/pkg/store"
)

// openStore opens the configured backend. The returned close func is never nil.
func openStore(ctx context.Context, cfg config.StoreConfig) (store.Store, func(), error) {
	noop := func() {}

	switch cfg.Backend {
	case config.BackendMemory:
		return store.NewInMemoryStore(), noop, nil

	case config.BackendSQLite, config.BackendMySQL:
		driver, dialect := "sqlite3", store.DialectSQLite
		if cfg.Backend == config.BackendMySQL {
			driver, dialect = "mysql", store.DialectMySQL
		}
		db, err := sql.Open(driver, cfg.DSN)
		if err != nil {
			return nil, noop, fmt.Errorf("failed to open %s: %w", cfg.Backend, err)
		}
		s := store.NewSQLStore(db, cfg.Table, dialect)
		if err := s.InitSchema(ctx); err != nil {
			db.Close()
			return nil, noop, err
		}
		return s, func() { db.Close() }, nil

	case config.BackendPostgres:
		pool, err := pgxpool.New(ctx, cfg.DSN)
		if err != nil {
			return nil, noop, fmt.Errorf("failed to connect to postgres: %w", err)
		}
		s := store.NewPostgresStore(pool, cfg.Table)
		if err := s.InitSchema(ctx); err != nil {
			pool.Close()
			return nil, noop, err
		}
		return s, pool.Close, nil

	case config.BackendRedis:
		s, err := store.NewRedisStoreFromURL(cfg.RedisURL, cfg.KeyPrefix)
		if err != nil {
			return nil, noop, err
		}
		if err := s.Ping(ctx); err != nil {
			s.Close()
			return nil, noop, fmt.Errorf("failed to connect to redis: %w", err)
		}
		return s, func() { s.Close() }, nil
	}

	return nil, noop, fmt.Errorf("unknown store backend %q", cfg.Backend)
}
