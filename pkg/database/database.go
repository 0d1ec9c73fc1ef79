package database

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/authcraft/account-service/pkg/config"
)

func Connect(ctx context.Context, dbConfig config.DatabaseConfig) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(dbConfig.URL)
	if err != nil {
		return nil, err
	}

	cfg.MinConns = int32(dbConfig.MinConns)
	cfg.MaxConns = int32(dbConfig.MaxConns)
	cfg.MaxConnLifetime = dbConfig.MaxLifetime
	cfg.HealthCheckPeriod = 30 * time.Second

	return pgxpool.NewWithConfig(ctx, cfg)
}
