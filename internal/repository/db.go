package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Pool pgxpool.Pool 与 pgxmock 共同满足的接口
type Pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
	Close()
}

// DB 数据库连接池封装
type DB struct {
	Pool Pool
}

// New 创建数据库连接
func New(ctx context.Context, databaseURL string) (*DB, error) {
	config, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}

	// 连接池配置
	config.MaxConns = 10
	config.MinConns = 2

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	// 测试连接
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return &DB{Pool: pool}, nil
}

// NewWithPool 使用已有连接池（测试中为 pgxmock）
func NewWithPool(pool Pool) *DB {
	return &DB{Pool: pool}
}

// Close 关闭连接池
func (db *DB) Close() {
	db.Pool.Close()
}

// Migrate 执行数据库迁移
func (db *DB) Migrate(ctx context.Context) error {
	migrations := []string{
		migrationCreateRefreshRuns,
		migrationCreateRideSummaries,
	}

	for _, m := range migrations {
		if _, err := db.Pool.Exec(ctx, m); err != nil {
			return fmt.Errorf("execute migration: %w", err)
		}
	}

	return nil
}

// 数据库迁移 SQL
const migrationCreateRefreshRuns = `
CREATE TABLE IF NOT EXISTS refresh_runs (
    id UUID PRIMARY KEY,
    state VARCHAR(20) NOT NULL,
    started_at TIMESTAMP WITH TIME ZONE NOT NULL,
    finished_at TIMESTAMP WITH TIME ZONE,
    partitions INT NOT NULL DEFAULT 0,
    ride_count INT NOT NULL DEFAULT 0,
    total_distance_km DOUBLE PRECISION NOT NULL DEFAULT 0,
    error TEXT
);
CREATE INDEX IF NOT EXISTS idx_refresh_runs_started_at ON refresh_runs(started_at);
`

// ride_summaries 只保存最近一次成功刷新的结果
const migrationCreateRideSummaries = `
CREATE TABLE IF NOT EXISTS ride_summaries (
    run_id UUID NOT NULL REFERENCES refresh_runs(id),
    directory_token INT NOT NULL,
    token BIGINT NOT NULL,
    name TEXT NOT NULL,
    duration_sec DOUBLE PRECISION,
    ride_date VARCHAR(10),
    ride_time VARCHAR(8),
    distance_km DOUBLE PRECISION,
    num_scenes INT NOT NULL DEFAULT 0,
    num_samples INT NOT NULL DEFAULT 0,
    PRIMARY KEY (directory_token, token)
);
CREATE INDEX IF NOT EXISTS idx_ride_summaries_name ON ride_summaries(name);
`
