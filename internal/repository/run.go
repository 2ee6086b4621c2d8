package repository

import (
	"context"
	"fmt"

	"github.com/langchou/ridegazer/internal/models"
)

// RunRepository 刷新记录仓库
type RunRepository struct {
	db *DB
}

// NewRunRepository 创建刷新记录仓库
func NewRunRepository(db *DB) *RunRepository {
	return &RunRepository{db: db}
}

// Save 写入或更新刷新记录
func (r *RunRepository) Save(ctx context.Context, run *models.RefreshRun) error {
	query := `
		INSERT INTO refresh_runs (id, state, started_at, finished_at, partitions, ride_count, total_distance_km, error)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO UPDATE SET
			state = EXCLUDED.state,
			finished_at = EXCLUDED.finished_at,
			partitions = EXCLUDED.partitions,
			ride_count = EXCLUDED.ride_count,
			total_distance_km = EXCLUDED.total_distance_km,
			error = EXCLUDED.error
	`
	_, err := r.db.Pool.Exec(ctx, query,
		run.ID,
		run.State,
		run.StartedAt,
		run.FinishedAt,
		run.Partitions,
		run.RideCount,
		run.TotalDistanceKm,
		run.Error,
	)
	if err != nil {
		return fmt.Errorf("save refresh run: %w", err)
	}
	return nil
}

// List 获取最近的刷新记录
func (r *RunRepository) List(ctx context.Context, limit int) ([]*models.RefreshRun, error) {
	query := `
		SELECT id, state, started_at, finished_at, partitions, ride_count, total_distance_km, error
		FROM refresh_runs
		ORDER BY started_at DESC
		LIMIT $1
	`
	rows, err := r.db.Pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("list refresh runs: %w", err)
	}
	defer rows.Close()

	var runs []*models.RefreshRun
	for rows.Next() {
		run := &models.RefreshRun{}
		if err := rows.Scan(
			&run.ID,
			&run.State,
			&run.StartedAt,
			&run.FinishedAt,
			&run.Partitions,
			&run.RideCount,
			&run.TotalDistanceKm,
			&run.Error,
		); err != nil {
			return nil, fmt.Errorf("scan refresh run: %w", err)
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate refresh runs: %w", err)
	}
	return runs, nil
}
