package repository

import (
	"context"
	"fmt"

	"github.com/langchou/ridegazer/internal/models"
)

// RideRepository 骑行汇总仓库
type RideRepository struct {
	db *DB
}

// NewRideRepository 创建骑行汇总仓库
func NewRideRepository(db *DB) *RideRepository {
	return &RideRepository{db: db}
}

// ReplaceSummaries 在一个事务内用本次刷新结果替换全部汇总
func (r *RideRepository) ReplaceSummaries(ctx context.Context, runID string, summaries []models.RideSummary) error {
	tx, err := r.db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	if _, err := tx.Exec(ctx, `DELETE FROM ride_summaries`); err != nil {
		return fmt.Errorf("clear ride summaries: %w", err)
	}

	query := `
		INSERT INTO ride_summaries (run_id, directory_token, token, name, duration_sec, ride_date, ride_time, distance_km, num_scenes, num_samples)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	for _, s := range summaries {
		if _, err := tx.Exec(ctx, query,
			runID,
			s.DirectoryToken,
			s.Token,
			s.Name,
			s.Duration,
			nullString(s.Date),
			nullString(s.Time),
			s.Distance,
			s.NumScenes,
			s.NumSamples,
		); err != nil {
			return fmt.Errorf("insert ride summary %s: %w", s.Name, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit ride summaries: %w", err)
	}
	return nil
}

// List 获取最近一次保存的汇总
func (r *RideRepository) List(ctx context.Context) ([]models.RideSummary, error) {
	query := `
		SELECT token, name, directory_token, duration_sec, ride_date, ride_time, distance_km, num_scenes, num_samples
		FROM ride_summaries
		ORDER BY directory_token, token
	`
	rows, err := r.db.Pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list ride summaries: %w", err)
	}
	defer rows.Close()

	var summaries []models.RideSummary
	for rows.Next() {
		var s models.RideSummary
		var date, clock *string
		if err := rows.Scan(&s.Token, &s.Name, &s.DirectoryToken, &s.Duration, &date, &clock, &s.Distance, &s.NumScenes, &s.NumSamples); err != nil {
			return nil, fmt.Errorf("scan ride summary: %w", err)
		}
		if date != nil {
			s.Date = *date
		}
		if clock != nil {
			s.Time = *clock
		}
		summaries = append(summaries, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate ride summaries: %w", err)
	}
	return summaries, nil
}

func nullString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
