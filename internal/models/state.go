package models

import "time"

// RefreshRun 数据集刷新记录
type RefreshRun struct {
	ID              string     `json:"id" db:"id"`
	State           string     `json:"state" db:"state"` // ready, failed
	StartedAt       time.Time  `json:"started_at" db:"started_at"`
	FinishedAt      *time.Time `json:"finished_at,omitempty" db:"finished_at"`
	Partitions      int        `json:"partitions" db:"partitions"`
	RideCount       int        `json:"ride_count" db:"ride_count"`
	TotalDistanceKm float64    `json:"total_distance_km" db:"total_distance_km"`
	Error           *string    `json:"error,omitempty" db:"error"`
}
