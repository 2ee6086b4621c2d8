package telemetry

import (
	"errors"
	"fmt"
)

var (
	// ErrBadTimestamp 时间戳不符合 YYYY-MM-DD HH:MM:SS.ffffff
	ErrBadTimestamp = errors.New("bad timestamp")
	// ErrRideNotFound 按名称查询的骑行不存在
	ErrRideNotFound = errors.New("ride not found")
	// ErrInvalidSort 不支持的排序字段或方向
	ErrInvalidSort = errors.New("invalid sort")
)

// AggregateError 单个骑行聚合失败，整个构建随之失败
type AggregateError struct {
	Partition int
	RideToken int64
	RideName  string
	Err       error
}

func (e *AggregateError) Error() string {
	return fmt.Sprintf("aggregate ride %q (partition %d, token %d): %v", e.RideName, e.Partition, e.RideToken, e.Err)
}

func (e *AggregateError) Unwrap() error {
	return e.Err
}
