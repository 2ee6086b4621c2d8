package telemetry

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/langchou/ridegazer/internal/geo"
	"github.com/langchou/ridegazer/internal/models"
)

// PartitionSource 一个分区的数据来源（CSV 目录、SQLite 文件等）
type PartitionSource interface {
	Name() string
	Tables(ctx context.Context) (*models.PartitionTables, error)
}

// Options 构建参数
type Options struct {
	Mode    geo.Mode
	Workers int
}

// Build 读取所有分区后依次执行 连接 → 聚合 → 清洗。任一步失败都不返回部分结果。
func Build(ctx context.Context, sources []PartitionSource, opts Options) (*Dataset, error) {
	workers := opts.Workers
	if workers < 1 {
		workers = 1
	}

	tables := make([]*models.PartitionTables, len(sources))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, src := range sources {
		g.Go(func() error {
			t, err := src.Tables(gctx)
			if err != nil {
				return fmt.Errorf("load partition %d (%s): %w", i, src.Name(), err)
			}
			tables[i] = t
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	rides := Load(tables)

	if err := NewAggregator(opts.Mode).Aggregate(ctx, rides, workers); err != nil {
		return nil, err
	}

	SanitizeRides(rides)
	return NewDataset(rides, len(sources)), nil
}
