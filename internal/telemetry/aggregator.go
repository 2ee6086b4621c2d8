package telemetry

import (
	"context"
	"math"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/langchou/ridegazer/internal/geo"
	"github.com/langchou/ridegazer/internal/models"
)

// Aggregator 计算骑行时长、日期、距离和计数
type Aggregator struct {
	distance geo.DistanceFunc
}

// NewAggregator 创建聚合器
func NewAggregator(mode geo.Mode) *Aggregator {
	return &Aggregator{distance: mode.Func()}
}

// Aggregate 并发聚合所有骑行，骑行之间互不共享状态。返回第一个失败的骑行错误。
func (a *Aggregator) Aggregate(ctx context.Context, rides []*models.Ride, workers int) error {
	if workers < 1 {
		workers = 1
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for _, ride := range rides {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			return a.AggregateRide(ride)
		})
	}
	return g.Wait()
}

// AggregateRide 原地写入单个骑行的派生字段
func (a *Aggregator) AggregateRide(ride *models.Ride) error {
	var times []time.Time
	numSamples := 0
	for _, scene := range ride.Scenes {
		numSamples += len(scene.Samples)
		for _, sample := range scene.Samples {
			t, err := ParseTimestamp(sample.Timestamp)
			if err != nil {
				return a.fail(ride, err)
			}
			times = append(times, t)
		}
	}

	ride.NumScenes = len(ride.Scenes)
	ride.NumSamples = numSamples

	if len(times) > 0 {
		sort.Slice(times, func(i, j int) bool { return times[i].Before(times[j]) })
		first, last := times[0], times[len(times)-1]
		duration := last.Sub(first).Seconds()
		ride.Duration = &duration
		ride.Date = first.Format(DateLayout)
		ride.Time = first.Format(ClockLayout)
	}

	distance, err := a.rideDistance(ride)
	if err != nil {
		return a.fail(ride, err)
	}
	ride.Distance = &distance
	return nil
}

type gpsFix struct {
	at  time.Time
	lat float64
	lon float64
}

// rideDistance 逐个 sample 累加相邻定位点的距离，不跨 sample 连线。
// 这里只按纬度是否存在过滤，与 GPS 投影的三字段规则不同，沿用历史行为。
func (a *Aggregator) rideDistance(ride *models.Ride) (float64, error) {
	total := 0.0
	for _, scene := range ride.Scenes {
		for _, sample := range scene.Samples {
			fixes := make([]gpsFix, 0, len(sample.Sensors))
			for _, s := range sample.Sensors {
				if s.Lat == nil || math.IsNaN(*s.Lat) {
					continue
				}
				at, err := ParseTimestamp(s.Timestamp)
				if err != nil {
					return 0, err
				}
				fixes = append(fixes, gpsFix{at: at, lat: *s.Lat, lon: valueOrNaN(s.Lon)})
			}

			sort.SliceStable(fixes, func(i, j int) bool { return fixes[i].at.Before(fixes[j].at) })
			for i := 1; i < len(fixes); i++ {
				total += a.distance(fixes[i].lat, fixes[i].lon, fixes[i-1].lat, fixes[i-1].lon)
			}
		}
	}
	return total, nil
}

func (a *Aggregator) fail(ride *models.Ride, err error) error {
	return &AggregateError{
		Partition: ride.DirectoryToken,
		RideToken: ride.Token,
		RideName:  ride.Name,
		Err:       err,
	}
}

// 经度缺失时距离为 NaN，清洗后该骑行的距离为空
func valueOrNaN(v *float64) float64 {
	if v == nil {
		return math.NaN()
	}
	return *v
}
