package telemetry

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/langchou/ridegazer/internal/geo"
	"github.com/langchou/ridegazer/internal/models"
)

// Dataset 一次构建的聚合结果，构建完成后只读
type Dataset struct {
	rides      []*models.Ride
	partitions int
	builtAt    time.Time
}

// NewDataset 包装已聚合、已清洗的骑行
func NewDataset(rides []*models.Ride, partitions int) *Dataset {
	return &Dataset{
		rides:      rides,
		partitions: partitions,
		builtAt:    time.Now(),
	}
}

// Len 骑行数量
func (d *Dataset) Len() int { return len(d.rides) }

// Partitions 分区数量
func (d *Dataset) Partitions() int { return d.partitions }

// BuiltAt 构建完成时间
func (d *Dataset) BuiltAt() time.Time { return d.builtAt }

// Trees 完整骑行树，调用方不得修改
func (d *Dataset) Trees() []*models.Ride { return d.rides }

// Rides 所有骑行的概要
func (d *Dataset) Rides() []models.RideSummary {
	out := make([]models.RideSummary, 0, len(d.rides))
	for _, r := range d.rides {
		out = append(out, r.Summary())
	}
	return out
}

// GPSPoints 按遍历顺序展开全部有效定位点
func (d *Dataset) GPSPoints() []models.GPSPoint {
	points := []models.GPSPoint{}
	for _, r := range d.rides {
		eachFix(r, func(s *models.SensorReading) {
			points = append(points, models.GPSPoint{
				Latitude:  *s.Lat,
				Longitude: *s.Lon,
				Density:   *s.Hgt,
			})
		})
	}
	return points
}

// RideDetail 按名称查找第一个匹配的骑行
func (d *Dataset) RideDetail(name string) (*models.RideDetail, error) {
	for _, r := range d.rides {
		if r.Name != name {
			continue
		}

		coords := [][2]float64{}
		eachFix(r, func(s *models.SensorReading) {
			coords = append(coords, [2]float64{*s.Lat, *s.Lon})
		})

		detail := &models.RideDetail{
			Name:           r.Name,
			Duration:       r.Duration,
			Date:           r.Date,
			Time:           r.Time,
			Distance:       r.Distance,
			NumScenes:      len(r.Scenes),
			NumSamples:     r.NumSamples,
			GPSCoordinates: coords,
			GPSHeatmapData: coords,
		}
		if rect, ok := geo.Bound(coords); ok {
			center := rect.Center()
			detail.Bounds = &models.Bounds{
				MinLat:    rect.Lo().Lat.Degrees(),
				MinLon:    rect.Lo().Lng.Degrees(),
				MaxLat:    rect.Hi().Lat.Degrees(),
				MaxLon:    rect.Hi().Lng.Degrees(),
				CenterLat: center.Lat.Degrees(),
				CenterLon: center.Lng.Degrees(),
			}
		}
		return detail, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrRideNotFound, name)
}

// Overview 仪表盘总览：合计、平均值、每日骑行数
func (d *Dataset) Overview() models.Overview {
	var ov models.Overview
	perDate := make(map[string]int)
	totalDurationSec := 0.0
	for _, r := range d.rides {
		ov.NumRides++
		ov.NumScenes += r.NumScenes
		ov.NumSamples += r.NumSamples
		if r.Duration != nil {
			totalDurationSec += *r.Duration
		}
		if r.Distance != nil {
			ov.TotalDistanceKm += *r.Distance
		}
		if r.Date != "" {
			perDate[r.Date]++
		}
	}
	ov.TotalDurationMin = totalDurationSec / 60

	if ov.NumRides > 0 {
		n := float64(ov.NumRides)
		ov.AvgScenesPerRide = float64(ov.NumScenes) / n
		ov.AvgSamplesPerRide = float64(ov.NumSamples) / n
		ov.AvgDistancePerRideKm = ov.TotalDistanceKm / n
		ov.AvgDurationPerRideMin = ov.TotalDurationMin / n
	}

	ov.RidesPerDate = make([]models.DateCount, 0, len(perDate))
	for date, n := range perDate {
		ov.RidesPerDate = append(ov.RidesPerDate, models.DateCount{Date: date, Rides: n})
	}
	sort.Slice(ov.RidesPerDate, func(i, j int) bool {
		return ov.RidesPerDate[i].Date < ov.RidesPerDate[j].Date
	})
	return ov
}

// FilterRides 按名称子串（不区分大小写）过滤，并按 scenes|samples|duration|distance 排序。
// sortBy 为空时保持原顺序；空值排在最小端。
func (d *Dataset) FilterRides(query, sortBy, order string) ([]models.RideSummary, error) {
	return FilterSummaries(d.Rides(), query, sortBy, order)
}

// FilterSummaries 对任意来源的汇总执行与 FilterRides 相同的过滤和排序，不修改输入
func FilterSummaries(summaries []models.RideSummary, query, sortBy, order string) ([]models.RideSummary, error) {
	desc := false
	switch strings.ToLower(order) {
	case "", "asc", "ascending":
	case "desc", "descending":
		desc = true
	default:
		return nil, fmt.Errorf("%w: order %q", ErrInvalidSort, order)
	}

	var key func(models.RideSummary) float64
	switch strings.ToLower(sortBy) {
	case "":
	case "scenes":
		key = func(r models.RideSummary) float64 { return float64(r.NumScenes) }
	case "samples":
		key = func(r models.RideSummary) float64 { return float64(r.NumSamples) }
	case "duration":
		key = func(r models.RideSummary) float64 { return valueOrMin(r.Duration) }
	case "distance":
		key = func(r models.RideSummary) float64 { return valueOrMin(r.Distance) }
	default:
		return nil, fmt.Errorf("%w: field %q", ErrInvalidSort, sortBy)
	}

	q := strings.ToLower(strings.TrimSpace(query))
	out := []models.RideSummary{}
	for _, r := range summaries {
		if q != "" && !strings.Contains(strings.ToLower(r.Name), q) {
			continue
		}
		out = append(out, r)
	}

	if key != nil {
		sort.SliceStable(out, func(i, j int) bool {
			if desc {
				return key(out[i]) > key(out[j])
			}
			return key(out[i]) < key(out[j])
		})
	}
	return out, nil
}

// eachFix 依次访问骑行中满足三字段规则的读数
func eachFix(r *models.Ride, fn func(s *models.SensorReading)) {
	for _, scene := range r.Scenes {
		for _, sample := range scene.Samples {
			for _, s := range sample.Sensors {
				if s.HasGPSFix() {
					fn(s)
				}
			}
		}
	}
}

func valueOrMin(v *float64) float64 {
	if v == nil {
		return math.Inf(-1)
	}
	return *v
}
