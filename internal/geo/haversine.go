package geo

import (
	"fmt"
	"math"
	"strings"
)

// EarthRadiusKm 地球平均半径 (km)
const EarthRadiusKm = 6371.0

// Mode 球面距离公式的约定
type Mode string

const (
	// ModeStandard 标准 haversine，全程使用弧度
	ModeStandard Mode = "standard"
	// ModeLegacy 兼容旧数据：cos 项直接作用于角度值
	ModeLegacy Mode = "legacy"
)

// DistanceFunc 两点 (度) 之间的距离 (km)
type DistanceFunc func(lat1, lon1, lat2, lon2 float64) float64

// ParseMode 解析配置中的距离模式，空字符串为标准模式
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case "", ModeStandard:
		return ModeStandard, nil
	case ModeLegacy:
		return ModeLegacy, nil
	default:
		return "", fmt.Errorf("unknown distance mode %q", s)
	}
}

// Func 返回该模式对应的距离函数
func (m Mode) Func() DistanceFunc {
	if m == ModeLegacy {
		return HaversineKmLegacy
	}
	return HaversineKm
}

// HaversineKm 标准 haversine 大圆距离
func HaversineKm(lat1, lon1, lat2, lon2 float64) float64 {
	lat1Rad := toRadians(lat1)
	lat2Rad := toRadians(lat2)
	dlat := lat2Rad - lat1Rad
	dlon := toRadians(lon2) - toRadians(lon1)

	a := math.Pow(math.Sin(dlat/2), 2) + math.Cos(lat1Rad)*math.Cos(lat2Rad)*math.Pow(math.Sin(dlon/2), 2)
	c := 2 * math.Asin(math.Sqrt(a))
	return EarthRadiusKm * c
}

// HaversineKmLegacy 复现历史数据的算法：差值换算为弧度，但 cos 使用未换算的纬度。
// a 可能落在 [0,1] 之外，此时结果为 NaN，由清洗阶段置空。
func HaversineKmLegacy(lat1, lon1, lat2, lon2 float64) float64 {
	dlat := toRadians(lat2) - toRadians(lat1)
	dlon := toRadians(lon2) - toRadians(lon1)

	a := math.Pow(math.Sin(dlat/2), 2) + math.Cos(lat1)*math.Cos(lat2)*math.Pow(math.Sin(dlon/2), 2)
	c := 2 * math.Asin(math.Sqrt(a))
	return EarthRadiusKm * c
}

func toRadians(deg float64) float64 {
	return deg * math.Pi / 180
}
