package telemetry

import (
	"fmt"
	"math"
	"reflect"

	"github.com/langchou/ridegazer/internal/models"
)

// Sanitize 递归地把 NaN/±Inf 替换为 nil，其余值与容器结构、顺序保持不变
func Sanitize(v any) any {
	switch x := v.(type) {
	case nil:
		return nil
	case float64:
		if !isFinite(x) {
			return nil
		}
		return x
	case float32:
		if !isFinite(float64(x)) {
			return nil
		}
		return x
	case *float64:
		if x == nil || !isFinite(*x) {
			return nil
		}
		return x
	case []any:
		if x == nil {
			return x
		}
		out := make([]any, len(x))
		for i, item := range x {
			out[i] = Sanitize(item)
		}
		return out
	case map[string]any:
		if x == nil {
			return x
		}
		out := make(map[string]any, len(x))
		for k, item := range x {
			out[k] = Sanitize(item)
		}
		return out
	case []map[string]any:
		if x == nil {
			return x
		}
		out := make([]map[string]any, len(x))
		for i, item := range x {
			out[i] = Sanitize(item).(map[string]any)
		}
		return out
	default:
		return sanitizeReflect(v)
	}
}

// sanitizeReflect 处理其余带类型的值：切片和数组重建为 []any，映射重建为 map[string]any
func sanitizeReflect(v any) any {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Float32, reflect.Float64:
		if !isFinite(rv.Float()) {
			return nil
		}
		return v
	case reflect.Pointer:
		if rv.IsNil() {
			return v
		}
		if k := rv.Elem().Kind(); (k == reflect.Float32 || k == reflect.Float64) && !isFinite(rv.Elem().Float()) {
			return nil
		}
		return v
	case reflect.Slice:
		// []byte 按字符串编码，不展开
		if rv.IsNil() || rv.Type().Elem().Kind() == reflect.Uint8 {
			return v
		}
		return sanitizeSeq(rv)
	case reflect.Array:
		return sanitizeSeq(rv)
	case reflect.Map:
		if rv.IsNil() {
			return v
		}
		out := make(map[string]any, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			key := iter.Key()
			name := fmt.Sprint(key.Interface())
			if key.Kind() == reflect.String {
				name = key.String()
			}
			out[name] = Sanitize(iter.Value().Interface())
		}
		return out
	default:
		return v
	}
}

func sanitizeSeq(rv reflect.Value) []any {
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = Sanitize(rv.Index(i).Interface())
	}
	return out
}

// SanitizeRides 原地清洗骑行树中所有可空浮点字段
func SanitizeRides(rides []*models.Ride) {
	for _, ride := range rides {
		ride.Duration = finiteOrNil(ride.Duration)
		ride.Distance = finiteOrNil(ride.Distance)
		for _, scene := range ride.Scenes {
			for _, sample := range scene.Samples {
				for _, s := range sample.Sensors {
					s.Lat = finiteOrNil(s.Lat)
					s.Lon = finiteOrNil(s.Lon)
					s.Hgt = finiteOrNil(s.Hgt)
					s.LatStd = finiteOrNil(s.LatStd)
					s.LonStd = finiteOrNil(s.LonStd)
					s.HgtStd = finiteOrNil(s.HgtStd)
				}
			}
		}
	}
}

func finiteOrNil(v *float64) *float64 {
	if v == nil || !isFinite(*v) {
		return nil
	}
	return v
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
