package source

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/langchou/ridegazer/internal/models"
)

// Decode 将原始字符串表转换为带类型的分区数据。
// scene_token 为空的 sample、sample_token 为空的读数、token 为空的 GPS 行会被丢弃；
// 其他 token 缺失或不是整数都是致命错误。
func Decode(partition string, raw RawTables) (*models.PartitionTables, error) {
	for _, rel := range relations {
		r, ok := raw[rel]
		if !ok || r == nil {
			return nil, &LoadError{Partition: partition, Relation: rel, Err: fmt.Errorf("relation not found: %w", ErrMissingColumn)}
		}
		cols := schema[rel]
		if len(r.Header) < len(cols) {
			return nil, &LoadError{Partition: partition, Relation: rel, Column: cols[len(r.Header)], Err: ErrMissingColumn}
		}
	}

	out := &models.PartitionTables{Name: partition}
	var err error
	if out.Rides, err = decodeRides(partition, raw[RelRides]); err != nil {
		return nil, err
	}
	if out.Scenes, err = decodeScenes(partition, raw[RelScenes]); err != nil {
		return nil, err
	}
	if out.Samples, err = decodeSamples(partition, raw[RelSamples]); err != nil {
		return nil, err
	}
	if out.Sensors, err = decodeSensors(partition, raw[RelSensors]); err != nil {
		return nil, err
	}
	if out.GPS, err = decodeGPS(partition, raw[RelGPS]); err != nil {
		return nil, err
	}
	return out, nil
}

// rowReader 按位置取列，短行补空
type rowReader struct {
	partition string
	relation  string
	row       int
	fields    []string
	err       error
}

func (r *rowReader) str(i int) string {
	if i >= len(r.fields) {
		return ""
	}
	return r.fields[i]
}

func (r *rowReader) absent(i int) bool {
	return strings.TrimSpace(r.str(i)) == ""
}

func (r *rowReader) fail(i int, err error) {
	if r.err == nil {
		r.err = &LoadError{
			Partition: r.partition,
			Relation:  r.relation,
			Row:       r.row,
			Column:    schema[r.relation][i],
			Err:       err,
		}
	}
}

func (r *rowReader) token(i int) int64 {
	v, err := parseToken(r.str(i))
	if err != nil {
		r.fail(i, err)
	}
	return v
}

func (r *rowReader) optionalToken(i int) *int64 {
	if r.absent(i) {
		return nil
	}
	v := r.token(i)
	return &v
}

func (r *rowReader) float(i int) *float64 {
	if r.absent(i) {
		return nil
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(r.str(i)), 64)
	if err != nil {
		r.fail(i, fmt.Errorf("%w: %q", ErrInvalidNumber, r.str(i)))
		return nil
	}
	return &v
}

// parseToken 接受整数或整数值的浮点文本（"12.0"）
func parseToken(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("%w: empty", ErrInvalidToken)
	}
	if v, err := strconv.ParseInt(s, 10, 64); err == nil {
		return v, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) || math.Abs(f) > 1<<53 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidToken, s)
	}
	return int64(f), nil
}

func rows(partition string, rel *Relation, fn func(r *rowReader)) error {
	for i, fields := range rel.Rows {
		r := &rowReader{partition: partition, relation: rel.Name, row: i + 1, fields: fields}
		fn(r)
		if r.err != nil {
			return r.err
		}
	}
	return nil
}

func decodeRides(partition string, rel *Relation) ([]models.RideRow, error) {
	out := make([]models.RideRow, 0, len(rel.Rows))
	err := rows(partition, rel, func(r *rowReader) {
		out = append(out, models.RideRow{Token: r.token(0), Name: r.str(1)})
	})
	return out, err
}

func decodeScenes(partition string, rel *Relation) ([]models.SceneRow, error) {
	out := make([]models.SceneRow, 0, len(rel.Rows))
	err := rows(partition, rel, func(r *rowReader) {
		out = append(out, models.SceneRow{Token: r.token(0), RideToken: r.token(1), DirName: r.str(2)})
	})
	return out, err
}

func decodeSamples(partition string, rel *Relation) ([]models.SampleRow, error) {
	out := make([]models.SampleRow, 0, len(rel.Rows))
	err := rows(partition, rel, func(r *rowReader) {
		if r.absent(1) {
			return
		}
		out = append(out, models.SampleRow{
			Token:           r.token(0),
			SceneToken:      r.token(1),
			Timestamp:       r.str(2),
			PrevSampleToken: r.optionalToken(3),
		})
	})
	return out, err
}

func decodeSensors(partition string, rel *Relation) ([]models.SensorRow, error) {
	out := make([]models.SensorRow, 0, len(rel.Rows))
	err := rows(partition, rel, func(r *rowReader) {
		if r.absent(2) {
			return
		}
		out = append(out, models.SensorRow{
			Token:                r.token(0),
			Timestamp:            r.str(1),
			SampleToken:          r.token(2),
			SceneToken:           r.token(3),
			MeasurementType:      r.str(4),
			CalibratedSensorName: r.str(5),
			SensorDataType:       r.str(6),
		})
	})
	return out, err
}

func decodeGPS(partition string, rel *Relation) ([]models.GPSRow, error) {
	out := make([]models.GPSRow, 0, len(rel.Rows))
	err := rows(partition, rel, func(r *rowReader) {
		if r.absent(0) {
			return
		}
		out = append(out, models.GPSRow{
			Token:  r.token(0),
			Lat:    r.float(1),
			Lon:    r.float(2),
			Hgt:    r.float(3),
			LatStd: r.float(4),
			LonStd: r.float(5),
			HgtStd: r.float(6),
		})
	})
	return out, err
}
