package models

// Ride 骑行记录（由若干场景组成）
type Ride struct {
	Token          int64    `json:"token"`
	Name           string   `json:"name"`
	DirectoryToken int      `json:"directory_token"` // 来源分区序号，token 仅在分区内唯一
	Scenes         []*Scene `json:"scenes"`

	// 以下字段由聚合阶段填充
	Duration   *float64 `json:"duration"` // 秒
	Date       string   `json:"date"`     // YYYY-MM-DD
	Time       string   `json:"time"`     // HH:MM:SS
	Distance   *float64 `json:"distance"` // km
	NumScenes  int      `json:"num_scenes"`
	NumSamples int      `json:"num_samples"`
}

// Scene 场景（骑行中的一段连续录制）
type Scene struct {
	Token     int64     `json:"token"`
	RideToken int64     `json:"ride_token"`
	DirName   string    `json:"dir_name"` // 仅用于溯源
	Samples   []*Sample `json:"samples"`
}

// Sample 采样帧，按源数据顺序排列，不保证时间有序
type Sample struct {
	Token           int64            `json:"token"`
	SceneToken      int64            `json:"scene_token"`
	Timestamp       string           `json:"timestamp"`
	PrevSampleToken *int64           `json:"prev_sample_token"`
	Sensors         []*SensorReading `json:"sensors"`
}

// SensorReading 传感器读数，GPS 字段来自左连接，缺失时为 nil
type SensorReading struct {
	Token                int64    `json:"token"`
	Timestamp            string   `json:"timestamp"`
	SampleToken          int64    `json:"sample_token"`
	SceneToken           int64    `json:"scene_token"`
	MeasurementType      string   `json:"measurement_type"`
	CalibratedSensorName string   `json:"calibrated_sensor_name"`
	SensorDataType       string   `json:"sensor_data_type"`
	Lat                  *float64 `json:"lat"`
	Lon                  *float64 `json:"lon"`
	Hgt                  *float64 `json:"hgt"`
	LatStd               *float64 `json:"lat_std"`
	LonStd               *float64 `json:"lon_std"`
	HgtStd               *float64 `json:"hgt_std"`
}

// HasGPSFix 经纬高均存在且不全为 0。(0,0,0) 视为"无定位"的哨兵值
func (s *SensorReading) HasGPSFix() bool {
	if s.Lat == nil || s.Lon == nil || s.Hgt == nil {
		return false
	}
	return *s.Lat != 0 || *s.Lon != 0 || *s.Hgt != 0
}

// Summary 去掉场景树后的骑行概要
func (r *Ride) Summary() RideSummary {
	return RideSummary{
		Token:          r.Token,
		Name:           r.Name,
		DirectoryToken: r.DirectoryToken,
		Duration:       r.Duration,
		Date:           r.Date,
		Time:           r.Time,
		Distance:       r.Distance,
		NumScenes:      r.NumScenes,
		NumSamples:     r.NumSamples,
	}
}

// ToMap 转为无类型的嵌套结构，用于导出 data.json
func (r *Ride) ToMap() map[string]any {
	scenes := make([]any, 0, len(r.Scenes))
	for _, scene := range r.Scenes {
		samples := make([]any, 0, len(scene.Samples))
		for _, sample := range scene.Samples {
			sensors := make([]any, 0, len(sample.Sensors))
			for _, s := range sample.Sensors {
				sensors = append(sensors, map[string]any{
					"token":                  s.Token,
					"timestamp":              s.Timestamp,
					"sample_token":           s.SampleToken,
					"scene_token":            s.SceneToken,
					"measurement_type":       s.MeasurementType,
					"calibrated_sensor_name": s.CalibratedSensorName,
					"sensor_data_type":       s.SensorDataType,
					"lat":                    floatOrNil(s.Lat),
					"lon":                    floatOrNil(s.Lon),
					"hgt":                    floatOrNil(s.Hgt),
					"lat_std":                floatOrNil(s.LatStd),
					"lon_std":                floatOrNil(s.LonStd),
					"hgt_std":                floatOrNil(s.HgtStd),
				})
			}
			var prev any
			if sample.PrevSampleToken != nil {
				prev = *sample.PrevSampleToken
			}
			samples = append(samples, map[string]any{
				"token":             sample.Token,
				"scene_token":       sample.SceneToken,
				"timestamp":         sample.Timestamp,
				"prev_sample_token": prev,
				"sensors":           sensors,
			})
		}
		scenes = append(scenes, map[string]any{
			"token":      scene.Token,
			"ride_token": scene.RideToken,
			"dir_name":   scene.DirName,
			"samples":    samples,
		})
	}

	return map[string]any{
		"token":           r.Token,
		"name":            r.Name,
		"directory_token": r.DirectoryToken,
		"scenes":          scenes,
		"duration":        floatOrNil(r.Duration),
		"date":            r.Date,
		"time":            r.Time,
		"distance":        floatOrNil(r.Distance),
		"num_scenes":      r.NumScenes,
		"num_samples":     r.NumSamples,
	}
}

func floatOrNil(v *float64) any {
	if v == nil {
		return nil
	}
	return *v
}
