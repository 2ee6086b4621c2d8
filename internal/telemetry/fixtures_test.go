package telemetry

import "github.com/langchou/ridegazer/internal/models"

func fp(v float64) *float64 { return &v }

func ip(v int64) *int64 { return &v }

// partition 构造一个包含两次骑行的分区：
// ride 1 "morning" 有两个场景，ride 2 "empty" 没有场景。
func partition() *models.PartitionTables {
	return &models.PartitionTables{
		Name: "mem",
		Rides: []models.RideRow{
			{Token: 1, Name: "morning"},
			{Token: 2, Name: "empty"},
		},
		Scenes: []models.SceneRow{
			{Token: 10, RideToken: 1, DirName: "scene-a"},
			{Token: 11, RideToken: 1, DirName: "scene-b"},
			{Token: 12, RideToken: 99, DirName: "orphan"},
		},
		Samples: []models.SampleRow{
			{Token: 100, SceneToken: 10, Timestamp: "2023-01-01 00:00:10.500000"},
			{Token: 101, SceneToken: 10, Timestamp: "2023-01-01 00:00:00.0", PrevSampleToken: ip(100)},
			{Token: 102, SceneToken: 11, Timestamp: "2023-01-01 00:00:05.25"},
			{Token: 103, SceneToken: 77, Timestamp: "2023-01-01 00:00:01.0"},
		},
		Sensors: []models.SensorRow{
			{Token: 1000, Timestamp: "2023-01-01 00:00:10.500000", SampleToken: 100, SceneToken: 10, MeasurementType: "gps"},
			{Token: 1001, Timestamp: "2023-01-01 00:00:00.000001", SampleToken: 101, SceneToken: 10, MeasurementType: "gps"},
			{Token: 1002, Timestamp: "2023-01-01 00:00:05.25", SampleToken: 102, SceneToken: 11, MeasurementType: "camera"},
			// sample 100 属于 scene 10，scene 11 下没有 sample 100
			{Token: 1003, Timestamp: "2023-01-01 00:00:05.25", SampleToken: 100, SceneToken: 11, MeasurementType: "gps"},
		},
		GPS: []models.GPSRow{
			{Token: 1000, Lat: fp(48.1), Lon: fp(11.5), Hgt: fp(520)},
			{Token: 1001, Lat: fp(0), Lon: fp(0), Hgt: fp(0)},
			{Token: 1003, Lat: fp(1), Lon: fp(1), Hgt: fp(1)},
		},
	}
}
