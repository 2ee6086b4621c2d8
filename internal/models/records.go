package models

// 分区内五张关系表解析后的行结构。
// 可选列使用指针，nil 表示源数据为空。

// RideRow rides 表
type RideRow struct {
	Token int64
	Name  string
}

// SceneRow scenes 表
type SceneRow struct {
	Token     int64
	RideToken int64
	DirName   string
}

// SampleRow samples 表（scene_token 为空的行在解码时已丢弃）
type SampleRow struct {
	Token           int64
	SceneToken      int64
	Timestamp       string
	PrevSampleToken *int64
}

// SensorRow sensor_data 表（sample_token 为空的行在解码时已丢弃）
type SensorRow struct {
	Token                int64
	Timestamp            string
	SampleToken          int64
	SceneToken           int64
	MeasurementType      string
	CalibratedSensorName string
	SensorDataType       string
}

// GPSRow gps_data 表
type GPSRow struct {
	Token  int64
	Lat    *float64
	Lon    *float64
	Hgt    *float64
	LatStd *float64
	LonStd *float64
	HgtStd *float64
}

// PartitionTables 单个分区的全部关系
type PartitionTables struct {
	Name    string // 分区路径，仅用于日志和错误信息
	Rides   []RideRow
	Scenes  []SceneRow
	Samples []SampleRow
	Sensors []SensorRow
	GPS     []GPSRow
}
