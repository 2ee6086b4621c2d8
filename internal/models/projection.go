package models

// RideSummary 骑行列表项
type RideSummary struct {
	Token          int64    `json:"token"`
	Name           string   `json:"name"`
	DirectoryToken int      `json:"directory_token"`
	Duration       *float64 `json:"duration"`
	Date           string   `json:"date"`
	Time           string   `json:"time"`
	Distance       *float64 `json:"distance"`
	NumScenes      int      `json:"num_scenes"`
	NumSamples     int      `json:"num_samples"`
}

// GPSPoint 全量 GPS 点，高度作为热力图密度
type GPSPoint struct {
	Latitude  float64 `json:"Latitude"`
	Longitude float64 `json:"Longitude"`
	Density   float64 `json:"Density"`
}

// Bounds 轨迹外接矩形及中心点（度）
type Bounds struct {
	MinLat    float64 `json:"min_lat"`
	MinLon    float64 `json:"min_lon"`
	MaxLat    float64 `json:"max_lat"`
	MaxLon    float64 `json:"max_lon"`
	CenterLat float64 `json:"center_lat"`
	CenterLon float64 `json:"center_lon"`
}

// RideDetail 单次骑行详情
type RideDetail struct {
	Name           string       `json:"name"`
	Duration       *float64     `json:"duration"`
	Date           string       `json:"date"`
	Time           string       `json:"time"`
	Distance       *float64     `json:"distance"`
	NumScenes      int          `json:"num_scenes"`
	NumSamples     int          `json:"num_samples"`
	GPSCoordinates [][2]float64 `json:"gps_coordinates"`
	GPSHeatmapData [][2]float64 `json:"gps_heatmap_data"`
	Bounds         *Bounds      `json:"bounds,omitempty"`
}

// DateCount 每日骑行次数
type DateCount struct {
	Date  string `json:"date"`
	Rides int    `json:"rides"`
}

// Overview 仪表盘总览统计
type Overview struct {
	NumRides              int         `json:"num_rides"`
	NumScenes             int         `json:"num_scenes"`
	NumSamples            int         `json:"num_samples"`
	TotalDurationMin      float64     `json:"total_duration_min"`
	TotalDistanceKm       float64     `json:"total_distance_km"`
	AvgScenesPerRide      float64     `json:"avg_scenes_per_ride"`
	AvgSamplesPerRide     float64     `json:"avg_samples_per_ride"`
	AvgDistancePerRideKm  float64     `json:"avg_distance_per_ride_km"`
	AvgDurationPerRideMin float64     `json:"avg_duration_per_ride_min"`
	RidesPerDate          []DateCount `json:"rides_per_date"`
}
