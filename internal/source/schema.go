package source

import (
	"errors"
	"fmt"
)

// 关系名（CSV 文件名去掉扩展名，也是 SQLite 表名）
const (
	RelRides   = "rides"
	RelScenes  = "scenes"
	RelSamples = "samples"
	RelSensors = "sensor_data"
	RelGPS     = "gps_data"
)

// 各关系的列，按位置读取
var schema = map[string][]string{
	RelRides:   {"token", "name"},
	RelScenes:  {"token", "ride_token", "dir_name"},
	RelSamples: {"token", "scene_token", "timestamp", "prev_sample_token"},
	RelSensors: {"token", "timestamp", "sample_token", "scene_token", "measurement_type", "calibrated_sensor_name", "sensor_data_type"},
	RelGPS:     {"token", "lat", "lon", "hgt", "lat_std", "lon_std", "hgt_std"},
}

var relations = []string{RelRides, RelScenes, RelSamples, RelSensors, RelGPS}

// Columns 返回关系的列定义
func Columns(relation string) []string {
	return schema[relation]
}

var (
	// ErrMissingColumn 关系缺少必需列
	ErrMissingColumn = errors.New("missing required column")
	// ErrInvalidToken token 字段无法转换为整数
	ErrInvalidToken = errors.New("invalid token")
	// ErrInvalidNumber 数值字段无法解析
	ErrInvalidNumber = errors.New("invalid number")
)

// LoadError 分区加载失败，整个构建中止
type LoadError struct {
	Partition string
	Relation  string
	Row       int // 数据行号，从 1 开始；0 表示表头
	Column    string
	Err       error
}

func (e *LoadError) Error() string {
	if e.Row > 0 {
		return fmt.Sprintf("%s/%s row %d column %s: %v", e.Partition, e.Relation, e.Row, e.Column, e.Err)
	}
	if e.Column != "" {
		return fmt.Sprintf("%s/%s column %s: %v", e.Partition, e.Relation, e.Column, e.Err)
	}
	return fmt.Sprintf("%s/%s: %v", e.Partition, e.Relation, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// Relation 原始字符串表，空字符串表示缺失值
type Relation struct {
	Name   string
	Header []string
	Rows   [][]string
}

// RawTables 单个分区的五张原始表
type RawTables map[string]*Relation
