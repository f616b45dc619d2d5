package models

import (
	"strings"
	"time"
)

// OccupancyRecord 区域当前占用
type OccupancyRecord struct {
	AreaID    string    `json:"area_id" yaml:"area_id"`
	Count     int       `json:"count,omitempty" yaml:"count,omitempty"`
	Percent   *float64  `json:"percent,omitempty" yaml:"percent,omitempty"`
	Timestamp time.Time `json:"timestamp" yaml:"timestamp"`
}

// Percentage 解析占用百分比：优先使用Percent，否则按 Count/capacity 计算
func (r OccupancyRecord) Percentage(capacity int) (float64, bool) {
	if r.Percent != nil {
		return *r.Percent, true
	}
	if capacity > 0 {
		return float64(r.Count) / float64(capacity) * 100, true
	}
	return 0, false
}

// ForecastRecord 区域占用预测
type ForecastRecord struct {
	AreaID  string  `json:"area_id" yaml:"area_id"`
	Bucket  string  `json:"bucket" yaml:"bucket"`
	Percent float64 `json:"percent" yaml:"percent"`
}

// NormalizeBucket 统一时间段标签：小写、单空格
func NormalizeBucket(label string) string {
	return strings.Join(strings.Fields(strings.ToLower(label)), " ")
}
