package models

import (
	"strings"
	"time"
)

// DeskType 工位类型
type DeskType string

const (
	DeskStanding DeskType = "standing"
	DeskSitting  DeskType = "sitting"
	DeskShared   DeskType = "shared"
	DeskRegular  DeskType = "regular"

	// DeskAny 表示不限制类型
	DeskAny DeskType = "any"
)

// NormalizeDeskType 统一大小写并去掉 "desk" 后缀，如 "Standing Desk" -> standing
func NormalizeDeskType(s string) DeskType {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.TrimSuffix(s, " desks")
	s = strings.TrimSuffix(s, " desk")
	return DeskType(strings.TrimSpace(s))
}

// DeskStatus 工位状态
type DeskStatus string

const (
	StatusAvailable   DeskStatus = "available"
	StatusOccupied    DeskStatus = "occupied"
	StatusMaintenance DeskStatus = "maintenance"
	StatusReserved    DeskStatus = "reserved"
)

// Known 是否为已知状态
func (s DeskStatus) Known() bool {
	switch s {
	case StatusAvailable, StatusOccupied, StatusMaintenance, StatusReserved:
		return true
	}
	return false
}

// UsableFor 判断该状态在给定时间窗口下是否可用。
// 维修与未知状态始终不可用；占用/预留只影响"当前"请求。
func (s DeskStatus) UsableFor(window TimeWindow) bool {
	switch s {
	case StatusAvailable:
		return true
	case StatusOccupied, StatusReserved:
		return !window.IsNow()
	default:
		return false
	}
}

// Desk 工位信息
type Desk struct {
	ID       string     `json:"id" yaml:"id"`
	Type     DeskType   `json:"type" yaml:"type"`
	AreaID   string     `json:"area_id" yaml:"area_id"`
	Floor    int        `json:"floor,omitempty" yaml:"floor,omitempty"`
	ZoneID   string     `json:"zone_id,omitempty" yaml:"zone_id,omitempty"`
	Features []string   `json:"features,omitempty" yaml:"features,omitempty"`
	Status   DeskStatus `json:"status" yaml:"status"`
	LastUsed *time.Time `json:"last_used,omitempty" yaml:"last_used,omitempty"`

	// 位置描述，仅用于展示
	Location string `json:"location_description,omitempty" yaml:"location_description,omitempty"`
}

// MissingFeatures 返回工位缺少的特性
func (d *Desk) MissingFeatures(required []string) []string {
	have := make(map[string]struct{}, len(d.Features))
	for _, f := range d.Features {
		have[normalizeFeature(f)] = struct{}{}
	}
	var missing []string
	for _, f := range required {
		if _, ok := have[normalizeFeature(f)]; !ok {
			missing = append(missing, f)
		}
	}
	return missing
}

func normalizeFeature(f string) string {
	f = strings.ToLower(strings.TrimSpace(f))
	return strings.ReplaceAll(f, " ", "-")
}
