package models

import (
	"regexp"
	"strconv"
	"strings"
)

// PolicyKind 策略类型
type PolicyKind string

const (
	PolicyCapacityLimit   PolicyKind = "capacity_limit"
	PolicySanitizationGap PolicyKind = "sanitization_gap"
	PolicyTeamZoning      PolicyKind = "team_zoning"
)

// Policy 组织策略（只读配置）
type Policy struct {
	ID          string     `json:"id" yaml:"id"`
	Name        string     `json:"name,omitempty" yaml:"name,omitempty"`
	Description string     `json:"description,omitempty" yaml:"description,omitempty"`
	Kind        PolicyKind `json:"kind" yaml:"kind"`

	// 为空表示全局策略
	ZoneID string `json:"zone_id,omitempty" yaml:"zone_id,omitempty"`

	Threshold  *float64 `json:"threshold_percent,omitempty" yaml:"threshold_percent,omitempty"`
	GapMinutes int      `json:"gap_minutes,omitempty" yaml:"gap_minutes,omitempty"`

	// 团队分区
	Team  string   `json:"team,omitempty" yaml:"team,omitempty"`
	Zones []string `json:"zones,omitempty" yaml:"zones,omitempty"`
}

// Global 是否为全局策略
func (p Policy) Global() bool {
	return p.ZoneID == ""
}

var percentPattern = regexp.MustCompile(`(\d+(?:\.\d+)?)\s*%`)

// ThresholdFromDescription 从描述文本中提取百分比阈值，如 "... exceeds 80% ..."
func ThresholdFromDescription(desc string) (float64, bool) {
	m := percentPattern.FindStringSubmatch(desc)
	if m == nil {
		return 0, false
	}
	v, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// NormalizeTeam 团队名统一为小写
func NormalizeTeam(team string) string {
	return strings.ToLower(strings.TrimSpace(team))
}
