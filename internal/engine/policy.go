package engine

import (
	"fmt"
	"time"

	"github.com/yourusername/workspace-advisor/pkg/models"
)

// DefaultCapacityThreshold 未配置容量策略时使用的阈值（百分比）
const DefaultCapacityThreshold = 80.0

// CapacityLimit 解析后的容量阈值及其来源
type CapacityLimit struct {
	Threshold float64
	PolicyID  string
	Scope     string
}

func (l CapacityLimit) String() string {
	if l.PolicyID == "" {
		return fmt.Sprintf("%.0f%% (default)", l.Threshold)
	}
	return fmt.Sprintf("%.0f%% (%s, %s)", l.Threshold, l.PolicyID, l.Scope)
}

// SanitizationGap 解析后的消毒间隔
type SanitizationGap struct {
	Gap      time.Duration
	PolicyID string
}

// PolicyResolver 两级策略查找：分区策略覆盖全局策略
type PolicyResolver struct {
	defaultThreshold float64

	capacityGlobal *CapacityLimit
	capacityZone   map[string]CapacityLimit

	gapGlobal *SanitizationGap
	gapZone   map[string]SanitizationGap

	teamZones map[string][]string

	warnings []string
}

// NewPolicyResolver 构建策略解析器；同一作用域出现多条策略时取第一条
func NewPolicyResolver(policies []models.Policy, defaultThreshold float64) *PolicyResolver {
	if defaultThreshold <= 0 {
		defaultThreshold = DefaultCapacityThreshold
	}

	r := &PolicyResolver{
		defaultThreshold: defaultThreshold,
		capacityZone:     make(map[string]CapacityLimit),
		gapZone:          make(map[string]SanitizationGap),
		teamZones:        make(map[string][]string),
	}

	for _, p := range policies {
		switch p.Kind {
		case models.PolicyCapacityLimit:
			r.addCapacity(p)
		case models.PolicySanitizationGap:
			r.addGap(p)
		case models.PolicyTeamZoning:
			team := models.NormalizeTeam(p.Team)
			if team == "" {
				r.warnings = append(r.warnings, fmt.Sprintf("policy %s: team zoning without team, ignored", p.ID))
				continue
			}
			r.teamZones[team] = append(r.teamZones[team], p.Zones...)
		default:
			r.warnings = append(r.warnings, fmt.Sprintf("policy %s: kind %q not evaluated", p.ID, p.Kind))
		}
	}

	return r
}

func (r *PolicyResolver) addCapacity(p models.Policy) {
	var (
		threshold float64
		ok        bool
	)
	if p.Threshold != nil {
		threshold, ok = *p.Threshold, true
	} else {
		threshold, ok = models.ThresholdFromDescription(p.Description)
	}
	if !ok || threshold <= 0 {
		r.warnings = append(r.warnings, fmt.Sprintf("policy %s: capacity limit without usable threshold, ignored", p.ID))
		return
	}

	if p.Global() {
		if r.capacityGlobal == nil {
			r.capacityGlobal = &CapacityLimit{Threshold: threshold, PolicyID: p.ID, Scope: "global"}
		}
		return
	}
	if _, exists := r.capacityZone[p.ZoneID]; !exists {
		r.capacityZone[p.ZoneID] = CapacityLimit{Threshold: threshold, PolicyID: p.ID, Scope: "zone " + p.ZoneID}
	}
}

func (r *PolicyResolver) addGap(p models.Policy) {
	if p.GapMinutes <= 0 {
		r.warnings = append(r.warnings, fmt.Sprintf("policy %s: sanitization gap without minutes, ignored", p.ID))
		return
	}
	gap := SanitizationGap{Gap: time.Duration(p.GapMinutes) * time.Minute, PolicyID: p.ID}
	if p.Global() {
		if r.gapGlobal == nil {
			r.gapGlobal = &gap
		}
		return
	}
	if _, exists := r.gapZone[p.ZoneID]; !exists {
		r.gapZone[p.ZoneID] = gap
	}
}

// Capacity resolve(zone) -> 全局 -> 默认阈值
func (r *PolicyResolver) Capacity(zoneID string) CapacityLimit {
	if zoneID != "" {
		if limit, ok := r.capacityZone[zoneID]; ok {
			return limit
		}
	}
	if r.capacityGlobal != nil {
		return *r.capacityGlobal
	}
	return CapacityLimit{Threshold: r.defaultThreshold}
}

// Sanitization resolve(zone) -> 全局；都没有时返回false
func (r *PolicyResolver) Sanitization(zoneID string) (SanitizationGap, bool) {
	if zoneID != "" {
		if gap, ok := r.gapZone[zoneID]; ok {
			return gap, true
		}
	}
	if r.gapGlobal != nil {
		return *r.gapGlobal, true
	}
	return SanitizationGap{}, false
}

// TeamZones 团队分区策略指定的分区
func (r *PolicyResolver) TeamZones(team string) []string {
	return r.teamZones[models.NormalizeTeam(team)]
}

// Warnings 加载策略时产生的警告
func (r *PolicyResolver) Warnings() []string {
	return r.warnings
}
