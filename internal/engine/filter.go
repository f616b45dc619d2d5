package engine

import (
	"fmt"
	"sort"
	"strings"

	"github.com/yourusername/workspace-advisor/pkg/models"
)

// Filter 按显式条件筛选工位（AND语义），保持库存顺序。
// 每个被排除的工位都会写入一条跟踪记录；结果为空是正常终态。
func Filter(snapshot *models.Snapshot, criteria models.Criteria, policies *PolicyResolver, trace *models.Trace) []models.Desk {
	trace.Info(models.StageFilter, "", "starting with %d total desks", len(snapshot.Desks))

	var affinityAreas map[string]struct{}
	switch criteria.Affinity.Kind {
	case models.AffinityMarketing:
		zones := teamZoneSet(snapshot.Hierarchy, policies, criteria.Affinity.Team())
		if len(zones) == 0 {
			trace.Warn(models.StageFilter, "", "no zone is assigned to the %s team, affinity %q cannot be satisfied",
				criteria.Affinity.Team(), criteria.Affinity.String())
		} else {
			trace.Info(models.StageFilter, "", "affinity %q resolves to zones %s",
				criteria.Affinity.String(), strings.Join(sortedKeys(zones), ", "))
		}
		affinityAreas = make(map[string]struct{})
		for _, area := range snapshot.Hierarchy.Nodes() {
			if area.Kind != models.SpaceArea {
				continue
			}
			if zone, ok := snapshot.Hierarchy.ZoneOf(area.ID); ok {
				if _, match := zones[zone]; match {
					affinityAreas[area.ID] = struct{}{}
				}
			}
		}
	case models.AffinityUnrecognized:
		trace.Info(models.StageFilter, "", "proximity %q is not a recognized affinity, ignoring it", criteria.Affinity.Raw)
	}

	matched := make([]models.Desk, 0, len(snapshot.Desks))
	for _, desk := range snapshot.Desks {
		if reason, ok := matchDesk(desk, criteria, affinityAreas); !ok {
			trace.Info(models.StageFilter, desk.ID, "desk %s excluded: %s", desk.ID, reason)
			continue
		}
		matched = append(matched, desk)
	}

	trace.Info(models.StageFilter, "", "%d of %d desks match the criteria", len(matched), len(snapshot.Desks))
	return matched
}

// matchDesk 返回第一个不满足的条件
func matchDesk(desk models.Desk, criteria models.Criteria, affinityAreas map[string]struct{}) (string, bool) {
	if criteria.TypeConstrained() && desk.Type != criteria.DeskType {
		return fmt.Sprintf("type mismatch (want %s, have %s)", criteria.DeskType, desk.Type), false
	}

	if criteria.Floor != nil && desk.Floor != *criteria.Floor {
		return fmt.Sprintf("floor mismatch (want %d, have %d)", *criteria.Floor, desk.Floor), false
	}

	if affinityAreas != nil {
		if _, ok := affinityAreas[desk.AreaID]; !ok {
			return fmt.Sprintf("outside the requested affinity zones (area %s)", desk.AreaID), false
		}
	}

	if missing := desk.MissingFeatures(criteria.Features); len(missing) > 0 {
		return fmt.Sprintf("missing features %s", strings.Join(missing, ", ")), false
	}

	return "", true
}

// teamZoneSet 收集属于某团队的分区：分区标签、完整名称（"<team>" 或 "<team> zone"）或团队分区策略
func teamZoneSet(h *models.Hierarchy, policies *PolicyResolver, team string) map[string]struct{} {
	zones := make(map[string]struct{})
	if team == "" {
		return zones
	}

	for _, node := range h.Nodes() {
		if node.Kind != models.SpaceZone {
			continue
		}
		if models.NormalizeTeam(node.Team) == team || zoneNamedFor(node.Name, team) {
			zones[node.ID] = struct{}{}
		}
	}

	for _, id := range policies.TeamZones(team) {
		if node, ok := h.Node(id); ok && node.Kind == models.SpaceZone {
			zones[id] = struct{}{}
		}
	}

	return zones
}

// zoneNamedFor 分区名整体匹配团队名，"Non-Marketing Overflow" 不算 marketing 分区
func zoneNamedFor(name, team string) bool {
	name = strings.Join(strings.Fields(strings.ToLower(name)), " ")
	return name == team || name == team+" zone"
}

func sortedKeys(set map[string]struct{}) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
