package inventory

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/yourusername/workspace-advisor/pkg/models"
)

// 数据文件的磁盘格式，兼容原型的JSON布局

type spacesFile struct {
	Spaces []spaceRecord `json:"spaces" yaml:"spaces"`
}

type spaceRecord struct {
	ID       string `json:"id" yaml:"id"`
	Name     string `json:"name" yaml:"name"`
	Type     string `json:"type" yaml:"type"`
	ParentID string `json:"parent_id" yaml:"parent_id"`
	Capacity int    `json:"capacity" yaml:"capacity"`
	Level    *int   `json:"level" yaml:"level"`
	Team     string `json:"team" yaml:"team"`
}

type desksFile struct {
	Desks []deskRecord `json:"desks" yaml:"desks"`
}

type deskRecord struct {
	ID         string   `json:"id" yaml:"id"`
	Type       string   `json:"type" yaml:"type"`
	AreaID     string   `json:"area_id" yaml:"area_id"`
	SensorArea string   `json:"vergesense_area_id" yaml:"vergesense_area_id"`
	Floor      int      `json:"floor" yaml:"floor"`
	Zone       string   `json:"zone" yaml:"zone"`
	Features   []string `json:"features" yaml:"features"`
	Status     string   `json:"status" yaml:"status"`
	LastUsed   string   `json:"last_used" yaml:"last_used"`
	Location   string   `json:"location_description" yaml:"location_description"`
}

type occupancyFile struct {
	// current: {AREA: {count, percent, timestamp}}
	Current map[string]currentRecord `json:"current" yaml:"current"`

	// forecast: {AREA: {next_day: {afternoon: 85}}}
	Forecast map[string]map[string]map[string]float64 `json:"forecast" yaml:"forecast"`

	// 扁平格式
	Forecasts []forecastRecord `json:"forecasts" yaml:"forecasts"`
}

type currentRecord struct {
	Count     int      `json:"count" yaml:"count"`
	Percent   *float64 `json:"percent" yaml:"percent"`
	Timestamp string   `json:"timestamp" yaml:"timestamp"`
}

type forecastRecord struct {
	AreaID  string  `json:"area_id" yaml:"area_id"`
	Bucket  string  `json:"bucket" yaml:"bucket"`
	Percent float64 `json:"percent" yaml:"percent"`
}

type policiesFile struct {
	Policies []policyRecord `json:"policies" yaml:"policies"`
}

type policyRecord struct {
	ID          string   `json:"id" yaml:"id"`
	Name        string   `json:"name" yaml:"name"`
	Description string   `json:"description" yaml:"description"`
	Kind        string   `json:"kind" yaml:"kind"`
	ZoneID      string   `json:"zone_id" yaml:"zone_id"`
	Threshold   *float64 `json:"threshold_percent" yaml:"threshold_percent"`
	GapMinutes  int      `json:"gap_minutes" yaml:"gap_minutes"`
	Team        string   `json:"team" yaml:"team"`
	Zones       []string `json:"zones" yaml:"zones"`
}

// dayLabels 原型预测文件中的日期键
var dayLabels = map[string]string{
	"same_day": "today",
	"today":    "today",
	"next_day": "tomorrow",
	"tomorrow": "tomorrow",
}

func (f spacesFile) nodes() []models.SpaceNode {
	nodes := make([]models.SpaceNode, 0, len(f.Spaces))
	for _, s := range f.Spaces {
		node := models.SpaceNode{
			ID:       s.ID,
			Name:     s.Name,
			Kind:     models.SpaceKind(strings.ToLower(s.Type)),
			ParentID: s.ParentID,
			Capacity: s.Capacity,
			Team:     s.Team,
		}
		if node.Kind == models.SpaceFloor {
			if s.Level != nil {
				node.Level = *s.Level
			} else if level, err := models.ParseFloor(s.Name); err == nil {
				node.Level = level
			}
		}
		nodes = append(nodes, node)
	}
	return nodes
}

func (f desksFile) desks() ([]models.Desk, map[string]string, error) {
	desks := make([]models.Desk, 0, len(f.Desks))
	sensorAlias := make(map[string]string)
	for _, d := range f.Desks {
		area := d.AreaID
		if area == "" {
			area = d.SensorArea
		}
		if d.SensorArea != "" && d.SensorArea != area {
			sensorAlias[d.SensorArea] = area
		}

		desk := models.Desk{
			ID:       d.ID,
			Type:     models.NormalizeDeskType(d.Type),
			AreaID:   area,
			Floor:    d.Floor,
			Features: d.Features,
			Status:   models.DeskStatus(strings.ToLower(strings.TrimSpace(d.Status))),
			Location: d.Location,
		}
		if d.LastUsed != "" {
			ts, err := time.Parse(time.RFC3339, d.LastUsed)
			if err != nil {
				return nil, nil, fmt.Errorf("desk %s: invalid last_used %q: %w", d.ID, d.LastUsed, err)
			}
			desk.LastUsed = &ts
		}
		desks = append(desks, desk)
	}
	return desks, sensorAlias, nil
}

func (f occupancyFile) records(alias map[string]string) ([]models.OccupancyRecord, []models.ForecastRecord, error) {
	resolve := func(area string) string {
		if mapped, ok := alias[area]; ok {
			return mapped
		}
		return area
	}

	current := make([]models.OccupancyRecord, 0, len(f.Current))
	for _, area := range sortedMapKeys(f.Current) {
		c := f.Current[area]
		rec := models.OccupancyRecord{AreaID: resolve(area), Count: c.Count, Percent: c.Percent}
		if c.Timestamp != "" {
			ts, err := time.Parse(time.RFC3339, c.Timestamp)
			if err != nil {
				return nil, nil, fmt.Errorf("occupancy for %s: invalid timestamp %q: %w", area, c.Timestamp, err)
			}
			rec.Timestamp = ts
		}
		current = append(current, rec)
	}

	var forecasts []models.ForecastRecord
	for _, area := range sortedMapKeys(f.Forecast) {
		days := f.Forecast[area]
		for _, day := range sortedMapKeys(days) {
			dayLabel, ok := dayLabels[day]
			if !ok {
				dayLabel = strings.ReplaceAll(day, "_", " ")
			}
			periods := days[day]
			for _, period := range sortedMapKeys(periods) {
				forecasts = append(forecasts, models.ForecastRecord{
					AreaID:  resolve(area),
					Bucket:  models.NormalizeBucket(dayLabel + " " + strings.ReplaceAll(period, "_", " ")),
					Percent: periods[period],
				})
			}
		}
	}
	for _, r := range f.Forecasts {
		forecasts = append(forecasts, models.ForecastRecord{
			AreaID:  resolve(r.AreaID),
			Bucket:  models.NormalizeBucket(r.Bucket),
			Percent: r.Percent,
		})
	}

	return current, forecasts, nil
}

func (f policiesFile) policies() []models.Policy {
	out := make([]models.Policy, 0, len(f.Policies))
	for _, p := range f.Policies {
		out = append(out, models.Policy{
			ID:          p.ID,
			Name:        p.Name,
			Description: p.Description,
			Kind:        inferKind(p),
			ZoneID:      p.ZoneID,
			Threshold:   p.Threshold,
			GapMinutes:  p.GapMinutes,
			Team:        p.Team,
			Zones:       p.Zones,
		})
	}
	return out
}

// inferKind 原型策略文件只有描述文本，据此推断类型
func inferKind(p policyRecord) models.PolicyKind {
	if p.Kind != "" {
		return models.PolicyKind(strings.ToLower(p.Kind))
	}
	text := strings.ToLower(p.Name + " " + p.Description)
	switch {
	case strings.Contains(text, "sanitiz") || strings.Contains(text, "cleaning"):
		return models.PolicySanitizationGap
	case strings.Contains(text, "capacity") || strings.Contains(text, "occupancy"):
		return models.PolicyCapacityLimit
	case strings.Contains(text, "team") && len(p.Zones) > 0:
		return models.PolicyTeamZoning
	}
	return models.PolicyKind("unknown")
}

func sortedMapKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
