package models

import (
	"errors"
	"fmt"
)

// ErrDataAccess 数据源缺失或不可读，请求无法继续
var ErrDataAccess = errors.New("data access failure")

// Snapshot 单次请求使用的只读数据快照
type Snapshot struct {
	Hierarchy *Hierarchy        `json:"-"`
	Desks     []Desk            `json:"desks"`
	Occupancy []OccupancyRecord `json:"occupancy"`
	Forecasts []ForecastRecord  `json:"forecasts"`
	Policies  []Policy          `json:"policies"`

	occupancyByArea map[string]OccupancyRecord
	forecastByArea  map[string]map[string]float64
}

// NewSnapshot 组装快照并根据层级推导工位的楼层与分区
func NewSnapshot(h *Hierarchy, desks []Desk, occupancy []OccupancyRecord, forecasts []ForecastRecord, policies []Policy) (*Snapshot, error) {
	if h == nil {
		return nil, fmt.Errorf("%w: spatial hierarchy is missing", ErrDataAccess)
	}

	s := &Snapshot{
		Hierarchy:       h,
		Desks:           make([]Desk, 0, len(desks)),
		Occupancy:       append([]OccupancyRecord(nil), occupancy...),
		Forecasts:       make([]ForecastRecord, 0, len(forecasts)),
		Policies:        append([]Policy(nil), policies...),
		occupancyByArea: make(map[string]OccupancyRecord, len(occupancy)),
		forecastByArea:  make(map[string]map[string]float64),
	}

	seen := make(map[string]struct{}, len(desks))
	for _, desk := range desks {
		if desk.ID == "" {
			return nil, fmt.Errorf("%w: desk with empty id", ErrDataAccess)
		}
		if _, dup := seen[desk.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate desk id %s", ErrDataAccess, desk.ID)
		}
		seen[desk.ID] = struct{}{}

		desk.Type = NormalizeDeskType(string(desk.Type))
		desk.Features = append([]string(nil), desk.Features...)
		if floor, ok := h.FloorOf(desk.AreaID); ok {
			desk.Floor = floor
		}
		if zone, ok := h.ZoneOf(desk.AreaID); ok {
			desk.ZoneID = zone
		}
		s.Desks = append(s.Desks, desk)
	}

	// 同一区域取时间戳最新的记录
	for _, rec := range s.Occupancy {
		if prev, ok := s.occupancyByArea[rec.AreaID]; ok && prev.Timestamp.After(rec.Timestamp) {
			continue
		}
		s.occupancyByArea[rec.AreaID] = rec
	}

	for _, f := range forecasts {
		f.Bucket = NormalizeBucket(f.Bucket)
		s.Forecasts = append(s.Forecasts, f)
		buckets, ok := s.forecastByArea[f.AreaID]
		if !ok {
			buckets = make(map[string]float64)
			s.forecastByArea[f.AreaID] = buckets
		}
		buckets[f.Bucket] = f.Percent
	}

	return s, nil
}

// CurrentOccupancy 区域当前占用记录
func (s *Snapshot) CurrentOccupancy(areaID string) (OccupancyRecord, bool) {
	rec, ok := s.occupancyByArea[areaID]
	return rec, ok
}

// Forecast 区域在指定时间段的预测占用百分比
func (s *Snapshot) Forecast(areaID, bucket string) (float64, bool) {
	v, ok := s.forecastByArea[areaID][NormalizeBucket(bucket)]
	return v, ok
}

// AreaCapacity 区域容量，未知时返回0
func (s *Snapshot) AreaCapacity(areaID string) int {
	node, ok := s.Hierarchy.Node(areaID)
	if !ok {
		return 0
	}
	return node.Capacity
}
