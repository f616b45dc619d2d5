package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleSpaces() []SpaceNode {
	return []SpaceNode{
		{ID: "B1", Name: "HQ", Kind: SpaceBuilding},
		{ID: "F3", Name: "Floor 3", Kind: "Floor", ParentID: "B1", Level: 3},
		{ID: "Z-3A", Name: "Marketing Zone", Kind: SpaceZone, ParentID: "F3", Team: "marketing"},
		{ID: "A-1", Name: "Open Plan", Kind: SpaceArea, ParentID: "Z-3A", Capacity: 20},
		{ID: "A-2", Name: "Focus Room", Kind: SpaceArea, ParentID: "F3", Capacity: 4},
	}
}

func TestNewHierarchy(t *testing.T) {
	h, err := NewHierarchy(sampleSpaces())
	require.NoError(t, err)

	floor, ok := h.FloorOf("A-1")
	assert.True(t, ok)
	assert.Equal(t, 3, floor)

	zone, ok := h.ZoneOf("A-1")
	assert.True(t, ok)
	assert.Equal(t, "Z-3A", zone)

	// 区域可以直接挂在楼层下
	_, ok = h.ZoneOf("A-2")
	assert.False(t, ok)

	node, ok := h.Node("F3")
	require.True(t, ok)
	assert.Equal(t, SpaceFloor, node.Kind)

	areas := h.Children("F3", SpaceArea)
	require.Len(t, areas, 2)
	assert.Equal(t, "A-1", areas[0].ID)
	assert.Len(t, h.Children("B1", SpaceZone), 1)

	assert.Len(t, h.Nodes(), 5)
}

func TestNewHierarchy_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func([]SpaceNode) []SpaceNode
		wantErr string
	}{
		{
			name:    "empty id",
			mutate:  func(n []SpaceNode) []SpaceNode { n[3].ID = ""; return n },
			wantErr: "empty id",
		},
		{
			name:    "unknown type",
			mutate:  func(n []SpaceNode) []SpaceNode { n[3].Kind = "room"; return n },
			wantErr: "unknown type",
		},
		{
			name:    "duplicate",
			mutate:  func(n []SpaceNode) []SpaceNode { n[4].ID = "A-1"; return n },
			wantErr: "duplicate space id A-1",
		},
		{
			name:    "unknown parent",
			mutate:  func(n []SpaceNode) []SpaceNode { n[3].ParentID = "Z-404"; return n },
			wantErr: "unknown parent Z-404",
		},
		{
			name:    "orphan floor",
			mutate:  func(n []SpaceNode) []SpaceNode { n[1].ParentID = ""; return n },
			wantErr: "not a building",
		},
		{
			name:    "building with parent",
			mutate:  func(n []SpaceNode) []SpaceNode { n[0].ParentID = "F3"; return n },
			wantErr: "must not have a parent",
		},
		{
			name: "cycle",
			mutate: func(n []SpaceNode) []SpaceNode {
				n[1].ParentID = "Z-3A"
				return n
			},
			wantErr: "cycle",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewHierarchy(tt.mutate(sampleSpaces()))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestNewSnapshot(t *testing.T) {
	h, err := NewHierarchy(sampleSpaces())
	require.NoError(t, err)

	older := time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)
	newer := older.Add(time.Hour)
	p30, p60 := 30.0, 60.0

	s, err := NewSnapshot(h,
		[]Desk{{ID: "d1", Type: "Standing Desk", AreaID: "A-1", Status: StatusAvailable}},
		[]OccupancyRecord{
			{AreaID: "A-1", Percent: &p60, Timestamp: newer},
			{AreaID: "A-1", Percent: &p30, Timestamp: older},
		},
		[]ForecastRecord{{AreaID: "A-1", Bucket: "Tomorrow Afternoon", Percent: 85}},
		nil)
	require.NoError(t, err)

	d := s.Desks[0]
	assert.Equal(t, DeskStanding, d.Type)
	assert.Equal(t, 3, d.Floor)
	assert.Equal(t, "Z-3A", d.ZoneID)

	rec, ok := s.CurrentOccupancy("A-1")
	require.True(t, ok)
	assert.Equal(t, 60.0, *rec.Percent)

	v, ok := s.Forecast("A-1", "tomorrow  afternoon")
	assert.True(t, ok)
	assert.Equal(t, 85.0, v)
	_, ok = s.Forecast("A-1", "tomorrow morning")
	assert.False(t, ok)

	assert.Equal(t, 20, s.AreaCapacity("A-1"))
	assert.Equal(t, 0, s.AreaCapacity("A-404"))
}

func TestNewSnapshot_Invalid(t *testing.T) {
	h, err := NewHierarchy(sampleSpaces())
	require.NoError(t, err)

	_, err = NewSnapshot(nil, nil, nil, nil, nil)
	assert.ErrorIs(t, err, ErrDataAccess)

	_, err = NewSnapshot(h, []Desk{{ID: "d1"}, {ID: "d1"}}, nil, nil, nil)
	assert.ErrorIs(t, err, ErrDataAccess)

	_, err = NewSnapshot(h, []Desk{{AreaID: "A-1"}}, nil, nil, nil)
	assert.ErrorIs(t, err, ErrDataAccess)
}

func TestOccupancyRecord_Percentage(t *testing.T) {
	p := 42.0
	v, ok := OccupancyRecord{Percent: &p}.Percentage(0)
	assert.True(t, ok)
	assert.Equal(t, 42.0, v)

	v, ok = OccupancyRecord{Count: 3}.Percentage(4)
	assert.True(t, ok)
	assert.Equal(t, 75.0, v)

	_, ok = OccupancyRecord{Count: 3}.Percentage(0)
	assert.False(t, ok)
}

func TestDeskStatus_UsableFor(t *testing.T) {
	now := TimeWindow{Label: "now"}
	later := TimeWindow{Label: "tomorrow afternoon"}

	assert.True(t, StatusAvailable.UsableFor(now))
	assert.False(t, StatusOccupied.UsableFor(now))
	assert.True(t, StatusOccupied.UsableFor(later))
	assert.True(t, StatusReserved.UsableFor(later))
	assert.False(t, StatusMaintenance.UsableFor(later))
	assert.False(t, DeskStatus("broken").UsableFor(later))
	assert.False(t, DeskStatus("broken").Known())
}

func TestDesk_Features(t *testing.T) {
	d := Desk{Features: []string{"Dual Monitor", "ergonomic-chair"}}
	assert.Empty(t, d.MissingFeatures([]string{"dual-monitor"}))
	assert.Empty(t, d.MissingFeatures(nil))
	assert.Equal(t, []string{"window"}, d.MissingFeatures([]string{"ERGONOMIC CHAIR", "window"}))
}

func TestThresholdFromDescription(t *testing.T) {
	v, ok := ThresholdFromDescription("Areas exceeding 80% capacity should be avoided.")
	assert.True(t, ok)
	assert.Equal(t, 80.0, v)

	v, ok = ThresholdFromDescription("limit 62.5 %")
	assert.True(t, ok)
	assert.Equal(t, 62.5, v)

	_, ok = ThresholdFromDescription("no limit")
	assert.False(t, ok)
}
