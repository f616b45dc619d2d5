package engine

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/yourusername/workspace-advisor/pkg/models"
)

type fixture struct {
	spaces    []models.SpaceNode
	desks     []models.Desk
	occupancy []models.OccupancyRecord
	forecasts []models.ForecastRecord
	policies  []models.Policy
}

func pct(v float64) *float64 { return &v }

func intPtr(v int) *int { return &v }

// newFixture 两层楼：3楼有市场部分区与安静区，2楼为工程部分区
func newFixture() *fixture {
	return &fixture{
		spaces: []models.SpaceNode{
			{ID: "B1", Name: "HQ", Kind: models.SpaceBuilding},
			{ID: "F2", Name: "Floor 2", Kind: models.SpaceFloor, ParentID: "B1", Level: 2},
			{ID: "F3", Name: "Floor 3", Kind: models.SpaceFloor, ParentID: "B1", Level: 3},
			{ID: "Z-MKT", Name: "Marketing Zone", Kind: models.SpaceZone, ParentID: "F3"},
			{ID: "Z-Q", Name: "Quiet Zone", Kind: models.SpaceZone, ParentID: "F3"},
			{ID: "Z-ENG", Name: "Engineering Zone", Kind: models.SpaceZone, ParentID: "F2"},
			{ID: "A-M1", Name: "Marketing Open Plan", Kind: models.SpaceArea, ParentID: "Z-MKT", Capacity: 10},
			{ID: "A-Q1", Name: "Library", Kind: models.SpaceArea, ParentID: "Z-Q", Capacity: 10},
			{ID: "A-E1", Name: "Eng Pod", Kind: models.SpaceArea, ParentID: "Z-ENG", Capacity: 10},
		},
		desks: []models.Desk{
			{ID: "d1", Type: models.DeskStanding, AreaID: "A-M1", Features: []string{"dual-monitor"}, Status: models.StatusAvailable},
			{ID: "d2", Type: models.DeskSitting, AreaID: "A-E1", Status: models.StatusAvailable},
			{ID: "d3", Type: models.DeskStanding, AreaID: "A-M1", Status: models.StatusMaintenance},
			{ID: "d4", Type: models.DeskStanding, AreaID: "A-Q1", Status: models.StatusAvailable},
			{ID: "d5", Type: models.DeskStanding, AreaID: "A-E1", Features: []string{"dual-monitor", "ergonomic-chair"}, Status: models.StatusAvailable},
		},
		occupancy: []models.OccupancyRecord{
			{AreaID: "A-M1", Percent: pct(40)},
			{AreaID: "A-E1", Count: 5},
			{AreaID: "A-Q1", Percent: pct(30)},
		},
		forecasts: []models.ForecastRecord{
			{AreaID: "A-M1", Bucket: "tomorrow afternoon", Percent: 85},
			{AreaID: "A-E1", Bucket: "Tomorrow  Afternoon", Percent: 20},
		},
		policies: []models.Policy{
			{ID: "POL-005", Kind: models.PolicyCapacityLimit, Threshold: pct(80)},
		},
	}
}

func (f *fixture) snapshot(t *testing.T) *models.Snapshot {
	t.Helper()
	h, err := models.NewHierarchy(f.spaces)
	require.NoError(t, err)
	s, err := models.NewSnapshot(h, f.desks, f.occupancy, f.forecasts, f.policies)
	require.NoError(t, err)
	return s
}

func (f *fixture) desk(id string) *models.Desk {
	for i := range f.desks {
		if f.desks[i].ID == id {
			return &f.desks[i]
		}
	}
	return nil
}

func deskIDs(desks []models.Desk) []string {
	ids := make([]string, 0, len(desks))
	for _, d := range desks {
		ids = append(ids, d.ID)
	}
	return ids
}

func recommendationIDs(recs []models.Recommendation) []string {
	ids := make([]string, 0, len(recs))
	for _, r := range recs {
		ids = append(ids, r.Desk.ID)
	}
	return ids
}
