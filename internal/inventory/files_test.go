package inventory

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yourusername/workspace-advisor/pkg/models"
)

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return logger
}

func writeFiles(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, body := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644))
	}
	return dir
}

const (
	spacesYAML = `
spaces:
  - {id: B1, name: HQ, type: building}
  - {id: F3, name: "3rd Floor", type: Floor, parent_id: B1}
  - {id: Z-M, name: Marketing, type: zone, parent_id: F3}
  - {id: A-1, name: Open Plan, type: area, parent_id: Z-M, capacity: 10}
`
	desksJSON = `{"desks": [
  {"id": "d1", "type": "Standing Desk", "vergesense_area_id": "VS-1", "status": "Available", "last_used": "2026-10-15T08:00:00Z"},
  {"id": "d2", "type": "sitting", "area_id": "A-1", "vergesense_area_id": "VS-1", "status": "maintenance"}
]}`
	occupancyJSON = `{
  "current": {"VS-1": {"count": 4, "timestamp": "2026-10-15T09:00:00Z"}},
  "forecast": {"VS-1": {"next_day": {"afternoon": 85, "early_morning": 10}}},
  "forecasts": [{"area_id": "A-1", "bucket": "Next Monday", "percent": 30}]
}`
	policiesYAML = `
policies:
  - id: POL-005
    name: Capacity Limits
    description: Avoid areas at or above 75% occupancy.
  - id: POL-002
    description: Allow a cleaning gap between users.
    gap_minutes: 45
`
)

func TestFileSource_MixedFormats(t *testing.T) {
	dir := writeFiles(t, map[string]string{
		"spaces.yaml":    spacesYAML,
		"desks.json":     desksJSON,
		"occupancy.json": occupancyJSON,
		"policies.yml":   policiesYAML,
	})

	snap, err := NewFileSource(FilesConfig{Dir: dir}, quietLogger()).Snapshot(context.Background())
	require.NoError(t, err)

	require.Len(t, snap.Desks, 2)
	d1 := snap.Desks[0]
	assert.Equal(t, models.DeskStanding, d1.Type)
	assert.Equal(t, "VS-1", d1.AreaID, "sensor id used when area_id is absent")
	assert.Equal(t, models.StatusAvailable, d1.Status)
	require.NotNil(t, d1.LastUsed)

	d2 := snap.Desks[1]
	assert.Equal(t, "A-1", d2.AreaID)
	assert.Equal(t, 3, d2.Floor, "floor level parsed from the floor name")
	assert.Equal(t, "Z-M", d2.ZoneID)

	rec, ok := snap.CurrentOccupancy("A-1")
	require.True(t, ok, "sensor area ids map onto area ids")
	assert.Equal(t, 4, rec.Count)

	v, ok := snap.Forecast("A-1", "tomorrow afternoon")
	assert.True(t, ok)
	assert.Equal(t, 85.0, v)
	v, ok = snap.Forecast("A-1", "tomorrow early morning")
	assert.True(t, ok)
	assert.Equal(t, 10.0, v)
	_, ok = snap.Forecast("A-1", "next monday")
	assert.True(t, ok)

	require.Len(t, snap.Policies, 2)
	assert.Equal(t, models.PolicyCapacityLimit, snap.Policies[0].Kind)
	assert.Equal(t, models.PolicySanitizationGap, snap.Policies[1].Kind)
	assert.Equal(t, 45, snap.Policies[1].GapMinutes)
}

func TestFileSource_MissingFile(t *testing.T) {
	dir := writeFiles(t, map[string]string{
		"spaces.yaml": spacesYAML,
		"desks.json":  desksJSON,
	})

	_, err := NewFileSource(FilesConfig{Dir: dir}, quietLogger()).Snapshot(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrDataAccess)
	assert.Contains(t, err.Error(), "occupancy not found")
}

func TestFileSource_InvalidData(t *testing.T) {
	tests := map[string]map[string]string{
		"malformed json": {
			"spaces.yaml": spacesYAML, "desks.json": `{"desks": [`, "occupancy.json": occupancyJSON, "policies.yml": policiesYAML,
		},
		"broken hierarchy": {
			"spaces.yaml": "spaces:\n  - {id: A-1, type: area}\n", "desks.json": desksJSON, "occupancy.json": occupancyJSON, "policies.yml": policiesYAML,
		},
		"bad timestamp": {
			"spaces.yaml": spacesYAML, "desks.json": `{"desks": [{"id": "d1", "area_id": "A-1", "last_used": "yesterday"}]}`,
			"occupancy.json": occupancyJSON, "policies.yml": policiesYAML,
		},
	}

	for name, files := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := NewFileSource(FilesConfig{Dir: writeFiles(t, files)}, quietLogger()).Snapshot(context.Background())
			assert.ErrorIs(t, err, models.ErrDataAccess)
		})
	}
}

func TestFileSource_ExplicitFileName(t *testing.T) {
	dir := writeFiles(t, map[string]string{
		"site.yaml":      spacesYAML,
		"desks.json":     desksJSON,
		"occupancy.json": occupancyJSON,
		"policies.yml":   policiesYAML,
	})

	snap, err := NewFileSource(FilesConfig{Dir: dir, Spaces: "site.yaml"}, quietLogger()).Snapshot(context.Background())
	require.NoError(t, err)
	assert.Len(t, snap.Hierarchy.Nodes(), 4)
}

func TestFileSource_SampleData(t *testing.T) {
	snap, err := NewFileSource(FilesConfig{Dir: "../../data"}, quietLogger()).Snapshot(context.Background())
	require.NoError(t, err)

	assert.Len(t, snap.Desks, 7)
	v, ok := snap.Forecast("A-302", "tomorrow afternoon")
	assert.True(t, ok)
	assert.Equal(t, 85.0, v)
	assert.Len(t, snap.Policies, 4)
}

func TestMemorySource(t *testing.T) {
	_, err := NewMemorySource(nil).Snapshot(context.Background())
	assert.ErrorIs(t, err, models.ErrDataAccess)

	_, err = FailingSource("offline").Snapshot(context.Background())
	assert.ErrorIs(t, err, models.ErrDataAccess)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = NewMemorySource(&models.Snapshot{}).Snapshot(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
