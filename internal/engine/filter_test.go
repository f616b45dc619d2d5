package engine

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yourusername/workspace-advisor/pkg/models"
)

func runFilter(t *testing.T, f *fixture, c models.Criteria) ([]models.Desk, *models.Trace) {
	t.Helper()
	snap := f.snapshot(t)
	trace := &models.Trace{}
	out := Filter(snap, c, NewPolicyResolver(snap.Policies, 0), trace)
	return out, trace
}

func TestFilter_TypeAlwaysMatches(t *testing.T) {
	for _, deskType := range []models.DeskType{models.DeskStanding, models.DeskSitting, models.DeskShared} {
		out, _ := runFilter(t, newFixture(), models.Criteria{DeskType: deskType})
		for _, d := range out {
			assert.Equal(t, deskType, d.Type, "desk %s", d.ID)
		}
	}
}

func TestFilter_AnyTypeIsUnconstrained(t *testing.T) {
	out, _ := runFilter(t, newFixture(), models.FallbackCriteria())
	assert.Equal(t, []string{"d1", "d2", "d3", "d4", "d5"}, deskIDs(out))
}

func TestFilter_TypeAndFloorPreserveOrder(t *testing.T) {
	out, trace := runFilter(t, newFixture(), models.Criteria{DeskType: models.DeskStanding, Floor: intPtr(3)})
	assert.Equal(t, []string{"d1", "d3", "d4"}, deskIDs(out))

	var excluded []string
	for _, e := range trace.ForStage(models.StageFilter) {
		if e.DeskID != "" {
			excluded = append(excluded, e.Message)
		}
	}
	require.Len(t, excluded, 2)
	assert.Equal(t, "desk d2 excluded: type mismatch (want standing, have sitting)", excluded[0])
	assert.Equal(t, "desk d5 excluded: floor mismatch (want 3, have 2)", excluded[1])
}

func TestFilter_MarketingAffinity(t *testing.T) {
	c := models.Criteria{Affinity: models.ParseAffinity("marketing team")}
	out, _ := runFilter(t, newFixture(), c)
	assert.Equal(t, []string{"d1", "d3"}, deskIDs(out))
}

func TestFilter_MarketingAffinityFromTeamZoningPolicy(t *testing.T) {
	f := newFixture()
	// 分区名不含 marketing 时依赖团队分区策略
	f.spaces[3].Name = "North Wing"
	f.policies = append(f.policies, models.Policy{ID: "POL-010", Kind: models.PolicyTeamZoning, Team: "Marketing", Zones: []string{"Z-Q"}})

	out, _ := runFilter(t, f, models.Criteria{Affinity: models.ParseAffinity("near marketing")})
	assert.Equal(t, []string{"d4"}, deskIDs(out))
}

func TestFilter_NoMarketingZoneYieldsEmpty(t *testing.T) {
	f := newFixture()
	f.spaces[3].Name = "North Wing"

	out, trace := runFilter(t, f, models.Criteria{Affinity: models.ParseAffinity("near marketing")})
	assert.Empty(t, out)
	require.NotEmpty(t, trace.Warnings())
	assert.Contains(t, trace.Warnings()[0].Message, "no zone is assigned to the marketing team")
}

func TestFilter_ZoneNameMustMatchWholeTeamName(t *testing.T) {
	f := newFixture()
	f.spaces[3].Name = "Non-Marketing Overflow"
	f.spaces[4].Name = "  MARKETING   zone "

	out, _ := runFilter(t, f, models.Criteria{Affinity: models.ParseAffinity("near marketing")})
	assert.Equal(t, []string{"d4"}, deskIDs(out))

	assert.True(t, zoneNamedFor("Marketing", "marketing"))
	assert.False(t, zoneNamedFor("Marketing Overflow", "marketing"))
}

func TestFilter_UnrecognizedAffinityIgnored(t *testing.T) {
	out, trace := runFilter(t, newFixture(), models.Criteria{Affinity: models.ParseAffinity("near the window")})
	assert.Len(t, out, 5)

	found := false
	for _, e := range trace.Entries {
		if strings.Contains(e.Message, `proximity "near the window" is not a recognized affinity`) {
			found = true
		}
	}
	assert.True(t, found, "expected a trace note for the unrecognized affinity")
}

func TestFilter_FeaturesSuperset(t *testing.T) {
	out, trace := runFilter(t, newFixture(), models.Criteria{Features: []string{"Dual Monitor", "ergonomic-chair"}})
	assert.Equal(t, []string{"d5"}, deskIDs(out))
	assert.Contains(t, trace.Entries[1].Message, "missing features")
}

func TestFilter_EmptyInventory(t *testing.T) {
	f := newFixture()
	f.desks = nil
	out, trace := runFilter(t, f, models.Criteria{DeskType: models.DeskStanding})
	assert.Empty(t, out)
	assert.Equal(t, "0 of 0 desks match the criteria", trace.Entries[len(trace.Entries)-1].Message)
}
