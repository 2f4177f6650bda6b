package worldmap

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skyrisegames/skytower/server/internal/domain/business"
)

const sampleMapYAML = `
name: Test Heights
theme: test
max_floors: 50
population_goal: 1000
starting_cash: 250000
allowed_businesses: [restaurant, retail, office]
restricted_floors: [13]
special_events:
  - kind: festival
    daily_chance: 0.05
    visitor_multiplier: 1.5
    duration_days: 2
    message: Festival time!
milestones:
  - population: 500
    unlocks: [cinema]
    cash_reward: 10000
    message: Halfway there.
rating_event_boost: 2.0
rating_boost_threshold: 4
`

func writeMap(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "map.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadMapDefinition(t *testing.T) {
	d, err := Load(writeMap(t, sampleMapYAML))
	require.NoError(t, err)

	assert.Equal(t, "Test Heights", d.Name())
	assert.Equal(t, "test", d.Theme())
	assert.Equal(t, 50, d.MaxFloors())
	assert.Equal(t, 1000, d.PopulationGoal())
	assert.Equal(t, 250000.0, d.StartingCash())
	require.Len(t, d.SpecialEvents(), 1)
	assert.Equal(t, "festival", d.SpecialEvents()[0].Kind)
}

func TestLoadRejectsNamelessMap(t *testing.T) {
	_, err := Load(writeMap(t, "theme: broken\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing name")
}

func TestLoadRejectsMalformedYAML(t *testing.T) {
	_, err := Load(writeMap(t, "{not yaml"))
	assert.Error(t, err)
}

func TestLoadOrDefaultFallsBack(t *testing.T) {
	d, err := LoadOrDefault("/nonexistent/map.yaml")
	assert.Error(t, err, "the failure is reported")
	require.NotNil(t, d, "but the game still gets a map")
	assert.Equal(t, "Open Skies", d.Name())

	d, err = LoadOrDefault("")
	assert.NoError(t, err)
	assert.Equal(t, "Open Skies", d.Name())
}

func TestDefaultMapAllowsEverything(t *testing.T) {
	d := Default()
	assert.Equal(t, 100, d.MaxFloors())
	for _, bt := range business.AllTypes() {
		assert.True(t, d.ValidateBuild(0, bt), "%s should be buildable", bt)
	}
	assert.Empty(t, d.SpecialEvents())
}

func TestValidateBuildAllowlist(t *testing.T) {
	d, err := Load(writeMap(t, sampleMapYAML))
	require.NoError(t, err)

	assert.True(t, d.ValidateBuild(0, business.TypeRestaurant))
	assert.False(t, d.ValidateBuild(0, business.TypeCinema), "not unlocked yet")
	assert.False(t, d.ValidateBuild(0, business.TypeBar))
}

func TestValidateBuildRestrictedFloors(t *testing.T) {
	d, err := Load(writeMap(t, sampleMapYAML))
	require.NoError(t, err)

	assert.False(t, d.ValidateBuild(13, business.TypeRestaurant))
	assert.True(t, d.ValidateBuild(12, business.TypeRestaurant), "single floor stops short of 13")

	// An office spans two floors; anchored at 12 it would cover 13.
	assert.False(t, d.ValidateBuild(12, business.TypeOffice))
	assert.True(t, d.ValidateBuild(14, business.TypeOffice))
}

func TestMilestonesGrantOnceAndUnlock(t *testing.T) {
	d, err := Load(writeMap(t, sampleMapYAML))
	require.NoError(t, err)

	assert.Empty(t, d.OnPopulationMilestone(499))

	reached := d.OnPopulationMilestone(500)
	require.Len(t, reached, 1)
	assert.Equal(t, 10000.0, reached[0].CashReward)

	assert.True(t, d.ValidateBuild(0, business.TypeCinema), "the milestone unlocked cinemas")
	assert.Empty(t, d.OnPopulationMilestone(600), "a milestone is granted once")
}

func TestStarRatingBoostAppliesOnce(t *testing.T) {
	d, err := Load(writeMap(t, sampleMapYAML))
	require.NoError(t, err)

	base := d.SpecialEvents()[0].DailyChance
	d.OnStarRatingChange(3)
	assert.Equal(t, base, d.SpecialEvents()[0].DailyChance, "below the threshold nothing changes")

	d.OnStarRatingChange(4)
	assert.InDelta(t, base*2, d.SpecialEvents()[0].DailyChance, 1e-9)

	d.OnStarRatingChange(5)
	assert.InDelta(t, base*2, d.SpecialEvents()[0].DailyChance, 1e-9, "the boost does not stack")
}
