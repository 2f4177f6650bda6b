package rules

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/skyrisegames/skytower/server/internal/domain/business"
)

func TestSynergyIsDirectional(t *testing.T) {
	assert.Equal(t, 0.25, Synergy(business.TypeHotel, business.TypeRestaurant))
	assert.Equal(t, 0.1, Synergy(business.TypeRestaurant, business.TypeHotel))
	assert.Zero(t, Synergy(business.TypeParking, business.TypeRestaurant), "no table entry means no bonus")
}

func TestCompetitionIsNegative(t *testing.T) {
	assert.Equal(t, -0.15, Competition(business.TypeRestaurant, business.TypeRestaurant))
	assert.Equal(t, -0.25, Competition(business.TypeCinema, business.TypeCinema))
	assert.Zero(t, Competition(business.TypeHotel, business.TypeHotel), "hotels do not compete")
}

func TestDistanceModifier(t *testing.T) {
	assert.Equal(t, 1.0, DistanceModifier(0))
	assert.Equal(t, 0.8, DistanceModifier(1))
	assert.InDelta(t, 0.4, DistanceModifier(3), 1e-9)
	assert.Zero(t, DistanceModifier(5), "influence dies exactly at the radius")
	assert.Zero(t, DistanceModifier(12))
}

func TestCalculateAdjacentBar(t *testing.T) {
	// A restaurant one floor from a bar: 0.15 * 0.8 = 0.12.
	r := Calculate(business.TypeRestaurant, map[int][]business.Type{
		1: {business.TypeBar},
	})
	assert.InDelta(t, 0.12, r.Synergy, 1e-9)
	assert.Zero(t, r.Competition)
	assert.Zero(t, r.Special)
	assert.InDelta(t, 0.12, r.Bonus, 1e-9)
	assert.Empty(t, r.Combos)
}

func TestCalculateCompetitionCanZeroOut(t *testing.T) {
	// Two rival restaurants on adjacent floors with nothing else around.
	r := Calculate(business.TypeRestaurant, map[int][]business.Type{
		1: {business.TypeRestaurant},
	})
	assert.InDelta(t, -0.12, r.Competition, 1e-9)
	assert.Zero(t, r.Bonus, "the total never goes negative")
}

func TestCalculateMixedNeighbors(t *testing.T) {
	// Bar two floors up (0.15*0.6) and a rival restaurant four floors down
	// (-0.15*0.2).
	r := Calculate(business.TypeRestaurant, map[int][]business.Type{
		2: {business.TypeBar},
		4: {business.TypeRestaurant},
	})
	assert.InDelta(t, 0.09, r.Synergy, 1e-9)
	assert.InDelta(t, -0.03, r.Competition, 1e-9)
	assert.InDelta(t, 0.06, r.Bonus, 1e-9)
}

func TestCalculateIgnoresNeighborsBeyondRadius(t *testing.T) {
	r := Calculate(business.TypeHotel, map[int][]business.Type{
		7: {business.TypeRestaurant, business.TypeSpa},
	})
	assert.Zero(t, r.Synergy)
	assert.Zero(t, r.Bonus)
	assert.Empty(t, r.Combos, "distant businesses do not complete combos")
}

func TestComboLuxuryResort(t *testing.T) {
	r := Calculate(business.TypeHotel, map[int][]business.Type{
		1: {business.TypeSpa},
		2: {business.TypeRestaurant},
	})
	assert.Equal(t, []string{"Luxury Resort Package"}, r.Combos)
	assert.Equal(t, 0.3, r.Special)
}

func TestComboOwnTypeCounts(t *testing.T) {
	// The initiating business completes its own combo requirement: a gym
	// next to a spa and restaurant forms the Wellness Center.
	r := Calculate(business.TypeGym, map[int][]business.Type{
		1: {business.TypeSpa},
		2: {business.TypeRestaurant},
	})
	assert.Contains(t, r.Combos, "Wellness Center")
}

func TestComboStrongestWinsAllReported(t *testing.T) {
	// Hotel, spa, gym and restaurant together satisfy both the Luxury
	// Resort Package (0.3) and the Wellness Center (0.25).
	r := Calculate(business.TypeHotel, map[int][]business.Type{
		1: {business.TypeSpa},
		2: {business.TypeRestaurant},
		3: {business.TypeGym},
	})
	assert.Equal(t, []string{"Luxury Resort Package", "Wellness Center"}, r.Combos)
	assert.Equal(t, 0.3, r.Special, "combo bonuses do not stack; the strongest applies")
}

func TestCalculateClampsAtMax(t *testing.T) {
	// An office surrounded by everything it loves, at zero distance steps,
	// plus a Business Hub combo, blows far past the cap.
	r := Calculate(business.TypeOffice, map[int][]business.Type{
		1: {business.TypeRestaurant, business.TypeConference, business.TypeGym},
		2: {business.TypeBar, business.TypeRetail, business.TypeRestaurant},
	})
	assert.Greater(t, r.Synergy+r.Special, MaxSynergyBonus)
	assert.Equal(t, MaxSynergyBonus, r.Bonus)
}

func TestCalculateNoNeighbors(t *testing.T) {
	r := Calculate(business.TypeRestaurant, nil)
	assert.Zero(t, r.Bonus)
	assert.Empty(t, r.Combos)
}
