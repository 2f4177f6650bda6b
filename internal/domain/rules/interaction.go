// Package rules contains the pure calculation logic for business
// interactions: synergy, competition, distance falloff and special combos.
// This package is PURE and must NOT import any infrastructure packages.
package rules

import (
	"sort"

	"github.com/skyrisegames/skytower/server/internal/domain/business"
)

// NeighborRadius is the floor distance beyond which businesses no longer
// affect each other. DistanceModifier reaches zero exactly at this radius.
const NeighborRadius = 5

// MaxSynergyBonus caps the combined interaction bonus for any business.
const MaxSynergyBonus = 0.75

// synergies maps initiator type -> neighbor type -> income bonus. The table
// is directional: only the initiating business's row is consulted, and A
// boosted by B need not equal B boosted by A.
var synergies = map[business.Type]map[business.Type]float64{
	business.TypeHotel: {
		business.TypeRestaurant: 0.25,
		business.TypeSpa:        0.2,
		business.TypeBar:        0.15,
		business.TypeRetail:     0.1,
		business.TypeConference: 0.15,
	},
	business.TypeRestaurant: {
		business.TypeBar:    0.15,
		business.TypeHotel:  0.1,
		business.TypeCinema: 0.15,
		business.TypeRetail: 0.1,
	},
	business.TypeOffice: {
		business.TypeRestaurant: 0.3,
		business.TypeConference: 0.25,
		business.TypeGym:        0.15,
		business.TypeBar:        0.2,
		business.TypeRetail:     0.15,
	},
	business.TypeRetail: {
		business.TypeRestaurant: 0.15,
		business.TypeCinema:     0.15,
		business.TypeArcade:     0.1,
		business.TypeHotel:      0.1,
	},
	business.TypeCinema: {
		business.TypeRestaurant: 0.2,
		business.TypeArcade:     0.2,
		business.TypeBar:        0.15,
		business.TypeRetail:     0.1,
	},
	business.TypeGym: {
		business.TypeSpa:        0.25,
		business.TypeRestaurant: 0.15,
		business.TypeRetail:     0.1,
	},
	business.TypeArcade: {
		business.TypeCinema:     0.2,
		business.TypeRestaurant: 0.15,
		business.TypeRetail:     0.1,
	},
	business.TypeConference: {
		business.TypeHotel:      0.2,
		business.TypeRestaurant: 0.15,
		business.TypeOffice:     0.15,
	},
	business.TypeSpa: {
		business.TypeHotel:      0.2,
		business.TypeGym:        0.2,
		business.TypeRestaurant: 0.1,
	},
}

// competition maps same/rival-type pairs to income penalties (always <= 0).
var competition = map[business.Type]map[business.Type]float64{
	business.TypeRestaurant: {business.TypeRestaurant: -0.15},
	business.TypeRetail:     {business.TypeRetail: -0.1},
	business.TypeBar:        {business.TypeBar: -0.2},
	business.TypeCinema:     {business.TypeCinema: -0.25},
}

// Combo is a named bonus unlocked when a set of business types co-occurs
// within the neighbor radius.
type Combo struct {
	Name            string
	Bonus           float64
	ReputationBonus int
	Requires        []business.Type
}

// Combos lists every special combination. Bonuses are not additive: the
// strongest matching combo wins, but every matching name is reported.
var Combos = []Combo{
	{
		Name: "Luxury Resort Package", Bonus: 0.3, ReputationBonus: 5,
		Requires: []business.Type{business.TypeHotel, business.TypeSpa, business.TypeRestaurant},
	},
	{
		Name: "Entertainment Complex", Bonus: 0.25, ReputationBonus: 3,
		Requires: []business.Type{business.TypeCinema, business.TypeArcade, business.TypeRestaurant},
	},
	{
		Name: "Wellness Center", Bonus: 0.25, ReputationBonus: 4,
		Requires: []business.Type{business.TypeGym, business.TypeSpa, business.TypeRestaurant},
	},
	{
		Name: "Business Hub", Bonus: 0.2, ReputationBonus: 3,
		Requires: []business.Type{business.TypeOffice, business.TypeConference, business.TypeRestaurant},
	},
}

// Synergy returns the directional income bonus t gains from a neighbor of
// type neighbor, before distance falloff.
func Synergy(t, neighbor business.Type) float64 {
	return synergies[t][neighbor]
}

// Competition returns the income penalty t suffers from a neighbor of type
// neighbor, before distance falloff. Always <= 0.
func Competition(t, neighbor business.Type) float64 {
	return competition[t][neighbor]
}

// DistanceModifier is the linear falloff factor for a neighbor floorDistance
// floors away: max(0, (5-d)/5).
func DistanceModifier(floorDistance int) float64 {
	m := float64(NeighborRadius-floorDistance) / NeighborRadius
	if m < 0 {
		return 0
	}
	return m
}

// ComboBonus evaluates the combo table against the union of a business's own
// type and its in-radius neighbors' types. It returns the single strongest
// bonus and the names of every matching combo.
func ComboBonus(types map[business.Type]bool) (float64, []string) {
	var bonus float64
	var names []string
	for _, c := range Combos {
		matched := true
		for _, req := range c.Requires {
			if !types[req] {
				matched = false
				break
			}
		}
		if matched {
			if c.Bonus > bonus {
				bonus = c.Bonus
			}
			names = append(names, c.Name)
		}
	}
	sort.Strings(names)
	return bonus, names
}

// Result is the aggregate interaction outcome for one business.
type Result struct {
	Synergy     float64 // summed, distance-scaled, >= 0 per entry
	Competition float64 // summed, distance-scaled, <= 0 per entry
	Special     float64 // max combo bonus
	Bonus       float64 // clamped total in [0, MaxSynergyBonus]
	Combos      []string
}

// Calculate aggregates synergy, competition and combo effects for a business
// of type t given its neighbors grouped by exact floor distance. Neighbors
// beyond the radius contribute nothing (their modifier is zero).
func Calculate(t business.Type, neighborsByDistance map[int][]business.Type) Result {
	var r Result

	comboTypes := map[business.Type]bool{t: true}
	for distance, neighbors := range neighborsByDistance {
		modifier := DistanceModifier(distance)
		for _, n := range neighbors {
			r.Synergy += Synergy(t, n) * modifier
			r.Competition += Competition(t, n) * modifier
			if distance <= NeighborRadius {
				comboTypes[n] = true
			}
		}
	}

	r.Special, r.Combos = ComboBonus(comboTypes)

	total := r.Synergy + r.Competition + r.Special
	if total < 0 {
		total = 0
	}
	if total > MaxSynergyBonus {
		total = MaxSynergyBonus
	}
	r.Bonus = total
	return r
}
