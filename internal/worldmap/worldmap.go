// Package worldmap describes the setting a tower is built in: floor limits,
// build restrictions, map-wide special events and milestone rewards. Maps are
// data, loaded from YAML definitions; the engine only sees the Map interface.
package worldmap

import (
	"github.com/skyrisegames/skytower/server/internal/domain/business"
)

// SpecialEvent is a map-wide happening (festival, kaiju attack, emergency
// drill) rolled once per simulated day.
type SpecialEvent struct {
	Kind              string  `yaml:"kind"`
	DailyChance       float64 `yaml:"daily_chance"`
	VisitorMultiplier float64 `yaml:"visitor_multiplier"`
	RevenueMultiplier float64 `yaml:"revenue_multiplier"`
	DurationDays      float64 `yaml:"duration_days"`
	Message           string  `yaml:"message"`
}

// Milestone is a one-time reward granted when tower population first reaches
// the threshold.
type Milestone struct {
	Population int             `yaml:"population"`
	Unlocks    []business.Type `yaml:"unlocks"`
	CashReward float64         `yaml:"cash_reward"`
	Message    string          `yaml:"message"`
}

// Map is what the engine needs from a loaded map.
type Map interface {
	Name() string
	Theme() string
	MaxFloors() int
	PopulationGoal() int
	StartingCash() float64

	// SpecialEvents returns the map's event table with daily chances already
	// scaled by any star-rating effects.
	SpecialEvents() []SpecialEvent

	// ValidateBuild reports whether a business of type t may be placed with
	// its lowest floor at the given ordinal.
	ValidateBuild(floor int, t business.Type) bool

	// OnPopulationMilestone returns the milestones newly reached at the
	// given population, marking them granted. Unlocked types become
	// buildable immediately.
	OnPopulationMilestone(population int) []Milestone

	// OnStarRatingChange applies any rating-dependent map effects.
	OnStarRatingChange(stars int)
}

// Definition is the concrete, YAML-backed Map implementation. A zero
// AllowedBusinesses list means every type is buildable.
type Definition struct {
	MapName        string          `yaml:"name"`
	MapTheme       string          `yaml:"theme"`
	Description    string          `yaml:"description"`
	Difficulty     int             `yaml:"difficulty"`
	Floors         int             `yaml:"max_floors"`
	PopGoal        int             `yaml:"population_goal"`
	Cash           float64         `yaml:"starting_cash"`
	Allowed        []business.Type `yaml:"allowed_businesses"`
	Restricted     []int           `yaml:"restricted_floors"`
	Events         []SpecialEvent  `yaml:"special_events"`
	Milestones     []Milestone     `yaml:"milestones"`
	RatingBoost    float64         `yaml:"rating_event_boost"`     // event chance multiplier applied at RatingThreshold
	RatingStars    int             `yaml:"rating_boost_threshold"` // star rating that triggers the boost

	granted      map[int]bool
	allowedSet   map[business.Type]bool
	chanceScale  float64
	ratingActive bool
}

func (d *Definition) init() {
	if d.granted == nil {
		d.granted = make(map[int]bool)
	}
	if d.allowedSet == nil && len(d.Allowed) > 0 {
		d.allowedSet = make(map[business.Type]bool, len(d.Allowed))
		for _, t := range d.Allowed {
			d.allowedSet[t] = true
		}
	}
	if d.chanceScale == 0 {
		d.chanceScale = 1
	}
}

func (d *Definition) Name() string  { return d.MapName }
func (d *Definition) Theme() string { return d.MapTheme }

func (d *Definition) MaxFloors() int {
	if d.Floors <= 0 {
		return 100
	}
	return d.Floors
}

func (d *Definition) PopulationGoal() int   { return d.PopGoal }
func (d *Definition) StartingCash() float64 { return d.Cash }

// SpecialEvents returns the event table with daily chances scaled by any
// active star-rating boost.
func (d *Definition) SpecialEvents() []SpecialEvent {
	d.init()
	out := make([]SpecialEvent, len(d.Events))
	copy(out, d.Events)
	for i := range out {
		out[i].DailyChance *= d.chanceScale
	}
	return out
}

// ValidateBuild checks the type allowlist and the restricted floors against
// every floor the business would span.
func (d *Definition) ValidateBuild(floor int, t business.Type) bool {
	d.init()
	if d.allowedSet != nil && !d.allowedSet[t] {
		return false
	}
	cfg, ok := business.Catalog[t]
	size := 1
	if ok {
		size = cfg.Size
	}
	for _, r := range d.Restricted {
		if r >= floor && r < floor+size {
			return false
		}
	}
	return true
}

// OnPopulationMilestone returns milestones crossed for the first time at this
// population. Unlocked business types are added to the allowlist.
func (d *Definition) OnPopulationMilestone(population int) []Milestone {
	d.init()
	var reached []Milestone
	for _, m := range d.Milestones {
		if population < m.Population || d.granted[m.Population] {
			continue
		}
		d.granted[m.Population] = true
		if d.allowedSet != nil {
			for _, t := range m.Unlocks {
				d.allowedSet[t] = true
			}
		}
		reached = append(reached, m)
	}
	return reached
}

// OnStarRatingChange scales special event chances once the rating threshold
// is crossed. The boost applies once and is not stacked on later changes.
func (d *Definition) OnStarRatingChange(stars int) {
	d.init()
	if d.ratingActive || d.RatingBoost <= 0 || d.RatingStars <= 0 {
		return
	}
	if stars >= d.RatingStars {
		d.chanceScale *= d.RatingBoost
		d.ratingActive = true
	}
}

// Default returns the fallback map used when no definition can be loaded: an
// unthemed 100-floor map with no restrictions and no special events.
func Default() *Definition {
	d := &Definition{
		MapName:  "Open Skies",
		MapTheme: "default",
		Floors:   100,
	}
	d.init()
	return d
}
