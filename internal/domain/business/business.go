// Package business defines the core domain entity for tower businesses.
// This package is PURE and must NOT import any infrastructure packages (network, events, platform).
package business

// Type identifies the kind of business occupying one or more floors.
type Type string

const (
	TypeRestaurant  Type = "restaurant"
	TypeHotel       Type = "hotel"
	TypeOffice      Type = "office"
	TypeRetail      Type = "retail"
	TypeGym         Type = "gym"
	TypeCinema      Type = "cinema"
	TypeArcade      Type = "arcade"
	TypeSpa         Type = "spa"
	TypeConference  Type = "conference"
	TypeObservation Type = "observation"
	TypeBar         Type = "bar"
	TypeParking     Type = "parking"
)

// Category groups business types for reporting.
type Category string

const (
	CategoryEntertainment Category = "entertainment"
	CategoryService       Category = "service"
	CategoryHospitality   Category = "hospitality"
	CategoryOffice        Category = "office"
	CategoryRetail        Category = "retail"
)

// EventKind identifies a temporary business-level event.
type EventKind string

const (
	EventSpecialPromotion EventKind = "special_promotion"
	EventCelebrityVisit   EventKind = "celebrity_visit"
	EventStaffShortage    EventKind = "staff_shortage"
	EventEquipmentFailure EventKind = "equipment_failure"
	EventHealthInspection EventKind = "health_inspection"
	EventRenovation       EventKind = "renovation"
)

// HourWindow is a peak-hour interval [Start, End). A window with Start > End
// wraps past midnight (e.g. a bar open 17:00-02:00).
type HourWindow struct {
	Start int
	End   int
}

// Contains reports whether hour falls inside the window.
func (w HourWindow) Contains(hour float64) bool {
	if w.Start <= w.End {
		return float64(w.Start) <= hour && hour < float64(w.End)
	}
	return hour >= float64(w.Start) || hour < float64(w.End)
}

// shoulder is the window widened by one hour on each side.
func (w HourWindow) shoulder() HourWindow {
	return HourWindow{Start: (w.Start + 23) % 24, End: (w.End + 1) % 24}
}

// Config holds the static per-type parameters.
type Config struct {
	Category       Category
	Size           int // floors spanned
	BaseIncome     float64
	Maintenance    float64
	Staff          int
	BuildCost      float64
	PeakHours      []HourWindow
	CustomerGroups []string
}

// Catalog is the static configuration table for every business type.
var Catalog = map[Type]Config{
	TypeRestaurant: {
		Category: CategoryHospitality, Size: 1, BaseIncome: 1000, Maintenance: 200, Staff: 8, BuildCost: 50000,
		PeakHours:      []HourWindow{{7, 10}, {12, 14}, {18, 22}},
		CustomerGroups: []string{"workers", "tourists", "residents"},
	},
	TypeHotel: {
		Category: CategoryHospitality, Size: 4, BaseIncome: 5000, Maintenance: 1000, Staff: 20, BuildCost: 200000,
		PeakHours:      []HourWindow{{14, 20}},
		CustomerGroups: []string{"tourists", "business"},
	},
	TypeOffice: {
		Category: CategoryOffice, Size: 2, BaseIncome: 3000, Maintenance: 500, Staff: 4, BuildCost: 100000,
		PeakHours:      []HourWindow{{9, 17}},
		CustomerGroups: []string{"workers", "business"},
	},
	TypeRetail: {
		Category: CategoryRetail, Size: 1, BaseIncome: 800, Maintenance: 150, Staff: 4, BuildCost: 30000,
		PeakHours:      []HourWindow{{11, 19}},
		CustomerGroups: []string{"tourists", "residents", "workers"},
	},
	TypeGym: {
		Category: CategoryService, Size: 1, BaseIncome: 600, Maintenance: 300, Staff: 6, BuildCost: 80000,
		PeakHours:      []HourWindow{{6, 9}, {17, 21}},
		CustomerGroups: []string{"residents", "workers"},
	},
	TypeCinema: {
		Category: CategoryEntertainment, Size: 2, BaseIncome: 2000, Maintenance: 400, Staff: 10, BuildCost: 150000,
		PeakHours:      []HourWindow{{14, 23}},
		CustomerGroups: []string{"tourists", "residents", "youth"},
	},
	TypeArcade: {
		Category: CategoryEntertainment, Size: 1, BaseIncome: 1500, Maintenance: 300, Staff: 4, BuildCost: 100000,
		PeakHours:      []HourWindow{{12, 22}},
		CustomerGroups: []string{"youth", "tourists"},
	},
	TypeSpa: {
		Category: CategoryService, Size: 1, BaseIncome: 1200, Maintenance: 250, Staff: 8, BuildCost: 120000,
		PeakHours:      []HourWindow{{10, 20}},
		CustomerGroups: []string{"tourists", "residents"},
	},
	TypeConference: {
		Category: CategoryService, Size: 2, BaseIncome: 2000, Maintenance: 300, Staff: 4, BuildCost: 80000,
		PeakHours:      []HourWindow{{9, 17}},
		CustomerGroups: []string{"business"},
	},
	TypeObservation: {
		Category: CategoryEntertainment, Size: 1, BaseIncome: 3000, Maintenance: 200, Staff: 6, BuildCost: 300000,
		PeakHours:      []HourWindow{{10, 20}},
		CustomerGroups: []string{"tourists"},
	},
	TypeBar: {
		Category: CategoryHospitality, Size: 1, BaseIncome: 1500, Maintenance: 300, Staff: 6, BuildCost: 70000,
		PeakHours:      []HourWindow{{17, 2}},
		CustomerGroups: []string{"workers", "tourists", "residents"},
	},
	TypeParking: {
		Category: CategoryService, Size: 3, BaseIncome: 500, Maintenance: 100, Staff: 2, BuildCost: 150000,
		PeakHours:      []HourWindow{{0, 24}},
		CustomerGroups: []string{"workers", "visitors"},
	},
}

// AllTypes returns every known business type in a stable order.
func AllTypes() []Type {
	return []Type{
		TypeRestaurant, TypeHotel, TypeOffice, TypeRetail, TypeGym, TypeCinema,
		TypeArcade, TypeSpa, TypeConference, TypeObservation, TypeBar, TypeParking,
	}
}

// CustomersPerFloor is the nominal capacity of a single floor.
const CustomersPerFloor = 20

// customerStepPerTick rate-limits how fast the customer count converges on
// its target. The count moves by at most this many per update.
const customerStepPerTick = 5

// Business is the mutable simulation state of one placed business.
type Business struct {
	Type  Type
	Floor int // originating (lowest) floor
	Name  string

	Popularity   float64 // 0-100
	Satisfaction float64 // 0-100
	BaseIncome   float64
	Maintenance  float64
	Staff        int
	Customers    int
	Open         bool

	Events        []EventKind
	EventDuration float64 // shared countdown, in simulated days

	SynergyBonus float64 // derived each tick, capped at 0.75
	ActiveCombos []string
	ActualIncome float64 // derived each tick

	size      int
	peakHours []HourWindow
}

// New creates a business of the given type anchored at floor. Unknown types
// fall back to restaurant-like defaults so a bad catalog entry degrades
// instead of crashing the sim.
func New(t Type, floor int) *Business {
	cfg, ok := Catalog[t]
	if !ok {
		cfg = Config{Category: CategoryService, Size: 1, BaseIncome: 1000, Maintenance: 200, Staff: 4, PeakHours: []HourWindow{{9, 17}}}
	}
	return &Business{
		Type:         t,
		Floor:        floor,
		Popularity:   50,
		Satisfaction: 100,
		BaseIncome:   cfg.BaseIncome,
		Maintenance:  cfg.Maintenance,
		Staff:        cfg.Staff,
		Open:         true,
		size:         cfg.Size,
		peakHours:    cfg.PeakHours,
	}
}

// Size returns the number of floors the business spans.
func (b *Business) Size() int {
	return b.size
}

// Capacity is the comfortable customer limit before overcrowding sets in.
func (b *Business) Capacity() int {
	return b.size * CustomersPerFloor
}

// Category returns the reporting category for the business type.
func (b *Business) Category() Category {
	return Catalog[b.Type].Category
}

// HasEvent reports whether the given event kind is currently active.
func (b *Business) HasEvent(kind EventKind) bool {
	for _, e := range b.Events {
		if e == kind {
			return true
		}
	}
	return false
}

// TriggerEvent appends the event and applies its one-shot effects. A new
// event overwrites the shared countdown instead of stacking its own timer.
func (b *Business) TriggerEvent(kind EventKind) {
	b.Events = append(b.Events, kind)

	switch kind {
	case EventSpecialPromotion:
		b.Popularity = clamp(b.Popularity + 20)
		b.EventDuration = 3
	case EventCelebrityVisit:
		b.Popularity = clamp(b.Popularity + 30)
		b.EventDuration = 1
	case EventStaffShortage:
		b.Satisfaction = clamp(b.Satisfaction - 20)
		b.EventDuration = 2
	case EventEquipmentFailure:
		b.Satisfaction = clamp(b.Satisfaction - 30)
		b.Maintenance *= 1.5
		b.EventDuration = 2
	case EventHealthInspection:
		if b.Maintenance > 0 {
			b.Satisfaction = clamp(b.Satisfaction + 10)
		} else {
			b.Satisfaction = clamp(b.Satisfaction - 40)
		}
		b.EventDuration = 1
	case EventRenovation:
		b.Open = false
		b.Satisfaction = 100
		b.EventDuration = 5
	}
}

// ApplyInteractions stores the clamped synergy bonus and active combo names
// computed by the interaction rules. An active combo nudges satisfaction and
// popularity up slightly.
func (b *Business) ApplyInteractions(bonus float64, combos []string) {
	b.SynergyBonus = bonus
	b.ActiveCombos = combos
	if len(combos) > 0 {
		b.Satisfaction = clamp(b.Satisfaction + 0.2)
		b.Popularity = clamp(b.Popularity + 0.1)
	}
}

// TimeModifier returns the income/customer multiplier for the given hour of
// day: 1.5 inside a peak window, 1.2 in the one-hour shoulder around it,
// 0.7 off-peak. Windows are checked in order and the first match wins.
func (b *Business) TimeModifier(hour float64) float64 {
	for _, w := range b.peakHours {
		if w.Contains(hour) {
			return 1.5
		}
		if w.shoulder().Contains(hour) {
			return 1.2
		}
	}
	return 0.7
}

// Update advances the business by dtDays of simulated time.
//
// The event countdown runs even while closed, otherwise a renovation would
// never finish; everything else is skipped until the business reopens.
// spawnMultiplier scales the customer draw from global events (festivals,
// drills) and is 1 in the steady state.
func (b *Business) Update(dtDays, hour, spawnMultiplier float64) {
	if b.EventDuration > 0 {
		b.EventDuration -= dtDays
		if b.EventDuration <= 0 {
			wasRenovating := b.HasEvent(EventRenovation)
			b.Events = b.Events[:0]
			b.EventDuration = 0
			if wasRenovating {
				b.Open = true
			}
		}
	}

	if !b.Open {
		return
	}

	timeModifier := b.TimeModifier(hour)

	baseModifier := (b.Popularity + b.Satisfaction) / 200
	b.ActualIncome = b.BaseIncome * baseModifier * (1 + b.SynergyBonus) * timeModifier

	maxCustomers := float64(b.Capacity()) * timeModifier * spawnMultiplier
	target := int(maxCustomers * (b.Popularity / 100))
	switch {
	case b.Customers < target:
		b.Customers += min(customerStepPerTick, target-b.Customers)
	case b.Customers > target:
		b.Customers -= min(customerStepPerTick, b.Customers-target)
	}

	if b.Customers > b.Capacity() {
		b.Satisfaction = clamp(b.Satisfaction - 0.5)
	}
	if b.Maintenance > 0 {
		b.Satisfaction = clamp(b.Satisfaction + 0.1)
	} else {
		b.Satisfaction = clamp(b.Satisfaction - 0.2)
	}
}

func clamp(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
