package engine

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/skyrisegames/skytower/server/internal/domain/business"
	"github.com/skyrisegames/skytower/server/internal/domain/floor"
	"github.com/skyrisegames/skytower/server/internal/domain/rules"
	"github.com/skyrisegames/skytower/server/internal/events"
	"github.com/skyrisegames/skytower/server/internal/platform/logger"
	"github.com/skyrisegames/skytower/server/internal/platform/metrics"
	"github.com/skyrisegames/skytower/server/internal/worldmap"
)

// MaxTowerFloors is the hard ceiling regardless of map settings.
const MaxTowerFloors = 300

// StartingFloors is how many empty floors a new tower opens with.
const StartingFloors = 3

// randomEventChance gates the per-business event roll each tick.
const randomEventChance = 0.01

// eventWeights is the cumulative-roll table for business events. Checked in
// order; the first bucket the roll lands in wins.
var eventWeights = []struct {
	kind   business.EventKind
	weight float64
}{
	{business.EventSpecialPromotion, 0.3},
	{business.EventCelebrityVisit, 0.1},
	{business.EventStaffShortage, 0.2},
	{business.EventEquipmentFailure, 0.2},
	{business.EventHealthInspection, 0.15},
	{business.EventRenovation, 0.05},
}

// Tower aggregates floors and businesses and advances them each tick. It is
// not safe for concurrent use; the engine serializes access.
type Tower struct {
	eventLog *events.EventLog // may be nil in tests
	logger   *logger.Logger
	worldMap worldmap.Map
	rng      *rand.Rand

	floors     []*floor.Floor
	businesses []*business.Business

	reputation    float64
	totalVisitors int
}

// NewTower creates a tower with the starting floors on the given map.
// eventLog may be nil for headless use.
func NewTower(worldMap worldmap.Map, eventLog *events.EventLog, log *logger.Logger) *Tower {
	t := &Tower{
		eventLog:   eventLog,
		logger:     log,
		worldMap:   worldMap,
		rng:        rand.New(rand.NewSource(time.Now().UnixNano())),
		reputation: 50,
	}
	for i := 0; i < StartingFloors; i++ {
		t.floors = append(t.floors, floor.New(i))
	}
	return t
}

// SetSeed makes the tower's random rolls reproducible.
func (t *Tower) SetSeed(seed int64) {
	t.rng = rand.New(rand.NewSource(seed))
}

func (t *Tower) maxFloors() int {
	max := t.worldMap.MaxFloors()
	if max > MaxTowerFloors {
		max = MaxTowerFloors
	}
	return max
}

// AddFloor appends one empty floor, bounded by the map's limit.
func (t *Tower) AddFloor() bool {
	if len(t.floors) >= t.maxFloors() {
		return false
	}
	t.floors = append(t.floors, floor.New(len(t.floors)))
	return true
}

// growTo extends the floor slice so that floors [0, n) exist.
func (t *Tower) growTo(n int) {
	for len(t.floors) < n {
		t.floors = append(t.floors, floor.New(len(t.floors)))
	}
}

// CanPlace reports whether a business of type bt can be placed with its
// lowest floor at floorNum, with a human-readable reason when it cannot.
// Placement may grow the tower to cover the footprint, so the check is
// against the map limit, not the current floor count.
func (t *Tower) CanPlace(bt business.Type, floorNum int) (bool, string) {
	cfg, ok := business.Catalog[bt]
	if !ok {
		return false, fmt.Sprintf("unknown business type %q", bt)
	}
	if floorNum < 0 {
		return false, "floor must be non-negative"
	}
	top := floorNum + cfg.Size
	if top > t.maxFloors() {
		return false, fmt.Sprintf("footprint %d-%d exceeds the %d floor limit", floorNum, top-1, t.maxFloors())
	}
	if !t.worldMap.ValidateBuild(floorNum, bt) {
		return false, fmt.Sprintf("the map does not allow %s at floor %d", bt, floorNum)
	}
	for i := floorNum; i < top && i < len(t.floors); i++ {
		if t.floors[i].Occupied {
			return false, fmt.Sprintf("floor %d is occupied", i)
		}
	}
	return true, ""
}

// AddBusiness places a new business. All validation happens before any
// mutation, so a failed placement leaves the tower untouched. The floor
// slice grows to cover the footprint.
func (t *Tower) AddBusiness(bt business.Type, floorNum int) (*business.Business, bool) {
	if ok, reason := t.CanPlace(bt, floorNum); !ok {
		if t.logger != nil {
			t.logger.Warn("placement rejected: " + reason)
		}
		metrics.Get().RecordRejectedCommand()
		return nil, false
	}

	b := business.New(bt, floorNum)
	t.growTo(floorNum + b.Size())
	for i := floorNum; i < floorNum+b.Size(); i++ {
		t.floors[i].Assign(b)
	}
	t.businesses = append(t.businesses, b)
	metrics.Get().RecordPlacement(false)

	if t.logger != nil {
		t.logger.Event(string(events.EventTypeBusinessPlaced), string(bt), fmt.Sprintf("floor %d, size %d", floorNum, b.Size()))
	}
	return b, true
}

// RemoveBusiness removes the business anchored or spanning floorNum,
// clearing every floor it occupies.
func (t *Tower) RemoveBusiness(floorNum int) bool {
	if floorNum < 0 || floorNum >= len(t.floors) {
		return false
	}
	b := t.floors[floorNum].Business
	if b == nil {
		return false
	}
	for i := b.Floor; i < b.Floor+b.Size() && i < len(t.floors); i++ {
		t.floors[i].Clear()
	}
	for i, other := range t.businesses {
		if other == b {
			t.businesses = append(t.businesses[:i], t.businesses[i+1:]...)
			break
		}
	}
	metrics.Get().RecordPlacement(true)
	if t.logger != nil {
		t.logger.Event(string(events.EventTypeBusinessRemoved), string(b.Type), fmt.Sprintf("floor %d", b.Floor))
	}
	return true
}

// BusinessAt returns the business occupying floorNum, or nil.
func (t *Tower) BusinessAt(floorNum int) *business.Business {
	if floorNum < 0 || floorNum >= len(t.floors) {
		return nil
	}
	return t.floors[floorNum].Business
}

// Businesses returns the live business slice. Callers must not mutate it.
func (t *Tower) Businesses() []*business.Business {
	return t.businesses
}

// FloorCount returns the current number of floors.
func (t *Tower) FloorCount() int {
	return len(t.floors)
}

// Population is the total customer count across the tower as of the last
// tick.
func (t *Tower) Population() int {
	return t.totalVisitors
}

// Reputation returns the tower's reputation score [0,100].
func (t *Tower) Reputation() float64 {
	return t.reputation
}

// StarRating converts reputation into a 1-5 star display value.
func (t *Tower) StarRating() int {
	stars := 1 + int(t.reputation/20)
	if stars > 5 {
		stars = 5
	}
	return stars
}

// neighborsOf groups the other businesses' types by their floor distance
// from b (distance between originating floors).
func (t *Tower) neighborsOf(b *business.Business) map[int][]business.Type {
	neighbors := make(map[int][]business.Type)
	for _, other := range t.businesses {
		if other == b {
			continue
		}
		d := other.Floor - b.Floor
		if d < 0 {
			d = -d
		}
		neighbors[d] = append(neighbors[d], other.Type)
	}
	return neighbors
}

// Tick advances every business by dtDays: interactions are recomputed from
// scratch, random events rolled, entities updated, then floor traffic and
// reputation are refreshed.
func (t *Tower) Tick(dtDays, hour float64, day int, spawnMultiplier float64) {
	for _, b := range t.businesses {
		result := rules.Calculate(b.Type, t.neighborsOf(b))
		b.ApplyInteractions(result.Bonus, result.Combos)

		if b.Open {
			t.rollRandomEvent(b, day)
		}
		b.Update(dtDays, hour, spawnMultiplier)
	}

	t.refreshTraffic()
	t.updateReputation()
}

// rollRandomEvent gives each open business a small chance per tick of a
// weighted random event.
func (t *Tower) rollRandomEvent(b *business.Business, day int) {
	if t.rng.Float64() >= randomEventChance {
		return
	}
	roll := t.rng.Float64()
	cumulative := 0.0
	for _, w := range eventWeights {
		cumulative += w.weight
		if roll < cumulative {
			b.TriggerEvent(w.kind)
			t.recordBusinessEvent(b, w.kind, day)
			return
		}
	}
}

func (t *Tower) recordBusinessEvent(b *business.Business, kind business.EventKind, day int) {
	if t.logger != nil {
		t.logger.Event(string(events.EventTypeBusinessEvent), string(b.Type), string(kind))
	}
	if t.eventLog == nil {
		return
	}
	t.eventLog.Append(events.GameEvent{
		ID:        events.GenerateEventID(),
		Timestamp: time.Now(),
		Type:      events.EventTypeBusinessEvent,
		ActorID:   string(b.Type),
		TargetID:  fmt.Sprintf("floor-%d", b.Floor),
		Payload:   map[string]interface{}{"event": string(kind)},
		SimDay:    day,
	})
	t.eventLog.Notify(events.Notification{
		Kind:     events.EventTypeBusinessEvent,
		Message:  fmt.Sprintf("%s on floor %d: %s", b.Type, b.Floor, kind),
		Priority: events.PriorityMedium,
	})
}

// refreshTraffic redistributes each business's customers across its floors
// and recomputes the tower population.
func (t *Tower) refreshTraffic() {
	total := 0
	for _, f := range t.floors {
		f.Traffic = 0
	}
	for _, b := range t.businesses {
		total += b.Customers
		// Integer division drops up to Size()-1 customers from the floor
		// display; the population total still counts them.
		perFloor := b.Customers / b.Size()
		for i := b.Floor; i < b.Floor+b.Size() && i < len(t.floors); i++ {
			t.floors[i].Traffic = perFloor
		}
	}
	t.totalVisitors = total
}

// updateReputation blends the previous score with current averages. With no
// businesses the score decays toward zero, which matches an empty tower
// having nothing to be famous for.
func (t *Tower) updateReputation() {
	var satSum, synSum float64
	for _, b := range t.businesses {
		satSum += b.Satisfaction
		synSum += b.SynergyBonus
	}
	n := float64(len(t.businesses))
	var avgSat, avgSyn float64
	if n > 0 {
		avgSat = satSum / n
		avgSyn = synSum / n
	}
	t.reputation = t.reputation*0.9 + avgSat*0.07 + avgSyn*100*0.03
	if t.reputation > 100 {
		t.reputation = 100
	}
	if t.reputation < 0 {
		t.reputation = 0
	}
}

// FloorInfo is a read-only snapshot of one floor.
type FloorInfo struct {
	Number       int     `json:"number"`
	Occupied     bool    `json:"occupied"`
	Maintenance  float64 `json:"maintenance"`
	Traffic      int     `json:"traffic"`
	BusinessType string  `json:"business_type,omitempty"`
	BusinessOpen bool    `json:"business_open,omitempty"`
}

// FloorStats snapshots floorNum, with ok=false when out of range.
func (t *Tower) FloorStats(floorNum int) (FloorInfo, bool) {
	if floorNum < 0 || floorNum >= len(t.floors) {
		return FloorInfo{}, false
	}
	f := t.floors[floorNum]
	info := FloorInfo{
		Number:      f.Number,
		Occupied:    f.Occupied,
		Maintenance: f.Maintenance,
		Traffic:     f.Traffic,
	}
	if f.Business != nil {
		info.BusinessType = string(f.Business.Type)
		info.BusinessOpen = f.Business.Open
	}
	return info, true
}

// AllFloorStats snapshots every floor bottom to top.
func (t *Tower) AllFloorStats() []FloorInfo {
	out := make([]FloorInfo, 0, len(t.floors))
	for _, f := range t.floors {
		info, _ := t.FloorStats(f.Number)
		out = append(out, info)
	}
	return out
}

// Stats is the tower-level snapshot served to clients.
type Stats struct {
	MapName         string  `json:"map_name"`
	Floors          int     `json:"floors"`
	MaxFloors       int     `json:"max_floors"`
	Businesses      int     `json:"businesses"`
	Population      int     `json:"population"`
	Reputation      float64 `json:"reputation"`
	StarRating      int     `json:"star_rating"`
	AvgSatisfaction float64 `json:"avg_satisfaction"`
	AvgSynergy      float64 `json:"avg_synergy"`
	TotalIncome     float64 `json:"total_income"`
}

// Stats computes the tower snapshot.
func (t *Tower) Stats() Stats {
	s := Stats{
		MapName:    t.worldMap.Name(),
		Floors:     len(t.floors),
		MaxFloors:  t.maxFloors(),
		Businesses: len(t.businesses),
		Population: t.totalVisitors,
		Reputation: t.reputation,
		StarRating: t.StarRating(),
	}
	if len(t.businesses) == 0 {
		return s
	}
	for _, b := range t.businesses {
		s.AvgSatisfaction += b.Satisfaction
		s.AvgSynergy += b.SynergyBonus
		s.TotalIncome += b.ActualIncome
	}
	n := float64(len(t.businesses))
	s.AvgSatisfaction /= n
	s.AvgSynergy /= n
	return s
}
