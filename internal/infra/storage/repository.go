// Package storage provides the persistence layer for the tower server.
// This package implements the repository pattern to keep the domain pure.
package storage

import (
	"context"
	"time"
)

// GameEvent mirrors the domain event structure for persistence.
// The domain package should NOT import this; use interfaces instead.
type GameEvent struct {
	ID        string                 `json:"id" db:"id"`
	TowerID   string                 `json:"tower_id" db:"tower_id"`
	Timestamp time.Time              `json:"timestamp" db:"timestamp"`
	SimTime   time.Time              `json:"sim_time" db:"sim_time"`
	EventType string                 `json:"event_type" db:"event_type"`
	ActorID   string                 `json:"actor_id" db:"actor_id"`
	TargetID  string                 `json:"target_id" db:"target_id"`
	Payload   map[string]interface{} `json:"payload" db:"payload"`
	SimDay    int                    `json:"sim_day" db:"sim_day"`
}

// EventRepository defines the interface for event persistence.
// The engine uses this interface; the implementation is in infra.
type EventRepository interface {
	// Append adds a new event to the immutable ledger.
	Append(ctx context.Context, event GameEvent) error

	// GetByTowerID retrieves all events for a tower (for replay).
	GetByTowerID(ctx context.Context, towerID string) ([]GameEvent, error)

	// GetBySimDay retrieves all events from a specific simulated day.
	GetBySimDay(ctx context.Context, towerID string, day int) ([]GameEvent, error)

	// GetByEventType retrieves all events of a specific type.
	GetByEventType(ctx context.Context, towerID string, eventType string) ([]GameEvent, error)

	// LatestByType retrieves the most recent event of a type, or nil.
	LatestByType(ctx context.Context, towerID string, eventType string) (*GameEvent, error)
}

// TowerSnapshot is the periodically persisted tower-level state used to
// restore a game on boot.
type TowerSnapshot struct {
	TowerID     string    `json:"tower_id" db:"tower_id"`
	MapName     string    `json:"map_name" db:"map_name"`
	SimTime     time.Time `json:"sim_time" db:"sim_time"`
	SimDay      int       `json:"sim_day" db:"sim_day"`
	Balance     float64   `json:"balance" db:"balance"`
	Reputation  float64   `json:"reputation" db:"reputation"`
	Population  int       `json:"population" db:"population"`
	LastUpdated time.Time `json:"last_updated" db:"last_updated"`
}

// BusinessSnapshot is the persisted state of one placed business.
type BusinessSnapshot struct {
	TowerID      string    `json:"tower_id" db:"tower_id"`
	Floor        int       `json:"floor" db:"floor"`
	BusinessType string    `json:"business_type" db:"business_type"`
	Popularity   float64   `json:"popularity" db:"popularity"`
	Satisfaction float64   `json:"satisfaction" db:"satisfaction"`
	Customers    int       `json:"customers" db:"customers"`
	Open         bool      `json:"open" db:"open"`
	LastUpdated  time.Time `json:"last_updated" db:"last_updated"`
}

// SnapshotRepository defines the interface for state snapshots.
type SnapshotRepository interface {
	// UpsertTower updates or inserts the tower-level snapshot.
	UpsertTower(ctx context.Context, snapshot TowerSnapshot) error

	// GetTower retrieves the tower snapshot, or nil when none exists.
	GetTower(ctx context.Context, towerID string) (*TowerSnapshot, error)

	// UpsertBusiness updates or inserts one business snapshot.
	UpsertBusiness(ctx context.Context, snapshot BusinessSnapshot) error

	// GetBusinesses retrieves every business snapshot for a tower, bottom
	// floor first.
	GetBusinesses(ctx context.Context, towerID string) ([]BusinessSnapshot, error)

	// DeleteBusiness removes the snapshot for a demolished business.
	DeleteBusiness(ctx context.Context, towerID string, floor int) error
}
