package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"
)

// SQLiteEventRepository implements EventRepository for SQLite.
type SQLiteEventRepository struct {
	db *sql.DB
}

func NewSQLiteEventRepository(db *sql.DB) *SQLiteEventRepository {
	return &SQLiteEventRepository{db: db}
}

func (r *SQLiteEventRepository) Append(ctx context.Context, event GameEvent) error {
	payloadBytes, err := json.Marshal(event.Payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	query := `
		INSERT INTO events (id, tower_id, timestamp, sim_time, event_type, actor_id, target_id, payload, sim_day)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err = r.db.ExecContext(ctx, query,
		event.ID, event.TowerID, event.Timestamp, event.SimTime, event.EventType,
		event.ActorID, event.TargetID, string(payloadBytes), event.SimDay,
	)
	if err != nil {
		return fmt.Errorf("failed to append event: %w", err)
	}
	return nil
}

const eventColumns = `id, tower_id, timestamp, sim_time, event_type, actor_id, target_id, payload, sim_day`

func (r *SQLiteEventRepository) getMany(ctx context.Context, query string, args ...interface{}) ([]GameEvent, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []GameEvent
	for rows.Next() {
		var e GameEvent
		var payloadStr string
		err := rows.Scan(
			&e.ID, &e.TowerID, &e.Timestamp, &e.SimTime, &e.EventType,
			&e.ActorID, &e.TargetID, &payloadStr, &e.SimDay,
		)
		if err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(payloadStr), &e.Payload); err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

func (r *SQLiteEventRepository) GetByTowerID(ctx context.Context, towerID string) ([]GameEvent, error) {
	query := `SELECT ` + eventColumns + ` FROM events WHERE tower_id = ? ORDER BY timestamp ASC`
	return r.getMany(ctx, query, towerID)
}

func (r *SQLiteEventRepository) GetBySimDay(ctx context.Context, towerID string, day int) ([]GameEvent, error) {
	query := `SELECT ` + eventColumns + ` FROM events WHERE tower_id = ? AND sim_day = ? ORDER BY timestamp ASC`
	return r.getMany(ctx, query, towerID, day)
}

func (r *SQLiteEventRepository) GetByEventType(ctx context.Context, towerID string, eventType string) ([]GameEvent, error) {
	query := `SELECT ` + eventColumns + ` FROM events WHERE tower_id = ? AND event_type = ? ORDER BY timestamp ASC`
	return r.getMany(ctx, query, towerID, eventType)
}

func (r *SQLiteEventRepository) LatestByType(ctx context.Context, towerID string, eventType string) (*GameEvent, error) {
	query := `SELECT ` + eventColumns + ` FROM events WHERE tower_id = ? AND event_type = ? ORDER BY timestamp DESC LIMIT 1`
	events, err := r.getMany(ctx, query, towerID, eventType)
	if err != nil {
		return nil, err
	}
	if len(events) == 0 {
		return nil, nil
	}
	return &events[0], nil
}

// ---------------------------------------------------------
// SQLiteSnapshotRepository
// ---------------------------------------------------------

type SQLiteSnapshotRepository struct {
	db *sql.DB
}

func NewSQLiteSnapshotRepository(db *sql.DB) *SQLiteSnapshotRepository {
	return &SQLiteSnapshotRepository{db: db}
}

func (r *SQLiteSnapshotRepository) UpsertTower(ctx context.Context, snapshot TowerSnapshot) error {
	query := `
		INSERT INTO tower_state (tower_id, map_name, sim_time, sim_day, balance, reputation, population, last_updated)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(tower_id) DO UPDATE SET
			map_name=excluded.map_name,
			sim_time=excluded.sim_time,
			sim_day=excluded.sim_day,
			balance=excluded.balance,
			reputation=excluded.reputation,
			population=excluded.population,
			last_updated=excluded.last_updated
	`
	_, err := r.db.ExecContext(ctx, query,
		snapshot.TowerID, snapshot.MapName, snapshot.SimTime, snapshot.SimDay,
		snapshot.Balance, snapshot.Reputation, snapshot.Population, time.Now(),
	)
	return err
}

func (r *SQLiteSnapshotRepository) GetTower(ctx context.Context, towerID string) (*TowerSnapshot, error) {
	query := `SELECT tower_id, map_name, sim_time, sim_day, balance, reputation, population, last_updated FROM tower_state WHERE tower_id = ?`
	var s TowerSnapshot
	err := r.db.QueryRowContext(ctx, query, towerID).Scan(
		&s.TowerID, &s.MapName, &s.SimTime, &s.SimDay, &s.Balance, &s.Reputation, &s.Population, &s.LastUpdated,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &s, nil
}

func (r *SQLiteSnapshotRepository) UpsertBusiness(ctx context.Context, snapshot BusinessSnapshot) error {
	query := `
		INSERT INTO business_snapshots (tower_id, floor, business_type, popularity, satisfaction, customers, open, last_updated)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(tower_id, floor) DO UPDATE SET
			business_type=excluded.business_type,
			popularity=excluded.popularity,
			satisfaction=excluded.satisfaction,
			customers=excluded.customers,
			open=excluded.open,
			last_updated=excluded.last_updated
	`
	_, err := r.db.ExecContext(ctx, query,
		snapshot.TowerID, snapshot.Floor, snapshot.BusinessType,
		snapshot.Popularity, snapshot.Satisfaction, snapshot.Customers, snapshot.Open, time.Now(),
	)
	return err
}

func (r *SQLiteSnapshotRepository) GetBusinesses(ctx context.Context, towerID string) ([]BusinessSnapshot, error) {
	query := `SELECT tower_id, floor, business_type, popularity, satisfaction, customers, open, last_updated FROM business_snapshots WHERE tower_id = ? ORDER BY floor ASC`
	rows, err := r.db.QueryContext(ctx, query, towerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var snaps []BusinessSnapshot
	for rows.Next() {
		var s BusinessSnapshot
		if err := rows.Scan(&s.TowerID, &s.Floor, &s.BusinessType, &s.Popularity, &s.Satisfaction, &s.Customers, &s.Open, &s.LastUpdated); err != nil {
			return nil, err
		}
		snaps = append(snaps, s)
	}
	return snaps, rows.Err()
}

func (r *SQLiteSnapshotRepository) DeleteBusiness(ctx context.Context, towerID string, floor int) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM business_snapshots WHERE tower_id = ? AND floor = ?`, towerID, floor)
	return err
}
