// Package network exposes the simulation to players: a WebSocket hub for
// live events and commands, plus a small REST surface for state reads.
package network

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/skyrisegames/skytower/server/internal/domain/business"
	"github.com/skyrisegames/skytower/server/internal/engine"
	"github.com/skyrisegames/skytower/server/internal/infra/cache"
	"github.com/skyrisegames/skytower/server/internal/platform/logger"
)

// API serves the REST endpoints backed by the engine's snapshot queries.
type API struct {
	engine  *engine.Engine
	towerID string
	stats   *cache.StatsCache
	hub     *Hub
	logger  *logger.Logger
}

// NewAPI creates the REST handler set. stats may be nil to disable caching.
func NewAPI(eng *engine.Engine, towerID string, stats *cache.StatsCache, hub *Hub, log *logger.Logger) *API {
	return &API{
		engine:  eng,
		towerID: towerID,
		stats:   stats,
		hub:     hub,
		logger:  log,
	}
}

// HandleState returns the combined game snapshot.
// GET /api/state
func (a *API) HandleState(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		a.jsonError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	a.jsonSuccess(w, a.engine.State())
}

// HandleTower returns tower-level stats, cached for a second.
// GET /api/tower
func (a *API) HandleTower(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		a.jsonError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	key := cache.TowerKey(a.towerID)
	if a.stats != nil {
		var cached engine.Stats
		if err := a.stats.GetJSON(r.Context(), key, &cached); err == nil {
			a.jsonSuccess(w, cached)
			return
		}
	}

	stats := a.engine.TowerStats()
	if a.stats != nil {
		_ = a.stats.SetJSON(r.Context(), key, stats)
	}
	a.jsonSuccess(w, stats)
}

// HandleFloors returns one floor (?floor=N) or all floors.
// GET /api/floors?floor=N
func (a *API) HandleFloors(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		a.jsonError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	floorStr := r.URL.Query().Get("floor")
	if floorStr == "" {
		a.jsonSuccess(w, a.engine.AllFloorStats())
		return
	}

	floorNum, err := strconv.Atoi(floorStr)
	if err != nil {
		a.jsonError(w, "Invalid floor number", http.StatusBadRequest)
		return
	}
	info, ok := a.engine.FloorStats(floorNum)
	if !ok {
		a.jsonError(w, "Floor not found", http.StatusNotFound)
		return
	}
	a.jsonSuccess(w, info)
}

// HandleEconomy returns the financial report.
// GET /api/economy
func (a *API) HandleEconomy(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		a.jsonError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	a.jsonSuccess(w, a.engine.FinancialReport())
}

// HandleCommand applies a player command over REST, mirroring the WebSocket
// command path.
// POST /api/command
func (a *API) HandleCommand(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		a.jsonError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var cmd PlayerCommand
	if err := json.NewDecoder(r.Body).Decode(&cmd); err != nil {
		a.jsonError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	ok, reason := applyCommand(a.engine, cmd)
	if a.stats != nil {
		a.stats.Invalidate(context.Background(), cache.TowerKey(a.towerID))
	}
	a.logger.Event("REST_COMMAND", cmd.Type, reason)
	a.jsonSuccess(w, CommandAck{Type: "ACK", Command: cmd.Type, OK: ok, Reason: reason})
}

// HandleWS upgrades the connection and starts the client pumps.
// GET /ws
func (a *API) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := Upgrader.Upgrade(w, r, nil)
	if err != nil {
		a.logger.Error("WebSocket upgrade failed: " + err.Error())
		return
	}
	client := NewClient(a.hub, conn)
	client.Register()
	go client.WritePump()
	go client.ReadPump()
}

// RegisterRoutes sets up the REST API routes.
func (a *API) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/api/state", a.HandleState)
	mux.HandleFunc("/api/tower", a.HandleTower)
	mux.HandleFunc("/api/floors", a.HandleFloors)
	mux.HandleFunc("/api/economy", a.HandleEconomy)
	mux.HandleFunc("/api/command", a.HandleCommand)
	mux.HandleFunc("/ws", a.HandleWS)
}

// applyCommand routes a decoded command to the engine, shared between the
// REST and WebSocket paths.
func applyCommand(sink CommandSink, cmd PlayerCommand) (bool, string) {
	switch cmd.Type {
	case "PLACE_BUSINESS":
		return sink.PlaceBusiness(business.Type(cmd.BusinessType), cmd.Floor)
	case "REMOVE_BUSINESS":
		if sink.RemoveBusiness(cmd.Floor) {
			return true, ""
		}
		return false, "no business at that floor"
	case "SET_SPEED":
		sink.SetSpeed(cmd.Speed)
		return true, ""
	case "TOGGLE_PAUSE":
		sink.TogglePause()
		return true, ""
	case "SCHEDULE_CUSTOM":
		var payload map[string]interface{}
		if len(cmd.Payload) > 0 {
			if err := json.Unmarshal(cmd.Payload, &payload); err != nil {
				return false, "invalid payload"
			}
		}
		sink.ScheduleCustom(cmd.DelayDays, cmd.Message, payload)
		return true, ""
	default:
		return false, "unknown command " + cmd.Type
	}
}

// jsonError sends an error response.
func (a *API) jsonError(w http.ResponseWriter, message string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}

// jsonSuccess sends a success response.
func (a *API) jsonSuccess(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(data)
}
