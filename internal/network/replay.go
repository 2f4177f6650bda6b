// Replay endpoint: JSON export of the tower's event history, filterable by
// day and type, for timeline viewers and debugging.

package network

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/skyrisegames/skytower/server/internal/events"
	"github.com/skyrisegames/skytower/server/internal/platform/logger"
)

// ReplayHandler provides the event history API.
type ReplayHandler struct {
	eventLog *events.EventLog
	logger   *logger.Logger
}

// NewReplayHandler creates a new replay handler.
func NewReplayHandler(el *events.EventLog, log *logger.Logger) *ReplayHandler {
	return &ReplayHandler{
		eventLog: el,
		logger:   log,
	}
}

// ReplayEvent is a sanitized event for public viewing.
type ReplayEvent struct {
	ID        string      `json:"id"`
	Timestamp string      `json:"timestamp"`
	SimTime   string      `json:"sim_time"`
	SimDay    int         `json:"sim_day"`
	Type      string      `json:"type"`
	Actor     string      `json:"actor"`
	Target    string      `json:"target,omitempty"`
	Summary   string      `json:"summary"`
	Details   interface{} `json:"details,omitempty"`
}

// ReplayResponse is the API response for an event replay.
type ReplayResponse struct {
	TotalEvents int           `json:"total_events"`
	FilteredBy  string        `json:"filtered_by,omitempty"`
	GeneratedAt string        `json:"generated_at"`
	Events      []ReplayEvent `json:"events"`
}

// HandleReplay returns the event history.
// GET /api/events/replay?day=N&type=BUSINESS_EVENT
func (rh *ReplayHandler) HandleReplay(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		rh.jsonError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	dayStr := r.URL.Query().Get("day")
	eventType := r.URL.Query().Get("type")

	allEvents := rh.eventLog.Replay()

	var replayEvents []ReplayEvent
	filterDesc := ""

	for _, e := range allEvents {
		if dayStr != "" {
			day, _ := strconv.Atoi(dayStr)
			if e.SimDay != day {
				continue
			}
			filterDesc = "Day " + dayStr
		}
		if eventType != "" && string(e.Type) != eventType {
			continue
		}
		replayEvents = append(replayEvents, rh.convertToReplayEvent(e))
	}

	response := ReplayResponse{
		TotalEvents: len(replayEvents),
		FilteredBy:  filterDesc,
		GeneratedAt: time.Now().Format(time.RFC3339),
		Events:      replayEvents,
	}

	rh.logger.Event("EVENT_REPLAY", "viewer", "Events:"+strconv.Itoa(len(replayEvents)))

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}

// HandleStats returns aggregate statistics over the event history.
// GET /api/events/stats
func (rh *ReplayHandler) HandleStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		rh.jsonError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	allEvents := rh.eventLog.Replay()

	stats := map[string]int{
		"total_events":    len(allEvents),
		"placements":      0,
		"removals":        0,
		"business_events": 0,
		"map_events":      0,
		"milestones":      0,
	}

	for _, e := range allEvents {
		switch e.Type {
		case events.EventTypeBusinessPlaced:
			stats["placements"]++
		case events.EventTypeBusinessRemoved:
			stats["removals"]++
		case events.EventTypeBusinessEvent:
			stats["business_events"]++
		case events.EventTypeMapEventStart:
			stats["map_events"]++
		case events.EventTypeMilestone:
			stats["milestones"]++
		}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"generated_at": time.Now().Format(time.RFC3339),
		"stats":        stats,
	})
}

// RegisterRoutes sets up the replay API routes.
func (rh *ReplayHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/api/events/replay", rh.HandleReplay)
	mux.HandleFunc("/api/events/stats", rh.HandleStats)
}

// convertToReplayEvent transforms an internal event to public format.
func (rh *ReplayHandler) convertToReplayEvent(e events.GameEvent) ReplayEvent {
	return ReplayEvent{
		ID:        e.ID,
		Timestamp: e.Timestamp.Format("15:04:05"),
		SimTime:   e.SimTime.Format("2006-01-02 15:04"),
		SimDay:    e.SimDay,
		Type:      string(e.Type),
		Actor:     e.ActorID,
		Target:    e.TargetID,
		Summary:   summarizeEvent(e),
		Details:   e.Payload,
	}
}

// summarizeEvent creates a human-readable summary.
func summarizeEvent(e events.GameEvent) string {
	switch e.Type {
	case events.EventTypeBusinessPlaced:
		return "A new business opened its doors."
	case events.EventTypeBusinessRemoved:
		return "A business was torn down."
	case events.EventTypeBusinessEvent:
		return "Something happened at a business."
	case events.EventTypeMapEventStart:
		return "A city-wide event began."
	case events.EventTypeMapEventEnd:
		return "A city-wide event ended."
	case events.EventTypeRushHour:
		return "Rush hour hit the tower."
	case events.EventTypeEconomyRollup:
		return "The day's books were closed."
	case events.EventTypeMilestone:
		return "The tower reached a milestone."
	case events.EventTypeSpeedChange:
		return "Simulation speed changed."
	case events.EventTypeTimeTick:
		return "Time marched on."
	default:
		return "Something happened."
	}
}

// jsonError sends an error response.
func (rh *ReplayHandler) jsonError(w http.ResponseWriter, message string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
