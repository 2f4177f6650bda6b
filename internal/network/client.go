package network

import (
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/gorilla/websocket"

	"github.com/skyrisegames/skytower/server/internal/domain/business"
	"github.com/skyrisegames/skytower/server/internal/platform/metrics"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second
	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second
	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10
	// Maximum message size allowed from peer.
	maxMessageSize = 1024
	// Minimum gap between commands from a single client.
	commandCooldown = 500 * time.Millisecond
)

// PlayerCommand represents an incoming command from the frontend.
type PlayerCommand struct {
	Type         string          `json:"type"` // "PLACE_BUSINESS", "SET_SPEED", etc.
	Floor        int             `json:"floor"`
	BusinessType string          `json:"business_type"`
	Speed        string          `json:"speed"`
	DelayDays    float64         `json:"delay_days"`
	Message      string          `json:"message"`
	Payload      json.RawMessage `json:"payload"` // Command-specific data
}

// CommandAck is sent back to the issuing client after every command.
type CommandAck struct {
	Type    string `json:"type"`
	Command string `json:"command"`
	OK      bool   `json:"ok"`
	Reason  string `json:"reason,omitempty"`
}

// Client holds one WebSocket connection and its outbound queue.
type Client struct {
	hub             *Hub
	conn            *websocket.Conn
	send            chan []byte
	lastCommandTime time.Time
}

// NewClient creates a new WebSocket client and returns it.
func NewClient(hub *Hub, conn *websocket.Conn) *Client {
	return &Client{
		hub:  hub,
		conn: conn,
		send: make(chan []byte, 256),
	}
}

// Register adds the client to the hub.
func (c *Client) Register() {
	c.hub.register <- c
}

// ReadPump pumps messages from the websocket connection to the engine.
func (c *Client) ReadPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()
	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})
	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("error: %v", err)
			}
			break
		}
		metrics.Get().RecordWSMessage(true)

		var cmd PlayerCommand
		if err := json.Unmarshal(message, &cmd); err != nil {
			c.hub.logger.Error("Failed to parse PlayerCommand from WebSocket. err: " + err.Error())
			continue
		}

		c.handleCommand(cmd)
	}
}

func (c *Client) handleCommand(cmd PlayerCommand) {
	// Rate limiting check
	if time.Since(c.lastCommandTime) < commandCooldown {
		c.hub.logger.Warn("Rate limit exceeded for client command " + cmd.Type)
		c.ack(cmd.Type, false, "too many commands, slow down")
		return
	}
	c.lastCommandTime = time.Now()

	sink := c.hub.engine

	switch cmd.Type {
	case "PLACE_BUSINESS":
		ok, reason := sink.PlaceBusiness(business.Type(cmd.BusinessType), cmd.Floor)
		if !ok {
			metrics.Get().RecordRejectedCommand()
		}
		c.ack(cmd.Type, ok, reason)
		c.hub.logger.Event("PLAYER_COMMAND", cmd.Type, fmt.Sprintf("%s at floor %d ok=%v", cmd.BusinessType, cmd.Floor, ok))

	case "REMOVE_BUSINESS":
		ok := sink.RemoveBusiness(cmd.Floor)
		reason := ""
		if !ok {
			reason = fmt.Sprintf("no business at floor %d", cmd.Floor)
			metrics.Get().RecordRejectedCommand()
		}
		c.ack(cmd.Type, ok, reason)

	case "SET_SPEED":
		sink.SetSpeed(cmd.Speed)
		c.ack(cmd.Type, true, "")

	case "TOGGLE_PAUSE":
		paused := sink.TogglePause()
		c.ack(cmd.Type, true, fmt.Sprintf("paused=%v", paused))

	case "SCHEDULE_CUSTOM":
		var payload map[string]interface{}
		if len(cmd.Payload) > 0 {
			if err := json.Unmarshal(cmd.Payload, &payload); err != nil {
				c.ack(cmd.Type, false, "invalid payload")
				return
			}
		}
		sink.ScheduleCustom(cmd.DelayDays, cmd.Message, payload)
		c.ack(cmd.Type, true, "")

	default:
		c.hub.logger.Warn("Unknown PlayerCommand type: " + cmd.Type)
		c.ack(cmd.Type, false, "unknown command")
	}
}

// ack queues a command acknowledgement for this client only.
func (c *Client) ack(command string, ok bool, reason string) {
	data, err := json.Marshal(CommandAck{Type: "ACK", Command: command, OK: ok, Reason: reason})
	if err != nil {
		return
	}
	select {
	case c.send <- data:
	default:
		// Queue full; the client will still see the state change in the
		// next broadcast.
	}
}

// WritePump pumps messages from the hub to the websocket connection.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()
	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// The hub closed the channel.
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			w, err := c.conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(message)

			// Add queued messages to the current websocket message.
			n := len(c.send)
			for i := 0; i < n; i++ {
				w.Write([]byte{'\n'})
				w.Write(<-c.send)
			}

			if err := w.Close(); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
