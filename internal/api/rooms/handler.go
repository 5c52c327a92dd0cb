package rooms

import (
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/Vasu1712/worship-sync/internal/protocol"
	"github.com/Vasu1712/worship-sync/internal/ws"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
	maxFrame   = 1 << 20
)

// RoomHandler serves the relay socket and room inspection endpoints.
type RoomHandler struct {
	Hub           *ws.Hub
	SendBuffer    int    // Per-connection outbound buffer
	AllowedOrigin string // "*" accepts any origin
}

// GetRoom returns the cached state and member count of a room.
func (h *RoomHandler) GetRoom(w http.ResponseWriter, r *http.Request) {
	roomID := mux.Vars(r)["room"]

	snap, ok := h.Hub.GetSnapshot(roomID)
	if !ok {
		http.Error(w, "Room not found", http.StatusNotFound)
		log.Printf("[Relay] Room not found: %s", roomID)
		return
	}

	var res struct {
		Room          string      `json:"room"`
		ActiveMembers int         `json:"activeMembers"`
		Snapshot      ws.Snapshot `json:"snapshot"`
	}
	res.Room = roomID
	res.ActiveMembers = h.Hub.GetActiveRoomMembersCount(roomID)
	res.Snapshot = snap

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(res)
}

func (h *RoomHandler) upgrader() *websocket.Upgrader {
	return &websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			if h.AllowedOrigin == "" || h.AllowedOrigin == "*" {
				return true
			}
			origin := r.Header.Get("Origin")
			return origin == "" || origin == h.AllowedOrigin
		},
	}
}

// ServeWS upgrades the connection and pumps frames between it and the hub.
// Rooms are joined with a join-room frame, not on connect.
func (h *RoomHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader().Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[Relay] Failed to upgrade WebSocket: %v", err)
		return
	}
	buffer := h.SendBuffer
	if buffer <= 0 {
		buffer = 256
	}
	client := ws.NewClient(conn, buffer)
	log.Printf("[Relay] Client connected: %s (%s)", client.ID, r.RemoteAddr)

	go h.writePump(client)
	h.readPump(client)
}

// readPump reads frames until the connection fails, then leaves all rooms.
func (h *RoomHandler) readPump(client *ws.Client) {
	conn := client.Conn
	defer func() {
		h.Hub.Leave(client)
		conn.Close()
		log.Printf("[Relay] Client disconnected: %s", client.ID)
	}()

	conn.SetReadLimit(maxFrame)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("[Relay] WebSocket read error for client %s: %v", client.ID, err)
			}
			return
		}
		var env protocol.Envelope
		if err := json.Unmarshal(data, &env); err != nil {
			log.Printf("[Relay] Dropping malformed frame from %s: %v", client.ID, err)
			continue
		}
		if !h.Hub.Receive(client, env) {
			return
		}
	}
}

// writePump drains the client's send buffer and keeps the connection alive.
func (h *RoomHandler) writePump(client *ws.Client) {
	conn := client.Conn
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		conn.Close()
	}()

	for {
		select {
		case message, ok := <-client.Send:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := conn.WriteMessage(websocket.TextMessage, message); err != nil {
				log.Printf("[Relay] WebSocket write error for client %s: %v", client.ID, err)
				return
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
