package ws

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Vasu1712/worship-sync/internal/models"
	"github.com/Vasu1712/worship-sync/internal/protocol"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// Client is one relay connection. rooms and closed are owned by the hub
// goroutine.
type Client struct {
	ID     string
	Send   chan []byte
	Conn   *websocket.Conn // interface for Gorilla/WebSocket
	rooms  map[string]bool
	closed bool
}

// NewClient wraps conn with a send buffer of the given size.
func NewClient(conn *websocket.Conn, buffer int) *Client {
	return &Client{
		ID:    uuid.NewString(),
		Send:  make(chan []byte, buffer),
		Conn:  conn,
		rooms: make(map[string]bool),
	}
}

// Snapshot is the cached state of a room: every slide, plan and overlay
// field seen so far, merged, plus when it last changed.
type Snapshot struct {
	State     models.Delta `json:"state"`
	UpdatedAt time.Time    `json:"updatedAt"`
}

// Room groups the connections of one presentation session.
type Room struct {
	ID         string
	clients    map[*Client]bool
	snapshot   atomic.Pointer[Snapshot]
	emptySince time.Time
	hosted     bool // fed by an in-process presenter, never evicted
}

// Inbound is a frame read from a client.
type Inbound struct {
	Client   *Client
	Envelope protocol.Envelope
}

// Outbound is a delta published by an in-process presenter.
type Outbound struct {
	Room  string
	Delta models.Delta
}

// CommandHandler is invoked for every remote-command relayed through a room.
type CommandHandler func(room, command string)

type Hub struct {
	rooms      map[string]*Room // roomID -> room
	Unregister chan *Client
	Inbound    chan Inbound
	outbound   chan Outbound
	done       chan struct{}
	idleTTL    time.Duration
	onCommand  CommandHandler
	mu         sync.RWMutex
}

// NewHub creates a hub. Rooms left without members are destroyed after
// idleTTL; zero keeps them for the life of the process.
func NewHub(idleTTL time.Duration) *Hub {
	return &Hub{
		rooms:      make(map[string]*Room),
		Unregister: make(chan *Client),
		Inbound:    make(chan Inbound),
		outbound:   make(chan Outbound, 256),
		done:       make(chan struct{}),
		idleTTL:    idleTTL,
	}
}

// OnCommand registers a remote-command observer. It runs on the hub
// goroutine and must not block. Call before Run.
func (h *Hub) OnCommand(fn CommandHandler) {
	h.onCommand = fn
}

// Run processes joins, frames and leaves until ctx is cancelled. All room
// mutations happen here, one event at a time.
func (h *Hub) Run(ctx context.Context) {
	var sweep <-chan time.Time
	if h.idleTTL > 0 {
		ticker := time.NewTicker(max(min(h.idleTTL/2, time.Minute), time.Millisecond))
		defer ticker.Stop()
		sweep = ticker.C
	}
	defer h.shutdown()

	for {
		select {
		case <-ctx.Done():
			return
		case msg := <-h.Inbound:
			h.handle(msg.Client, msg.Envelope)
		case client := <-h.Unregister:
			h.leaveAll(client)
		case out := <-h.outbound:
			h.publish(out)
		case now := <-sweep:
			h.sweep(now)
		}
	}
}

func (h *Hub) shutdown() {
	close(h.done)
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, room := range h.rooms {
		for client := range room.clients {
			h.closeClient(client)
		}
	}
	h.rooms = make(map[string]*Room)
}

// Receive hands a frame to the hub. It returns false once the hub stopped.
func (h *Hub) Receive(client *Client, env protocol.Envelope) bool {
	select {
	case h.Inbound <- Inbound{Client: client, Envelope: env}:
		return true
	case <-h.done:
		return false
	}
}

// Leave removes client from every room it joined.
func (h *Hub) Leave(client *Client) {
	select {
	case h.Unregister <- client:
	case <-h.done:
	}
}

// Publish queues a delta for every member of room without blocking. When
// the queue is full the delta is dropped.
func (h *Hub) Publish(room string, d models.Delta) {
	select {
	case h.outbound <- Outbound{Room: room, Delta: d}:
	default:
		log.Printf("[Relay] Outbound queue full, dropping delta for room %s", room)
	}
}

// RoomSink publishes store deltas into one room.
type RoomSink struct {
	Hub  *Hub
	Room string
}

func (s RoomSink) Publish(d models.Delta) { s.Hub.Publish(s.Room, d) }

// GetSnapshot returns the cached state of a room.
func (h *Hub) GetSnapshot(roomID string) (Snapshot, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	room, ok := h.rooms[roomID]
	if !ok {
		return Snapshot{}, false
	}
	snap := room.snapshot.Load()
	if snap == nil {
		return Snapshot{}, true
	}
	return *snap, true
}

// GetActiveRoomMembersCount returns the number of live connections in a room.
func (h *Hub) GetActiveRoomMembersCount(roomID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if room, ok := h.rooms[roomID]; ok {
		return len(room.clients)
	}
	return 0
}

func (h *Hub) handle(client *Client, env protocol.Envelope) {
	switch env.Event {
	case protocol.EventJoinRoom:
		var req protocol.JoinRoom
		if err := json.Unmarshal(env.Data, &req); err != nil || req.Room == "" {
			log.Printf("[Relay] Ignoring join-room from %s: invalid payload", client.ID)
			return
		}
		h.join(client, req.Room)

	case protocol.EventSlideUpdate:
		update, err := protocol.DecodeSlideUpdate(env.Data)
		if err != nil {
			log.Printf("[Relay] Ignoring slide-update from %s: %v", client.ID, err)
			return
		}
		frame, err := protocol.Encode(protocol.EventSlideUpdate, protocol.SlideUpdate{Delta: update.Delta})
		if err != nil {
			log.Printf("[Relay] Failed to encode slide-update: %v", err)
			return
		}
		for _, room := range h.targetRooms(client, update.Room) {
			h.remember(room, update.Delta)
			h.fanOut(room, client, frame)
		}

	case protocol.EventRemoteCommand:
		var cmd protocol.RemoteCommand
		if err := json.Unmarshal(env.Data, &cmd); err != nil {
			// Bare command strings are still relayed to the sender's rooms.
			cmd = protocol.RemoteCommand{}
			_ = json.Unmarshal(env.Data, &cmd.Command)
		}
		frame, err := json.Marshal(env)
		if err != nil {
			return
		}
		for _, room := range h.targetRooms(client, cmd.Room) {
			h.fanOut(room, client, frame)
			if h.onCommand != nil && cmd.Command != "" {
				h.onCommand(room.ID, cmd.Command)
			}
		}

	case protocol.EventBlankToggle, protocol.EventLogoToggle, protocol.EventTimerToggle:
		toggle, err := protocol.DecodeToggle(env.Data)
		if err != nil {
			log.Printf("[Relay] Ignoring %s from %s: %v", env.Event, client.ID, err)
			return
		}
		d, _ := protocol.ToggleDelta(env.Event, toggle.Value)
		frame, err := protocol.Encode(env.Event, toggle.Value)
		if err != nil {
			return
		}
		for _, room := range h.targetRooms(client, toggle.Room) {
			h.remember(room, d)
			h.fanOut(room, client, frame)
		}

	default:
		log.Printf("[Relay] Ignoring unknown event %q from %s", env.Event, client.ID)
	}
}

// targetRooms resolves the rooms an event applies to: the named room when
// one is given, otherwise every room the sender joined.
func (h *Hub) targetRooms(client *Client, named string) []*Room {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if named != "" {
		if room, ok := h.rooms[named]; ok {
			return []*Room{room}
		}
		return nil
	}
	var out []*Room
	for id := range client.rooms {
		if room, ok := h.rooms[id]; ok {
			out = append(out, room)
		}
	}
	return out
}

func (h *Hub) room(id string) *Room {
	room, ok := h.rooms[id]
	if !ok {
		room = &Room{ID: id, clients: make(map[*Client]bool), emptySince: time.Now()}
		h.rooms[id] = room
		log.Printf("[Relay] Room created: %s", id)
	}
	return room
}

func (h *Hub) join(client *Client, roomID string) {
	h.mu.Lock()
	room := h.room(roomID)
	room.clients[client] = true
	client.rooms[roomID] = true
	members := len(room.clients)
	h.mu.Unlock()

	log.Printf("[Relay] Client %s joined room %s. Active members: %d", client.ID, roomID, members)

	// Resync: always answer with the cached slide, even when there is none.
	state := models.Delta{}.WithCurrentSlide(nil)
	if snap := room.snapshot.Load(); snap != nil {
		state = state.Merge(snap.State)
	}
	frames, err := protocol.Frames(state)
	if err != nil {
		log.Printf("[Relay] Failed to encode resync for room %s: %v", roomID, err)
		return
	}
	for _, frame := range frames {
		if !h.deliver(client, frame) {
			return
		}
	}
}

// remember swaps in a new snapshot with d merged over the previous one.
func (h *Hub) remember(room *Room, d models.Delta) {
	prev := models.Delta{}
	if snap := room.snapshot.Load(); snap != nil {
		prev = snap.State
	}
	room.snapshot.Store(&Snapshot{State: prev.Merge(d), UpdatedAt: time.Now()})
}

func (h *Hub) publish(out Outbound) {
	h.mu.Lock()
	room := h.room(out.Room)
	room.hosted = true
	h.mu.Unlock()

	h.remember(room, out.Delta)
	frames, err := protocol.Frames(out.Delta)
	if err != nil {
		log.Printf("[Relay] Failed to encode delta for room %s: %v", out.Room, err)
		return
	}
	for _, frame := range frames {
		h.fanOut(room, nil, frame)
	}
}

// fanOut sends frame to every member except sender. Sends never block; a
// member whose buffer is full is disconnected.
func (h *Hub) fanOut(room *Room, sender *Client, frame []byte) {
	h.mu.RLock()
	targets := make([]*Client, 0, len(room.clients))
	for client := range room.clients {
		if client != sender {
			targets = append(targets, client)
		}
	}
	h.mu.RUnlock()

	for _, client := range targets {
		h.deliver(client, frame)
	}
}

func (h *Hub) deliver(client *Client, frame []byte) bool {
	if client.closed {
		return false
	}
	select {
	case client.Send <- frame:
		return true
	default:
		log.Printf("[Relay] Client %s is not keeping up, disconnecting", client.ID)
		h.leaveAll(client)
		return false
	}
}

func (h *Hub) leaveAll(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for roomID := range client.rooms {
		room, ok := h.rooms[roomID]
		if !ok {
			continue
		}
		delete(room.clients, client)
		if len(room.clients) == 0 {
			room.emptySince = time.Now()
		}
		log.Printf("[Relay] Client %s left room %s. Active members: %d", client.ID, roomID, len(room.clients))
	}
	client.rooms = make(map[string]bool)
	h.closeClient(client)
}

func (h *Hub) closeClient(client *Client) {
	if !client.closed {
		client.closed = true
		close(client.Send)
	}
}

// sweep destroys rooms that have had no members and no updates for longer
// than idleTTL. Hosted rooms live as long as the hub.
func (h *Hub) sweep(now time.Time) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for id, room := range h.rooms {
		if room.hosted || len(room.clients) > 0 {
			continue
		}
		idleSince := room.emptySince
		if snap := room.snapshot.Load(); snap != nil && snap.UpdatedAt.After(idleSince) {
			idleSince = snap.UpdatedAt
		}
		if now.Sub(idleSince) >= h.idleTTL {
			delete(h.rooms, id)
			log.Printf("[Relay] Room %s evicted after %s idle", id, h.idleTTL)
		}
	}
}
