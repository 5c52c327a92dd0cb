// Package relayclient connects a store to the relay. Deltas are sent
// fire-and-forget: while disconnected they are dropped, and the join-room
// resync after the next connect is the only recovery.
package relayclient

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Vasu1712/worship-sync/internal/models"
	"github.com/Vasu1712/worship-sync/internal/protocol"
	"github.com/gorilla/websocket"
)

// Handler receives events relayed from other room members.
type Handler interface {
	HandleDelta(d models.Delta)
	HandleRemoteCommand(command string)
}

// Options configures a Client.
type Options struct {
	URL           string        // ws:// or wss:// address of the relay socket
	Room          string        // Room to join after every connect
	RetryInterval time.Duration // Delay between reconnect attempts
	SendBuffer    int           // Outbound frames buffered per connection
	OnStatus      func(connected bool)
}

// Client is a reconnecting relay connection.
type Client struct {
	opts      Options
	handler   Handler
	connected atomic.Bool

	mu   sync.Mutex
	send chan []byte // nil while disconnected
}

// New creates a client. Call Run to connect.
func New(opts Options, handler Handler) *Client {
	if opts.RetryInterval <= 0 {
		opts.RetryInterval = 2 * time.Second
	}
	if opts.SendBuffer <= 0 {
		opts.SendBuffer = 64
	}
	return &Client{opts: opts, handler: handler}
}

// Connected reports the transport status.
func (c *Client) Connected() bool { return c.connected.Load() }

// Run connects, joins the room and reads events, reconnecting until ctx is
// done.
func (c *Client) Run(ctx context.Context) error {
	for {
		err := c.session(ctx)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		log.Printf("[RelayClient] Connection to %s lost: %v", c.opts.URL, err)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(c.opts.RetryInterval):
		}
	}
}

// session runs one connection from dial to failure.
func (c *Client) session(ctx context.Context) error {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, c.opts.URL, nil)
	if err != nil {
		return fmt.Errorf("dial relay: %w", err)
	}
	defer conn.Close()

	join, err := protocol.Encode(protocol.EventJoinRoom, protocol.JoinRoom{Room: c.opts.Room})
	if err != nil {
		return err
	}
	if err := conn.WriteMessage(websocket.TextMessage, join); err != nil {
		return fmt.Errorf("join room %s: %w", c.opts.Room, err)
	}

	send := make(chan []byte, c.opts.SendBuffer)
	done := make(chan struct{})
	c.setSend(send)
	c.setStatus(true)
	log.Printf("[RelayClient] Connected to %s, joined room %s", c.opts.URL, c.opts.Room)
	defer func() {
		c.setSend(nil)
		c.setStatus(false)
		close(done)
	}()

	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-done:
		}
	}()
	go func() {
		for {
			select {
			case frame := <-send:
				if err := conn.WriteMessage(websocket.TextMessage, frame); err != nil {
					conn.Close()
					return
				}
			case <-done:
				return
			}
		}
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return err
		}
		var env protocol.Envelope
		if err := json.Unmarshal(data, &env); err != nil {
			log.Printf("[RelayClient] Dropping malformed frame: %v", err)
			continue
		}
		c.dispatch(env)
	}
}

func (c *Client) dispatch(env protocol.Envelope) {
	if c.handler == nil {
		return
	}
	switch env.Event {
	case protocol.EventSlideUpdate:
		u, err := protocol.DecodeSlideUpdate(env.Data)
		if err != nil {
			log.Printf("[RelayClient] Bad slide-update: %v", err)
			return
		}
		c.handler.HandleDelta(u.Delta)
	case protocol.EventBlankToggle, protocol.EventLogoToggle, protocol.EventTimerToggle:
		t, err := protocol.DecodeToggle(env.Data)
		if err != nil {
			log.Printf("[RelayClient] Bad %s: %v", env.Event, err)
			return
		}
		if d, ok := protocol.ToggleDelta(env.Event, t.Value); ok {
			c.handler.HandleDelta(d)
		}
	case protocol.EventRemoteCommand:
		var cmd protocol.RemoteCommand
		if err := json.Unmarshal(env.Data, &cmd); err != nil {
			_ = json.Unmarshal(env.Data, &cmd.Command)
		}
		if cmd.Command != "" {
			c.handler.HandleRemoteCommand(cmd.Command)
		}
	}
}

func (c *Client) setSend(ch chan []byte) {
	c.mu.Lock()
	c.send = ch
	c.mu.Unlock()
}

func (c *Client) setStatus(connected bool) {
	c.connected.Store(connected)
	if c.opts.OnStatus != nil {
		c.opts.OnStatus(connected)
	}
}

// enqueue hands a frame to the writer without blocking.
func (c *Client) enqueue(frame []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.send == nil {
		return false
	}
	select {
	case c.send <- frame:
		return true
	default:
		return false
	}
}

// Publish sends a store delta to the room. It never blocks; deltas sent
// while disconnected or with a full buffer are lost.
func (c *Client) Publish(d models.Delta) {
	frames, err := protocol.Frames(d)
	if err != nil {
		log.Printf("[RelayClient] Failed to encode delta: %v", err)
		return
	}
	for _, frame := range frames {
		if !c.enqueue(frame) {
			log.Printf("[RelayClient] Not connected, delta dropped")
			return
		}
	}
}

// SendCommand sends a remote-command to the room's presenter.
func (c *Client) SendCommand(command string) bool {
	frame, err := protocol.Encode(protocol.EventRemoteCommand, protocol.RemoteCommand{Command: command, Room: c.opts.Room})
	if err != nil {
		return false
	}
	return c.enqueue(frame)
}
