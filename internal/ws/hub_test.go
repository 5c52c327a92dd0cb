package ws

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/Vasu1712/worship-sync/internal/models"
	"github.com/Vasu1712/worship-sync/internal/protocol"
)

func startHub(t *testing.T, ttl time.Duration) *Hub {
	t.Helper()
	h := NewHub(ttl)
	ctx, cancel := context.WithCancel(context.Background())
	go h.Run(ctx)
	t.Cleanup(cancel)
	return h
}

func send(t *testing.T, h *Hub, c *Client, event string, payload any) {
	t.Helper()
	data, err := json.Marshal(payload)
	if err != nil {
		t.Fatal(err)
	}
	if !h.Receive(c, protocol.Envelope{Event: event, Data: data}) {
		t.Fatalf("hub stopped")
	}
}

func recv(t *testing.T, c *Client) protocol.Envelope {
	t.Helper()
	select {
	case frame, ok := <-c.Send:
		if !ok {
			t.Fatalf("client %s send channel closed", c.ID)
		}
		var env protocol.Envelope
		if err := json.Unmarshal(frame, &env); err != nil {
			t.Fatal(err)
		}
		return env
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for a frame on %s", c.ID)
	}
	return protocol.Envelope{}
}

func expectSilence(t *testing.T, c *Client) {
	t.Helper()
	select {
	case frame := <-c.Send:
		t.Fatalf("unexpected frame for %s: %s", c.ID, frame)
	case <-time.After(100 * time.Millisecond):
	}
}

func join(t *testing.T, h *Hub, c *Client, room string) protocol.Envelope {
	t.Helper()
	send(t, h, c, protocol.EventJoinRoom, protocol.JoinRoom{Room: room})
	return recv(t, c)
}

func TestJoinEmptyRoomRepliesWithNullSlide(t *testing.T) {
	h := startHub(t, 0)
	a := NewClient(nil, 8)
	env := join(t, h, a, "pastor")
	if env.Event != protocol.EventSlideUpdate || string(env.Data) != `{"currentSlide":null}` {
		t.Fatalf("unexpected resync: %s %s", env.Event, env.Data)
	}
	if n := h.GetActiveRoomMembersCount("pastor"); n != 1 {
		t.Fatalf("expected 1 member, got %d", n)
	}
}

func TestSlideUpdateRelaysToOthersOnly(t *testing.T) {
	h := startHub(t, 0)
	a, b := NewClient(nil, 8), NewClient(nil, 8)
	join(t, h, a, "r")
	join(t, h, b, "r")

	send(t, h, a, protocol.EventSlideUpdate, map[string]any{
		"currentSlide": models.Slide{ID: "slide-3", Type: models.SlideText, Content: "Chorus"},
	})
	env := recv(t, b)
	u, err := protocol.DecodeSlideUpdate(env.Data)
	if err != nil {
		t.Fatal(err)
	}
	if u.Delta.CurrentSlide == nil || u.Delta.CurrentSlide.Content != "Chorus" {
		t.Fatalf("unexpected relay payload: %s", env.Data)
	}
	expectSilence(t, a)
}

func TestBareSlideUpdateIsNormalized(t *testing.T) {
	h := startHub(t, 0)
	a, b := NewClient(nil, 8), NewClient(nil, 8)
	join(t, h, a, "r")
	join(t, h, b, "r")

	send(t, h, a, protocol.EventSlideUpdate, models.Slide{ID: "slide-0", Type: models.SlideLogo})
	env := recv(t, b)
	var wrapped map[string]json.RawMessage
	if err := json.Unmarshal(env.Data, &wrapped); err != nil {
		t.Fatal(err)
	}
	if _, ok := wrapped["currentSlide"]; !ok {
		t.Fatalf("expected wrapped form, got %s", env.Data)
	}
}

func TestLateJoinerResyncs(t *testing.T) {
	h := startHub(t, 0)
	a := NewClient(nil, 8)
	join(t, h, a, "r")
	plan := &models.ServicePlan{ID: "plan-1", Title: "Sunday"}
	send(t, h, a, protocol.EventSlideUpdate, map[string]any{
		"currentSlide":       models.Slide{ID: "slide-7", Content: "Bridge"},
		"currentServicePlan": plan,
	})
	send(t, h, a, protocol.EventLogoToggle, true)

	c := NewClient(nil, 8)
	env := join(t, h, c, "r")
	u, err := protocol.DecodeSlideUpdate(env.Data)
	if err != nil {
		t.Fatal(err)
	}
	if u.Delta.CurrentSlide == nil || u.Delta.CurrentSlide.Content != "Bridge" {
		t.Fatalf("resync missing slide: %s", env.Data)
	}
	if u.Delta.CurrentServicePlan == nil || u.Delta.CurrentServicePlan.ID != "plan-1" {
		t.Fatalf("resync missing plan: %s", env.Data)
	}
	env = recv(t, c)
	if env.Event != protocol.EventLogoToggle || string(env.Data) != "true" {
		t.Fatalf("expected cached logo overlay, got %s %s", env.Event, env.Data)
	}

	// join-room is idempotent: asking again repeats the same answer.
	env = join(t, h, c, "r")
	if u, _ := protocol.DecodeSlideUpdate(env.Data); u.Delta.CurrentSlide == nil || u.Delta.CurrentSlide.ID != "slide-7" {
		t.Fatalf("second resync differs: %s", env.Data)
	}
}

func TestRemoteCommandRelayedVerbatimAndObserved(t *testing.T) {
	h := NewHub(0)
	got := make(chan string, 1)
	h.OnCommand(func(room, command string) { got <- room + ":" + command })
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go h.Run(ctx)

	presenter, remote := NewClient(nil, 8), NewClient(nil, 8)
	join(t, h, presenter, "pastor")
	join(t, h, remote, "pastor")

	send(t, h, remote, protocol.EventRemoteCommand, protocol.RemoteCommand{Command: "next", Room: "pastor"})
	env := recv(t, presenter)
	if env.Event != protocol.EventRemoteCommand || string(env.Data) != `{"command":"next","room":"pastor"}` {
		t.Fatalf("unexpected command frame: %s %s", env.Event, env.Data)
	}
	expectSilence(t, remote)
	select {
	case v := <-got:
		if v != "pastor:next" {
			t.Fatalf("unexpected command observed: %s", v)
		}
	case <-time.After(time.Second):
		t.Fatalf("command handler not called")
	}
}

func TestRoomsAreIsolated(t *testing.T) {
	h := startHub(t, 0)
	a, b := NewClient(nil, 8), NewClient(nil, 8)
	join(t, h, a, "one")
	join(t, h, b, "two")
	send(t, h, a, protocol.EventBlankToggle, true)
	expectSilence(t, b)
}

func TestDisconnectLeavesCacheIntact(t *testing.T) {
	h := startHub(t, 0)
	a := NewClient(nil, 8)
	join(t, h, a, "r")
	send(t, h, a, protocol.EventSlideUpdate, map[string]any{"currentSlide": models.Slide{ID: "slide-1"}})
	h.Leave(a)

	c := NewClient(nil, 8)
	env := join(t, h, c, "r")
	if u, _ := protocol.DecodeSlideUpdate(env.Data); u.Delta.CurrentSlide == nil || u.Delta.CurrentSlide.ID != "slide-1" {
		t.Fatalf("cache lost after disconnect: %s", env.Data)
	}
	if _, ok := <-a.Send; ok {
		t.Fatalf("expected departed client's channel to be closed")
	}
}

func TestSlowClientDoesNotStallOthers(t *testing.T) {
	h := startHub(t, 0)
	sender, slow, fast := NewClient(nil, 8), NewClient(nil, 1), NewClient(nil, 16)
	join(t, h, sender, "r")
	join(t, h, slow, "r")
	join(t, h, fast, "r")

	for i := 0; i < 5; i++ {
		send(t, h, sender, protocol.EventTimerToggle, i%2 == 0)
	}
	for i := 0; i < 5; i++ {
		recv(t, fast)
	}
	if n := h.GetActiveRoomMembersCount("r"); n != 2 {
		t.Fatalf("expected slow client to be dropped, members=%d", n)
	}
}

func TestPublishReachesAllMembersAndCaches(t *testing.T) {
	h := startHub(t, 0)
	a := NewClient(nil, 8)
	join(t, h, a, "r")

	RoomSink{Hub: h, Room: "r"}.Publish(models.Delta{}.WithCurrentSlide(&models.Slide{ID: "slide-2"}).WithShowBlank(true))
	env := recv(t, a)
	if env.Event != protocol.EventSlideUpdate {
		t.Fatalf("expected slide-update, got %s", env.Event)
	}
	env = recv(t, a)
	if env.Event != protocol.EventBlankToggle {
		t.Fatalf("expected blank-toggle, got %s", env.Event)
	}
	snap, ok := h.GetSnapshot("r")
	if !ok || snap.State.CurrentSlide == nil || snap.State.CurrentSlide.ID != "slide-2" || !snap.State.ShowBlank {
		t.Fatalf("unexpected snapshot %+v", snap)
	}
}

func TestEmptyRoomEvictedAfterTTL(t *testing.T) {
	h := NewHub(time.Minute)
	a := NewClient(nil, 8)
	h.join(a, "r")
	<-a.Send
	h.leaveAll(a)

	h.sweep(time.Now())
	if _, ok := h.GetSnapshot("r"); !ok {
		t.Fatalf("room evicted before ttl")
	}
	h.sweep(time.Now().Add(2 * time.Minute))
	if _, ok := h.GetSnapshot("r"); ok {
		t.Fatalf("expected room to be evicted")
	}
}

func TestHostedRoomSurvivesSweep(t *testing.T) {
	h := NewHub(time.Minute)
	h.publish(Outbound{Room: "church", Delta: models.Delta{}.WithCurrentSlide(&models.Slide{ID: "slide-3"})})

	h.sweep(time.Now().Add(2 * time.Minute))
	if _, ok := h.GetSnapshot("church"); !ok {
		t.Fatalf("hosted room evicted while its presenter is running")
	}

	c := NewClient(nil, 8)
	h.join(c, "church")
	env := recv(t, c)
	u, err := protocol.DecodeSlideUpdate(env.Data)
	if err != nil {
		t.Fatal(err)
	}
	if u.Delta.CurrentSlide == nil || u.Delta.CurrentSlide.ID != "slide-3" {
		t.Fatalf("late joiner got %s, want slide-3", env.Data)
	}
}

func TestTinyTTLStillSweeps(t *testing.T) {
	h := startHub(t, time.Nanosecond)
	a := NewClient(nil, 8)
	join(t, h, a, "r")
	h.Leave(a)

	deadline := time.Now().Add(2 * time.Second)
	for {
		if _, ok := h.GetSnapshot("r"); !ok {
			return
		}
		if time.Now().After(deadline) {
			t.Fatalf("room never evicted")
		}
		time.Sleep(5 * time.Millisecond)
	}
}
