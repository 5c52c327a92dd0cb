// Package protocol defines the relay wire format. Every websocket text frame
// is an Envelope naming an event and carrying its JSON payload.
package protocol

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/Vasu1712/worship-sync/internal/models"
)

// Event names.
const (
	EventJoinRoom      = "join-room"
	EventSlideUpdate   = "slide-update"
	EventRemoteCommand = "remote-command"
	EventBlankToggle   = "blank-toggle"
	EventLogoToggle    = "logo-toggle"
	EventTimerToggle   = "timer-toggle"
)

// Known remote command strings. The relay treats commands as opaque.
const (
	CommandPrev  = "prev"
	CommandNext  = "next"
	CommandBlank = "blank"
	CommandLogo  = "logo"
	CommandTimer = "timer"
)

// Envelope is one frame on the wire.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// JoinRoom subscribes the sender to a room.
type JoinRoom struct {
	Room string `json:"room"`
}

// RemoteCommand asks the presenter of Room to run Command.
type RemoteCommand struct {
	Command string `json:"command"`
	Room    string `json:"room"`
}

// Toggle is the payload of the overlay events. On the wire it is a bare
// boolean; senders may wrap it as {"value": bool, "room": "..."}.
type Toggle struct {
	Value bool
	Room  string
}

// SlideUpdate is the normalized slide-update payload. Only the slide and
// plan fields of Delta are used.
type SlideUpdate struct {
	Delta models.Delta
	Room  string
}

// wrapperKeys identify the wrapped slide-update form. A bare Slide never
// carries any of them.
var wrapperKeys = []string{"currentSlide", "nextSlide", "currentServicePlan"}

// DecodeSlideUpdate accepts both slide-update forms. An object carrying
// currentSlide (or nextSlide/currentServicePlan) is unwrapped; anything else,
// including a bare null, is taken as the current slide itself.
func DecodeSlideUpdate(data json.RawMessage) (SlideUpdate, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return SlideUpdate{Delta: models.Delta{}.WithCurrentSlide(nil)}, nil
	}

	var keys map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &keys); err != nil {
		return SlideUpdate{}, fmt.Errorf("decode slide-update: %w", err)
	}
	for _, k := range wrapperKeys {
		if _, ok := keys[k]; !ok {
			continue
		}
		var u SlideUpdate
		if err := json.Unmarshal(trimmed, &u.Delta); err != nil {
			return SlideUpdate{}, fmt.Errorf("decode slide-update: %w", err)
		}
		u.Delta.Fields &= models.FieldCurrentSlide | models.FieldNextSlide | models.FieldCurrentServicePlan
		if room, ok := keys["room"]; ok {
			if err := json.Unmarshal(room, &u.Room); err != nil {
				return SlideUpdate{}, fmt.Errorf("decode slide-update room: %w", err)
			}
		}
		return u, nil
	}

	var slide models.Slide
	if err := json.Unmarshal(trimmed, &slide); err != nil {
		return SlideUpdate{}, fmt.Errorf("decode bare slide: %w", err)
	}
	return SlideUpdate{Delta: models.Delta{}.WithCurrentSlide(&slide)}, nil
}

// MarshalJSON writes the wrapped form with only the fields present.
func (u SlideUpdate) MarshalJSON() ([]byte, error) {
	body, err := json.Marshal(u.Delta)
	if err != nil {
		return nil, err
	}
	if u.Room == "" {
		return body, nil
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil {
		return nil, err
	}
	room, _ := json.Marshal(u.Room)
	fields["room"] = room
	return json.Marshal(fields)
}

// DecodeToggle accepts a bare boolean or {"value": bool, "room": "..."}.
func DecodeToggle(data json.RawMessage) (Toggle, error) {
	var v bool
	if err := json.Unmarshal(data, &v); err == nil {
		return Toggle{Value: v}, nil
	}
	var w struct {
		Value bool   `json:"value"`
		Room  string `json:"room"`
	}
	if err := json.Unmarshal(data, &w); err != nil {
		return Toggle{}, fmt.Errorf("decode toggle: %w", err)
	}
	return Toggle{Value: w.Value, Room: w.Room}, nil
}

// ToggleField maps an overlay event to the delta field it carries.
func ToggleField(event string) (models.DeltaField, bool) {
	switch event {
	case EventBlankToggle:
		return models.FieldShowBlank, true
	case EventLogoToggle:
		return models.FieldShowLogo, true
	case EventTimerToggle:
		return models.FieldShowTimer, true
	}
	return 0, false
}

// ToggleDelta builds the store patch for an overlay event.
func ToggleDelta(event string, value bool) (models.Delta, bool) {
	field, ok := ToggleField(event)
	if !ok {
		return models.Delta{}, false
	}
	d := models.Delta{}
	switch field {
	case models.FieldShowBlank:
		d = d.WithShowBlank(value)
	case models.FieldShowLogo:
		d = d.WithShowLogo(value)
	case models.FieldShowTimer:
		d = d.WithShowTimer(value)
	}
	return d, true
}

// Encode builds a frame for event with payload v.
func Encode(event string, v any) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode %s payload: %w", event, err)
	}
	return json.Marshal(Envelope{Event: event, Data: data})
}

// Frames splits a store delta into the wire events that carry it: one
// slide-update for slide and plan fields, one toggle event per overlay.
func Frames(d models.Delta) ([][]byte, error) {
	var frames [][]byte
	slideFields := models.FieldCurrentSlide | models.FieldNextSlide | models.FieldCurrentServicePlan
	if d.Fields&slideFields != 0 {
		u := SlideUpdate{Delta: d}
		u.Delta.Fields &= slideFields
		frame, err := Encode(EventSlideUpdate, u)
		if err != nil {
			return nil, err
		}
		frames = append(frames, frame)
	}
	overlays := []struct {
		field models.DeltaField
		event string
		value bool
	}{
		{models.FieldShowBlank, EventBlankToggle, d.ShowBlank},
		{models.FieldShowLogo, EventLogoToggle, d.ShowLogo},
		{models.FieldShowTimer, EventTimerToggle, d.ShowTimer},
	}
	for _, o := range overlays {
		if !d.Has(o.field) {
			continue
		}
		frame, err := Encode(o.event, o.value)
		if err != nil {
			return nil, err
		}
		frames = append(frames, frame)
	}
	return frames, nil
}
