package protocol

import (
	"encoding/json"
	"testing"

	"github.com/Vasu1712/worship-sync/internal/models"
)

func TestDecodeSlideUpdateWrapped(t *testing.T) {
	u, err := DecodeSlideUpdate(json.RawMessage(`{"currentSlide":{"id":"slide-1","type":"text","content":"hi"},"room":"pastor"}`))
	if err != nil {
		t.Fatal(err)
	}
	if !u.Delta.Has(models.FieldCurrentSlide) || u.Delta.CurrentSlide.Content != "hi" {
		t.Fatalf("unexpected update %+v", u)
	}
	if u.Delta.Has(models.FieldNextSlide) {
		t.Fatalf("nextSlide should be absent")
	}
	if u.Room != "pastor" {
		t.Fatalf("expected room pastor, got %q", u.Room)
	}
}

func TestDecodeSlideUpdateWrappedNull(t *testing.T) {
	u, err := DecodeSlideUpdate(json.RawMessage(`{"currentSlide":null,"nextSlide":null}`))
	if err != nil {
		t.Fatal(err)
	}
	if !u.Delta.Has(models.FieldCurrentSlide) || u.Delta.CurrentSlide != nil || !u.Delta.Has(models.FieldNextSlide) {
		t.Fatalf("unexpected update %+v", u.Delta)
	}
}

func TestDecodeSlideUpdateBare(t *testing.T) {
	u, err := DecodeSlideUpdate(json.RawMessage(`{"id":"slide-0","type":"blank","content":""}`))
	if err != nil {
		t.Fatal(err)
	}
	if u.Delta.CurrentSlide == nil || u.Delta.CurrentSlide.Type != models.SlideBlank {
		t.Fatalf("unexpected bare decode %+v", u.Delta.CurrentSlide)
	}

	u, err = DecodeSlideUpdate(json.RawMessage(`null`))
	if err != nil {
		t.Fatal(err)
	}
	if !u.Delta.Has(models.FieldCurrentSlide) || u.Delta.CurrentSlide != nil {
		t.Fatalf("bare null should clear the current slide")
	}
}

func TestDecodeSlideUpdateRejectsGarbage(t *testing.T) {
	if _, err := DecodeSlideUpdate(json.RawMessage(`[1,2]`)); err == nil {
		t.Fatalf("expected error for array payload")
	}
}

func TestDecodeToggleForms(t *testing.T) {
	tg, err := DecodeToggle(json.RawMessage(`true`))
	if err != nil || !tg.Value {
		t.Fatalf("bare toggle: %+v %v", tg, err)
	}
	tg, err = DecodeToggle(json.RawMessage(`{"value":true,"room":"r1"}`))
	if err != nil || !tg.Value || tg.Room != "r1" {
		t.Fatalf("wrapped toggle: %+v %v", tg, err)
	}
}

func TestFramesSplitsDelta(t *testing.T) {
	d := models.Delta{}.WithCurrentSlide(nil).WithNextSlide(nil).WithShowLogo(true)
	frames, err := Frames(d)
	if err != nil {
		t.Fatal(err)
	}
	if len(frames) != 2 {
		t.Fatalf("expected 2 frames, got %d", len(frames))
	}
	var env Envelope
	if err := json.Unmarshal(frames[0], &env); err != nil {
		t.Fatal(err)
	}
	if env.Event != EventSlideUpdate || string(env.Data) != `{"currentSlide":null,"nextSlide":null}` {
		t.Fatalf("unexpected slide frame: %s %s", env.Event, env.Data)
	}
	if err := json.Unmarshal(frames[1], &env); err != nil {
		t.Fatal(err)
	}
	if env.Event != EventLogoToggle || string(env.Data) != "true" {
		t.Fatalf("unexpected toggle frame: %s %s", env.Event, env.Data)
	}
}

func TestSlideUpdateRoundTripKeepsPresence(t *testing.T) {
	in := SlideUpdate{Delta: models.Delta{}.WithNextSlide(&models.Slide{ID: "slide-2"}), Room: "r"}
	data, err := json.Marshal(in)
	if err != nil {
		t.Fatal(err)
	}
	out, err := DecodeSlideUpdate(data)
	if err != nil {
		t.Fatal(err)
	}
	if out.Delta.Has(models.FieldCurrentSlide) {
		t.Fatalf("currentSlide should stay absent: %s", data)
	}
	if out.Delta.NextSlide == nil || out.Delta.NextSlide.ID != "slide-2" || out.Room != "r" {
		t.Fatalf("unexpected decode %+v", out)
	}
}
