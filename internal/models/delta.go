package models

import (
	"encoding/json"
	"fmt"
)

// DeltaField marks which fields of a Delta are present.
type DeltaField uint8

const (
	FieldCurrentSlide DeltaField = 1 << iota
	FieldNextSlide
	FieldCurrentServicePlan
	FieldShowBlank
	FieldShowLogo
	FieldShowTimer
)

// Delta is a partial state patch. A field set in Fields is part of the patch
// even when its value is nil or false; unset fields are absent on the wire.
type Delta struct {
	Fields             DeltaField
	CurrentSlide       *Slide
	NextSlide          *Slide
	CurrentServicePlan *ServicePlan
	ShowBlank          bool
	ShowLogo           bool
	ShowTimer          bool
}

// Has reports whether f is part of the patch.
func (d Delta) Has(f DeltaField) bool { return d.Fields&f != 0 }

// Empty reports whether the patch carries no fields.
func (d Delta) Empty() bool { return d.Fields == 0 }

// WithCurrentSlide adds currentSlide to the patch.
func (d Delta) WithCurrentSlide(s *Slide) Delta {
	d.Fields |= FieldCurrentSlide
	d.CurrentSlide = s.Clone()
	return d
}

// WithNextSlide adds nextSlide to the patch.
func (d Delta) WithNextSlide(s *Slide) Delta {
	d.Fields |= FieldNextSlide
	d.NextSlide = s.Clone()
	return d
}

// WithPlan adds currentServicePlan to the patch.
func (d Delta) WithPlan(p *ServicePlan) Delta {
	d.Fields |= FieldCurrentServicePlan
	d.CurrentServicePlan = p.Clone()
	return d
}

func (d Delta) WithShowBlank(v bool) Delta {
	d.Fields |= FieldShowBlank
	d.ShowBlank = v
	return d
}

func (d Delta) WithShowLogo(v bool) Delta {
	d.Fields |= FieldShowLogo
	d.ShowLogo = v
	return d
}

func (d Delta) WithShowTimer(v bool) Delta {
	d.Fields |= FieldShowTimer
	d.ShowTimer = v
	return d
}

// MarshalJSON writes only the fields present in the patch.
func (d Delta) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, 6)
	if d.Has(FieldCurrentSlide) {
		out["currentSlide"] = d.CurrentSlide
	}
	if d.Has(FieldNextSlide) {
		out["nextSlide"] = d.NextSlide
	}
	if d.Has(FieldCurrentServicePlan) {
		out["currentServicePlan"] = d.CurrentServicePlan
	}
	if d.Has(FieldShowBlank) {
		out["showBlank"] = d.ShowBlank
	}
	if d.Has(FieldShowLogo) {
		out["showLogo"] = d.ShowLogo
	}
	if d.Has(FieldShowTimer) {
		out["showTimer"] = d.ShowTimer
	}
	return json.Marshal(out)
}

// UnmarshalJSON sets a field for every key present in the object, so an
// explicit null is distinguishable from an absent key.
func (d *Delta) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("decode delta: %w", err)
	}
	*d = Delta{}
	fields := []struct {
		key  string
		flag DeltaField
		dst  any
	}{
		{"currentSlide", FieldCurrentSlide, &d.CurrentSlide},
		{"nextSlide", FieldNextSlide, &d.NextSlide},
		{"currentServicePlan", FieldCurrentServicePlan, &d.CurrentServicePlan},
		{"showBlank", FieldShowBlank, &d.ShowBlank},
		{"showLogo", FieldShowLogo, &d.ShowLogo},
		{"showTimer", FieldShowTimer, &d.ShowTimer},
	}
	for _, f := range fields {
		v, ok := raw[f.key]
		if !ok {
			continue
		}
		if err := json.Unmarshal(v, f.dst); err != nil {
			return fmt.Errorf("decode delta field %s: %w", f.key, err)
		}
		d.Fields |= f.flag
	}
	return nil
}

// Merge returns d with every field present in o applied on top.
func (d Delta) Merge(o Delta) Delta {
	if o.Has(FieldCurrentSlide) {
		d = d.WithCurrentSlide(o.CurrentSlide)
	}
	if o.Has(FieldNextSlide) {
		d = d.WithNextSlide(o.NextSlide)
	}
	if o.Has(FieldCurrentServicePlan) {
		d = d.WithPlan(o.CurrentServicePlan)
	}
	if o.Has(FieldShowBlank) {
		d = d.WithShowBlank(o.ShowBlank)
	}
	if o.Has(FieldShowLogo) {
		d = d.WithShowLogo(o.ShowLogo)
	}
	if o.Has(FieldShowTimer) {
		d = d.WithShowTimer(o.ShowTimer)
	}
	return d
}
