// Package store holds the authoritative presentation state of one presenter
// session. Every externally visible mutation emits a Delta to the configured
// sinks before the mutating call returns.
package store

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"

	"github.com/Vasu1712/worship-sync/internal/models"
	"github.com/Vasu1712/worship-sync/internal/plan"
	"github.com/Vasu1712/worship-sync/internal/storage"
	"github.com/google/uuid"
)

// Sink receives deltas. Publish must not block; delivery is fire-and-forget.
type Sink interface {
	Publish(d models.Delta)
}

// SinkFunc adapts a function to a Sink.
type SinkFunc func(models.Delta)

func (f SinkFunc) Publish(d models.Delta) { f(d) }

// Store is the single-writer presentation state. Methods are safe for
// concurrent use; each mutation is applied and emitted under one lock so
// observers never see a partial update and deltas leave in mutation order.
type Store struct {
	mu      sync.RWMutex
	state   models.PresentationState
	sinks   []Sink
	backend storage.StateStore
}

// New creates an empty store that emits to sinks. backend may be nil, in
// which case Restore and Persist are no-ops.
func New(backend storage.StateStore, sinks ...Sink) *Store {
	return &Store{backend: backend, sinks: sinks}
}

// AddSink registers another delta receiver.
func (s *Store) AddSink(sink Sink) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sinks = append(s.sinks, sink)
}

func (s *Store) emit(d models.Delta) {
	if d.Empty() {
		return
	}
	for _, sink := range s.sinks {
		sink.Publish(d)
	}
}

// State returns a deep copy of the current state.
func (s *Store) State() models.PresentationState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return models.PresentationState{
		PersistedState:  s.state.PersistedState.Clone(),
		IsProjectorOpen: s.state.IsProjectorOpen,
	}
}

// CreatePlan installs a new active plan, deactivating every other plan and
// clearing the slide and overlay state.
func (s *Store) CreatePlan(title, date string) *models.ServicePlan {
	s.mu.Lock()
	defer s.mu.Unlock()

	p := &models.ServicePlan{
		ID:       "plan-" + uuid.NewString(),
		Title:    title,
		Date:     date,
		Items:    []models.ServicePlanItem{},
		IsActive: true,
	}
	for _, existing := range s.state.ServicePlans {
		existing.IsActive = false
	}
	s.state.ServicePlans = append(s.state.ServicePlans, p)
	s.state.CurrentServicePlan = p.Clone()
	s.state.CurrentSlide = nil
	s.state.NextSlide = nil
	s.state.ShowBlank = false
	s.state.ShowLogo = false
	s.state.ShowTimer = false

	log.Printf("[Store] Plan created: ID=%s, Title=%s, Date=%s", p.ID, title, date)
	s.emit(models.Delta{}.WithCurrentSlide(nil).WithNextSlide(nil).WithPlan(p))
	return p.Clone()
}

// SetCurrentPlan switches to p (nil clears the current plan). The plan is
// upserted into the plan list and positioned on its first slide.
func (s *Store) SetCurrentPlan(p *models.ServicePlan) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if p == nil {
		s.state.CurrentServicePlan = nil
		s.state.CurrentSlide = nil
		s.state.NextSlide = nil
		log.Printf("[Store] Current plan cleared")
		s.emit(models.Delta{}.WithCurrentSlide(nil).WithNextSlide(nil).WithPlan(nil))
		return
	}

	next := p.Clone()
	next.CurrentSlideIndex = 0
	pos, _ := plan.At(next, 0)
	s.state.CurrentSlide = pos.Current
	s.state.NextSlide = pos.Next
	s.installPlan(next)

	log.Printf("[Store] Current plan set: ID=%s, Items=%d", next.ID, len(next.Items))
	s.emit(models.Delta{}.WithCurrentSlide(pos.Current).WithNextSlide(pos.Next).WithPlan(next))
}

// installPlan makes p current and writes it back into the plan list.
// Must be called with the lock held.
func (s *Store) installPlan(p *models.ServicePlan) {
	s.state.CurrentServicePlan = p
	s.upsertPlan(p.Clone())
}

func (s *Store) upsertPlan(p *models.ServicePlan) {
	for i, existing := range s.state.ServicePlans {
		if existing.ID == p.ID {
			s.state.ServicePlans[i] = p
			return
		}
	}
	s.state.ServicePlans = append(s.state.ServicePlans, p)
}

// SaveServicePlan stores p in the plan list, replacing a plan with the same id.
func (s *Store) SaveServicePlan(p *models.ServicePlan) {
	if p == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.upsertPlan(p.Clone())
	log.Printf("[Store] Plan saved: ID=%s", p.ID)
}

// AddToCurrentPlan appends item to the current plan. When the plan had no
// slides before, the first slide of the new item becomes current.
func (s *Store) AddToCurrentPlan(item models.ContentItem) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur := s.state.CurrentServicePlan
	if cur == nil {
		return
	}
	wasEmpty := len(plan.Flatten(cur)) == 0
	next := plan.AddItem(cur, item)

	d := models.Delta{}
	if wasEmpty {
		next.CurrentSlideIndex = 0
		pos, _ := plan.At(next, 0)
		s.state.CurrentSlide = pos.Current
		s.state.NextSlide = pos.Next
		d = d.WithCurrentSlide(pos.Current).WithNextSlide(pos.Next)
	} else if pos, ok := plan.At(next, next.CurrentSlideIndex); ok {
		s.state.NextSlide = pos.Next
		d = d.WithNextSlide(pos.Next)
	}
	s.installPlan(next)

	log.Printf("[Store] Added %s to plan %s (%d items)", item.ID, next.ID, len(next.Items))
	s.emit(d.WithPlan(next))
}

// RemoveFromCurrentPlan drops an item from the current plan and re-anchors
// the current slide.
func (s *Store) RemoveFromCurrentPlan(itemID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur := s.state.CurrentServicePlan
	if cur == nil {
		return
	}
	s.reanchor(cur, plan.RemoveItem(cur, itemID))
	log.Printf("[Store] Removed item %s from plan %s", itemID, cur.ID)
}

// ReorderCurrentPlan moves an item within the current plan and re-anchors
// the current slide.
func (s *Store) ReorderCurrentPlan(from, to int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur := s.state.CurrentServicePlan
	if cur == nil {
		return
	}
	s.reanchor(cur, plan.Reorder(cur, from, to))
	log.Printf("[Store] Reordered plan %s: %d -> %d", cur.ID, from, to)
}

// reanchor keeps the displayed slide stable across an item edit. The slide
// that was current is looked up by item id and position in the edited plan;
// when its item is gone the old index is clamped into the new range.
func (s *Store) reanchor(before, after *models.ServicePlan) {
	n := len(plan.Flatten(after))
	idx := before.CurrentSlideIndex
	if itemID, slideIdx, ok := plan.Locate(before, before.CurrentSlideIndex); ok {
		if found, ok := plan.IndexOf(after, itemID, slideIdx); ok {
			idx = found
		}
	}
	idx = max(0, min(idx, n-1))
	after.CurrentSlideIndex = idx

	pos, _ := plan.At(after, idx)
	s.state.CurrentSlide = pos.Current
	s.state.NextSlide = pos.Next
	s.installPlan(after)
	s.emit(models.Delta{}.WithCurrentSlide(pos.Current).WithNextSlide(pos.Next).WithPlan(after))
}

// SetCurrentSlide overrides the current slide directly.
func (s *Store) SetCurrentSlide(slide *models.Slide) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.CurrentSlide = slide.Clone()
	s.emit(models.Delta{}.WithCurrentSlide(slide))
}

// EditCurrentSlideContent replaces the content of the live current slide.
// The plan copy is edited only when the live slide is the one at the plan's
// position; a slide set with SetCurrentSlide is edited on its own. The
// source content file is not touched.
func (s *Store) EditCurrentSlideContent(content string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur := s.state.CurrentServicePlan
	if cur == nil || s.state.CurrentSlide == nil {
		return
	}
	edited := s.state.CurrentSlide.Clone()
	edited.Content = content
	s.state.CurrentSlide = edited

	if itemID, slideIdx, ok := plan.Locate(cur, cur.CurrentSlideIndex); ok {
		next := cur.Clone()
		for i := range next.Items {
			if next.Items[i].ID == itemID && next.Items[i].Slides[slideIdx].ID == edited.ID {
				next.Items[i].Slides[slideIdx].Content = content
				s.installPlan(next)
				log.Printf("[Store] Edited slide %s of item %s", edited.ID, itemID)
				break
			}
		}
	}
	s.emit(models.Delta{}.WithCurrentSlide(edited))
}

// GoToNextSlide advances one slide; a no-op at the end of the plan.
func (s *Store) GoToNextSlide() {
	s.navigate(plan.Next)
}

// PreviousSlide steps back one slide; a no-op at the start of the plan.
func (s *Store) PreviousSlide() {
	s.navigate(plan.Previous)
}

// GoToSlide jumps to a flattened index; out-of-range indexes are ignored.
func (s *Store) GoToSlide(index int) {
	s.navigate(func(p *models.ServicePlan) (plan.Position, bool) {
		return plan.GoTo(p, index)
	})
}

func (s *Store) navigate(step func(*models.ServicePlan) (plan.Position, bool)) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur := s.state.CurrentServicePlan
	if cur == nil {
		return
	}
	pos, ok := step(cur)
	if !ok {
		return
	}
	next := cur.Clone()
	next.CurrentSlideIndex = pos.Index
	s.state.CurrentSlide = pos.Current
	s.state.NextSlide = pos.Next
	s.installPlan(next)
	s.emit(models.Delta{}.WithCurrentSlide(pos.Current).WithNextSlide(pos.Next))
}

// ToggleBlank flips the blank overlay and returns the new value.
func (s *Store) ToggleBlank() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.ShowBlank = !s.state.ShowBlank
	s.emit(models.Delta{}.WithShowBlank(s.state.ShowBlank))
	return s.state.ShowBlank
}

// ToggleLogo flips the logo overlay and returns the new value.
func (s *Store) ToggleLogo() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.ShowLogo = !s.state.ShowLogo
	s.emit(models.Delta{}.WithShowLogo(s.state.ShowLogo))
	return s.state.ShowLogo
}

// ToggleTimer flips the timer overlay and returns the new value.
func (s *Store) ToggleTimer() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.ShowTimer = !s.state.ShowTimer
	s.emit(models.Delta{}.WithShowTimer(s.state.ShowTimer))
	return s.state.ShowTimer
}

// SetProjectorOpen records whether the display window is open. The flag is
// transient and never persisted or emitted.
func (s *Store) SetProjectorOpen(open bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.IsProjectorOpen = open
}

// ApplyDelta overwrites the fields present in d. Replicas use it to mirror
// the presenter; nothing is derived and nothing is emitted.
func (s *Store) ApplyDelta(d models.Delta) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if d.Has(models.FieldCurrentSlide) {
		s.state.CurrentSlide = d.CurrentSlide.Clone()
	}
	if d.Has(models.FieldNextSlide) {
		s.state.NextSlide = d.NextSlide.Clone()
	}
	if d.Has(models.FieldCurrentServicePlan) {
		s.state.CurrentServicePlan = d.CurrentServicePlan.Clone()
	}
	if d.Has(models.FieldShowBlank) {
		s.state.ShowBlank = d.ShowBlank
	}
	if d.Has(models.FieldShowLogo) {
		s.state.ShowLogo = d.ShowLogo
	}
	if d.Has(models.FieldShowTimer) {
		s.state.ShowTimer = d.ShowTimer
	}
}

// Restore loads the persisted state from the backend. A backend with no
// saved state leaves the store empty.
func (s *Store) Restore(ctx context.Context) error {
	if s.backend == nil {
		return nil
	}
	saved, err := s.backend.Load(ctx)
	if errors.Is(err, storage.ErrNoState) {
		log.Printf("[Store] No saved state, starting empty")
		return nil
	}
	if err != nil {
		return fmt.Errorf("restore presentation state: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.PersistedState = saved.Clone()
	log.Printf("[Store] Restored %d plans", len(saved.ServicePlans))
	return nil
}

// Persist saves the persisted subset of the state to the backend.
func (s *Store) Persist(ctx context.Context) error {
	if s.backend == nil {
		return nil
	}
	s.mu.RLock()
	snapshot := s.state.PersistedState.Clone()
	s.mu.RUnlock()

	if err := s.backend.Save(ctx, &snapshot); err != nil {
		return fmt.Errorf("persist presentation state: %w", err)
	}
	return nil
}

// Close persists the state at session teardown.
func (s *Store) Close(ctx context.Context) error {
	return s.Persist(ctx)
}
