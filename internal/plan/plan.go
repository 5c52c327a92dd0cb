// Package plan holds the pure service plan operations: flattening, index
// navigation and item edits. Nothing here mutates its input; edits return a
// new plan.
package plan

import (
	"github.com/Vasu1712/worship-sync/internal/models"
	"github.com/google/uuid"
)

// Position is the result of a navigation step.
type Position struct {
	Index   int
	Current *models.Slide
	Next    *models.Slide // nil at the last slide
}

// Flatten concatenates every item's slides in item order. The result is
// recomputed on each call.
func Flatten(p *models.ServicePlan) []models.Slide {
	if p == nil {
		return nil
	}
	var out []models.Slide
	for _, item := range p.Items {
		out = append(out, item.Slides...)
	}
	return out
}

// At returns the position for index i, or false when i is out of range.
func At(p *models.ServicePlan, i int) (Position, bool) {
	slides := Flatten(p)
	if i < 0 || i >= len(slides) {
		return Position{}, false
	}
	pos := Position{Index: i, Current: slides[i].Clone()}
	if i+1 < len(slides) {
		pos.Next = slides[i+1].Clone()
	}
	return pos, true
}

// Next advances one slide. It reports false at the last slide or for an
// empty plan.
func Next(p *models.ServicePlan) (Position, bool) {
	if p == nil {
		return Position{}, false
	}
	n := len(Flatten(p))
	if n == 0 || p.CurrentSlideIndex >= n-1 {
		return Position{}, false
	}
	return At(p, p.CurrentSlideIndex+1)
}

// Previous steps back one slide. It reports false at index 0.
func Previous(p *models.ServicePlan) (Position, bool) {
	if p == nil || p.CurrentSlideIndex <= 0 {
		return Position{}, false
	}
	n := len(Flatten(p))
	if n == 0 {
		return Position{}, false
	}
	return At(p, min(p.CurrentSlideIndex-1, n-1))
}

// GoTo jumps to index i. It reports false when i is outside [0, len).
func GoTo(p *models.ServicePlan, i int) (Position, bool) {
	return At(p, i)
}

// AddItem appends item to the plan, copying its slides as they are now.
func AddItem(p *models.ServicePlan, item models.ContentItem) *models.ServicePlan {
	out := p.Clone()
	out.Items = append(out.Items, models.ServicePlanItem{
		ID:        "item-" + uuid.NewString(),
		ContentID: item.ID,
		Title:     item.Title,
		Type:      item.Type,
		Slides:    models.CloneSlides(item.Slides),
		Order:     len(out.Items),
	})
	return out
}

// RemoveItem drops the item with the given id. CurrentSlideIndex is left
// as is; callers decide how to re-anchor it.
func RemoveItem(p *models.ServicePlan, itemID string) *models.ServicePlan {
	out := p.Clone()
	items := out.Items[:0]
	for _, item := range out.Items {
		if item.ID != itemID {
			items = append(items, item)
		}
	}
	out.Items = items
	return out
}

// Reorder moves the item at from to to and renumbers every Order field.
// Out-of-range indexes leave the plan unchanged. CurrentSlideIndex is not
// touched, so the slide it designates may change.
func Reorder(p *models.ServicePlan, from, to int) *models.ServicePlan {
	out := p.Clone()
	n := len(out.Items)
	if from < 0 || from >= n || to < 0 || to >= n {
		return out
	}
	moved := out.Items[from]
	items := append(out.Items[:from:from], out.Items[from+1:]...)
	items = append(items[:to], append([]models.ServicePlanItem{moved}, items[to:]...)...)
	for i := range items {
		items[i].Order = i
	}
	out.Items = items
	return out
}

// Locate maps a flattened index to the owning item id and the slide's
// position inside that item.
func Locate(p *models.ServicePlan, index int) (itemID string, slideIndex int, ok bool) {
	if p == nil || index < 0 {
		return "", 0, false
	}
	offset := 0
	for _, item := range p.Items {
		if index < offset+len(item.Slides) {
			return item.ID, index - offset, true
		}
		offset += len(item.Slides)
	}
	return "", 0, false
}

// IndexOf is the inverse of Locate.
func IndexOf(p *models.ServicePlan, itemID string, slideIndex int) (int, bool) {
	if p == nil {
		return 0, false
	}
	offset := 0
	for _, item := range p.Items {
		if item.ID == itemID {
			if slideIndex < 0 || slideIndex >= len(item.Slides) {
				return 0, false
			}
			return offset + slideIndex, true
		}
		offset += len(item.Slides)
	}
	return 0, false
}
