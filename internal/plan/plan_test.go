package plan

import (
	"fmt"
	"testing"

	"github.com/Vasu1712/worship-sync/internal/models"
)

func contentItem(id string, n int) models.ContentItem {
	item := models.ContentItem{ID: id, Title: id, Type: models.ContentSong}
	for i := 0; i < n; i++ {
		item.Slides = append(item.Slides, models.Slide{
			ID:      fmt.Sprintf("slide-%d", i),
			Type:    models.SlideText,
			Content: fmt.Sprintf("%s/%d", id, i),
		})
	}
	return item
}

func testPlan(sizes ...int) *models.ServicePlan {
	p := &models.ServicePlan{ID: "plan-test", Title: "Sunday"}
	for i, n := range sizes {
		p = AddItem(p, contentItem(fmt.Sprintf("song-%d", i), n))
	}
	return p
}

func TestFlattenConcatenatesInItemOrder(t *testing.T) {
	p := testPlan(2, 3)
	slides := Flatten(p)
	if len(slides) != 5 {
		t.Fatalf("expected 5 slides, got %d", len(slides))
	}
	if slides[2].Content != "song-1/0" {
		t.Fatalf("expected song-1/0 at index 2, got %q", slides[2].Content)
	}
}

func TestNextWalksToEndThenStops(t *testing.T) {
	p := testPlan(2, 1, 3)
	n := len(Flatten(p))
	for i := 0; i < n-1; i++ {
		pos, ok := Next(p)
		if !ok {
			t.Fatalf("step %d: expected advance", i)
		}
		p.CurrentSlideIndex = pos.Index
	}
	if p.CurrentSlideIndex != n-1 {
		t.Fatalf("expected index %d, got %d", n-1, p.CurrentSlideIndex)
	}
	if _, ok := Next(p); ok {
		t.Fatalf("expected no-op at last slide")
	}
}

func TestNextEmptyPlan(t *testing.T) {
	if _, ok := Next(testPlan()); ok {
		t.Fatalf("expected no-op for empty plan")
	}
	if _, ok := Next(nil); ok {
		t.Fatalf("expected no-op for nil plan")
	}
}

func TestPreviousAtStartIsNoOp(t *testing.T) {
	p := testPlan(3)
	if _, ok := Previous(p); ok {
		t.Fatalf("expected no-op at index 0")
	}
	p.CurrentSlideIndex = 2
	pos, ok := Previous(p)
	if !ok || pos.Index != 1 || pos.Current.Content != "song-0/1" || pos.Next.Content != "song-0/2" {
		t.Fatalf("unexpected previous position: %+v ok=%v", pos, ok)
	}
}

func TestGoToBounds(t *testing.T) {
	p := testPlan(2, 2)
	for _, i := range []int{-1, 4, 100} {
		if _, ok := GoTo(p, i); ok {
			t.Fatalf("expected index %d to be rejected", i)
		}
	}
	pos, ok := GoTo(p, 3)
	if !ok || pos.Current.Content != "song-1/1" || pos.Next != nil {
		t.Fatalf("unexpected position at last index: %+v", pos)
	}
	pos, _ = GoTo(p, 1)
	if pos.Next == nil || pos.Next.Content != "song-1/0" {
		t.Fatalf("expected next to cross item boundary, got %+v", pos.Next)
	}
}

func TestAddItemCopiesSlides(t *testing.T) {
	item := contentItem("song-x", 1)
	p := AddItem(testPlan(), item)
	item.Slides[0].Content = "edited in library"
	if p.Items[0].Slides[0].Content != "song-x/0" {
		t.Fatalf("plan slides changed with library edit")
	}
	if p.Items[0].ContentID != "song-x" || p.Items[0].Order != 0 {
		t.Fatalf("unexpected plan item: %+v", p.Items[0])
	}
}

func TestAddItemAssignsUniqueIDs(t *testing.T) {
	p := testPlan(1, 1)
	if p.Items[0].ID == p.Items[1].ID {
		t.Fatalf("expected distinct item ids")
	}
}

func TestRemoveItemKeepsIndex(t *testing.T) {
	p := testPlan(2, 2)
	p.CurrentSlideIndex = 3
	out := RemoveItem(p, p.Items[1].ID)
	if len(out.Items) != 1 {
		t.Fatalf("expected 1 item, got %d", len(out.Items))
	}
	if out.CurrentSlideIndex != 3 {
		t.Fatalf("expected index untouched, got %d", out.CurrentSlideIndex)
	}
	if len(p.Items) != 2 {
		t.Fatalf("input plan was mutated")
	}
}

// Reorder leaves the index alone, so the same index now designates a
// slide from a different item.
func TestReorderChangesSlideAtIndex(t *testing.T) {
	p := testPlan(1, 1, 1)
	before, _ := At(p, 0)
	out := Reorder(p, 0, 2)
	after, _ := At(out, out.CurrentSlideIndex)
	if before.Current.Content == after.Current.Content {
		t.Fatalf("expected slide identity at index 0 to change")
	}
	for i, item := range out.Items {
		if item.Order != i {
			t.Fatalf("item %d has order %d", i, item.Order)
		}
	}
	if out.Items[2].ContentID != "song-0" || out.Items[0].ContentID != "song-1" {
		t.Fatalf("unexpected order: %s %s %s", out.Items[0].ContentID, out.Items[1].ContentID, out.Items[2].ContentID)
	}
}

func TestReorderOutOfRange(t *testing.T) {
	p := testPlan(1, 1)
	out := Reorder(p, 0, 5)
	if out.Items[0].ContentID != "song-0" {
		t.Fatalf("expected unchanged plan")
	}
}

func TestLocateAndIndexOf(t *testing.T) {
	p := testPlan(2, 3)
	itemID, slideIdx, ok := Locate(p, 3)
	if !ok || itemID != p.Items[1].ID || slideIdx != 1 {
		t.Fatalf("unexpected locate result: %s %d %v", itemID, slideIdx, ok)
	}
	idx, ok := IndexOf(p, itemID, slideIdx)
	if !ok || idx != 3 {
		t.Fatalf("expected index 3, got %d (%v)", idx, ok)
	}
	if _, _, ok := Locate(p, 5); ok {
		t.Fatalf("expected locate past end to fail")
	}
}
