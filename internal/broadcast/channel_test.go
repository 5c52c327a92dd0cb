package broadcast

import (
	"testing"

	"github.com/Vasu1712/worship-sync/internal/models"
	"github.com/Vasu1712/worship-sync/internal/store"
)

func TestPublishReachesAllSubscribers(t *testing.T) {
	c := New(DefaultChannel)
	a := c.Subscribe(4)
	b := c.Subscribe(4)
	c.Publish(models.Delta{}.WithShowBlank(true))

	for _, sub := range []*Subscription{a, b} {
		d := <-sub.C
		if !d.Has(models.FieldShowBlank) || !d.ShowBlank {
			t.Fatalf("unexpected delta %+v", d)
		}
	}
}

func TestFullSubscriberDoesNotBlock(t *testing.T) {
	c := New(DefaultChannel)
	slow := c.Subscribe(1)
	fast := c.Subscribe(3)
	for i := 0; i < 3; i++ {
		c.Publish(models.Delta{}.WithShowTimer(i%2 == 0))
	}
	if len(slow.C) != 1 || len(fast.C) != 3 {
		t.Fatalf("unexpected buffer lengths slow=%d fast=%d", len(slow.C), len(fast.C))
	}
}

func TestCloseUnsubscribes(t *testing.T) {
	c := New(DefaultChannel)
	sub := c.Subscribe(1)
	sub.Close()
	sub.Close()
	if c.Subscribers() != 0 {
		t.Fatalf("expected no subscribers")
	}
	c.Publish(models.Delta{}.WithShowLogo(true))
	if _, ok := <-sub.C; ok {
		t.Fatalf("expected closed channel")
	}
}

// A projector window mirrors the control panel's store through the channel.
func TestStoreToReplicaOverChannel(t *testing.T) {
	c := New(DefaultChannel)
	sub := c.Subscribe(16)
	presenter := store.New(nil, c)
	replica := store.New(nil)

	presenter.CreatePlan("Sunday", "2026-10-18")
	presenter.AddToCurrentPlan(models.ContentItem{
		ID:     "song-a",
		Slides: []models.Slide{{ID: "slide-0", Content: "one"}, {ID: "slide-1", Content: "two"}},
	})
	presenter.GoToNextSlide()
	presenter.ToggleLogo()

	for len(sub.C) > 0 {
		replica.ApplyDelta(<-sub.C)
	}
	st := replica.State()
	if st.CurrentSlide == nil || st.CurrentSlide.Content != "two" || st.NextSlide != nil || !st.ShowLogo {
		t.Fatalf("replica out of sync: %+v", st)
	}
}
