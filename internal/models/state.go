package models

// PersistedState is the subset of presentation state that survives a restart.
type PersistedState struct {
	ServicePlans       []*ServicePlan `json:"servicePlans"`
	CurrentServicePlan *ServicePlan   `json:"currentServicePlan"`
	CurrentSlide       *Slide         `json:"currentSlide"`
	NextSlide          *Slide         `json:"nextSlide"`
	ShowBlank          bool           `json:"showBlank"`
	ShowLogo           bool           `json:"showLogo"`
	ShowTimer          bool           `json:"showTimer"`
}

// PresentationState is the full session state, persisted fields plus transient ones.
type PresentationState struct {
	PersistedState
	IsProjectorOpen bool `json:"isProjectorOpen"`
}

// Clone deep-copies the persisted state.
func (s PersistedState) Clone() PersistedState {
	c := s
	if s.ServicePlans != nil {
		c.ServicePlans = make([]*ServicePlan, len(s.ServicePlans))
		for i, p := range s.ServicePlans {
			c.ServicePlans[i] = p.Clone()
		}
	}
	c.CurrentServicePlan = s.CurrentServicePlan.Clone()
	c.CurrentSlide = s.CurrentSlide.Clone()
	c.NextSlide = s.NextSlide.Clone()
	return c
}

// Screen is what a display context renders full-screen.
type Screen string

const (
	ScreenBlank Screen = "blank"
	ScreenLogo  Screen = "logo"
	ScreenEnd   Screen = "end"
	ScreenSlide Screen = "slide"
)

// Screen resolves the overlays against the current slide in the order
// blank, logo, end of plan, slide content. The timer is drawn on top of
// any screen and does not take part.
func (s PersistedState) Screen() Screen {
	switch {
	case s.ShowBlank:
		return ScreenBlank
	case s.ShowLogo:
		return ScreenLogo
	case s.CurrentSlide == nil:
		return ScreenEnd
	default:
		return ScreenSlide
	}
}
