package models

// SlideType tags which payload of a Slide is active.
type SlideType string

const (
	SlideText      SlideType = "text"
	SlideImage     SlideType = "image"
	SlideVideo     SlideType = "video"
	SlideCountdown SlideType = "countdown"
	SlideBlank     SlideType = "blank"
	SlideLogo      SlideType = "logo"
)

// Countdown is the payload of a countdown slide.
type Countdown struct {
	Minutes int `json:"minutes"`
	Seconds int `json:"seconds"`
}

// Slide is one renderable unit. Only the field matching Type carries meaning;
// blank and logo slides are rendered from the type alone.
type Slide struct {
	ID        string     `json:"id"`                  // Unique within the owning content item
	Title     string     `json:"title,omitempty"`     // Heading of the block the slide came from
	Content   string     `json:"content"`             // Text payload (may contain "___" gap markers)
	Type      SlideType  `json:"type"`                // One of the SlideType constants
	Notes     string     `json:"notes,omitempty"`     // Presenter-only annotation, never projected
	Duration  int        `json:"duration,omitempty"`  // Optional auto-advance hint in seconds
	ImageURL  string     `json:"imageUrl,omitempty"`  // Active for image slides
	VideoURL  string     `json:"videoUrl,omitempty"`  // Active for video slides
	Countdown *Countdown `json:"countdown,omitempty"` // Active for countdown slides
}

// Clone returns a deep copy of the slide, or nil for a nil slide.
func (s *Slide) Clone() *Slide {
	if s == nil {
		return nil
	}
	c := *s
	if s.Countdown != nil {
		cd := *s.Countdown
		c.Countdown = &cd
	}
	return &c
}

// CloneSlides deep-copies a slide sequence.
func CloneSlides(in []Slide) []Slide {
	if in == nil {
		return nil
	}
	out := make([]Slide, len(in))
	for i := range in {
		out[i] = *in[i].Clone()
	}
	return out
}
