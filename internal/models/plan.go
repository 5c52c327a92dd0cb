package models

// ContentType is the library category a ContentItem was loaded from.
type ContentType string

const (
	ContentSong           ContentType = "song"
	ContentVerse          ContentType = "verse"
	ContentCustomTemplate ContentType = "custom-template"
)

// ContentItem is a reusable unit (song, verse, template) from the content library.
// Its slides are in presentation order.
type ContentItem struct {
	ID       string      `json:"id"`
	Title    string      `json:"title"`
	Type     ContentType `json:"type"`
	Filename string      `json:"filename,omitempty"` // Path relative to the type's folder
	Content  string      `json:"content,omitempty"`  // Raw markdown the slides were compiled from
	Slides   []Slide     `json:"slides"`
}

// ServicePlanItem is a ContentItem placed into a plan. Slides are a copy taken
// at insertion time so later library edits do not alter an open plan.
type ServicePlanItem struct {
	ID        string      `json:"id"`
	ContentID string      `json:"contentId"`
	Title     string      `json:"title"`
	Type      ContentType `json:"type"`
	Slides    []Slide     `json:"slides"`
	Order     int         `json:"order"`
}

// ServicePlan is the ordered schedule for one presentation session.
// CurrentSlideIndex points into the flattened slide sequence of all items.
type ServicePlan struct {
	ID                string            `json:"id"`
	Title             string            `json:"title"`
	Date              string            `json:"date"`
	Items             []ServicePlanItem `json:"items"`
	CurrentSlideIndex int               `json:"currentSlideIndex"`
	IsActive          bool              `json:"isActive"`
}

// Clone returns a deep copy of the plan, or nil for a nil plan.
func (p *ServicePlan) Clone() *ServicePlan {
	if p == nil {
		return nil
	}
	c := *p
	if p.Items != nil {
		c.Items = make([]ServicePlanItem, len(p.Items))
		for i, item := range p.Items {
			item.Slides = CloneSlides(item.Slides)
			c.Items[i] = item
		}
	}
	return &c
}
