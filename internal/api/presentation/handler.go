package presentation

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/Vasu1712/worship-sync/internal/content"
	"github.com/Vasu1712/worship-sync/internal/markdown"
	"github.com/Vasu1712/worship-sync/internal/models"
	"github.com/Vasu1712/worship-sync/internal/store"
	"github.com/gorilla/mux"
)

// PresentationHandler drives a presenter session hosted by this process.
type PresentationHandler struct {
	Store     *store.Store
	Library   *content.Library
	Projector *store.Store // Local display replica, optional
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func decode(w http.ResponseWriter, r *http.Request, dst any, op string) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		log.Printf("[Presentation] Error decoding request body for %s: %v", op, err)
		return false
	}
	return true
}

// position is the navigation part of the state returned after a move.
type position struct {
	CurrentSlideIndex int           `json:"currentSlideIndex"`
	CurrentSlide      *models.Slide `json:"currentSlide"`
	NextSlide         *models.Slide `json:"nextSlide"`
}

func (h *PresentationHandler) writePosition(w http.ResponseWriter) {
	st := h.Store.State()
	res := position{CurrentSlide: st.CurrentSlide, NextSlide: st.NextSlide}
	if st.CurrentServicePlan != nil {
		res.CurrentSlideIndex = st.CurrentServicePlan.CurrentSlideIndex
	}
	writeJSON(w, http.StatusOK, res)
}

// requirePlan answers 409 when no plan is active.
func (h *PresentationHandler) requirePlan(w http.ResponseWriter) bool {
	if h.Store.State().CurrentServicePlan == nil {
		http.Error(w, "No active service plan", http.StatusConflict)
		return false
	}
	return true
}

// ListContent returns the content library as folder trees.
func (h *PresentationHandler) ListContent(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.Library)
	log.Printf("[Presentation] Listed %d content items", len(h.Library.Items()))
}

// ListPlans returns every known service plan.
func (h *PresentationHandler) ListPlans(w http.ResponseWriter, r *http.Request) {
	plans := h.Store.State().ServicePlans
	if plans == nil {
		plans = []*models.ServicePlan{}
	}
	writeJSON(w, http.StatusOK, plans)
}

// CreatePlan creates a plan and makes it current.
func (h *PresentationHandler) CreatePlan(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Title string `json:"title"`
		Date  string `json:"date"`
	}
	if !decode(w, r, &req, "CreatePlan") {
		return
	}
	if req.Title == "" {
		http.Error(w, "Plan title cannot be empty", http.StatusBadRequest)
		return
	}
	p := h.Store.CreatePlan(req.Title, req.Date)
	writeJSON(w, http.StatusCreated, p)
}

// ActivatePlan makes a stored plan current, starting at its first slide.
func (h *PresentationHandler) ActivatePlan(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	for _, p := range h.Store.State().ServicePlans {
		if p.ID == id {
			h.Store.SetCurrentPlan(p)
			h.writePosition(w)
			return
		}
	}
	http.Error(w, "Plan not found", http.StatusNotFound)
	log.Printf("[Presentation] Plan not found: %s", id)
}

// AddItem appends a library item to the current plan.
func (h *PresentationHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ContentID string `json:"contentId"`
	}
	if !decode(w, r, &req, "AddItem") {
		return
	}
	item, ok := h.Library.Find(req.ContentID)
	if !ok {
		http.Error(w, "Content not found", http.StatusNotFound)
		log.Printf("[Presentation] Content not found: %s", req.ContentID)
		return
	}
	if !h.requirePlan(w) {
		return
	}
	h.Store.AddToCurrentPlan(item)
	writeJSON(w, http.StatusOK, h.Store.State().CurrentServicePlan)
}

// RemoveItem drops an item from the current plan.
func (h *PresentationHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	if !h.requirePlan(w) {
		return
	}
	h.Store.RemoveFromCurrentPlan(mux.Vars(r)["itemId"])
	writeJSON(w, http.StatusOK, h.Store.State().CurrentServicePlan)
}

// ReorderItems moves the item at "from" to "to".
func (h *PresentationHandler) ReorderItems(w http.ResponseWriter, r *http.Request) {
	var req struct {
		From int `json:"from"`
		To   int `json:"to"`
	}
	if !decode(w, r, &req, "ReorderItems") {
		return
	}
	if !h.requirePlan(w) {
		return
	}
	h.Store.ReorderCurrentPlan(req.From, req.To)
	writeJSON(w, http.StatusOK, h.Store.State().CurrentServicePlan)
}

func (h *PresentationHandler) Next(w http.ResponseWriter, r *http.Request) {
	h.Store.GoToNextSlide()
	h.writePosition(w)
}

func (h *PresentationHandler) Previous(w http.ResponseWriter, r *http.Request) {
	h.Store.PreviousSlide()
	h.writePosition(w)
}

// GoTo jumps to a flattened slide index. Out-of-range indexes leave the
// position unchanged.
func (h *PresentationHandler) GoTo(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Index int `json:"index"`
	}
	if !decode(w, r, &req, "GoTo") {
		return
	}
	h.Store.GoToSlide(req.Index)
	h.writePosition(w)
}

// EditSlide replaces the text of the live slide.
func (h *PresentationHandler) EditSlide(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Content string `json:"content"`
	}
	if !decode(w, r, &req, "EditSlide") {
		return
	}
	h.Store.EditCurrentSlideContent(req.Content)
	h.writePosition(w)
}

// ToggleOverlay flips the blank, logo or timer overlay.
func (h *PresentationHandler) ToggleOverlay(w http.ResponseWriter, r *http.Request) {
	var value bool
	switch overlay := mux.Vars(r)["overlay"]; overlay {
	case "blank":
		value = h.Store.ToggleBlank()
	case "logo":
		value = h.Store.ToggleLogo()
	case "timer":
		value = h.Store.ToggleTimer()
	default:
		http.Error(w, "Unknown overlay", http.StatusNotFound)
		log.Printf("[Presentation] Unknown overlay: %s", overlay)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"value": value})
}

// SetProjector records whether the display window is open.
func (h *PresentationHandler) SetProjector(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Open bool `json:"open"`
	}
	if !decode(w, r, &req, "SetProjector") {
		return
	}
	h.Store.SetProjectorOpen(req.Open)
	writeJSON(w, http.StatusOK, map[string]bool{"isProjectorOpen": req.Open})
}

// GetProjectorState returns what the local display context currently shows.
func (h *PresentationHandler) GetProjectorState(w http.ResponseWriter, r *http.Request) {
	if h.Projector == nil {
		http.Error(w, "No local projector", http.StatusNotFound)
		return
	}
	st := h.Projector.State()
	writeJSON(w, http.StatusOK, struct {
		models.PresentationState
		Screen models.Screen `json:"screen"`
	}{st, st.Screen()})
}

// GetState returns the whole presentation state.
func (h *PresentationHandler) GetState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.Store.State())
}

// CurrentSlide returns the live slide, as JSON or with ?format=html as
// rendered markdown.
func (h *PresentationHandler) CurrentSlide(w http.ResponseWriter, r *http.Request) {
	slide := h.Store.State().CurrentSlide
	if slide == nil {
		http.Error(w, "No current slide", http.StatusNotFound)
		return
	}
	if r.URL.Query().Get("format") == "html" {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(markdown.RenderHTML(slide.Content)))
		return
	}
	writeJSON(w, http.StatusOK, slide)
}
