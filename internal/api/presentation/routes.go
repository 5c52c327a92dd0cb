package presentation

import (
	"log"
	"net/http"

	"github.com/gorilla/mux"
)

// RegisterPresentationRoutes registers the presenter control endpoints.
func RegisterPresentationRoutes(router *mux.Router, handler *PresentationHandler) {
	routes := []struct {
		method string
		path   string
		fn     http.HandlerFunc
	}{
		{http.MethodGet, "/api/v1/content", handler.ListContent},
		{http.MethodGet, "/api/v1/plans", handler.ListPlans},
		{http.MethodPost, "/api/v1/plans", handler.CreatePlan},
		{http.MethodPost, "/api/v1/plans/{id}/activate", handler.ActivatePlan},
		{http.MethodPost, "/api/v1/plan/items", handler.AddItem},
		{http.MethodDelete, "/api/v1/plan/items/{itemId}", handler.RemoveItem},
		{http.MethodPost, "/api/v1/plan/reorder", handler.ReorderItems},
		{http.MethodPost, "/api/v1/plan/next", handler.Next},
		{http.MethodPost, "/api/v1/plan/prev", handler.Previous},
		{http.MethodPost, "/api/v1/plan/goto", handler.GoTo},
		{http.MethodPost, "/api/v1/plan/slide/content", handler.EditSlide},
		{http.MethodPost, "/api/v1/overlays/{overlay}/toggle", handler.ToggleOverlay},
		{http.MethodPost, "/api/v1/projector", handler.SetProjector},
		{http.MethodGet, "/api/v1/projector/state", handler.GetProjectorState},
		{http.MethodGet, "/api/v1/state", handler.GetState},
		{http.MethodGet, "/api/v1/slides/current", handler.CurrentSlide},
	}
	for _, rt := range routes {
		fn := rt.fn
		router.HandleFunc(rt.path, func(w http.ResponseWriter, r *http.Request) {
			log.Printf("[Presentation] %s %s", r.Method, r.URL.Path)
			fn(w, r)
		}).Methods(rt.method)
	}
}
