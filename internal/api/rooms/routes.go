package rooms

import (
	"log"
	"net/http"

	"github.com/gorilla/mux"
)

// RegisterRoomRoutes registers the relay socket and room endpoints.
func RegisterRoomRoutes(router *mux.Router, handler *RoomHandler) {
	router.HandleFunc("/api/v1/rooms/{room}", func(w http.ResponseWriter, r *http.Request) {
		log.Printf("[Relay] %s %s", r.Method, r.URL.Path)
		handler.GetRoom(w, r)
	}).Methods(http.MethodGet)

	// Also served at the socket path the browser clients already use.
	for _, path := range []string{"/ws", "/api/socketio"} {
		router.HandleFunc(path, func(w http.ResponseWriter, r *http.Request) {
			log.Printf("[Relay] WebSocket %s", r.URL.String())
			handler.ServeWS(w, r)
		})
	}
}
