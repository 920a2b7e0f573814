package handler

import (
	"net/http"

	"AlertIntelAPI/internal/logger"
	"AlertIntelAPI/internal/websocket"

	"github.com/gorilla/mux"
)

// WSHandler upgrades dashboard connections onto the broadcast hub.
type WSHandler struct {
	hub *websocket.Hub
	log *logger.Logger
}

func NewWSHandler(hub *websocket.Hub, log *logger.Logger) *WSHandler {
	return &WSHandler{hub: hub, log: log}
}

func (h *WSHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/ws", h.Serve).Methods("GET")
}

func (h *WSHandler) Serve(w http.ResponseWriter, r *http.Request) {
	websocket.ServeWs(h.hub, w, r, h.log)
}
