package handler

import (
	"net/http"

	"AlertIntelAPI/internal/engine"
	"AlertIntelAPI/internal/logger"

	"github.com/gorilla/mux"
)

// RoutingHandler exposes the engine's introspection and rule-management
// surface: statistics for dashboards, rules CRUD for operators.
type RoutingHandler struct {
	engine *engine.Engine
	log    *logger.Logger
}

func NewRoutingHandler(eng *engine.Engine, log *logger.Logger) *RoutingHandler {
	return &RoutingHandler{
		engine: eng,
		log:    log,
	}
}

// RegisterRoutes wires the read-only endpoints on r and the mutating rule
// endpoints on protected, which carries the auth middleware.
func (h *RoutingHandler) RegisterRoutes(r *mux.Router, protected *mux.Router) {
	r.HandleFunc("/routing/statistics", h.GetStatistics).Methods("GET")
	r.HandleFunc("/routing/rules", h.ListRules).Methods("GET")
	protected.HandleFunc("/routing/rules", h.AddRule).Methods("POST")
	protected.HandleFunc("/routing/rules/{id}", h.RemoveRule).Methods("DELETE")
}

func (h *RoutingHandler) GetStatistics(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.engine.Statistics())
}

func (h *RoutingHandler) ListRules(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.engine.Rules())
}

func (h *RoutingHandler) AddRule(w http.ResponseWriter, r *http.Request) {
	var rule engine.RoutingRule
	if err := decodeJSON(r, &rule); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := h.engine.AddRule(rule); err != nil {
		h.log.Error("Failed to add routing rule: %v", err)
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	h.log.Info("Routing rule %s installed (priority %d)", rule.ID, rule.Priority)
	respondJSON(w, http.StatusCreated, map[string]string{"status": "rule added", "id": rule.ID})
}

func (h *RoutingHandler) RemoveRule(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	if !h.engine.RemoveRule(id) {
		respondError(w, http.StatusNotFound, "Rule not found")
		return
	}

	h.log.Info("Routing rule %s removed", id)
	w.WriteHeader(http.StatusNoContent)
}
