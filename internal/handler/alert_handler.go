package handler

import (
	"net/http"
	"strconv"

	"AlertIntelAPI/internal/logger"
	"AlertIntelAPI/internal/models"
	"AlertIntelAPI/internal/service"

	"github.com/gorilla/mux"
)

type AlertHandler struct {
	alertService service.IAlertService
	log          *logger.Logger
}

func NewAlertHandler(alertService service.IAlertService, log *logger.Logger) *AlertHandler {
	return &AlertHandler{
		alertService: alertService,
		log:          log,
	}
}

func (h *AlertHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/alerts", h.Ingest).Methods("POST")
	r.HandleFunc("/alerts/history", h.GetAlertHistory).Methods("GET")
	r.HandleFunc("/alerts/statistics", h.GetStatistics).Methods("GET")
	r.HandleFunc("/alerts/acknowledge/{id}", h.Acknowledge).Methods("PUT")
	r.HandleFunc("/alerts/resolve/{id}", h.Resolve).Methods("PUT")
	r.HandleFunc("/alerts/{id}", h.GetAlert).Methods("GET")
	r.HandleFunc("/alerts/{id}", h.Delete).Methods("DELETE")
}

// Ingest accepts a new alert and starts its intelligence pipeline. Responds
// 202: routing happens asynchronously, the caller gets the stored alert back.
func (h *AlertHandler) Ingest(w http.ResponseWriter, r *http.Request) {
	var req models.CreateAlertRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	alert, err := h.alertService.Ingest(r.Context(), &req)
	if err != nil {
		h.log.Error("Failed to ingest alert: %v", err)
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	respondJSON(w, http.StatusAccepted, alert)
}

func (h *AlertHandler) GetAlert(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	alert, err := h.alertService.GetAlert(r.Context(), id)
	if err != nil {
		h.log.Error("Failed to get alert %s: %v", id, err)
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if alert == nil {
		respondError(w, http.StatusNotFound, "Alert not found")
		return
	}

	respondJSON(w, http.StatusOK, alert)
}

func (h *AlertHandler) GetAlertHistory(w http.ResponseWriter, r *http.Request) {
	limit := 50
	offset := 0

	if l := r.URL.Query().Get("limit"); l != "" {
		if parsed, err := strconv.Atoi(l); err == nil {
			limit = parsed
		}
	}
	if o := r.URL.Query().Get("offset"); o != "" {
		if parsed, err := strconv.Atoi(o); err == nil {
			offset = parsed
		}
	}

	alerts, err := h.alertService.GetAlertHistory(r.Context(), limit, offset)
	if err != nil {
		h.log.Error("Failed to get alert history: %v", err)
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	respondJSON(w, http.StatusOK, alerts)
}

func (h *AlertHandler) GetStatistics(w http.ResponseWriter, r *http.Request) {
	stats, err := h.alertService.GetAlertStatistics(r.Context())
	if err != nil {
		h.log.Error("Failed to get alert statistics: %v", err)
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	respondJSON(w, http.StatusOK, stats)
}

func (h *AlertHandler) Acknowledge(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	if err := h.alertService.Acknowledge(r.Context(), id); err != nil {
		h.log.Error("Failed to acknowledge alert %s: %v", id, err)
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"status": "alert acknowledged"})
}

// Resolve closes an alert. The body carries resolution notes and the
// resolving user, which feed the action-derivation and expertise models.
func (h *AlertHandler) Resolve(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	var req models.ResolveAlertRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := h.alertService.Resolve(r.Context(), id, &req); err != nil {
		h.log.Error("Failed to resolve alert %s: %v", id, err)
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"status": "alert resolved"})
}

func (h *AlertHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	if err := h.alertService.DeleteAlert(r.Context(), id); err != nil {
		h.log.Error("Failed to delete alert %s: %v", id, err)
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
