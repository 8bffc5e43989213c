package handler

import (
	"encoding/json"
	stderrors "errors"
	"net/http"

	"consular/internal/apiclient"
	"consular/internal/catalog"
	"consular/internal/domain"
	"consular/pkg/errors"
	"consular/pkg/logger"

	"github.com/gorilla/mux"
)

// CatalogHandler serves the fee schedule and the portal error catalogue.
type CatalogHandler struct {
	fees   *catalog.Schedule
	logger logger.Logger
}

func NewCatalogHandler(fees *catalog.Schedule, log logger.Logger) *CatalogHandler {
	return &CatalogHandler{fees: fees, logger: log}
}

func (h *CatalogHandler) Register(r *mux.Router) {
	r.HandleFunc("/services", h.Services).Methods(http.MethodGet)
	r.HandleFunc("/fees/passport", h.PassportFee).Methods(http.MethodGet)
	r.HandleFunc("/errors", h.ErrorCodes).Methods(http.MethodGet)
}

func (h *CatalogHandler) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("Failed to encode JSON response", map[string]interface{}{
			"error":   err.Error(),
			"status":  status,
			"handler": "catalog",
		})
	}
}

func (h *CatalogHandler) respondError(w http.ResponseWriter, status int, message string) {
	h.respondJSON(w, status, map[string]string{"error": message})
}

// GET /services
func (h *CatalogHandler) Services(w http.ResponseWriter, r *http.Request) {
	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"currency": h.fees.Currency(),
		"services": h.fees.Services(),
	})
}

// PassportFee quotes the fee for a passport type and processing speed.
// GET /fees/passport?passport_type=ordinary&processing_speed=urgent
func (h *CatalogHandler) PassportFee(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	pt := domain.PassportType(q.Get("passport_type"))
	speed := domain.ProcessingSpeed(q.Get("processing_speed"))
	if pt == "" || speed == "" {
		h.respondError(w, http.StatusBadRequest, "passport_type and processing_speed are required")
		return
	}

	quote, err := h.fees.Quote(pt, speed)
	if err != nil {
		if stderrors.Is(err, errors.ErrFeeNotFound) {
			h.respondError(w, http.StatusNotFound, "No fee is defined for the selected service")
			return
		}
		h.respondError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	h.respondJSON(w, http.StatusOK, quote)
}

// ErrorCodes lists the portal error codes, optionally narrowed to one group.
// GET /errors?group=payment
func (h *CatalogHandler) ErrorCodes(w http.ResponseWriter, r *http.Request) {
	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"errors": apiclient.Catalogue(r.URL.Query().Get("group")),
	})
}
