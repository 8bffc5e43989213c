package handler

import (
	"encoding/json"
	"io"
	"net/http"

	"consular/internal/apiclient"
	"consular/internal/domain"
	"consular/internal/middleware"
	"consular/pkg/logger"
	"consular/pkg/validator"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
)

// PortalHandler relays citizen and admin reads to the portal service through the
// gateway client, answering with the client's normalized errors.
type PortalHandler struct {
	services  *apiclient.Services
	validator *validator.Validator
	logger    logger.Logger
}

func NewPortalHandler(services *apiclient.Services, val *validator.Validator, log logger.Logger) *PortalHandler {
	return &PortalHandler{services: services, validator: val, logger: log}
}

func (h *PortalHandler) Register(r *mux.Router) {
	r.HandleFunc("/profile", h.Profile).Methods(http.MethodGet)
	r.HandleFunc("/applications", h.Applications).Methods(http.MethodGet)
	r.HandleFunc("/applications/{id}", h.Application).Methods(http.MethodGet)
	r.HandleFunc("/applications/{id}/tracking", h.Track).Methods(http.MethodGet)
	r.HandleFunc("/appointments", h.Appointments).Methods(http.MethodGet)
	r.HandleFunc("/appointments", h.BookAppointment).Methods(http.MethodPost)
	r.HandleFunc("/messages", h.Messages).Methods(http.MethodGet)

	admin := r.PathPrefix("/admin").Subrouter()
	admin.HandleFunc("/applications", h.AdminApplications).Methods(http.MethodGet)
	admin.HandleFunc("/applications/{id}/status", h.AdminUpdateStatus).Methods(http.MethodPatch)
}

func (h *PortalHandler) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("Failed to encode JSON response", map[string]interface{}{
			"error":   err.Error(),
			"status":  status,
			"handler": "portal",
		})
	}
}

func (h *PortalHandler) respondError(w http.ResponseWriter, status int, message string) {
	h.respondJSON(w, status, map[string]string{"error": message})
}

// relay writes a client result. Failures keep the remote status when there was one
// and fall back to the status the error code maps to.
func relay[T any](h *PortalHandler, w http.ResponseWriter, r *http.Request, okStatus int, res apiclient.Result[T]) {
	if res.OK() {
		h.respondJSON(w, okStatus, res.Data)
		return
	}

	status := res.Err.Status
	if status < http.StatusBadRequest {
		status = apiclient.Lookup(res.Err.Code).HTTPStatus
	}
	h.logger.Warn("Portal service request failed", map[string]interface{}{
		"path":       r.URL.Path,
		"code":       res.Err.Code,
		"status":     status,
		"request_id": middleware.RequestIDFromContext(r.Context()),
	})
	h.respondJSON(w, status, map[string]interface{}{
		"error":   res.Err.Message,
		"code":    res.Err.Code,
		"details": res.Err.Details,
	})
}

func (h *PortalHandler) decode(w http.ResponseWriter, r *http.Request, req interface{}) bool {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(req); err != nil {
		if err == io.EOF {
			h.respondError(w, http.StatusBadRequest, "Request body is required")
			return false
		}
		h.respondError(w, http.StatusBadRequest, "Invalid request body format")
		return false
	}
	if errs := h.validator.ValidateStructured(req); errs != nil {
		h.respondJSON(w, http.StatusBadRequest, map[string]interface{}{
			"error":  "Invalid request",
			"fields": errs,
		})
		return false
	}
	return true
}

// GET /profile
func (h *PortalHandler) Profile(w http.ResponseWriter, r *http.Request) {
	relay(h, w, r, http.StatusOK, h.services.Profile(r.Context()))
}

// GET /applications?status=under_review
func (h *PortalHandler) Applications(w http.ResponseWriter, r *http.Request) {
	status := domain.ApplicationStatus(r.URL.Query().Get("status"))
	relay(h, w, r, http.StatusOK, h.services.Applications(r.Context(), status))
}

// GET /applications/{id}
func (h *PortalHandler) Application(w http.ResponseWriter, r *http.Request) {
	relay(h, w, r, http.StatusOK, h.services.Application(r.Context(), mux.Vars(r)["id"]))
}

// GET /applications/{id}/tracking
func (h *PortalHandler) Track(w http.ResponseWriter, r *http.Request) {
	relay(h, w, r, http.StatusOK, h.services.Track(r.Context(), mux.Vars(r)["id"]))
}

// GET /appointments
func (h *PortalHandler) Appointments(w http.ResponseWriter, r *http.Request) {
	relay(h, w, r, http.StatusOK, h.services.Appointments(r.Context()))
}

// POST /appointments
func (h *PortalHandler) BookAppointment(w http.ResponseWriter, r *http.Request) {
	var req domain.AppointmentRequest
	if !h.decode(w, r, &req) {
		return
	}
	if req.ApplicationID == uuid.Nil || req.Slot.IsZero() {
		h.respondError(w, http.StatusBadRequest, "application_id and slot are required")
		return
	}
	relay(h, w, r, http.StatusCreated, h.services.BookAppointment(r.Context(), req))
}

// GET /messages
func (h *PortalHandler) Messages(w http.ResponseWriter, r *http.Request) {
	relay(h, w, r, http.StatusOK, h.services.Messages(r.Context()))
}

// GET /admin/applications?status=submitted
func (h *PortalHandler) AdminApplications(w http.ResponseWriter, r *http.Request) {
	status := domain.ApplicationStatus(r.URL.Query().Get("status"))
	relay(h, w, r, http.StatusOK, h.services.AdminApplications(r.Context(), status))
}

// PATCH /admin/applications/{id}/status
func (h *PortalHandler) AdminUpdateStatus(w http.ResponseWriter, r *http.Request) {
	var req domain.StatusUpdate
	if !h.decode(w, r, &req) {
		return
	}

	h.logger.Info("Admin status update", map[string]interface{}{
		"event":          "application_status_update",
		"application_id": mux.Vars(r)["id"],
		"status":         string(req.Status),
		"request_id":     middleware.RequestIDFromContext(r.Context()),
	})
	relay(h, w, r, http.StatusOK, h.services.AdminUpdateStatus(r.Context(), mux.Vars(r)["id"], req))
}
