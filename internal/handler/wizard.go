// Package handler exposes the passport wizard, fee catalogue and portal relay over HTTP.
package handler

import (
	"encoding/json"
	stderrors "errors"
	"io"
	"net/http"
	"path/filepath"

	"consular/internal/apiclient"
	"consular/internal/domain"
	"consular/internal/middleware"
	"consular/internal/wizard"
	"consular/pkg/errors"
	"consular/pkg/logger"
	"consular/pkg/validator"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
)

// WizardHandler drives wizard sessions for browser and API clients.
type WizardHandler struct {
	store     *wizard.Store
	submitter wizard.Submitter
	validator *validator.Validator
	logger    logger.Logger
	maxUpload int64
}

func NewWizardHandler(store *wizard.Store, sub wizard.Submitter, val *validator.Validator, log logger.Logger, maxUpload int64) *WizardHandler {
	return &WizardHandler{
		store:     store,
		submitter: sub,
		validator: val,
		logger:    log,
		maxUpload: maxUpload,
	}
}

// Register mounts the wizard routes on r.
func (h *WizardHandler) Register(r *mux.Router) {
	s := r.PathPrefix("/wizard/passport").Subrouter()
	s.HandleFunc("/steps", h.Steps).Methods(http.MethodGet)
	s.HandleFunc("/sessions", h.Create).Methods(http.MethodPost)
	s.HandleFunc("/sessions/{id}", h.Get).Methods(http.MethodGet)
	s.HandleFunc("/sessions/{id}", h.Abandon).Methods(http.MethodDelete)
	s.HandleFunc("/sessions/{id}/fields", h.ChangeField).Methods(http.MethodPatch)
	s.HandleFunc("/sessions/{id}/documents/{field}", h.UploadDocument).Methods(http.MethodPost)
	s.HandleFunc("/sessions/{id}/advance", h.Advance).Methods(http.MethodPost)
	s.HandleFunc("/sessions/{id}/retreat", h.Retreat).Methods(http.MethodPost)
	s.HandleFunc("/sessions/{id}/submit", h.Submit).Methods(http.MethodPost)
}

// ==============================================================================
// HELPERS
// ==============================================================================

func (h *WizardHandler) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("Failed to encode JSON response", map[string]interface{}{
			"error":   err.Error(),
			"status":  status,
			"handler": "wizard",
		})
	}
}

func (h *WizardHandler) respondError(w http.ResponseWriter, status int, message string) {
	h.respondJSON(w, status, map[string]string{"error": message})
}

// session resolves {id}; it writes the 404 itself.
func (h *WizardHandler) session(w http.ResponseWriter, r *http.Request) (*wizard.Session, bool) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		h.respondError(w, http.StatusNotFound, "Session not found")
		return nil, false
	}
	sess, err := h.store.Get(id)
	if err != nil {
		h.handleError(w, r, err, "get_session")
		return nil, false
	}
	return sess, true
}

func (h *WizardHandler) handleError(w http.ResponseWriter, r *http.Request, err error, operation string) {
	status, message := mapWizardError(err)

	fields := map[string]interface{}{
		"operation":  operation,
		"error":      err.Error(),
		"status":     status,
		"request_id": middleware.RequestIDFromContext(r.Context()),
	}
	if status >= http.StatusInternalServerError {
		h.logger.Error("Wizard system error", fields)
	} else {
		h.logger.Warn("Wizard client error", fields)
	}

	h.respondError(w, status, message)
}

func mapWizardError(err error) (int, string) {
	switch {
	case stderrors.Is(err, errors.ErrSessionNotFound):
		return http.StatusNotFound, "Session not found"
	case stderrors.Is(err, errors.ErrAlreadySubmitted):
		return http.StatusConflict, "Application already submitted"
	case stderrors.Is(err, errors.ErrFieldNotOnStep):
		return http.StatusConflict, err.Error()
	case stderrors.Is(err, errors.ErrNotOnFinalStep):
		return http.StatusConflict, "Submission is only possible from the final step"
	case stderrors.Is(err, errors.ErrUnknownField),
		stderrors.Is(err, errors.ErrInvalidFieldValue):
		return http.StatusBadRequest, err.Error()
	case stderrors.Is(err, errors.ErrStepInvalid):
		return http.StatusUnprocessableEntity, "Please correct the highlighted fields"
	case stderrors.Is(err, errors.ErrFeeNotFound):
		return http.StatusUnprocessableEntity, "No fee is defined for the selected service"
	default:
		return http.StatusInternalServerError, "Internal server error"
	}
}

// ==============================================================================
// ENDPOINTS
// ==============================================================================

type stepDescription struct {
	Step   int                `json:"step"`
	Title  string             `json:"title"`
	Fields []wizard.FieldInfo `json:"fields"`
}

// Steps describes every step with the fields an empty draft shows.
// GET /wizard/passport/steps
func (h *WizardHandler) Steps(w http.ResponseWriter, r *http.Request) {
	var empty domain.ApplicationDraft
	steps := make([]stepDescription, 0, wizard.LastStep)
	for step := wizard.FirstStep; step <= wizard.LastStep; step++ {
		steps = append(steps, stepDescription{
			Step:   step,
			Title:  wizard.StepTitle(step),
			Fields: wizard.StepFields(step, &empty),
		})
	}
	h.respondJSON(w, http.StatusOK, map[string]interface{}{"steps": steps})
}

// Create starts a new application on step 1.
// POST /wizard/passport/sessions
func (h *WizardHandler) Create(w http.ResponseWriter, r *http.Request) {
	sess := h.store.Create()
	w.Header().Set("Location", r.URL.Path+"/"+sess.ID().String())
	h.respondJSON(w, http.StatusCreated, sess.Snapshot())
}

// GET /wizard/passport/sessions/{id}
func (h *WizardHandler) Get(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	h.respondJSON(w, http.StatusOK, sess.Snapshot())
}

// Abandon discards the session and its draft.
// DELETE /wizard/passport/sessions/{id}
func (h *WizardHandler) Abandon(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	if err := h.store.Delete(sess.ID()); err != nil {
		h.handleError(w, r, err, "abandon")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type fieldChangeRequest struct {
	Field string          `json:"field" validate:"required,max=64"`
	Value json.RawMessage `json:"value" validate:"required"`
}

type fieldChangeResponse struct {
	Field   domain.FieldID  `json:"field"`
	Error   string          `json:"error,omitempty"`
	Session wizard.Snapshot `json:"session"`
}

// ChangeField stores one text or flag value. Documents go through UploadDocument.
// PATCH /wizard/passport/sessions/{id}/fields
func (h *WizardHandler) ChangeField(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}

	var req fieldChangeRequest
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		if err == io.EOF {
			h.respondError(w, http.StatusBadRequest, "Request body is required")
			return
		}
		h.respondError(w, http.StatusBadRequest, "Invalid request body format")
		return
	}
	if errs := h.validator.ValidateStructured(req); errs != nil {
		h.respondJSON(w, http.StatusBadRequest, map[string]interface{}{
			"error":  "Invalid request",
			"fields": errs,
		})
		return
	}

	id, err := domain.ParseFieldID(req.Field)
	if err != nil {
		h.handleError(w, r, err, "change_field")
		return
	}
	value, ok := decodeValue(id, req.Value)
	if !ok {
		h.respondError(w, http.StatusBadRequest, "Value does not match the field type "+id.Kind().String())
		return
	}

	msg, err := sess.OnFieldChange(id, value)
	if err != nil {
		h.handleError(w, r, err, "change_field")
		return
	}
	h.respondJSON(w, http.StatusOK, fieldChangeResponse{Field: id, Error: msg, Session: sess.Snapshot()})
}

func decodeValue(id domain.FieldID, raw json.RawMessage) (domain.FieldValue, bool) {
	switch id.Kind() {
	case domain.KindText:
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return domain.FieldValue{}, false
		}
		return domain.Text(s), true
	case domain.KindFlag:
		var b bool
		if err := json.Unmarshal(raw, &b); err != nil {
			return domain.FieldValue{}, false
		}
		return domain.Flag(b), true
	}
	return domain.FieldValue{}, false
}

// UploadDocument reads the "file" part of a multipart body into the document field.
// Oversized files are kept with their size so the step rules can report them.
// POST /wizard/passport/sessions/{id}/documents/{field}
func (h *WizardHandler) UploadDocument(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}

	id, err := domain.ParseFieldID(mux.Vars(r)["field"])
	if err != nil {
		h.handleError(w, r, err, "upload_document")
		return
	}
	if id.Kind() != domain.KindFile {
		h.respondError(w, http.StatusBadRequest, "Field does not accept documents")
		return
	}

	mr, err := r.MultipartReader()
	if err != nil {
		h.respondError(w, http.StatusBadRequest, "Expected a multipart/form-data body")
		return
	}

	var ref *domain.FileRef
	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			h.respondError(w, http.StatusBadRequest, "Malformed multipart body")
			return
		}
		if part.FormName() != "file" {
			_ = part.Close()
			continue
		}

		data, err := io.ReadAll(io.LimitReader(part, h.maxUpload+1))
		_ = part.Close()
		if err != nil {
			h.respondError(w, http.StatusBadRequest, "Could not read uploaded file")
			return
		}
		contentType := part.Header.Get("Content-Type")
		if contentType == "" || contentType == "application/octet-stream" {
			contentType = http.DetectContentType(data)
		}
		ref = domain.NewFileRefFromBytes(filepath.Base(part.FileName()), contentType, data)
		break
	}
	if ref == nil {
		h.respondError(w, http.StatusBadRequest, "Multipart body has no file part")
		return
	}

	msg, err := sess.OnFieldChange(id, domain.File(ref))
	if err != nil {
		h.handleError(w, r, err, "upload_document")
		return
	}

	h.logger.Info("Wizard document received", map[string]interface{}{
		"session_id": sess.ID().String(),
		"field":      string(id),
		"size":       ref.Size,
		"valid":      msg == "",
		"request_id": middleware.RequestIDFromContext(r.Context()),
	})
	h.respondJSON(w, http.StatusOK, fieldChangeResponse{Field: id, Error: msg, Session: sess.Snapshot()})
}

type stepResponse struct {
	Step       int               `json:"step"`
	Validation wizard.StepResult `json:"validation"`
	Session    wizard.Snapshot   `json:"session"`
}

// Advance answers 200 when the step moved and 422 when the gate refused it.
// POST /wizard/passport/sessions/{id}/advance
func (h *WizardHandler) Advance(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}

	step, res, err := sess.Advance()
	if err != nil {
		h.handleError(w, r, err, "advance")
		return
	}

	status := http.StatusOK
	if !res.Valid {
		status = http.StatusUnprocessableEntity
	}
	h.respondJSON(w, status, stepResponse{Step: step, Validation: res, Session: sess.Snapshot()})
}

// POST /wizard/passport/sessions/{id}/retreat
func (h *WizardHandler) Retreat(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}

	step, err := sess.Retreat()
	if err != nil {
		h.handleError(w, r, err, "retreat")
		return
	}
	h.respondJSON(w, http.StatusOK, stepResponse{Step: step, Validation: wizard.StepResult{Valid: true}, Session: sess.Snapshot()})
}

type submitResponse struct {
	Error   string               `json:"error,omitempty"`
	Code    string               `json:"code,omitempty"`
	Outcome wizard.SubmitOutcome `json:"outcome"`
	Session wizard.Snapshot      `json:"session"`
}

// Submit sends the application to the portal service. A portal rejection is relayed
// with the status its error code maps to.
// POST /wizard/passport/sessions/{id}/submit
func (h *WizardHandler) Submit(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}

	outcome, err := sess.Submit(r.Context(), h.submitter)
	switch {
	case err == nil:
		h.logger.Info("Passport application submitted", map[string]interface{}{
			"event":      "application_submitted",
			"session_id": sess.ID().String(),
			"reference":  outcome.Receipt.ReferenceNumber,
			"request_id": middleware.RequestIDFromContext(r.Context()),
		})
		h.respondJSON(w, http.StatusCreated, submitResponse{Outcome: outcome, Session: sess.Snapshot()})

	case stderrors.Is(err, errors.ErrStepInvalid):
		h.respondJSON(w, http.StatusUnprocessableEntity, submitResponse{
			Error:   "Please correct the highlighted fields",
			Outcome: outcome,
			Session: sess.Snapshot(),
		})

	case stderrors.Is(err, errors.ErrSubmissionFailed) && outcome.Failure != nil:
		mapping := apiclient.Lookup(outcome.Failure.Code)
		h.logger.Warn("Passport submission rejected", map[string]interface{}{
			"session_id": sess.ID().String(),
			"code":       outcome.Failure.Code,
			"status":     outcome.Failure.Status,
			"request_id": middleware.RequestIDFromContext(r.Context()),
		})
		h.respondJSON(w, mapping.HTTPStatus, submitResponse{
			Error:   outcome.Failure.Message,
			Code:    outcome.Failure.Code,
			Outcome: outcome,
			Session: sess.Snapshot(),
		})

	default:
		h.handleError(w, r, err, "submit")
	}
}
