package handler

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/mux"
	"github.com/jarcoal/httpmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"consular/internal/apiclient"
	"consular/pkg/logger"
	"consular/pkg/validator"
)

const portalBase = "http://portal.test/api"

func portalRouter(t *testing.T) (*mux.Router, *httpmock.MockTransport) {
	t.Helper()
	mt := httpmock.NewMockTransport()
	client := apiclient.New(apiclient.Config{BaseURL: portalBase}, nil, logger.NewNop(),
		apiclient.WithHTTPClient(&http.Client{Transport: mt}))

	r := mux.NewRouter()
	NewPortalHandler(apiclient.NewServices(client), validator.New(), logger.NewNop()).
		Register(r.PathPrefix("/api/v1").Subrouter())
	return r, mt
}

func TestPortalHandler_RelaysSuccess(t *testing.T) {
	r, mt := portalRouter(t)
	mt.RegisterResponder(http.MethodGet, portalBase+"/citizen/applications",
		httpmock.NewStringResponder(200, `[{"reference_number":"PP-1","status":"under_review"}]`))

	rec := get(r, "/api/v1/applications")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"reference_number":"PP-1"`)
}

func TestPortalHandler_RelaysErrorEnvelope(t *testing.T) {
	r, mt := portalRouter(t)
	mt.RegisterResponder(http.MethodGet, portalBase+"/citizen/applications/PP-9/tracking",
		httpmock.NewStringResponder(404, `{"code":"application/not-found","message":"No such application"}`))

	rec := get(r, "/api/v1/applications/PP-9/tracking")
	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), `"code":"application/not-found"`)
	assert.Contains(t, rec.Body.String(), `"error":"No such application"`)
}

func TestPortalHandler_TransportFailureUsesCatalogueStatus(t *testing.T) {
	r, mt := portalRouter(t)
	mt.RegisterResponder(http.MethodGet, portalBase+"/citizen/messages",
		httpmock.NewErrorResponder(assert.AnError))

	rec := get(r, "/api/v1/messages")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), apiclient.CodeServerError)
}

func TestPortalHandler_AdminUpdateStatusValidates(t *testing.T) {
	r, mt := portalRouter(t)
	mt.RegisterResponder(http.MethodPatch, portalBase+"/admin/applications/PP-1/status",
		httpmock.NewStringResponder(200, `{"reference_number":"PP-1","status":"approved"}`))

	send := func(body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPatch, "/api/v1/admin/applications/PP-1/status", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)
		return rec
	}

	rec := send(`{"status":"lost_in_mail"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, 0, mt.GetTotalCallCount())

	rec = send(`{"status":"approved","note":"ok"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"approved"`)
}

func TestPortalHandler_BookAppointmentRequiresSlot(t *testing.T) {
	r, _ := portalRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/appointments",
		strings.NewReader(`{"purpose":"collection"}`))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
