package apiclient

import (
	"net/http"
	"sort"
	"strings"
)

// Stable machine-readable error codes shared with the portal service.
const (
	CodeUnauthorized       = "auth/unauthorized"
	CodeTokenExpired       = "auth/token-expired"
	CodeInvalidCredentials = "auth/invalid-credentials"

	CodeValidation   = "validation/error"
	CodeInvalidInput = "validation/invalid-input"

	CodeServerError        = "server/error"
	CodeServiceUnavailable = "server/service-unavailable"

	CodeNotFound         = "resource/not-found"
	CodePermissionDenied = "resource/permission-denied"
	CodeQuotaExceeded    = "resource/quota-exceeded"

	CodeAlreadySubmitted    = "application/already-submitted"
	CodeApplicationNotFound = "application/not-found"
	CodeInvalidStatus       = "application/invalid-status"

	CodePaymentFailed   = "payment/failed"
	CodePaymentDeclined = "payment/declined"
	CodePaymentInvalid  = "payment/invalid"
)

// ErrorMapping ties a code to its user-facing message and the HTTP status the portal
// surface answers with when it relays the failure.
type ErrorMapping struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	HTTPStatus int    `json:"http_status"`
}

var errorCatalogue = map[string]ErrorMapping{
	CodeUnauthorized:       {CodeUnauthorized, "You need to sign in to continue.", http.StatusUnauthorized},
	CodeTokenExpired:       {CodeTokenExpired, "Your session has expired. Please sign in again.", http.StatusUnauthorized},
	CodeInvalidCredentials: {CodeInvalidCredentials, "The email or password you entered is incorrect.", http.StatusUnauthorized},

	CodeValidation:   {CodeValidation, "Some of the information provided is not valid.", http.StatusUnprocessableEntity},
	CodeInvalidInput: {CodeInvalidInput, "The request contains invalid input.", http.StatusBadRequest},

	CodeServerError:        {CodeServerError, "Something went wrong on our side. Please try again later.", http.StatusInternalServerError},
	CodeServiceUnavailable: {CodeServiceUnavailable, "The service is temporarily unavailable. Please try again later.", http.StatusServiceUnavailable},

	CodeNotFound:         {CodeNotFound, "The requested resource could not be found.", http.StatusNotFound},
	CodePermissionDenied: {CodePermissionDenied, "You do not have permission to perform this action.", http.StatusForbidden},
	CodeQuotaExceeded:    {CodeQuotaExceeded, "You have reached the limit for this action.", http.StatusTooManyRequests},

	CodeAlreadySubmitted:    {CodeAlreadySubmitted, "This application has already been submitted.", http.StatusConflict},
	CodeApplicationNotFound: {CodeApplicationNotFound, "The application could not be found.", http.StatusNotFound},
	CodeInvalidStatus:       {CodeInvalidStatus, "The application is not in a state that allows this action.", http.StatusConflict},

	CodePaymentFailed:   {CodePaymentFailed, "The payment could not be processed.", http.StatusPaymentRequired},
	CodePaymentDeclined: {CodePaymentDeclined, "The payment was declined by your bank.", http.StatusPaymentRequired},
	CodePaymentInvalid:  {CodePaymentInvalid, "The payment details are not valid.", http.StatusUnprocessableEntity},
}

// Lookup returns the mapping for code. Unknown codes resolve to the generic server error.
func Lookup(code string) ErrorMapping {
	if m, ok := errorCatalogue[code]; ok {
		return m
	}
	return errorCatalogue[CodeServerError]
}

// MessageFor is Lookup(code).Message.
func MessageFor(code string) string {
	return Lookup(code).Message
}

// Known reports whether code is part of the catalogue.
func Known(code string) bool {
	_, ok := errorCatalogue[code]
	return ok
}

// Catalogue lists every mapping ordered by code, optionally restricted to one group
// such as "payment".
func Catalogue(group string) []ErrorMapping {
	out := make([]ErrorMapping, 0, len(errorCatalogue))
	for code, m := range errorCatalogue {
		if group != "" && !strings.HasPrefix(code, group+"/") {
			continue
		}
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out
}
