package apiclient

import (
	"encoding/json"
	"fmt"
)

// APIError is the failure half of a Result. Status is 0 when no HTTP exchange completed.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
	Status  int    `json:"status"`
}

func (e *APIError) Error() string {
	if e.Status == 0 {
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	return fmt.Sprintf("%s (%d): %s", e.Code, e.Status, e.Message)
}

// Result is either a success carrying Data and the HTTP status, or a failure with Err set.
type Result[T any] struct {
	Data   T         `json:"data,omitempty"`
	Status int       `json:"status"`
	Err    *APIError `json:"error,omitempty"`
}

func (r Result[T]) OK() bool {
	return r.Err == nil
}

func success[T any](data T, status int) Result[T] {
	return Result[T]{Data: data, Status: status}
}

func failure[T any](code string, status int, details any) Result[T] {
	return Result[T]{
		Status: status,
		Err: &APIError{
			Code:    code,
			Message: MessageFor(code),
			Details: details,
			Status:  status,
		},
	}
}

// Decode gives a typed view of a raw result. A body that does not fit T becomes a
// server-error failure with status 0; failures pass through unchanged.
func Decode[T any](raw Result[json.RawMessage]) Result[T] {
	if raw.Err != nil {
		return Result[T]{Status: raw.Status, Err: raw.Err}
	}

	var out T
	if len(raw.Data) == 0 || string(raw.Data) == "null" {
		return success(out, raw.Status)
	}
	if err := json.Unmarshal(raw.Data, &out); err != nil {
		return failure[T](CodeServerError, 0, err.Error())
	}
	return success(out, raw.Status)
}
