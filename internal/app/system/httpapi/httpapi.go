// internal/app/system/httpapi/httpapi.go
//
// Package httpapi holds the JSON request/response conventions shared by
// every handler: body decoding, the response envelope, and the mapping
// from the service error taxonomy onto HTTP status codes.
package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"
)

// exposeInternal controls whether 500 responses carry the underlying
// error text. Enabled outside production via Configure.
var exposeInternal bool

// Configure sets environment-dependent behavior. Called once at startup.
func Configure(env string) {
	exposeInternal = env != "prod"
}

// MaxBodyBytes caps request bodies. Attendance submissions for large
// groups stay well under this.
const MaxBodyBytes = 1 << 20

// Decode reads a JSON body into dst, rejecting unknown fields.
func Decode(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, MaxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return Validation("", "malformed JSON body: "+err.Error())
	}
	return nil
}

// Respond writes v as JSON with the given status.
func Respond(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// Error is the service error taxonomy. Handlers return *Error values
// from their validation paths; WriteError maps anything else to 500.
type Error struct {
	Status  int    `json:"-"`
	Message string `json:"error"`
	Field   string `json:"field,omitempty"`
	Value   string `json:"value,omitempty"`
	Details any    `json:"details,omitempty"`
}

func (e *Error) Error() string { return e.Message }

// Validation: malformed or out-of-range input -> 400.
func Validation(field, msg string) *Error {
	return &Error{Status: http.StatusBadRequest, Message: msg, Field: field}
}

// Unauthorized: no resolved identity -> 401.
func Unauthorized() *Error {
	return &Error{Status: http.StatusUnauthorized, Message: "unauthorized"}
}

// Forbidden: role mismatch or not an instructor of the group -> 403.
func Forbidden(msg string) *Error {
	return &Error{Status: http.StatusForbidden, Message: msg}
}

// NotFound: missing or soft-deleted entity -> 404.
func NotFound(msg string) *Error {
	return &Error{Status: http.StatusNotFound, Message: msg}
}

// Conflict: unique-constraint violation -> 409, naming the field/value.
func Conflict(field, value, msg string) *Error {
	return &Error{Status: http.StatusConflict, Message: msg, Field: field, Value: value}
}

// State: the entity is in a state that forbids the operation -> 400 with
// a diagnostic payload (incomplete session list, invalid id set, ...).
func State(msg string, details any) *Error {
	return &Error{Status: http.StatusBadRequest, Message: msg, Details: details}
}

// WriteError maps err onto the wire. Unexpected errors become a generic
// 500; their text is exposed only in non-production builds.
func WriteError(w http.ResponseWriter, log *zap.Logger, err error) {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		Respond(w, apiErr.Status, apiErr)
		return
	}

	log.Error("unexpected handler error", zap.Error(err))
	msg := "internal server error"
	if exposeInternal {
		msg = err.Error()
	}
	Respond(w, http.StatusInternalServerError, &Error{Message: msg})
}
