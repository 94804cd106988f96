// Package httputil provides HTTP handler utilities for consistent error
// responses, JSON encoding, and request parsing.
package httputil

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"
)

// WriteJSON writes a JSON response with the given status code.
func WriteJSON(w http.ResponseWriter, status int, data interface{}) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(data)
}

// WriteDetail writes the standard error body {"detail": message}.
func WriteDetail(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{
		"detail": message,
	})
}

// WriteSuccess writes a 200 response with JSON data.
func WriteSuccess(w http.ResponseWriter, data interface{}) error {
	return WriteJSON(w, http.StatusOK, data)
}

// WriteCreated writes a 201 response with JSON data.
func WriteCreated(w http.ResponseWriter, data interface{}) error {
	return WriteJSON(w, http.StatusCreated, data)
}

// WriteNoContent writes a 204 response.
func WriteNoContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}

// WriteBadRequest writes a 400 detail response.
func WriteBadRequest(w http.ResponseWriter, message string) {
	WriteDetail(w, http.StatusBadRequest, message)
}

// WriteUnauthorized writes a 401 detail response.
func WriteUnauthorized(w http.ResponseWriter, message string) {
	WriteDetail(w, http.StatusUnauthorized, message)
}

// WriteForbidden writes a 403 detail response.
func WriteForbidden(w http.ResponseWriter, message string) {
	WriteDetail(w, http.StatusForbidden, message)
}

// WriteNotFound writes a 404 detail response.
func WriteNotFound(w http.ResponseWriter, message string) {
	WriteDetail(w, http.StatusNotFound, message)
}

// WriteConflict writes a 409 detail response.
func WriteConflict(w http.ResponseWriter, message string) {
	WriteDetail(w, http.StatusConflict, message)
}

// WriteLocked writes a 423 response reporting the remaining lockout.
func WriteLocked(w http.ResponseWriter, message string, retryAfter time.Duration) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Retry-After", strconv.Itoa(retryAfterSeconds(retryAfter)))
	w.WriteHeader(http.StatusLocked)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"detail":      message,
		"retry_after": retryAfterSeconds(retryAfter),
	})
}

// WriteTooManyRequests writes a 429 response with a Retry-After header.
func WriteTooManyRequests(w http.ResponseWriter, message string, retryAfter time.Duration) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Retry-After", strconv.Itoa(retryAfterSeconds(retryAfter)))
	w.WriteHeader(http.StatusTooManyRequests)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"detail":      message,
		"retry_after": retryAfterSeconds(retryAfter),
	})
}

// WriteInternalError writes a 500 detail response without leaking the cause.
func WriteInternalError(w http.ResponseWriter) {
	WriteDetail(w, http.StatusInternalServerError, "internal server error")
}

// retryAfterSeconds rounds up so a sub-second remainder never reports 0.
func retryAfterSeconds(d time.Duration) int {
	secs := int((d + time.Second - 1) / time.Second)
	if secs < 1 {
		secs = 1
	}
	return secs
}
