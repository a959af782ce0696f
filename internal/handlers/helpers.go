package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/ternarybob/jobctl/internal/models"
)

// RequireMethod validates that the HTTP request uses the specified method.
// Returns true if the method matches, false otherwise (and writes error response).
func RequireMethod(w http.ResponseWriter, r *http.Request, method string) bool {
	if r.Method != method {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return false
	}
	return true
}

// WriteJSON writes a JSON response with the specified status code and data.
func WriteJSON(w http.ResponseWriter, statusCode int, data interface{}) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	return json.NewEncoder(w).Encode(data)
}

// WriteSuccess writes a standard success JSON response.
func WriteSuccess(w http.ResponseWriter, message string) error {
	return WriteJSON(w, http.StatusOK, map[string]string{
		"status":  "success",
		"message": message,
	})
}

// WriteError writes a standard error JSON response.
func WriteError(w http.ResponseWriter, statusCode int, message string) error {
	return WriteJSON(w, statusCode, map[string]string{
		"status": "error",
		"error":  message,
	})
}

// WriteServiceError maps domain errors onto HTTP status codes.
func WriteServiceError(w http.ResponseWriter, err error) error {
	var validationErr *models.ValidationError
	if errors.As(err, &validationErr) {
		return WriteJSON(w, http.StatusBadRequest, map[string]interface{}{
			"status": "error",
			"error":  "validation failed",
			"errors": validationErr.Errors,
		})
	}

	var storageErr *models.StorageUnavailableError
	if errors.As(err, &storageErr) {
		return WriteError(w, http.StatusServiceUnavailable, err.Error())
	}

	switch {
	case models.IsNotFound(err):
		return WriteError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, models.ErrProgressTimeout):
		return WriteError(w, http.StatusGatewayTimeout, err.Error())
	default:
		return WriteError(w, http.StatusInternalServerError, err.Error())
	}
}
