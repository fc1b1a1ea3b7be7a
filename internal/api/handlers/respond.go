package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/wenhao/stockboard/backend/internal/holidays"
)

// Response envelope helpers. Every endpoint answers
// {success, data, message} on success and {success, error, code} on
// failure, so the frontend can branch on one boolean.

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondData(w http.ResponseWriter, data interface{}, message string) {
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"data":    data,
		"message": message,
	})
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, map[string]interface{}{
		"success": false,
		"error":   message,
		"code":    code,
	})
}

// respondServiceError maps service failures onto the envelope:
// validation mistakes become 400 with their stable code, everything
// else a generic 500.
func respondServiceError(w http.ResponseWriter, err error, fallbackCode string) {
	var verr *holidays.ValidationError
	if errors.As(err, &verr) {
		respondError(w, http.StatusBadRequest, verr.Code, verr.Message)
		return
	}
	respondError(w, http.StatusInternalServerError, fallbackCode, err.Error())
}
