package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/covtools/edgemark/pkg/assign"
	apperrors "github.com/covtools/edgemark/pkg/errors"
	"github.com/covtools/edgemark/pkg/store"
)

// errorResponse is the body returned for every failed request.
type errorResponse struct {
	Error string         `json:"error"`
	Code  apperrors.Code `json:"code,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError sends a structured error body with a machine-readable code.
func writeError(w http.ResponseWriter, status int, code apperrors.Code, msg string) {
	writeJSON(w, status, errorResponse{Error: msg, Code: code})
}

// writeFailure maps a pipeline or store failure onto a status and code and
// sends it. Bad input is the client's fault; a table that cannot fit the
// graph is a semantic failure rather than a malformed request.
func writeFailure(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	code := apperrors.ErrCodeInternal

	switch {
	case errors.Is(err, assign.ErrSlotsExhausted):
		status = http.StatusUnprocessableEntity
		code = apperrors.ErrCodeSlotsExhausted
	case errors.Is(err, assign.ErrInvalidRatio),
		errors.Is(err, assign.ErrInvalidTableBits):
		status = http.StatusBadRequest
		code = apperrors.ErrCodeInvalidConfig
	case errors.Is(err, store.ErrNotFound):
		status = http.StatusNotFound
		code = apperrors.ErrCodeRunNotFound
	case apperrors.GetCode(err) != "":
		status = http.StatusBadRequest
		code = apperrors.GetCode(err)
	}

	writeError(w, status, code, err.Error())
}
