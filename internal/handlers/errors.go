package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/twxlab/twx/internal/repo"
	"github.com/twxlab/twx/internal/workflow"
)

// ErrMessageInternal is the generic message for 500 responses. Do not expose internal details to clients.
const ErrMessageInternal = "internal server error"

// JSONError sends a JSON error response with a single "error" field.
func JSONError(w http.ResponseWriter, message string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}

// JSONValidationError sends a JSON error response with "error" and optional "fields" for field-level details.
// status is typically http.StatusBadRequest (400).
func JSONValidationError(w http.ResponseWriter, message string, fields map[string]string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	out := map[string]interface{}{"error": message}
	if len(fields) > 0 {
		out["fields"] = fields
	}
	json.NewEncoder(w).Encode(out)
}

// WriteDomainError maps repo and workflow errors to their HTTP status:
// not-found sentinels to 404, workflow precondition failures to 400 with
// the missing approvals, anything else to a generic 500.
func WriteDomainError(w http.ResponseWriter, err error) {
	var precondition *workflow.PreconditionError
	switch {
	case errors.As(err, &precondition):
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"error":             precondition.Reason,
			"element_status":    precondition.ElementStatus,
			"missing_approvals": precondition.MissingApprovals,
		})
	case errors.Is(err, repo.ErrElementNotFound),
		errors.Is(err, repo.ErrTransferNotFound),
		errors.Is(err, repo.ErrMappingNotFound),
		errors.Is(err, repo.ErrInspectionNotFound),
		errors.Is(err, repo.ErrProjectNotFound),
		errors.Is(err, repo.ErrUserNotFound):
		JSONError(w, err.Error(), http.StatusNotFound)
	default:
		JSONError(w, ErrMessageInternal, http.StatusInternalServerError)
	}
}
