package handlers

import (
	"net/http"

	"github.com/twxlab/twx/internal/repo"
)

// AuditHandler exposes the audit trail, newest first.
type AuditHandler struct {
	AuditRepo *repo.AuditRepo
}

func (h *AuditHandler) List(w http.ResponseWriter, r *http.Request) {
	limit, offset := pagination(r, 100)
	entries, err := h.AuditRepo.List(r.Context(), limit, offset)
	if err != nil {
		JSONError(w, ErrMessageInternal, http.StatusInternalServerError)
		return
	}
	JSONResponse(w, entries, http.StatusOK)
}
