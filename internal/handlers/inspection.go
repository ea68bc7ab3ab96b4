package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/twxlab/twx/internal/middleware"
	"github.com/twxlab/twx/internal/repo"
)

// InspectionHandler serves the versioned inspection ledger.
type InspectionHandler struct {
	Inspections *repo.InspectionRepo
	Elements    *repo.ElementRepo
	AuditRepo   *repo.AuditRepo
}

//
// ==========================
// Upsert Inspection
// ==========================
//

func (h *InspectionHandler) Upsert(w http.ResponseWriter, r *http.Request) {
	actorID, ok := middleware.GetUserID(r.Context())
	if !ok {
		JSONError(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	var input struct {
		ElementID  int64                  `json:"element_id"`
		ProjectID  int64                  `json:"project_id"`
		Inspector  *string                `json:"inspector"`
		Status     *string                `json:"status"`
		Notes      *string                `json:"notes"`
		Date       *string                `json:"inspection_date"`
		Attributes map[string]interface{} `json:"attributes"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		JSONError(w, "invalid JSON", http.StatusBadRequest)
		return
	}
	fields := make(map[string]string)
	if input.ElementID == 0 {
		fields["element_id"] = "required"
	}
	if input.ProjectID == 0 {
		fields["project_id"] = "required"
	}
	if len(fields) > 0 {
		JSONValidationError(w, "validation failed", fields, http.StatusBadRequest)
		return
	}
	if _, err := h.Elements.GetByID(r.Context(), input.ElementID); err != nil {
		WriteDomainError(w, err)
		return
	}

	rec, err := h.Inspections.Upsert(r.Context(), repo.UpsertParams{
		ElementID:  input.ElementID,
		ProjectID:  input.ProjectID,
		ActorID:    actorID,
		Inspector:  input.Inspector,
		Status:     input.Status,
		Notes:      input.Notes,
		Date:       input.Date,
		Attributes: input.Attributes,
	})
	if err != nil {
		JSONError(w, ErrMessageInternal, http.StatusInternalServerError)
		return
	}

	if h.AuditRepo != nil {
		_ = h.AuditRepo.Log(r.Context(), actorID, "inspect", "element", input.ElementID,
			fmt.Sprintf("version %d", rec.Version))
	}

	status := http.StatusOK
	if rec.Version == 1 {
		status = http.StatusCreated
	}
	JSONResponse(w, rec, status)
}

// GetByElement returns an element's inspections; project_id narrows to
// the single (element, project) row.
func (h *InspectionHandler) GetByElement(w http.ResponseWriter, r *http.Request) {
	elementID, err := idParam(r, "elementId")
	if err != nil {
		JSONError(w, "invalid element id", http.StatusBadRequest)
		return
	}

	if p := r.URL.Query().Get("project_id"); p != "" {
		var projectID int64
		if _, err := fmt.Sscan(p, &projectID); err != nil {
			JSONError(w, "invalid project_id", http.StatusBadRequest)
			return
		}
		rec, err := h.Inspections.GetByElementProject(r.Context(), elementID, projectID)
		if err != nil {
			WriteDomainError(w, err)
			return
		}
		JSONResponse(w, rec, http.StatusOK)
		return
	}

	records, err := h.Inspections.GetByElement(r.Context(), elementID)
	if err != nil {
		JSONError(w, ErrMessageInternal, http.StatusInternalServerError)
		return
	}
	JSONResponse(w, records, http.StatusOK)
}

//
// ==========================
// List Inspections
// ==========================
//

func (h *InspectionHandler) List(w http.ResponseWriter, r *http.Request) {
	limit, offset := pagination(r, 50)

	if p := r.URL.Query().Get("project_id"); p != "" {
		var projectID int64
		if _, err := fmt.Sscan(p, &projectID); err != nil {
			JSONError(w, "invalid project_id", http.StatusBadRequest)
			return
		}
		records, err := h.Inspections.ListByProject(r.Context(), projectID, limit, offset)
		if err != nil {
			JSONError(w, ErrMessageInternal, http.StatusInternalServerError)
			return
		}
		JSONResponse(w, records, http.StatusOK)
		return
	}

	records, err := h.Inspections.List(r.Context(), limit, offset)
	if err != nil {
		JSONError(w, ErrMessageInternal, http.StatusInternalServerError)
		return
	}
	JSONResponse(w, records, http.StatusOK)
}
