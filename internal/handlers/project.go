package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/twxlab/twx/internal/repo"
)

// ProjectHandler serves project CRUD.
type ProjectHandler struct {
	Projects *repo.ProjectRepo
}

func (h *ProjectHandler) Create(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Name string `json:"name"`
		Code string `json:"code"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		JSONError(w, "invalid JSON", http.StatusBadRequest)
		return
	}
	fields := make(map[string]string)
	if input.Name == "" {
		fields["name"] = "required"
	}
	if input.Code == "" {
		fields["code"] = "required"
	}
	if len(fields) > 0 {
		JSONValidationError(w, "validation failed", fields, http.StatusBadRequest)
		return
	}

	project, err := h.Projects.Create(r.Context(), input.Name, input.Code)
	if err != nil {
		JSONError(w, ErrMessageInternal, http.StatusInternalServerError)
		return
	}
	JSONResponse(w, project, http.StatusCreated)
}

func (h *ProjectHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		JSONError(w, "invalid project id", http.StatusBadRequest)
		return
	}
	project, err := h.Projects.GetByID(r.Context(), id)
	if err != nil {
		WriteDomainError(w, err)
		return
	}
	JSONResponse(w, project, http.StatusOK)
}

func (h *ProjectHandler) List(w http.ResponseWriter, r *http.Request) {
	limit, offset := pagination(r, 50)
	projects, err := h.Projects.List(r.Context(), limit, offset)
	if err != nil {
		JSONError(w, ErrMessageInternal, http.StatusInternalServerError)
		return
	}
	JSONResponse(w, projects, http.StatusOK)
}

func (h *ProjectHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		JSONError(w, "invalid project id", http.StatusBadRequest)
		return
	}
	if err := h.Projects.Delete(r.Context(), id); err != nil {
		WriteDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
