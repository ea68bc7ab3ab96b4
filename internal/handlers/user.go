package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/twxlab/twx/internal/models"
	"github.com/twxlab/twx/internal/repo"
)

// ==========================
// User Handler
// ==========================
type UserHandler struct {
	UserRepo *repo.UserRepo
}

func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	limit, offset := pagination(r, 50)
	users, err := h.UserRepo.List(r.Context(), limit, offset)
	if err != nil {
		JSONError(w, ErrMessageInternal, http.StatusInternalServerError)
		return
	}
	JSONResponse(w, users, http.StatusOK)
}

func (h *UserHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		JSONError(w, "invalid user id", http.StatusBadRequest)
		return
	}
	user, err := h.UserRepo.GetByID(r.Context(), id)
	if err != nil {
		WriteDomainError(w, err)
		return
	}
	JSONResponse(w, user, http.StatusOK)
}

func (h *UserHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		JSONError(w, "invalid user id", http.StatusBadRequest)
		return
	}

	var input struct {
		Username string `json:"username"`
		Role     string `json:"role"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		JSONError(w, "invalid json", http.StatusBadRequest)
		return
	}
	if input.Username == "" {
		JSONValidationError(w, "validation failed",
			map[string]string{"username": "required"}, http.StatusBadRequest)
		return
	}
	if input.Role != "" && !models.ValidRole(input.Role) {
		JSONValidationError(w, "validation failed",
			map[string]string{"role": "must be viewer, approver or admin"}, http.StatusBadRequest)
		return
	}

	user, err := h.UserRepo.Update(r.Context(), id, input.Username, input.Role)
	if err != nil {
		WriteDomainError(w, err)
		return
	}
	JSONResponse(w, user, http.StatusOK)
}

func (h *UserHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		JSONError(w, "invalid user id", http.StatusBadRequest)
		return
	}
	if err := h.UserRepo.Delete(r.Context(), id); err != nil {
		WriteDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
