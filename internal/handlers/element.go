package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/twxlab/twx/internal/middleware"
	"github.com/twxlab/twx/internal/models"
	"github.com/twxlab/twx/internal/repo"
	"github.com/twxlab/twx/internal/workflow"
)

// ElementHandler serves the element lifecycle endpoints: registration,
// reads, model linking, transfer approvals and receipt.
type ElementHandler struct {
	Elements    *repo.ElementRepo
	Transfers   *repo.TransferRepo
	Mappings    *repo.MappingRepo
	Inspections *repo.InspectionRepo
	Projects    *repo.ProjectRepo
	Engine      *workflow.Engine
	AuditRepo   *repo.AuditRepo
}

func (h *ElementHandler) audit(r *http.Request, action string, resourceID int64, details string) {
	if h.AuditRepo == nil {
		return
	}
	if userID, ok := middleware.GetUserID(r.Context()); ok {
		_ = h.AuditRepo.Log(r.Context(), userID, action, "element", resourceID, details)
	}
}

//
// ==========================
// Register Element
// ==========================
//

func (h *ElementHandler) RegisterElement(w http.ResponseWriter, r *http.Request) {
	actorID, ok := middleware.GetUserID(r.Context())
	if !ok {
		JSONError(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	var input struct {
		IfcType   string `json:"ifc_type" validate:"required,min=3,max=64"`
		ProjectID int64  `json:"project_id" validate:"required"`
		Condition string `json:"condition" validate:"required"`
		Name      string `json:"name" validate:"max=255"`
		Notes     string `json:"notes" validate:"max=1000"`
	}

	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		JSONError(w, "invalid JSON", http.StatusBadRequest)
		return
	}

	// ===== Validate input =====
	validate := validator.New()
	if err := validate.Struct(input); err != nil {
		JSONError(w, err.Error(), http.StatusBadRequest)
		return
	}
	condition := models.Condition(input.Condition)
	if !condition.Valid() {
		JSONValidationError(w, "validation failed",
			map[string]string{"condition": "must be Excellent, Good, Fair or Poor"},
			http.StatusBadRequest)
		return
	}
	if _, err := h.Projects.GetByID(r.Context(), input.ProjectID); err != nil {
		WriteDomainError(w, err)
		return
	}

	element, err := h.Elements.Register(r.Context(), repo.RegisterParams{
		IfcType:   input.IfcType,
		ProjectID: input.ProjectID,
		Condition: condition,
		Name:      input.Name,
		Notes:     input.Notes,
		CreatorID: actorID,
	})
	if err != nil {
		JSONError(w, ErrMessageInternal, http.StatusInternalServerError)
		return
	}

	h.audit(r, "register", element.ID, element.AssetNumber)
	JSONResponse(w, element, http.StatusCreated)
}

//
// ==========================
// List Elements
// ==========================
//

func (h *ElementHandler) ListElements(w http.ResponseWriter, r *http.Request) {
	limit, offset := pagination(r, 50)

	var filter repo.ListFilter
	if p := r.URL.Query().Get("project_id"); p != "" {
		fmt.Sscan(p, &filter.ProjectID)
	}
	if s := r.URL.Query().Get("status"); s != "" {
		status := models.ElementStatus(s)
		if !status.Valid() {
			JSONValidationError(w, "validation failed",
				map[string]string{"status": "unknown element status"},
				http.StatusBadRequest)
			return
		}
		filter.Status = status
	}
	filter.IfcType = r.URL.Query().Get("ifc_type")

	elements, err := h.Elements.List(r.Context(), filter, limit, offset)
	if err != nil {
		JSONError(w, ErrMessageInternal, http.StatusInternalServerError)
		return
	}
	JSONResponse(w, elements, http.StatusOK)
}

//
// ==========================
// Get / Update Element
// ==========================
//

func (h *ElementHandler) GetElement(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		JSONError(w, "invalid element id", http.StatusBadRequest)
		return
	}
	element, err := h.Elements.GetByID(r.Context(), id)
	if err != nil {
		WriteDomainError(w, err)
		return
	}
	JSONResponse(w, element, http.StatusOK)
}

// immutableElementFields cannot be changed through PUT; the transfer
// workflow owns status and project assignment, and asset identity never
// changes after registration.
var immutableElementFields = []string{"asset_number", "scan_code", "ifc_type", "status", "current_project_id"}

func (h *ElementHandler) UpdateElement(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		JSONError(w, "invalid element id", http.StatusBadRequest)
		return
	}

	var raw map[string]json.RawMessage
	if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
		JSONError(w, "invalid JSON", http.StatusBadRequest)
		return
	}
	fields := make(map[string]string)
	for _, f := range immutableElementFields {
		if _, present := raw[f]; present {
			fields[f] = "immutable"
		}
	}
	if len(fields) > 0 {
		JSONValidationError(w, "immutable fields cannot be updated", fields, http.StatusBadRequest)
		return
	}

	element, err := h.Elements.GetByID(r.Context(), id)
	if err != nil {
		WriteDomainError(w, err)
		return
	}

	name, notes, condition := element.Name, element.Notes, element.CurrentCondition
	if v, present := raw["name"]; present {
		if err := json.Unmarshal(v, &name); err != nil {
			JSONError(w, "invalid JSON", http.StatusBadRequest)
			return
		}
	}
	if v, present := raw["notes"]; present {
		if err := json.Unmarshal(v, &notes); err != nil {
			JSONError(w, "invalid JSON", http.StatusBadRequest)
			return
		}
	}
	if v, present := raw["current_condition"]; present {
		if err := json.Unmarshal(v, &condition); err != nil {
			JSONError(w, "invalid JSON", http.StatusBadRequest)
			return
		}
		if !condition.Valid() {
			JSONValidationError(w, "validation failed",
				map[string]string{"current_condition": "must be Excellent, Good, Fair or Poor"},
				http.StatusBadRequest)
			return
		}
	}

	element, err = h.Elements.UpdateMeta(r.Context(), id, name, notes, condition)
	if err != nil {
		WriteDomainError(w, err)
		return
	}

	h.audit(r, "update", element.ID, "")
	JSONResponse(w, element, http.StatusOK)
}

//
// ==========================
// Details / History / Inspections
// ==========================
//

func (h *ElementHandler) GetDetails(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		JSONError(w, "invalid element id", http.StatusBadRequest)
		return
	}
	element, err := h.Elements.GetByID(r.Context(), id)
	if err != nil {
		WriteDomainError(w, err)
		return
	}
	mappings, err := h.Mappings.ListByElement(r.Context(), id, 0)
	if err != nil {
		JSONError(w, ErrMessageInternal, http.StatusInternalServerError)
		return
	}
	inspections, err := h.Inspections.GetByElement(r.Context(), id)
	if err != nil {
		JSONError(w, ErrMessageInternal, http.StatusInternalServerError)
		return
	}

	JSONResponse(w, map[string]interface{}{
		"element":      element,
		"mappings":     mappings,
		"inspections":  inspections,
		"scan_code":    element.ScanCode,
		"qr_image_url": fmt.Sprintf("/elements/%d/qr.png", element.ID),
	}, http.StatusOK)
}

func (h *ElementHandler) GetHistory(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		JSONError(w, "invalid element id", http.StatusBadRequest)
		return
	}
	if _, err := h.Elements.GetByID(r.Context(), id); err != nil {
		WriteDomainError(w, err)
		return
	}
	records, err := h.Transfers.ListByElement(r.Context(), id)
	if err != nil {
		JSONError(w, ErrMessageInternal, http.StatusInternalServerError)
		return
	}
	JSONResponse(w, records, http.StatusOK)
}

func (h *ElementHandler) GetInspections(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		JSONError(w, "invalid element id", http.StatusBadRequest)
		return
	}
	if _, err := h.Elements.GetByID(r.Context(), id); err != nil {
		WriteDomainError(w, err)
		return
	}
	inspections, err := h.Inspections.GetByElement(r.Context(), id)
	if err != nil {
		JSONError(w, ErrMessageInternal, http.StatusInternalServerError)
		return
	}
	JSONResponse(w, inspections, http.StatusOK)
}

//
// ==========================
// Model Linking
// ==========================
//

func (h *ElementHandler) ListLinks(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		JSONError(w, "invalid element id", http.StatusBadRequest)
		return
	}
	var projectID int64
	if p := r.URL.Query().Get("project_id"); p != "" {
		fmt.Sscan(p, &projectID)
	}
	mappings, err := h.Mappings.ListByElement(r.Context(), id, projectID)
	if err != nil {
		JSONError(w, ErrMessageInternal, http.StatusInternalServerError)
		return
	}
	JSONResponse(w, mappings, http.StatusOK)
}

func (h *ElementHandler) CreateLink(w http.ResponseWriter, r *http.Request) {
	actorID, ok := middleware.GetUserID(r.Context())
	if !ok {
		JSONError(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	id, err := idParam(r, "id")
	if err != nil {
		JSONError(w, "invalid element id", http.StatusBadRequest)
		return
	}

	var input struct {
		ProjectID         int64  `json:"project_id"`
		ExternalElementID string `json:"external_element_id"`
		ExternalObjectURL string `json:"external_object_url"`
		Notes             string `json:"notes"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		JSONError(w, "invalid JSON", http.StatusBadRequest)
		return
	}
	fields := make(map[string]string)
	if input.ProjectID == 0 {
		fields["project_id"] = "required"
	}
	if input.ExternalElementID == "" {
		fields["external_element_id"] = "required"
	}
	if len(fields) > 0 {
		JSONValidationError(w, "validation failed", fields, http.StatusBadRequest)
		return
	}
	if _, err := h.Projects.GetByID(r.Context(), input.ProjectID); err != nil {
		WriteDomainError(w, err)
		return
	}

	mapping, err := h.Engine.Link(r.Context(), workflow.LinkParams{
		ElementID:         id,
		ProjectID:         input.ProjectID,
		ExternalElementID: input.ExternalElementID,
		ExternalObjectURL: input.ExternalObjectURL,
		ActorID:           actorID,
		Notes:             input.Notes,
	})
	if err != nil {
		WriteDomainError(w, err)
		return
	}

	h.audit(r, "link", id, input.ExternalElementID)
	JSONResponse(w, mapping, http.StatusCreated)
}

func (h *ElementHandler) CheckLinking(w http.ResponseWriter, r *http.Request) {
	externalID := chi.URLParam(r, "externalElementId")
	asset, err := h.Mappings.CheckLinking(r.Context(), externalID)
	if err == repo.ErrMappingNotFound {
		JSONResponse(w, map[string]interface{}{"linked": false}, http.StatusOK)
		return
	}
	if err != nil {
		JSONError(w, ErrMessageInternal, http.StatusInternalServerError)
		return
	}
	JSONResponse(w, map[string]interface{}{"linked": true, "asset": asset}, http.StatusOK)
}

//
// ==========================
// Transfer Workflow
// ==========================
//

func (h *ElementHandler) RequestTransfer(w http.ResponseWriter, r *http.Request) {
	actorID, ok := middleware.GetUserID(r.Context())
	if !ok {
		JSONError(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	id, err := idParam(r, "id")
	if err != nil {
		JSONError(w, "invalid element id", http.StatusBadRequest)
		return
	}

	var input struct {
		ProjectID int64 `json:"project_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil || input.ProjectID == 0 {
		JSONValidationError(w, "validation failed",
			map[string]string{"project_id": "required"}, http.StatusBadRequest)
		return
	}
	if _, err := h.Projects.GetByID(r.Context(), input.ProjectID); err != nil {
		WriteDomainError(w, err)
		return
	}

	record, err := h.Engine.RequestTransfer(r.Context(), id, input.ProjectID, actorID)
	if err != nil {
		WriteDomainError(w, err)
		return
	}

	element, err := h.Elements.GetByID(r.Context(), id)
	if err != nil {
		WriteDomainError(w, err)
		return
	}
	if record == nil {
		// Target equals the current project: nothing to transfer.
		JSONResponse(w, map[string]interface{}{"element": element, "transfer": nil}, http.StatusOK)
		return
	}

	h.audit(r, "transfer_request", id, fmt.Sprintf("to project %d", input.ProjectID))
	JSONResponse(w, map[string]interface{}{"element": element, "transfer": record}, http.StatusCreated)
}

func (h *ElementHandler) Approve(w http.ResponseWriter, r *http.Request) {
	actorID, ok := middleware.GetUserID(r.Context())
	if !ok {
		JSONError(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	id, err := idParam(r, "id")
	if err != nil {
		JSONError(w, "invalid element id", http.StatusBadRequest)
		return
	}

	var input struct {
		ProjectID int64  `json:"project_id"`
		Role      string `json:"role"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		JSONError(w, "invalid JSON", http.StatusBadRequest)
		return
	}
	fields := make(map[string]string)
	if input.ProjectID == 0 {
		fields["project_id"] = "required"
	}
	role := models.ApprovalRole(input.Role)
	if !role.Valid() {
		fields["role"] = "must be source or destination"
	}
	if len(fields) > 0 {
		JSONValidationError(w, "validation failed", fields, http.StatusBadRequest)
		return
	}

	record, err := h.Engine.Approve(r.Context(), id, input.ProjectID, role, actorID)
	if err != nil {
		WriteDomainError(w, err)
		return
	}

	h.audit(r, "approve", id, string(role))
	JSONResponse(w, map[string]interface{}{
		"transfer":      record,
		"both_approved": record.BothApproved(),
	}, http.StatusOK)
}

func (h *ElementHandler) Receive(w http.ResponseWriter, r *http.Request) {
	actorID, ok := middleware.GetUserID(r.Context())
	if !ok {
		JSONError(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	id, err := idParam(r, "id")
	if err != nil {
		JSONError(w, "invalid element id", http.StatusBadRequest)
		return
	}

	var input struct {
		ProjectID         int64  `json:"project_id"`
		ReceivedCondition string `json:"received_condition"`
		ConditionNotes    string `json:"condition_notes"`
		ActualLocation    string `json:"actual_location"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		JSONError(w, "invalid JSON", http.StatusBadRequest)
		return
	}
	fields := make(map[string]string)
	if input.ProjectID == 0 {
		fields["project_id"] = "required"
	}
	condition := models.Condition(input.ReceivedCondition)
	if !condition.Valid() {
		fields["received_condition"] = "must be Excellent, Good, Fair or Poor"
	}
	if len(fields) > 0 {
		JSONValidationError(w, "validation failed", fields, http.StatusBadRequest)
		return
	}

	element, record, err := h.Engine.Receive(r.Context(), id, input.ProjectID, workflow.ReceiveParams{
		Condition:      condition,
		ConditionNotes: input.ConditionNotes,
		ActualLocation: input.ActualLocation,
		ActorID:        actorID,
	})
	if err != nil {
		WriteDomainError(w, err)
		return
	}

	h.audit(r, "receive", id, fmt.Sprintf("into project %d", input.ProjectID))
	JSONResponse(w, map[string]interface{}{
		"element":  element,
		"transfer": record,
	}, http.StatusOK)
}

// ListPendingTransfers returns all transfers awaiting approval or receipt.
func (h *ElementHandler) ListPendingTransfers(w http.ResponseWriter, r *http.Request) {
	limit, offset := pagination(r, 50)
	records, err := h.Transfers.ListPending(r.Context(), limit, offset)
	if err != nil {
		JSONError(w, ErrMessageInternal, http.StatusInternalServerError)
		return
	}
	JSONResponse(w, records, http.StatusOK)
}

//
// ==========================
// Scan Code Lookup
// ==========================
//

func (h *ElementHandler) GetByScanCode(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")
	element, err := h.Elements.GetByScanCode(r.Context(), code)
	if err != nil {
		WriteDomainError(w, err)
		return
	}
	JSONResponse(w, element, http.StatusOK)
}
