package models

import "time"

// InspectionRecord is the single versioned inspection row per
// (element, project) pair. Version starts at 1 and increments on every
// upsert. CreatedByUserID and LastModifiedByUserID are server-assigned;
// client-supplied values are discarded. Attributes is an open bag of
// optional domain fields the ledger stores but does not interpret.
type InspectionRecord struct {
	ID                   int64  `json:"id"`
	ElementID            int64  `json:"element_id"`
	ProjectID            int64  `json:"project_id"`
	Version              int    `json:"version"`
	CreatedByUserID      int64  `json:"created_by_user_id"`
	LastModifiedByUserID int64  `json:"last_modified_by_user_id"`
	Inspector            string `json:"inspector"`
	Status               string `json:"status"`
	Notes                string `json:"notes"`
	Date                 string `json:"date"`

	Attributes map[string]interface{} `json:"attributes,omitempty"`

	Timestamp time.Time `json:"timestamp"`
}

// Defaults for a first filing when the caller omits the field.
const (
	DefaultInspector        = "unassigned"
	DefaultInspectionStatus = "pending"
)
