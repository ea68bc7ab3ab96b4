package models

import "time"

// ModelMapping links an element to an object in an external BIM model.
// At most one mapping per element is active at any instant; superseded
// mappings are deactivated, never deleted.
type ModelMapping struct {
	ID                int64     `json:"id"`
	ElementID         int64     `json:"element_id"`
	ProjectID         int64     `json:"project_id"`
	ExternalElementID string    `json:"external_element_id"`
	ExternalObjectURL string    `json:"external_object_url,omitempty"`
	IsActive          bool      `json:"is_active"`
	MappedByUserID    int64     `json:"mapped_by_user_id"`
	Notes             string    `json:"notes,omitempty"`
	CreatedAt         time.Time `json:"created_at"`
}

// LinkedAsset is the reverse-lookup summary returned by check-linking.
type LinkedAsset struct {
	ElementID        int64         `json:"element_id"`
	AssetNumber      string        `json:"asset_number"`
	Status           ElementStatus `json:"status"`
	CurrentCondition Condition     `json:"current_condition"`
	CurrentProjectID int64         `json:"current_project_id"`
}
