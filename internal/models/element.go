package models

import "time"

// ElementStatus is the lifecycle state of a temporary-works element.
type ElementStatus string

const (
	StatusActive    ElementStatus = "active"
	StatusInTransit ElementStatus = "in_transit"
	StatusInStorage ElementStatus = "in_storage"
	StatusRetired   ElementStatus = "retired"
	StatusScrapped  ElementStatus = "scrapped"
)

// Valid reports whether s is one of the known element statuses.
func (s ElementStatus) Valid() bool {
	switch s {
	case StatusActive, StatusInTransit, StatusInStorage, StatusRetired, StatusScrapped:
		return true
	}
	return false
}

// Condition is the physical condition grade recorded at registration and receipt.
type Condition string

const (
	ConditionExcellent Condition = "Excellent"
	ConditionGood      Condition = "Good"
	ConditionFair      Condition = "Fair"
	ConditionPoor      Condition = "Poor"
)

// Valid reports whether c is one of the known condition grades.
func (c Condition) Valid() bool {
	switch c {
	case ConditionExcellent, ConditionGood, ConditionFair, ConditionPoor:
		return true
	}
	return false
}

// ScanCodePrefix prefixes every scannable element code.
const ScanCodePrefix = "TWX-ASSET-"

// ScanCode derives the scannable code from an asset number.
// It is a pure function: same asset number, same code.
func ScanCode(assetNumber string) string {
	return ScanCodePrefix + assetNumber
}

// Element is one physical temporary-works asset (formwork, propping, etc.).
// AssetNumber, IfcType and ScanCode are immutable after registration;
// Status, CurrentProjectID and CurrentCondition are owned by the transfer workflow.
type Element struct {
	ID               int64         `json:"id"`
	AssetNumber      string        `json:"asset_number"`
	IfcType          string        `json:"ifc_type"`
	Name             string        `json:"name,omitempty"`
	Notes            string        `json:"notes,omitempty"`
	Status           ElementStatus `json:"status"`
	CurrentProjectID int64         `json:"current_project_id"`
	CurrentCondition Condition     `json:"current_condition"`
	ScanCode         string        `json:"scan_code"`
	CreatedAt        time.Time     `json:"created_at"`
	UpdatedAt        time.Time     `json:"updated_at"`
}
