package models

import "time"

// TransferStatus is the state of one TransferRecord.
type TransferStatus string

const (
	TransferPendingApproval TransferStatus = "pending_approval"
	TransferActive          TransferStatus = "active"
)

// ApprovalRole identifies which side of a transfer an approval comes from.
type ApprovalRole string

const (
	RoleSource      ApprovalRole = "source"
	RoleDestination ApprovalRole = "destination"
)

// Valid reports whether r is a known approval role.
func (r ApprovalRole) Valid() bool {
	return r == RoleSource || r == RoleDestination
}

// TransferRecord is one row of the append-only project-assignment audit log.
// A row is created when an element is registered (status active) or when a
// cross-project transfer is requested (status pending_approval). Rows are
// mutated by approve/receive and never deleted.
type TransferRecord struct {
	ID                       int64          `json:"id"`
	ElementID                int64          `json:"element_id"`
	ProjectID                int64          `json:"project_id"`
	Status                   TransferStatus `json:"status"`
	TransferredFromProjectID *int64         `json:"transferred_from_project_id,omitempty"`

	SourceApproved   bool       `json:"source_approved"`
	SourceApproverID *int64     `json:"source_approver_id,omitempty"`
	SourceApprovedAt *time.Time `json:"source_approved_at,omitempty"`

	DestApproved   bool       `json:"destination_approved"`
	DestApproverID *int64     `json:"destination_approver_id,omitempty"`
	DestApprovedAt *time.Time `json:"destination_approved_at,omitempty"`

	ReceivedCondition Condition  `json:"received_condition,omitempty"`
	ConditionNotes    string     `json:"condition_notes,omitempty"`
	ActualLocation    string     `json:"actual_location,omitempty"`
	ActivatedDate     *time.Time `json:"activated_date,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

// BothApproved reports whether source and destination have both signed off.
func (t *TransferRecord) BothApproved() bool {
	return t.SourceApproved && t.DestApproved
}
