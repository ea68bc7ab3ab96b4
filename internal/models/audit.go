package models

import "time"

// AuditEntry represents one audit log row.
type AuditEntry struct {
	ID           int64     `json:"id"`
	UserID       int64     `json:"user_id"`
	Action       string    `json:"action"`        // register, update, link, approve, receive, inspect, delete
	ResourceType string    `json:"resource_type"` // element, inspection, project, user
	ResourceID   int64     `json:"resource_id"`
	Details      string    `json:"details,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}
