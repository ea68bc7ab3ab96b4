package models

import "time"

// Project is a construction project that elements are assigned to.
// Only the identity matters to the workflow; everything else is descriptive.
type Project struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Code      string    `json:"code,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
