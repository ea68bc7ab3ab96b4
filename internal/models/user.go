package models

// RoleViewer is the only role that can log in without a password.
const RoleViewer = "viewer"
const RoleApprover = "approver"
const RoleAdmin = "admin"

// ValidRole reports whether role is one of the known user roles.
func ValidRole(role string) bool {
	switch role {
	case RoleViewer, RoleApprover, RoleAdmin:
		return true
	}
	return false
}

type User struct {
	ID           int64  `json:"id"`
	Username     string `json:"username"`
	PasswordHash string `json:"-"`
	Role         string `json:"role"`
}
