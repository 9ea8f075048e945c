package models

// Role is the privilege level carried in a verified credential.
// ADMIN is a strict superset of USER for every operation the system defines.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// ParseRole maps a raw role claim to a Role. Anything unrecognized
// (including the empty string) falls back to USER so that a missing or
// garbled claim can never escalate privilege.
func ParseRole(s string) Role {
	if s == string(RoleAdmin) {
		return RoleAdmin
	}
	return RoleUser
}
