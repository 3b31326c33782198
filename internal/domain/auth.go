package domain

import "time"

// StaffRole enumerates web dashboard roles.
type StaffRole string

const (
	StaffRoleModerator StaffRole = "MODERATOR"
	StaffRoleAdmin     StaffRole = "ADMIN"
)

// Valid reports whether r is a known role.
func (r StaffRole) Valid() bool {
	return r == StaffRoleModerator || r == StaffRoleAdmin
}

// StaffAccount is a dashboard login taken from configuration.
type StaffAccount struct {
	Username     string
	PasswordHash string
	Role         StaffRole
}

// Token represents issued authentication token metadata.
type Token struct {
	Subject   string
	Role      StaffRole
	ExpiresAt time.Time
	IssuedAt  time.Time
}
