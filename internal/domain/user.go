package domain

import "time"

// Role gates administrative and destructive operations.
type Role string

const (
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
)

// User is an account holder. Authentication itself lives outside this
// service; only identity and role are needed here.
type User struct {
	ID          int64
	Email       string
	DisplayName string
	Role        Role
	Active      bool
	CreatedAt   time.Time
}

// IsAdmin reports whether u holds the admin role.
func (u User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// CanDelete reports whether u may soft-delete p: admins may delete any pin,
// users only the pins they own.
func (u User) CanDelete(p Pin) bool {
	if u.IsAdmin() {
		return true
	}
	return p.OwnerID != nil && *p.OwnerID == u.ID
}
