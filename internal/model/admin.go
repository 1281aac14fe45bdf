package model

import "time"

// Admin is an account with management privileges over a set of Users.
// AdminID is the human-chosen business key; ID is the storage surrogate and is
// never used for authorization decisions. Passwords are stored as bcrypt hashes.
type Admin struct {
	ID              int64     `json:"-" db:"id"`
	AdminID         string    `json:"adminId" db:"admin_id"`
	Name            string    `json:"name" db:"name"`
	Rank            string    `json:"rank" db:"rank_name"`
	AreaOfWorking   string    `json:"areaOfWorking" db:"area_of_working"`
	PasswordHash    string    `json:"-" db:"password_hash"` // bcrypt hash, never expose
	PasswordChanged bool      `json:"passwordChanged" db:"password_changed"`
	FirstLogin      bool      `json:"firstLogin" db:"first_login"`
	IsActive        bool      `json:"isActive" db:"is_active"`
	CreatedAt       time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt       time.Time `json:"updatedAt" db:"updated_at"`
}

// Role names reported by a successful login.
const (
	RoleAdmin      = "ADMIN"
	RoleSuperAdmin = "SUPER_ADMIN"
)
