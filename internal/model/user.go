package model

import "time"

// User is an account owned by exactly one Admin. Usernames are unique within
// the owning admin only.
type User struct {
	ID            int64     `json:"id" db:"id"`
	AdminPK       int64     `json:"-" db:"admin_pk"`
	Username      string    `json:"username" db:"username"`
	PasswordHash  string    `json:"-" db:"password_hash"`
	Rank          string    `json:"rank" db:"rank_name"`
	AreaOfWorking string    `json:"areaOfWorking" db:"area_of_working"`
	CreatedAt     time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt     time.Time `json:"updatedAt" db:"updated_at"`
}
