package model

import "time"

// Role controls access to protected operations.
type Role string

const (
	RoleStudent Role = "student"
	RoleTeacher Role = "teacher"
	RoleAdmin   Role = "admin"
)

// Valid reports whether r is one of the enumerated roles.
func (r Role) Valid() bool {
	switch r {
	case RoleStudent, RoleTeacher, RoleAdmin:
		return true
	}
	return false
}

// User represents a login account of the class website.
type User struct {
	ID           uint      `json:"id" gorm:"primaryKey"`
	Account      string    `json:"account" gorm:"uniqueIndex;size:64;not null"`
	Name         string    `json:"name" gorm:"size:128"`
	Role         Role      `json:"role" gorm:"size:16;not null;index"`
	PasswordHash string    `json:"-" gorm:"size:255;not null"` // Never expose in JSON
	Enabled      bool      `json:"enabled" gorm:"not null"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// Identity is the public view of a user returned by the auth endpoints.
type Identity struct {
	ID      uint   `json:"id"`
	Account string `json:"account"`
	Name    string `json:"name"`
	Role    Role   `json:"role"`
}

// Identity returns the public view of u.
func (u *User) Identity() Identity {
	return Identity{
		ID:      u.ID,
		Account: u.Account,
		Name:    u.Name,
		Role:    u.Role,
	}
}

// HasRole reports whether the user's role is one of roles.
func (u *User) HasRole(roles ...Role) bool {
	for _, r := range roles {
		if u.Role == r {
			return true
		}
	}
	return false
}
