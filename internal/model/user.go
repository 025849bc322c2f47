// Package model defines the persisted entities of the API.
package model

import (
	"time"
)

// Role determines a user's permissions and access levels.
type Role string

const (
	// RoleAdmin grants administrative access across the system.
	RoleAdmin Role = "ADMIN"
	// RoleDefault is the member-only role assigned to new users.
	RoleDefault Role = "DEFAULT"
)

// User is a user account. The password column holds a hash, never plain text.
// Version implements optimistic locking: every successful update increments
// it, and updates carrying a stale version are rejected.
type User struct {
	ID            uint       `gorm:"primaryKey" json:"id"`
	FirstName     string     `gorm:"not null" json:"firstName"`
	LastName      string     `gorm:"not null" json:"lastName"`
	Email         string     `gorm:"uniqueIndex;not null" json:"email"`
	Username      string     `gorm:"uniqueIndex;not null" json:"username"`
	Password      string     `gorm:"not null" json:"-"`
	Role          Role       `gorm:"not null;default:DEFAULT" json:"role"`
	VerifiedEmail bool       `gorm:"default:false" json:"verifiedEmail"`
	Version       int64      `gorm:"not null;default:0" json:"version"`
	CreatedAt     time.Time  `json:"createdAt"`
	UpdatedAt     time.Time  `json:"updatedAt"`
	DeletedAt     *time.Time `gorm:"index" json:"-"`
	DeletedBy     *string    `json:"-"`

	TeamUsers []TeamUser `gorm:"foreignKey:UserID" json:"-"`
}

// IsAdmin reports whether the user has the admin role.
func (u *User) IsAdmin() bool { return u.Role == RoleAdmin }

// IsDeleted reports whether the user account is soft-deleted.
func (u *User) IsDeleted() bool { return u.DeletedAt != nil }
