package models

import "time"

const (
	RoleAdmin   = "admin"
	RoleTeacher = "teacher"
	// RoleFallback is used when the profile lookup times out during auth
	// resolution. Least-privileged; callers treat it as "retry later".
	RoleFallback = "user"
)

type User struct {
	ID           uint      `json:"id" gorm:"primaryKey"`
	Email        string    `json:"email" gorm:"size:120"`
	Username     string    `json:"username" gorm:"uniqueIndex;size:60;not null"`
	PasswordHash string    `json:"-" gorm:"not null"`
	Role         string    `json:"role" gorm:"size:20;not null"` // "admin" | "teacher"
	Name         string    `json:"name" gorm:"size:120"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Profile is the identity snapshot cached inside a session and returned by
// /me. IsFallback marks a degraded profile produced by a lookup timeout.
type Profile struct {
	ID         uint   `json:"id"`
	Email      string `json:"email"`
	Username   string `json:"username,omitempty"`
	Role       string `json:"role"`
	Name       string `json:"name,omitempty"`
	IsFallback bool   `json:"is_fallback,omitempty"`
}

func (u *User) Profile() Profile {
	return Profile{
		ID:       u.ID,
		Email:    u.Email,
		Username: u.Username,
		Role:     u.Role,
		Name:     u.Name,
	}
}

// FallbackProfile keeps the session usable while the users table is slow.
func FallbackProfile(id uint, email string) Profile {
	return Profile{ID: id, Email: email, Role: RoleFallback, IsFallback: true}
}
