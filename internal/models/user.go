package models

import "time"

// UserRole is the access role of an account
type UserRole string

const (
	UserRoleClient UserRole = "client"
	UserRoleAdmin  UserRole = "admin"
)

// Profile represents the display data joined onto a client's projects
type Profile struct {
	UserID  string `json:"userId"`
	Name    string `json:"name"`
	Company string `json:"company"`
	Email   string `json:"email"`
}

// User represents an authenticated identity
type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Role      UserRole  `json:"role"`
	Profile   Profile   `json:"profile"`
	CreatedAt time.Time `json:"createdAt"`
}

// IsAdmin reports whether the user holds the admin role
func (u *User) IsAdmin() bool {
	return u != nil && u.Role == UserRoleAdmin
}

// Session is the explicit authentication context passed between components.
// It is created on sign-in and torn down on sign-out.
type Session struct {
	Token     string    `json:"token"`
	User      User      `json:"user"`
	ExpiresAt time.Time `json:"expiresAt"`
}
