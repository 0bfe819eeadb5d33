package models

import "time"

// RoleAdmin is the only role issued today; it is returned in the login profile.
const RoleAdmin = "admin"

// AdminUser represents an admin account and its session bookkeeping
type AdminUser struct {
	ID              string     `json:"id" bson:"_id"`
	Username        string     `json:"username" bson:"username"`
	PasswordHash    string     `json:"-" bson:"password_hash"` // never expose
	Role            string     `json:"role" bson:"role"`
	IsActive        bool       `json:"is_active" bson:"is_active"`
	ActiveSessionID *string    `json:"-" bson:"active_session_id"`
	LastLoginAt     *time.Time `json:"last_login_at" bson:"last_login_at"`
	CreatedAt       time.Time  `json:"created_at" bson:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at" bson:"updated_at"`
}

// HasSession reports whether sessionID is the authoritative session for this user
func (a *AdminUser) HasSession(sessionID string) bool {
	return a.ActiveSessionID != nil && sessionID != "" && *a.ActiveSessionID == sessionID
}

// Profile is the minimal user view returned to clients
type Profile struct {
	Username string `json:"username"`
	Role     string `json:"role"`
}

// Profile returns the public profile of the admin
func (a *AdminUser) Profile() Profile {
	role := a.Role
	if role == "" {
		role = RoleAdmin
	}
	return Profile{Username: a.Username, Role: role}
}
