package models

import "time"

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// User is a field employee or administrator. (Name, Role) is the natural key.
type User struct {
	ID                    int       `json:"id"`
	Name                  string    `json:"name"`
	Role                  string    `json:"role"` // user or admin
	PhoneNumber           string    `json:"phoneNumber"`
	PasswordHash          string    `json:"-"` // Never expose in JSON
	ReportingManagerEmail string    `json:"reportingManagerEmail"`
	ProfilePicReference   string    `json:"profilePic"`
	CreatedAt             time.Time `json:"createdAt"`
}

// UpsertUserRequest represents the request body for creating or updating a user
type UpsertUserRequest struct {
	Name                  string `json:"name"`
	Role                  string `json:"role"`
	PhoneNumber           string `json:"phoneNumber"`
	Password              string `json:"password,omitempty"` // Optional on update
	ReportingManagerEmail string `json:"reportingManagerEmail"`
	ProfilePic            string `json:"profilePic"`
}

// LoginRequest represents the request body for login
type LoginRequest struct {
	Name     string `json:"name"`
	Role     string `json:"role"`
	Password string `json:"password"`
}

// AuthResponse represents the response after successful authentication
type AuthResponse struct {
	Token string `json:"token"`
	User  *User  `json:"user"`
}
