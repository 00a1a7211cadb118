package models

type Role string

const (
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
)

// User mirrors the identity provider's account record plus the role claim.
type User struct {
	UID            string `json:"uid"`
	Email          string `json:"email"`
	DisplayName    string `json:"displayName"`
	Role           Role   `json:"role"`
	LastSignInTime string `json:"lastSignInTime,omitempty"`
	CreationTime   string `json:"creationTime,omitempty"`
}

type SignupRequest struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	DisplayName string `json:"displayName"`
}

type SigninRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// UpdateUserRequest carries the self-service fields. Role is only honored
// when the caller is an admin.
type UpdateUserRequest struct {
	DisplayName string `json:"displayName"`
	Password    string `json:"password"`
	Role        Role   `json:"role,omitempty"`
}
