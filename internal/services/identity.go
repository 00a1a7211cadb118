package services

import (
	"context"
	"errors"

	"github.com/memestream/backend/internal/models"
)

var (
	ErrUserNotFound       = errors.New("user not found")
	ErrEmailExists        = errors.New("email already registered")
	ErrWeakPassword       = errors.New("password must be at least 6 characters")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrInvalidToken       = errors.New("invalid or expired token")
)

// Identity is the verified caller attached to the request context by the
// authentication middleware. Role is empty when the account has no role claim.
type Identity struct {
	UID   string
	Email string
	Role  models.Role
}

// TokenVerifier is the part of the identity provider the authentication
// middleware needs.
type TokenVerifier interface {
	VerifyToken(ctx context.Context, token string) (*Identity, error)
}

// IdentityProvider is the credential store behind signup/signin and the
// user admin operations. Implementations: FirebaseIdentity (production),
// LocalIdentity (development and tests).
type IdentityProvider interface {
	TokenVerifier

	CreateUser(ctx context.Context, email, password, displayName string, role models.Role) (string, error)
	SignIn(ctx context.Context, email, password string) (string, error)
	GetUser(ctx context.Context, uid string) (*models.User, error)
	ListUsers(ctx context.Context) ([]*models.User, error)
	UpdateUser(ctx context.Context, uid, displayName, password string) (*models.User, error)
	SetRole(ctx context.Context, uid string, role models.Role) error
	// DeleteUser removes the account and returns its email for the response body.
	DeleteUser(ctx context.Context, uid string) (string, error)
}
