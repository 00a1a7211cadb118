package services

import (
	"context"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/memestream/backend/internal/models"
)

type localAccount struct {
	UID          string
	Email        string
	DisplayName  string
	Role         models.Role
	PasswordHash string
	CreatedAt    time.Time
	LastSignIn   time.Time
}

// LocalIdentity is an in-memory credential store for development and tests.
// It issues HS256 tokens carrying the same uid/role/email claims the
// Firebase provider does.
type LocalIdentity struct {
	mu         sync.RWMutex
	accounts   map[string]*localAccount // uid -> account
	byEmail    map[string]string        // email -> uid
	secret     []byte
	expiration time.Duration
}

func NewLocalIdentity(secret string, expiration time.Duration) *LocalIdentity {
	return &LocalIdentity{
		accounts:   make(map[string]*localAccount),
		byEmail:    make(map[string]string),
		secret:     []byte(secret),
		expiration: expiration,
	}
}

func (l *LocalIdentity) CreateUser(ctx context.Context, email, password, displayName string, role models.Role) (string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, exists := l.byEmail[email]; exists {
		return "", ErrEmailExists
	}
	if len(password) < 6 {
		return "", ErrWeakPassword
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}

	account := &localAccount{
		UID:          uuid.New().String(),
		Email:        email,
		DisplayName:  displayName,
		Role:         role,
		PasswordHash: string(hash),
		CreatedAt:    time.Now().UTC(),
	}
	l.accounts[account.UID] = account
	l.byEmail[email] = account.UID

	return account.UID, nil
}

func (l *LocalIdentity) SignIn(ctx context.Context, email, password string) (string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	uid, exists := l.byEmail[email]
	if !exists {
		return "", ErrInvalidCredentials
	}
	account := l.accounts[uid]
	if err := bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(password)); err != nil {
		return "", ErrInvalidCredentials
	}
	account.LastSignIn = time.Now().UTC()

	claims := jwt.MapClaims{
		"uid":   account.UID,
		"email": account.Email,
		"exp":   time.Now().Add(l.expiration).Unix(),
		"iat":   time.Now().Unix(),
	}
	if account.Role != "" {
		claims["role"] = string(account.Role)
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(l.secret)
}

func (l *LocalIdentity) VerifyToken(ctx context.Context, tokenString string) (*Identity, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return l.secret, nil
	})
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, ErrInvalidToken
	}
	uid, ok := claims["uid"].(string)
	if !ok || uid == "" {
		return nil, ErrInvalidToken
	}

	id := &Identity{UID: uid}
	if email, ok := claims["email"].(string); ok {
		id.Email = email
	}
	if role, ok := claims["role"].(string); ok {
		id.Role = models.Role(role)
	}
	return id, nil
}

func (l *LocalIdentity) GetUser(ctx context.Context, uid string) (*models.User, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	account, exists := l.accounts[uid]
	if !exists {
		return nil, ErrUserNotFound
	}
	return mapLocalAccount(account), nil
}

func (l *LocalIdentity) ListUsers(ctx context.Context) ([]*models.User, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	users := make([]*models.User, 0, len(l.accounts))
	for _, account := range l.accounts {
		users = append(users, mapLocalAccount(account))
	}
	return users, nil
}

func (l *LocalIdentity) UpdateUser(ctx context.Context, uid, displayName, password string) (*models.User, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	account, exists := l.accounts[uid]
	if !exists {
		return nil, ErrUserNotFound
	}
	if len(password) < 6 {
		return nil, ErrWeakPassword
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	account.DisplayName = displayName
	account.PasswordHash = string(hash)
	return mapLocalAccount(account), nil
}

func (l *LocalIdentity) SetRole(ctx context.Context, uid string, role models.Role) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	account, exists := l.accounts[uid]
	if !exists {
		return ErrUserNotFound
	}
	account.Role = role
	return nil
}

func (l *LocalIdentity) DeleteUser(ctx context.Context, uid string) (string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	account, exists := l.accounts[uid]
	if !exists {
		return "", ErrUserNotFound
	}
	delete(l.byEmail, account.Email)
	delete(l.accounts, uid)
	return account.Email, nil
}

func mapLocalAccount(account *localAccount) *models.User {
	user := &models.User{
		UID:          account.UID,
		Email:        account.Email,
		DisplayName:  account.DisplayName,
		Role:         account.Role,
		CreationTime: account.CreatedAt.Format(time.RFC3339),
	}
	if !account.LastSignIn.IsZero() {
		user.LastSignInTime = account.LastSignIn.Format(time.RFC3339)
	}
	return user
}
