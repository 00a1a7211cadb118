package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/auth"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"

	"github.com/memestream/backend/internal/models"
)

const defaultIdentityToolkitEndpoint = "https://identitytoolkit.googleapis.com"

type FirebaseIdentityConfig struct {
	ProjectID       string
	CredentialsFile string
	// APIKey is the web API key used for the password sign-in REST call.
	APIKey string
	// Endpoint overrides the Identity Toolkit base URL (tests).
	Endpoint   string
	HTTPClient *http.Client
}

// FirebaseIdentity is the production credential store. Token verification and
// user administration go through the Admin SDK; email/password sign-in goes
// through the Identity Toolkit REST endpoint because the Admin SDK has no
// password-exchange call.
type FirebaseIdentity struct {
	auth       *auth.Client
	apiKey     string
	endpoint   string
	httpClient *http.Client
}

func NewFirebaseIdentity(ctx context.Context, cfg FirebaseIdentityConfig) (*FirebaseIdentity, error) {
	var opts []option.ClientOption
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}

	app, err := firebase.NewApp(ctx, &firebase.Config{ProjectID: cfg.ProjectID}, opts...)
	if err != nil {
		return nil, fmt.Errorf("firebase app: %w", err)
	}
	client, err := app.Auth(ctx)
	if err != nil {
		return nil, fmt.Errorf("firebase auth client: %w", err)
	}

	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = defaultIdentityToolkitEndpoint
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 8 * time.Second}
	}

	return &FirebaseIdentity{
		auth:       client,
		apiKey:     cfg.APIKey,
		endpoint:   endpoint,
		httpClient: httpClient,
	}, nil
}

func (f *FirebaseIdentity) CreateUser(ctx context.Context, email, password, displayName string, role models.Role) (string, error) {
	params := (&auth.UserToCreate{}).
		Email(email).
		Password(password).
		DisplayName(displayName)

	record, err := f.auth.CreateUser(ctx, params)
	if err != nil {
		if auth.IsEmailAlreadyExists(err) {
			return "", ErrEmailExists
		}
		if strings.Contains(err.Error(), "password") {
			return "", ErrWeakPassword
		}
		return "", err
	}

	if err := f.auth.SetCustomUserClaims(ctx, record.UID, map[string]interface{}{
		"role": string(role),
	}); err != nil {
		return "", fmt.Errorf("set role claim: %w", err)
	}
	return record.UID, nil
}

type signInRequest struct {
	Email             string `json:"email"`
	Password          string `json:"password"`
	ReturnSecureToken bool   `json:"returnSecureToken"`
}

type signInResponse struct {
	IDToken string `json:"idToken"`
	Error   *struct {
		Message string `json:"message"`
	} `json:"error"`
}

func (f *FirebaseIdentity) SignIn(ctx context.Context, email, password string) (string, error) {
	body, err := json.Marshal(signInRequest{
		Email:             email,
		Password:          password,
		ReturnSecureToken: true,
	})
	if err != nil {
		return "", err
	}

	url := fmt.Sprintf("%s/v1/accounts:signInWithPassword?key=%s", f.endpoint, f.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	var out signInResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", err
	}
	if resp.StatusCode != http.StatusOK {
		if out.Error != nil {
			switch out.Error.Message {
			case "INVALID_PASSWORD", "EMAIL_NOT_FOUND", "INVALID_LOGIN_CREDENTIALS":
				return "", ErrInvalidCredentials
			}
			return "", fmt.Errorf("identitytoolkit: %s", out.Error.Message)
		}
		return "", fmt.Errorf("identitytoolkit: http %d", resp.StatusCode)
	}
	return out.IDToken, nil
}

func (f *FirebaseIdentity) VerifyToken(ctx context.Context, token string) (*Identity, error) {
	decoded, err := f.auth.VerifyIDToken(ctx, token)
	if err != nil {
		return nil, err
	}

	id := &Identity{UID: decoded.UID}
	if email, ok := decoded.Claims["email"].(string); ok {
		id.Email = email
	}
	if role, ok := decoded.Claims["role"].(string); ok {
		id.Role = models.Role(role)
	}
	return id, nil
}

func (f *FirebaseIdentity) GetUser(ctx context.Context, uid string) (*models.User, error) {
	record, err := f.auth.GetUser(ctx, uid)
	if err != nil {
		if auth.IsUserNotFound(err) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return mapUserRecord(record), nil
}

func (f *FirebaseIdentity) ListUsers(ctx context.Context) ([]*models.User, error) {
	users := make([]*models.User, 0)
	it := f.auth.Users(ctx, "")
	for {
		exported, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, err
		}
		users = append(users, mapUserRecord(exported.UserRecord))
	}
	return users, nil
}

func (f *FirebaseIdentity) UpdateUser(ctx context.Context, uid, displayName, password string) (*models.User, error) {
	params := (&auth.UserToUpdate{}).
		DisplayName(displayName).
		Password(password)

	if _, err := f.auth.UpdateUser(ctx, uid, params); err != nil {
		if auth.IsUserNotFound(err) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return f.GetUser(ctx, uid)
}

func (f *FirebaseIdentity) SetRole(ctx context.Context, uid string, role models.Role) error {
	return f.auth.SetCustomUserClaims(ctx, uid, map[string]interface{}{
		"role": string(role),
	})
}

func (f *FirebaseIdentity) DeleteUser(ctx context.Context, uid string) (string, error) {
	record, err := f.auth.GetUser(ctx, uid)
	if err != nil {
		if auth.IsUserNotFound(err) {
			return "", ErrUserNotFound
		}
		return "", err
	}
	if err := f.auth.DeleteUser(ctx, uid); err != nil {
		return "", err
	}
	return record.Email, nil
}

func mapUserRecord(record *auth.UserRecord) *models.User {
	user := &models.User{
		UID:         record.UID,
		Email:       record.Email,
		DisplayName: record.DisplayName,
	}
	if role, ok := record.CustomClaims["role"].(string); ok {
		user.Role = models.Role(role)
	}
	if record.UserMetadata != nil {
		if record.UserMetadata.CreationTimestamp > 0 {
			user.CreationTime = formatMillis(record.UserMetadata.CreationTimestamp)
		}
		if record.UserMetadata.LastLogInTimestamp > 0 {
			user.LastSignInTime = formatMillis(record.UserMetadata.LastLogInTimestamp)
		}
	}
	return user
}

func formatMillis(ms int64) string {
	return time.UnixMilli(ms).UTC().Format(time.RFC3339)
}
