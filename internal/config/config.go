package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	ServerAddress string
	RootPrefix    string

	// AuthMode selects the identity provider: "firebase" or "local".
	AuthMode string
	// StoreBackend selects the document store: "firestore", "mongo" or "memory".
	StoreBackend string

	FirebaseProjectID       string
	FirebaseCredentialsFile string
	FirebaseAPIKey          string
	StorageBucket           string

	MongoURI string
	MongoDB  string

	// AdminEmail is the bootstrap admin: a signup with this email gets the
	// admin role instead of the default user role.
	AdminEmail string

	JWTSecret     string
	JWTExpiration time.Duration

	UploadDir       string
	MaxUploadSizeMB int64
}

func Load() *Config {
	return &Config{
		ServerAddress:           getEnv("SERVER_ADDRESS", ":8080"),
		RootPrefix:              getEnv("ROOT_PREFIX", "/api"),
		AuthMode:                getEnv("AUTH_MODE", "firebase"),
		StoreBackend:            getEnv("STORE_BACKEND", "firestore"),
		FirebaseProjectID:       getEnv("FIREBASE_PROJECT_ID", ""),
		FirebaseCredentialsFile: getEnv("FIREBASE_CREDENTIALS_FILE", ""),
		FirebaseAPIKey:          getEnv("FIREBASE_API_KEY", ""),
		StorageBucket:           getEnv("STORAGE_BUCKET", ""),
		MongoURI:                getEnv("MONGO_URI", ""),
		MongoDB:                 getEnv("MONGO_DB", "memestream"),
		AdminEmail:              getEnv("ADMIN_EMAIL", ""),
		JWTSecret:               getEnv("JWT_SECRET", "local-dev-secret-change-me"),
		JWTExpiration:           24 * time.Hour,
		UploadDir:               getEnv("UPLOAD_DIR", "./uploads"),
		MaxUploadSizeMB:         getEnvInt64("MAX_UPLOAD_SIZE_MB", 10),
	}
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvInt64(key string, defaultValue int64) int64 {
	if value, exists := os.LookupEnv(key); exists {
		if n, err := strconv.ParseInt(value, 10, 64); err == nil {
			return n
		}
	}
	return defaultValue
}
