package main

import (
	"context"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/memestream/backend/internal/config"
	"github.com/memestream/backend/internal/handlers"
	appMiddleware "github.com/memestream/backend/internal/middleware"
	"github.com/memestream/backend/internal/models"
	"github.com/memestream/backend/internal/services"
)

func main() {
	cfg := config.Load()
	ctx := context.Background()

	identity, err := newIdentityProvider(ctx, cfg)
	if err != nil {
		log.Fatalf("identity provider (%s): %v", cfg.AuthMode, err)
	}

	memes, err := newMemeService(ctx, cfg)
	if err != nil {
		log.Fatalf("meme store (%s): %v", cfg.StoreBackend, err)
	}
	defer memes.Close(ctx)

	blobs, err := newBlobStore(ctx, cfg)
	if err != nil {
		log.Fatalf("blob store: %v", err)
	}
	defer blobs.Close()

	authHandler := handlers.NewAuthHandler(identity, memes, cfg.AdminEmail)
	userHandler := handlers.NewUserHandler(identity, memes)
	memeHandler := handlers.NewMemeHandler(memes, blobs, cfg.MaxUploadSizeMB)
	adminHandler := handlers.NewAdminHandler(memes)

	adminOnly := appMiddleware.AuthorizeOptions{Roles: []models.Role{models.RoleAdmin}}
	adminOrSelf := appMiddleware.AuthorizeOptions{Roles: []models.Role{models.RoleAdmin}, AllowSameUser: true}
	anyRole := appMiddleware.AuthorizeOptions{Roles: []models.Role{models.RoleAdmin, models.RoleUser}}
	ownerOnly := appMiddleware.AuthorizeOptions{AllowSameUser: true}

	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	r.Route(cfg.RootPrefix, func(r chi.Router) {
		r.Post("/signup", authHandler.Signup)
		r.Post("/signin", authHandler.Signin)

		// Everything below requires a verified identity.
		r.Group(func(r chi.Router) {
			r.Use(appMiddleware.Authenticate(identity))

			r.Route("/users", func(r chi.Router) {
				r.With(appMiddleware.Authorize(adminOnly)).Get("/", userHandler.List)

				r.Route("/{id}", func(r chi.Router) {
					r.With(appMiddleware.Authorize(adminOrSelf)).Get("/", userHandler.Get)
					r.With(appMiddleware.Authorize(adminOrSelf)).Patch("/", userHandler.Update)
					r.With(appMiddleware.Authorize(adminOnly)).Delete("/", userHandler.Delete)
				})
			})

			r.Route("/memes", func(r chi.Router) {
				r.With(appMiddleware.Authorize(anyRole)).Post("/", memeHandler.Create)
				r.With(appMiddleware.Authorize(anyRole)).Get("/", memeHandler.List)

				r.Route("/{memeId}", func(r chi.Router) {
					r.With(appMiddleware.Authorize(anyRole)).Put("/", memeHandler.Like)

					// Owner-gated routes resolve the meme's owner first so
					// the same-user check compares against it.
					r.With(
						appMiddleware.MemeOwner(memes),
						appMiddleware.Authorize(adminOrSelf),
					).Get("/", memeHandler.Get)
					r.With(
						appMiddleware.MemeOwner(memes),
						appMiddleware.Authorize(ownerOnly),
					).Patch("/", memeHandler.Update)
					r.With(
						appMiddleware.MemeOwner(memes),
						appMiddleware.Authorize(adminOrSelf),
					).Delete("/", memeHandler.Delete)
				})
			})

			r.With(appMiddleware.Authorize(adminOnly)).Put("/admin/profane", adminHandler.UpdateProfaneWords)
		})
	})

	log.Printf("memestream API server starting on %s (auth=%s store=%s)",
		cfg.ServerAddress, cfg.AuthMode, cfg.StoreBackend)
	if err := http.ListenAndServe(cfg.ServerAddress, r); err != nil {
		log.Fatalf("Server failed to start: %v", err)
	}
}

func newIdentityProvider(ctx context.Context, cfg *config.Config) (services.IdentityProvider, error) {
	if cfg.AuthMode == "local" {
		log.Printf("Warning: local identity provider in use; tokens are HS256 and accounts are in-memory")
		return services.NewLocalIdentity(cfg.JWTSecret, cfg.JWTExpiration), nil
	}
	return services.NewFirebaseIdentity(ctx, services.FirebaseIdentityConfig{
		ProjectID:       cfg.FirebaseProjectID,
		CredentialsFile: cfg.FirebaseCredentialsFile,
		APIKey:          cfg.FirebaseAPIKey,
	})
}

func newMemeService(ctx context.Context, cfg *config.Config) (services.MemeService, error) {
	switch cfg.StoreBackend {
	case "mongo":
		return services.NewMongoMemeService(ctx, cfg.MongoURI, cfg.MongoDB)
	case "memory":
		log.Printf("Warning: in-memory meme store in use; data is not persisted")
		return services.NewMemoryMemeService(), nil
	default:
		return services.NewFirestoreMemeService(ctx, cfg.FirebaseProjectID)
	}
}

func newBlobStore(ctx context.Context, cfg *config.Config) (services.BlobStore, error) {
	if cfg.StorageBucket != "" {
		return services.NewGCSBlobStore(ctx, cfg.StorageBucket)
	}
	log.Printf("Warning: STORAGE_BUCKET not set, storing uploads under %s", cfg.UploadDir)
	return services.NewLocalBlobStore(cfg.UploadDir)
}
