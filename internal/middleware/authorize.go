package middleware

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/memestream/backend/internal/models"
	"github.com/memestream/backend/internal/services"
)

// AuthorizeOptions is the per-route access policy.
type AuthorizeOptions struct {
	Roles []models.Role
	// AllowSameUser lets the caller through when their uid matches the
	// target: the resolved resource owner if one was attached, otherwise the
	// route's {id} parameter.
	AllowSameUser bool
}

// Decide is the pure policy check. The same-user bypass is evaluated before
// any role check, so a caller with no role at all may still act on their own
// resource. On denial the second return value is the response message.
func (o AuthorizeOptions) Decide(identity *services.Identity, targetID string) (bool, string) {
	if o.AllowSameUser && targetID != "" && identity.UID == targetID {
		return true, ""
	}
	if identity.Role == "" {
		return false, models.MsgRoleIssue
	}
	for _, role := range o.Roles {
		if identity.Role == role {
			return true, ""
		}
	}
	return false, models.MsgPermissionIssue
}

// Authorize enforces the route policy against the identity attached by
// Authenticate. It performs no I/O; resource routes get their owner id from
// the MemeOwner resolver.
func Authorize(opts AuthorizeOptions) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity := Identity(r.Context())
			if identity == nil {
				writeMessage(w, http.StatusUnauthorized, models.MsgUnauthorized)
				return
			}

			targetID, ok := ResourceOwner(r.Context())
			if !ok {
				targetID = chi.URLParam(r, "id")
			}

			allowed, message := opts.Decide(identity, targetID)
			if !allowed {
				writeMessage(w, http.StatusForbidden, message)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
