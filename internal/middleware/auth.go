package middleware

import (
	"context"
	"log/slog"

	apperrors "inkpost/internal/errors"
	"inkpost/internal/identity"
	"inkpost/internal/models"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
)

const CheckUserKey = "user"

const (
	sessionUserKey  = "user_id"
	sessionEmailKey = "user_email"
	sessionNameKey  = "user_name"
)

// UserResolver maps a verified identity to a stored user.
type UserResolver interface {
	EnsureUser(ctx context.Context, email, name string) (*models.User, error)
}

// LoadUser resolves the caller from a Bearer identity token or, failing
// that, from the session. Anonymous requests pass through without a user.
// A token that fails verification is rejected with 401.
func LoadUser(verifier *identity.Verifier, users UserResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		session := sessions.Default(c)

		token := identity.BearerToken(c.GetHeader("Authorization"))
		if token == "" {
			if id, ok := session.Get(sessionUserKey).(uint); ok && id != 0 {
				email, _ := session.Get(sessionEmailKey).(string)
				name, _ := session.Get(sessionNameKey).(string)
				c.Set(CheckUserKey, &models.User{ID: id, Email: email, Name: name})
			}
			c.Next()
			return
		}

		claims, err := verifier.Verify(token)
		if err != nil {
			slog.Debug("Identity token rejected", "error", err, "request_id", RequestID(c))
			AbortWithError(c, apperrors.Unauthorized("Invalid identity token"))
			return
		}

		// same identity as the cached session: skip the store
		if id, ok := session.Get(sessionUserKey).(uint); ok && id != 0 &&
			session.Get(sessionEmailKey) == claims.Email &&
			session.Get(sessionNameKey) == claims.Name {
			c.Set(CheckUserKey, &models.User{ID: id, Email: claims.Email, Name: claims.Name})
			c.Next()
			return
		}

		user, err := users.EnsureUser(c.Request.Context(), claims.Email, claims.Name)
		if err != nil {
			AbortWithError(c, err)
			return
		}

		session.Set(sessionUserKey, user.ID)
		session.Set(sessionEmailKey, user.Email)
		session.Set(sessionNameKey, claims.Name)
		if err := session.Save(); err != nil {
			slog.Warn("Failed to save session", "error", err, "request_id", RequestID(c))
		}

		c.Set(CheckUserKey, user)
		c.Next()
	}
}

// AuthRequired rejects requests without a resolved user.
func AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		if CurrentUserID(c) == 0 {
			AbortWithError(c, apperrors.Unauthorized("Unauthorized"))
			return
		}
		c.Next()
	}
}

// CurrentUser returns the resolved caller, or nil for anonymous requests.
func CurrentUser(c *gin.Context) *models.User {
	v, exists := c.Get(CheckUserKey)
	if !exists {
		return nil
	}
	user, _ := v.(*models.User)
	return user
}

// CurrentUserID returns the caller's id, 0 when anonymous.
func CurrentUserID(c *gin.Context) uint {
	if user := CurrentUser(c); user != nil {
		return user.ID
	}
	return 0
}
