// internal/interfaces/http/middleware/session.go
package middleware

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/your-org/storefront-api/internal/config"
	"github.com/your-org/storefront-api/internal/domain/cart"
)

const ctxCartOwner = "cart_owner"

// SessionStore registers anonymous sessions
type SessionStore interface {
	Create(ctx context.Context) (string, error)
	Touch(ctx context.Context, token string) (bool, error)
}

// CartOwner resolves who the cart belongs to: the authenticated user, or else the
// anonymous session from the cookie. A session is minted on first cart access.
// Must run after OptionalAuthMiddleware.
func CartOwner(store SessionStore, cfg config.SessionConfig, logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if userID, ok := GetUserIDFromContext(c); ok {
			c.Set(ctxCartOwner, cart.UserOwner(userID))
			c.Next()
			return
		}

		ctx := c.Request.Context()

		if token, err := c.Cookie(cfg.CookieName); err == nil && token != "" {
			known, err := store.Touch(ctx, token)
			if err != nil {
				logger.WithError(err).Error("Session store unavailable")
				abortWithError(c, http.StatusServiceUnavailable, "internal_error", "Session store unavailable")
				return
			}
			if known {
				c.Set(ctxCartOwner, cart.SessionOwner(token))
				c.Next()
				return
			}
		}

		token, err := store.Create(ctx)
		if err != nil {
			logger.WithError(err).Error("Failed to create session")
			abortWithError(c, http.StatusServiceUnavailable, "internal_error", "Session store unavailable")
			return
		}

		SetSessionCookie(c, cfg, token)
		c.Set(ctxCartOwner, cart.SessionOwner(token))
		c.Next()
	}
}

// SetSessionCookie writes the anonymous session cookie
func SetSessionCookie(c *gin.Context, cfg config.SessionConfig, token string) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(cfg.CookieName, token, int(cfg.TTL.Seconds()), "/", "", cfg.SecureCookie, true)
}

// ClearSessionCookie expires the anonymous session cookie
func ClearSessionCookie(c *gin.Context, cfg config.SessionConfig) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(cfg.CookieName, "", -1, "/", "", cfg.SecureCookie, true)
}

// GetCartOwnerFromContext returns the owner resolved by CartOwner
func GetCartOwnerFromContext(c *gin.Context) (cart.Owner, bool) {
	v, exists := c.Get(ctxCartOwner)
	if !exists {
		return cart.Owner{}, false
	}
	owner, ok := v.(cart.Owner)
	return owner, ok
}
