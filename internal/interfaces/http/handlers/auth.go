// internal/interfaces/http/handlers/auth.go
package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/your-org/storefront-api/internal/config"
	"github.com/your-org/storefront-api/internal/domain/cart"
	"github.com/your-org/storefront-api/internal/domain/user"
	"github.com/your-org/storefront-api/internal/interfaces/http/middleware"
)

// SessionRevoker forgets anonymous sessions once their cart has been merged
type SessionRevoker interface {
	Delete(ctx context.Context, token string) error
}

// AuthHandler handles authentication endpoints
type AuthHandler struct {
	userService *user.Service
	cartService *cart.Service
	sessions    SessionRevoker
	session     config.SessionConfig
	logger      *logrus.Logger
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(userService *user.Service, cartService *cart.Service, sessions SessionRevoker, cfg config.SessionConfig, logger *logrus.Logger) *AuthHandler {
	return &AuthHandler{
		userService: userService,
		cartService: cartService,
		sessions:    sessions,
		session:     cfg,
		logger:      logger,
	}
}

// Register handles user registration
func (h *AuthHandler) Register(c *gin.Context) {
	var req user.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	response, err := h.userService.Register(c.Request.Context(), &req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	h.adoptGuestCart(c, response.User.ID)

	c.JSON(http.StatusCreated, gin.H{
		"message": "User registered successfully",
		"data":    response,
	})
}

// Login handles user login. A guest cart held by the session cookie is merged
// into the user's cart.
func (h *AuthHandler) Login(c *gin.Context) {
	var req user.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	response, err := h.userService.Login(c.Request.Context(), &req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	h.adoptGuestCart(c, response.User.ID)

	c.JSON(http.StatusOK, gin.H{
		"message": "Login successful",
		"data":    response,
	})
}

// RefreshToken handles token refresh
func (h *AuthHandler) RefreshToken(c *gin.Context) {
	var req user.RefreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	response, err := h.userService.RefreshToken(c.Request.Context(), req.RefreshToken)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Token refreshed successfully",
		"data":    response,
	})
}

// GetCurrentUser returns the current authenticated user's information
func (h *AuthHandler) GetCurrentUser(c *gin.Context) {
	userID, exists := middleware.GetUserIDFromContext(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{
			"error":   "unauthorized",
			"message": "User not authenticated",
		})
		return
	}

	u, err := h.userService.GetByID(c.Request.Context(), userID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "User retrieved successfully",
		"data":    u,
	})
}

// adoptGuestCart merges the session cart, if any, into the user's cart.
// Authentication has already succeeded, so a failed merge is only logged and
// the guest cart stays behind its cookie.
func (h *AuthHandler) adoptGuestCart(c *gin.Context, userID uint) {
	token, err := c.Cookie(h.session.CookieName)
	if err != nil || token == "" {
		return
	}

	ctx := c.Request.Context()
	if _, err := h.cartService.MergeSessionCart(ctx, token, userID); err != nil {
		h.logger.WithError(err).WithField("user_id", userID).Warn("Failed to merge guest cart")
		return
	}

	if err := h.sessions.Delete(ctx, token); err != nil {
		h.logger.WithError(err).WithField("user_id", userID).Warn("Failed to delete merged session")
	}
	middleware.ClearSessionCookie(c, h.session)
}
