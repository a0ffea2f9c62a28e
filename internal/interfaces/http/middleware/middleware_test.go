package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/your-org/storefront-api/internal/config"
	"github.com/your-org/storefront-api/internal/domain/cart"
	"github.com/your-org/storefront-api/internal/pkg/auth"
	"github.com/your-org/storefront-api/internal/pkg/logger"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func testConfig() *config.Config {
	return &config.Config{
		JWT: config.JWTConfig{
			Secret:             "test-secret-that-is-long-enough-for-hs256",
			AccessTokenExpiry:  time.Hour,
			RefreshTokenExpiry: 24 * time.Hour,
		},
		Session: config.SessionConfig{CookieName: "session_id", TTL: time.Hour},
	}
}

type fakeSessions struct {
	known   map[string]bool
	created int
	err     error
}

func (f *fakeSessions) Create(context.Context) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.created++
	token := "minted-token"
	f.known[token] = true
	return token, nil
}

func (f *fakeSessions) Touch(_ context.Context, token string) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	return f.known[token], nil
}

func ownerRouter(cfg *config.Config, store SessionStore) *gin.Engine {
	r := gin.New()
	r.Use(OptionalAuthMiddleware(auth.NewJWTManager(cfg)), CartOwner(store, cfg.Session, logger.Discard()))
	r.GET("/cart", func(c *gin.Context) {
		owner, ok := GetCartOwnerFromContext(c)
		if !ok {
			c.Status(http.StatusInternalServerError)
			return
		}
		c.String(http.StatusOK, owner.String())
	})
	return r
}

func TestCartOwner_MintsSessionOnFirstAccess(t *testing.T) {
	cfg := testConfig()
	store := &fakeSessions{known: map[string]bool{}}
	r := ownerRouter(cfg, store)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/cart", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "session:minted-token", w.Body.String())
	assert.Equal(t, 1, store.created)
	assert.Contains(t, w.Header().Get("Set-Cookie"), "session_id=minted-token")
	assert.Contains(t, w.Header().Get("Set-Cookie"), "HttpOnly")
}

func TestCartOwner_ReusesKnownSession(t *testing.T) {
	cfg := testConfig()
	store := &fakeSessions{known: map[string]bool{"existing": true}}
	r := ownerRouter(cfg, store)

	req := httptest.NewRequest(http.MethodGet, "/cart", nil)
	req.AddCookie(&http.Cookie{Name: "session_id", Value: "existing"})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, "session:existing", w.Body.String())
	assert.Zero(t, store.created)
	assert.Empty(t, w.Header().Get("Set-Cookie"))
}

func TestCartOwner_ReplacesExpiredSession(t *testing.T) {
	cfg := testConfig()
	store := &fakeSessions{known: map[string]bool{}}
	r := ownerRouter(cfg, store)

	req := httptest.NewRequest(http.MethodGet, "/cart", nil)
	req.AddCookie(&http.Cookie{Name: "session_id", Value: "forged"})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, "session:minted-token", w.Body.String())
}

func TestCartOwner_AuthenticatedUserWins(t *testing.T) {
	cfg := testConfig()
	store := &fakeSessions{known: map[string]bool{"existing": true}}
	r := ownerRouter(cfg, store)

	token, err := auth.NewJWTManager(cfg).GenerateAccessToken(42, "u@example.com", false)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/cart", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	req.AddCookie(&http.Cookie{Name: "session_id", Value: "existing"})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, cart.UserOwner(42).String(), w.Body.String())
	assert.Zero(t, store.created)
}

func TestCartOwner_StoreFailure(t *testing.T) {
	cfg := testConfig()
	store := &fakeSessions{known: map[string]bool{}, err: errors.New("redis down")}
	r := ownerRouter(cfg, store)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/cart", nil))

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestAuthAndStaffMiddleware(t *testing.T) {
	cfg := testConfig()
	jwt := auth.NewJWTManager(cfg)

	r := gin.New()
	r.GET("/admin", AuthMiddleware(jwt), StaffMiddleware(), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	customer, err := jwt.GenerateAccessToken(1, "c@example.com", false)
	require.NoError(t, err)
	staff, err := jwt.GenerateAccessToken(2, "s@example.com", true)
	require.NoError(t, err)
	refresh, err := jwt.GenerateRefreshToken(2, "s@example.com")
	require.NoError(t, err)

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{name: "missing header", header: "", want: http.StatusUnauthorized},
		{name: "malformed header", header: "Token abc", want: http.StatusUnauthorized},
		{name: "refresh token", header: "Bearer " + refresh, want: http.StatusUnauthorized},
		{name: "customer", header: "Bearer " + customer, want: http.StatusForbidden},
		{name: "staff", header: "Bearer " + staff, want: http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/admin", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			assert.Equal(t, tt.want, w.Code)
		})
	}
}

func TestIsOriginAllowed(t *testing.T) {
	allowed := []string{"http://localhost:3000", "*.example.com"}

	assert.True(t, isOriginAllowed("http://localhost:3000", allowed))
	assert.True(t, isOriginAllowed("https://shop.example.com", allowed))
	assert.False(t, isOriginAllowed("https://evilexample.com", allowed))
	assert.False(t, isOriginAllowed("", allowed))
	assert.True(t, isOriginAllowed("https://any.site", []string{"*"}))
}

func TestRequestID(t *testing.T) {
	r := gin.New()
	r.Use(RequestID())
	r.GET("/", func(c *gin.Context) { c.String(http.StatusOK, c.GetString(ctxRequestID)) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	generated := w.Header().Get(requestIDHeader)
	assert.Len(t, generated, 36)
	assert.Equal(t, generated, w.Body.String())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(requestIDHeader, "3f2a9c1e-0000-4000-8000-000000000000")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "3f2a9c1e-0000-4000-8000-000000000000", w.Header().Get(requestIDHeader))
}

func TestRequestSizeLimit(t *testing.T) {
	r := gin.New()
	r.Use(RequestSizeLimit(8, 64))
	r.POST("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/", strings.NewReader("far too long for the limit")))
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/", strings.NewReader("ok")))
	assert.Equal(t, http.StatusOK, w.Code)

	multipart := func(body string) *http.Request {
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
		req.Header.Set("Content-Type", "multipart/form-data; boundary=x")
		return req
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, multipart("far too long for the limit"))
	assert.Equal(t, http.StatusOK, w.Code, "uploads get the larger limit")

	w = httptest.NewRecorder()
	r.ServeHTTP(w, multipart(strings.Repeat("x", 65)))
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
}
