// internal/pkg/auth/jwt.go
package auth

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/your-org/storefront-api/internal/config"
)

const (
	tokenTypeAccess  = "access"
	tokenTypeRefresh = "refresh"
)

// ErrWrongTokenType is returned when a refresh token is presented as an
// access token or the other way round
var ErrWrongTokenType = errors.New("wrong token type")

// Claims carried by both token types. IsStaff is only set on access tokens;
// a refresh re-reads it from the user row.
type Claims struct {
	UserID    uint   `json:"user_id"`
	Email     string `json:"email"`
	IsStaff   bool   `json:"is_staff"`
	TokenType string `json:"token_type"`
	jwt.RegisteredClaims
}

// JWTManager signs and verifies HS256 tokens
type JWTManager struct {
	secret     []byte
	issuer     string
	accessTTL  time.Duration
	refreshTTL time.Duration
	parser     *jwt.Parser
}

func NewJWTManager(cfg *config.Config) *JWTManager {
	return &JWTManager{
		secret:     []byte(cfg.JWT.Secret),
		issuer:     cfg.App.Name,
		accessTTL:  cfg.JWT.AccessTokenExpiry,
		refreshTTL: cfg.JWT.RefreshTokenExpiry,
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
			jwt.WithIssuedAt(),
		),
	}
}

// GenerateAccessToken issues a short-lived token for API calls
func (j *JWTManager) GenerateAccessToken(userID uint, email string, isStaff bool) (string, error) {
	return j.issue(Claims{UserID: userID, Email: email, IsStaff: isStaff, TokenType: tokenTypeAccess}, j.accessTTL)
}

// GenerateRefreshToken issues a long-lived token accepted only by /auth/refresh
func (j *JWTManager) GenerateRefreshToken(userID uint, email string) (string, error) {
	return j.issue(Claims{UserID: userID, Email: email, TokenType: tokenTypeRefresh}, j.refreshTTL)
}

func (j *JWTManager) issue(claims Claims, ttl time.Duration) (string, error) {
	now := time.Now().UTC()
	claims.RegisteredClaims = jwt.RegisteredClaims{
		Issuer:    j.issuer,
		Subject:   strconv.FormatUint(uint64(claims.UserID), 10),
		IssuedAt:  jwt.NewNumericDate(now),
		NotBefore: jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, &claims).SignedString(j.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign %s token: %w", claims.TokenType, err)
	}
	return signed, nil
}

// ValidateToken verifies signature, algorithm and expiry of either token type
func (j *JWTManager) ValidateToken(tokenString string) (*Claims, error) {
	claims := &Claims{}
	if _, err := j.parser.ParseWithClaims(tokenString, claims, func(*jwt.Token) (interface{}, error) {
		return j.secret, nil
	}); err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}
	if claims.UserID == 0 {
		return nil, fmt.Errorf("token has no subject")
	}
	return claims, nil
}

// ValidateAccessToken accepts only access tokens
func (j *JWTManager) ValidateAccessToken(tokenString string) (*Claims, error) {
	return j.validateType(tokenString, tokenTypeAccess)
}

// ValidateRefreshToken accepts only refresh tokens
func (j *JWTManager) ValidateRefreshToken(tokenString string) (*Claims, error) {
	return j.validateType(tokenString, tokenTypeRefresh)
}

func (j *JWTManager) validateType(tokenString, want string) (*Claims, error) {
	claims, err := j.ValidateToken(tokenString)
	if err != nil {
		return nil, err
	}
	if claims.TokenType != want {
		return nil, fmt.Errorf("%w: expected %s, got %q", ErrWrongTokenType, want, claims.TokenType)
	}
	return claims, nil
}

// ExtractTokenFromHeader returns the bearer token, or "" if the header has
// another scheme
func ExtractTokenFromHeader(authHeader string) string {
	token, ok := strings.CutPrefix(authHeader, "Bearer ")
	if !ok {
		return ""
	}
	return strings.TrimSpace(token)
}
