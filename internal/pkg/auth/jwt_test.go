package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/your-org/storefront-api/internal/config"
	"github.com/your-org/storefront-api/internal/domain/apperr"
)

func testConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{Name: "storefront-test"},
		JWT: config.JWTConfig{
			Secret:             "test-secret-that-is-long-enough-for-hs256",
			AccessTokenExpiry:  15 * time.Minute,
			RefreshTokenExpiry: time.Hour,
		},
		Security: config.SecurityConfig{BcryptCost: 4},
	}
}

func TestAccessTokenRoundTrip(t *testing.T) {
	manager := NewJWTManager(testConfig())

	token, err := manager.GenerateAccessToken(42, "staff@example.com", true)
	require.NoError(t, err)

	claims, err := manager.ValidateAccessToken(token)
	require.NoError(t, err)
	assert.Equal(t, uint(42), claims.UserID)
	assert.True(t, claims.IsStaff)
	assert.Equal(t, "storefront-test", claims.Issuer)
}

func TestTokenTypesAreNotInterchangeable(t *testing.T) {
	manager := NewJWTManager(testConfig())

	refresh, err := manager.GenerateRefreshToken(7, "user@example.com")
	require.NoError(t, err)

	_, err = manager.ValidateAccessToken(refresh)
	assert.ErrorIs(t, err, ErrWrongTokenType)

	claims, err := manager.ValidateRefreshToken(refresh)
	require.NoError(t, err)
	assert.False(t, claims.IsStaff)
}

func TestValidateRejectsForeignSignature(t *testing.T) {
	other := testConfig()
	other.JWT.Secret = "another-secret-that-is-long-enough-too"

	token, err := NewJWTManager(other).GenerateAccessToken(1, "a@example.com", false)
	require.NoError(t, err)

	_, err = NewJWTManager(testConfig()).ValidateToken(token)
	assert.Error(t, err)
}

func TestExtractTokenFromHeader(t *testing.T) {
	assert.Equal(t, "abc", ExtractTokenFromHeader("Bearer abc"))
	assert.Equal(t, "", ExtractTokenFromHeader("Basic abc"))
	assert.Equal(t, "", ExtractTokenFromHeader(""))
}

func TestPasswordManager(t *testing.T) {
	manager := NewPasswordManager(testConfig())

	hash, err := manager.HashPassword("Str0ng#Pwd!")
	require.NoError(t, err)
	assert.NoError(t, manager.VerifyPassword("Str0ng#Pwd!", hash))
	assert.Error(t, manager.VerifyPassword("wrong", hash))

	_, err = manager.HashPassword("short")
	assert.Error(t, err)
	_, err = manager.HashPassword("Password1!")
	assert.Error(t, err, "common passwords are rejected")
}

func TestValidatePassword(t *testing.T) {
	tests := []struct {
		password string
		valid    bool
	}{
		{"Customer#Pass24", true},
		{"Str0ng#Pwd!", true},
		{"Sh0rt!", false},
		{"alllower#case9", false},
		{"NoDigits#Here", false},
		{"NoSpecial9Here", false},
		{"Xyz#Secret9", false},
		{"Abc#Secret9", false},
		{"Good#Pass789", false},
		{"Qwerty#Pass9", false},
	}

	for _, tt := range tests {
		t.Run(tt.password, func(t *testing.T) {
			err := ValidatePassword(tt.password)
			if tt.valid {
				assert.NoError(t, err)
				return
			}
			assert.Equal(t, apperr.KindInvalidInput, apperr.KindOf(err))
		})
	}
}
