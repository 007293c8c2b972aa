package service

import (
	"testing"
	"time"

	"github.com/readium/readium/internal/config"
	"github.com/readium/readium/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestTokenService() *TokenService {
	return NewTokenService(&config.Config{
		AccessTokenSecret:  "access-secret-for-tests",
		RefreshTokenSecret: "refresh-secret-for-tests",
		AccessTokenExpiry:  15 * time.Minute,
		RefreshTokenExpiry: 240 * time.Hour,
	})
}

func testUser() *model.User {
	lastName := "Doe"
	return &model.User{
		ID:        "user-1",
		Username:  "johndoe",
		FirstName: "John",
		LastName:  &lastName,
		Email:     "john@example.com",
	}
}

func TestTokenService_AccessRoundTrip(t *testing.T) {
	svc := newTestTokenService()
	user := testUser()

	token, err := svc.GenerateAccessToken(user, "")
	require.NoError(t, err)

	claims, err := svc.VerifyAccessToken(token)
	require.NoError(t, err)

	assert.Equal(t, "user-1", claims.Subject)
	assert.Equal(t, "john@example.com", claims.Email)
	assert.Equal(t, "johndoe", claims.Username)
	assert.Equal(t, "John Doe", claims.Name)
	assert.Empty(t, claims.Provider)
}

func TestTokenService_ProviderClaim(t *testing.T) {
	svc := newTestTokenService()

	token, err := svc.GenerateAccessToken(testUser(), "google")
	require.NoError(t, err)

	claims, err := svc.VerifyAccessToken(token)
	require.NoError(t, err)
	assert.Equal(t, "google", claims.Provider)
}

func TestTokenService_RefreshRoundTrip(t *testing.T) {
	svc := newTestTokenService()

	token, err := svc.GenerateRefreshToken(testUser())
	require.NoError(t, err)

	claims, err := svc.VerifyRefreshToken(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.Subject)
}

func TestTokenService_EachIssuanceIsDistinct(t *testing.T) {
	svc := newTestTokenService()
	user := testUser()

	// Back-to-back issuances share the same second-resolution iat/exp, so
	// only the jti keeps them apart. Rotation relies on that.
	first, err := svc.GenerateRefreshToken(user)
	require.NoError(t, err)
	second, err := svc.GenerateRefreshToken(user)
	require.NoError(t, err)
	assert.NotEqual(t, first, second)

	firstClaims, err := svc.VerifyRefreshToken(first)
	require.NoError(t, err)
	secondClaims, err := svc.VerifyRefreshToken(second)
	require.NoError(t, err)
	assert.NotEmpty(t, firstClaims.ID)
	assert.NotEqual(t, firstClaims.ID, secondClaims.ID)

	accessFirst, err := svc.GenerateAccessToken(user, "")
	require.NoError(t, err)
	accessSecond, err := svc.GenerateAccessToken(user, "")
	require.NoError(t, err)
	assert.NotEqual(t, accessFirst, accessSecond)
}

func TestTokenService_RejectsTamperedToken(t *testing.T) {
	svc := newTestTokenService()

	token, err := svc.GenerateAccessToken(testUser(), "")
	require.NoError(t, err)

	tampered := token[:len(token)-4] + "aaaa"
	_, err = svc.VerifyAccessToken(tampered)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenService_RejectsGarbage(t *testing.T) {
	svc := newTestTokenService()

	_, err := svc.VerifyAccessToken("not-a-token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenService_SecretsAreNotInterchangeable(t *testing.T) {
	svc := newTestTokenService()

	refresh, err := svc.GenerateRefreshToken(testUser())
	require.NoError(t, err)

	_, err = svc.VerifyAccessToken(refresh)
	assert.ErrorIs(t, err, ErrInvalidToken)

	access, err := svc.GenerateAccessToken(testUser(), "")
	require.NoError(t, err)

	_, err = svc.VerifyRefreshToken(access)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenService_ExpiredTokenRejected(t *testing.T) {
	svc := NewTokenService(&config.Config{
		AccessTokenSecret:  "access-secret-for-tests",
		RefreshTokenSecret: "refresh-secret-for-tests",
		AccessTokenExpiry:  -time.Minute,
		RefreshTokenExpiry: -time.Minute,
	})

	token, err := svc.GenerateAccessToken(testUser(), "")
	require.NoError(t, err)

	_, err = svc.VerifyAccessToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}
