package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/readium/readium/internal/config"
	"github.com/readium/readium/internal/model"
)

var ErrInvalidToken = errors.New("invalid token")

// AccessClaims carry the user identity embedded in short-lived access tokens.
// Provider is set for sessions opened through an OAuth login.
type AccessClaims struct {
	Email    string `json:"email"`
	Username string `json:"username"`
	Name     string `json:"name"`
	Provider string `json:"provider,omitempty"`
	jwt.RegisteredClaims
}

// RefreshClaims hold only the user id. Refresh tokens are also persisted
// server-side so they can be revoked and rotated.
type RefreshClaims struct {
	jwt.RegisteredClaims
}

// TokenService signs and verifies the JWT pair. Access and refresh tokens use
// separate secrets so leaking one does not compromise the other.
type TokenService struct {
	accessSecret  []byte
	refreshSecret []byte
	accessExpiry  time.Duration
	refreshExpiry time.Duration
}

func NewTokenService(cfg *config.Config) *TokenService {
	return &TokenService{
		accessSecret:  []byte(cfg.AccessTokenSecret),
		refreshSecret: []byte(cfg.RefreshTokenSecret),
		accessExpiry:  cfg.AccessTokenExpiry,
		refreshExpiry: cfg.RefreshTokenExpiry,
	}
}

func (s *TokenService) AccessExpiry() time.Duration  { return s.accessExpiry }
func (s *TokenService) RefreshExpiry() time.Duration { return s.refreshExpiry }

// GenerateAccessToken signs a short-lived token carrying the user profile.
// provider is empty for password sessions.
func (s *TokenService) GenerateAccessToken(user *model.User, provider string) (string, error) {
	now := time.Now()
	claims := AccessClaims{
		Email:    user.Email,
		Username: user.Username,
		Name:     user.FullName(),
		Provider: provider,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.New().String(),
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.accessExpiry)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.accessSecret)
}

// GenerateRefreshToken signs a long-lived token carrying only the user id.
// The jti makes every issuance distinct even within the same second, which
// the rotation compare-and-swap depends on.
func (s *TokenService) GenerateRefreshToken(user *model.User) (string, error) {
	now := time.Now()
	claims := RefreshClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.New().String(),
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.refreshExpiry)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.refreshSecret)
}

func (s *TokenService) VerifyAccessToken(tokenString string) (*AccessClaims, error) {
	claims := &AccessClaims{}
	if err := s.verify(tokenString, claims, s.accessSecret); err != nil {
		return nil, err
	}
	return claims, nil
}

func (s *TokenService) VerifyRefreshToken(tokenString string) (*RefreshClaims, error) {
	claims := &RefreshClaims{}
	if err := s.verify(tokenString, claims, s.refreshSecret); err != nil {
		return nil, err
	}
	return claims, nil
}

func (s *TokenService) verify(tokenString string, claims jwt.Claims, secret []byte) error {
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return secret, nil
	})
	if err != nil || !token.Valid {
		return ErrInvalidToken
	}
	return nil
}
