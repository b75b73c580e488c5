// Package auth handles password hashing and JWT issuance for CMS users.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	// ErrInvalidToken is returned when a JWT is malformed or expired.
	ErrInvalidToken = errors.New("invalid or expired token")
	// ErrInvalidCredentials is returned when authentication fails.
	ErrInvalidCredentials = errors.New("invalid email or password")
)

// tokenLifetime keeps content editors signed in for a month.
const tokenLifetime = 30 * 24 * time.Hour

// Claims holds the JWT claims for a signed-in user.
type Claims struct {
	UserID  uuid.UUID `json:"userId"`
	Email   string    `json:"email"`
	IsAdmin bool      `json:"isAdmin"`
	jwt.RegisteredClaims
}

// JWTManager handles creation and validation of user tokens.
type JWTManager struct {
	secret   []byte
	lifetime time.Duration
}

// NewJWTManager creates a JWT manager with the given signing secret.
func NewJWTManager(secret string) *JWTManager {
	return &JWTManager{
		secret:   []byte(secret),
		lifetime: tokenLifetime,
	}
}

// GenerateToken signs a token for the user.
func (m *JWTManager) GenerateToken(userID uuid.UUID, email string, isAdmin bool) (string, error) {
	now := time.Now().UTC()
	claims := Claims{
		UserID:  userID,
		Email:   email,
		IsAdmin: isAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.lifetime)),
			Issuer:    "atelier",
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("signing token: %w", err)
	}
	return signed, nil
}

// ValidateToken parses and verifies a token, returning its claims.
func (m *JWTManager) ValidateToken(tokenStr string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return m.secret, nil
	})
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
