package auth

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

// SessionClaims is what the session cookie carries: only the session id.
type SessionClaims struct {
	jwt.RegisteredClaims
}

// SessionTokens signs and validates session cookie tokens.
type SessionTokens struct {
	secretKey []byte
	expiry    time.Duration
}

func NewSessionTokens(secretKey string, expiry time.Duration) *SessionTokens {
	return &SessionTokens{
		secretKey: []byte(secretKey),
		expiry:    expiry,
	}
}

// RandomSecret returns a hex secret for processes started without SESSION_SECRET.
// Cookies signed with it do not survive a restart.
func RandomSecret() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate session secret: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

// GenerateToken creates a token for session id.
func (t *SessionTokens) GenerateToken(sessionID string) (string, error) {
	now := time.Now()
	claims := SessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        sessionID,
			ExpiresAt: jwt.NewNumericDate(now.Add(t.expiry)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(t.secretKey)
	if err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}
	return tokenString, nil
}

// ValidateToken returns the claims carried by tokenString.
func (t *SessionTokens) ValidateToken(tokenString string) (*SessionClaims, error) {
	claims := &SessionClaims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return t.secretKey, nil
	})
	if err != nil {
		return nil, fmt.Errorf("invalid token: %w", err)
	}
	if !token.Valid || claims.ID == "" {
		return nil, fmt.Errorf("invalid token")
	}
	return claims, nil
}

// ShouldRenew reports whether less than half of the token lifetime is left.
func (t *SessionTokens) ShouldRenew(claims *SessionClaims, now time.Time) bool {
	if claims == nil || claims.ExpiresAt == nil {
		return true
	}
	return claims.ExpiresAt.Time.Sub(now) < t.expiry/2
}
