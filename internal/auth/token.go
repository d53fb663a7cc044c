package auth

import (
	"errors"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"

	"github.com/helpdeskhq/helpdesk/internal/clock"
	"github.com/helpdeskhq/helpdesk/internal/domain"
)

// TokenManager handles issuing and validating JWT tokens for the JSON API.
type TokenManager struct {
	secret []byte
	ttl    time.Duration
	clock  clock.Clock
}

// NewTokenManager builds a new manager. Issue and expiry times come from c.
func NewTokenManager(secret string, ttl time.Duration, c clock.Clock) *TokenManager {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	if c == nil {
		c = clock.Real()
	}
	return &TokenManager{secret: []byte(secret), ttl: ttl, clock: c}
}

// Claims describes JWT payload.
type Claims struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// GenerateToken builds and signs a JWT for the session owner.
func (tm *TokenManager) GenerateToken(info domain.SessionInfo) (string, time.Time, error) {
	now := tm.clock.Now()
	expiresAt := now.Add(tm.ttl)
	claims := &Claims{
		Name:  info.Name,
		Email: info.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   info.UserID,
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(tm.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return tokenString, expiresAt, nil
}

// ParseToken validates and returns claims.
func (tm *TokenManager) ParseToken(tokenStr string) (*Claims, error) {
	parsed, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, errors.New("unexpected signing method")
		}
		return tm.secret, nil
	}, jwt.WithTimeFunc(tm.clock.Now))
	if err != nil {
		return nil, err
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid || claims.Subject == "" {
		return nil, errors.New("invalid token claims")
	}
	return claims, nil
}

// SessionInfo converts validated claims into the caller identity.
func (c *Claims) SessionInfo() domain.SessionInfo {
	info := domain.SessionInfo{UserID: c.Subject, Name: c.Name, Email: c.Email}
	if c.ExpiresAt != nil {
		info.ExpiresAt = c.ExpiresAt.Time
	}
	return info
}
