package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/astaXmjy/s3BucMg/internal/access"
)

// ErrTokenInvalid reports an expired, forged, or malformed token.
var ErrTokenInvalid = errors.New("invalid token")

// Claims extends JWT registered claims with the fields the API layer
// needs without a store round trip. The access level rides along for
// cheap admin gating; folder decisions always re-read the record.
type Claims struct {
	jwt.RegisteredClaims
	Username  string `json:"username"`
	Level     string `json:"level"`
	SessionID string `json:"sid"`
}

// Tokens mints and verifies HS256 tokens for one shared secret.
type Tokens struct {
	secret []byte
	ttl    time.Duration
}

func NewTokens(secret []byte, ttl time.Duration) (*Tokens, error) {
	if len(secret) < 32 {
		return nil, errors.New("jwt secret must be at least 32 bytes")
	}
	if ttl <= 0 {
		ttl = 12 * time.Hour
	}
	return &Tokens{secret: secret, ttl: ttl}, nil
}

// Mint issues a token for an authenticated record.
func (t *Tokens) Mint(rec *access.Record, now time.Time) (string, error) {
	if rec == nil {
		return "", access.ErrNoRecord
	}
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   rec.Username,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(t.ttl)),
		},
		Username:  rec.Username,
		Level:     rec.Level.String(),
		SessionID: uuid.NewString(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
}

// Verify parses and validates a token, returning its claims.
func (t *Tokens) Verify(raw string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(raw, &Claims{}, func(tok *jwt.Token) (any, error) {
		if _, ok := tok.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", tok.Header["alg"])
		}
		return t.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrTokenInvalid
	}
	return claims, nil
}
