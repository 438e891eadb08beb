package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// DefaultTTL is how long issued session tokens remain valid.
const DefaultTTL = 7 * 24 * time.Hour

const devSecret = "dev-secret"

// Claims represents the identity contained in a session token.
type Claims struct {
	Sub     string
	Email   string
	Name    string
	Picture string
	Exp     time.Time
	Iat     time.Time
}

type tokenClaims struct {
	Email   string `json:"email,omitempty"`
	Name    string `json:"name,omitempty"`
	Picture string `json:"picture,omitempty"`
	jwt.RegisteredClaims
}

var (
	errMissingSecret = errors.New("jwt secret not configured")
	ErrInvalidToken  = errors.New("invalid token")
	ErrExpiredToken  = fmt.Errorf("%w: expired", ErrInvalidToken)
)

// Issuer signs and verifies HS256 session tokens. It is built once at
// startup and shared by the auth routes and middleware.
type Issuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewIssuer builds an Issuer. An empty secret is only allowed outside production.
func NewIssuer(secret string, production bool) (*Issuer, error) {
	secret = strings.TrimSpace(secret)
	if secret == "" {
		if production {
			return nil, fmt.Errorf("%w: JWT_SECRET required in production", errMissingSecret)
		}
		secret = devSecret
	}
	return &Issuer{secret: []byte(secret), ttl: DefaultTTL, now: time.Now}, nil
}

// WithClock overrides the time source. Intended for tests.
func (i *Issuer) WithClock(now func() time.Time) *Issuer {
	if now != nil {
		i.now = now
	}
	return i
}

// TTL returns the token lifetime.
func (i *Issuer) TTL() time.Duration {
	return i.ttl
}

// Issue signs the given claims. Exp and Iat default to now+TTL and now.
func (i *Issuer) Issue(claims Claims) (string, error) {
	if i == nil {
		return "", errMissingSecret
	}
	if claims.Sub == "" {
		return "", errors.New("sub is required")
	}
	now := i.now().UTC()
	if claims.Iat.IsZero() {
		claims.Iat = now
	}
	if claims.Exp.IsZero() {
		claims.Exp = claims.Iat.Add(i.ttl)
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, tokenClaims{
		Email:   claims.Email,
		Name:    claims.Name,
		Picture: claims.Picture,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   claims.Sub,
			IssuedAt:  jwt.NewNumericDate(claims.Iat),
			ExpiresAt: jwt.NewNumericDate(claims.Exp),
		},
	})
	return token.SignedString(i.secret)
}

// Verify parses a token and returns its claims.
func (i *Issuer) Verify(raw string) (Claims, error) {
	if i == nil {
		return Claims{}, errMissingSecret
	}
	var tc tokenClaims
	parsed, err := jwt.ParseWithClaims(raw, &tc, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return i.secret, nil
	}, jwt.WithTimeFunc(i.now), jwt.WithExpirationRequired())
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Claims{}, ErrExpiredToken
		}
		return Claims{}, ErrInvalidToken
	}
	if !parsed.Valid || tc.Subject == "" {
		return Claims{}, ErrInvalidToken
	}

	claims := Claims{
		Sub:     tc.Subject,
		Email:   tc.Email,
		Name:    tc.Name,
		Picture: tc.Picture,
	}
	if tc.ExpiresAt != nil {
		claims.Exp = tc.ExpiresAt.Time
	}
	if tc.IssuedAt != nil {
		claims.Iat = tc.IssuedAt.Time
	}
	return claims, nil
}
