package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"ramresume-backend/internal/shared/auth"
	"ramresume-backend/internal/shared/server/respond"
)

const (
	userIDKey        = "userId"
	userEmailKey     = "userEmail"
	userNameKey      = "userName"
	userPictureKey   = "userPicture"
	termsAcceptedKey = "termsAccepted"

	// TokenCookieName is the cookie carrying the session token.
	TokenCookieName = "token"
)

// ErrIdentityNotFound is returned by an IdentityLookup when the token
// subject no longer maps to a stored user.
var ErrIdentityNotFound = errors.New("identity not found")

// Identity is the per-request view of the authenticated user.
type Identity struct {
	UserID        string
	Email         string
	Name          string
	Picture       string
	TermsAccepted bool
}

// IdentityLookup resolves a token subject to a stored user.
type IdentityLookup interface {
	LookupIdentity(ctx context.Context, userID string) (Identity, error)
}

// AuthConfig configures the Auth middleware.
type AuthConfig struct {
	Tokens       *auth.Issuer
	Identities   IdentityLookup
	SkipPrefixes []string
}

// Auth validates a bearer token or the session cookie, loads the user and
// stores identity in context.
func Auth(cfg AuthConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method == http.MethodOptions {
			c.Status(http.StatusNoContent)
			return
		}

		path := c.Request.URL.Path
		for _, prefix := range cfg.SkipPrefixes {
			if strings.HasPrefix(path, prefix) {
				c.Next()
				return
			}
		}

		token, ok := extractToken(c)
		if !ok {
			respond.Error(c, http.StatusUnauthorized, "unauthorized", "Authentication required", nil)
			return
		}

		claims, err := cfg.Tokens.Verify(token)
		if err != nil {
			message := "Invalid token"
			if errors.Is(err, auth.ErrExpiredToken) {
				message = "Token expired"
			}
			respond.Error(c, http.StatusUnauthorized, "unauthorized", message, nil)
			return
		}

		identity := Identity{
			UserID:  claims.Sub,
			Email:   claims.Email,
			Name:    claims.Name,
			Picture: claims.Picture,
		}
		if cfg.Identities != nil {
			identity, err = cfg.Identities.LookupIdentity(c.Request.Context(), claims.Sub)
			if err != nil {
				if errors.Is(err, ErrIdentityNotFound) {
					respond.Error(c, http.StatusUnauthorized, "unauthorized", "User not found", nil)
					return
				}
				respond.Error(c, http.StatusInternalServerError, "internal_error", "Authentication error", nil)
				return
			}
		}

		SetIdentity(c, identity)
		c.Next()
	}
}

// TokenSubject returns the subject of a valid request token without a user
// lookup. Missing or invalid tokens yield "".
func TokenSubject(tokens *auth.Issuer) func(*gin.Context) string {
	return func(c *gin.Context) string {
		raw, ok := extractToken(c)
		if !ok || tokens == nil {
			return ""
		}
		claims, err := tokens.Verify(raw)
		if err != nil {
			return ""
		}
		return claims.Sub
	}
}

// RequireTerms blocks users who have not accepted the terms of use.
func RequireTerms() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !TermsAcceptedFromContext(c) {
			respond.ErrorWithFields(c, http.StatusForbidden, "terms_required", "Terms acceptance required",
				map[string]any{"requiresTerms": true},
				map[string]any{"requiresTerms": true})
			return
		}
		c.Next()
	}
}

// SetIdentity stores identity values in the gin context.
func SetIdentity(c *gin.Context, identity Identity) {
	c.Set(userIDKey, identity.UserID)
	if identity.Email != "" {
		c.Set(userEmailKey, identity.Email)
	}
	if identity.Name != "" {
		c.Set(userNameKey, identity.Name)
	}
	if identity.Picture != "" {
		c.Set(userPictureKey, identity.Picture)
	}
	c.Set(termsAcceptedKey, identity.TermsAccepted)
}

func extractToken(c *gin.Context) (string, bool) {
	header := strings.TrimSpace(c.GetHeader("Authorization"))
	if header != "" {
		if !strings.HasPrefix(header, "Bearer ") {
			return "", false
		}
		token := strings.TrimSpace(strings.TrimPrefix(header, "Bearer"))
		return token, token != ""
	}
	cookie, err := c.Cookie(TokenCookieName)
	if err != nil {
		return "", false
	}
	cookie = strings.TrimSpace(cookie)
	return cookie, cookie != ""
}

// UserIDFromContext fetches the user ID set by the auth middleware.
func UserIDFromContext(c *gin.Context) string {
	return stringFromContext(c, userIDKey)
}

// UserEmailFromContext fetches the user email set by the auth middleware.
func UserEmailFromContext(c *gin.Context) string {
	return stringFromContext(c, userEmailKey)
}

// UserNameFromContext fetches the user name set by the auth middleware.
func UserNameFromContext(c *gin.Context) string {
	return stringFromContext(c, userNameKey)
}

// UserPictureFromContext fetches the user picture set by the auth middleware.
func UserPictureFromContext(c *gin.Context) string {
	return stringFromContext(c, userPictureKey)
}

// TermsAcceptedFromContext reports whether the authenticated user accepted the terms.
func TermsAcceptedFromContext(c *gin.Context) bool {
	if c == nil {
		return false
	}
	val, _ := c.Get(termsAcceptedKey)
	accepted, _ := val.(bool)
	return accepted
}

func stringFromContext(c *gin.Context, key string) string {
	if c == nil {
		return ""
	}
	val, _ := c.Get(key)
	if s, ok := val.(string); ok {
		return s
	}
	return ""
}

// SetTokenCookie stores the session token as an HttpOnly, SameSite=Lax cookie.
func SetTokenCookie(c *gin.Context, token string, ttl time.Duration, secure bool) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(TokenCookieName, token, int(ttl.Seconds()), "/", "", secure, true)
}

// ClearTokenCookie expires the session cookie.
func ClearTokenCookie(c *gin.Context, secure bool) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(TokenCookieName, "", -1, "/", "", secure, true)
}
