package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	sharedauth "ramresume-backend/internal/shared/auth"
	"ramresume-backend/internal/shared/server/middleware"
	"ramresume-backend/internal/shared/server/respond"
	"ramresume-backend/internal/shared/telemetry"
	"ramresume-backend/internal/users"
)

const defaultUserInfoURL = "https://www.googleapis.com/oauth2/v3/userinfo"

// LoginFailedMessage is shown to accounts outside the allowed domain.
const LoginFailedMessage = "Only Fordham University personnel are allowed."

// Config holds the Google OAuth settings.
type Config struct {
	ClientID      string
	ClientSecret  string
	RedirectURL   string
	ClientURL     string // postMessage target origin
	UIRedirect    string // when set, the callback redirects here with ?token=
	AllowedDomain string
	CookieSecure  bool
}

// GoogleService handles Google OAuth flows and session endpoints.
type GoogleService struct {
	oauthConfig *oauth2.Config
	cfg         Config
	tokens      *sharedauth.Issuer
	users       *users.Service
	stateTTL    time.Duration
	stateStore  *stateStore
	userInfoURL string
}

// NewGoogleService builds a GoogleService.
func NewGoogleService(cfg Config, tokens *sharedauth.Issuer, userSvc *users.Service) *GoogleService {
	cfg.AllowedDomain = strings.TrimPrefix(strings.ToLower(strings.TrimSpace(cfg.AllowedDomain)), "@")
	return &GoogleService{
		oauthConfig: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Scopes: []string{
				"https://www.googleapis.com/auth/userinfo.email",
				"https://www.googleapis.com/auth/userinfo.profile",
			},
			Endpoint: google.Endpoint,
		},
		cfg:         cfg,
		tokens:      tokens,
		users:       userSvc,
		stateTTL:    5 * time.Minute,
		stateStore:  newStateStore(time.Now),
		userInfoURL: defaultUserInfoURL,
	}
}

// RegisterRoutes attaches /auth routes. accept-terms and refresh-token
// rely on the auth middleware having set the identity.
func (s *GoogleService) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/google", s.start)
	rg.GET("/google/callback", s.callback)
	rg.GET("/login-failed", s.loginFailed)
	rg.POST("/accept-terms", s.acceptTerms)
	rg.GET("/logout", s.logout)
	rg.GET("/refresh-token", s.refreshToken)
}

func (s *GoogleService) start(c *gin.Context) {
	if s.oauthConfig.ClientID == "" || s.oauthConfig.ClientSecret == "" || s.oauthConfig.RedirectURL == "" {
		respond.Error(c, http.StatusInternalServerError, "auth_not_configured", "Google auth not configured", nil)
		return
	}

	state := uuid.NewString()
	s.stateStore.put(state, s.stateTTL)

	c.Redirect(http.StatusFound, s.oauthConfig.AuthCodeURL(state))
}

func (s *GoogleService) callback(c *gin.Context) {
	state := c.Query("state")
	code := c.Query("code")
	if state == "" || code == "" {
		s.fail(c, "missing state or code")
		return
	}
	if !s.stateStore.consume(state) {
		s.fail(c, "invalid or expired state")
		return
	}

	ctx := c.Request.Context()
	token, err := s.oauthConfig.Exchange(ctx, code)
	if err != nil {
		s.fail(c, "failed to exchange code")
		return
	}

	info, err := s.fetchUserInfo(ctx, token)
	if err != nil || info.Sub == "" || info.Email == "" {
		s.fail(c, "failed to fetch user profile")
		return
	}
	if !s.domainAllowed(info.Email) {
		telemetry.Warn("auth.domain_rejected", map[string]any{"email_domain": domainOf(info.Email)})
		c.Redirect(http.StatusFound, "/auth/login-failed")
		return
	}

	user, err := s.users.LoginFromGoogle(ctx, users.GoogleProfile{
		Sub:        info.Sub,
		Email:      info.Email,
		Name:       info.Name,
		GivenName:  info.GivenName,
		FamilyName: info.FamilyName,
		Picture:    info.Picture,
	})
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to sign in", nil)
		return
	}

	jwt, err := s.tokens.Issue(sharedauth.Claims{
		Sub:     user.ID,
		Email:   user.Email,
		Name:    user.DisplayName,
		Picture: user.ProfilePicture,
	})
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to issue token", nil)
		return
	}
	s.setTokenCookie(c, jwt)
	telemetry.Info("auth.login", map[string]any{"user_id": user.ID, "requires_terms": !user.HasAcceptedTerms})

	if s.cfg.UIRedirect != "" {
		redirectURL, err := appendToken(s.cfg.UIRedirect, jwt)
		if err != nil {
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to redirect", nil)
			return
		}
		c.Redirect(http.StatusFound, redirectURL)
		return
	}

	s.renderPopup(c, popupMessage{Type: "LOGIN_SUCCESS", RequiresTerms: !user.HasAcceptedTerms, Token: jwt})
}

func (s *GoogleService) loginFailed(c *gin.Context) {
	s.renderPopup(c, popupMessage{Type: "LOGIN_ERROR", Message: LoginFailedMessage})
}

func (s *GoogleService) acceptTerms(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)
	if userID == "" {
		respond.Error(c, http.StatusUnauthorized, "unauthorized", "Authentication required", nil)
		return
	}
	if _, err := s.users.AcceptTerms(c.Request.Context(), userID); err != nil {
		if errors.Is(err, users.ErrNotFound) {
			respond.Error(c, http.StatusUnauthorized, "unauthorized", "User not found", nil)
			return
		}
		respond.Error(c, http.StatusInternalServerError, "internal_error", "Failed to accept terms", nil)
		return
	}
	respond.Success(c)
}

func (s *GoogleService) logout(c *gin.Context) {
	middleware.ClearTokenCookie(c, s.cfg.CookieSecure)
	respond.Success(c)
}

func (s *GoogleService) refreshToken(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)
	if userID == "" {
		respond.Error(c, http.StatusUnauthorized, "unauthorized", "Authentication required", nil)
		return
	}
	jwt, err := s.tokens.Issue(sharedauth.Claims{
		Sub:     userID,
		Email:   middleware.UserEmailFromContext(c),
		Name:    middleware.UserNameFromContext(c),
		Picture: middleware.UserPictureFromContext(c),
	})
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to issue token", nil)
		return
	}
	s.setTokenCookie(c, jwt)
	respond.OK(c, gin.H{"token": jwt})
}

func (s *GoogleService) fail(c *gin.Context, reason string) {
	telemetry.Warn("auth.callback_failed", map[string]any{"reason": reason})
	c.Redirect(http.StatusFound, "/auth/login-failed")
}

func (s *GoogleService) setTokenCookie(c *gin.Context, jwt string) {
	middleware.SetTokenCookie(c, jwt, s.tokens.TTL(), s.cfg.CookieSecure)
}

func (s *GoogleService) domainAllowed(email string) bool {
	if s.cfg.AllowedDomain == "" {
		return true
	}
	return strings.HasSuffix(strings.ToLower(strings.TrimSpace(email)), "@"+s.cfg.AllowedDomain)
}

func domainOf(email string) string {
	if i := strings.LastIndex(email, "@"); i >= 0 {
		return strings.ToLower(email[i+1:])
	}
	return ""
}

type googleUserInfo struct {
	Sub        string `json:"sub"`
	ID         string `json:"id"`
	Email      string `json:"email"`
	Name       string `json:"name"`
	GivenName  string `json:"given_name"`
	FamilyName string `json:"family_name"`
	Picture    string `json:"picture"`
}

func (s *GoogleService) fetchUserInfo(ctx context.Context, token *oauth2.Token) (googleUserInfo, error) {
	client := s.oauthConfig.Client(ctx, token)
	resp, err := client.Get(s.userInfoURL)
	if err != nil {
		return googleUserInfo{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return googleUserInfo{}, fmt.Errorf("userinfo status %d", resp.StatusCode)
	}

	var info googleUserInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return googleUserInfo{}, err
	}

	// v2 responses use "id" instead of "sub".
	if info.Sub == "" {
		info.Sub = info.ID
	}
	return info, nil
}

func appendToken(rawURL, token string) (string, error) {
	if rawURL == "" {
		return "", errors.New("redirect url required")
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", err
	}
	q := u.Query()
	q.Set("token", token)
	u.RawQuery = q.Encode()
	return u.String(), nil
}
