package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	sharedauth "ramresume-backend/internal/shared/auth"
	"ramresume-backend/internal/shared/server/middleware"
	"ramresume-backend/internal/users"
)

type googleFake struct {
	server  *httptest.Server
	profile map[string]string
}

func newGoogleFake(t *testing.T) *googleFake {
	t.Helper()
	f := &googleFake{profile: map[string]string{
		"sub":         "1001",
		"email":       "ram@fordham.edu",
		"name":        "Ram Student",
		"given_name":  "Ram",
		"family_name": "Student",
		"picture":     "https://lh3.googleusercontent.com/a/pic=s96-c",
	}}
	mux := http.NewServeMux()
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"access-1","token_type":"Bearer","expires_in":3600}`))
	})
	mux.HandleFunc("/userinfo", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer access-1" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(f.profile)
	})
	f.server = httptest.NewServer(mux)
	t.Cleanup(f.server.Close)
	return f
}

type authFixture struct {
	router *gin.Engine
	svc    *GoogleService
	users  *users.Service
	tokens *sharedauth.Issuer
}

func newAuthFixture(t *testing.T, fake *googleFake, cfg Config) *authFixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	tokens, err := sharedauth.NewIssuer("test-secret", false)
	require.NoError(t, err)
	userSvc := users.NewService(users.NewMemoryRepo())

	if cfg.ClientID == "" {
		cfg.ClientID = "client"
		cfg.ClientSecret = "secret"
		cfg.RedirectURL = "http://localhost:8080/auth/google/callback"
	}
	if cfg.ClientURL == "" {
		cfg.ClientURL = "http://localhost:3000"
	}
	svc := NewGoogleService(cfg, tokens, userSvc)
	if fake != nil {
		svc.oauthConfig.Endpoint = oauth2.Endpoint{
			AuthURL:   fake.server.URL + "/auth",
			TokenURL:  fake.server.URL + "/token",
			AuthStyle: oauth2.AuthStyleInParams,
		}
		svc.userInfoURL = fake.server.URL + "/userinfo"
	}

	r := gin.New()
	r.Use(middleware.Auth(middleware.AuthConfig{
		Tokens:       tokens,
		Identities:   userSvc,
		SkipPrefixes: []string{"/auth/google", "/auth/login-failed", "/auth/logout"},
	}))
	svc.RegisterRoutes(r.Group("/auth"))
	return &authFixture{router: r, svc: svc, users: userSvc, tokens: tokens}
}

func (f *authFixture) get(path string) *httptest.ResponseRecorder {
	resp := httptest.NewRecorder()
	f.router.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, path, nil))
	return resp
}

func (f *authFixture) startState(t *testing.T) string {
	t.Helper()
	resp := f.get("/auth/google")
	require.Equal(t, http.StatusFound, resp.Code)
	loc, err := url.Parse(resp.Header().Get("Location"))
	require.NoError(t, err)
	state := loc.Query().Get("state")
	require.NotEmpty(t, state)
	return state
}

func TestCallbackCreatesUserAndPostsToken(t *testing.T) {
	fake := newGoogleFake(t)
	f := newAuthFixture(t, fake, Config{AllowedDomain: "fordham.edu"})

	state := f.startState(t)
	resp := f.get("/auth/google/callback?state=" + state + "&code=abc")
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	body := resp.Body.String()
	assert.Contains(t, body, "LOGIN_SUCCESS")
	assert.Contains(t, body, `"requiresTerms":true`)
	assert.Contains(t, body, "http://localhost:3000")

	var tokenCookie *http.Cookie
	for _, ck := range resp.Result().Cookies() {
		if ck.Name == middleware.TokenCookieName {
			tokenCookie = ck
		}
	}
	require.NotNil(t, tokenCookie)
	claims, err := f.tokens.Verify(tokenCookie.Value)
	require.NoError(t, err)
	assert.Equal(t, users.IDPrefix+"1001", claims.Sub)

	user, err := f.users.GetByID(context.Background(), users.IDPrefix+"1001")
	require.NoError(t, err)
	assert.Equal(t, "Ram", user.FirstName)
	assert.True(t, strings.HasSuffix(user.ProfilePicture, "=s400-c"))
}

func TestCallbackStateIsSingleUse(t *testing.T) {
	fake := newGoogleFake(t)
	f := newAuthFixture(t, fake, Config{})

	state := f.startState(t)
	require.Equal(t, http.StatusOK, f.get("/auth/google/callback?state="+state+"&code=abc").Code)

	resp := f.get("/auth/google/callback?state=" + state + "&code=abc")
	assert.Equal(t, http.StatusFound, resp.Code)
	assert.Equal(t, "/auth/login-failed", resp.Header().Get("Location"))
}

func TestCallbackRejectsOtherDomains(t *testing.T) {
	fake := newGoogleFake(t)
	fake.profile["email"] = "someone@gmail.com"
	f := newAuthFixture(t, fake, Config{AllowedDomain: "@Fordham.edu"})

	state := f.startState(t)
	resp := f.get("/auth/google/callback?state=" + state + "&code=abc")
	require.Equal(t, http.StatusFound, resp.Code)
	assert.Equal(t, "/auth/login-failed", resp.Header().Get("Location"))

	_, err := f.users.GetByID(context.Background(), users.IDPrefix+"1001")
	assert.ErrorIs(t, err, users.ErrNotFound)
}

func TestCallbackRedirectsToUIWhenConfigured(t *testing.T) {
	fake := newGoogleFake(t)
	f := newAuthFixture(t, fake, Config{UIRedirect: "http://localhost:3000/auth/done"})

	state := f.startState(t)
	resp := f.get("/auth/google/callback?state=" + state + "&code=abc")
	require.Equal(t, http.StatusFound, resp.Code)
	loc, err := url.Parse(resp.Header().Get("Location"))
	require.NoError(t, err)
	assert.Equal(t, "/auth/done", loc.Path)
	assert.NotEmpty(t, loc.Query().Get("token"))
}

func TestLoginFailedPage(t *testing.T) {
	f := newAuthFixture(t, nil, Config{})

	resp := f.get("/auth/login-failed")
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), "LOGIN_ERROR")
	assert.Contains(t, resp.Body.String(), "Only Fordham University personnel are allowed.")
	assert.Contains(t, resp.Header().Get("Content-Type"), "text/html")
}

func TestStartRequiresConfiguration(t *testing.T) {
	f := newAuthFixture(t, nil, Config{ClientID: "only-id"})

	resp := f.get("/auth/google")
	assert.Equal(t, http.StatusInternalServerError, resp.Code)
}

func TestAcceptTermsAndRefreshToken(t *testing.T) {
	f := newAuthFixture(t, nil, Config{})
	ctx := context.Background()
	user, err := f.users.LoginFromGoogle(ctx, users.GoogleProfile{Sub: "7", Email: "a@fordham.edu", Name: "A"})
	require.NoError(t, err)
	token, err := f.tokens.Issue(sharedauth.Claims{Sub: user.ID})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/auth/accept-terms", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp := httptest.NewRecorder()
	f.router.ServeHTTP(resp, req)
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	assert.JSONEq(t, `{"success":true}`, resp.Body.String())

	updated, err := f.users.GetByID(ctx, user.ID)
	require.NoError(t, err)
	assert.True(t, updated.HasAcceptedTerms)

	req = httptest.NewRequest(http.MethodGet, "/auth/refresh-token", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp = httptest.NewRecorder()
	f.router.ServeHTTP(resp, req)
	require.Equal(t, http.StatusOK, resp.Code)

	var payload struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &payload))
	claims, err := f.tokens.Verify(payload.Token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.Sub)
	assert.Equal(t, 7*24*time.Hour, claims.Exp.Sub(claims.Iat))
}

func TestAcceptTermsRequiresAuth(t *testing.T) {
	f := newAuthFixture(t, nil, Config{})

	resp := httptest.NewRecorder()
	f.router.ServeHTTP(resp, httptest.NewRequest(http.MethodPost, "/auth/accept-terms", nil))
	assert.Equal(t, http.StatusUnauthorized, resp.Code)
}

func TestLogoutClearsCookie(t *testing.T) {
	f := newAuthFixture(t, nil, Config{})

	resp := f.get("/auth/logout")
	require.Equal(t, http.StatusOK, resp.Code)
	var cleared bool
	for _, ck := range resp.Result().Cookies() {
		if ck.Name == middleware.TokenCookieName && ck.MaxAge < 0 {
			cleared = true
		}
	}
	assert.True(t, cleared)
}

func TestStateStoreExpires(t *testing.T) {
	now := time.Date(2026, time.January, 5, 12, 0, 0, 0, time.UTC)
	store := newStateStore(func() time.Time { return now })

	store.put("a", time.Minute)
	store.put("b", time.Minute)
	assert.True(t, store.consume("a"))
	assert.False(t, store.consume("a"))

	now = now.Add(2 * time.Minute)
	assert.False(t, store.consume("b"))
	assert.False(t, store.consume("never-issued"))
}
