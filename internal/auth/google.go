// Package auth runs the Google sign-in redirect. Starting sign-in suspends
// the caller's wizard session into the handoff slot so the form survives the
// round trip.
package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	sharedauth "resume-builder/internal/shared/auth"
	"resume-builder/internal/shared/server/respond"
	"resume-builder/internal/shared/telemetry"
	"resume-builder/internal/users"
	"resume-builder/internal/wizard"
)

const (
	// ErrorPath is the UI route shown when sign-in fails.
	ErrorPath = "/auth/auth-code-error"

	defaultUserInfoURL = "https://www.googleapis.com/oauth2/v2/userinfo"
)

// Suspender saves a wizard session before the browser leaves the app.
type Suspender interface {
	Suspend(ctx context.Context, sessionID string) error
}

// Profiles records the profile of a user who signed in.
type Profiles interface {
	UpsertFromAuth(ctx context.Context, user users.User) error
}

// Options configures GoogleService.
type Options struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
	UIBaseURL    string

	// Profiles is optional.
	Profiles Profiles

	// Endpoint and UserInfoURL override Google's endpoints.
	Endpoint    *oauth2.Endpoint
	UserInfoURL string
}

// GoogleService handles Google OAuth flows.
type GoogleService struct {
	oauthConfig *oauth2.Config
	uiBase      string
	userInfoURL string
	stateTTL    time.Duration
	stateStore  *stateStore
	signer      *sharedauth.Signer
	profiles    Profiles
	wizard      Suspender
	sessionID   func(*gin.Context) string
}

// NewGoogleService builds a GoogleService. suspender and sessionID may be nil,
// in which case sign-in does not touch wizard sessions.
func NewGoogleService(opts Options, signer *sharedauth.Signer, suspender Suspender, sessionID func(*gin.Context) string) *GoogleService {
	endpoint := google.Endpoint
	if opts.Endpoint != nil {
		endpoint = *opts.Endpoint
	}
	userInfoURL := opts.UserInfoURL
	if userInfoURL == "" {
		userInfoURL = defaultUserInfoURL
	}
	return &GoogleService{
		oauthConfig: &oauth2.Config{
			ClientID:     opts.ClientID,
			ClientSecret: opts.ClientSecret,
			RedirectURL:  opts.RedirectURL,
			Scopes: []string{
				"https://www.googleapis.com/auth/userinfo.email",
				"https://www.googleapis.com/auth/userinfo.profile",
			},
			Endpoint: endpoint,
		},
		uiBase:      strings.TrimRight(opts.UIBaseURL, "/"),
		userInfoURL: userInfoURL,
		stateTTL:    5 * time.Minute,
		stateStore:  newStateStore(),
		signer:      signer,
		profiles:    opts.Profiles,
		wizard:      suspender,
		sessionID:   sessionID,
	}
}

// RegisterRoutes attaches Google auth routes.
func (s *GoogleService) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/auth/google/start", s.start)
	rg.GET("/auth/google/callback", s.callback)
}

func (s *GoogleService) start(c *gin.Context) {
	if s.oauthConfig.ClientID == "" || s.oauthConfig.ClientSecret == "" || s.oauthConfig.RedirectURL == "" || s.signer == nil {
		respond.Error(c, http.StatusInternalServerError, "auth_not_configured", "Google auth not configured", nil)
		return
	}

	s.suspendWizard(c)

	state := uuid.NewString()
	s.stateStore.put(state, pendingLogin{
		expires: time.Now().Add(s.stateTTL),
		next:    SafeNext(c.Query("next")),
	})

	url := s.oauthConfig.AuthCodeURL(state, oauth2.AccessTypeOffline)
	c.Redirect(http.StatusFound, url)
}

func (s *GoogleService) suspendWizard(c *gin.Context) {
	if s.wizard == nil || s.sessionID == nil {
		return
	}
	id := s.sessionID(c)
	if id == "" {
		return
	}
	err := s.wizard.Suspend(c.Request.Context(), id)
	if err == nil || errors.Is(err, wizard.ErrSessionNotFound) {
		return
	}
	telemetry.Warn("auth.wizard_suspend_failed", map[string]any{
		"session": id,
		"err":     err,
	})
}

func (s *GoogleService) callback(c *gin.Context) {
	state := c.Query("state")
	code := c.Query("code")
	if state == "" || code == "" {
		s.fail(c, "missing state or code", nil)
		return
	}

	login, ok := s.stateStore.consume(state)
	if !ok {
		s.fail(c, "invalid or expired state", nil)
		return
	}

	ctx := c.Request.Context()
	token, err := s.oauthConfig.Exchange(ctx, code)
	if err != nil {
		s.fail(c, "failed to exchange code", err)
		return
	}

	userInfo, err := s.fetchUserInfo(ctx, token)
	if err != nil {
		s.fail(c, "failed to fetch user profile", err)
		return
	}
	if userInfo.Sub == "" {
		s.fail(c, "invalid user profile", nil)
		return
	}

	userID := "google:" + userInfo.Sub
	s.recordProfile(ctx, userID, userInfo)

	jwt, err := s.signer.Sign(userID, sharedauth.Claims{
		Email:   userInfo.Email,
		Name:    userInfo.Name,
		Picture: userInfo.Picture,
	})
	if err != nil {
		s.fail(c, "failed to issue token", err)
		return
	}

	redirectURL, err := appendToken(s.uiBase+login.next, jwt)
	if err != nil {
		s.fail(c, "failed to build redirect", err)
		return
	}

	c.Redirect(http.StatusFound, redirectURL)
}

func (s *GoogleService) recordProfile(ctx context.Context, userID string, info googleUserInfo) {
	if s.profiles == nil {
		return
	}
	err := s.profiles.UpsertFromAuth(ctx, users.User{
		ID:         userID,
		Email:      info.Email,
		FullName:   info.Name,
		GivenName:  info.GivenName,
		FamilyName: info.FamilyName,
		PictureURL: info.Picture,
	})
	if err != nil {
		telemetry.Warn("auth.profile_upsert_failed", map[string]any{"user_id": userID, "err": err})
	}
}

// fail sends the browser to the UI's sign-in error page.
func (s *GoogleService) fail(c *gin.Context, reason string, err error) {
	fields := map[string]any{"reason": reason}
	if err != nil {
		fields["err"] = err
	}
	telemetry.Warn("auth.google_callback_failed", fields)
	c.Redirect(http.StatusFound, s.uiBase+ErrorPath)
}

// SafeNext keeps next only when it is a path on the UI origin.
func SafeNext(next string) string {
	next = strings.TrimSpace(next)
	if next == "" || !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.Contains(next, `\`) {
		return "/"
	}
	return next
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

	// Some responses use "id" instead of "sub".
	if info.Sub == "" {
		info.Sub = info.ID
	}
	return info, nil
}

type pendingLogin struct {
	expires time.Time
	next    string
}

type stateStore struct {
	items map[string]pendingLogin
	mu    sync.Mutex
}

func newStateStore() *stateStore {
	return &stateStore{items: make(map[string]pendingLogin)}
}

func (s *stateStore) put(state string, login pendingLogin) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	for k, v := range s.items {
		if now.After(v.expires) {
			delete(s.items, k)
		}
	}
	s.items[state] = login
}

func (s *stateStore) consume(state string) (pendingLogin, bool) {
	s.mu.Lock()
	login, ok := s.items[state]
	if ok {
		delete(s.items, state)
	}
	s.mu.Unlock()
	if !ok || time.Now().After(login.expires) {
		return pendingLogin{}, false
	}
	return login, true
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
