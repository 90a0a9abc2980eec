package server

import (
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/bradcj/intersect/internal/models"
	"github.com/bradcj/intersect/internal/services"
	"github.com/bradcj/intersect/internal/shared"
	"github.com/charmbracelet/log"
	"golang.org/x/oauth2"
)

// stateTTL bounds how long an issued OAuth state parameter stays redeemable.
const stateTTL = 10 * time.Minute

// stateStore tracks issued OAuth state parameters for CSRF protection.
//
// States are single use and expire after stateTTL.
type stateStore struct {
	mu     sync.Mutex
	states map[string]time.Time
	now    func() time.Time
}

func newStateStore() *stateStore {
	return &stateStore{
		states: map[string]time.Time{},
		now:    time.Now,
	}
}

// Issue generates and records a new state parameter.
func (s *stateStore) Issue() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	state := shared.GenerateID()
	s.states[state] = s.now().Add(stateTTL)
	return state
}

// Consume redeems a state parameter, returning false if unknown or expired.
func (s *stateStore) Consume(state string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	expiry, ok := s.states[state]
	if !ok {
		return false
	}
	delete(s.states, state)

	return s.now().Before(expiry)
}

// UserDirectory is the slice of user persistence the OAuth flow needs.
type UserDirectory interface {
	GetByEmail(email string) (*models.User, error)
	Create(user *models.User) error
	Update(user *models.User) error
}

// OAuthHandler drives the web login flow: /auth/login redirects to Google's
// consent screen and /auth/callback exchanges the authorization code, links
// the credential to a user row, and starts a session.
//
// Implements the Handler interface for registration with a Router.
type OAuthHandler struct {
	factory  func() (*services.YouTubeService, error)
	users    UserDirectory
	sessions *SessionManager
	states   *stateStore
	logger   *log.Logger
}

// NewOAuthHandler creates an OAuth handler.
//
// factory builds a fresh service per callback so concurrent logins never
// share token state.
func NewOAuthHandler(factory func() (*services.YouTubeService, error), users UserDirectory, sessions *SessionManager, logger *log.Logger) *OAuthHandler {
	return &OAuthHandler{
		factory:  factory,
		users:    users,
		sessions: sessions,
		states:   newStateStore(),
		logger:   logger,
	}
}

// Routes returns the HTTP routes this handler serves.
func (h *OAuthHandler) Routes() []string {
	return []string{"/auth/login", "/auth/callback"}
}

// ServeHTTP dispatches to the login or callback leg of the flow.
func (h *OAuthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.URL.Path {
	case "/auth/login":
		h.login(w, r)
	case "/auth/callback":
		h.callback(w, r)
	default:
		http.NotFound(w, r)
	}
}

func (h *OAuthHandler) login(w http.ResponseWriter, r *http.Request) {
	svc, err := h.factory()
	if err != nil {
		writeError(w, err)
		return
	}

	state := h.states.Issue()
	http.Redirect(w, r, svc.AuthURL(state), http.StatusFound)
}

func (h *OAuthHandler) callback(w http.ResponseWriter, r *http.Request) {
	state := r.URL.Query().Get("state")
	if !h.states.Consume(state) {
		http.Error(w, "Invalid or expired state parameter", http.StatusBadRequest)
		return
	}

	code := r.URL.Query().Get("code")
	if code == "" {
		errParam := r.URL.Query().Get("error")
		errDesc := r.URL.Query().Get("error_description")
		h.logger.Warn("authorization denied", "error", errParam, "description", errDesc)
		http.Error(w, "Authorization failed", http.StatusBadRequest)
		return
	}

	svc, err := h.factory()
	if err != nil {
		writeError(w, err)
		return
	}

	token, err := svc.Exchange(r.Context(), code)
	if err != nil {
		h.logger.Error("token exchange failed", "error", err)
		http.Error(w, "Token exchange failed", http.StatusInternalServerError)
		return
	}

	profile, err := svc.Profile(r.Context())
	if err != nil {
		h.logger.Error("profile fetch failed", "error", err)
		writeError(w, fmt.Errorf("%w: failed to fetch profile: %v", shared.ErrUpstream, err))
		return
	}

	user, err := h.upsertUser(profile, token)
	if err != nil {
		writeError(w, err)
		return
	}

	session, expires, err := h.sessions.Issue(user.ID())
	if err != nil {
		writeError(w, err)
		return
	}
	h.sessions.SetCookie(w, session, expires)

	h.logger.Info("user authenticated", "email", user.Email())

	w.Header().Set("Content-Type", "text/html")
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, successPage)
}

// upsertUser links the OAuth credential to the account for the profile's
// email, creating the account on first login.
func (h *OAuthHandler) upsertUser(profile *services.Profile, token *oauth2.Token) (*models.User, error) {
	user, err := h.users.GetByEmail(profile.Email)
	if errors.Is(err, shared.ErrUserNotFound) {
		user = models.NewUser(0, profile.Email, profile.Name)
		if err := h.users.Create(user); err != nil {
			return nil, err
		}
	} else if err != nil {
		return nil, err
	}

	user.SetName(profile.Name)
	user.SetTokens(token.AccessToken, token.RefreshToken, token.Expiry)
	if err := h.users.Update(user); err != nil {
		return nil, err
	}

	return user, nil
}

const successPage = `
<!DOCTYPE html>
<html>
<head>
    <title>Signed In</title>
    <style>
        body { font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, sans-serif;
               display: flex; align-items: center; justify-content: center; height: 100vh;
               margin: 0; background: #f5f5f5; }
        .container { text-align: center; background: white; padding: 2rem;
                     border-radius: 8px; box-shadow: 0 2px 4px rgba(0,0,0,0.1); }
        h1 { color: #FF0000; margin: 0 0 1rem 0; }
        p { color: #666; margin: 0; }
    </style>
</head>
<body>
    <div class="container">
        <h1>&#10003; Signed In</h1>
        <p>Your YouTube account is linked. You can close this window.</p>
    </div>
</body>
</html>
`
