package server

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/bradcj/intersect/internal/shared"
	"github.com/golang-jwt/jwt/v5"
)

const (
	// SessionCookie is the cookie carrying the signed session token.
	SessionCookie = "intersect_session"

	sessionIssuer = "intersect"
)

type contextKey string

const userIDKey contextKey = "user_id"

// SessionManager issues and validates HS256 session tokens for the web service.
//
// The subject claim carries the user ID. Tokens are delivered as a cookie for
// browser clients and accepted from an Authorization bearer header for API
// clients.
type SessionManager struct {
	secret []byte
	ttl    time.Duration
	clock  func() time.Time
}

// NewSessionManager creates a SessionManager signing with the given secret.
func NewSessionManager(secret string, ttl time.Duration) (*SessionManager, error) {
	if secret == "" {
		return nil, fmt.Errorf("%w: session secret is required", shared.ErrMissingConfig)
	}
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &SessionManager{
		secret: []byte(secret),
		ttl:    ttl,
		clock:  time.Now,
	}, nil
}

// Issue produces a signed session token for the user and its expiry.
func (m *SessionManager) Issue(userID string) (string, time.Time, error) {
	now := m.clock().UTC()
	expiresAt := now.Add(m.ttl)

	claims := jwt.RegisteredClaims{
		Subject:   userID,
		Issuer:    sessionIssuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(expiresAt),
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign session token: %w", err)
	}

	return signed, expiresAt, nil
}

// Validate checks the token signature and expiry and returns the user ID.
func (m *SessionManager) Validate(tokenString string) (string, error) {
	claims := &jwt.RegisteredClaims{}

	_, err := jwt.ParseWithClaims(
		tokenString,
		claims,
		func(token *jwt.Token) (any, error) {
			if token.Method.Alg() != jwt.SigningMethodHS256.Alg() {
				return nil, fmt.Errorf("unexpected signing algorithm: %s", token.Method.Alg())
			}
			return m.secret, nil
		},
		jwt.WithIssuer(sessionIssuer),
		jwt.WithTimeFunc(m.clock),
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
	)
	if err != nil {
		return "", fmt.Errorf("%w: %v", shared.ErrInvalidSession, err)
	}
	if claims.Subject == "" {
		return "", fmt.Errorf("%w: missing subject", shared.ErrInvalidSession)
	}

	return claims.Subject, nil
}

// SetCookie attaches the session token to the response.
func (m *SessionManager) SetCookie(w http.ResponseWriter, token string, expires time.Time) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    token,
		Path:     "/",
		Expires:  expires,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// UserID extracts and validates the session from the request cookie or bearer header.
func (m *SessionManager) UserID(r *http.Request) (string, error) {
	if cookie, err := r.Cookie(SessionCookie); err == nil && cookie.Value != "" {
		return m.Validate(cookie.Value)
	}

	header := r.Header.Get("Authorization")
	if token, ok := strings.CutPrefix(header, "Bearer "); ok && token != "" {
		return m.Validate(token)
	}

	return "", fmt.Errorf("%w: no session token", shared.ErrInvalidSession)
}

// Require is middleware that rejects requests without a valid session and
// stores the user ID in the request context.
func (m *SessionManager) Require(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID, err := m.UserID(r)
		if err != nil {
			writeError(w, err)
			return
		}
		next.ServeHTTP(w, r.WithContext(WithUserID(r.Context(), userID)))
	})
}

// WithUserID stores the authenticated user ID in the context.
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

// UserIDFrom returns the authenticated user ID, or "" if the request was not
// routed through [SessionManager.Require].
func UserIDFrom(ctx context.Context) string {
	userID, _ := ctx.Value(userIDKey).(string)
	return userID
}
