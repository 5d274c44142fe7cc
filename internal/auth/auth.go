// Package auth issues and verifies the two session kinds: the single ADMIN
// credential pair and anonymous read-only GUEST access.
package auth

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

// Role is the access level carried by a session.
type Role string

const (
	RoleAdmin Role = "ADMIN"
	RoleGuest Role = "GUEST"

	guestUsername = "guest"
	issuer        = "simacca"
)

var (
	ErrInvalidCredentials = errors.New("auth: invalid username or password")
	ErrNoToken            = errors.New("auth: no bearer token")
	ErrInvalidToken       = errors.New("auth: invalid token")
	ErrForbidden          = errors.New("auth: admin role required")
)

// Session is the authenticated caller.
type Session struct {
	Username  string    `json:"username"`
	Role      Role      `json:"role"`
	ExpiresAt time.Time `json:"expires_at"`
}

// IsAdmin reports whether the session may write.
func (s Session) IsAdmin() bool { return s.Role == RoleAdmin }

type claims struct {
	Role Role `json:"role"`
	jwt.RegisteredClaims
}

// Authenticator checks credentials and signs HS256 session tokens.
type Authenticator struct {
	username string
	password string
	secret   []byte
	ttl      time.Duration
	now      func() time.Time
}

// New builds an Authenticator for the configured admin pair.
func New(username, password, secret string, ttl time.Duration) *Authenticator {
	if ttl <= 0 {
		ttl = 12 * time.Hour
	}
	return &Authenticator{
		username: username,
		password: password,
		secret:   []byte(secret),
		ttl:      ttl,
		now:      time.Now,
	}
}

// Login returns an ADMIN session token when username and password match.
func (a *Authenticator) Login(username, password string) (string, Session, error) {
	userOK := secureCompare(username, a.username)
	passOK := secureCompare(password, a.password)
	if !userOK || !passOK {
		return "", Session{}, ErrInvalidCredentials
	}
	return a.issue(a.username, RoleAdmin)
}

// Guest returns a read-only session token.
func (a *Authenticator) Guest() (string, Session, error) {
	return a.issue(guestUsername, RoleGuest)
}

func (a *Authenticator) issue(username string, role Role) (string, Session, error) {
	now := a.now()
	exp := now.Add(a.ttl)
	c := claims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   username,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(a.secret)
	if err != nil {
		return "", Session{}, fmt.Errorf("auth: sign token: %w", err)
	}
	return tok, Session{Username: username, Role: role, ExpiresAt: exp.UTC()}, nil
}

// Parse verifies a token and returns its session.
func (a *Authenticator) Parse(token string) (Session, error) {
	var c claims
	// Expiry is checked below against the injectable clock.
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithoutClaimsValidation(),
	)
	_, err := parser.ParseWithClaims(token, &c, func(*jwt.Token) (any, error) {
		return a.secret, nil
	})
	if err != nil {
		return Session{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if c.ExpiresAt == nil || !a.now().Before(c.ExpiresAt.Time) {
		return Session{}, fmt.Errorf("%w: expired", ErrInvalidToken)
	}
	if c.Issuer != issuer || (c.Role != RoleAdmin && c.Role != RoleGuest) {
		return Session{}, ErrInvalidToken
	}
	return Session{Username: c.Subject, Role: c.Role, ExpiresAt: c.ExpiresAt.Time.UTC()}, nil
}

// BearerToken extracts the token from an "Authorization: Bearer" header.
func BearerToken(r *http.Request) (string, error) {
	fields := strings.Fields(r.Header.Get("Authorization"))
	if len(fields) != 2 || !strings.EqualFold(fields[0], "Bearer") {
		return "", ErrNoToken
	}
	tok := strings.Trim(fields[1], `"'`)
	if tok == "" {
		return "", ErrNoToken
	}
	return tok, nil
}

type ctxKey struct{}

// WithSession stores s in ctx.
func WithSession(ctx context.Context, s Session) context.Context {
	return context.WithValue(ctx, ctxKey{}, s)
}

// FromContext returns the session stored by WithSession.
func FromContext(ctx context.Context) (Session, bool) {
	s, ok := ctx.Value(ctxKey{}).(Session)
	return s, ok
}

// Authorize resolves the request's bearer token. When adminOnly is set a
// GUEST session yields ErrForbidden.
func (a *Authenticator) Authorize(r *http.Request, adminOnly bool) (Session, error) {
	tok, err := BearerToken(r)
	if err != nil {
		return Session{}, err
	}
	s, err := a.Parse(tok)
	if err != nil {
		return Session{}, err
	}
	if adminOnly && !s.IsAdmin() {
		return s, ErrForbidden
	}
	return s, nil
}

func secureCompare(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}
