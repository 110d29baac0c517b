package server

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/coder/quartz"
	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidSession is returned for a missing, expired or tampered cookie.
var ErrInvalidSession = errors.New("invalid session")

const sessionIssuer = "blackjack"

// Sessions issues and verifies HS256-signed session cookies carrying the
// account id as the subject.
type Sessions struct {
	secret []byte
	ttl    time.Duration
	secure bool
	name   string
	clock  quartz.Clock
}

// SessionOptions configure Sessions.
type SessionOptions struct {
	Secret     []byte
	TTL        time.Duration
	Secure     bool
	CookieName string
	Clock      quartz.Clock
}

// NewSessions validates opts and returns a cookie codec.
func NewSessions(opts SessionOptions) (*Sessions, error) {
	if len(opts.Secret) == 0 {
		return nil, errors.New("session secret is required")
	}
	if opts.TTL <= 0 {
		return nil, fmt.Errorf("invalid session ttl: %s", opts.TTL)
	}
	if opts.CookieName == "" {
		opts.CookieName = "blackjack_session"
	}
	if opts.Clock == nil {
		opts.Clock = quartz.NewReal()
	}
	return &Sessions{
		secret: opts.Secret,
		ttl:    opts.TTL,
		secure: opts.Secure,
		name:   opts.CookieName,
		clock:  opts.Clock,
	}, nil
}

// Token signs a session for accountID.
func (s *Sessions) Token(accountID string) (string, error) {
	now := s.clock.Now()
	claims := jwt.RegisteredClaims{
		Issuer:    sessionIssuer,
		Subject:   accountID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

// Verify returns the account id carried by token.
func (s *Sessions) Verify(token string) (string, error) {
	var claims jwt.RegisteredClaims
	_, err := jwt.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(sessionIssuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.clock.Now),
	)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidSession, err)
	}
	if claims.Subject == "" {
		return "", ErrInvalidSession
	}
	return claims.Subject, nil
}

// Set writes the session cookie for accountID.
func (s *Sessions) Set(w http.ResponseWriter, accountID string) error {
	token, err := s.Token(accountID)
	if err != nil {
		return fmt.Errorf("sign session: %w", err)
	}
	http.SetCookie(w, &http.Cookie{
		Name:     s.name,
		Value:    token,
		Path:     "/",
		Expires:  s.clock.Now().Add(s.ttl),
		MaxAge:   int(s.ttl / time.Second),
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

// Account returns the account id of the request's session.
func (s *Sessions) Account(r *http.Request) (string, error) {
	cookie, err := r.Cookie(s.name)
	if err != nil {
		return "", ErrInvalidSession
	}
	return s.Verify(cookie.Value)
}
