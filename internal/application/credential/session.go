package credential

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var ErrMalformedToken = errors.New("malformed token")

// Session is the client-held login state as seen from a request. It is
// built explicitly from a token and its expiry is evaluated on read.
type Session struct {
	Token     string
	Subject   string
	Role      string
	ExpiresAt time.Time
}

type sessionClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// SessionFromToken reads the claims of a JWT without verifying its
// signature. Verification belongs to the backends.
func SessionFromToken(token string) (*Session, error) {
	var claims sessionClaims
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedToken, err)
	}

	s := &Session{
		Token:   token,
		Subject: claims.Subject,
		Role:    claims.Role,
	}
	if claims.ExpiresAt != nil {
		s.ExpiresAt = claims.ExpiresAt.Time
	}
	return s, nil
}

// Expired reports whether the session is past its expiry at now. Sessions
// without an expiry never expire.
func (s *Session) Expired(now time.Time) bool {
	if s == nil {
		return true
	}
	if s.ExpiresAt.IsZero() {
		return false
	}
	return !now.Before(s.ExpiresAt)
}

func (s *Session) IsAdmin() bool {
	return s != nil && s.Role == "ADMIN"
}

// State labels an outbound Authorization value for logs.
type State string

const (
	StateNone    State = "none"
	StateBearer  State = "bearer"
	StateExpired State = "expired"
	StateOpaque  State = "opaque"
)

func Describe(value string, present bool, now time.Time) State {
	if !present {
		return StateNone
	}
	token, ok := BearerToken(value)
	if !ok {
		return StateOpaque
	}
	s, err := SessionFromToken(token)
	if err != nil {
		return StateOpaque
	}
	if s.Expired(now) {
		return StateExpired
	}
	return StateBearer
}
