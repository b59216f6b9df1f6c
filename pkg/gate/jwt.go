package gate

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// DefaultSessionCookie is the cookie the session token is read from when no
// other name is configured.
const DefaultSessionCookie = "edjs_session"

// JWTSession authenticates requests carrying an HMAC-signed JWT, either in a
// session cookie or as a Bearer token. Tokens must carry an expiry.
type JWTSession struct {
	Cookie string
	secret []byte
}

// NewJWTSession returns a session authenticator. With an empty secret no
// request is ever authenticated.
func NewJWTSession(cookie, secret string) *JWTSession {
	if cookie == "" {
		cookie = DefaultSessionCookie
	}
	return &JWTSession{Cookie: cookie, secret: []byte(secret)}
}

func (s *JWTSession) token(r *http.Request) string {
	if c, err := r.Cookie(s.Cookie); err == nil && c.Value != "" {
		return c.Value
	}
	if auth := r.Header.Get("Authorization"); strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
	}
	return ""
}

// Authenticated implements Authenticator.
func (s *JWTSession) Authenticated(r *http.Request) bool {
	if len(s.secret) == 0 {
		return false
	}
	raw := s.token(r)
	if raw == "" {
		return false
	}

	token, err := jwt.ParseWithClaims(raw, &jwt.RegisteredClaims{}, func(t *jwt.Token) (any, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{"HS256", "HS384", "HS512"}),
		jwt.WithExpirationRequired(),
	)
	return err == nil && token.Valid
}

// Issue signs a session token for subject valid for ttl.
func (s *JWTSession) Issue(subject string, ttl time.Duration) (string, error) {
	if len(s.secret) == 0 {
		return "", fmt.Errorf("session secret not configured")
	}
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   subject,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("signing session token: %w", err)
	}
	return signed, nil
}
