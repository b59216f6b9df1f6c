package gate

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func TestJWTSessionCookie(t *testing.T) {
	s := NewJWTSession("", "s3cret")
	token, err := s.Issue("admin", time.Hour)
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.AddCookie(&http.Cookie{Name: DefaultSessionCookie, Value: token})
	if !s.Authenticated(r) {
		t.Error("Expected cookie token to authenticate")
	}

	r = httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set("Authorization", "Bearer "+token)
	if !s.Authenticated(r) {
		t.Error("Expected bearer token to authenticate")
	}

	if s.Authenticated(httptest.NewRequest(http.MethodGet, "/", nil)) {
		t.Error("Request without token should not authenticate")
	}
}

func TestJWTSessionRejects(t *testing.T) {
	s := NewJWTSession("sess", "s3cret")

	sign := func(method jwt.SigningMethod, key any, claims jwt.MapClaims) string {
		t.Helper()
		tok, err := jwt.NewWithClaims(method, claims).SignedString(key)
		if err != nil {
			t.Fatal(err)
		}
		return tok
	}

	tests := map[string]string{
		"expired":      sign(jwt.SigningMethodHS256, []byte("s3cret"), jwt.MapClaims{"sub": "a", "exp": time.Now().Add(-time.Minute).Unix()}),
		"no expiry":    sign(jwt.SigningMethodHS256, []byte("s3cret"), jwt.MapClaims{"sub": "a"}),
		"wrong secret": sign(jwt.SigningMethodHS512, []byte("other"), jwt.MapClaims{"sub": "a", "exp": time.Now().Add(time.Hour).Unix()}),
		"garbage":      "not-a-jwt",
	}

	for name, token := range tests {
		t.Run(name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			r.AddCookie(&http.Cookie{Name: "sess", Value: token})
			if s.Authenticated(r) {
				t.Error("Expected token to be rejected")
			}
		})
	}
}

func TestJWTSessionWithoutSecret(t *testing.T) {
	signer := NewJWTSession("", "s3cret")
	token, _ := signer.Issue("admin", time.Hour)

	s := NewJWTSession("", "")
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.AddCookie(&http.Cookie{Name: DefaultSessionCookie, Value: token})
	if s.Authenticated(r) {
		t.Error("Empty secret must never authenticate")
	}
	if _, err := s.Issue("admin", time.Hour); err == nil {
		t.Error("Issue without secret should fail")
	}
}
