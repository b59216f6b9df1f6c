// Package gate decides whether a request may reach the editor plugin
// endpoints.
package gate

import (
	"errors"
	"net/http"
	"strings"
	"sync/atomic"

	"github.com/rubiojr/edjs/pkg/log"
)

// ErrAccessDenied is returned when a request fails the gate.
var ErrAccessDenied = errors.New("access denied")

// Settings are the gate inputs taken from configuration. The zero value is
// the secure default: both checks enabled.
type Settings struct {
	// AppURL is the public base URL of the application.
	AppURL string

	// BackendURI is the path of the administrative area, relative to AppURL.
	BackendURI string

	// DisableSecureEndpoints skips the Referer check.
	DisableSecureEndpoints bool

	// DisableSecureBackendAuth skips the authenticated session check.
	DisableSecureBackendAuth bool
}

// BackendURL joins AppURL and BackendURI with exactly one slash.
func (s Settings) BackendURL() string {
	return strings.TrimRight(s.AppURL, "/") + "/" + strings.TrimLeft(s.BackendURI, "/")
}

// RefererMatches reports whether referer is non-empty and starts with both
// the application URL and the backend URL.
func (s Settings) RefererMatches(referer string) bool {
	if referer == "" {
		return false
	}
	return strings.HasPrefix(referer, s.AppURL) && strings.HasPrefix(referer, s.BackendURL())
}

// Authenticator reports whether the request carries an authenticated
// administrative session.
type Authenticator interface {
	Authenticated(r *http.Request) bool
}

// AuthenticatorFunc adapts a function to the Authenticator interface.
type AuthenticatorFunc func(r *http.Request) bool

func (f AuthenticatorFunc) Authenticated(r *http.Request) bool { return f(r) }

// Gate applies the referer and session checks. Settings may be replaced at
// any time with Update; each Check sees one consistent snapshot.
type Gate struct {
	settings atomic.Pointer[Settings]
	auth     Authenticator
	log      *log.Logger
}

// New creates a Gate. A nil Authenticator never authenticates.
func New(s Settings, auth Authenticator) *Gate {
	g := &Gate{auth: auth, log: log.ForService("gate")}
	g.Update(s)
	return g
}

// Update atomically replaces the gate settings.
func (g *Gate) Update(s Settings) {
	g.settings.Store(&s)
}

// Settings returns the current settings snapshot.
func (g *Gate) Settings() Settings {
	return *g.settings.Load()
}

// Check returns ErrAccessDenied unless the request passes both enabled checks.
func (g *Gate) Check(r *http.Request) error {
	s := g.settings.Load()

	if !s.DisableSecureEndpoints && !s.RefererMatches(r.Referer()) {
		g.log.Debugf("denied %s %s: referer %q does not match %s", r.Method, r.URL.Path, r.Referer(), s.BackendURL())
		return ErrAccessDenied
	}

	if !s.DisableSecureBackendAuth && (g.auth == nil || !g.auth.Authenticated(r)) {
		g.log.Debugf("denied %s %s: no authenticated session", r.Method, r.URL.Path)
		return ErrAccessDenied
	}
	return nil
}

// Allow reports whether the request passes the gate.
func (g *Gate) Allow(r *http.Request) bool {
	return g.Check(r) == nil
}
