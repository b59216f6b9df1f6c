package integration_tests

import (
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/rubiojr/edjs/pkg/api"
	"github.com/rubiojr/edjs/pkg/config"
	"github.com/rubiojr/edjs/pkg/core"
	"github.com/rubiojr/edjs/pkg/gate"
	"github.com/rubiojr/edjs/pkg/realtime"
	"github.com/rubiojr/edjs/pkg/render"
	"github.com/rubiojr/edjs/pkg/storage"
	"github.com/rubiojr/edjs/pkg/unfurl"
)

const (
	testSecret  = "integration-secret"
	testReferer = "https://editor.example.com/backend/pages/edit/7"
)

// CreateTestConfig returns a config rooted in tempDir with every plugin
// endpoint check enabled.
func CreateTestConfig(tempDir string) *config.Config {
	cfg, err := config.Parse([]byte(`app_url = "https://editor.example.com"
backend_uri = "backend"
storage_dir = "` + filepath.Join(tempDir, "storage") + `"`))
	if err != nil {
		panic(err)
	}
	cfg.Session.Secret = testSecret
	cfg.Uploads.MaxSize = 64 * 1024
	return cfg
}

// Stack is a running server wired from a config the same way `edjs serve` does.
type Stack struct {
	Config  *config.Config
	Store   *storage.Store
	Gate    *gate.Gate
	API     *api.Server
	Server  *httptest.Server
	Session *gate.JWTSession
}

func StartStack(t *testing.T, cfg *config.Config) *Stack {
	t.Helper()

	reg := core.DefaultRegistry()
	var templates map[string]string
	if cfg.BlocksFile != "" {
		set, err := core.LoadBlocksFile(cfg.BlocksFile)
		if err != nil {
			t.Fatalf("Failed to load blocks file: %v", err)
		}
		if reg, err = reg.Merge(set.Schemas...); err != nil {
			t.Fatalf("Failed to merge blocks: %v", err)
		}
		templates = set.Templates
	}
	renderer, err := render.New(reg, templates)
	if err != nil {
		t.Fatalf("Failed to build renderer: %v", err)
	}

	store, err := storage.Open(cfg.StorageDir, cfg.LinkTool.CacheTTL.Duration)
	if err != nil {
		t.Fatalf("Failed to open storage: %v", err)
	}
	t.Cleanup(func() {
		if err := store.Close(); err != nil {
			t.Errorf("Failed to close storage: %v", err)
		}
	})

	session := gate.NewJWTSession(cfg.Session.Cookie, cfg.Session.Secret)
	g := gate.New(SettingsFromConfig(cfg), session)

	fetcher := unfurl.NewHTTPFetcher(5*time.Second, "edjs-integration")
	server := api.NewServer(api.Options{
		Registry:      renderer.Registry(),
		Renderer:      renderer,
		Gate:          g,
		Files:         store.Files,
		Unfurler:      unfurl.NewCached(fetcher, store.Links),
		HTTPClient:    &http.Client{Timeout: 5 * time.Second},
		UploadsDir:    store.Files.Dir(),
		MaxUploadSize: int64(cfg.Uploads.MaxSize),
		Hub:           realtime.NewHub(0),
	})
	srv := httptest.NewServer(server.Handler())
	t.Cleanup(srv.Close)

	return &Stack{Config: cfg, Store: store, Gate: g, API: server, Server: srv, Session: session}
}

func SettingsFromConfig(cfg *config.Config) gate.Settings {
	return gate.Settings{
		AppURL:                   cfg.AppURL,
		BackendURI:               cfg.BackendURI,
		DisableSecureEndpoints:   cfg.DisableSecureEndpoints,
		DisableSecureBackendAuth: cfg.DisableSecureBackendAuth,
	}
}

// AuthorizedRequest returns a request carrying a valid session cookie and a
// backend referer.
func (s *Stack) AuthorizedRequest(t *testing.T, method, path string, body io.Reader) *http.Request {
	t.Helper()
	req, err := http.NewRequest(method, s.Server.URL+path, body)
	if err != nil {
		t.Fatalf("Failed to build request: %v", err)
	}
	token, err := s.Session.Issue("integration", time.Hour)
	if err != nil {
		t.Fatalf("Failed to issue token: %v", err)
	}
	req.AddCookie(&http.Cookie{Name: s.Session.Cookie, Value: token})
	req.Header.Set("Referer", testReferer)
	return req
}
