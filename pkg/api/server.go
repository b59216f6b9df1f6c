package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/klauspost/compress/gzhttp"
	"github.com/rubiojr/edjs/pkg/core"
	"github.com/rubiojr/edjs/pkg/gate"
	"github.com/rubiojr/edjs/pkg/log"
	"github.com/rubiojr/edjs/pkg/realtime"
	"github.com/rubiojr/edjs/pkg/render"
	"github.com/rubiojr/edjs/pkg/storage"
	"github.com/rubiojr/edjs/pkg/unfurl"
)

const DefaultMaxUploadSize = 10 * 1000 * 1000

// FileStore persists uploaded files.
type FileStore interface {
	Save(ctx context.Context, kind, name, contentType string, r io.Reader, limit int64) (*storage.Upload, error)
}

type Options struct {
	Registry *core.Registry
	Renderer render.BlockRenderer
	Gate     *gate.Gate
	Files    FileStore
	Unfurler unfurl.Fetcher

	// HTTPClient downloads images for the fetchUrl image endpoint.
	HTTPClient *http.Client

	// UploadsDir is served read-only under /uploads/. Empty disables it.
	UploadsDir    string
	MaxUploadSize int64
	Hub           *realtime.Hub
}

type Server struct {
	registry   *core.Registry
	converter  *render.Converter
	gate       *gate.Gate
	files      FileStore
	unfurler   unfurl.Fetcher
	client     *http.Client
	uploadsDir string
	maxUpload  atomic.Int64
	hub        *realtime.Hub
	upgrader   websocket.Upgrader
	log        *log.Logger
}

func NewServer(opts Options) *Server {
	s := &Server{
		registry:   opts.Registry,
		gate:       opts.Gate,
		files:      opts.Files,
		unfurler:   opts.Unfurler,
		client:     opts.HTTPClient,
		uploadsDir: opts.UploadsDir,
		hub:        opts.Hub,
		log:        log.ForService("api"),
	}
	if s.registry == nil {
		s.registry = core.DefaultRegistry()
	}
	if s.gate == nil {
		s.gate = gate.New(gate.Settings{}, nil)
	}
	if s.client == nil {
		s.client = &http.Client{Timeout: 30 * time.Second}
	}
	if s.hub == nil {
		s.hub = realtime.NewHub(0)
	}
	renderer := opts.Renderer
	if renderer == nil {
		r, err := render.New(s.registry, nil)
		if err != nil {
			panic(fmt.Sprintf("building default renderer: %v", err))
		}
		renderer = r
	}
	s.converter = render.NewConverter(renderer)
	s.SetMaxUploadSize(opts.MaxUploadSize)
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  4096,
		WriteBufferSize: 4096,
		CheckOrigin:     s.checkOrigin,
	}
	return s
}

// SetMaxUploadSize changes the upload limit. Values <= 0 restore the default.
func (s *Server) SetMaxUploadSize(n int64) {
	if n <= 0 {
		n = DefaultMaxUploadSize
	}
	s.maxUpload.Store(n)
}

// Handler returns the full HTTP handler: routes, request logging and gzip
// compression. Websocket upgrades bypass compression.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	s.RegisterRoutes(mux)

	logged := s.logRequests(mux)
	gz := gzhttp.GzipHandler(logged)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if websocket.IsWebSocketUpgrade(r) {
			logged.ServeHTTP(w, r)
			return
		}
		gz.ServeHTTP(w, r)
	})
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.log.Debugf("%s %s (%s)", r.Method, r.URL.Path, time.Since(start).Round(time.Microsecond))
	})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.log.Errorf("Error encoding JSON response: %v", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, error, message string) {
	response := ErrorResponse{
		Error:   error,
		Message: message,
	}
	s.writeJSON(w, status, response)
}

// publicURL resolves path against the configured application URL.
func (s *Server) publicURL(path string) string {
	return strings.TrimRight(s.gate.Settings().AppURL, "/") + "/" + strings.TrimLeft(path, "/")
}

func (s *Server) uploadURL(up *storage.Upload) string {
	return s.publicURL("uploads/" + url.PathEscape(up.DiskName))
}

// checkOrigin accepts websocket handshakes without an Origin header and from
// the request host or the application URL.
func (s *Server) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	u, err := url.Parse(origin)
	if err != nil {
		return false
	}
	if strings.EqualFold(u.Host, r.Host) {
		return true
	}
	app, err := url.Parse(s.gate.Settings().AppURL)
	return err == nil && strings.EqualFold(u.Host, app.Host)
}

func CorsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
