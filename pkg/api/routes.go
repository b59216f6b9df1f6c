package api

import (
	"mime"
	"net/http"
	"path"
	"strings"

	"github.com/rubiojr/edjs/pkg/core"
)

func (s *Server) RegisterRoutes(mux *http.ServeMux) {
	// Editor plugins accept any method and sit behind the gate
	mux.HandleFunc(core.EndpointAttaches, s.gated(s.HandleAttaches))
	mux.HandleFunc("/editorjs/plugins/image/{type}", s.gated(s.HandleImage))
	mux.HandleFunc(core.EndpointLinkTool, s.gated(s.HandleLinkTool))
	mux.HandleFunc("GET /editorjs/preview", s.HandlePreview)

	public := []struct {
		pattern string
		handler http.HandlerFunc
	}{
		{"POST /editorjs/render", s.HandleRender},
		{"POST /editorjs/validate", s.HandleValidate},
		{"GET /editorjs/tools", s.HandleTools},
	}
	for _, route := range public {
		mux.Handle(route.pattern, CorsMiddleware(route.handler))
		path := route.pattern[strings.Index(route.pattern, " ")+1:]
		mux.Handle("OPTIONS "+path, CorsMiddleware(http.NotFoundHandler()))
	}

	if s.uploadsDir != "" {
		mux.Handle("GET /uploads/", http.StripPrefix("/uploads/", noListing(safeUploads(http.FileServer(http.Dir(s.uploadsDir))))))
	}
	mux.HandleFunc("GET /health", s.HandleHealth)
}

// gated runs h only for requests that pass the gate and answers failures in
// the plugin error format.
func (s *Server) gated(h func(http.ResponseWriter, *http.Request) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := s.gate.Check(r); err != nil {
			s.writePluginError(w, r, err)
			return
		}
		if err := h(w, r); err != nil {
			s.writePluginError(w, r, err)
		}
	}
}

func noListing(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "" || strings.HasSuffix(r.URL.Path, "/") {
			http.NotFound(w, r)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// safeUploads keeps uploaded files from running as active content on the
// application origin: only raster images are displayed inline, everything
// else (html, svg, scripts) is a download.
func safeUploads(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		if !inlineImage(r.URL.Path) {
			w.Header().Set("Content-Disposition", "attachment")
			w.Header().Set("Content-Security-Policy", "sandbox")
		}
		next.ServeHTTP(w, r)
	})
}

func inlineImage(name string) bool {
	ct := mime.TypeByExtension(strings.ToLower(path.Ext(name)))
	mediaType, _, _ := mime.ParseMediaType(ct)
	return strings.HasPrefix(mediaType, "image/") && mediaType != "image/svg+xml"
}
