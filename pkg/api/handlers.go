package api

import (
	"errors"
	"io"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/rubiojr/edjs/pkg/core"
	"github.com/rubiojr/edjs/pkg/version"
)

const maxDocumentSize = 8 << 20

func (s *Server) HandleRender(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(io.LimitReader(r.Body, maxDocumentSize))
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "Invalid body", err.Error())
		return
	}

	html, err := s.converter.ConvertJSON(data)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "Invalid document", err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, RenderResponse{HTML: html})
}

func (s *Server) HandleValidate(w http.ResponseWriter, r *http.Request) {
	doc, err := core.DecodeDocument(io.LimitReader(r.Body, maxDocumentSize))
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "Invalid document", err.Error())
		return
	}

	err = core.ValidateDocument(s.registry, doc)
	if err == nil {
		s.writeJSON(w, http.StatusOK, ValidateResponse{Valid: true})
		return
	}

	failure := &ValidationFailure{Message: err.Error()}
	var ve *core.ValidationError
	if errors.As(err, &ve) {
		failure.Kind = validationKind(ve.Kind)
		failure.Path = ve.Path
	}
	s.writeJSON(w, http.StatusUnprocessableEntity, ValidateResponse{Valid: false, Error: failure})
}

func validationKind(err error) string {
	switch err {
	case core.ErrMissingField:
		return "missing_field"
	case core.ErrTypeMismatch:
		return "type_mismatch"
	case core.ErrInvalidEnum:
		return "invalid_enum"
	case core.ErrUnknownBlockType:
		return "unknown_block_type"
	}
	return "invalid"
}

// HandleTools returns the editor tools configuration for every registered
// schema. Endpoint paths in tool config are made absolute against the
// application URL.
func (s *Server) HandleTools(w http.ResponseWriter, r *http.Request) {
	resp := ToolsResponse{Tools: make(map[string]ToolConfig), Scripts: []string{}}
	seen := make(map[string]bool)

	for _, schema := range s.registry.Schemas() {
		settings := schema.Settings
		if settings.Config != nil {
			settings.Config = s.resolveConfig(settings.Config)
		}
		resp.Tools[schema.Type] = ToolConfig{ToolSettings: settings, Scripts: schema.Scripts}
		for _, script := range schema.Scripts {
			if !seen[script] {
				seen[script] = true
				resp.Scripts = append(resp.Scripts, script)
			}
		}
	}
	sort.Strings(resp.Scripts)

	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) resolveConfig(config map[string]any) map[string]any {
	out := make(map[string]any, len(config))
	for k, v := range config {
		switch val := v.(type) {
		case string:
			if strings.HasPrefix(val, "/") && !strings.HasPrefix(val, "//") {
				out[k] = s.publicURL(val)
				continue
			}
			out[k] = val
		case map[string]any:
			out[k] = s.resolveConfig(val)
		default:
			out[k] = v
		}
	}
	return out
}

func (s *Server) HandleHealth(w http.ResponseWriter, r *http.Request) {
	response := HealthResponse{
		Status:    "ok",
		Timestamp: time.Now(),
		Version:   version.Version,
		Blocks:    s.registry.Len(),
	}

	s.writeJSON(w, http.StatusOK, response)
}
