package api

import (
	"errors"
	"net/http"

	"github.com/rubiojr/edjs/pkg/gate"
)

// PluginError is a failure the editor plugin should show to the user. It is
// answered with Status (406 unless set) and a {success:0, message} body.
type PluginError struct {
	Status  int
	Message string
	Err     error
}

func (e *PluginError) Error() string {
	if e.Err != nil {
		if e.Message == "" {
			return e.Err.Error()
		}
		return e.Message + ": " + e.Err.Error()
	}
	if e.Message == "" {
		return http.StatusText(e.status())
	}
	return e.Message
}

func (e *PluginError) Unwrap() error { return e.Err }

func (e *PluginError) status() int {
	if e.Status == 0 {
		return http.StatusNotAcceptable
	}
	return e.Status
}

func pluginError(message string, err error) *PluginError {
	return &PluginError{Message: message, Err: err}
}

// writePluginError answers a failed plugin request. Access denials get 403,
// plugin errors their own status, anything else 500.
func (s *Server) writePluginError(w http.ResponseWriter, r *http.Request, err error) {
	var pe *PluginError
	switch {
	case errors.Is(err, gate.ErrAccessDenied):
		s.writeJSON(w, http.StatusForbidden, PluginErrorResponse{Success: 0})
	case errors.As(err, &pe):
		s.log.Debugf("%s %s: %v", r.Method, r.URL.Path, err)
		s.writeJSON(w, pe.status(), PluginErrorResponse{Success: 0, Message: pe.Message})
	default:
		s.log.Errorf("%s %s: %v", r.Method, r.URL.Path, err)
		s.writeJSON(w, http.StatusInternalServerError, PluginErrorResponse{Success: 0})
	}
}
