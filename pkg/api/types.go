package api

import (
	"time"

	"github.com/rubiojr/edjs/pkg/core"
)

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// PluginErrorResponse is the body of every failed plugin request.
type PluginErrorResponse struct {
	Success int    `json:"success"`
	Message string `json:"message,omitempty"`
}

type AttachedFile struct {
	URL       string `json:"url"`
	Size      int64  `json:"size"`
	Name      string `json:"name"`
	Extension string `json:"extension"`
}

type AttachesResponse struct {
	Success int          `json:"success"`
	File    AttachedFile `json:"file"`
}

type ImageFile struct {
	URL string `json:"url"`
}

type ImageResponse struct {
	Success int       `json:"success"`
	File    ImageFile `json:"file"`
}

type LinkImage struct {
	URL string `json:"url"`
}

type LinkMeta struct {
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Image       LinkImage `json:"image"`
}

type LinkToolResponse struct {
	Success int      `json:"success"`
	Link    LinkMeta `json:"link"`
	Meta    LinkMeta `json:"meta"`
}

type RenderResponse struct {
	HTML string `json:"html"`
}

type ValidationFailure struct {
	Kind    string `json:"kind"`
	Path    string `json:"path"`
	Message string `json:"message"`
}

type ValidateResponse struct {
	Valid bool               `json:"valid"`
	Error *ValidationFailure `json:"error,omitempty"`
}

// ToolConfig is the client-side configuration of one editor tool.
type ToolConfig struct {
	core.ToolSettings
	Scripts []string `json:"scripts,omitempty"`
}

type ToolsResponse struct {
	Tools   map[string]ToolConfig `json:"tools"`
	Scripts []string              `json:"scripts"`
}

type HealthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Version   string    `json:"version"`
	Blocks    int       `json:"blocks"`
}
