package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/rubiojr/edjs/pkg/config"
	"github.com/rubiojr/edjs/pkg/core"
	"github.com/rubiojr/edjs/pkg/gate"
	"github.com/rubiojr/edjs/pkg/render"
)

// buildRenderer returns the block registry with any schemas from the
// configured blocks file merged in, and a renderer for it.
func buildRenderer(cfg *config.Config) (*render.Renderer, error) {
	reg := core.DefaultRegistry()
	var templates map[string]string

	if cfg.BlocksFile != "" {
		set, err := core.LoadBlocksFile(cfg.BlocksFile)
		if err != nil {
			return nil, err
		}
		reg, err = reg.Merge(set.Schemas...)
		if err != nil {
			return nil, fmt.Errorf("merging blocks from %s: %w", cfg.BlocksFile, err)
		}
		templates = set.Templates
	}

	r, err := render.New(reg, templates)
	if err != nil {
		return nil, fmt.Errorf("building renderer: %w", err)
	}
	return r, nil
}

func gateSettings(cfg *config.Config) gate.Settings {
	return gate.Settings{
		AppURL:                   cfg.AppURL,
		BackendURI:               cfg.BackendURI,
		DisableSecureEndpoints:   cfg.DisableSecureEndpoints,
		DisableSecureBackendAuth: cfg.DisableSecureBackendAuth,
	}
}

// readInput reads a file, or stdin when path is empty or "-".
func readInput(path string) ([]byte, error) {
	if path == "" || path == "-" {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return nil, fmt.Errorf("reading stdin: %w", err)
		}
		return data, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return data, nil
}
