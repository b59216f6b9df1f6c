// Package log provides named loggers for edjs services on top of zerolog.
//
// Every line carries the service name as a "[name>]" prefix so the output stays
// grep-friendly under systemd (journald supplies its own timestamps):
//
//	2024/05/01 10:00:00.000000 INFO [api>] listening on 127.0.0.1:8080
//
// Key Features
//
//   - Per service loggers via ForService(name)
//   - Level helpers: Infof, Warnf, Errorf, Debugf
//   - Debug logging enabled globally (SetGlobalDebug) or per service
//     (EnableDebugFor / DisableDebugFor)
//   - Central output writer (SetOutput) that updates existing loggers
//   - JSON lines with a "service" field via SetJSON(true)
//
// Basic Usage
//
//	l := log.ForService("render")
//	l.Infof("loaded %d templates", n)
//	l.Debugf("view: %v", view) // only printed when debug is enabled for "render"
//
// Structured fields are available through the underlying zerolog logger:
//
//	log.ForService("api").Zerolog().Info().Str("path", r.URL.Path).Msg("request")
//
// The package name collides with the standard library "log". Alias one of them
// when both are needed:
//
//	import (
//		stdlog "log"
//		edlog "github.com/rubiojr/edjs/pkg/log"
//	)
//
// Tests can redirect output by calling SetOutput with a bytes.Buffer.
package log
