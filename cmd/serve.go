package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rubiojr/edjs/pkg/api"
	"github.com/rubiojr/edjs/pkg/config"
	"github.com/rubiojr/edjs/pkg/gate"
	"github.com/rubiojr/edjs/pkg/log"
	"github.com/rubiojr/edjs/pkg/realtime"
	"github.com/rubiojr/edjs/pkg/storage"
	"github.com/rubiojr/edjs/pkg/unfurl"
	"github.com/rubiojr/edjs/pkg/warehouse"
	"github.com/urfave/cli/v3"
)

// ServeCommand creates the serve command
func ServeCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Start the editor HTTP server",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "listen",
				Usage: "Address to listen on (overrides the config file)",
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			return serve(ctx, c.String("config"), c.String("listen"))
		},
	}
}

// reloadable is the part of the running server that follows config changes.
type reloadable struct {
	gate    *gate.Gate
	api     *api.Server
	listen  string
	storage string
	blocks  string
	logger  *log.Logger
}

func serve(ctx context.Context, configPath, listen string) error {
	logger := log.ForService("serve")

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if listen == "" {
		listen = cfg.Listen
	}

	renderer, err := buildRenderer(cfg)
	if err != nil {
		return err
	}

	store, err := storage.Open(cfg.StorageDir, cfg.LinkTool.CacheTTL.Duration)
	if err != nil {
		return fmt.Errorf("opening storage: %w", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Warnf("failed to close storage: %v", err)
		}
	}()

	wh := warehouse.NewWarehouse(warehouse.Config{Interval: cfg.MaintenanceInterval.Duration},
		warehouse.Job{Name: "prune link cache", Run: func(ctx context.Context) error {
			n, err := store.Links.Prune(ctx)
			if n > 0 {
				logger.Infof("pruned %d expired link cache entries", n)
			}
			return err
		}},
		warehouse.Job{Name: "optimize database", Run: func(context.Context) error {
			return store.Optimize()
		}},
	)
	if cfg.MaintenanceInterval.Duration > 0 {
		if err := wh.RunOnce(ctx); err != nil {
			logger.Warnf("housekeeping: %v", err)
		}
	}
	if err := wh.Start(ctx); err != nil {
		return fmt.Errorf("starting housekeeping: %w", err)
	}
	defer wh.Stop()

	g := gate.New(gateSettings(cfg), gate.NewJWTSession(cfg.Session.Cookie, cfg.Session.Secret))
	if cfg.Session.Secret == "" && !cfg.DisableSecureBackendAuth {
		logger.Warnf("no session secret configured, plugin endpoints will deny every request")
	}

	fetcher := unfurl.NewHTTPFetcher(cfg.LinkTool.Timeout.Duration, cfg.LinkTool.UserAgent)
	server := api.NewServer(api.Options{
		Registry:      renderer.Registry(),
		Renderer:      renderer,
		Gate:          g,
		Files:         store.Files,
		Unfurler:      unfurl.NewCached(fetcher, store.Links),
		HTTPClient:    &http.Client{Timeout: cfg.LinkTool.Timeout.Duration},
		UploadsDir:    store.Files.Dir(),
		MaxUploadSize: int64(cfg.Uploads.MaxSize),
		Hub:           realtime.NewHub(0),
	})

	httpServer := &http.Server{
		Addr:              listen,
		Handler:           server.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Infof("listening on http://%s (%d block types)", listen, renderer.Registry().Len())
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	state := &reloadable{
		gate:    g,
		api:     server,
		listen:  listen,
		storage: cfg.StorageDir,
		blocks:  cfg.BlocksFile,
		logger:  logger,
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)
	defer signal.Stop(sigCh)

	// Set up filesystem watcher for config file
	var events <-chan fsnotify.Event
	var watchErrors <-chan error
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		logger.Warnf("failed to create config file watcher: %v", err)
	} else {
		defer watcher.Close()
		if err := watcher.Add(configPath); err != nil {
			logger.Warnf("failed to watch config file %s: %v", configPath, err)
		} else {
			logger.Infof("watching config file for changes: %s", configPath)
		}
		events = watcher.Events
		watchErrors = watcher.Errors
	}

	shutdown := func() error {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	}

	for {
		select {
		case <-ctx.Done():
			return shutdown()
		case err, ok := <-errCh:
			if ok && err != nil {
				return fmt.Errorf("http server: %w", err)
			}
			return nil
		case sig := <-sigCh:
			switch sig {
			case syscall.SIGHUP:
				logger.Infof("received SIGHUP, reloading configuration")
				state.reload(configPath)
			default:
				fmt.Println("\nShutting down...")
				return shutdown()
			}
		case event, ok := <-events:
			if !ok {
				events = nil
				continue
			}
			// editors often replace the file instead of writing it in place
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) && !event.Has(fsnotify.Remove) {
				continue
			}
			if event.Has(fsnotify.Rename) || event.Has(fsnotify.Remove) {
				time.Sleep(200 * time.Millisecond)
				if _, err := os.Stat(configPath); os.IsNotExist(err) {
					logger.Warnf("config file was removed and not replaced, skipping reload")
					continue
				}
				if err := watcher.Add(configPath); err != nil {
					logger.Warnf("failed to re-add config file to watcher: %v", err)
				}
			} else {
				time.Sleep(100 * time.Millisecond)
			}
			logger.Infof("config file changed (%s), reloading configuration", event.Op)
			state.reload(configPath)
		case err, ok := <-watchErrors:
			if !ok {
				watchErrors = nil
				continue
			}
			logger.Warnf("config file watcher error: %v", err)
		}
	}
}

// reload applies the settings that can change without a restart: the gate
// and the upload limit. Changes to anything else are reported and ignored.
func (s *reloadable) reload(configPath string) {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		s.logger.Errorf("failed to reload configuration: %v", err)
		return
	}

	s.gate.Update(gateSettings(cfg))
	s.api.SetMaxUploadSize(int64(cfg.Uploads.MaxSize))

	if cfg.Listen != s.listen {
		s.logger.Warnf("listen address changed to %s, restart to apply", cfg.Listen)
	}
	if cfg.StorageDir != s.storage {
		s.logger.Warnf("storage_dir changed to %s, restart to apply", cfg.StorageDir)
	}
	if cfg.BlocksFile != s.blocks {
		s.logger.Warnf("blocks_file changed to %s, restart to apply", cfg.BlocksFile)
	}
	s.logger.Infof("configuration reloaded")
}
