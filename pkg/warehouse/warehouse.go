// Package warehouse runs periodic housekeeping jobs against the upload and
// link preview storage while the server is up.
package warehouse

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rubiojr/edjs/pkg/log"
)

// Job is one housekeeping step.
type Job struct {
	Name string
	Run  func(ctx context.Context) error
}

type Config struct {
	// Interval between runs. Zero disables the schedule; RunOnce still works.
	Interval time.Duration
}

type Warehouse struct {
	config    Config
	jobs      []Job
	ctxCancel context.CancelFunc
	mu        sync.RWMutex
	wg        sync.WaitGroup
	running   bool
	log       *log.Logger
}

func NewWarehouse(config Config, jobs ...Job) *Warehouse {
	return &Warehouse{
		config: config,
		jobs:   jobs,
		log:    log.ForService("warehouse"),
	}
}

// Start schedules the jobs every Interval until Stop is called or ctx ends.
func (w *Warehouse) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.running {
		return fmt.Errorf("warehouse is already running")
	}
	if w.config.Interval <= 0 {
		w.log.Infof("housekeeping schedule disabled")
		return nil
	}

	runCtx, cancel := context.WithCancel(ctx)
	w.ctxCancel = cancel
	w.running = true

	ticker := time.NewTicker(w.config.Interval)
	w.wg.Add(1)
	go w.loop(runCtx, ticker)

	w.log.Infof("housekeeping started with %d jobs every %v", len(w.jobs), w.config.Interval)
	return nil
}

func (w *Warehouse) loop(ctx context.Context, ticker *time.Ticker) {
	defer w.wg.Done()
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := w.RunOnce(ctx); err != nil {
				w.log.Warnf("housekeeping: %v", err)
			}
		}
	}
}

// RunOnce runs every job in order. A failing job does not stop the rest;
// all failures are returned joined.
func (w *Warehouse) RunOnce(ctx context.Context) error {
	var errs []error
	for _, job := range w.jobs {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		start := time.Now()
		if err := job.Run(ctx); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", job.Name, err))
			continue
		}
		w.log.Debugf("%s finished in %v", job.Name, time.Since(start))
	}
	return errors.Join(errs...)
}

func (w *Warehouse) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.running {
		return
	}
	w.ctxCancel()
	w.running = false
	w.wg.Wait()
	w.log.Debugf("housekeeping stopped")
}

func (w *Warehouse) IsRunning() bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.running
}
