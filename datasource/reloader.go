/*
reloader.go - Background reload of a dataset file

PURPOSE:
  Keeps a long-running server in step with its dataset file. A new release
  of escalation rates or emission factors is picked up without a restart.

DESIGN:
  - Runs a background goroutine with a configurable check interval
  - Reloads only when the file's modification time changed
  - A file that fails to parse keeps the previous dataset in service
  - Implements Source, so the HTTP layer never sees the swap

USAGE:
  r, err := NewReloader(path)
  r.Start()
  // ... later
  r.Stop()

SEE ALSO:
  - datasource.go: FileSource
  - cmd/server/main.go: Starts the reloader when a dataset is configured
*/
package datasource

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/warp/lcc-engine/lcc"
	"github.com/warp/lcc-engine/logging"
)

// Reloader serves queries from the latest good version of a dataset file.
type Reloader struct {
	Path          string
	CheckInterval time.Duration

	mu      sync.RWMutex
	current *FileSource
	modTime time.Time

	ticker *time.Ticker
	stop   chan struct{}
	wg     sync.WaitGroup
	runMu  sync.Mutex
}

var _ Source = (*Reloader)(nil)

// NewReloader loads path once. The initial load must succeed.
func NewReloader(path string) (*Reloader, error) {
	r := &Reloader{Path: path, CheckInterval: time.Minute}
	if _, err := r.Reload(); err != nil {
		return nil, err
	}
	return r, nil
}

// Start begins checking the file in the background.
func (r *Reloader) Start() {
	r.runMu.Lock()
	defer r.runMu.Unlock()

	if r.ticker != nil {
		return
	}
	r.ticker = time.NewTicker(r.CheckInterval)
	r.stop = make(chan struct{})
	r.wg.Add(1)

	go r.run()

	logger := logging.Component(context.Background(), "datasource")
	logger.Info().Str("path", r.Path).Dur("interval", r.CheckInterval).Msg("dataset reloader started")
}

// Stop ends the background checks and waits for the goroutine.
func (r *Reloader) Stop() {
	r.runMu.Lock()
	defer r.runMu.Unlock()

	if r.ticker == nil {
		return
	}
	r.ticker.Stop()
	close(r.stop)
	r.wg.Wait()
	r.ticker = nil
}

func (r *Reloader) run() {
	defer r.wg.Done()

	for {
		select {
		case <-r.ticker.C:
			r.check()
		case <-r.stop:
			return
		}
	}
}

func (r *Reloader) check() {
	logger := logging.Component(context.Background(), "datasource")
	changed, err := r.Reload()
	switch {
	case err != nil:
		logger.Warn().Err(err).Str("path", r.Path).Msg("dataset reload failed, keeping previous version")
	case changed:
		logger.Info().Str("path", r.Path).Msg("dataset reloaded")
	}
}

// Reload reads the file when its modification time changed. It reports
// whether a new version was installed.
func (r *Reloader) Reload() (bool, error) {
	info, err := os.Stat(r.Path)
	if err != nil {
		return false, fmt.Errorf("stat dataset: %w", err)
	}

	r.mu.RLock()
	unchanged := r.current != nil && info.ModTime().Equal(r.modTime)
	r.mu.RUnlock()
	if unchanged {
		return false, nil
	}

	src, err := LoadFile(r.Path)
	if err != nil {
		return false, err
	}

	r.mu.Lock()
	r.current = src
	r.modTime = info.ModTime()
	r.mu.Unlock()
	return true, nil
}

func (r *Reloader) source() *FileSource {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.current
}

func (r *Reloader) EscalationRates(ctx context.Context, q Query) ([]lcc.EscalationRate, error) {
	return r.source().EscalationRates(ctx, q)
}

func (r *Reloader) Emissions(ctx context.Context, q Query) ([]float64, error) {
	return r.source().Emissions(ctx, q)
}

func (r *Reloader) SocialCostOfCarbon(ctx context.Context, q Query) ([]float64, error) {
	return r.source().SocialCostOfCarbon(ctx, q)
}
