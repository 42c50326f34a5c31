package autosave

import (
	"context"
	"sync"
	"time"

	"github.com/username/inversure/backend/src/logger"
)

// DefaultPollInterval matches the dashboard refresh cadence.
const DefaultPollInterval = 15 * time.Second

// Poller periodically invokes a refresh function, skipping ticks while
// a skip guard says the view is hidden or the user is mid-edit.
type Poller struct {
	interval time.Duration
	refresh  func(context.Context) error
	skip     func() bool

	mu     sync.Mutex
	cancel context.CancelFunc
}

// NewPoller builds a poller. skip may be nil to never skip.
func NewPoller(interval time.Duration, refresh func(context.Context) error, skip func() bool) *Poller {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	return &Poller{interval: interval, refresh: refresh, skip: skip}
}

// Start launches the poll loop. Calling Start on a running poller
// restarts it.
func (p *Poller) Start() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cancel != nil {
		p.cancel()
	}
	ctx, cancel := context.WithCancel(context.Background())
	p.cancel = cancel

	go func() {
		ticker := time.NewTicker(p.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if p.skip != nil && p.skip() {
					continue
				}
				if err := p.refresh(ctx); err != nil {
					logger.L.Debug("Poll refresh failed", "error", err)
				}
			}
		}
	}()
}

// Stop halts the poll loop.
func (p *Poller) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cancel != nil {
		p.cancel()
		p.cancel = nil
	}
}
