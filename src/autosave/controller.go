// Package autosave keeps a form snapshot flowing to the server while
// the user types. Saves are debounced, coalesced while one is in
// flight, and skipped entirely when the payload has not changed since
// the last successful write.
package autosave

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/username/inversure/backend/src/logger"
	"github.com/username/inversure/backend/src/utils"
)

// DefaultDebounce is how long a burst of edits settles before a save
// fires.
const DefaultDebounce = 1200 * time.Millisecond

// PayloadFunc produces the current form snapshot. Returning nil means
// there is nothing to save right now.
type PayloadFunc func() (interface{}, error)

// Config wires a Controller to its endpoint.
type Config struct {
	// SaveURL is the autosave endpoint. Required.
	SaveURL string
	// CSRFToken supplies the current token for the X-CSRFToken header.
	CSRFToken func() string
	// AuthToken supplies the bearer token, when the endpoint needs one.
	AuthToken func() string
	// HTTPClient defaults to http.DefaultClient.
	HTTPClient *http.Client
	// Debounce defaults to DefaultDebounce.
	Debounce time.Duration
}

// Controller schedules and executes autosaves. All methods are safe
// for concurrent use.
type Controller struct {
	cfg   Config
	build PayloadFunc

	mu            sync.Mutex
	timer         *time.Timer
	inFlight      bool
	queued        bool
	lastSignature string
	closed        bool
}

// NewController validates cfg and returns a ready controller.
func NewController(cfg Config, build PayloadFunc) (*Controller, error) {
	if cfg.SaveURL == "" {
		return nil, errors.New("autosave: SaveURL is required")
	}
	if build == nil {
		return nil, errors.New("autosave: payload func is required")
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = http.DefaultClient
	}
	if cfg.Debounce <= 0 {
		cfg.Debounce = DefaultDebounce
	}
	return &Controller{cfg: cfg, build: build}, nil
}

// Schedule arms the debounce timer. Each call while the timer is armed
// pushes the save further back, so a typing burst produces one save.
func (c *Controller) Schedule() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	if c.timer != nil {
		c.timer.Stop()
	}
	c.timer = time.AfterFunc(c.cfg.Debounce, func() {
		if err := c.save(context.Background()); err != nil {
			logger.L.Warn("Autosave failed", "error", err)
		}
	})
}

// Flush saves immediately, cancelling any pending debounce. Used for
// the final save when the page is going away.
func (c *Controller) Flush(ctx context.Context) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return errors.New("autosave: controller closed")
	}
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	c.mu.Unlock()
	return c.save(ctx)
}

// Cancel drops any pending debounce and any queued follow-up without
// saving.
func (c *Controller) Cancel() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	c.queued = false
}

// Close cancels pending work and rejects further scheduling.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	c.queued = false
	c.closed = true
}

// save runs one autosave cycle. When a save is already in flight the
// new request collapses into a single queued follow-up; edits during a
// slow request never produce more than one extra save.
func (c *Controller) save(ctx context.Context) error {
	c.mu.Lock()
	if c.inFlight {
		c.queued = true
		c.mu.Unlock()
		return nil
	}
	c.inFlight = true
	c.mu.Unlock()

	err := c.doSave(ctx)

	c.mu.Lock()
	c.inFlight = false
	followUp := c.queued && !c.closed
	c.queued = false
	c.mu.Unlock()

	if followUp {
		if followErr := c.save(ctx); followErr != nil && err == nil {
			err = followErr
		}
	}
	return err
}

func (c *Controller) doSave(ctx context.Context) error {
	snapshot, err := c.build()
	if err != nil {
		return fmt.Errorf("building autosave payload: %w", err)
	}
	if snapshot == nil {
		return nil
	}

	body := map[string]interface{}{"payload": snapshot}
	signature, err := utils.GenerateETag(body)
	if err != nil {
		return fmt.Errorf("hashing autosave payload: %w", err)
	}

	c.mu.Lock()
	unchanged := signature == c.lastSignature
	c.mu.Unlock()
	if unchanged {
		return nil
	}

	var buf bytes.Buffer
	if err := encodeJSON(&buf, body); err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.SaveURL, &buf)
	if err != nil {
		return fmt.Errorf("creating autosave request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.cfg.CSRFToken != nil {
		if token := c.cfg.CSRFToken(); token != "" {
			req.Header.Set("X-CSRFToken", token)
		}
	}
	if c.cfg.AuthToken != nil {
		if token := c.cfg.AuthToken(); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	resp, err := c.cfg.HTTPClient.Do(req)
	if err != nil {
		c.clearSignature()
		return fmt.Errorf("autosave request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// Forget the signature so the same payload is retried next time.
		c.clearSignature()
		return fmt.Errorf("autosave rejected with status %d", resp.StatusCode)
	}

	c.mu.Lock()
	c.lastSignature = signature
	c.mu.Unlock()
	return nil
}

func (c *Controller) clearSignature() {
	c.mu.Lock()
	c.lastSignature = ""
	c.mu.Unlock()
}
