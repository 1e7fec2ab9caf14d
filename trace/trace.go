// Package trace ships structured trace and event records to an
// observability backend. Every call is fire-and-forget safe: transport
// failures are logged and never surface to the pipeline. Traces that
// are never ended are auto-finalized by a per-trace timer with a
// timeout flag.
package trace

import (
	"bytes"
	"context"
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Config configures the client.
type Config struct {
	// BaseURL is the sink endpoint; empty disables the client entirely
	// (all methods become no-ops).
	BaseURL string

	// PublicKey/SecretKey authenticate via basic auth.
	PublicKey string
	SecretKey string

	// Timeout bounds each HTTP call (default: 10s).
	Timeout time.Duration

	// AutoFinalize is how long an open trace may stay pending before
	// the timer finalizes it with a timeout flag (default: 5m).
	AutoFinalize time.Duration
}

type pendingTrace struct {
	sessionID string
	userID    string
	input     string
	started   time.Time
	timer     *time.Timer
}

// Client posts trace records to the sink.
type Client struct {
	cfg        Config
	httpClient *http.Client

	mu      sync.Mutex
	pending map[string]*pendingTrace
}

// New creates a trace client. A Config with an empty BaseURL yields a
// disabled client whose methods do nothing.
func New(cfg Config) *Client {
	if cfg.Timeout == 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.AutoFinalize == 0 {
		cfg.AutoFinalize = 5 * time.Minute
	}
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		pending:    make(map[string]*pendingTrace),
	}
}

// StartTrace opens a trace and returns its id. An auto-finalize timer
// starts ticking; EndTrace cancels it.
func (c *Client) StartTrace(sessionID, userID, input string) string {
	if c == nil || c.cfg.BaseURL == "" {
		return uuid.New().String()
	}

	id := uuid.New().String()
	p := &pendingTrace{
		sessionID: sessionID,
		userID:    userID,
		input:     input,
		started:   time.Now(),
	}
	p.timer = time.AfterFunc(c.cfg.AutoFinalize, func() {
		log.Printf("[TRACE] Auto-finalizing abandoned trace %s", id)
		c.finalize(id, "", map[string]interface{}{"timeout": true, "success": false})
	})

	c.mu.Lock()
	c.pending[id] = p
	c.mu.Unlock()

	c.post("/api/public/traces", map[string]interface{}{
		"id":        id,
		"sessionId": sessionID,
		"userId":    userID,
		"input":     input,
		"timestamp": p.started.Format(time.RFC3339Nano),
	})
	return id
}

// Event records a named event (span or generation) under a trace.
func (c *Client) Event(traceID, name string, metadata map[string]interface{}) {
	if c == nil || c.cfg.BaseURL == "" {
		return
	}
	c.post("/api/public/events", map[string]interface{}{
		"id":        uuid.New().String(),
		"traceId":   traceID,
		"name":      name,
		"metadata":  metadata,
		"timestamp": time.Now().Format(time.RFC3339Nano),
	})
}

// EndTrace finalizes a trace with its output and metadata, cancelling
// the auto-finalize timer.
func (c *Client) EndTrace(traceID, output string, metadata map[string]interface{}) {
	if c == nil || c.cfg.BaseURL == "" {
		return
	}
	c.finalize(traceID, output, metadata)
}

// finalize removes the trace from the pending registry and posts the
// closing record. Idempotent: the second caller (timer vs. EndTrace)
// finds nothing to do.
func (c *Client) finalize(traceID, output string, metadata map[string]interface{}) {
	c.mu.Lock()
	p, ok := c.pending[traceID]
	if ok {
		delete(c.pending, traceID)
	}
	c.mu.Unlock()
	if !ok {
		return
	}
	p.timer.Stop()

	c.post("/api/public/traces", map[string]interface{}{
		"id":         traceID,
		"output":     output,
		"metadata":   metadata,
		"durationMs": time.Since(p.started).Milliseconds(),
		"timestamp":  time.Now().Format(time.RFC3339Nano),
	})
}

// PendingCount returns the number of open traces.
func (c *Client) PendingCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.pending)
}

// Clear cancels all pending auto-finalize timers and forgets the open
// traces without posting anything.
func (c *Client) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for id, p := range c.pending {
		p.timer.Stop()
		delete(c.pending, id)
	}
}

// post ships a record asynchronously. Failures are logged, never
// returned.
func (c *Client) post(path string, payload interface{}) {
	body, err := json.Marshal(payload)
	if err != nil {
		log.Printf("[TRACE] Marshal failed: %v", err)
		return
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), c.cfg.Timeout)
		defer cancel()

		req, err := http.NewRequestWithContext(ctx, "POST", c.cfg.BaseURL+path, bytes.NewReader(body))
		if err != nil {
			log.Printf("[TRACE] Request build failed: %v", err)
			return
		}
		req.Header.Set("Content-Type", "application/json")
		req.SetBasicAuth(c.cfg.PublicKey, c.cfg.SecretKey)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			log.Printf("[TRACE] Post failed: %v", err)
			return
		}
		resp.Body.Close()
		if resp.StatusCode >= 300 {
			log.Printf("[TRACE] Sink returned status %d", resp.StatusCode)
		}
	}()
}
