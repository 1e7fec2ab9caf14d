package trace_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/avenkit/support-agent/trace"
)

// recordingSink captures posted trace payloads.
type recordingSink struct {
	mu       sync.Mutex
	payloads []map[string]interface{}
}

func (r *recordingSink) handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		var payload map[string]interface{}
		json.NewDecoder(req.Body).Decode(&payload)
		r.mu.Lock()
		r.payloads = append(r.payloads, payload)
		r.mu.Unlock()
		w.WriteHeader(http.StatusOK)
	})
}

func (r *recordingSink) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.payloads)
}

func (r *recordingSink) waitFor(t *testing.T, n int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if r.count() >= n {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("Expected %d posts, got %d", n, r.count())
}

func TestEndTraceCancelsTimer(t *testing.T) {
	sink := &recordingSink{}
	srv := httptest.NewServer(sink.handler())
	defer srv.Close()

	client := trace.New(trace.Config{BaseURL: srv.URL, AutoFinalize: time.Hour})

	id := client.StartTrace("session-1", "u1", "question")
	if client.PendingCount() != 1 {
		t.Fatalf("Expected 1 pending trace, got %d", client.PendingCount())
	}

	client.EndTrace(id, "answer", map[string]interface{}{"success": true})
	if client.PendingCount() != 0 {
		t.Errorf("Expected no pending traces after EndTrace, got %d", client.PendingCount())
	}

	// Open + close records.
	sink.waitFor(t, 2)
}

func TestAutoFinalizeAbandonedTrace(t *testing.T) {
	sink := &recordingSink{}
	srv := httptest.NewServer(sink.handler())
	defer srv.Close()

	client := trace.New(trace.Config{BaseURL: srv.URL, AutoFinalize: 20 * time.Millisecond})

	client.StartTrace("session-1", "u1", "question")
	sink.waitFor(t, 2)

	if client.PendingCount() != 0 {
		t.Errorf("Expected the timer to clear the pending trace, got %d", client.PendingCount())
	}

	sink.mu.Lock()
	defer sink.mu.Unlock()
	var sawTimeout bool
	for _, p := range sink.payloads {
		if meta, ok := p["metadata"].(map[string]interface{}); ok {
			if meta["timeout"] == true && meta["success"] == false {
				sawTimeout = true
			}
		}
	}
	if !sawTimeout {
		t.Error("Expected the auto-finalize record to carry timeout=true, success=false")
	}
}

func TestEndTraceIdempotent(t *testing.T) {
	sink := &recordingSink{}
	srv := httptest.NewServer(sink.handler())
	defer srv.Close()

	client := trace.New(trace.Config{BaseURL: srv.URL, AutoFinalize: time.Hour})

	id := client.StartTrace("session-1", "u1", "question")
	client.EndTrace(id, "answer", nil)
	client.EndTrace(id, "answer", nil)

	sink.waitFor(t, 2)
	time.Sleep(50 * time.Millisecond)
	if got := sink.count(); got != 2 {
		t.Errorf("Expected exactly 2 posts (open + one close), got %d", got)
	}
}

func TestDisabledClient(t *testing.T) {
	client := trace.New(trace.Config{})

	id := client.StartTrace("session-1", "u1", "question")
	if id == "" {
		t.Error("Expected a trace id even when disabled")
	}
	if client.PendingCount() != 0 {
		t.Errorf("Expected no pending traces on a disabled client, got %d", client.PendingCount())
	}
	// Must not panic.
	client.Event(id, "event", nil)
	client.EndTrace(id, "answer", nil)

	var nilClient *trace.Client
	nilClient.Event("x", "event", nil)
	nilClient.EndTrace("x", "answer", nil)
}

func TestClear(t *testing.T) {
	sink := &recordingSink{}
	srv := httptest.NewServer(sink.handler())
	defer srv.Close()

	client := trace.New(trace.Config{BaseURL: srv.URL, AutoFinalize: time.Hour})
	client.StartTrace("s1", "u1", "q1")
	client.StartTrace("s2", "u2", "q2")

	client.Clear()
	if client.PendingCount() != 0 {
		t.Errorf("Expected no pending traces after Clear, got %d", client.PendingCount())
	}
}
