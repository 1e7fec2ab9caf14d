package server_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/avenkit/support-agent/core"
	"github.com/avenkit/support-agent/orchestrator"
	"github.com/avenkit/support-agent/server"
)

// fakeProcessor returns a canned result and drives onProgress once.
type fakeProcessor struct {
	err error
}

func (f *fakeProcessor) Process(_ context.Context, query, userID string, onProgress orchestrator.ProgressFunc) (*orchestrator.Result, error) {
	if f.err != nil {
		return nil, f.err
	}
	steps := []core.Step{{ID: "s1", Kind: core.StepAnalyzing, Status: core.StatusComplete}}
	if onProgress != nil {
		onProgress(steps, nil)
	}
	return &orchestrator.Result{
		Answer: "answer to " + query,
		Steps:  steps,
	}, nil
}

func newTestServer(p *fakeProcessor) *httptest.Server {
	return httptest.NewServer(server.New(p, nil).Handler())
}

func TestHealthz(t *testing.T) {
	srv := newTestServer(&fakeProcessor{})
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/healthz")
	if err != nil {
		t.Fatalf("Failed to get healthz: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("Expected 200, got %d", resp.StatusCode)
	}
}

func TestChat(t *testing.T) {
	srv := newTestServer(&fakeProcessor{})
	defer srv.Close()

	body := strings.NewReader(`{"query":"what are the rates","userId":"u1"}`)
	resp, err := http.Post(srv.URL+"/api/chat", "application/json", body)
	if err != nil {
		t.Fatalf("Failed to post chat: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected 200, got %d", resp.StatusCode)
	}

	var result orchestrator.Result
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if result.Answer != "answer to what are the rates" {
		t.Errorf("Unexpected answer: %q", result.Answer)
	}
}

func TestChatValidation(t *testing.T) {
	srv := newTestServer(&fakeProcessor{})
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/api/chat")
	if err != nil {
		t.Fatalf("Failed to get chat: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Errorf("Expected 405 for GET, got %d", resp.StatusCode)
	}

	resp, err = http.Post(srv.URL+"/api/chat", "application/json", strings.NewReader(`{}`))
	if err != nil {
		t.Fatalf("Failed to post chat: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("Expected 400 for empty query, got %d", resp.StatusCode)
	}
}

func TestChatProcessorError(t *testing.T) {
	srv := newTestServer(&fakeProcessor{err: fmt.Errorf("pipeline failed")})
	defer srv.Close()

	body := strings.NewReader(`{"query":"q"}`)
	resp, err := http.Post(srv.URL+"/api/chat", "application/json", body)
	if err != nil {
		t.Fatalf("Failed to post chat: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusInternalServerError {
		t.Errorf("Expected 500, got %d", resp.StatusCode)
	}
}

func TestChatStream(t *testing.T) {
	srv := newTestServer(&fakeProcessor{})
	defer srv.Close()

	body := strings.NewReader(`{"query":"what are the rates"}`)
	resp, err := http.Post(srv.URL+"/api/chat/stream", "application/json", body)
	if err != nil {
		t.Fatalf("Failed to post stream: %v", err)
	}
	defer resp.Body.Close()

	if ct := resp.Header.Get("Content-Type"); ct != "text/event-stream" {
		t.Errorf("Expected text/event-stream, got %q", ct)
	}

	buf := make([]byte, 16<<10)
	var out strings.Builder
	for {
		n, err := resp.Body.Read(buf)
		out.Write(buf[:n])
		if err != nil {
			break
		}
	}

	stream := out.String()
	if !strings.Contains(stream, "event: progress") {
		t.Errorf("Expected a progress event in the stream:\n%s", stream)
	}
	if !strings.Contains(stream, "event: result") {
		t.Errorf("Expected a result event in the stream:\n%s", stream)
	}
	if !strings.Contains(stream, "answer to what are the rates") {
		t.Errorf("Expected the answer in the stream:\n%s", stream)
	}
}

func TestChatWebsocket(t *testing.T) {
	srv := newTestServer(&fakeProcessor{})
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/chat"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("Failed to dial websocket: %v", err)
	}
	defer conn.Close()

	if err := conn.WriteJSON(map[string]string{"query": "what are the rates", "userId": "u1"}); err != nil {
		t.Fatalf("Failed to write request: %v", err)
	}

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var sawProgress, sawResult bool
	for !sawResult {
		var frame map[string]interface{}
		if err := conn.ReadJSON(&frame); err != nil {
			t.Fatalf("Failed to read frame: %v", err)
		}
		switch frame["type"] {
		case "progress":
			sawProgress = true
		case "result":
			sawResult = true
		case "error":
			t.Fatalf("Unexpected error frame: %v", frame)
		}
	}
	if !sawProgress {
		t.Error("Expected a progress frame before the result")
	}
}
