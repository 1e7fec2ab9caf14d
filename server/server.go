// Package server exposes the answer pipeline over HTTP: a plain JSON
// chat endpoint, a server-sent-events variant that streams step
// progress, and a websocket chat channel.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/avenkit/support-agent/core"
	"github.com/avenkit/support-agent/orchestrator"
)

// Processor answers questions. *orchestrator.Orchestrator satisfies it.
type Processor interface {
	Process(ctx context.Context, query, userID string, onProgress orchestrator.ProgressFunc) (*orchestrator.Result, error)
}

// Config configures the server.
type Config struct {
	// Addr is the listen address (default: ":8080").
	Addr string

	// RequestTimeout bounds one chat request end to end (default: 60s).
	RequestTimeout time.Duration
}

// DefaultConfig returns the standard server tuning.
var DefaultConfig = &Config{
	Addr:           ":8080",
	RequestTimeout: 60 * time.Second,
}

// Server routes chat requests to the processor.
type Server struct {
	processor Processor
	cfg       *Config
	upgrader  websocket.Upgrader
}

// New creates a server around processor.
func New(processor Processor, cfg *Config) *Server {
	if cfg == nil {
		cfg = DefaultConfig
	}
	if cfg.Addr == "" {
		cfg.Addr = DefaultConfig.Addr
	}
	if cfg.RequestTimeout == 0 {
		cfg.RequestTimeout = DefaultConfig.RequestTimeout
	}
	return &Server{
		processor: processor,
		cfg:       cfg,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
}

// Handler returns the HTTP handler with all routes registered.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", s.handleHealth)
	mux.HandleFunc("/api/chat", s.handleChat)
	mux.HandleFunc("/api/chat/stream", s.handleChatStream)
	mux.HandleFunc("/ws/chat", s.handleChatWS)
	return mux
}

// ListenAndServe runs the server until the listener fails.
func (s *Server) ListenAndServe() error {
	log.Printf("[SERVER] Listening on %s", s.cfg.Addr)
	return http.ListenAndServe(s.cfg.Addr, s.Handler())
}

type chatRequest struct {
	Query  string `json:"query"`
	UserID string `json:"userId"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

// handleChat answers a question in one JSON response, no streaming.
func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	req, ok := s.decodeChat(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.cfg.RequestTimeout)
	defer cancel()

	result, err := s.processor.Process(ctx, req.Query, req.UserID, nil)
	if err != nil {
		log.Printf("[SERVER] Chat failed: %v", err)
		http.Error(w, `{"error":"failed to answer"}`, http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(result)
}

// handleChatStream answers a question over SSE. Each step change ships
// a "progress" event; the final answer ships as a "result" event.
func (s *Server) handleChatStream(w http.ResponseWriter, r *http.Request) {
	req, ok := s.decodeChat(w, r)
	if !ok {
		return
	}

	flusher, canFlush := w.(http.Flusher)
	if !canFlush {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ctx, cancel := context.WithTimeout(r.Context(), s.cfg.RequestTimeout)
	defer cancel()

	onProgress := func(steps []core.Step, results []core.SearchResult) {
		writeSSE(w, "progress", map[string]interface{}{
			"steps":   steps,
			"results": results,
		})
		flusher.Flush()
	}

	result, err := s.processor.Process(ctx, req.Query, req.UserID, onProgress)
	if err != nil {
		writeSSE(w, "error", map[string]string{"error": err.Error()})
		flusher.Flush()
		return
	}

	writeSSE(w, "result", result)
	flusher.Flush()
}

// handleChatWS answers questions over a websocket. Each text message is
// a chatRequest; progress and result frames mirror the SSE events.
func (s *Server) handleChatWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[SERVER] Websocket upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	for {
		var req chatRequest
		if err := conn.ReadJSON(&req); err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Printf("[SERVER] Websocket read failed: %v", err)
			}
			return
		}
		if req.Query == "" {
			conn.WriteJSON(map[string]string{"type": "error", "error": "query is required"})
			continue
		}

		ctx, cancel := context.WithTimeout(r.Context(), s.cfg.RequestTimeout)

		onProgress := func(steps []core.Step, results []core.SearchResult) {
			conn.WriteJSON(map[string]interface{}{
				"type":    "progress",
				"steps":   steps,
				"results": results,
			})
		}

		result, err := s.processor.Process(ctx, req.Query, req.UserID, onProgress)
		cancel()
		if err != nil {
			conn.WriteJSON(map[string]string{"type": "error", "error": err.Error()})
			continue
		}
		conn.WriteJSON(map[string]interface{}{"type": "result", "result": result})
	}
}

// decodeChat parses and validates a chat request body.
func (s *Server) decodeChat(w http.ResponseWriter, r *http.Request) (chatRequest, bool) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return chatRequest{}, false
	}
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"invalid request body"}`, http.StatusBadRequest)
		return chatRequest{}, false
	}
	if req.Query == "" {
		http.Error(w, `{"error":"query is required"}`, http.StatusBadRequest)
		return chatRequest{}, false
	}
	if req.UserID == "" {
		req.UserID = "anonymous"
	}
	return req, true
}

// writeSSE emits one server-sent event with a JSON payload.
func writeSSE(w http.ResponseWriter, event string, payload interface{}) {
	data, err := json.Marshal(payload)
	if err != nil {
		log.Printf("[SERVER] SSE marshal failed: %v", err)
		return
	}
	fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, data)
}
