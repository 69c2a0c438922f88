package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
)

// maxRequestBytes bounds the body of a single JSON-RPC POST.
const maxRequestBytes = 4 << 20

// shutdownTimeout is how long graceful shutdown waits for in-flight
// requests before giving up.
const shutdownTimeout = 10 * time.Second

// sessionHeader carries session affinity between server and client.
const sessionHeader = "Mcp-Session"

// sessionIdleTimeout is how long an unused session stays valid. Idle
// sessions are pruned when the next one is created.
const sessionIdleTimeout = 30 * time.Minute

// HTTPServer serves MCP over streamable HTTP: each JSON-RPC request
// arrives as an HTTP POST and the response travels in the response
// body. Sessions are assigned on initialize and echoed back by the
// client on subsequent requests.
type HTTPServer struct {
	server *Server
	logger *slog.Logger

	mu       sync.Mutex
	sessions map[string]time.Time // session ID -> last use
}

// NewHTTPServer wraps an MCP server with the HTTP transport.
func NewHTTPServer(s *Server) *HTTPServer {
	return &HTTPServer{
		server:   s,
		logger:   s.logger,
		sessions: make(map[string]time.Time),
	}
}

// ServeHTTP implements http.Handler for the MCP endpoint.
func (h *HTTPServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxRequestBytes))
	if err != nil {
		http.Error(w, "read request body", http.StatusBadRequest)
		return
	}

	var req Request
	if err := json.Unmarshal(body, &req); err != nil {
		h.writeResponse(w, "", NewErrorResponse(nil, codeParseError, "parse error"))
		return
	}

	sessionID := r.Header.Get(sessionHeader)
	if req.Method == "initialize" {
		sessionID = h.newSession()
	} else if sessionID != "" && !h.touchSession(sessionID) {
		http.Error(w, "unknown session", http.StatusNotFound)
		return
	}

	resp := h.server.Handle(r.Context(), &req)
	if resp == nil {
		// Notification: acknowledge with no content.
		if sessionID != "" {
			w.Header().Set(sessionHeader, sessionID)
		}
		w.WriteHeader(http.StatusAccepted)
		return
	}

	h.writeResponse(w, sessionID, resp)
}

// newSession mints a session ID and records it, pruning sessions that
// have been idle past the timeout.
func (h *HTTPServer) newSession() string {
	id := uuid.NewString()
	now := time.Now()
	h.mu.Lock()
	for old, lastUse := range h.sessions {
		if now.Sub(lastUse) > sessionIdleTimeout {
			delete(h.sessions, old)
		}
	}
	h.sessions[id] = now
	h.mu.Unlock()
	h.logger.Debug("MCP session created", "session", id)
	return id
}

// touchSession reports whether id is a known session and marks it used.
func (h *HTTPServer) touchSession(id string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.sessions[id]; !ok {
		return false
	}
	h.sessions[id] = time.Now()
	return true
}

func (h *HTTPServer) writeResponse(w http.ResponseWriter, sessionID string, resp *Response) {
	if sessionID != "" {
		w.Header().Set(sessionHeader, sessionID)
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		h.logger.Warn("write MCP response", "error", err)
	}
}

// ListenAndServe runs the HTTP transport on addr until ctx is
// cancelled, then shuts down gracefully.
func (h *HTTPServer) ListenAndServe(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/mcp", h)

	srv := &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	errc := make(chan error, 1)
	go func() {
		h.logger.Info("MCP HTTP server listening", "addr", addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		return nil
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
