// Package api exposes the chat gateway over HTTP for web clients.
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/BryanBorck/thry-ethdenver-2025/internal/chat"
	"github.com/BryanBorck/thry-ethdenver-2025/internal/core"
)

// Server routes chat requests to the gateway.
type Server struct {
	gateway *chat.Gateway
	log     *zap.SugaredLogger
	http    *http.Server
}

// NewServer builds the HTTP server on addr.
func NewServer(addr string, gateway *chat.Gateway, log *zap.SugaredLogger) *Server {
	s := &Server{gateway: gateway, log: log}

	r := chi.NewRouter()
	r.Use(s.requestLogger)
	r.Route("/api/agent", func(r chi.Router) {
		r.Post("/chat", s.handleChat)
		r.Get("/history", s.handleHistory)
		r.Delete("/history", s.handleReset)
	})
	r.Get("/healthz", s.handleHealth)

	s.http = &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// ListenAndServe blocks serving requests until Shutdown.
func (s *Server) ListenAndServe() error {
	s.log.Infow("http server listening", "addr", s.http.Addr)
	return s.http.ListenAndServe()
}

// Shutdown drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.http.Handler
}

type chatRequest struct {
	Message  string `json:"message"`
	ThreadID string `json:"threadId,omitempty"`
}

type chatResponse struct {
	ThreadID string         `json:"threadId"`
	Messages []core.Message `json:"messages"`
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.Message == "" {
		writeError(w, http.StatusBadRequest, "message is required")
		return
	}
	threadID := req.ThreadID
	if threadID == "" {
		threadID = chat.DefaultThreadID
	}

	msgs, err := s.gateway.HandleMessage(r.Context(), threadID, req.Message)
	if err != nil {
		s.log.Errorw("chat turn failed", "thread", threadID, "error", err)
		writeError(w, http.StatusInternalServerError, "turn could not be completed")
		return
	}
	writeJSON(w, http.StatusOK, chatResponse{ThreadID: threadID, Messages: msgs})
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	threadID := threadFromQuery(r)
	msgs, err := s.gateway.History(r.Context(), threadID)
	if err != nil {
		s.log.Errorw("history load failed", "thread", threadID, "error", err)
		writeError(w, http.StatusInternalServerError, "history unavailable")
		return
	}
	if msgs == nil {
		msgs = []core.Message{}
	}
	writeJSON(w, http.StatusOK, chatResponse{ThreadID: threadID, Messages: msgs})
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	threadID := threadFromQuery(r)
	if err := s.gateway.Reset(r.Context(), threadID); err != nil {
		s.log.Errorw("history reset failed", "thread", threadID, "error", err)
		writeError(w, http.StatusInternalServerError, "history could not be cleared")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func threadFromQuery(r *http.Request) string {
	if id := r.URL.Query().Get("threadId"); id != "" {
		return id
	}
	return chat.DefaultThreadID
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqID := uuid.NewString()
		start := time.Now()
		next.ServeHTTP(w, r)
		s.log.Infow("request",
			"id", reqID,
			"method", r.Method,
			"path", r.URL.Path,
			"duration", time.Since(start))
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
