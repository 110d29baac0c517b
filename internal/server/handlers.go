package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/lox/blackjack/internal/game"
	"github.com/lox/blackjack/internal/protocol"
	"github.com/lox/blackjack/internal/service"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.Ping(r.Context()); err != nil {
		s.logger.Warn("Health check failed", "error", err)
		http.Error(w, "store unavailable", http.StatusServiceUnavailable)
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = io.WriteString(w, "OK")
}

func (s *Server) handleInitializeSession(w http.ResponseWriter, r *http.Request) {
	req, ok := s.decode(w, r)
	if !ok {
		return
	}

	// A stale or foreign cookie falls back to the client id.
	accountID, _ := s.sessions.Account(r)

	accountID, resp, err := s.svc.InitializeSession(r.Context(), accountID, req.ClientID)
	if err != nil {
		s.logger.Error("Failed to initialize session", "error", err)
		writeJSON(w, http.StatusInternalServerError, protocol.Error(protocol.HintServerError, protocol.ServerErrorMessage))
		return
	}
	if err := s.sessions.Set(w, accountID); err != nil {
		s.logger.Error("Failed to set session cookie", "error", err)
		writeJSON(w, http.StatusInternalServerError, protocol.Error(protocol.HintServerError, protocol.ServerErrorMessage))
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleOperation(w http.ResponseWriter, r *http.Request) {
	req, ok := s.decode(w, r)
	if !ok {
		return
	}
	req.Op = game.Operation(chi.URLParam(r, "op"))

	accountID, err := s.sessions.Account(r)
	if err != nil {
		writeJSON(w, http.StatusUnauthorized, invalidSession())
		return
	}

	resp, err := s.svc.Do(r.Context(), accountID, req)
	status, resp := s.result(accountID, req, resp, err)
	writeJSON(w, status, resp)
}

// result maps a service outcome to an HTTP status and the envelope to send.
func (s *Server) result(accountID string, req protocol.Request, resp *protocol.Response, err error) (int, *protocol.Response) {
	switch {
	case err == nil:
		return http.StatusOK, resp
	case errors.Is(err, service.ErrNoSession):
		return http.StatusUnauthorized, invalidSession()
	case service.IsClientError(err):
		if resp == nil {
			resp = protocol.Error(protocol.HintClientError, err.Error())
		}
		return http.StatusBadRequest, resp
	default:
		s.logger.Error("Operation failed", "account", accountID, "op", req.Op, "error", err)
		return http.StatusInternalServerError, protocol.Error(protocol.HintServerError, protocol.ServerErrorMessage)
	}
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request) (protocol.Request, bool) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodySize))
	if err != nil {
		writeJSON(w, http.StatusRequestEntityTooLarge, protocol.Error(protocol.HintClientError, "Request body too large."))
		return protocol.Request{}, false
	}
	req, err := protocol.DecodeRequest(body)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, protocol.Error(protocol.HintClientError, "Malformed request body."))
		return protocol.Request{}, false
	}
	return req, true
}

func invalidSession() *protocol.Response {
	return protocol.Error(protocol.HintInvalidSession, "Invalid user session.")
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
