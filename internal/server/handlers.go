package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/omriShneor/alfred_assistant/internal/assistant"
	"github.com/omriShneor/alfred_assistant/internal/llm"
	"github.com/omriShneor/alfred_assistant/internal/logger"
)

const chatFailureMessage = "Sorry, I encountered an error. Please try again."

type chatRequest struct {
	Messages []llm.Message `json:"messages"`
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	log := logger.WithRequest(r.Context(), s.logger)

	defer func() {
		if rec := recover(); rec != nil {
			log.Error("chat handler panicked", zap.Any("panic", rec))
			s.respondJSON(w, http.StatusInternalServerError, assistant.Reply{Message: chatFailureMessage})
		}
	}()

	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Messages == nil {
		s.respondError(w, http.StatusBadRequest, "Invalid messages format")
		return
	}

	reply, err := s.chat.Reply(r.Context(), req.Messages)
	if errors.Is(err, assistant.ErrInvalidMessages) {
		s.respondError(w, http.StatusBadRequest, "Invalid messages format")
		return
	}
	if err != nil {
		log.Error("chat reply failed", zap.Error(err))
		s.respondJSON(w, http.StatusInternalServerError, assistant.Reply{Message: chatFailureMessage})
		return
	}

	s.respondJSON(w, http.StatusOK, reply)
}

func (s *Server) handleHealthCheck(w http.ResponseWriter, r *http.Request) {
	gcalStatus := "disconnected"
	if s.gcalClient != nil {
		gcalStatus = string(s.gcalClient.Mode())
	}

	emailStatus := "disconnected"
	if s.email != nil && s.email.IsConfigured() {
		emailStatus = s.email.Name()
	}

	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"status": "healthy",
		"gcal":   gcalStatus,
		"email":  emailStatus,
	})
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Error("failed to encode JSON response", zap.Int("status", status), zap.Error(err))
	}
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}
