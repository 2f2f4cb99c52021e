package server

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/omriShneor/alfred_assistant/internal/gcal"
	"github.com/omriShneor/alfred_assistant/internal/logger"
)

const oauthStateCookie = "alfred_oauth_state"

// handleGoogleAuth redirects to the Google consent screen
func (s *Server) handleGoogleAuth(w http.ResponseWriter, r *http.Request) {
	if s.gcalClient == nil {
		s.respondError(w, http.StatusBadRequest, "GOOGLE_CLIENT_ID and GOOGLE_CLIENT_SECRET must be set in environment variables")
		return
	}

	state := uuid.NewString()
	authURL, err := s.gcalClient.AuthURL(state)
	if errors.Is(err, gcal.ErrOAuthNotConfigured) {
		s.respondError(w, http.StatusBadRequest, "GOOGLE_CLIENT_ID and GOOGLE_CLIENT_SECRET must be set in environment variables")
		return
	}
	if err != nil {
		logger.WithRequest(r.Context(), s.logger).Error("failed to build auth url", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, "Failed to initiate OAuth flow")
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     oauthStateCookie,
		Value:    state,
		Path:     "/api/auth/google",
		MaxAge:   600,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	http.Redirect(w, r, authURL, http.StatusFound)
}

// handleGoogleCallback completes the consent flow. Visited without a code it
// explains how to start the flow instead.
func (s *Server) handleGoogleCallback(w http.ResponseWriter, r *http.Request) {
	log := logger.WithRequest(r.Context(), s.logger)

	code := r.URL.Query().Get("code")
	if code == "" {
		s.renderPage(w, http.StatusOK, setupPage, nil)
		return
	}

	if s.gcalClient == nil {
		s.respondError(w, http.StatusInternalServerError, "OAuth credentials not configured")
		return
	}

	cookie, err := r.Cookie(oauthStateCookie)
	if err != nil || cookie.Value == "" || cookie.Value != r.URL.Query().Get("state") {
		log.Warn("oauth state mismatch")
		s.respondError(w, http.StatusBadRequest, "Invalid OAuth state. Please start again at /api/auth/google")
		return
	}
	http.SetCookie(w, &http.Cookie{Name: oauthStateCookie, Path: "/api/auth/google", MaxAge: -1})

	token, err := s.gcalClient.Exchange(r.Context(), code)
	if errors.Is(err, gcal.ErrOAuthNotConfigured) {
		s.respondError(w, http.StatusInternalServerError, "OAuth credentials not configured")
		return
	}
	if err != nil && token == nil {
		log.Error("oauth code exchange failed", zap.Error(err))
		s.respondJSON(w, http.StatusInternalServerError, map[string]string{
			"error":   "Failed to complete OAuth flow",
			"details": err.Error(),
		})
		return
	}

	stored := s.tokenStore != nil && err == nil && token.RefreshToken != ""
	if err != nil {
		log.Warn("oauth token obtained but not stored", zap.Error(err))
	}
	log.Info("google oauth completed", zap.Bool("refresh_token", token.RefreshToken != ""), zap.Bool("stored", stored))

	s.renderPage(w, http.StatusOK, successPage, successData{
		RefreshToken:  token.RefreshToken,
		AccessPreview: preview(token.AccessToken, 50),
		Stored:        stored,
	})
}

// handleGoogleTokenStatus reports the stored token's metadata, never the token
func (s *Server) handleGoogleTokenStatus(w http.ResponseWriter, r *http.Request) {
	status := map[string]interface{}{
		"mode":      string(gcal.ModeNone),
		"persisted": s.tokenStore != nil,
	}
	if s.gcalClient != nil {
		status["mode"] = string(s.gcalClient.Mode())
		status["hasRefreshToken"] = s.gcalClient.RefreshToken() != ""
	}

	if s.tokenStore != nil {
		info, err := s.tokenStore.GetGoogleTokenInfo()
		if err != nil {
			logger.WithRequest(r.Context(), s.logger).Error("failed to read token info", zap.Error(err))
			s.respondError(w, http.StatusInternalServerError, "Failed to read stored token")
			return
		}
		status["stored"] = info
	}

	s.respondJSON(w, http.StatusOK, status)
}

// handleGoogleDisconnect forgets the token captured by the callback
func (s *Server) handleGoogleDisconnect(w http.ResponseWriter, r *http.Request) {
	if s.tokenStore == nil {
		s.respondError(w, http.StatusBadRequest, "Token storage not enabled. Set ALFRED_DB_PATH to persist tokens.")
		return
	}

	if err := s.tokenStore.DeleteGoogleToken(); err != nil {
		logger.WithRequest(r.Context(), s.logger).Error("failed to delete token", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, "Failed to delete stored token")
		return
	}

	s.respondJSON(w, http.StatusOK, map[string]string{"status": "disconnected"})
}

func preview(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
