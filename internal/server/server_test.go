package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/oauth2"

	"github.com/omriShneor/alfred_assistant/internal/actions"
	"github.com/omriShneor/alfred_assistant/internal/assistant"
	"github.com/omriShneor/alfred_assistant/internal/config"
	"github.com/omriShneor/alfred_assistant/internal/database"
	"github.com/omriShneor/alfred_assistant/internal/gcal"
	"github.com/omriShneor/alfred_assistant/internal/intent"
	"github.com/omriShneor/alfred_assistant/internal/llm"
	"github.com/omriShneor/alfred_assistant/internal/mocks"
	"github.com/omriShneor/alfred_assistant/internal/notify"
)

// fakeChat answers with a canned reply, error or panic
type fakeChat struct {
	reply   *assistant.Reply
	err     error
	panics  bool
	history []llm.Message
}

func (f *fakeChat) Reply(_ context.Context, history []llm.Message) (*assistant.Reply, error) {
	if f.panics {
		panic("boom")
	}
	f.history = history
	return f.reply, f.err
}

func createTestServer(t *testing.T, cfg ServerConfig) *Server {
	t.Helper()
	if cfg.Chat == nil {
		cfg.Chat = &fakeChat{reply: &assistant.Reply{Message: "ok"}}
	}
	cfg.Logger = zap.NewNop()
	return New(cfg)
}

func serve(s *Server, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func TestHandleHealthCheck(t *testing.T) {
	s := createTestServer(t, ServerConfig{})

	w := serve(s, httptest.NewRequest("GET", "/health", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, "disconnected", body["gcal"])
	assert.Equal(t, "disconnected", body["email"])
	assert.NotEmpty(t, w.Header().Get(requestIDHeader))
}

func TestRequestIDIsPropagated(t *testing.T) {
	s := createTestServer(t, ServerConfig{})
	req := httptest.NewRequest("GET", "/health", nil)
	req.Header.Set(requestIDHeader, "abc-123")

	w := serve(s, req)
	assert.Equal(t, "abc-123", w.Header().Get(requestIDHeader))
}

func TestCORSPreflight(t *testing.T) {
	s := createTestServer(t, ServerConfig{})

	w := serve(s, httptest.NewRequest("OPTIONS", "/api/chat", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestHandleChat(t *testing.T) {
	t.Run("returns reply with action result", func(t *testing.T) {
		chat := &fakeChat{reply: &assistant.Reply{
			Message: "Checking.",
			ActionResult: &actions.Result{
				Type:    intent.Weather,
				Success: false,
				Message: "Weather API not configured. Please set up OpenWeatherMap API key.",
			},
		}}
		s := createTestServer(t, ServerConfig{Chat: chat})

		body := `{"messages":[{"role":"user","content":"weather in Paris"}]}`
		w := serve(s, httptest.NewRequest("POST", "/api/chat", strings.NewReader(body)))

		require.Equal(t, http.StatusOK, w.Code)
		resp := decode(t, w)
		assert.Equal(t, "Checking.", resp["message"])
		result := resp["actionResult"].(map[string]interface{})
		assert.Equal(t, "weather", result["type"])
		assert.Equal(t, false, result["success"])
		assert.Nil(t, result["data"])
		require.Len(t, chat.history, 1)
		assert.Equal(t, "weather in Paris", chat.history[0].Content)
	})

	t.Run("chat reply has null action result", func(t *testing.T) {
		s := createTestServer(t, ServerConfig{Chat: &fakeChat{reply: &assistant.Reply{Message: "Hi!"}}})

		w := serve(s, httptest.NewRequest("POST", "/api/chat", strings.NewReader(`{"messages":[{"role":"user","content":"hi"}]}`)))
		require.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"message":"Hi!","actionResult":null}`, w.Body.String())
	})

	t.Run("invalid body", func(t *testing.T) {
		s := createTestServer(t, ServerConfig{})

		for _, body := range []string{`not json`, `{}`, `{"messages":"hi"}`} {
			w := serve(s, httptest.NewRequest("POST", "/api/chat", strings.NewReader(body)))
			assert.Equal(t, http.StatusBadRequest, w.Code, body)
			assert.JSONEq(t, `{"error":"Invalid messages format"}`, w.Body.String())
		}
	})

	t.Run("empty history is answered", func(t *testing.T) {
		chat := &fakeChat{reply: &assistant.Reply{Message: "I understand. How can I help you?"}}
		s := createTestServer(t, ServerConfig{Chat: chat})

		w := serve(s, httptest.NewRequest("POST", "/api/chat", strings.NewReader(`{"messages":[]}`)))
		assert.Equal(t, http.StatusOK, w.Code)
		assert.NotNil(t, chat.history)
		assert.Empty(t, chat.history)
	})

	t.Run("null messages", func(t *testing.T) {
		s := createTestServer(t, ServerConfig{})

		w := serve(s, httptest.NewRequest("POST", "/api/chat", strings.NewReader(`{"messages":null}`)))
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("service rejects the conversation", func(t *testing.T) {
		s := createTestServer(t, ServerConfig{Chat: &fakeChat{err: assistant.ErrInvalidMessages}})

		w := serve(s, httptest.NewRequest("POST", "/api/chat", strings.NewReader(`{"messages":[{"role":"user","content":"x"}]}`)))
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("panic becomes 500", func(t *testing.T) {
		s := createTestServer(t, ServerConfig{Chat: &fakeChat{panics: true}})

		w := serve(s, httptest.NewRequest("POST", "/api/chat", strings.NewReader(`{"messages":[{"role":"user","content":"x"}]}`)))
		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.JSONEq(t, `{"message":"Sorry, I encountered an error. Please try again.","actionResult":null}`, w.Body.String())
	})

	t.Run("service error becomes 500", func(t *testing.T) {
		s := createTestServer(t, ServerConfig{Chat: &fakeChat{err: errors.New("db down")}})

		w := serve(s, httptest.NewRequest("POST", "/api/chat", strings.NewReader(`{"messages":[{"role":"user","content":"x"}]}`)))
		assert.Equal(t, http.StatusInternalServerError, w.Code)
	})

	t.Run("wrong method", func(t *testing.T) {
		s := createTestServer(t, ServerConfig{})

		w := serve(s, httptest.NewRequest("GET", "/api/chat", nil))
		assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
	})
}

func TestHandleGoogleAuth(t *testing.T) {
	t.Run("not configured", func(t *testing.T) {
		s := createTestServer(t, ServerConfig{})

		w := serve(s, httptest.NewRequest("GET", "/api/auth/google", nil))
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, decode(t, w)["error"], "GOOGLE_CLIENT_ID")
	})

	t.Run("oauth credentials missing", func(t *testing.T) {
		cal := new(mocks.MockCalendarService)
		cal.On("AuthURL", mock.Anything).Return("", gcal.ErrOAuthNotConfigured)
		s := createTestServer(t, ServerConfig{Calendar: cal})

		w := serve(s, httptest.NewRequest("GET", "/api/auth/google", nil))
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("redirects with state cookie", func(t *testing.T) {
		cal := new(mocks.MockCalendarService)
		cal.On("AuthURL", mock.AnythingOfType("string")).Return("https://accounts.google.com/o/oauth2/auth?x=1", nil)
		s := createTestServer(t, ServerConfig{Calendar: cal})

		w := serve(s, httptest.NewRequest("GET", "/api/auth/google", nil))
		assert.Equal(t, http.StatusFound, w.Code)
		assert.Equal(t, "https://accounts.google.com/o/oauth2/auth?x=1", w.Header().Get("Location"))

		cookies := w.Result().Cookies()
		require.Len(t, cookies, 1)
		assert.Equal(t, oauthStateCookie, cookies[0].Name)
		state := cal.Calls[0].Arguments.String(0)
		assert.Equal(t, state, cookies[0].Value)
	})
}

func TestHandleGoogleCallback(t *testing.T) {
	t.Run("setup page without code", func(t *testing.T) {
		s := createTestServer(t, ServerConfig{})

		w := serve(s, httptest.NewRequest("GET", "/api/auth/google/callback", nil))
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Header().Get("Content-Type"), "text/html")
		assert.Contains(t, w.Body.String(), "OAuth Setup Required")
	})

	t.Run("state mismatch", func(t *testing.T) {
		cal := new(mocks.MockCalendarService)
		s := createTestServer(t, ServerConfig{Calendar: cal})

		req := httptest.NewRequest("GET", "/api/auth/google/callback?code=abc&state=evil", nil)
		req.AddCookie(&http.Cookie{Name: oauthStateCookie, Value: "good"})

		w := serve(s, req)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		cal.AssertNotCalled(t, "Exchange", mock.Anything, mock.Anything)
	})

	t.Run("exchanges and shows token", func(t *testing.T) {
		cal := new(mocks.MockCalendarService)
		cal.On("Exchange", mock.Anything, "abc").Return(&oauth2.Token{
			AccessToken:  "ya29.access",
			RefreshToken: "1//refresh<script>",
		}, nil)
		s := createTestServer(t, ServerConfig{Calendar: cal, TokenStore: database.NewTestDB(t)})

		req := httptest.NewRequest("GET", "/api/auth/google/callback?"+url.Values{"code": {"abc"}, "state": {"s1"}}.Encode(), nil)
		req.AddCookie(&http.Cookie{Name: oauthStateCookie, Value: "s1"})

		w := serve(s, req)
		require.Equal(t, http.StatusOK, w.Code)
		page := w.Body.String()
		assert.Contains(t, page, "OAuth Authorization Successful!")
		assert.Contains(t, page, "GOOGLE_REFRESH_TOKEN=1//refresh&lt;script&gt;")
		assert.Contains(t, page, "has been saved")
		assert.NotContains(t, page, "No refresh token received")
	})

	t.Run("warns without refresh token", func(t *testing.T) {
		cal := new(mocks.MockCalendarService)
		cal.On("Exchange", mock.Anything, "abc").Return(&oauth2.Token{AccessToken: "ya29.access"}, nil)
		s := createTestServer(t, ServerConfig{Calendar: cal, TokenStore: database.NewTestDB(t)})

		req := httptest.NewRequest("GET", "/api/auth/google/callback?code=abc&state=s1", nil)
		req.AddCookie(&http.Cookie{Name: oauthStateCookie, Value: "s1"})

		w := serve(s, req)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "No refresh token received")
		assert.NotContains(t, w.Body.String(), "has been saved")
	})

	t.Run("exchange failure", func(t *testing.T) {
		cal := new(mocks.MockCalendarService)
		cal.On("Exchange", mock.Anything, "abc").Return(nil, errors.New("invalid_grant"))
		s := createTestServer(t, ServerConfig{Calendar: cal})

		req := httptest.NewRequest("GET", "/api/auth/google/callback?code=abc&state=s1", nil)
		req.AddCookie(&http.Cookie{Name: oauthStateCookie, Value: "s1"})

		w := serve(s, req)
		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.Equal(t, "Failed to complete OAuth flow", decode(t, w)["error"])
	})
}

func TestHandleTestEnv(t *testing.T) {
	env := NewEnvStatus(&config.Config{
		OpenRouterAPIKey: "sk-or-v1-abcdefghijkl",
		LLMProvider:      config.ProviderOpenRouter,
		GoogleClientID:   "id",
		WeatherAPIKey:    "w",
		EmailProvider:    "sendgrid",
		SendGridAPIKey:   "SG.x",
	})
	s := createTestServer(t, ServerConfig{Env: env})

	w := serve(s, httptest.NewRequest("GET", "/api/test-env", nil))
	require.Equal(t, http.StatusOK, w.Code)

	body := decode(t, w)
	assert.Equal(t, true, body["hasOpenRouter"])
	assert.Equal(t, true, body["hasGoogleClientId"])
	assert.Equal(t, false, body["hasGoogleClientSecret"])
	assert.Equal(t, true, body["hasWeatherApi"])
	assert.Equal(t, true, body["hasEmailApiKey"])
	assert.Equal(t, "sk-or-v1-a...", body["openRouterPrefix"])
	assert.NotContains(t, w.Body.String(), "abcdefghijkl")
}

func TestHandleTestEmail(t *testing.T) {
	t.Run("status without key", func(t *testing.T) {
		s := createTestServer(t, ServerConfig{})

		w := serve(s, httptest.NewRequest("GET", "/api/test-resend", nil))
		assert.Equal(t, http.StatusOK, w.Code)
		body := decode(t, w)
		assert.Equal(t, "RESEND_API_KEY not configured", body["error"])
		assert.Equal(t, false, body["hasApiKey"])
	})

	t.Run("status with key", func(t *testing.T) {
		sender := new(mocks.MockEmailSender)
		sender.On("IsConfigured").Return(true)
		sender.On("Name").Return("Resend")
		s := createTestServer(t, ServerConfig{Email: sender})

		w := serve(s, httptest.NewRequest("GET", "/api/test-resend", nil))
		body := decode(t, w)
		assert.Equal(t, true, body["success"])
		assert.Equal(t, notify.DefaultFromAddress, body["fromEmail"])
	})

	t.Run("send requires recipient", func(t *testing.T) {
		sender := new(mocks.MockEmailSender)
		sender.On("IsConfigured").Return(true)
		s := createTestServer(t, ServerConfig{Email: sender})

		w := serve(s, httptest.NewRequest("POST", "/api/test-resend", bytes.NewBufferString(`{"subject":"x"}`)))
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "Email address (to) is required", decode(t, w)["error"])
		sender.AssertNotCalled(t, "Send", mock.Anything, mock.Anything)
	})

	t.Run("send not configured", func(t *testing.T) {
		s := createTestServer(t, ServerConfig{})

		w := serve(s, httptest.NewRequest("POST", "/api/test-resend", bytes.NewBufferString(`{"to":"a@b.co"}`)))
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("sends with defaults", func(t *testing.T) {
		sender := new(mocks.MockEmailSender)
		sender.On("IsConfigured").Return(true)
		sender.On("Send", mock.Anything, notify.EmailMessage{
			From:    "me@alfred.dev",
			To:      "a@b.co",
			Subject: "Test Email from AI Agent",
			Text:    "This is a test email from your AI Agent.",
			HTML:    "<p>This is a test email from your AI Agent.</p>",
		}).Return("em_1", nil)
		s := createTestServer(t, ServerConfig{Email: sender, FromEmail: "me@alfred.dev"})

		w := serve(s, httptest.NewRequest("POST", "/api/test-resend", bytes.NewBufferString(`{"to":"a@b.co"}`)))
		require.Equal(t, http.StatusOK, w.Code)
		body := decode(t, w)
		assert.Equal(t, "em_1", body["emailId"])
		assert.Equal(t, "Email sent successfully to a@b.co", body["message"])
	})

	t.Run("send failure", func(t *testing.T) {
		sender := new(mocks.MockEmailSender)
		sender.On("IsConfigured").Return(true)
		sender.On("Send", mock.Anything, mock.Anything).Return("", errors.New("domain is not verified"))
		s := createTestServer(t, ServerConfig{Email: sender})

		w := serve(s, httptest.NewRequest("POST", "/api/test-resend", bytes.NewBufferString(`{"to":"a@b.co"}`)))
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "domain is not verified", decode(t, w)["message"])
	})
}

func TestHandleTestCalendar(t *testing.T) {
	t.Run("not oauth", func(t *testing.T) {
		cal := new(mocks.MockCalendarService)
		cal.On("Mode").Return(gcal.ModeServiceAccount)
		s := createTestServer(t, ServerConfig{Calendar: cal})

		w := serve(s, httptest.NewRequest("GET", "/api/test-calendar", nil))
		body := decode(t, w)
		assert.Equal(t, "OAuth credentials not configured", body["error"])
		assert.Equal(t, false, body["hasOAuth"])
	})

	t.Run("token refresh fails", func(t *testing.T) {
		cal := new(mocks.MockCalendarService)
		cal.On("Mode").Return(gcal.ModeOAuth)
		cal.On("RefreshToken").Return("r")
		cal.On("CheckToken", mock.Anything).Return(gcal.ErrInvalidGrant)
		s := createTestServer(t, ServerConfig{Calendar: cal})

		w := serve(s, httptest.NewRequest("GET", "/api/test-calendar", nil))
		body := decode(t, w)
		assert.Equal(t, "Token refresh failed", body["error"])
		assert.Equal(t, "Re-authorize at /api/auth/google", body["suggestion"])
	})

	t.Run("lists calendars and events", func(t *testing.T) {
		cal := new(mocks.MockCalendarService)
		cal.On("Mode").Return(gcal.ModeOAuth)
		cal.On("RefreshToken").Return("r")
		cal.On("CheckToken", mock.Anything).Return(nil)
		cal.On("ListCalendars", mock.Anything).Return([]gcal.CalendarInfo{{ID: "primary", Summary: "Me", AccessRole: "owner"}}, nil)
		cal.On("PrimaryCalendar", mock.Anything).Return(&gcal.CalendarInfo{ID: "me@example.com", Summary: "Me", TimeZone: "UTC", Primary: true}, nil)
		cal.On("ListRecentEvents", mock.Anything, gcal.DefaultCalendarID, mock.Anything, int64(10)).
			Return([]gcal.EventSummary{{ID: "e1", Summary: "Standup", Start: "2026-10-13T09:00:00Z"}}, nil)
		s := createTestServer(t, ServerConfig{Calendar: cal})

		w := serve(s, httptest.NewRequest("GET", "/api/test-calendar", nil))
		require.Equal(t, http.StatusOK, w.Code)
		body := decode(t, w)
		assert.Equal(t, true, body["success"])
		assert.Equal(t, "me@example.com", body["primaryCalendar"].(map[string]interface{})["id"])
		assert.Len(t, body["calendars"], 1)
		assert.Len(t, body["recentEvents"], 1)
	})

	t.Run("api failure", func(t *testing.T) {
		cal := new(mocks.MockCalendarService)
		cal.On("Mode").Return(gcal.ModeOAuth)
		cal.On("RefreshToken").Return("r")
		cal.On("CheckToken", mock.Anything).Return(nil)
		cal.On("ListCalendars", mock.Anything).Return(nil, errors.New("googleapi: Error 500"))
		s := createTestServer(t, ServerConfig{Calendar: cal})

		w := serve(s, httptest.NewRequest("GET", "/api/test-calendar", nil))
		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.Equal(t, "Calendar test failed", decode(t, w)["error"])
	})
}

func TestMetricsEndpoint(t *testing.T) {
	s := createTestServer(t, ServerConfig{})
	serve(s, httptest.NewRequest("GET", "/health", nil))

	w := serve(s, httptest.NewRequest("GET", "/metrics", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "alfred_http_request_duration_seconds")
}

func TestGoogleTokenStatusAndDisconnect(t *testing.T) {
	t.Run("without storage", func(t *testing.T) {
		s := createTestServer(t, ServerConfig{})

		w := serve(s, httptest.NewRequest("GET", "/api/auth/google/status", nil))
		require.Equal(t, http.StatusOK, w.Code)
		body := decode(t, w)
		assert.Equal(t, "none", body["mode"])
		assert.Equal(t, false, body["persisted"])

		w = serve(s, httptest.NewRequest("DELETE", "/api/auth/google", nil))
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("with stored token", func(t *testing.T) {
		db := database.NewTestDB(t)
		require.NoError(t, db.SaveGoogleToken(&oauth2.Token{AccessToken: "a", RefreshToken: "r"}, gcal.OAuthScopes))

		cal := new(mocks.MockCalendarService)
		cal.On("Mode").Return(gcal.ModeOAuth)
		cal.On("RefreshToken").Return("r")
		s := createTestServer(t, ServerConfig{Calendar: cal, TokenStore: db})

		w := serve(s, httptest.NewRequest("GET", "/api/auth/google/status", nil))
		require.Equal(t, http.StatusOK, w.Code)
		body := decode(t, w)
		assert.Equal(t, "oauth", body["mode"])
		assert.Equal(t, true, body["hasRefreshToken"])
		assert.Equal(t, true, body["stored"].(map[string]interface{})["hasToken"])
		assert.NotContains(t, w.Body.String(), `"r"`)

		w = serve(s, httptest.NewRequest("DELETE", "/api/auth/google", nil))
		require.Equal(t, http.StatusOK, w.Code)

		info, err := db.GetGoogleTokenInfo()
		require.NoError(t, err)
		assert.False(t, info.HasToken)
	})
}
