package testutil

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/omriShneor/alfred_assistant/internal/actions"
	"github.com/omriShneor/alfred_assistant/internal/assistant"
	"github.com/omriShneor/alfred_assistant/internal/config"
	"github.com/omriShneor/alfred_assistant/internal/database"
	"github.com/omriShneor/alfred_assistant/internal/gcal"
	"github.com/omriShneor/alfred_assistant/internal/llm"
	"github.com/omriShneor/alfred_assistant/internal/notify"
	"github.com/omriShneor/alfred_assistant/internal/server"
	"github.com/omriShneor/alfred_assistant/internal/ui"
	"github.com/omriShneor/alfred_assistant/internal/weather"
)

// WeatherAPIKey is the key the fake weather endpoint accepts
const WeatherAPIKey = "test-weather-key"

// DefaultNow is the clock every TestServer starts with: a Wednesday morning
var DefaultNow = time.Date(2026, time.October, 14, 10, 30, 0, 0, time.UTC)

// TestServer wraps the whole assistant for E2E testing. Only the language
// model, weather and Google Calendar are faked; everything between the HTTP
// handler and those upstreams is the production code.
type TestServer struct {
	Server     *server.Server
	DB         *database.DB
	HTTPServer *httptest.Server
	t          *testing.T

	LLM      *FakeLLM
	Weather  *FakeWeather
	Calendar *FakeCalendar
	Mailbox  *FakeMailbox

	now        time.Time
	timeZone   string
	noDatabase bool
	noEmail    bool
	weatherKey string
}

// TestServerOption configures a test server
type TestServerOption func(*TestServer)

// WithNow fixes the clock relative dates resolve against
func WithNow(now time.Time) TestServerOption {
	return func(ts *TestServer) {
		ts.now = now
	}
}

// WithTimeZone sets the zone calendar events are created in
func WithTimeZone(name string) TestServerOption {
	return func(ts *TestServer) {
		ts.timeZone = name
	}
}

// WithoutDatabase runs without token persistence
func WithoutDatabase() TestServerOption {
	return func(ts *TestServer) {
		ts.noDatabase = true
	}
}

// WithoutEmail leaves the email provider unconfigured
func WithoutEmail() TestServerOption {
	return func(ts *TestServer) {
		ts.noEmail = true
	}
}

// WithWeatherKey overrides the key the weather client sends
func WithWeatherKey(key string) TestServerOption {
	return func(ts *TestServer) {
		ts.weatherKey = key
	}
}

// NewTestServer creates a fully configured test server for E2E testing
func NewTestServer(t *testing.T, opts ...TestServerOption) *TestServer {
	t.Helper()

	ts := &TestServer{
		t:          t,
		now:        DefaultNow,
		timeZone:   actions.DefaultTimeZone,
		weatherKey: WeatherAPIKey,
	}
	for _, opt := range opts {
		opt(ts)
	}

	var store gcal.TokenStore
	var tokens server.TokenStore
	if !ts.noDatabase {
		ts.DB = database.NewTestDB(t)
		store = ts.DB
		tokens = ts.DB
	}

	var sender notify.EmailSender
	if !ts.noEmail {
		ts.Mailbox = NewFakeMailbox("Resend")
		sender = ts.Mailbox
	}

	ts.LLM = NewFakeLLM(t)
	ts.Weather = NewFakeWeather(t, WeatherAPIKey)
	ts.Calendar = NewFakeCalendar(store)

	cfg := &config.Config{
		LLMProvider:        config.ProviderOpenRouter,
		OpenRouterAPIKey:   "sk-or-test-key",
		GoogleClientID:     "test-client-id.apps.googleusercontent.com",
		GoogleClientSecret: "test-client-secret",
		WeatherAPIKey:      ts.weatherKey,
		EmailProvider:      config.EmailProviderResend,
		ResendFromEmail:    notify.DefaultFromAddress,
	}
	if !ts.noEmail {
		cfg.ResendAPIKey = "re_test_key"
	}

	logger := zap.NewNop()
	dispatcher := actions.NewDispatcher(actions.Config{
		TimeZone:  ts.timeZone,
		BaseURL:   config.DefaultBaseURL,
		FromEmail: cfg.ResendFromEmail,
	}, actions.Deps{
		Calendar: ts.Calendar,
		Email:    sender,
		Weather:  weather.NewClient(ts.weatherKey).WithAPIURL(ts.Weather.Server.URL),
		UI:       ui.NewHTMLRenderer(),
		Now:      func() time.Time { return ts.now },
	}, logger)

	completer := llm.NewOpenRouterClient(cfg.OpenRouterAPIKey, "", config.DefaultBaseURL).WithAPIURL(ts.LLM.Server.URL)

	ts.Server = server.New(server.ServerConfig{
		Chat:       assistant.NewService(completer, dispatcher, logger),
		Calendar:   ts.Calendar,
		Email:      sender,
		Env:        server.NewEnvStatus(cfg),
		FromEmail:  cfg.ResendFromEmail,
		TokenStore: tokens,
		Logger:     logger,
	})

	ts.HTTPServer = httptest.NewServer(ts.Server.Handler())
	t.Cleanup(ts.HTTPServer.Close)

	return ts
}

// BaseURL returns the test server base URL
func (ts *TestServer) BaseURL() string {
	return ts.HTTPServer.URL
}

// Client returns an HTTP client configured for the test server
func (ts *TestServer) Client() *http.Client {
	return ts.HTTPServer.Client()
}

// ChatResponse is the decoded body of POST /api/chat
type ChatResponse struct {
	Message      string          `json:"message"`
	ActionResult *actions.Result `json:"actionResult"`
	Error        string          `json:"error"`
}

// Chat posts the conversation to /api/chat and decodes the answer
func (ts *TestServer) Chat(messages ...llm.Message) (int, ChatResponse) {
	ts.t.Helper()

	if messages == nil {
		messages = []llm.Message{}
	}
	body, err := json.Marshal(map[string]any{"messages": messages})
	require.NoError(ts.t, err)

	resp, err := ts.Client().Post(ts.BaseURL()+"/api/chat", "application/json", bytes.NewReader(body))
	require.NoError(ts.t, err)
	defer resp.Body.Close()

	var out ChatResponse
	require.NoError(ts.t, json.NewDecoder(resp.Body).Decode(&out))
	return resp.StatusCode, out
}

// Say sends a single user message
func (ts *TestServer) Say(text string) (int, ChatResponse) {
	ts.t.Helper()
	return ts.Chat(llm.Message{Role: llm.RoleUser, Content: text})
}

// GetJSON fetches path and decodes the JSON body into a map
func (ts *TestServer) GetJSON(path string) (int, map[string]any) {
	ts.t.Helper()

	resp, err := ts.Client().Get(ts.BaseURL() + path)
	require.NoError(ts.t, err)
	defer resp.Body.Close()

	var out map[string]any
	require.NoError(ts.t, json.NewDecoder(resp.Body).Decode(&out))
	return resp.StatusCode, out
}
