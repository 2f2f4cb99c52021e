package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/oauth2"

	"github.com/omriShneor/alfred_assistant/internal/assistant"
	"github.com/omriShneor/alfred_assistant/internal/database"
	"github.com/omriShneor/alfred_assistant/internal/gcal"
	"github.com/omriShneor/alfred_assistant/internal/llm"
	"github.com/omriShneor/alfred_assistant/internal/notify"
)

// ChatService answers one chat turn
type ChatService interface {
	Reply(ctx context.Context, history []llm.Message) (*assistant.Reply, error)
}

// CalendarClient is the Google Calendar surface used by the auth and
// diagnostics endpoints
type CalendarClient interface {
	Mode() gcal.Mode
	RefreshToken() string
	AuthURL(state string) (string, error)
	Exchange(ctx context.Context, code string) (*oauth2.Token, error)
	CheckToken(ctx context.Context) error
	ListCalendars(ctx context.Context) ([]gcal.CalendarInfo, error)
	PrimaryCalendar(ctx context.Context) (*gcal.CalendarInfo, error)
	ListRecentEvents(ctx context.Context, calendarID string, since time.Time, max int64) ([]gcal.EventSummary, error)
}

// TokenStore exposes the OAuth token persisted by the consent callback
type TokenStore interface {
	GetGoogleTokenInfo() (*database.GoogleTokenInfo, error)
	DeleteGoogleToken() error
}

type Server struct {
	chat       ChatService
	gcalClient CalendarClient
	email      notify.EmailSender
	env        EnvStatus
	fromEmail  string
	tokenStore TokenStore
	logger     *zap.Logger
	httpSrv    *http.Server
	port       int
}

// ServerConfig holds the server's collaborators. Calendar and Email may be nil.
type ServerConfig struct {
	Port      int
	Chat      ChatService
	Calendar  CalendarClient
	Email     notify.EmailSender
	Env       EnvStatus
	FromEmail string
	// TokenStore is nil when tokens are not persisted
	TokenStore TokenStore
	Logger     *zap.Logger
}

func New(cfg ServerConfig) *Server {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}

	s := &Server{
		chat:       cfg.Chat,
		gcalClient: cfg.Calendar,
		email:      cfg.Email,
		env:        cfg.Env,
		fromEmail:  cfg.FromEmail,
		tokenStore: cfg.TokenStore,
		logger:     cfg.Logger,
		port:       cfg.Port,
	}

	mux := http.NewServeMux()
	s.registerRoutes(mux)

	s.httpSrv = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      s.corsMiddleware(s.requestLogger(mux)),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 90 * time.Second, // covers one LLM call plus one action
		IdleTimeout:  60 * time.Second,
	}

	return s
}

func (s *Server) registerRoutes(mux *http.ServeMux) {
	// Health check
	mux.HandleFunc("GET /health", s.handleHealthCheck)
	mux.Handle("GET /metrics", promhttp.Handler())

	// Chat API
	mux.HandleFunc("POST /api/chat", s.handleChat)

	// Google OAuth
	mux.HandleFunc("GET /api/auth/google", s.handleGoogleAuth)
	mux.HandleFunc("GET /api/auth/google/callback", s.handleGoogleCallback)
	mux.HandleFunc("GET /api/auth/google/status", s.handleGoogleTokenStatus)
	mux.HandleFunc("DELETE /api/auth/google", s.handleGoogleDisconnect)

	// Diagnostics
	mux.HandleFunc("GET /api/test-env", s.handleTestEnv)
	mux.HandleFunc("GET /api/test-resend", s.handleTestEmailStatus)
	mux.HandleFunc("POST /api/test-resend", s.handleTestEmailSend)
	mux.HandleFunc("GET /api/test-calendar", s.handleTestCalendar)
}

func (s *Server) Start() error {
	s.logger.Info("starting HTTP server", zap.String("addr", fmt.Sprintf("http://localhost:%d", s.port)))
	return s.httpSrv.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpSrv.Shutdown(ctx)
}

// Handler returns the server's HTTP handler for testing purposes
func (s *Server) Handler() http.Handler {
	return s.httpSrv.Handler
}
