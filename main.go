package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/omriShneor/alfred_assistant/internal/actions"
	"github.com/omriShneor/alfred_assistant/internal/assistant"
	"github.com/omriShneor/alfred_assistant/internal/config"
	"github.com/omriShneor/alfred_assistant/internal/database"
	"github.com/omriShneor/alfred_assistant/internal/gcal"
	"github.com/omriShneor/alfred_assistant/internal/llm"
	"github.com/omriShneor/alfred_assistant/internal/logger"
	"github.com/omriShneor/alfred_assistant/internal/notify"
	"github.com/omriShneor/alfred_assistant/internal/server"
	"github.com/omriShneor/alfred_assistant/internal/ui"
	"github.com/omriShneor/alfred_assistant/internal/weather"
)

func main() {
	root := &cobra.Command{
		Use:          "alfred",
		Short:        "Chat assistant that turns messages into calendar, email, weather and UI actions",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe()
		},
	}

	root.AddCommand(
		&cobra.Command{
			Use:   "serve",
			Short: "Start the HTTP server",
			RunE: func(cmd *cobra.Command, args []string) error {
				return runServe()
			},
		},
		newClassifyCommand(),
		newResolveCommand(),
	)

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func runServe() error {
	cfg := config.LoadFromEnv()

	log, err := logger.New(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer log.Sync()

	db, err := initDatabase(cfg, log)
	if err != nil {
		return fmt.Errorf("creating database: %w", err)
	}
	if db != nil {
		defer db.Close()
	}

	gcalClient := initCalendar(cfg, db, log)
	emailSender := initEmail(cfg, log)
	weatherClient := weather.NewClient(cfg.WeatherAPIKey).WithAPIURL(cfg.WeatherAPIURL)
	if !weatherClient.IsConfigured() {
		log.Warn("WEATHER_API_KEY not set, weather lookups disabled")
	}

	dispatcher := actions.NewDispatcher(actions.Config{
		CalendarID: cfg.GoogleCalendarID,
		TimeZone:   cfg.TimeZone,
		BaseURL:    cfg.BaseURL,
		FromEmail:  cfg.ResendFromEmail,
	}, actions.Deps{
		Calendar: gcalClient,
		Email:    emailSender,
		Weather:  weatherClient,
		UI:       ui.NewHTMLRenderer(),
	}, log)

	chat := assistant.NewService(initCompleter(cfg, log), dispatcher, log)

	var tokens server.TokenStore
	if db != nil {
		tokens = db
	}

	srv := server.New(server.ServerConfig{
		Port:       cfg.HTTPPort,
		Chat:       chat,
		Calendar:   gcalClient,
		Email:      emailSender,
		Env:        server.NewEnvStatus(cfg),
		FromEmail:  cfg.ResendFromEmail,
		TokenStore: tokens,
		Logger:     log,
	})

	go func() {
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			log.Error("HTTP server error", zap.Error(err))
		}
	}()

	waitForShutdown(srv, log)
	return nil
}

func initDatabase(cfg *config.Config, log *zap.Logger) (*database.DB, error) {
	if cfg.DBPath == "" {
		log.Info("ALFRED_DB_PATH not set, OAuth tokens will not be persisted")
		return nil, nil
	}
	return database.New(cfg.DBPath, cfg.EncryptionKey, log)
}

func initCompleter(cfg *config.Config, log *zap.Logger) llm.Completer {
	if cfg.LLMAPIKey() == "" {
		log.Warn("language model API key not set, replies will use the fallback classifier",
			zap.String("provider", cfg.LLMProvider))
	}

	if cfg.LLMProvider == config.ProviderAnthropic {
		log.Info("language model configured", zap.String("provider", "anthropic"))
		return llm.NewAnthropicClient(cfg.AnthropicAPIKey, cfg.LLMModel, cfg.LLMTemperature).WithAPIURL(cfg.LLMAPIURL)
	}
	log.Info("language model configured", zap.String("provider", "openrouter"))
	return llm.NewOpenRouterClient(cfg.OpenRouterAPIKey, cfg.LLMModel, cfg.BaseURL).WithAPIURL(cfg.LLMAPIURL)
}

func initCalendar(cfg *config.Config, db *database.DB, log *zap.Logger) *gcal.Client {
	gcalCfg := gcal.Config{
		ClientID:            cfg.GoogleClientID,
		ClientSecret:        cfg.GoogleClientSecret,
		RedirectURL:         cfg.GoogleRedirectURI,
		RefreshToken:        cfg.GoogleRefreshToken,
		ServiceAccountEmail: cfg.GoogleClientEmail,
		PrivateKey:          cfg.GooglePrivateKey,
	}

	var store gcal.TokenStore
	if db != nil {
		store = db
	}

	client := gcal.NewClient(gcalCfg, store, log)
	switch client.Mode() {
	case gcal.ModeNone:
		log.Warn("Google Calendar not configured (GOOGLE_CLIENT_ID/SECRET or GOOGLE_CLIENT_EMAIL/PRIVATE_KEY required)")
	default:
		log.Info("Google Calendar configured", zap.String("mode", string(client.Mode())))
	}
	return client
}

func initEmail(cfg *config.Config, log *zap.Logger) notify.EmailSender {
	sender := notify.NewEmailSender(notify.Config{
		Provider:       cfg.EmailProvider,
		ResendAPIKey:   cfg.ResendAPIKey,
		SendGridAPIKey: cfg.SendGridAPIKey,
		FromEmail:      cfg.ResendFromEmail,
		FromName:       cfg.EmailFromName,
	}, log)
	if sender == nil {
		log.Warn("email provider not configured", zap.String("provider", cfg.EmailProvider))
		return nil
	}
	log.Info("email service configured", zap.String("provider", sender.Name()))
	return sender
}

func waitForShutdown(srv *server.Server, log *zap.Logger) {
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	<-c

	log.Info("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Warn("server shutdown", zap.Error(err))
	}
}
