package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

func init() {
	// Load .env files if they exist (silently ignore if not found).
	// godotenv never overrides a variable that is already set, so
	// .env.local wins over .env.
	_ = godotenv.Load(".env.local")
	_ = godotenv.Load()
}

const (
	DefaultBaseURL      = "http://localhost:3000"
	googleCallbackPath  = "/api/auth/google/callback"
	ProviderOpenRouter  = "openrouter"
	ProviderAnthropic   = "anthropic"
	EmailProviderResend = "resend"
)

type Config struct {
	// Language model
	LLMProvider      string
	LLMModel         string
	LLMTemperature   float64
	LLMAPIURL        string
	OpenRouterAPIKey string
	AnthropicAPIKey  string

	// Public URL of this service, used for OAuth redirects and referer headers
	BaseURL string

	// Google Calendar
	GoogleClientID     string
	GoogleClientSecret string
	GoogleRedirectURI  string
	GoogleRefreshToken string
	GoogleClientEmail  string
	GooglePrivateKey   string
	GoogleCalendarID   string
	TimeZone           string

	// Email
	EmailProvider   string
	ResendAPIKey    string
	ResendFromEmail string
	SendGridAPIKey  string
	EmailFromName   string

	WeatherAPIKey string
	WeatherAPIURL string

	// Optional with defaults
	DBPath        string
	EncryptionKey string
	HTTPPort      int
	LogLevel      string
}

func LoadFromEnv() *Config {
	baseURL := strings.TrimRight(getEnvOrDefault("ALFRED_BASE_URL", getEnvOrDefault("NEXT_PUBLIC_BASE_URL", DefaultBaseURL)), "/")

	cfg := &Config{
		LLMProvider:      strings.ToLower(getEnvOrDefault("ALFRED_LLM_PROVIDER", ProviderOpenRouter)),
		LLMModel:         os.Getenv("ALFRED_LLM_MODEL"),
		LLMTemperature:   getEnvAsFloatOrDefault("ALFRED_LLM_TEMPERATURE", 0.1),
		LLMAPIURL:        os.Getenv("ALFRED_LLM_API_URL"),
		OpenRouterAPIKey: os.Getenv("OPENROUTER_API_KEY"),
		AnthropicAPIKey:  os.Getenv("ANTHROPIC_API_KEY"),

		BaseURL: baseURL,

		GoogleClientID:     os.Getenv("GOOGLE_CLIENT_ID"),
		GoogleClientSecret: os.Getenv("GOOGLE_CLIENT_SECRET"),
		GoogleRedirectURI:  getEnvOrDefault("GOOGLE_REDIRECT_URI", baseURL+googleCallbackPath),
		GoogleRefreshToken: os.Getenv("GOOGLE_REFRESH_TOKEN"),
		GoogleClientEmail:  os.Getenv("GOOGLE_CLIENT_EMAIL"),
		GooglePrivateKey:   os.Getenv("GOOGLE_PRIVATE_KEY"),
		GoogleCalendarID:   getEnvOrDefault("GOOGLE_CALENDAR_ID", "primary"),
		TimeZone:           os.Getenv("ALFRED_TIMEZONE"),

		EmailProvider:   strings.ToLower(getEnvOrDefault("EMAIL_PROVIDER", EmailProviderResend)),
		ResendAPIKey:    os.Getenv("RESEND_API_KEY"),
		ResendFromEmail: os.Getenv("RESEND_FROM_EMAIL"),
		SendGridAPIKey:  os.Getenv("SENDGRID_API_KEY"),
		EmailFromName:   os.Getenv("ALFRED_EMAIL_FROM_NAME"),

		WeatherAPIKey: os.Getenv("WEATHER_API_KEY"),
		WeatherAPIURL: os.Getenv("WEATHER_API_URL"),

		DBPath:        os.Getenv("ALFRED_DB_PATH"),
		EncryptionKey: os.Getenv("ALFRED_ENCRYPTION_KEY"),
		HTTPPort:      getEnvAsIntOrDefault("ALFRED_HTTP_PORT", 3000),
		LogLevel:      getEnvOrDefault("ALFRED_LOG_LEVEL", "info"),
	}

	return cfg
}

// LLMAPIKey returns the key for the selected provider
func (c *Config) LLMAPIKey() string {
	if c.LLMProvider == ProviderAnthropic {
		return c.AnthropicAPIKey
	}
	return c.OpenRouterAPIKey
}

// HasGoogleOAuth reports whether OAuth client credentials are set
func (c *Config) HasGoogleOAuth() bool {
	return c.GoogleClientID != "" && c.GoogleClientSecret != ""
}

// HasGoogleServiceAccount reports whether service account credentials are set
func (c *Config) HasGoogleServiceAccount() bool {
	return c.GoogleClientEmail != "" && c.GooglePrivateKey != ""
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsFloatOrDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}
