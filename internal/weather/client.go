package weather

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"time"
)

const defaultAPIURL = "https://api.openweathermap.org/data/2.5/weather"

var (
	// ErrUnauthorized is returned when OpenWeatherMap rejects the API key
	ErrUnauthorized = errors.New("weather: invalid API key")
	// ErrNotFound is returned when the location is unknown to OpenWeatherMap
	ErrNotFound = errors.New("weather: location not found")
)

// APIError is any other non-2xx response
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("Weather API error: %d", e.StatusCode)
}

// Conditions is the current weather at a location in metric units
type Conditions struct {
	Location    string  `json:"location"`
	Temperature int     `json:"temperature"`
	Condition   string  `json:"condition"`
	Humidity    int     `json:"humidity"`
	WindSpeed   float64 `json:"windSpeed"`
}

// Client is an OpenWeatherMap current-weather client
type Client struct {
	apiKey     string
	apiURL     string
	httpClient *http.Client
}

// NewClient creates a new OpenWeatherMap client
func NewClient(apiKey string) *Client {
	return &Client{
		apiKey: apiKey,
		apiURL: defaultAPIURL,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

// WithAPIURL points the client at another current-weather endpoint
func (c *Client) WithAPIURL(apiURL string) *Client {
	if apiURL != "" {
		c.apiURL = apiURL
	}
	return c
}

// IsConfigured returns true if the client has an API key
func (c *Client) IsConfigured() bool {
	return c != nil && c.apiKey != ""
}

type currentResponse struct {
	Name string `json:"name"`
	Main struct {
		Temp     float64 `json:"temp"`
		Humidity int     `json:"humidity"`
	} `json:"main"`
	Weather []struct {
		Description string `json:"description"`
	} `json:"weather"`
	Wind struct {
		Speed float64 `json:"speed"`
	} `json:"wind"`
}

// Current fetches the current conditions for location
func (c *Client) Current(ctx context.Context, location string) (*Conditions, error) {
	q := url.Values{}
	q.Set("q", location)
	q.Set("appid", c.apiKey)
	q.Set("units", "metric")

	req, err := http.NewRequestWithContext(ctx, "GET", c.apiURL+"?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return nil, ErrUnauthorized
	case resp.StatusCode == http.StatusNotFound:
		return nil, fmt.Errorf("%w: %s", ErrNotFound, location)
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		var apiErr struct {
			Message string `json:"message"`
		}
		_ = json.Unmarshal(body, &apiErr)
		return nil, &APIError{StatusCode: resp.StatusCode, Message: apiErr.Message}
	}

	var data currentResponse
	if err := json.Unmarshal(body, &data); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}

	conditions := &Conditions{
		Location:    data.Name,
		Temperature: int(math.Round(data.Main.Temp)),
		Humidity:    data.Main.Humidity,
		WindSpeed:   data.Wind.Speed,
	}
	if len(data.Weather) > 0 {
		conditions.Condition = data.Weather[0].Description
	}
	return conditions, nil
}
