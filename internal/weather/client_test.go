package weather

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	c := NewClient("test-key")
	c.apiURL = server.URL
	return c
}

func TestCurrent(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "San Francisco", r.URL.Query().Get("q"))
		assert.Equal(t, "test-key", r.URL.Query().Get("appid"))
		assert.Equal(t, "metric", r.URL.Query().Get("units"))
		w.Write([]byte(`{
			"name": "San Francisco",
			"main": {"temp": 17.6, "humidity": 72},
			"weather": [{"description": "light fog"}, {"description": "mist"}],
			"wind": {"speed": 4.1}
		}`))
	})

	got, err := c.Current(context.Background(), "San Francisco")
	require.NoError(t, err)
	assert.Equal(t, &Conditions{
		Location:    "San Francisco",
		Temperature: 18,
		Condition:   "light fog",
		Humidity:    72,
		WindSpeed:   4.1,
	}, got)
}

func TestCurrent_Errors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantIs  error
		wantMsg string
	}{
		{"unauthorized", http.StatusUnauthorized, `{"cod":401,"message":"Invalid API key."}`, ErrUnauthorized, ""},
		{"not found", http.StatusNotFound, `{"cod":"404","message":"city not found"}`, ErrNotFound, ""},
		{"other with message", http.StatusTooManyRequests, `{"message":"quota exceeded"}`, nil, "quota exceeded"},
		{"other without message", http.StatusBadGateway, `oops`, nil, "Weather API error: 502"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			})

			_, err := c.Current(context.Background(), "Atlantis")
			require.Error(t, err)
			if tt.wantIs != nil {
				assert.True(t, errors.Is(err, tt.wantIs))
				return
			}
			var apiErr *APIError
			require.True(t, errors.As(err, &apiErr))
			assert.Equal(t, tt.status, apiErr.StatusCode)
			assert.Equal(t, tt.wantMsg, apiErr.Error())
		})
	}
}

func TestIsConfigured(t *testing.T) {
	assert.True(t, NewClient("k").IsConfigured())
	assert.False(t, NewClient("").IsConfigured())

	var c *Client
	assert.False(t, c.IsConfigured())
}
