package actions

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/omriShneor/alfred_assistant/internal/intent"
	"github.com/omriShneor/alfred_assistant/internal/metrics"
	"github.com/omriShneor/alfred_assistant/internal/weather"
)

func (d *Dispatcher) getWeather(ctx context.Context, params intent.Params, log *zap.Logger) *Result {
	if d.deps.Weather == nil || !d.deps.Weather.IsConfigured() {
		return failed(intent.Weather, "Weather API not configured. Please set up OpenWeatherMap API key.")
	}

	location := params.StringOr("location", intent.DefaultLocation)

	began := time.Now()
	conditions, err := d.deps.Weather.Current(ctx, location)
	metrics.RecordExternalCall("weather", err, time.Since(began))
	if err != nil {
		log.Error("weather lookup failed", zap.String("location", location), zap.Error(err))
		switch {
		case errors.Is(err, weather.ErrUnauthorized):
			return failed(intent.Weather, "Weather API: Invalid API key. Please check your WEATHER_API_KEY in .env.local")
		case errors.Is(err, weather.ErrNotFound):
			return failed(intent.Weather, fmt.Sprintf("Weather API: Location %q not found. Please try a different city name.", location))
		default:
			return failed(intent.Weather, "Weather API Error: "+err.Error())
		}
	}

	return succeeded(intent.Weather, fmt.Sprintf("Weather in %s:", location), *conditions)
}
