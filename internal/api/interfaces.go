package api

import (
	"context"

	"github.com/neexbeast/weather-fetcher/internal/forecast"
)

// ForecastFetcher defines the provider operations needed by handlers.
// *forecast.Client satisfies it.
type ForecastFetcher interface {
	CurrentWeatherForecast(ctx context.Context, city string) (*forecast.CurrentWeatherForecastResponse, error)
	WeeklyWeatherForecast(ctx context.Context, city string) (*forecast.WeeklyForecastResponse, error)
}
