package api_test

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/neexbeast/weather-fetcher/internal/api"
	"github.com/neexbeast/weather-fetcher/internal/forecast"
)

// ---- mock implementations ----

type mockFetcher struct {
	currentFn func(ctx context.Context, city string) (*forecast.CurrentWeatherForecastResponse, error)
	weeklyFn  func(ctx context.Context, city string) (*forecast.WeeklyForecastResponse, error)
}

func (m *mockFetcher) CurrentWeatherForecast(ctx context.Context, city string) (*forecast.CurrentWeatherForecastResponse, error) {
	return m.currentFn(ctx, city)
}

func (m *mockFetcher) WeeklyWeatherForecast(ctx context.Context, city string) (*forecast.WeeklyForecastResponse, error) {
	return m.weeklyFn(ctx, city)
}

// ---- helpers ----

const testToken = "secret-token"

func sampleCurrent(city string) *forecast.CurrentWeatherForecastResponse {
	return &forecast.CurrentWeatherForecastResponse{
		Name:    city,
		Main:    forecast.MainReadings{Temp: 22.5},
		Weather: []forecast.Condition{{Description: "clear sky"}},
	}
}

func sampleWeekly(city string) *forecast.WeeklyForecastResponse {
	return &forecast.WeeklyForecastResponse{
		Cnt:  1,
		List: []forecast.ForecastItem{{Dt: 1700000000, Main: forecast.MainReadings{Temp: 10.1}}},
		City: forecast.ForecastCity{Name: city},
	}
}

func okFetcher() *mockFetcher {
	return &mockFetcher{
		currentFn: func(_ context.Context, city string) (*forecast.CurrentWeatherForecastResponse, error) {
			return sampleCurrent(city), nil
		},
		weeklyFn: func(_ context.Context, city string) (*forecast.WeeklyForecastResponse, error) {
			return sampleWeekly(city), nil
		},
	}
}

func buildRouter(fetcher api.ForecastFetcher) http.Handler {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	handlers := api.NewHandlers(fetcher, log)
	return api.NewRouter(handlers, testToken, []string{"*"})
}

func doGet(t *testing.T, router http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	req.Header.Set("Authorization", "Bearer "+testToken)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

// ---- GET /api/v1/weather/{city} ----

func TestGetCurrent_Success(t *testing.T) {
	var gotCity string
	fetcher := okFetcher()
	fetcher.currentFn = func(_ context.Context, city string) (*forecast.CurrentWeatherForecastResponse, error) {
		gotCity = city
		return sampleCurrent(city), nil
	}

	w := doGet(t, buildRouter(fetcher), "/api/v1/weather/London")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "London", gotCity)
	var got forecast.CurrentWeatherForecastResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&got))
	assert.Equal(t, "London", got.Name)
	assert.Equal(t, 22.5, got.Main.Temp)
}

func TestGetCurrent_EscapedCity(t *testing.T) {
	var gotCity string
	fetcher := okFetcher()
	fetcher.currentFn = func(_ context.Context, city string) (*forecast.CurrentWeatherForecastResponse, error) {
		gotCity = city
		return sampleCurrent(city), nil
	}

	w := doGet(t, buildRouter(fetcher), "/api/v1/weather/New%20York")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "New York", gotCity)
}

func TestGetCurrent_ErrorMapping(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode int
		wantKind string
	}{
		{"network", &forecast.WeatherError{Kind: forecast.ErrNetwork, Description: "no such host"}, http.StatusBadGateway, "network"},
		{"decode", &forecast.WeatherError{Kind: forecast.ErrDecode, Description: "bad body"}, http.StatusBadGateway, "decode"},
		{"not found", &forecast.WeatherError{Kind: forecast.ErrStatus, Status: 404, Description: "city not found"}, http.StatusNotFound, "status"},
		{"unauthorized upstream", &forecast.WeatherError{Kind: forecast.ErrStatus, Status: 401, Description: "Invalid API key"}, http.StatusBadGateway, "status"},
		{"untyped", fmt.Errorf("something else"), http.StatusInternalServerError, "internal"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fetcher := okFetcher()
			fetcher.currentFn = func(context.Context, string) (*forecast.CurrentWeatherForecastResponse, error) {
				return nil, tt.err
			}

			w := doGet(t, buildRouter(fetcher), "/api/v1/weather/London")

			assert.Equal(t, tt.wantCode, w.Code)
			var body map[string]string
			require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
			assert.Equal(t, tt.wantKind, body["kind"])
			assert.NotEmpty(t, body["error"])
		})
	}
}

func cancelledWeatherError() error {
	return &forecast.WeatherError{Kind: forecast.ErrNetwork, Description: "context canceled", Err: context.Canceled}
}

func doCancelledGet(t *testing.T, router http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	req := httptest.NewRequest(http.MethodGet, path, nil).WithContext(ctx)
	req.Header.Set("Authorization", "Bearer "+testToken)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestGetCurrent_ClientCancelled(t *testing.T) {
	fetcher := okFetcher()
	fetcher.currentFn = func(context.Context, string) (*forecast.CurrentWeatherForecastResponse, error) {
		return nil, cancelledWeatherError()
	}

	w := doCancelledGet(t, buildRouter(fetcher), "/api/v1/weather/London")

	assert.Equal(t, 499, w.Code)
	assert.Empty(t, w.Body.String())
}

func TestGetCurrent_CanceledUpstreamWithLiveClient(t *testing.T) {
	// The request context is still live, so this is a plain network failure.
	fetcher := okFetcher()
	fetcher.currentFn = func(context.Context, string) (*forecast.CurrentWeatherForecastResponse, error) {
		return nil, cancelledWeatherError()
	}

	w := doGet(t, buildRouter(fetcher), "/api/v1/weather/London")
	assert.Equal(t, http.StatusBadGateway, w.Code)
}

// ---- GET /api/v1/forecast/{city} ----

func TestGetWeekly_Success(t *testing.T) {
	w := doGet(t, buildRouter(okFetcher()), "/api/v1/forecast/Paris")

	assert.Equal(t, http.StatusOK, w.Code)
	var got forecast.WeeklyForecastResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&got))
	assert.Equal(t, "Paris", got.City.Name)
	require.Len(t, got.List, 1)
}

func TestGetWeekly_NetworkError(t *testing.T) {
	fetcher := okFetcher()
	fetcher.weeklyFn = func(context.Context, string) (*forecast.WeeklyForecastResponse, error) {
		return nil, &forecast.WeatherError{Kind: forecast.ErrNetwork, Description: "timeout"}
	}

	w := doGet(t, buildRouter(fetcher), "/api/v1/forecast/Paris")
	assert.Equal(t, http.StatusBadGateway, w.Code)
}

// ---- GET /api/v1/overview/{city} ----

func TestGetOverview_Success(t *testing.T) {
	w := doGet(t, buildRouter(okFetcher()), "/api/v1/overview/Paris")

	assert.Equal(t, http.StatusOK, w.Code)
	var got forecast.Overview
	require.NoError(t, json.NewDecoder(w.Body).Decode(&got))
	require.NotNil(t, got.Current)
	require.NotNil(t, got.Weekly)
	assert.Empty(t, got.Errors)
}

func TestGetOverview_PartialData(t *testing.T) {
	fetcher := okFetcher()
	fetcher.weeklyFn = func(context.Context, string) (*forecast.WeeklyForecastResponse, error) {
		return nil, &forecast.WeatherError{Kind: forecast.ErrNetwork, Description: "timeout"}
	}

	w := doGet(t, buildRouter(fetcher), "/api/v1/overview/Paris")

	assert.Equal(t, http.StatusOK, w.Code)
	var got forecast.Overview
	require.NoError(t, json.NewDecoder(w.Body).Decode(&got))
	require.NotNil(t, got.Current)
	assert.Nil(t, got.Weekly)
	assert.Contains(t, got.Errors, "weekly")
}

func TestGetOverview_AllFail(t *testing.T) {
	fail := &forecast.WeatherError{Kind: forecast.ErrNetwork, Description: "down"}
	fetcher := &mockFetcher{
		currentFn: func(context.Context, string) (*forecast.CurrentWeatherForecastResponse, error) { return nil, fail },
		weeklyFn:  func(context.Context, string) (*forecast.WeeklyForecastResponse, error) { return nil, fail },
	}

	w := doGet(t, buildRouter(fetcher), "/api/v1/overview/Paris")
	assert.Equal(t, http.StatusBadGateway, w.Code)
}

func TestGetOverview_ClientCancelled(t *testing.T) {
	fetcher := &mockFetcher{
		currentFn: func(context.Context, string) (*forecast.CurrentWeatherForecastResponse, error) {
			return nil, cancelledWeatherError()
		},
		weeklyFn: func(context.Context, string) (*forecast.WeeklyForecastResponse, error) {
			return nil, cancelledWeatherError()
		},
	}

	w := doCancelledGet(t, buildRouter(fetcher), "/api/v1/overview/Paris")

	assert.Equal(t, 499, w.Code)
	assert.Empty(t, w.Body.String())
}

// ---- GET /api/v1/health ----

func TestHealth_OK(t *testing.T) {
	router := buildRouter(nil)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/health", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	var body map[string]string
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	assert.Equal(t, "ok", body["status"])
}

// ---- Auth middleware ----

func TestBearerAuth_NoHeader(t *testing.T) {
	router := buildRouter(nil)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/weather/Paris", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestBearerAuth_WrongToken(t *testing.T) {
	router := buildRouter(nil)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/forecast/Paris", nil)
	req.Header.Set("Authorization", "Bearer wrong-token")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestBearerAuth_MissingBearerPrefix(t *testing.T) {
	router := buildRouter(nil)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/weather/Paris", nil)
	req.Header.Set("Authorization", testToken) // no "Bearer " prefix
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

// ---- CORS ----

func TestCORS_Preflight(t *testing.T) {
	router := buildRouter(nil)
	req := httptest.NewRequest(http.MethodOptions, "/api/v1/weather/Paris", nil)
	req.Header.Set("Origin", "https://example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}
