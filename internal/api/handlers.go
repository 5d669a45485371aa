package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/neexbeast/weather-fetcher/internal/forecast"
)

// statusClientClosedRequest is the nginx convention for a request the client abandoned.
const statusClientClosedRequest = 499

// Handlers holds the dependencies for all HTTP handlers.
type Handlers struct {
	fetcher ForecastFetcher
	log     *slog.Logger
}

// NewHandlers constructs Handlers with all required dependencies.
func NewHandlers(fetcher ForecastFetcher, log *slog.Logger) *Handlers {
	return &Handlers{fetcher: fetcher, log: log}
}

// writeJSON encodes v as JSON and writes it with the given status code.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// clientGone writes 499 and reports true when err stems from the client
// cancelling the request.
func (h *Handlers) clientGone(w http.ResponseWriter, r *http.Request, city string, err error) bool {
	if !errors.Is(err, context.Canceled) || r.Context().Err() == nil {
		return false
	}
	h.log.Info("client went away", "city", city)
	w.WriteHeader(statusClientClosedRequest)
	return true
}

// writeForecastError maps a fetch error to a status code and JSON body.
func (h *Handlers) writeForecastError(w http.ResponseWriter, r *http.Request, city string, err error) {
	if h.clientGone(w, r, city, err) {
		return
	}

	status := http.StatusBadGateway
	kind := "internal"

	var we *forecast.WeatherError
	if errors.As(err, &we) {
		kind = we.Kind.String()
		if we.Kind == forecast.ErrStatus && we.Status == http.StatusNotFound {
			status = http.StatusNotFound
		}
	} else {
		status = http.StatusInternalServerError
	}

	h.log.Error("forecast fetch failed", "city", city, "kind", kind, "err", err)
	writeJSON(w, status, map[string]string{"error": err.Error(), "kind": kind})
}

// GetCurrent handles GET /api/v1/weather/{city}.
func (h *Handlers) GetCurrent(w http.ResponseWriter, r *http.Request) {
	city := chi.URLParam(r, "city")

	resp, err := h.fetcher.CurrentWeatherForecast(r.Context(), city)
	if err != nil {
		h.writeForecastError(w, r, city, err)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// GetWeekly handles GET /api/v1/forecast/{city}.
func (h *Handlers) GetWeekly(w http.ResponseWriter, r *http.Request) {
	city := chi.URLParam(r, "city")

	resp, err := h.fetcher.WeeklyWeatherForecast(r.Context(), city)
	if err != nil {
		h.writeForecastError(w, r, city, err)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// GetOverview handles GET /api/v1/overview/{city}.
// Partial data is returned with 200; 502 only when both parts failed.
func (h *Handlers) GetOverview(w http.ResponseWriter, r *http.Request) {
	city := chi.URLParam(r, "city")

	o, err := forecast.FetchOverview(r.Context(), h.fetcher, city)
	if err != nil {
		h.log.Error("overview fetch failed", "city", city, "err", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	status := http.StatusOK
	if o.Current == nil && o.Weekly == nil {
		if h.clientGone(w, r, city, o.CurrentErr()) {
			return
		}
		status = http.StatusBadGateway
	}
	writeJSON(w, status, o)
}

// HealthCheck handles GET /api/v1/health.
func HealthCheck(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
