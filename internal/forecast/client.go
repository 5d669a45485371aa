package forecast

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"
)

const (
	httpTimeout = 10 * time.Second
	// maxErrorBody bounds how much of a non-2xx body is read for its message.
	maxErrorBody = 64 << 10
)

// Doer is the transport used by Client. *http.Client satisfies it.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Fetchable is the interface satisfied by Client.
type Fetchable interface {
	CurrentWeatherForecast(ctx context.Context, city string) (*CurrentWeatherForecastResponse, error)
	WeeklyWeatherForecast(ctx context.Context, city string) (*WeeklyForecastResponse, error)
}

// Client fetches forecasts from OpenWeatherMap. It holds no per-call state
// and is safe for concurrent use.
type Client struct {
	endpoint Endpoint
	doer     Doer
	log      *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithDoer replaces the default HTTP client.
func WithDoer(d Doer) Option {
	return func(c *Client) { c.doer = d }
}

// WithLogger sets the logger used for request diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) { c.log = l }
}

// NewClient constructs a Client for the given endpoint.
func NewClient(ep Endpoint, opts ...Option) *Client {
	c := &Client{
		endpoint: ep,
		doer:     &http.Client{Timeout: httpTimeout},
		log:      slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

var _ Fetchable = (*Client)(nil)

// CurrentWeatherForecast fetches current conditions for city.
func (c *Client) CurrentWeatherForecast(ctx context.Context, city string) (*CurrentWeatherForecastResponse, error) {
	resp, err := Fetch[CurrentWeatherForecastResponse](ctx, c, city, KindCurrent)
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

// WeeklyWeatherForecast fetches the multi-day forecast for city.
func (c *Client) WeeklyWeatherForecast(ctx context.Context, city string) (*WeeklyForecastResponse, error) {
	resp, err := Fetch[WeeklyForecastResponse](ctx, c, city, KindWeekly)
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

// Fetch issues one GET for (city, kind) and decodes the body as T.
// Every failure is a *WeatherError.
func Fetch[T any](ctx context.Context, c *Client, city string, kind Kind) (T, error) {
	var zero T

	rs, err := NewRequestSpec(c.endpoint, city, kind)
	if err != nil {
		return zero, newNetworkError(urlErrorDescription, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rs.URL(), nil)
	if err != nil {
		return zero, newNetworkError(urlErrorDescription, err)
	}
	req.Header.Set("Accept", "application/json")

	log := c.log.With("city", city, "kind", kind.String())
	log.Debug("forecast request", "host", rs.Host, "path", rs.Path)

	resp, err := c.doer.Do(req)
	if err != nil {
		log.Warn("forecast request failed", "err", transportMessage(err))
		return zero, newNetworkError(transportMessage(err), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		werr := statusError(resp)
		log.Warn("forecast provider returned error status", "status", resp.StatusCode, "message", werr.Description)
		return zero, werr
	}

	v, err := decodeBody[T](resp.Body)
	if err != nil {
		log.Warn("forecast decode failed", "err", err)
		return zero, &WeatherError{
			Kind:        ErrDecode,
			Description: fmt.Sprintf("decoding %s response: %v", kind, err),
			Err:         err,
		}
	}

	return v, nil
}

var errNullBody = errors.New("body is null")

// decodeBody decodes exactly one JSON value from r into T. A null body and
// any data after the first value are errors.
func decodeBody[T any](r io.Reader) (T, error) {
	var v T

	dec := json.NewDecoder(r)
	var raw json.RawMessage
	if err := dec.Decode(&raw); err != nil {
		return v, err
	}
	if string(raw) == "null" {
		return v, errNullBody
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		if err == nil {
			return v, errors.New("unexpected data after JSON value")
		}
		return v, fmt.Errorf("unexpected data after JSON value: %w", err)
	}

	if err := json.Unmarshal(raw, &v); err != nil {
		return v, err
	}
	return v, nil
}

// transportMessage returns the transport's own description of err. The
// *url.Error wrapper is dropped because its text carries the full URL,
// API key included.
func transportMessage(err error) string {
	var ue *url.Error
	if errors.As(err, &ue) && ue.Err != nil {
		return ue.Err.Error()
	}
	return err.Error()
}

type providerError struct {
	Message string `json:"message"`
}

func statusError(resp *http.Response) *WeatherError {
	werr := &WeatherError{
		Kind:        ErrStatus,
		Status:      resp.StatusCode,
		Description: http.StatusText(resp.StatusCode),
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if err != nil {
		return werr
	}
	var pe providerError
	if json.Unmarshal(body, &pe) == nil && pe.Message != "" {
		werr.Description = pe.Message
	}
	return werr
}

// Result is the single outcome of an asynchronous fetch.
type Result[T any] struct {
	Value T
	Err   error
}

// FetchAsync runs Fetch in a new goroutine. The returned channel receives
// exactly one Result and is then closed. Cancelling ctx aborts only this call.
// A fetch error is a *WeatherError; a panic in the transport is delivered as
// a plain error.
func FetchAsync[T any](ctx context.Context, c *Client, city string, kind Kind) <-chan Result[T] {
	ch := make(chan Result[T], 1)
	go func() {
		defer close(ch)
		defer func() {
			if r := recover(); r != nil {
				c.log.Error("forecast fetch panicked", "city", city, "kind", kind.String(), "recover", r)
				ch <- Result[T]{Err: fmt.Errorf("forecast fetch panicked: %v", r)}
			}
		}()
		v, err := Fetch[T](ctx, c, city, kind)
		ch <- Result[T]{Value: v, Err: err}
	}()
	return ch
}
