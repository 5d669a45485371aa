package forecast

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"
)

// Overview combines current conditions and the weekly forecast for a city.
// A part that failed is nil and its error message is recorded in Errors.
type Overview struct {
	City    string                          `json:"city"`
	Current *CurrentWeatherForecastResponse `json:"current,omitempty"`
	Weekly  *WeeklyForecastResponse         `json:"weekly,omitempty"`
	Errors  map[string]string               `json:"errors,omitempty"`

	currentErr error
	weeklyErr  error
}

// CurrentErr returns the error of the current-conditions fetch, if any.
func (o *Overview) CurrentErr() error { return o.currentErr }

// WeeklyErr returns the error of the weekly fetch, if any.
func (o *Overview) WeeklyErr() error { return o.weeklyErr }

// FetchOverview fetches both parts for city in parallel. Fetch failures are
// non-fatal: the other part is still returned. An error is returned only if
// a fetch panics.
func FetchOverview(ctx context.Context, f Fetchable, city string) (*Overview, error) {
	g, gCtx := errgroup.WithContext(ctx)

	o := &Overview{City: city}

	g.Go(func() (err error) {
		defer func() {
			if r := recover(); r != nil {
				slog.Error("current forecast fetch panicked", "recover", r)
				err = fmt.Errorf("current forecast fetch panicked: %v", r)
			}
		}()
		cur, fetchErr := f.CurrentWeatherForecast(gCtx, city)
		if fetchErr != nil {
			slog.Warn("current forecast fetch failed", "city", city, "err", fetchErr)
			o.currentErr = fetchErr
			return nil
		}
		o.Current = cur
		return nil
	})

	g.Go(func() (err error) {
		defer func() {
			if r := recover(); r != nil {
				slog.Error("weekly forecast fetch panicked", "recover", r)
				err = fmt.Errorf("weekly forecast fetch panicked: %v", r)
			}
		}()
		wk, fetchErr := f.WeeklyWeatherForecast(gCtx, city)
		if fetchErr != nil {
			slog.Warn("weekly forecast fetch failed", "city", city, "err", fetchErr)
			o.weeklyErr = fetchErr
			return nil
		}
		o.Weekly = wk
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("fetching overview for %s: %w", city, err)
	}

	if o.currentErr != nil || o.weeklyErr != nil {
		o.Errors = make(map[string]string, 2)
		if o.currentErr != nil {
			o.Errors[KindCurrent.String()] = o.currentErr.Error()
		}
		if o.weeklyErr != nil {
			o.Errors[KindWeekly.String()] = o.weeklyErr.Error()
		}
	}

	return o, nil
}
