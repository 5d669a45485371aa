package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/neexbeast/weather-fetcher/internal/forecast"
)

type options struct {
	apiKey  string
	scheme  string
	host    string
	timeout time.Duration
	verbose bool
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:   "forecast [current|weekly] <city>",
		Short: "Fetch an OpenWeatherMap forecast for a city",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := forecast.ParseKind(args[0])
			if err != nil {
				return err
			}
			city := strings.Join(args[1:], " ")
			return run(cmd.Context(), cmd.OutOrStdout(), opts, kind, city)
		},
		SilenceUsage: true,
	}

	cmd.Flags().StringVar(&opts.apiKey, "api-key", os.Getenv("OPENWEATHER_API_KEY"), "OpenWeatherMap API key (env OPENWEATHER_API_KEY)")
	cmd.Flags().StringVar(&opts.scheme, "scheme", forecast.DefaultScheme, "provider URL scheme")
	cmd.Flags().StringVar(&opts.host, "host", forecast.DefaultHost, "provider host")
	cmd.Flags().DurationVar(&opts.timeout, "timeout", 10*time.Second, "request timeout")
	cmd.Flags().BoolVarP(&opts.verbose, "verbose", "v", false, "log request details to stderr")

	return cmd
}

func run(ctx context.Context, out io.Writer, opts *options, kind forecast.Kind, city string) error {
	if opts.apiKey == "" {
		return fmt.Errorf("missing API key: set --api-key or OPENWEATHER_API_KEY")
	}

	level := slog.LevelWarn
	if opts.verbose {
		level = slog.LevelDebug
	}
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	endpoint := forecast.DefaultEndpoint(opts.apiKey)
	endpoint.Scheme = opts.scheme
	endpoint.Host = opts.host
	client := forecast.NewClient(endpoint,
		forecast.WithDoer(&http.Client{Timeout: opts.timeout}),
		forecast.WithLogger(log),
	)

	var v any
	var err error
	switch kind {
	case forecast.KindCurrent:
		v, err = client.CurrentWeatherForecast(ctx, city)
	case forecast.KindWeekly:
		v, err = client.WeeklyWeatherForecast(ctx, city)
	}
	if err != nil {
		return fmt.Errorf("fetching %s forecast for %s: %w", kind, city, err)
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
