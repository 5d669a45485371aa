package forecast

import (
	"errors"
	"fmt"
	"net/url"
	"unicode"
	"unicode/utf8"
)

const (
	DefaultScheme = "https"
	DefaultHost   = "api.openweathermap.org"
)

// ErrInvalidURL is returned when a request URL cannot be built.
var ErrInvalidURL = errors.New("invalid request url")

// Endpoint holds the provider settings shared by all requests.
type Endpoint struct {
	Scheme string
	Host   string
	APIKey string
}

// DefaultEndpoint returns the production OpenWeatherMap endpoint for apiKey.
func DefaultEndpoint(apiKey string) Endpoint {
	return Endpoint{Scheme: DefaultScheme, Host: DefaultHost, APIKey: apiKey}
}

// RequestSpec is a fully resolved provider request.
type RequestSpec struct {
	Scheme string
	Host   string
	Path   string
	Query  url.Values
}

// NewRequestSpec maps city and kind to a provider request.
// An empty city is accepted and sent as an empty q parameter.
func NewRequestSpec(ep Endpoint, city string, kind Kind) (RequestSpec, error) {
	path := kind.Path()
	if path == "" {
		return RequestSpec{}, fmt.Errorf("%w: unknown kind %s", ErrInvalidURL, kind)
	}
	if ep.Scheme == "" || ep.Host == "" {
		return RequestSpec{}, fmt.Errorf("%w: missing scheme or host", ErrInvalidURL)
	}
	if err := validateCity(city); err != nil {
		return RequestSpec{}, err
	}

	q := url.Values{}
	q.Set("q", city)
	q.Set("mode", "json")
	q.Set("units", "metric")
	q.Set("APPID", ep.APIKey)

	return RequestSpec{
		Scheme: ep.Scheme,
		Host:   ep.Host,
		Path:   path,
		Query:  q,
	}, nil
}

func validateCity(city string) error {
	if !utf8.ValidString(city) {
		return fmt.Errorf("%w: city is not valid UTF-8", ErrInvalidURL)
	}
	for _, r := range city {
		if unicode.IsControl(r) {
			return fmt.Errorf("%w: city contains control character %U", ErrInvalidURL, r)
		}
	}
	return nil
}

// URL returns the encoded request URL.
func (s RequestSpec) URL() string {
	u := url.URL{
		Scheme:   s.Scheme,
		Host:     s.Host,
		Path:     s.Path,
		RawQuery: s.Query.Encode(),
	}
	return u.String()
}
