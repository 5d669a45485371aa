package forecast

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a WeatherError.
type ErrorKind int

const (
	// ErrNetwork covers URL construction and transport failures.
	ErrNetwork ErrorKind = iota + 1
	// ErrDecode means the body did not match the requested shape.
	ErrDecode
	// ErrStatus means the provider answered with a non-2xx status.
	ErrStatus
)

func (k ErrorKind) String() string {
	switch k {
	case ErrNetwork:
		return "network"
	case ErrDecode:
		return "decode"
	case ErrStatus:
		return "status"
	default:
		return "unknown"
	}
}

const urlErrorDescription = "Couldn't create url"

// WeatherError is the error returned by every failed fetch.
type WeatherError struct {
	Kind        ErrorKind
	Description string
	// Status is the HTTP status code for ErrStatus, zero otherwise.
	Status int
	Err    error
}

func (e *WeatherError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s error (HTTP %d): %s", e.Kind, e.Status, e.Description)
	}
	return fmt.Sprintf("%s error: %s", e.Kind, e.Description)
}

func (e *WeatherError) Unwrap() error { return e.Err }

func newNetworkError(description string, err error) *WeatherError {
	return &WeatherError{Kind: ErrNetwork, Description: description, Err: err}
}

func kindOf(err error) ErrorKind {
	var we *WeatherError
	if errors.As(err, &we) {
		return we.Kind
	}
	return 0
}

// IsNetwork reports whether err is a network WeatherError.
func IsNetwork(err error) bool { return kindOf(err) == ErrNetwork }

// IsDecode reports whether err is a decode WeatherError.
func IsDecode(err error) bool { return kindOf(err) == ErrDecode }

// IsStatus reports whether err is a provider status WeatherError.
func IsStatus(err error) bool { return kindOf(err) == ErrStatus }
