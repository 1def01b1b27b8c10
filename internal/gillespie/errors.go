package gillespie

import (
	"errors"
	"fmt"
)

// Domain errors for simulation setup.
var (
	// ErrConfiguration indicates inconsistent network shapes or missing inputs.
	ErrConfiguration = errors.New("gillespie: invalid configuration")

	// ErrInvalidParameter indicates a numeric parameter outside its valid range.
	ErrInvalidParameter = errors.New("gillespie: parameter out of valid range")

	// ErrStreamExhausted indicates a random stream ran out of draws mid-run,
	// e.g. a replayed block captured from a shorter trajectory.
	ErrStreamExhausted = errors.New("gillespie: random stream exhausted")
)

// ConfigError describes a shape or length mismatch detected before any
// trajectory runs.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("%s: %s: %s", ErrConfiguration.Error(), e.Field, e.Reason)
}

func (e *ConfigError) Unwrap() error {
	return ErrConfiguration
}

// ParamError describes an out-of-range statistical or run parameter.
type ParamError struct {
	Name   string
	Value  float64
	Reason string
}

func (e *ParamError) Error() string {
	return fmt.Sprintf("%s: %s=%g: %s", ErrInvalidParameter.Error(), e.Name, e.Value, e.Reason)
}

func (e *ParamError) Unwrap() error {
	return ErrInvalidParameter
}

func configErrorf(field, format string, args ...any) error {
	return &ConfigError{Field: field, Reason: fmt.Sprintf(format, args...)}
}
