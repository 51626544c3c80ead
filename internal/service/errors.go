package service

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrMissingData marks a lookup that cannot produce a record from the payloads it was given
	ErrMissingData = errors.New("missing vehicle data")

	// ErrMalformedTestData marks test history that cannot be normalized
	ErrMalformedTestData = errors.New("malformed test data")

	// ErrInvalidRegistration is returned for a blank registration
	ErrInvalidRegistration = errors.New("invalid registration")

	// ErrInsufficientData marks metrics requested on an empty or degenerate history
	ErrInsufficientData = errors.New("insufficient test data")
)

// Provider identifies an upstream data source
type Provider string

const (
	// ProviderMOT is the MOT history API (provider A)
	ProviderMOT Provider = "mot"
	// ProviderVES is the DVLA Vehicle Enquiry Service (provider B)
	ProviderVES Provider = "ves"
)

// UpstreamError is returned when a provider payload itself reports a failure.
// The upstream answered; it just said no.
type UpstreamError struct {
	Provider Provider
	Code     string
	Message  string
}

func (e *UpstreamError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("%s provider error %s: %s", e.Provider, e.Code, e.Message)
	}
	return fmt.Sprintf("%s provider error: %s", e.Provider, e.Message)
}

// Unwrap lets callers treat an upstream refusal as missing data
func (e *UpstreamError) Unwrap() error {
	return ErrMissingData
}

// NotFound reports whether the provider said the vehicle does not exist
func (e *UpstreamError) NotFound() bool {
	if e.Code == "404" {
		return true
	}
	msg := strings.ToLower(e.Message)
	return strings.Contains(msg, "not found") || strings.Contains(msg, "no data found")
}

// MissingDataError is returned when a payload or a required field is
// structurally absent in a way no default resolves
type MissingDataError struct {
	Provider Provider
	Field    string
	Reason   string
}

func (e *MissingDataError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("missing data from %s for %q: %s", e.Provider, e.Field, e.Reason)
	}
	return fmt.Sprintf("missing data from %s: %s", e.Provider, e.Reason)
}

func (e *MissingDataError) Is(target error) bool {
	return target == ErrMissingData
}

// MalformedTestDataError is returned when a test entry cannot be normalized.
// Index is the position of the offending test, or -1 for the list itself.
type MalformedTestDataError struct {
	Index  int
	Reason string
}

func (e *MalformedTestDataError) Error() string {
	if e.Index < 0 {
		return fmt.Sprintf("malformed test history: %s", e.Reason)
	}
	return fmt.Sprintf("malformed test %d: %s", e.Index, e.Reason)
}

func (e *MalformedTestDataError) Is(target error) bool {
	return target == ErrMalformedTestData
}
