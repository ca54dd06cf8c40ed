// Package errors defines the canonical failure kinds of the bridge engine and
// their mapping onto HTTP statuses.
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind names one canonical failure class. Values are stable and appear on the wire.
type Kind string

const (
	KindMissingParameter          Kind = "MissingParameter"
	KindInvalidDestinationURL     Kind = "InvalidDestinationUrl"
	KindProviderTimeout           Kind = "ProviderTimeout"
	KindProviderUnauthorized      Kind = "ProviderUnauthorized"
	KindProviderUnreachable       Kind = "ProviderUnreachable"
	KindProviderMalformedResponse Kind = "ProviderMalformedResponse"
	KindProviderBusinessError     Kind = "ProviderBusinessError"
	KindTokenExhausted            Kind = "TokenExhausted"
	KindStoreUnavailable          Kind = "StoreUnavailable"
	KindNotFound                  Kind = "NotFound"
)

// ErrTokenNotFound is returned when a redirect lookup misses.
var ErrTokenNotFound = errors.New("token not found")

// ErrInvalidURL is returned when a URL cannot be coerced to an absolute http(s) URL.
var ErrInvalidURL = errors.New("invalid URL format")

// ErrTokenGenerationFailed is returned when every minted token collided.
var ErrTokenGenerationFailed = errors.New("failed to generate unique token")

// ErrProviderNotFound is returned when a named provider is not registered.
var ErrProviderNotFound = errors.New("provider not found")

// BridgeError is the structured failure returned across every public contract
// of the engine. RequestURL never carries the provider credential.
type BridgeError struct {
	Kind       Kind
	Message    string
	Detail     string
	RawBody    string
	RequestURL string
	Err        error
}

// Error returns the kind and message, plus the cause when there is one.
func (e *BridgeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap returns the cause.
func (e *BridgeError) Unwrap() error {
	return e.Err
}

// HTTPStatus returns the wire status for the error kind.
func (e *BridgeError) HTTPStatus() int {
	return StatusFor(e.Kind)
}

// WireStatus returns "error-classified" for failures attributed to the
// upstream provider and "error" for everything else.
func (e *BridgeError) WireStatus() string {
	if e.Kind.IsProvider() {
		return "error-classified"
	}
	return "error"
}

// IsProvider reports whether the kind describes an upstream provider failure.
func (k Kind) IsProvider() bool {
	switch k {
	case KindProviderTimeout, KindProviderUnauthorized, KindProviderUnreachable,
		KindProviderMalformedResponse, KindProviderBusinessError:
		return true
	}
	return false
}

// Retryable reports whether a fresh top-level attempt may succeed.
func (k Kind) Retryable() bool {
	switch k {
	case KindProviderTimeout, KindTokenExhausted, KindStoreUnavailable, KindProviderUnreachable:
		return true
	}
	return false
}

// StatusFor maps a kind to its HTTP status.
func StatusFor(k Kind) int {
	switch k {
	case KindMissingParameter, KindInvalidDestinationURL:
		return http.StatusBadRequest
	case KindProviderTimeout:
		return http.StatusGatewayTimeout
	case KindProviderUnauthorized, KindProviderUnreachable,
		KindProviderMalformedResponse, KindProviderBusinessError:
		return http.StatusBadGateway
	case KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// New builds a BridgeError of the given kind.
func New(kind Kind, message string) *BridgeError {
	return &BridgeError{Kind: kind, Message: message}
}

// Wrap builds a BridgeError that keeps err as its cause.
func Wrap(kind Kind, message string, err error) *BridgeError {
	return &BridgeError{Kind: kind, Message: message, Err: err}
}

// As extracts a BridgeError from an error chain.
func As(err error) (*BridgeError, bool) {
	var be *BridgeError
	if errors.As(err, &be) {
		return be, true
	}
	return nil, false
}

// KindOf returns the kind of err, or KindStoreUnavailable for unclassified errors.
func KindOf(err error) Kind {
	if be, ok := As(err); ok {
		return be.Kind
	}
	if errors.Is(err, ErrTokenNotFound) {
		return KindNotFound
	}
	return KindStoreUnavailable
}
