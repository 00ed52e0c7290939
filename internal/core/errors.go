package core

import "errors"

// Error codes sent to clients in error frames.
const (
	ErrCodeAuth             = "auth_error"
	ErrCodeMalformedMessage = "malformed_message"
	ErrCodePersistence      = "persistence_error"
	ErrCodeDelivery         = "delivery_error"
	ErrCodeRegistryFull     = "registry_full"
	ErrCodeRateLimited      = "rate_limited"
	ErrCodeInternal         = "internal_error"
)

var (
	// ErrAuth is returned for a missing, undecodable or rejected token.
	ErrAuth = errors.New("authentication failed")
	// ErrMalformedMessage is returned for inbound payloads that are not a valid chat message.
	ErrMalformedMessage = errors.New("malformed message")
	// ErrPersistence is returned when the store rejects a message.
	ErrPersistence = errors.New("persistence failed")
	// ErrDelivery is returned when a send to one peer fails.
	ErrDelivery = errors.New("delivery failed")
	// ErrRegistryFull is returned when the registry is at its connection limit.
	ErrRegistryFull = errors.New("registry full")
	// ErrRateLimited is returned when a connection exceeds its inbound message budget.
	ErrRateLimited = errors.New("rate limited")
)

// ErrorCode maps an error from this package onto its wire code.
func ErrorCode(err error) string {
	switch {
	case errors.Is(err, ErrAuth):
		return ErrCodeAuth
	case errors.Is(err, ErrMalformedMessage):
		return ErrCodeMalformedMessage
	case errors.Is(err, ErrPersistence):
		return ErrCodePersistence
	case errors.Is(err, ErrDelivery):
		return ErrCodeDelivery
	case errors.Is(err, ErrRegistryFull):
		return ErrCodeRegistryFull
	case errors.Is(err, ErrRateLimited):
		return ErrCodeRateLimited
	default:
		return ErrCodeInternal
	}
}
