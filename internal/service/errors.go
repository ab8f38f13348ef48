package service

import (
	"errors"
	"net/http"
)

// Pipeline failure taxonomy. Every stage maps its own failures onto exactly
// one of these before returning; handlers translate them to HTTP statuses.
// Raw upstream error bodies never reach the client.
var (
	ErrInvalidInput        = errors.New("invalid input")
	ErrUnauthenticated     = errors.New("unauthenticated")
	ErrOriginRejected      = errors.New("origin rejected")
	ErrTargetUnreachable   = errors.New("target unreachable")
	ErrRateLimited         = errors.New("rate limited")
	ErrExtractionFailed    = errors.New("extraction failed")
	ErrUpstreamTimeout     = errors.New("upstream timeout")
	ErrUpstreamUnavailable = errors.New("upstream unavailable")
)

// StatusFor maps a pipeline error to its HTTP status code.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, ErrUnauthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, ErrOriginRejected):
		return http.StatusForbidden
	case errors.Is(err, ErrTargetUnreachable):
		return http.StatusUnprocessableEntity
	case errors.Is(err, ErrRateLimited):
		return http.StatusTooManyRequests
	case errors.Is(err, ErrExtractionFailed):
		return http.StatusInternalServerError
	case errors.Is(err, ErrUpstreamTimeout):
		return http.StatusGatewayTimeout
	case errors.Is(err, ErrUpstreamUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// MessageFor returns the safe, client-facing message for a pipeline error.
// Full detail stays in the server logs.
func MessageFor(err error) string {
	switch {
	case errors.Is(err, ErrInvalidInput):
		return "invalid request"
	case errors.Is(err, ErrUnauthenticated):
		return "unauthorized"
	case errors.Is(err, ErrOriginRejected):
		return "forbidden"
	case errors.Is(err, ErrTargetUnreachable):
		return "could not fetch the requested page"
	case errors.Is(err, ErrRateLimited):
		return "rate limit exceeded"
	case errors.Is(err, ErrExtractionFailed):
		return "could not extract a recipe from the page"
	case errors.Is(err, ErrUpstreamTimeout):
		return "the request took too long, please try again"
	case errors.Is(err, ErrUpstreamUnavailable):
		return "the service is temporarily unavailable, please try again"
	default:
		return "internal server error"
	}
}
