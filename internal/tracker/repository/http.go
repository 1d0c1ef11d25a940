package repository

import (
	"context"
	"errors"
	"net/http"
	"os"

	"stock-tracker/pkg/apperror"
)

// classifyHTTPStatus maps a provider response status onto the error
// taxonomy: rate limits and server errors are retryable, auth and
// client errors are not.
func classifyHTTPStatus(provider string, status int) error {
	switch {
	case status == http.StatusTooManyRequests:
		return apperror.Newf(apperror.TransientProvider, "%s rate limited (status %d)", provider, status)
	case status >= 500:
		return apperror.Newf(apperror.TransientProvider, "%s server error (status %d)", provider, status)
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return apperror.Newf(apperror.PermanentProvider, "%s auth failure (status %d)", provider, status)
	default:
		return apperror.Newf(apperror.PermanentProvider, "%s request rejected (status %d)", provider, status)
	}
}

// classifyTransportError treats timeouts and connection failures as
// transient. Context cancellation passes through untouched so callers
// can distinguish shutdown from provider trouble.
func classifyTransportError(provider string, err error) error {
	if errors.Is(err, context.Canceled) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, os.ErrDeadlineExceeded) {
		return apperror.Wrap(apperror.TransientProvider, err, provider+" request timed out")
	}
	return apperror.Wrap(apperror.TransientProvider, err, provider+" request failed")
}
