package gmail

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"google.golang.org/api/googleapi"

	"linkdeck-backend/internal/ingest/domain"
)

// classify maps a Gmail API failure into the shared error taxonomy. The
// messageID is non-empty only for per-message calls, where a 404 means the
// message itself is gone rather than a broken endpoint.
func classify(err error, messageID string) error {
	var tagged domain.TaggedError
	if errors.As(err, &tagged) {
		return err
	}

	var apiErr *googleapi.Error
	if !errors.As(err, &apiErr) {
		return &domain.NetworkError{Message: "gmail request failed", Cause: err}
	}

	switch apiErr.Code {
	case http.StatusUnauthorized, http.StatusForbidden:
		return &domain.TokenExpiredError{Message: fmt.Sprintf("gmail rejected credentials (status %d)", apiErr.Code)}
	case http.StatusNotFound:
		if messageID != "" {
			return &domain.MessageNotFoundError{MessageID: messageID}
		}
		return &domain.NetworkError{Message: "gmail endpoint not found", Cause: err}
	case http.StatusTooManyRequests:
		return &domain.RateLimitedError{RetryAfter: retryAfterFromHeader(apiErr.Header)}
	default:
		return &domain.NetworkError{Message: fmt.Sprintf("gmail api status %d", apiErr.Code), Cause: err}
	}
}

func retryAfterFromHeader(header http.Header) *time.Duration {
	value := header.Get("Retry-After")
	if value == "" {
		return nil
	}
	secs, err := strconv.Atoi(value)
	if err != nil || secs < 0 {
		return nil
	}
	d := time.Duration(secs) * time.Second
	return &d
}
