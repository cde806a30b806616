package domain

import (
	"errors"
	"fmt"
	"time"
)

// Sentinel errors shared across layers for stable error mapping.
var (
	// ErrNotFound indicates the requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrNoCredential indicates no stored credential exists for a provider.
	ErrNoCredential = errors.New("no stored credential")

	// ErrSyncAlreadyRunning indicates admission was refused because a fresh
	// running run exists.
	ErrSyncAlreadyRunning = errors.New("sync already running")

	// ErrRunNotRunning indicates a heartbeat was attempted on a run that is
	// no longer in the running state. Programming-error guard, not a
	// recoverable condition.
	ErrRunNotRunning = errors.New("sync run is not running")

	// ErrFastPathNotApplicable indicates the sender does not belong to a
	// known newsletter platform, so the pattern stage was skipped.
	ErrFastPathNotApplicable = errors.New("pattern extraction not applicable")

	// ErrNoPatternLink indicates the sender matched but the HTML contained no
	// recognizable content-link pattern.
	ErrNoPatternLink = errors.New("no pattern link found")
)

// Error tags. Retry decisions and run-finish projection key off these alone;
// call sites never re-inspect status codes.
const (
	TagTokenExpired    = "token_expired"
	TagTokenRefresh    = "token_refresh_failed"
	TagRateLimited     = "rate_limited"
	TagNetwork         = "network_error"
	TagMessageNotFound = "message_not_found"
	TagAuth            = "auth_error"
	TagSaveFailed      = "save_failed"
	TagLLM             = "llm_error"
	TagParse           = "parse_error"
	TagTimeout         = "timeout"
)

// TaggedError is implemented by every error in the taxonomy.
type TaggedError interface {
	error
	Tag() string
}

// AlreadyRunningError carries the id of the run that blocked admission.
type AlreadyRunningError struct {
	RunID string
}

func (e *AlreadyRunningError) Error() string {
	return fmt.Sprintf("sync already running (run %s)", e.RunID)
}

func (e *AlreadyRunningError) Unwrap() error { return ErrSyncAlreadyRunning }

// TokenExpiredError indicates the stored access token is expired and no
// refresh was possible.
type TokenExpiredError struct {
	Message string
}

func (e *TokenExpiredError) Error() string { return e.Message }
func (e *TokenExpiredError) Tag() string   { return TagTokenExpired }

// TokenRefreshError indicates the refresh call itself failed. The operation
// guarded by the token is never attempted.
type TokenRefreshError struct {
	Message string
	Cause   error
}

func (e *TokenRefreshError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}
func (e *TokenRefreshError) Tag() string   { return TagTokenRefresh }
func (e *TokenRefreshError) Unwrap() error { return e.Cause }

// RateLimitedError is the only error the transport retry policy retries.
// RetryAfter is set when the provider sent a numeric Retry-After header.
type RateLimitedError struct {
	RetryAfter *time.Duration
}

func (e *RateLimitedError) Error() string {
	if e.RetryAfter != nil {
		return fmt.Sprintf("rate limited, retry after %s", *e.RetryAfter)
	}
	return "rate limited"
}
func (e *RateLimitedError) Tag() string { return TagRateLimited }

// NetworkError covers transport failures and unclassified upstream statuses.
type NetworkError struct {
	Message string
	Cause   error
}

func (e *NetworkError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}
func (e *NetworkError) Tag() string   { return TagNetwork }
func (e *NetworkError) Unwrap() error { return e.Cause }

// MessageNotFoundError indicates a 404 for a specific upstream message id.
type MessageNotFoundError struct {
	MessageID string
}

func (e *MessageNotFoundError) Error() string {
	return fmt.Sprintf("message %s not found", e.MessageID)
}
func (e *MessageNotFoundError) Tag() string { return TagMessageNotFound }

// AuthError indicates the bookmark API rejected the credential.
type AuthError struct {
	Message string
}

func (e *AuthError) Error() string { return e.Message }
func (e *AuthError) Tag() string   { return TagAuth }

// SaveFailedError indicates the bookmark API refused to store a link.
type SaveFailedError struct {
	URL     string
	Message string
}

func (e *SaveFailedError) Error() string {
	return fmt.Sprintf("save failed for %s: %s", e.URL, e.Message)
}
func (e *SaveFailedError) Tag() string { return TagSaveFailed }

// LLMError covers provider failures of the model-based extraction stage.
type LLMError struct {
	Message string
	Cause   error
}

func (e *LLMError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}
func (e *LLMError) Tag() string   { return TagLLM }
func (e *LLMError) Unwrap() error { return e.Cause }

// ParseError indicates the model produced no usable structured output.
type ParseError struct {
	Message     string
	RawResponse string
}

func (e *ParseError) Error() string { return e.Message }
func (e *ParseError) Tag() string   { return TagParse }

// TimeoutError indicates the model-based stage exceeded its fixed timeout,
// regardless of the underlying cause.
type TimeoutError struct {
	Timeout time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("extraction timed out after %s", e.Timeout)
}
func (e *TimeoutError) Tag() string { return TagTimeout }

// ErrorTag returns the taxonomy tag of err, or "" for foreign errors.
func ErrorTag(err error) string {
	var tagged TaggedError
	if errors.As(err, &tagged) {
		return tagged.Tag()
	}
	return ""
}

// ClassifyRunError projects any error into the name/tag/message triple stored
// on SyncRun and SyncLogEntry rows. Nil yields empty fields.
func ClassifyRunError(err error) (name, tag, message string) {
	if err == nil {
		return "", "", ""
	}
	var tagged TaggedError
	if errors.As(err, &tagged) {
		return errorName(tagged), tagged.Tag(), tagged.Error()
	}
	return "Error", "", err.Error()
}

func errorName(err TaggedError) string {
	switch err.(type) {
	case *TokenExpiredError:
		return "TokenExpiredError"
	case *TokenRefreshError:
		return "TokenRefreshError"
	case *RateLimitedError:
		return "RateLimitedError"
	case *NetworkError:
		return "NetworkError"
	case *MessageNotFoundError:
		return "MessageNotFoundError"
	case *AuthError:
		return "AuthError"
	case *SaveFailedError:
		return "SaveFailedError"
	case *LLMError:
		return "LLMError"
	case *ParseError:
		return "ParseError"
	case *TimeoutError:
		return "TimeoutError"
	default:
		return "Error"
	}
}
