package domain

import "time"

// SyncRunStatus is the lifecycle state of an ingestion run.
type SyncRunStatus string

const (
	SyncRunStatusRunning SyncRunStatus = "running"
	SyncRunStatusSuccess SyncRunStatus = "success"
	SyncRunStatusError   SyncRunStatus = "error"
	SyncRunStatusAborted SyncRunStatus = "aborted"
)

// LinkStatus tracks what the user decided to do with an extracted link.
type LinkStatus string

const (
	LinkStatusPending   LinkStatus = "pending"
	LinkStatusSaved     LinkStatus = "saved"
	LinkStatusDiscarded LinkStatus = "discarded"
)

// SyncLogStatus is the outcome of a single extraction attempt.
type SyncLogStatus string

const (
	SyncLogStatusSuccess SyncLogStatus = "success"
	SyncLogStatusError   SyncLogStatus = "error"
)

// Progress holds the live counters of one ingestion run. All counters are
// monotonically non-decreasing for the lifetime of a run.
type Progress struct {
	FetchedEmails   int `json:"fetchedEmails" gorm:"not null;default:0"`
	ProcessedEmails int `json:"processedEmails" gorm:"not null;default:0"`
	InsertedEmails  int `json:"insertedEmails" gorm:"not null;default:0"`
	StoredLinks     int `json:"storedLinks" gorm:"not null;default:0"`
}

// SyncRun is one ingestion run. At most one row may be in status "running" at
// a time; that invariant is enforced at admission, not by a DB constraint.
type SyncRun struct {
	ID              string        `json:"id" gorm:"primaryKey"`
	Status          SyncRunStatus `json:"status" gorm:"index;not null"`
	StartedAt       time.Time     `json:"started_at"`
	FinishedAt      *time.Time    `json:"finished_at,omitempty"`
	LastHeartbeatAt time.Time     `json:"last_heartbeat_at"`
	Progress        Progress      `json:"progress" gorm:"embedded"`
	ErrorName       string        `json:"error_name,omitempty"`
	ErrorTag        string        `json:"error_tag,omitempty"`
	ErrorMessage    string        `json:"error_message,omitempty"`

	// IsStale is computed at read time relative to the observer's clock and
	// is never persisted.
	IsStale bool `json:"is_stale" gorm:"-"`
}

// Email is one ingested newsletter message, keyed by the upstream Gmail id.
type Email struct {
	ID              string     `json:"id" gorm:"primaryKey"`
	GmailID         string     `json:"gmail_id" gorm:"uniqueIndex;not null"`
	From            string     `json:"from" gorm:"column:from_address"`
	Subject         string     `json:"subject"`
	ReceivedAt      time.Time  `json:"received_at"`
	MarkedAsRead    bool       `json:"marked_as_read"`
	ExtractionError bool       `json:"extraction_error"`
	ProcessedAt     *time.Time `json:"processed_at,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// Link is one content link extracted from an email. URL and Title are unique
// across the whole corpus, not just within one email.
type Link struct {
	ID          string     `json:"id" gorm:"primaryKey"`
	EmailID     string     `json:"email_id" gorm:"index;not null"`
	URL         string     `json:"url" gorm:"uniqueIndex;not null"`
	Title       string     `json:"title" gorm:"index"`
	Description string     `json:"description"`
	Status      LinkStatus `json:"status" gorm:"index;not null"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// SyncLogEntry is the append-only audit trail: one row per extraction attempt,
// never mutated.
type SyncLogEntry struct {
	ID                 string        `json:"id" gorm:"primaryKey"`
	EmailID            string        `json:"email_id" gorm:"index"`
	GmailID            string        `json:"gmail_id" gorm:"index"`
	AttemptedAt        time.Time     `json:"attempted_at"`
	Status             SyncLogStatus `json:"status" gorm:"not null"`
	ExtractedLinkCount int           `json:"extracted_link_count"`
	StoredLinkCount    int           `json:"stored_link_count"`
	ErrorName          string        `json:"error_name,omitempty"`
	ErrorTag           string        `json:"error_tag,omitempty"`
	ErrorMessage       string        `json:"error_message,omitempty"`
}

// Sender is a registered newsletter sender. Email is either an exact address
// or a "*@domain" wildcard. Read-only input to ingestion.
type Sender struct {
	ID        string    `json:"id" gorm:"primaryKey"`
	Email     string    `json:"email" gorm:"uniqueIndex;not null"`
	CreatedAt time.Time `json:"created_at"`
}

// StoredCredential holds the OAuth credential for one upstream provider.
// Mutated only by a successful refresh or a fresh authorization.
type StoredCredential struct {
	Provider     string    `json:"provider" gorm:"primaryKey"`
	AccessToken  string    `json:"-"`
	RefreshToken string    `json:"-"`
	ExpiresAt    time.Time `json:"expires_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Settings is the persisted runtime configuration consumed by the orchestrator
// and the background trigger. Single row.
type Settings struct {
	ID                    int       `json:"-" gorm:"primaryKey"`
	EmailFetchLimit       int       `json:"email_fetch_limit"`
	BackgroundSyncEnabled bool      `json:"background_sync_enabled"`
	SyncHour              int       `json:"sync_hour"`
	TimeZone              string    `json:"time_zone"`
	UpdatedAt             time.Time `json:"updated_at"`
}

const (
	DefaultEmailFetchLimit = 10
	MinEmailFetchLimit     = 1
	MaxEmailFetchLimit     = 50
)

// NormalizedFetchLimit clamps the configured fetch limit into [1, 50],
// falling back to the default when unset.
func (s *Settings) NormalizedFetchLimit() int {
	limit := s.EmailFetchLimit
	if limit == 0 {
		limit = DefaultEmailFetchLimit
	}
	if limit < MinEmailFetchLimit {
		limit = MinEmailFetchLimit
	}
	if limit > MaxEmailFetchLimit {
		limit = MaxEmailFetchLimit
	}
	return limit
}

// InboundMessage is a fully fetched upstream message, decoded from the
// provider's MIME representation.
type InboundMessage struct {
	GmailID    string
	From       string
	Subject    string
	ReceivedAt time.Time
	HTML       string
}

// ExtractedLink is the common output shape of both extraction stages.
type ExtractedLink struct {
	URL         string `json:"url"`
	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`
}

// SyncSummary is the result of one ingestion run. Fetched intentionally
// reports newly inserted emails, not merely processed ones.
type SyncSummary struct {
	Fetched int `json:"fetched"`
}

// RetryResult is the outcome of re-processing a single known email.
type RetryResult struct {
	Status          SyncLogStatus `json:"status"`
	StoredLinkCount int           `json:"storedLinkCount"`
}
