package usecase

import (
	"context"

	"linkdeck-backend/internal/ingest/domain"
)

// MailClient is the upstream mailbox the orchestrator ingests from.
type MailClient interface {
	ListMessages(ctx context.Context, senderPatterns []string, maxResults int64) ([]string, error)
	GetMessageFull(ctx context.Context, messageID string) (*domain.InboundMessage, error)
	MarkAsRead(ctx context.Context, messageID string) error
}

// LinkExtractor turns one fetched message into its content links.
type LinkExtractor interface {
	Extract(ctx context.Context, msg *domain.InboundMessage) ([]domain.ExtractedLink, error)
}

// BookmarkSaver pushes a link to the external bookmark service.
type BookmarkSaver interface {
	Save(ctx context.Context, url, title, excerpt string) (string, error)
}

type SyncUsecase interface {
	// RunSync executes one full ingestion run. Admission failures surface as
	// AlreadyRunningError before any work happens.
	RunSync(ctx context.Context) (*domain.SyncSummary, error)
	// RetryEmail re-processes one known email outside of a run. Fetch and
	// extraction failures are reported in the result, not as errors.
	RetryEmail(ctx context.Context, emailID string) (*domain.RetryResult, error)
	GetActiveRun(ctx context.Context) (*domain.SyncRun, error)
	ListRuns(ctx context.Context, status domain.SyncRunStatus, limit int) ([]*domain.SyncRun, error)
}

type LinkUsecase interface {
	ListLinks(ctx context.Context, status domain.LinkStatus, limit int) ([]*domain.Link, error)
	// UpdateLinkStatus moves a link between pending, saved and discarded.
	// Moving to saved pushes the link to the bookmark service first; the
	// status only changes after the push succeeds.
	UpdateLinkStatus(ctx context.Context, id string, status domain.LinkStatus) (*domain.Link, error)
}
