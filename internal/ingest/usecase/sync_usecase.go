package usecase

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"linkdeck-backend/internal/ingest/domain"
	"linkdeck-backend/internal/ingest/repository"
)

// DefaultHeartbeatInterval is how often a live run refreshes its heartbeat.
const DefaultHeartbeatInterval = 30 * time.Second

type syncUsecase struct {
	runs       repository.SyncRunRepository
	emails     repository.EmailRepository
	links      repository.LinkRepository
	logs       repository.SyncLogRepository
	senders    repository.SenderRepository
	settings   repository.SettingsRepository
	mail       MailClient
	extractor  LinkExtractor
	logger     *zap.Logger
	hbInterval time.Duration
}

func NewSyncUsecase(
	runs repository.SyncRunRepository,
	emails repository.EmailRepository,
	links repository.LinkRepository,
	logs repository.SyncLogRepository,
	senders repository.SenderRepository,
	settings repository.SettingsRepository,
	mail MailClient,
	extractor LinkExtractor,
	logger *zap.Logger,
) SyncUsecase {
	return &syncUsecase{
		runs:       runs,
		emails:     emails,
		links:      links,
		logs:       logs,
		senders:    senders,
		settings:   settings,
		mail:       mail,
		extractor:  extractor,
		logger:     logger,
		hbInterval: DefaultHeartbeatInterval,
	}
}

// runProgress holds the live counters of one run. The heartbeat goroutine
// snapshots them concurrently with the processing loop.
type runProgress struct {
	fetched   atomic.Int64
	processed atomic.Int64
	inserted  atomic.Int64
	stored    atomic.Int64
}

func (p *runProgress) snapshot() domain.Progress {
	return domain.Progress{
		FetchedEmails:   int(p.fetched.Load()),
		ProcessedEmails: int(p.processed.Load()),
		InsertedEmails:  int(p.inserted.Load()),
		StoredLinks:     int(p.stored.Load()),
	}
}

func (u *syncUsecase) RunSync(ctx context.Context) (*domain.SyncSummary, error) {
	run, err := u.runs.Start(ctx)
	if err != nil {
		return nil, err
	}
	u.logger.Info("sync run started", zap.String("run_id", run.ID))

	progress := &runProgress{}

	hbCtx, stopHeartbeat := context.WithCancel(context.Background())
	hbDone := make(chan struct{})
	go u.heartbeatLoop(hbCtx, run.ID, progress, hbDone)

	// Finish must run exactly once, with the heartbeat stopped first so it
	// cannot resurrect a finished row.
	finished := false
	finish := func(runErr error) {
		if finished {
			return
		}
		finished = true
		stopHeartbeat()
		<-hbDone

		status := domain.SyncRunStatusSuccess
		name, tag, message := domain.ClassifyRunError(runErr)
		if runErr != nil {
			status = domain.SyncRunStatusError
		}
		if err := u.runs.Finish(context.Background(), run.ID, status, progress.snapshot(), name, tag, message); err != nil {
			u.logger.Error("failed to finish sync run", zap.String("run_id", run.ID), zap.Error(err))
		}
		u.logger.Info("sync run finished",
			zap.String("run_id", run.ID),
			zap.String("status", string(status)),
			zap.Int("inserted", int(progress.inserted.Load())),
		)
	}
	defer func() {
		if r := recover(); r != nil {
			finish(fmt.Errorf("panic during sync run: %v", r))
			panic(r)
		}
	}()

	summary, err := u.executeRun(ctx, progress)
	finish(err)
	if err != nil {
		return nil, err
	}
	return summary, nil
}

func (u *syncUsecase) executeRun(ctx context.Context, progress *runProgress) (*domain.SyncSummary, error) {
	settings, err := u.settings.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load settings: %w", err)
	}
	senders, err := u.senders.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load senders: %w", err)
	}

	ids, err := u.mail.ListMessages(ctx, queryPatterns(senders), int64(settings.NormalizedFetchLimit()))
	if err != nil {
		return nil, err
	}
	progress.fetched.Store(int64(len(ids)))

	for _, gmailID := range ids {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		u.processMessage(ctx, gmailID, senders, progress)
		progress.processed.Add(1)
	}

	return &domain.SyncSummary{Fetched: int(progress.inserted.Load())}, nil
}

// processMessage handles one message id end to end. Per-message failures are
// recorded and swallowed so one bad email never kills the run.
func (u *syncUsecase) processMessage(ctx context.Context, gmailID string, senders []*domain.Sender, progress *runProgress) {
	msg, err := u.mail.GetMessageFull(ctx, gmailID)
	if err != nil {
		name, tag, message := domain.ClassifyRunError(err)
		u.logger.Warn("failed to fetch message",
			zap.String("gmail_id", gmailID),
			zap.String("tag", tag),
			zap.Error(err),
		)
		// No email row exists yet, so the entry carries the gmail id only.
		u.appendLog(ctx, &domain.SyncLogEntry{
			GmailID:      gmailID,
			Status:       domain.SyncLogStatusError,
			ErrorName:    name,
			ErrorTag:     tag,
			ErrorMessage: message,
		})
		return
	}

	// The upstream query already filters by sender, but domain-wide search
	// terms can overmatch. Re-resolve locally; an empty sender table means
	// ingest everything unread.
	if len(senders) > 0 && domain.MatchSender(senders, msg.From) == nil {
		u.logger.Debug("skipping message from unregistered sender",
			zap.String("gmail_id", gmailID),
			zap.String("from", msg.From),
		)
		return
	}

	email, created, err := u.emails.Upsert(ctx, &domain.Email{
		GmailID:    msg.GmailID,
		From:       msg.From,
		Subject:    msg.Subject,
		ReceivedAt: msg.ReceivedAt,
	})
	if err != nil {
		u.logger.Error("failed to store email", zap.String("gmail_id", gmailID), zap.Error(err))
		return
	}
	if !created {
		// Already ingested by an earlier run. Idempotent skip: no links, no
		// log entry.
		u.logger.Debug("skipping known email", zap.String("gmail_id", gmailID))
		return
	}
	progress.inserted.Add(1)

	stored, err := u.extractAndStore(ctx, email, msg)
	if err != nil {
		return
	}
	progress.stored.Add(int64(stored))

	// Best effort: a failed mark leaves the message unread for the next run,
	// which the gmail_id dedup already absorbs.
	if err := u.mail.MarkAsRead(ctx, gmailID); err != nil {
		u.logger.Warn("failed to mark message as read", zap.String("gmail_id", gmailID), zap.Error(err))
	} else if err := u.emails.SetMarkedAsRead(ctx, email.ID); err != nil {
		u.logger.Warn("failed to record read flag", zap.String("email_id", email.ID), zap.Error(err))
	}
}

// extractAndStore runs extraction for one email and persists the outcome:
// links plus a log entry on success, error flag plus a log entry on failure.
func (u *syncUsecase) extractAndStore(ctx context.Context, email *domain.Email, msg *domain.InboundMessage) (int, error) {
	extracted, err := u.extractor.Extract(ctx, msg)
	if err != nil {
		name, tag, message := domain.ClassifyRunError(err)
		u.logger.Warn("extraction failed",
			zap.String("gmail_id", email.GmailID),
			zap.String("tag", tag),
			zap.Error(err),
		)
		if dbErr := u.emails.SetExtractionError(ctx, email.ID, true); dbErr != nil {
			u.logger.Error("failed to flag extraction error", zap.String("email_id", email.ID), zap.Error(dbErr))
		}
		u.appendLog(ctx, &domain.SyncLogEntry{
			EmailID:      email.ID,
			GmailID:      email.GmailID,
			Status:       domain.SyncLogStatusError,
			ErrorName:    name,
			ErrorTag:     tag,
			ErrorMessage: message,
		})
		return 0, err
	}

	stored := 0
	for _, link := range extracted {
		created, err := u.links.InsertDedup(ctx, &domain.Link{
			EmailID:     email.ID,
			URL:         link.URL,
			Title:       linkTitle(link),
			Description: link.Description,
			Status:      domain.LinkStatusPending,
		})
		if err != nil {
			u.logger.Error("failed to store link", zap.String("url", link.URL), zap.Error(err))
			continue
		}
		if created {
			stored++
		}
	}

	u.appendLog(ctx, &domain.SyncLogEntry{
		EmailID:            email.ID,
		GmailID:            email.GmailID,
		Status:             domain.SyncLogStatusSuccess,
		ExtractedLinkCount: len(extracted),
		StoredLinkCount:    stored,
	})
	if err := u.emails.SetExtractionError(ctx, email.ID, false); err != nil {
		u.logger.Error("failed to clear extraction error", zap.String("email_id", email.ID), zap.Error(err))
	}
	if err := u.emails.MarkProcessed(ctx, email.ID); err != nil {
		u.logger.Error("failed to mark email processed", zap.String("email_id", email.ID), zap.Error(err))
	}
	return stored, nil
}

func (u *syncUsecase) RetryEmail(ctx context.Context, emailID string) (*domain.RetryResult, error) {
	email, err := u.emails.GetByID(ctx, emailID)
	if err != nil {
		return nil, err
	}

	msg, err := u.mail.GetMessageFull(ctx, email.GmailID)
	if err != nil {
		name, tag, message := domain.ClassifyRunError(err)
		u.appendLog(ctx, &domain.SyncLogEntry{
			EmailID:      email.ID,
			GmailID:      email.GmailID,
			Status:       domain.SyncLogStatusError,
			ErrorName:    name,
			ErrorTag:     tag,
			ErrorMessage: message,
		})
		return &domain.RetryResult{Status: domain.SyncLogStatusError}, nil
	}

	stored, err := u.extractAndStore(ctx, email, msg)
	if err != nil {
		return &domain.RetryResult{Status: domain.SyncLogStatusError}, nil
	}
	return &domain.RetryResult{Status: domain.SyncLogStatusSuccess, StoredLinkCount: stored}, nil
}

func (u *syncUsecase) GetActiveRun(ctx context.Context) (*domain.SyncRun, error) {
	return u.runs.GetActive(ctx)
}

func (u *syncUsecase) ListRuns(ctx context.Context, status domain.SyncRunStatus, limit int) ([]*domain.SyncRun, error) {
	return u.runs.List(ctx, status, limit)
}

func (u *syncUsecase) heartbeatLoop(ctx context.Context, runID string, progress *runProgress, done chan<- struct{}) {
	defer close(done)
	ticker := time.NewTicker(u.hbInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := u.runs.Heartbeat(context.Background(), runID, progress.snapshot()); err != nil {
				u.logger.Warn("heartbeat failed", zap.String("run_id", runID), zap.Error(err))
			}
		}
	}
}

func (u *syncUsecase) appendLog(ctx context.Context, entry *domain.SyncLogEntry) {
	if err := u.logs.Append(ctx, entry); err != nil {
		u.logger.Error("failed to append sync log", zap.String("email_id", entry.EmailID), zap.Error(err))
	}
}

// queryPatterns turns registered senders into mailbox search terms. Wildcards
// drop their *@ prefix because the upstream search matches bare domains.
func queryPatterns(senders []*domain.Sender) []string {
	patterns := make([]string, 0, len(senders))
	for _, sender := range senders {
		pattern := strings.TrimPrefix(sender.Email, "*@")
		if pattern != "" {
			patterns = append(patterns, pattern)
		}
	}
	return patterns
}

// linkTitle backfills the title from the description so pattern-extracted
// links carry the email subject as their display title.
func linkTitle(link domain.ExtractedLink) string {
	if link.Title != "" {
		return link.Title
	}
	return link.Description
}
