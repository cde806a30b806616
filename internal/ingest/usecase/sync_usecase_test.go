package usecase

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"linkdeck-backend/internal/ingest/domain"
	"linkdeck-backend/internal/ingest/repository"
	"linkdeck-backend/pkg/extract"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.New().String())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&domain.SyncRun{},
		&domain.Email{},
		&domain.Link{},
		&domain.SyncLogEntry{},
		&domain.Sender{},
		&domain.StoredCredential{},
		&domain.Settings{},
	))
	return db
}

type fakeMail struct {
	ids      []string
	listErr  error
	messages map[string]*domain.InboundMessage
	fetchErr map[string]error
	marked   []string
	markErr  error
}

func (f *fakeMail) ListMessages(ctx context.Context, senderPatterns []string, maxResults int64) ([]string, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.ids, nil
}

func (f *fakeMail) GetMessageFull(ctx context.Context, messageID string) (*domain.InboundMessage, error) {
	if err, ok := f.fetchErr[messageID]; ok {
		return nil, err
	}
	msg, ok := f.messages[messageID]
	if !ok {
		return nil, &domain.MessageNotFoundError{MessageID: messageID}
	}
	return msg, nil
}

func (f *fakeMail) MarkAsRead(ctx context.Context, messageID string) error {
	if f.markErr != nil {
		return f.markErr
	}
	f.marked = append(f.marked, messageID)
	return nil
}

// countingModel stands in for the model-based extraction stage.
type countingModel struct {
	calls int
	links []domain.ExtractedLink
	err   error
}

func (m *countingModel) Extract(ctx context.Context, msg *domain.InboundMessage) ([]domain.ExtractedLink, error) {
	m.calls++
	return m.links, m.err
}

type syncFixture struct {
	db       *gorm.DB
	runs     repository.SyncRunRepository
	emails   repository.EmailRepository
	links    repository.LinkRepository
	logs     repository.SyncLogRepository
	senders  repository.SenderRepository
	settings repository.SettingsRepository
	mail     *fakeMail
	model    *countingModel
	sync     SyncUsecase
}

func newSyncFixture(t *testing.T, mail *fakeMail) *syncFixture {
	t.Helper()

	db := newTestDB(t)
	f := &syncFixture{
		db:       db,
		runs:     repository.NewSyncRunRepository(db, time.Minute),
		emails:   repository.NewEmailRepository(db),
		links:    repository.NewLinkRepository(db),
		logs:     repository.NewSyncLogRepository(db),
		senders:  repository.NewSenderRepository(db),
		settings: repository.NewSettingsRepository(db),
		mail:     mail,
		model:    &countingModel{},
	}
	pipeline := extract.NewPipeline(extract.NewPatternExtractor(), f.model, zap.NewNop())
	f.sync = NewSyncUsecase(f.runs, f.emails, f.links, f.logs, f.senders, f.settings, mail, pipeline, zap.NewNop())
	return f
}

func substackMessage(gmailID string) *domain.InboundMessage {
	return &domain.InboundMessage{
		GmailID:    gmailID,
		From:       "Author <author@pub.substack.com>",
		Subject:    "Weekly Digest",
		ReceivedAt: time.Now(),
		HTML:       `<a href="https://pub.substack.com/app-link/post?publication_id=1&post_id=2">Read in app</a>`,
	}
}

func TestRunSyncSubstackEndToEnd(t *testing.T) {
	mail := &fakeMail{
		ids:      []string{"m1"},
		messages: map[string]*domain.InboundMessage{"m1": substackMessage("m1")},
	}
	f := newSyncFixture(t, mail)
	ctx := context.Background()
	require.NoError(t, f.senders.Create(ctx, &domain.Sender{Email: "*@substack.com"}))

	summary, err := f.sync.RunSync(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Fetched)

	// The pattern fast path served this email; the model was never consulted.
	assert.Zero(t, f.model.calls)

	var emails []domain.Email
	require.NoError(t, f.db.Find(&emails).Error)
	require.Len(t, emails, 1)
	assert.Equal(t, "m1", emails[0].GmailID)
	assert.True(t, emails[0].MarkedAsRead)
	assert.False(t, emails[0].ExtractionError)
	require.NotNil(t, emails[0].ProcessedAt)

	var links []domain.Link
	require.NoError(t, f.db.Find(&links).Error)
	require.Len(t, links, 1)
	assert.Equal(t, "https://pub.substack.com/app-link/post?publication_id=1&post_id=2", links[0].URL)
	assert.Equal(t, "Weekly Digest", links[0].Title)
	assert.Equal(t, domain.LinkStatusPending, links[0].Status)

	entries, err := f.logs.ListByEmail(ctx, emails[0].ID)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, domain.SyncLogStatusSuccess, entries[0].Status)
	assert.Equal(t, 1, entries[0].StoredLinkCount)

	runs, err := f.runs.List(ctx, "", 0)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, domain.SyncRunStatusSuccess, runs[0].Status)
	assert.Equal(t, domain.Progress{FetchedEmails: 1, ProcessedEmails: 1, InsertedEmails: 1, StoredLinks: 1}, runs[0].Progress)

	assert.Equal(t, []string{"m1"}, mail.marked)
}

func TestRunSyncSecondRunIsIdempotent(t *testing.T) {
	mail := &fakeMail{
		ids:      []string{"m1"},
		messages: map[string]*domain.InboundMessage{"m1": substackMessage("m1")},
	}
	f := newSyncFixture(t, mail)
	ctx := context.Background()

	_, err := f.sync.RunSync(ctx)
	require.NoError(t, err)

	summary, err := f.sync.RunSync(ctx)
	require.NoError(t, err)
	assert.Zero(t, summary.Fetched)

	var emailCount, linkCount, logCount int64
	require.NoError(t, f.db.Model(&domain.Email{}).Count(&emailCount).Error)
	require.NoError(t, f.db.Model(&domain.Link{}).Count(&linkCount).Error)
	require.NoError(t, f.db.Model(&domain.SyncLogEntry{}).Count(&logCount).Error)
	assert.EqualValues(t, 1, emailCount)
	assert.EqualValues(t, 1, linkCount)
	assert.EqualValues(t, 1, logCount)
}

func TestRunSyncRefusedWhileRunning(t *testing.T) {
	f := newSyncFixture(t, &fakeMail{})
	ctx := context.Background()

	blocking, err := f.runs.Start(ctx)
	require.NoError(t, err)

	_, err = f.sync.RunSync(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrSyncAlreadyRunning)

	var running *domain.AlreadyRunningError
	require.ErrorAs(t, err, &running)
	assert.Equal(t, blocking.ID, running.RunID)
}

func TestRunSyncFetchFailureSkipsMessage(t *testing.T) {
	mail := &fakeMail{
		ids:      []string{"m1", "m2"},
		messages: map[string]*domain.InboundMessage{"m2": substackMessage("m2")},
		fetchErr: map[string]error{"m1": &domain.NetworkError{Message: "gmail request failed"}},
	}
	f := newSyncFixture(t, mail)
	ctx := context.Background()

	summary, err := f.sync.RunSync(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Fetched)

	var emailCount int64
	require.NoError(t, f.db.Model(&domain.Email{}).Count(&emailCount).Error)
	assert.EqualValues(t, 1, emailCount)

	// The failed fetch leaves an error entry keyed by gmail id alone, since no
	// email row was ever created for it.
	var entries []domain.SyncLogEntry
	require.NoError(t, f.db.Where("gmail_id = ?", "m1").Find(&entries).Error)
	require.Len(t, entries, 1)
	assert.Equal(t, domain.SyncLogStatusError, entries[0].Status)
	assert.Equal(t, domain.TagNetwork, entries[0].ErrorTag)
	assert.Equal(t, "NetworkError", entries[0].ErrorName)
	assert.Empty(t, entries[0].EmailID)

	runs, err := f.runs.List(ctx, "", 0)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, domain.SyncRunStatusSuccess, runs[0].Status)
	assert.Equal(t, 2, runs[0].Progress.ProcessedEmails)
	assert.Equal(t, 1, runs[0].Progress.InsertedEmails)
}

func TestRunSyncExtractionFailureRecorded(t *testing.T) {
	mail := &fakeMail{
		ids: []string{"m1"},
		messages: map[string]*domain.InboundMessage{"m1": {
			GmailID: "m1",
			From:    "editor@ghost.io",
			Subject: "No links here",
			HTML:    "<p>prose only</p>",
		}},
	}
	f := newSyncFixture(t, mail)
	f.model.err = &domain.LLMError{Message: "provider down"}
	ctx := context.Background()

	summary, err := f.sync.RunSync(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Fetched)

	var emails []domain.Email
	require.NoError(t, f.db.Find(&emails).Error)
	require.Len(t, emails, 1)
	assert.True(t, emails[0].ExtractionError)

	entries, err := f.logs.ListByEmail(ctx, emails[0].ID)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, domain.SyncLogStatusError, entries[0].Status)
	assert.Equal(t, domain.TagLLM, entries[0].ErrorTag)

	var linkCount int64
	require.NoError(t, f.db.Model(&domain.Link{}).Count(&linkCount).Error)
	assert.Zero(t, linkCount)

	// One bad email does not fail the run.
	runs, err := f.runs.List(ctx, "", 0)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, domain.SyncRunStatusSuccess, runs[0].Status)

	// A failed extraction leaves the message unread for a manual retry.
	assert.Empty(t, mail.marked)
}

func TestRunSyncSkipsUnregisteredSender(t *testing.T) {
	mail := &fakeMail{
		ids: []string{"m1"},
		messages: map[string]*domain.InboundMessage{"m1": {
			GmailID: "m1",
			From:    "spam@ghost.io",
			Subject: "unrelated",
		}},
	}
	f := newSyncFixture(t, mail)
	ctx := context.Background()
	require.NoError(t, f.senders.Create(ctx, &domain.Sender{Email: "*@substack.com"}))

	summary, err := f.sync.RunSync(ctx)
	require.NoError(t, err)
	assert.Zero(t, summary.Fetched)

	var emailCount int64
	require.NoError(t, f.db.Model(&domain.Email{}).Count(&emailCount).Error)
	assert.Zero(t, emailCount)

	runs, err := f.runs.List(ctx, "", 0)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, 1, runs[0].Progress.ProcessedEmails)
}

func TestRunSyncListFailureFinishesRunWithError(t *testing.T) {
	mail := &fakeMail{listErr: &domain.TokenRefreshError{Message: "token refresh failed"}}
	f := newSyncFixture(t, mail)
	ctx := context.Background()

	_, err := f.sync.RunSync(ctx)
	require.Error(t, err)
	assert.Equal(t, domain.TagTokenRefresh, domain.ErrorTag(err))

	runs, err := f.runs.List(ctx, "", 0)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, domain.SyncRunStatusError, runs[0].Status)
	assert.Equal(t, "TokenRefreshError", runs[0].ErrorName)
	assert.Equal(t, domain.TagTokenRefresh, runs[0].ErrorTag)
	require.NotNil(t, runs[0].FinishedAt)

	// The failed run does not block the next admission.
	_, err = f.runs.Start(ctx)
	assert.NoError(t, err)
}

func TestRunSyncDeduplicatesAcrossEmails(t *testing.T) {
	first := substackMessage("m1")
	second := substackMessage("m2")

	mail := &fakeMail{
		ids:      []string{"m1", "m2"},
		messages: map[string]*domain.InboundMessage{"m1": first, "m2": second},
	}
	f := newSyncFixture(t, mail)
	ctx := context.Background()

	summary, err := f.sync.RunSync(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, summary.Fetched)

	// Both emails carry the same post link; only the first run stores it.
	var linkCount int64
	require.NoError(t, f.db.Model(&domain.Link{}).Count(&linkCount).Error)
	assert.EqualValues(t, 1, linkCount)

	runs, err := f.runs.List(ctx, "", 0)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, 1, runs[0].Progress.StoredLinks)
}

func TestRetryEmailUnknownID(t *testing.T) {
	f := newSyncFixture(t, &fakeMail{})

	_, err := f.sync.RetryEmail(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestRetryEmailSuccessAfterFailure(t *testing.T) {
	mail := &fakeMail{
		ids:      []string{"m1"},
		messages: map[string]*domain.InboundMessage{"m1": substackMessage("m1")},
		fetchErr: map[string]error{},
	}
	f := newSyncFixture(t, mail)
	f.model.err = &domain.LLMError{Message: "provider down"}
	ctx := context.Background()

	// First ingestion fails extraction: force the message off the fast path.
	mail.messages["m1"].From = "editor@ghost.io"
	_, err := f.sync.RunSync(ctx)
	require.NoError(t, err)

	var email domain.Email
	require.NoError(t, f.db.First(&email).Error)
	require.True(t, email.ExtractionError)

	// The provider recovered.
	f.model.err = nil
	f.model.links = []domain.ExtractedLink{{URL: "https://example.com/post", Title: "The Post"}}

	result, err := f.sync.RetryEmail(ctx, email.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.SyncLogStatusSuccess, result.Status)
	assert.Equal(t, 1, result.StoredLinkCount)

	require.NoError(t, f.db.First(&email, "id = ?", email.ID).Error)
	assert.False(t, email.ExtractionError)

	entries, err := f.logs.ListByEmail(ctx, email.ID)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, domain.SyncLogStatusError, entries[0].Status)
	assert.Equal(t, domain.SyncLogStatusSuccess, entries[1].Status)
}

func TestRetryEmailFetchFailureIsResult(t *testing.T) {
	mail := &fakeMail{
		ids:      []string{"m1"},
		messages: map[string]*domain.InboundMessage{"m1": substackMessage("m1")},
	}
	f := newSyncFixture(t, mail)
	ctx := context.Background()

	_, err := f.sync.RunSync(ctx)
	require.NoError(t, err)

	var email domain.Email
	require.NoError(t, f.db.First(&email).Error)

	mail.fetchErr = map[string]error{"m1": &domain.MessageNotFoundError{MessageID: "m1"}}
	result, err := f.sync.RetryEmail(ctx, email.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.SyncLogStatusError, result.Status)

	entries, err := f.logs.ListByEmail(ctx, email.ID)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, domain.TagMessageNotFound, entries[1].ErrorTag)
}
