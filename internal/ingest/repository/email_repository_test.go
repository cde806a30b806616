package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"linkdeck-backend/internal/ingest/domain"
)

func TestEmailUpsertIdempotent(t *testing.T) {
	repo := NewEmailRepository(newTestDB(t))
	ctx := context.Background()

	first, created, err := repo.Upsert(ctx, &domain.Email{
		GmailID:    "g1",
		From:       "author@pub.substack.com",
		Subject:    "Weekly Digest",
		ReceivedAt: time.Now(),
	})
	require.NoError(t, err)
	assert.True(t, created)

	second, created, err := repo.Upsert(ctx, &domain.Email{
		GmailID: "g1",
		Subject: "Different Subject",
	})
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first.ID, second.ID)
	// The existing row wins; the second payload does not overwrite it.
	assert.Equal(t, "Weekly Digest", second.Subject)
}

func TestEmailGetByID(t *testing.T) {
	repo := NewEmailRepository(newTestDB(t))
	ctx := context.Background()

	stored, _, err := repo.Upsert(ctx, &domain.Email{GmailID: "g1", Subject: "s"})
	require.NoError(t, err)

	found, err := repo.GetByID(ctx, stored.ID)
	require.NoError(t, err)
	assert.Equal(t, "g1", found.GmailID)

	_, err = repo.GetByID(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestEmailFlags(t *testing.T) {
	repo := NewEmailRepository(newTestDB(t))
	ctx := context.Background()

	stored, _, err := repo.Upsert(ctx, &domain.Email{GmailID: "g1"})
	require.NoError(t, err)

	require.NoError(t, repo.SetExtractionError(ctx, stored.ID, true))
	require.NoError(t, repo.MarkProcessed(ctx, stored.ID))
	require.NoError(t, repo.SetMarkedAsRead(ctx, stored.ID))

	found, err := repo.GetByID(ctx, stored.ID)
	require.NoError(t, err)
	assert.True(t, found.ExtractionError)
	assert.True(t, found.MarkedAsRead)
	require.NotNil(t, found.ProcessedAt)

	require.NoError(t, repo.SetExtractionError(ctx, stored.ID, false))
	found, err = repo.GetByID(ctx, stored.ID)
	require.NoError(t, err)
	assert.False(t, found.ExtractionError)
}
