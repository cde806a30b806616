package usecase

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"linkdeck-backend/internal/ingest/domain"
	"linkdeck-backend/internal/ingest/repository"
)

type fakeSaver struct {
	saved []string
	err   error
}

func (f *fakeSaver) Save(ctx context.Context, url, title, excerpt string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.saved = append(f.saved, url)
	return "item-1", nil
}

func newLinkFixture(t *testing.T) (repository.LinkRepository, *fakeSaver, LinkUsecase) {
	t.Helper()
	links := repository.NewLinkRepository(newTestDB(t))
	saver := &fakeSaver{}
	return links, saver, NewLinkUsecase(links, saver, zap.NewNop())
}

func seedLink(t *testing.T, links repository.LinkRepository) *domain.Link {
	t.Helper()
	link := &domain.Link{
		EmailID:     "e1",
		URL:         "https://example.com/post",
		Title:       "The Post",
		Description: "About things",
	}
	created, err := links.InsertDedup(context.Background(), link)
	require.NoError(t, err)
	require.True(t, created)
	return link
}

func TestUpdateLinkStatusSavedPushesBookmark(t *testing.T) {
	links, saver, uc := newLinkFixture(t)
	link := seedLink(t, links)

	updated, err := uc.UpdateLinkStatus(context.Background(), link.ID, domain.LinkStatusSaved)
	require.NoError(t, err)
	assert.Equal(t, domain.LinkStatusSaved, updated.Status)
	assert.Equal(t, []string{"https://example.com/post"}, saver.saved)
}

func TestUpdateLinkStatusDiscardedSkipsBookmark(t *testing.T) {
	links, saver, uc := newLinkFixture(t)
	link := seedLink(t, links)

	updated, err := uc.UpdateLinkStatus(context.Background(), link.ID, domain.LinkStatusDiscarded)
	require.NoError(t, err)
	assert.Equal(t, domain.LinkStatusDiscarded, updated.Status)
	assert.Empty(t, saver.saved)
}

func TestUpdateLinkStatusSaveFailureKeepsStatus(t *testing.T) {
	links, saver, uc := newLinkFixture(t)
	link := seedLink(t, links)
	saver.err = &domain.AuthError{Message: "raindrop rejected credentials"}

	_, err := uc.UpdateLinkStatus(context.Background(), link.ID, domain.LinkStatusSaved)
	require.Error(t, err)
	assert.Equal(t, domain.TagAuth, domain.ErrorTag(err))

	current, err := links.GetByID(context.Background(), link.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.LinkStatusPending, current.Status)
}

func TestUpdateLinkStatusAlreadySavedNotPushedAgain(t *testing.T) {
	links, saver, uc := newLinkFixture(t)
	link := seedLink(t, links)

	_, err := uc.UpdateLinkStatus(context.Background(), link.ID, domain.LinkStatusSaved)
	require.NoError(t, err)
	_, err = uc.UpdateLinkStatus(context.Background(), link.ID, domain.LinkStatusSaved)
	require.NoError(t, err)
	assert.Len(t, saver.saved, 1)
}

func TestUpdateLinkStatusInvalid(t *testing.T) {
	links, _, uc := newLinkFixture(t)
	link := seedLink(t, links)

	_, err := uc.UpdateLinkStatus(context.Background(), link.ID, domain.LinkStatus("archived"))
	assert.Error(t, err)
}

func TestUpdateLinkStatusUnknownLink(t *testing.T) {
	_, _, uc := newLinkFixture(t)

	_, err := uc.UpdateLinkStatus(context.Background(), "missing", domain.LinkStatusSaved)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
