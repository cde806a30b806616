package usecase

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"linkdeck-backend/internal/ingest/domain"
	"linkdeck-backend/internal/ingest/repository"
)

type linkUsecase struct {
	links     repository.LinkRepository
	bookmarks BookmarkSaver
	logger    *zap.Logger
}

func NewLinkUsecase(links repository.LinkRepository, bookmarks BookmarkSaver, logger *zap.Logger) LinkUsecase {
	return &linkUsecase{
		links:     links,
		bookmarks: bookmarks,
		logger:    logger,
	}
}

func (u *linkUsecase) ListLinks(ctx context.Context, status domain.LinkStatus, limit int) ([]*domain.Link, error) {
	return u.links.List(ctx, status, limit)
}

func (u *linkUsecase) UpdateLinkStatus(ctx context.Context, id string, status domain.LinkStatus) (*domain.Link, error) {
	switch status {
	case domain.LinkStatusPending, domain.LinkStatusSaved, domain.LinkStatusDiscarded:
	default:
		return nil, fmt.Errorf("invalid link status %q", status)
	}

	link, err := u.links.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if status == domain.LinkStatusSaved && link.Status != domain.LinkStatusSaved {
		itemID, err := u.bookmarks.Save(ctx, link.URL, link.Title, link.Description)
		if err != nil {
			return nil, err
		}
		u.logger.Info("pushed link to bookmarks",
			zap.String("link_id", link.ID),
			zap.String("item_id", itemID),
		)
	}

	if err := u.links.SetStatus(ctx, id, status); err != nil {
		return nil, err
	}
	link.Status = status
	return link, nil
}
