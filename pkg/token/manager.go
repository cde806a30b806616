package token

import (
	"context"
	"time"

	"go.uber.org/zap"

	"linkdeck-backend/internal/ingest/domain"
)

// Credential is the in-flight shape of a stored OAuth credential. A zero
// ExpiresAt means the token never expires (static API tokens).
type Credential struct {
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
}

// Store loads and persists the credential for one provider.
type Store interface {
	Load(ctx context.Context) (Credential, error)
	Save(ctx context.Context, cred Credential) error
}

// Refresher exchanges a refresh token for a fresh credential.
type Refresher interface {
	Refresh(ctx context.Context, refreshToken string) (Credential, error)
}

// Manager guards every call to an HTTP-backed upstream with bearer-token plus
// refresh-token semantics. It is reused identically by the mail and bookmark
// transports. Refresh-then-persist is intentionally not serialized: a race
// between two simultaneous refreshes is last-write-wins.
type Manager struct {
	store     Store
	refresher Refresher
	logger    *zap.Logger
	now       func() time.Time
}

func NewManager(store Store, refresher Refresher, logger *zap.Logger) *Manager {
	return &Manager{
		store:     store,
		refresher: refresher,
		logger:    logger,
		now:       time.Now,
	}
}

// WithFreshToken loads the current credential, refreshes and persists it if
// expired, then runs op with a valid access token. If the token is expired
// and no refresh is possible, op is never invoked.
func (m *Manager) WithFreshToken(ctx context.Context, op func(ctx context.Context, accessToken string) error) error {
	cred, err := m.store.Load(ctx)
	if err != nil {
		return err
	}

	if m.expired(cred) {
		if m.refresher == nil || cred.RefreshToken == "" {
			return &domain.TokenExpiredError{Message: "access token expired and no refresh token available"}
		}

		fresh, err := m.refresher.Refresh(ctx, cred.RefreshToken)
		if err != nil {
			return &domain.TokenRefreshError{Message: "token refresh failed", Cause: err}
		}
		// Providers may not rotate the refresh token; keep the old one then.
		if fresh.RefreshToken == "" {
			fresh.RefreshToken = cred.RefreshToken
		}
		if err := m.store.Save(ctx, fresh); err != nil {
			return err
		}
		if m.logger != nil {
			m.logger.Info("refreshed access token", zap.Time("expires_at", fresh.ExpiresAt))
		}
		cred = fresh
	}

	return op(ctx, cred.AccessToken)
}

func (m *Manager) expired(cred Credential) bool {
	if cred.ExpiresAt.IsZero() {
		return false
	}
	return !m.now().Before(cred.ExpiresAt)
}
