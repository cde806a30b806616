package scheduler

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"linkdeck-backend/internal/ingest/domain"
)

func TestShouldRunDisabled(t *testing.T) {
	settings := &domain.Settings{BackgroundSyncEnabled: false, SyncHour: 8, TimeZone: "UTC"}
	now := time.Date(2026, 9, 1, 8, 0, 0, 0, time.UTC)
	assert.False(t, shouldRun(settings, now))
}

func TestShouldRunHourMatch(t *testing.T) {
	settings := &domain.Settings{BackgroundSyncEnabled: true, SyncHour: 8, TimeZone: "UTC"}

	assert.True(t, shouldRun(settings, time.Date(2026, 9, 1, 8, 0, 0, 0, time.UTC)))
	assert.True(t, shouldRun(settings, time.Date(2026, 9, 1, 8, 59, 0, 0, time.UTC)))
	assert.False(t, shouldRun(settings, time.Date(2026, 9, 1, 9, 0, 0, 0, time.UTC)))
}

func TestShouldRunConfiguredZone(t *testing.T) {
	settings := &domain.Settings{BackgroundSyncEnabled: true, SyncHour: 8, TimeZone: "Europe/Berlin"}

	berlin, err := time.LoadLocation("Europe/Berlin")
	require.NoError(t, err)

	// 06:00 UTC is 08:00 CEST.
	utcNow := time.Date(2026, 9, 1, 6, 0, 0, 0, time.UTC)
	require.Equal(t, 8, utcNow.In(berlin).Hour())

	assert.True(t, shouldRun(settings, utcNow))
	assert.False(t, shouldRun(settings, time.Date(2026, 9, 1, 8, 0, 0, 0, time.UTC)))
}

func TestShouldRunUnknownZoneFallsBackToUTC(t *testing.T) {
	settings := &domain.Settings{BackgroundSyncEnabled: true, SyncHour: 8, TimeZone: "Not/AZone"}
	assert.True(t, shouldRun(settings, time.Date(2026, 9, 1, 8, 0, 0, 0, time.UTC)))
}
