package scheduler

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/ahmetcoskunkizilkaya/movie-backend/internal/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type fakePurger struct {
	mu      sync.Mutex
	cutoffs []time.Time
	err     error
}

func (f *fakePurger) DeleteExpiredBefore(_ context.Context, cutoff time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cutoffs = append(f.cutoffs, cutoff)
	if f.err != nil {
		return 0, f.err
	}
	return 3, nil
}

func (f *fakePurger) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.cutoffs)
}

func TestCleanupTokensUsesRetentionCutoff(t *testing.T) {
	purger := &fakePurger{}
	s := New(purger, nil, Config{TokenInterval: time.Hour, TokenRetention: 30 * 24 * time.Hour})
	now := time.Date(2026, 3, 31, 12, 0, 0, 0, time.UTC)
	s.nowFunc = func() time.Time { return now }

	s.CleanupTokens()

	require.Len(t, purger.cutoffs, 1)
	assert.Equal(t, time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC), purger.cutoffs[0])
}

func TestCleanupTokensSwallowsFailure(t *testing.T) {
	purger := &fakePurger{err: errors.New("db down")}
	s := New(purger, nil, Config{TokenInterval: time.Hour, TokenRetention: time.Hour})

	assert.NotPanics(t, s.CleanupTokens)
	assert.NotPanics(t, s.CleanupTokens)
	assert.Equal(t, 2, purger.calls())
}

func TestStartRunsTokenJobAndStops(t *testing.T) {
	purger := &fakePurger{}
	s := New(purger, nil, Config{TokenInterval: time.Hour, TokenRetention: time.Hour})

	require.NoError(t, s.Start())
	assert.Eventually(t, func() bool { return purger.calls() >= 1 }, 2*time.Second, 10*time.Millisecond)
	s.Stop()
}

func TestCleanupLogs(t *testing.T) {
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.SystemLog{}))

	now := time.Now().UTC()
	require.NoError(t, db.Create(&models.SystemLog{ID: uuid.New(), Timestamp: now.Add(-48 * time.Hour), Level: "ERROR"}).Error)
	require.NoError(t, db.Create(&models.SystemLog{ID: uuid.New(), Timestamp: now, Level: "ERROR"}).Error)

	s := New(&fakePurger{}, db, Config{TokenInterval: time.Hour, LogRetention: 24 * time.Hour})
	s.CleanupLogs()

	var count int64
	require.NoError(t, db.Model(&models.SystemLog{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}
