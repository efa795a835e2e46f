package repository

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/podloop/podloop/internal/db"
	"github.com/podloop/podloop/internal/model"
	"github.com/stretchr/testify/require"
)

// newTestDB opens a sqlite store in a temp dir with the production pragmas.
// WAL plus a busy timeout makes concurrent writers queue on the lock instead
// of failing, which the concurrency tests below rely on.
func newTestDB(t *testing.T) *sqlx.DB {
	t.Helper()

	dsn := filepath.Join(t.TempDir(), "test.db") +
		"?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	database, err := db.Init("sqlite", dsn)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close(database) })

	err = db.RunMigrations(database.DB, "sqlite")
	require.NoError(t, err)

	return database
}

func insertUser(t *testing.T, users UserRepository, username string) *model.User {
	t.Helper()

	user := &model.User{
		ID:           uuid.New().String(),
		Username:     username,
		DisplayName:  username,
		PasswordHash: "x",
		CreatedAt:    time.Now(),
	}
	require.NoError(t, users.Create(context.Background(), user))
	return user
}

func insertPod(t *testing.T, pods PodRepository, creatorID string, mutate func(*model.Pod)) *model.Pod {
	t.Helper()

	pod := &model.Pod{
		ID:                 uuid.New().String(),
		CreatorID:          creatorID,
		Title:              "roster race",
		MediaType:          model.MediaTypeText,
		DurationHours:      24,
		DriftTolerance:     1,
		MaxParticipants:    8,
		MaxCharsPerMessage: 500,
		MaxMessagesPerDay:  50,
		Timezone:           "UTC",
		LaunchMode:         model.LaunchModeManual,
		CreatedAt:          time.Now(),
	}
	if mutate != nil {
		mutate(pod)
	}
	require.NoError(t, pods.Create(context.Background(), pod))
	return pod
}
