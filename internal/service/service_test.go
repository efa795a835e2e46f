package service

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/podloop/podloop/internal/db"
	"github.com/podloop/podloop/internal/model"
	"github.com/podloop/podloop/internal/repository"
	"github.com/stretchr/testify/require"
)

// Shared harness: a real sqlite store in a temp dir with migrations applied,
// plus the full service graph. Each service's clock can be pinned via its
// now field so lifecycle-sensitive tests are deterministic.
type testEnv struct {
	users    repository.UserRepository
	pods     repository.PodRepository
	messages repository.MessageRepository

	podService       *PodService
	messageService   *MessageService
	recommendService *RecommendService
	searchService    *SearchService
	lifecycleService *LifecycleService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	database, err := db.Init("sqlite", filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })

	err = db.RunMigrations(database.DB, "sqlite")
	require.NoError(t, err)

	users := repository.NewUserRepository(database, repository.DefaultTimeout)
	pods := repository.NewPodRepository(database, repository.DefaultTimeout)
	messages := repository.NewMessageRepository(database, repository.DefaultTimeout)

	return &testEnv{
		users:            users,
		pods:             pods,
		messages:         messages,
		podService:       NewPodService(pods, messages, 8),
		messageService:   NewMessageService(pods, messages),
		recommendService: NewRecommendService(users, pods),
		searchService:    NewSearchService(pods),
		lifecycleService: NewLifecycleService(pods),
	}
}

func (e *testEnv) setClock(now time.Time) {
	clock := func() time.Time { return now }
	e.podService.now = clock
	e.messageService.now = clock
	e.recommendService.now = clock
	e.searchService.now = clock
	e.lifecycleService.now = clock
}

func (e *testEnv) createUser(t *testing.T, username, bio string) *model.User {
	t.Helper()

	user := &model.User{
		ID:           uuid.New().String(),
		Username:     username,
		DisplayName:  username,
		Bio:          bio,
		PasswordHash: "x",
		CreatedAt:    time.Now(),
	}
	require.NoError(t, e.users.Create(context.Background(), user))
	return user
}

func (e *testEnv) createPod(t *testing.T, creatorID string, in CreatePodInput) *model.Pod {
	t.Helper()

	pod, err := e.podService.Create(context.Background(), creatorID, in)
	require.NoError(t, err)
	return pod
}
