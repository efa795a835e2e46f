package service

import (
	"context"
	"testing"
	"time"

	"github.com/podloop/podloop/internal/lifecycle"
	"github.com/podloop/podloop/internal/model"
	"github.com/stretchr/testify/require"
)

// seedSearchPods creates one pod per lifecycle phase plus a voice pod, with
// distinct titles, durations, and message counts. The clock is advanced
// between writes so last-activity ordering is unambiguous; it ends a few
// minutes past now.
func seedSearchPods(t *testing.T, env *testEnv, now time.Time) map[string]*model.Pod {
	t.Helper()
	ctx := context.Background()

	creator := env.createUser(t, "seeder", "")
	member := env.createUser(t, "talker", "")
	pods := make(map[string]*model.Pod)

	env.setClock(now)
	scheduledIn := manualPodInput()
	scheduledIn.Title = "sunrise sketching"
	scheduledIn.DurationHours = 12
	pods["scheduled"] = env.createPod(t, creator.ID, scheduledIn)

	env.setClock(now.Add(1 * time.Minute))
	activeIn := manualPodInput()
	activeIn.Title = "sunrise running"
	activeIn.DurationHours = 48
	active := env.createPod(t, creator.ID, activeIn)
	_, err := env.podService.Join(ctx, member.ID, active.ID)
	require.NoError(t, err)
	_, err = env.podService.Launch(ctx, creator.ID, active.ID)
	require.NoError(t, err)
	pods["active"] = active

	env.setClock(now.Add(2 * time.Minute))
	expiredAt := now.Add(-100 * time.Hour)
	expiredIn := manualPodInput()
	expiredIn.Title = "midnight reading"
	expiredIn.DurationHours = 24
	expiredIn.LaunchMode = model.LaunchModeCountdown
	expiredIn.AutoLaunchAt = &expiredAt
	pods["expired"] = env.createPod(t, creator.ID, expiredIn)

	seconds := 90
	voiceIn := manualPodInput()
	voiceIn.Title = "sunrise voice diary"
	voiceIn.DurationHours = 72
	voiceIn.MediaType = model.MediaTypeVoice
	voiceIn.MaxVoiceMessageSeconds = &seconds
	pods["voice"] = env.createPod(t, creator.ID, voiceIn)

	env.setClock(now.Add(3 * time.Minute))
	_, err = env.messageService.SendText(ctx, member.ID, active.ID, "good morning")
	require.NoError(t, err)

	return pods
}

func TestSearchEmptyQueryReturnsAll(t *testing.T) {
	env := newTestEnv(t)
	now := time.Date(2026, 8, 10, 12, 0, 0, 0, time.UTC)
	env.setClock(now)

	seedSearchPods(t, env, now)

	results, err := env.searchService.Search(context.Background(), SearchInput{})
	require.NoError(t, err)
	require.Len(t, results, 4)
	for _, res := range results {
		if res.Score != 0 {
			t.Errorf("empty query score: got %d, want 0", res.Score)
		}
	}
}

func TestSearchQueryMatching(t *testing.T) {
	env := newTestEnv(t)
	now := time.Date(2026, 8, 10, 12, 0, 0, 0, time.UTC)
	env.setClock(now)

	seedSearchPods(t, env, now)
	ctx := context.Background()

	results, err := env.searchService.Search(ctx, SearchInput{Query: "sunrise"})
	require.NoError(t, err)
	require.Len(t, results, 3)

	// Case-insensitive substring matches too.
	results, err = env.searchService.Search(ctx, SearchInput{Query: "MIDNIGHT read"})
	require.NoError(t, err)
	require.Len(t, results, 1)
	if results[0].Pod.Title != "midnight reading" {
		t.Errorf("got %q, want the midnight pod", results[0].Pod.Title)
	}

	results, err = env.searchService.Search(ctx, SearchInput{Query: "scuba diving"})
	require.NoError(t, err)
	require.Len(t, results, 0)
}

func TestSearchFilters(t *testing.T) {
	env := newTestEnv(t)
	now := time.Date(2026, 8, 10, 12, 0, 0, 0, time.UTC)
	env.setClock(now)

	pods := seedSearchPods(t, env, now)
	ctx := context.Background()

	results, err := env.searchService.Search(ctx, SearchInput{State: "active"})
	require.NoError(t, err)
	require.Len(t, results, 1)
	if results[0].Pod.ID != pods["active"].ID {
		t.Errorf("state filter: got %s, want the active pod", results[0].Pod.ID)
	}
	if results[0].State.Phase != lifecycle.PhaseActive {
		t.Errorf("derived phase: got %q, want active", results[0].State.Phase)
	}

	results, err = env.searchService.Search(ctx, SearchInput{State: "expired"})
	require.NoError(t, err)
	require.Len(t, results, 1)
	if results[0].Pod.ID != pods["expired"].ID {
		t.Errorf("state filter: got %s, want the expired pod", results[0].Pod.ID)
	}

	results, err = env.searchService.Search(ctx, SearchInput{Media: model.MediaTypeVoice})
	require.NoError(t, err)
	require.Len(t, results, 1)
	if results[0].Pod.ID != pods["voice"].ID {
		t.Errorf("media filter: got %s, want the voice pod", results[0].Pod.ID)
	}

	// Filters combine.
	results, err = env.searchService.Search(ctx, SearchInput{Query: "sunrise", State: "scheduled", Media: model.MediaTypeText})
	require.NoError(t, err)
	require.Len(t, results, 1)
	if results[0].Pod.Title != "sunrise sketching" {
		t.Errorf("combined filters: got %q", results[0].Pod.Title)
	}
}

func TestSearchInvalidInputs(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.searchService.Search(ctx, SearchInput{Sort: "alphabetical"})
	require.ErrorIs(t, err, ErrInvalidSortKey)

	_, err = env.searchService.Search(ctx, SearchInput{State: "dormant"})
	require.ErrorIs(t, err, ErrValidation)

	_, err = env.searchService.Search(ctx, SearchInput{Media: "video"})
	require.ErrorIs(t, err, ErrValidation)
}

func TestSearchSortKeys(t *testing.T) {
	env := newTestEnv(t)
	now := time.Date(2026, 8, 10, 12, 0, 0, 0, time.UTC)
	env.setClock(now)

	seedSearchPods(t, env, now)
	ctx := context.Background()

	results, err := env.searchService.Search(ctx, SearchInput{Sort: SortDuration})
	require.NoError(t, err)
	require.Len(t, results, 4)
	for i := 1; i < len(results); i++ {
		if results[i].Pod.DurationHours > results[i-1].Pod.DurationHours {
			t.Fatalf("duration sort violated at %d: %d after %d",
				i, results[i].Pod.DurationHours, results[i-1].Pod.DurationHours)
		}
	}

	results, err = env.searchService.Search(ctx, SearchInput{Sort: SortMessages})
	require.NoError(t, err)
	if results[0].Pod.Title != "sunrise running" {
		t.Errorf("messages sort: got %q first, want the pod with messages", results[0].Pod.Title)
	}

	// recent puts the pod with the newest message first.
	results, err = env.searchService.Search(ctx, SearchInput{Sort: SortRecent})
	require.NoError(t, err)
	if results[0].Pod.Title != "sunrise running" {
		t.Errorf("recent sort: got %q first, want the pod with the latest message", results[0].Pod.Title)
	}

	// relevance ranks stronger matches first.
	results, err = env.searchService.Search(ctx, SearchInput{Query: "sunrise voice diary", Sort: SortRelevance})
	require.NoError(t, err)
	require.NotEmpty(t, results)
	if results[0].Pod.Title != "sunrise voice diary" {
		t.Errorf("relevance sort: got %q first", results[0].Pod.Title)
	}
}
