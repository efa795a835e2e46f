package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/podloop/podloop/internal/model"
	"github.com/podloop/podloop/internal/repository"
	"github.com/stretchr/testify/require"
)

// launchedPod creates a manual pod, joins the member, and launches it so
// sends are permitted.
func launchedPod(t *testing.T, env *testEnv, in CreatePodInput, memberID string) *model.Pod {
	t.Helper()
	ctx := context.Background()

	creator := env.createUser(t, "creator-"+in.Title[:1], "")
	pod := env.createPod(t, creator.ID, in)

	_, err := env.podService.Join(ctx, memberID, pod.ID)
	require.NoError(t, err)
	_, err = env.podService.Launch(ctx, creator.ID, pod.ID)
	require.NoError(t, err)

	return pod
}

func TestSendTextGuards(t *testing.T) {
	env := newTestEnv(t)
	now := time.Date(2026, 8, 10, 12, 0, 0, 0, time.UTC)
	env.setClock(now)
	ctx := context.Background()

	member := env.createUser(t, "bob", "")
	outsider := env.createUser(t, "eve", "")

	in := manualPodInput()
	in.MaxCharsPerMessage = 10
	pod := launchedPod(t, env, in, member.ID)

	_, err := env.messageService.SendText(ctx, outsider.ID, pod.ID, "hi")
	require.ErrorIs(t, err, ErrNotAParticipant)

	_, err = env.messageService.SendText(ctx, member.ID, pod.ID, "")
	require.ErrorIs(t, err, ErrValidation)

	_, err = env.messageService.SendText(ctx, member.ID, pod.ID, strings.Repeat("x", 11))
	require.ErrorIs(t, err, ErrContentTooLong)

	msg, err := env.messageService.SendText(ctx, member.ID, pod.ID, "short one")
	require.NoError(t, err)
	if msg.MediaType != model.MediaTypeText {
		t.Errorf("media type: got %q, want text", msg.MediaType)
	}

	got, err := env.podService.ByID(ctx, pod.ID)
	require.NoError(t, err)
	if got.MessageCount != 1 {
		t.Errorf("message count: got %d, want 1", got.MessageCount)
	}
	require.NotNil(t, got.LastMessageAt)
}

// The character cap counts runes, not bytes, so multi-byte text is not
// penalized.
func TestSendTextRuneCount(t *testing.T) {
	env := newTestEnv(t)
	now := time.Date(2026, 8, 10, 12, 0, 0, 0, time.UTC)
	env.setClock(now)
	ctx := context.Background()

	member := env.createUser(t, "bob", "")
	in := manualPodInput()
	in.MaxCharsPerMessage = 5
	pod := launchedPod(t, env, in, member.ID)

	_, err := env.messageService.SendText(ctx, member.ID, pod.ID, "héllö")
	require.NoError(t, err)

	_, err = env.messageService.SendText(ctx, member.ID, pod.ID, "héllö!")
	require.ErrorIs(t, err, ErrContentTooLong)
}

func TestSendBeforeLaunchAndAfterExpiry(t *testing.T) {
	env := newTestEnv(t)
	now := time.Date(2026, 8, 10, 12, 0, 0, 0, time.UTC)
	env.setClock(now)
	ctx := context.Background()

	creator := env.createUser(t, "alice", "")
	member := env.createUser(t, "bob", "")

	pod := env.createPod(t, creator.ID, manualPodInput())
	_, err := env.podService.Join(ctx, member.ID, pod.ID)
	require.NoError(t, err)

	_, err = env.messageService.SendText(ctx, member.ID, pod.ID, "too early")
	require.ErrorIs(t, err, ErrPodNotActive)

	_, err = env.podService.Launch(ctx, creator.ID, pod.ID)
	require.NoError(t, err)

	_, err = env.messageService.SendText(ctx, member.ID, pod.ID, "in the window")
	require.NoError(t, err)

	env.setClock(now.Add(49 * time.Hour)) // past the 48h window
	_, err = env.messageService.SendText(ctx, member.ID, pod.ID, "too late")
	require.ErrorIs(t, err, ErrPodNotActive)
}

func TestSendVoiceMediaMismatch(t *testing.T) {
	env := newTestEnv(t)
	now := time.Date(2026, 8, 10, 12, 0, 0, 0, time.UTC)
	env.setClock(now)
	ctx := context.Background()

	member := env.createUser(t, "bob", "")
	pod := launchedPod(t, env, manualPodInput(), member.ID) // text-only

	_, err := env.messageService.SendVoice(ctx, member.ID, pod.ID, "blobs/a.ogg", 30)
	require.ErrorIs(t, err, ErrMediaTypeMismatch)
}

func TestSendVoice(t *testing.T) {
	env := newTestEnv(t)
	now := time.Date(2026, 8, 10, 12, 0, 0, 0, time.UTC)
	env.setClock(now)
	ctx := context.Background()

	member := env.createUser(t, "bob", "")

	seconds := 60
	in := manualPodInput()
	in.Title = "voice notes"
	in.MediaType = model.MediaTypeVoice
	in.MaxVoiceMessageSeconds = &seconds
	pod := launchedPod(t, env, in, member.ID)

	_, err := env.messageService.SendVoice(ctx, member.ID, pod.ID, "blobs/a.ogg", 61)
	require.ErrorIs(t, err, ErrVoiceTooLong)

	// Text is rejected on a voice-only pod.
	_, err = env.messageService.SendText(ctx, member.ID, pod.ID, "hello")
	require.ErrorIs(t, err, ErrMediaTypeMismatch)

	msg, err := env.messageService.SendVoice(ctx, member.ID, pod.ID, "blobs/a.ogg", 45)
	require.NoError(t, err)
	require.NotNil(t, msg.VoicePath)
	require.NotNil(t, msg.VoiceSeconds)
	if *msg.VoiceSeconds != 45 {
		t.Errorf("voice seconds: got %d, want 45", *msg.VoiceSeconds)
	}
}

func TestDailyLimitResetsAtLocalMidnight(t *testing.T) {
	env := newTestEnv(t)
	now := time.Date(2026, 8, 10, 12, 0, 0, 0, time.UTC)
	env.setClock(now)
	ctx := context.Background()

	member := env.createUser(t, "bob", "")
	in := manualPodInput()
	in.MaxMessagesPerDay = 2
	pod := launchedPod(t, env, in, member.ID)

	for _, content := range []string{"one", "two"} {
		_, err := env.messageService.SendText(ctx, member.ID, pod.ID, content)
		require.NoError(t, err)
	}

	_, err := env.messageService.SendText(ctx, member.ID, pod.ID, "three")
	require.ErrorIs(t, err, repository.ErrDailyLimitExceeded)

	canSend, reason, err := env.messageService.CanSend(ctx, member.ID, podByID(t, env, pod.ID))
	require.NoError(t, err)
	if canSend {
		t.Error("capped sender should not be able to send")
	}
	if reason == "" {
		t.Error("capped sender should get a reason")
	}

	// Next calendar day in the pod's timezone (UTC here): the cap resets.
	env.setClock(time.Date(2026, 8, 11, 0, 0, 1, 0, time.UTC))
	_, err = env.messageService.SendText(ctx, member.ID, pod.ID, "fresh day")
	require.NoError(t, err)
}

// The cap window boundary is local midnight in the pod's timezone even when
// that falls mid-UTC-day: a message from late in the previous local day must
// not count against today's cap, and one from early in the current local day
// must.
func TestDailyLimitRespectsLocalDayBoundary(t *testing.T) {
	env := newTestEnv(t)
	// 03:30 UTC on Aug 10 is 23:30 on Aug 9 in New York.
	lateNight := time.Date(2026, 8, 10, 3, 30, 0, 0, time.UTC)
	env.setClock(lateNight)
	ctx := context.Background()

	member := env.createUser(t, "bob", "")
	in := manualPodInput()
	in.Timezone = "America/New_York"
	in.MaxMessagesPerDay = 1
	pod := launchedPod(t, env, in, member.ID)

	_, err := env.messageService.SendText(ctx, member.ID, pod.ID, "last call")
	require.NoError(t, err)

	_, err = env.messageService.SendText(ctx, member.ID, pod.ID, "over the cap")
	require.ErrorIs(t, err, repository.ErrDailyLimitExceeded)

	// 04:30 UTC is 00:30 local: a new New York day, even though the UTC
	// date is unchanged since the first message.
	env.setClock(time.Date(2026, 8, 10, 4, 30, 0, 0, time.UTC))
	_, err = env.messageService.SendText(ctx, member.ID, pod.ID, "new local day")
	require.NoError(t, err)

	// Still the same local day at noon UTC: the 04:30 send fills the cap.
	env.setClock(time.Date(2026, 8, 10, 12, 0, 0, 0, time.UTC))
	_, err = env.messageService.SendText(ctx, member.ID, pod.ID, "capped again")
	require.ErrorIs(t, err, repository.ErrDailyLimitExceeded)
}

// The daily window opens at local midnight in the pod's configured timezone,
// not at UTC midnight.
func TestDailyWindowUsesPodTimezone(t *testing.T) {
	loc, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)

	pod := &model.Pod{Timezone: "America/New_York"}

	// 03:00 UTC on Aug 11 is still Aug 10 in New York.
	now := time.Date(2026, 8, 11, 3, 0, 0, 0, time.UTC)
	got := dayWindowStart(pod, now)
	want := time.Date(2026, 8, 10, 0, 0, 0, 0, loc)
	if !got.Equal(want) {
		t.Errorf("window start: got %v, want %v", got, want)
	}

	// Unknown timezone falls back to UTC instead of blocking the send.
	pod.Timezone = "Nowhere/Invalid"
	got = dayWindowStart(pod, now)
	want = time.Date(2026, 8, 11, 0, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("fallback window start: got %v, want %v", got, want)
	}
}

func podByID(t *testing.T, env *testEnv, id string) *model.Pod {
	t.Helper()
	pod, err := env.podService.ByID(context.Background(), id)
	require.NoError(t, err)
	return pod
}
