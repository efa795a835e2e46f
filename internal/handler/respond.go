package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/podloop/podloop/internal/lifecycle"
	"github.com/podloop/podloop/internal/model"
	"github.com/podloop/podloop/internal/repository"
	"github.com/podloop/podloop/internal/service"
	"github.com/podloop/podloop/internal/storage"
)

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	err := json.NewEncoder(w).Encode(v)
	if err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

// respondError maps the error taxonomy onto HTTP statuses: validation 400,
// unknown ids 404, state conflicts 409 with the specific reason, transient
// store failures 503 with a retryable hint. Anything unrecognized is logged
// and hidden behind a generic 500.
func respondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrValidation), errors.Is(err, service.ErrInvalidSortKey):
		respondJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
	case errors.Is(err, service.ErrInvalidCredentials):
		respondJSON(w, http.StatusUnauthorized, map[string]string{"error": err.Error()})
	case errors.Is(err, repository.ErrUserNotFound), errors.Is(err, repository.ErrPodNotFound):
		respondJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
	case errors.Is(err, repository.ErrPodFull),
		errors.Is(err, repository.ErrAlreadyJoined),
		errors.Is(err, repository.ErrDailyLimitExceeded),
		errors.Is(err, repository.ErrDuplicateUsername),
		errors.Is(err, service.ErrPodNotJoinable),
		errors.Is(err, service.ErrPodNotActive),
		errors.Is(err, service.ErrNotAParticipant),
		errors.Is(err, service.ErrContentTooLong),
		errors.Is(err, service.ErrVoiceTooLong),
		errors.Is(err, service.ErrMediaTypeMismatch),
		errors.Is(err, service.ErrNotCreator),
		errors.Is(err, service.ErrNotManualLaunch):
		respondJSON(w, http.StatusConflict, map[string]string{"error": err.Error()})
	case errors.Is(err, repository.ErrStoreTimeout):
		respondJSON(w, http.StatusServiceUnavailable, map[string]any{
			"error":     "store temporarily unavailable, retry with backoff",
			"retryable": true,
		})
	default:
		slog.Error("request failed", "error", err)
		respondJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
	}
}

// podPayload is the wire shape of a pod. All derived fields (state, locked,
// remaining_slots) come from the lifecycle state machine; nothing here is
// re-derived ad hoc.
type podPayload struct {
	ID                     string     `json:"id"`
	CreatorID              string     `json:"creator_id"`
	Title                  string     `json:"title"`
	Description            string     `json:"description"`
	MediaType              string     `json:"media_type"`
	DurationHours          int        `json:"duration_hours"`
	DriftTolerance         int        `json:"drift_tolerance"`
	MaxParticipants        int        `json:"max_participants"`
	RemainingSlots         int        `json:"remaining_slots"`
	MaxCharsPerMessage     int        `json:"max_chars_per_message"`
	MaxMessagesPerDay      int        `json:"max_messages_per_day"`
	MaxVoiceMessageSeconds *int       `json:"max_voice_message_seconds,omitempty"`
	Timezone               string     `json:"timezone"`
	LaunchMode             string     `json:"launch_mode"`
	AutoLaunchAt           *time.Time `json:"auto_launch_at,omitempty"`
	LaunchedAt             *time.Time `json:"launched_at,omitempty"`
	State                  string     `json:"state"`
	Locked                 bool       `json:"locked"`
	MessageCount           int        `json:"message_count"`
	LastMessageAt          *time.Time `json:"last_message_at,omitempty"`
	CreatedAt              time.Time  `json:"created_at"`
}

func newPodPayload(p *model.Pod, now time.Time) podPayload {
	state := lifecycle.StateAt(p, now)
	return podPayload{
		ID:                     p.ID,
		CreatorID:              p.CreatorID,
		Title:                  p.Title,
		Description:            p.Description,
		MediaType:              p.MediaType,
		DurationHours:          p.DurationHours,
		DriftTolerance:         p.DriftTolerance,
		MaxParticipants:        p.MaxParticipants,
		RemainingSlots:         state.RemainingSlots,
		MaxCharsPerMessage:     p.MaxCharsPerMessage,
		MaxMessagesPerDay:      p.MaxMessagesPerDay,
		MaxVoiceMessageSeconds: p.MaxVoiceMessageSeconds,
		Timezone:               p.Timezone,
		LaunchMode:             p.LaunchMode,
		AutoLaunchAt:           p.AutoLaunchAt,
		LaunchedAt:             p.LaunchedAt,
		State:                  string(state.Phase),
		Locked:                 state.Locked,
		MessageCount:           p.MessageCount,
		LastMessageAt:          p.LastMessageAt,
		CreatedAt:              p.CreatedAt,
	}
}

type messagePayload struct {
	ID           string    `json:"id"`
	PodID        string    `json:"pod_id"`
	UserID       string    `json:"user_id"`
	MediaType    string    `json:"media_type"`
	Content      string    `json:"content,omitempty"`
	VoiceURL     string    `json:"voice_url,omitempty"`
	VoiceSeconds *int      `json:"voice_seconds,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// newMessagePayload formats a message; voice blobs are exposed as presigned
// playback URLs, never as raw paths. Presign failures are logged and leave
// the URL empty rather than failing the whole listing.
func newMessagePayload(m *model.Message, store storage.Storage) messagePayload {
	payload := messagePayload{
		ID:           m.ID,
		PodID:        m.PodID,
		UserID:       m.UserID,
		MediaType:    m.MediaType,
		Content:      m.Content,
		VoiceSeconds: m.VoiceSeconds,
		CreatedAt:    m.CreatedAt,
	}

	if m.VoicePath != nil && store != nil {
		url, err := store.PresignedURL(*m.VoicePath)
		if err != nil {
			slog.Warn("failed to presign voice URL", "error", err, "message_id", m.ID)
		} else {
			payload.VoiceURL = url
		}
	}

	return payload
}

func newMessagePayloads(msgs []*model.Message, store storage.Storage) []messagePayload {
	payloads := make([]messagePayload, 0, len(msgs))
	for _, m := range msgs {
		payloads = append(payloads, newMessagePayload(m, store))
	}
	return payloads
}

type userPayload struct {
	ID          string    `json:"id"`
	Username    string    `json:"username"`
	DisplayName string    `json:"display_name"`
	Bio         string    `json:"bio"`
	CreatedAt   time.Time `json:"created_at"`
}

func newUserPayload(u *model.User) userPayload {
	return userPayload{
		ID:          u.ID,
		Username:    u.Username,
		DisplayName: u.DisplayName,
		Bio:         u.Bio,
		CreatedAt:   u.CreatedAt,
	}
}
