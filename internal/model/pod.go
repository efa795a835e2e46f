package model

import (
	"time"
)

const (
	MediaTypeText  = "text"
	MediaTypeVoice = "voice"
	MediaTypeBoth  = "both"
)

const (
	LaunchModeManual    = "manual"
	LaunchModeCountdown = "countdown"
)

const (
	DriftToleranceMin = 1
	DriftToleranceMax = 5
)

// Pod is a time-boxed group conversation. Lifecycle state is never stored;
// it is derived from these attributes and the clock (see internal/lifecycle).
type Pod struct {
	ID                     string     `db:"id"`
	CreatorID              string     `db:"creator_id"`
	Title                  string     `db:"title"`
	Description            string     `db:"description"`
	MediaType              string     `db:"media_type"`
	DurationHours          int        `db:"duration_hours"`
	DriftTolerance         int        `db:"drift_tolerance"`
	MaxParticipants        int        `db:"max_participants"`
	MaxCharsPerMessage     int        `db:"max_chars_per_message"`
	MaxMessagesPerDay      int        `db:"max_messages_per_day"`
	MaxVoiceMessageSeconds *int       `db:"max_voice_message_seconds"`
	Timezone               string     `db:"timezone"`
	LaunchMode             string     `db:"launch_mode"`
	AutoLaunchAt           *time.Time `db:"auto_launch_at"`
	LaunchedAt             *time.Time `db:"launched_at"`
	ParticipantCount       int        `db:"participant_count"`
	MessageCount           int        `db:"message_count"`
	LastMessageAt          *time.Time `db:"last_message_at"`
	CreatedAt              time.Time  `db:"created_at"`
}

// AllowsMedia reports whether a message of the given media type is permitted
// by the pod's media_type config.
func (p *Pod) AllowsMedia(mediaType string) bool {
	if p.MediaType == MediaTypeBoth {
		return mediaType == MediaTypeText || mediaType == MediaTypeVoice
	}
	return p.MediaType == mediaType
}

type Participant struct {
	PodID    string    `db:"pod_id"`
	UserID   string    `db:"user_id"`
	JoinedAt time.Time `db:"joined_at"`
}
