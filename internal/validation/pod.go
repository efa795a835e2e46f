package validation

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/podloop/podloop/internal/model"
)

// ValidatePod validates pod creation attributes. Lifecycle derivation assumes
// these hold, so every pod must pass before it is persisted.
func ValidatePod(p *model.Pod) error {
	title := strings.TrimSpace(p.Title)
	if title == "" {
		return errors.New("title is required")
	}
	if len(title) > 100 {
		return errors.New("title is too long (max 100 characters)")
	}
	if len(p.Description) > 2000 {
		return errors.New("description is too long (max 2000 characters)")
	}

	switch p.MediaType {
	case model.MediaTypeText, model.MediaTypeVoice, model.MediaTypeBoth:
	default:
		return fmt.Errorf("invalid media_type %q", p.MediaType)
	}

	if p.DurationHours <= 0 {
		return errors.New("duration_hours must be positive")
	}
	if p.DriftTolerance < model.DriftToleranceMin || p.DriftTolerance > model.DriftToleranceMax {
		return fmt.Errorf("drift_tolerance must be between %d and %d", model.DriftToleranceMin, model.DriftToleranceMax)
	}
	if p.MaxParticipants < 1 {
		return errors.New("max_participants must be at least 1")
	}
	if p.MaxCharsPerMessage < 1 {
		return errors.New("max_chars_per_message must be at least 1")
	}
	if p.MaxMessagesPerDay < 1 {
		return errors.New("max_messages_per_day must be at least 1")
	}

	// Voice pods need a voice duration cap; text-only pods must not carry one.
	if p.MediaType == model.MediaTypeVoice || p.MediaType == model.MediaTypeBoth {
		if p.MaxVoiceMessageSeconds == nil || *p.MaxVoiceMessageSeconds < 1 {
			return errors.New("max_voice_message_seconds is required for voice pods")
		}
	} else if p.MaxVoiceMessageSeconds != nil {
		return errors.New("max_voice_message_seconds is only valid for voice pods")
	}

	if _, err := time.LoadLocation(p.Timezone); err != nil {
		return fmt.Errorf("invalid timezone %q", p.Timezone)
	}

	// Exactly one of auto_launch_at / manual mode holds.
	switch p.LaunchMode {
	case model.LaunchModeManual:
		if p.AutoLaunchAt != nil {
			return errors.New("auto_launch_at is not allowed for manual launch mode")
		}
	case model.LaunchModeCountdown:
		if p.AutoLaunchAt == nil {
			return errors.New("auto_launch_at is required for countdown launch mode")
		}
	default:
		return fmt.Errorf("invalid launch_mode %q", p.LaunchMode)
	}

	return nil
}
