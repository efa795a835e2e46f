package service

import (
	"context"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/podloop/podloop/internal/lifecycle"
	"github.com/podloop/podloop/internal/model"
	"github.com/podloop/podloop/internal/repository"
)

// MessageService is the capacity and messaging guard: every check runs
// before anything is persisted, and the append itself re-checks the daily
// cap atomically, so no partial writes occur.
type MessageService struct {
	podRepository     repository.PodRepository
	messageRepository repository.MessageRepository
	now               func() time.Time
}

func NewMessageService(podRepository repository.PodRepository, messageRepository repository.MessageRepository) *MessageService {
	return &MessageService{
		podRepository:     podRepository,
		messageRepository: messageRepository,
		now:               time.Now,
	}
}

func (s *MessageService) SendText(ctx context.Context, userID, podID, content string) (*model.Message, error) {
	pod, err := s.podRepository.ByID(ctx, podID)
	if err != nil {
		return nil, err
	}

	err = s.guard(ctx, pod, userID, model.MediaTypeText)
	if err != nil {
		return nil, err
	}

	if content == "" {
		return nil, fmt.Errorf("%w: content is required", ErrValidation)
	}
	if utf8.RuneCountInString(content) > pod.MaxCharsPerMessage {
		return nil, ErrContentTooLong
	}

	msg := &model.Message{
		ID:        uuid.New().String(),
		PodID:     podID,
		UserID:    userID,
		MediaType: model.MediaTypeText,
		Content:   content,
		CreatedAt: s.now(),
	}

	return msg, s.append(ctx, pod, msg)
}

func (s *MessageService) SendVoice(ctx context.Context, userID, podID, voicePath string, seconds int) (*model.Message, error) {
	pod, err := s.podRepository.ByID(ctx, podID)
	if err != nil {
		return nil, err
	}

	err = s.guard(ctx, pod, userID, model.MediaTypeVoice)
	if err != nil {
		return nil, err
	}

	if voicePath == "" || seconds <= 0 {
		return nil, fmt.Errorf("%w: voice reference and duration are required", ErrValidation)
	}
	if pod.MaxVoiceMessageSeconds != nil && seconds > *pod.MaxVoiceMessageSeconds {
		return nil, ErrVoiceTooLong
	}

	msg := &model.Message{
		ID:           uuid.New().String(),
		PodID:        podID,
		UserID:       userID,
		MediaType:    model.MediaTypeVoice,
		VoicePath:    &voicePath,
		VoiceSeconds: &seconds,
		CreatedAt:    s.now(),
	}

	return msg, s.append(ctx, pod, msg)
}

// guard runs the roster, lifecycle, and media checks shared by every send.
func (s *MessageService) guard(ctx context.Context, pod *model.Pod, userID, mediaType string) error {
	joined, err := s.podRepository.IsParticipant(ctx, pod.ID, userID)
	if err != nil {
		return err
	}
	if !joined {
		return ErrNotAParticipant
	}

	if lifecycle.PhaseAt(pod, s.now()) != lifecycle.PhaseActive {
		return ErrPodNotActive
	}

	if !pod.AllowsMedia(mediaType) {
		return ErrMediaTypeMismatch
	}

	return nil
}

func (s *MessageService) append(ctx context.Context, pod *model.Pod, msg *model.Message) error {
	windowStart := dayWindowStart(pod, msg.CreatedAt)
	return s.messageRepository.Append(ctx, msg, pod.MaxMessagesPerDay, windowStart)
}

// CanSend reports whether the caller could send a message to the pod right
// now, with the first failing reason. Content checks are per-message and not
// evaluated here.
func (s *MessageService) CanSend(ctx context.Context, userID string, pod *model.Pod) (bool, string, error) {
	joined, err := s.podRepository.IsParticipant(ctx, pod.ID, userID)
	if err != nil {
		return false, "", err
	}
	if !joined {
		return false, "not a participant", nil
	}

	if lifecycle.PhaseAt(pod, s.now()) != lifecycle.PhaseActive {
		return false, "pod is not active", nil
	}

	count, err := s.messageRepository.CountSince(ctx, pod.ID, userID, dayWindowStart(pod, s.now()))
	if err != nil {
		return false, "", err
	}
	if count >= pod.MaxMessagesPerDay {
		return false, "daily message limit reached", nil
	}

	return true, "", nil
}

// dayWindowStart returns the start of the current day in the pod's
// configured timezone. The timezone was validated at creation; an
// unloadable one here falls back to UTC rather than blocking sends.
func dayWindowStart(pod *model.Pod, now time.Time) time.Time {
	loc, err := time.LoadLocation(pod.Timezone)
	if err != nil {
		loc = time.UTC
	}
	local := now.In(loc)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
}
