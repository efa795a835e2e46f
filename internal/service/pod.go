package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/podloop/podloop/internal/lifecycle"
	"github.com/podloop/podloop/internal/model"
	"github.com/podloop/podloop/internal/repository"
	"github.com/podloop/podloop/internal/validation"
)

// Defaults applied when a create request omits the value.
const (
	defaultMaxCharsPerMessage = 500
	defaultMaxMessagesPerDay  = 50
	spectatorExcerptLimit     = 3
)

type PodService struct {
	podRepository          repository.PodRepository
	messageRepository      repository.MessageRepository
	defaultMaxParticipants int
	now                    func() time.Time
}

func NewPodService(podRepository repository.PodRepository, messageRepository repository.MessageRepository, defaultMaxParticipants int) *PodService {
	return &PodService{
		podRepository:          podRepository,
		messageRepository:      messageRepository,
		defaultMaxParticipants: defaultMaxParticipants,
		now:                    time.Now,
	}
}

type CreatePodInput struct {
	Title                  string     `json:"title"`
	Description            string     `json:"description"`
	MediaType              string     `json:"media_type"`
	DurationHours          int        `json:"duration_hours"`
	DriftTolerance         int        `json:"drift_tolerance"`
	MaxParticipants        int        `json:"max_participants"`
	MaxCharsPerMessage     int        `json:"max_chars_per_message"`
	MaxMessagesPerDay      int        `json:"max_messages_per_day"`
	MaxVoiceMessageSeconds *int       `json:"max_voice_message_seconds"`
	Timezone               string     `json:"timezone"`
	LaunchMode             string     `json:"launch_mode"`
	AutoLaunchAt           *time.Time `json:"auto_launch_at"`
}

func (s *PodService) Create(ctx context.Context, creatorID string, in CreatePodInput) (*model.Pod, error) {
	now := s.now()

	pod := &model.Pod{
		ID:                     uuid.New().String(),
		CreatorID:              creatorID,
		Title:                  in.Title,
		Description:            in.Description,
		MediaType:              in.MediaType,
		DurationHours:          in.DurationHours,
		DriftTolerance:         in.DriftTolerance,
		MaxParticipants:        in.MaxParticipants,
		MaxCharsPerMessage:     in.MaxCharsPerMessage,
		MaxMessagesPerDay:      in.MaxMessagesPerDay,
		MaxVoiceMessageSeconds: in.MaxVoiceMessageSeconds,
		Timezone:               in.Timezone,
		LaunchMode:             in.LaunchMode,
		AutoLaunchAt:           in.AutoLaunchAt,
		CreatedAt:              now,
	}

	if pod.MediaType == "" {
		pod.MediaType = model.MediaTypeText
	}
	if pod.Timezone == "" {
		pod.Timezone = "UTC"
	}
	if pod.DriftTolerance == 0 {
		pod.DriftTolerance = model.DriftToleranceMin
	}
	if pod.MaxParticipants == 0 {
		pod.MaxParticipants = s.defaultMaxParticipants
	}
	if pod.MaxCharsPerMessage == 0 {
		pod.MaxCharsPerMessage = defaultMaxCharsPerMessage
	}
	if pod.MaxMessagesPerDay == 0 {
		pod.MaxMessagesPerDay = defaultMaxMessagesPerDay
	}

	err := validation.ValidatePod(pod)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrValidation, err)
	}

	// A countdown time already in the past means the pod launches
	// immediately; record it up front so it is never stuck in scheduled.
	if pod.LaunchMode == model.LaunchModeCountdown && !now.Before(*pod.AutoLaunchAt) {
		at := *pod.AutoLaunchAt
		pod.LaunchedAt = &at
	}

	err = s.podRepository.Create(ctx, pod)
	if err != nil {
		return nil, fmt.Errorf("failed to create pod: %w", err)
	}

	return pod, nil
}

func (s *PodService) ByID(ctx context.Context, podID string) (*model.Pod, error) {
	return s.podRepository.ByID(ctx, podID)
}

// Join adds the caller to the pod's roster. The capacity check and the
// roster insert are a single atomic store operation, so the roster can never
// exceed max_participants even under concurrent joins.
func (s *PodService) Join(ctx context.Context, userID, podID string) (*model.Pod, error) {
	pod, err := s.podRepository.ByID(ctx, podID)
	if err != nil {
		return nil, err
	}

	if lifecycle.PhaseAt(pod, s.now()) == lifecycle.PhaseExpired {
		return nil, ErrPodNotJoinable
	}

	err = s.podRepository.AddParticipant(ctx, podID, userID, s.now())
	if err != nil {
		return nil, err
	}

	return s.podRepository.ByID(ctx, podID)
}

// Launch records the launch of a manual pod. Idempotent: launching an
// already-launched pod returns it unchanged.
func (s *PodService) Launch(ctx context.Context, userID, podID string) (*model.Pod, error) {
	pod, err := s.podRepository.ByID(ctx, podID)
	if err != nil {
		return nil, err
	}

	if pod.CreatorID != userID {
		return nil, ErrNotCreator
	}
	if pod.LaunchMode != model.LaunchModeManual {
		return nil, ErrNotManualLaunch
	}

	_, err = s.podRepository.RecordLaunch(ctx, podID, s.now())
	if err != nil {
		return nil, err
	}

	return s.podRepository.ByID(ctx, podID)
}

// Preview returns every pod for the public listing.
func (s *PodService) Preview(ctx context.Context) ([]*model.Pod, error) {
	return s.podRepository.All(ctx)
}

// ByUser returns pods the user created or joined, with a role flag.
func (s *PodService) ByUser(ctx context.Context, userID string) ([]*repository.PodWithRole, error) {
	return s.podRepository.ByUser(ctx, userID)
}

// ActivePod is an entry of the active listing. Spectators (non-participants)
// get recent message excerpts instead of send access.
type ActivePod struct {
	Pod           *model.Pod
	IsParticipant bool
	Excerpts      []*model.Message
}

// Active returns pods currently in the active phase, with spectator excerpts
// for pods the caller has not joined.
func (s *PodService) Active(ctx context.Context, userID string) ([]*ActivePod, error) {
	pods, err := s.podRepository.All(ctx)
	if err != nil {
		return nil, err
	}

	now := s.now()
	var out []*ActivePod
	for _, pod := range pods {
		if lifecycle.PhaseAt(pod, now) != lifecycle.PhaseActive {
			continue
		}

		joined, err := s.podRepository.IsParticipant(ctx, pod.ID, userID)
		if err != nil {
			return nil, err
		}

		entry := &ActivePod{Pod: pod, IsParticipant: joined}
		if !joined {
			entry.Excerpts, err = s.messageRepository.Recent(ctx, pod.ID, spectatorExcerptLimit)
			if err != nil {
				return nil, err
			}
		}
		out = append(out, entry)
	}

	return out, nil
}

// PodDetail carries everything the detail view needs in one payload.
type PodDetail struct {
	Pod           *model.Pod
	Participants  []*model.Participant
	Messages      []*model.Message
	IsParticipant bool
	CanSend       bool
	CanSendReason string
}

// Detail returns the pod with full message history and the caller's send
// eligibility as computed by the messaging guard.
func (s *PodService) Detail(ctx context.Context, userID, podID string, guard *MessageService) (*PodDetail, error) {
	pod, err := s.podRepository.ByID(ctx, podID)
	if err != nil {
		return nil, err
	}

	participants, err := s.podRepository.Participants(ctx, podID)
	if err != nil {
		return nil, err
	}

	messages, err := s.messageRepository.ByPod(ctx, podID)
	if err != nil {
		return nil, err
	}

	joined := false
	for _, p := range participants {
		if p.UserID == userID {
			joined = true
			break
		}
	}

	canSend, reason, err := guard.CanSend(ctx, userID, pod)
	if err != nil {
		return nil, err
	}

	return &PodDetail{
		Pod:           pod,
		Participants:  participants,
		Messages:      messages,
		IsParticipant: joined,
		CanSend:       canSend,
		CanSendReason: reason,
	}, nil
}
