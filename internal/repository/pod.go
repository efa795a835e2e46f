package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/podloop/podloop/internal/model"
)

const (
	RoleCreator     = "creator"
	RoleParticipant = "participant"
)

var (
	ErrPodNotFound   = errors.New("pod not found")
	ErrPodFull       = errors.New("pod is full")
	ErrAlreadyJoined = errors.New("user is already a participant")
)

// PodWithRole annotates a pod with the caller's relationship to it.
type PodWithRole struct {
	model.Pod
	Role string `db:"role"`
}

type PodRepository interface {
	Create(ctx context.Context, pod *model.Pod) error
	ByID(ctx context.Context, id string) (*model.Pod, error)
	All(ctx context.Context) ([]*model.Pod, error)
	ByUser(ctx context.Context, userID string) ([]*PodWithRole, error)

	// DueForLaunch returns countdown pods whose auto_launch_at has passed
	// but whose launch has not been recorded yet.
	DueForLaunch(ctx context.Context, now time.Time) ([]*model.Pod, error)

	// RecordLaunch sets launched_at once. Calling it on an already-launched
	// pod is a no-op; the bool reports whether this call recorded the launch.
	RecordLaunch(ctx context.Context, podID string, at time.Time) (bool, error)

	// AddParticipant atomically checks capacity and adds the user to the
	// roster. Two concurrent joins against a pod with one remaining slot
	// never both succeed.
	AddParticipant(ctx context.Context, podID, userID string, at time.Time) error

	IsParticipant(ctx context.Context, podID, userID string) (bool, error)
	Participants(ctx context.Context, podID string) ([]*model.Participant, error)
	JoinedPodIDs(ctx context.Context, userID string) ([]string, error)
}

type podRepository struct {
	db      *sqlx.DB
	timeout time.Duration
}

func NewPodRepository(db *sqlx.DB, timeout time.Duration) PodRepository {
	return &podRepository{db: db, timeout: timeout}
}

func (r *podRepository) Create(ctx context.Context, pod *model.Pod) error {
	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()

	query := `INSERT INTO pods (
	            id, creator_id, title, description, media_type, duration_hours,
	            drift_tolerance, max_participants, max_chars_per_message,
	            max_messages_per_day, max_voice_message_seconds, timezone,
	            launch_mode, auto_launch_at, launched_at, participant_count,
	            message_count, last_message_at, created_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)`

	_, err := r.db.ExecContext(ctx, query,
		pod.ID,
		pod.CreatorID,
		pod.Title,
		pod.Description,
		pod.MediaType,
		pod.DurationHours,
		pod.DriftTolerance,
		pod.MaxParticipants,
		pod.MaxCharsPerMessage,
		pod.MaxMessagesPerDay,
		pod.MaxVoiceMessageSeconds,
		pod.Timezone,
		pod.LaunchMode,
		utcPtr(pod.AutoLaunchAt),
		utcPtr(pod.LaunchedAt),
		pod.ParticipantCount,
		pod.MessageCount,
		utcPtr(pod.LastMessageAt),
		pod.CreatedAt.UTC(),
	)

	return storeErr(err)
}

func (r *podRepository) ByID(ctx context.Context, id string) (*model.Pod, error) {
	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()

	pod := &model.Pod{}
	query := `SELECT * FROM pods WHERE id = $1`

	err := r.db.GetContext(ctx, pod, query, id)
	if err == sql.ErrNoRows {
		return nil, ErrPodNotFound
	}

	return pod, storeErr(err)
}

func (r *podRepository) All(ctx context.Context) ([]*model.Pod, error) {
	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()

	var pods []*model.Pod
	query := `SELECT * FROM pods ORDER BY created_at ASC, id ASC`

	err := r.db.SelectContext(ctx, &pods, query)
	if err != nil {
		return nil, storeErr(err)
	}

	return pods, nil
}

func (r *podRepository) ByUser(ctx context.Context, userID string) ([]*PodWithRole, error) {
	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()

	var pods []*PodWithRole
	query := `SELECT p.*,
	            CASE WHEN p.creator_id = $1 THEN 'creator' ELSE 'participant' END AS role
	          FROM pods p
	          WHERE p.creator_id = $1
	             OR p.id IN (SELECT pod_id FROM pod_participants WHERE user_id = $1)
	          ORDER BY p.created_at DESC, p.id ASC`

	err := r.db.SelectContext(ctx, &pods, query, userID)
	if err != nil {
		return nil, storeErr(err)
	}

	return pods, nil
}

func (r *podRepository) DueForLaunch(ctx context.Context, now time.Time) ([]*model.Pod, error) {
	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()

	var pods []*model.Pod
	query := `SELECT * FROM pods
	          WHERE launch_mode = $1 AND launched_at IS NULL AND auto_launch_at <= $2
	          ORDER BY auto_launch_at ASC`

	err := r.db.SelectContext(ctx, &pods, query, model.LaunchModeCountdown, now.UTC())
	if err != nil {
		return nil, storeErr(err)
	}

	return pods, nil
}

func (r *podRepository) RecordLaunch(ctx context.Context, podID string, at time.Time) (bool, error) {
	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()

	query := `UPDATE pods SET launched_at = $1 WHERE id = $2 AND launched_at IS NULL`

	result, err := r.db.ExecContext(ctx, query, at.UTC(), podID)
	if err != nil {
		return false, storeErr(err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, storeErr(err)
	}

	return rows > 0, nil
}

func (r *podRepository) AddParticipant(ctx context.Context, podID, userID string, at time.Time) error {
	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return storeErr(err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO pod_participants (pod_id, user_id, joined_at) VALUES ($1, $2, $3)`,
		podID, userID, at.UTC(),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrAlreadyJoined
		}
		return storeErr(err)
	}

	// Conditional increment is the capacity gate: it only matches while a
	// slot remains, so the roster can never exceed max_participants.
	result, err := tx.ExecContext(ctx,
		`UPDATE pods SET participant_count = participant_count + 1
		 WHERE id = $1 AND participant_count < max_participants`,
		podID,
	)
	if err != nil {
		return storeErr(err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return storeErr(err)
	}

	if rows == 0 {
		return ErrPodFull
	}

	return storeErr(tx.Commit())
}

func (r *podRepository) IsParticipant(ctx context.Context, podID, userID string) (bool, error) {
	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()

	var count int
	query := `SELECT COUNT(*) FROM pod_participants WHERE pod_id = $1 AND user_id = $2`

	err := r.db.GetContext(ctx, &count, query, podID, userID)
	if err != nil {
		return false, storeErr(err)
	}

	return count > 0, nil
}

func (r *podRepository) Participants(ctx context.Context, podID string) ([]*model.Participant, error) {
	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()

	var participants []*model.Participant
	query := `SELECT * FROM pod_participants WHERE pod_id = $1 ORDER BY joined_at ASC`

	err := r.db.SelectContext(ctx, &participants, query, podID)
	if err != nil {
		return nil, storeErr(err)
	}

	return participants, nil
}

func (r *podRepository) JoinedPodIDs(ctx context.Context, userID string) ([]string, error) {
	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()

	var ids []string
	query := `SELECT pod_id FROM pod_participants WHERE user_id = $1`

	err := r.db.SelectContext(ctx, &ids, query, userID)
	if err != nil {
		return nil, storeErr(err)
	}

	return ids, nil
}
