package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/podloop/podloop/internal/model"
)

var ErrDailyLimitExceeded = errors.New("daily message limit reached")

type MessageRepository interface {
	// Append persists the message atomically with the pod's counters. The
	// pod row is updated first so concurrent appends to the same pod
	// serialize on its lock; the per-day cap is then re-checked under that
	// lock, so a racing append can never push the sender over maxPerDay.
	// Nothing is written when any check fails.
	Append(ctx context.Context, msg *model.Message, maxPerDay int, windowStart time.Time) error

	ByPod(ctx context.Context, podID string) ([]*model.Message, error)
	Recent(ctx context.Context, podID string, limit int) ([]*model.Message, error)
	CountSince(ctx context.Context, podID, userID string, since time.Time) (int, error)
}

type messageRepository struct {
	db      *sqlx.DB
	timeout time.Duration
}

func NewMessageRepository(db *sqlx.DB, timeout time.Duration) MessageRepository {
	return &messageRepository{db: db, timeout: timeout}
}

func (r *messageRepository) Append(ctx context.Context, msg *model.Message, maxPerDay int, windowStart time.Time) error {
	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return storeErr(err)
	}
	defer tx.Rollback()

	// The counter update comes first: it takes the pod row lock, so two
	// concurrent appends for the same pod run the cap count below one at a
	// time instead of both reading a stale count. Rolled back along with
	// everything else when the cap check fails.
	_, err = tx.ExecContext(ctx,
		`UPDATE pods SET message_count = message_count + 1, last_message_at = $1 WHERE id = $2`,
		msg.CreatedAt.UTC(), msg.PodID,
	)
	if err != nil {
		return storeErr(err)
	}

	var count int
	err = tx.GetContext(ctx, &count,
		`SELECT COUNT(*) FROM messages WHERE pod_id = $1 AND user_id = $2 AND created_at >= $3`,
		msg.PodID, msg.UserID, windowStart.UTC(),
	)
	if err != nil {
		return storeErr(err)
	}

	if count >= maxPerDay {
		return ErrDailyLimitExceeded
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO messages (id, pod_id, user_id, media_type, content, voice_path, voice_seconds, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		msg.ID,
		msg.PodID,
		msg.UserID,
		msg.MediaType,
		msg.Content,
		msg.VoicePath,
		msg.VoiceSeconds,
		msg.CreatedAt.UTC(),
	)
	if err != nil {
		return storeErr(err)
	}

	return storeErr(tx.Commit())
}

func (r *messageRepository) ByPod(ctx context.Context, podID string) ([]*model.Message, error) {
	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()

	var messages []*model.Message
	query := `SELECT * FROM messages WHERE pod_id = $1 ORDER BY created_at ASC, id ASC`

	err := r.db.SelectContext(ctx, &messages, query, podID)
	if err != nil {
		return nil, storeErr(err)
	}

	return messages, nil
}

func (r *messageRepository) Recent(ctx context.Context, podID string, limit int) ([]*model.Message, error) {
	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()

	var messages []*model.Message
	query := `SELECT * FROM messages WHERE pod_id = $1 ORDER BY created_at DESC, id DESC LIMIT $2`

	err := r.db.SelectContext(ctx, &messages, query, podID, limit)
	if err != nil {
		return nil, storeErr(err)
	}

	return messages, nil
}

func (r *messageRepository) CountSince(ctx context.Context, podID, userID string, since time.Time) (int, error) {
	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()

	var count int
	query := `SELECT COUNT(*) FROM messages WHERE pod_id = $1 AND user_id = $2 AND created_at >= $3`

	err := r.db.GetContext(ctx, &count, query, podID, userID, since.UTC())
	if err != nil {
		return 0, storeErr(err)
	}

	return count, nil
}
