package model

import (
	"time"
)

type Message struct {
	ID           string    `db:"id"`
	PodID        string    `db:"pod_id"`
	UserID       string    `db:"user_id"`
	MediaType    string    `db:"media_type"`
	Content      string    `db:"content"`
	VoicePath    *string   `db:"voice_path"`
	VoiceSeconds *int      `db:"voice_seconds"`
	CreatedAt    time.Time `db:"created_at"`
}
