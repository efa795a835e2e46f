package handler

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/podloop/podloop/internal/ctxkeys"
	"github.com/podloop/podloop/internal/service"
	"github.com/podloop/podloop/internal/storage"
	"github.com/podloop/podloop/internal/validation"
)

const maxVoiceUploadBytes = 10 << 20 // 10MB

type MessageHandler struct {
	messageService *service.MessageService
	storage        storage.Storage
}

func NewMessageHandler(messageService *service.MessageService, store storage.Storage) *MessageHandler {
	return &MessageHandler{
		messageService: messageService,
		storage:        store,
	}
}

type sendTextRequest struct {
	Content string `json:"content"`
}

func (h *MessageHandler) SendText(w http.ResponseWriter, r *http.Request) {
	user := ctxkeys.User(r.Context())
	podID := r.PathValue("id")

	var req sendTextRequest
	err := json.NewDecoder(r.Body).Decode(&req)
	if err != nil {
		respondError(w, fmt.Errorf("%w: invalid JSON body", service.ErrValidation))
		return
	}

	msg, err := h.messageService.SendText(r.Context(), user.ID, podID, req.Content)
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, newMessagePayload(msg, h.storage))
}

// SendVoice accepts a multipart upload with a "voice" file and a "seconds"
// field. The blob is stored first; if the guarded append then fails, the
// blob is deleted again so no orphan survives a rejected message.
func (h *MessageHandler) SendVoice(w http.ResponseWriter, r *http.Request) {
	user := ctxkeys.User(r.Context())
	podID := r.PathValue("id")

	if h.storage == nil {
		respondError(w, fmt.Errorf("%w: voice storage is not configured", service.ErrValidation))
		return
	}

	err := r.ParseMultipartForm(maxVoiceUploadBytes)
	if err != nil {
		respondError(w, fmt.Errorf("%w: invalid multipart body", service.ErrValidation))
		return
	}

	seconds, err := strconv.Atoi(r.FormValue("seconds"))
	if err != nil || seconds <= 0 {
		respondError(w, fmt.Errorf("%w: seconds must be a positive integer", service.ErrValidation))
		return
	}

	file, header, err := r.FormFile("voice")
	if err != nil {
		respondError(w, fmt.Errorf("%w: voice file is required", service.ErrValidation))
		return
	}
	defer file.Close()

	err = validation.ValidateFile(header, validation.VoiceConstraints)
	if err != nil {
		respondError(w, fmt.Errorf("%w: %s", service.ErrValidation, err))
		return
	}

	ext := strings.ToLower(filepath.Ext(header.Filename))
	voicePath := fmt.Sprintf("pods/%s/voice/%s%s", podID, uuid.New().String(), ext)

	err = h.storage.Save(voicePath, file)
	if err != nil {
		respondError(w, fmt.Errorf("failed to store voice blob: %w", err))
		return
	}

	msg, err := h.messageService.SendVoice(r.Context(), user.ID, podID, voicePath, seconds)
	if err != nil {
		delErr := h.storage.Delete(voicePath)
		if delErr != nil {
			slog.Warn("failed to delete orphaned voice blob", "error", delErr, "path", voicePath)
		}
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, newMessagePayload(msg, h.storage))
}
