package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/podloop/podloop/internal/ctxkeys"
	"github.com/podloop/podloop/internal/service"
	"github.com/podloop/podloop/internal/storage"
)

type PodHandler struct {
	podService       *service.PodService
	messageService   *service.MessageService
	recommendService *service.RecommendService
	searchService    *service.SearchService
	lifecycleService *service.LifecycleService
	storage          storage.Storage
}

func NewPodHandler(
	podService *service.PodService,
	messageService *service.MessageService,
	recommendService *service.RecommendService,
	searchService *service.SearchService,
	lifecycleService *service.LifecycleService,
	store storage.Storage,
) *PodHandler {
	return &PodHandler{
		podService:       podService,
		messageService:   messageService,
		recommendService: recommendService,
		searchService:    searchService,
		lifecycleService: lifecycleService,
		storage:          store,
	}
}

// Preview is the public listing: pod summaries only, no identity required
// and no participant-level data.
func (h *PodHandler) Preview(w http.ResponseWriter, r *http.Request) {
	pods, err := h.podService.Preview(r.Context())
	if err != nil {
		respondError(w, err)
		return
	}

	now := time.Now()
	payloads := make([]podPayload, 0, len(pods))
	for _, p := range pods {
		payloads = append(payloads, newPodPayload(p, now))
	}

	respondJSON(w, http.StatusOK, map[string]any{"pods": payloads})
}

func (h *PodHandler) Create(w http.ResponseWriter, r *http.Request) {
	user := ctxkeys.User(r.Context())

	var in service.CreatePodInput
	err := json.NewDecoder(r.Body).Decode(&in)
	if err != nil {
		respondError(w, fmt.Errorf("%w: invalid JSON body", service.ErrValidation))
		return
	}

	pod, err := h.podService.Create(r.Context(), user.ID, in)
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, newPodPayload(pod, time.Now()))
}

// List returns pods the caller created or joined, with a role flag.
func (h *PodHandler) List(w http.ResponseWriter, r *http.Request) {
	user := ctxkeys.User(r.Context())

	pods, err := h.podService.ByUser(r.Context(), user.ID)
	if err != nil {
		respondError(w, err)
		return
	}

	now := time.Now()
	type entry struct {
		podPayload
		Role string `json:"role"`
	}
	payloads := make([]entry, 0, len(pods))
	for _, p := range pods {
		payloads = append(payloads, entry{
			podPayload: newPodPayload(&p.Pod, now),
			Role:       p.Role,
		})
	}

	respondJSON(w, http.StatusOK, map[string]any{"pods": payloads})
}

func (h *PodHandler) Recommended(w http.ResponseWriter, r *http.Request) {
	user := ctxkeys.User(r.Context())

	recs, err := h.recommendService.ForUser(r.Context(), user.ID)
	if err != nil {
		respondError(w, err)
		return
	}

	now := time.Now()
	type entry struct {
		podPayload
		Score int `json:"score"`
	}
	payloads := make([]entry, 0, len(recs))
	for _, rec := range recs {
		payloads = append(payloads, entry{
			podPayload: newPodPayload(rec.Pod, now),
			Score:      rec.Score,
		})
	}

	respondJSON(w, http.StatusOK, map[string]any{"pods": payloads})
}

// Active lists pods in the active phase. Non-participants get a spectator
// view with recent message excerpts.
func (h *PodHandler) Active(w http.ResponseWriter, r *http.Request) {
	user := ctxkeys.User(r.Context())

	pods, err := h.podService.Active(r.Context(), user.ID)
	if err != nil {
		respondError(w, err)
		return
	}

	now := time.Now()
	type entry struct {
		podPayload
		IsParticipant bool             `json:"is_participant"`
		Excerpts      []messagePayload `json:"excerpts,omitempty"`
	}
	payloads := make([]entry, 0, len(pods))
	for _, p := range pods {
		payloads = append(payloads, entry{
			podPayload:    newPodPayload(p.Pod, now),
			IsParticipant: p.IsParticipant,
			Excerpts:      newMessagePayloads(p.Excerpts, h.storage),
		})
	}

	respondJSON(w, http.StatusOK, map[string]any{"pods": payloads})
}

func (h *PodHandler) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	results, err := h.searchService.Search(r.Context(), service.SearchInput{
		Query: q.Get("q"),
		State: q.Get("state"),
		Media: q.Get("media"),
		Sort:  q.Get("sort"),
	})
	if err != nil {
		respondError(w, err)
		return
	}

	now := time.Now()
	type entry struct {
		podPayload
		Score int `json:"score"`
	}
	payloads := make([]entry, 0, len(results))
	for _, res := range results {
		payloads = append(payloads, entry{
			podPayload: newPodPayload(res.Pod, now),
			Score:      res.Score,
		})
	}

	respondJSON(w, http.StatusOK, map[string]any{"pods": payloads})
}

// Detail returns the pod with full message history and the caller's send
// eligibility.
func (h *PodHandler) Detail(w http.ResponseWriter, r *http.Request) {
	user := ctxkeys.User(r.Context())
	podID := r.PathValue("id")

	detail, err := h.podService.Detail(r.Context(), user.ID, podID, h.messageService)
	if err != nil {
		respondError(w, err)
		return
	}

	type participant struct {
		UserID   string    `json:"user_id"`
		JoinedAt time.Time `json:"joined_at"`
	}
	participants := make([]participant, 0, len(detail.Participants))
	for _, p := range detail.Participants {
		participants = append(participants, participant{UserID: p.UserID, JoinedAt: p.JoinedAt})
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"pod":             newPodPayload(detail.Pod, time.Now()),
		"participants":    participants,
		"messages":        newMessagePayloads(detail.Messages, h.storage),
		"is_participant":  detail.IsParticipant,
		"can_send":        detail.CanSend,
		"can_send_reason": detail.CanSendReason,
	})
}

func (h *PodHandler) Join(w http.ResponseWriter, r *http.Request) {
	user := ctxkeys.User(r.Context())
	podID := r.PathValue("id")

	pod, err := h.podService.Join(r.Context(), user.ID, podID)
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, newPodPayload(pod, time.Now()))
}

func (h *PodHandler) Launch(w http.ResponseWriter, r *http.Request) {
	user := ctxkeys.User(r.Context())
	podID := r.PathValue("id")

	pod, err := h.podService.Launch(r.Context(), user.ID, podID)
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, newPodPayload(pod, time.Now()))
}

// Refresh triggers an on-demand lifecycle sweep. Idempotent; safe to call
// arbitrarily often.
func (h *PodHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	launched, err := h.lifecycleService.Sweep(r.Context())
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{"launched": launched})
}
