package service

import (
	"context"
	"math"
	"sort"
	"time"

	"github.com/podloop/podloop/internal/lifecycle"
	"github.com/podloop/podloop/internal/model"
	"github.com/podloop/podloop/internal/repository"
)

// Scoring weights. The exact relevance formula is a tunable reconstruction,
// not a compatibility contract; keep changes here.
const (
	scoreScale         = 100
	driftBonusPerLevel = 2
	scoreMax           = 100
)

// Recommendation annotates a pod with its relevance score in [0,100].
type Recommendation struct {
	Pod   *model.Pod
	Score int
}

type RecommendService struct {
	userRepository repository.UserRepository
	podRepository  repository.PodRepository
	now            func() time.Time
}

func NewRecommendService(userRepository repository.UserRepository, podRepository repository.PodRepository) *RecommendService {
	return &RecommendService{
		userRepository: userRepository,
		podRepository:  podRepository,
		now:            time.Now,
	}
}

// ForUser ranks eligible pods against the user's bio, highest score first.
// Eligible means scheduled or active, not locked, not created by the user,
// and not already joined. Ordering is deterministic: score desc, then
// earliest creation, then id.
func (s *RecommendService) ForUser(ctx context.Context, userID string) ([]Recommendation, error) {
	user, err := s.userRepository.ByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	pods, err := s.podRepository.All(ctx)
	if err != nil {
		return nil, err
	}

	joinedIDs, err := s.podRepository.JoinedPodIDs(ctx, userID)
	if err != nil {
		return nil, err
	}
	joined := make(map[string]struct{}, len(joinedIDs))
	for _, id := range joinedIDs {
		joined[id] = struct{}{}
	}

	bioTokens := tokenize(user.Bio)
	now := s.now()

	var recs []Recommendation
	for _, pod := range pods {
		if pod.CreatorID == userID {
			continue
		}
		if _, ok := joined[pod.ID]; ok {
			continue
		}

		state := lifecycle.StateAt(pod, now)
		if state.Phase == lifecycle.PhaseExpired || state.Locked {
			continue
		}

		recs = append(recs, Recommendation{
			Pod:   pod,
			Score: ScorePod(bioTokens, pod),
		})
	}

	sort.SliceStable(recs, func(i, j int) bool {
		if recs[i].Score != recs[j].Score {
			return recs[i].Score > recs[j].Score
		}
		if !recs[i].Pod.CreatedAt.Equal(recs[j].Pod.CreatedAt) {
			return recs[i].Pod.CreatedAt.Before(recs[j].Pod.CreatedAt)
		}
		return recs[i].Pod.ID < recs[j].Pod.ID
	})

	return recs, nil
}

// ScorePod computes the relevance of a pod to a bio token set: token overlap
// against the pod's own token count, scaled to 100, plus a small bonus for
// drift-tolerant pods, clamped to [0,100]. Never negative; an empty pod with
// no overlap scores 0.
func ScorePod(bioTokens map[string]struct{}, pod *model.Pod) int {
	podTokens := tokenize(pod.Title + " " + pod.Description)

	overlap := 0
	for token := range bioTokens {
		if _, ok := podTokens[token]; ok {
			overlap++
		}
	}

	denom := len(podTokens)
	if denom < 1 {
		denom = 1
	}

	score := int(math.Round(float64(overlap) / float64(denom) * scoreScale))
	score += driftBonusPerLevel * (pod.DriftTolerance - model.DriftToleranceMin)

	if score > scoreMax {
		score = scoreMax
	}
	if score < 0 {
		score = 0
	}

	return score
}
