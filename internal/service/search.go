package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/podloop/podloop/internal/lifecycle"
	"github.com/podloop/podloop/internal/model"
	"github.com/podloop/podloop/internal/repository"
)

const (
	SortRelevance = "relevance"
	SortMessages  = "messages"
	SortRecent    = "recent"
	SortDuration  = "duration"
)

const StateFilterAny = "any"

type SearchInput struct {
	Query string
	State string // any | scheduled | active | expired
	Media string // any | text | voice | both
	Sort  string // relevance (default) | messages | recent | duration
}

// SearchResult carries enough summary data to render a preview; the full pod
// is included so the façade can format it.
type SearchResult struct {
	Pod   *model.Pod
	State lifecycle.State
	Score int
}

type SearchService struct {
	podRepository repository.PodRepository
	now           func() time.Time
}

func NewSearchService(podRepository repository.PodRepository) *SearchService {
	return &SearchService{
		podRepository: podRepository,
		now:           time.Now,
	}
}

// Search answers an ad-hoc text query with optional state/media filters and
// a sort order. An empty query with filters only is valid and returns the
// filtered, sorted full set.
func (s *SearchService) Search(ctx context.Context, in SearchInput) ([]SearchResult, error) {
	sortKey := in.Sort
	if sortKey == "" {
		sortKey = SortRelevance
	}
	switch sortKey {
	case SortRelevance, SortMessages, SortRecent, SortDuration:
	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidSortKey, in.Sort)
	}

	stateFilter := in.State
	if stateFilter == "" {
		stateFilter = StateFilterAny
	}
	switch stateFilter {
	case StateFilterAny, string(lifecycle.PhaseScheduled), string(lifecycle.PhaseActive), string(lifecycle.PhaseExpired):
	default:
		return nil, fmt.Errorf("%w: invalid state filter %q", ErrValidation, in.State)
	}

	mediaFilter := in.Media
	if mediaFilter == "" {
		mediaFilter = StateFilterAny
	}
	switch mediaFilter {
	case StateFilterAny, model.MediaTypeText, model.MediaTypeVoice, model.MediaTypeBoth:
	default:
		return nil, fmt.Errorf("%w: invalid media filter %q", ErrValidation, in.Media)
	}

	pods, err := s.podRepository.All(ctx)
	if err != nil {
		return nil, err
	}

	query := fold(strings.TrimSpace(in.Query))
	queryTokens := tokenize(in.Query)
	now := s.now()

	var results []SearchResult
	for _, pod := range pods {
		state := lifecycle.StateAt(pod, now)

		if stateFilter != StateFilterAny && string(state.Phase) != stateFilter {
			continue
		}
		if mediaFilter != StateFilterAny && pod.MediaType != mediaFilter {
			continue
		}

		score, matched := matchPod(pod, query, queryTokens)
		if !matched {
			continue
		}

		results = append(results, SearchResult{Pod: pod, State: state, Score: score})
	}

	sortResults(results, sortKey)
	return results, nil
}

// matchPod matches a pod against the query by case-insensitive substring or
// token overlap, across the union of title and description. An empty query
// matches everything with score 0.
func matchPod(pod *model.Pod, query string, queryTokens map[string]struct{}) (int, bool) {
	if query == "" {
		return 0, true
	}

	score := 0

	podTokens := tokenize(pod.Title + " " + pod.Description)
	for token := range queryTokens {
		if _, ok := podTokens[token]; ok {
			score++
		}
	}

	if strings.Contains(fold(pod.Title), query) || strings.Contains(fold(pod.Description), query) {
		score++
	}

	return score, score > 0
}

func sortResults(results []SearchResult, sortKey string) {
	// lastActivity orders pods with messages first, newest message first;
	// pods without messages fall back to creation time.
	lastActivity := func(p *model.Pod) time.Time {
		if p.LastMessageAt != nil {
			return *p.LastMessageAt
		}
		return p.CreatedAt
	}

	sort.SliceStable(results, func(i, j int) bool {
		a, b := results[i], results[j]

		switch sortKey {
		case SortMessages:
			if a.Pod.MessageCount != b.Pod.MessageCount {
				return a.Pod.MessageCount > b.Pod.MessageCount
			}
		case SortDuration:
			if a.Pod.DurationHours != b.Pod.DurationHours {
				return a.Pod.DurationHours > b.Pod.DurationHours
			}
		case SortRelevance:
			if a.Score != b.Score {
				return a.Score > b.Score
			}
		}

		// Default and tie-break: most recent message first.
		la, lb := lastActivity(a.Pod), lastActivity(b.Pod)
		if !la.Equal(lb) {
			return la.After(lb)
		}
		return a.Pod.ID < b.Pod.ID
	})
}
