package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/podloop/podloop/internal/repository"
)

// LifecycleService transitions stored launch-time bookkeeping. The derived
// state itself is always recomputed at read time; the only write here is the
// one-shot launched_at record, which is idempotent, so the periodic sweep
// and the client-triggered refresh share the same routine and are safe to
// call arbitrarily often.
type LifecycleService struct {
	podRepository repository.PodRepository
	now           func() time.Time
}

func NewLifecycleService(podRepository repository.PodRepository) *LifecycleService {
	return &LifecycleService{
		podRepository: podRepository,
		now:           time.Now,
	}
}

// Sweep records the launch of every countdown pod whose auto_launch_at has
// passed. The recorded timestamp is auto_launch_at itself, so derived state
// is identical whether or not the sweep has run. A failure on one pod is
// logged and skipped; it never blocks transitions of the others.
func (s *LifecycleService) Sweep(ctx context.Context) (int, error) {
	due, err := s.podRepository.DueForLaunch(ctx, s.now())
	if err != nil {
		return 0, err
	}

	launched := 0
	for _, pod := range due {
		recorded, err := s.podRepository.RecordLaunch(ctx, pod.ID, *pod.AutoLaunchAt)
		if err != nil {
			slog.Error("lifecycle sweep failed to record launch", "error", err, "pod_id", pod.ID)
			continue
		}
		if recorded {
			launched++
			slog.Info("pod launched", "pod_id", pod.ID, "launched_at", *pod.AutoLaunchAt)
		}
	}

	return launched, nil
}

// Run sweeps on a fixed interval until the context is cancelled.
func (s *LifecycleService) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			_, err := s.Sweep(ctx)
			if err != nil {
				slog.Error("lifecycle sweep failed", "error", err)
			}
		}
	}
}
