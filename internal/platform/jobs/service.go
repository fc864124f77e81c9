package jobs

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"perfboard/internal/domain/awards"
	"perfboard/internal/domain/period"
)

const (
	JobChallengeSweep = "challenge_sweep"
	JobAwardClose     = "award_close"
)

type ChallengeSweeper interface {
	Sweep(ctx context.Context, orgID string) (int, error)
}

type AwardCloser interface {
	ResolvePeriod(ctx context.Context, orgID string, p period.Period) ([]awards.HistoryEntry, error)
}

type Options struct {
	Interval      time.Duration
	AwardCloseDay int
}

type Service struct {
	runs       RunStore
	sweeper    ChallengeSweeper
	closer     AwardCloser
	opts       Options
	queue      chan job
	now        func() time.Time
	mu         sync.Mutex
	closing    map[string]period.Period
	lastClosed map[string]period.Period
}

type job struct {
	Type  string
	OrgID string
	Run   func(context.Context) (any, error)
}

func New(runs RunStore, sweeper ChallengeSweeper, closer AwardCloser, opts Options) *Service {
	if opts.AwardCloseDay < 1 {
		opts.AwardCloseDay = 1
	}
	return &Service{
		runs:       runs,
		sweeper:    sweeper,
		closer:     closer,
		opts:       opts,
		queue:      make(chan job, 128),
		now:        time.Now,
		closing:    map[string]period.Period{},
		lastClosed: map[string]period.Period{},
	}
}

func (s *Service) Start(ctx context.Context) {
	go s.worker(ctx)
	if s.opts.Interval > 0 {
		go s.schedule(ctx, s.opts.Interval)
	}
}

// Enqueue reports whether the job was queued; a full queue drops it.
func (s *Service) Enqueue(jobType, orgID string, run func(context.Context) (any, error)) bool {
	select {
	case s.queue <- job{Type: jobType, OrgID: orgID, Run: run}:
		return true
	default:
		slog.Warn("job queue full", "jobType", jobType, "organizationId", orgID)
		return false
	}
}

func (s *Service) RunNow(ctx context.Context, jobType, orgID string, run func(context.Context) (any, error)) (any, error) {
	return s.runJob(ctx, job{Type: jobType, OrgID: orgID, Run: run})
}

func (s *Service) worker(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case j := <-s.queue:
			if _, err := s.runJob(ctx, j); err != nil {
				slog.Warn("job run failed", "jobType", j.Type, "organizationId", j.OrgID, "err", err)
			}
		}
	}
}

func (s *Service) runJob(ctx context.Context, j job) (any, error) {
	runID, err := s.runs.StartRun(ctx, j.OrgID, j.Type)
	if err != nil {
		slog.Warn("job run insert failed", "err", err)
	}

	details, err := j.Run(ctx)
	status := "completed"
	if err != nil {
		status = "failed"
		details = map[string]any{"error": err.Error()}
	}
	detailsJSON, marshalErr := json.Marshal(details)
	if marshalErr != nil {
		slog.Warn("job details marshal failed", "err", marshalErr)
		detailsJSON = []byte("{}")
	}
	if runID != "" {
		if updErr := s.runs.FinishRun(ctx, runID, status, detailsJSON); updErr != nil {
			slog.Warn("job run update failed", "err", updErr)
		}
	}
	return details, err
}

func (s *Service) schedule(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Tick(ctx, s.now())
		}
	}
}

// Tick enqueues a challenge sweep for every organization and, on the close
// day, one award close per organization for the month before now.
func (s *Service) Tick(ctx context.Context, now time.Time) {
	orgs, err := s.runs.ListOrganizations(ctx)
	if err != nil {
		slog.Warn("scheduler organization lookup failed", "err", err)
		return
	}
	closing := now.UTC().Day() == s.opts.AwardCloseDay
	target := period.Of(now).Previous()

	for _, orgID := range orgs {
		org := orgID
		s.Enqueue(JobChallengeSweep, org, func(ctx context.Context) (any, error) {
			moved, err := s.sweeper.Sweep(ctx, org)
			return map[string]any{"moved": moved}, err
		})

		if !closing || !s.beginClose(org, target) {
			continue
		}
		queued := s.Enqueue(JobAwardClose, org, func(ctx context.Context) (any, error) {
			entries, err := s.closer.ResolvePeriod(ctx, org, target)
			s.finishClose(org, target, err == nil)
			return map[string]any{"period": target.String(), "resolved": len(entries)}, err
		})
		if !queued {
			s.finishClose(org, target, false)
		}
	}
}

// beginClose reports whether p still needs closing for orgID and is not
// already queued or running.
func (s *Service) beginClose(orgID string, p period.Period) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.lastClosed[orgID] == p || s.closing[orgID] == p {
		return false
	}
	s.closing[orgID] = p
	return true
}

// finishClose clears the in-flight mark. Only a successful run records p as
// closed, so a failed or dropped close is retried on the next tick.
func (s *Service) finishClose(orgID string, p period.Period, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.closing, orgID)
	if ok {
		s.lastClosed[orgID] = p
	}
}
