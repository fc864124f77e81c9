package jobs

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"perfboard/internal/domain/awards"
	"perfboard/internal/domain/period"
)

type fakeRuns struct {
	mu       sync.Mutex
	orgs     []string
	started  []string
	finished map[string]string
}

func (f *fakeRuns) ListOrganizations(context.Context) ([]string, error) {
	return f.orgs, nil
}

func (f *fakeRuns) StartRun(_ context.Context, orgID, jobType string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.started = append(f.started, jobType+":"+orgID)
	return jobType + ":" + orgID, nil
}

func (f *fakeRuns) FinishRun(_ context.Context, runID, status string, _ []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.finished == nil {
		f.finished = map[string]string{}
	}
	f.finished[runID] = status
	return nil
}

type fakeSweeper struct{ calls []string }

func (f *fakeSweeper) Sweep(_ context.Context, orgID string) (int, error) {
	f.calls = append(f.calls, orgID)
	return 2, nil
}

type fakeCloser struct {
	periods []string
	err     error
}

func (f *fakeCloser) ResolvePeriod(_ context.Context, orgID string, p period.Period) ([]awards.HistoryEntry, error) {
	f.periods = append(f.periods, orgID+"@"+p.String())
	return []awards.HistoryEntry{{Period: p.String()}}, f.err
}

func drain(t *testing.T, s *Service) {
	t.Helper()
	for len(s.queue) > 0 {
		j := <-s.queue
		_, _ = s.runJob(context.Background(), j)
	}
}

func TestTickSweepsEveryOrganization(t *testing.T) {
	runs := &fakeRuns{orgs: []string{"o1", "o2"}}
	sweeper := &fakeSweeper{}
	closer := &fakeCloser{}
	svc := New(runs, sweeper, closer, Options{AwardCloseDay: 1})

	svc.Tick(context.Background(), time.Date(2024, 7, 15, 10, 0, 0, 0, time.UTC))
	drain(t, svc)

	if len(sweeper.calls) != 2 {
		t.Fatalf("expected 2 sweeps, got %v", sweeper.calls)
	}
	if len(closer.periods) != 0 {
		t.Fatalf("expected no award close outside the close day, got %v", closer.periods)
	}
	if runs.finished["challenge_sweep:o1"] != "completed" {
		t.Fatalf("expected completed run, got %v", runs.finished)
	}
}

func TestTickClosesPreviousMonthOnce(t *testing.T) {
	runs := &fakeRuns{orgs: []string{"o1"}}
	closer := &fakeCloser{}
	svc := New(runs, &fakeSweeper{}, closer, Options{AwardCloseDay: 1})

	day := time.Date(2025, 1, 1, 3, 0, 0, 0, time.UTC)
	svc.Tick(context.Background(), day)
	svc.Tick(context.Background(), day.Add(time.Hour))
	drain(t, svc)

	if len(closer.periods) != 1 || closer.periods[0] != "o1@2024-12" {
		t.Fatalf("expected a single close for 2024-12, got %v", closer.periods)
	}
}

func TestRunJobRecordsFailure(t *testing.T) {
	runs := &fakeRuns{}
	svc := New(runs, &fakeSweeper{}, &fakeCloser{}, Options{})

	_, err := svc.RunNow(context.Background(), JobAwardClose, "o1", func(context.Context) (any, error) {
		return nil, errors.New("boom")
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if runs.finished["award_close:o1"] != "failed" {
		t.Fatalf("expected failed run, got %v", runs.finished)
	}
}

func TestTickRetriesFailedClose(t *testing.T) {
	runs := &fakeRuns{orgs: []string{"o1"}}
	closer := &fakeCloser{err: errors.New("ranking unavailable")}
	svc := New(runs, &fakeSweeper{}, closer, Options{AwardCloseDay: 1})

	day := time.Date(2025, 1, 1, 3, 0, 0, 0, time.UTC)
	svc.Tick(context.Background(), day)
	drain(t, svc)
	if runs.finished["award_close:o1"] != "failed" {
		t.Fatalf("expected failed close run, got %v", runs.finished)
	}

	closer.err = nil
	svc.Tick(context.Background(), day.Add(time.Hour))
	drain(t, svc)
	svc.Tick(context.Background(), day.Add(2*time.Hour))
	drain(t, svc)

	if len(closer.periods) != 2 {
		t.Fatalf("expected one retry after the failure and nothing after success, got %v", closer.periods)
	}
	if runs.finished["award_close:o1"] != "completed" {
		t.Fatalf("expected completed close run, got %v", runs.finished)
	}
}

func TestTickRetriesCloseDroppedByFullQueue(t *testing.T) {
	runs := &fakeRuns{orgs: []string{"o1"}}
	closer := &fakeCloser{}
	svc := New(runs, &fakeSweeper{}, closer, Options{AwardCloseDay: 1})
	svc.queue = make(chan job, 1)

	day := time.Date(2025, 1, 1, 3, 0, 0, 0, time.UTC)
	svc.Tick(context.Background(), day)
	drain(t, svc)
	if len(closer.periods) != 0 {
		t.Fatalf("expected the close to be dropped behind the sweep, got %v", closer.periods)
	}

	svc.queue = make(chan job, 4)
	svc.Tick(context.Background(), day.Add(time.Hour))
	drain(t, svc)
	if len(closer.periods) != 1 || closer.periods[0] != "o1@2024-12" {
		t.Fatalf("expected the dropped close to run on the next tick, got %v", closer.periods)
	}
}
