package worker

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/geocoder89/eventlite/internal/domain/job"
	"github.com/geocoder89/eventlite/internal/jobs"
	"github.com/geocoder89/eventlite/internal/notifications"
)

func TestExponentialBackoff(t *testing.T) {
	tests := []struct {
		attempt int
		want    time.Duration
	}{
		{attempt: 0, want: 2 * time.Second},
		{attempt: 1, want: 4 * time.Second},
		{attempt: 2, want: 8 * time.Second},
		{attempt: 5, want: 64 * time.Second},
		{attempt: 20, want: 5 * time.Minute}, // capped
	}

	for _, tt := range tests {
		got := ExponentialBackoff(tt.attempt)

		// jitter adds up to 250ms on top of the base delay
		if got < tt.want || got > tt.want+250*time.Millisecond {
			t.Fatalf("attempt %d: got %v, want %v (+jitter)", tt.attempt, got, tt.want)
		}
	}
}

type fakeJobsRepo struct {
	claimFn func(ctx context.Context, workerID string) (job.Job, error)

	done        []string
	failed      map[string]string
	rescheduled map[string]time.Time
}

func newFakeJobsRepo() *fakeJobsRepo {
	return &fakeJobsRepo{
		failed:      map[string]string{},
		rescheduled: map[string]time.Time{},
	}
}

func (f *fakeJobsRepo) ClaimNext(ctx context.Context, workerID string) (job.Job, error) {
	if f.claimFn != nil {
		return f.claimFn(ctx, workerID)
	}
	return job.Job{}, job.ErrJobNotFound
}

func (f *fakeJobsRepo) MarkDone(ctx context.Context, id string) error {
	f.done = append(f.done, id)
	return nil
}

func (f *fakeJobsRepo) MarkFailed(ctx context.Context, id string, errMsg string) error {
	f.failed[id] = errMsg
	return nil
}

func (f *fakeJobsRepo) Reschedule(ctx context.Context, id string, runAt time.Time, errMsg string) error {
	f.rescheduled[id] = runAt
	return nil
}

type fakeNotifier struct {
	sendErr error
	sent    []notifications.SendRegistrationConfirmationInput
}

func (f *fakeNotifier) SendRegistrationConfirmation(ctx context.Context, in notifications.SendRegistrationConfirmationInput) error {
	if f.sendErr != nil {
		return f.sendErr
	}
	f.sent = append(f.sent, in)
	return nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func confirmationJob(t *testing.T, attempts, maxAttempts int) job.Job {
	t.Helper()

	raw, err := jobs.RegistrationConfirmationPayload{
		RegistrationID: "reg-1",
		EventID:        "event-1",
		EventName:      "Go Meetup",
		Email:          "ada@example.com",
		Name:           "Ada",
		RequestedAt:    time.Now().UTC(),
	}.JSON()
	if err != nil {
		t.Fatalf("build payload: %v", err)
	}

	return job.Job{
		ID:          "job-1",
		Type:        jobs.TypeRegistrationConfirmation,
		Payload:     raw,
		Status:      job.StatusProcessing,
		Attempts:    attempts,
		MaxAttempts: maxAttempts,
	}
}

func TestProcessOne_NoPendingJob(t *testing.T) {
	w := New(Config{WorkerID: "test-1"}, newFakeJobsRepo(), &fakeNotifier{}, discardLogger(), nil)

	processed, err := w.ProcessOne(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if processed {
		t.Fatal("processed should be false with an empty queue")
	}
}

func TestProcessOne_Success(t *testing.T) {
	repo := newFakeJobsRepo()
	j := confirmationJob(t, 0, 10)
	repo.claimFn = func(ctx context.Context, workerID string) (job.Job, error) {
		return j, nil
	}

	notifier := &fakeNotifier{}
	w := New(Config{WorkerID: "test-1"}, repo, notifier, discardLogger(), nil)

	processed, err := w.ProcessOne(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !processed {
		t.Fatal("expected job to be processed")
	}

	if len(notifier.sent) != 1 {
		t.Fatalf("expected one send, got %d", len(notifier.sent))
	}

	sent := notifier.sent[0]
	if sent.Email != "ada@example.com" || sent.EventName != "Go Meetup" || sent.RegistrationID != "reg-1" {
		t.Fatalf("unexpected send input: %+v", sent)
	}

	if len(repo.done) != 1 || repo.done[0] != j.ID {
		t.Fatalf("job not marked done: %+v", repo.done)
	}
	if len(repo.rescheduled) != 0 || len(repo.failed) != 0 {
		t.Fatalf("successful job should not be rescheduled or failed")
	}
}

func TestProcessOne_RetriesWithBackoff(t *testing.T) {
	repo := newFakeJobsRepo()
	j := confirmationJob(t, 2, 10)
	repo.claimFn = func(ctx context.Context, workerID string) (job.Job, error) {
		return j, nil
	}

	notifier := &fakeNotifier{sendErr: errors.New("smtp timeout")}
	w := New(Config{WorkerID: "test-1"}, repo, notifier, discardLogger(), nil)

	before := time.Now()
	processed, err := w.ProcessOne(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !processed {
		t.Fatal("expected job to be processed")
	}

	runAt, ok := repo.rescheduled[j.ID]
	if !ok {
		t.Fatalf("job not rescheduled: failed=%v done=%v", repo.failed, repo.done)
	}

	// attempt 2 backs off by at least 8s
	if runAt.Before(before.Add(8 * time.Second)) {
		t.Fatalf("runAt %v too soon for attempt %d", runAt, j.Attempts)
	}

	if len(repo.done) != 0 || len(repo.failed) != 0 {
		t.Fatalf("retried job should not be done or failed")
	}
}

func TestProcessOne_ExhaustedAttemptsFailPermanently(t *testing.T) {
	repo := newFakeJobsRepo()
	j := confirmationJob(t, 9, 10)
	repo.claimFn = func(ctx context.Context, workerID string) (job.Job, error) {
		return j, nil
	}

	notifier := &fakeNotifier{sendErr: errors.New("smtp timeout")}
	w := New(Config{WorkerID: "test-1"}, repo, notifier, discardLogger(), nil)

	if _, err := w.ProcessOne(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, ok := repo.failed[j.ID]; !ok {
		t.Fatalf("job should be failed after max attempts: rescheduled=%v", repo.rescheduled)
	}
	if len(repo.rescheduled) != 0 {
		t.Fatalf("exhausted job must not be rescheduled")
	}
}

func TestProcessOne_BadPayloadNeverRetries(t *testing.T) {
	repo := newFakeJobsRepo()
	repo.claimFn = func(ctx context.Context, workerID string) (job.Job, error) {
		return job.Job{
			ID:          "job-bad",
			Type:        jobs.TypeRegistrationConfirmation,
			Payload:     []byte(`{"email":""}`),
			Attempts:    0,
			MaxAttempts: 10,
		}, nil
	}

	notifier := &fakeNotifier{}
	w := New(Config{WorkerID: "test-1"}, repo, notifier, discardLogger(), nil)

	if _, err := w.ProcessOne(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(notifier.sent) != 0 {
		t.Fatal("nothing should be sent for a bad payload")
	}
	if _, ok := repo.failed["job-bad"]; !ok {
		t.Fatalf("bad payload should fail permanently on first attempt")
	}
	if len(repo.rescheduled) != 0 {
		t.Fatal("bad payload must not be rescheduled")
	}
}

func TestProcessOne_UnknownTypeFailsPermanently(t *testing.T) {
	repo := newFakeJobsRepo()
	repo.claimFn = func(ctx context.Context, workerID string) (job.Job, error) {
		return job.Job{
			ID:          "job-odd",
			Type:        "newsletter.blast",
			Payload:     []byte(`{}`),
			MaxAttempts: 10,
		}, nil
	}

	w := New(Config{WorkerID: "test-1"}, repo, &fakeNotifier{}, discardLogger(), nil)

	if _, err := w.ProcessOne(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, ok := repo.failed["job-odd"]; !ok {
		t.Fatal("unknown job type should fail permanently")
	}
}

func TestProcessOne_ClaimErrorSurfaces(t *testing.T) {
	repo := newFakeJobsRepo()
	repo.claimFn = func(ctx context.Context, workerID string) (job.Job, error) {
		return job.Job{}, errors.New("connection refused")
	}

	w := New(Config{WorkerID: "test-1"}, repo, &fakeNotifier{}, discardLogger(), nil)

	processed, err := w.ProcessOne(context.Background())
	if err == nil {
		t.Fatal("expected claim error to surface")
	}
	if processed {
		t.Fatal("nothing was processed")
	}
}
