package worker

import (
	"context"
	"errors"
	"time"

	"github.com/geocoder89/eventlite/internal/domain/job"
	"github.com/geocoder89/eventlite/internal/jobs"
	"github.com/geocoder89/eventlite/internal/notifications"
)

// ProcessOne claims and executes a single job. It reports whether a job was
// processed; claim errors other than "nothing pending" are returned.
func (w *Worker) ProcessOne(ctx context.Context) (bool, error) {
	claimCtx, cancel := context.WithTimeout(ctx, 2*time.Second)

	j, err := w.repo.ClaimNext(claimCtx, w.cfg.WorkerID)
	cancel()

	if err != nil {
		if errors.Is(err, job.ErrJobNotFound) {
			return false, nil
		}

		return false, err
	}

	if w.prom != nil {
		w.prom.JobsInFlight.Inc()
		defer w.prom.JobsInFlight.Dec()
	}

	start := w.now()
	err = w.execute(ctx, j)
	elapsed := w.now().Sub(start)

	if err != nil {
		result := w.handleFailure(ctx, j, err)
		w.observe(j.Type, result, elapsed)
		return true, nil
	}

	if err := w.repo.MarkDone(ctx, j.ID); err != nil {
		_ = w.repo.MarkFailed(ctx, j.ID, "mark_done_failed: "+err.Error())
		w.observe(j.Type, "failed", elapsed)
		return true, err
	}

	w.log.Info("job done", "job_id", j.ID, "job_type", j.Type, "duration_ms", elapsed.Milliseconds())
	w.observe(j.Type, "done", elapsed)
	return true, nil
}

func (w *Worker) execute(ctx context.Context, j job.Job) error {
	switch j.Type {
	case jobs.TypeRegistrationConfirmation:
		p, err := jobs.DecodeRegistrationConfirmation(j.Payload)

		if err != nil {
			return err
		}

		return w.notifier.SendRegistrationConfirmation(ctx, notifications.SendRegistrationConfirmationInput{
			Email:          p.Email,
			Name:           p.Name,
			EventID:        p.EventID,
			EventName:      p.EventName,
			RegistrationID: p.RegistrationID,
		})

	default:
		return jobs.ErrInvalidJobType
	}
}

// handleFailure decides between a retry and a permanent failure and reports
// the outcome label. Bad payloads and unknown types never retry.
func (w *Worker) handleFailure(ctx context.Context, j job.Job, execErr error) string {
	permanent := errors.Is(execErr, jobs.ErrInvalidJobPayload) || errors.Is(execErr, jobs.ErrInvalidJobType)

	if permanent || j.Attempts+1 >= j.MaxAttempts {
		if err := w.repo.MarkFailed(ctx, j.ID, execErr.Error()); err != nil {
			w.log.Error("mark failed error", "job_id", j.ID, "error", err)
		}

		w.log.Warn("job failed permanently", "job_id", j.ID, "job_type", j.Type, "attempts", j.Attempts+1, "error", execErr)
		return "failed"
	}

	runAt := w.now().Add(ExponentialBackoff(j.Attempts))

	if err := w.repo.Reschedule(ctx, j.ID, runAt, execErr.Error()); err != nil {
		w.log.Error("reschedule error", "job_id", j.ID, "error", err)
	}

	w.log.Info("job rescheduled", "job_id", j.ID, "job_type", j.Type, "attempt", j.Attempts+1, "run_at", runAt, "error", execErr)
	return "retry"
}

func (w *Worker) observe(jobType, result string, elapsed time.Duration) {
	if w.prom == nil {
		return
	}

	w.prom.JobDuration.WithLabelValues(jobType, result).Observe(elapsed.Seconds())
	w.prom.JobResults.WithLabelValues(jobType, result).Inc()
}
