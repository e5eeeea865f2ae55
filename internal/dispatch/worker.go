package dispatch

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aurahq/aura-backend/internal/data/metrics"
	"github.com/aurahq/aura-backend/internal/data/repos"
	types "github.com/aurahq/aura-backend/internal/domain"
	"github.com/aurahq/aura-backend/internal/modules/evaluation"
	"github.com/aurahq/aura-backend/internal/modules/scoring"
	"github.com/aurahq/aura-backend/internal/pkg/apperr"
	"github.com/aurahq/aura-backend/internal/platform/logger"
)

const (
	// MaxAttempts caps leases per job; the attempt is charged at lease
	// time, so a third failure parks the job in error.
	MaxAttempts = 3
	// StaleAfter is how long a running job may hold its lock before
	// another worker may reclaim it.
	StaleAfter = 15 * time.Minute

	defaultBatchSize = 20
)

type BatchSummary struct {
	Picked int
	Done   int
	Errors int
}

type Worker struct {
	log      *logger.Logger
	jobs     repos.EvalJobRepo
	users    repos.UserRepo
	location repos.LocationSampleRepo
	eval     evaluation.Deps
	scorer   *scoring.Scorer
}

func NewWorker(
	baseLog *logger.Logger,
	jobs repos.EvalJobRepo,
	users repos.UserRepo,
	location repos.LocationSampleRepo,
	definitions repos.TriggerDefinitionRepo,
	settings repos.TriggerSettingRepo,
	events repos.TriggerEventRepo,
	metricStore metrics.Store,
	scorer *scoring.Scorer,
) *Worker {
	log := baseLog.With("component", "Worker")
	return &Worker{
		log:      log,
		jobs:     jobs,
		users:    users,
		location: location,
		eval: evaluation.Deps{
			Log:         baseLog,
			Definitions: definitions,
			Settings:    settings,
			Events:      events,
			Metrics:     metricStore,
		},
		scorer: scorer,
	}
}

// RunBatch leases and executes up to batchSize runnable jobs. The lease
// is a conditional update, so concurrent workers sharing a queue never
// run the same job twice.
func (w *Worker) RunBatch(ctx context.Context, batchSize int) BatchSummary {
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}
	summary := BatchSummary{}

	jobs, err := w.jobs.ListRunnable(ctx, nil, batchSize, MaxAttempts, StaleAfter)
	if err != nil {
		w.log.Error("list runnable jobs failed", "error", err)
		summary.Errors++
		return summary
	}

	for _, job := range jobs {
		leased, err := w.jobs.TryLease(ctx, nil, job.ID, StaleAfter)
		if err != nil {
			w.log.Error("lease failed", "job_id", job.ID, "error", err)
			summary.Errors++
			continue
		}
		if !leased {
			continue
		}
		summary.Picked++
		if w.runJob(ctx, job) {
			summary.Done++
		} else {
			summary.Errors++
		}
	}

	if summary.Picked > 0 {
		w.log.Info("job batch complete",
			"picked", summary.Picked, "done", summary.Done, "errors", summary.Errors)
	}
	return summary
}

// runJob executes one leased job and records its terminal state.
// Returns true when the job ended done.
func (w *Worker) runJob(ctx context.Context, job *types.EvalJob) (ok bool) {
	log := w.log.With("job_id", job.ID, "job_type", job.JobType, "user_id", job.UserID,
		"target_date", job.TargetDate.Format("2006-01-02"), "attempt", job.Attempts+1)

	defer func() {
		if r := recover(); r != nil {
			log.Error("job panicked", "panic", r)
			if err := w.jobs.MarkFailed(ctx, nil, job.ID, MaxAttempts, fmt.Sprintf("panic: %v", r)); err != nil {
				log.Error("mark failed after panic", "error", err)
			}
			ok = false
		}
	}()

	detail, err := w.execute(ctx, job)
	if err != nil {
		if errors.Is(err, apperr.ErrNotConfigured) {
			// Nothing to evaluate is a benign terminal state, not a retry.
			if mErr := w.jobs.MarkDone(ctx, nil, job.ID, "not configured: "+err.Error()); mErr != nil {
				log.Error("mark done failed", "error", mErr)
				return false
			}
			log.Info("job done without work", "reason", err.Error())
			return true
		}
		log.Warn("job failed", "error", err)
		if mErr := w.jobs.MarkFailed(ctx, nil, job.ID, MaxAttempts, err.Error()); mErr != nil {
			log.Error("mark failed", "error", mErr)
		}
		return false
	}

	if err := w.jobs.MarkDone(ctx, nil, job.ID, detail); err != nil {
		log.Error("mark done failed", "error", err)
		return false
	}
	log.Info("job done", "detail", detail)
	return true
}

func (w *Worker) execute(ctx context.Context, job *types.EvalJob) (string, error) {
	user, err := w.users.GetByID(ctx, nil, job.UserID)
	if err != nil {
		return "", fmt.Errorf("load user: %w", err)
	}
	if user == nil {
		return "", fmt.Errorf("user %s not found", job.UserID)
	}

	localHour := w.localHour(ctx, user, time.Now())

	out, err := evaluation.Run(ctx, nil, w.eval, evaluation.Input{
		UserID:     job.UserID,
		TargetDate: job.TargetDate,
		JobType:    job.JobType,
		LocalHour:  localHour,
	})
	if err != nil {
		return "", err
	}

	snap, err := w.scorer.RunForUser(ctx, nil, job.UserID, job.TargetDate)
	if err != nil {
		return "", fmt.Errorf("scoring: %w", err)
	}

	return fmt.Sprintf("evaluated=%d fired=%d skipped_groups=%d score=%d zone=%s",
		out.Evaluated, out.Fired, out.SkippedGroups, snap.Score, snap.Zone), nil
}

func (w *Worker) localHour(ctx context.Context, user *types.User, now time.Time) int {
	date := time.Date(now.UTC().Year(), now.UTC().Month(), now.UTC().Day(), 0, 0, 0, 0, time.UTC)
	name, err := w.location.ResolveTimezone(ctx, nil, user.ID, date)
	if err != nil || name == "" {
		name = user.DefaultTimezone
	}
	loc := time.UTC
	if name != "" {
		if l, lErr := time.LoadLocation(name); lErr == nil {
			loc = l
		}
	}
	return now.In(loc).Hour()
}

// Start polls for runnable jobs until the context is done.
func (w *Worker) Start(ctx context.Context, every time.Duration, batchSize int) {
	w.log.Info("worker started", "interval", every.String(), "batch_size", batchSize)
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			w.log.Info("worker stopped")
			return
		case <-ticker.C:
			w.RunBatch(ctx, batchSize)
		}
	}
}
