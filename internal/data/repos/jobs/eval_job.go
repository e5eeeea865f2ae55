package jobs

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/aurahq/aura-backend/internal/domain"
	"github.com/aurahq/aura-backend/internal/platform/logger"
)

type EvalJobRepo interface {
	// Enqueue inserts jobs, tolerating duplicates on the
	// (job_type, user_id, target_date) key as no-ops. Returns the number
	// of rows actually inserted.
	Enqueue(ctx context.Context, tx *gorm.DB, jobs []*types.EvalJob) (int, error)
	// Requeue reopens a finished job for the same natural key, used by the
	// hourly intraday cadence. Queued, running and terminal-error rows are
	// left alone; done rows go back to queued with attempts reset.
	Requeue(ctx context.Context, tx *gorm.DB, job *types.EvalJob) error

	// ListRunnable returns up to limit jobs that are leasable right now:
	// queued with attempts below maxAttempts, or running with a lock older
	// than staleAfter. Oldest-created first.
	ListRunnable(ctx context.Context, tx *gorm.DB, limit, maxAttempts int, staleAfter time.Duration) ([]*types.EvalJob, error)
	// TryLease attempts to take the lease on one job. The conditional
	// update's affected-row count is the success signal: false means
	// another worker holds it. Attempts increments on every successful
	// lease, regardless of outcome.
	TryLease(ctx context.Context, tx *gorm.DB, id uuid.UUID, staleAfter time.Duration) (bool, error)

	MarkDone(ctx context.Context, tx *gorm.DB, id uuid.UUID, detail string) error
	// MarkFailed releases the lease; the job returns to queued unless its
	// attempts have reached maxAttempts, in which case it lands in the
	// terminal error status.
	MarkFailed(ctx context.Context, tx *gorm.DB, id uuid.UUID, maxAttempts int, cause string) error

	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.EvalJob, error)
	ListByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID, limit int) ([]*types.EvalJob, error)
}

type evalJobRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewEvalJobRepo(db *gorm.DB, baseLog *logger.Logger) EvalJobRepo {
	return &evalJobRepo{db: db, log: baseLog.With("repo", "EvalJobRepo")}
}

func (r *evalJobRepo) Enqueue(ctx context.Context, tx *gorm.DB, jobs []*types.EvalJob) (int, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	if len(jobs) == 0 {
		return 0, nil
	}
	res := t.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "job_type"}, {Name: "user_id"}, {Name: "target_date"}},
			DoNothing: true,
		}).
		Create(&jobs)
	if res.Error != nil {
		return 0, res.Error
	}
	return int(res.RowsAffected), nil
}

func (r *evalJobRepo) Requeue(ctx context.Context, tx *gorm.DB, job *types.EvalJob) error {
	t := tx
	if t == nil {
		t = r.db
	}
	if job == nil {
		return nil
	}
	now := time.Now()
	return t.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "job_type"}, {Name: "user_id"}, {Name: "target_date"}},
			DoUpdates: clause.Assignments(map[string]interface{}{
				"status":     gorm.Expr("CASE WHEN eval_job.status = 'done' THEN 'queued' ELSE eval_job.status END"),
				"attempts":   gorm.Expr("CASE WHEN eval_job.status = 'done' THEN 0 ELSE eval_job.attempts END"),
				"updated_at": now,
			}),
		}).
		Create(job).Error
}

func (r *evalJobRepo) ListRunnable(ctx context.Context, tx *gorm.DB, limit, maxAttempts int, staleAfter time.Duration) ([]*types.EvalJob, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	if limit <= 0 {
		limit = 50
	}
	staleCutoff := time.Now().Add(-staleAfter)
	var out []*types.EvalJob
	err := t.WithContext(ctx).
		Where(`
      (status = ? AND attempts < ?)
      OR (status = ? AND locked_at IS NOT NULL AND locked_at < ?)
    `, types.JobStatusQueued, maxAttempts, types.JobStatusRunning, staleCutoff).
		Order("created_at ASC").
		Limit(limit).
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *evalJobRepo) TryLease(ctx context.Context, tx *gorm.DB, id uuid.UUID, staleAfter time.Duration) (bool, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	if id == uuid.Nil {
		return false, nil
	}
	now := time.Now()
	staleCutoff := now.Add(-staleAfter)
	res := t.WithContext(ctx).
		Model(&types.EvalJob{}).
		Where(`
      id = ?
      AND (
        status = ?
        OR (status = ? AND locked_at IS NOT NULL AND locked_at < ?)
      )
    `, id, types.JobStatusQueued, types.JobStatusRunning, staleCutoff).
		Updates(map[string]interface{}{
			"status":     types.JobStatusRunning,
			"attempts":   gorm.Expr("attempts + 1"),
			"locked_at":  now,
			"updated_at": now,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *evalJobRepo) MarkDone(ctx context.Context, tx *gorm.DB, id uuid.UUID, detail string) error {
	t := tx
	if t == nil {
		t = r.db
	}
	if id == uuid.Nil {
		return nil
	}
	return t.WithContext(ctx).
		Model(&types.EvalJob{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":     types.JobStatusDone,
			"locked_at":  nil,
			"last_error": "",
			"detail":     detail,
			"updated_at": time.Now(),
		}).Error
}

func (r *evalJobRepo) MarkFailed(ctx context.Context, tx *gorm.DB, id uuid.UUID, maxAttempts int, cause string) error {
	t := tx
	if t == nil {
		t = r.db
	}
	if id == uuid.Nil {
		return nil
	}
	return t.WithContext(ctx).
		Model(&types.EvalJob{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":     gorm.Expr("CASE WHEN attempts >= ? THEN 'error' ELSE 'queued' END", maxAttempts),
			"locked_at":  nil,
			"last_error": cause,
			"updated_at": time.Now(),
		}).Error
}

func (r *evalJobRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.EvalJob, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	if id == uuid.Nil {
		return nil, nil
	}
	var job types.EvalJob
	err := t.WithContext(ctx).
		Where("id = ?", id).
		Limit(1).
		Find(&job).Error
	if err != nil {
		return nil, err
	}
	if job.ID == uuid.Nil {
		return nil, nil
	}
	return &job, nil
}

func (r *evalJobRepo) ListByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID, limit int) ([]*types.EvalJob, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	if userID == uuid.Nil {
		return []*types.EvalJob{}, nil
	}
	if limit <= 0 {
		limit = 100
	}
	var out []*types.EvalJob
	err := t.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}
