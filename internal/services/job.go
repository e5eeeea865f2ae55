package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/aurahq/aura-backend/internal/data/repos"
	types "github.com/aurahq/aura-backend/internal/domain"
	"github.com/aurahq/aura-backend/internal/pkg/apperr"
	"github.com/aurahq/aura-backend/internal/platform/logger"
)

type JobService interface {
	Get(ctx context.Context, id uuid.UUID) (*types.EvalJob, error)
	ListForUser(ctx context.Context, userID uuid.UUID, limit int) ([]*types.EvalJob, error)
	// EnqueueManual queues an ad-hoc evaluation, used by operators to
	// re-run a user's day after a data correction.
	EnqueueManual(ctx context.Context, userID uuid.UUID, jobType string, targetDate time.Time) (int, error)
}

type jobService struct {
	db   *gorm.DB
	log  *logger.Logger
	repo repos.EvalJobRepo
}

func NewJobService(db *gorm.DB, baseLog *logger.Logger, repo repos.EvalJobRepo) JobService {
	return &jobService{
		db:   db,
		log:  baseLog.With("service", "JobService"),
		repo: repo,
	}
}

func (s *jobService) Get(ctx context.Context, id uuid.UUID) (*types.EvalJob, error) {
	if id == uuid.Nil {
		return nil, fmt.Errorf("%w: missing job id", apperr.ErrInvalidArgument)
	}
	job, err := s.repo.GetByID(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	if job == nil {
		return nil, apperr.ErrNotFound
	}
	return job, nil
}

func (s *jobService) ListForUser(ctx context.Context, userID uuid.UUID, limit int) ([]*types.EvalJob, error) {
	if userID == uuid.Nil {
		return nil, fmt.Errorf("%w: missing user id", apperr.ErrInvalidArgument)
	}
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	return s.repo.ListByUser(ctx, s.db, userID, limit)
}

func (s *jobService) EnqueueManual(ctx context.Context, userID uuid.UUID, jobType string, targetDate time.Time) (int, error) {
	if userID == uuid.Nil {
		return 0, fmt.Errorf("%w: missing user id", apperr.ErrInvalidArgument)
	}
	if jobType != types.JobTypeDailyEval && jobType != types.JobTypeIntradayEval {
		return 0, fmt.Errorf("%w: unknown job type %q", apperr.ErrInvalidArgument, jobType)
	}
	if targetDate.IsZero() {
		return 0, fmt.Errorf("%w: missing target date", apperr.ErrInvalidArgument)
	}
	date := time.Date(targetDate.Year(), targetDate.Month(), targetDate.Day(), 0, 0, 0, 0, time.UTC)

	job := &types.EvalJob{
		ID:         uuid.New(),
		JobType:    jobType,
		UserID:     userID,
		TargetDate: date,
		Status:     types.JobStatusQueued,
	}
	n, err := s.repo.Enqueue(ctx, s.db, []*types.EvalJob{job})
	if err != nil {
		return 0, err
	}
	if n == 0 {
		// The natural key already exists; reopen it when finished.
		if err := s.repo.Requeue(ctx, s.db, job); err != nil {
			return 0, err
		}
	}
	return n, nil
}
