package services

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/aurahq/aura-backend/internal/data/repos"
	types "github.com/aurahq/aura-backend/internal/domain"
	"github.com/aurahq/aura-backend/internal/pkg/apperr"
	"github.com/aurahq/aura-backend/internal/platform/logger"
)

var eventTypeRe = regexp.MustCompile(`^[a-z0-9_\. -]{2,64}$`)

type ManualEventInput struct {
	Type         string    `json:"type"`
	OccurredDate time.Time `json:"occurred_date"`
	Notes        string    `json:"notes,omitempty"`
}

type EventService interface {
	// ReportManual records a user-reported event. Manual events join the
	// next scoring pass like any system firing.
	ReportManual(ctx context.Context, userID uuid.UUID, in ManualEventInput) (*types.TriggerEvent, error)
	ListInRange(ctx context.Context, userID uuid.UUID, from, to time.Time) ([]*types.TriggerEvent, error)
}

type eventService struct {
	db   *gorm.DB
	log  *logger.Logger
	repo repos.TriggerEventRepo
}

func NewEventService(db *gorm.DB, baseLog *logger.Logger, repo repos.TriggerEventRepo) EventService {
	return &eventService{
		db:   db,
		log:  baseLog.With("service", "EventService"),
		repo: repo,
	}
}

func (s *eventService) ReportManual(ctx context.Context, userID uuid.UUID, in ManualEventInput) (*types.TriggerEvent, error) {
	if userID == uuid.Nil {
		return nil, fmt.Errorf("%w: missing user id", apperr.ErrInvalidArgument)
	}
	typ := strings.TrimSpace(strings.ToLower(in.Type))
	if !eventTypeRe.MatchString(typ) {
		return nil, fmt.Errorf("%w: invalid event type", apperr.ErrInvalidArgument)
	}
	if in.OccurredDate.IsZero() {
		return nil, fmt.Errorf("%w: missing occurred date", apperr.ErrInvalidArgument)
	}
	occurred := time.Date(in.OccurredDate.Year(), in.OccurredDate.Month(), in.OccurredDate.Day(), 0, 0, 0, 0, time.UTC)

	existing, err := s.repo.GetByNaturalKey(ctx, s.db, userID, typ, types.SourceManual, occurred)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}

	event, err := s.repo.CreateManual(ctx, s.db, &types.TriggerEvent{
		ID:           uuid.New(),
		UserID:       userID,
		Type:         typ,
		OccurredDate: occurred,
		Notes:        strings.TrimSpace(in.Notes),
	})
	if err != nil {
		s.log.Warn("manual event create failed", "user_id", userID, "error", err)
		return nil, err
	}
	return event, nil
}

func (s *eventService) ListInRange(ctx context.Context, userID uuid.UUID, from, to time.Time) ([]*types.TriggerEvent, error) {
	if userID == uuid.Nil {
		return nil, fmt.Errorf("%w: missing user id", apperr.ErrInvalidArgument)
	}
	if !to.After(from) {
		return nil, fmt.Errorf("%w: empty date range", apperr.ErrInvalidArgument)
	}
	return s.repo.ListInRange(ctx, s.db, userID, from, to)
}
