package scoring

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/aurahq/aura-backend/internal/data/repos"
	types "github.com/aurahq/aura-backend/internal/domain"
	"github.com/aurahq/aura-backend/internal/platform/logger"
)

// LiveCache publishes the freshest live snapshot for cheap reads. Nil is
// a valid cache; publish failures never fail the scoring pass.
type LiveCache interface {
	PublishLiveScore(ctx context.Context, userID uuid.UUID, payload []byte) error
}

type Scorer struct {
	log         *logger.Logger
	weights     repos.DecayWeightRepo
	thresholds  repos.GaugeThresholdRepo
	severities  repos.SeverityMappingRepo
	events      repos.TriggerEventRepo
	dailyScores repos.DailyScoreRepo
	liveScores  repos.LiveScoreRepo
	cache       LiveCache
}

func NewScorer(
	baseLog *logger.Logger,
	weights repos.DecayWeightRepo,
	thresholds repos.GaugeThresholdRepo,
	severities repos.SeverityMappingRepo,
	events repos.TriggerEventRepo,
	dailyScores repos.DailyScoreRepo,
	liveScores repos.LiveScoreRepo,
	cache LiveCache,
) *Scorer {
	return &Scorer{
		log:         baseLog.With("component", "Scorer"),
		weights:     weights,
		thresholds:  thresholds,
		severities:  severities,
		events:      events,
		dailyScores: dailyScores,
		liveScores:  liveScores,
		cache:       cache,
	}
}

// RunForUser recomputes the daily snapshot for targetDate and the live
// forecast, and persists both. Events are loaded once across the full
// lookback-plus-forecast window so every perspective date sees the same
// set.
func (s *Scorer) RunForUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID, targetDate time.Time) (Snapshot, error) {
	weights, err := s.weights.ResolveForUser(ctx, tx, userID)
	if err != nil {
		return Snapshot{}, fmt.Errorf("resolve decay weights: %w", err)
	}
	repoTh, err := s.thresholds.ResolveForUser(ctx, tx, userID)
	if err != nil {
		return Snapshot{}, fmt.Errorf("resolve gauge thresholds: %w", err)
	}
	th := Thresholds(repoTh)
	severities, err := s.severities.ResolveForUser(ctx, tx, userID)
	if err != nil {
		return Snapshot{}, fmt.Errorf("resolve severities: %w", err)
	}

	from := targetDate.AddDate(0, 0, -(DecaySpan - 1))
	to := targetDate.AddDate(0, 0, DecaySpan)
	events, err := s.events.ListInRange(ctx, tx, userID, from, to)
	if err != nil {
		return Snapshot{}, fmt.Errorf("list events: %w", err)
	}

	snaps := ComputeLive(targetDate, events, severities, weights, th)
	today := snaps[0]

	contribJSON, err := json.Marshal(today.Contributors)
	if err != nil {
		return Snapshot{}, fmt.Errorf("encode contributors: %w", err)
	}
	daily := &types.DailyScore{
		ID:           uuid.New(),
		UserID:       userID,
		Date:         today.Date,
		Score:        today.Score,
		Zone:         today.Zone,
		Percent:      today.Percent,
		Contributors: datatypes.JSON(contribJSON),
	}
	if err := s.dailyScores.Upsert(ctx, tx, daily); err != nil {
		return Snapshot{}, fmt.Errorf("upsert daily score: %w", err)
	}

	live, err := s.buildLive(userID, snaps, contribJSON)
	if err != nil {
		return Snapshot{}, err
	}
	if err := s.liveScores.Upsert(ctx, tx, live); err != nil {
		return Snapshot{}, fmt.Errorf("upsert live score: %w", err)
	}

	s.publish(ctx, userID, live)

	s.log.Info("scoring pass complete",
		"user_id", userID,
		"date", today.Date.Format("2006-01-02"),
		"score", today.Score,
		"zone", today.Zone,
		"contributors", len(today.Contributors))
	return today, nil
}

type dayRisk struct {
	Date         string        `json:"date"`
	Score        int           `json:"score"`
	Zone         string        `json:"zone"`
	Percent      int           `json:"percent"`
	Contributors []Contributor `json:"contributors"`
}

func (s *Scorer) buildLive(userID uuid.UUID, snaps []Snapshot, contribJSON []byte) (*types.LiveScore, error) {
	forecast := make([]int, 0, len(snaps))
	risks := make([]dayRisk, 0, len(snaps))
	for _, snap := range snaps {
		forecast = append(forecast, snap.Percent)
		risks = append(risks, dayRisk{
			Date:         snap.Date.Format("2006-01-02"),
			Score:        snap.Score,
			Zone:         snap.Zone,
			Percent:      snap.Percent,
			Contributors: snap.Contributors,
		})
	}
	forecastJSON, err := json.Marshal(forecast)
	if err != nil {
		return nil, fmt.Errorf("encode forecast: %w", err)
	}
	risksJSON, err := json.Marshal(risks)
	if err != nil {
		return nil, fmt.Errorf("encode day risks: %w", err)
	}
	today := snaps[0]
	return &types.LiveScore{
		ID:           uuid.New(),
		UserID:       userID,
		Date:         today.Date,
		Score:        today.Score,
		Zone:         today.Zone,
		Percent:      today.Percent,
		Contributors: datatypes.JSON(contribJSON),
		Forecast:     datatypes.JSON(forecastJSON),
		DayRisks:     datatypes.JSON(risksJSON),
	}, nil
}

func (s *Scorer) publish(ctx context.Context, userID uuid.UUID, live *types.LiveScore) {
	if s.cache == nil {
		return
	}
	payload, err := json.Marshal(live)
	if err != nil {
		s.log.Warn("live cache encode failed", "user_id", userID, "error", err)
		return
	}
	if err := s.cache.PublishLiveScore(ctx, userID, payload); err != nil {
		s.log.Warn("live cache publish failed", "user_id", userID, "error", err)
	}
}
