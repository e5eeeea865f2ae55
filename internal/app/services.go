package app

import (
	"gorm.io/gorm"

	redisclient "github.com/aurahq/aura-backend/internal/clients/redis"
	"github.com/aurahq/aura-backend/internal/dispatch"
	"github.com/aurahq/aura-backend/internal/modules/scoring"
	"github.com/aurahq/aura-backend/internal/platform/logger"
	"github.com/aurahq/aura-backend/internal/services"
)

type Services struct {
	Score services.ScoreService
	Event services.EventService
	Job   services.JobService

	Scorer     *scoring.Scorer
	Dispatcher *dispatch.Dispatcher
	Worker     *dispatch.Worker

	LiveCache redisclient.LiveScoreCache
}

func wireServices(db *gorm.DB, log *logger.Logger, cfg Config, r Repos) Services {
	log.Info("Wiring services...")

	var cache redisclient.LiveScoreCache
	if cfg.CacheEnable {
		c, err := redisclient.NewLiveScoreCache(log)
		if err != nil {
			log.Warn("live score cache unavailable, serving from Postgres only", "error", err)
		} else {
			cache = c
		}
	}

	var scorerCache scoring.LiveCache
	if cache != nil {
		scorerCache = cache
	}
	scorer := scoring.NewScorer(log, r.DecayWeight, r.GaugeThreshold, r.Severity, r.Event,
		r.DailyScore, r.LiveScore, scorerCache)

	dispatcher := dispatch.NewDispatcher(log, r.User, r.Job, r.Location, cfg.EvalHour)
	worker := dispatch.NewWorker(log, r.Job, r.User, r.Location, r.Definition, r.Setting, r.Event, r.Metrics, scorer)

	return Services{
		Score:      services.NewScoreService(db, log, r.DailyScore, r.LiveScore, cache),
		Event:      services.NewEventService(db, log, r.Event),
		Job:        services.NewJobService(db, log, r.Job),
		Scorer:     scorer,
		Dispatcher: dispatcher,
		Worker:     worker,
		LiveCache:  cache,
	}
}
