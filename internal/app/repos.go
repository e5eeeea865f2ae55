package app

import (
	"gorm.io/gorm"

	"github.com/aurahq/aura-backend/internal/data/metrics"
	"github.com/aurahq/aura-backend/internal/data/repos"
	"github.com/aurahq/aura-backend/internal/platform/logger"
)

type Repos struct {
	User           repos.UserRepo
	Definition     repos.TriggerDefinitionRepo
	Setting        repos.TriggerSettingRepo
	Severity       repos.SeverityMappingRepo
	Event          repos.TriggerEventRepo
	Job            repos.EvalJobRepo
	DecayWeight    repos.DecayWeightRepo
	GaugeThreshold repos.GaugeThresholdRepo
	DailyScore     repos.DailyScoreRepo
	LiveScore      repos.LiveScoreRepo
	Location       repos.LocationSampleRepo
	Metrics        metrics.Store
}

func wireRepos(db *gorm.DB, log *logger.Logger) Repos {
	log.Info("Wiring repos...")
	return Repos{
		User:           repos.NewUserRepo(db, log),
		Definition:     repos.NewTriggerDefinitionRepo(db, log),
		Setting:        repos.NewTriggerSettingRepo(db, log),
		Severity:       repos.NewSeverityMappingRepo(db, log),
		Event:          repos.NewTriggerEventRepo(db, log),
		Job:            repos.NewEvalJobRepo(db, log),
		DecayWeight:    repos.NewDecayWeightRepo(db, log),
		GaugeThreshold: repos.NewGaugeThresholdRepo(db, log),
		DailyScore:     repos.NewDailyScoreRepo(db, log),
		LiveScore:      repos.NewLiveScoreRepo(db, log),
		Location:       repos.NewLocationSampleRepo(db, log),
		Metrics:        metrics.NewStore(db, log),
	}
}
