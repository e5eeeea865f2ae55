package repos

import (
	"gorm.io/gorm"

	"github.com/aurahq/aura-backend/internal/data/repos/catalog"
	"github.com/aurahq/aura-backend/internal/data/repos/events"
	"github.com/aurahq/aura-backend/internal/data/repos/jobs"
	"github.com/aurahq/aura-backend/internal/data/repos/location"
	"github.com/aurahq/aura-backend/internal/data/repos/scoring"
	"github.com/aurahq/aura-backend/internal/data/repos/user"
	"github.com/aurahq/aura-backend/internal/platform/logger"
)

type UserRepo = user.UserRepo

type TriggerDefinitionRepo = catalog.TriggerDefinitionRepo
type TriggerSettingRepo = catalog.TriggerSettingRepo
type SeverityMappingRepo = catalog.SeverityMappingRepo

type TriggerEventRepo = events.TriggerEventRepo

type EvalJobRepo = jobs.EvalJobRepo

type DecayWeightRepo = scoring.DecayWeightRepo
type GaugeThresholdRepo = scoring.GaugeThresholdRepo
type DailyScoreRepo = scoring.DailyScoreRepo
type LiveScoreRepo = scoring.LiveScoreRepo
type Thresholds = scoring.Thresholds

type LocationSampleRepo = location.SampleRepo

func NewUserRepo(db *gorm.DB, baseLog *logger.Logger) UserRepo {
	return user.NewUserRepo(db, baseLog)
}

func NewTriggerDefinitionRepo(db *gorm.DB, baseLog *logger.Logger) TriggerDefinitionRepo {
	return catalog.NewTriggerDefinitionRepo(db, baseLog)
}
func NewTriggerSettingRepo(db *gorm.DB, baseLog *logger.Logger) TriggerSettingRepo {
	return catalog.NewTriggerSettingRepo(db, baseLog)
}
func NewSeverityMappingRepo(db *gorm.DB, baseLog *logger.Logger) SeverityMappingRepo {
	return catalog.NewSeverityMappingRepo(db, baseLog)
}

func NewTriggerEventRepo(db *gorm.DB, baseLog *logger.Logger) TriggerEventRepo {
	return events.NewTriggerEventRepo(db, baseLog)
}

func NewEvalJobRepo(db *gorm.DB, baseLog *logger.Logger) EvalJobRepo {
	return jobs.NewEvalJobRepo(db, baseLog)
}

func NewDecayWeightRepo(db *gorm.DB, baseLog *logger.Logger) DecayWeightRepo {
	return scoring.NewDecayWeightRepo(db, baseLog)
}
func NewGaugeThresholdRepo(db *gorm.DB, baseLog *logger.Logger) GaugeThresholdRepo {
	return scoring.NewGaugeThresholdRepo(db, baseLog)
}
func NewDailyScoreRepo(db *gorm.DB, baseLog *logger.Logger) DailyScoreRepo {
	return scoring.NewDailyScoreRepo(db, baseLog)
}
func NewLiveScoreRepo(db *gorm.DB, baseLog *logger.Logger) LiveScoreRepo {
	return scoring.NewLiveScoreRepo(db, baseLog)
}

func NewLocationSampleRepo(db *gorm.DB, baseLog *logger.Logger) LocationSampleRepo {
	return location.NewSampleRepo(db, baseLog)
}
