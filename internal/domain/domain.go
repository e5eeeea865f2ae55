package domain

import (
	"github.com/aurahq/aura-backend/internal/domain/catalog"
	"github.com/aurahq/aura-backend/internal/domain/events"
	"github.com/aurahq/aura-backend/internal/domain/jobs"
	"github.com/aurahq/aura-backend/internal/domain/location"
	"github.com/aurahq/aura-backend/internal/domain/metrics"
	"github.com/aurahq/aura-backend/internal/domain/scoring"
	"github.com/aurahq/aura-backend/internal/domain/user"
)

type User = user.User

type TriggerDefinition = catalog.TriggerDefinition
type TriggerSetting = catalog.TriggerSetting
type SeverityMapping = catalog.SeverityMapping

type TriggerEvent = events.TriggerEvent

type EvalJob = jobs.EvalJob

type DecayWeight = scoring.DecayWeight
type GaugeThreshold = scoring.GaugeThreshold
type DailyScore = scoring.DailyScore
type LiveScore = scoring.LiveScore

type LocationSample = location.Sample

type SleepDaily = metrics.SleepDaily
type WellnessDaily = metrics.WellnessDaily

const (
	DirectionLow  = catalog.DirectionLow
	DirectionHigh = catalog.DirectionHigh

	ValueKindNumeric     = catalog.ValueKindNumeric
	ValueKindOrdinalRisk = catalog.ValueKindOrdinalRisk
	ValueKindTimeOfDay   = catalog.ValueKindTimeOfDay
	ValueKindCumulative  = catalog.ValueKindCumulative

	BaselineClassic = catalog.BaselineClassic
	BaselineRobust  = catalog.BaselineRobust

	SeverityNone = catalog.SeverityNone
	SeverityLow  = catalog.SeverityLow
	SeverityMild = catalog.SeverityMild
	SeverityHigh = catalog.SeverityHigh

	SourceSystem = events.SourceSystem
	SourceManual = events.SourceManual

	JobTypeDailyEval    = jobs.JobTypeDailyEval
	JobTypeIntradayEval = jobs.JobTypeIntradayEval

	JobStatusQueued  = jobs.StatusQueued
	JobStatusRunning = jobs.StatusRunning
	JobStatusDone    = jobs.StatusDone
	JobStatusError   = jobs.StatusError

	ZoneNone = scoring.ZoneNone
	ZoneLow  = scoring.ZoneLow
	ZoneMild = scoring.ZoneMild
	ZoneHigh = scoring.ZoneHigh
)
