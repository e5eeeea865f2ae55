package db

import (
	"gorm.io/gorm"

	types "github.com/aurahq/aura-backend/internal/domain"
)

func AutoMigrateAll(db *gorm.DB) error {
	return db.AutoMigrate(

		// =========================
		// Identity + location
		// =========================
		&types.User{},
		&types.LocationSample{},

		// =========================
		// Trigger catalog + per-user configuration
		// =========================
		&types.TriggerDefinition{},
		&types.TriggerSetting{},
		&types.SeverityMapping{},

		// =========================
		// Evaluation outputs + work queue
		// =========================
		&types.TriggerEvent{},
		&types.EvalJob{},

		// =========================
		// Scoring configuration + snapshots
		// =========================
		&types.DecayWeight{},
		&types.GaugeThreshold{},
		&types.DailyScore{},
		&types.LiveScore{},

		// =========================
		// Per-day metric tables (ingested externally, read-only here)
		// =========================
		&types.SleepDaily{},
		&types.WellnessDaily{},
	)
}
