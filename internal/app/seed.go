package app

import (
	"context"
	"fmt"
	"os"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
	"gorm.io/gorm"

	types "github.com/aurahq/aura-backend/internal/domain"
	"github.com/aurahq/aura-backend/internal/platform/logger"
)

type seedFile struct {
	DecayWeights []struct {
		Severity string     `yaml:"severity"`
		Days     [7]float64 `yaml:"days"`
	} `yaml:"decay_weights"`

	GaugeThresholds []struct {
		Zone     string  `yaml:"zone"`
		MinValue float64 `yaml:"min_value"`
	} `yaml:"gauge_thresholds"`

	SeverityMappings []struct {
		TriggerType string `yaml:"trigger_type"`
		Severity    string `yaml:"severity"`
	} `yaml:"severity_mappings"`

	Definitions []struct {
		Label              string   `yaml:"label"`
		Category           string   `yaml:"category"`
		Direction          string   `yaml:"direction"`
		MetricTable        string   `yaml:"metric_table"`
		MetricColumn       string   `yaml:"metric_column"`
		ValueKind          string   `yaml:"value_kind"`
		DefaultThreshold   *float64 `yaml:"default_threshold"`
		BaselineWindowDays int      `yaml:"baseline_window_days"`
		BaselineStrategy   string   `yaml:"baseline_strategy"`
		EnabledByDefault   bool     `yaml:"enabled_by_default"`
		DisplayGroup       *string  `yaml:"display_group"`
	} `yaml:"definitions"`
}

// SeedDefaults loads the shared catalog and scoring configuration from a
// YAML file and upserts it as system rows. Re-running against the same
// file converges; user overrides are never touched.
func SeedDefaults(ctx context.Context, db *gorm.DB, log *logger.Logger, r Repos, path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read seed file: %w", err)
	}
	var f seedFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return fmt.Errorf("parse seed file: %w", err)
	}

	weights := make([]*types.DecayWeight, 0, len(f.DecayWeights))
	for _, w := range f.DecayWeights {
		weights = append(weights, &types.DecayWeight{
			ID:       uuid.New(),
			Severity: w.Severity,
			Day0:     w.Days[0], Day1: w.Days[1], Day2: w.Days[2], Day3: w.Days[3],
			Day4: w.Days[4], Day5: w.Days[5], Day6: w.Days[6],
		})
	}
	if err := r.DecayWeight.UpsertSystem(ctx, db, weights); err != nil {
		return fmt.Errorf("seed decay weights: %w", err)
	}

	thresholds := make([]*types.GaugeThreshold, 0, len(f.GaugeThresholds))
	for _, t := range f.GaugeThresholds {
		thresholds = append(thresholds, &types.GaugeThreshold{
			ID:       uuid.New(),
			Zone:     t.Zone,
			MinValue: t.MinValue,
		})
	}
	if err := r.GaugeThreshold.UpsertSystem(ctx, db, thresholds); err != nil {
		return fmt.Errorf("seed gauge thresholds: %w", err)
	}

	mappings := make([]*types.SeverityMapping, 0, len(f.SeverityMappings))
	for _, m := range f.SeverityMappings {
		mappings = append(mappings, &types.SeverityMapping{
			ID:          uuid.New(),
			TriggerType: m.TriggerType,
			Severity:    m.Severity,
		})
	}
	if err := r.Severity.UpsertSystem(ctx, db, mappings); err != nil {
		return fmt.Errorf("seed severity mappings: %w", err)
	}

	defs := make([]*types.TriggerDefinition, 0, len(f.Definitions))
	for _, d := range f.Definitions {
		windowDays := d.BaselineWindowDays
		if windowDays <= 0 {
			windowDays = 28
		}
		strategy := d.BaselineStrategy
		if strategy == "" {
			strategy = types.BaselineClassic
		}
		defs = append(defs, &types.TriggerDefinition{
			ID:                 uuid.New(),
			Label:              d.Label,
			Category:           d.Category,
			Direction:          d.Direction,
			MetricTable:        d.MetricTable,
			MetricColumn:       d.MetricColumn,
			ValueKind:          d.ValueKind,
			DefaultThreshold:   d.DefaultThreshold,
			BaselineWindowDays: windowDays,
			BaselineStrategy:   strategy,
			EnabledByDefault:   d.EnabledByDefault,
			DisplayGroup:       d.DisplayGroup,
		})
	}
	if err := r.Definition.UpsertSystem(ctx, db, defs); err != nil {
		return fmt.Errorf("seed definitions: %w", err)
	}

	log.Info("seeded defaults",
		"decay_weights", len(weights),
		"gauge_thresholds", len(thresholds),
		"severity_mappings", len(mappings),
		"definitions", len(defs))
	return nil
}
