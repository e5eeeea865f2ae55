package evaluation

import (
	"context"
	"fmt"
	"math"
	"sort"

	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/aurahq/aura-backend/internal/data/metrics"
	"github.com/aurahq/aura-backend/internal/data/repos"
	types "github.com/aurahq/aura-backend/internal/domain"
	"github.com/aurahq/aura-backend/internal/pkg/apperr"
	"github.com/aurahq/aura-backend/internal/platform/logger"
)

// CumulativeGateHour is the local hour before which a cumulative
// direction=low definition is not judged: a partial-day total cannot yet
// be "too low".
const CumulativeGateHour = 21

type Deps struct {
	Log         *logger.Logger
	Definitions repos.TriggerDefinitionRepo
	Settings    repos.TriggerSettingRepo
	Events      repos.TriggerEventRepo
	Metrics     metrics.Store
}

type Input struct {
	UserID     uuid.UUID
	TargetDate time.Time // date-only
	JobType    string    // daily_eval evaluates non-cumulative kinds; intraday_eval the cumulative ones
	LocalHour  int       // user's local wall-clock hour right now, for cumulative gating
}

type Output struct {
	Evaluated     int
	Fired         int
	SkippedGroups int
}

type metricRef struct {
	table  string
	column string
}

// activeDef is a definition with its user's overrides folded in.
type activeDef struct {
	def       *types.TriggerDefinition
	threshold *float64
}

// Run evaluates every active definition for one user and target date, and
// upserts an event per firing. A fetch failure in one metric group skips
// that group only.
func Run(ctx context.Context, tx *gorm.DB, deps Deps, in Input) (Output, error) {
	out := Output{}
	if deps.Log == nil || deps.Definitions == nil || deps.Settings == nil || deps.Events == nil || deps.Metrics == nil {
		return out, fmt.Errorf("evaluation: missing deps")
	}
	if in.UserID == uuid.Nil {
		return out, fmt.Errorf("evaluation: %w: missing user id", apperr.ErrInvalidArgument)
	}
	log := deps.Log.With("component", "Evaluator", "user_id", in.UserID, "target_date", in.TargetDate.Format("2006-01-02"))

	defs, err := deps.Definitions.ListForUser(ctx, tx, in.UserID)
	if err != nil {
		return out, fmt.Errorf("list definitions: %w", err)
	}
	settings, err := deps.Settings.ListByUser(ctx, tx, in.UserID)
	if err != nil {
		return out, fmt.Errorf("list settings: %w", err)
	}

	groups := map[metricRef][]activeDef{}
	for _, def := range defs {
		enabled := def.EnabledByDefault
		threshold := def.DefaultThreshold
		if s, ok := settings[def.ID]; ok {
			if s.Enabled != nil {
				enabled = *s.Enabled
			}
			if s.Threshold != nil {
				threshold = s.Threshold
			}
		}
		if !enabled {
			continue
		}
		if !kindMatchesJob(def.ValueKind, in.JobType) {
			continue
		}
		ref := metricRef{table: def.MetricTable, column: def.MetricColumn}
		groups[ref] = append(groups[ref], activeDef{def: def, threshold: threshold})
	}
	if len(groups) == 0 {
		return out, fmt.Errorf("%w: no evaluable definitions", apperr.ErrNotConfigured)
	}

	// Stable group order keeps logs and note ordering deterministic.
	refs := make([]metricRef, 0, len(groups))
	for ref := range groups {
		refs = append(refs, ref)
	}
	sort.Slice(refs, func(i, j int) bool {
		if refs[i].table != refs[j].table {
			return refs[i].table < refs[j].table
		}
		return refs[i].column < refs[j].column
	})

	for _, ref := range refs {
		group := groups[ref]
		fired, evaluated, err := evaluateGroup(ctx, tx, deps, log, in, ref, group)
		if err != nil {
			log.Warn("metric group skipped", "table", ref.table, "column", ref.column, "error", err)
			out.SkippedGroups++
			continue
		}
		out.Evaluated += evaluated
		out.Fired += fired
	}
	return out, nil
}

func kindMatchesJob(kind, jobType string) bool {
	if jobType == types.JobTypeIntradayEval {
		return kind == types.ValueKindCumulative
	}
	return kind != types.ValueKindCumulative
}

func evaluateGroup(ctx context.Context, tx *gorm.DB, deps Deps, log *logger.Logger, in Input, ref metricRef, group []activeDef) (fired, evaluated int, err error) {
	value, err := deps.Metrics.GetValue(ctx, tx, in.UserID, ref.table, ref.column, in.TargetDate)
	if err != nil {
		return 0, 0, err
	}
	if value == nil {
		return 0, 0, nil
	}

	maxWindow := 0
	for _, ad := range group {
		if ad.def.BaselineWindowDays > maxWindow {
			maxWindow = ad.def.BaselineWindowDays
		}
	}
	history, err := deps.Metrics.GetHistory(ctx, tx, in.UserID,
		ref.table, ref.column,
		in.TargetDate.AddDate(0, 0, -maxWindow), in.TargetDate)
	if err != nil {
		return 0, 0, err
	}

	for _, ad := range group {
		didFire, ok := evaluateDefinition(ctx, tx, deps, log, in, ad, value, history)
		if !ok {
			continue
		}
		evaluated++
		if didFire {
			fired++
		}
	}
	return fired, evaluated, nil
}

func evaluateDefinition(ctx context.Context, tx *gorm.DB, deps Deps, log *logger.Logger, in Input, ad activeDef, value *metrics.Value, history []metrics.Value) (fired, evaluated bool) {
	def := ad.def

	if def.ValueKind == types.ValueKindCumulative &&
		def.Direction == types.DirectionLow &&
		in.LocalHour < CumulativeGateHour {
		return false, false
	}

	norm, err := NormalizerFor(def.ValueKind)
	if err != nil {
		log.Warn("definition skipped", "label", def.Label, "error", err)
		return false, false
	}
	v, err := norm.Normalize(*value)
	if err != nil {
		log.Warn("definition skipped", "label", def.Label, "error", err)
		return false, false
	}

	baseline := make([]float64, 0, len(history))
	for _, h := range history {
		if h.Date.Before(in.TargetDate.AddDate(0, 0, -def.BaselineWindowDays)) || !h.Date.Before(in.TargetDate) {
			continue
		}
		hv, hErr := norm.Normalize(h)
		if hErr != nil {
			continue
		}
		baseline = append(baseline, hv)
	}

	var reasons []string

	if ad.threshold != nil {
		th := norm.ConvertThreshold(*ad.threshold)
		if beyondThreshold(def.Direction, v, th) {
			reasons = append(reasons, fmt.Sprintf("%s %s at %s against threshold %s",
				def.Label, trendWord(def.Direction), formatValue(v), formatValue(th)))
		}
	}

	strategy := StrategyFor(def.BaselineStrategy)
	if dev, ok := strategy.Deviation(baseline, v); ok && beyondDeviation(def.Direction, dev) {
		reason := fmt.Sprintf("%s %.1f sigma %s %d-day baseline",
			def.Label, math.Abs(dev), trendWord(def.Direction), def.BaselineWindowDays)
		if def.BaselineStrategy == types.BaselineRobust {
			if sig, sok := RobustSignal(baseline, v); sok {
				reason = fmt.Sprintf("%s (signal %.0f/100)", reason, sig)
			}
		}
		reasons = append(reasons, reason)
	}

	if len(reasons) == 0 {
		return false, true
	}

	event := &types.TriggerEvent{
		ID:           uuid.New(),
		UserID:       in.UserID,
		Type:         def.EventType(),
		OccurredDate: in.TargetDate,
		Notes:        joinReasons(reasons),
		Labels:       def.Label,
	}
	if err := deps.Events.UpsertSystem(ctx, tx, event); err != nil {
		log.Error("event upsert failed", "label", def.Label, "error", err)
		return false, true
	}
	return true, true
}

func beyondThreshold(direction string, value, threshold float64) bool {
	if direction == types.DirectionLow {
		return value < threshold
	}
	return value > threshold
}

func beyondDeviation(direction string, dev float64) bool {
	if direction == types.DirectionLow {
		return dev < -DeviationLimit
	}
	return dev > DeviationLimit
}

func trendWord(direction string) string {
	if direction == types.DirectionLow {
		return "below"
	}
	return "above"
}

func formatValue(v float64) string {
	if v == math.Trunc(v) {
		return fmt.Sprintf("%.0f", v)
	}
	return fmt.Sprintf("%.1f", v)
}

func joinReasons(reasons []string) string {
	out := ""
	for i, r := range reasons {
		if i > 0 {
			out += "; "
		}
		out += r
	}
	return out
}
