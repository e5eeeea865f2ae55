package evaluation

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/aurahq/aura-backend/internal/data/metrics"
	types "github.com/aurahq/aura-backend/internal/domain"
	"github.com/aurahq/aura-backend/internal/pkg/apperr"
	"github.com/aurahq/aura-backend/internal/platform/logger"
)

type fakeDefinitions struct {
	defs []*types.TriggerDefinition
}

func (f *fakeDefinitions) Create(ctx context.Context, tx *gorm.DB, defs []*types.TriggerDefinition) ([]*types.TriggerDefinition, error) {
	f.defs = append(f.defs, defs...)
	return defs, nil
}
func (f *fakeDefinitions) UpsertSystem(ctx context.Context, tx *gorm.DB, defs []*types.TriggerDefinition) error {
	f.defs = append(f.defs, defs...)
	return nil
}
func (f *fakeDefinitions) ListForUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*types.TriggerDefinition, error) {
	return f.defs, nil
}
func (f *fakeDefinitions) GetByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) ([]*types.TriggerDefinition, error) {
	return f.defs, nil
}

type fakeSettings struct {
	byDef map[uuid.UUID]*types.TriggerSetting
}

func (f *fakeSettings) Upsert(ctx context.Context, tx *gorm.DB, setting *types.TriggerSetting) error {
	if f.byDef == nil {
		f.byDef = map[uuid.UUID]*types.TriggerSetting{}
	}
	f.byDef[setting.DefinitionID] = setting
	return nil
}
func (f *fakeSettings) ListByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (map[uuid.UUID]*types.TriggerSetting, error) {
	if f.byDef == nil {
		return map[uuid.UUID]*types.TriggerSetting{}, nil
	}
	return f.byDef, nil
}

type eventKey struct {
	typ  string
	date string
}

type fakeEvents struct {
	upserts map[eventKey]*types.TriggerEvent
}

func (f *fakeEvents) UpsertSystem(ctx context.Context, tx *gorm.DB, event *types.TriggerEvent) error {
	if f.upserts == nil {
		f.upserts = map[eventKey]*types.TriggerEvent{}
	}
	key := eventKey{typ: event.Type, date: event.OccurredDate.Format("2006-01-02")}
	existing, ok := f.upserts[key]
	if !ok {
		f.upserts[key] = event
		return nil
	}
	// mirror the SQL append-distinct behavior
	if event.Notes != "" && existing.Notes != event.Notes {
		existing.Notes += "; " + event.Notes
	}
	if event.Labels != "" && existing.Labels != event.Labels {
		existing.Labels += "; " + event.Labels
	}
	return nil
}
func (f *fakeEvents) CreateManual(ctx context.Context, tx *gorm.DB, event *types.TriggerEvent) (*types.TriggerEvent, error) {
	return event, nil
}
func (f *fakeEvents) ListInRange(ctx context.Context, tx *gorm.DB, userID uuid.UUID, from, to time.Time) ([]*types.TriggerEvent, error) {
	out := []*types.TriggerEvent{}
	for _, e := range f.upserts {
		out = append(out, e)
	}
	return out, nil
}
func (f *fakeEvents) GetByNaturalKey(ctx context.Context, tx *gorm.DB, userID uuid.UUID, eventType, source string, occurred time.Time) (*types.TriggerEvent, error) {
	return nil, nil
}

type metricKey struct {
	table  string
	column string
	date   string
}

type fakeMetrics struct {
	values map[metricKey]metrics.Value
	err    error
}

func (f *fakeMetrics) GetValue(ctx context.Context, tx *gorm.DB, userID uuid.UUID, table, column string, date time.Time) (*metrics.Value, error) {
	if f.err != nil {
		return nil, f.err
	}
	v, ok := f.values[metricKey{table, column, date.Format("2006-01-02")}]
	if !ok {
		return nil, nil
	}
	return &v, nil
}
func (f *fakeMetrics) GetHistory(ctx context.Context, tx *gorm.DB, userID uuid.UUID, table, column string, from, to time.Time) ([]metrics.Value, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := []metrics.Value{}
	for d := from; d.Before(to); d = d.AddDate(0, 0, 1) {
		if v, ok := f.values[metricKey{table, column, d.Format("2006-01-02")}]; ok {
			out = append(out, v)
		}
	}
	return out, nil
}

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New("test")
	if err != nil {
		t.Fatalf("init logger: %v", err)
	}
	return log
}

func sleepDef(label string) *types.TriggerDefinition {
	return &types.TriggerDefinition{
		ID:                 uuid.New(),
		Label:              label,
		Category:           "sleep",
		Direction:          types.DirectionLow,
		MetricTable:        "sleep_daily",
		MetricColumn:       "total_minutes",
		ValueKind:          types.ValueKindNumeric,
		DefaultThreshold:   ptrFloat(360),
		BaselineWindowDays: 28,
		BaselineStrategy:   types.BaselineClassic,
		EnabledByDefault:   true,
	}
}

func seedSteadySleep(fm *fakeMetrics, target time.Time, todayMinutes float64) {
	if fm.values == nil {
		fm.values = map[metricKey]metrics.Value{}
	}
	for i := 1; i <= 10; i++ {
		d := target.AddDate(0, 0, -i)
		v := 420.0
		fm.values[metricKey{"sleep_daily", "total_minutes", d.Format("2006-01-02")}] = metrics.Value{Date: d, Number: &v}
	}
	fm.values[metricKey{"sleep_daily", "total_minutes", target.Format("2006-01-02")}] = metrics.Value{Date: target, Number: &todayMinutes}
}

func TestRunFiresOnThreshold(t *testing.T) {
	target := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	fm := &fakeMetrics{}
	seedSteadySleep(fm, target, 300) // under the 360 threshold
	fe := &fakeEvents{}
	deps := Deps{
		Log:         testLogger(t),
		Definitions: &fakeDefinitions{defs: []*types.TriggerDefinition{sleepDef("short sleep")}},
		Settings:    &fakeSettings{},
		Events:      fe,
		Metrics:     fm,
	}

	out, err := Run(context.Background(), nil, deps, Input{
		UserID:     uuid.New(),
		TargetDate: target,
		JobType:    types.JobTypeDailyEval,
		LocalHour:  7,
	})
	if err != nil {
		t.Fatal(err)
	}
	if out.Fired != 1 {
		t.Fatalf("fired = %d, want 1", out.Fired)
	}
	ev, ok := fe.upserts[eventKey{"short sleep", "2026-03-10"}]
	if !ok {
		t.Fatal("expected a short sleep event")
	}
	if ev.Notes == "" || ev.Labels != "short sleep" {
		t.Fatalf("event notes=%q labels=%q", ev.Notes, ev.Labels)
	}
}

func TestRunQuietDayDoesNotFire(t *testing.T) {
	target := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	fm := &fakeMetrics{}
	seedSteadySleep(fm, target, 425) // near baseline, over threshold
	fe := &fakeEvents{}
	deps := Deps{
		Log:         testLogger(t),
		Definitions: &fakeDefinitions{defs: []*types.TriggerDefinition{sleepDef("short sleep")}},
		Settings:    &fakeSettings{},
		Events:      fe,
		Metrics:     fm,
	}

	out, err := Run(context.Background(), nil, deps, Input{
		UserID:     uuid.New(),
		TargetDate: target,
		JobType:    types.JobTypeDailyEval,
		LocalHour:  7,
	})
	if err != nil {
		t.Fatal(err)
	}
	if out.Fired != 0 {
		t.Fatalf("fired = %d, want 0", out.Fired)
	}
	if out.Evaluated != 1 {
		t.Fatalf("evaluated = %d, want 1", out.Evaluated)
	}
	if len(fe.upserts) != 0 {
		t.Fatalf("events = %d, want 0", len(fe.upserts))
	}
}

// Raising the threshold of a high-direction rule while the data stays
// fixed can only stop firings, never add them.
func TestRunRaisingHighThresholdNeverAddsFirings(t *testing.T) {
	target := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	fm := &fakeMetrics{values: map[metricKey]metrics.Value{}}
	// Alternating history keeps today's reading inside the baseline band,
	// so only the threshold comparison decides.
	for i := 1; i <= 10; i++ {
		d := target.AddDate(0, 0, -i)
		v := 440.0
		if i%2 == 0 {
			v = 460.0
		}
		fm.values[metricKey{"wellness_daily", "caffeine_mg", d.Format("2006-01-02")}] = metrics.Value{Date: d, Number: &v}
	}
	today := 450.0
	fm.values[metricKey{"wellness_daily", "caffeine_mg", target.Format("2006-01-02")}] = metrics.Value{Date: target, Number: &today}

	userID := uuid.New()
	fired := make([]int, 0, 4)
	for _, threshold := range []float64{300, 440, 460, 600} {
		def := &types.TriggerDefinition{
			ID:                 uuid.New(),
			Label:              "high caffeine",
			Category:           "nutrition",
			Direction:          types.DirectionHigh,
			MetricTable:        "wellness_daily",
			MetricColumn:       "caffeine_mg",
			ValueKind:          types.ValueKindNumeric,
			DefaultThreshold:   ptrFloat(threshold),
			BaselineWindowDays: 28,
			BaselineStrategy:   types.BaselineClassic,
			EnabledByDefault:   true,
		}
		deps := Deps{
			Log:         testLogger(t),
			Definitions: &fakeDefinitions{defs: []*types.TriggerDefinition{def}},
			Settings:    &fakeSettings{},
			Events:      &fakeEvents{},
			Metrics:     fm,
		}
		out, err := Run(context.Background(), nil, deps, Input{
			UserID:     userID,
			TargetDate: target,
			JobType:    types.JobTypeDailyEval,
			LocalHour:  7,
		})
		if err != nil {
			t.Fatalf("threshold %v: %v", threshold, err)
		}
		fired = append(fired, out.Fired)
	}

	for i := 1; i < len(fired); i++ {
		if fired[i] > fired[i-1] {
			t.Fatalf("fired counts %v increased between thresholds", fired)
		}
	}
	if fired[0] != 1 || fired[len(fired)-1] != 0 {
		t.Fatalf("fired counts = %v, want the lowest threshold to fire and the highest to stay quiet", fired)
	}
}

func TestRunDisplayGroupMergesDefinitions(t *testing.T) {
	target := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	group := "sleep disruption"
	first := sleepDef("short sleep")
	first.DisplayGroup = &group
	second := sleepDef("very short sleep")
	second.DisplayGroup = &group
	second.DefaultThreshold = ptrFloat(330)

	fm := &fakeMetrics{}
	seedSteadySleep(fm, target, 300)
	fe := &fakeEvents{}
	deps := Deps{
		Log:         testLogger(t),
		Definitions: &fakeDefinitions{defs: []*types.TriggerDefinition{first, second}},
		Settings:    &fakeSettings{},
		Events:      fe,
		Metrics:     fm,
	}

	out, err := Run(context.Background(), nil, deps, Input{
		UserID:     uuid.New(),
		TargetDate: target,
		JobType:    types.JobTypeDailyEval,
		LocalHour:  7,
	})
	if err != nil {
		t.Fatal(err)
	}
	if out.Fired != 2 {
		t.Fatalf("fired = %d, want 2", out.Fired)
	}
	if len(fe.upserts) != 1 {
		t.Fatalf("events = %d, want 1 merged row", len(fe.upserts))
	}
	ev := fe.upserts[eventKey{group, "2026-03-10"}]
	if ev == nil {
		t.Fatalf("expected merged event under %q", group)
	}
	if ev.Labels != "short sleep; very short sleep" {
		t.Fatalf("labels = %q", ev.Labels)
	}
}

func TestRunIsIdempotent(t *testing.T) {
	target := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	fm := &fakeMetrics{}
	seedSteadySleep(fm, target, 300)
	fe := &fakeEvents{}
	deps := Deps{
		Log:         testLogger(t),
		Definitions: &fakeDefinitions{defs: []*types.TriggerDefinition{sleepDef("short sleep")}},
		Settings:    &fakeSettings{},
		Events:      fe,
		Metrics:     fm,
	}
	in := Input{UserID: uuid.New(), TargetDate: target, JobType: types.JobTypeDailyEval, LocalHour: 7}

	if _, err := Run(context.Background(), nil, deps, in); err != nil {
		t.Fatal(err)
	}
	first := fe.upserts[eventKey{"short sleep", "2026-03-10"}]
	notes := first.Notes

	if _, err := Run(context.Background(), nil, deps, in); err != nil {
		t.Fatal(err)
	}
	if len(fe.upserts) != 1 {
		t.Fatalf("events = %d after re-run, want 1", len(fe.upserts))
	}
	if first.Notes != notes {
		t.Fatalf("notes changed on re-run: %q -> %q", notes, first.Notes)
	}
}

func TestRunSettingsOverrideThresholdAndEnable(t *testing.T) {
	target := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	def := sleepDef("short sleep")
	fm := &fakeMetrics{}
	seedSteadySleep(fm, target, 300)
	fe := &fakeEvents{}
	settings := &fakeSettings{byDef: map[uuid.UUID]*types.TriggerSetting{
		def.ID: {DefinitionID: def.ID, Enabled: ptrBool(false)},
	}}
	deps := Deps{
		Log:         testLogger(t),
		Definitions: &fakeDefinitions{defs: []*types.TriggerDefinition{def}},
		Settings:    settings,
		Events:      fe,
		Metrics:     fm,
	}
	in := Input{UserID: uuid.New(), TargetDate: target, JobType: types.JobTypeDailyEval, LocalHour: 7}

	// Disabled by the user: nothing evaluable at all.
	_, err := Run(context.Background(), nil, deps, in)
	if !errors.Is(err, apperr.ErrNotConfigured) {
		t.Fatalf("err = %v, want ErrNotConfigured", err)
	}

	// Re-enabled with a lower threshold: an ordinary night clears both
	// the override and the baseline check.
	settings.byDef[def.ID] = &types.TriggerSetting{
		DefinitionID: def.ID,
		Enabled:      ptrBool(true),
		Threshold:    ptrFloat(200),
	}
	for i := 1; i <= 10; i++ {
		d := target.AddDate(0, 0, -i)
		v := 410.0
		if i%2 == 0 {
			v = 430
		}
		fm.values[metricKey{"sleep_daily", "total_minutes", d.Format("2006-01-02")}] = metrics.Value{Date: d, Number: &v}
	}
	fm.values[metricKey{"sleep_daily", "total_minutes", target.Format("2006-01-02")}] = metrics.Value{Date: target, Number: ptrFloat(419)}
	out, err := Run(context.Background(), nil, deps, in)
	if err != nil {
		t.Fatal(err)
	}
	if out.Fired != 0 {
		t.Fatalf("fired = %d with near-baseline value, want 0", out.Fired)
	}
}

func TestRunCumulativeGatedUntilEvening(t *testing.T) {
	target := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	def := &types.TriggerDefinition{
		ID:                 uuid.New(),
		Label:              "low hydration",
		Category:           "wellness",
		Direction:          types.DirectionLow,
		MetricTable:        "wellness_daily",
		MetricColumn:       "water_ml",
		ValueKind:          types.ValueKindCumulative,
		DefaultThreshold:   ptrFloat(1200),
		BaselineWindowDays: 28,
		BaselineStrategy:   types.BaselineClassic,
		EnabledByDefault:   true,
	}
	fm := &fakeMetrics{values: map[metricKey]metrics.Value{
		{"wellness_daily", "water_ml", "2026-03-10"}: {Date: target, Number: ptrFloat(400)},
	}}
	fe := &fakeEvents{}
	deps := Deps{
		Log:         testLogger(t),
		Definitions: &fakeDefinitions{defs: []*types.TriggerDefinition{def}},
		Settings:    &fakeSettings{},
		Events:      fe,
		Metrics:     fm,
	}

	// Mid-afternoon: the day's total is still accumulating.
	out, err := Run(context.Background(), nil, deps, Input{
		UserID:     uuid.New(),
		TargetDate: target,
		JobType:    types.JobTypeIntradayEval,
		LocalHour:  15,
	})
	if err != nil {
		t.Fatal(err)
	}
	if out.Fired != 0 || out.Evaluated != 0 {
		t.Fatalf("fired=%d evaluated=%d before the gate, want 0/0", out.Fired, out.Evaluated)
	}

	// Evening: the shortfall is real now.
	out, err = Run(context.Background(), nil, deps, Input{
		UserID:     uuid.New(),
		TargetDate: target,
		JobType:    types.JobTypeIntradayEval,
		LocalHour:  21,
	})
	if err != nil {
		t.Fatal(err)
	}
	if out.Fired != 1 {
		t.Fatalf("fired = %d after the gate, want 1", out.Fired)
	}
}

func TestRunJobTypeFiltersKinds(t *testing.T) {
	target := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	fm := &fakeMetrics{}
	seedSteadySleep(fm, target, 300)
	fe := &fakeEvents{}
	deps := Deps{
		Log:         testLogger(t),
		Definitions: &fakeDefinitions{defs: []*types.TriggerDefinition{sleepDef("short sleep")}},
		Settings:    &fakeSettings{},
		Events:      fe,
		Metrics:     fm,
	}

	// A numeric definition is not the intraday job's business.
	_, err := Run(context.Background(), nil, deps, Input{
		UserID:     uuid.New(),
		TargetDate: target,
		JobType:    types.JobTypeIntradayEval,
		LocalHour:  21,
	})
	if !errors.Is(err, apperr.ErrNotConfigured) {
		t.Fatalf("err = %v, want ErrNotConfigured", err)
	}
}

func TestRunMetricFailureSkipsGroupOnly(t *testing.T) {
	target := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	fm := &fakeMetrics{err: errors.New("relation missing")}
	fe := &fakeEvents{}
	deps := Deps{
		Log:         testLogger(t),
		Definitions: &fakeDefinitions{defs: []*types.TriggerDefinition{sleepDef("short sleep")}},
		Settings:    &fakeSettings{},
		Events:      fe,
		Metrics:     fm,
	}

	out, err := Run(context.Background(), nil, deps, Input{
		UserID:     uuid.New(),
		TargetDate: target,
		JobType:    types.JobTypeDailyEval,
		LocalHour:  7,
	})
	if err != nil {
		t.Fatal(err)
	}
	if out.SkippedGroups != 1 {
		t.Fatalf("skipped groups = %d, want 1", out.SkippedGroups)
	}
	if out.Evaluated != 0 || out.Fired != 0 {
		t.Fatalf("evaluated=%d fired=%d, want 0/0", out.Evaluated, out.Fired)
	}
}

func ptrBool(v bool) *bool { return &v }
