package catalog

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"github.com/aurahq/aura-backend/internal/data/repos/testutil"
	types "github.com/aurahq/aura-backend/internal/domain"
)

func systemDef(label string) *types.TriggerDefinition {
	return &types.TriggerDefinition{
		ID:                 uuid.New(),
		Label:              label,
		Category:           "sleep",
		Direction:          types.DirectionLow,
		MetricTable:        "sleep_daily",
		MetricColumn:       "total_minutes",
		ValueKind:          types.ValueKindNumeric,
		DefaultThreshold:   testutil.PtrFloat(360),
		BaselineWindowDays: 28,
		BaselineStrategy:   types.BaselineClassic,
		EnabledByDefault:   true,
	}
}

func TestUpsertSystemRefreshesByLabel(t *testing.T) {
	gdb := testutil.DB(t)
	tx := testutil.Tx(t, gdb)
	ctx := context.Background()
	repo := NewTriggerDefinitionRepo(gdb, testutil.Logger(t))
	u := testutil.SeedUser(t, ctx, tx, "catalog-upsert@example.com")

	if err := repo.UpsertSystem(ctx, tx, []*types.TriggerDefinition{systemDef("short sleep")}); err != nil {
		t.Fatal(err)
	}
	// Re-seeding the same label with a new threshold updates in place.
	refreshed := systemDef("short sleep")
	refreshed.DefaultThreshold = testutil.PtrFloat(390)
	if err := repo.UpsertSystem(ctx, tx, []*types.TriggerDefinition{refreshed}); err != nil {
		t.Fatal(err)
	}

	defs, err := repo.ListForUser(ctx, tx, u.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(defs) != 1 {
		t.Fatalf("defs = %d, want 1", len(defs))
	}
	if defs[0].DefaultThreshold == nil || *defs[0].DefaultThreshold != 390 {
		t.Fatalf("threshold = %v, want refreshed 390", defs[0].DefaultThreshold)
	}
}

func TestListForUserIncludesPrivateRules(t *testing.T) {
	gdb := testutil.DB(t)
	tx := testutil.Tx(t, gdb)
	ctx := context.Background()
	repo := NewTriggerDefinitionRepo(gdb, testutil.Logger(t))
	owner := testutil.SeedUser(t, ctx, tx, "catalog-owner@example.com")
	other := testutil.SeedUser(t, ctx, tx, "catalog-other@example.com")

	if err := repo.UpsertSystem(ctx, tx, []*types.TriggerDefinition{systemDef("short sleep")}); err != nil {
		t.Fatal(err)
	}
	private := systemDef("my custom rule")
	private.OwnerUserID = &owner.ID
	if _, err := repo.Create(ctx, tx, []*types.TriggerDefinition{private}); err != nil {
		t.Fatal(err)
	}

	ownerDefs, err := repo.ListForUser(ctx, tx, owner.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(ownerDefs) != 2 {
		t.Fatalf("owner sees %d defs, want catalog + private", len(ownerDefs))
	}
	otherDefs, err := repo.ListForUser(ctx, tx, other.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(otherDefs) != 1 {
		t.Fatalf("other user sees %d defs, want catalog only", len(otherDefs))
	}
}

func TestSettingUpsertAndListByUser(t *testing.T) {
	gdb := testutil.DB(t)
	tx := testutil.Tx(t, gdb)
	ctx := context.Background()
	defRepo := NewTriggerDefinitionRepo(gdb, testutil.Logger(t))
	setRepo := NewTriggerSettingRepo(gdb, testutil.Logger(t))
	u := testutil.SeedUser(t, ctx, tx, "settings-upsert@example.com")

	def := systemDef("short sleep")
	if err := defRepo.UpsertSystem(ctx, tx, []*types.TriggerDefinition{def}); err != nil {
		t.Fatal(err)
	}

	if err := setRepo.Upsert(ctx, tx, &types.TriggerSetting{
		ID: uuid.New(), UserID: u.ID, DefinitionID: def.ID,
		Enabled: testutil.PtrBool(false),
	}); err != nil {
		t.Fatal(err)
	}
	// Second upsert replaces the override, not duplicates it.
	if err := setRepo.Upsert(ctx, tx, &types.TriggerSetting{
		ID: uuid.New(), UserID: u.ID, DefinitionID: def.ID,
		Enabled: testutil.PtrBool(true), Threshold: testutil.PtrFloat(300),
	}); err != nil {
		t.Fatal(err)
	}

	byDef, err := setRepo.ListByUser(ctx, tx, u.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(byDef) != 1 {
		t.Fatalf("settings = %d, want 1", len(byDef))
	}
	s := byDef[def.ID]
	if s == nil || s.Enabled == nil || !*s.Enabled || s.Threshold == nil || *s.Threshold != 300 {
		t.Fatalf("setting = %+v", s)
	}
}

func TestSeverityResolutionPrecedence(t *testing.T) {
	gdb := testutil.DB(t)
	tx := testutil.Tx(t, gdb)
	ctx := context.Background()
	repo := NewSeverityMappingRepo(gdb, testutil.Logger(t))
	u := testutil.SeedUser(t, ctx, tx, "severity-resolve@example.com")

	if err := repo.UpsertSystem(ctx, tx, []*types.SeverityMapping{
		{ID: uuid.New(), TriggerType: "short sleep", Severity: types.SeverityHigh},
		{ID: uuid.New(), TriggerType: "late bedtime", Severity: types.SeverityMild},
	}); err != nil {
		t.Fatal(err)
	}
	if err := repo.UpsertForUser(ctx, tx, &types.SeverityMapping{
		ID: uuid.New(), UserID: &u.ID, TriggerType: "late bedtime", Severity: types.SeverityHigh,
	}); err != nil {
		t.Fatal(err)
	}

	resolved, err := repo.ResolveForUser(ctx, tx, u.ID)
	if err != nil {
		t.Fatal(err)
	}
	if resolved["short sleep"] != types.SeverityHigh {
		t.Fatalf("short sleep = %q, want the system default", resolved["short sleep"])
	}
	if resolved["late bedtime"] != types.SeverityHigh {
		t.Fatalf("late bedtime = %q, want the user override", resolved["late bedtime"])
	}
}

func TestSeveritySystemReSeedConverges(t *testing.T) {
	gdb := testutil.DB(t)
	tx := testutil.Tx(t, gdb)
	ctx := context.Background()
	repo := NewSeverityMappingRepo(gdb, testutil.Logger(t))

	if err := repo.UpsertSystem(ctx, tx, []*types.SeverityMapping{
		{ID: uuid.New(), TriggerType: "short sleep", Severity: types.SeverityHigh},
	}); err != nil {
		t.Fatal(err)
	}
	if err := repo.UpsertSystem(ctx, tx, []*types.SeverityMapping{
		{ID: uuid.New(), TriggerType: "short sleep", Severity: types.SeverityMild},
	}); err != nil {
		t.Fatal(err)
	}

	var count int64
	if err := tx.Model(&types.SeverityMapping{}).Where("user_id IS NULL").Count(&count).Error; err != nil {
		t.Fatal(err)
	}
	if count != 1 {
		t.Fatalf("system rows = %d after re-seed, want 1", count)
	}
	resolved, err := repo.ResolveForUser(ctx, tx, uuid.Nil)
	if err != nil {
		t.Fatal(err)
	}
	if resolved["short sleep"] != types.SeverityMild {
		t.Fatalf("short sleep = %q after re-seed, want mild", resolved["short sleep"])
	}
}
