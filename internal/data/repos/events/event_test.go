package events

import (
	"context"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/aurahq/aura-backend/internal/data/repos/testutil"
	types "github.com/aurahq/aura-backend/internal/domain"
)

func TestUpsertSystemDedupesAndAppends(t *testing.T) {
	gdb := testutil.DB(t)
	tx := testutil.Tx(t, gdb)
	ctx := context.Background()
	repo := NewTriggerEventRepo(gdb, testutil.Logger(t))
	u := testutil.SeedUser(t, ctx, tx, "events-upsert@example.com")
	occurred := testutil.Date(t, "2026-03-09")

	first := &types.TriggerEvent{
		ID:           uuid.New(),
		UserID:       u.ID,
		Type:         "sleep disruption",
		OccurredDate: occurred,
		Notes:        "short sleep below threshold",
		Labels:       "short sleep",
	}
	if err := repo.UpsertSystem(ctx, tx, first); err != nil {
		t.Fatal(err)
	}

	// A second definition in the same display group lands on the same row.
	second := &types.TriggerEvent{
		ID:           uuid.New(),
		UserID:       u.ID,
		Type:         "sleep disruption",
		OccurredDate: occurred,
		Notes:        "late bedtime beyond baseline",
		Labels:       "late bedtime",
	}
	if err := repo.UpsertSystem(ctx, tx, second); err != nil {
		t.Fatal(err)
	}

	rows, err := repo.ListInRange(ctx, tx, u.ID, occurred, occurred.AddDate(0, 0, 1))
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 1 {
		t.Fatalf("rows = %d, want 1", len(rows))
	}
	got := rows[0]
	if !strings.Contains(got.Notes, "short sleep below threshold") ||
		!strings.Contains(got.Notes, "late bedtime beyond baseline") {
		t.Fatalf("notes = %q", got.Notes)
	}
	if got.Labels != "short sleep; late bedtime" {
		t.Fatalf("labels = %q", got.Labels)
	}
	if got.Source != types.SourceSystem {
		t.Fatalf("source = %q", got.Source)
	}
}

func TestUpsertSystemReRunIsIdempotent(t *testing.T) {
	gdb := testutil.DB(t)
	tx := testutil.Tx(t, gdb)
	ctx := context.Background()
	repo := NewTriggerEventRepo(gdb, testutil.Logger(t))
	u := testutil.SeedUser(t, ctx, tx, "events-idem@example.com")
	occurred := testutil.Date(t, "2026-03-09")

	for i := 0; i < 3; i++ {
		err := repo.UpsertSystem(ctx, tx, &types.TriggerEvent{
			ID:           uuid.New(),
			UserID:       u.ID,
			Type:         "high stress",
			OccurredDate: occurred,
			Notes:        "stress level high against baseline",
			Labels:       "high stress",
		})
		if err != nil {
			t.Fatal(err)
		}
	}

	rows, err := repo.ListInRange(ctx, tx, u.ID, occurred, occurred.AddDate(0, 0, 1))
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 1 {
		t.Fatalf("rows = %d, want 1", len(rows))
	}
	if rows[0].Notes != "stress level high against baseline" {
		t.Fatalf("notes grew on re-run: %q", rows[0].Notes)
	}
}

func TestManualAndSystemRowsCoexist(t *testing.T) {
	gdb := testutil.DB(t)
	tx := testutil.Tx(t, gdb)
	ctx := context.Background()
	repo := NewTriggerEventRepo(gdb, testutil.Logger(t))
	u := testutil.SeedUser(t, ctx, tx, "events-manual@example.com")
	occurred := testutil.Date(t, "2026-03-09")

	if err := repo.UpsertSystem(ctx, tx, &types.TriggerEvent{
		ID: uuid.New(), UserID: u.ID, Type: "high caffeine", OccurredDate: occurred,
	}); err != nil {
		t.Fatal(err)
	}
	manual, err := repo.CreateManual(ctx, tx, &types.TriggerEvent{
		ID: uuid.New(), UserID: u.ID, Type: "high caffeine", OccurredDate: occurred, Notes: "espresso count",
	})
	if err != nil {
		t.Fatal(err)
	}
	if manual.Source != types.SourceManual {
		t.Fatalf("manual source = %q", manual.Source)
	}

	rows, err := repo.ListInRange(ctx, tx, u.ID, occurred, occurred.AddDate(0, 0, 1))
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 2 {
		t.Fatalf("rows = %d, want system and manual to coexist", len(rows))
	}

	got, err := repo.GetByNaturalKey(ctx, tx, u.ID, "high caffeine", types.SourceManual, occurred)
	if err != nil {
		t.Fatal(err)
	}
	if got == nil || got.ID != manual.ID {
		t.Fatal("natural key lookup missed the manual row")
	}
}

func TestListInRangeIsHalfOpen(t *testing.T) {
	gdb := testutil.DB(t)
	tx := testutil.Tx(t, gdb)
	ctx := context.Background()
	repo := NewTriggerEventRepo(gdb, testutil.Logger(t))
	u := testutil.SeedUser(t, ctx, tx, "events-range@example.com")

	for _, d := range []string{"2026-03-08", "2026-03-09", "2026-03-10"} {
		if err := repo.UpsertSystem(ctx, tx, &types.TriggerEvent{
			ID: uuid.New(), UserID: u.ID, Type: "short sleep", OccurredDate: testutil.Date(t, d),
		}); err != nil {
			t.Fatal(err)
		}
	}

	rows, err := repo.ListInRange(ctx, tx, u.ID, testutil.Date(t, "2026-03-08"), testutil.Date(t, "2026-03-10"))
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 2 {
		t.Fatalf("rows = %d, want 2 ([from, to) excludes the upper bound)", len(rows))
	}
}
