package location

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"github.com/aurahq/aura-backend/internal/data/repos/testutil"
	types "github.com/aurahq/aura-backend/internal/domain"
)

func TestResolveTimezonePrefersExactDate(t *testing.T) {
	gdb := testutil.DB(t)
	tx := testutil.Tx(t, gdb)
	ctx := context.Background()
	repo := NewSampleRepo(gdb, testutil.Logger(t))
	u := testutil.SeedUser(t, ctx, tx, "location-exact@example.com")

	for date, zone := range map[string]string{
		"2026-03-09": "Europe/Berlin",
		"2026-03-10": "Asia/Tokyo",
		"2026-03-11": "America/New_York",
	} {
		if err := repo.Upsert(ctx, tx, &types.LocationSample{
			ID: uuid.New(), UserID: u.ID, Date: testutil.Date(t, date), Timezone: zone,
		}); err != nil {
			t.Fatal(err)
		}
	}

	zone, err := repo.ResolveTimezone(ctx, tx, u.ID, testutil.Date(t, "2026-03-10"))
	if err != nil {
		t.Fatal(err)
	}
	if zone != "Asia/Tokyo" {
		t.Fatalf("zone = %q, want the exact-date sample", zone)
	}
}

func TestResolveTimezoneFallsBackToAdjacentDays(t *testing.T) {
	gdb := testutil.DB(t)
	tx := testutil.Tx(t, gdb)
	ctx := context.Background()
	repo := NewSampleRepo(gdb, testutil.Logger(t))
	u := testutil.SeedUser(t, ctx, tx, "location-adjacent@example.com")

	if err := repo.Upsert(ctx, tx, &types.LocationSample{
		ID: uuid.New(), UserID: u.ID, Date: testutil.Date(t, "2026-03-09"), Timezone: "Europe/Berlin",
	}); err != nil {
		t.Fatal(err)
	}

	zone, err := repo.ResolveTimezone(ctx, tx, u.ID, testutil.Date(t, "2026-03-10"))
	if err != nil {
		t.Fatal(err)
	}
	if zone != "Europe/Berlin" {
		t.Fatalf("zone = %q, want the previous day's sample", zone)
	}

	// Two days out is past the search horizon.
	zone, err = repo.ResolveTimezone(ctx, tx, u.ID, testutil.Date(t, "2026-03-12"))
	if err != nil {
		t.Fatal(err)
	}
	if zone != "" {
		t.Fatalf("zone = %q, want empty beyond the adjacent-day search", zone)
	}
}

func TestUpsertReplacesSameDay(t *testing.T) {
	gdb := testutil.DB(t)
	tx := testutil.Tx(t, gdb)
	ctx := context.Background()
	repo := NewSampleRepo(gdb, testutil.Logger(t))
	u := testutil.SeedUser(t, ctx, tx, "location-upsert@example.com")
	date := testutil.Date(t, "2026-03-10")

	for _, zone := range []string{"Europe/Berlin", "Europe/Lisbon"} {
		if err := repo.Upsert(ctx, tx, &types.LocationSample{
			ID: uuid.New(), UserID: u.ID, Date: date, Timezone: zone,
		}); err != nil {
			t.Fatal(err)
		}
	}

	zone, err := repo.ResolveTimezone(ctx, tx, u.ID, date)
	if err != nil {
		t.Fatal(err)
	}
	if zone != "Europe/Lisbon" {
		t.Fatalf("zone = %q, want the latest upsert", zone)
	}
}
