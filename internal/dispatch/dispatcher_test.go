package dispatch

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/aurahq/aura-backend/internal/domain"
	"github.com/aurahq/aura-backend/internal/platform/logger"
)

type fakeUsers struct {
	users []*types.User
}

func (f *fakeUsers) Create(ctx context.Context, tx *gorm.DB, users []*types.User) ([]*types.User, error) {
	f.users = append(f.users, users...)
	return users, nil
}
func (f *fakeUsers) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.User, error) {
	for _, u := range f.users {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, nil
}
func (f *fakeUsers) ListActive(ctx context.Context, tx *gorm.DB) ([]*types.User, error) {
	return f.users, nil
}

type jobKey struct {
	jobType string
	userID  uuid.UUID
	date    string
}

type fakeJobs struct {
	rows     map[jobKey]*types.EvalJob
	requeued int
}

func (f *fakeJobs) key(j *types.EvalJob) jobKey {
	return jobKey{j.JobType, j.UserID, j.TargetDate.Format("2006-01-02")}
}
func (f *fakeJobs) Enqueue(ctx context.Context, tx *gorm.DB, jobs []*types.EvalJob) (int, error) {
	if f.rows == nil {
		f.rows = map[jobKey]*types.EvalJob{}
	}
	n := 0
	for _, j := range jobs {
		if _, ok := f.rows[f.key(j)]; ok {
			continue
		}
		f.rows[f.key(j)] = j
		n++
	}
	return n, nil
}
func (f *fakeJobs) Requeue(ctx context.Context, tx *gorm.DB, job *types.EvalJob) error {
	if f.rows == nil {
		f.rows = map[jobKey]*types.EvalJob{}
	}
	existing, ok := f.rows[f.key(job)]
	if !ok {
		f.rows[f.key(job)] = job
		return nil
	}
	if existing.Status == types.JobStatusDone {
		existing.Status = types.JobStatusQueued
		existing.Attempts = 0
		f.requeued++
	}
	return nil
}
func (f *fakeJobs) ListRunnable(ctx context.Context, tx *gorm.DB, limit, maxAttempts int, staleAfter time.Duration) ([]*types.EvalJob, error) {
	out := []*types.EvalJob{}
	for _, j := range f.rows {
		if j.Status == types.JobStatusQueued && j.Attempts < maxAttempts {
			out = append(out, j)
		}
	}
	return out, nil
}
func (f *fakeJobs) TryLease(ctx context.Context, tx *gorm.DB, id uuid.UUID, staleAfter time.Duration) (bool, error) {
	for _, j := range f.rows {
		if j.ID == id && j.Status == types.JobStatusQueued {
			j.Status = types.JobStatusRunning
			j.Attempts++
			return true, nil
		}
	}
	return false, nil
}
func (f *fakeJobs) MarkDone(ctx context.Context, tx *gorm.DB, id uuid.UUID, detail string) error {
	for _, j := range f.rows {
		if j.ID == id {
			j.Status = types.JobStatusDone
			j.Detail = detail
		}
	}
	return nil
}
func (f *fakeJobs) MarkFailed(ctx context.Context, tx *gorm.DB, id uuid.UUID, maxAttempts int, cause string) error {
	for _, j := range f.rows {
		if j.ID == id {
			if j.Attempts >= maxAttempts {
				j.Status = types.JobStatusError
			} else {
				j.Status = types.JobStatusQueued
			}
			j.LastError = cause
		}
	}
	return nil
}
func (f *fakeJobs) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.EvalJob, error) {
	for _, j := range f.rows {
		if j.ID == id {
			return j, nil
		}
	}
	return nil, nil
}
func (f *fakeJobs) ListByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID, limit int) ([]*types.EvalJob, error) {
	out := []*types.EvalJob{}
	for _, j := range f.rows {
		if j.UserID == userID {
			out = append(out, j)
		}
	}
	return out, nil
}

type fakeLocation struct {
	zones map[uuid.UUID]string
}

func (f *fakeLocation) Upsert(ctx context.Context, tx *gorm.DB, sample *types.LocationSample) error {
	return nil
}
func (f *fakeLocation) ResolveTimezone(ctx context.Context, tx *gorm.DB, userID uuid.UUID, date time.Time) (string, error) {
	return f.zones[userID], nil
}

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New("test")
	if err != nil {
		t.Fatalf("init logger: %v", err)
	}
	return log
}

func activeUser(tz string) *types.User {
	return &types.User{ID: uuid.New(), Email: uuid.New().String() + "@example.com", DefaultTimezone: tz}
}

func TestRunTickEnqueuesInsideMorningWindow(t *testing.T) {
	u := activeUser("UTC")
	jobs := &fakeJobs{}
	d := NewDispatcher(testLogger(t), &fakeUsers{users: []*types.User{u}}, jobs, &fakeLocation{}, DefaultEvalHour)

	now := time.Date(2026, 3, 10, 6, 5, 0, 0, time.UTC)
	summary := d.RunTick(context.Background(), now)
	if len(summary.Errors) != 0 {
		t.Fatalf("errors: %v", summary.Errors)
	}
	// One daily job for yesterday plus the intraday re-run for today.
	if summary.Enqueued != 2 {
		t.Fatalf("enqueued = %d, want 2", summary.Enqueued)
	}

	daily := jobs.rows[jobKey{types.JobTypeDailyEval, u.ID, "2026-03-09"}]
	if daily == nil {
		t.Fatal("expected a daily job targeting yesterday")
	}
	if daily.Status != types.JobStatusQueued {
		t.Fatalf("daily status = %q", daily.Status)
	}
	if jobs.rows[jobKey{types.JobTypeIntradayEval, u.ID, "2026-03-10"}] == nil {
		t.Fatal("expected an intraday job targeting today")
	}
}

func TestRunTickHonorsConfiguredEvalHour(t *testing.T) {
	u := activeUser("UTC")
	jobs := &fakeJobs{}
	d := NewDispatcher(testLogger(t), &fakeUsers{users: []*types.User{u}}, jobs, &fakeLocation{}, 8)

	// The default hour no longer opens the daily window.
	d.RunTick(context.Background(), time.Date(2026, 3, 10, 6, 5, 0, 0, time.UTC))
	if jobs.rows[jobKey{types.JobTypeDailyEval, u.ID, "2026-03-09"}] != nil {
		t.Fatal("daily job enqueued at the default hour despite the override")
	}

	d.RunTick(context.Background(), time.Date(2026, 3, 10, 8, 5, 0, 0, time.UTC))
	if jobs.rows[jobKey{types.JobTypeDailyEval, u.ID, "2026-03-09"}] == nil {
		t.Fatal("expected a daily job at the configured hour")
	}
}

func TestRunTickRespectsUserTimezone(t *testing.T) {
	u := activeUser("America/New_York")
	jobs := &fakeJobs{}
	d := NewDispatcher(testLogger(t), &fakeUsers{users: []*types.User{u}}, jobs, &fakeLocation{}, DefaultEvalHour)

	// 06:05 UTC is 01:05 in New York: no daily job yet.
	now := time.Date(2026, 3, 10, 6, 5, 0, 0, time.UTC)
	d.RunTick(context.Background(), now)
	if jobs.rows[jobKey{types.JobTypeDailyEval, u.ID, "2026-03-09"}] != nil {
		t.Fatal("daily job enqueued outside the user's local window")
	}

	// 10:05 UTC is 06:05 local: the daily window opens on New York time,
	// and the target is the local yesterday.
	now = time.Date(2026, 3, 10, 10, 5, 0, 0, time.UTC)
	d.RunTick(context.Background(), now)
	if jobs.rows[jobKey{types.JobTypeDailyEval, u.ID, "2026-03-09"}] == nil {
		t.Fatal("expected a daily job once the local window opened")
	}
}

func TestRunTickLocationSampleOverridesProfile(t *testing.T) {
	u := activeUser("UTC")
	jobs := &fakeJobs{}
	loc := &fakeLocation{zones: map[uuid.UUID]string{u.ID: "Asia/Tokyo"}}
	d := NewDispatcher(testLogger(t), &fakeUsers{users: []*types.User{u}}, jobs, loc, DefaultEvalHour)

	// 21:05 UTC is 06:05 in Tokyo on March 11.
	now := time.Date(2026, 3, 10, 21, 5, 0, 0, time.UTC)
	d.RunTick(context.Background(), now)
	if jobs.rows[jobKey{types.JobTypeDailyEval, u.ID, "2026-03-10"}] == nil {
		t.Fatal("expected the daily job keyed to the Tokyo local date")
	}
}

func TestRunTickOutsideWindowSkips(t *testing.T) {
	u := activeUser("UTC")
	jobs := &fakeJobs{}
	d := NewDispatcher(testLogger(t), &fakeUsers{users: []*types.User{u}}, jobs, &fakeLocation{}, DefaultEvalHour)

	now := time.Date(2026, 3, 10, 6, 30, 0, 0, time.UTC)
	summary := d.RunTick(context.Background(), now)
	if summary.Enqueued != 0 || summary.Skipped != 1 {
		t.Fatalf("enqueued=%d skipped=%d, want 0/1", summary.Enqueued, summary.Skipped)
	}
	if len(jobs.rows) != 0 {
		t.Fatalf("jobs = %d, want 0", len(jobs.rows))
	}
}

func TestRunTickDedupesRepeatTicks(t *testing.T) {
	u := activeUser("UTC")
	jobs := &fakeJobs{}
	d := NewDispatcher(testLogger(t), &fakeUsers{users: []*types.User{u}}, jobs, &fakeLocation{}, DefaultEvalHour)

	first := time.Date(2026, 3, 10, 6, 2, 0, 0, time.UTC)
	second := time.Date(2026, 3, 10, 6, 7, 0, 0, time.UTC)
	s1 := d.RunTick(context.Background(), first)
	s2 := d.RunTick(context.Background(), second)
	if s1.Enqueued != 2 {
		t.Fatalf("first tick enqueued = %d, want 2", s1.Enqueued)
	}
	// The second tick still reports the intraday requeue but inserts no
	// duplicate daily row.
	if len(jobs.rows) != 2 {
		t.Fatalf("jobs = %d after repeat tick, want 2", len(jobs.rows))
	}
	_ = s2
}

func TestRunTickReopensFinishedIntradayJob(t *testing.T) {
	u := activeUser("UTC")
	jobs := &fakeJobs{}
	d := NewDispatcher(testLogger(t), &fakeUsers{users: []*types.User{u}}, jobs, &fakeLocation{}, DefaultEvalHour)

	morning := time.Date(2026, 3, 10, 9, 3, 0, 0, time.UTC)
	d.RunTick(context.Background(), morning)
	key := jobKey{types.JobTypeIntradayEval, u.ID, "2026-03-10"}
	jobs.rows[key].Status = types.JobStatusDone

	nextHour := time.Date(2026, 3, 10, 10, 3, 0, 0, time.UTC)
	d.RunTick(context.Background(), nextHour)
	if jobs.rows[key].Status != types.JobStatusQueued {
		t.Fatalf("intraday status = %q after next hour, want queued", jobs.rows[key].Status)
	}
	if jobs.rows[key].Attempts != 0 {
		t.Fatalf("attempts = %d after requeue, want 0", jobs.rows[key].Attempts)
	}
}
