package dispatch

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/aurahq/aura-backend/internal/data/repos"
	types "github.com/aurahq/aura-backend/internal/domain"
	"github.com/aurahq/aura-backend/internal/platform/logger"
)

const (
	// DefaultEvalHour is the local hour at which each user's daily
	// evaluation is due. EvalWindowMinutes bounds how far past the hour a
	// tick still counts; the job key dedupes repeat ticks inside the
	// window.
	DefaultEvalHour   = 6
	EvalWindowMinutes = 10

	dispatchConcurrency = 8
)

type TickSummary struct {
	Enqueued int
	Skipped  int
	Errors   []error
}

type Dispatcher struct {
	log      *logger.Logger
	users    repos.UserRepo
	jobs     repos.EvalJobRepo
	location repos.LocationSampleRepo
	evalHour int
}

func NewDispatcher(baseLog *logger.Logger, users repos.UserRepo, jobs repos.EvalJobRepo, location repos.LocationSampleRepo, evalHour int) *Dispatcher {
	if evalHour < 0 || evalHour > 23 {
		evalHour = DefaultEvalHour
	}
	return &Dispatcher{
		log:      baseLog.With("component", "Dispatcher"),
		users:    users,
		jobs:     jobs,
		location: location,
		evalHour: evalHour,
	}
}

// RunTick walks every active user, resolves their local wall clock, and
// enqueues whatever work is due: the daily evaluation for yesterday when
// the local clock is inside the morning window, and an hourly intraday
// re-run for today. One user's failure never blocks the rest.
func (d *Dispatcher) RunTick(ctx context.Context, now time.Time) TickSummary {
	users, err := d.users.ListActive(ctx, nil)
	if err != nil {
		return TickSummary{Errors: []error{fmt.Errorf("list users: %w", err)}}
	}

	var enqueued, skipped atomic.Int64
	var mu sync.Mutex
	var errs []error

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(dispatchConcurrency)
	for _, u := range users {
		u := u
		g.Go(func() error {
			n, err := d.dispatchUser(gctx, u, now)
			if err != nil {
				mu.Lock()
				errs = append(errs, fmt.Errorf("user %s: %w", u.ID, err))
				mu.Unlock()
				return nil
			}
			if n == 0 {
				skipped.Add(1)
			} else {
				enqueued.Add(int64(n))
			}
			return nil
		})
	}
	_ = g.Wait()

	summary := TickSummary{
		Enqueued: int(enqueued.Load()),
		Skipped:  int(skipped.Load()),
		Errors:   errs,
	}
	if summary.Enqueued > 0 || len(summary.Errors) > 0 {
		d.log.Info("dispatch tick",
			"enqueued", summary.Enqueued,
			"skipped", summary.Skipped,
			"errors", len(summary.Errors))
	}
	return summary
}

func (d *Dispatcher) dispatchUser(ctx context.Context, u *types.User, now time.Time) (int, error) {
	loc, err := d.resolveLocation(ctx, u, now)
	if err != nil {
		return 0, err
	}
	local := now.In(loc)
	localDate := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, time.UTC)

	enqueued := 0

	if local.Hour() == d.evalHour && local.Minute() < EvalWindowMinutes {
		n, err := d.jobs.Enqueue(ctx, nil, []*types.EvalJob{{
			ID:         uuid.New(),
			JobType:    types.JobTypeDailyEval,
			UserID:     u.ID,
			TargetDate: localDate.AddDate(0, 0, -1),
			Status:     types.JobStatusQueued,
		}})
		if err != nil {
			return enqueued, fmt.Errorf("enqueue daily: %w", err)
		}
		enqueued += n
	}

	// Intraday runs re-open the same (job_type, user, date) key at the
	// top of each hour.
	if local.Minute() < EvalWindowMinutes {
		if err := d.jobs.Requeue(ctx, nil, &types.EvalJob{
			ID:         uuid.New(),
			JobType:    types.JobTypeIntradayEval,
			UserID:     u.ID,
			TargetDate: localDate,
			Status:     types.JobStatusQueued,
		}); err != nil {
			return enqueued, fmt.Errorf("requeue intraday: %w", err)
		}
		enqueued++
	}

	return enqueued, nil
}

// resolveLocation picks the user's zone from the nearest location sample,
// then the profile default, then UTC.
func (d *Dispatcher) resolveLocation(ctx context.Context, u *types.User, now time.Time) (*time.Location, error) {
	date := time.Date(now.UTC().Year(), now.UTC().Month(), now.UTC().Day(), 0, 0, 0, 0, time.UTC)
	name, err := d.location.ResolveTimezone(ctx, nil, u.ID, date)
	if err != nil {
		return nil, fmt.Errorf("resolve timezone: %w", err)
	}
	if name == "" {
		name = u.DefaultTimezone
	}
	if name == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		d.log.Warn("bad timezone, using UTC", "user_id", u.ID, "timezone", name)
		return time.UTC, nil
	}
	return loc, nil
}

// Start runs RunTick on a fixed cadence until the context is done.
func (d *Dispatcher) Start(ctx context.Context, every time.Duration) {
	d.log.Info("dispatcher started", "interval", every.String())
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			d.log.Info("dispatcher stopped")
			return
		case now := <-ticker.C:
			func() {
				defer func() {
					if r := recover(); r != nil {
						d.log.Error("dispatch tick panicked", "panic", r)
					}
				}()
				d.RunTick(ctx, now)
			}()
		}
	}
}
