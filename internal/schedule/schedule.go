// Package schedule runs the watch loop at fixed wall-clock times. Run
// times are expressed in a configured timezone so daylight saving shifts
// keep the runs at the same local hour.
package schedule

import (
	"context"
	"sort"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/lanternhealth/enforcement-cli/internal/config"
)

// TimeOfDay is a wall-clock run time.
type TimeOfDay struct {
	Hour   int
	Minute int
}

// ParseTimes parses "HH:MM" strings into run times, sorted ascending.
func ParseTimes(specs []string) ([]TimeOfDay, error) {
	if len(specs) == 0 {
		return nil, eris.New("schedule: no run times configured")
	}

	out := make([]TimeOfDay, 0, len(specs))
	for _, spec := range specs {
		t, err := time.Parse("15:04", spec)
		if err != nil {
			return nil, eris.Wrapf(err, "schedule: unparseable run time %q", spec)
		}
		out = append(out, TimeOfDay{Hour: t.Hour(), Minute: t.Minute()})
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Hour != out[j].Hour {
			return out[i].Hour < out[j].Hour
		}
		return out[i].Minute < out[j].Minute
	})
	return out, nil
}

// Next returns the earliest run strictly after now. When every run time
// today has passed, it is the first run time tomorrow.
func Next(now time.Time, times []TimeOfDay, loc *time.Location) time.Time {
	local := now.In(loc)
	for _, tod := range times {
		candidate := time.Date(local.Year(), local.Month(), local.Day(), tod.Hour, tod.Minute, 0, 0, loc)
		if candidate.After(now) {
			return candidate
		}
	}
	first := times[0]
	tomorrow := local.AddDate(0, 0, 1)
	return time.Date(tomorrow.Year(), tomorrow.Month(), tomorrow.Day(), first.Hour, first.Minute, 0, 0, loc)
}

// Scheduler drives a function at the configured run times.
type Scheduler struct {
	times []TimeOfDay
	loc   *time.Location

	// Injection point for tests.
	now func() time.Time
}

// NewScheduler creates a Scheduler from config.
func NewScheduler(cfg config.ScheduleConfig) (*Scheduler, error) {
	times, err := ParseTimes(cfg.Times)
	if err != nil {
		return nil, err
	}

	loc := time.Local
	if cfg.Timezone != "" {
		loc, err = time.LoadLocation(cfg.Timezone)
		if err != nil {
			return nil, eris.Wrapf(err, "schedule: load timezone %q", cfg.Timezone)
		}
	}

	return &Scheduler{times: times, loc: loc, now: time.Now}, nil
}

// NextRun returns the next scheduled run after now.
func (s *Scheduler) NextRun() time.Time {
	return Next(s.now(), s.times, s.loc)
}

// Run calls fn at each scheduled time until the context is cancelled. A
// failing run is logged and the loop keeps going; only cancellation stops
// it.
func (s *Scheduler) Run(ctx context.Context, fn func(context.Context) error) error {
	for {
		next := s.NextRun()
		zap.L().Info("schedule: next run",
			zap.Time("at", next),
			zap.Duration("in", next.Sub(s.now())),
		)

		timer := time.NewTimer(next.Sub(s.now()))
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}

		if err := fn(ctx); err != nil {
			zap.L().Error("schedule: run failed", zap.Error(err))
		}
	}
}
