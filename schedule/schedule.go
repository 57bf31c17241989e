// Package schedule runs the scraper on a recurring timetable driven by an
// in-process cron engine.
package schedule

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/TOTskillconnect/tikscrap/config"
)

// dayAbbrev maps configured day names onto cron's three-letter tokens.
var dayAbbrev = map[string]string{
	"sunday":    "SUN",
	"monday":    "MON",
	"tuesday":   "TUE",
	"wednesday": "WED",
	"thursday":  "THU",
	"friday":    "FRI",
	"saturday":  "SAT",
}

// CronSpec translates the schedule config into a standard 5-field cron
// expression. A custom interval uses the configured expression verbatim;
// unknown intervals fall back to daily at 03:00.
func CronSpec(cfg config.ScheduleConfig) string {
	switch strings.ToLower(cfg.Interval) {
	case "hourly":
		return fmt.Sprintf("%d * * * *", cfg.Minute)
	case "daily":
		return fmt.Sprintf("%d %d * * *", cfg.Minute, cfg.Hour)
	case "weekly":
		var days []string
		for _, d := range cfg.Days {
			if abbrev, ok := dayAbbrev[strings.ToLower(strings.TrimSpace(d))]; ok {
				days = append(days, abbrev)
			}
		}
		if len(days) == 0 {
			days = []string{"MON"}
		}
		return fmt.Sprintf("%d %d * * %s", cfg.Minute, cfg.Hour, strings.Join(days, ","))
	case "custom":
		if cfg.CronExpr != "" {
			return cfg.CronExpr
		}
	}
	return "0 3 * * *"
}

// Scheduler triggers a run function on the configured cadence. Overlapping
// triggers are skipped; at most one run executes at a time.
type Scheduler struct {
	cfg     config.ScheduleConfig
	run     func(context.Context) error
	log     *zap.SugaredLogger
	cron    *cron.Cron
	running atomic.Bool
}

func New(cfg config.ScheduleConfig, run func(context.Context) error, log *zap.SugaredLogger) *Scheduler {
	return &Scheduler{cfg: cfg, run: run, log: log}
}

// Start registers the cron entry and blocks until ctx is cancelled. With
// runImmediately set, one run executes before the schedule takes over.
func (s *Scheduler) Start(ctx context.Context, runImmediately bool) error {
	spec := CronSpec(s.cfg)
	s.log.Infow("starting scheduler", "spec", spec, "interval", s.cfg.Interval)

	s.cron = cron.New(cron.WithLogger(cron.DiscardLogger))
	if _, err := s.cron.AddFunc(spec, func() { s.trigger(ctx) }); err != nil {
		return fmt.Errorf("register cron entry %q: %w", spec, err)
	}

	if runImmediately {
		s.trigger(ctx)
	}

	s.cron.Start()

	entries := s.cron.Entries()
	if len(entries) > 0 {
		s.log.Infow("next scheduled run", "at", entries[0].Next)
	}

	<-ctx.Done()

	stopped := s.cron.Stop()
	<-stopped.Done()
	s.log.Infow("scheduler stopped")
	return ctx.Err()
}

func (s *Scheduler) trigger(ctx context.Context) {
	if !s.running.CompareAndSwap(false, true) {
		s.log.Warnw("previous run still in progress, skipping trigger")
		return
	}
	defer s.running.Store(false)

	s.log.Infow("scheduled run starting")
	if err := s.run(ctx); err != nil {
		s.log.Errorw("scheduled run failed", "error", err)
		return
	}
	s.log.Infow("scheduled run finished")
}
