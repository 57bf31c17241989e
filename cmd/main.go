package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/TOTskillconnect/tikscrap/config"
	"github.com/TOTskillconnect/tikscrap/logger"
	"github.com/TOTskillconnect/tikscrap/output"
	"github.com/TOTskillconnect/tikscrap/schedule"
	"github.com/TOTskillconnect/tikscrap/scrape"
	"github.com/TOTskillconnect/tikscrap/storage"
)

func main() {
	cfgPath := flag.String("config", "./config.yaml", "path to config file")
	runNow := flag.Bool("now", false, "run once immediately before the scheduler takes over")
	flag.Parse()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Trap interrupts to exit cleanly and close any open browsers.
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	// Load optional .env to ease local development.
	_ = godotenv.Load()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	zapLogger, err := logger.New(cfg.Logging.Level, cfg.Logging.File)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer zapLogger.Sync()
	logr := zapLogger.Sugar()

	state := storage.NewRunState(&storage.FileStore{BaseDir: cfg.Output.Dir})
	runner := scrape.NewRunner(cfg, logr)

	if urls, err := state.SeenURLs(ctx); err != nil {
		logr.Warnw("seen-url state load failed, starting fresh", "error", err)
	} else if len(urls) > 0 {
		runner.MarkSeen(urls)
		logr.Infow("loaded duplicate filter", "urls", len(urls))
	}

	run := func(ctx context.Context) error {
		return executeRun(ctx, cfg, runner, state, logr)
	}

	if cfg.Schedule.Enabled {
		sched := schedule.New(cfg.Schedule, run, logr)
		if err := sched.Start(ctx, *runNow); err != nil && !errors.Is(err, context.Canceled) {
			logr.Fatalw("scheduler failed", "error", err)
		}
		return
	}

	if err := run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logr.Fatalw("scrape run failed", "error", err)
	}
}

// executeRun performs one full scrape cycle: scrape, persist outputs, export,
// and record the run in state.
func executeRun(ctx context.Context, cfg *config.Config, runner *scrape.Runner, state *storage.RunState, logr *zap.SugaredLogger) error {
	started := time.Now()

	videos, err := runner.Run(ctx)

	rec := storage.RunRecord{
		StartedAt:  started,
		FinishedAt: time.Now(),
		Keywords:   cfg.Scraper.Keywords,
		Videos:     len(videos),
	}

	if err != nil {
		rec.Error = err.Error()
		if serr := state.AppendRun(ctx, rec); serr != nil {
			logr.Warnw("run history write failed", "error", serr)
		}
		return err
	}

	if len(videos) == 0 {
		logr.Errorw("no trending videos were scraped, nothing to save")
	} else {
		paths, werr := output.NewWriter(cfg.Output, logr).WriteAll(videos, time.Now())
		rec.Outputs = paths
		if werr != nil {
			rec.Error = werr.Error()
			logr.Errorw("output write failed", "error", werr)
		}

		if cfg.Sheets.Enabled && hasFormat(cfg.Output.Formats, "google_sheets") {
			if serr := output.NewSheetsExporter(cfg.Sheets, logr).Export(ctx, videos); serr != nil {
				logr.Errorw("google sheets export failed", "error", serr)
			}
		}
	}

	if serr := state.SaveSeenURLs(ctx, runner.SeenURLs()); serr != nil {
		logr.Warnw("seen-url state write failed", "error", serr)
	}
	if serr := state.AppendRun(ctx, rec); serr != nil {
		logr.Warnw("run history write failed", "error", serr)
	}

	return nil
}

func hasFormat(formats []string, want string) bool {
	for _, f := range formats {
		if f == want {
			return true
		}
	}
	return false
}
