package app

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"sort"

	"github.com/robfig/cron/v3"

	"github.com/geostrat/paperbot/internal/feed"
	"github.com/geostrat/paperbot/internal/service"
)

// maxArchivedRuns caps how many archived snapshot paths a report lists.
const maxArchivedRuns = 20

// newPaperService builds the paper trading service from wired dependencies.
func (a *App) newPaperService(deps *Dependencies) *service.PaperService {
	return service.NewPaperService(
		deps.Source,
		deps.PortfolioStore,
		deps.Classifier,
		deps.Locks,
		deps.Archiver,
		deps.Notifier,
		deps.Strategies,
		a.cfg.Run.Bankroll,
		a.cfg.Run.LockTTL.Duration,
		a.logger,
	)
}

// PaperMode executes one paper trading cycle and exits.
func (a *App) PaperMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting paper mode",
		slog.Int("strategies", len(deps.Strategies)))

	return a.newPaperService(deps).Run(ctx)
}

// ScanMode runs a dry selection across all configured strategies and prints
// the result as JSON. No state is read or written.
func (a *App) ScanMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting scan mode",
		slog.Int("strategies", len(deps.Strategies)))

	svc := service.NewScanService(
		deps.Source,
		deps.Classifier,
		deps.Strategies,
		a.cfg.Run.Bankroll,
		a.logger,
	)
	report, err := svc.Scan(ctx)
	if err != nil {
		return fmt.Errorf("scan mode: %w", err)
	}
	return printJSON(report)
}

// ReportMode loads every strategy's portfolio and prints a performance
// summary as JSON.
func (a *App) ReportMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting report mode")

	svc := service.NewReportService(
		deps.PortfolioStore,
		deps.Strategies,
		a.cfg.Run.Bankroll,
		a.logger,
	)
	report, err := svc.Build(ctx)
	if err != nil {
		return fmt.Errorf("report mode: %w", err)
	}

	out := struct {
		service.Report
		ArchivedRuns []string `json:"archived_runs,omitempty"`
	}{Report: report}

	if deps.Snapshots != nil {
		objects, err := deps.Snapshots.List(ctx, "runs/")
		if err != nil {
			a.logger.WarnContext(ctx, "listing archived runs failed",
				slog.String("error", err.Error()))
		} else {
			sort.Slice(objects, func(i, j int) bool {
				return objects[i].LastModified.After(objects[j].LastModified)
			})
			if len(objects) > maxArchivedRuns {
				objects = objects[:maxArchivedRuns]
			}
			for _, o := range objects {
				out.ArchivedRuns = append(out.ArchivedRuns, o.Path)
			}
		}
	}
	return printJSON(out)
}

// MonitorMode streams live trade prices and marks open positions until the
// context is cancelled. No trades are opened or settled.
func (a *App) MonitorMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting monitor mode",
		slog.String("ws_host", a.cfg.Polymarket.WsHost))

	markFeed := feed.NewMarkFeed(a.cfg.Polymarket.WsHost, deps.PositionStore, 0, a.logger)
	defer markFeed.Close()
	return markFeed.Run(ctx)
}

// ScheduleMode runs a paper cycle immediately, then on the configured cron
// expression, until the context is cancelled. The run lock guards against a
// cycle overrunning into the next tick.
func (a *App) ScheduleMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting schedule mode",
		slog.String("cron", a.cfg.Schedule.Cron))

	svc := a.newPaperService(deps)

	runOnce := func() {
		if err := svc.Run(ctx); err != nil {
			a.logger.ErrorContext(ctx, "scheduled run failed",
				slog.String("error", err.Error()))
		}
	}
	runOnce()

	c := cron.New()
	if _, err := c.AddFunc(a.cfg.Schedule.Cron, runOnce); err != nil {
		return fmt.Errorf("schedule mode: parse cron %q: %w", a.cfg.Schedule.Cron, err)
	}
	c.Start()

	<-ctx.Done()
	<-c.Stop().Done()
	return ctx.Err()
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
