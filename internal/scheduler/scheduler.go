package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/mamadbah2/shopledger/internal/domain/models"
)

// DailyReporter builds the report archived every day.
type DailyReporter interface {
	DailyReport(ctx context.Context, day time.Time) (models.DailyReport, error)
}

// Archive stores a daily report.
type Archive interface {
	SaveDailyReport(ctx context.Context, report models.DailyReport) error
}

// Scheduler manages scheduled tasks.
type Scheduler struct {
	cron     *cron.Cron
	schedule string
	reporter DailyReporter
	archives map[string]Archive
	logger   *zap.Logger
	now      func() time.Time
}

// NewScheduler creates a new scheduler instance running in loc. archives is
// keyed by sink name for logging.
func NewScheduler(schedule string, loc *time.Location, reporter DailyReporter, archives map[string]Archive, logger *zap.Logger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if loc == nil {
		loc = time.UTC
	}

	return &Scheduler{
		cron:     cron.New(cron.WithLocation(loc)),
		schedule: schedule,
		reporter: reporter,
		archives: archives,
		logger:   logger,
		now:      func() time.Time { return time.Now().In(loc) },
	}
}

// Start registers the daily report job and starts the cron loop.
func (s *Scheduler) Start() error {
	if len(s.archives) == 0 {
		s.logger.Info("no report archive configured, scheduler idle")
		return nil
	}

	if _, err := s.cron.AddFunc(s.schedule, s.archiveDailyReport); err != nil {
		return fmt.Errorf("schedule daily report %q: %w", s.schedule, err)
	}

	s.logger.Info("starting scheduler", zap.String("schedule", s.schedule), zap.Int("archives", len(s.archives)))
	s.cron.Start()
	return nil
}

// Stop stops the scheduler and waits for a running job to finish.
func (s *Scheduler) Stop() {
	s.logger.Info("stopping scheduler")
	<-s.cron.Stop().Done()
}

// RunOnce builds the report for day and writes it to every archive
// concurrently. A failing archive does not stop the others; the first
// failure is returned once all of them are done.
func (s *Scheduler) RunOnce(ctx context.Context, day time.Time) error {
	report, err := s.reporter.DailyReport(ctx, day)
	if err != nil {
		return fmt.Errorf("build daily report: %w", err)
	}

	var g errgroup.Group
	for name, archive := range s.archives {
		g.Go(func() error {
			if err := archive.SaveDailyReport(ctx, report); err != nil {
				s.logger.Error("failed to archive daily report", zap.String("archive", name), zap.Error(err))
				return fmt.Errorf("archive %s: %w", name, err)
			}
			s.logger.Info("daily report archived",
				zap.String("archive", name),
				zap.String("date", report.Date.Format("2006-01-02")),
				zap.String("net_profit", report.Summary.NetProfit.String()))
			return nil
		})
	}
	return g.Wait()
}

func (s *Scheduler) archiveDailyReport() {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	if err := s.RunOnce(ctx, s.now()); err != nil {
		s.logger.Error("daily report job failed", zap.Error(err))
	}
}
