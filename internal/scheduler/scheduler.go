// internal/scheduler/scheduler.go
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"dockermirror/internal/types"
	"dockermirror/internal/types/options"
	"dockermirror/pkg/utils"
)

// Runner exécute un mirroir complet à partir d'un fichier de liste
type Runner interface {
	RunFile(ctx context.Context, path string, opts options.RunOptions) (*types.RunSummary, error)
}

// Scheduler relance le mirroir selon une expression cron
type Scheduler struct {
	runner     Runner
	cron       *cron.Cron
	imagesFile string
	runOpts    options.RunOptions
	logger     *logrus.Logger
	ctx        context.Context
}

// Options pour la configuration du scheduler
type Options struct {
	ImagesFile string
	RunOpts    options.RunOptions
	Logger     *logrus.Logger
}

// NewScheduler crée une nouvelle instance du scheduler.
// Une exécution encore en cours fait sauter la suivante.
func NewScheduler(runner Runner, opts Options) *Scheduler {
	if opts.Logger == nil {
		opts.Logger = logrus.New()
		opts.Logger.SetLevel(logrus.InfoLevel)
	}

	return &Scheduler{
		runner: runner,
		cron: cron.New(
			cron.WithParser(cron.NewParser(
				cron.Minute|cron.Hour|cron.Dom|cron.Month|cron.Dow,
			)),
			cron.WithChain(cron.SkipIfStillRunning(cron.PrintfLogger(opts.Logger))),
		),
		imagesFile: opts.ImagesFile,
		runOpts:    opts.RunOpts,
		logger:     opts.Logger,
		ctx:        context.Background(),
	}
}

// Start démarre le scheduler avec l'expression cron donnée.
// L'annulation de ctx interrompt l'exécution en cours.
func (s *Scheduler) Start(ctx context.Context, cronExpr string) error {
	s.ctx = ctx

	if _, err := s.cron.AddFunc(cronExpr, s.runScheduledTask); err != nil {
		return fmt.Errorf("invalid cron expression: %w", err)
	}

	s.logger.Infof("Starting scheduler with cron expression: %s", cronExpr)
	s.cron.Start()
	return nil
}

// runScheduledTask exécute la tâche programmée
func (s *Scheduler) runScheduledTask() {
	summary, err := s.runner.RunFile(s.ctx, s.imagesFile, s.runOpts)
	switch {
	case errors.Is(err, context.Canceled):
		s.logger.Info("Scheduled run interrupted")
	case err != nil:
		s.logger.Errorf("Scheduled run failed: %v", err)
	default:
		s.logger.Infof("Scheduled run %s completed: %d/%d images mirrored",
			utils.ShortenID(summary.RunID), summary.Mirrored, summary.Total)
	}

	if next := s.NextRun(); next != nil {
		s.logger.Infof("Next run scheduled at: %s", next.Format("2006-01-02 15:04:05"))
	}
}

// Stop arrête le scheduler et attend la fin de l'exécution en cours
func (s *Scheduler) Stop() {
	s.logger.Info("Stopping scheduler...")

	ctx := s.cron.Stop()
	<-ctx.Done()

	s.logger.Info("Scheduler stopped")
}

// NextRun retourne la prochaine exécution prévue
func (s *Scheduler) NextRun() *time.Time {
	entries := s.cron.Entries()
	if len(entries) == 0 || entries[0].Next.IsZero() {
		return nil
	}
	next := entries[0].Next
	return &next
}
