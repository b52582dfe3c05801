// internal/manager/manager.go
package manager

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"dockermirror/internal/config"
	"dockermirror/internal/docker"
	"dockermirror/internal/notify"
	"dockermirror/internal/storage/database"
	"dockermirror/internal/types"
	"dockermirror/internal/types/options"
	"dockermirror/pkg/utils"
)

// MirrorManager coordonne le login, la détection des collisions et les transferts
type MirrorManager struct {
	runtime  docker.Runtime
	db       *database.Database
	notify   *notify.AppriseClient
	config   *config.Config
	settings config.Settings
	logger   *logrus.Logger
	lock     sync.Mutex // Une seule exécution à la fois
}

// NewMirrorManager crée une nouvelle instance du manager
func NewMirrorManager(cfg *config.Config, settings config.Settings) (*MirrorManager, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = logrus.New()
		logger.SetLevel(logrus.InfoLevel)
	}

	rt, err := docker.NewRuntime(cfg.Runtime, cfg.RuntimeBin, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create container runtime: %w", err)
	}

	m, err := newMirrorManager(cfg, settings, rt, logger)
	if err != nil {
		rt.Close()
		return nil, err
	}
	return m, nil
}

func newMirrorManager(cfg *config.Config, settings config.Settings, rt docker.Runtime, logger *logrus.Logger) (*MirrorManager, error) {
	// Historique optionnel
	var db *database.Database
	if cfg.DbPath != "" {
		var err error
		db, err = database.NewDatabase(cfg.DbPath, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize database: %w", err)
		}
	}

	// Initialiser le client Apprise si configuré
	var notifier *notify.AppriseClient
	if cfg.AppriseURL != "" {
		var err error
		notifier, err = notify.NewAppriseClient(cfg.AppriseURL, logger)
		if err != nil {
			logger.Warnf("Failed to initialize Apprise notifications: %v", err)
		}
	}

	return &MirrorManager{
		runtime:  rt,
		db:       db,
		notify:   notifier,
		config:   cfg,
		settings: settings,
		logger:   logger,
	}, nil
}

// Close libère les ressources
func (m *MirrorManager) Close() error {
	var errs []error

	if err := m.runtime.Close(); err != nil {
		errs = append(errs, fmt.Errorf("failed to close container runtime: %w", err))
	}
	if m.db != nil {
		if err := m.db.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close database: %w", err))
		}
	}
	if m.notify != nil {
		if err := m.notify.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close Apprise client: %w", err))
		}
	}

	return errors.Join(errs...)
}

// Login authentifie le runtime une seule fois auprès du registry de destination
func (m *MirrorManager) Login(ctx context.Context) error {
	registry := m.settings.Target.Registry
	m.logger.Infof("Logging in to registry %s", registry)

	creds := m.settings.Credentials
	if err := m.runtime.Login(ctx, registry, creds.Username, creds.Password); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return types.NewAuthenticationError(registry, err)
	}

	m.logger.Info("Login succeeded")
	return nil
}

// RunFile charge la liste d'images puis lance une exécution
func (m *MirrorManager) RunFile(ctx context.Context, path string, opts options.RunOptions) (*types.RunSummary, error) {
	entries, err := types.LoadImageList(path)
	if err != nil {
		return nil, err
	}
	return m.Run(ctx, entries, opts)
}

// Run exécute un mirroir complet: login, détection des collisions sur toute
// la liste, puis transfert séquentiel. La première erreur fatale arrête tout.
func (m *MirrorManager) Run(ctx context.Context, entries []types.ImageEntry, opts options.RunOptions) (*types.RunSummary, error) {
	m.lock.Lock()
	defer m.lock.Unlock()

	summary := &types.RunSummary{
		RunID:     uuid.NewString(),
		Total:     len(entries),
		StartedAt: time.Now().UTC(),
	}
	m.logger.Infof("Starting mirror run %s (%d images)", utils.ShortenID(summary.RunID), summary.Total)

	if err := m.Login(ctx); err != nil {
		return m.finish(ctx, summary, opts, err)
	}

	// La liste doit être entièrement analysée avant de calculer la moindre destination
	collisions := DetectCollisions(entries)
	summary.Collisions = collisions.Names()
	for _, name := range summary.Collisions {
		m.logger.Warnf("Duplicate image name found: %s", name)
	}

	err := m.transfer(ctx, summary, entries, collisions, opts)
	return m.finish(ctx, summary, opts, err)
}

// finish clôture l'exécution: résumé, rétention de l'historique et notification
func (m *MirrorManager) finish(ctx context.Context, summary *types.RunSummary, opts options.RunOptions, runErr error) (*types.RunSummary, error) {
	summary.FinishedAt = time.Now().UTC()
	interrupted := errors.Is(runErr, context.Canceled)

	if runErr == nil {
		m.logger.Infof("All images processed: %d/%d mirrored in %s",
			summary.Mirrored, summary.Total, summary.Duration())
	}

	if m.db != nil && summary.Total > 0 {
		if deleted, err := m.db.CleanupHistory(m.config.Retention); err != nil {
			m.logger.Warnf("Failed to cleanup history: %v", err)
		} else if deleted > 0 {
			m.logger.Debugf("Removed %d old history entries", deleted)
		}
	}

	if m.notify != nil && opts.Notify && !interrupted {
		if err := m.notify.NotifyRun(ctx, summary, runErr); err != nil {
			m.logger.Warnf("Failed to send notification: %v", err)
		}
	}

	return summary, runErr
}
