// internal/manager/transfer.go
package manager

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"

	"dockermirror/internal/types"
	"dockermirror/internal/types/options"
)

// transfer traite les entrées dans l'ordre de la liste, une entrée étant
// entièrement terminée (pull, tag, push, nettoyage) avant la suivante.
func (m *MirrorManager) transfer(ctx context.Context, summary *types.RunSummary, entries []types.ImageEntry,
	collisions types.CollisionSet, opts options.RunOptions) error {

	for i, entry := range entries {
		if err := ctx.Err(); err != nil {
			return err
		}

		destination := Destination(m.settings.Target, entry, collisions)
		logger := m.logger.WithFields(logrus.Fields{
			"source":      entry.Source,
			"destination": destination,
		})
		if entry.Platform != "" {
			logger = logger.WithField("platform", entry.Platform)
		}
		logger.Infof("Mirroring image %d/%d", i+1, len(entries))

		err := m.mirrorEntry(ctx, logger, entry, destination, opts)
		m.record(summary.RunID, entry, destination, err)
		if err != nil {
			return err
		}

		summary.Mirrored++
		logger.Infof("Image %s pushed to %s", entry.Source, destination)
	}

	return nil
}

// mirrorEntry enchaîne pull, tag et push puis le nettoyage best-effort
func (m *MirrorManager) mirrorEntry(ctx context.Context, logger *logrus.Entry, entry types.ImageEntry,
	destination string, opts options.RunOptions) error {

	logger.Debug("Pulling image")
	if err := m.runtime.Pull(ctx, entry.Source, entry.Platform); err != nil {
		return types.NewTransferError(types.StepPull, entry, destination, err)
	}

	logger.Debug("Tagging image")
	if err := m.runtime.Tag(ctx, entry.Source, destination); err != nil {
		return types.NewTransferError(types.StepTag, entry, destination, err)
	}

	logger.Debug("Pushing image")
	if err := m.runtime.Push(ctx, destination); err != nil {
		return types.NewTransferError(types.StepPush, entry, destination, err)
	}

	if opts.Cleanup {
		m.cleanup(ctx, logger, entry.Source, destination)
	}
	return nil
}

// cleanup supprime les images locales, les échecs sont seulement loggés
func (m *MirrorManager) cleanup(ctx context.Context, logger *logrus.Entry, refs ...string) {
	logger.Debug("Removing local images")
	for _, ref := range refs {
		if err := m.runtime.Remove(ctx, ref); err != nil {
			logger.Warn(types.NewCleanupWarning(ref, err))
		}
	}
}

// record enregistre le résultat dans l'historique si celui-ci est activé
func (m *MirrorManager) record(runID string, entry types.ImageEntry, destination string, err error) {
	if m.db == nil {
		return
	}

	result := &types.MirrorResult{
		RunID:       runID,
		Entry:       entry,
		Destination: destination,
		Success:     err == nil,
		Error:       err,
		CreatedAt:   time.Now(),
	}
	status := result.Status(errors.Is(err, context.Canceled))

	if _, dbErr := m.db.SaveResult(result, status); dbErr != nil {
		m.logger.Warnf("Failed to record history for %s: %v", entry.Source, dbErr)
	}
}
