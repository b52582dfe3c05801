package options

import (
	"fmt"
	"time"
)

// HistoryOptions définit les options pour la consultation de l'historique
type HistoryOptions struct {
	Limit  int       // Limite du nombre d'entrées
	RunID  string    // Filtrer sur une exécution
	Status string    // Filtrer sur un statut (mirrored|failed|interrupted)
	JSON   bool      // Sortie au format JSON
	Search string    // Recherche dans les références et messages
	Since  time.Time // Depuis date
}

// Validate vérifie que les options sont valides
func (o *HistoryOptions) Validate() error {
	if o.Limit < 0 {
		return fmt.Errorf("limit cannot be negative")
	}
	switch o.Status {
	case "", "mirrored", "failed", "interrupted":
		return nil
	default:
		return fmt.Errorf("invalid status %q: must be mirrored, failed or interrupted", o.Status)
	}
}
