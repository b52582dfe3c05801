package types

import "time"

// Statuts enregistrés dans l'historique
const (
	StatusMirrored    = "mirrored"
	StatusFailed      = "failed"
	StatusInterrupted = "interrupted"
)

// MirrorResult est le résultat du transfert d'une entrée
type MirrorResult struct {
	RunID       string
	Entry       ImageEntry
	Destination string
	Success     bool
	Error       error
	CreatedAt   time.Time
}

// Status retourne le statut à enregistrer pour ce résultat
func (r *MirrorResult) Status(interrupted bool) string {
	switch {
	case r.Success:
		return StatusMirrored
	case interrupted:
		return StatusInterrupted
	default:
		return StatusFailed
	}
}

// RunSummary résume une exécution complète
type RunSummary struct {
	RunID      string
	Total      int
	Mirrored   int
	Collisions []string
	StartedAt  time.Time
	FinishedAt time.Time
}

// Duration retourne la durée de l'exécution
func (s *RunSummary) Duration() time.Duration {
	if s.FinishedAt.IsZero() {
		return 0
	}
	return s.FinishedAt.Sub(s.StartedAt).Round(time.Second)
}

// PlanItem décrit la destination prévue pour une entrée
type PlanItem struct {
	Entry       ImageEntry `json:"entry"`
	Destination string     `json:"destination"`
	Collision   bool       `json:"collision"`
	Invalid     string     `json:"invalid,omitempty"` // Raison si la destination n'est pas une référence valide
}
