// internal/types/history.go

package types

import (
	"encoding/json"
	"time"

	"dockermirror/pkg/utils"
)

// HistoryEntry est une ligne de l'historique des transferts
type HistoryEntry struct {
	ID          int64     `json:"id"`
	RunID       string    `json:"run_id"`
	Line        int       `json:"line"`
	Source      string    `json:"source"`
	Destination string    `json:"destination"`
	Platform    string    `json:"platform,omitempty"`
	Status      string    `json:"status"`
	Message     string    `json:"message,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// UnmarshalJSON accepte les différents formats de date de la base
func (h *HistoryEntry) UnmarshalJSON(data []byte) error {
	type Alias HistoryEntry
	aux := &struct {
		CreatedAt string `json:"created_at"`
		*Alias
	}{
		Alias: (*Alias)(h),
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	t, err := utils.ParseTime(aux.CreatedAt)
	if err != nil {
		return err
	}
	h.CreatedAt = t
	return nil
}
