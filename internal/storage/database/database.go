// internal/storage/database/database.go
package database

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/sirupsen/logrus"

	"dockermirror/internal/types"
	"dockermirror/internal/types/options"
	"dockermirror/pkg/utils"
)

// Database gère l'historique des transferts
type Database struct {
	db     *sql.DB
	logger *logrus.Logger
}

// NewDatabase initialise une nouvelle instance de base de données
func NewDatabase(dbPath string, logger *logrus.Logger) (*Database, error) {
	// Créer le répertoire si nécessaire
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := initSchema(db); err != nil {
		db.Close()
		return nil, err
	}

	return &Database{
		db:     db,
		logger: logger,
	}, nil
}

// Close ferme la connexion à la base de données
func (d *Database) Close() error {
	return d.db.Close()
}

// initSchema initialise le schéma de la base de données
func initSchema(db *sql.DB) error {
	_, err := db.Exec(`
        CREATE TABLE IF NOT EXISTS mirror_history (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            run_id TEXT NOT NULL,
            line INTEGER NOT NULL DEFAULT 0,
            source TEXT NOT NULL,
            destination TEXT NOT NULL,
            platform TEXT,
            status TEXT NOT NULL,
            message TEXT,
            created_at TEXT DEFAULT (strftime('%Y-%m-%dT%H:%M:%SZ', 'now'))
        );
        CREATE INDEX IF NOT EXISTS idx_run_id ON mirror_history(run_id);
        CREATE INDEX IF NOT EXISTS idx_created_at ON mirror_history(created_at);
        CREATE INDEX IF NOT EXISTS idx_status ON mirror_history(status);
    `)
	if err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// SaveResult enregistre le résultat du transfert d'une entrée
func (d *Database) SaveResult(result *types.MirrorResult, status string) (int64, error) {
	var message string
	if result.Error != nil {
		message = result.Error.Error()
	}

	createdAt := result.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	res, err := d.db.Exec(`
        INSERT INTO mirror_history (
            run_id, line, source, destination, platform, status, message, created_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		result.RunID,
		result.Entry.Line,
		result.Entry.Source,
		result.Destination,
		result.Entry.Platform,
		status,
		message,
		createdAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to save result: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get last insert ID: %w", err)
	}

	d.logger.Debugf("Saved history entry %d for %s (%s)", id, result.Entry.Source, status)
	return id, nil
}

// GetHistory récupère l'historique des transferts, du plus récent au plus ancien
func (d *Database) GetHistory(opts options.HistoryOptions) ([]types.HistoryEntry, error) {
	var conditions []string
	var args []interface{}

	query := `SELECT id, run_id, line, source, destination, platform,
              status, message, created_at
              FROM mirror_history`

	if opts.RunID != "" {
		conditions = append(conditions, "run_id LIKE ?")
		args = append(args, opts.RunID+"%")
	}

	if opts.Status != "" {
		conditions = append(conditions, "status = ?")
		args = append(args, opts.Status)
	}

	if !opts.Since.IsZero() {
		conditions = append(conditions, "created_at >= ?")
		args = append(args, opts.Since.UTC().Format(time.RFC3339))
	}

	if opts.Search != "" {
		conditions = append(conditions, "(source LIKE ? OR destination LIKE ? OR message LIKE ?)")
		searchTerm := "%" + opts.Search + "%"
		args = append(args, searchTerm, searchTerm, searchTerm)
	}

	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}

	query += " ORDER BY created_at DESC, id DESC"

	if opts.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, opts.Limit)
	}

	rows, err := d.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query history: %w", err)
	}
	defer rows.Close()

	var entries []types.HistoryEntry
	for rows.Next() {
		var entry types.HistoryEntry
		var platform, message sql.NullString
		var createdAt string

		err := rows.Scan(
			&entry.ID,
			&entry.RunID,
			&entry.Line,
			&entry.Source,
			&entry.Destination,
			&platform,
			&entry.Status,
			&message,
			&createdAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan history entry: %w", err)
		}
		entry.Platform = platform.String
		entry.Message = message.String

		t, err := utils.ParseTime(createdAt)
		if err != nil {
			return nil, fmt.Errorf("failed to parse time createdAt: %w", err)
		}
		entry.CreatedAt = t

		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read history: %w", err)
	}

	return entries, nil
}

// CleanupHistory ne conserve que les retain exécutions les plus récentes
func (d *Database) CleanupHistory(retain int) (int64, error) {
	if retain < 1 {
		return 0, fmt.Errorf("retention must be at least 1")
	}

	result, err := d.db.Exec(`
        DELETE FROM mirror_history
        WHERE run_id NOT IN (
            SELECT run_id FROM mirror_history
            GROUP BY run_id
            ORDER BY MAX(id) DESC
            LIMIT ?
        )`,
		retain,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to cleanup history: %w", err)
	}

	return result.RowsAffected()
}
