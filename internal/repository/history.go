package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/atinyakov/PassKeeper/internal/db"
	"github.com/atinyakov/PassKeeper/internal/models"
)

// PostgresHistoryRepository stores secret snapshots in secret_history.
type PostgresHistoryRepository struct{}

// NewPostgresHistoryRepository creates a PostgresHistoryRepository.
func NewPostgresHistoryRepository() *PostgresHistoryRepository {
	return &PostgresHistoryRepository{}
}

// Insert records priorBlob for secretID in one round trip and returns the
// stored entry. The owner is copied from the secret row, so an unknown
// secret yields a not-found error.
func (r *PostgresHistoryRepository) Insert(ctx context.Context, q db.Querier, secretID int64, priorBlob string, now time.Time) (*models.HistoryEntry, error) {
	entry := models.HistoryEntry{SecretID: secretID, PriorBlob: priorBlob}
	err := q.QueryRowContext(ctx, `
		INSERT INTO secret_history (secret_id, owner_id, prior_blob, changed_at)
		SELECT id, owner_id, $2, $3 FROM secrets WHERE id = $1
		RETURNING id, changed_at
	`, secretID, priorBlob, now).Scan(&entry.ID, &entry.ChangedAt)
	if err != nil {
		return nil, classify("history.Insert", err)
	}
	return &entry, nil
}

// ForSecret returns the history of one secret, newest first.
func (r *PostgresHistoryRepository) ForSecret(ctx context.Context, q db.Querier, secretID int64) ([]models.HistoryEntry, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT id, secret_id, prior_blob, changed_at FROM secret_history
		WHERE secret_id = $1
		ORDER BY changed_at DESC, id DESC
	`, secretID)
	if err != nil {
		return nil, classify("history.ForSecret", err)
	}
	return collectHistory("history.ForSecret", rows)
}

// All returns every history entry, newest first.
func (r *PostgresHistoryRepository) All(ctx context.Context, q db.Querier) ([]models.HistoryEntry, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT id, secret_id, prior_blob, changed_at FROM secret_history
		ORDER BY changed_at DESC, id DESC
	`)
	if err != nil {
		return nil, classify("history.All", err)
	}
	return collectHistory("history.All", rows)
}

// MostChangedLabel returns the label of live secrets with the most history
// entries. Ties go to the alphabetically first label.
func (r *PostgresHistoryRepository) MostChangedLabel(ctx context.Context, q db.Querier) (*models.LabelChanges, error) {
	var lc models.LabelChanges
	err := q.QueryRowContext(ctx, `
		SELECT s.label, COUNT(h.id) AS change_count
		FROM secrets s
		JOIN secret_history h ON h.secret_id = s.id
		GROUP BY s.label
		ORDER BY change_count DESC, s.label
		LIMIT 1
	`).Scan(&lc.Label, &lc.Changes)
	if err != nil {
		return nil, classify("history.MostChangedLabel", err)
	}
	return &lc, nil
}

func collectHistory(op string, rows *sql.Rows) ([]models.HistoryEntry, error) {
	defer rows.Close()

	entries := []models.HistoryEntry{}
	for rows.Next() {
		var e models.HistoryEntry
		if err := rows.Scan(&e.ID, &e.SecretID, &e.PriorBlob, &e.ChangedAt); err != nil {
			return nil, classify(op, fmt.Errorf("scan: %w", err))
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, classify(op, err)
	}
	return entries, nil
}
