package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/atinyakov/PassKeeper/internal/apperr"
	"github.com/atinyakov/PassKeeper/internal/db"
	"github.com/atinyakov/PassKeeper/internal/models"
)

const secretColumns = `id, owner_id, label, sealed_blob, created_at, updated_at`

// PostgresSecretRepository stores secrets in the secrets table.
type PostgresSecretRepository struct{}

// NewPostgresSecretRepository creates a PostgresSecretRepository.
func NewPostgresSecretRepository() *PostgresSecretRepository {
	return &PostgresSecretRepository{}
}

// LabelTaken reports whether ownerID already has a secret labelled label,
// ignoring the secret with id exceptID (pass 0 to ignore none).
func (r *PostgresSecretRepository) LabelTaken(ctx context.Context, q db.Querier, ownerID int64, label string, exceptID int64) (bool, error) {
	var taken bool
	err := q.QueryRowContext(ctx, `
		SELECT EXISTS(SELECT 1 FROM secrets WHERE owner_id = $1 AND label = $2 AND id <> $3)
	`, ownerID, label, exceptID).Scan(&taken)
	if err != nil {
		return false, classify("secrets.LabelTaken", err)
	}
	return taken, nil
}

// Insert stores s and sets s.ID from the generated key.
// A duplicate (owner, label) pair yields a conflict error and an unknown
// owner a not-found error.
func (r *PostgresSecretRepository) Insert(ctx context.Context, q db.Querier, s *models.Secret) error {
	err := q.QueryRowContext(ctx, `
		INSERT INTO secrets (owner_id, label, sealed_blob, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`, s.OwnerID, s.Label, s.SealedBlob, s.CreatedAt, s.UpdatedAt).Scan(&s.ID)
	return classify("secrets.Insert", err)
}

// GetByID fetches a single secret.
func (r *PostgresSecretRepository) GetByID(ctx context.Context, q db.Querier, id int64) (*models.Secret, error) {
	row := q.QueryRowContext(ctx, `SELECT `+secretColumns+` FROM secrets WHERE id = $1`, id)
	s, err := scanSecret(row)
	if err != nil {
		return nil, classify("secrets.GetByID", err)
	}
	return s, nil
}

// GetForUpdate fetches a secret and locks its row until the surrounding
// transaction ends.
func (r *PostgresSecretRepository) GetForUpdate(ctx context.Context, q db.Querier, id int64) (*models.Secret, error) {
	row := q.QueryRowContext(ctx, `SELECT `+secretColumns+` FROM secrets WHERE id = $1 FOR UPDATE`, id)
	s, err := scanSecret(row)
	if err != nil {
		return nil, classify("secrets.GetForUpdate", err)
	}
	return s, nil
}

// Update applies a partial update: nil label or blob keep the stored
// value. updated_at is always set to now.
func (r *PostgresSecretRepository) Update(ctx context.Context, q db.Querier, id int64, label, blob *string, now time.Time) (*models.Secret, error) {
	row := q.QueryRowContext(ctx, `
		UPDATE secrets SET
			label = COALESCE($1, label),
			sealed_blob = COALESCE($2, sealed_blob),
			updated_at = $3
		WHERE id = $4
		RETURNING `+secretColumns,
		label, blob, now, id)
	s, err := scanSecret(row)
	if err != nil {
		return nil, classify("secrets.Update", err)
	}
	return s, nil
}

// Delete removes a secret. Its category links cascade; its history does not.
func (r *PostgresSecretRepository) Delete(ctx context.Context, q db.Querier, id int64) error {
	res, err := q.ExecContext(ctx, `DELETE FROM secrets WHERE id = $1`, id)
	if err != nil {
		return classify("secrets.Delete", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return apperr.Msg(apperr.ErrNotFound, "secrets.Delete", fmt.Sprintf("secret %d", id))
	}
	return nil
}

// ListByOwner returns the secrets of one user ordered by id.
func (r *PostgresSecretRepository) ListByOwner(ctx context.Context, q db.Querier, ownerID int64) ([]models.Secret, error) {
	rows, err := q.QueryContext(ctx, `SELECT `+secretColumns+` FROM secrets WHERE owner_id = $1 ORDER BY id`, ownerID)
	if err != nil {
		return nil, classify("secrets.ListByOwner", err)
	}
	return collectSecrets("secrets.ListByOwner", rows)
}

// List returns all secrets ordered by id.
func (r *PostgresSecretRepository) List(ctx context.Context, q db.Querier) ([]models.Secret, error) {
	rows, err := q.QueryContext(ctx, `SELECT `+secretColumns+` FROM secrets ORDER BY id`)
	if err != nil {
		return nil, classify("secrets.List", err)
	}
	return collectSecrets("secrets.List", rows)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSecret(row rowScanner) (*models.Secret, error) {
	var s models.Secret
	if err := row.Scan(&s.ID, &s.OwnerID, &s.Label, &s.SealedBlob, &s.CreatedAt, &s.UpdatedAt); err != nil {
		return nil, err
	}
	return &s, nil
}

func collectSecrets(op string, rows *sql.Rows) ([]models.Secret, error) {
	defer rows.Close()

	secrets := []models.Secret{}
	for rows.Next() {
		s, err := scanSecret(rows)
		if err != nil {
			return nil, classify(op, fmt.Errorf("scan: %w", err))
		}
		secrets = append(secrets, *s)
	}
	if err := rows.Err(); err != nil {
		return nil, classify(op, err)
	}
	return secrets, nil
}
