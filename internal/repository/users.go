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

const userColumns = `id, first_name, last_name, email, phone, password_hash, created_at, updated_at, last_login, active`

// PostgresUserRepository stores accounts in the users table.
type PostgresUserRepository struct{}

// NewPostgresUserRepository creates a PostgresUserRepository.
func NewPostgresUserRepository() *PostgresUserRepository {
	return &PostgresUserRepository{}
}

// Insert stores u and sets u.ID. A duplicate email yields a conflict error.
func (r *PostgresUserRepository) Insert(ctx context.Context, q db.Querier, u *models.User) error {
	err := q.QueryRowContext(ctx, `
		INSERT INTO users (first_name, last_name, email, phone, password_hash, created_at, updated_at, last_login, active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id
	`, u.FirstName, u.LastName, u.Email, u.Phone, u.PasswordHash, u.CreatedAt, u.UpdatedAt, u.LastLogin, u.Active).Scan(&u.ID)
	return classify("users.Insert", err)
}

// GetByID fetches one user.
func (r *PostgresUserRepository) GetByID(ctx context.Context, q db.Querier, id int64) (*models.User, error) {
	u, err := scanUser(q.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
	if err != nil {
		return nil, classify("users.GetByID", err)
	}
	return u, nil
}

// GetByEmail fetches one user by login email.
func (r *PostgresUserRepository) GetByEmail(ctx context.Context, q db.Querier, email string) (*models.User, error) {
	u, err := scanUser(q.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email))
	if err != nil {
		return nil, classify("users.GetByEmail", err)
	}
	return u, nil
}

// List returns all users ordered by id.
func (r *PostgresUserRepository) List(ctx context.Context, q db.Querier) ([]models.User, error) {
	rows, err := q.QueryContext(ctx, `SELECT `+userColumns+` FROM users ORDER BY id`)
	if err != nil {
		return nil, classify("users.List", err)
	}
	return collectUsers("users.List", rows)
}

// Update applies a partial update. passwordHash replaces the stored hash
// when non-nil. updated_at is always set to now.
func (r *PostgresUserRepository) Update(ctx context.Context, q db.Querier, id int64, upd models.UserUpdate, passwordHash *string, now time.Time) (*models.User, error) {
	row := q.QueryRowContext(ctx, `
		UPDATE users SET
			first_name = COALESCE($1, first_name),
			last_name = COALESCE($2, last_name),
			email = COALESCE($3, email),
			phone = COALESCE($4, phone),
			password_hash = COALESCE($5, password_hash),
			active = COALESCE($6, active),
			updated_at = $7
		WHERE id = $8
		RETURNING `+userColumns,
		upd.FirstName, upd.LastName, upd.Email, upd.Phone, passwordHash, upd.Active, now, id)
	u, err := scanUser(row)
	if err != nil {
		return nil, classify("users.Update", err)
	}
	return u, nil
}

// TouchLogin records a successful login.
func (r *PostgresUserRepository) TouchLogin(ctx context.Context, q db.Querier, id int64, now time.Time) error {
	_, err := q.ExecContext(ctx, `UPDATE users SET last_login = $1 WHERE id = $2`, now, id)
	return classify("users.TouchLogin", err)
}

// Delete removes a user together with everything the user owns.
func (r *PostgresUserRepository) Delete(ctx context.Context, q db.Querier, id int64) error {
	res, err := q.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return classify("users.Delete", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return apperr.Msg(apperr.ErrNotFound, "users.Delete", fmt.Sprintf("user %d", id))
	}
	return nil
}

// CreatedBetween returns users created in [from, to].
func (r *PostgresUserRepository) CreatedBetween(ctx context.Context, q db.Querier, from, to time.Time) ([]models.User, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT `+userColumns+` FROM users
		WHERE created_at BETWEEN $1 AND $2
		ORDER BY created_at, id
	`, from, to)
	if err != nil {
		return nil, classify("users.CreatedBetween", err)
	}
	return collectUsers("users.CreatedBetween", rows)
}

// WithMinSecrets returns users owning at least n secrets.
func (r *PostgresUserRepository) WithMinSecrets(ctx context.Context, q db.Querier, n int) ([]models.User, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT `+userColumns+` FROM users
		WHERE id IN (
			SELECT owner_id FROM secrets GROUP BY owner_id HAVING COUNT(*) >= $1
		)
		ORDER BY id
	`, n)
	if err != nil {
		return nil, classify("users.WithMinSecrets", err)
	}
	return collectUsers("users.WithMinSecrets", rows)
}

// WithLabelSuffix returns users owning at least one secret whose label
// ends with suffix, e.g. ".com".
func (r *PostgresUserRepository) WithLabelSuffix(ctx context.Context, q db.Querier, suffix string) ([]models.User, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT `+userColumns+` FROM users
		WHERE id IN (
			SELECT owner_id FROM secrets WHERE right(label, length($1)) = $1
		)
		ORDER BY id
	`, suffix)
	if err != nil {
		return nil, classify("users.WithLabelSuffix", err)
	}
	return collectUsers("users.WithLabelSuffix", rows)
}

func scanUser(row rowScanner) (*models.User, error) {
	var (
		u         models.User
		phone     sql.NullString
		lastLogin sql.NullTime
	)
	err := row.Scan(&u.ID, &u.FirstName, &u.LastName, &u.Email, &phone, &u.PasswordHash,
		&u.CreatedAt, &u.UpdatedAt, &lastLogin, &u.Active)
	if err != nil {
		return nil, err
	}
	if phone.Valid {
		u.Phone = &phone.String
	}
	if lastLogin.Valid {
		u.LastLogin = &lastLogin.Time
	}
	return &u, nil
}

func collectUsers(op string, rows *sql.Rows) ([]models.User, error) {
	defer rows.Close()

	users := []models.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, classify(op, fmt.Errorf("scan: %w", err))
		}
		users = append(users, *u)
	}
	if err := rows.Err(); err != nil {
		return nil, classify(op, err)
	}
	return users, nil
}
