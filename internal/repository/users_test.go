package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/atinyakov/PassKeeper/internal/apperr"
	"github.com/atinyakov/PassKeeper/internal/models"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func userRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "first_name", "last_name", "email", "phone", "password_hash", "created_at", "updated_at", "last_login", "active"})
}

func TestUserInsert(t *testing.T) {
	db, mock := setupMock(t)
	u := &models.User{FirstName: "Ada", LastName: "Lovelace", Email: "ada@example.com", PasswordHash: "$argon2id$...", CreatedAt: t0, UpdatedAt: t0, Active: true}

	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO users (first_name, last_name, email, phone, password_hash, created_at, updated_at, last_login, active)`)).
		WithArgs("Ada", "Lovelace", "ada@example.com", nil, "$argon2id$...", t0, t0, nil, true).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(1)))

	require.NoError(t, NewPostgresUserRepository().Insert(context.Background(), db, u))
	assert.Equal(t, int64(1), u.ID)
}

func TestUserInsert_DuplicateEmail(t *testing.T) {
	db, mock := setupMock(t)

	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO users`)).WillReturnError(&pq.Error{Code: "23505"})

	err := NewPostgresUserRepository().Insert(context.Background(), db, &models.User{Email: "dup@example.com"})
	assert.ErrorIs(t, err, apperr.ErrConflict)
}

func TestUserGetByEmail_NullableColumns(t *testing.T) {
	db, mock := setupMock(t)

	mock.ExpectQuery(regexp.QuoteMeta(`FROM users WHERE email = $1`)).
		WithArgs("ada@example.com").
		WillReturnRows(userRows().AddRow(int64(1), "Ada", "Lovelace", "ada@example.com", nil, "h", t0, t0, nil, true))

	u, err := NewPostgresUserRepository().GetByEmail(context.Background(), db, "ada@example.com")
	require.NoError(t, err)
	assert.Nil(t, u.Phone)
	assert.Nil(t, u.LastLogin)
	assert.Equal(t, "h", u.PasswordHash)
	assert.True(t, u.Active)
}

func TestUserGetByID_WithPhoneAndLogin(t *testing.T) {
	db, mock := setupMock(t)

	mock.ExpectQuery(regexp.QuoteMeta(`FROM users WHERE id = $1`)).
		WithArgs(int64(1)).
		WillReturnRows(userRows().AddRow(int64(1), "Ada", "Lovelace", "ada@example.com", "+44", "h", t0, t0, t1, false))

	u, err := NewPostgresUserRepository().GetByID(context.Background(), db, 1)
	require.NoError(t, err)
	require.NotNil(t, u.Phone)
	assert.Equal(t, "+44", *u.Phone)
	require.NotNil(t, u.LastLogin)
	assert.Equal(t, t1, *u.LastLogin)
	assert.False(t, u.Active)
}

func TestUserGetByID_NotFound(t *testing.T) {
	db, mock := setupMock(t)

	mock.ExpectQuery(regexp.QuoteMeta(`FROM users WHERE id = $1`)).WithArgs(int64(5)).WillReturnError(sql.ErrNoRows)

	_, err := NewPostgresUserRepository().GetByID(context.Background(), db, 5)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestUserUpdate_Coalesce(t *testing.T) {
	db, mock := setupMock(t)
	first := "Augusta"
	hash := "new-hash"

	mock.ExpectQuery(regexp.QuoteMeta(`UPDATE users SET first_name = COALESCE($1, first_name)`)).
		WithArgs("Augusta", nil, nil, nil, "new-hash", nil, t1, int64(1)).
		WillReturnRows(userRows().AddRow(int64(1), "Augusta", "Lovelace", "ada@example.com", nil, "new-hash", t0, t1, nil, true))

	u, err := NewPostgresUserRepository().Update(context.Background(), db, 1, models.UserUpdate{FirstName: &first}, &hash, t1)
	require.NoError(t, err)
	assert.Equal(t, "Augusta", u.FirstName)
	assert.Equal(t, t1, u.UpdatedAt)
}

func TestUserTouchLogin(t *testing.T) {
	db, mock := setupMock(t)

	mock.ExpectExec(regexp.QuoteMeta(`UPDATE users SET last_login = $1 WHERE id = $2`)).
		WithArgs(t1, int64(1)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, NewPostgresUserRepository().TouchLogin(context.Background(), db, 1, t1))
}

func TestUserDelete(t *testing.T) {
	db, mock := setupMock(t)
	repo := NewPostgresUserRepository()

	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM users WHERE id = $1`)).WithArgs(int64(1)).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM users WHERE id = $1`)).WithArgs(int64(2)).WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, repo.Delete(context.Background(), db, 1))
	assert.ErrorIs(t, repo.Delete(context.Background(), db, 2), apperr.ErrNotFound)
}

func TestUserReports(t *testing.T) {
	db, mock := setupMock(t)
	repo := NewPostgresUserRepository()
	ctx := context.Background()

	mock.ExpectQuery(regexp.QuoteMeta(`WHERE created_at BETWEEN $1 AND $2`)).
		WithArgs(t0, t1).
		WillReturnRows(userRows().AddRow(int64(1), "Ada", "L", "a@x.com", nil, "h", t0, t0, nil, true))
	mock.ExpectQuery(regexp.QuoteMeta(`HAVING COUNT(*) >= $1`)).
		WithArgs(3).
		WillReturnRows(userRows())
	mock.ExpectQuery(regexp.QuoteMeta(`WHERE right(label, length($1)) = $1`)).
		WithArgs(".com").
		WillReturnRows(userRows().AddRow(int64(2), "Bob", "B", "b@x.com", nil, "h", t0, t0, nil, true))

	created, err := repo.CreatedBetween(ctx, db, t0, t1)
	require.NoError(t, err)
	assert.Len(t, created, 1)

	heavy, err := repo.WithMinSecrets(ctx, db, 3)
	require.NoError(t, err)
	assert.Empty(t, heavy)

	dotCom, err := repo.WithLabelSuffix(ctx, db, ".com")
	require.NoError(t, err)
	require.Len(t, dotCom, 1)
	assert.Equal(t, "Bob", dotCom[0].FirstName)
}
