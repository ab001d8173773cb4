package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/atinyakov/PassKeeper/internal/apperr"
	"github.com/atinyakov/PassKeeper/internal/db"
	"github.com/atinyakov/PassKeeper/internal/models"
)

// PostgresCategoryRepository stores categories and their links to secrets.
type PostgresCategoryRepository struct{}

// NewPostgresCategoryRepository creates a PostgresCategoryRepository.
func NewPostgresCategoryRepository() *PostgresCategoryRepository {
	return &PostgresCategoryRepository{}
}

// Insert stores c and sets c.ID.
func (r *PostgresCategoryRepository) Insert(ctx context.Context, q db.Querier, c *models.Category) error {
	err := q.QueryRowContext(ctx, `INSERT INTO categories (name) VALUES ($1) RETURNING id`, c.Name).Scan(&c.ID)
	return classify("categories.Insert", err)
}

// GetByID fetches one category.
func (r *PostgresCategoryRepository) GetByID(ctx context.Context, q db.Querier, id int64) (*models.Category, error) {
	var c models.Category
	err := q.QueryRowContext(ctx, `SELECT id, name FROM categories WHERE id = $1`, id).Scan(&c.ID, &c.Name)
	if err != nil {
		return nil, classify("categories.GetByID", err)
	}
	return &c, nil
}

// List returns all categories ordered by id.
func (r *PostgresCategoryRepository) List(ctx context.Context, q db.Querier) ([]models.Category, error) {
	rows, err := q.QueryContext(ctx, `SELECT id, name FROM categories ORDER BY id`)
	if err != nil {
		return nil, classify("categories.List", err)
	}
	return collectCategories("categories.List", rows)
}

// Search returns categories whose name contains keyword, ignoring case.
func (r *PostgresCategoryRepository) Search(ctx context.Context, q db.Querier, keyword string) ([]models.Category, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT id, name FROM categories
		WHERE name ILIKE '%' || $1 || '%'
		ORDER BY id
	`, keyword)
	if err != nil {
		return nil, classify("categories.Search", err)
	}
	return collectCategories("categories.Search", rows)
}

// Update renames a category when name is non-nil.
func (r *PostgresCategoryRepository) Update(ctx context.Context, q db.Querier, id int64, name *string) (*models.Category, error) {
	var c models.Category
	err := q.QueryRowContext(ctx, `
		UPDATE categories SET name = COALESCE($1, name) WHERE id = $2 RETURNING id, name
	`, name, id).Scan(&c.ID, &c.Name)
	if err != nil {
		return nil, classify("categories.Update", err)
	}
	return &c, nil
}

// Delete removes a category and its links.
func (r *PostgresCategoryRepository) Delete(ctx context.Context, q db.Querier, id int64) error {
	res, err := q.ExecContext(ctx, `DELETE FROM categories WHERE id = $1`, id)
	if err != nil {
		return classify("categories.Delete", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return apperr.Msg(apperr.ErrNotFound, "categories.Delete", fmt.Sprintf("category %d", id))
	}
	return nil
}

// Link tags a secret with a category. Linking twice is a conflict; an
// unknown secret or category is not found.
func (r *PostgresCategoryRepository) Link(ctx context.Context, q db.Querier, link models.SecretCategory) error {
	_, err := q.ExecContext(ctx, `
		INSERT INTO secret_categories (secret_id, category_id) VALUES ($1, $2)
	`, link.SecretID, link.CategoryID)
	return classify("categories.Link", err)
}

// Unlink removes a tag.
func (r *PostgresCategoryRepository) Unlink(ctx context.Context, q db.Querier, link models.SecretCategory) error {
	res, err := q.ExecContext(ctx, `
		DELETE FROM secret_categories WHERE secret_id = $1 AND category_id = $2
	`, link.SecretID, link.CategoryID)
	if err != nil {
		return classify("categories.Unlink", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return apperr.Msg(apperr.ErrNotFound, "categories.Unlink", "link not found")
	}
	return nil
}

// Links returns every secret/category pair.
func (r *PostgresCategoryRepository) Links(ctx context.Context, q db.Querier) ([]models.SecretCategory, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT secret_id, category_id FROM secret_categories ORDER BY secret_id, category_id
	`)
	if err != nil {
		return nil, classify("categories.Links", err)
	}
	defer rows.Close()

	links := []models.SecretCategory{}
	for rows.Next() {
		var l models.SecretCategory
		if err := rows.Scan(&l.SecretID, &l.CategoryID); err != nil {
			return nil, classify("categories.Links", fmt.Errorf("scan: %w", err))
		}
		links = append(links, l)
	}
	if err := rows.Err(); err != nil {
		return nil, classify("categories.Links", err)
	}
	return links, nil
}

// ForSecret returns the categories a secret is tagged with.
func (r *PostgresCategoryRepository) ForSecret(ctx context.Context, q db.Querier, secretID int64) ([]models.Category, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT c.id, c.name FROM categories c
		JOIN secret_categories sc ON sc.category_id = c.id
		WHERE sc.secret_id = $1
		ORDER BY c.id
	`, secretID)
	if err != nil {
		return nil, classify("categories.ForSecret", err)
	}
	return collectCategories("categories.ForSecret", rows)
}

func collectCategories(op string, rows *sql.Rows) ([]models.Category, error) {
	defer rows.Close()

	categories := []models.Category{}
	for rows.Next() {
		var c models.Category
		if err := rows.Scan(&c.ID, &c.Name); err != nil {
			return nil, classify(op, fmt.Errorf("scan: %w", err))
		}
		categories = append(categories, c)
	}
	if err := rows.Err(); err != nil {
		return nil, classify(op, err)
	}
	return categories, nil
}
