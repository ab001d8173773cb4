package service

import (
	"context"
	"strings"

	"github.com/atinyakov/PassKeeper/internal/apperr"
	"github.com/atinyakov/PassKeeper/internal/db"
	"github.com/atinyakov/PassKeeper/internal/models"
)

// CategoryStore defines the persistence operations needed by the CategoryService.
type CategoryStore interface {
	Insert(ctx context.Context, q db.Querier, c *models.Category) error
	GetByID(ctx context.Context, q db.Querier, id int64) (*models.Category, error)
	List(ctx context.Context, q db.Querier) ([]models.Category, error)
	Search(ctx context.Context, q db.Querier, keyword string) ([]models.Category, error)
	Update(ctx context.Context, q db.Querier, id int64, name *string) (*models.Category, error)
	Delete(ctx context.Context, q db.Querier, id int64) error
	Link(ctx context.Context, q db.Querier, link models.SecretCategory) error
	Unlink(ctx context.Context, q db.Querier, link models.SecretCategory) error
	Links(ctx context.Context, q db.Querier) ([]models.SecretCategory, error)
	ForSecret(ctx context.Context, q db.Querier, secretID int64) ([]models.Category, error)
}

// CategoryService manages categories and their links to secrets.
type CategoryService struct {
	db    db.Querier
	store CategoryStore
}

// NewCategoryService constructs a CategoryService.
func NewCategoryService(q db.Querier, store CategoryStore) *CategoryService {
	return &CategoryService{db: q, store: store}
}

// Create stores a new category.
func (s *CategoryService) Create(ctx context.Context, name string) (*models.Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperr.Msg(apperr.ErrValidation, "categories.Create", "name must not be empty")
	}
	c := &models.Category{Name: name}
	if err := s.store.Insert(ctx, s.db, c); err != nil {
		return nil, err
	}
	return c, nil
}

// Get returns one category.
func (s *CategoryService) Get(ctx context.Context, id int64) (*models.Category, error) {
	if id <= 0 {
		return nil, apperr.Msg(apperr.ErrValidation, "categories.Get", "category id must be positive")
	}
	return s.store.GetByID(ctx, s.db, id)
}

// List returns all categories.
func (s *CategoryService) List(ctx context.Context) ([]models.Category, error) {
	return s.store.List(ctx, s.db)
}

// Search returns categories whose name contains keyword, ignoring case.
func (s *CategoryService) Search(ctx context.Context, keyword string) ([]models.Category, error) {
	if keyword == "" {
		return nil, apperr.Msg(apperr.ErrValidation, "categories.Search", "keyword must not be empty")
	}
	return s.store.Search(ctx, s.db, keyword)
}

// Update renames a category; a nil name keeps the current one.
func (s *CategoryService) Update(ctx context.Context, id int64, name *string) (*models.Category, error) {
	const op = "categories.Update"
	if id <= 0 {
		return nil, apperr.Msg(apperr.ErrValidation, op, "category id must be positive")
	}
	if name != nil {
		trimmed := strings.TrimSpace(*name)
		if trimmed == "" {
			return nil, apperr.Msg(apperr.ErrValidation, op, "name must not be empty")
		}
		name = &trimmed
	}
	return s.store.Update(ctx, s.db, id, name)
}

// Delete removes a category and its links.
func (s *CategoryService) Delete(ctx context.Context, id int64) error {
	if id <= 0 {
		return apperr.Msg(apperr.ErrValidation, "categories.Delete", "category id must be positive")
	}
	return s.store.Delete(ctx, s.db, id)
}

// Link tags a secret with a category.
func (s *CategoryService) Link(ctx context.Context, link models.SecretCategory) error {
	if err := validLink("categories.Link", link); err != nil {
		return err
	}
	return s.store.Link(ctx, s.db, link)
}

// Unlink removes a tag.
func (s *CategoryService) Unlink(ctx context.Context, link models.SecretCategory) error {
	if err := validLink("categories.Unlink", link); err != nil {
		return err
	}
	return s.store.Unlink(ctx, s.db, link)
}

// Links returns every secret-category link.
func (s *CategoryService) Links(ctx context.Context) ([]models.SecretCategory, error) {
	return s.store.Links(ctx, s.db)
}

// ForSecret returns the categories of one secret.
func (s *CategoryService) ForSecret(ctx context.Context, secretID int64) ([]models.Category, error) {
	if secretID <= 0 {
		return nil, apperr.Msg(apperr.ErrValidation, "categories.ForSecret", "secret id must be positive")
	}
	return s.store.ForSecret(ctx, s.db, secretID)
}

func validLink(op string, link models.SecretCategory) error {
	if link.SecretID <= 0 || link.CategoryID <= 0 {
		return apperr.Msg(apperr.ErrValidation, op, "secret and category ids must be positive")
	}
	return nil
}
