package models

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"gorm.io/gorm"
)

// CategoryStore is the persistence contract for categories.
type CategoryStore interface {
	Size(ctx context.Context) (int64, error)
	AddCategory(ctx context.Context, category *Category) error
	GetCategory(ctx context.Context, name string) (*Category, error)
	GetAllCategories(ctx context.Context) ([]Category, error)
	ListCategories(ctx context.Context, offset, limit int, filters CategoryFilters) ([]Category, int64, error)
	UpdateCategory(ctx context.Context, category *Category) error
	DeleteCategory(ctx context.Context, name string) error
}

type CategoriesRepository struct {
	db       *gorm.DB
	validate *validator.Validate
}

var _ CategoryStore = (*CategoriesRepository)(nil)

type CategoryFilters struct {
	Color      string
	NamePrefix string
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func NewCategoriesRepository(db *gorm.DB) *CategoriesRepository {
	return &CategoriesRepository{
		db:       db,
		validate: validator.New(),
	}
}

// Size returns the number of stored categories.
func (r *CategoriesRepository) Size(ctx context.Context) (int64, error) {
	var size int64
	if err := r.db.WithContext(ctx).
		Model(&Category{}).
		Count(&size).Error; err != nil {
		return 0, fmt.Errorf("count categories: %w: %w", ErrDatabase, err)
	}
	return size, nil
}

// AddCategory inserts a new category. A category whose name is already
// stored is rejected with ErrCategoryExists.
func (r *CategoriesRepository) AddCategory(ctx context.Context, category *Category) error {
	if category == nil {
		return fmt.Errorf("add category: %w: category is nil", ErrInvalidCategory)
	}
	if err := r.validate.Struct(category); err != nil {
		return fmt.Errorf("add category: %w: %w", ErrInvalidCategory, err)
	}

	if err := r.db.WithContext(ctx).Create(category).Error; err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("add category %q: %w", category.Name, ErrCategoryExists)
		}
		return fmt.Errorf("add category %q: %w: %w", category.Name, ErrDatabase, err)
	}
	return nil
}

// GetCategory returns the category stored under name.
func (r *CategoriesRepository) GetCategory(ctx context.Context, name string) (*Category, error) {
	if name == "" {
		return nil, fmt.Errorf("get category: %w: name is empty", ErrInvalidCategory)
	}

	var category Category
	if err := r.db.WithContext(ctx).
		Where("name = ?", name).
		Take(&category).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("get category %q: %w", name, ErrCategoryNotFound)
		}
		return nil, fmt.Errorf("get category %q: %w: %w", name, ErrDatabase, err)
	}
	return &category, nil
}

// GetAllCategories returns every stored category ordered by name. An empty
// store yields an empty slice.
func (r *CategoriesRepository) GetAllCategories(ctx context.Context) ([]Category, error) {
	categories := []Category{}
	if err := r.db.WithContext(ctx).
		Order("name").
		Find(&categories).Error; err != nil {
		return nil, fmt.Errorf("get all categories: %w: %w", ErrDatabase, err)
	}
	return categories, nil
}

// ListCategories returns one page of the categories matching filters,
// together with the number of matches before pagination. A limit of zero
// or less returns every match from offset on.
func (r *CategoriesRepository) ListCategories(ctx context.Context, offset, limit int, filters CategoryFilters) ([]Category, int64, error) {
	categories := []Category{}
	var total int64

	query := r.db.WithContext(ctx).Model(&Category{})

	// Filter
	if filters.Color != "" {
		query = query.Where("color = ?", filters.Color)
	}
	if filters.NamePrefix != "" {
		query = query.Where(`name LIKE ? ESCAPE '\'`, likeEscaper.Replace(filters.NamePrefix)+"%")
	}
	query = query.Session(&gorm.Session{})

	// Count total after filtering
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count categories: %w: %w", ErrDatabase, err)
	}

	// Apply pagination
	if limit <= 0 {
		limit = -1
	}
	if err := query.Order("name").Offset(offset).Limit(limit).Find(&categories).Error; err != nil {
		return nil, 0, fmt.Errorf("list categories: %w: %w", ErrDatabase, err)
	}

	return categories, total, nil
}

// UpdateCategory is not supported: categories are replaced by deleting and
// adding them again.
func (r *CategoriesRepository) UpdateCategory(_ context.Context, _ *Category) error {
	return fmt.Errorf("update category: %w", ErrNotImplemented)
}

// DeleteCategory removes the category with the given name. Deleting a name
// that is not stored is not an error.
func (r *CategoriesRepository) DeleteCategory(ctx context.Context, name string) error {
	if name == "" {
		return fmt.Errorf("delete category: %w: name is empty", ErrInvalidCategory)
	}

	if err := r.db.WithContext(ctx).
		Where("name = ?", name).
		Delete(&Category{}).Error; err != nil {
		return fmt.Errorf("delete category %q: %w: %w", name, ErrDatabase, err)
	}
	return nil
}
