package models

import "errors"

var (
	// ErrInvalidCategory is returned when a category or category name is missing or invalid.
	ErrInvalidCategory = errors.New("invalid category")
	// ErrCategoryNotFound is returned when a category is not found.
	ErrCategoryNotFound = errors.New("category not found")
	// ErrCategoryExists is returned when a category with the same name is already stored.
	ErrCategoryExists = errors.New("category already exists")
	// ErrDatabase is returned when the underlying database cannot be reached or fails a query.
	ErrDatabase = errors.New("database fault")
	// ErrNotImplemented is returned by operations the store does not support.
	ErrNotImplemented = errors.New("not implemented")
)
