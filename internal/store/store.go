// Package store defines the persistence contract shared by every backend.
package store

import (
	"context"
	"errors"

	"taskvault/internal/model"
)

var (
	// ErrNotFound is returned for ids that do not exist for the given owner.
	ErrNotFound = errors.New("not found")
	// ErrCorrupt is returned when persisted data cannot be read back.
	ErrCorrupt = errors.New("stored data is corrupt")
	// ErrConflict is returned when a category or task id is already taken.
	ErrConflict = errors.New("id already exists")
	// ErrUnarchive is returned for a patch that tries to restore an archived task.
	ErrUnarchive = errors.New("archived tasks cannot be restored")
)

// ListOptions controls which tasks are returned.
type ListOptions struct {
	IncludeArchived bool
}

// Store is implemented by the postgres, sqlite, mongo and file backends.
// Every call is scoped by owner; rows belonging to other owners behave as missing.
type Store interface {
	// Init creates tables or indexes. Safe to call repeatedly.
	Init(ctx context.Context) error
	Ping(ctx context.Context) error
	Close() error

	EnsureUser(ctx context.Context, email string) error

	ListCategories(ctx context.Context, owner string, opts ListOptions) ([]model.Category, error)
	GetCategory(ctx context.Context, owner, id string, opts ListOptions) (*model.Category, error)
	CreateCategory(ctx context.Context, owner string, c model.Category) (*model.Category, error)
	UpdateCategory(ctx context.Context, owner, id string, patch CategoryPatch) (*model.Category, error)
	// DeleteCategory removes the category and all of its tasks.
	DeleteCategory(ctx context.Context, owner, id string) error

	ListTasks(ctx context.Context, owner, categoryID string, opts ListOptions) ([]model.Task, error)
	CreateTask(ctx context.Context, owner, categoryID string, t model.Task) (*model.Task, error)
	UpdateTask(ctx context.Context, owner, categoryID, taskID string, patch TaskPatch) (*model.Task, error)
	DeleteTask(ctx context.Context, owner, categoryID, taskID string) error
}
