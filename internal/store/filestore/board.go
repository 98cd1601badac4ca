package filestore

import (
	"context"

	"github.com/google/uuid"

	"taskvault/internal/model"
	"taskvault/internal/store"
)

func (s *Store) ListCategories(ctx context.Context, owner string, opts store.ListOptions) ([]model.Category, error) {
	recs, err := s.read()
	if err != nil {
		return nil, err
	}
	out := []model.Category{}
	for _, r := range recs {
		if r.Owner != owner {
			continue
		}
		out = append(out, view(r, opts))
	}
	return out, nil
}

func (s *Store) GetCategory(ctx context.Context, owner, id string, opts store.ListOptions) (*model.Category, error) {
	recs, err := s.read()
	if err != nil {
		return nil, err
	}
	i := find(recs, owner, id)
	if i < 0 {
		return nil, store.ErrNotFound
	}
	c := view(recs[i], opts)
	return &c, nil
}

func (s *Store) CreateCategory(ctx context.Context, owner string, c model.Category) (*model.Category, error) {
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	now := s.now()
	if c.CreatedAt.IsZero() {
		c.CreatedAt = now
	}
	c.UpdatedAt = now
	c.Owner = owner
	c.Color = model.CategoryColor
	c.Tasks = []model.Task{}

	err := s.mutate(func(recs []record) ([]record, error) {
		// id 全局唯一，与 SQL 主键一致
		for _, r := range recs {
			if r.ID == c.ID {
				return nil, store.ErrConflict
			}
		}
		return append(recs, record{Category: c, Owner: owner}), nil
	})
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (s *Store) UpdateCategory(ctx context.Context, owner, id string, patch store.CategoryPatch) (*model.Category, error) {
	var out model.Category
	err := s.mutate(func(recs []record) ([]record, error) {
		i := find(recs, owner, id)
		if i < 0 {
			return nil, store.ErrNotFound
		}
		patch.Apply(&recs[i].Category, s.now())
		out = view(recs[i], store.ListOptions{})
		return recs, nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteCategory drops the record together with its embedded tasks.
func (s *Store) DeleteCategory(ctx context.Context, owner, id string) error {
	return s.mutate(func(recs []record) ([]record, error) {
		i := find(recs, owner, id)
		if i < 0 {
			return nil, store.ErrNotFound
		}
		return append(recs[:i], recs[i+1:]...), nil
	})
}

func (s *Store) ListTasks(ctx context.Context, owner, categoryID string, opts store.ListOptions) ([]model.Task, error) {
	c, err := s.GetCategory(ctx, owner, categoryID, opts)
	if err != nil {
		return nil, err
	}
	return c.Tasks, nil
}

func (s *Store) CreateTask(ctx context.Context, owner, categoryID string, t model.Task) (*model.Task, error) {
	err := s.mutate(func(recs []record) ([]record, error) {
		i := find(recs, owner, categoryID)
		if i < 0 {
			return nil, store.ErrNotFound
		}
		if t.ID == "" {
			t.ID = uuid.New().String()
		} else if taskExists(recs, t.ID) {
			return nil, store.ErrConflict
		}
		now := s.now()
		if t.CreatedAt.IsZero() {
			t.CreatedAt = now
		}
		t.UpdatedAt = now
		t.CategoryID = categoryID
		t.Owner = owner
		t.Order = nextOrder(recs[i].Tasks)

		recs[i].Tasks = append(recs[i].Tasks, t)
		recs[i].UpdatedAt = now
		return recs, nil
	})
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (s *Store) UpdateTask(ctx context.Context, owner, categoryID, taskID string, patch store.TaskPatch) (*model.Task, error) {
	var out model.Task
	err := s.mutate(func(recs []record) ([]record, error) {
		i := find(recs, owner, categoryID)
		if i < 0 {
			return nil, store.ErrNotFound
		}
		j := findTask(recs[i].Tasks, taskID)
		if j < 0 {
			return nil, store.ErrNotFound
		}
		if err := patch.Apply(&recs[i].Tasks[j], s.now()); err != nil {
			return nil, err
		}
		out = recs[i].Tasks[j]
		return recs, nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *Store) DeleteTask(ctx context.Context, owner, categoryID, taskID string) error {
	return s.mutate(func(recs []record) ([]record, error) {
		i := find(recs, owner, categoryID)
		if i < 0 {
			return nil, store.ErrNotFound
		}
		j := findTask(recs[i].Tasks, taskID)
		if j < 0 {
			return nil, store.ErrNotFound
		}
		recs[i].Tasks = append(recs[i].Tasks[:j], recs[i].Tasks[j+1:]...)
		return recs, nil
	})
}

func findTask(tasks []model.Task, id string) int {
	for i := range tasks {
		if tasks[i].ID == id {
			return i
		}
	}
	return -1
}

func taskExists(recs []record, id string) bool {
	for _, r := range recs {
		if findTask(r.Tasks, id) >= 0 {
			return true
		}
	}
	return false
}

// nextOrder is one past the highest order in tasks.
func nextOrder(tasks []model.Task) int {
	next := 0
	for _, t := range tasks {
		if t.Order >= next {
			next = t.Order + 1
		}
	}
	return next
}

// view copies a record so callers cannot alias the stored slices.
func view(r record, opts store.ListOptions) model.Category {
	c := r.Category
	c.Owner = r.Owner
	c.Tasks = store.FilterTasks(r.Tasks, opts)
	return c
}
