package sqlstore

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"taskvault/internal/model"
	"taskvault/internal/store"
)

const categoryColumns = `id, owner_email, name, description, icon, color, created_at, updated_at`

func (s *Store) ListCategories(ctx context.Context, owner string, opts store.ListOptions) ([]model.Category, error) {
	defer s.observe("select", "categories", time.Now())

	var cats []model.Category
	err := s.db.SelectContext(ctx, &cats,
		s.db.Rebind(`SELECT `+categoryColumns+` FROM categories WHERE owner_email = ? ORDER BY created_at, id`),
		owner)
	if err != nil {
		return nil, fmt.Errorf("listing categories: %w", err)
	}

	tasks, err := s.selectTasks(ctx, s.db, `owner_email = ?`, []any{owner}, opts)
	if err != nil {
		return nil, err
	}

	byCategory := make(map[string][]model.Task, len(cats))
	for _, t := range tasks {
		byCategory[t.CategoryID] = append(byCategory[t.CategoryID], t)
	}
	for i := range cats {
		cats[i].Tasks = byCategory[cats[i].ID]
		if cats[i].Tasks == nil {
			cats[i].Tasks = []model.Task{}
		}
	}
	if cats == nil {
		cats = []model.Category{}
	}
	return cats, nil
}

func (s *Store) GetCategory(ctx context.Context, owner, id string, opts store.ListOptions) (*model.Category, error) {
	defer s.observe("select", "categories", time.Now())

	c, err := getCategory(ctx, s.db, owner, id)
	if err != nil {
		return nil, err
	}
	c.Tasks, err = s.selectTasks(ctx, s.db, `owner_email = ? AND category_id = ?`, []any{owner, id}, opts)
	if err != nil {
		return nil, err
	}
	return c, nil
}

func (s *Store) CreateCategory(ctx context.Context, owner string, c model.Category) (*model.Category, error) {
	defer s.observe("insert", "categories", time.Now())

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

	_, err := s.db.ExecContext(ctx, s.db.Rebind(`
		INSERT INTO categories (`+categoryColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`),
		c.ID, c.Owner, c.Name, c.Description, c.Icon, c.Color, c.CreatedAt, c.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("creating category: %w", conflict(err))
	}
	c.Tasks = []model.Task{}
	return &c, nil
}

func (s *Store) UpdateCategory(ctx context.Context, owner, id string, patch store.CategoryPatch) (*model.Category, error) {
	defer s.observe("update", "categories", time.Now())

	var out *model.Category
	err := s.inTx(ctx, func(tx *sqlx.Tx) error {
		c, err := getCategory(ctx, tx, owner, id)
		if err != nil {
			return err
		}
		patch.Apply(c, s.now())

		_, err = tx.ExecContext(ctx, tx.Rebind(`
			UPDATE categories SET name = ?, description = ?, icon = ?, updated_at = ?
			WHERE id = ? AND owner_email = ?`),
			c.Name, c.Description, c.Icon, c.UpdatedAt, id, owner,
		)
		if err != nil {
			return fmt.Errorf("updating category %s: %w", id, err)
		}
		c.Tasks, err = s.selectTasks(ctx, tx, `owner_email = ? AND category_id = ?`, []any{owner, id}, store.ListOptions{})
		out = c
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// DeleteCategory removes tasks first so the cascade holds even where FKs are off.
func (s *Store) DeleteCategory(ctx context.Context, owner, id string) error {
	defer s.observe("delete", "categories", time.Now())

	return s.inTx(ctx, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx,
			tx.Rebind(`DELETE FROM tasks WHERE category_id = ? AND owner_email = ?`), id, owner); err != nil {
			return fmt.Errorf("deleting tasks of category %s: %w", id, err)
		}
		res, err := tx.ExecContext(ctx,
			tx.Rebind(`DELETE FROM categories WHERE id = ? AND owner_email = ?`), id, owner)
		if err != nil {
			return fmt.Errorf("deleting category %s: %w", id, err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return store.ErrNotFound
		}
		return nil
	})
}

func getCategory(ctx context.Context, q queryer, owner, id string) (*model.Category, error) {
	var c model.Category
	err := sqlx.GetContext(ctx, q, &c,
		q.Rebind(`SELECT `+categoryColumns+` FROM categories WHERE id = ? AND owner_email = ?`),
		id, owner)
	if err != nil {
		return nil, notFound(fmt.Errorf("getting category %s: %w", id, err))
	}
	return &c, nil
}
