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

const taskColumns = `id, category_id, owner_email, title, completed, notes, due_date, due_time,
	assigned_to, priority, archived, sort_order, created_at, updated_at`

func (s *Store) ListTasks(ctx context.Context, owner, categoryID string, opts store.ListOptions) ([]model.Task, error) {
	defer s.observe("select", "tasks", time.Now())

	if _, err := getCategory(ctx, s.db, owner, categoryID); err != nil {
		return nil, err
	}
	return s.selectTasks(ctx, s.db, `owner_email = ? AND category_id = ?`, []any{owner, categoryID}, opts)
}

// CreateTask appends the task to the end of its category.
func (s *Store) CreateTask(ctx context.Context, owner, categoryID string, t model.Task) (*model.Task, error) {
	defer s.observe("insert", "tasks", time.Now())

	err := s.inTx(ctx, func(tx *sqlx.Tx) error {
		if _, err := getCategory(ctx, tx, owner, categoryID); err != nil {
			return err
		}
		if err := tx.GetContext(ctx, &t.Order,
			tx.Rebind(`SELECT COALESCE(MAX(sort_order) + 1, 0) FROM tasks WHERE category_id = ?`), categoryID); err != nil {
			return fmt.Errorf("reading next order: %w", err)
		}

		if t.ID == "" {
			t.ID = uuid.New().String()
		}
		now := s.now()
		if t.CreatedAt.IsZero() {
			t.CreatedAt = now
		}
		t.UpdatedAt = now
		t.CategoryID = categoryID
		t.Owner = owner

		_, err := tx.ExecContext(ctx, tx.Rebind(`
			INSERT INTO tasks (`+taskColumns+`)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`),
			t.ID, t.CategoryID, t.Owner, t.Title, t.Completed, t.Notes, t.DueDate, t.DueTime,
			t.AssignedTo, t.Priority, t.Archived, t.Order, t.CreatedAt, t.UpdatedAt,
		)
		if err != nil {
			return fmt.Errorf("creating task: %w", conflict(err))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (s *Store) UpdateTask(ctx context.Context, owner, categoryID, taskID string, patch store.TaskPatch) (*model.Task, error) {
	defer s.observe("update", "tasks", time.Now())

	var out model.Task
	err := s.inTx(ctx, func(tx *sqlx.Tx) error {
		err := tx.GetContext(ctx, &out, tx.Rebind(`SELECT `+taskColumns+` FROM tasks
			WHERE id = ? AND category_id = ? AND owner_email = ?`),
			taskID, categoryID, owner)
		if err != nil {
			return notFound(fmt.Errorf("getting task %s: %w", taskID, err))
		}
		if err := patch.Apply(&out, s.now()); err != nil {
			return err
		}

		_, err = tx.ExecContext(ctx, tx.Rebind(`
			UPDATE tasks SET
				title = ?, completed = ?, notes = ?, due_date = ?, due_time = ?,
				assigned_to = ?, priority = ?, archived = ?, updated_at = ?
			WHERE id = ? AND owner_email = ?`),
			out.Title, out.Completed, out.Notes, out.DueDate, out.DueTime,
			out.AssignedTo, out.Priority, out.Archived, out.UpdatedAt,
			taskID, owner,
		)
		if err != nil {
			return fmt.Errorf("updating task %s: %w", taskID, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *Store) DeleteTask(ctx context.Context, owner, categoryID, taskID string) error {
	defer s.observe("delete", "tasks", time.Now())

	res, err := s.db.ExecContext(ctx,
		s.db.Rebind(`DELETE FROM tasks WHERE id = ? AND category_id = ? AND owner_email = ?`),
		taskID, categoryID, owner)
	if err != nil {
		return fmt.Errorf("deleting task %s: %w", taskID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) selectTasks(ctx context.Context, q queryer, where string, args []any, opts store.ListOptions) ([]model.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE ` + where
	if !opts.IncludeArchived {
		query += ` AND archived = ?`
		args = append(args, false)
	}
	query += ` ORDER BY sort_order, created_at`

	tasks := []model.Task{}
	if err := sqlx.SelectContext(ctx, q, &tasks, q.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("listing tasks: %w", err)
	}
	return tasks, nil
}
