// Package storetest holds behaviour checks every store.Store backend must pass.
package storetest

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taskvault/internal/model"
	"taskvault/internal/store"
)

// Factory returns a fresh, initialised, empty store.
type Factory func(t *testing.T) store.Store

const (
	owner = "owner@example.com"
	other = "someone@example.com"
)

func ptr[T any](v T) *T { return &v }

// Run executes the suite against stores produced by newStore.
func Run(t *testing.T, newStore Factory) {
	t.Run("InitIsIdempotent", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		require.NoError(t, s.Init(ctx))
		require.NoError(t, s.Init(ctx))
		require.NoError(t, s.Ping(ctx))
		require.NoError(t, s.EnsureUser(ctx, owner))
		require.NoError(t, s.EnsureUser(ctx, owner))
	})

	t.Run("CreateAndListCategory", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		created, err := s.CreateCategory(ctx, owner, model.Category{Name: "Work", Icon: "briefcase"})
		require.NoError(t, err)
		assert.NotEmpty(t, created.ID)
		assert.Equal(t, model.CategoryColor, created.Color)

		cats, err := s.ListCategories(ctx, owner, store.ListOptions{})
		require.NoError(t, err)
		require.Len(t, cats, 1)
		assert.Equal(t, "Work", cats[0].Name)
		assert.Equal(t, "briefcase", cats[0].Icon)
		assert.Empty(t, cats[0].Tasks)

		others, err := s.ListCategories(ctx, other, store.ListOptions{})
		require.NoError(t, err)
		assert.Empty(t, others)
	})

	t.Run("OwnerScoping", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		c, err := s.CreateCategory(ctx, owner, model.Category{Name: "Private", Icon: "x"})
		require.NoError(t, err)

		_, err = s.GetCategory(ctx, other, c.ID, store.ListOptions{})
		assert.ErrorIs(t, err, store.ErrNotFound)
		_, err = s.CreateTask(ctx, other, c.ID, model.Task{Title: "sneaky"})
		assert.ErrorIs(t, err, store.ErrNotFound)
		assert.ErrorIs(t, s.DeleteCategory(ctx, other, c.ID), store.ErrNotFound)
	})

	t.Run("PartialCategoryUpdate", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		c, err := s.CreateCategory(ctx, owner, model.Category{Name: "Home", Icon: "house", Description: ptr("chores")})
		require.NoError(t, err)

		updated, err := s.UpdateCategory(ctx, owner, c.ID, store.CategoryPatch{Name: ptr("House")})
		require.NoError(t, err)
		assert.Equal(t, "House", updated.Name)
		assert.Equal(t, "house", updated.Icon)
		require.NotNil(t, updated.Description)
		assert.Equal(t, "chores", *updated.Description)

		_, err = s.UpdateCategory(ctx, owner, "missing", store.CategoryPatch{Name: ptr("x")})
		assert.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("TaskLifecycle", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		c, err := s.CreateCategory(ctx, owner, model.Category{Name: "Errands", Icon: "cart"})
		require.NoError(t, err)

		milk, err := s.CreateTask(ctx, owner, c.ID, model.Task{Title: "Buy milk", DueDate: ptr("2024-05-01")})
		require.NoError(t, err)
		assert.Equal(t, 0, milk.Order)
		bread, err := s.CreateTask(ctx, owner, c.ID, model.Task{Title: "Buy bread"})
		require.NoError(t, err)
		assert.Equal(t, 1, bread.Order)

		done, err := s.UpdateTask(ctx, owner, c.ID, milk.ID, store.TaskPatch{Completed: ptr(true)})
		require.NoError(t, err)
		assert.True(t, done.Completed)
		assert.Equal(t, "Buy milk", done.Title)
		require.NotNil(t, done.DueDate)
		assert.Equal(t, "2024-05-01", *done.DueDate)

		tasks, err := s.ListTasks(ctx, owner, c.ID, store.ListOptions{})
		require.NoError(t, err)
		require.Len(t, tasks, 2)
		assert.Equal(t, milk.ID, tasks[0].ID)
		assert.True(t, tasks[0].Completed)
		assert.Equal(t, "Buy milk", tasks[0].Title)
		assert.Equal(t, "2024-05-01", *tasks[0].DueDate)

		cleared, err := s.UpdateTask(ctx, owner, c.ID, milk.ID, store.TaskPatch{DueDate: store.Null[string]()})
		require.NoError(t, err)
		assert.Nil(t, cleared.DueDate)
		assert.True(t, cleared.Completed)

		require.NoError(t, s.DeleteTask(ctx, owner, c.ID, bread.ID))
		assert.ErrorIs(t, s.DeleteTask(ctx, owner, c.ID, bread.ID), store.ErrNotFound)
		_, err = s.UpdateTask(ctx, owner, c.ID, bread.ID, store.TaskPatch{Completed: ptr(true)})
		assert.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("ArchiveIsOneWay", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		c, err := s.CreateCategory(ctx, owner, model.Category{Name: "Old", Icon: "box"})
		require.NoError(t, err)
		task, err := s.CreateTask(ctx, owner, c.ID, model.Task{Title: "File taxes"})
		require.NoError(t, err)

		archived, err := s.UpdateTask(ctx, owner, c.ID, task.ID, store.TaskPatch{Archived: ptr(true)})
		require.NoError(t, err)
		assert.True(t, archived.Archived)

		active, err := s.ListTasks(ctx, owner, c.ID, store.ListOptions{})
		require.NoError(t, err)
		assert.Empty(t, active)

		all, err := s.ListTasks(ctx, owner, c.ID, store.ListOptions{IncludeArchived: true})
		require.NoError(t, err)
		require.Len(t, all, 1)
		assert.True(t, all[0].Archived)

		cats, err := s.ListCategories(ctx, owner, store.ListOptions{})
		require.NoError(t, err)
		require.Len(t, cats, 1)
		assert.Empty(t, cats[0].Tasks)

		_, err = s.UpdateTask(ctx, owner, c.ID, task.ID, store.TaskPatch{Archived: ptr(false)})
		assert.ErrorIs(t, err, store.ErrUnarchive)
	})

	t.Run("DeleteCategoryCascades", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		c, err := s.CreateCategory(ctx, owner, model.Category{Name: "Temp", Icon: "t"})
		require.NoError(t, err)
		keep, err := s.CreateCategory(ctx, owner, model.Category{Name: "Keep", Icon: "k"})
		require.NoError(t, err)
		_, err = s.CreateTask(ctx, owner, c.ID, model.Task{Title: "gone"})
		require.NoError(t, err)
		_, err = s.CreateTask(ctx, owner, keep.ID, model.Task{Title: "stays"})
		require.NoError(t, err)

		require.NoError(t, s.DeleteCategory(ctx, owner, c.ID))
		assert.ErrorIs(t, s.DeleteCategory(ctx, owner, c.ID), store.ErrNotFound)

		_, err = s.ListTasks(ctx, owner, c.ID, store.ListOptions{IncludeArchived: true})
		assert.ErrorIs(t, err, store.ErrNotFound)

		cats, err := s.ListCategories(ctx, owner, store.ListOptions{IncludeArchived: true})
		require.NoError(t, err)
		require.Len(t, cats, 1)
		require.Len(t, cats[0].Tasks, 1)
		assert.Equal(t, "stays", cats[0].Tasks[0].Title)
	})

	t.Run("OrderSkipsDeletedSlots", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		c, err := s.CreateCategory(ctx, owner, model.Category{Name: "Queue", Icon: "q"})
		require.NoError(t, err)

		var ids []string
		for _, title := range []string{"a", "b", "c"} {
			task, err := s.CreateTask(ctx, owner, c.ID, model.Task{Title: title})
			require.NoError(t, err)
			ids = append(ids, task.ID)
		}
		require.NoError(t, s.DeleteTask(ctx, owner, c.ID, ids[1]))

		d, err := s.CreateTask(ctx, owner, c.ID, model.Task{Title: "d"})
		require.NoError(t, err)
		assert.Equal(t, 3, d.Order)

		tasks, err := s.ListTasks(ctx, owner, c.ID, store.ListOptions{})
		require.NoError(t, err)
		require.Len(t, tasks, 3)
		assert.Equal(t, []string{"a", "c", "d"}, []string{tasks[0].Title, tasks[1].Title, tasks[2].Title})
	})

	t.Run("DuplicateIDsConflict", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		_, err := s.CreateCategory(ctx, owner, model.Category{ID: "c1", Name: "A", Icon: "a"})
		require.NoError(t, err)
		_, err = s.CreateCategory(ctx, owner, model.Category{ID: "c1", Name: "B", Icon: "b"})
		assert.ErrorIs(t, err, store.ErrConflict)

		_, err = s.CreateCategory(ctx, owner, model.Category{ID: "c2", Name: "C", Icon: "c"})
		require.NoError(t, err)
		_, err = s.CreateTask(ctx, owner, "c1", model.Task{ID: "t1", Title: "first"})
		require.NoError(t, err)
		_, err = s.CreateTask(ctx, owner, "c1", model.Task{ID: "t1", Title: "again"})
		assert.ErrorIs(t, err, store.ErrConflict)
		_, err = s.CreateTask(ctx, owner, "c2", model.Task{ID: "t1", Title: "elsewhere"})
		assert.ErrorIs(t, err, store.ErrConflict)

		cats, err := s.ListCategories(ctx, owner, store.ListOptions{})
		require.NoError(t, err)
		require.Len(t, cats, 2)
		require.NoError(t, s.DeleteCategory(ctx, owner, "c1"))
		cats, err = s.ListCategories(ctx, owner, store.ListOptions{})
		require.NoError(t, err)
		require.Len(t, cats, 1)
		assert.Equal(t, "c2", cats[0].ID)
		assert.Empty(t, cats[0].Tasks)
	})

	t.Run("CreateKeepsImportedIDs", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		c, err := s.CreateCategory(ctx, owner, model.Category{ID: "cat-1", Name: "Imported", Icon: "i"})
		require.NoError(t, err)
		assert.Equal(t, "cat-1", c.ID)
		task, err := s.CreateTask(ctx, owner, "cat-1", model.Task{ID: "task-1", Title: "from export", Completed: true})
		require.NoError(t, err)
		assert.Equal(t, "task-1", task.ID)

		got, err := s.GetCategory(ctx, owner, "cat-1", store.ListOptions{})
		require.NoError(t, err)
		require.Len(t, got.Tasks, 1)
		assert.True(t, got.Tasks[0].Completed)
	})
}
