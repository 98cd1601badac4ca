package store

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taskvault/internal/model"
)

func ptr[T any](v T) *T { return &v }

func TestTaskPatchOnlyTouchesProvidedFields(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	task := model.Task{Title: "Buy milk", Notes: ptr("2 litres")}

	require.NoError(t, TaskPatch{Completed: ptr(true)}.Apply(&task, now))
	assert.True(t, task.Completed)
	assert.Equal(t, "Buy milk", task.Title)
	assert.Equal(t, "2 litres", *task.Notes)
	assert.Equal(t, now, task.UpdatedAt)

	require.NoError(t, TaskPatch{Completed: ptr(false)}.Apply(&task, now))
	assert.False(t, task.Completed)
}

func TestTaskPatchArchive(t *testing.T) {
	task := model.Task{Title: "x"}

	require.NoError(t, TaskPatch{Archived: ptr(false)}.Apply(&task, time.Now()))
	assert.False(t, task.Archived)

	require.NoError(t, TaskPatch{Archived: ptr(true)}.Apply(&task, time.Now()))
	assert.True(t, task.Archived)

	title := task.Title
	err := TaskPatch{Archived: ptr(false), Title: ptr("changed")}.Apply(&task, time.Now())
	assert.ErrorIs(t, err, ErrUnarchive)
	assert.True(t, task.Archived)
	assert.Equal(t, title, task.Title)
}

func TestPatchEmpty(t *testing.T) {
	assert.True(t, TaskPatch{}.Empty())
	assert.False(t, TaskPatch{Priority: Some("high")}.Empty())
	assert.False(t, TaskPatch{Notes: Null[string]()}.Empty())
	assert.True(t, CategoryPatch{}.Empty())
	assert.False(t, CategoryPatch{Icon: ptr("x")}.Empty())
}

func TestTaskPatchDecodesNullAsClear(t *testing.T) {
	var p TaskPatch
	require.NoError(t, json.Unmarshal([]byte(`{"notes":null,"dueDate":"2024-06-01"}`), &p))
	assert.True(t, p.Notes.Set)
	assert.Nil(t, p.Notes.Value)
	assert.True(t, p.DueDate.Set)
	assert.Equal(t, "2024-06-01", *p.DueDate.Value)
	assert.False(t, p.DueTime.Set)
	assert.False(t, p.Priority.Set)

	task := model.Task{Title: "x", Notes: ptr("old"), DueTime: ptr("09:00")}
	require.NoError(t, p.Apply(&task, time.Now()))
	assert.Nil(t, task.Notes)
	assert.Equal(t, "2024-06-01", *task.DueDate)
	assert.Equal(t, "09:00", *task.DueTime)
}

func TestCategoryPatchClearsDescription(t *testing.T) {
	var p CategoryPatch
	require.NoError(t, json.Unmarshal([]byte(`{"description":null}`), &p))
	require.False(t, p.Empty())

	c := model.Category{Name: "Home", Description: ptr("chores")}
	p.Apply(&c, time.Now())
	assert.Nil(t, c.Description)
	assert.Equal(t, "Home", c.Name)
}

func TestFilterTasks(t *testing.T) {
	tasks := []model.Task{{ID: "a"}, {ID: "b", Archived: true}}
	assert.Len(t, FilterTasks(tasks, ListOptions{}), 1)
	assert.Len(t, FilterTasks(tasks, ListOptions{IncludeArchived: true}), 2)
}
