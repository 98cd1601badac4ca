package store

import (
	"bytes"
	"encoding/json"
	"time"

	"taskvault/internal/model"
)

// Nullable is a patch field for a value that can be cleared. Set is true when
// the key was present; a present null leaves Value nil.
type Nullable[T any] struct {
	Set   bool
	Value *T
}

// Some returns a present, non-null field.
func Some[T any](v T) Nullable[T] {
	return Nullable[T]{Set: true, Value: &v}
}

// Null returns a present field that clears the value.
func Null[T any]() Nullable[T] {
	return Nullable[T]{Set: true}
}

func (n *Nullable[T]) UnmarshalJSON(data []byte) error {
	n.Set = true
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		n.Value = nil
		return nil
	}
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	n.Value = &v
	return nil
}

// apply overwrites *dst when the field was present.
func (n Nullable[T]) apply(dst **T) {
	if n.Set {
		*dst = n.Value
	}
}

// CategoryPatch holds a partial update; nil fields are left unchanged.
type CategoryPatch struct {
	Name        *string          `json:"name"`
	Description Nullable[string] `json:"description"`
	Icon        *string          `json:"icon"`
}

func (p CategoryPatch) Empty() bool {
	return p.Name == nil && !p.Description.Set && p.Icon == nil
}

// Apply writes the non-nil fields onto c.
func (p CategoryPatch) Apply(c *model.Category, now time.Time) {
	if p.Name != nil {
		c.Name = *p.Name
	}
	p.Description.apply(&c.Description)
	if p.Icon != nil {
		c.Icon = *p.Icon
	}
	c.UpdatedAt = now
}

// TaskPatch holds a partial update; nil and unset fields are left unchanged,
// optional fields sent as null are cleared.
type TaskPatch struct {
	Title      *string          `json:"title"`
	Completed  *bool            `json:"completed"`
	Notes      Nullable[string] `json:"notes"`
	DueDate    Nullable[string] `json:"dueDate"`
	DueTime    Nullable[string] `json:"dueTime"`
	AssignedTo Nullable[string] `json:"assignedTo"`
	Priority   Nullable[string] `json:"priority"`
	Archived   *bool            `json:"archived"`
}

func (p TaskPatch) Empty() bool {
	return p.Title == nil && p.Completed == nil && !p.Notes.Set && !p.DueDate.Set &&
		!p.DueTime.Set && !p.AssignedTo.Set && !p.Priority.Set && p.Archived == nil
}

// Apply writes the non-nil fields onto t. Archiving is one-way.
func (p TaskPatch) Apply(t *model.Task, now time.Time) error {
	if p.Archived != nil && !*p.Archived && t.Archived {
		return ErrUnarchive
	}
	if p.Title != nil {
		t.Title = *p.Title
	}
	if p.Completed != nil {
		t.Completed = *p.Completed
	}
	p.Notes.apply(&t.Notes)
	p.DueDate.apply(&t.DueDate)
	p.DueTime.apply(&t.DueTime)
	p.AssignedTo.apply(&t.AssignedTo)
	p.Priority.apply(&t.Priority)
	if p.Archived != nil && *p.Archived {
		t.Archived = true
	}
	t.UpdatedAt = now
	return nil
}

// FilterTasks drops archived tasks unless opts asks for them.
func FilterTasks(tasks []model.Task, opts ListOptions) []model.Task {
	out := make([]model.Task, 0, len(tasks))
	for _, t := range tasks {
		if opts.IncludeArchived || t.Active() {
			out = append(out, t)
		}
	}
	return out
}
