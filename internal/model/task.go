package model

import (
	"encoding/json"
	"time"
)

type Task struct {
	ID         string    `json:"id" bson:"id" db:"id"`
	CategoryID string    `json:"categoryId" bson:"category_id" db:"category_id"`
	Owner      string    `json:"-" bson:"user_email" db:"owner_email"`
	Title      string    `json:"title" bson:"title" db:"title"`
	Completed  bool      `json:"completed" bson:"completed" db:"completed"`
	Notes      *string   `json:"notes,omitempty" bson:"notes,omitempty" db:"notes"`
	DueDate    *string   `json:"dueDate,omitempty" bson:"due_date,omitempty" db:"due_date"`
	DueTime    *string   `json:"dueTime,omitempty" bson:"due_time,omitempty" db:"due_time"`
	AssignedTo *string   `json:"assignedTo,omitempty" bson:"assigned_to,omitempty" db:"assigned_to"`
	Priority   *string   `json:"priority,omitempty" bson:"priority,omitempty" db:"priority"`
	Archived   bool      `json:"archived" bson:"archived" db:"archived"`
	Order      int       `json:"order" bson:"sort_order" db:"sort_order"`
	CreatedAt  time.Time `json:"createdAt" bson:"created_at" db:"created_at"`
	UpdatedAt  time.Time `json:"updatedAt" bson:"updated_at" db:"updated_at"`
}

// UnmarshalJSON accepts the legacy "text" key as the title.
func (t *Task) UnmarshalJSON(data []byte) error {
	type plain Task
	aux := struct {
		*plain
		Text *string `json:"text"`
	}{plain: (*plain)(t)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	if t.Title == "" && aux.Text != nil {
		t.Title = *aux.Text
	}
	return nil
}

// Active reports whether the task shows up in default views.
func (t Task) Active() bool {
	return !t.Archived
}
