package model

import "time"

const (
	// CategoryColor is applied to every category regardless of input.
	CategoryColor = "#E97451"
	// DefaultIcon is used when a category is created without an icon.
	DefaultIcon = "📝"
)

type Category struct {
	ID          string    `json:"id" bson:"id" db:"id"`
	Owner       string    `json:"-" bson:"user_email" db:"owner_email"`
	Name        string    `json:"name" bson:"name" db:"name"`
	Description *string   `json:"description,omitempty" bson:"description,omitempty" db:"description"`
	Icon        string    `json:"icon" bson:"icon" db:"icon"`
	Color       string    `json:"color" bson:"color" db:"color"`
	CreatedAt   time.Time `json:"createdAt" bson:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updatedAt" bson:"updated_at" db:"updated_at"`

	// Tasks is filled by list/get calls, never persisted with the row.
	Tasks []Task `json:"todos" bson:"-" db:"-"`
}
