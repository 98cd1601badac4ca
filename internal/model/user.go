package model

import "time"

// User is identified by email only; it is created on first authenticated request.
type User struct {
	Email     string    `json:"email" bson:"email" db:"email"`
	CreatedAt time.Time `json:"createdAt" bson:"created_at" db:"created_at"`
}
