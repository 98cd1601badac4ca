package mq

import (
	"encoding/json"
	"time"
)

// Routing keys on the taskvault.events topic exchange.
const (
	CategoryCreated = "category.created"
	CategoryUpdated = "category.updated"
	CategoryDeleted = "category.deleted"
	TaskCreated     = "task.created"
	TaskUpdated     = "task.updated"
	TaskArchived    = "task.archived"
	TaskDeleted     = "task.deleted"
	DataImported    = "data.imported"
)

// 通用 Event 信封
type Event struct {
	Type       string          `json:"type"`
	OccurredAt time.Time       `json:"occurred_at"`
	Data       json.RawMessage `json:"data"`
}

// NewEvent 序列化 payload
func NewEvent(eventType string, payload any, at time.Time) (Event, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return Event{}, err
	}
	return Event{
		Type:       eventType,
		OccurredAt: at,
		Data:       data,
	}, nil
}
